package booking_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"fixitapp/internal/booking"
	"fixitapp/internal/catalog"
	"fixitapp/internal/domain"
	"fixitapp/internal/repository/memory"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testSelection(t *testing.T, cat *catalog.Catalog) *domain.QuoteSelection {
	t.Helper()
	device, ok := cat.DeviceByID(3)
	require.True(t, ok)
	return &domain.QuoteSelection{
		Device:     &device,
		Issues:     []string{"screen", "battery"},
		IssueTiers: map[string]string{"screen": "genuine", "battery": "premium"},
		Notes:      "cracked corner",
	}
}

func testSchedule() *domain.ScheduleSelection {
	return &domain.ScheduleSelection{
		Date:     time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		TimeSlot: "09:00 - 11:00",
		Address:  "12 King St, Saint Augustine, FL",
	}
}

func TestCommitCreatesBookingSnapshot(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	repos := memory.NewRepositories()
	committer := booking.NewCommitter(repos.Customers, repos.Bookings, cat, zap.NewNop())

	contact := domain.ContactInfo{Name: "Ana Lopez", Email: "Ana@Example.com ", Phone: "555-0101"}
	b, err := committer.Commit(context.Background(), testSelection(t, cat), testSchedule(), contact)
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(b.Reference, "FX-"))
	require.Equal(t, domain.BookingStatusPending, b.Status)
	require.Equal(t, "iPhone 13", b.DeviceName)
	require.Len(t, b.Issues, 2)
	require.Equal(t, "Screen Replacement", b.Issues[0].Name)
	require.Equal(t, "cracked corner", b.Notes)

	// Overall tier is the highest rank among the per-issue choices
	require.Equal(t, domain.TierGenuine, b.TierID)

	// Email is normalized before the upsert
	customer, err := repos.Customers.GetByEmail(context.Background(), "ana@example.com")
	require.NoError(t, err)
	require.NotNil(t, customer)
	require.Equal(t, customer.ID, b.CustomerID)
}

func TestCommitReusesCustomerByEmail(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	repos := memory.NewRepositories()
	committer := booking.NewCommitter(repos.Customers, repos.Bookings, cat, zap.NewNop())
	ctx := context.Background()

	contact := domain.ContactInfo{Name: "Ana Lopez", Email: "ana@example.com"}
	first, err := committer.Commit(ctx, testSelection(t, cat), testSchedule(), contact)
	require.NoError(t, err)

	// Second booking with the same email but an updated name
	contact.Name = "Ana L. Lopez"
	second, err := committer.Commit(ctx, testSelection(t, cat), testSchedule(), contact)
	require.NoError(t, err)

	require.Equal(t, first.CustomerID, second.CustomerID)
	require.NotEqual(t, first.Reference, second.Reference)

	customer, err := repos.Customers.GetByID(ctx, first.CustomerID)
	require.NoError(t, err)
	require.Equal(t, "Ana L. Lopez", customer.FullName)
}

func TestCommitFailureWrapsError(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	repos := memory.NewRepositories()
	repos.Bookings.(*memory.BookingRepo).FailCreate = errors.New("disk full")
	committer := booking.NewCommitter(repos.Customers, repos.Bookings, cat, zap.NewNop())

	contact := domain.ContactInfo{Name: "Ana Lopez", Email: "ana@example.com"}
	_, err = committer.Commit(context.Background(), testSelection(t, cat), testSchedule(), contact)
	require.True(t, errors.Is(err, booking.ErrCommitFailed))
}

func TestCommitUnpricedSelectionFails(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	repos := memory.NewRepositories()
	committer := booking.NewCommitter(repos.Customers, repos.Bookings, cat, zap.NewNop())

	device, ok := cat.DeviceByID(1)
	require.True(t, ok)
	sel := &domain.QuoteSelection{
		Device:     &device,
		Issues:     []string{"water-damage"},
		IssueTiers: map[string]string{"water-damage": "genuine"},
	}

	_, err = committer.Commit(context.Background(), sel, testSchedule(), domain.ContactInfo{Name: "Ana", Email: "a@b.c"})
	require.True(t, errors.Is(err, booking.ErrCommitFailed))
}
