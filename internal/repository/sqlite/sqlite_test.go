package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"fixitapp/internal/domain"

	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())
	return db
}

func TestCustomerUpsertByEmail(t *testing.T) {
	db := testDB(t)
	repo := NewCustomerRepo(db)
	ctx := context.Background()

	first := &domain.Customer{FullName: "Ana Lopez", Phone: "555-0101", Email: "ana@example.com"}
	require.NoError(t, repo.UpsertByEmail(ctx, first))
	require.NotZero(t, first.ID)
	require.False(t, first.CreatedAt.IsZero())

	// Same email upserts in place, keeping the id and created_at
	second := &domain.Customer{FullName: "Ana L. Lopez", Phone: "555-0202", Email: "ana@example.com"}
	require.NoError(t, repo.UpsertByEmail(ctx, second))
	require.Equal(t, first.ID, second.ID)

	stored, err := repo.GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, "Ana L. Lopez", stored.FullName)
	require.Equal(t, "555-0202", stored.Phone)

	customers, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, customers, 1)
}

func TestCustomerGetMissingReturnsNil(t *testing.T) {
	db := testDB(t)
	repo := NewCustomerRepo(db)
	ctx := context.Background()

	customer, err := repo.GetByID(ctx, 42)
	require.NoError(t, err)
	require.Nil(t, customer)

	customer, err = repo.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	require.Nil(t, customer)
}

func TestBookingRoundTrip(t *testing.T) {
	db := testDB(t)
	customers := NewCustomerRepo(db)
	bookings := NewBookingRepo(db)
	ctx := context.Background()

	customer := &domain.Customer{FullName: "Ana Lopez", Email: "ana@example.com"}
	require.NoError(t, customers.UpsertByEmail(ctx, customer))

	booking := &domain.Booking{
		Reference:  "FX-AB12CD34",
		CustomerID: customer.ID,
		DeviceName: "iPhone 13",
		Issues: []domain.BookingIssue{
			{ID: "screen", Name: "Screen Replacement", TierID: "premium", TierName: "Premium", Price: 129},
		},
		TierID:        "premium",
		TierName:      "Premium",
		Status:        domain.BookingStatusPending,
		TotalEstimate: 198,
		Notes:         "cracked corner",
		ScheduleDate:  time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		ScheduleSlot:  "09:00 - 11:00",
		Address:       "12 King St, Saint Augustine, FL",
	}
	require.NoError(t, bookings.Create(ctx, booking))
	require.NotZero(t, booking.ID)

	stored, err := bookings.GetByReference(ctx, "FX-AB12CD34")
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, "iPhone 13", stored.DeviceName)
	require.Len(t, stored.Issues, 1)
	require.Equal(t, "Screen Replacement", stored.Issues[0].Name)
	require.Equal(t, 198.0, stored.TotalEstimate)
	require.Equal(t, "ana@example.com", stored.Customer.Email)

	missing, err := bookings.GetByReference(ctx, "FX-NOPE")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestBookingStatusAndCounts(t *testing.T) {
	db := testDB(t)
	customers := NewCustomerRepo(db)
	bookings := NewBookingRepo(db)
	ctx := context.Background()

	customer := &domain.Customer{FullName: "Ana Lopez", Email: "ana@example.com"}
	require.NoError(t, customers.UpsertByEmail(ctx, customer))

	for _, ref := range []string{"FX-AAAA0001", "FX-AAAA0002"} {
		require.NoError(t, bookings.Create(ctx, &domain.Booking{
			Reference:     ref,
			CustomerID:    customer.ID,
			DeviceName:    "iPhone 13",
			Issues:        []domain.BookingIssue{},
			TierID:        "premium",
			TierName:      "Premium",
			Status:        domain.BookingStatusPending,
			TotalEstimate: 100,
			ScheduleDate:  time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
			ScheduleSlot:  "09:00 - 11:00",
			Address:       "12 King St",
		}))
	}

	count, err := bookings.CountByStatus(ctx, domain.BookingStatusPending)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	first, err := bookings.GetByReference(ctx, "FX-AAAA0001")
	require.NoError(t, err)
	require.NoError(t, bookings.UpdateStatus(ctx, first.ID, domain.BookingStatusConfirmed))

	confirmed, err := bookings.List(ctx, domain.BookingStatusConfirmed, 10, 0)
	require.NoError(t, err)
	require.Len(t, confirmed, 1)

	byCustomer, err := bookings.GetByCustomerID(ctx, customer.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, byCustomer, 2)
}

func TestSettingsRepo(t *testing.T) {
	db := testDB(t)
	repo := NewSettingsRepo(db)
	ctx := context.Background()

	value, err := repo.Get(ctx, "availability_table")
	require.NoError(t, err)
	require.Empty(t, value)

	require.NoError(t, repo.Set(ctx, "availability_table", `{"2026-03-05": ["09:00 - 11:00"]}`))
	require.NoError(t, repo.Set(ctx, "availability_table", `{"2026-03-06": ["11:00 - 13:00"]}`))

	value, err = repo.Get(ctx, "availability_table")
	require.NoError(t, err)
	require.Equal(t, `{"2026-03-06": ["11:00 - 13:00"]}`, value)
}
