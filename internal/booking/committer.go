// Package booking commits a confirmed quote session into durable
// customer and booking records.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fixitapp/internal/catalog"
	"fixitapp/internal/domain"
	"fixitapp/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrCommitFailed is returned when persisting the customer or the
// booking fails. The customer write is an idempotent upsert by email,
// so a retry never creates a duplicate customer even if the first
// attempt wrote the customer and then failed on the booking.
var ErrCommitFailed = errors.New("failed to commit booking")

// Committer creates the durable records for a confirmed booking
type Committer struct {
	customers repository.CustomerRepository
	bookings  repository.BookingRepository
	catalog   *catalog.Catalog
	logger    *zap.Logger
}

// NewCommitter creates a committer over the given repositories.
func NewCommitter(customers repository.CustomerRepository, bookings repository.BookingRepository, cat *catalog.Catalog, logger *zap.Logger) *Committer {
	return &Committer{
		customers: customers,
		bookings:  bookings,
		catalog:   cat,
		logger:    logger,
	}
}

// Commit resolves the customer by email, freezes the selected issues
// and tiers into a snapshot, and creates the booking in pending status
// with the computed total. Issue and tier names are resolved now so
// later catalog edits never alter this booking.
func (c *Committer) Commit(ctx context.Context, sel *domain.QuoteSelection, sched *domain.ScheduleSelection, contact domain.ContactInfo) (*domain.Booking, error) {
	quote, err := c.catalog.TotalFor(sel)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCommitFailed, err)
	}

	customer := &domain.Customer{
		FullName: contact.Name,
		Phone:    contact.Phone,
		Email:    strings.ToLower(strings.TrimSpace(contact.Email)),
	}
	if err := c.customers.UpsertByEmail(ctx, customer); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCommitFailed, err)
	}

	issues := make([]domain.BookingIssue, 0, len(quote.Items))
	for _, item := range quote.Items {
		issues = append(issues, domain.BookingIssue{
			ID:       item.RepairID,
			Name:     item.RepairName,
			TierID:   item.TierID,
			TierName: item.TierName,
			Price:    item.Price,
		})
	}

	overallID, overallName := c.overallTier(sel)

	booking := &domain.Booking{
		Reference:     newReference(),
		CustomerID:    customer.ID,
		Customer:      customer,
		DeviceName:    sel.Device.Name,
		Issues:        issues,
		TierID:        overallID,
		TierName:      overallName,
		Status:        domain.BookingStatusPending,
		TotalEstimate: quote.Total,
		Notes:         sel.Notes,
		ScheduleDate:  sched.Date,
		ScheduleSlot:  sched.TimeSlot,
		Address:       sched.Address,
	}

	if err := c.bookings.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCommitFailed, err)
	}

	c.logger.Info("booking committed",
		zap.String("reference", booking.Reference),
		zap.String("device", booking.DeviceName),
		zap.Int("issues", len(booking.Issues)),
		zap.Float64("total", booking.TotalEstimate))

	return booking, nil
}

// overallTier picks the booking-level tier snapshot: the highest-ranked
// tier among the per-issue choices.
func (c *Committer) overallTier(sel *domain.QuoteSelection) (string, string) {
	best := domain.PartsTier{Rank: -1}
	for _, tierID := range sel.IssueTiers {
		if tier, ok := c.catalog.TierByID(tierID); ok && tier.Rank > best.Rank {
			best = tier
		}
	}
	if best.Rank < 0 {
		return "", ""
	}
	return best.ID, best.Name
}

// newReference builds a short, human-readable booking reference.
func newReference() string {
	id := uuid.New().String()
	return "FX-" + strings.ToUpper(id[:8])
}
