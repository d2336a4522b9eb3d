// Package domain defines core business entities
package domain

import (
	"time"
)

// Device represents a repairable phone model from the catalog
type Device struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	Generation      string   `json:"generation"` // e.g. "SE", "13", "15"
	Year            int      `json:"year"`
	BackGlassColors []string `json:"backGlassColors,omitempty"`
}

// RepairType represents an issue a customer can have fixed
type RepairType struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon,omitempty"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category"` // hardware, software
}

// IsSoftware reports whether the repair can only be handled in-store.
func (r RepairType) IsSoftware() bool {
	return r.Category == CategorySoftware
}

// PartsTier represents a parts-quality level
type PartsTier struct {
	ID          string `json:"id"` // economy, premium, genuine
	Name        string `json:"name"`
	Color       string `json:"color,omitempty"`
	Description string `json:"description,omitempty"`
	Rank        int    `json:"rank"` // economy < premium < genuine
}

// StockStatus describes parts availability for a (repair, tier) pair
type StockStatus string

const (
	StockInStock    StockStatus = "in_stock"
	StockNeedsOrder StockStatus = "needs_order"
	StockUnknown    StockStatus = "unknown"
)

// QuoteSelection holds everything the customer has picked in the wizard.
// It is owned by the in-progress session and discarded on commit.
type QuoteSelection struct {
	Device         *Device           `json:"device,omitempty"`
	Issues         []string          `json:"issues"` // repair type ids, insertion order preserved
	IssueTiers     map[string]string `json:"issueTiers"`
	BackGlassColor string            `json:"backGlassColor,omitempty"`
	Notes          string            `json:"notes,omitempty"`
}

// HasIssue reports whether the given repair type is selected.
func (s *QuoteSelection) HasIssue(repairID string) bool {
	for _, id := range s.Issues {
		if id == repairID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy detached from the session that owns the
// original. The device pointer is shared; devices are immutable.
func (s *QuoteSelection) Clone() QuoteSelection {
	out := *s
	out.Issues = append([]string(nil), s.Issues...)
	if s.IssueTiers != nil {
		out.IssueTiers = make(map[string]string, len(s.IssueTiers))
		for k, v := range s.IssueTiers {
			out.IssueTiers[k] = v
		}
	}
	return out
}

// ScheduleSelection holds the appointment half of the wizard
type ScheduleSelection struct {
	Date             time.Time `json:"date"`
	TimeSlot         string    `json:"timeSlot,omitempty"`
	Address          string    `json:"address,omitempty"`
	ServiceAreaError string    `json:"serviceAreaError,omitempty"` // rejected city label
}

// ContactInfo identifies an unauthenticated customer at booking time
type ContactInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// Customer represents a durable customer record, matched by email
type Customer struct {
	ID        int64     `json:"id"`
	FullName  string    `json:"fullName"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// BookingIssue is a frozen snapshot of a repair line at commit time.
// Names are resolved when the booking is created so later catalog edits
// never alter historical bookings.
type BookingIssue struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	TierID   string  `json:"tierId"`
	TierName string  `json:"tierName"`
	Price    float64 `json:"price"`
}

// Booking represents a committed repair appointment
type Booking struct {
	ID            int64          `json:"id"`
	Reference     string         `json:"reference"`
	CustomerID    int64          `json:"customerId"`
	Customer      *Customer      `json:"customer,omitempty"`
	DeviceName    string         `json:"deviceName"`
	Issues        []BookingIssue `json:"issues"`
	TierID        string         `json:"tierId"`
	TierName      string         `json:"tierName"`
	Status        string         `json:"status"` // pending, confirmed, completed, cancelled
	TotalEstimate float64        `json:"totalEstimate"`
	Notes         string         `json:"notes,omitempty"`
	ScheduleDate  time.Time      `json:"scheduleDate"`
	ScheduleSlot  string         `json:"scheduleSlot"`
	Address       string         `json:"address"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// Status constants
const (
	// Booking statuses
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCompleted = "completed"
	BookingStatusCancelled = "cancelled"

	// Repair categories
	CategoryHardware = "hardware"
	CategorySoftware = "software"

	// Parts tier ids
	TierEconomy = "economy"
	TierPremium = "premium"
	TierGenuine = "genuine"

	// Repair type id for back glass, which may require a color choice
	RepairBackGlass = "back-glass"
)

// MaxNotesLength caps the free-text notes a customer can attach
const MaxNotesLength = 500

// BookingStatusLabel returns a human-readable label for a booking status
func BookingStatusLabel(status string) string {
	labels := map[string]string{
		BookingStatusPending:   "Pending",
		BookingStatusConfirmed: "Confirmed",
		BookingStatusCompleted: "Completed",
		BookingStatusCancelled: "Cancelled",
	}
	if label, ok := labels[status]; ok {
		return label
	}
	return status
}
