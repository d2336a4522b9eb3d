// Package wizard drives the repair quote flow: device, issues,
// schedule, review, verification and the final commit. The step
// transition rules live here; pricing, inventory, scheduling and
// address validation are delegated to their own packages.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"fixitapp/internal/booking"
	"fixitapp/internal/catalog"
	"fixitapp/internal/domain"
	"fixitapp/internal/inventory"
	"fixitapp/internal/otp"
	"fixitapp/internal/schedule"
	"fixitapp/internal/servicearea"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Step identifies a wizard state
type Step string

const (
	StepDevice   Step = "device"
	StepIssues   Step = "issues"
	StepSchedule Step = "schedule"
	StepReview   Step = "review"
	StepVerify   Step = "verify"
	StepBooked   Step = "booked"

	// StepStoreVisit is the terminal branch for software-only repairs,
	// which cannot be scheduled as on-site appointments.
	StepStoreVisit Step = "store_visit"
)

// ErrValidationBlocked is returned when a guard refuses a transition or
// edit. No external call is made and the wizard stays on its step.
var ErrValidationBlocked = errors.New("step requirements not met")

// Session holds all state for one in-progress quote. It is owned by a
// single customer flow; the mutex only serializes racing HTTP requests
// for the same session id.
type Session struct {
	ID            string
	Step          Step
	Authenticated bool
	AuthEmail     string

	Selection domain.QuoteSelection
	Schedule  domain.ScheduleSelection
	Contact   domain.ContactInfo
	Verified  bool

	BookingRef string
	Searcher   *servicearea.Searcher

	CreatedAt time.Time
	UpdatedAt time.Time

	mu sync.Mutex
}

// Engine wires the wizard's collaborators together
type Engine struct {
	catalog      *catalog.Catalog
	checker      *inventory.Checker
	matcher      *schedule.Matcher
	validator    *servicearea.Validator
	availability schedule.Provider
	geocoder     servicearea.Geocoder
	codes        *otp.Controller
	committer    *booking.Committer
	logger       *zap.Logger
}

// NewEngine creates the wizard engine.
func NewEngine(
	cat *catalog.Catalog,
	checker *inventory.Checker,
	matcher *schedule.Matcher,
	validator *servicearea.Validator,
	availability schedule.Provider,
	geocoder servicearea.Geocoder,
	codes *otp.Controller,
	committer *booking.Committer,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		catalog:      cat,
		checker:      checker,
		matcher:      matcher,
		validator:    validator,
		availability: availability,
		geocoder:     geocoder,
		codes:        codes,
		committer:    committer,
		logger:       logger,
	}
}

// NewSession starts a wizard session. A non-empty authEmail marks the
// session as already verified by the identity provider; the Verify
// step is skipped for it.
func (e *Engine) NewSession(authEmail string) *Session {
	now := time.Now()
	return &Session{
		ID:            uuid.New().String(),
		Step:          StepDevice,
		Authenticated: authEmail != "",
		AuthEmail:     strings.ToLower(strings.TrimSpace(authEmail)),
		Selection: domain.QuoteSelection{
			IssueTiers: make(map[string]string),
		},
		Searcher:  servicearea.NewSearcher(e.geocoder),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SelectDevice sets the device for the quote. The device is immutable
// once issues are selected.
func (e *Engine) SelectDevice(sess *Session, deviceID int64) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.Step != StepDevice {
		return fmt.Errorf("%w: device can only be chosen on the device step", ErrValidationBlocked)
	}
	if len(sess.Selection.Issues) > 0 {
		return fmt.Errorf("%w: device cannot change after issues are selected", ErrValidationBlocked)
	}

	device, ok := e.catalog.DeviceByID(deviceID)
	if !ok {
		return fmt.Errorf("%w: unknown device", ErrValidationBlocked)
	}
	sess.Selection.Device = &device
	sess.touch()
	return nil
}

// ToggleIssue adds or removes a repair type from the selection,
// preserving insertion order. Removing an issue also drops its tier
// assignment, and the back-glass color when back glass is removed.
func (e *Engine) ToggleIssue(sess *Session, repairID string) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.Step != StepIssues {
		return fmt.Errorf("%w: issues can only be edited on the issues step", ErrValidationBlocked)
	}
	if _, ok := e.catalog.RepairByID(repairID); !ok {
		return fmt.Errorf("%w: unknown repair type", ErrValidationBlocked)
	}

	if sess.Selection.HasIssue(repairID) {
		sess.Selection.Issues = lo.Without(sess.Selection.Issues, repairID)
		delete(sess.Selection.IssueTiers, repairID)
		if repairID == domain.RepairBackGlass {
			sess.Selection.BackGlassColor = ""
		}
	} else {
		sess.Selection.Issues = append(sess.Selection.Issues, repairID)
	}
	sess.touch()
	return nil
}

// AssignTier picks a parts tier for a selected issue. The tier must be
// in the pair's offered set and must resolve to a price; an unpriced
// pair blocks tier selection rather than defaulting to zero.
func (e *Engine) AssignTier(sess *Session, repairID, tierID string) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.Step != StepIssues {
		return fmt.Errorf("%w: tiers can only be edited on the issues step", ErrValidationBlocked)
	}
	if !sess.Selection.HasIssue(repairID) {
		return fmt.Errorf("%w: repair %s is not selected", ErrValidationBlocked, repairID)
	}

	offered := e.catalog.TiersFor(sess.Selection.Device.Name, repairID)
	if !lo.ContainsBy(offered, func(t domain.PartsTier) bool { return t.ID == tierID }) {
		return fmt.Errorf("%w: tier %s is not offered for %s", ErrValidationBlocked, tierID, repairID)
	}
	if _, err := e.catalog.PriceFor(sess.Selection.Device.Name, repairID, tierID); err != nil {
		return err
	}

	sess.Selection.IssueTiers[repairID] = tierID
	sess.touch()
	return nil
}

// SetBackGlassColor records the chosen back glass color.
func (e *Engine) SetBackGlassColor(sess *Session, color string) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if !sess.Selection.HasIssue(domain.RepairBackGlass) {
		return fmt.Errorf("%w: back glass is not among the selected repairs", ErrValidationBlocked)
	}
	device := sess.Selection.Device
	if device == nil || !lo.Contains(device.BackGlassColors, color) {
		return fmt.Errorf("%w: color %q is not available for this device", ErrValidationBlocked, color)
	}
	sess.Selection.BackGlassColor = color
	sess.touch()
	return nil
}

// SetNotes stores the customer's free-text notes, capped at the
// maximum length.
func (e *Engine) SetNotes(sess *Session, notes string) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if utf8.RuneCountInString(notes) > domain.MaxNotesLength {
		return fmt.Errorf("%w: notes exceed %d characters", ErrValidationBlocked, domain.MaxNotesLength)
	}
	sess.Selection.Notes = notes
	sess.touch()
	return nil
}

// Quote computes the current price breakdown.
func (e *Engine) Quote(sess *Session) (*catalog.Quote, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return e.catalog.TotalFor(&sess.Selection)
}

// MinimumDate returns the earliest schedulable date for the session.
func (e *Engine) MinimumDate(ctx context.Context, sess *Session) time.Time {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return e.matcher.MinimumDate(ctx, &sess.Selection)
}

// SlotsFor returns the bookable slots for a date. A failed availability
// fetch degrades to the presumptive default slots rather than failing
// the wizard.
func (e *Engine) SlotsFor(ctx context.Context, sess *Session, date time.Time) []string {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	table, err := e.availability.Availability(ctx)
	if err != nil {
		e.logger.Warn("availability lookup failed", zap.Error(err))
		table = nil
	}
	minDate := e.matcher.MinimumDate(ctx, &sess.Selection)
	return e.matcher.SlotsFor(date, minDate, table)
}

// SetSchedule records the appointment date and time slot. Dates before
// the minimum date are rejected even when requested directly, and the
// slot must be bookable on that date.
func (e *Engine) SetSchedule(ctx context.Context, sess *Session, date time.Time, slot string) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.Step != StepSchedule {
		return fmt.Errorf("%w: scheduling is only available on the schedule step", ErrValidationBlocked)
	}

	minDate := e.matcher.MinimumDate(ctx, &sess.Selection)
	if schedule.Truncate(date).Before(minDate) {
		return fmt.Errorf("%w: earliest available date is %s", ErrValidationBlocked, minDate.Format(schedule.DateFormat))
	}

	table, err := e.availability.Availability(ctx)
	if err != nil {
		e.logger.Warn("availability lookup failed", zap.Error(err))
		table = nil
	}
	if !e.matcher.Selectable(date, minDate, slot, table) {
		return fmt.Errorf("%w: slot %q is not available on %s", ErrValidationBlocked, slot, schedule.Truncate(date).Format(schedule.DateFormat))
	}

	sess.Schedule.Date = schedule.Truncate(date)
	sess.Schedule.TimeSlot = slot
	sess.touch()
	return nil
}

// InputAddress feeds address keystrokes into the debounced search.
func (e *Engine) InputAddress(sess *Session, text string) {
	sess.Searcher.Input(text)
	sess.mu.Lock()
	sess.touch()
	sess.mu.Unlock()
}

// AddressCandidates returns the suggestions for the latest query.
func (e *Engine) AddressCandidates(sess *Session) []servicearea.Candidate {
	return sess.Searcher.Candidates()
}

// SelectAddress validates a chosen candidate against the service area.
// Acceptance stores the address; rejection clears any previously
// accepted address and records the rejected city label.
func (e *Engine) SelectAddress(sess *Session, cand servicearea.Candidate) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.Step != StepSchedule {
		return fmt.Errorf("%w: the address is set on the schedule step", ErrValidationBlocked)
	}

	result := e.validator.Validate(cand)
	if !result.Accepted {
		sess.Schedule.Address = ""
		sess.Schedule.ServiceAreaError = result.RejectedCityLabel
		sess.touch()
		return fmt.Errorf("%w: %s", servicearea.ErrRejected, result.RejectedCityLabel)
	}

	sess.Schedule.Address = cand.Display
	sess.Schedule.ServiceAreaError = ""
	sess.touch()
	return nil
}

// SubmitContact records contact info for an unauthenticated booking.
func (e *Engine) SubmitContact(sess *Session, contact domain.ContactInfo) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.Step != StepReview {
		return fmt.Errorf("%w: contact info is submitted on the review step", ErrValidationBlocked)
	}
	if sess.Authenticated {
		return fmt.Errorf("%w: contact info is not needed for signed-in customers", ErrValidationBlocked)
	}
	if strings.TrimSpace(contact.Name) == "" || strings.TrimSpace(contact.Email) == "" {
		return fmt.Errorf("%w: name and email are required", ErrValidationBlocked)
	}
	sess.Contact = contact
	sess.touch()
	return nil
}

// RequestCode asks the identity provider to deliver a verification
// code to the session's contact email.
func (e *Engine) RequestCode(ctx context.Context, sess *Session) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.Step != StepVerify {
		return fmt.Errorf("%w: verification happens on the verify step", ErrValidationBlocked)
	}
	return e.codes.RequestCode(ctx, sess.Contact.Email)
}

// ConfirmCode checks the submitted code. On success the booking is
// committed and the session reaches the booked step; on failure the
// verify step stays active and the customer may retry.
func (e *Engine) ConfirmCode(ctx context.Context, sess *Session, code string) (*domain.Booking, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.Step != StepVerify {
		return nil, fmt.Errorf("%w: verification happens on the verify step", ErrValidationBlocked)
	}
	if err := e.codes.ConfirmCode(ctx, sess.Contact.Email, code); err != nil {
		return nil, err
	}
	sess.Verified = true
	return e.commit(ctx, sess)
}

// Commit books an authenticated session directly from the review step.
// Unauthenticated sessions book through ConfirmCode instead.
func (e *Engine) Commit(ctx context.Context, sess *Session) (*domain.Booking, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.Step != StepReview || !sess.Authenticated {
		return nil, fmt.Errorf("%w: only signed-in customers commit from review", ErrValidationBlocked)
	}
	if err := e.guardReview(sess); err != nil {
		return nil, err
	}
	return e.commit(ctx, sess)
}

// commit runs the booking committer and advances to booked. Callers
// hold the session lock and have already passed the relevant guards.
func (e *Engine) commit(ctx context.Context, sess *Session) (*domain.Booking, error) {
	contact := sess.Contact
	if sess.Authenticated {
		contact = domain.ContactInfo{
			Name:  sess.Contact.Name,
			Email: sess.AuthEmail,
			Phone: sess.Contact.Phone,
		}
		if contact.Name == "" {
			contact.Name = sess.AuthEmail
		}
	}

	booked, err := e.committer.Commit(ctx, &sess.Selection, &sess.Schedule, contact)
	if err != nil {
		return nil, err
	}

	sess.Step = StepBooked
	sess.BookingRef = booked.Reference
	sess.Searcher.Close()
	sess.touch()
	return booked, nil
}

// SessionState is a consistent copy of a session's mutable fields,
// taken under the session lock. Handlers render from a state copy so
// they never read fields an engine call is mutating.
type SessionState struct {
	ID            string
	Step          Step
	Authenticated bool
	Selection     domain.QuoteSelection
	Schedule      domain.ScheduleSelection
	BookingRef    string
	UpdatedAt     time.Time
}

// State returns a copy of the session's mutable fields.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionState{
		ID:            s.ID,
		Step:          s.Step,
		Authenticated: s.Authenticated,
		Selection:     s.Selection.Clone(),
		Schedule:      s.Schedule,
		BookingRef:    s.BookingRef,
		UpdatedAt:     s.UpdatedAt,
	}
}

// LastActive returns the time of the last mutation.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.UpdatedAt
}

// Catalog exposes the reference data for read-only handlers.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// StockFor exposes stock status for catalog option listings.
func (e *Engine) StockFor(ctx context.Context, repairID, tierID string) domain.StockStatus {
	return e.checker.StockFor(ctx, repairID, tierID)
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now()
}
