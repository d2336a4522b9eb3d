package wizard

import (
	"context"
	"fmt"
	"strings"

	"fixitapp/internal/domain"
	"fixitapp/internal/schedule"

	"github.com/samber/lo"
)

// Next advances the session one step forward if the current step's
// guard passes. On the issues step, a software-only repair diverts the
// flow to the terminal store-visit branch instead of scheduling.
func (e *Engine) Next(ctx context.Context, sess *Session) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	switch sess.Step {
	case StepDevice:
		if sess.Selection.Device == nil {
			return fmt.Errorf("%w: select a device first", ErrValidationBlocked)
		}
		sess.Step = StepIssues

	case StepIssues:
		if err := e.guardIssues(sess); err != nil {
			return err
		}
		if e.hasSoftwareIssue(sess) {
			sess.Step = StepStoreVisit
			break
		}
		sess.Step = StepSchedule

	case StepSchedule:
		if err := e.guardSchedule(ctx, sess); err != nil {
			return err
		}
		sess.Step = StepReview

	case StepReview:
		if sess.Authenticated {
			return fmt.Errorf("%w: signed-in customers commit directly from review", ErrValidationBlocked)
		}
		if err := e.guardReview(sess); err != nil {
			return err
		}
		if strings.TrimSpace(sess.Contact.Name) == "" || strings.TrimSpace(sess.Contact.Email) == "" {
			return fmt.Errorf("%w: complete contact info before verification", ErrValidationBlocked)
		}
		sess.Step = StepVerify

	case StepVerify:
		return fmt.Errorf("%w: confirm the verification code to finish booking", ErrValidationBlocked)

	default:
		return fmt.Errorf("%w: no forward step from %s", ErrValidationBlocked, sess.Step)
	}

	sess.touch()
	return nil
}

// Back steps to the immediately preceding step only, resetting state
// that is no longer valid for the earlier step.
func (e *Engine) Back(sess *Session) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	switch sess.Step {
	case StepIssues:
		sess.Step = StepDevice

	case StepSchedule, StepStoreVisit:
		// Abandon any in-flight address lookup along with the step
		sess.Searcher.Reset()
		sess.Schedule = domain.ScheduleSelection{}
		sess.Step = StepIssues
		e.revalidateTiers(sess)

	case StepReview:
		sess.Step = StepSchedule

	case StepVerify:
		sess.Verified = false
		sess.Step = StepReview

	default:
		return fmt.Errorf("%w: no backward step from %s", ErrValidationBlocked, sess.Step)
	}

	sess.touch()
	return nil
}

// guardIssues enforces Issues→Schedule: at least one issue, and every
// selected issue carries a tier drawn from its offered set with a
// resolvable price.
func (e *Engine) guardIssues(sess *Session) error {
	if sess.Selection.Device == nil {
		return fmt.Errorf("%w: no device selected", ErrValidationBlocked)
	}
	if len(sess.Selection.Issues) == 0 {
		return fmt.Errorf("%w: select at least one issue", ErrValidationBlocked)
	}

	for _, repairID := range sess.Selection.Issues {
		tierID, ok := sess.Selection.IssueTiers[repairID]
		if !ok {
			return fmt.Errorf("%w: choose a parts tier for %s", ErrValidationBlocked, repairID)
		}
		offered := e.catalog.TiersFor(sess.Selection.Device.Name, repairID)
		if !lo.ContainsBy(offered, func(t domain.PartsTier) bool { return t.ID == tierID }) {
			return fmt.Errorf("%w: tier %s is not offered for %s", ErrValidationBlocked, tierID, repairID)
		}
		if _, err := e.catalog.PriceFor(sess.Selection.Device.Name, repairID, tierID); err != nil {
			return err
		}
	}
	return nil
}

// guardSchedule enforces Schedule→Review: date, slot and a validated
// address must all be present, and the date must still clear the
// minimum in case the selection changed underneath it.
func (e *Engine) guardSchedule(ctx context.Context, sess *Session) error {
	if sess.Schedule.Date.IsZero() || sess.Schedule.TimeSlot == "" {
		return fmt.Errorf("%w: pick a date and time slot", ErrValidationBlocked)
	}
	if sess.Schedule.Address == "" || sess.Schedule.ServiceAreaError != "" {
		return fmt.Errorf("%w: a validated service address is required", ErrValidationBlocked)
	}

	minDate := e.matcher.MinimumDate(ctx, &sess.Selection)
	if sess.Schedule.Date.Before(minDate) {
		return fmt.Errorf("%w: earliest available date is %s", ErrValidationBlocked, minDate.Format(schedule.DateFormat))
	}
	return nil
}

// guardReview blocks commit while the back glass color is missing for
// a device that offers color options.
func (e *Engine) guardReview(sess *Session) error {
	sel := &sess.Selection
	if sel.HasIssue(domain.RepairBackGlass) &&
		sel.Device != nil && len(sel.Device.BackGlassColors) > 0 &&
		sel.BackGlassColor == "" {
		return fmt.Errorf("%w: choose a back glass color", ErrValidationBlocked)
	}
	return nil
}

// hasSoftwareIssue reports whether any selected issue is software-only.
func (e *Engine) hasSoftwareIssue(sess *Session) bool {
	for _, repairID := range sess.Selection.Issues {
		if repair, ok := e.catalog.RepairByID(repairID); ok && repair.IsSoftware() {
			return true
		}
	}
	return false
}

// revalidateTiers drops tier assignments that are no longer offered
// for the current device.
func (e *Engine) revalidateTiers(sess *Session) {
	if sess.Selection.Device == nil {
		return
	}
	for repairID, tierID := range sess.Selection.IssueTiers {
		offered := e.catalog.TiersFor(sess.Selection.Device.Name, repairID)
		if !lo.ContainsBy(offered, func(t domain.PartsTier) bool { return t.ID == tierID }) {
			delete(sess.Selection.IssueTiers, repairID)
		}
	}
}
