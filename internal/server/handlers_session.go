package server

import (
	"net/http"
	"time"

	"fixitapp/internal/catalog"
	"fixitapp/internal/domain"
	"fixitapp/internal/otp"
	"fixitapp/internal/schedule"
	"fixitapp/internal/servicearea"
	"fixitapp/internal/wizard"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// sessionView is the JSON shape of a wizard session
type sessionView struct {
	ID            string                   `json:"id"`
	Step          wizard.Step              `json:"step"`
	Authenticated bool                     `json:"authenticated"`
	Selection     domain.QuoteSelection    `json:"selection"`
	Schedule      domain.ScheduleSelection `json:"schedule"`
	Quote         *catalog.Quote           `json:"quote,omitempty"`
	MinimumDate   string                   `json:"minimumDate,omitempty"`
	BookingRef    string                   `json:"bookingRef,omitempty"`
}

func (s *Server) sessionViewFor(r *http.Request, sess *wizard.Session) sessionView {
	state := sess.State()
	view := sessionView{
		ID:            state.ID,
		Step:          state.Step,
		Authenticated: state.Authenticated,
		Selection:     state.Selection,
		Schedule:      state.Schedule,
		BookingRef:    state.BookingRef,
	}
	// The quote is informative while incomplete; errors just omit it
	if quote, err := s.engine.Quote(sess); err == nil {
		view.Quote = quote
	}
	if len(state.Selection.Issues) > 0 {
		view.MinimumDate = s.engine.MinimumDate(r.Context(), sess).Format(schedule.DateFormat)
	}
	return view
}

// session resolves the session from the URL, or writes a 404.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *wizard.Session {
	sess := s.sessions.Get(chi.URLParam(r, "id"))
	if sess == nil {
		respondJSON(w, http.StatusNotFound, errorResponse{Error: "session not found or expired"})
		return nil
	}
	return sess
}

// handleCreateSession starts a new quote wizard session. A signed-in
// customer skips the verification step later on.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var authEmail string
	if claims := getUserClaims(r); claims != nil {
		authEmail = claims.Email
	}

	sess := s.engine.NewSession(authEmail)
	s.sessions.Put(sess)
	respondJSON(w, http.StatusCreated, s.sessionViewFor(r, sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	respondJSON(w, http.StatusOK, s.sessionViewFor(r, sess))
}

func (s *Server) handleSelectDevice(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

	var body struct {
		DeviceID int64 `json:"deviceId"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	if err := s.engine.SelectDevice(sess, body.DeviceID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, s.sessionViewFor(r, sess))
}

func (s *Server) handleToggleIssue(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

	var body struct {
		RepairID string `json:"repairId"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	if err := s.engine.ToggleIssue(sess, body.RepairID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, s.sessionViewFor(r, sess))
}

func (s *Server) handleAssignTier(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

	var body struct {
		RepairID string `json:"repairId"`
		TierID   string `json:"tierId"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	if err := s.engine.AssignTier(sess, body.RepairID, body.TierID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, s.sessionViewFor(r, sess))
}

func (s *Server) handleSetColor(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

	var body struct {
		Color string `json:"color"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	if err := s.engine.SetBackGlassColor(sess, body.Color); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, s.sessionViewFor(r, sess))
}

func (s *Server) handleSetNotes(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

	var body struct {
		Notes string `json:"notes"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	if err := s.engine.SetNotes(sess, body.Notes); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, s.sessionViewFor(r, sess))
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	if err := s.engine.Next(r.Context(), sess); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, s.sessionViewFor(r, sess))
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	if err := s.engine.Back(sess); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, s.sessionViewFor(r, sess))
}

func (s *Server) handleSlots(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

	date, err := time.Parse(schedule.DateFormat, r.URL.Query().Get("date"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid date, expected YYYY-MM-DD"})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"date":        date.Format(schedule.DateFormat),
		"minimumDate": s.engine.MinimumDate(r.Context(), sess).Format(schedule.DateFormat),
		"slots":       s.engine.SlotsFor(r.Context(), sess, date),
	})
}

func (s *Server) handleSetSchedule(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

	var body struct {
		Date     string `json:"date"`
		TimeSlot string `json:"timeSlot"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	date, err := time.Parse(schedule.DateFormat, body.Date)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid date, expected YYYY-MM-DD"})
		return
	}

	if err := s.engine.SetSchedule(r.Context(), sess, date, body.TimeSlot); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, s.sessionViewFor(r, sess))
}

func (s *Server) handleAddressInput(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

	var body struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	s.engine.InputAddress(sess, body.Text)
	respondMessage(w, http.StatusAccepted, "search scheduled")
}

func (s *Server) handleAddressCandidates(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	respondJSON(w, http.StatusOK, s.engine.AddressCandidates(sess))
}

func (s *Server) handleAddressSelect(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

	var cand servicearea.Candidate
	if err := decodeJSON(r, &cand); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	if err := s.engine.SelectAddress(sess, cand); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, s.sessionViewFor(r, sess))
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

	var contact domain.ContactInfo
	if err := decodeJSON(r, &contact); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	if err := s.engine.SubmitContact(sess, contact); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, s.sessionViewFor(r, sess))
}

func (s *Server) handleVerifyRequest(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	if err := s.engine.RequestCode(r.Context(), sess); err != nil {
		respondError(w, err)
		return
	}
	respondMessage(w, http.StatusOK, "verification code sent")
}

func (s *Server) handleVerifyConfirm(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

	var body struct {
		Code   string   `json:"code,omitempty"`
		Digits []string `json:"digits,omitempty"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	// Mirror the entry form: a pasted code fans out across the six
	// positions, individual digits fill one position each
	buf := otp.NewDigitBuffer()
	if body.Code != "" {
		buf.Paste(body.Code)
	} else {
		for i, d := range body.Digits {
			buf.SetDigit(i, d)
		}
	}
	if !buf.Complete() {
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error: "all six digits are required",
			Code:  "validation_blocked",
		})
		return
	}

	booked, err := s.engine.ConfirmCode(r.Context(), sess, buf.Code())
	if err != nil {
		respondError(w, err)
		return
	}

	// The verified email doubles as a sign-in: issue the auth token the
	// identity middleware consumes on later visits
	if token, err := s.issueToken(booked.CustomerID, booked.Customer.Email); err == nil {
		s.setAuthCookie(w, token)
	} else {
		s.logger.Warn("failed to issue auth token", zap.Error(err))
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"session": s.sessionViewFor(r, sess),
		"booking": booked,
	})
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

	booked, err := s.engine.Commit(r.Context(), sess)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"session": s.sessionViewFor(r, sess),
		"booking": booked,
	})
}
