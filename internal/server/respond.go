package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"fixitapp/internal/booking"
	"fixitapp/internal/catalog"
	"fixitapp/internal/otp"
	"fixitapp/internal/servicearea"
	"fixitapp/internal/wizard"
)

// respondJSON writes a JSON response with the given status
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// errorResponse is the JSON shape of a failed request
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// respondError maps an engine error onto an HTTP status and inline
// message. Guard refusals and rejections never advance the wizard;
// they come back as client errors with a stable code.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, wizard.ErrValidationBlocked):
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Code: "validation_blocked"})
	case errors.Is(err, catalog.ErrUnpriced):
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Code: "unpriced"})
	case errors.Is(err, servicearea.ErrRejected):
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Code: "service_area_rejected"})
	case errors.Is(err, otp.ErrVerificationFailed):
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "verification_failed"})
	case errors.Is(err, booking.ErrCommitFailed):
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error(), Code: "commit_failed"})
	default:
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

// respondMessage writes a simple status message
func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

// decodeJSON decodes a request body into dst
func decodeJSON(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
