package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

func (s *Server) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")

	booking, err := s.repos.Bookings.GetByReference(r.Context(), reference)
	if err != nil {
		respondError(w, err)
		return
	}
	if booking == nil {
		respondJSON(w, http.StatusNotFound, errorResponse{Error: "booking not found"})
		return
	}
	respondJSON(w, http.StatusOK, booking)
}

// handleBookingLabel serves a QR label for a booking reference, scanned
// at drop-off to pull up the appointment.
func (s *Server) handleBookingLabel(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")

	booking, err := s.repos.Bookings.GetByReference(r.Context(), reference)
	if err != nil {
		respondError(w, err)
		return
	}
	if booking == nil {
		respondJSON(w, http.StatusNotFound, errorResponse{Error: "booking not found"})
		return
	}

	png, err := qrcode.Encode(booking.Reference, qrcode.Medium, 256)
	if err != nil {
		s.logger.Error("failed to generate booking label", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to generate label"})
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
