package server

import (
	"github.com/go-chi/chi/v5"
)

// setupRoutes configures all application routes
func (s *Server) setupRoutes() {
	r := s.router

	// Health check endpoint
	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.identityMiddleware)

		// Catalog reference data
		r.Get("/catalog/devices", s.handleListDevices)
		r.Get("/catalog/repairs", s.handleListRepairs)
		r.Get("/catalog/tiers", s.handleListTiers)
		r.Get("/catalog/options", s.handleTierOptions)

		// Quote wizard sessions
		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Post("/device", s.handleSelectDevice)
			r.Post("/issues", s.handleToggleIssue)
			r.Post("/tier", s.handleAssignTier)
			r.Post("/color", s.handleSetColor)
			r.Post("/notes", s.handleSetNotes)
			r.Post("/next", s.handleNext)
			r.Post("/back", s.handleBack)

			// Scheduling
			r.Get("/slots", s.handleSlots)
			r.Post("/schedule", s.handleSetSchedule)

			// Address search and validation
			r.Post("/address/input", s.handleAddressInput)
			r.Get("/address/candidates", s.handleAddressCandidates)
			r.Post("/address/select", s.handleAddressSelect)

			// Review, verification, commit
			r.Post("/contact", s.handleContact)
			r.Post("/verify/request", s.handleVerifyRequest)
			r.Post("/verify/confirm", s.handleVerifyConfirm)
			r.Post("/commit", s.handleCommit)
		})

		// Committed bookings
		r.Get("/bookings/{reference}", s.handleGetBooking)
		r.Get("/bookings/{reference}/label.png", s.handleBookingLabel)
	})
}
