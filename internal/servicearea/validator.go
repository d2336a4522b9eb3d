// Package servicearea resolves free-text addresses and checks them
// against the localities the business dispatches technicians to.
package servicearea

import (
	"errors"
	"strings"
)

// ErrRejected is returned when an address resolves to a locality
// outside the service area. It is terminal for that address until the
// customer changes it.
var ErrRejected = errors.New("address outside service area")

// Candidate is one resolved address suggestion
type Candidate struct {
	Display string `json:"display"`
	City    string `json:"city"`
	State   string `json:"state"`
}

// Result is the outcome of validating a selected candidate
type Result struct {
	Accepted          bool   `json:"accepted"`
	ResolvedCity      string `json:"resolvedCity,omitempty"`
	RejectedCityLabel string `json:"rejectedCityLabel,omitempty"`
}

// Validator accepts or rejects resolved addresses against a fixed
// allow-list of cities within a single state.
type Validator struct {
	state  string
	cities map[string]struct{}
}

// NewValidator creates a validator for the given state and city list.
// Matching is case-insensitive and ignores surrounding whitespace.
func NewValidator(state string, cities []string) *Validator {
	v := &Validator{
		state:  normalize(state),
		cities: make(map[string]struct{}, len(cities)),
	}
	for _, city := range cities {
		v.cities[normalize(city)] = struct{}{}
	}
	return v
}

// Validate checks a selected candidate against the allow-list.
// Validation is idempotent: the same candidate always yields the same
// result.
func (v *Validator) Validate(c Candidate) Result {
	city := strings.TrimSpace(c.City)
	if normalize(c.State) != v.state {
		return Result{RejectedCityLabel: city}
	}
	if _, ok := v.cities[normalize(city)]; !ok {
		return Result{RejectedCityLabel: city}
	}
	return Result{Accepted: true, ResolvedCity: city}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
