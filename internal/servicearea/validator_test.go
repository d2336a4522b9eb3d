package servicearea_test

import (
	"testing"

	"fixitapp/internal/servicearea"

	"github.com/stretchr/testify/require"
)

func testValidator() *servicearea.Validator {
	return servicearea.NewValidator("FL", []string{
		"Saint Augustine", "St. Augustine", "Palm Coast", "Ponte Vedra Beach", "Jacksonville",
	})
}

func TestValidateAcceptsListedCity(t *testing.T) {
	v := testValidator()

	result := v.Validate(servicearea.Candidate{
		Display: "12 King St, Saint Augustine, FL",
		City:    "Saint Augustine",
		State:   "FL",
	})
	require.True(t, result.Accepted)
	require.Equal(t, "Saint Augustine", result.ResolvedCity)
	require.Empty(t, result.RejectedCityLabel)
}

func TestValidateIsCaseInsensitive(t *testing.T) {
	v := testValidator()

	result := v.Validate(servicearea.Candidate{
		City:  "  palm coast ",
		State: "fl",
	})
	require.True(t, result.Accepted)
}

func TestValidateRejectsOutsideCity(t *testing.T) {
	v := testValidator()

	result := v.Validate(servicearea.Candidate{
		Display: "100 Congress Ave, Austin, TX",
		City:    "Austin",
		State:   "TX",
	})
	require.False(t, result.Accepted)
	require.Equal(t, "Austin", result.RejectedCityLabel)
}

func TestValidateRejectsListedCityInWrongState(t *testing.T) {
	v := testValidator()

	result := v.Validate(servicearea.Candidate{
		City:  "Jacksonville",
		State: "NC",
	})
	require.False(t, result.Accepted)
}

func TestValidateIsIdempotent(t *testing.T) {
	v := testValidator()
	c := servicearea.Candidate{City: "Jacksonville", State: "FL"}

	first := v.Validate(c)
	second := v.Validate(c)
	require.Equal(t, first, second)
	require.True(t, second.Accepted)
}
