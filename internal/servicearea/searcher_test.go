package servicearea_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fixitapp/internal/servicearea"

	"github.com/stretchr/testify/require"
)

// fakeGeocoder returns canned candidates per query, with an optional
// per-query latency so tests can force responses to arrive out of order.
type fakeGeocoder struct {
	mu        sync.Mutex
	results   map[string][]servicearea.Candidate
	latencies map[string]time.Duration
	err       error
	calls     []string
}

func (f *fakeGeocoder) Search(ctx context.Context, query string) ([]servicearea.Candidate, error) {
	f.mu.Lock()
	f.calls = append(f.calls, query)
	delay := f.latencies[query]
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.results[query], nil
}

func (f *fakeGeocoder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestSearcherPublishesCandidates(t *testing.T) {
	geo := &fakeGeocoder{
		results: map[string][]servicearea.Candidate{
			"12 King": {{Display: "12 King St, Saint Augustine, FL", City: "Saint Augustine", State: "FL"}},
		},
	}
	s := servicearea.NewSearcherWithDelay(geo, time.Millisecond)
	defer s.Close()

	s.Input("12 King")
	require.Eventually(t, func() bool {
		return len(s.Candidates()) == 1
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, "Saint Augustine", s.Candidates()[0].City)
}

func TestSearcherDebouncesRapidInput(t *testing.T) {
	geo := &fakeGeocoder{
		results: map[string][]servicearea.Candidate{
			"12 King St": {{Display: "12 King St", City: "Saint Augustine", State: "FL"}},
		},
	}
	s := servicearea.NewSearcherWithDelay(geo, 30*time.Millisecond)
	defer s.Close()

	// Keystrokes inside the debounce window collapse into one lookup
	s.Input("1")
	s.Input("12 K")
	s.Input("12 King St")

	require.Eventually(t, func() bool {
		return len(s.Candidates()) == 1
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, 1, geo.callCount())
}

func TestSearcherDiscardsStaleResponse(t *testing.T) {
	geo := &fakeGeocoder{
		results: map[string][]servicearea.Candidate{
			"old query": {{Display: "Elsewhere", City: "Austin", State: "TX"}},
			"new query": {{Display: "12 King St", City: "Saint Augustine", State: "FL"}},
		},
		// The first lookup answers long after the second
		latencies: map[string]time.Duration{
			"old query": 150 * time.Millisecond,
		},
	}
	s := servicearea.NewSearcherWithDelay(geo, time.Millisecond)
	defer s.Close()

	s.Input("old query")
	time.Sleep(20 * time.Millisecond)
	s.Input("new query")

	require.Eventually(t, func() bool {
		c := s.Candidates()
		return len(c) == 1 && c[0].City == "Saint Augustine"
	}, time.Second, 5*time.Millisecond)

	// Wait out the slow response and confirm it never lands
	time.Sleep(200 * time.Millisecond)
	c := s.Candidates()
	require.Len(t, c, 1)
	require.Equal(t, "Saint Augustine", c[0].City)
}

func TestSearcherEmptyInputClears(t *testing.T) {
	geo := &fakeGeocoder{
		results: map[string][]servicearea.Candidate{
			"query": {{Display: "somewhere"}},
		},
	}
	s := servicearea.NewSearcherWithDelay(geo, time.Millisecond)
	defer s.Close()

	s.Input("query")
	require.Eventually(t, func() bool {
		return len(s.Candidates()) == 1
	}, time.Second, 5*time.Millisecond)

	s.Input("")
	require.Empty(t, s.Candidates())

	// No new lookup was dispatched for the empty query
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, 1, geo.callCount())
}

func TestSearcherLookupErrorYieldsNoCandidates(t *testing.T) {
	geo := &fakeGeocoder{err: errors.New("geocoder down")}
	s := servicearea.NewSearcherWithDelay(geo, time.Millisecond)
	defer s.Close()

	s.Input("query")
	require.Eventually(t, func() bool {
		return geo.callCount() == 1
	}, time.Second, 5*time.Millisecond)
	require.Empty(t, s.Candidates())
}

func TestSearcherResetDropsPendingLookup(t *testing.T) {
	geo := &fakeGeocoder{
		results: map[string][]servicearea.Candidate{
			"query": {{Display: "somewhere"}},
		},
		latencies: map[string]time.Duration{
			"query": 50 * time.Millisecond,
		},
	}
	s := servicearea.NewSearcherWithDelay(geo, time.Millisecond)
	defer s.Close()

	s.Input("query")
	time.Sleep(10 * time.Millisecond)
	s.Reset()

	time.Sleep(100 * time.Millisecond)
	require.Empty(t, s.Candidates())
}
