package servicearea

import (
	"context"
	"sync"
	"time"
)

// DebounceDelay is how long the searcher waits after the last keystroke
// before dispatching a lookup.
const DebounceDelay = 500 * time.Millisecond

// Searcher runs debounced address lookups with stale-response
// suppression. Every keystroke bumps a sequence counter; a lookup only
// publishes its candidates if its sequence is still current when the
// response arrives, so a slow response for an old query can never
// overwrite the state of a newer one.
type Searcher struct {
	geocoder Geocoder
	delay    time.Duration
	timeout  time.Duration

	mu         sync.Mutex
	timer      *time.Timer
	seq        uint64
	candidates []Candidate
	closed     bool
}

// NewSearcher creates a searcher over the given geocoder with the
// standard debounce delay.
func NewSearcher(geocoder Geocoder) *Searcher {
	return NewSearcherWithDelay(geocoder, DebounceDelay)
}

// NewSearcherWithDelay creates a searcher with a custom debounce delay,
// used by tests to avoid real half-second waits.
func NewSearcherWithDelay(geocoder Geocoder, delay time.Duration) *Searcher {
	return &Searcher{
		geocoder: geocoder,
		delay:    delay,
		timeout:  10 * time.Second,
	}
}

// Input feeds the current query text into the searcher. The pending
// debounce timer, if any, is cancelled; after the delay elapses with no
// newer input, the query is dispatched. An empty query clears the
// candidate list without dispatching.
func (s *Searcher) Input(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.seq++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	if query == "" {
		s.candidates = nil
		return
	}

	seq := s.seq
	s.timer = time.AfterFunc(s.delay, func() {
		s.dispatch(seq, query)
	})
}

// dispatch runs the lookup for a debounced query and publishes the
// result only if no newer input arrived in the meantime.
func (s *Searcher) dispatch(seq uint64, query string) {
	s.mu.Lock()
	if s.closed || seq != s.seq {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	candidates, err := s.geocoder.Search(ctx, query)
	if err != nil {
		// Lookup failure degrades to no candidates; the customer
		// retries by continuing to type
		candidates = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || seq != s.seq {
		return
	}
	s.candidates = candidates
}

// Candidates returns the suggestions for the most recent query.
func (s *Searcher) Candidates() []Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Candidate(nil), s.candidates...)
}

// Reset drops pending lookups and current candidates, used when the
// wizard steps away from the schedule step.
func (s *Searcher) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.candidates = nil
}

// Close stops the searcher permanently.
func (s *Searcher) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
