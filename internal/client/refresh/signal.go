package refresh

import (
	"slices"
	"sync"
)

// Signal is the out-of-band "session terminated" notification. It fires at
// most once until Rearm is called for the next session.
type Signal struct {
	mu        sync.Mutex
	fired     bool
	listeners []func(reason error)
}

// OnTerminate registers fn. Listeners run synchronously in registration
// order on the goroutine that fires the signal, so they must not block.
func (s *Signal) OnTerminate(fn func(reason error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Fire notifies listeners unless the signal already fired for this session.
// It reports whether listeners were called.
func (s *Signal) Fire(reason error) bool {
	s.mu.Lock()
	if s.fired {
		s.mu.Unlock()
		return false
	}
	s.fired = true
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(reason)
	}
	return true
}

// Rearm is called when a new session starts.
func (s *Signal) Rearm() {
	s.mu.Lock()
	s.fired = false
	s.mu.Unlock()
}
