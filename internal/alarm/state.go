// Package alarm watches the sources for abnormal conditions and sounds the
// buzzer, at most once per cooldown for each condition.
package alarm

import (
	"sync"
	"time"
)

// DefaultCooldown is the minimum interval between two alerts for the same
// condition.
const DefaultCooldown = 5 * time.Minute

// State remembers when each alarm last fired.
type State struct {
	cooldown time.Duration
	now      func() time.Time

	mu   sync.Mutex
	last map[string]time.Time
}

// NewState returns an empty State. A nil now uses time.Now.
func NewState(cooldown time.Duration, now func() time.Time) *State {
	if now == nil {
		now = time.Now
	}
	return &State{
		cooldown: cooldown,
		now:      now,
		last:     make(map[string]time.Time),
	}
}

// ShouldAlert reports whether id may fire now and, if so, records the
// firing. An id that never fired, or was cleared, fires immediately.
func (s *State) ShouldAlert(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if last, ok := s.last[id]; ok && now.Sub(last) < s.cooldown {
		return false
	}
	s.last[id] = now
	return true
}

// Clear forgets id so that its next occurrence alerts immediately. It
// reports whether id had fired.
func (s *State) Clear(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.last[id]
	delete(s.last, id)
	return ok
}

// Active returns how many alarms have fired and not been cleared.
func (s *State) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.last)
}
