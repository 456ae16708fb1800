package dispatch

import (
	"sync"
	"time"

	"dispatch/internal/core/domain/model/kernel"
)

// TimerSet holds at most one acceptance timer per order. A fired timer may
// race with Stop; the callback must re-check the order before acting.
type TimerSet struct {
	mu     sync.Mutex
	timers map[kernel.OrderID]*time.Timer
}

func NewTimerSet() *TimerSet {
	return &TimerSet{timers: make(map[kernel.OrderID]*time.Timer)}
}

// Start arms fn to run after d, replacing any timer already armed for id.
func (s *TimerSet) Start(id kernel.OrderID, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[id]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		s.mu.Lock()
		if s.timers[id] == t {
			delete(s.timers, id)
		}
		s.mu.Unlock()
		fn()
	})
	s.timers[id] = t
}

// Stop disarms the timer for id and reports whether one was armed.
func (s *TimerSet) Stop(id kernel.OrderID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.timers[id]
	if !ok {
		return false
	}
	t.Stop()
	delete(s.timers, id)
	return true
}

func (s *TimerSet) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

func (s *TimerSet) Armed(id kernel.OrderID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.timers[id]
	return ok
}

func (s *TimerSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.timers)
}
