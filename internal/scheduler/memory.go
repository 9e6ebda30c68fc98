package scheduler

import (
	"sync"
	"time"
)

// Memory is the in-memory TimerFacility backend: a mutex-guarded map of
// keyed time.AfterFunc timers. It is safe for concurrent use.
//
// A timer only fires if it is still the registered timer for its key at the
// moment it elapses, so a cancel-and-replace that races with an elapsing
// timer results in exactly one of the two firing.
type Memory struct {
	mu      sync.Mutex
	timers  map[string]*time.Timer
	fire    FireFunc
	stopped bool
}

// NewMemory constructs a Memory facility delivering fires to fn.
func NewMemory(fn FireFunc) *Memory {
	return &Memory{
		timers: make(map[string]*time.Timer),
		fire:   fn,
	}
}

// Arm implements TimerFacility.
func (m *Memory) Arm(key string, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	if prev, ok := m.timers[key]; ok {
		prev.Stop()
		delete(m.timers, key)
	}

	d := time.Until(at)
	if d < 0 {
		d = 0
	}
	var tm *time.Timer
	tm = time.AfterFunc(d, func() {
		m.mu.Lock()
		cur, ok := m.timers[key]
		if !ok || cur != tm {
			// Superseded or cancelled while we were being scheduled.
			m.mu.Unlock()
			return
		}
		delete(m.timers, key)
		m.mu.Unlock()
		m.fire(key)
	})
	m.timers[key] = tm
}

// Cancel implements TimerFacility.
func (m *Memory) Cancel(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	tm, ok := m.timers[key]
	if !ok {
		return false
	}
	tm.Stop()
	delete(m.timers, key)
	return true
}

// ArmedCount implements TimerFacility.
func (m *Memory) ArmedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

// Running implements TimerFacility.
func (m *Memory) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.stopped
}

// Stop implements TimerFacility.
func (m *Memory) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, tm := range m.timers {
		tm.Stop()
		delete(m.timers, key)
	}
	m.stopped = true
}
