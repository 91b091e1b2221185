package mcp

import (
	"sync"
	"time"
)

// planTracker records recent plan_data_retrieval calls so comparison tools
// can nudge callers that skip planning.
//
// The tracker is keyed on (userID, role) with a time window. It is
// in-memory and per-process; the nudge is advisory, not a gate.
type planTracker struct {
	mu     sync.Mutex
	plans  map[planKey]time.Time
	window time.Duration
	now    func() time.Time
}

type planKey struct {
	userID string
	role   string
}

func newPlanTracker(window time.Duration) *planTracker {
	return &planTracker{
		plans:  make(map[planKey]time.Time),
		window: window,
		now:    time.Now,
	}
}

// Record notes that the caller just planned a retrieval.
func (t *planTracker) Record(userID, role string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.plans[planKey{userID, role}] = t.now()

	// Lazy cleanup keeps the map bounded when many callers come and go.
	if len(t.plans) > 1000 {
		t.purgeStale()
	}
}

// WasPlanned reports whether the caller planned within the window.
func (t *planTracker) WasPlanned(userID, role string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	k := planKey{userID, role}
	ts, ok := t.plans[k]
	if !ok {
		return false
	}
	if t.now().Sub(ts) > t.window {
		delete(t.plans, k)
		return false
	}
	return true
}

// purgeStale removes entries older than the window. Must be called with mu held.
func (t *planTracker) purgeStale() {
	now := t.now()
	for k, ts := range t.plans {
		if now.Sub(ts) > t.window {
			delete(t.plans, k)
		}
	}
}
