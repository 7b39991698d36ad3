package progress

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultThrottleKeys = 64

// ThrottleGate bounds write volume for high-frequency timeupdate events:
// at most one accepted event per composite key per interval. State is an
// LRU so a session never tracks more than a handful of recent keys.
//
// The gate keys on event time (ObservedAt), not wall clock, so replayed or
// delayed batches throttle the same way live traffic does.
type ThrottleGate struct {
	interval time.Duration
	accepted *lru.Cache[string, time.Time]
}

func NewThrottleGate(interval time.Duration, maxKeys int) *ThrottleGate {
	if maxKeys <= 0 {
		maxKeys = defaultThrottleKeys
	}
	cache, err := lru.New[string, time.Time](maxKeys)
	if err != nil {
		// lru.New only fails on non-positive size.
		cache, _ = lru.New[string, time.Time](defaultThrottleKeys)
	}
	return &ThrottleGate{interval: interval, accepted: cache}
}

// Allow reports whether an event for key observed at the given time passes
// the gate, and records it as the last accepted event if so. Only accepted
// events advance the gate.
func (g *ThrottleGate) Allow(key string, at time.Time) bool {
	if g.interval <= 0 {
		return true
	}
	if last, ok := g.accepted.Get(key); ok && at.Sub(last) < g.interval {
		return false
	}
	g.accepted.Add(key, at)
	return true
}
