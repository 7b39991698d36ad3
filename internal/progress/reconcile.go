package progress

import (
	"sort"
	"time"
)

const (
	// DefaultMaxEntries caps the continue-watching list.
	DefaultMaxEntries = 15
	// DefaultCompletionThreshold promotes a title to completed once watched
	// this far, even without an explicit ended event (credits, usually).
	DefaultCompletionThreshold = 0.95
	// DefaultThrottleInterval gates timeupdate events per composite key.
	DefaultThrottleInterval = 10 * time.Second
)

// ProgressRecord is the persisted, reconciled representation of one
// in-progress item.
type ProgressRecord struct {
	Identity         ContentIdentity `json:"identity"`
	Meta             RecordMeta      `json:"meta"`
	FractionComplete float64         `json:"fraction_complete"`
	LastWatchedAt    time.Time       `json:"last_watched_at"`
}

func (r ProgressRecord) CompositeKey() string { return r.Identity.CompositeKey() }

// CompletionRecord marks a title the user finished. Completions live beside
// the in-progress list and are not subject to its size cap.
type CompletionRecord struct {
	Identity    ContentIdentity `json:"identity"`
	Meta        RecordMeta      `json:"meta"`
	CompletedAt time.Time       `json:"completed_at"`
}

// ProgressList is the continue-watching list surfaced to the UI:
// unique composite keys, ordered by last watched descending, at most
// MaxEntries long. Only the Reconciler mutates it.
type ProgressList []ProgressRecord

// Without returns the list with any record matching key removed.
func (l ProgressList) Without(key string) ProgressList {
	out := make(ProgressList, 0, len(l))
	for _, r := range l {
		if r.CompositeKey() != key {
			out = append(out, r)
		}
	}
	return out
}

// Find returns the record for key, if present.
func (l ProgressList) Find(key string) (ProgressRecord, bool) {
	for _, r := range l {
		if r.CompositeKey() == key {
			return r, true
		}
	}
	return ProgressRecord{}, false
}

// Config tunes a Reconciler. Zero values take the package defaults.
type Config struct {
	MaxEntries          int
	CompletionThreshold float64
	ThrottleInterval    time.Duration
	ThrottleKeys        int
}

func (c Config) withDefaults() Config {
	if c.MaxEntries <= 0 {
		c.MaxEntries = DefaultMaxEntries
	}
	if c.CompletionThreshold <= 0 || c.CompletionThreshold > 1 {
		c.CompletionThreshold = DefaultCompletionThreshold
	}
	if c.ThrottleInterval <= 0 {
		c.ThrottleInterval = DefaultThrottleInterval
	}
	return c
}

// Reconciler folds normalized player events into a ProgressList. It performs
// no I/O and is total over well-formed input: malformed payloads are the
// Normalizer's problem, persistence is the store's.
//
// A Reconciler carries per-key throttle state, so each user session owns
// exactly one instance.
type Reconciler struct {
	cfg  Config
	gate *ThrottleGate
}

func NewReconciler(cfg Config) *Reconciler {
	cfg = cfg.withDefaults()
	return &Reconciler{
		cfg:  cfg,
		gate: NewThrottleGate(cfg.ThrottleInterval, cfg.ThrottleKeys),
	}
}

// Fold computes the next list from one event.
//
// Returns the new list, a completion record when the event finished the
// title, and whether the event was applied at all (throttled timeupdates
// are dropped without touching the list).
//
// Guarantees on the returned list: unique composite keys, sorted by
// LastWatchedAt descending, length <= MaxEntries.
func (r *Reconciler) Fold(ev ProgressEvent, list ProgressList) (ProgressList, *CompletionRecord, bool) {
	key := ev.Identity.CompositeKey()

	// Only timeupdate is throttled: play/pause/seeked/ended are low-frequency
	// and semantically significant, dropping them would lose state changes.
	if ev.Kind == KindTimeUpdate && !r.gate.Allow(key, ev.ObservedAt) {
		return list, nil, false
	}

	next := list.Without(key)

	frac := ev.FractionComplete()
	if ev.Kind == KindEnded || frac >= r.cfg.CompletionThreshold {
		// Promotion out of the in-progress set. The old record is gone for
		// good; if the user later seeks backwards, the next event starts a
		// fresh entry rather than reviving this one.
		return next, &CompletionRecord{
			Identity:    ev.Identity,
			Meta:        ev.Meta,
			CompletedAt: ev.ObservedAt,
		}, true
	}

	next = append(next, ProgressRecord{
		Identity:         ev.Identity,
		Meta:             ev.Meta,
		FractionComplete: frac,
		LastWatchedAt:    ev.ObservedAt,
	})

	// Events for different keys carry no cross-key ordering guarantee, so a
	// plain prepend could leave the list unsorted. Sort instead of trusting
	// arrival order.
	sort.SliceStable(next, func(i, j int) bool {
		return next[i].LastWatchedAt.After(next[j].LastWatchedAt)
	})

	if len(next) > r.cfg.MaxEntries {
		next = next[:r.cfg.MaxEntries]
	}
	return next, nil, true
}
