package progress

import "time"

// EventKind is the discrete player event type.
type EventKind string

const (
	KindPlay       EventKind = "play"
	KindPause      EventKind = "pause"
	KindTimeUpdate EventKind = "timeupdate"
	KindSeeked     EventKind = "seeked"
	KindEnded      EventKind = "ended"
)

// ParseEventKind maps a raw kind string to a known EventKind.
func ParseEventKind(s string) (EventKind, bool) {
	switch EventKind(s) {
	case KindPlay, KindPause, KindTimeUpdate, KindSeeked, KindEnded:
		return EventKind(s), true
	}
	return "", false
}

// RecordMeta is presentation metadata carried through from the player
// payload unchanged. The reconciler never derives or rewrites it.
type RecordMeta struct {
	DisplayTitle  string `json:"display_title"`
	PosterURL     string `json:"poster_url"`
	DurationLabel string `json:"duration_label"`
}

// ProgressEvent is a single well-formed observation from the player.
// Only the Normalizer produces values of this type.
type ProgressEvent struct {
	Identity           ContentIdentity
	Meta               RecordMeta
	CurrentTimeSeconds float64
	DurationSeconds    float64 // always > 0 after normalization
	Kind               EventKind
	ObservedAt         time.Time
}

// FractionComplete is CurrentTime/Duration clamped into [0,1].
func (e ProgressEvent) FractionComplete() float64 {
	if e.DurationSeconds <= 0 {
		return 0
	}
	f := e.CurrentTimeSeconds / e.DurationSeconds
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
