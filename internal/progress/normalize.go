package progress

import (
	"strings"
	"time"

	"go.uber.org/zap"
)

// RawPlayerEvent is the wire payload posted by the embedded player widget.
// The widget is cross-origin and untrusted; every field must be validated
// before anything downstream sees it.
type RawPlayerEvent struct {
	Event         string  `json:"event"`
	CurrentTime   float64 `json:"currentTime"`
	Duration      float64 `json:"duration"`
	ContentID     string  `json:"contentId"`
	MediaType     string  `json:"mediaType"`
	Season        int     `json:"season,omitempty"`
	Episode       int     `json:"episode,omitempty"`
	TimestampMs   int64   `json:"timestamp"`
	Title         string  `json:"title,omitempty"`
	Poster        string  `json:"poster,omitempty"`
	DurationLabel string  `json:"durationLabel,omitempty"`
}

// Normalizer converts raw player payloads into well-formed ProgressEvents,
// or rejects them. Rejection is silent except for ambiguous identities:
// the source is high-frequency, so bad payloads are never surfaced as errors.
type Normalizer struct {
	log *zap.Logger
}

func NewNormalizer(log *zap.Logger) *Normalizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Normalizer{log: log}
}

// Normalize validates raw and returns the well-formed event, or ok=false.
//
// Rules:
//   - unrecognized event kinds and empty content ids are dropped
//   - duration missing or <= 0 is dropped (fraction complete is undefined)
//   - currentTime is clamped into [0, duration], never rejected
//   - episodic media without season+episode is dropped with a warning
//   - movie media ignores stray season/episode so the composite key stays
//     stable across player versions
func (n *Normalizer) Normalize(raw RawPlayerEvent) (ProgressEvent, bool) {
	kind, ok := ParseEventKind(strings.TrimSpace(raw.Event))
	if !ok {
		return ProgressEvent{}, false
	}

	titleID := strings.TrimSpace(raw.ContentID)
	if titleID == "" {
		return ProgressEvent{}, false
	}

	if raw.Duration <= 0 {
		return ProgressEvent{}, false
	}

	identity := ContentIdentity{TitleID: titleID}
	if episodicMediaType(raw.MediaType) {
		if raw.Season <= 0 || raw.Episode <= 0 {
			n.log.Warn("progress: ambiguous episodic identity dropped",
				zap.String("title_id", titleID),
				zap.Int("season", raw.Season),
				zap.Int("episode", raw.Episode))
			return ProgressEvent{}, false
		}
		identity.Season = raw.Season
		identity.Episode = raw.Episode
	}

	cur := raw.CurrentTime
	if cur < 0 {
		cur = 0
	}
	if cur > raw.Duration {
		cur = raw.Duration
	}

	observedAt := time.Now().UTC()
	if raw.TimestampMs > 0 {
		observedAt = time.UnixMilli(raw.TimestampMs).UTC()
	}

	return ProgressEvent{
		Identity: identity,
		Meta: RecordMeta{
			DisplayTitle:  strings.TrimSpace(raw.Title),
			PosterURL:     strings.TrimSpace(raw.Poster),
			DurationLabel: strings.TrimSpace(raw.DurationLabel),
		},
		CurrentTimeSeconds: cur,
		DurationSeconds:    raw.Duration,
		Kind:               kind,
		ObservedAt:         observedAt,
	}, true
}

func episodicMediaType(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "episode", "series", "show", "tv":
		return true
	}
	return false
}
