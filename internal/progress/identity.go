// Package progress implements continue-watching tracking: it folds playback
// events from the embedded player into a per-user, de-duplicated,
// recency-ordered, size-bounded list of in-progress titles, and promotes
// finished titles into a separate completion set.
package progress

import "fmt"

// ContentIdentity uniquely identifies a watchable unit: a movie by title id,
// or a single episode by title id plus season and episode numbers.
// Season/Episode of 0 mean "absent" (movie).
type ContentIdentity struct {
	TitleID string `json:"title_id"`
	Season  int    `json:"season,omitempty"`
	Episode int    `json:"episode,omitempty"`
}

// Episodic reports whether the identity refers to episodic content.
func (id ContentIdentity) Episodic() bool {
	return id.Season > 0 && id.Episode > 0
}

// CompositeKey is the de-duplication identity: stable for the lifetime of
// the catalog entry. Movies key on title id alone; episodes include season
// and episode so each episode tracks progress independently.
func (id ContentIdentity) CompositeKey() string {
	if !id.Episodic() {
		return id.TitleID
	}
	return fmt.Sprintf("%s:s%02d:e%02d", id.TitleID, id.Season, id.Episode)
}
