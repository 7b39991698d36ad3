package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/streamfront/internal/platform/analytics"
	"github.com/example/streamfront/internal/platform/api"
	"github.com/example/streamfront/internal/platform/auth"
	"github.com/example/streamfront/internal/platform/httpserver"
	"github.com/example/streamfront/internal/progress"
)

type progressItemResponse struct {
	CompositeKey     string    `json:"composite_key"`
	TitleID          string    `json:"title_id"`
	Season           int       `json:"season,omitempty"`
	Episode          int       `json:"episode,omitempty"`
	DisplayTitle     string    `json:"display_title,omitempty"`
	PosterURL        string    `json:"poster_url,omitempty"`
	DurationLabel    string    `json:"duration_label,omitempty"`
	FractionComplete float64   `json:"fraction_complete"`
	LastWatchedAt    time.Time `json:"last_watched_at"`
}

type completionResponse struct {
	CompositeKey string    `json:"composite_key"`
	TitleID      string    `json:"title_id"`
	Season       int       `json:"season,omitempty"`
	Episode      int       `json:"episode,omitempty"`
	DisplayTitle string    `json:"display_title,omitempty"`
	PosterURL    string    `json:"poster_url,omitempty"`
	CompletedAt  time.Time `json:"completed_at"`
}

func toProgressItemResponse(r progress.ProgressRecord) progressItemResponse {
	return progressItemResponse{
		CompositeKey:     r.CompositeKey(),
		TitleID:          r.Identity.TitleID,
		Season:           r.Identity.Season,
		Episode:          r.Identity.Episode,
		DisplayTitle:     r.Meta.DisplayTitle,
		PosterURL:        r.Meta.PosterURL,
		DurationLabel:    r.Meta.DurationLabel,
		FractionComplete: r.FractionComplete,
		LastWatchedAt:    r.LastWatchedAt,
	}
}

// IngestPlayerEvent handles POST /v1/player/events — one raw beacon from
// the embedded player. The source is untrusted and high-frequency, so a
// payload that fails normalization is dropped with a 202, not an error;
// only an unreadable body is a client mistake worth reporting.
func IngestPlayerEvent(mgr *progress.Manager, norm *progress.Normalizer, ap *analytics.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok || strings.TrimSpace(uid) == "" {
			api.Unauthorized(w, "AUTH_MISSING", "Missing auth", rid)
			return
		}

		var raw progress.RawPlayerEvent
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			api.BadRequest(w, "INVALID_BODY", "Body must be a JSON player event", rid, nil)
			return
		}

		ev, ok := norm.Normalize(raw)
		if !ok {
			w.WriteHeader(http.StatusAccepted)
			return
		}

		comp, _ := mgr.Open(r.Context(), uid).Apply(ev)
		if comp != nil {
			ap.Publish(analytics.SubjectPlaybackCompleted, "playback_completed", uid, map[string]any{
				"composite_key": comp.Identity.CompositeKey(),
			})
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

// ContinueWatching handles GET /v1/me/continue-watching.
func ContinueWatching(mgr *progress.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "AUTH_MISSING", "Missing auth", rid)
			return
		}

		limit := clampLimit(r.URL.Query().Get("limit"), progress.DefaultMaxEntries)
		items := mgr.Open(r.Context(), uid).Snapshot()
		if len(items) > limit {
			items = items[:limit]
		}

		out := make([]progressItemResponse, 0, len(items))
		for _, it := range items {
			out = append(out, toProgressItemResponse(it))
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"items": out})
	}
}

// RemoveProgress handles DELETE /v1/me/continue-watching/{composite_key}.
// Removing an absent key is a no-op.
func RemoveProgress(mgr *progress.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "AUTH_MISSING", "Missing auth", rid)
			return
		}

		key := strings.TrimSpace(chi.URLParam(r, "composite_key"))
		if key == "" {
			api.BadRequest(w, "MISSING_KEY", "composite_key is required", rid, nil)
			return
		}

		mgr.Open(r.Context(), uid).Remove(key)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ClearProgress handles DELETE /v1/me/continue-watching.
func ClearProgress(mgr *progress.Manager, ap *analytics.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "AUTH_MISSING", "Missing auth", rid)
			return
		}

		mgr.Open(r.Context(), uid).Clear()
		ap.Publish(analytics.SubjectHistoryCleared, "history_cleared", uid, nil)
		w.WriteHeader(http.StatusNoContent)
	}
}

// Completed handles GET /v1/me/completed — the completion set, not subject
// to the continue-watching cap.
func Completed(mgr *progress.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "AUTH_MISSING", "Missing auth", rid)
			return
		}

		records := mgr.Open(r.Context(), uid).Completions()
		out := make([]completionResponse, 0, len(records))
		for _, c := range records {
			out = append(out, completionResponse{
				CompositeKey: c.Identity.CompositeKey(),
				TitleID:      c.Identity.TitleID,
				Season:       c.Identity.Season,
				Episode:      c.Identity.Episode,
				DisplayTitle: c.Meta.DisplayTitle,
				PosterURL:    c.Meta.PosterURL,
				CompletedAt:  c.CompletedAt,
			})
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"completed": out})
	}
}

// OpenSession handles POST /v1/me/session — the sign-in hook that warms the
// user's session from persisted state.
func OpenSession(mgr *progress.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "AUTH_MISSING", "Missing auth", rid)
			return
		}

		mgr.Open(r.Context(), uid)
		w.WriteHeader(http.StatusNoContent)
	}
}

// CloseSession handles DELETE /v1/me/session — the sign-out hook: flushes
// and tears down the session state. Closing an absent session is a no-op.
func CloseSession(mgr *progress.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "AUTH_MISSING", "Missing auth", rid)
			return
		}

		mgr.Close(r.Context(), uid)
		w.WriteHeader(http.StatusNoContent)
	}
}

func clampLimit(raw string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v <= 0 || v > def {
		return def
	}
	return v
}
