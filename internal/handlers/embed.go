package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/streamfront/internal/platform/analytics"
	"github.com/example/streamfront/internal/platform/api"
	"github.com/example/streamfront/internal/platform/auth"
	"github.com/example/streamfront/internal/platform/httpserver"
	"github.com/example/streamfront/internal/platform/signing"
)

// EmbedToken handles GET /v1/player/embed/{title_id} — issues the
// short-lived grant the frontend passes to the embedded player widget.
func EmbedToken(signer *signing.Signer, ttl time.Duration, ap *analytics.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok || strings.TrimSpace(uid) == "" {
			api.Unauthorized(w, "AUTH_MISSING", "Missing auth", rid)
			return
		}

		titleID := strings.TrimSpace(chi.URLParam(r, "title_id"))
		if titleID == "" {
			api.BadRequest(w, "MISSING_ID", "title_id is required", rid, nil)
			return
		}

		tok := signer.Sign(titleID, uid, time.Now().Add(ttl))
		ap.Publish(analytics.SubjectPlaybackStarted, "playback_started", uid, map[string]any{
			"title_id": titleID,
		})
		api.WriteJSON(w, http.StatusOK, tok)
	}
}
