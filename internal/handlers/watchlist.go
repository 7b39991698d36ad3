package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/streamfront/internal/platform/analytics"
	"github.com/example/streamfront/internal/platform/api"
	"github.com/example/streamfront/internal/platform/auth"
	"github.com/example/streamfront/internal/platform/httpserver"
	"github.com/example/streamfront/internal/watchlist"
)

type watchlistAddRequest struct {
	DisplayTitle string `json:"display_title"`
	PosterURL    string `json:"poster_url"`
}

func watchlistCacheKey(uid string) string { return "watchlist:" + uid }

// ListWatchlist handles GET /v1/me/watchlist.
func ListWatchlist(store watchlist.Store, cache Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "AUTH_MISSING", "Missing auth", rid)
			return
		}

		if cached, ok := cache.Get(watchlistCacheKey(uid)); ok {
			api.WriteJSON(w, http.StatusOK, cached)
			return
		}

		items, err := store.List(r.Context(), uid, 0)
		if err != nil {
			api.Internal(w, rid)
			return
		}
		if items == nil {
			items = []watchlist.Item{}
		}
		resp := map[string]any{"items": items}
		cache.Set(watchlistCacheKey(uid), resp)
		api.WriteJSON(w, http.StatusOK, resp)
	}
}

// AddWatchlistItem handles PUT /v1/me/watchlist/{title_id}. Re-adding a
// saved title refreshes its metadata.
func AddWatchlistItem(store watchlist.Store, cache Cache, ap *analytics.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "AUTH_MISSING", "Missing auth", rid)
			return
		}

		titleID := strings.TrimSpace(chi.URLParam(r, "title_id"))
		if titleID == "" {
			api.BadRequest(w, "MISSING_ID", "title_id is required", rid, nil)
			return
		}

		var req watchlistAddRequest
		if r.Body != nil {
			// Metadata body is optional; a bare PUT saves the title alone.
			_ = json.NewDecoder(r.Body).Decode(&req)
		}

		err := store.Add(r.Context(), uid, watchlist.Item{
			TitleID:      titleID,
			DisplayTitle: strings.TrimSpace(req.DisplayTitle),
			PosterURL:    strings.TrimSpace(req.PosterURL),
		})
		if err != nil {
			api.Internal(w, rid)
			return
		}

		cache.Delete(watchlistCacheKey(uid))
		ap.Publish(analytics.SubjectWatchlistAdded, "watchlist_added", uid, map[string]any{
			"title_id": titleID,
		})
		w.WriteHeader(http.StatusNoContent)
	}
}

// RemoveWatchlistItem handles DELETE /v1/me/watchlist/{title_id}.
// Removing an absent title is a no-op.
func RemoveWatchlistItem(store watchlist.Store, cache Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "AUTH_MISSING", "Missing auth", rid)
			return
		}

		titleID := strings.TrimSpace(chi.URLParam(r, "title_id"))
		if titleID == "" {
			api.BadRequest(w, "MISSING_ID", "title_id is required", rid, nil)
			return
		}

		if err := store.Remove(r.Context(), uid, titleID); err != nil {
			api.Internal(w, rid)
			return
		}
		cache.Delete(watchlistCacheKey(uid))
		w.WriteHeader(http.StatusNoContent)
	}
}
