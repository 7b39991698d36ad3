package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/example/streamfront/internal/platform/auth"
	"github.com/example/streamfront/internal/progress"
)

type memPersister struct {
	lists       map[string]progress.ProgressList
	completions map[string][]progress.CompletionRecord
}

func newMemPersister() *memPersister {
	return &memPersister{
		lists:       make(map[string]progress.ProgressList),
		completions: make(map[string][]progress.CompletionRecord),
	}
}

func (m *memPersister) Write(_ context.Context, userID string, list progress.ProgressList, completions []progress.CompletionRecord) error {
	m.lists[userID] = list
	m.completions[userID] = completions
	return nil
}

func (m *memPersister) Read(_ context.Context, userID string) (progress.ProgressList, []progress.CompletionRecord, error) {
	return m.lists[userID], m.completions[userID], nil
}

func newTestManager() *progress.Manager {
	return progress.NewManager(newMemPersister(), progress.Config{}, nil)
}

func authedReq(t *testing.T, method, target, uid, body string) *http.Request {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	if uid != "" {
		r = r.WithContext(auth.WithUserID(r.Context(), uid))
	}
	return r
}

func withURLParam(r *http.Request, key, val string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, val)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func postEvent(t *testing.T, mgr *progress.Manager, uid, body string) *httptest.ResponseRecorder {
	t.Helper()
	h := IngestPlayerEvent(mgr, progress.NewNormalizer(nil), nil)
	w := httptest.NewRecorder()
	h(w, authedReq(t, http.MethodPost, "/v1/player/events", uid, body))
	return w
}

func TestIngestPlayerEventRequiresAuth(t *testing.T) {
	w := postEvent(t, newTestManager(), "", `{"event":"play"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestIngestPlayerEventRejectsUnreadableBody(t *testing.T) {
	w := postEvent(t, newTestManager(), "u1", `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestIngestPlayerEventDropsInvalidSilently(t *testing.T) {
	mgr := newTestManager()
	w := postEvent(t, mgr, "u1", `{"event":"volumechange","contentId":"tt1","duration":100}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", w.Code)
	}
	if got := mgr.Open(context.Background(), "u1").Snapshot(); len(got) != 0 {
		t.Fatalf("list has %d entries after invalid event", len(got))
	}
}

func TestIngestThenContinueWatching(t *testing.T) {
	mgr := newTestManager()
	w := postEvent(t, mgr, "u1", `{"event":"pause","contentId":"tt1","currentTime":30,"duration":100,"mediaType":"movie","title":"Tides"}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("ingest status = %d, want 202", w.Code)
	}

	lw := httptest.NewRecorder()
	ContinueWatching(mgr)(lw, authedReq(t, http.MethodGet, "/v1/me/continue-watching", "u1", ""))
	if lw.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", lw.Code)
	}

	var resp struct {
		Items []progressItemResponse `json:"items"`
	}
	if err := json.NewDecoder(lw.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(resp.Items))
	}
	it := resp.Items[0]
	if it.CompositeKey != "tt1" || it.DisplayTitle != "Tides" || it.FractionComplete != 0.3 {
		t.Fatalf("unexpected item: %+v", it)
	}
}

func TestIngestEndedPromotesToCompleted(t *testing.T) {
	mgr := newTestManager()
	postEvent(t, mgr, "u1", `{"event":"pause","contentId":"tt1","currentTime":30,"duration":100}`)
	postEvent(t, mgr, "u1", `{"event":"ended","contentId":"tt1","currentTime":100,"duration":100}`)

	lw := httptest.NewRecorder()
	ContinueWatching(mgr)(lw, authedReq(t, http.MethodGet, "/v1/me/continue-watching", "u1", ""))
	var list struct {
		Items []progressItemResponse `json:"items"`
	}
	if err := json.NewDecoder(lw.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Items) != 0 {
		t.Fatalf("continue-watching has %d entries after ended", len(list.Items))
	}

	cw := httptest.NewRecorder()
	Completed(mgr)(cw, authedReq(t, http.MethodGet, "/v1/me/completed", "u1", ""))
	var comp struct {
		Completed []completionResponse `json:"completed"`
	}
	if err := json.NewDecoder(cw.Body).Decode(&comp); err != nil {
		t.Fatalf("decode completed: %v", err)
	}
	if len(comp.Completed) != 1 || comp.Completed[0].CompositeKey != "tt1" {
		t.Fatalf("unexpected completed set: %+v", comp.Completed)
	}
}

func TestRemoveProgressIsIdempotent(t *testing.T) {
	mgr := newTestManager()
	postEvent(t, mgr, "u1", `{"event":"pause","contentId":"tt1","currentTime":30,"duration":100}`)

	h := RemoveProgress(mgr)
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r := withURLParam(authedReq(t, http.MethodDelete, "/v1/me/continue-watching/tt1", "u1", ""), "composite_key", "tt1")
		h(w, r)
		if w.Code != http.StatusNoContent {
			t.Fatalf("remove #%d status = %d, want 204", i+1, w.Code)
		}
	}
	if got := mgr.Open(context.Background(), "u1").Snapshot(); len(got) != 0 {
		t.Fatalf("list has %d entries after remove", len(got))
	}
}

func TestClearProgressKeepsCompletions(t *testing.T) {
	mgr := newTestManager()
	postEvent(t, mgr, "u1", `{"event":"ended","contentId":"tt1","currentTime":100,"duration":100}`)
	postEvent(t, mgr, "u1", `{"event":"pause","contentId":"tt2","currentTime":10,"duration":100}`)

	w := httptest.NewRecorder()
	ClearProgress(mgr, nil)(w, authedReq(t, http.MethodDelete, "/v1/me/continue-watching", "u1", ""))
	if w.Code != http.StatusNoContent {
		t.Fatalf("clear status = %d, want 204", w.Code)
	}

	s := mgr.Open(context.Background(), "u1")
	if got := s.Snapshot(); len(got) != 0 {
		t.Fatalf("list has %d entries after clear", len(got))
	}
	if got := s.Completions(); len(got) != 1 {
		t.Fatalf("completions = %d after clear, want 1", len(got))
	}
}

func TestContinueWatchingLimit(t *testing.T) {
	mgr := newTestManager()
	postEvent(t, mgr, "u1", `{"event":"pause","contentId":"tt1","currentTime":10,"duration":100,"timestamp":1000}`)
	postEvent(t, mgr, "u1", `{"event":"pause","contentId":"tt2","currentTime":10,"duration":100,"timestamp":2000}`)
	postEvent(t, mgr, "u1", `{"event":"pause","contentId":"tt3","currentTime":10,"duration":100,"timestamp":3000}`)

	w := httptest.NewRecorder()
	ContinueWatching(mgr)(w, authedReq(t, http.MethodGet, "/v1/me/continue-watching?limit=2", "u1", ""))
	var resp struct {
		Items []progressItemResponse `json:"items"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(resp.Items))
	}
	if resp.Items[0].CompositeKey != "tt3" {
		t.Fatalf("first item = %s, want tt3 (most recent)", resp.Items[0].CompositeKey)
	}
}

func TestSessionLifecycleEndpoints(t *testing.T) {
	mgr := newTestManager()

	w := httptest.NewRecorder()
	OpenSession(mgr)(w, authedReq(t, http.MethodPost, "/v1/me/session", "u1", ""))
	if w.Code != http.StatusNoContent {
		t.Fatalf("open status = %d, want 204", w.Code)
	}
	if _, ok := mgr.Peek("u1"); !ok {
		t.Fatal("session not open after POST /v1/me/session")
	}

	w = httptest.NewRecorder()
	CloseSession(mgr)(w, authedReq(t, http.MethodDelete, "/v1/me/session", "u1", ""))
	if w.Code != http.StatusNoContent {
		t.Fatalf("close status = %d, want 204", w.Code)
	}
	if _, ok := mgr.Peek("u1"); ok {
		t.Fatal("session still open after DELETE /v1/me/session")
	}

	// Closing again is a no-op.
	w = httptest.NewRecorder()
	CloseSession(mgr)(w, authedReq(t, http.MethodDelete, "/v1/me/session", "u1", ""))
	if w.Code != http.StatusNoContent {
		t.Fatalf("re-close status = %d, want 204", w.Code)
	}
}
