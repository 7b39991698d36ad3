package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/streamfront/internal/platform/signing"
)

func TestEmbedTokenIssuesVerifiableGrant(t *testing.T) {
	signer := signing.New("test-secret")
	h := EmbedToken(signer, 5*time.Minute, nil)

	w := httptest.NewRecorder()
	r := withURLParam(authedReq(t, http.MethodGet, "/v1/player/embed/tt1", "u1", ""), "title_id", "tt1")
	h(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var tok signing.EmbedToken
	if err := json.NewDecoder(w.Body).Decode(&tok); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if tok.TitleID != "tt1" || tok.UserID != "u1" {
		t.Fatalf("unexpected token: %+v", tok)
	}
	if !signer.Verify(tok) {
		t.Fatal("issued token did not verify")
	}
	if signing.New("other-secret").Verify(tok) {
		t.Fatal("token verified under a different secret")
	}
}

func TestEmbedTokenRequiresAuth(t *testing.T) {
	h := EmbedToken(signing.New("test-secret"), time.Minute, nil)
	w := httptest.NewRecorder()
	r := withURLParam(authedReq(t, http.MethodGet, "/v1/player/embed/tt1", "", ""), "title_id", "tt1")
	h(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}
