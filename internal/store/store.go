// Package store persists reconciled continue-watching state. The remote
// backend (Postgres) is the source of truth across devices; the local
// backend (BadgerDB) mirrors it for offline fallback. Both speak the same
// whole-document overwrite contract.
package store

import (
	"context"
	"time"

	"github.com/example/streamfront/internal/progress"
)

// Document is the per-user record written to every backend: the full
// continue-watching list plus the sibling completion set. Writes replace
// the whole document; there is no field-level merge.
type Document struct {
	Items       progress.ProgressList       `json:"items"`
	Completions []progress.CompletionRecord `json:"completions,omitempty"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}

// Backend is a single durable home for Documents, addressed by user id.
// Load returns ok=false when the user has no document yet.
type Backend interface {
	Save(ctx context.Context, userID string, doc Document) error
	Load(ctx context.Context, userID string) (Document, bool, error)
}
