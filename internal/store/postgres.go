package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresBackend is the production remote store: one JSONB document per
// user, overwritten whole on every save.
type PostgresBackend struct {
	db *pgxpool.Pool
}

func NewPostgresBackend(db *pgxpool.Pool) *PostgresBackend {
	return &PostgresBackend{db: db}
}

// EnsureSchema creates the per-user document table when it does not exist.
func (p *PostgresBackend) EnsureSchema(ctx context.Context) error {
	_, err := p.db.Exec(ctx, `
CREATE TABLE IF NOT EXISTS user_progress (
  user_id    text PRIMARY KEY,
  doc        jsonb NOT NULL,
  updated_at timestamptz NOT NULL
)`)
	if err != nil {
		return fmt.Errorf("ensure user_progress schema: %w", err)
	}
	return nil
}

func (p *PostgresBackend) Save(ctx context.Context, userID string, doc Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal progress doc: %w", err)
	}

	q := `
INSERT INTO user_progress (user_id, doc, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (user_id)
DO UPDATE SET doc = EXCLUDED.doc, updated_at = EXCLUDED.updated_at`

	if _, err := p.db.Exec(ctx, q, userID, data, doc.UpdatedAt); err != nil {
		return fmt.Errorf("save progress doc: %w", err)
	}
	return nil
}

func (p *PostgresBackend) Load(ctx context.Context, userID string) (Document, bool, error) {
	var data []byte
	err := p.db.QueryRow(ctx,
		`SELECT doc FROM user_progress WHERE user_id = $1`, userID,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, false, nil
	}
	if err != nil {
		return Document{}, false, fmt.Errorf("load progress doc: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, false, fmt.Errorf("decode progress doc: %w", err)
	}
	return doc, true, nil
}
