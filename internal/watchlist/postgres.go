package watchlist

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is the production Postgres-backed implementation.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the watchlist table when it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
CREATE TABLE IF NOT EXISTS user_watchlist (
  user_id       text NOT NULL,
  title_id      text NOT NULL,
  display_title text NOT NULL DEFAULT '',
  poster_url    text NOT NULL DEFAULT '',
  added_at      timestamptz NOT NULL,
  PRIMARY KEY (user_id, title_id)
)`)
	if err != nil {
		return fmt.Errorf("ensure user_watchlist schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Add(ctx context.Context, userID string, item Item) error {
	if item.AddedAt.IsZero() {
		item.AddedAt = time.Now().UTC()
	}
	q := `
INSERT INTO user_watchlist (user_id, title_id, display_title, poster_url, added_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id, title_id)
DO UPDATE SET display_title = EXCLUDED.display_title, poster_url = EXCLUDED.poster_url`

	if _, err := s.db.Exec(ctx, q, userID, item.TitleID, item.DisplayTitle, item.PosterURL, item.AddedAt); err != nil {
		return fmt.Errorf("watchlist add: %w", err)
	}
	return nil
}

func (s *PostgresStore) Remove(ctx context.Context, userID, titleID string) error {
	if _, err := s.db.Exec(ctx,
		`DELETE FROM user_watchlist WHERE user_id = $1 AND title_id = $2`,
		userID, titleID); err != nil {
		return fmt.Errorf("watchlist remove: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, userID string, limit int) ([]Item, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	rows, err := s.db.Query(ctx, `
SELECT title_id, display_title, poster_url, added_at
FROM user_watchlist
WHERE user_id = $1
ORDER BY added_at DESC, title_id DESC
LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("watchlist list: %w", err)
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.TitleID, &it.DisplayTitle, &it.PosterURL, &it.AddedAt); err != nil {
			return nil, fmt.Errorf("watchlist scan: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
