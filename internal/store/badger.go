package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

const progressKeyPrefix = "progress:"

// BadgerBackend is the durable local mirror: a key-value entry per user,
// used only as an offline fallback when the remote store is unreachable.
type BadgerBackend struct {
	db *badger.DB
}

func NewBadgerBackend(db *badger.DB) *BadgerBackend {
	return &BadgerBackend{db: db}
}

// OpenBadger opens the local cache at dir. An empty dir opens an in-memory
// instance, which is what tests and cache-less deployments want.
func OpenBadger(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	return badger.Open(opts)
}

func (b *BadgerBackend) Save(_ context.Context, userID string, doc Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal progress doc: %w", err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(progressKeyPrefix+userID), data)
	})
}

func (b *BadgerBackend) Load(_ context.Context, userID string) (Document, bool, error) {
	var doc Document
	found := false

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(progressKeyPrefix + userID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &doc)
		})
	})
	if err != nil {
		return Document{}, false, fmt.Errorf("load progress doc: %w", err)
	}
	return doc, found, nil
}
