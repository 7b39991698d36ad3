package store

import (
	"context"
	"testing"
	"time"

	"github.com/example/streamfront/internal/progress"
)

func newTestBadger(t *testing.T) *BadgerBackend {
	t.Helper()
	db, err := OpenBadger("") // in-memory
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewBadgerBackend(db)
}

func TestBadgerBackend_SaveLoad(t *testing.T) {
	b := newTestBadger(t)
	doc := Document{
		Items: progress.ProgressList{{
			Identity:         progress.ContentIdentity{TitleID: "5", Season: 1, Episode: 2},
			FractionComplete: 0.5,
			LastWatchedAt:    time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		}},
		UpdatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}

	if err := b.Save(context.Background(), "u1", doc); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := b.Load(context.Background(), "u1")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if len(got.Items) != 1 || got.Items[0].Identity.CompositeKey() != "5:s01:e02" {
		t.Fatalf("unexpected doc %+v", got)
	}
}

func TestBadgerBackend_LoadAbsent(t *testing.T) {
	b := newTestBadger(t)
	_, ok, err := b.Load(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for absent user")
	}
}

func TestBadgerBackend_OverwriteReplacesDocument(t *testing.T) {
	b := newTestBadger(t)
	_ = b.Save(context.Background(), "u1", Document{Items: progress.ProgressList{
		{Identity: progress.ContentIdentity{TitleID: "a"}},
		{Identity: progress.ContentIdentity{TitleID: "b"}},
	}})
	_ = b.Save(context.Background(), "u1", Document{})

	got, ok, err := b.Load(context.Background(), "u1")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if len(got.Items) != 0 {
		t.Fatalf("expected overwrite semantics, got %+v", got.Items)
	}
}
