package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/streamfront/internal/progress"
)

// failingBackend errors on every call.
type failingBackend struct{}

func (failingBackend) Save(context.Context, string, Document) error {
	return errors.New("backend unavailable")
}

func (failingBackend) Load(context.Context, string) (Document, bool, error) {
	return Document{}, false, errors.New("backend unavailable")
}

func sampleList() progress.ProgressList {
	return progress.ProgressList{{
		Identity:         progress.ContentIdentity{TitleID: "m1"},
		FractionComplete: 0.5,
		LastWatchedAt:    time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}}
}

func TestDualWriter_WriteMirrorsBothBackends(t *testing.T) {
	remote, local := NewMemoryBackend(), NewMemoryBackend()
	d := NewDualWriter(remote, local, nil)

	if err := d.Write(context.Background(), "u1", sampleList(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for name, b := range map[string]Backend{"remote": remote, "local": local} {
		doc, ok, err := b.Load(context.Background(), "u1")
		if err != nil || !ok {
			t.Fatalf("%s: ok=%v err=%v", name, ok, err)
		}
		if len(doc.Items) != 1 || doc.Items[0].Identity.TitleID != "m1" {
			t.Fatalf("%s: unexpected doc %+v", name, doc)
		}
	}
}

func TestDualWriter_RemoteWriteFailureDoesNotBlockLocal(t *testing.T) {
	local := NewMemoryBackend()
	d := NewDualWriter(failingBackend{}, local, nil)

	if err := d.Write(context.Background(), "u1", sampleList(), nil); err != nil {
		t.Fatalf("single-backend failure must be absorbed, got %v", err)
	}

	if _, ok, _ := local.Load(context.Background(), "u1"); !ok {
		t.Fatal("expected local mirror to hold the document")
	}
}

func TestDualWriter_BothBackendsFailing(t *testing.T) {
	d := NewDualWriter(failingBackend{}, failingBackend{}, nil)
	if err := d.Write(context.Background(), "u1", sampleList(), nil); err == nil {
		t.Fatal("expected error when every copy is lost")
	}
}

func TestDualWriter_ReadPrefersRemote(t *testing.T) {
	remote, local := NewMemoryBackend(), NewMemoryBackend()
	_ = remote.Save(context.Background(), "u1", Document{Items: sampleList()})
	_ = local.Save(context.Background(), "u1", Document{Items: progress.ProgressList{{
		Identity: progress.ContentIdentity{TitleID: "stale"},
	}}})

	d := NewDualWriter(remote, local, nil)
	items, _, err := d.Read(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].Identity.TitleID != "m1" {
		t.Fatalf("expected remote copy, got %+v", items)
	}
}

func TestDualWriter_ReadFallsBackToLocal(t *testing.T) {
	local := NewMemoryBackend()
	_ = local.Save(context.Background(), "u1", Document{Items: sampleList()})

	d := NewDualWriter(failingBackend{}, local, nil)
	items, _, err := d.Read(context.Background(), "u1")
	if err != nil {
		t.Fatalf("read failure must be absorbed, got %v", err)
	}
	if len(items) != 1 || items[0].Identity.TitleID != "m1" {
		t.Fatalf("expected cached copy returned unchanged, got %+v", items)
	}
}

func TestDualWriter_ReadFallsBackToLocalWhenRemoteEmpty(t *testing.T) {
	remote, local := NewMemoryBackend(), NewMemoryBackend()
	_ = local.Save(context.Background(), "u1", Document{Items: sampleList()})

	d := NewDualWriter(remote, local, nil)
	items, _, err := d.Read(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected local fallback, got %+v", items)
	}
}

func TestDualWriter_ReadEmptyEverywhere(t *testing.T) {
	d := NewDualWriter(NewMemoryBackend(), NewMemoryBackend(), nil)
	items, completions, err := d.Read(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 0 || len(completions) != 0 {
		t.Fatalf("expected empty state, got %v / %v", items, completions)
	}
}
