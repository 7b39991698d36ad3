package store

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/example/streamfront/internal/progress"
)

// DualWriter implements progress.Persister across a remote store and a
// local cache. Writes go to both; a remote failure is logged and never
// blocks the local write, so the user's view of progress survives network
// outages. Reads prefer remote, fall back to local, then to empty.
//
// Conflict policy is last-writer-wins at whole-document granularity:
// concurrent playback on two devices can silently overwrite one device's
// progress with the other's next write. Known limitation, kept deliberately.
type DualWriter struct {
	remote Backend
	local  Backend
	log    *zap.Logger
}

var _ progress.Persister = (*DualWriter)(nil)

func NewDualWriter(remote, local Backend, log *zap.Logger) *DualWriter {
	if log == nil {
		log = zap.NewNop()
	}
	return &DualWriter{remote: remote, local: local, log: log}
}

func (d *DualWriter) Write(ctx context.Context, userID string, list progress.ProgressList, completions []progress.CompletionRecord) error {
	doc := Document{
		Items:       list,
		Completions: completions,
		UpdatedAt:   time.Now().UTC(),
	}

	remoteErr := d.remote.Save(ctx, userID, doc)
	if remoteErr != nil {
		d.log.Warn("store: remote write failed, local mirror still attempted",
			zap.String("user_id", userID), zap.Error(remoteErr))
	}

	localErr := d.local.Save(ctx, userID, doc)
	if localErr != nil {
		d.log.Warn("store: local write failed",
			zap.String("user_id", userID), zap.Error(localErr))
	}

	// Only a total failure is worth reporting upstream; a single surviving
	// copy keeps the session consistent until the next successful write.
	if remoteErr != nil && localErr != nil {
		return errors.Join(remoteErr, localErr)
	}
	return nil
}

func (d *DualWriter) Read(ctx context.Context, userID string) (progress.ProgressList, []progress.CompletionRecord, error) {
	doc, ok, err := d.remote.Load(ctx, userID)
	if err != nil {
		d.log.Warn("store: remote read failed, falling back to local cache",
			zap.String("user_id", userID), zap.Error(err))
	}
	if err == nil && ok {
		return doc.Items, doc.Completions, nil
	}

	doc, ok, err = d.local.Load(ctx, userID)
	if err != nil {
		d.log.Warn("store: local read failed",
			zap.String("user_id", userID), zap.Error(err))
		return nil, nil, nil
	}
	if !ok {
		return nil, nil, nil
	}
	return doc.Items, doc.Completions, nil
}
