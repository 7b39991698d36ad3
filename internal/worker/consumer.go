// Package worker consumes raw player beacons from JetStream. It is the
// server-to-server ingest path: partner CDNs batch-forward the same payloads
// the widget posts over HTTP, so both paths share one normalizer and fold.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/streamfront/internal/progress"
)

const (
	StreamName    = "PLAYER_EVENTS"
	SubjectEvents = "player.events"
	durableName   = "progress_fold"
)

// Envelope wraps one forwarded beacon with its originating user.
type Envelope struct {
	EventID   string                  `json:"event_id"`
	UserID    string                  `json:"user_id"`
	Payload   progress.RawPlayerEvent `json:"payload"`
	CreatedAt string                  `json:"created_at,omitempty"`
}

// Consumer pulls beacon envelopes and folds them into user sessions.
type Consumer struct {
	mgr  *progress.Manager
	norm *progress.Normalizer
	log  *zap.Logger

	batchSize int
	maxWait   time.Duration
}

func NewConsumer(mgr *progress.Manager, norm *progress.Normalizer, log *zap.Logger) *Consumer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Consumer{
		mgr:       mgr,
		norm:      norm,
		log:       log,
		batchSize: 100,
		maxWait:   2 * time.Second,
	}
}

// EnsureStream creates the beacon stream if it does not exist yet.
func EnsureStream(js nats.JetStreamContext) error {
	_, err := js.AddStream(&nats.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{"player.>"},
		Retention: nats.WorkQueuePolicy,
		MaxAge:    24 * time.Hour,
	})
	if err != nil && strings.Contains(err.Error(), "already in use") {
		return nil
	}
	return err
}

// Start subscribes and launches the fetch loop. It returns after the
// subscription is established; the loop stops when ctx is cancelled.
func (c *Consumer) Start(ctx context.Context, js nats.JetStreamContext) error {
	sub, err := js.PullSubscribe(SubjectEvents, durableName)
	if err != nil {
		return err
	}

	go c.loop(ctx, sub)
	return nil
}

func (c *Consumer) loop(ctx context.Context, sub *nats.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msgs, err := sub.Fetch(c.batchSize, nats.MaxWait(c.maxWait))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.Canceled) {
				continue
			}
			c.log.Warn("worker: fetch failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		for _, m := range msgs {
			c.handle(ctx, m.Data)
			// Malformed envelopes are acked too: redelivery cannot fix them.
			if err := m.Ack(); err != nil {
				c.log.Warn("worker: ack failed", zap.Error(err))
			}
		}
	}
}

func (c *Consumer) handle(ctx context.Context, data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.log.Warn("worker: invalid envelope", zap.Error(err))
		return
	}
	if strings.TrimSpace(env.UserID) == "" {
		c.log.Warn("worker: envelope without user_id dropped",
			zap.String("event_id", env.EventID))
		return
	}

	ev, ok := c.norm.Normalize(env.Payload)
	if !ok {
		return
	}
	c.mgr.Open(ctx, env.UserID).Apply(ev)
}
