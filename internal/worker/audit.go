// Package worker consumes portal events from JetStream and materializes the
// audit log admins browse when investigating moderation actions.
package worker

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/course-portal/internal/platform/events"
)

// StartAuditConsumer pull-subscribes to every portal.* subject and inserts
// one audit row per event. event_id is the primary key, so redeliveries are
// idempotent.
func StartAuditConsumer(ctx context.Context, nc *nats.Conn, pool *pgxpool.Pool, log *zap.Logger) {
	js, err := nc.JetStream()
	if err != nil {
		log.Error("audit: jetstream error", zap.Error(err))
		return
	}

	sub, err := js.PullSubscribe("portal.>", "portal_audit")
	if err != nil {
		log.Error("audit: subscribe error", zap.Error(err))
		return
	}

	go func() {
		batchSize := envInt("WORKER_BATCH_SIZE", 100)
		maxWait := time.Duration(envInt("WORKER_BATCH_INTERVAL_MS", 2000)) * time.Millisecond
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			msgs, err := sub.Fetch(batchSize, nats.MaxWait(maxWait))
			if err != nil {
				if err == nats.ErrTimeout {
					continue
				}
				log.Warn("audit: fetch error", zap.Error(err))
				time.Sleep(time.Second)
				continue
			}

			for _, m := range msgs {
				if err := recordEvent(ctx, pool, m); err != nil {
					log.Warn("audit: record failed", zap.String("subject", m.Subject), zap.Error(err))
					if err := m.Nak(); err != nil {
						log.Warn("audit: nak error", zap.Error(err))
					}
					continue
				}
				if err := m.Ack(); err != nil {
					log.Warn("audit: ack error", zap.Error(err))
				}
			}
		}
	}()
}

func recordEvent(ctx context.Context, pool *pgxpool.Pool, m *nats.Msg) error {
	var ev events.Event
	if err := json.Unmarshal(m.Data, &ev); err != nil {
		// Malformed payloads are dropped, not retried forever.
		return nil
	}
	if ev.EventID == "" {
		return nil
	}
	_, err := pool.Exec(ctx, `
INSERT INTO audit_log (event_id, subject, user_id, payload, occurred_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (event_id) DO NOTHING`,
		ev.EventID, m.Subject, ev.UserID, m.Data, ev.OccurredAt)
	return err
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
