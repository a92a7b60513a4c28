package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"arkada-rewards/pkg/config"
	"arkada-rewards/services/onchain"
	"arkada-rewards/services/points"
	"arkada-rewards/services/transaction"
)

// ErrNoSupportedEvents fails a job whose decoded batch has nothing the route
// supports: an otherwise valid payload with zero effect points at a
// misconfigured route or ABI drift, and must not pass silently.
var ErrNoSupportedEvents = errors.New("no supported events in webhook payload")

type Task struct {
	cfg          *config.Config
	decoder      *onchain.Decoder
	transactions *transaction.Service
	points       *points.Service
}

type TaskParams struct {
	fx.In
	Config       *config.Config
	Decoder      *onchain.Decoder
	Transactions *transaction.Service
	Points       *points.Service
}

func NewTask(p TaskParams) *Task {
	return &Task{
		cfg:          p.Config,
		decoder:      p.Decoder,
		transactions: p.Transactions,
		points:       p.Points,
	}
}

// HandleWebhookTask drives the decode, filter, record, award pipeline for one
// queued delivery. Malformed payloads are rejected without retry; award
// failures are returned so the queue's retry policy governs redelivery.
func (t *Task) HandleWebhookTask(ctx context.Context, task *asynq.Task) error {
	var payload JobPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid job payload: %v: %w", err, asynq.SkipRetry)
	}

	zapLog := zap.L().With(
		zap.String("task_type", task.Type()),
		zap.String("route", payload.Route),
	)

	delivery, err := ParseDelivery(payload.Webhook)
	if err != nil {
		zapLog.Error("rejecting malformed webhook payload", zap.Error(err))
		return fmt.Errorf("parse delivery: %v: %w", err, asynq.SkipRetry)
	}

	zapLog = zapLog.With(
		zap.String("delivery_id", delivery.ID),
		zap.Uint64("block_number", delivery.Event.Data.Block.Number),
	)

	events, err := t.decoder.DecodeBlock(delivery.RawLogs(), delivery.Event.Data.Block.Number)
	if err != nil {
		zapLog.Error("rejecting undecodable webhook payload", zap.Error(err))
		return fmt.Errorf("decode logs: %v: %w", err, asynq.SkipRetry)
	}

	matched := onchain.FilterSupported(events, t.supportedFor(payload))
	if len(matched) == 0 {
		zapLog.Error("no supported events in payload",
			zap.Int("decoded", len(events)),
			zap.String("event_signature", payload.EventSignature),
		)
		return ErrNoSupportedEvents
	}

	fresh := t.transactions.RecordNew(ctx, matched)
	zapLog.Info("recorded webhook transactions",
		zap.Int("decoded", len(events)),
		zap.Int("matched", len(matched)),
		zap.Int("new", len(fresh)),
	)

	// Awards run over the full matched set, not just the newly recorded
	// transactions: a redelivered job must reach the events whose award failed
	// last time even though their transaction rows already exist. The unique
	// tx_hash index on awards makes re-application a per-hash no-op.
	if err := t.points.Apply(ctx, matched); err != nil {
		zapLog.Error("award application failed", zap.Error(err))
		return err
	}

	return nil
}

// supportedFor resolves the signature set the job is filtered against: the
// route's configured set, or the job's own tag when the route is no longer
// configured.
func (t *Task) supportedFor(payload JobPayload) map[string]struct{} {
	if sigs, ok := t.cfg.Webhook.Routes[payload.Route]; ok && len(sigs) > 0 {
		return onchain.SignatureSet(sigs)
	}
	return onchain.SignatureSet([]string{payload.EventSignature})
}
