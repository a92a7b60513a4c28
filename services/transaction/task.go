package transaction

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"arkada-rewards/pkg/config"
)

const TypePurgeExpired = "transaction:purge_expired"

type Task struct {
	service *Service
	cfg     *config.Config
}

type TaskParams struct {
	fx.In
	Service *Service
	Config  *config.Config
}

func NewTask(p TaskParams) *Task {
	return &Task{
		service: p.Service,
		cfg:     p.Config,
	}
}

func (t *Task) HandlePurgeExpiredTask(ctx context.Context, task *asynq.Task) error {
	purged, err := t.service.PurgeOlderThan(ctx, t.cfg.Retention.MaxAge)
	if err != nil {
		zap.L().Error("transaction purge failed", zap.Error(err))
		return fmt.Errorf("purge expired transactions: %w", err)
	}

	zap.L().Info("purged expired transactions",
		zap.Int64("rows", purged),
		zap.Duration("max_age", t.cfg.Retention.MaxAge),
	)
	return nil
}

func registerTaskHandlers(mux *asynq.ServeMux, task *Task) {
	mux.HandleFunc(TypePurgeExpired, task.HandlePurgeExpiredTask)
}

func registerPeriodicTasks(scheduler *asynq.Scheduler, cfg *config.Config) error {
	_, err := scheduler.Register(
		"@every 1h",
		asynq.NewTask(TypePurgeExpired, nil, asynq.Queue(cfg.Worker.Queue)),
	)
	return err
}
