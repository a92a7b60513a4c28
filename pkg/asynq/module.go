package asynq

import (
	"context"

	"arkada-rewards/pkg/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Client = fx.Module("asynq:client",
	fx.Provide(registerClient),
)

func registerClient(lc fx.Lifecycle, redis *redis.Client) *asynq.Client {
	client := asynq.NewClientFromRedisClient(redis)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return client
}

var Server = fx.Module("asynq:server",
	fx.Provide(registerServerMux),
	fx.Invoke(registerAsynqServer),
)

func registerServerMux() *asynq.ServeMux {
	return asynq.NewServeMux()
}

func registerAsynqServer(lc fx.Lifecycle, cfg *config.Config, mux *asynq.ServeMux) {
	server := asynq.NewServer(
		redisConnOpt(cfg),
		asynq.Config{
			Concurrency:    cfg.Worker.Concurrency,
			RetryDelayFunc: asynq.DefaultRetryDelayFunc,
			Queues: map[string]int{
				cfg.Worker.Queue: 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				zap.L().Error("asynq task failed", zap.String("task_type", task.Type()), zap.Error(err))
			}),
		},
	)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go server.Run(mux)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			server.Stop()
			return nil
		},
	})
}

var Scheduler = fx.Module("asynq:scheduler",
	fx.Provide(registerScheduler),
	fx.Invoke(runScheduler),
)

func registerScheduler(cfg *config.Config) *asynq.Scheduler {
	return asynq.NewScheduler(
		redisConnOpt(cfg),
		&asynq.SchedulerOpts{
			EnqueueErrorHandler: func(task *asynq.Task, opts []asynq.Option, err error) {
				zap.L().Error("asynq scheduler enqueue failed", zap.String("task_type", task.Type()), zap.Error(err))
			},
		},
	)
}

func runScheduler(lc fx.Lifecycle, scheduler *asynq.Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return scheduler.Start()
		},
		OnStop: func(ctx context.Context) error {
			scheduler.Shutdown()
			return nil
		},
	})
}

func redisConnOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
}
