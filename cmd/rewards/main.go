package main

import (
	"log"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gorm.io/gorm"

	asynqpkg "arkada-rewards/pkg/asynq"
	"arkada-rewards/pkg/config"
	"arkada-rewards/pkg/db"
	"arkada-rewards/pkg/health"
	"arkada-rewards/pkg/logger"
	"arkada-rewards/pkg/redis"
	"arkada-rewards/pkg/server"
	"arkada-rewards/services/onchain"
	"arkada-rewards/services/points"
	"arkada-rewards/services/transaction"
	"arkada-rewards/services/webhook"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		asynqpkg.Client,
		asynqpkg.Server,
		asynqpkg.Scheduler,
		server.Module,
		health.Module,
		fx.Provide(provideSnowflakeNode),
		onchain.Module,
		transaction.Module,
		transaction.TaskModule,
		points.Module,
		webhook.Module,
		fx.Invoke(
			migrate,
			db.Otel,
			db.Metric,
		),
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})

func provideSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

func migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&transaction.Record{},
		&points.Award{},
		&points.Balance{},
	)
}
