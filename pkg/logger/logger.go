package logger

import (
	"arkada-rewards/pkg/config"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Module = fx.Module("zap",
	fx.Provide(
		New,
	),
)

func New(cfg *config.Config) *zap.Logger {
	log := zap.Must(zap.NewDevelopment())
	if cfg.AppEnv == "production" {
		zapCfg := zap.NewProductionConfig()
		zapCfg.EncoderConfig.TimeKey = "timestamp"
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		zapCfg.EncoderConfig.StacktraceKey = "stacktrace"
		zapCfg.EncoderConfig.LevelKey = "severity"
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		zapCfg.EncoderConfig.CallerKey = "caller"
		zapCfg.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
		zapCfg.Encoding = "json"
		zapCfg.OutputPaths = []string{"stdout"}
		zapCfg.ErrorOutputPaths = []string{"stderr"}

		var err error
		log, err = zapCfg.Build()
		if err != nil {
			panic(err)
		}
	}

	log = log.With(
		zap.String("env", cfg.AppEnv),
		zap.String("service_name", cfg.AppName),
	)

	zap.ReplaceGlobals(log)

	return log
}
