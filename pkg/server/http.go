package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"arkada-rewards/pkg/config"
	"arkada-rewards/pkg/middleware"
)

var Module = fx.Module("http.server",
	fx.Provide(
		ProvideRouter,
		ProvideHTTPServer,
	),
	fx.Invoke(Run),
)

// ProvideRouter constructs the gin engine shared by all HTTP handlers.
func ProvideRouter(cfg *config.Config) *gin.Engine {
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(), middleware.Error())
	return r
}

// ProvideHTTPServer constructs an *http.Server configured from the application config.
func ProvideHTTPServer(cfg *config.Config, r *gin.Engine) *http.Server {
	return &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
}

// Run wires the HTTP server lifecycle to the fx application.
func Run(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config, srv *http.Server) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info("Starting HTTP server...", zap.String("addr", cfg.Server.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Fatal("HTTP server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Shutting down HTTP server...", zap.String("addr", cfg.Server.Addr))
			return srv.Shutdown(ctx)
		},
	})
}
