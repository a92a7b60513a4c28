package webhook

import (
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/fx"

	"arkada-rewards/pkg/config"
)

var Module = fx.Module("webhook",
	fx.Provide(
		provideHandler,
		NewTask,
	),
	fx.Invoke(
		registerRoutes,
		registerTaskHandlers,
	),
)

func provideHandler(cfg *config.Config, client *asynq.Client) *Handler {
	return NewHandler(cfg, client)
}

func registerRoutes(r *gin.Engine, h *Handler) {
	r.POST("/webhooks/:route", h.Handle)
}

func registerTaskHandlers(mux *asynq.ServeMux, task *Task) {
	mux.HandleFunc(TaskTypePrefix, task.HandleWebhookTask)
}
