package webhook

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"arkada-rewards/pkg/config"
)

// Enqueuer is the slice of *asynq.Client the handler needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type Handler struct {
	cfg *config.Config
	enq Enqueuer
}

func NewHandler(cfg *config.Config, enq Enqueuer) *Handler {
	return &Handler{
		cfg: cfg,
		enq: enq,
	}
}

// Handle accepts POST /webhooks/:route. It verifies the HMAC over the raw
// body, enqueues one durable job per delivery, and returns as soon as the job
// is queued; processing happens asynchronously.
func (h *Handler) Handle(c *gin.Context) {
	route := c.Param("route")

	// The HMAC covers the byte-exact body the sender signed; read it before
	// any parsing.
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "failed to read body"})
		return
	}

	// Verify before resolving the route so unauthenticated callers cannot
	// probe which routes are configured.
	if !VerifySignature(body, c.GetHeader(SignatureHeader), h.cfg.Webhook.SigningKey) {
		zap.L().Warn("webhook signature mismatch", zap.String("route", route))
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid signature"})
		return
	}

	sigs, ok := h.cfg.Webhook.Routes[route]
	if !ok || len(sigs) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "unknown webhook route"})
		return
	}

	task, err := NewWebhookTask(JobPayload{
		Route:          route,
		EventSignature: sigs[0],
		Webhook:        body,
	}, h.cfg.Worker.Queue)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to build job"})
		return
	}

	info, err := h.enq.EnqueueContext(c.Request.Context(), task)
	if err != nil {
		zap.L().Error("failed to enqueue webhook job", zap.String("route", route), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to enqueue webhook"})
		return
	}

	zap.L().Info("webhook queued",
		zap.String("route", route),
		zap.String("task_id", info.ID),
		zap.String("queue", info.Queue),
	)
	c.JSON(http.StatusOK, gin.H{"message": "webhook queued"})
}
