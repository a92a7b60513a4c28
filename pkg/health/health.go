package health

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("health",
	fx.Provide(ProvideHealth),
	fx.Invoke(registerRoutes),
)

type Dependency struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type Health struct {
	Status  string       `json:"status"`
	Message string       `json:"message"`
	Deps    []Dependency `json:"deps,omitempty"`
}

type HealthService interface {
	Liveness(c *gin.Context)
	Readiness(c *gin.Context)
}

type health struct {
	db    *gorm.DB
	redis *redis.Client
}

type HealthParams struct {
	fx.In
	DB    *gorm.DB      `optional:"true"`
	Redis *redis.Client `optional:"true"`
}

func ProvideHealth(p HealthParams) HealthService {
	return &health{
		db:    p.DB,
		redis: p.Redis,
	}
}

func registerRoutes(r *gin.Engine, h HealthService) {
	r.GET("/healthz/live", h.Liveness)
	r.GET("/healthz/ready", h.Readiness)
}

func (h *health) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, &Health{
		Status:  "healthy",
		Message: "OK",
	})
}

func (h *health) Readiness(c *gin.Context) {
	this := &Health{
		Status:  "healthy",
		Message: "OK",
	}

	deps := make([]Dependency, 0)
	status := http.StatusOK

	if h.db != nil {
		dep := Dependency{Name: "postgres", Status: "healthy", Message: "OK"}

		sql, err := h.db.DB()
		if err == nil {
			err = sql.Ping()
		}
		if err != nil {
			dep.Status = "unhealthy"
			dep.Message = err.Error()
			status = http.StatusServiceUnavailable
		}

		deps = append(deps, dep)
	}

	if h.redis != nil {
		dep := Dependency{Name: "redis", Status: "healthy", Message: "OK"}

		if err := h.redis.Ping(c.Request.Context()).Err(); err != nil {
			dep.Status = "unhealthy"
			dep.Message = err.Error()
			status = http.StatusServiceUnavailable
		}

		deps = append(deps, dep)
	}

	this.Deps = deps
	if status != http.StatusOK {
		this.Status = "unhealthy"
		this.Message = "one or more dependencies failed"
	}

	c.JSON(status, this)
}
