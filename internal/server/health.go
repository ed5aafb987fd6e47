package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/showmatch/showmatch-backend/internal/app"
)

// HealthRegistrar wires the liveness endpoint: a DB and Redis ping.
type HealthRegistrar struct {
	appCtx *app.AppContext
}

// NewHealthRegistrar creates a Registrar for the health endpoint
func NewHealthRegistrar(appCtx *app.AppContext) *HealthRegistrar {
	return &HealthRegistrar{appCtx: appCtx}
}

// Register attaches /healthz to the router
func (h *HealthRegistrar) Register(router *gin.Engine) {
	router.GET("/healthz", func(c *gin.Context) {
		ctx := c.Request.Context()

		sqlDB, err := h.appCtx.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "db": err.Error()})
			return
		}

		if err := h.appCtx.RedisCache.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "redis": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
