package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/cassini/internal/logger"
)

type RouterConfig struct {
	ActionHandler *ActionHandler
	Health        Pinger
	Log           *logger.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Log == nil {
		cfg.Log = logger.Nop()
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLog(cfg.Log))

	router.GET("/healthz", HealthCheck(cfg.Health))

	v1 := router.Group("/v1")
	{
		v1.POST("/users/:id/actions", cfg.ActionHandler.PostAction)
		v1.GET("/users/:id/screen", cfg.ActionHandler.GetScreen)
	}
	return router
}

func requestLog(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
