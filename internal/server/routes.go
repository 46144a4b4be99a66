package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	_ "github.com/xpanvictor/vibesync/docs"
	"github.com/xpanvictor/vibesync/internal/config"
	"github.com/xpanvictor/vibesync/internal/handlers"
	"github.com/xpanvictor/vibesync/internal/handlers/websocket"
	"github.com/xpanvictor/vibesync/internal/metrics"
	"github.com/xpanvictor/vibesync/pkg/Logger"
)

type Dependencies struct {
	Haptics  *handlers.HapticsHandler
	Devices  *websocket.WebSocketHandler
	Metrics  *metrics.Metrics
	Logger   *Logger.Logger
	Endpoint string
}

func NewServerDependencies(
	haptics *handlers.HapticsHandler,
	devices *websocket.WebSocketHandler,
	m *metrics.Metrics,
	logger *Logger.Logger,
	endpoint string,
) Dependencies {
	return Dependencies{
		Haptics:  haptics,
		Devices:  devices,
		Metrics:  m,
		Logger:   logger,
		Endpoint: endpoint,
	}
}

func InitializeRoutes(cfg *config.Settings, r *gin.Engine, dep Dependencies) {
	r.Use(handlers.ErrorHandlerMiddleware(dep.Logger))
	if cfg.Debug {
		r.Use(handlers.RequestLoggerMiddleware(dep.Logger))
	}
	r.Use(cors.New(corsConfig(cfg.Server.AllowedOrigins)))

	r.GET("/", func(ctx *gin.Context) { ctx.JSON(http.StatusOK, gin.H{"message": "Server healthy"}) })
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok", "endpoint": dep.Endpoint})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	if dep.Metrics != nil {
		r.GET("/metrics", gin.WrapH(dep.Metrics.Handler()))
	}

	dep.Haptics.RegisterRoutes(r)
	if dep.Devices != nil {
		dep.Devices.RegisterRoutes(r)
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}
