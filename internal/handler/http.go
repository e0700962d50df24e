// Package handler - HTTP API игры на gin.
package handler

import (
	"net/http"
	"strings"
	"time"

	"pathways-server/internal/service"
	"pathways-server/pkg/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

// GameHandler обрабатывает HTTP запросы игры.
type GameHandler struct {
	service  service.GameService
	verifier middleware.TokenVerifier
	logger   *zap.Logger
}

// NewGameHandler creates the handler.
func NewGameHandler(s service.GameService, verifier middleware.TokenVerifier, logger *zap.Logger) *GameHandler {
	registerValidators()
	return &GameHandler{service: s, verifier: verifier, logger: logger.Named("GameHandler")}
}

// RegisterRoutes регистрирует маршруты /api/v1.
func (h *GameHandler) RegisterRoutes(router gin.IRouter) {
	api := router.Group("/api/v1", middleware.Auth(h.verifier, h.logger))
	{
		api.POST("/profile", h.ensureProfile)
		api.GET("/characters", h.listCharacters)
		api.GET("/saves", h.listSaves)
		api.POST("/saves", h.startGame)
		api.GET("/saves/:id", h.getSave)
		api.GET("/saves/:id/node", h.currentNode)
		api.POST("/saves/:id/choices", h.makeChoice)
		api.POST("/saves/:id/talk", h.talk)
		api.DELETE("/saves/:id", h.deleteSave)
	}
}

// RouterConfig - параметры сборки gin.Engine.
type RouterConfig struct {
	CORSOrigins   []string
	EnableMetrics bool
}

// NewRouter builds the engine with logging, CORS, health, metrics and the API.
func NewRouter(h *GameHandler, cfg RouterConfig, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ZapLogger(logger))
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	if cfg.EnableMetrics {
		// До регистрации маршрутов: gin оборачивает middleware только те
		// маршруты, что добавлены после него. Заодно регистрирует /metrics.
		p := ginprometheus.NewPrometheus("gin")
		p.Use(router)
	}

	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	h.RegisterRoutes(router)
	return router
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	allowAll := len(origins) == 0
	for _, o := range origins {
		if strings.TrimSpace(o) == "*" {
			allowAll = true
		}
	}
	if allowAll {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
		c.AllowCredentials = true
	}
	c.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	c.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept-Language", middleware.RequestIDHeader}
	c.ExposeHeaders = []string{middleware.RequestIDHeader}
	c.MaxAge = 12 * time.Hour
	return c
}
