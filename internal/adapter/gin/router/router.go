package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-wire-service/internal/adapter/gin/handler"
	"user-wire-service/internal/adapter/gin/middleware"
)

// SetupRouter configures the admin router with its middleware and routes
func SetupRouter(adminHandler *handler.AdminHandler, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))

	router.GET("/health", adminHandler.Health)
	router.GET("/stats", adminHandler.Stats)

	return router
}
