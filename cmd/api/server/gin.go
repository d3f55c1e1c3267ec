package server

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	ginhandler "user-wire-service/internal/adapter/gin/handler"
	ginrouter "user-wire-service/internal/adapter/gin/router"
)

// SetupAdminServer creates the HTTP server for /health and /stats
func SetupAdminServer(handler *ginhandler.AdminHandler, addr string, l *zap.Logger) *http.Server {
	router := ginrouter.SetupRouter(handler, l)

	l.Info("admin server configured", zap.String("address", addr))

	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
