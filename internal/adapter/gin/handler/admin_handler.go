package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-wire-service/internal/adapter/stats"
)

const healthTimeout = 2 * time.Second

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Snapshotter returns the outcome counters.
type Snapshotter interface {
	Snapshot(ctx context.Context) (map[string]int64, error)
}

// AdminHandler serves the operational endpoints next to the wire listener.
type AdminHandler struct {
	db      Pinger
	stats   Snapshotter
	service string
	log     *zap.Logger
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Database string `json:"database"`
	Error    string `json:"error,omitempty"`
}

// StatsResponse is the body of GET /stats.
type StatsResponse struct {
	Outcomes map[string]int64 `json:"outcomes"`
	ByStatus map[string]int64 `json:"by_status"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// NewAdminHandler creates a new AdminHandler instance
func NewAdminHandler(db Pinger, snapshots Snapshotter, service string, log *zap.Logger) *AdminHandler {
	if snapshots == nil {
		snapshots = stats.NopRecorder{}
	}
	return &AdminHandler{
		db:      db,
		stats:   snapshots,
		service: service,
		log:     log,
	}
}

// Health handles GET /health
func (h *AdminHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.log.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, HealthResponse{
			Status:   "unhealthy",
			Service:  h.service,
			Database: "unreachable",
			Error:    err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:   "healthy",
		Service:  h.service,
		Database: "reachable",
	})
}

// Stats handles GET /stats
func (h *AdminHandler) Stats(c *gin.Context) {
	snapshot, err := h.stats.Snapshot(c.Request.Context())
	if err != nil {
		h.log.Error("failed to read outcome counters", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "stats_unavailable",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, StatsResponse{
		Outcomes: snapshot,
		ByStatus: stats.Totals(snapshot),
	})
}
