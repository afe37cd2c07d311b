package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/upb/compliance-data-agent/services/audit"
	"github.com/upb/compliance-data-agent/utils"
	"go.uber.org/zap"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status        string            `json:"status"`
	Timestamp     string            `json:"timestamp"`
	SchemaVersion string            `json:"schema_version"`
	PolicyVersion string            `json:"policy_version"`
	Checks        map[string]string `json:"checks,omitempty"`
	Audit         *audit.Stats      `json:"audit,omitempty"`
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	db            *sql.DB
	recorder      *audit.Recorder
	schemaVersion string
	policyVersion string
	logger        *zap.Logger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db *sql.DB, recorder *audit.Recorder, schemaVersion, policyVersion string, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:            db,
		recorder:      recorder,
		schemaVersion: schemaVersion,
		policyVersion: policyVersion,
		logger:        logger,
	}
}

// HandleHealth handles GET /health
// Liveness plus store reachability, with the version labels every audit row
// carries.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	if err := h.checkDatabase(ctx); err != nil {
		h.logger.Warn("database health check failed", zap.Error(err))
		checks["database"] = "unhealthy"
		allHealthy = false
	} else {
		checks["database"] = "healthy"
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !allHealthy {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:        status,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		SchemaVersion: h.schemaVersion,
		PolicyVersion: h.policyVersion,
		Checks:        checks,
	}
	if h.recorder != nil {
		stats := h.recorder.GetStats()
		response.Audit = &stats
	}

	if err := utils.WriteJSON(w, httpStatus, utils.Envelope{OK: allHealthy, Data: response}); err != nil {
		h.logger.Error("failed to write health response", zap.Error(err))
	}
}

// checkDatabase checks database connectivity
func (h *HealthHandler) checkDatabase(ctx context.Context) error {
	if h.db == nil {
		return nil // No database configured
	}

	if err := h.db.PingContext(ctx); err != nil {
		return err
	}

	var result int
	if err := h.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return err
	}

	return nil
}
