package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/upb/compliance-data-agent/models"
	"github.com/upb/compliance-data-agent/utils"
	"go.uber.org/zap"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

// AuditReader exposes the read side of the audit trail.
type AuditReader interface {
	Recent(ctx context.Context, limit int) ([]*models.AuditEvent, error)
}

// AuditHandler serves the audit trail read endpoint. Events carry structured
// metadata only, so this surface never exposes payload values.
type AuditHandler struct {
	reader AuditReader
	logger *zap.Logger
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(reader AuditReader, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		reader: reader,
		logger: logger,
	}
}

// HandleRecent handles GET /audit?limit=N — latest events, newest first.
func (h *AuditHandler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}

	events, err := h.reader.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to read audit events", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "")
		return
	}

	_ = utils.WriteOK(w, map[string]any{
		"events": events,
		"count":  len(events),
	})
}
