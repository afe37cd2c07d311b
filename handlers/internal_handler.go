package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/upb/compliance-data-agent/middleware"
	"github.com/upb/compliance-data-agent/models"
	"github.com/upb/compliance-data-agent/repositories"
	"github.com/upb/compliance-data-agent/utils"
	"go.uber.org/zap"
)

// RecordLoginEventRequest is posted by the upstream platform when an agent
// user authenticates.
type RecordLoginEventRequest struct {
	UserID  string `json:"user_id" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Role    string `json:"role" validate:"required"`
	Success bool   `json:"success"`
	IP      string `json:"ip,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// RecordComplianceCheckRequest is posted when the platform finishes scoring a
// document.
type RecordComplianceCheckRequest struct {
	DocumentID string          `json:"document_id" validate:"required,uuid"`
	CheckType  string          `json:"check_type" validate:"required"`
	Status     string          `json:"status" validate:"required,oneof=passed failed needs_review"`
	Score      decimal.Decimal `json:"score"`
	Findings   json.RawMessage `json:"findings,omitempty"`
}

// InternalHandler serves the write operations on the service-to-service
// surface: events computed elsewhere that this agent records.
type InternalHandler struct {
	checks   repositories.ComplianceCheckRepository
	recorder AuditRecorder
	logger   *zap.Logger
}

// NewInternalHandler creates a new InternalHandler
func NewInternalHandler(checks repositories.ComplianceCheckRepository, recorder AuditRecorder, logger *zap.Logger) *InternalHandler {
	return &InternalHandler{
		checks:   checks,
		recorder: recorder,
		logger:   logger,
	}
}

// HandleRecordLoginEvent handles POST /internal/v1/login-events. Login events
// are pure audit-trail entries; nothing else is written.
func (h *InternalHandler) HandleRecordLoginEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := middleware.GetTenantIDFromContext(ctx)

	var req RecordLoginEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "bad_request", "Request body must be a JSON object")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		_ = utils.WriteValidationFailure(w, err)
		return
	}

	outcome := models.AuditOutcomeSuccess
	reason := "login_succeeded"
	if !req.Success {
		outcome = models.AuditOutcomeFailure
		reason = req.Reason
		if reason == "" {
			reason = "login_failed"
		}
	}

	event := models.NewAuditEvent(tenantID, "login", "agent_users").
		WithActor(req.Role, req.UserID, req.Email, req.IP).
		WithOutcome(outcome, reason).
		WithRequest(chimiddleware.GetReqID(ctx))
	event.Category = "auth"

	h.recorder.Record(event)

	_ = utils.WriteCreated(w, map[string]any{"recorded": true})
}

// HandleRecordComplianceCheck handles POST /internal/v1/compliance-checks.
// Inserting the check and refreshing the parent document's cached score run
// in one transaction.
func (h *InternalHandler) HandleRecordComplianceCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := middleware.GetTenantIDFromContext(ctx)
	event := models.NewAuditEvent(tenantID, "record_check", "compliance_checks").
		WithRequest(chimiddleware.GetReqID(ctx))
	if actor := middleware.GetActorFromContext(ctx); actor != nil {
		event.WithActor(actor.Role, actor.ID, actor.Email, actor.IP)
	}

	var req RecordComplianceCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.recorder.Record(event.WithOutcome(models.AuditOutcomeFailure, "invalid_json"))
		_ = utils.WriteBadRequest(w, "bad_request", "Request body must be a JSON object")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.recorder.Record(event.WithOutcome(models.AuditOutcomeFailure, "validation_error"))
		_ = utils.WriteValidationFailure(w, err)
		return
	}

	documentID, err := uuid.Parse(req.DocumentID)
	if err != nil {
		h.recorder.Record(event.WithOutcome(models.AuditOutcomeFailure, "invalid_id"))
		_ = utils.WriteBadRequest(w, "bad_request", "Invalid document_id format")
		return
	}

	check := models.NewComplianceCheck(tenantID, documentID, req.CheckType, req.Status, req.Score)
	check.Findings = req.Findings

	if err := h.checks.RecordResult(ctx, check); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			h.recorder.Record(event.WithTarget(documentID).WithOutcome(models.AuditOutcomeNotFound, "document_not_found"))
			_ = utils.WriteNotFound(w, "Document not found")
			return
		}
		h.logger.Error("failed to record compliance check",
			zap.String("request_id", event.RequestID),
			zap.Error(err))
		h.recorder.Record(event.WithTarget(documentID).WithOutcome(models.AuditOutcomeFailure, "store_error"))
		_ = utils.WriteInternalServerError(w, "")
		return
	}

	h.recorder.Record(event.WithTarget(check.ID).WithOutcome(models.AuditOutcomeSuccess, "check_recorded"))
	_ = utils.WriteCreated(w, check)
}
