package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditOutcome is the caller-supplied outcome of one operation attempt.
type AuditOutcome string

const (
	AuditOutcomeSuccess   AuditOutcome = "success"
	AuditOutcomeFailure   AuditOutcome = "failure"
	AuditOutcomeConflict  AuditOutcome = "conflict"
	AuditOutcomeForbidden AuditOutcome = "forbidden"
	AuditOutcomeNotFound  AuditOutcome = "not_found"
)

// AuditResult is the normalized result enum persisted for long-term storage.
// The richer outcome is kept alongside it for operational querying.
type AuditResult string

const (
	AuditResultSuccess AuditResult = "success"
	AuditResultFailure AuditResult = "failure"
	AuditResultPartial AuditResult = "partial"
)

// Policy decision labels recorded on audit events.
const (
	DecisionAllow = "allow"
	DecisionDeny  = "deny"
	DecisionNA    = "n/a"
)

// AuditEvent is one immutable row of the audit trail. It carries structured
// metadata only: ids, short reason codes, and changed field names — never
// field values.
type AuditEvent struct {
	ID            uuid.UUID       `json:"id"`
	EventTime     time.Time       `json:"event_time"`
	TenantID      string          `json:"tenant_id"`
	ActorRole     string          `json:"actor_role"`
	ActorID       string          `json:"actor_id,omitempty"`
	ActorEmail    string          `json:"actor_email,omitempty"`
	ActorIP       string          `json:"actor_ip,omitempty"`
	Action        string          `json:"action"`
	Resource      string          `json:"resource"`
	TargetID      *uuid.UUID      `json:"target_id,omitempty"`
	Decision      string          `json:"decision"`
	Outcome       AuditOutcome    `json:"outcome"`
	Result        AuditResult     `json:"result"`
	Reason        string          `json:"reason,omitempty"`
	Category      string          `json:"event_category"`
	Changes       []string        `json:"changes,omitempty"`
	RequestID     string          `json:"request_id,omitempty"`
	SchemaVersion string          `json:"schema_version"`
	PolicyVersion string          `json:"policy_version"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
}

// TableName returns the table name for the AuditEvent model.
func (AuditEvent) TableName() string {
	return "audit_events"
}

// NewAuditEvent creates an audit event for one operation attempt.
func NewAuditEvent(tenantID, action, resource string) *AuditEvent {
	return &AuditEvent{
		ID:        uuid.New(),
		EventTime: time.Now().UTC(),
		TenantID:  tenantID,
		Action:    action,
		Resource:  resource,
		Decision:  DecisionNA,
		Outcome:   AuditOutcomeSuccess,
	}
}

// WithActor sets actor attribution.
func (e *AuditEvent) WithActor(role, id, email, ip string) *AuditEvent {
	e.ActorRole = role
	e.ActorID = id
	e.ActorEmail = email
	e.ActorIP = ip
	return e
}

// WithTarget sets the affected row id.
func (e *AuditEvent) WithTarget(id uuid.UUID) *AuditEvent {
	e.TargetID = &id
	return e
}

// WithDecision sets the policy decision label.
func (e *AuditEvent) WithDecision(decision string) *AuditEvent {
	e.Decision = decision
	return e
}

// WithOutcome sets the outcome and a short machine reason code.
func (e *AuditEvent) WithOutcome(outcome AuditOutcome, reason string) *AuditEvent {
	e.Outcome = outcome
	e.Reason = reason
	return e
}

// WithChanges records the names of the fields an update modified.
func (e *AuditEvent) WithChanges(fields []string) *AuditEvent {
	e.Changes = fields
	return e
}

// WithRequest sets the correlating request id.
func (e *AuditEvent) WithRequest(requestID string) *AuditEvent {
	e.RequestID = requestID
	return e
}

// WithMetadata attaches structured metadata. Callers must not pass raw
// payload values through here.
func (e *AuditEvent) WithMetadata(v any) *AuditEvent {
	if data, err := json.Marshal(v); err == nil {
		e.Metadata = data
	}
	return e
}

// NormalizeResult maps the free-form outcome onto the persisted result enum:
// success stays success, failure stays failure, and the rejected-before-effect
// outcomes (conflict, forbidden, not_found) collapse to partial.
func NormalizeResult(outcome AuditOutcome) AuditResult {
	switch outcome {
	case AuditOutcomeSuccess:
		return AuditResultSuccess
	case AuditOutcomeFailure:
		return AuditResultFailure
	default:
		return AuditResultPartial
	}
}
