package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ComplianceCheck is one check result computed by the upstream platform and
// recorded through the internal service boundary. Storing a check also
// refreshes the parent document's cached compliance score, so both writes run
// in one transaction.
type ComplianceCheck struct {
	ID         uuid.UUID       `json:"id"`
	TenantID   string          `json:"tenant_id"`
	DocumentID uuid.UUID       `json:"document_id"`
	CheckType  string          `json:"check_type"`
	Status     string          `json:"status"`
	Score      decimal.Decimal `json:"score"`
	Findings   json.RawMessage `json:"findings,omitempty"`
	CheckedAt  time.Time       `json:"checked_at"`
	CreatedAt  time.Time       `json:"created_at"`
}

// NewComplianceCheck creates a check result row.
func NewComplianceCheck(tenantID string, documentID uuid.UUID, checkType, status string, score decimal.Decimal) *ComplianceCheck {
	now := time.Now().UTC()
	return &ComplianceCheck{
		ID:         uuid.New(),
		TenantID:   tenantID,
		DocumentID: documentID,
		CheckType:  checkType,
		Status:     status,
		Score:      score,
		CheckedAt:  now,
		CreatedAt:  now,
	}
}
