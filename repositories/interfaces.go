package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/upb/compliance-data-agent/models"
)

// TransactionManager manages database transactions.
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction.
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// ResourceRepository implements the versioned, tenant-scoped CRUD pattern for
// any resource described by a models.ResourceSpec.
type ResourceRepository interface {
	// Create inserts a row with version = 1. Only fields present in the
	// spec's payload field set are written. A natural-key violation is
	// reported as ErrDuplicate.
	Create(ctx context.Context, spec models.ResourceSpec, tenantID string, fields map[string]any) (models.Record, error)

	// List counts and fetches one page of rows matching the query. Filters
	// and sort columns have already been resolved against the spec's
	// allow-lists by the caller.
	List(ctx context.Context, spec models.ResourceSpec, q models.ListQuery) (*models.Page, error)

	// Get fetches a single not-deleted row scoped by id AND tenant.
	// Returns ErrNotFound for both absence and tenant mismatch.
	Get(ctx context.Context, spec models.ResourceSpec, tenantID string, id uuid.UUID) (models.Record, error)

	// Update performs the atomic compare-and-increment write. Zero affected
	// rows is reported as ErrConflict without a second query.
	Update(ctx context.Context, spec models.ResourceSpec, tenantID string, id uuid.UUID, expectedVersion int, fields map[string]any) (models.Record, error)

	// Delete soft- or hard-deletes per the spec's DeleteMode. Zero affected
	// rows is ErrNotFound.
	Delete(ctx context.Context, spec models.ResourceSpec, tenantID string, id uuid.UUID) error
}

// AuditRepository handles the append-only audit trail.
type AuditRepository interface {
	// Insert appends one audit event. Never called with an event the caller
	// expects to read back synchronously.
	Insert(ctx context.Context, event *models.AuditEvent) error

	// Recent returns up to limit events, newest first.
	Recent(ctx context.Context, limit int) ([]*models.AuditEvent, error)
}

// ComplianceCheckRepository records check results computed upstream.
type ComplianceCheckRepository interface {
	// RecordResult inserts the check and refreshes the parent document's
	// cached compliance score in one transaction. Returns ErrNotFound when
	// the document does not exist under the tenant.
	RecordResult(ctx context.Context, check *models.ComplianceCheck) error
}

// Repositories aggregates all repository interfaces.
type Repositories struct {
	Resources        ResourceRepository
	AuditEvents      AuditRepository
	ComplianceChecks ComplianceCheckRepository
}
