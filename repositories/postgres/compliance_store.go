package postgres

import (
	"context"
	"fmt"

	"github.com/upb/compliance-data-agent/models"
	"github.com/upb/compliance-data-agent/repositories"
	"go.uber.org/zap"
)

// ComplianceCheckStore implements repositories.ComplianceCheckRepository.
// Recording a check touches two tables — the check row and the parent
// document's cached score — so the write runs inside a transaction.
type ComplianceCheckStore struct {
	db        *DB
	txManager repositories.TransactionManager
	logger    *zap.Logger
}

// NewComplianceCheckStore creates a new compliance check repository.
func NewComplianceCheckStore(db *DB, txManager repositories.TransactionManager, logger *zap.Logger) repositories.ComplianceCheckRepository {
	return &ComplianceCheckStore{
		db:        db,
		txManager: txManager,
		logger:    logger,
	}
}

// RecordResult inserts the check and refreshes the parent document's cached
// compliance score atomically. Rolls back both writes on any failure.
func (s *ComplianceCheckStore) RecordResult(ctx context.Context, check *models.ComplianceCheck) error {
	return s.txManager.InTransaction(ctx, func(txCtx context.Context, _ repositories.Transaction) error {
		executor := GetExecutor(txCtx, s.db)

		insertQuery := `
			INSERT INTO compliance_checks (
				id, tenant_id, version, document_id, check_type, status,
				score, findings, checked_at, created_at, updated_at
			) VALUES ($1, $2, 1, $3, $4, $5, $6, $7, $8, $9, $9)
		`
		_, err := executor.ExecContext(txCtx, insertQuery,
			check.ID,
			check.TenantID,
			check.DocumentID,
			check.CheckType,
			check.Status,
			check.Score,
			[]byte(check.Findings),
			check.CheckedAt,
			check.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert compliance check: %w", err)
		}

		updateQuery := `
			UPDATE documents
			SET compliance_score = $1, updated_at = $2
			WHERE id = $3 AND tenant_id = $4 AND deleted_at IS NULL
		`
		result, err := executor.ExecContext(txCtx, updateQuery,
			check.Score,
			check.CheckedAt,
			check.DocumentID,
			check.TenantID,
		)
		if err != nil {
			return fmt.Errorf("failed to update document score: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return repositories.ErrNotFound
		}

		s.logger.Debug("compliance check recorded",
			zap.String("id", check.ID.String()),
			zap.String("document_id", check.DocumentID.String()),
			zap.String("check_type", check.CheckType))

		return nil
	})
}
