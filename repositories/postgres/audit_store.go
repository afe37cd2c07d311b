package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/upb/compliance-data-agent/models"
	"github.com/upb/compliance-data-agent/repositories"
	"go.uber.org/zap"
)

// AuditStore implements the repositories.AuditRepository interface over the
// append-only audit_events table. The application never updates or deletes
// rows here.
type AuditStore struct {
	db     *DB
	logger *zap.Logger
}

// NewAuditStore creates a new audit repository.
func NewAuditStore(db *DB, logger *zap.Logger) repositories.AuditRepository {
	return &AuditStore{
		db:     db,
		logger: logger,
	}
}

const auditColumns = `id, event_time, tenant_id, actor_role, actor_id, actor_email, actor_ip,
	       action, resource, target_id, decision, outcome, result, reason,
	       event_category, changes, request_id, schema_version, policy_version, metadata`

// Insert appends one audit event.
func (s *AuditStore) Insert(ctx context.Context, event *models.AuditEvent) error {
	query := `
		INSERT INTO audit_events (
			id, event_time, tenant_id, actor_role, actor_id, actor_email, actor_ip,
			action, resource, target_id, decision, outcome, result, reason,
			event_category, changes, request_id, schema_version, policy_version, metadata
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20
		)
	`

	changes, err := json.Marshal(event.Changes)
	if err != nil {
		return fmt.Errorf("failed to encode audit changes: %w", err)
	}
	if event.Changes == nil {
		changes = nil
	}

	executor := GetExecutor(ctx, s.db)
	_, err = executor.ExecContext(ctx, query,
		event.ID,
		event.EventTime,
		event.TenantID,
		event.ActorRole,
		event.ActorID,
		event.ActorEmail,
		event.ActorIP,
		event.Action,
		event.Resource,
		event.TargetID,
		event.Decision,
		event.Outcome,
		event.Result,
		event.Reason,
		event.Category,
		changes,
		event.RequestID,
		event.SchemaVersion,
		event.PolicyVersion,
		[]byte(event.Metadata),
	)

	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}

	s.logger.Debug("audit event inserted",
		zap.String("id", event.ID.String()),
		zap.String("action", event.Action),
		zap.String("resource", event.Resource))
	return nil
}

// Recent returns up to limit events, newest first.
func (s *AuditStore) Recent(ctx context.Context, limit int) ([]*models.AuditEvent, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM audit_events
		ORDER BY event_time DESC
		LIMIT $1
	`, auditColumns)

	executor := GetExecutor(ctx, s.db)
	rows, err := executor.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()

	var events []*models.AuditEvent
	for rows.Next() {
		event := &models.AuditEvent{}
		var changes []byte
		var metadata []byte
		err := rows.Scan(
			&event.ID,
			&event.EventTime,
			&event.TenantID,
			&event.ActorRole,
			&event.ActorID,
			&event.ActorEmail,
			&event.ActorIP,
			&event.Action,
			&event.Resource,
			&event.TargetID,
			&event.Decision,
			&event.Outcome,
			&event.Result,
			&event.Reason,
			&event.Category,
			&changes,
			&event.RequestID,
			&event.SchemaVersion,
			&event.PolicyVersion,
			&metadata,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		if len(changes) > 0 {
			if err := json.Unmarshal(changes, &event.Changes); err != nil {
				return nil, fmt.Errorf("failed to decode audit changes: %w", err)
			}
		}
		event.Metadata = metadata
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit event rows: %w", err)
	}

	return events, nil
}
