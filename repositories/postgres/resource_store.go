package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/upb/compliance-data-agent/models"
	"github.com/upb/compliance-data-agent/repositories"
	"go.uber.org/zap"
)

// ResourceStore implements repositories.ResourceRepository once for all
// resource types. Table and column identifiers come exclusively from the
// compile-time ResourceSpec; client input only ever binds as a parameter.
type ResourceStore struct {
	db     *DB
	logger *zap.Logger
}

// NewResourceStore creates the shared resource repository.
func NewResourceStore(db *DB, logger *zap.Logger) repositories.ResourceRepository {
	return &ResourceStore{
		db:     db,
		logger: logger,
	}
}

// selectColumns builds the full column list for a spec.
func selectColumns(spec models.ResourceSpec) string {
	cols := make([]string, 0, 5+len(spec.Fields))
	cols = append(cols, "id", "tenant_id", "version", "created_at", "updated_at")
	for _, f := range spec.Fields {
		cols = append(cols, f.Column)
	}
	return strings.Join(cols, ", ")
}

// Create inserts a row with version = 1.
func (s *ResourceStore) Create(ctx context.Context, spec models.ResourceSpec, tenantID string, fields map[string]any) (models.Record, error) {
	id := uuid.New()
	now := time.Now().UTC()

	columns := []string{"id", "tenant_id", "version", "created_at", "updated_at"}
	args := []any{id, tenantID, 1, now, now}

	record := models.Record{
		"id":         id.String(),
		"tenant_id":  tenantID,
		"version":    1,
		"created_at": now,
		"updated_at": now,
	}

	for _, f := range spec.Fields {
		if f.ReadOnly {
			continue
		}
		value, ok := fields[f.Name]
		if !ok {
			continue
		}
		columns = append(columns, f.Column)
		args = append(args, bindValue(value))
		record[f.Name] = value
	}

	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		spec.Table,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)

	executor := GetExecutor(ctx, s.db)
	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return nil, repositories.ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create %s: %w", spec.Name, err)
	}

	s.logger.Debug("record created",
		zap.String("resource", spec.Name),
		zap.String("id", id.String()),
		zap.String("tenant_id", tenantID))

	return record, nil
}

// List counts and fetches one page of matching rows.
func (s *ResourceStore) List(ctx context.Context, spec models.ResourceSpec, q models.ListQuery) (*models.Page, error) {
	where := []string{"tenant_id = $1", "deleted_at IS NULL"}
	args := []any{q.TenantID}

	for _, name := range spec.Filterable {
		value, ok := q.Filters[name]
		if !ok {
			continue
		}
		col, ok := spec.Column(name)
		if !ok {
			continue
		}
		args = append(args, value)
		where = append(where, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if q.Search != "" && len(spec.Searchable) > 0 {
		args = append(args, "%"+q.Search+"%")
		idx := len(args)
		ors := make([]string, 0, len(spec.Searchable))
		for _, name := range spec.Searchable {
			if col, ok := spec.Column(name); ok {
				ors = append(ors, fmt.Sprintf("%s ILIKE $%d", col, idx))
			}
		}
		where = append(where, "("+strings.Join(ors, " OR ")+")")
	}

	whereClause := strings.Join(where, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", spec.Table, whereClause)

	executor := GetExecutor(ctx, s.db)
	var total int
	if err := executor.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count %s: %w", spec.Name, err)
	}

	args = append(args, q.PageSize, q.Offset())
	pageQuery := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s ORDER BY %s %s LIMIT $%d OFFSET $%d",
		selectColumns(spec),
		spec.Table,
		whereClause,
		spec.SortColumn(q.SortBy),
		models.SortDirection(q.SortOrder),
		len(args)-1,
		len(args),
	)

	rows, err := executor.QueryContext(ctx, pageQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", spec.Name, err)
	}
	defer rows.Close()

	items := make([]models.Record, 0, q.PageSize)
	for rows.Next() {
		record, err := scanRecord(spec, rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", spec.Name, err)
		}
		items = append(items, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", spec.Name, err)
	}

	return &models.Page{
		Items:      items,
		Page:       q.Page,
		PageSize:   q.PageSize,
		Total:      total,
		TotalPages: models.TotalPages(total, q.PageSize),
	}, nil
}

// Get fetches a single not-deleted row scoped by id AND tenant.
func (s *ResourceStore) Get(ctx context.Context, spec models.ResourceSpec, tenantID string, id uuid.UUID) (models.Record, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL",
		selectColumns(spec),
		spec.Table,
	)

	executor := GetExecutor(ctx, s.db)
	row := executor.QueryRowContext(ctx, query, id, tenantID)

	record, err := scanRecord(spec, row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s: %w", spec.Name, err)
	}

	return record, nil
}

// Update performs the atomic compare-and-increment write. The WHERE clause is
// the sole concurrency control: a stale version, wrong id, wrong tenant, or
// soft-deleted row all surface as ErrConflict.
func (s *ResourceStore) Update(ctx context.Context, spec models.ResourceSpec, tenantID string, id uuid.UUID, expectedVersion int, fields map[string]any) (models.Record, error) {
	set := []string{"version = version + 1", "updated_at = $1"}
	args := []any{time.Now().UTC()}

	for _, f := range spec.Fields {
		value, ok := fields[f.Name]
		if !ok {
			continue
		}
		args = append(args, bindValue(value))
		set = append(set, fmt.Sprintf("%s = $%d", f.Column, len(args)))
	}

	args = append(args, id, tenantID, expectedVersion)
	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE id = $%d AND tenant_id = $%d AND version = $%d AND deleted_at IS NULL RETURNING %s",
		spec.Table,
		strings.Join(set, ", "),
		len(args)-2,
		len(args)-1,
		len(args),
		selectColumns(spec),
	)

	executor := GetExecutor(ctx, s.db)
	row := executor.QueryRowContext(ctx, query, args...)

	record, err := scanRecord(spec, row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrConflict
		}
		if isUniqueViolation(err) {
			return nil, repositories.ErrDuplicate
		}
		return nil, fmt.Errorf("failed to update %s: %w", spec.Name, err)
	}

	s.logger.Debug("record updated",
		zap.String("resource", spec.Name),
		zap.String("id", id.String()),
		zap.Int("expected_version", expectedVersion))

	return record, nil
}

// Delete soft- or hard-deletes per the spec's DeleteMode.
func (s *ResourceStore) Delete(ctx context.Context, spec models.ResourceSpec, tenantID string, id uuid.UUID) error {
	var query string
	var args []any

	if spec.DeleteMode == models.DeleteModeSoft {
		now := time.Now().UTC()
		set := "deleted_at = $1, updated_at = $1"
		args = []any{now}
		if spec.DeletedStatus != "" {
			if col, ok := spec.Column("status"); ok {
				args = append(args, spec.DeletedStatus)
				set += fmt.Sprintf(", %s = $%d", col, len(args))
			}
		}
		args = append(args, id, tenantID)
		query = fmt.Sprintf(
			"UPDATE %s SET %s WHERE id = $%d AND tenant_id = $%d AND deleted_at IS NULL",
			spec.Table, set, len(args)-1, len(args),
		)
	} else {
		query = fmt.Sprintf("DELETE FROM %s WHERE id = $1 AND tenant_id = $2", spec.Table)
		args = []any{id, tenantID}
	}

	executor := GetExecutor(ctx, s.db)
	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", spec.Name, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repositories.ErrNotFound
	}

	s.logger.Debug("record deleted",
		zap.String("resource", spec.Name),
		zap.String("id", id.String()),
		zap.String("mode", string(spec.DeleteMode)))

	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRecord scans one row into a generic Record. Payload values come back as
// driver types; []byte is normalized to string so records serialize cleanly.
func scanRecord(spec models.ResourceSpec, row rowScanner) (models.Record, error) {
	var (
		id        string
		tenantID  string
		version   int
		createdAt time.Time
		updatedAt time.Time
	)

	payload := make([]any, len(spec.Fields))
	dest := make([]any, 0, 5+len(spec.Fields))
	dest = append(dest, &id, &tenantID, &version, &createdAt, &updatedAt)
	for i := range payload {
		dest = append(dest, &payload[i])
	}

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	record := models.Record{
		"id":         id,
		"tenant_id":  tenantID,
		"version":    version,
		"created_at": createdAt,
		"updated_at": updatedAt,
	}
	for i, f := range spec.Fields {
		switch v := payload[i].(type) {
		case []byte:
			record[f.Name] = string(v)
		default:
			record[f.Name] = v
		}
	}

	return record, nil
}

// bindValue converts decoded JSON values into driver-friendly bind arguments.
// Nested objects and arrays bind as their JSON text for JSONB columns.
func bindValue(v any) any {
	switch typed := v.(type) {
	case map[string]any, []any:
		data, err := json.Marshal(typed)
		if err != nil {
			return nil
		}
		return data
	default:
		return v
	}
}

// isUniqueViolation reports whether err is a Postgres unique_violation.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
