package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/compliance-data-agent/models"
	"go.uber.org/zap"
)

func newTestAuditStore(t *testing.T) (*AuditStore, sqlmock.Sqlmock, func()) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db := &DB{DB: mockDB, logger: zap.NewNop()}
	store := &AuditStore{db: db, logger: zap.NewNop()}

	return store, mock, func() { mockDB.Close() }
}

func TestAuditStore_Insert(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts full event", func(t *testing.T) {
		store, mock, cleanup := newTestAuditStore(t)
		defer cleanup()

		targetID := uuid.New()
		event := models.NewAuditEvent("tenant-a", "update", "employees").
			WithActor("admin", "actor-1", "admin@example.com", "10.0.0.1").
			WithTarget(targetID).
			WithOutcome(models.AuditOutcomeSuccess, "updated").
			WithChanges([]string{"first_name", "status"}).
			WithRequest("req-123")
		event.Result = models.AuditResultSuccess
		event.Category = "data"
		event.SchemaVersion = "v1"
		event.PolicyVersion = "v1"

		mock.ExpectExec("INSERT INTO audit_events").
			WithArgs(
				event.ID, event.EventTime, "tenant-a", "admin", "actor-1",
				"admin@example.com", "10.0.0.1", "update", "employees", &targetID,
				"n/a", models.AuditOutcomeSuccess, models.AuditResultSuccess,
				"updated", "data", []byte(`["first_name","status"]`), "req-123",
				"v1", "v1", []byte(nil),
			).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := store.Insert(ctx, event)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nil changes bind as null", func(t *testing.T) {
		store, mock, cleanup := newTestAuditStore(t)
		defer cleanup()

		event := models.NewAuditEvent("tenant-a", "list", "documents")
		event.Result = models.AuditResultSuccess
		event.Category = "data"

		mock.ExpectExec("INSERT INTO audit_events").
			WithArgs(
				event.ID, event.EventTime, "tenant-a", "", "", "", "",
				"list", "documents", nil, "n/a", models.AuditOutcomeSuccess,
				models.AuditResultSuccess, "", "data", []byte(nil), "", "", "", []byte(nil),
			).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := store.Insert(ctx, event)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAuditStore_Recent(t *testing.T) {
	ctx := context.Background()

	t.Run("returns events newest first", func(t *testing.T) {
		store, mock, cleanup := newTestAuditStore(t)
		defer cleanup()

		now := time.Now().UTC()
		id1 := uuid.New()
		id2 := uuid.New()

		rows := sqlmock.NewRows([]string{
			"id", "event_time", "tenant_id", "actor_role", "actor_id", "actor_email", "actor_ip",
			"action", "resource", "target_id", "decision", "outcome", "result", "reason",
			"event_category", "changes", "request_id", "schema_version", "policy_version", "metadata",
		}).
			AddRow(id1, now, "tenant-a", "admin", "", "", "", "delete", "employees", nil,
				"deny", "forbidden", "partial", "denied_by_policy", "data", nil, "req-1", "v1", "v1", nil).
			AddRow(id2, now.Add(-time.Minute), "tenant-a", "admin", "", "", "", "update", "employees", nil,
				"n/a", "success", "success", "updated", "data", []byte(`["status"]`), "req-2", "v1", "v1", nil)

		mock.ExpectQuery(regexp.QuoteMeta("ORDER BY event_time DESC")).
			WithArgs(50).
			WillReturnRows(rows)

		events, err := store.Recent(ctx, 50)
		require.NoError(t, err)
		require.Len(t, events, 2)

		assert.Equal(t, id1, events[0].ID)
		assert.Equal(t, "deny", events[0].Decision)
		assert.Equal(t, models.AuditOutcomeForbidden, events[0].Outcome)
		assert.Equal(t, []string{"status"}, events[1].Changes)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query failure propagates", func(t *testing.T) {
		store, mock, cleanup := newTestAuditStore(t)
		defer cleanup()

		mock.ExpectQuery("SELECT").WillReturnError(assert.AnError)

		_, err := store.Recent(ctx, 10)
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
