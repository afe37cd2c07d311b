package audit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/compliance-data-agent/models"
	"go.uber.org/zap"
)

// memoryAuditRepo collects inserted events and can be told to fail.
type memoryAuditRepo struct {
	mu        sync.Mutex
	events    []*models.AuditEvent
	insertErr error
}

func (r *memoryAuditRepo) Insert(ctx context.Context, event *models.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	r.events = append(r.events, event)
	return nil
}

func (r *memoryAuditRepo) Recent(ctx context.Context, limit int) ([]*models.AuditEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit > len(r.events) {
		limit = len(r.events)
	}
	out := make([]*models.AuditEvent, limit)
	copy(out, r.events)
	return out, nil
}

func (r *memoryAuditRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// blockingAuditRepo holds every Insert until release is closed.
type blockingAuditRepo struct {
	release chan struct{}
}

func (r *blockingAuditRepo) Insert(ctx context.Context, event *models.AuditEvent) error {
	select {
	case <-r.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *blockingAuditRepo) Recent(ctx context.Context, limit int) ([]*models.AuditEvent, error) {
	return nil, nil
}

func testConfig() Config {
	return Config{
		BufferSize:    64,
		WorkerCount:   2,
		SchemaVersion: "v1",
		PolicyVersion: "v1",
	}
}

func TestRecorder_StartStop(t *testing.T) {
	t.Run("start twice fails", func(t *testing.T) {
		recorder := NewRecorder(&memoryAuditRepo{}, zap.NewNop(), testConfig())
		require.NoError(t, recorder.Start())
		assert.Error(t, recorder.Start())
		require.NoError(t, recorder.Stop(time.Second))
	})

	t.Run("stop before start fails", func(t *testing.T) {
		recorder := NewRecorder(&memoryAuditRepo{}, zap.NewNop(), testConfig())
		assert.Error(t, recorder.Stop(time.Second))
	})

	t.Run("stop drains pending events", func(t *testing.T) {
		repo := &memoryAuditRepo{}
		recorder := NewRecorder(repo, zap.NewNop(), testConfig())
		require.NoError(t, recorder.Start())

		for i := 0; i < 20; i++ {
			recorder.Record(models.NewAuditEvent("tenant-a", "list", "employees"))
		}

		require.NoError(t, recorder.Stop(2*time.Second))
		assert.Equal(t, 20, repo.count())
	})
}

func TestRecorder_Record(t *testing.T) {
	t.Run("drops events when not started", func(t *testing.T) {
		repo := &memoryAuditRepo{}
		recorder := NewRecorder(repo, zap.NewNop(), testConfig())

		recorder.Record(models.NewAuditEvent("tenant-a", "get", "documents"))

		assert.Equal(t, 0, repo.count())
		assert.Equal(t, 0, recorder.GetStats().PendingEvents)
	})

	t.Run("insert failures are swallowed", func(t *testing.T) {
		repo := &memoryAuditRepo{insertErr: assert.AnError}
		recorder := NewRecorder(repo, zap.NewNop(), testConfig())
		require.NoError(t, recorder.Start())

		recorder.Record(models.NewAuditEvent("tenant-a", "update", "employees"))

		require.NoError(t, recorder.Stop(time.Second))
		assert.Equal(t, 0, repo.count())
	})

	t.Run("full buffer drops instead of blocking", func(t *testing.T) {
		repo := &blockingAuditRepo{release: make(chan struct{})}
		recorder := NewRecorder(repo, zap.NewNop(), Config{BufferSize: 1, WorkerCount: 1})
		require.NoError(t, recorder.Start())

		done := make(chan struct{})
		go func() {
			for i := 0; i < 10; i++ {
				recorder.Record(models.NewAuditEvent("tenant-a", "list", "employees"))
			}
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Record blocked on a full buffer")
		}

		close(repo.release)
		require.NoError(t, recorder.Stop(time.Second))
	})
}

func TestRecorder_Normalize(t *testing.T) {
	recorder := NewRecorder(&memoryAuditRepo{}, zap.NewNop(), testConfig())

	tests := []struct {
		name     string
		outcome  models.AuditOutcome
		expected models.AuditResult
	}{
		{"success stays success", models.AuditOutcomeSuccess, models.AuditResultSuccess},
		{"failure stays failure", models.AuditOutcomeFailure, models.AuditResultFailure},
		{"conflict collapses to partial", models.AuditOutcomeConflict, models.AuditResultPartial},
		{"forbidden collapses to partial", models.AuditOutcomeForbidden, models.AuditResultPartial},
		{"not_found collapses to partial", models.AuditOutcomeNotFound, models.AuditResultPartial},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := models.NewAuditEvent("tenant-a", "update", "employees")
			event.Outcome = tt.outcome
			recorder.normalize(event)
			assert.Equal(t, tt.expected, event.Result)
		})
	}

	t.Run("defaults and version stamps", func(t *testing.T) {
		event := models.NewAuditEvent("tenant-a", "create", "employees")
		event.Decision = ""
		recorder.normalize(event)

		assert.Equal(t, "data", event.Category)
		assert.Equal(t, models.DecisionNA, event.Decision)
		assert.Equal(t, "v1", event.SchemaVersion)
		assert.Equal(t, "v1", event.PolicyVersion)
	})

	t.Run("explicit category survives", func(t *testing.T) {
		event := models.NewAuditEvent("tenant-a", "login", "agent_users")
		event.Category = "auth"
		recorder.normalize(event)
		assert.Equal(t, "auth", event.Category)
	})
}

func TestRecorder_GetStats(t *testing.T) {
	recorder := NewRecorder(&memoryAuditRepo{}, zap.NewNop(), testConfig())

	stats := recorder.GetStats()
	assert.Equal(t, 64, stats.BufferSize)
	assert.Equal(t, 2, stats.WorkerCount)
	assert.False(t, stats.Started)

	require.NoError(t, recorder.Start())
	assert.True(t, recorder.GetStats().Started)
	require.NoError(t, recorder.Stop(time.Second))
	assert.False(t, recorder.GetStats().Started)
}
