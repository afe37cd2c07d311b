package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/upb/compliance-data-agent/models"
	"github.com/upb/compliance-data-agent/repositories"
	"go.uber.org/zap"
)

// Recorder persists one AuditEvent per operation attempt without ever
// becoming a point of failure for the primary operation. Events are written
// by a background worker pool; insert failures and full buffers are logged
// locally and swallowed.
type Recorder struct {
	auditRepo     repositories.AuditRepository
	logger        *zap.Logger
	eventChan     chan *models.AuditEvent
	workerCount   int
	bufferSize    int
	schemaVersion string
	policyVersion string
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
	started       bool
	mu            sync.Mutex
}

// Config holds configuration for the Recorder.
type Config struct {
	BufferSize    int    // Size of the event buffer channel
	WorkerCount   int    // Number of concurrent workers
	SchemaVersion string // Stamped on every event
	PolicyVersion string // Stamped on every event
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		BufferSize:  10000,
		WorkerCount: 5,
	}
}

// NewRecorder creates a new Recorder instance.
func NewRecorder(auditRepo repositories.AuditRepository, logger *zap.Logger, config Config) *Recorder {
	ctx, cancel := context.WithCancel(context.Background())

	if config.BufferSize <= 0 {
		config.BufferSize = DefaultConfig().BufferSize
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = DefaultConfig().WorkerCount
	}

	return &Recorder{
		auditRepo:     auditRepo,
		logger:        logger,
		eventChan:     make(chan *models.AuditEvent, config.BufferSize),
		workerCount:   config.WorkerCount,
		bufferSize:    config.BufferSize,
		schemaVersion: config.SchemaVersion,
		policyVersion: config.PolicyVersion,
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Start starts the background workers.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return fmt.Errorf("audit recorder already started")
	}

	for i := 0; i < r.workerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	r.started = true
	r.logger.Info("started audit recorder",
		zap.Int("worker_count", r.workerCount),
		zap.Int("buffer_size", r.bufferSize))

	return nil
}

// Stop drains pending events and stops the workers, bounded by timeout.
func (r *Recorder) Stop(timeout time.Duration) error {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return fmt.Errorf("audit recorder not started")
	}
	r.started = false
	r.mu.Unlock()

	r.logger.Info("stopping audit recorder", zap.Int("pending_events", len(r.eventChan)))

	close(r.eventChan)

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("audit recorder stopped gracefully")
		r.cancel()
		return nil
	case <-time.After(timeout):
		r.cancel()
		return fmt.Errorf("audit recorder stop timeout after %v", timeout)
	}
}

// Record normalizes and enqueues one event. It never returns an error and
// never blocks: a full buffer drops the event with a local log line. This is
// the contract every controller relies on — the audit trail must not be the
// reason a business operation fails.
func (r *Recorder) Record(event *models.AuditEvent) {
	r.normalize(event)

	r.mu.Lock()
	started := r.started
	r.mu.Unlock()
	if !started {
		r.logger.Warn("audit recorder not started, dropping event",
			zap.String("action", event.Action),
			zap.String("resource", event.Resource))
		return
	}

	select {
	case r.eventChan <- event:
	default:
		r.logger.Warn("audit event buffer full, dropping event",
			zap.String("action", event.Action),
			zap.String("resource", event.Resource),
			zap.String("tenant_id", event.TenantID))
	}
}

// Recent returns up to limit persisted events, newest first.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]*models.AuditEvent, error) {
	return r.auditRepo.Recent(ctx, limit)
}

// normalize fills the derived and defaulted fields of an event: the persisted
// result enum, the event category bucket, and the version stamps.
func (r *Recorder) normalize(event *models.AuditEvent) {
	event.Result = models.NormalizeResult(event.Outcome)
	if event.Category == "" {
		event.Category = "data"
	}
	if event.Decision == "" {
		event.Decision = models.DecisionNA
	}
	event.SchemaVersion = r.schemaVersion
	event.PolicyVersion = r.policyVersion
}

// worker processes events from the channel.
func (r *Recorder) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("audit worker started", zap.Int("worker_id", id))

	for event := range r.eventChan {
		if err := r.processEvent(event); err != nil {
			r.logger.Error("failed to persist audit event",
				zap.Int("worker_id", id),
				zap.Error(err),
				zap.String("action", event.Action),
				zap.String("resource", event.Resource))
		}
	}

	r.logger.Debug("audit worker stopped", zap.Int("worker_id", id))
}

// processEvent persists a single audit event.
func (r *Recorder) processEvent(event *models.AuditEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.auditRepo.Insert(ctx, event); err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}

	return nil
}

// Stats represents recorder statistics.
type Stats struct {
	BufferSize    int  `json:"buffer_size"`
	PendingEvents int  `json:"pending_events"`
	WorkerCount   int  `json:"worker_count"`
	Started       bool `json:"started"`
}

// GetStats returns statistics about the recorder.
func (r *Recorder) GetStats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	return Stats{
		BufferSize:    r.bufferSize,
		PendingEvents: len(r.eventChan),
		WorkerCount:   r.workerCount,
		Started:       r.started,
	}
}
