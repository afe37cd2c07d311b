package app

import (
	"context"
	"fmt"
	"time"

	"github.com/upb/compliance-data-agent/config"
	"github.com/upb/compliance-data-agent/repositories"
	"github.com/upb/compliance-data-agent/repositories/postgres"
	"github.com/upb/compliance-data-agent/services/audit"
	"github.com/upb/compliance-data-agent/services/idempotency"
	"github.com/upb/compliance-data-agent/services/policy"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Resources        repositories.ResourceRepository
	AuditEvents      repositories.AuditRepository
	ComplianceChecks repositories.ComplianceCheckRepository
	TxManager        repositories.TransactionManager

	// Services
	Recorder  *audit.Recorder
	Oracle    *policy.Oracle
	IdemCache *idempotency.Cache
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	// Initialize PostgreSQL
	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize repositories
	if err := deps.initRepositories(); err != nil {
		return nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}

	// Initialize services
	if err := deps.initServices(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase initializes the PostgreSQL database connection and factory
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	factory, err := postgres.NewRepositoryFactory(cfg, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}

	d.RepoFactory = factory
	d.DB = factory.GetDB()

	// Test the connection
	if err := d.DB.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if err := d.DB.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	d.Logger.Info("database connection established",
		zap.String("connection", cfg.Database.LogString()))

	return nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() error {
	repos := d.RepoFactory.NewRepositories()

	d.Resources = repos.Resources
	d.AuditEvents = repos.AuditEvents
	d.ComplianceChecks = repos.ComplianceChecks
	d.TxManager = d.RepoFactory.GetTransactionManager()

	d.Logger.Info("repositories initialized")
	return nil
}

// initServices wires the audit recorder, the policy oracle client, and the
// create replay cache.
func (d *Dependencies) initServices(cfg *config.Config) error {
	d.Recorder = audit.NewRecorder(d.AuditEvents, d.Logger, audit.Config{
		BufferSize:    cfg.Audit.BufferSize,
		WorkerCount:   cfg.Audit.WorkerCount,
		SchemaVersion: cfg.SchemaVersion,
		PolicyVersion: cfg.PolicyVersion,
	})
	if err := d.Recorder.Start(); err != nil {
		return fmt.Errorf("failed to start audit recorder: %w", err)
	}

	d.Oracle = policy.NewOracle(cfg.PolicyOracle.URL, cfg.PolicyOracle.Timeout, d.Logger)
	if !d.Oracle.Configured() {
		// Fail-open: without an oracle every gated delete is allowed. This is
		// the documented non-production default and must be a conscious choice.
		d.Logger.Warn("policy oracle not configured, gated deletes default to allow")
	}

	d.IdemCache = idempotency.NewCache(cfg.Idempotency.CacheSize, cfg.Idempotency.CacheTTL)

	d.Logger.Info("services initialized")
	return nil
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	// Drain the audit recorder before the database goes away
	if d.Recorder != nil {
		if err := d.Recorder.Stop(10 * time.Second); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop audit recorder: %w", err))
		} else {
			d.Logger.Info("audit recorder stopped")
		}
	}

	// Close database connection
	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	// Sync logger
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
