package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/upb/compliance-data-agent/config"
	"go.uber.org/zap"
)

// DB wraps the sql.DB connection pool
type DB struct {
	*sql.DB
	logger *zap.Logger
}

// NewDB creates a new database connection pool
func NewDB(cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	dsn := cfg.DSN()

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("connection", cfg.LogString()))

	return &DB{
		DB:     db,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (db *DB) Close() error {
	db.logger.Info("closing database connection")
	return db.DB.Close()
}

// HealthCheck performs a health check on the database
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database query check failed: %w", err)
	}

	return nil
}

// Stats returns database connection pool statistics
func (db *DB) Stats() sql.DBStats {
	return db.DB.Stats()
}

// InitSchema creates the resource and audit tables when they do not exist.
// The customer-owned database normally carries this schema already; this
// bootstrap covers local development and fresh tenants.
func (db *DB) InitSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS employees (
			id UUID PRIMARY KEY,
			tenant_id VARCHAR(100) NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			first_name VARCHAR(255),
			last_name VARCHAR(255),
			email VARCHAR(255),
			department VARCHAR(100),
			position VARCHAR(100),
			hire_date DATE,
			status VARCHAR(50) NOT NULL DEFAULT 'active',
			metadata JSONB,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			deleted_at TIMESTAMP
		);
		CREATE UNIQUE INDEX IF NOT EXISTS uq_employees_tenant_email
			ON employees(tenant_id, email) WHERE deleted_at IS NULL;

		CREATE TABLE IF NOT EXISTS agent_users (
			id UUID PRIMARY KEY,
			tenant_id VARCHAR(100) NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			email VARCHAR(255),
			name VARCHAR(255),
			role VARCHAR(50),
			status VARCHAR(50) NOT NULL DEFAULT 'active',
			last_login_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			deleted_at TIMESTAMP
		);
		CREATE UNIQUE INDEX IF NOT EXISTS uq_agent_users_tenant_email
			ON agent_users(tenant_id, email) WHERE deleted_at IS NULL;

		CREATE TABLE IF NOT EXISTS documents (
			id UUID PRIMARY KEY,
			tenant_id VARCHAR(100) NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			title VARCHAR(500),
			category VARCHAR(100),
			document_number VARCHAR(100),
			status VARCHAR(50) NOT NULL DEFAULT 'draft',
			employee_id UUID,
			content_type VARCHAR(100),
			expires_at TIMESTAMP,
			compliance_score DECIMAL(5, 2),
			metadata JSONB,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			deleted_at TIMESTAMP
		);
		CREATE UNIQUE INDEX IF NOT EXISTS uq_documents_tenant_number
			ON documents(tenant_id, document_number) WHERE deleted_at IS NULL;

		CREATE TABLE IF NOT EXISTS templates (
			id UUID PRIMARY KEY,
			tenant_id VARCHAR(100) NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			name VARCHAR(255),
			category VARCHAR(100),
			description TEXT,
			status VARCHAR(50) NOT NULL DEFAULT 'draft',
			body TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			deleted_at TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS template_fields (
			id UUID PRIMARY KEY,
			tenant_id VARCHAR(100) NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			template_id UUID,
			label VARCHAR(255),
			field_type VARCHAR(50),
			required BOOLEAN NOT NULL DEFAULT false,
			position INTEGER,
			options JSONB,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			deleted_at TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS document_comments (
			id UUID PRIMARY KEY,
			tenant_id VARCHAR(100) NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			document_id UUID,
			author_id UUID,
			body TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			deleted_at TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS approvals (
			id UUID PRIMARY KEY,
			tenant_id VARCHAR(100) NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			document_id UUID,
			approver_id UUID,
			status VARCHAR(50) NOT NULL DEFAULT 'pending',
			decided_at TIMESTAMP,
			note TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			deleted_at TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS shares (
			id UUID PRIMARY KEY,
			tenant_id VARCHAR(100) NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			document_id UUID,
			recipient_email VARCHAR(255),
			access_level VARCHAR(50),
			expires_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			deleted_at TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS relationships (
			id UUID PRIMARY KEY,
			tenant_id VARCHAR(100) NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			employee_id UUID,
			related_type VARCHAR(100),
			related_id UUID,
			relation VARCHAR(100),
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			deleted_at TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS sections (
			id UUID PRIMARY KEY,
			tenant_id VARCHAR(100) NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			document_id UUID,
			title VARCHAR(500),
			position INTEGER,
			body TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			deleted_at TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS document_versions (
			id UUID PRIMARY KEY,
			tenant_id VARCHAR(100) NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			document_id UUID,
			version_label VARCHAR(100),
			storage_key VARCHAR(500),
			checksum VARCHAR(128),
			created_by UUID,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			deleted_at TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS compliance_checks (
			id UUID PRIMARY KEY,
			tenant_id VARCHAR(100) NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			document_id UUID,
			check_type VARCHAR(100),
			status VARCHAR(50),
			score DECIMAL(5, 2),
			findings JSONB,
			checked_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			deleted_at TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS audit_events (
			id UUID PRIMARY KEY,
			event_time TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			tenant_id VARCHAR(100) NOT NULL,
			actor_role VARCHAR(100),
			actor_id VARCHAR(255),
			actor_email VARCHAR(255),
			actor_ip VARCHAR(45),
			action VARCHAR(100) NOT NULL,
			resource VARCHAR(100) NOT NULL,
			target_id UUID,
			decision VARCHAR(20) NOT NULL,
			outcome VARCHAR(50) NOT NULL,
			result VARCHAR(20) NOT NULL,
			reason VARCHAR(100),
			event_category VARCHAR(50) NOT NULL,
			changes JSONB,
			request_id VARCHAR(255),
			schema_version VARCHAR(50),
			policy_version VARCHAR(50),
			metadata JSONB
		);
		CREATE INDEX IF NOT EXISTS idx_audit_events_tenant_id ON audit_events(tenant_id);
		CREATE INDEX IF NOT EXISTS idx_audit_events_event_time ON audit_events(event_time);
		CREATE INDEX IF NOT EXISTS idx_audit_events_request_id ON audit_events(request_id);
		CREATE INDEX IF NOT EXISTS idx_audit_events_resource ON audit_events(resource);
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	db.logger.Info("database schema initialized successfully")
	return nil
}
