//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// schema is applied once per container. The stores assume these tables; there
// is no in-process migration machinery.
const schema = `
CREATE TABLE IF NOT EXISTS principals (
	id                        UUID PRIMARY KEY,
	email                     TEXT NOT NULL UNIQUE,
	full_name                 TEXT NOT NULL,
	password_hash             TEXT NOT NULL,
	role                      TEXT NOT NULL,
	verification_status       TEXT NOT NULL,
	admission_verified        BOOLEAN NOT NULL DEFAULT FALSE,
	email_verified            BOOLEAN NOT NULL DEFAULT FALSE,
	admission_number          TEXT,
	account_status            TEXT NOT NULL,
	status_reason             TEXT,
	verification_deadline     TIMESTAMPTZ,
	deactivation_warning_sent BOOLEAN NOT NULL DEFAULT FALSE,
	deactivated_at            TIMESTAMPTZ,
	can_post_jobs             BOOLEAN NOT NULL DEFAULT FALSE,
	can_post_feed             BOOLEAN NOT NULL DEFAULT FALSE,
	can_message               BOOLEAN NOT NULL DEFAULT FALSE,
	can_accept_mentorship     BOOLEAN NOT NULL DEFAULT FALSE,
	created_at                TIMESTAMPTZ NOT NULL,
	updated_at                TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_principals_deadline
	ON principals (verification_deadline)
	WHERE account_status = 'active';

CREATE TABLE IF NOT EXISTS admission_records (
	admission_number TEXT PRIMARY KEY,
	full_name        TEXT NOT NULL,
	graduation_year  INTEGER NOT NULL,
	course           TEXT,
	claimed          BOOLEAN NOT NULL DEFAULT FALSE,
	claimed_by       UUID,
	claimed_at       TIMESTAMPTZ,
	created_at       TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS verification_requests (
	id                 UUID PRIMARY KEY,
	principal_id       UUID NOT NULL,
	role               TEXT NOT NULL,
	method             TEXT NOT NULL,
	status             TEXT NOT NULL,
	evidence_url       TEXT,
	admission_number   TEXT,
	onboarding_answers JSONB NOT NULL DEFAULT '{}',
	rejection_reason   TEXT,
	reviewer_id        UUID,
	reviewed_at        TIMESTAMPTZ,
	submitted_at       TIMESTAMPTZ NOT NULL,
	updated_at         TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_verification_requests_pending
	ON verification_requests (submitted_at)
	WHERE status = 'pending';

CREATE INDEX IF NOT EXISTS idx_verification_requests_principal
	ON verification_requests (principal_id);
`

// PostgresContainer wraps a testcontainers PostgreSQL instance with the
// project schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DB        *sql.DB
	DSN       string
}

// Exec runs a statement against the container database.
func (c *PostgresContainer) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.DB.ExecContext(ctx, query, args...)
}

// TruncateTables empties the given tables between tests.
func (c *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	_, err := c.DB.ExecContext(ctx,
		fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(tables, ", ")))
	return err
}

// Manager shares one postgres container across a package's suites so each
// suite does not pay the container startup cost.
type Manager struct {
	mu       sync.Mutex
	postgres *PostgresContainer
	redis    *RedisContainer
}

var manager = &Manager{}

// GetManager returns the process-wide container manager.
func GetManager() *Manager {
	return manager
}

// GetPostgres returns the shared postgres container, starting it on first
// use.
func (m *Manager) GetPostgres(t *testing.T) *PostgresContainer {
	t.Helper()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.postgres != nil {
		return m.postgres
	}

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("campuslink_test"),
		tcpostgres.WithUsername("campuslink"),
		tcpostgres.WithPassword("campuslink"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	m.postgres = &PostgresContainer{
		Container: container,
		DB:        db,
		DSN:       dsn,
	}
	return m.postgres
}
