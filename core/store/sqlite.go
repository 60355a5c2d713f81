package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteConfig holds database configuration.
type SQLiteConfig struct {
	Path            string        // Database file path, ":memory:" for transient stores
	MaxOpenConns    int           // Default: 10
	MaxIdleConns    int           // Default: 5
	ConnMaxLifetime time.Duration // Default: 30m
	BusyTimeout     time.Duration // Default: 5s
	CacheSizeKB     int           // Default: 64000
}

func (c *SQLiteConfig) setDefaults() {
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 10
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 5
	}
	if c.ConnMaxLifetime == 0 {
		c.ConnMaxLifetime = 30 * time.Minute
	}
	if c.BusyTimeout == 0 {
		c.BusyTimeout = 5 * time.Second
	}
	if c.CacheSizeKB == 0 {
		c.CacheSizeKB = 64000
	}
}

// queryer is satisfied by both *sql.DB and *sql.Tx, so every store method
// runs unchanged inside or outside a transaction.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStore is the production DataStore backed by a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
	q  queryer
}

const schema = `
CREATE TABLE IF NOT EXISTS employees (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL UNIQUE,
	name         TEXT NOT NULL,
	email        TEXT NOT NULL,
	department   TEXT NOT NULL DEFAULT '',
	territory_id TEXT NOT NULL DEFAULT '',
	manager_id   TEXT NOT NULL DEFAULT '',
	salary       REAL NOT NULL DEFAULT 0,
	pto_accrued  REAL NOT NULL DEFAULT 25,
	start_date   INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS candidates (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	email        TEXT NOT NULL DEFAULT '',
	stage        TEXT NOT NULL DEFAULT 'APPLIED',
	interview_at INTEGER,
	interviewer  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS pto_requests (
	id          TEXT PRIMARY KEY,
	employee_id TEXT NOT NULL REFERENCES employees(id),
	start_date  INTEGER NOT NULL,
	end_date    INTEGER NOT NULL,
	days        REAL NOT NULL,
	status      TEXT NOT NULL DEFAULT 'PENDING',
	note        TEXT NOT NULL DEFAULT '',
	decided_by  TEXT NOT NULL DEFAULT '',
	decided_at  INTEGER
);
CREATE INDEX IF NOT EXISTS idx_pto_employee ON pto_requests(employee_id);

CREATE TABLE IF NOT EXISTS tools (
	id        TEXT PRIMARY KEY,
	name      TEXT NOT NULL,
	available INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS tool_assignments (
	id          TEXT PRIMARY KEY,
	tool_id     TEXT NOT NULL REFERENCES tools(id),
	employee_id TEXT NOT NULL REFERENCES employees(id),
	assigned_at INTEGER NOT NULL,
	returned_at INTEGER
);
CREATE INDEX IF NOT EXISTS idx_assignments_employee ON tool_assignments(employee_id);

CREATE TABLE IF NOT EXISTS contracts (
	id          TEXT PRIMARY KEY,
	employee_id TEXT NOT NULL REFERENCES employees(id),
	type        TEXT NOT NULL,
	signed_at   INTEGER NOT NULL,
	expires_at  INTEGER
);

CREATE TABLE IF NOT EXISTS documents (
	id          TEXT PRIMARY KEY,
	employee_id TEXT NOT NULL REFERENCES employees(id),
	title       TEXT NOT NULL,
	viewed_at   INTEGER
);

CREATE TABLE IF NOT EXISTS policies (
	id      TEXT PRIMARY KEY,
	title   TEXT NOT NULL,
	summary TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS audit_log (
	id          TEXT PRIMARY KEY,
	session_id  TEXT NOT NULL,
	actor_id    TEXT NOT NULL,
	action_type TEXT NOT NULL,
	payload     TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_created ON audit_log(created_at);
`

// NewSQLiteStore opens (or creates) the database, applies pragmas through
// the DSN, bootstraps the schema, and verifies connectivity.
func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	cfg.setDefaults()
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=cache_size(-%d)",
		cfg.Path, cfg.BusyTimeout.Milliseconds(), cfg.CacheSizeKB)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A transient database exists per connection, so the pool must not
	// fan out.
	if cfg.Path == ":memory:" {
		cfg.MaxOpenConns = 1
		cfg.MaxIdleConns = 1
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStore{db: db, q: db}, nil
}

// WithinTx runs fn against a transactional view of the store. Calls nested
// inside an existing transaction reuse it rather than opening another.
func (s *SQLiteStore) WithinTx(ctx context.Context, fn func(DataStore) error) error {
	if _, ok := s.q.(*sql.Tx); ok {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	view := &SQLiteStore{db: s.db, q: tx}
	if err := fn(view); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

// Close releases the underlying connection pool.
func (s *SQLiteStore) Close() error {
	if _, ok := s.q.(*sql.Tx); ok {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) Employees() EmployeeStore   { return &sqlEmployees{q: s.q} }
func (s *SQLiteStore) Candidates() CandidateStore { return &sqlCandidates{q: s.q} }
func (s *SQLiteStore) PTO() PTOStore              { return &sqlPTO{q: s.q} }
func (s *SQLiteStore) Tools() ToolStore           { return &sqlTools{q: s.q} }
func (s *SQLiteStore) Contracts() ContractStore   { return &sqlContracts{q: s.q} }
func (s *SQLiteStore) Documents() DocumentStore   { return &sqlDocuments{q: s.q} }
func (s *SQLiteStore) Policies() PolicyStore      { return &sqlPolicies{q: s.q} }
func (s *SQLiteStore) Audit() AuditStore          { return &sqlAudit{q: s.q} }

func unixPtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}

func ptrUnix(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}
