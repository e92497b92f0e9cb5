package tracker

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"regexp"

	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver (cgo-free)

	"github.com/ignite/open-tracker/internal/config"
)

// Supported store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store provides database operations for registrations and open events
type Store struct {
	db     *sql.DB
	driver string
}

// NewStore wraps an existing database handle. driver must be DriverSQLite
// or DriverPostgres; it controls placeholder style and schema dialect.
func NewStore(db *sql.DB, driver string) *Store {
	return &Store{db: db, driver: driver}
}

// Open connects to the configured store. SQLite keeps a tracker.db file
// under the configured data directory so a deployment volume can be mounted
// there; Postgres connects via the configured URL.
func Open(cfg config.StorageConfig) (*Store, error) {
	switch cfg.Driver {
	case DriverSQLite:
		path := filepath.Join(cfg.DataDir, "tracker.db")
		dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", path, err)
		}
		// SQLite allows a single writer; serializing through one connection
		// avoids SQLITE_BUSY under concurrent handler writes.
		db.SetMaxOpenConns(1)
		return NewStore(db, DriverSQLite), nil
	case DriverPostgres:
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return NewStore(db, DriverPostgres), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// Close closes the underlying database handle
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for health checks
func (s *Store) DB() *sql.DB {
	return s.db
}

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS tracked_emails (
	tracking_id TEXT PRIMARY KEY,
	recipient TEXT NOT NULL,
	subject TEXT NOT NULL,
	sent_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS open_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	tracking_id TEXT NOT NULL,
	opened_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	ip_address TEXT,
	user_agent TEXT,
	FOREIGN KEY (tracking_id) REFERENCES tracked_emails (tracking_id)
);
CREATE INDEX IF NOT EXISTS idx_open_events_tracking_id ON open_events (tracking_id);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS tracked_emails (
	tracking_id TEXT PRIMARY KEY,
	recipient TEXT NOT NULL,
	subject TEXT NOT NULL,
	sent_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS open_events (
	id BIGSERIAL PRIMARY KEY,
	tracking_id TEXT NOT NULL REFERENCES tracked_emails (tracking_id),
	opened_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	ip_address TEXT,
	user_agent TEXT
);
CREATE INDEX IF NOT EXISTS idx_open_events_tracking_id ON open_events (tracking_id);
`

// Init creates the schema. Safe to run on every startup.
func (s *Store) Init(ctx context.Context) error {
	schema := schemaSQLite
	if s.driver == DriverPostgres {
		schema = schemaPostgres
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return &StorageError{Op: "init schema", Err: err}
	}
	return nil
}

var placeholderRe = regexp.MustCompile(`\$\d+`)

// rebind converts PostgreSQL-style placeholders to SQLite positional ones.
// Queries are written with $1..$N in order of appearance, so a plain
// substitution keeps argument binding intact.
func (s *Store) rebind(query string) string {
	if s.driver == DriverPostgres {
		return query
	}
	return placeholderRe.ReplaceAllString(query, "?")
}

// CreateRegistration inserts one registration row
func (s *Store) CreateRegistration(ctx context.Context, reg *Registration) error {
	query := s.rebind(`INSERT INTO tracked_emails (tracking_id, recipient, subject, sent_at)
		VALUES ($1, $2, $3, $4)`)

	_, err := s.db.ExecContext(ctx, query, reg.TrackingID, reg.Recipient, reg.Subject, reg.SentAt)
	if err != nil {
		return &StorageError{Op: "insert registration", Err: err}
	}
	return nil
}

// RecordOpen appends one open-event row. The tracking identifier is not
// checked against tracked_emails; an unknown id still gets a row.
func (s *Store) RecordOpen(ctx context.Context, evt *OpenEvent) error {
	query := s.rebind(`INSERT INTO open_events (tracking_id, opened_at, ip_address, user_agent)
		VALUES ($1, $2, $3, $4)`)

	_, err := s.db.ExecContext(ctx, query, evt.TrackingID, evt.OpenedAt, evt.IPAddress, evt.UserAgent)
	if err != nil {
		return &StorageError{Op: "insert open event", Err: err}
	}
	return nil
}

// ListRegistrationsWithEvents returns every registration joined with its open
// events: registrations newest-first, events oldest-first within each.
// Registrations with no events appear with an empty event list.
func (s *Store) ListRegistrationsWithEvents(ctx context.Context) ([]*RegistrationReport, error) {
	query := `SELECT r.tracking_id, r.recipient, r.subject, r.sent_at,
		e.id, e.opened_at, e.ip_address, e.user_agent
		FROM tracked_emails r
		LEFT JOIN open_events e ON e.tracking_id = r.tracking_id
		ORDER BY r.sent_at DESC, r.tracking_id, e.opened_at ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, &StorageError{Op: "list registrations", Err: err}
	}
	defer rows.Close()

	var (
		reports []*RegistrationReport
		current *RegistrationReport
	)
	for rows.Next() {
		var (
			reg       Registration
			eventID   sql.NullInt64
			openedAt  sql.NullTime
			ipAddress sql.NullString
			userAgent sql.NullString
		)
		if err := rows.Scan(&reg.TrackingID, &reg.Recipient, &reg.Subject, &reg.SentAt,
			&eventID, &openedAt, &ipAddress, &userAgent); err != nil {
			return nil, &StorageError{Op: "scan registration", Err: err}
		}

		if current == nil || current.TrackingID != reg.TrackingID {
			current = &RegistrationReport{Registration: reg, Events: []OpenEvent{}}
			reports = append(reports, current)
		}
		if eventID.Valid {
			current.Events = append(current.Events, OpenEvent{
				ID:         eventID.Int64,
				TrackingID: reg.TrackingID,
				OpenedAt:   openedAt.Time,
				IPAddress:  ipAddress.String,
				UserAgent:  userAgent.String,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "list registrations", Err: err}
	}
	return reports, nil
}
