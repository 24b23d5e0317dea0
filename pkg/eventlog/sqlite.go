package eventlog

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	perrors "github.com/prfstim/prfstim/pkg/errors"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLite stores events in a SQLite database. The schema is brought up to
// date by [SQLite.Migrate] when the database is opened.
type SQLite struct {
	db     *sql.DB
	Logger *log.Logger
}

// OpenSQLite opens (creating if needed) the database at path and migrates
// it to the latest schema.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInvalidPath, err, "open event log %s", path)
	}
	// one writer; avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, perrors.Wrap(perrors.ErrCodeInvalidPath, err, "open event log %s", path)
	}

	s := &SQLite{db: db}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate runs all pending migrations. A database already at the latest
// version is left alone.
func (s *SQLite) Migrate() error {
	m, err := s.newMigrate()
	if err != nil {
		return err
	}
	// m is not closed: that would close s.db
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// Version returns the schema version. 0 means no migration has run.
func (s *SQLite) Version() (uint, bool, error) {
	m, err := s.newMigrate()
	if err != nil {
		return 0, false, err
	}
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (s *SQLite) newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = migrateLogger{s.Logger}
	return m, nil
}

type migrateLogger struct{ l *log.Logger }

func (m migrateLogger) Printf(format string, v ...any) {
	if m.l != nil {
		m.l.Debugf("[migrate] "+format, v...)
	}
}

func (m migrateLogger) Verbose() bool { return false }

func (s *SQLite) StartRun(ctx context.Context, info RunInfo) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, subject, started_at, settings_hash) VALUES (?, ?, ?, ?)`,
		info.ID.String(), info.Subject, info.Started.UTC().Format(time.RFC3339Nano), info.SettingsHash)
	return err
}

func (s *SQLite) Append(ctx context.Context, e Event) error {
	params, err := json.Marshal(e.Params)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO events (run, block, trial_nr, phase, onset, event_type, response, correct, rt, params)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Run.String(), e.Block, e.Trial, e.Phase, e.Onset, string(e.Type), e.Key, e.Correct, e.RT, string(params))
	return err
}

// Events returns a run's events in onset order. The zero uuid selects
// every run.
func (s *SQLite) Events(ctx context.Context, run uuid.UUID) ([]Event, error) {
	q := `SELECT run, block, trial_nr, phase, onset, event_type, response, correct, rt, params FROM events`
	var args []any
	if run != uuid.Nil {
		q += ` WHERE run = ?`
		args = append(args, run.String())
	}
	q += ` ORDER BY onset, id`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e           Event
			id, typ, pj string
		)
		if err := rows.Scan(&id, &e.Block, &e.Trial, &e.Phase, &e.Onset, &typ, &e.Key, &e.Correct, &e.RT, &pj); err != nil {
			return nil, err
		}
		if e.Run, err = uuid.Parse(id); err != nil {
			return nil, perrors.Wrap(perrors.ErrCodeInvalidFormat, err, "event run id %q", id)
		}
		e.Type = Type(typ)
		if err := json.Unmarshal([]byte(pj), &e.Params); err != nil {
			return nil, perrors.Wrap(perrors.ErrCodeInvalidFormat, err, "event params")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Runs returns the recorded runs, oldest first.
func (s *SQLite) Runs(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, subject, started_at, settings_hash FROM runs ORDER BY started_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunInfo
	for rows.Next() {
		var (
			info        RunInfo
			id, started string
		)
		if err := rows.Scan(&id, &info.Subject, &started, &info.SettingsHash); err != nil {
			return nil, err
		}
		if info.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		if info.Started, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error { return s.db.Close() }

var (
	_ Log         = (*SQLite)(nil)
	_ Reader      = (*SQLite)(nil)
	_ RunRecorder = (*SQLite)(nil)
)
