package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"referearn/internal/referral/models"
	"referearn/internal/referral/store/sqlite/migrations"
)

// Store persists referrals in a single SQLite file.
//
// created_at is stored as Unix nanoseconds so ORDER BY sorts chronologically;
// seq breaks ties in insertion order.
type Store struct {
	db    *sql.DB
	path  string
	clock func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used to stamp CreatedAt.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// Open opens (creating if needed) the database at path and runs migrations.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	// WAL lets list requests read while a submission writes.
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &Store{db: db, path: path, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Migrate applies every embedded migration newer than the recorded version.
func (s *Store) Migrate(ctx context.Context) error {
	return migrate(ctx, s.db, migrations.FS)
}

// Create inserts the referral with a fresh ID and the current time.
func (s *Store) Create(ctx context.Context, referral models.NewReferral) (models.Referral, error) {
	record := referral.Materialize(uuid.New(), s.clock().UTC())
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO referrals (id, referrer_name, referrer_email, referee_name, referee_email, course, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, record.ID.String(), record.ReferrerName, record.ReferrerEmail, record.RefereeName,
		record.RefereeEmail, record.Course, string(record.Status), record.CreatedAt.UnixNano())
	if err != nil {
		return models.Referral{}, fmt.Errorf("create referral: %w", err)
	}
	return record, nil
}

// List returns every referral, newest first.
func (s *Store) List(ctx context.Context) ([]models.Referral, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, referrer_name, referrer_email, referee_name, referee_email, course, status, created_at
		FROM referrals
		ORDER BY created_at DESC, seq DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list referrals: %w", err)
	}
	defer rows.Close()

	referrals := []models.Referral{}
	for rows.Next() {
		var (
			r         models.Referral
			id        string
			status    string
			createdAt int64
		)
		if err := rows.Scan(&id, &r.ReferrerName, &r.ReferrerEmail, &r.RefereeName, &r.RefereeEmail, &r.Course, &status, &createdAt); err != nil {
			return nil, fmt.Errorf("scan referral: %w", err)
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse referral id %q: %w", id, err)
		}
		r.Status = models.Status(status)
		r.CreatedAt = time.Unix(0, createdAt).UTC()
		referrals = append(referrals, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate referrals: %w", err)
	}
	return referrals, nil
}

// Ping checks the database handle.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func migrate(ctx context.Context, db *sql.DB, fsys embed.FS) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_create_referrals.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if err := applyMigration(ctx, db, version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}
	return nil
}

func applyMigration(ctx context.Context, db *sql.DB, version int, content string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, content); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}
