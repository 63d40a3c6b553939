package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"referearn/internal/referral/models"
	"referearn/pkg/platform/sentinel"
)

// Schema creates the referrals table. It is idempotent and applied by Migrate.
const Schema = `
CREATE TABLE IF NOT EXISTS referrals (
	id             UUID PRIMARY KEY,
	referrer_name  TEXT NOT NULL,
	referrer_email TEXT NOT NULL,
	referee_name   TEXT NOT NULL,
	referee_email  TEXT NOT NULL,
	course         TEXT NOT NULL,
	status         TEXT NOT NULL DEFAULT 'PENDING',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS referrals_created_at_idx ON referrals (created_at DESC);
`

// PostgresStore persists referrals in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed referral store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", classify(err))
	}
	return NewPostgres(db), nil
}

// Migrate applies Schema.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate referrals: %w", classify(err))
	}
	return nil
}

// Create inserts the referral. The database assigns created_at.
func (s *PostgresStore) Create(ctx context.Context, referral models.NewReferral) (models.Referral, error) {
	id := uuid.New()
	query := `
		INSERT INTO referrals (id, referrer_name, referrer_email, referee_name, referee_email, course, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	var createdAt time.Time
	err := s.db.QueryRowContext(ctx, query,
		id,
		referral.ReferrerName,
		referral.ReferrerEmail,
		referral.RefereeName,
		referral.RefereeEmail,
		referral.Course,
		string(referral.Status),
	).Scan(&createdAt)
	if err != nil {
		return models.Referral{}, fmt.Errorf("create referral: %w", classify(err))
	}
	return referral.Materialize(id, createdAt.UTC()), nil
}

// List returns every referral ordered by created_at descending.
func (s *PostgresStore) List(ctx context.Context) ([]models.Referral, error) {
	query := `
		SELECT id, referrer_name, referrer_email, referee_name, referee_email, course, status, created_at
		FROM referrals
		ORDER BY created_at DESC, id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list referrals: %w", classify(err))
	}
	defer rows.Close()

	referrals := []models.Referral{}
	for rows.Next() {
		var (
			r      models.Referral
			status string
		)
		if err := rows.Scan(&r.ID, &r.ReferrerName, &r.ReferrerEmail, &r.RefereeName, &r.RefereeEmail, &r.Course, &status, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan referral: %w", err)
		}
		r.Status = models.Status(status)
		r.CreatedAt = r.CreatedAt.UTC()
		referrals = append(referrals, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate referrals: %w", classify(err))
	}
	return referrals, nil
}

// Ping checks the connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return classify(err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// classify tags connection-level failures with sentinel.ErrUnavailable and
// leaves server-side rejections (constraint violations and the like) as they
// are. Dial failures reach us as plain net errors, not *pq.Error.
func classify(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// 08: connection exception, 57: operator intervention (admin shutdown)
		switch pqErr.Code.Class() {
		case "08", "57":
			return errors.Join(sentinel.ErrUnavailable, err)
		}
		return err
	}
	return errors.Join(sentinel.ErrUnavailable, err)
}
