// Package store selects the referral store backend from a database URL.
package store

import (
	"context"
	"fmt"
	"strings"

	"referearn/internal/referral/models"
	"referearn/internal/referral/store/memory"
	"referearn/internal/referral/store/postgres"
	"referearn/internal/referral/store/sqlite"
)

// Backend is the full surface every referral store implements.
type Backend interface {
	Create(ctx context.Context, referral models.NewReferral) (models.Referral, error)
	List(ctx context.Context) ([]models.Referral, error)
	Ping(ctx context.Context) error
	Close() error
}

// Kind names a backend for logs and the startup banner.
type Kind string

const (
	KindMemory   Kind = "memory"
	KindPostgres Kind = "postgres"
	KindSQLite   Kind = "sqlite"
)

// ParseURL reports which backend url selects and the backend-specific target
// (a DSN for PostgreSQL, a file path for SQLite).
//
//	""                      -> memory
//	postgres://… postgresql://… -> postgres
//	sqlite://path, file:path -> sqlite
func ParseURL(url string) (Kind, string, error) {
	switch {
	case url == "":
		return KindMemory, "", nil
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return KindPostgres, url, nil
	case strings.HasPrefix(url, "sqlite://"):
		return KindSQLite, strings.TrimPrefix(url, "sqlite://"), nil
	case strings.HasPrefix(url, "file:"):
		return KindSQLite, strings.TrimPrefix(url, "file:"), nil
	default:
		return "", "", fmt.Errorf("unsupported database url scheme: %q", redact(url))
	}
}

// Open connects to the backend url selects. SQL backends have their schema
// applied before Open returns.
func Open(ctx context.Context, url string) (Backend, Kind, error) {
	kind, target, err := ParseURL(url)
	if err != nil {
		return nil, "", err
	}
	switch kind {
	case KindPostgres:
		s, err := postgres.Open(ctx, target)
		if err != nil {
			return nil, kind, err
		}
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, kind, err
		}
		return s, kind, nil
	case KindSQLite:
		if target == "" {
			return nil, kind, fmt.Errorf("sqlite database url has no path")
		}
		s, err := sqlite.Open(ctx, target)
		if err != nil {
			return nil, kind, err
		}
		return s, kind, nil
	default:
		return memory.New(), KindMemory, nil
	}
}

// redact drops everything after the scheme so credentials never reach logs.
func redact(url string) string {
	if i := strings.Index(url, "://"); i >= 0 {
		return url[:i+3] + "…"
	}
	if len(url) > 8 {
		return url[:8] + "…"
	}
	return url
}
