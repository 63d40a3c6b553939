package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"referearn/internal/referral/models"
	"referearn/pkg/platform/sentinel"
)

// InMemory keeps referrals in process memory. It backs tests and local runs
// without DATABASE_URL.
type InMemory struct {
	mu        sync.RWMutex
	referrals []models.Referral
	clock     func() time.Time
	closed    bool
}

// Option configures an InMemory store.
type Option func(*InMemory)

// WithClock sets the clock used to stamp CreatedAt.
func WithClock(clock func() time.Time) Option {
	return func(s *InMemory) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New constructs an empty in-memory store.
func New(opts ...Option) *InMemory {
	s := &InMemory{clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create assigns an ID and CreatedAt and stores the referral.
func (s *InMemory) Create(_ context.Context, referral models.NewReferral) (models.Referral, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return models.Referral{}, sentinel.ErrClosed
	}
	record := referral.Materialize(uuid.New(), s.clock().UTC())
	s.referrals = append(s.referrals, record)
	return record, nil
}

// List returns every referral, newest first. Equal timestamps keep the most
// recently inserted record first.
func (s *InMemory) List(_ context.Context) ([]models.Referral, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, sentinel.ErrClosed
	}
	out := make([]models.Referral, len(s.referrals))
	for i := range s.referrals {
		out[i] = s.referrals[len(s.referrals)-1-i]
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Ping reports whether the store still accepts calls.
func (s *InMemory) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return sentinel.ErrClosed
	}
	return nil
}

// Close marks the store closed. Later calls fail with sentinel.ErrClosed.
func (s *InMemory) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
