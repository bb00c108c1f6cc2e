package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"stores-api/internal/domain"
	"stores-api/internal/repository"
)

// DefaultConfirmationTTL is how long a confirmation link stays valid.
const DefaultConfirmationTTL = time.Hour

// ConfirmationService owns the per-user sequence of confirmation records.
// It enforces that a user has at most one active (unexpired, unconfirmed)
// record at a time, and that records only ever move forward: Pending to
// Confirmed via Confirm, or Pending to Expired by time or ForceExpire.
// Records are never deleted here; the trail stays behind for audit.
type ConfirmationService struct {
	repo repository.ConfirmationRepository
	ttl  time.Duration
	now  func() time.Time

	mu        sync.Mutex
	userLocks map[int64]*sync.Mutex
}

func NewConfirmationService(repo repository.ConfirmationRepository, ttl time.Duration) *ConfirmationService {
	if ttl <= 0 {
		ttl = DefaultConfirmationTTL
	}
	return &ConfirmationService{
		repo:      repo,
		ttl:       ttl,
		now:       time.Now,
		userLocks: make(map[int64]*sync.Mutex),
	}
}

// lockUser serializes Create calls per user so the at-most-one-active
// invariant holds under concurrent requests.
func (s *ConfirmationService) lockUser(userID int64) func() {
	s.mu.Lock()
	lock, ok := s.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.userLocks[userID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// Create issues a new confirmation record for the user with a fresh
// unguessable identifier and expiry now + TTL. It fails with
// ErrActiveConfirmationExists while an unexpired, unconfirmed record
// exists; callers must ForceExpire that record first.
func (s *ConfirmationService) Create(ctx context.Context, userID int64) (*domain.Confirmation, error) {
	unlock := s.lockUser(userID)
	defer unlock()

	current, err := s.repo.MostRecentByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if current != nil && current.IsActive(now) {
		return nil, ErrActiveConfirmationExists
	}

	confirmation := &domain.Confirmation{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpireAt:  now.Add(s.ttl),
	}
	if err := s.repo.Create(ctx, confirmation); err != nil {
		return nil, err
	}
	return confirmation, nil
}

// ForceExpire backdates the record's expiry so its link can no longer be
// used. Idempotent; confirmed or already expired records are left alone.
func (s *ConfirmationService) ForceExpire(ctx context.Context, confirmation *domain.Confirmation) error {
	now := s.now().UTC()
	if confirmation.Confirmed || confirmation.IsExpired(now) {
		return nil
	}
	confirmation.ExpireAt = now.Add(-time.Second)
	return s.repo.Update(ctx, confirmation)
}

// Confirm marks the record confirmed. Confirming an already confirmed
// record returns it unchanged, so confirmation links can be clicked more
// than once without error.
func (s *ConfirmationService) Confirm(ctx context.Context, id string) (*domain.Confirmation, error) {
	confirmation, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if confirmation.Confirmed {
		return confirmation, nil
	}
	if confirmation.IsExpired(s.now().UTC()) {
		return nil, ErrExpired
	}

	confirmation.Confirmed = true
	if err := s.repo.Update(ctx, confirmation); err != nil {
		return nil, fmt.Errorf("confirm %s: %w", id, err)
	}
	return confirmation, nil
}

// MostRecentFor returns the latest-created record for the user, or nil
// when the user has none.
func (s *ConfirmationService) MostRecentFor(ctx context.Context, userID int64) (*domain.Confirmation, error) {
	return s.repo.MostRecentByUserID(ctx, userID)
}

// ListFor returns a snapshot of the user's records ordered by expiry
// ascending.
func (s *ConfirmationService) ListFor(ctx context.Context, userID int64) ([]domain.Confirmation, error) {
	return s.repo.ListByUserID(ctx, userID)
}
