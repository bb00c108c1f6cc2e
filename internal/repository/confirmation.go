package repository

import (
	"context"

	"stores-api/internal/domain"
)

// ConfirmationRepository defines persistence operations for Confirmation
// records. Records are append-only: they are created and updated in place
// (confirmed flag, forced expiry) but never deleted directly; deleting a
// user cascades over its records at the storage layer.
type ConfirmationRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, confirmation *domain.Confirmation) error
	GetByID(ctx context.Context, id string) (*domain.Confirmation, error)
	Update(ctx context.Context, confirmation *domain.Confirmation) error
	// MostRecentByUserID returns the record with the latest creation time
	// for the user, or nil when the user has none.
	MostRecentByUserID(ctx context.Context, userID int64) (*domain.Confirmation, error)
	// ListByUserID returns all records for the user ordered by expiry
	// ascending. The result is a snapshot at call time.
	ListByUserID(ctx context.Context, userID int64) ([]domain.Confirmation, error)
}
