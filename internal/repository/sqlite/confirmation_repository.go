package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"stores-api/internal/domain"
	"stores-api/internal/repository"
)

const createConfirmationsTable = `
CREATE TABLE IF NOT EXISTS confirmations (
	id TEXT PRIMARY KEY,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	created_at DATETIME NOT NULL,
	expire_at DATETIME NOT NULL,
	confirmed INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_confirmations_user_id ON confirmations(user_id);
`

type ConfirmationRepository struct {
	db *sql.DB
}

func NewConfirmationRepository(db *sql.DB) repository.ConfirmationRepository {
	return &ConfirmationRepository{db: db}
}

func (r *ConfirmationRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createConfirmationsTable); err != nil {
		return fmt.Errorf("create confirmations table: %w", err)
	}
	return nil
}

func (r *ConfirmationRepository) Create(ctx context.Context, confirmation *domain.Confirmation) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO confirmations (id, user_id, created_at, expire_at, confirmed)
VALUES (?, ?, ?, ?, ?)`,
		confirmation.ID,
		confirmation.UserID,
		confirmation.CreatedAt,
		confirmation.ExpireAt,
		confirmation.Confirmed,
	)
	if err != nil {
		return fmt.Errorf("insert confirmation: %w", err)
	}
	return nil
}

func (r *ConfirmationRepository) GetByID(ctx context.Context, id string) (*domain.Confirmation, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, user_id, created_at, expire_at, confirmed
FROM confirmations
WHERE id = ?`,
		id,
	)
	return scanConfirmation(row)
}

func (r *ConfirmationRepository) Update(ctx context.Context, confirmation *domain.Confirmation) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE confirmations
SET expire_at = ?, confirmed = ?
WHERE id = ?`,
		confirmation.ExpireAt,
		confirmation.Confirmed,
		confirmation.ID,
	)
	if err != nil {
		return fmt.Errorf("update confirmation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update confirmation rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ConfirmationRepository) MostRecentByUserID(ctx context.Context, userID int64) (*domain.Confirmation, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, user_id, created_at, expire_at, confirmed
FROM confirmations
WHERE user_id = ?
ORDER BY created_at DESC, expire_at DESC
LIMIT 1`,
		userID,
	)
	confirmation, err := scanConfirmation(row)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return confirmation, err
}

func (r *ConfirmationRepository) ListByUserID(ctx context.Context, userID int64) ([]domain.Confirmation, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, created_at, expire_at, confirmed
FROM confirmations
WHERE user_id = ?
ORDER BY expire_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list confirmations: %w", err)
	}
	defer rows.Close()

	var confirmations []domain.Confirmation
	for rows.Next() {
		var c domain.Confirmation
		if err := rows.Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.ExpireAt, &c.Confirmed); err != nil {
			return nil, fmt.Errorf("scan confirmation: %w", err)
		}
		confirmations = append(confirmations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list confirmations: %w", err)
	}
	return confirmations, nil
}

func scanConfirmation(row interface {
	Scan(dest ...any) error
}) (*domain.Confirmation, error) {
	var c domain.Confirmation
	if err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.CreatedAt,
		&c.ExpireAt,
		&c.Confirmed,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan confirmation: %w", err)
	}
	return &c, nil
}
