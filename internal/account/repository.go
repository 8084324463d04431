// Package account resolves accounts and the tier each one is attached to.
// Account creation lives with the identity provider; this package only reads.
package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/radif/imagehost/internal/db"
)

// Account represents a registered image-host account.
type Account struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	TierName  *string   `json:"tier,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ErrNotFound is returned when an account does not exist.
var ErrNotFound = errors.New("account not found")

// Repository handles account database reads.
type Repository struct {
	db db.DBTX
}

// NewRepository creates a new Repository with the given connection.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{db: conn}
}

// GetByID fetches an account and the name of its tier by account UUID.
func (r *Repository) GetByID(ctx context.Context, id string) (*Account, error) {
	a := &Account{}
	err := r.db.QueryRow(ctx,
		`SELECT a.id, a.username, t.name, a.created_at
		 FROM accounts a LEFT JOIN tiers t ON t.id = a.tier_id
		 WHERE a.id = $1`,
		id,
	).Scan(&a.ID, &a.Username, &a.TierName, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account by id: %w", err)
	}
	return a, nil
}

// GetByUsername fetches an account by its unique username.
func (r *Repository) GetByUsername(ctx context.Context, username string) (*Account, error) {
	a := &Account{}
	err := r.db.QueryRow(ctx,
		`SELECT a.id, a.username, t.name, a.created_at
		 FROM accounts a LEFT JOIN tiers t ON t.id = a.tier_id
		 WHERE a.username = $1`,
		username,
	).Scan(&a.ID, &a.Username, &a.TierName, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account by username: %w", err)
	}
	return a, nil
}
