package tier

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/radif/imagehost/internal/db"
)

// Repository reads tiers from PostgreSQL. Tier administration happens
// outside the service, so the repository is read-only.
type Repository struct {
	db db.DBTX
}

// NewRepository creates a new tier Repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{db: conn}
}

// List returns every tier ordered by id.
func (r *Repository) List(ctx context.Context) ([]Tier, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, thumbnail_heights, access_to_original, expiring_link_creation
		 FROM tiers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list tiers: %w", err)
	}
	defer rows.Close()

	var out []Tier
	for rows.Next() {
		t, err := scanTier(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tiers: %w", err)
	}
	return out, nil
}

// GetByName fetches a single tier by its unique name.
func (r *Repository) GetByName(ctx context.Context, name string) (Tier, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, name, thumbnail_heights, access_to_original, expiring_link_creation
		 FROM tiers WHERE name = $1`,
		name,
	)
	t, err := scanTier(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Tier{}, fmt.Errorf("%w: %q", ErrUnknownTier, name)
	}
	return t, err
}

func scanTier(row pgx.Row) (Tier, error) {
	var (
		t       Tier
		heights []int32
	)
	if err := row.Scan(&t.ID, &t.Name, &heights, &t.CanAccessOriginal, &t.CanCreateExpiringLink); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tier{}, err
		}
		return Tier{}, fmt.Errorf("scan tier: %w", err)
	}
	hs := make([]int, len(heights))
	for i, h := range heights {
		hs[i] = int(h)
	}
	set, err := NewHeightSet(hs...)
	if err != nil {
		return Tier{}, fmt.Errorf("tier %q: %w", t.Name, err)
	}
	t.Heights = set
	return t, nil
}
