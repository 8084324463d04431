package media

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/radif/imagehost/internal/db"
	"github.com/radif/imagehost/internal/imaging"
)

// Image is an uploaded original. It is immutable once stored.
type Image struct {
	ID        string
	AccountID string
	Name      string
	ObjectKey string
	Format    imaging.Format
	Size      int64
	CreatedAt time.Time
}

var (
	// ErrNotFound is returned when the caller has no image with the requested name.
	ErrNotFound = errors.New("image not found")
	// ErrNameTaken is returned when the account already has an image with the name.
	ErrNameTaken = errors.New("image name already taken")
)

// Repository handles image metadata persistence.
type Repository struct {
	db db.DBTX
}

// NewRepository creates a new image Repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{db: conn}
}

// Create inserts img and fills in its generated id and creation time.
func (r *Repository) Create(ctx context.Context, img *Image) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO images (account_id, name, object_key, format, size_bytes)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		img.AccountID, img.Name, img.ObjectKey, string(img.Format), img.Size,
	).Scan(&img.ID, &img.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrNameTaken
		}
		return fmt.Errorf("create image: %w", err)
	}
	return nil
}

// GetByName fetches one of the account's images by name. Images owned by
// other accounts are reported as ErrNotFound.
func (r *Repository) GetByName(ctx context.Context, accountID, name string) (*Image, error) {
	img := &Image{}
	var format string
	err := r.db.QueryRow(ctx,
		`SELECT id, account_id, name, object_key, format, size_bytes, created_at
		 FROM images WHERE account_id = $1 AND name = $2`,
		accountID, name,
	).Scan(&img.ID, &img.AccountID, &img.Name, &img.ObjectKey, &format, &img.Size, &img.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get image by name: %w", err)
	}
	img.Format = imaging.Format(format)
	return img, nil
}

// ListByAccount returns the account's images, oldest first.
func (r *Repository) ListByAccount(ctx context.Context, accountID string) ([]Image, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, account_id, name, object_key, format, size_bytes, created_at
		 FROM images WHERE account_id = $1
		 ORDER BY created_at, name`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	var out []Image
	for rows.Next() {
		var (
			img    Image
			format string
		)
		if err := rows.Scan(&img.ID, &img.AccountID, &img.Name, &img.ObjectKey, &format, &img.Size, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		img.Format = imaging.Format(format)
		out = append(out, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate images: %w", err)
	}
	return out, nil
}
