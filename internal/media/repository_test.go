package media

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radif/imagehost/internal/imaging"
)

var imageColumns = []string{"id", "account_id", "name", "object_key", "format", "size_bytes", "created_at"}

func newMockRepo(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewRepository(mock), mock
}

func TestRepository_Create(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(`INSERT INTO images`).
		WithArgs("acct-1", "a.png", "acct-1/k.png", "png", int64(42)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow("img-1", created))

	img := &Image{AccountID: "acct-1", Name: "a.png", ObjectKey: "acct-1/k.png", Format: imaging.FormatPNG, Size: 42}
	require.NoError(t, repo.Create(context.Background(), img))
	assert.Equal(t, "img-1", img.ID)
	assert.Equal(t, created, img.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CreateNameTaken(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`INSERT INTO images`).
		WithArgs("acct-1", "a.png", "k", "png", int64(1)).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(context.Background(), &Image{AccountID: "acct-1", Name: "a.png", ObjectKey: "k", Format: imaging.FormatPNG, Size: 1})
	assert.ErrorIs(t, err, ErrNameTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetByName(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, account_id, name, object_key, format, size_bytes, created_at\s+FROM images WHERE account_id = \$1 AND name = \$2`).
		WithArgs("acct-1", "a.jpg").
		WillReturnRows(pgxmock.NewRows(imageColumns).
			AddRow("img-1", "acct-1", "a.jpg", "acct-1/k.jpeg", "jpeg", int64(9), created))

	img, err := repo.GetByName(context.Background(), "acct-1", "a.jpg")
	require.NoError(t, err)
	assert.Equal(t, imaging.FormatJPEG, img.Format)
	assert.Equal(t, "acct-1/k.jpeg", img.ObjectKey)

	mock.ExpectQuery(`SELECT id`).
		WithArgs("acct-1", "nope").
		WillReturnError(pgx.ErrNoRows)
	_, err = repo.GetByName(context.Background(), "acct-1", "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListByAccount(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`FROM images WHERE account_id = \$1\s+ORDER BY created_at, name`).
		WithArgs("acct-1").
		WillReturnRows(pgxmock.NewRows(imageColumns).
			AddRow("img-1", "acct-1", "a.png", "k1", "png", int64(1), now).
			AddRow("img-2", "acct-1", "b.jpg", "k2", "jpeg", int64(2), now))

	imgs, err := repo.ListByAccount(context.Background(), "acct-1")
	require.NoError(t, err)
	require.Len(t, imgs, 2)
	assert.Equal(t, "b.jpg", imgs[1].Name)
	assert.Equal(t, imaging.FormatJPEG, imgs[1].Format)

	mock.ExpectQuery(`FROM images`).WithArgs("acct-2").WillReturnError(errors.New("boom"))
	_, err = repo.ListByAccount(context.Background(), "acct-2")
	assert.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}
