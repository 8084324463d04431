package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Storage = (*MemoryStorage)(nil)
var _ Storage = (*MinioStorage)(nil)

func TestMemoryStorage(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	_, err := s.Download(ctx, "acct/a.png")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Upload(ctx, "acct/a.png", strings.NewReader("data"), 4, "image/png"))

	got, err := s.Download(ctx, "acct/a.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), got)

	got[0] = 'X'
	again, err := s.Download(ctx, "acct/a.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), again)

	require.NoError(t, s.Delete(ctx, "acct/a.png"))
	require.NoError(t, s.Delete(ctx, "acct/a.png"))
	_, err = s.Download(ctx, "acct/a.png")
	assert.ErrorIs(t, err, ErrNotFound)
}
