package tier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHeightSet(t *testing.T) {
	hs, err := NewHeightSet(400, 200, 400, 10, 1000)
	require.NoError(t, err)
	assert.Equal(t, []int{400, 200, 10, 1000}, hs.Values())
	assert.Equal(t, 4, hs.Len())

	for _, bad := range []int{9, 1001, 0, -5} {
		_, err := NewHeightSet(200, bad)
		assert.ErrorIs(t, err, ErrHeightOutOfRange, "height %d", bad)
	}

	empty, err := NewHeightSet()
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
	assert.False(t, empty.Contains(200))
}

func TestHeightSet_ValuesIsACopy(t *testing.T) {
	hs, err := NewHeightSet(100, 200)
	require.NoError(t, err)
	v := hs.Values()
	v[0] = 999
	assert.Equal(t, []int{100, 200}, hs.Values())
}

func TestTierPredicates(t *testing.T) {
	hs, err := NewHeightSet(100, 200)
	require.NoError(t, err)
	tr := Tier{Name: "Premium", Heights: hs, CanAccessOriginal: true}

	assert.True(t, tr.AllowsOriginal())
	assert.False(t, tr.AllowsExpiringLink())
	assert.True(t, tr.AllowsThumbnail(100))
	assert.True(t, tr.AllowsThumbnail(200))
	assert.False(t, tr.AllowsThumbnail(150))
	assert.False(t, tr.AllowsThumbnail(33))

	var zero Tier
	assert.False(t, zero.AllowsOriginal())
	assert.False(t, zero.AllowsThumbnail(200))
	assert.False(t, zero.AllowsExpiringLink())
}

type fakeLister struct {
	tiers []Tier
	err   error
}

func (f fakeLister) List(context.Context) ([]Tier, error) { return f.tiers, f.err }

func TestRegistry(t *testing.T) {
	reg, err := LoadRegistry(context.Background(), fakeLister{tiers: []Tier{
		{ID: 1, Name: "Basic"},
		{ID: 2, Name: "Premium", CanAccessOriginal: true},
	}})
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Len())

	p, err := reg.Lookup("Premium")
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.ID)
	assert.True(t, p.AllowsOriginal())

	_, err = reg.Lookup("Gold")
	assert.ErrorIs(t, err, ErrUnknownTier)

	_, err = LoadRegistry(context.Background(), fakeLister{err: errors.New("db down")})
	assert.ErrorContains(t, err, "db down")
}
