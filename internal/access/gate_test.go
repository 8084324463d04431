package access

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radif/imagehost/internal/tier"
)

func mustTier(t *testing.T, original, links bool, heights ...int) tier.Tier {
	t.Helper()
	hs, err := tier.NewHeightSet(heights...)
	require.NoError(t, err)
	return tier.Tier{Name: "test", Heights: hs, CanAccessOriginal: original, CanCreateExpiringLink: links}
}

func TestCheckOriginal(t *testing.T) {
	assert.NoError(t, CheckOriginal(mustTier(t, true, false)))

	err := CheckOriginal(mustTier(t, false, true, 200))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrForbidden))

	var fe *ForbiddenError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, OpOriginal, fe.Op)
	assert.Equal(t, ReasonOriginal, err.Error())
}

func TestCheckThumbnail_ExactMembership(t *testing.T) {
	tr := mustTier(t, false, false, 100, 200)

	assert.NoError(t, CheckThumbnail(tr, 100))
	assert.NoError(t, CheckThumbnail(tr, 200))

	for _, h := range []int{33, 99, 101, 150, 199, 201, 0, -100} {
		err := CheckThumbnail(tr, h)
		assert.ErrorIs(t, err, ErrForbidden, "height %d", h)
		assert.Contains(t, err.Error(), "height not entitled")
	}
}

func TestCheckThumbnail_EmptyTier(t *testing.T) {
	assert.ErrorIs(t, CheckThumbnail(mustTier(t, true, true), 200), ErrForbidden)
}

func TestCheckExpiringLink(t *testing.T) {
	assert.NoError(t, CheckExpiringLink(mustTier(t, false, true)))

	err := CheckExpiringLink(mustTier(t, true, false, 200))
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, ReasonExpiringLink, err.Error())
}
