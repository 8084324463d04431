package imaging

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openCache(t *testing.T) *BadgerCache {
	t.Helper()
	c, err := OpenBadgerCache("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestBadgerCache_RoundTrip(t *testing.T) {
	c := openCache(t)

	_, _, ok, err := c.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put("img:100", []byte{1, 2, 3}, FormatPNG))
	data, f, ok, err := c.Get("img:100")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, FormatPNG, f)
	assert.Equal(t, []byte{1, 2, 3}, data)
}

func TestBadgerCache_OnDisk(t *testing.T) {
	dir := t.TempDir()
	c, err := OpenBadgerCache(dir)
	require.NoError(t, err)
	require.NoError(t, c.Put("k", []byte("v"), FormatJPEG))
	require.NoError(t, c.Close())

	c, err = OpenBadgerCache(dir)
	require.NoError(t, err)
	defer c.Close()
	data, f, ok, err := c.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, FormatJPEG, f)
	assert.Equal(t, []byte("v"), data)
}

type countingDeriver struct {
	calls atomic.Int32
	err   error
}

func (d *countingDeriver) Derive(_ context.Context, _ string, original []byte, height int) ([]byte, Format, error) {
	d.calls.Add(1)
	if d.err != nil {
		return nil, "", d.err
	}
	return Derive(original, height)
}

func TestCachedDeriver_Memoizes(t *testing.T) {
	inner := &countingDeriver{}
	d := NewCachedDeriver(inner, openCache(t))
	src := pngBytes(t, 60, 30)
	ctx := context.Background()

	first, f, err := d.Derive(ctx, "img-1", src, 10)
	require.NoError(t, err)
	assert.Equal(t, FormatPNG, f)

	second, _, err := d.Derive(ctx, "img-1", src, 10)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), inner.calls.Load())

	_, _, err = d.Derive(ctx, "img-1", src, 20)
	require.NoError(t, err)
	assert.Equal(t, int32(2), inner.calls.Load())
}

func TestCachedDeriver_DoesNotCacheErrors(t *testing.T) {
	inner := &countingDeriver{err: ErrDecode}
	d := NewCachedDeriver(inner, openCache(t))

	for i := 0; i < 2; i++ {
		_, _, err := d.Derive(context.Background(), "bad", nil, 10)
		assert.True(t, errors.Is(err, ErrDecode))
	}
	assert.Equal(t, int32(2), inner.calls.Load())
}

func TestPool_RespectsContext(t *testing.T) {
	p := NewPool(1)
	require.NoError(t, p.sem.Acquire(context.Background(), 1))
	defer p.sem.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, _, err := p.Derive(ctx, "k", pngBytes(t, 10, 10), 10)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPool_Derives(t *testing.T) {
	p := NewPool(0)
	out, f, err := p.Derive(context.Background(), "k", pngBytes(t, 20, 10), 5)
	require.NoError(t, err)
	assert.Equal(t, FormatPNG, f)
	assert.NotEmpty(t, out)
}
