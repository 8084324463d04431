package media

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/radif/imagehost/internal/account"
	"github.com/radif/imagehost/internal/imaging"
	"github.com/radif/imagehost/internal/signedlink"
	"github.com/radif/imagehost/internal/storage"
	"github.com/radif/imagehost/internal/tier"
)

type memImages struct {
	mu   sync.Mutex
	rows []Image
	// failCreate, when set, is returned by every Create call.
	failCreate error
}

func (m *memImages) Create(_ context.Context, img *Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate != nil {
		return m.failCreate
	}
	for _, r := range m.rows {
		if r.AccountID == img.AccountID && r.Name == img.Name {
			return ErrNameTaken
		}
	}
	img.ID = uuid.NewString()
	img.CreatedAt = time.Now()
	m.rows = append(m.rows, *img)
	return nil
}

func (m *memImages) GetByName(_ context.Context, accountID, name string) (*Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.AccountID == accountID && r.Name == name {
			img := r
			return &img, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memImages) ListByAccount(_ context.Context, accountID string) ([]Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Image
	for _, r := range m.rows {
		if r.AccountID == accountID {
			out = append(out, r)
		}
	}
	return out, nil
}

// recordingBlobs remembers which keys were written and removed.
type recordingBlobs struct {
	*storage.MemoryStorage
	uploaded []string
	deleted  []string
}

func (r *recordingBlobs) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	r.uploaded = append(r.uploaded, key)
	return r.MemoryStorage.Upload(ctx, key, body, size, contentType)
}

func (r *recordingBlobs) Delete(ctx context.Context, key string) error {
	r.deleted = append(r.deleted, key)
	return r.MemoryStorage.Delete(ctx, key)
}

// staticPrincipals resolves account ids from a fixed map, as if read from the
// database. An entry with a zero tier stands for an account without one.
type staticPrincipals map[string]account.Principal

func (s staticPrincipals) Principal(_ context.Context, id string) (account.Principal, error) {
	p, ok := s[id]
	if !ok {
		return account.Principal{}, account.ErrNotFound
	}
	if p.Tier.Name == "" {
		return account.Principal{}, account.ErrNoTier
	}
	return p, nil
}

func mustTier(t *testing.T, name string, original, links bool, heights ...int) tier.Tier {
	t.Helper()
	hs, err := tier.NewHeightSet(heights...)
	require.NoError(t, err)
	return tier.Tier{Name: name, Heights: hs, CanAccessOriginal: original, CanCreateExpiringLink: links}
}

func basicTier(t *testing.T) tier.Tier { return mustTier(t, "Basic", false, false, 200) }
func premiumTier(t *testing.T) tier.Tier {
	return mustTier(t, "Premium", true, false, 200, 400)
}
func enterpriseTier(t *testing.T) tier.Tier {
	return mustTier(t, "Enterprise", true, true, 200, 400)
}

func fill(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{B: 200, A: 255})
		}
	}
	return img
}

func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, fill(w, h)))
	return buf.Bytes()
}

func jpegImage(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, fill(w, h), nil))
	return buf.Bytes()
}

func imageSize(t *testing.T, b []byte) (int, int) {
	t.Helper()
	cfg, _, err := imaging.DecodeConfig(b)
	require.NoError(t, err)
	return cfg.Width, cfg.Height
}

type fixture struct {
	svc        *Service
	images     *memImages
	blobs      *storage.MemoryStorage
	principals staticPrincipals
	now        time.Time
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		images:     &memImages{},
		blobs:      storage.NewMemoryStorage(),
		principals: staticPrincipals{},
		now:        time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	signer, err := signedlink.New([]byte("link-secret"), signedlink.WithClock(func() time.Time { return f.now }))
	require.NoError(t, err)

	f.svc = NewService(f.images, f.blobs, imaging.NewPool(2), signer, f.principals, Limits{
		MaxBytes:            2 << 20,
		MaxPixels:           50_000_000,
		AllowedContentTypes: []string{"image/jpeg", "image/png"},
	})
	return f
}

// principal registers an account with tier t and returns its principal.
func (f *fixture) principal(t tier.Tier) account.Principal {
	p := account.Principal{AccountID: uuid.NewString(), Tier: t}
	f.principals[p.AccountID] = p
	return p
}

func (f *fixture) upload(t *testing.T, p account.Principal, filename, contentType string, data []byte) string {
	t.Helper()
	name, _, err := f.svc.Upload(context.Background(), p, "http://img.test", UploadInput{
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		Body:        bytes.NewReader(data),
	})
	require.NoError(t, err)
	return name
}
