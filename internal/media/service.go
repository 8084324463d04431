// Package media answers upload, fetch, listing and expiring-link requests.
// Every fetch passes the tier gate before the image is looked up, so a caller
// without the entitlement learns nothing about whether an image exists.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/radif/imagehost/internal/access"
	"github.com/radif/imagehost/internal/account"
	"github.com/radif/imagehost/internal/imaging"
	"github.com/radif/imagehost/internal/signedlink"
	"github.com/radif/imagehost/internal/storage"
)

// Validation messages reported for the "image" upload field.
const (
	ReasonMissing     = "No file was submitted."
	ReasonType        = "Only JPEG and PNG images are supported"
	ReasonInvalid     = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	reasonSizeFormat  = "Maximum file size is %s"
	reasonPixelFormat = "Image dimensions exceed %d pixels"
)

// maxNameAttempts bounds how many suffixed names Upload tries after a collision.
const maxNameAttempts = 5

var (
	// ErrValidation matches every *ValidationError via errors.Is.
	ErrValidation = errors.New("validation failed")
	// ErrMissingName is returned when a link is requested without an image name.
	ErrMissingName = errors.New("no image name provided")
)

// ValidationError lists every rule an upload violated.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return "invalid upload: " + strings.Join(e.Reasons, "; ")
}

// Is makes errors.Is(err, ErrValidation) hold.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Limits are the upload constraints.
type Limits struct {
	MaxBytes            int64
	MaxPixels           int64
	AllowedContentTypes []string
}

// ImageStore persists image metadata.
type ImageStore interface {
	Create(ctx context.Context, img *Image) error
	GetByName(ctx context.Context, accountID, name string) (*Image, error)
	ListByAccount(ctx context.Context, accountID string) ([]Image, error)
}

// PrincipalResolver resolves an account id to its current tier.
type PrincipalResolver interface {
	Principal(ctx context.Context, accountID string) (account.Principal, error)
}

// Thumbnail is a listed thumbnail variant.
type Thumbnail struct {
	Height int    `json:"height"`
	URL    string `json:"url"`
}

// Entry lists the URLs available for one image.
type Entry struct {
	OriginalURL string      `json:"original_url,omitempty"`
	Thumbnails  []Thumbnail `json:"thumbnails"`
}

// Blob is image bytes ready to be served.
type Blob struct {
	Data   []byte
	Format imaging.Format
}

// ContentType returns the MIME type of the blob.
func (b Blob) ContentType() string { return b.Format.ContentType() }

// Link describes a freshly minted expiring link.
type Link struct {
	ExpiringURL string    `json:"expiring_url"`
	ImageURL    string    `json:"image_url"`
	IsThumbnail bool      `json:"is_thumbnail"`
	Height      *int      `json:"height"`
	ExpireAt    time.Time `json:"expire_at"`
}

// UploadInput is an image submitted for upload.
type UploadInput struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Service orchestrates the tier gate, the derivation engine, the signer and
// the stores.
type Service struct {
	images     ImageStore
	blobs      storage.Storage
	deriver    imaging.Deriver
	signer     *signedlink.Signer
	principals PrincipalResolver
	limits     Limits
}

// NewService creates a media Service.
func NewService(images ImageStore, blobs storage.Storage, deriver imaging.Deriver, signer *signedlink.Signer, principals PrincipalResolver, limits Limits) *Service {
	return &Service{
		images:     images,
		blobs:      blobs,
		deriver:    deriver,
		signer:     signer,
		principals: principals,
		limits:     limits,
	}
}

// entry builds the listing entry for name under the principal's tier.
func entry(p account.Principal, links Links, name string) Entry {
	e := Entry{Thumbnails: make([]Thumbnail, 0, p.Tier.Heights.Len())}
	for _, h := range p.Tier.Heights.Values() {
		e.Thumbnails = append(e.Thumbnails, Thumbnail{Height: h, URL: links.Thumbnail(name, h)})
	}
	if p.Tier.AllowsOriginal() {
		e.OriginalURL = links.Original(name)
	}
	return e
}

func formatForContentType(ct string) (imaging.Format, bool) {
	switch ct {
	case "image/jpeg", "image/jpg", "image/pjpeg":
		return imaging.FormatJPEG, true
	case "image/png":
		return imaging.FormatPNG, true
	}
	return "", false
}

func (s *Service) allowedType(ct string) (imaging.Format, bool) {
	f, ok := formatForContentType(ct)
	if !ok {
		return "", false
	}
	for _, allowed := range s.limits.AllowedContentTypes {
		if af, ok := formatForContentType(allowed); ok && af == f {
			return f, true
		}
	}
	return "", false
}

func humanSize(n int64) string {
	const mib = 1024 * 1024
	if n%mib == 0 {
		return fmt.Sprintf("%d MB", n/mib)
	}
	return fmt.Sprintf("%d bytes", n)
}

// sanitizeName keeps only the base name of a client-supplied filename.
func sanitizeName(filename string, f imaging.Format) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" || name == "." || name == "/" {
		name = uuid.NewString() + "." + string(f)
	}
	return name
}

// suffixed inserts a short random suffix before the extension.
func suffixed(name string) string {
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	return stem + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8] + ext
}

// Upload validates and stores an image for the principal and returns the
// stored name together with its listing entry.
func (s *Service) Upload(ctx context.Context, p account.Principal, base string, in UploadInput) (string, Entry, error) {
	var reasons []string
	f, typeOK := s.allowedType(strings.ToLower(strings.TrimSpace(in.ContentType)))
	if !typeOK {
		reasons = append(reasons, ReasonType)
	}
	if in.Size > s.limits.MaxBytes {
		reasons = append(reasons, fmt.Sprintf(reasonSizeFormat, humanSize(s.limits.MaxBytes)))
	}
	if len(reasons) > 0 {
		return "", Entry{}, &ValidationError{Reasons: reasons}
	}

	data, err := io.ReadAll(io.LimitReader(in.Body, s.limits.MaxBytes+1))
	if err != nil {
		return "", Entry{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.limits.MaxBytes {
		return "", Entry{}, &ValidationError{Reasons: []string{fmt.Sprintf(reasonSizeFormat, humanSize(s.limits.MaxBytes))}}
	}

	cfg, decoded, err := imaging.DecodeConfig(data)
	if err != nil || decoded != f {
		return "", Entry{}, &ValidationError{Reasons: []string{ReasonInvalid}}
	}
	if s.limits.MaxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > s.limits.MaxPixels {
		return "", Entry{}, &ValidationError{Reasons: []string{fmt.Sprintf(reasonPixelFormat, s.limits.MaxPixels)}}
	}

	img := &Image{
		AccountID: p.AccountID,
		Name:      sanitizeName(in.Filename, f),
		ObjectKey: p.AccountID + "/" + uuid.NewString() + "." + string(f),
		Format:    f,
		Size:      int64(len(data)),
	}
	if err := s.blobs.Upload(ctx, img.ObjectKey, bytes.NewReader(data), img.Size, f.ContentType()); err != nil {
		return "", Entry{}, fmt.Errorf("store original: %w", err)
	}

	if err := s.createWithUniqueName(ctx, img); err != nil {
		if delErr := s.blobs.Delete(ctx, img.ObjectKey); delErr != nil {
			zerolog.Ctx(ctx).Warn().Err(delErr).Str("object_key", img.ObjectKey).Msg("failed to remove orphaned original")
		}
		return "", Entry{}, err
	}

	zerolog.Ctx(ctx).Info().
		Str("image_id", img.ID).
		Str("name", img.Name).
		Int64("bytes", img.Size).
		Msg("image uploaded")

	return img.Name, entry(p, NewLinks(base), img.Name), nil
}

func (s *Service) createWithUniqueName(ctx context.Context, img *Image) error {
	original := img.Name
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		err := s.images.Create(ctx, img)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrNameTaken) {
			return fmt.Errorf("save image: %w", err)
		}
		img.Name = suffixed(original)
	}
	return fmt.Errorf("save image %q: %w", original, ErrNameTaken)
}

// List returns every image of the principal keyed by name.
func (s *Service) List(ctx context.Context, p account.Principal, base string) (map[string]Entry, error) {
	imgs, err := s.images.ListByAccount(ctx, p.AccountID)
	if err != nil {
		return nil, err
	}
	links := NewLinks(base)
	out := make(map[string]Entry, len(imgs))
	for _, img := range imgs {
		out[img.Name] = entry(p, links, img.Name)
	}
	return out, nil
}

func (s *Service) load(ctx context.Context, p account.Principal, name string) (*Image, []byte, error) {
	img, err := s.images.GetByName(ctx, p.AccountID, name)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.blobs.Download(ctx, img.ObjectKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load original: %w", err)
	}
	return img, data, nil
}

// FetchOriginal returns the stored original.
func (s *Service) FetchOriginal(ctx context.Context, p account.Principal, name string) (Blob, error) {
	if err := access.CheckOriginal(p.Tier); err != nil {
		return Blob{}, err
	}
	_, data, err := s.load(ctx, p, name)
	if err != nil {
		return Blob{}, err
	}
	_, f, err := imaging.DecodeConfig(data)
	if err != nil {
		return Blob{}, err
	}
	return Blob{Data: data, Format: f}, nil
}

// FetchThumbnail returns the original scaled to height.
func (s *Service) FetchThumbnail(ctx context.Context, p account.Principal, name string, height int) (Blob, error) {
	if err := access.CheckThumbnail(p.Tier, height); err != nil {
		return Blob{}, err
	}
	img, data, err := s.load(ctx, p, name)
	if err != nil {
		return Blob{}, err
	}
	out, f, err := s.deriver.Derive(ctx, img.ID, data, height)
	if err != nil {
		return Blob{}, err
	}
	return Blob{Data: out, Format: f}, nil
}

// MintLink signs an expiring link to an original (height nil) or a thumbnail.
// Entitlement is checked first, then the name, then the TTL. Whether the
// target is reachable is decided when the link is redeemed.
func (s *Service) MintLink(ctx context.Context, p account.Principal, base, name string, height *int, ttl int) (Link, error) {
	if err := access.CheckExpiringLink(p.Tier); err != nil {
		return Link{}, err
	}
	if name == "" {
		return Link{}, ErrMissingName
	}

	links := NewLinks(base)
	link := Link{ImageURL: links.Original(name)}
	if height != nil {
		h := *height
		link.IsThumbnail = true
		link.Height = &h
		link.ImageURL = links.Thumbnail(name, h)
	}

	token, expiresAt, err := s.signer.Issue(link.ImageURL, p.AccountID, ttl)
	if err != nil {
		return Link{}, err
	}
	link.ExpiringURL = links.Redeem(token)
	link.ExpireAt = expiresAt

	zerolog.Ctx(ctx).Info().
		Str("image_url", link.ImageURL).
		Time("expire_at", expiresAt).
		Msg("expiring link minted")
	return link, nil
}

// Redeem verifies token and serves the resource it grants as the account
// that minted it. The minting account's current tier is re-checked.
func (s *Service) Redeem(ctx context.Context, token string) (Blob, error) {
	grant, err := s.signer.Verify(token)
	if err != nil {
		return Blob{}, err
	}
	res, err := parseResource(grant.URL)
	if err != nil {
		return Blob{}, fmt.Errorf("%w: %v", signedlink.ErrInvalidSignature, err)
	}

	p, err := s.principals.Principal(ctx, grant.Subject)
	if errors.Is(err, account.ErrNotFound) {
		return Blob{}, fmt.Errorf("%w: minting account is gone", signedlink.ErrInvalidSignature)
	}
	if err != nil {
		return Blob{}, err
	}

	if res.Height == 0 {
		return s.FetchOriginal(ctx, p, res.Name)
	}
	return s.FetchThumbnail(ctx, p, res.Name, res.Height)
}
