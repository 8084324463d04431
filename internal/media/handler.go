package media

import (
	"errors"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/radif/imagehost/internal/access"
	"github.com/radif/imagehost/internal/account"
	"github.com/radif/imagehost/internal/imaging"
	"github.com/radif/imagehost/internal/middleware"
	"github.com/radif/imagehost/internal/response"
	"github.com/radif/imagehost/internal/signedlink"
	"github.com/radif/imagehost/internal/tier"
)

// multipartOverhead is extra body allowance for multipart framing on top of
// the file size limit, so oversized files are reported by the size rule
// rather than as a truncated body.
const multipartOverhead = 1 << 20

// Messages for errors rendered as {"error": ...}.
const (
	msgExpired     = "URL has expired"
	msgInvalidLink = "Invalid URL"
	msgUnreadable  = "Unable to read image file"
	msgNotFound    = "image not found"
	msgNoTier      = "account has no tier"
)

// HandlerConfig configures link building and upload limits for a Handler.
type HandlerConfig struct {
	// PublicBase prefixes every generated URL. When empty, URLs are built
	// from the request's host.
	PublicBase string
	// TrustForwardedProto honours X-Forwarded-Proto when PublicBase is empty.
	// Enable it only behind a proxy that sets or strips the header.
	TrustForwardedProto bool
	MaxBytes            int64
}

// Handler holds HTTP handlers for media endpoints.
type Handler struct {
	svc        *Service
	principals PrincipalResolver
	cfg        HandlerConfig
}

// NewHandler creates a new media Handler. Callers are judged by their
// account's current tier as resolved by principals.
func NewHandler(svc *Service, principals PrincipalResolver, cfg HandlerConfig) *Handler {
	return &Handler{svc: svc, principals: principals, cfg: cfg}
}

// Routes returns the media routes. Every route except link redemption sits
// behind requireAuth.
func (h *Handler) Routes(requireAuth func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/expiring-data/images/", h.RedeemLink)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/upload", h.Upload)
		r.Get("/images/thumbnails/*", h.GetThumbnail)
		r.Get("/images/*", h.GetOriginal)
		r.Get("/expiring-link/*", h.CreateExpiringLink)
		r.Get("/list_images/", h.ListImages)
	})
	return r
}

func (h *Handler) base(r *http.Request) string {
	if h.cfg.PublicBase != "" {
		return h.cfg.PublicBase
	}
	return RequestBase(r, h.cfg.TrustForwardedProto)
}

// wildcard returns the decoded catch-all path parameter. chi matches on
// RawPath when the request carries one, leaving escapes in the parameter.
func wildcard(r *http.Request) string {
	raw := chi.URLParam(r, "*")
	if r.URL.RawPath == "" {
		return raw
	}
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

// principal resolves the authenticated caller, writing an error response
// and returning false when that is not possible.
func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (account.Principal, bool) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return account.Principal{}, false
	}
	p, err := h.principals.Principal(r.Context(), id.AccountID)
	if errors.Is(err, account.ErrNotFound) {
		response.Unauthorized(w, "unauthorized")
		return account.Principal{}, false
	}
	if err != nil {
		h.writeError(w, r, err)
		return account.Principal{}, false
	}
	return p, true
}

// writeError maps service errors to HTTP responses.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr *ValidationError
		ferr *access.ForbiddenError
	)
	switch {
	case errors.As(err, &verr):
		response.Invalid(w, response.FieldErrors{"image": verr.Reasons})
	case errors.As(err, &ferr):
		response.BadRequest(w, ferr.Reason)
	case errors.Is(err, account.ErrNoTier), errors.Is(err, tier.ErrUnknownTier):
		response.BadRequest(w, msgNoTier)
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, msgNotFound)
	case errors.Is(err, ErrMissingName):
		response.BadRequest(w, "No image name provided")
	case errors.Is(err, signedlink.ErrInvalidTTL):
		lo, hi := h.svc.signer.TTLBounds()
		response.BadRequest(w, "Expiration time must be an integer between "+strconv.Itoa(lo)+" and "+strconv.Itoa(hi))
	case errors.Is(err, signedlink.ErrExpired):
		response.BadRequest(w, msgExpired)
	case errors.Is(err, signedlink.ErrInvalidSignature):
		response.BadRequest(w, msgInvalidLink)
	case errors.Is(err, imaging.ErrDecode), errors.Is(err, imaging.ErrUnsupportedFormat):
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("stored image could not be decoded")
		response.BadRequest(w, msgUnreadable)
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		response.InternalError(w)
	}
}

func writeBlob(w http.ResponseWriter, b Blob) {
	response.Blob(w, b.ContentType(), b.Data)
}

// Upload godoc
//
//	@Summary		Upload image
//	@Description	Upload a JPEG or PNG (multipart field "image", at most 2 MB). Returns the stored name mapped to the URLs the caller's tier may use.
//	@Tags			images
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			image	formData	file	true	"Image file"
//	@Success		201		{object}	map[string]Entry
//	@Failure		400		{object}	response.FieldErrors
//	@Failure		401		{object}	response.ErrorBody
//	@Router			/upload [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxBytes+multipartOverhead)
	file, header, err := r.FormFile("image")
	if err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig), r.ContentLength > h.cfg.MaxBytes+multipartOverhead:
			h.writeError(w, r, &ValidationError{Reasons: []string{"Maximum file size is " + humanSize(h.cfg.MaxBytes)}})
		default:
			response.Invalid(w, response.FieldErrors{"image": {ReasonMissing}})
		}
		return
	}
	defer file.Close()

	name, e, err := h.svc.Upload(r.Context(), p, h.base(r), UploadInput{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Created(w, map[string]Entry{name: e})
}

// GetOriginal godoc
//
//	@Summary		Get original image
//	@Tags			images
//	@Produce		image/png,image/jpeg
//	@Security		BearerAuth
//	@Param			path	path		string	true	"Image name"
//	@Success		200		{file}		binary
//	@Failure		400		{object}	response.ErrorBody
//	@Failure		404		{object}	response.ErrorBody
//	@Router			/images/{path} [get]
func (h *Handler) GetOriginal(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	name := path.Base(wildcard(r))
	if name == "" || name == "." || name == "/" {
		response.NotFound(w, msgNotFound)
		return
	}

	b, err := h.svc.FetchOriginal(r.Context(), p, name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeBlob(w, b)
}

// splitTrailingInt splits "a/b/123" into "a/b" and 123.
func splitTrailingInt(s string) (string, int, bool) {
	i := strings.LastIndex(s, "/")
	if i <= 0 {
		return "", 0, false
	}
	n, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return "", 0, false
	}
	return s[:i], n, true
}

// GetThumbnail godoc
//
//	@Summary		Get thumbnail
//	@Description	Returns the image scaled to the requested height, which must be one of the caller's tier heights.
//	@Tags			images
//	@Produce		image/png,image/jpeg
//	@Security		BearerAuth
//	@Param			path	path		string	true	"Image name"
//	@Param			height	path		int		true	"Thumbnail height"
//	@Success		200		{file}		binary
//	@Failure		400		{object}	response.ErrorBody
//	@Failure		404		{object}	response.ErrorBody
//	@Router			/images/thumbnails/{path}/{height} [get]
func (h *Handler) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	rest, height, ok := splitTrailingInt(wildcard(r))
	if !ok {
		response.NotFound(w, msgNotFound)
		return
	}

	b, err := h.svc.FetchThumbnail(r.Context(), p, path.Base(rest), height)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeBlob(w, b)
}

// parseLinkPath splits "{path}/{expire}" or "{path}/{height}/{expire}".
// A non-numeric expire is returned as 0, which no TTL range accepts.
func parseLinkPath(raw string) (name string, height *int, expire int) {
	segs := strings.Split(strings.Trim(raw, "/"), "/")
	if len(segs) < 2 {
		if len(segs) == 1 {
			if n, err := strconv.Atoi(segs[0]); err == nil {
				return "", nil, n
			}
		}
		return "", nil, 0
	}
	expire, _ = strconv.Atoi(segs[len(segs)-1])
	segs = segs[:len(segs)-1]

	if len(segs) >= 2 {
		if h, err := strconv.Atoi(segs[len(segs)-1]); err == nil {
			height = &h
			segs = segs[:len(segs)-1]
		}
	}
	return path.Base(strings.Join(segs, "/")), height, expire
}

// CreateExpiringLink godoc
//
//	@Summary		Create expiring link
//	@Description	Signs a link to an original or thumbnail that works without a bearer token for expire seconds (300 to 30000).
//	@Tags			links
//	@Produce		json
//	@Security		BearerAuth
//	@Param			path	path		string	true	"Image name"
//	@Param			height	path		int		false	"Thumbnail height"
//	@Param			expire	path		int		true	"Lifetime in seconds"
//	@Success		200		{object}	Link
//	@Failure		400		{object}	response.ErrorBody
//	@Router			/expiring-link/{path}/{height}/{expire} [get]
func (h *Handler) CreateExpiringLink(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	name, height, expire := parseLinkPath(wildcard(r))

	link, err := h.svc.MintLink(r.Context(), p, h.base(r), name, height, expire)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, link)
}

// RedeemLink godoc
//
//	@Summary		Redeem expiring link
//	@Description	Serves the image a signed link grants, with the minting account's current entitlements.
//	@Tags			links
//	@Produce		image/png,image/jpeg
//	@Param			signature	query		string	true	"Signed token"
//	@Success		200			{file}		binary
//	@Failure		400			{object}	response.ErrorBody
//	@Failure		404			{object}	response.ErrorBody
//	@Router			/expiring-data/images/ [get]
func (h *Handler) RedeemLink(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.Redeem(r.Context(), r.URL.Query().Get("signature"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeBlob(w, b)
}

// ListImages godoc
//
//	@Summary		List images
//	@Description	Maps each of the caller's image names to its original URL (when entitled) and one thumbnail URL per tier height.
//	@Tags			images
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	map[string]Entry
//	@Failure		401	{object}	response.ErrorBody
//	@Router			/list_images/ [get]
func (h *Handler) ListImages(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	out, err := h.svc.List(r.Context(), p, h.base(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, out)
}
