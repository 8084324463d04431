package account

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/radif/imagehost/internal/middleware"
	"github.com/radif/imagehost/internal/response"
	"github.com/radif/imagehost/internal/tier"
)

// Profile is the caller's account together with what its tier grants.
type Profile struct {
	Account
	Entitlements *Entitlements `json:"entitlements,omitempty"`
}

// Entitlements describes a tier as seen by its members.
type Entitlements struct {
	Tier                  string `json:"tier"`
	ThumbnailHeights      []int  `json:"thumbnail_heights"`
	CanAccessOriginal     bool   `json:"can_access_original"`
	CanCreateExpiringLink bool   `json:"can_create_expiring_link"`
}

func entitlementsOf(t tier.Tier) *Entitlements {
	return &Entitlements{
		Tier:                  t.Name,
		ThumbnailHeights:      t.Heights.Values(),
		CanAccessOriginal:     t.AllowsOriginal(),
		CanCreateExpiringLink: t.AllowsExpiringLink(),
	}
}

// Handler holds HTTP handlers for account endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new account Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// GetMe godoc
//
//	@Summary		Get current account
//	@Description	Returns the authenticated account and the entitlements of its current tier.
//	@Tags			accounts
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	Profile
//	@Failure		401	{object}	response.ErrorBody
//	@Failure		404	{object}	response.ErrorBody
//	@Failure		500	{object}	response.ErrorBody
//	@Router			/me [get]
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	a, err := h.svc.GetByID(r.Context(), id.AccountID)
	if err != nil {
		if h.svc.IsNotFound(err) {
			response.NotFound(w, "account not found")
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to load account")
		response.InternalError(w)
		return
	}

	p := Profile{Account: *a}
	if a.TierName != nil {
		t, err := h.svc.tiers.Lookup(*a.TierName)
		switch {
		case err == nil:
			p.Entitlements = entitlementsOf(t)
		case errors.Is(err, tier.ErrUnknownTier):
			zerolog.Ctx(r.Context()).Warn().Str("tier", *a.TierName).Msg("account tier missing from registry")
		default:
			response.InternalError(w)
			return
		}
	}
	response.OK(w, p)
}
