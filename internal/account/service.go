package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/radif/imagehost/internal/tier"
)

// ErrNoTier is returned when an account has no tier attached. Such an
// account is denied every media operation.
var ErrNoTier = errors.New("account has no tier")

// Principal is the caller of a media operation: an account and its tier.
type Principal struct {
	AccountID string
	Tier      tier.Tier
}

// Finder looks accounts up by id.
type Finder interface {
	GetByID(ctx context.Context, id string) (*Account, error)
}

// Service resolves accounts into principals.
type Service struct {
	repo  Finder
	tiers *tier.Registry
}

// NewService creates a new account Service.
func NewService(repo Finder, tiers *tier.Registry) *Service {
	return &Service{repo: repo, tiers: tiers}
}

// GetByID returns an account by its UUID.
func (s *Service) GetByID(ctx context.Context, id string) (*Account, error) {
	return s.repo.GetByID(ctx, id)
}

// Principal looks up the account's current tier and returns it as a principal.
func (s *Service) Principal(ctx context.Context, id string) (Principal, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Principal{}, err
	}
	if a.TierName == nil {
		return Principal{}, ErrNoTier
	}
	return s.PrincipalFor(a.ID, *a.TierName)
}

// PrincipalFor builds a principal from an identity already asserted by the
// identity provider.
func (s *Service) PrincipalFor(accountID, tierName string) (Principal, error) {
	if tierName == "" {
		return Principal{}, ErrNoTier
	}
	t, err := s.tiers.Lookup(tierName)
	if err != nil {
		return Principal{}, fmt.Errorf("resolve tier for account %s: %w", accountID, err)
	}
	return Principal{AccountID: accountID, Tier: t}, nil
}

// IsNotFound returns true when the error indicates an account was not found.
func (s *Service) IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
