package tier

import (
	"context"
	"fmt"
)

// Lister is the subset of the tier repository the registry loads from.
type Lister interface {
	List(ctx context.Context) ([]Tier, error)
}

// Registry is an immutable name → Tier table. It is built once at startup
// and only read afterwards, so it needs no locking.
type Registry struct {
	byName map[string]Tier
}

// NewRegistry builds a registry from the given tiers. Later duplicates of a
// name replace earlier ones.
func NewRegistry(tiers ...Tier) *Registry {
	m := make(map[string]Tier, len(tiers))
	for _, t := range tiers {
		m[t.Name] = t
	}
	return &Registry{byName: m}
}

// LoadRegistry reads every tier from src and returns the resulting registry.
func LoadRegistry(ctx context.Context, src Lister) (*Registry, error) {
	tiers, err := src.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tiers: %w", err)
	}
	return NewRegistry(tiers...), nil
}

// Lookup returns the tier with the given name.
func (r *Registry) Lookup(name string) (Tier, error) {
	t, ok := r.byName[name]
	if !ok {
		return Tier{}, fmt.Errorf("%w: %q", ErrUnknownTier, name)
	}
	return t, nil
}

// Len returns the number of tiers known to the registry.
func (r *Registry) Len() int { return len(r.byName) }
