// Package tier defines account tiers: named bundles of entitlements that
// decide which thumbnails, originals and expiring links an account may use.
package tier

import (
	"errors"
	"fmt"
)

// Bounds for a single permitted thumbnail height.
const (
	MinHeight = 10
	MaxHeight = 1000
)

// ErrHeightOutOfRange is returned when a configured height falls outside [MinHeight, MaxHeight].
var ErrHeightOutOfRange = errors.New("thumbnail height out of range")

// ErrUnknownTier is returned when a tier name is not present in the registry.
var ErrUnknownTier = errors.New("unknown tier")

// HeightSet is the set of thumbnail heights a tier permits.
// The zero value is an empty set that permits no thumbnails.
type HeightSet struct {
	heights []int
}

// NewHeightSet validates heights and returns them as a set. Duplicates are
// dropped; the first occurrence keeps its position so listings stay in the
// order an administrator configured.
func NewHeightSet(heights ...int) (HeightSet, error) {
	seen := make(map[int]struct{}, len(heights))
	out := make([]int, 0, len(heights))
	for _, h := range heights {
		if h < MinHeight || h > MaxHeight {
			return HeightSet{}, fmt.Errorf("%w: %d", ErrHeightOutOfRange, h)
		}
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	return HeightSet{heights: out}, nil
}

// Contains reports whether h is literally one of the permitted heights.
func (s HeightSet) Contains(h int) bool {
	for _, v := range s.heights {
		if v == h {
			return true
		}
	}
	return false
}

// Values returns a copy of the heights in configured order.
func (s HeightSet) Values() []int {
	out := make([]int, len(s.heights))
	copy(out, s.heights)
	return out
}

// Len returns the number of permitted heights.
func (s HeightSet) Len() int { return len(s.heights) }

// Tier is a named bundle of entitlements attached to an account.
type Tier struct {
	ID                    int64
	Name                  string
	Heights               HeightSet
	CanAccessOriginal     bool
	CanCreateExpiringLink bool
}

// AllowsOriginal reports whether the tier may fetch original images.
func (t Tier) AllowsOriginal() bool { return t.CanAccessOriginal }

// AllowsThumbnail reports whether height is one of the tier's permitted heights.
func (t Tier) AllowsThumbnail(height int) bool { return t.Heights.Contains(height) }

// AllowsExpiringLink reports whether the tier may mint expiring links.
func (t Tier) AllowsExpiringLink() bool { return t.CanCreateExpiringLink }
