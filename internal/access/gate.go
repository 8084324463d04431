// Package access decides whether an account tier may perform a media
// operation. Decisions are pure functions of the tier and the request.
package access

import (
	"errors"

	"github.com/radif/imagehost/internal/tier"
)

// ErrForbidden matches every entitlement denial via errors.Is.
var ErrForbidden = errors.New("forbidden")

// Op names a gated operation.
type Op string

const (
	OpOriginal     Op = "original"
	OpThumbnail    Op = "thumbnail"
	OpExpiringLink Op = "expiring_link"
)

// ForbiddenError reports which entitlement was missing.
type ForbiddenError struct {
	Op     Op
	Reason string
}

func (e *ForbiddenError) Error() string { return e.Reason }

// Is makes errors.Is(err, ErrForbidden) hold for every ForbiddenError.
func (e *ForbiddenError) Is(target error) bool { return target == ErrForbidden }

// Denial messages returned to callers.
const (
	ReasonOriginal     = "original access not entitled for this account tier"
	ReasonThumbnail    = "thumbnail height not entitled for this account tier"
	ReasonExpiringLink = "expiring link creation not entitled for this account tier"
)

// CheckOriginal allows fetching originals only when the tier grants it.
func CheckOriginal(t tier.Tier) error {
	if !t.AllowsOriginal() {
		return &ForbiddenError{Op: OpOriginal, Reason: ReasonOriginal}
	}
	return nil
}

// CheckThumbnail allows a thumbnail only at one of the tier's heights.
func CheckThumbnail(t tier.Tier, height int) error {
	if !t.AllowsThumbnail(height) {
		return &ForbiddenError{Op: OpThumbnail, Reason: ReasonThumbnail}
	}
	return nil
}

// CheckExpiringLink allows minting signed links only when the tier grants it.
func CheckExpiringLink(t tier.Tier) error {
	if !t.AllowsExpiringLink() {
		return &ForbiddenError{Op: OpExpiringLink, Reason: ReasonExpiringLink}
	}
	return nil
}
