// Package access holds the publishing and visibility decision points.
// Everything here is a pure decision over a membership lookup: no caching,
// no side effects, so a visibility change on a post takes effect on the
// next read without any invalidation step.
package access

import (
	"context"

	"github.com/google/uuid"
)

// Anonymous is the viewer identity used when no verified user is present.
var Anonymous = uuid.Nil

// MembershipChecker is the slice of the membership ledger the visibility
// gate needs. Owner rows are memberships too, so ownership implies
// membership without a separate check.
type MembershipChecker interface {
	IsMember(ctx context.Context, userID, fanclubID uuid.UUID) (bool, error)
}

// OwnershipChecker is the slice of the membership ledger the publishing
// policy needs.
type OwnershipChecker interface {
	IsOwner(ctx context.Context, userID, fanclubID uuid.UUID) (bool, error)
}
