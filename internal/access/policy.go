package access

import (
	"context"

	"github.com/google/uuid"
)

// CanPublish reports whether userID may create posts in the fanclub.
// Today only the owner publishes; this stays a named decision point so a
// multi-author model changes exactly one function.
func CanPublish(ctx context.Context, userID, fanclubID uuid.UUID, owners OwnershipChecker) (bool, error) {
	if userID == Anonymous {
		return false, nil
	}
	return owners.IsOwner(ctx, userID, fanclubID)
}
