package access

import (
	"context"

	"github.com/Azuznn/fanclub-site12/internal/models"
	"github.com/google/uuid"
)

// CanView decides whether the viewer may read the post. The viewer must be
// an identity already verified upstream (or Anonymous); it is never a
// client-chosen parameter.
func CanView(ctx context.Context, viewerID uuid.UUID, post *models.Post, members MembershipChecker) (bool, error) {
	switch post.Visibility {
	case models.VisibilityPublic:
		return true, nil
	case models.VisibilityMembers:
		if viewerID == Anonymous {
			return false, nil
		}
		return members.IsMember(ctx, viewerID, post.FanclubID)
	default:
		// Unknown visibility values never leak content.
		return false, nil
	}
}

// FilterVisible returns the posts the viewer may read, preserving order.
// The membership answer is looked up once per fanclub, not per post.
func FilterVisible(ctx context.Context, viewerID uuid.UUID, posts []*models.Post, members MembershipChecker) ([]*models.Post, error) {
	visible := make([]*models.Post, 0, len(posts))
	memberOf := make(map[uuid.UUID]bool)

	for _, post := range posts {
		switch post.Visibility {
		case models.VisibilityPublic:
			visible = append(visible, post)
		case models.VisibilityMembers:
			if viewerID == Anonymous {
				continue
			}
			isMember, cached := memberOf[post.FanclubID]
			if !cached {
				var err error
				isMember, err = members.IsMember(ctx, viewerID, post.FanclubID)
				if err != nil {
					return nil, err
				}
				memberOf[post.FanclubID] = isMember
			}
			if isMember {
				visible = append(visible, post)
			}
		}
	}

	return visible, nil
}
