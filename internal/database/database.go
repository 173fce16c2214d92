package database

import (
	"context"
	"time"

	"github.com/Azuznn/fanclub-site12/internal/models"
	"github.com/google/uuid"
)

// DBAdapter is the storage contract shared by the PostgreSQL, MongoDB and
// in-memory backends. Every method that mutates a derived counter
// (fanclubs.member_count, posts.comment_count) performs the row mutation
// and the counter delta as a single atomic unit; callers never adjust
// counters separately.
type DBAdapter interface {
	// Connection
	Close(ctx context.Context) error

	// User methods
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
	TouchUserActivity(ctx context.Context, id uuid.UUID) error

	// Fanclub methods
	CreateFanclubWithOwner(ctx context.Context, club *models.Fanclub) (*models.Membership, error)
	GetFanclubByID(ctx context.Context, id uuid.UUID) (*models.Fanclub, error)
	SearchFanclubs(ctx context.Context, query string) ([]*models.Fanclub, error)
	GetFanclubMembers(ctx context.Context, fanclubID uuid.UUID) ([]*models.Membership, error)
	CheckFanclubConsistency(ctx context.Context, fanclubID uuid.UUID) error

	// Membership methods
	JoinFanclub(ctx context.Context, fanclubID, userID uuid.UUID, nextPayment time.Time) (*models.Membership, error)
	LeaveFanclub(ctx context.Context, fanclubID, userID uuid.UUID) error
	GetMembership(ctx context.Context, fanclubID, userID uuid.UUID) (*models.Membership, error)
	IsMember(ctx context.Context, userID, fanclubID uuid.UUID) (bool, error)
	IsOwner(ctx context.Context, userID, fanclubID uuid.UUID) (bool, error)
	GetUserFanclubs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)

	// Post methods
	SavePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, postID uuid.UUID) (*models.Post, error)
	GetPostsByFanclub(ctx context.Context, fanclubID uuid.UUID) ([]*models.Post, error)
	UpdatePostVisibility(ctx context.Context, postID uuid.UUID, visibility models.Visibility) error

	// Comment methods
	SaveComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error)
	GetPostComments(ctx context.Context, postID uuid.UUID) ([]*models.Comment, error)
	DeleteCommentAndDecrementCount(ctx context.Context, commentID uuid.UUID) error
}
