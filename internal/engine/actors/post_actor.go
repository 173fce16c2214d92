package actors

import (
	stdctx "context"
	"log/slog"
	"strings"
	"time"

	"github.com/Azuznn/fanclub-site12/internal/access"
	"github.com/Azuznn/fanclub-site12/internal/database"
	"github.com/Azuznn/fanclub-site12/internal/models"
	"github.com/Azuznn/fanclub-site12/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
)

// Message types for Post operations. ViewerID always comes from the verified
// request identity, never from a request body.
type (
	CreatePostMsg struct {
		FanclubID  uuid.UUID
		AuthorID   uuid.UUID
		Title      string
		Content    string
		Visibility models.Visibility
	}

	GetPostMsg struct {
		PostID   uuid.UUID
		ViewerID uuid.UUID
	}

	ListFanclubPostsMsg struct {
		FanclubID uuid.UUID
		ViewerID  uuid.UUID
	}

	UpdatePostVisibilityMsg struct {
		PostID     uuid.UUID
		ActorID    uuid.UUID
		Visibility models.Visibility
	}

	CreateCommentMsg struct {
		PostID   uuid.UUID
		AuthorID uuid.UUID
		Content  string
	}

	GetPostCommentsMsg struct {
		PostID   uuid.UUID
		ViewerID uuid.UUID
	}

	DeleteCommentMsg struct {
		CommentID uuid.UUID
		ActorID   uuid.UUID
	}
)

// PostActor handles post and comment operations, enforcing the publish
// policy and the visibility gate before anything leaves the storage layer.
type PostActor struct {
	db      database.DBAdapter
	metrics *utils.MetricsCollector
	created int
}

func NewPostActor(db database.DBAdapter, metrics *utils.MetricsCollector) actor.Actor {
	return &PostActor{
		db:      db,
		metrics: metrics,
	}
}

// Receive handles incoming messages
func (a *PostActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		slog.Info("PostActor started")

	case *actor.Stopping:
		slog.Info("PostActor stopping")

	case *actor.Stopped:
		slog.Info("PostActor stopped")

	case *actor.Restarting:
		slog.Info("PostActor restarting")

	case *CreatePostMsg:
		a.handleCreatePost(context, msg)

	case *GetPostMsg:
		a.handleGetPost(context, msg)

	case *ListFanclubPostsMsg:
		a.handleListFanclubPosts(context, msg)

	case *UpdatePostVisibilityMsg:
		a.handleUpdateVisibility(context, msg)

	case *CreateCommentMsg:
		a.handleCreateComment(context, msg)

	case *GetPostCommentsMsg:
		a.handleGetPostComments(context, msg)

	case *DeleteCommentMsg:
		a.handleDeleteComment(context, msg)

	case *GetCountsMsg:
		context.Respond(a.created)

	default:
		slog.Warn("PostActor: unknown message type", "type", context.Message())
	}
}

func (a *PostActor) handleCreatePost(context actor.Context, msg *CreatePostMsg) {
	startTime := time.Now()

	if strings.TrimSpace(msg.Title) == "" || strings.TrimSpace(msg.Content) == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "post title and content are required", nil))
		return
	}
	if !msg.Visibility.Valid() {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "invalid post visibility", nil))
		return
	}

	ctx := stdctx.Background()
	canPublish, err := access.CanPublish(ctx, msg.AuthorID, msg.FanclubID, a.db)
	if err != nil {
		context.Respond(err)
		return
	}
	if !canPublish {
		context.Respond(utils.NewAppError(utils.ErrForbidden, "only the fanclub owner can publish posts", nil))
		return
	}

	newPost := &models.Post{
		ID:          uuid.New(),
		FanclubID:   msg.FanclubID,
		AuthorID:    msg.AuthorID,
		Title:       msg.Title,
		Content:     msg.Content,
		Visibility:  msg.Visibility,
		PublishedAt: time.Now(),
	}
	if err := a.db.SavePost(ctx, newPost); err != nil {
		context.Respond(err)
		return
	}
	a.created++

	a.metrics.AddOperationLatency("create_post", time.Since(startTime))
	slog.Info("PostActor: post published", "postId", newPost.ID, "fanclubId", msg.FanclubID)
	context.Respond(newPost)
}

func (a *PostActor) handleGetPost(context actor.Context, msg *GetPostMsg) {
	ctx := stdctx.Background()

	post, err := a.db.GetPost(ctx, msg.PostID)
	if err != nil {
		context.Respond(err)
		return
	}

	canView, err := access.CanView(ctx, msg.ViewerID, post, a.db)
	if err != nil {
		context.Respond(err)
		return
	}
	if !canView {
		// Members-only posts are indistinguishable from missing ones for
		// outsiders.
		context.Respond(utils.NewAppError(utils.ErrNotFound, "post not found", nil))
		return
	}
	context.Respond(post)
}

func (a *PostActor) handleListFanclubPosts(context actor.Context, msg *ListFanclubPostsMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	if _, err := a.db.GetFanclubByID(ctx, msg.FanclubID); err != nil {
		context.Respond(err)
		return
	}

	posts, err := a.db.GetPostsByFanclub(ctx, msg.FanclubID)
	if err != nil {
		context.Respond(err)
		return
	}

	visible, err := access.FilterVisible(ctx, msg.ViewerID, posts, a.db)
	if err != nil {
		context.Respond(err)
		return
	}

	a.metrics.AddOperationLatency("list_fanclub_posts", time.Since(startTime))
	context.Respond(visible)
}

func (a *PostActor) handleUpdateVisibility(context actor.Context, msg *UpdatePostVisibilityMsg) {
	ctx := stdctx.Background()

	if !msg.Visibility.Valid() {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "invalid post visibility", nil))
		return
	}

	post, err := a.db.GetPost(ctx, msg.PostID)
	if err != nil {
		context.Respond(err)
		return
	}

	isOwner, err := a.db.IsOwner(ctx, msg.ActorID, post.FanclubID)
	if err != nil {
		context.Respond(err)
		return
	}
	if !isOwner {
		context.Respond(utils.NewAppError(utils.ErrForbidden, "only the fanclub owner can change post visibility", nil))
		return
	}

	if err := a.db.UpdatePostVisibility(ctx, msg.PostID, msg.Visibility); err != nil {
		context.Respond(err)
		return
	}

	post.Visibility = msg.Visibility
	context.Respond(post)
}

func (a *PostActor) handleCreateComment(context actor.Context, msg *CreateCommentMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	if strings.TrimSpace(msg.Content) == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "comment content is required", nil))
		return
	}
	if msg.AuthorID == uuid.Nil {
		context.Respond(utils.NewAppError(utils.ErrUnauthorized, "commenting requires a signed-in user", nil))
		return
	}

	post, err := a.db.GetPost(ctx, msg.PostID)
	if err != nil {
		context.Respond(err)
		return
	}

	// Commenting requires the same access as reading.
	canView, err := access.CanView(ctx, msg.AuthorID, post, a.db)
	if err != nil {
		context.Respond(err)
		return
	}
	if !canView {
		context.Respond(utils.NewAppError(utils.ErrNotFound, "post not found", nil))
		return
	}

	comment := &models.Comment{
		ID:        uuid.New(),
		PostID:    msg.PostID,
		AuthorID:  msg.AuthorID,
		Content:   msg.Content,
		CreatedAt: time.Now(),
	}
	if err := a.db.SaveComment(ctx, comment); err != nil {
		context.Respond(err)
		return
	}

	a.metrics.AddOperationLatency("create_comment", time.Since(startTime))
	context.Respond(comment)
}

func (a *PostActor) handleGetPostComments(context actor.Context, msg *GetPostCommentsMsg) {
	ctx := stdctx.Background()

	post, err := a.db.GetPost(ctx, msg.PostID)
	if err != nil {
		context.Respond(err)
		return
	}

	canView, err := access.CanView(ctx, msg.ViewerID, post, a.db)
	if err != nil {
		context.Respond(err)
		return
	}
	if !canView {
		context.Respond(utils.NewAppError(utils.ErrNotFound, "post not found", nil))
		return
	}

	comments, err := a.db.GetPostComments(ctx, msg.PostID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(comments)
}

func (a *PostActor) handleDeleteComment(context actor.Context, msg *DeleteCommentMsg) {
	ctx := stdctx.Background()

	comment, err := a.db.GetComment(ctx, msg.CommentID)
	if err != nil {
		context.Respond(err)
		return
	}

	if comment.AuthorID != msg.ActorID {
		post, err := a.db.GetPost(ctx, comment.PostID)
		if err != nil {
			context.Respond(err)
			return
		}
		isOwner, err := a.db.IsOwner(ctx, msg.ActorID, post.FanclubID)
		if err != nil {
			context.Respond(err)
			return
		}
		if !isOwner {
			context.Respond(utils.NewAppError(utils.ErrForbidden, "only the author or the fanclub owner can delete a comment", nil))
			return
		}
	}

	if err := a.db.DeleteCommentAndDecrementCount(ctx, msg.CommentID); err != nil {
		context.Respond(err)
		return
	}
	context.Respond(true)
}
