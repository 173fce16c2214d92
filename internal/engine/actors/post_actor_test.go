package actors

import (
	stdctx "context"
	"testing"
	"time"

	"github.com/Azuznn/fanclub-site12/internal/database"
	"github.com/Azuznn/fanclub-site12/internal/models"
	"github.com/Azuznn/fanclub-site12/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type postFixture struct {
	system   *actor.ActorSystem
	pid      *actor.PID
	db       *database.MemoryDB
	ownerID  uuid.UUID
	memberID uuid.UUID
	clubID   uuid.UUID
}

func newPostFixture(t *testing.T) *postFixture {
	t.Helper()

	system := actor.NewActorSystem()
	db := database.NewMemoryDB()
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewPostActor(db, utils.NewMetricsCollector())
	})
	pid := system.Root.Spawn(props)

	ownerID := uuid.New()
	club := &models.Fanclub{
		ID:         uuid.New(),
		Name:       "Post Club",
		Purpose:    "posting",
		MonthlyFee: 100,
		OwnerID:    ownerID,
	}
	ctx := stdctx.Background()
	if _, err := db.CreateFanclubWithOwner(ctx, club); err != nil {
		t.Fatalf("fixture fanclub: %v", err)
	}

	memberID := uuid.New()
	if _, err := db.JoinFanclub(ctx, club.ID, memberID, time.Now()); err != nil {
		t.Fatalf("fixture membership: %v", err)
	}

	return &postFixture{
		system:   system,
		pid:      pid,
		db:       db,
		ownerID:  ownerID,
		memberID: memberID,
		clubID:   club.ID,
	}
}

func (f *postFixture) publish(t *testing.T, visibility models.Visibility) *models.Post {
	t.Helper()

	result := request(t, f.system, f.pid, &CreatePostMsg{
		FanclubID:  f.clubID,
		AuthorID:   f.ownerID,
		Title:      "Update",
		Content:    "Hello members",
		Visibility: visibility,
	})
	post, ok := result.(*models.Post)
	if !ok {
		t.Fatalf("expected post, got %T: %v", result, result)
	}
	return post
}

func TestOnlyOwnerCanPublish(t *testing.T) {
	f := newPostFixture(t)

	post := f.publish(t, models.VisibilityPublic)
	assert.Equal(t, f.ownerID, post.AuthorID)

	result := request(t, f.system, f.pid, &CreatePostMsg{
		FanclubID:  f.clubID,
		AuthorID:   f.memberID,
		Title:      "Fan post",
		Content:    "I want to post too",
		Visibility: models.VisibilityPublic,
	})
	appErr, ok := result.(*utils.AppError)
	if !ok {
		t.Fatalf("expected Forbidden error, got %T", result)
	}
	assert.Equal(t, utils.ErrForbidden, appErr.Code)

	result = request(t, f.system, f.pid, &CreatePostMsg{
		FanclubID:  f.clubID,
		AuthorID:   uuid.Nil,
		Title:      "Anon post",
		Content:    "ghost writing",
		Visibility: models.VisibilityPublic,
	})
	appErr, ok = result.(*utils.AppError)
	if !ok {
		t.Fatalf("expected Forbidden error, got %T", result)
	}
	assert.Equal(t, utils.ErrForbidden, appErr.Code)
}

func TestMembersOnlyPostHiddenFromOutsiders(t *testing.T) {
	f := newPostFixture(t)
	post := f.publish(t, models.VisibilityMembers)

	// Member sees it.
	result := request(t, f.system, f.pid, &GetPostMsg{PostID: post.ID, ViewerID: f.memberID})
	fetched, ok := result.(*models.Post)
	if !ok {
		t.Fatalf("expected post for member, got %T: %v", result, result)
	}
	assert.Equal(t, post.ID, fetched.ID)

	// Non-member and anonymous get NotFound, not Forbidden.
	for _, viewer := range []uuid.UUID{uuid.New(), uuid.Nil} {
		result = request(t, f.system, f.pid, &GetPostMsg{PostID: post.ID, ViewerID: viewer})
		appErr, ok := result.(*utils.AppError)
		if !ok {
			t.Fatalf("expected NotFound for viewer %s, got %T", viewer, result)
		}
		assert.Equal(t, utils.ErrNotFound, appErr.Code)
	}
}

func TestListFanclubPostsFiltersByViewer(t *testing.T) {
	f := newPostFixture(t)

	f.publish(t, models.VisibilityPublic)
	f.publish(t, models.VisibilityMembers)
	f.publish(t, models.VisibilityMembers)

	result := request(t, f.system, f.pid, &ListFanclubPostsMsg{FanclubID: f.clubID, ViewerID: uuid.Nil})
	anonPosts := result.([]*models.Post)
	assert.Len(t, anonPosts, 1)
	assert.Equal(t, models.VisibilityPublic, anonPosts[0].Visibility)

	result = request(t, f.system, f.pid, &ListFanclubPostsMsg{FanclubID: f.clubID, ViewerID: f.memberID})
	memberPosts := result.([]*models.Post)
	assert.Len(t, memberPosts, 3)

	result = request(t, f.system, f.pid, &ListFanclubPostsMsg{FanclubID: f.clubID, ViewerID: uuid.New()})
	outsiderPosts := result.([]*models.Post)
	assert.Len(t, outsiderPosts, 1)
}

func TestUpdatePostVisibilityOwnerOnly(t *testing.T) {
	f := newPostFixture(t)
	post := f.publish(t, models.VisibilityMembers)

	result := request(t, f.system, f.pid, &UpdatePostVisibilityMsg{
		PostID: post.ID, ActorID: f.memberID, Visibility: models.VisibilityPublic,
	})
	appErr, ok := result.(*utils.AppError)
	if !ok {
		t.Fatalf("expected Forbidden error, got %T", result)
	}
	assert.Equal(t, utils.ErrForbidden, appErr.Code)

	result = request(t, f.system, f.pid, &UpdatePostVisibilityMsg{
		PostID: post.ID, ActorID: f.ownerID, Visibility: models.VisibilityPublic,
	})
	updated, ok := result.(*models.Post)
	if !ok {
		t.Fatalf("expected updated post, got %T: %v", result, result)
	}
	assert.Equal(t, models.VisibilityPublic, updated.Visibility)

	// Now anonymous viewers can read it.
	result = request(t, f.system, f.pid, &GetPostMsg{PostID: post.ID, ViewerID: uuid.Nil})
	_, ok = result.(*models.Post)
	assert.True(t, ok)
}

func TestCommentsFollowPostVisibility(t *testing.T) {
	f := newPostFixture(t)
	post := f.publish(t, models.VisibilityMembers)

	result := request(t, f.system, f.pid, &CreateCommentMsg{
		PostID: post.ID, AuthorID: f.memberID, Content: "great update",
	})
	comment, ok := result.(*models.Comment)
	if !ok {
		t.Fatalf("expected comment, got %T: %v", result, result)
	}
	assert.Equal(t, f.memberID, comment.AuthorID)

	// An outsider cannot comment on a members-only post.
	result = request(t, f.system, f.pid, &CreateCommentMsg{
		PostID: post.ID, AuthorID: uuid.New(), Content: "let me in",
	})
	appErr, ok := result.(*utils.AppError)
	if !ok {
		t.Fatalf("expected NotFound error, got %T", result)
	}
	assert.Equal(t, utils.ErrNotFound, appErr.Code)

	// Nor read the thread.
	result = request(t, f.system, f.pid, &GetPostCommentsMsg{PostID: post.ID, ViewerID: uuid.Nil})
	appErr, ok = result.(*utils.AppError)
	if !ok {
		t.Fatalf("expected NotFound error, got %T", result)
	}
	assert.Equal(t, utils.ErrNotFound, appErr.Code)

	result = request(t, f.system, f.pid, &GetPostCommentsMsg{PostID: post.ID, ViewerID: f.memberID})
	comments := result.([]*models.Comment)
	assert.Len(t, comments, 1)
}

func TestDeleteCommentPermissions(t *testing.T) {
	f := newPostFixture(t)
	post := f.publish(t, models.VisibilityPublic)

	comment := request(t, f.system, f.pid, &CreateCommentMsg{
		PostID: post.ID, AuthorID: f.memberID, Content: "delete me",
	}).(*models.Comment)

	// A random user cannot delete someone else's comment.
	result := request(t, f.system, f.pid, &DeleteCommentMsg{CommentID: comment.ID, ActorID: uuid.New()})
	appErr, ok := result.(*utils.AppError)
	if !ok {
		t.Fatalf("expected Forbidden error, got %T", result)
	}
	assert.Equal(t, utils.ErrForbidden, appErr.Code)

	// The fanclub owner can.
	result = request(t, f.system, f.pid, &DeleteCommentMsg{CommentID: comment.ID, ActorID: f.ownerID})
	assert.Equal(t, true, result)

	stored, err := f.db.GetPost(stdctx.Background(), post.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0, stored.CommentCount)
}
