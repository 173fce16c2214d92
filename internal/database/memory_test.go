package database

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Azuznn/fanclub-site12/internal/models"
	"github.com/Azuznn/fanclub-site12/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func newTestFanclub(t *testing.T, db *MemoryDB, ownerID uuid.UUID) *models.Fanclub {
	t.Helper()

	club := &models.Fanclub{
		ID:          uuid.New(),
		Name:        "Test Fanclub " + uuid.NewString(),
		Description: "A fanclub used in tests",
		Purpose:     "testing",
		MonthlyFee:  500,
		OwnerID:     ownerID,
	}
	_, err := db.CreateFanclubWithOwner(context.Background(), club)
	assert.NoError(t, err)
	return club
}

func TestCreateFanclubSeedsOwnerMembership(t *testing.T) {
	db := NewMemoryDB()
	ownerID := uuid.New()
	club := newTestFanclub(t, db, ownerID)

	stored, err := db.GetFanclubByID(context.Background(), club.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, stored.MemberCount)

	isOwner, err := db.IsOwner(context.Background(), ownerID, club.ID)
	assert.NoError(t, err)
	assert.True(t, isOwner)

	assert.NoError(t, db.CheckFanclubConsistency(context.Background(), club.ID))
}

func TestJoinFanclubIncrementsCount(t *testing.T) {
	db := NewMemoryDB()
	club := newTestFanclub(t, db, uuid.New())

	userID := uuid.New()
	nextPayment := utils.NextPaymentDate(time.Now())
	membership, err := db.JoinFanclub(context.Background(), club.ID, userID, nextPayment)
	assert.NoError(t, err)
	assert.False(t, membership.IsOwner)
	assert.NotNil(t, membership.NextPaymentDate)
	assert.Equal(t, nextPayment, *membership.NextPaymentDate)

	stored, err := db.GetFanclubByID(context.Background(), club.ID)
	assert.NoError(t, err)
	assert.Equal(t, 2, stored.MemberCount)
	assert.NoError(t, db.CheckFanclubConsistency(context.Background(), club.ID))
}

func TestJoinFanclubTwiceReturnsAlreadyMember(t *testing.T) {
	db := NewMemoryDB()
	club := newTestFanclub(t, db, uuid.New())
	userID := uuid.New()

	_, err := db.JoinFanclub(context.Background(), club.ID, userID, time.Now())
	assert.NoError(t, err)

	_, err = db.JoinFanclub(context.Background(), club.ID, userID, time.Now())
	assert.True(t, utils.IsErrorCode(err, utils.ErrAlreadyMember))

	// The failed join must not disturb the counter.
	stored, err := db.GetFanclubByID(context.Background(), club.ID)
	assert.NoError(t, err)
	assert.Equal(t, 2, stored.MemberCount)
}

func TestJoinMissingFanclubReturnsNotFound(t *testing.T) {
	db := NewMemoryDB()
	_, err := db.JoinFanclub(context.Background(), uuid.New(), uuid.New(), time.Now())
	assert.True(t, utils.IsErrorCode(err, utils.ErrNotFound))
}

func TestLeaveFanclubDecrementsCount(t *testing.T) {
	db := NewMemoryDB()
	club := newTestFanclub(t, db, uuid.New())
	userID := uuid.New()

	_, err := db.JoinFanclub(context.Background(), club.ID, userID, time.Now())
	assert.NoError(t, err)

	assert.NoError(t, db.LeaveFanclub(context.Background(), club.ID, userID))

	stored, err := db.GetFanclubByID(context.Background(), club.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, stored.MemberCount)
	assert.NoError(t, db.CheckFanclubConsistency(context.Background(), club.ID))

	isMember, err := db.IsMember(context.Background(), userID, club.ID)
	assert.NoError(t, err)
	assert.False(t, isMember)
}

func TestOwnerCannotLeave(t *testing.T) {
	db := NewMemoryDB()
	ownerID := uuid.New()
	club := newTestFanclub(t, db, ownerID)

	err := db.LeaveFanclub(context.Background(), club.ID, ownerID)
	assert.True(t, utils.IsErrorCode(err, utils.ErrForbidden))

	stored, err := db.GetFanclubByID(context.Background(), club.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, stored.MemberCount)
}

func TestLeaveWithoutMembershipReturnsForbidden(t *testing.T) {
	db := NewMemoryDB()
	club := newTestFanclub(t, db, uuid.New())

	err := db.LeaveFanclub(context.Background(), club.ID, uuid.New())
	assert.True(t, utils.IsErrorCode(err, utils.ErrForbidden))
}

func TestConcurrentJoinsKeepCounterExact(t *testing.T) {
	db := NewMemoryDB()
	club := newTestFanclub(t, db, uuid.New())

	const joiners = 50
	var wg sync.WaitGroup
	wg.Add(joiners)
	for i := 0; i < joiners; i++ {
		go func() {
			defer wg.Done()
			_, err := db.JoinFanclub(context.Background(), club.ID, uuid.New(), time.Now())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := db.GetFanclubByID(context.Background(), club.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1+joiners, stored.MemberCount)
	assert.NoError(t, db.CheckFanclubConsistency(context.Background(), club.ID))
}

func TestConcurrentDuplicateJoinsAdmitExactlyOne(t *testing.T) {
	db := NewMemoryDB()
	club := newTestFanclub(t, db, uuid.New())
	userID := uuid.New()

	const attempts = 20
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			defer wg.Done()
			_, err := db.JoinFanclub(context.Background(), club.ID, userID, time.Now())
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, utils.IsErrorCode(err, utils.ErrAlreadyMember))
		}
	}
	assert.Equal(t, 1, succeeded)

	stored, err := db.GetFanclubByID(context.Background(), club.ID)
	assert.NoError(t, err)
	assert.Equal(t, 2, stored.MemberCount)
}

func TestSearchFanclubsMatchesNameAndPurpose(t *testing.T) {
	db := NewMemoryDB()
	ownerID := uuid.New()

	jazz := &models.Fanclub{
		ID: uuid.New(), Name: "Jazz Lovers", Description: "All about jazz",
		Purpose: "music", MonthlyFee: 300, OwnerID: ownerID,
	}
	chess := &models.Fanclub{
		ID: uuid.New(), Name: "Chess Masters", Description: "Openings and endgames",
		Purpose: "board games", MonthlyFee: 100, OwnerID: ownerID,
	}
	_, err := db.CreateFanclubWithOwner(context.Background(), jazz)
	assert.NoError(t, err)
	_, err = db.CreateFanclubWithOwner(context.Background(), chess)
	assert.NoError(t, err)

	results, err := db.SearchFanclubs(context.Background(), "JAZZ")
	assert.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, jazz.ID, results[0].ID)

	results, err = db.SearchFanclubs(context.Background(), "games")
	assert.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, chess.ID, results[0].ID)

	results, err = db.SearchFanclubs(context.Background(), "")
	assert.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSaveCommentMaintainsPostCount(t *testing.T) {
	db := NewMemoryDB()
	club := newTestFanclub(t, db, uuid.New())

	post := &models.Post{
		ID:         uuid.New(),
		FanclubID:  club.ID,
		AuthorID:   club.OwnerID,
		Title:      "Welcome",
		Content:    "First post",
		Visibility: models.VisibilityPublic,
	}
	assert.NoError(t, db.SavePost(context.Background(), post))

	comment := &models.Comment{
		ID:       uuid.New(),
		PostID:   post.ID,
		AuthorID: uuid.New(),
		Content:  "Nice!",
	}
	assert.NoError(t, db.SaveComment(context.Background(), comment))

	stored, err := db.GetPost(context.Background(), post.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, stored.CommentCount)

	assert.NoError(t, db.DeleteCommentAndDecrementCount(context.Background(), comment.ID))
	stored, err = db.GetPost(context.Background(), post.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0, stored.CommentCount)
}
