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

func spawnFanclubActor(t *testing.T) (*actor.ActorSystem, *actor.PID, *database.MemoryDB) {
	t.Helper()

	system := actor.NewActorSystem()
	db := database.NewMemoryDB()
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewFanclubActor(db, utils.NewMetricsCollector())
	})
	pid := system.Root.Spawn(props)
	return system, pid, db
}

func request(t *testing.T, system *actor.ActorSystem, pid *actor.PID, msg interface{}) interface{} {
	t.Helper()

	future := system.Root.RequestFuture(pid, msg, 5*time.Second)
	result, err := future.Result()
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return result
}

func TestCreateAndGetFanclub(t *testing.T) {
	system, pid, _ := spawnFanclubActor(t)
	ownerID := uuid.New()

	result := request(t, system, pid, &CreateFanclubMsg{
		Name:       "Gator Fans",
		Purpose:    "swamp appreciation",
		MonthlyFee: 500,
		OwnerID:    ownerID,
	})

	created, ok := result.(*models.Fanclub)
	if !ok {
		t.Fatalf("expected fanclub, got %T: %v", result, result)
	}
	assert.Equal(t, "Gator Fans", created.Name)
	assert.Equal(t, 1, created.MemberCount)
	assert.Equal(t, ownerID, created.OwnerID)

	result = request(t, system, pid, &GetFanclubMsg{FanclubID: created.ID})
	fetched, ok := result.(*models.Fanclub)
	if !ok {
		t.Fatalf("expected fanclub, got %T", result)
	}
	assert.Equal(t, created.ID, fetched.ID)
}

func TestCreateFanclubValidation(t *testing.T) {
	system, pid, _ := spawnFanclubActor(t)

	cases := []*CreateFanclubMsg{
		{Name: "", Purpose: "p", MonthlyFee: 100, OwnerID: uuid.New()},
		{Name: "Club", Purpose: "", MonthlyFee: 100, OwnerID: uuid.New()},
		{Name: "Club", Purpose: "p", MonthlyFee: -1, OwnerID: uuid.New()},
		{Name: "Club", Purpose: "p", MonthlyFee: 100, OwnerID: uuid.Nil},
	}
	for _, msg := range cases {
		result := request(t, system, pid, msg)
		appErr, ok := result.(*utils.AppError)
		if !ok {
			t.Fatalf("expected validation error for %+v, got %T", msg, result)
		}
		assert.Equal(t, utils.ErrInvalidInput, appErr.Code)
	}
}

func TestGetMissingFanclub(t *testing.T) {
	system, pid, _ := spawnFanclubActor(t)

	result := request(t, system, pid, &GetFanclubMsg{FanclubID: uuid.New()})
	appErr, ok := result.(*utils.AppError)
	if !ok {
		t.Fatalf("expected error, got %T", result)
	}
	assert.Equal(t, utils.ErrNotFound, appErr.Code)
}

func TestJoinAndLeaveFanclub(t *testing.T) {
	system, pid, _ := spawnFanclubActor(t)

	created := request(t, system, pid, &CreateFanclubMsg{
		Name: "Join Club", Purpose: "joining", MonthlyFee: 100, OwnerID: uuid.New(),
	}).(*models.Fanclub)

	userID := uuid.New()
	result := request(t, system, pid, &JoinFanclubMsg{FanclubID: created.ID, UserID: userID})
	membership, ok := result.(*models.Membership)
	if !ok {
		t.Fatalf("expected membership, got %T: %v", result, result)
	}
	assert.False(t, membership.IsOwner)
	if assert.NotNil(t, membership.NextPaymentDate) {
		// Next payment lands one calendar month out.
		expected := utils.AddCalendarMonths(membership.JoinedAt, 1)
		assert.Equal(t, expected.Day(), membership.NextPaymentDate.Day())
		assert.Equal(t, expected.Month(), membership.NextPaymentDate.Month())
	}

	result = request(t, system, pid, &IsMemberMsg{FanclubID: created.ID, UserID: userID})
	assert.Equal(t, true, result)

	result = request(t, system, pid, &LeaveFanclubMsg{FanclubID: created.ID, UserID: userID})
	assert.Equal(t, true, result)

	result = request(t, system, pid, &IsMemberMsg{FanclubID: created.ID, UserID: userID})
	assert.Equal(t, false, result)
}

func TestDuplicateJoinRejected(t *testing.T) {
	system, pid, _ := spawnFanclubActor(t)

	created := request(t, system, pid, &CreateFanclubMsg{
		Name: "Dup Club", Purpose: "dup", MonthlyFee: 0, OwnerID: uuid.New(),
	}).(*models.Fanclub)

	userID := uuid.New()
	request(t, system, pid, &JoinFanclubMsg{FanclubID: created.ID, UserID: userID})

	result := request(t, system, pid, &JoinFanclubMsg{FanclubID: created.ID, UserID: userID})
	appErr, ok := result.(*utils.AppError)
	if !ok {
		t.Fatalf("expected AlreadyMember error, got %T", result)
	}
	assert.Equal(t, utils.ErrAlreadyMember, appErr.Code)
}

func TestOwnerLeaveRejected(t *testing.T) {
	system, pid, _ := spawnFanclubActor(t)
	ownerID := uuid.New()

	created := request(t, system, pid, &CreateFanclubMsg{
		Name: "Owner Club", Purpose: "owning", MonthlyFee: 0, OwnerID: ownerID,
	}).(*models.Fanclub)

	result := request(t, system, pid, &LeaveFanclubMsg{FanclubID: created.ID, UserID: ownerID})
	appErr, ok := result.(*utils.AppError)
	if !ok {
		t.Fatalf("expected Forbidden error, got %T", result)
	}
	assert.Equal(t, utils.ErrForbidden, appErr.Code)

	result = request(t, system, pid, &IsOwnerMsg{FanclubID: created.ID, UserID: ownerID})
	assert.Equal(t, true, result)
}

func TestSearchFanclubs(t *testing.T) {
	system, pid, _ := spawnFanclubActor(t)
	ownerID := uuid.New()

	request(t, system, pid, &CreateFanclubMsg{
		Name: "Jazz Lovers", Purpose: "music", MonthlyFee: 100, OwnerID: ownerID,
	})
	request(t, system, pid, &CreateFanclubMsg{
		Name: "Chess Masters", Purpose: "board games", MonthlyFee: 100, OwnerID: ownerID,
	})

	result := request(t, system, pid, &SearchFanclubsMsg{Query: "jazz"})
	matches, ok := result.([]*models.Fanclub)
	if !ok {
		t.Fatalf("expected fanclub list, got %T", result)
	}
	assert.Len(t, matches, 1)
	assert.Equal(t, "Jazz Lovers", matches[0].Name)
}

func TestConsistencyCheckThroughActor(t *testing.T) {
	system, pid, db := spawnFanclubActor(t)

	created := request(t, system, pid, &CreateFanclubMsg{
		Name: "Counted Club", Purpose: "counting", MonthlyFee: 0, OwnerID: uuid.New(),
	}).(*models.Fanclub)

	for i := 0; i < 3; i++ {
		request(t, system, pid, &JoinFanclubMsg{FanclubID: created.ID, UserID: uuid.New()})
	}

	result := request(t, system, pid, &CheckFanclubConsistencyMsg{FanclubID: created.ID})
	assert.Equal(t, true, result)

	members := request(t, system, pid, &GetFanclubMembersMsg{FanclubID: created.ID}).([]*models.Membership)
	assert.Len(t, members, 4)

	// Membership rows are the ground truth the stored counter is checked
	// against.
	stored, err := db.GetFanclubByID(stdctx.Background(), created.ID)
	assert.NoError(t, err)
	assert.Equal(t, 4, stored.MemberCount)
}
