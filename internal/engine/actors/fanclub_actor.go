package actors

import (
	stdctx "context"
	"log/slog"
	"strings"
	"time"

	"github.com/Azuznn/fanclub-site12/internal/database"
	"github.com/Azuznn/fanclub-site12/internal/models"
	"github.com/Azuznn/fanclub-site12/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
)

// Message types for Fanclub operations
type (
	CreateFanclubMsg struct {
		Name        string
		Description string
		Purpose     string
		MonthlyFee  int
		CoverImage  string
		OwnerID     uuid.UUID
	}

	GetFanclubMsg struct {
		FanclubID uuid.UUID
	}

	SearchFanclubsMsg struct {
		Query string
	}

	JoinFanclubMsg struct {
		FanclubID uuid.UUID
		UserID    uuid.UUID
	}

	LeaveFanclubMsg struct {
		FanclubID uuid.UUID
		UserID    uuid.UUID
	}

	IsMemberMsg struct {
		FanclubID uuid.UUID
		UserID    uuid.UUID
	}

	IsOwnerMsg struct {
		FanclubID uuid.UUID
		UserID    uuid.UUID
	}

	GetFanclubMembersMsg struct {
		FanclubID uuid.UUID
	}

	CheckFanclubConsistencyMsg struct {
		FanclubID uuid.UUID
	}

	GetCountsMsg struct{}
)

// FanclubActor serializes fanclub and membership operations. All state lives
// in the storage adapter; the actor holds no caches, so a restart loses
// nothing.
type FanclubActor struct {
	db      database.DBAdapter
	metrics *utils.MetricsCollector
	created int
}

func NewFanclubActor(db database.DBAdapter, metrics *utils.MetricsCollector) actor.Actor {
	return &FanclubActor{
		db:      db,
		metrics: metrics,
	}
}

// Receive handles incoming messages
func (a *FanclubActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		slog.Info("FanclubActor started")

	case *actor.Stopping:
		slog.Info("FanclubActor stopping")

	case *actor.Stopped:
		slog.Info("FanclubActor stopped")

	case *actor.Restarting:
		slog.Info("FanclubActor restarting")

	case *CreateFanclubMsg:
		a.handleCreateFanclub(context, msg)

	case *GetFanclubMsg:
		a.handleGetFanclub(context, msg)

	case *SearchFanclubsMsg:
		a.handleSearchFanclubs(context, msg)

	case *JoinFanclubMsg:
		a.handleJoinFanclub(context, msg)

	case *LeaveFanclubMsg:
		a.handleLeaveFanclub(context, msg)

	case *IsMemberMsg:
		isMember, err := a.db.IsMember(stdctx.Background(), msg.UserID, msg.FanclubID)
		a.respondBool(context, isMember, err)

	case *IsOwnerMsg:
		isOwner, err := a.db.IsOwner(stdctx.Background(), msg.UserID, msg.FanclubID)
		a.respondBool(context, isOwner, err)

	case *GetFanclubMembersMsg:
		a.handleGetMembers(context, msg)

	case *CheckFanclubConsistencyMsg:
		a.handleCheckConsistency(context, msg)

	case *GetCountsMsg:
		context.Respond(a.created)
	}
}

func validateCreateFanclub(msg *CreateFanclubMsg) *utils.AppError {
	if strings.TrimSpace(msg.Name) == "" {
		return utils.NewAppError(utils.ErrInvalidInput, "fanclub name is required", nil)
	}
	if strings.TrimSpace(msg.Purpose) == "" {
		return utils.NewAppError(utils.ErrInvalidInput, "fanclub purpose is required", nil)
	}
	if msg.MonthlyFee < 0 {
		return utils.NewAppError(utils.ErrInvalidInput, "monthly fee cannot be negative", nil)
	}
	if msg.OwnerID == uuid.Nil {
		return utils.NewAppError(utils.ErrInvalidInput, "owner id is required", nil)
	}
	return nil
}

func (a *FanclubActor) handleCreateFanclub(context actor.Context, msg *CreateFanclubMsg) {
	slog.Info("FanclubActor: creating fanclub", "name", msg.Name)
	startTime := time.Now()

	if appErr := validateCreateFanclub(msg); appErr != nil {
		context.Respond(appErr)
		return
	}

	newFanclub := &models.Fanclub{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(msg.Name),
		Description: msg.Description,
		Purpose:     strings.TrimSpace(msg.Purpose),
		MonthlyFee:  msg.MonthlyFee,
		CoverImage:  msg.CoverImage,
		OwnerID:     msg.OwnerID,
		CreatedAt:   time.Now(),
	}

	if _, err := a.db.CreateFanclubWithOwner(stdctx.Background(), newFanclub); err != nil {
		context.Respond(err)
		return
	}
	a.created++

	a.metrics.AddOperationLatency("create_fanclub", time.Since(startTime))
	slog.Info("FanclubActor: created fanclub", "fanclubId", newFanclub.ID)
	context.Respond(newFanclub)
}

func (a *FanclubActor) handleGetFanclub(context actor.Context, msg *GetFanclubMsg) {
	fanclub, err := a.db.GetFanclubByID(stdctx.Background(), msg.FanclubID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(fanclub)
}

func (a *FanclubActor) handleSearchFanclubs(context actor.Context, msg *SearchFanclubsMsg) {
	startTime := time.Now()

	fanclubs, err := a.db.SearchFanclubs(stdctx.Background(), msg.Query)
	if err != nil {
		context.Respond(err)
		return
	}

	a.metrics.AddOperationLatency("search_fanclubs", time.Since(startTime))
	context.Respond(fanclubs)
}

func (a *FanclubActor) handleJoinFanclub(context actor.Context, msg *JoinFanclubMsg) {
	startTime := time.Now()

	if msg.UserID == uuid.Nil {
		context.Respond(utils.NewAppError(utils.ErrUnauthorized, "joining requires a signed-in user", nil))
		return
	}

	// The first payment falls due one calendar month after joining.
	nextPayment := utils.NextPaymentDate(time.Now())
	membership, err := a.db.JoinFanclub(stdctx.Background(), msg.FanclubID, msg.UserID, nextPayment)
	if err != nil {
		context.Respond(err)
		return
	}

	slog.Info("FanclubActor: user joined fanclub", "userId", msg.UserID, "fanclubId", msg.FanclubID)
	a.metrics.AddOperationLatency("join_fanclub", time.Since(startTime))
	context.Respond(membership)
}

func (a *FanclubActor) handleLeaveFanclub(context actor.Context, msg *LeaveFanclubMsg) {
	startTime := time.Now()

	if msg.UserID == uuid.Nil {
		context.Respond(utils.NewAppError(utils.ErrUnauthorized, "leaving requires a signed-in user", nil))
		return
	}

	if err := a.db.LeaveFanclub(stdctx.Background(), msg.FanclubID, msg.UserID); err != nil {
		context.Respond(err)
		return
	}

	slog.Info("FanclubActor: user left fanclub", "userId", msg.UserID, "fanclubId", msg.FanclubID)
	a.metrics.AddOperationLatency("leave_fanclub", time.Since(startTime))
	context.Respond(true)
}

func (a *FanclubActor) handleGetMembers(context actor.Context, msg *GetFanclubMembersMsg) {
	if _, err := a.db.GetFanclubByID(stdctx.Background(), msg.FanclubID); err != nil {
		context.Respond(err)
		return
	}

	members, err := a.db.GetFanclubMembers(stdctx.Background(), msg.FanclubID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(members)
}

func (a *FanclubActor) handleCheckConsistency(context actor.Context, msg *CheckFanclubConsistencyMsg) {
	if err := a.db.CheckFanclubConsistency(stdctx.Background(), msg.FanclubID); err != nil {
		context.Respond(err)
		return
	}
	context.Respond(true)
}

func (a *FanclubActor) respondBool(context actor.Context, value bool, err error) {
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(value)
}
