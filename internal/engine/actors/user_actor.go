package actors

import (
	stdctx "context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Azuznn/fanclub-site12/internal/database"
	"github.com/Azuznn/fanclub-site12/internal/middleware"
	"github.com/Azuznn/fanclub-site12/internal/models"
	"github.com/Azuznn/fanclub-site12/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Message types for User operations
type (
	RegisterUserMsg struct {
		Username string
		Email    string
		Password string
	}

	LoginMsg struct {
		Email    string
		Password string
	}

	GetUserProfileMsg struct {
		UserID uuid.UUID
	}
)

// LoginResponse is returned for LoginMsg regardless of outcome; failed
// logins always carry the same error string.
type LoginResponse struct {
	Success bool      `json:"success"`
	Token   string    `json:"token,omitempty"`
	UserID  uuid.UUID `json:"userId,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// UserState is the profile shape returned to callers. The password hash
// never leaves the actor.
type UserState struct {
	ID         uuid.UUID   `json:"id"`
	Username   string      `json:"username"`
	Email      string      `json:"email"`
	LastActive time.Time   `json:"lastActive"`
	Fanclubs   []uuid.UUID `json:"fanclubs"`
}

// UserSupervisor manages per-user actors and owns registration and login,
// since both need the email index before a user actor exists.
type UserSupervisor struct {
	userActors map[uuid.UUID]*actor.PID
	mu         sync.RWMutex
	db         database.DBAdapter
}

func NewUserSupervisor(db database.DBAdapter) actor.Actor {
	return &UserSupervisor{
		userActors: make(map[uuid.UUID]*actor.PID),
		db:         db,
	}
}

func (s *UserSupervisor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *RegisterUserMsg:
		s.handleRegister(context, msg)

	case *LoginMsg:
		s.handleLogin(context, msg)

	case *GetUserProfileMsg:
		pid, err := s.getOrCreateUserActor(context, msg.UserID)
		if err != nil {
			context.Respond(utils.NewAppError(utils.ErrNotFound, "user not found", err))
			return
		}

		future := context.RequestFuture(pid, msg, 5*time.Second)
		result, err := future.Result()
		if err != nil {
			context.Respond(utils.NewAppError(utils.ErrActorTimeout, "failed to get profile", err))
			return
		}
		context.Respond(result)
	}
}

func (s *UserSupervisor) handleRegister(context actor.Context, msg *RegisterUserMsg) {
	if strings.TrimSpace(msg.Username) == "" || strings.TrimSpace(msg.Email) == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "username and email are required", nil))
		return
	}
	if len(msg.Password) < 8 {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "password must be at least 8 characters", nil))
		return
	}

	ctx := stdctx.Background()
	if existing, _ := s.db.GetUserByEmail(ctx, msg.Email); existing != nil {
		context.Respond(utils.NewAppError(utils.ErrUserAlreadyExists, "email already registered", nil))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(msg.Password), 14)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "failed to hash password", err))
		return
	}

	user := &models.User{
		ID:             uuid.New(),
		Username:       strings.TrimSpace(msg.Username),
		Email:          strings.TrimSpace(msg.Email),
		HashedPassword: string(hashed),
		CreatedAt:      time.Now(),
		LastActive:     time.Now(),
	}
	if err := s.db.SaveUser(ctx, user); err != nil {
		context.Respond(err)
		return
	}

	s.mu.Lock()
	s.userActors[user.ID] = s.spawnUserActor(context, user.ID)
	s.mu.Unlock()

	slog.Info("UserSupervisor: registered user", "userId", user.ID, "username", user.Username)
	context.Respond(&UserState{
		ID:         user.ID,
		Username:   user.Username,
		Email:      user.Email,
		LastActive: user.LastActive,
	})
}

func (s *UserSupervisor) handleLogin(context actor.Context, msg *LoginMsg) {
	slog.Info("UserSupervisor: processing login", "email", msg.Email)

	ctx := stdctx.Background()
	user, err := s.db.GetUserByEmail(ctx, msg.Email)
	if err != nil {
		context.Respond(&LoginResponse{Success: false, Error: "Invalid credentials"})
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(msg.Password)) != nil {
		context.Respond(&LoginResponse{Success: false, Error: "Invalid credentials"})
		return
	}

	token, err := middleware.GenerateToken(user.ID)
	if err != nil {
		slog.Error("UserSupervisor: token generation failed", "error", err)
		context.Respond(&LoginResponse{Success: false, Error: "Login failed"})
		return
	}

	if err := s.db.TouchUserActivity(ctx, user.ID); err != nil {
		slog.Warn("UserSupervisor: failed to update last active", "userId", user.ID, "error", err)
	}

	context.Respond(&LoginResponse{Success: true, Token: token, UserID: user.ID})
}

func (s *UserSupervisor) spawnUserActor(context actor.Context, userID uuid.UUID) *actor.PID {
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewUserActor(userID, s.db)
	})
	return context.Spawn(props)
}

func (s *UserSupervisor) getOrCreateUserActor(context actor.Context, userID uuid.UUID) (*actor.PID, error) {
	s.mu.RLock()
	pid, exists := s.userActors[userID]
	s.mu.RUnlock()
	if exists {
		return pid, nil
	}

	if _, err := s.db.GetUser(stdctx.Background(), userID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if pid, exists := s.userActors[userID]; exists {
		return pid, nil
	}
	pid = s.spawnUserActor(context, userID)
	s.userActors[userID] = pid
	return pid, nil
}

// UserActor serves profile reads for a single user.
type UserActor struct {
	id uuid.UUID
	db database.DBAdapter
}

func NewUserActor(id uuid.UUID, db database.DBAdapter) actor.Actor {
	return &UserActor{id: id, db: db}
}

func (a *UserActor) Receive(context actor.Context) {
	switch context.Message().(type) {
	case *actor.Started:
		slog.Debug("UserActor started", "userId", a.id)

	case *GetUserProfileMsg:
		user, err := a.db.GetUser(stdctx.Background(), a.id)
		if err != nil {
			context.Respond(err)
			return
		}
		context.Respond(&UserState{
			ID:         user.ID,
			Username:   user.Username,
			Email:      user.Email,
			LastActive: user.LastActive,
			Fanclubs:   user.Fanclubs,
		})
	}
}
