package actors

import (
	"testing"

	"github.com/Azuznn/fanclub-site12/internal/database"
	"github.com/Azuznn/fanclub-site12/internal/middleware"
	"github.com/Azuznn/fanclub-site12/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
)

func spawnUserSupervisor(t *testing.T) (*actor.ActorSystem, *actor.PID) {
	t.Helper()

	system := actor.NewActorSystem()
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewUserSupervisor(database.NewMemoryDB())
	})
	return system, system.Root.Spawn(props)
}

func TestUserRegistrationAndLogin(t *testing.T) {
	system, pid := spawnUserSupervisor(t)

	result := request(t, system, pid, &RegisterUserMsg{
		Username: "testuser",
		Email:    "test@example.com",
		Password: "password123",
	})
	userState, ok := result.(*UserState)
	if !ok {
		t.Fatalf("expected user state, got %T: %v", result, result)
	}
	assert.Equal(t, "testuser", userState.Username)

	result = request(t, system, pid, &LoginMsg{
		Email:    "test@example.com",
		Password: "password123",
	})
	loginResponse, ok := result.(*LoginResponse)
	if !ok {
		t.Fatalf("expected login response, got %T", result)
	}
	assert.True(t, loginResponse.Success)
	assert.NotEmpty(t, loginResponse.Token)
	assert.Equal(t, userState.ID, loginResponse.UserID)

	// The token carries the verified identity.
	claims, err := middleware.ValidateToken(loginResponse.Token)
	assert.NoError(t, err)
	assert.Equal(t, userState.ID, claims.UserID)

	// Wrong password fails with the same opaque error as unknown email.
	result = request(t, system, pid, &LoginMsg{
		Email:    "test@example.com",
		Password: "wrongpassword",
	})
	badLogin := result.(*LoginResponse)
	assert.False(t, badLogin.Success)
	assert.Equal(t, "Invalid credentials", badLogin.Error)

	result = request(t, system, pid, &LoginMsg{
		Email:    "nobody@example.com",
		Password: "password123",
	})
	missingLogin := result.(*LoginResponse)
	assert.False(t, missingLogin.Success)
	assert.Equal(t, "Invalid credentials", missingLogin.Error)
}

func TestDuplicateRegistrationRejected(t *testing.T) {
	system, pid := spawnUserSupervisor(t)

	request(t, system, pid, &RegisterUserMsg{
		Username: "first",
		Email:    "dup@example.com",
		Password: "password123",
	})

	result := request(t, system, pid, &RegisterUserMsg{
		Username: "second",
		Email:    "dup@example.com",
		Password: "password456",
	})
	appErr, ok := result.(*utils.AppError)
	if !ok {
		t.Fatalf("expected duplicate error, got %T", result)
	}
	assert.Equal(t, utils.ErrUserAlreadyExists, appErr.Code)
}

func TestRegistrationValidation(t *testing.T) {
	system, pid := spawnUserSupervisor(t)

	result := request(t, system, pid, &RegisterUserMsg{
		Username: "shortpw",
		Email:    "short@example.com",
		Password: "short",
	})
	appErr, ok := result.(*utils.AppError)
	if !ok {
		t.Fatalf("expected validation error, got %T", result)
	}
	assert.Equal(t, utils.ErrInvalidInput, appErr.Code)
}

func TestGetUserProfile(t *testing.T) {
	system, pid := spawnUserSupervisor(t)

	registered := request(t, system, pid, &RegisterUserMsg{
		Username: "profileuser",
		Email:    "profile@example.com",
		Password: "password123",
	}).(*UserState)

	result := request(t, system, pid, &GetUserProfileMsg{UserID: registered.ID})
	profile, ok := result.(*UserState)
	if !ok {
		t.Fatalf("expected profile, got %T: %v", result, result)
	}
	assert.Equal(t, "profileuser", profile.Username)
	assert.Equal(t, "profile@example.com", profile.Email)
}
