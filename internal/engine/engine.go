package engine

import (
	"github.com/Azuznn/fanclub-site12/internal/database"
	"github.com/Azuznn/fanclub-site12/internal/engine/actors"
	"github.com/Azuznn/fanclub-site12/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
)

// Engine coordinates communication between actors
type Engine struct {
	fanclubActor   *actor.PID
	postActor      *actor.PID
	userSupervisor *actor.PID
}

// NewEngine spawns the actor hierarchy. The storage adapter is passed to
// every actor at construction so tests can run against an in-memory adapter.
func NewEngine(system *actor.ActorSystem, metrics *utils.MetricsCollector, db database.DBAdapter) *Engine {
	context := system.Root

	fanclubProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewFanclubActor(db, metrics)
	})
	fanclubPID := context.Spawn(fanclubProps)

	postProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewPostActor(db, metrics)
	})
	postPID := context.Spawn(postProps)

	userProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewUserSupervisor(db)
	})
	userPID := context.Spawn(userProps)

	return &Engine{
		fanclubActor:   fanclubPID,
		postActor:      postPID,
		userSupervisor: userPID,
	}
}

// GetFanclubActor returns the PID of the fanclub actor
func (e *Engine) GetFanclubActor() *actor.PID {
	return e.fanclubActor
}

// GetPostActor returns the PID of the post actor
func (e *Engine) GetPostActor() *actor.PID {
	return e.postActor
}

// GetUserSupervisor returns the PID of the user supervisor
func (e *Engine) GetUserSupervisor() *actor.PID {
	return e.userSupervisor
}
