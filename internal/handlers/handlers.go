package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Azuznn/fanclub-site12/internal/database"
	"github.com/Azuznn/fanclub-site12/internal/engine"
	"github.com/Azuznn/fanclub-site12/internal/middleware"
	"github.com/Azuznn/fanclub-site12/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
)

// Server holds all server dependencies, including the actor system and engine
type Server struct {
	System         *actor.ActorSystem
	Context        *actor.RootContext
	Engine         *engine.Engine
	Metrics        *utils.MetricsCollector
	DB             database.DBAdapter
	RequestTimeout time.Duration
}

// NewServer creates a new Server instance with the given components
func NewServer(
	system *actor.ActorSystem,
	eng *engine.Engine,
	metrics *utils.MetricsCollector,
	db database.DBAdapter,
) *Server {
	return &Server{
		System:         system,
		Context:        system.Root,
		Engine:         eng,
		Metrics:        metrics,
		DB:             db,
		RequestTimeout: 5 * time.Second,
	}
}

// viewerID returns the verified identity from the request context, or the
// anonymous ID when no token was presented. Request bodies and query strings
// are never consulted.
func viewerID(r *http.Request) uuid.UUID {
	if userID, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		return userID
	}
	return uuid.Nil
}

// requireViewer is viewerID for write endpoints: missing identity is an error.
func (s *Server) requireViewer(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok || userID == uuid.Nil {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return uuid.Nil, false
	}
	return userID, true
}

// respond writes an actor reply as JSON, translating AppError replies to
// their HTTP status.
func (s *Server) respond(w http.ResponseWriter, result interface{}) {
	if appErr, ok := result.(*utils.AppError); ok {
		http.Error(w, appErr.Error(), utils.AppErrorToHTTPStatus(appErr.Code))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// ask sends msg to pid and waits for the reply.
func (s *Server) ask(pid *actor.PID, msg interface{}) (interface{}, error) {
	future := s.Context.RequestFuture(pid, msg, s.RequestTimeout)
	return future.Result()
}
