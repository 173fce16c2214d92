package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Azuznn/fanclub-site12/internal/engine/actors"
)

// HandleHealth handles health check requests
func (s *Server) HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		fanclubResult, err := s.ask(s.Engine.GetFanclubActor(), &actors.GetCountsMsg{})
		if err != nil {
			http.Error(w, "Failed to get fanclub count", http.StatusInternalServerError)
			return
		}

		postResult, err := s.ask(s.Engine.GetPostActor(), &actors.GetCountsMsg{})
		if err != nil {
			http.Error(w, "Failed to get post count", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":        "healthy",
			"fanclub_count": fanclubResult,
			"post_count":    postResult,
			"uptime":        s.Metrics.Uptime().String(),
			"server_time":   time.Now(),
		})
	}
}

// HandleSimpleHealth is a cheap liveness probe that skips the actor system
func (s *Server) HandleSimpleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "ok",
		})
	}
}
