package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Azuznn/fanclub-site12/internal/engine/actors"

	"github.com/google/uuid"
)

// CreateFanclubRequest represents a request to create a new fanclub. The
// owner is the authenticated caller; it is not part of the body.
type CreateFanclubRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Purpose     string `json:"purpose"`
	MonthlyFee  int    `json:"monthlyFee"`
	CoverImage  string `json:"coverImage"`
}

// MembershipRequest targets a fanclub for join/leave. The user is the
// authenticated caller.
type MembershipRequest struct {
	FanclubID string `json:"fanclubId"`
}

// HandleFanclubs handles fanclub listing, lookup, search and creation
func (s *Server) HandleFanclubs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if id := r.URL.Query().Get("id"); id != "" {
				fanclubID, err := uuid.Parse(id)
				if err != nil {
					http.Error(w, "Invalid fanclub ID format", http.StatusBadRequest)
					return
				}
				result, err := s.ask(s.Engine.GetFanclubActor(), &actors.GetFanclubMsg{FanclubID: fanclubID})
				if err != nil {
					http.Error(w, "Failed to get fanclub", http.StatusInternalServerError)
					return
				}
				s.respond(w, result)
				return
			}

			// No id: search, where an empty query lists everything.
			query := r.URL.Query().Get("search")
			result, err := s.ask(s.Engine.GetFanclubActor(), &actors.SearchFanclubsMsg{Query: query})
			if err != nil {
				http.Error(w, "Failed to search fanclubs", http.StatusInternalServerError)
				return
			}
			s.respond(w, result)

		case http.MethodPost:
			ownerID, ok := s.requireViewer(w, r)
			if !ok {
				return
			}

			var req CreateFanclubRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}

			result, err := s.ask(s.Engine.GetFanclubActor(), &actors.CreateFanclubMsg{
				Name:        req.Name,
				Description: req.Description,
				Purpose:     req.Purpose,
				MonthlyFee:  req.MonthlyFee,
				CoverImage:  req.CoverImage,
				OwnerID:     ownerID,
			})
			if err != nil {
				http.Error(w, "Failed to create fanclub", http.StatusInternalServerError)
				return
			}
			s.respond(w, result)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandleJoinFanclub handles membership creation for the authenticated user
func (s *Server) HandleJoinFanclub() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, ok := s.requireViewer(w, r)
		if !ok {
			return
		}

		var req MembershipRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		fanclubID, err := uuid.Parse(req.FanclubID)
		if err != nil {
			http.Error(w, "Invalid fanclub ID format", http.StatusBadRequest)
			return
		}

		result, err := s.ask(s.Engine.GetFanclubActor(), &actors.JoinFanclubMsg{
			FanclubID: fanclubID,
			UserID:    userID,
		})
		if err != nil {
			http.Error(w, "Failed to join fanclub", http.StatusInternalServerError)
			return
		}
		s.respond(w, result)
	}
}

// HandleLeaveFanclub handles membership removal for the authenticated user
func (s *Server) HandleLeaveFanclub() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodDelete {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, ok := s.requireViewer(w, r)
		if !ok {
			return
		}

		var req MembershipRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		fanclubID, err := uuid.Parse(req.FanclubID)
		if err != nil {
			http.Error(w, "Invalid fanclub ID format", http.StatusBadRequest)
			return
		}

		result, err := s.ask(s.Engine.GetFanclubActor(), &actors.LeaveFanclubMsg{
			FanclubID: fanclubID,
			UserID:    userID,
		})
		if err != nil {
			http.Error(w, "Failed to leave fanclub", http.StatusInternalServerError)
			return
		}
		s.respond(w, result)
	}
}

// HandleFanclubMembers returns the membership roster of a fanclub
func (s *Server) HandleFanclubMembers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		fanclubID, err := uuid.Parse(r.URL.Query().Get("id"))
		if err != nil {
			http.Error(w, "Invalid fanclub ID format", http.StatusBadRequest)
			return
		}

		result, err := s.ask(s.Engine.GetFanclubActor(), &actors.GetFanclubMembersMsg{FanclubID: fanclubID})
		if err != nil {
			http.Error(w, "Failed to get members", http.StatusInternalServerError)
			return
		}
		s.respond(w, result)
	}
}

// HandleFanclubConsistency verifies the stored member counter against the
// membership rows
func (s *Server) HandleFanclubConsistency() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		fanclubID, err := uuid.Parse(r.URL.Query().Get("id"))
		if err != nil {
			http.Error(w, "Invalid fanclub ID format", http.StatusBadRequest)
			return
		}

		result, err := s.ask(s.Engine.GetFanclubActor(), &actors.CheckFanclubConsistencyMsg{FanclubID: fanclubID})
		if err != nil {
			http.Error(w, "Failed to check consistency", http.StatusInternalServerError)
			return
		}
		s.respond(w, result)
	}
}
