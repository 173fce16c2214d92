package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Azuznn/fanclub-site12/internal/engine/actors"
)

// RegisterUserRequest represents a registration request
type RegisterUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleUserRegistration handles new user registration
func (s *Server) HandleUserRegistration() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req RegisterUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		result, err := s.ask(s.Engine.GetUserSupervisor(), &actors.RegisterUserMsg{
			Username: req.Username,
			Email:    req.Email,
			Password: req.Password,
		})
		if err != nil {
			http.Error(w, "Registration failed", http.StatusInternalServerError)
			return
		}
		s.respond(w, result)
	}
}

// HandleUserLogin handles login and token issuance
func (s *Server) HandleUserLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		result, err := s.ask(s.Engine.GetUserSupervisor(), &actors.LoginMsg{
			Email:    req.Email,
			Password: req.Password,
		})
		if err != nil {
			http.Error(w, "Login failed", http.StatusInternalServerError)
			return
		}

		if resp, ok := result.(*actors.LoginResponse); ok && !resp.Success {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(resp)
			return
		}
		s.respond(w, result)
	}
}

// HandleUserProfile returns the authenticated user's profile
func (s *Server) HandleUserProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, ok := s.requireViewer(w, r)
		if !ok {
			return
		}

		result, err := s.ask(s.Engine.GetUserSupervisor(), &actors.GetUserProfileMsg{UserID: userID})
		if err != nil {
			http.Error(w, "Failed to get profile", http.StatusInternalServerError)
			return
		}
		s.respond(w, result)
	}
}
