package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Azuznn/fanclub-site12/internal/engine/actors"
	"github.com/Azuznn/fanclub-site12/internal/models"

	"github.com/google/uuid"
)

// CreatePostRequest represents a request to publish a post. The author is
// the authenticated caller.
type CreatePostRequest struct {
	FanclubID  string `json:"fanclubId"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	Visibility string `json:"visibility"`
}

// UpdateVisibilityRequest changes a post's visibility
type UpdateVisibilityRequest struct {
	PostID     string `json:"postId"`
	Visibility string `json:"visibility"`
}

// CreateCommentRequest represents a request to comment on a post
type CreateCommentRequest struct {
	PostID  string `json:"postId"`
	Content string `json:"content"`
}

// HandlePosts handles post lookup and creation
func (s *Server) HandlePosts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			postID, err := uuid.Parse(r.URL.Query().Get("id"))
			if err != nil {
				http.Error(w, "Invalid post ID format", http.StatusBadRequest)
				return
			}

			result, err := s.ask(s.Engine.GetPostActor(), &actors.GetPostMsg{
				PostID:   postID,
				ViewerID: viewerID(r),
			})
			if err != nil {
				http.Error(w, "Failed to get post", http.StatusInternalServerError)
				return
			}
			s.respond(w, result)

		case http.MethodPost:
			authorID, ok := s.requireViewer(w, r)
			if !ok {
				return
			}

			var req CreatePostRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}
			fanclubID, err := uuid.Parse(req.FanclubID)
			if err != nil {
				http.Error(w, "Invalid fanclub ID format", http.StatusBadRequest)
				return
			}

			visibility := models.Visibility(req.Visibility)
			if req.Visibility == "" {
				visibility = models.VisibilityMembers
			}

			result, err := s.ask(s.Engine.GetPostActor(), &actors.CreatePostMsg{
				FanclubID:  fanclubID,
				AuthorID:   authorID,
				Title:      req.Title,
				Content:    req.Content,
				Visibility: visibility,
			})
			if err != nil {
				http.Error(w, "Failed to create post", http.StatusInternalServerError)
				return
			}
			s.respond(w, result)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandleFanclubPosts lists a fanclub's posts, filtered for the viewer
func (s *Server) HandleFanclubPosts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		fanclubID, err := uuid.Parse(r.URL.Query().Get("fanclubId"))
		if err != nil {
			http.Error(w, "Invalid fanclub ID format", http.StatusBadRequest)
			return
		}

		result, err := s.ask(s.Engine.GetPostActor(), &actors.ListFanclubPostsMsg{
			FanclubID: fanclubID,
			ViewerID:  viewerID(r),
		})
		if err != nil {
			http.Error(w, "Failed to list posts", http.StatusInternalServerError)
			return
		}
		s.respond(w, result)
	}
}

// HandlePostVisibility lets the fanclub owner change a post's visibility
func (s *Server) HandlePostVisibility() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut && r.Method != http.MethodPatch {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		actorID, ok := s.requireViewer(w, r)
		if !ok {
			return
		}

		var req UpdateVisibilityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		postID, err := uuid.Parse(req.PostID)
		if err != nil {
			http.Error(w, "Invalid post ID format", http.StatusBadRequest)
			return
		}

		result, err := s.ask(s.Engine.GetPostActor(), &actors.UpdatePostVisibilityMsg{
			PostID:     postID,
			ActorID:    actorID,
			Visibility: models.Visibility(req.Visibility),
		})
		if err != nil {
			http.Error(w, "Failed to update visibility", http.StatusInternalServerError)
			return
		}
		s.respond(w, result)
	}
}

// HandleComments handles comment listing, creation and deletion
func (s *Server) HandleComments() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			postID, err := uuid.Parse(r.URL.Query().Get("postId"))
			if err != nil {
				http.Error(w, "Invalid post ID format", http.StatusBadRequest)
				return
			}

			result, err := s.ask(s.Engine.GetPostActor(), &actors.GetPostCommentsMsg{
				PostID:   postID,
				ViewerID: viewerID(r),
			})
			if err != nil {
				http.Error(w, "Failed to get comments", http.StatusInternalServerError)
				return
			}
			s.respond(w, result)

		case http.MethodPost:
			authorID, ok := s.requireViewer(w, r)
			if !ok {
				return
			}

			var req CreateCommentRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}
			postID, err := uuid.Parse(req.PostID)
			if err != nil {
				http.Error(w, "Invalid post ID format", http.StatusBadRequest)
				return
			}

			result, err := s.ask(s.Engine.GetPostActor(), &actors.CreateCommentMsg{
				PostID:   postID,
				AuthorID: authorID,
				Content:  req.Content,
			})
			if err != nil {
				http.Error(w, "Failed to create comment", http.StatusInternalServerError)
				return
			}
			s.respond(w, result)

		case http.MethodDelete:
			actorID, ok := s.requireViewer(w, r)
			if !ok {
				return
			}

			commentID, err := uuid.Parse(r.URL.Query().Get("id"))
			if err != nil {
				http.Error(w, "Invalid comment ID format", http.StatusBadRequest)
				return
			}

			result, err := s.ask(s.Engine.GetPostActor(), &actors.DeleteCommentMsg{
				CommentID: commentID,
				ActorID:   actorID,
			})
			if err != nil {
				http.Error(w, "Failed to delete comment", http.StatusInternalServerError)
				return
			}
			s.respond(w, result)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}
