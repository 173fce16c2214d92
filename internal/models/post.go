package models

import (
	"time"

	"github.com/google/uuid"
)

// Visibility controls who may read a post.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityMembers Visibility = "members"
)

// Valid reports whether v is one of the declared visibility values.
func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityMembers
}

type Post struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	FanclubID      uuid.UUID  `json:"fanclubId" db:"fanclub_id"`
	FanclubName    string     `json:"fanclubName,omitempty" db:"fanclub_name"`
	AuthorID       uuid.UUID  `json:"authorId" db:"author_id"`
	AuthorUsername string     `json:"authorUsername,omitempty" db:"author_username"`
	Title          string     `json:"title" db:"title"`
	Content        string     `json:"content" db:"content"`
	Visibility     Visibility `json:"visibility" db:"visibility"`
	LikeCount      int        `json:"likeCount" db:"like_count"`
	CommentCount   int        `json:"commentCount" db:"comment_count"`
	PublishedAt    time.Time  `json:"publishedAt" db:"published_at"`
	UpdatedAt      time.Time  `json:"updatedAt" db:"updated_at"`
}
