package database

import (
	"context"
	"fmt"
	"time"

	"github.com/Azuznn/fanclub-site12/internal/models"
	"github.com/Azuznn/fanclub-site12/internal/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PostDB represents the MongoDB document structure for posts
type PostDB struct {
	ID           string    `bson:"_id"`
	FanclubID    string    `bson:"fanclubId"`
	AuthorID     string    `bson:"authorId"`
	Title        string    `bson:"title"`
	Content      string    `bson:"content"`
	Visibility   string    `bson:"visibility"`
	LikeCount    int       `bson:"likeCount"`
	CommentCount int       `bson:"commentCount"`
	PublishedAt  time.Time `bson:"publishedAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
}

func postFromDB(doc *PostDB) (*models.Post, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid post ID in database: %v", err)
	}
	fanclubID, err := uuid.Parse(doc.FanclubID)
	if err != nil {
		return nil, fmt.Errorf("invalid fanclub ID in database: %v", err)
	}
	authorID, err := uuid.Parse(doc.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("invalid author ID in database: %v", err)
	}
	return &models.Post{
		ID:           id,
		FanclubID:    fanclubID,
		AuthorID:     authorID,
		Title:        doc.Title,
		Content:      doc.Content,
		Visibility:   models.Visibility(doc.Visibility),
		LikeCount:    doc.LikeCount,
		CommentCount: doc.CommentCount,
		PublishedAt:  doc.PublishedAt,
		UpdatedAt:    doc.UpdatedAt,
	}, nil
}

// SavePost inserts a new post or replaces an existing one by ID.
func (m *MongoDB) SavePost(ctx context.Context, post *models.Post) error {
	post.UpdatedAt = time.Now()
	if post.PublishedAt.IsZero() {
		post.PublishedAt = post.UpdatedAt
	}

	doc := PostDB{
		ID:           post.ID.String(),
		FanclubID:    post.FanclubID.String(),
		AuthorID:     post.AuthorID.String(),
		Title:        post.Title,
		Content:      post.Content,
		Visibility:   string(post.Visibility),
		LikeCount:    post.LikeCount,
		CommentCount: post.CommentCount,
		PublishedAt:  post.PublishedAt,
		UpdatedAt:    post.UpdatedAt,
	}

	opts := options.Replace().SetUpsert(true)
	_, err := m.Posts.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to save post", err)
	}
	return nil
}

// GetPost retrieves a post by its ID.
func (m *MongoDB) GetPost(ctx context.Context, postID uuid.UUID) (*models.Post, error) {
	var doc PostDB
	err := m.Posts.FindOne(ctx, bson.M{"_id": postID.String()}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, utils.NewAppError(utils.ErrNotFound, "post not found", err)
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to get post", err)
	}
	return postFromDB(&doc)
}

// GetPostsByFanclub retrieves all posts of a fanclub, newest first. The
// caller runs the result through the visibility gate.
func (m *MongoDB) GetPostsByFanclub(ctx context.Context, fanclubID uuid.UUID) ([]*models.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "publishedAt", Value: -1}})
	cursor, err := m.Posts.Find(ctx, bson.M{"fanclubId": fanclubID.String()}, opts)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to get fanclub posts", err)
	}
	defer cursor.Close(ctx)

	posts := make([]*models.Post, 0)
	for cursor.Next(ctx) {
		var doc PostDB
		if err := cursor.Decode(&doc); err != nil {
			return nil, utils.NewAppError(utils.ErrDatabase, "failed to decode post", err)
		}
		post, err := postFromDB(&doc)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	if err := cursor.Err(); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "cursor error", err)
	}
	return posts, nil
}

// UpdatePostVisibility changes the declared visibility of a post.
func (m *MongoDB) UpdatePostVisibility(ctx context.Context, postID uuid.UUID, visibility models.Visibility) error {
	result, err := m.Posts.UpdateOne(ctx,
		bson.M{"_id": postID.String()},
		bson.M{"$set": bson.M{"visibility": string(visibility), "updatedAt": time.Now()}},
	)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to update post visibility", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewAppError(utils.ErrNotFound, "post not found", nil)
	}
	return nil
}
