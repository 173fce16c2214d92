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

// CommentDB represents the MongoDB document structure for comments
type CommentDB struct {
	ID        string    `bson:"_id"`
	PostID    string    `bson:"postId"`
	AuthorID  string    `bson:"authorId"`
	Content   string    `bson:"content"`
	CreatedAt time.Time `bson:"createdAt"`
}

func commentFromDB(doc *CommentDB) (*models.Comment, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid comment ID in database: %v", err)
	}
	postID, err := uuid.Parse(doc.PostID)
	if err != nil {
		return nil, fmt.Errorf("invalid post ID in database: %v", err)
	}
	authorID, err := uuid.Parse(doc.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("invalid author ID in database: %v", err)
	}
	return &models.Comment{
		ID:        id,
		PostID:    postID,
		AuthorID:  authorID,
		Content:   doc.Content,
		CreatedAt: doc.CreatedAt,
	}, nil
}

// SaveComment inserts a comment and increments the post's commentCount in
// one session transaction.
func (m *MongoDB) SaveComment(ctx context.Context, comment *models.Comment) error {
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}

	_, err := m.withTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		doc := CommentDB{
			ID:        comment.ID.String(),
			PostID:    comment.PostID.String(),
			AuthorID:  comment.AuthorID.String(),
			Content:   comment.Content,
			CreatedAt: comment.CreatedAt,
		}
		if _, err := m.Comments.InsertOne(sc, doc); err != nil {
			return nil, utils.NewAppError(utils.ErrDatabase, "failed to save comment", err)
		}

		result, err := m.Posts.UpdateOne(sc,
			bson.M{"_id": comment.PostID.String()},
			bson.M{"$inc": bson.M{"commentCount": 1}, "$set": bson.M{"updatedAt": time.Now()}},
		)
		if err != nil {
			return nil, utils.NewAppError(utils.ErrDatabase, "failed to update post comment count", err)
		}
		if result.MatchedCount == 0 {
			return nil, utils.NewAppError(utils.ErrNotFound, "post not found to update comment count", nil)
		}
		return nil, nil
	})
	return err
}

// GetComment retrieves a single comment by its ID.
func (m *MongoDB) GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	var doc CommentDB
	err := m.Comments.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, utils.NewAppError(utils.ErrNotFound, "comment not found", err)
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to get comment", err)
	}
	return commentFromDB(&doc)
}

// GetPostComments retrieves all comments of a post, oldest first.
func (m *MongoDB) GetPostComments(ctx context.Context, postID uuid.UUID) ([]*models.Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := m.Comments.Find(ctx, bson.M{"postId": postID.String()}, opts)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to get post comments", err)
	}
	defer cursor.Close(ctx)

	comments := make([]*models.Comment, 0)
	for cursor.Next(ctx) {
		var doc CommentDB
		if err := cursor.Decode(&doc); err != nil {
			return nil, utils.NewAppError(utils.ErrDatabase, "failed to decode comment", err)
		}
		comment, err := commentFromDB(&doc)
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	if err := cursor.Err(); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "cursor error", err)
	}
	return comments, nil
}

// DeleteCommentAndDecrementCount deletes a comment and decrements the
// post's commentCount in one session transaction.
func (m *MongoDB) DeleteCommentAndDecrementCount(ctx context.Context, commentID uuid.UUID) error {
	_, err := m.withTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		var doc CommentDB
		err := m.Comments.FindOne(sc, bson.M{"_id": commentID.String()}).Decode(&doc)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, utils.NewAppError(utils.ErrNotFound, "comment not found for deletion", err)
			}
			return nil, utils.NewAppError(utils.ErrDatabase, "failed to get comment for deletion", err)
		}

		if _, err := m.Comments.DeleteOne(sc, bson.M{"_id": commentID.String()}); err != nil {
			return nil, utils.NewAppError(utils.ErrDatabase, "failed to delete comment", err)
		}

		_, err = m.Posts.UpdateOne(sc,
			bson.M{"_id": doc.PostID, "commentCount": bson.M{"$gt": 0}},
			bson.M{"$inc": bson.M{"commentCount": -1}, "$set": bson.M{"updatedAt": time.Now()}},
		)
		if err != nil {
			return nil, utils.NewAppError(utils.ErrDatabase, "failed to update post comment count", err)
		}
		return nil, nil
	})
	return err
}
