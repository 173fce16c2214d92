// internal/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Azuznn/fanclub-site12/internal/models"
	"github.com/Azuznn/fanclub-site12/internal/utils"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresDB represents a PostgreSQL database connection
type PostgresDB struct {
	DB *sqlx.DB
}

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(connectionString string) (*PostgresDB, error) {
	db, err := sqlx.Connect("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %v", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %v", err)
	}

	slog.Info("connected to PostgreSQL")

	return &PostgresDB{
		DB: db,
	}, nil
}

// Close closes the database connection
func (p *PostgresDB) Close(ctx context.Context) error {
	return p.DB.Close()
}

// InitializeTables creates all necessary tables if they don't exist
func (p *PostgresDB) InitializeTables(ctx context.Context) error {
	// Users table
	_, err := p.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			username VARCHAR(50) UNIQUE NOT NULL,
			email VARCHAR(100) UNIQUE NOT NULL,
			password_hash VARCHAR(100) NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			last_active TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create users table: %v", err)
	}

	// Fanclubs table
	_, err = p.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS fanclubs (
			id UUID PRIMARY KEY,
			name VARCHAR(100) UNIQUE NOT NULL,
			description TEXT,
			purpose TEXT NOT NULL,
			monthly_fee INTEGER NOT NULL DEFAULT 0 CHECK (monthly_fee >= 0),
			cover_image VARCHAR(255),
			owner_id UUID NOT NULL REFERENCES users(id),
			member_count INTEGER NOT NULL DEFAULT 0 CHECK (member_count >= 0),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create fanclubs table: %v", err)
	}

	// Memberships table. The composite uniqueness closes the duplicate-join
	// race at the storage level; the partial index keeps exactly one owner
	// row per fanclub.
	_, err = p.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS memberships (
			id UUID PRIMARY KEY,
			fanclub_id UUID NOT NULL REFERENCES fanclubs(id),
			user_id UUID NOT NULL REFERENCES users(id),
			is_owner BOOLEAN NOT NULL DEFAULT FALSE,
			joined_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			next_payment_date TIMESTAMP WITH TIME ZONE,
			UNIQUE (fanclub_id, user_id)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create memberships table: %v", err)
	}

	_, err = p.DB.ExecContext(ctx, `
		CREATE UNIQUE INDEX IF NOT EXISTS one_owner_per_fanclub
		ON memberships (fanclub_id) WHERE is_owner
	`)
	if err != nil {
		return fmt.Errorf("failed to create owner index: %v", err)
	}

	// Posts table
	_, err = p.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS posts (
			id UUID PRIMARY KEY,
			fanclub_id UUID NOT NULL REFERENCES fanclubs(id),
			author_id UUID NOT NULL REFERENCES users(id),
			title VARCHAR(300) NOT NULL,
			content TEXT,
			visibility VARCHAR(10) NOT NULL DEFAULT 'public',
			like_count INTEGER NOT NULL DEFAULT 0,
			comment_count INTEGER NOT NULL DEFAULT 0,
			published_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create posts table: %v", err)
	}

	// Comments table
	_, err = p.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS comments (
			id UUID PRIMARY KEY,
			post_id UUID NOT NULL REFERENCES posts(id),
			author_id UUID NOT NULL REFERENCES users(id),
			content TEXT NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create comments table: %v", err)
	}

	return nil
}

// --- User Methods ---

// GetUserByEmail fetches a user by their email address.
func (p *PostgresDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, username, email, password_hash, created_at, updated_at, last_active FROM users WHERE email = $1`
	var user models.User
	err := p.DB.GetContext(ctx, &user, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.NewAppError(utils.ErrNotFound, "user not found", err)
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query user by email", err)
	}
	return &user, nil
}

// GetUser fetches a user by their ID, including their fanclub memberships.
func (p *PostgresDB) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT id, username, email, password_hash, created_at, updated_at, last_active FROM users WHERE id = $1`
	var user models.User
	err := p.DB.GetContext(ctx, &user, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.NewAppError(utils.ErrNotFound, "user not found", err)
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query user by id", err)
	}

	fanclubs, err := p.GetUserFanclubs(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Fanclubs = fanclubs

	return &user, nil
}

// SaveUser inserts a new user into the database.
func (p *PostgresDB) SaveUser(ctx context.Context, user *models.User) error {
	now := time.Now()
	user.UpdatedAt = now
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.LastActive.IsZero() {
		user.LastActive = now
	}

	query := `
		INSERT INTO users (id, username, email, password_hash, created_at, updated_at, last_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := p.DB.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.HashedPassword,
		user.CreatedAt,
		user.UpdatedAt,
		user.LastActive,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return utils.NewAppError(utils.ErrUserAlreadyExists, fmt.Sprintf("user already exists: %v", pqErr.Constraint), err)
		}
		return utils.NewAppError(utils.ErrDatabase, "failed to save user", err)
	}
	return nil
}

// TouchUserActivity updates the user's last active time.
func (p *PostgresDB) TouchUserActivity(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE users SET last_active = NOW(), updated_at = NOW() WHERE id = $1`
	result, err := p.DB.ExecContext(ctx, query, id)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to update user activity", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to get rows affected after update", err)
	}
	if rowsAffected == 0 {
		return utils.NewAppError(utils.ErrNotFound, "user not found for activity update", nil)
	}
	return nil
}

// --- Fanclub Methods ---

// CreateFanclubWithOwner inserts the fanclub row and its owner membership
// as one transaction. The club starts with member_count = 1: the owner.
func (p *PostgresDB) CreateFanclubWithOwner(ctx context.Context, club *models.Fanclub) (*models.Membership, error) {
	if club.CreatedAt.IsZero() {
		club.CreatedAt = time.Now()
	}
	club.MemberCount = 1

	tx, err := p.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to begin transaction for create fanclub", err)
	}
	defer tx.Rollback() // Rollback is ignored if tx is committed.

	clubQuery := `
		INSERT INTO fanclubs (id, name, description, purpose, monthly_fee, cover_image, owner_id, member_count, created_at)
		VALUES (:id, :name, :description, :purpose, :monthly_fee, :cover_image, :owner_id, :member_count, :created_at)
	`
	_, err = tx.NamedExecContext(ctx, clubQuery, club)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code.Name() {
			case "unique_violation":
				return nil, utils.NewAppError(utils.ErrDuplicate, fmt.Sprintf("fanclub %q already exists", club.Name), err)
			case "foreign_key_violation":
				return nil, utils.NewAppError(utils.ErrNotFound, "owner not found", err)
			}
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to create fanclub", err)
	}

	owner := &models.Membership{
		ID:        uuid.New(),
		FanclubID: club.ID,
		UserID:    club.OwnerID,
		IsOwner:   true,
		JoinedAt:  club.CreatedAt,
		// The owner has no renewal date.
	}

	memberQuery := `
		INSERT INTO memberships (id, fanclub_id, user_id, is_owner, joined_at, next_payment_date)
		VALUES (:id, :fanclub_id, :user_id, :is_owner, :joined_at, :next_payment_date)
	`
	_, err = tx.NamedExecContext(ctx, memberQuery, owner)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to create owner membership", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to commit create fanclub transaction", err)
	}
	return owner, nil
}

// GetFanclubByID fetches a fanclub by its ID.
func (p *PostgresDB) GetFanclubByID(ctx context.Context, id uuid.UUID) (*models.Fanclub, error) {
	query := `SELECT id, name, description, purpose, monthly_fee, cover_image, owner_id, member_count, created_at FROM fanclubs WHERE id = $1`
	var club models.Fanclub
	err := p.DB.GetContext(ctx, &club, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.NewAppError(utils.ErrNotFound, "fanclub not found", err)
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query fanclub by id", err)
	}
	return &club, nil
}

// SearchFanclubs fetches fanclubs whose name, description or purpose
// contains the query, newest first. An empty query lists everything.
func (p *PostgresDB) SearchFanclubs(ctx context.Context, query string) ([]*models.Fanclub, error) {
	pattern := "%" + query + "%"
	sqlQuery := `
		SELECT id, name, description, purpose, monthly_fee, cover_image, owner_id, member_count, created_at
		FROM fanclubs
		WHERE name ILIKE $1 OR description ILIKE $1 OR purpose ILIKE $1
		ORDER BY created_at DESC
	`
	clubs := []*models.Fanclub{}
	err := p.DB.SelectContext(ctx, &clubs, sqlQuery, pattern)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to search fanclubs", err)
	}
	return clubs, nil
}

// GetFanclubMembers fetches all membership rows for a fanclub.
func (p *PostgresDB) GetFanclubMembers(ctx context.Context, fanclubID uuid.UUID) ([]*models.Membership, error) {
	query := `
		SELECT id, fanclub_id, user_id, is_owner, joined_at, next_payment_date
		FROM memberships WHERE fanclub_id = $1 ORDER BY joined_at ASC
	`
	members := []*models.Membership{}
	err := p.DB.SelectContext(ctx, &members, query, fanclubID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query fanclub members", err)
	}
	return members, nil
}

// CheckFanclubConsistency compares the stored member_count against the
// actual membership row count. A mismatch is reported as a consistency
// fault, never repaired here.
func (p *PostgresDB) CheckFanclubConsistency(ctx context.Context, fanclubID uuid.UUID) error {
	var stored int
	err := p.DB.GetContext(ctx, &stored, `SELECT member_count FROM fanclubs WHERE id = $1`, fanclubID)
	if err != nil {
		if err == sql.ErrNoRows {
			return utils.NewAppError(utils.ErrNotFound, "fanclub not found", err)
		}
		return utils.NewAppError(utils.ErrDatabase, "failed to query member count", err)
	}

	var actual int
	err = p.DB.GetContext(ctx, &actual, `SELECT COUNT(*) FROM memberships WHERE fanclub_id = $1`, fanclubID)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to count memberships", err)
	}

	if stored != actual {
		return utils.NewConsistencyFaultError(fanclubID.String(), stored, actual)
	}
	return nil
}

// --- Membership Methods ---

// JoinFanclub inserts a membership row and increments member_count in one
// transaction. The (fanclub_id, user_id) uniqueness constraint decides
// duplicate joins; there is no check-then-insert window.
func (p *PostgresDB) JoinFanclub(ctx context.Context, fanclubID, userID uuid.UUID, nextPayment time.Time) (*models.Membership, error) {
	tx, err := p.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to begin transaction for join", err)
	}
	defer tx.Rollback()

	membership := &models.Membership{
		ID:              uuid.New(),
		FanclubID:       fanclubID,
		UserID:          userID,
		IsOwner:         false,
		JoinedAt:        time.Now(),
		NextPaymentDate: &nextPayment,
	}

	insertQuery := `
		INSERT INTO memberships (id, fanclub_id, user_id, is_owner, joined_at, next_payment_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (fanclub_id, user_id) DO NOTHING
	`
	result, err := tx.ExecContext(ctx, insertQuery,
		membership.ID, membership.FanclubID, membership.UserID,
		membership.IsOwner, membership.JoinedAt, membership.NextPaymentDate,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "foreign_key_violation" {
			return nil, utils.NewAppError(utils.ErrNotFound, "fanclub or user not found", err)
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to insert membership", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return nil, utils.NewAppError(utils.ErrAlreadyMember, "user is already a member of this fanclub", nil)
	}

	// The row update takes a row-level lock, so concurrent joins on the same
	// fanclub serialize their increments.
	countResult, err := tx.ExecContext(ctx, `UPDATE fanclubs SET member_count = member_count + 1 WHERE id = $1`, fanclubID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to update member count", err)
	}
	if matched, _ := countResult.RowsAffected(); matched == 0 {
		return nil, utils.NewAppError(utils.ErrNotFound, "fanclub not found when updating member count", nil)
	}

	if err := tx.Commit(); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to commit join transaction", err)
	}
	return membership, nil
}

// LeaveFanclub deletes a non-owner membership row and decrements
// member_count in one transaction. The owner row never matches the delete,
// so leaving as owner fails the same way as leaving without a membership.
func (p *PostgresDB) LeaveFanclub(ctx context.Context, fanclubID, userID uuid.UUID) error {
	tx, err := p.DB.BeginTxx(ctx, nil)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to begin transaction for leave", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`DELETE FROM memberships WHERE fanclub_id = $1 AND user_id = $2 AND is_owner = FALSE`,
		fanclubID, userID,
	)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to delete membership", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return utils.NewAppError(utils.ErrForbidden, "membership does not exist or belongs to the owner", nil)
	}

	// GREATEST keeps the count at zero if the invariant was already broken.
	_, err = tx.ExecContext(ctx, `UPDATE fanclubs SET member_count = GREATEST(0, member_count - 1) WHERE id = $1`, fanclubID)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to update member count", err)
	}

	if err := tx.Commit(); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to commit leave transaction", err)
	}
	return nil
}

// GetMembership fetches the membership row for a (fanclub, user) pair.
func (p *PostgresDB) GetMembership(ctx context.Context, fanclubID, userID uuid.UUID) (*models.Membership, error) {
	query := `
		SELECT id, fanclub_id, user_id, is_owner, joined_at, next_payment_date
		FROM memberships WHERE fanclub_id = $1 AND user_id = $2
	`
	var membership models.Membership
	err := p.DB.GetContext(ctx, &membership, query, fanclubID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.NewAppError(utils.ErrNotFound, "membership not found", err)
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query membership", err)
	}
	return &membership, nil
}

// IsMember reports whether the user holds any membership in the fanclub.
func (p *PostgresDB) IsMember(ctx context.Context, userID, fanclubID uuid.UUID) (bool, error) {
	var exists bool
	err := p.DB.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM memberships WHERE fanclub_id = $1 AND user_id = $2)`,
		fanclubID, userID,
	)
	if err != nil {
		return false, utils.NewAppError(utils.ErrDatabase, "failed to query membership existence", err)
	}
	return exists, nil
}

// IsOwner reports whether the user holds the owner membership of the fanclub.
func (p *PostgresDB) IsOwner(ctx context.Context, userID, fanclubID uuid.UUID) (bool, error) {
	var exists bool
	err := p.DB.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM memberships WHERE fanclub_id = $1 AND user_id = $2 AND is_owner)`,
		fanclubID, userID,
	)
	if err != nil {
		return false, utils.NewAppError(utils.ErrDatabase, "failed to query ownership", err)
	}
	return exists, nil
}

// GetUserFanclubs fetches the IDs of all fanclubs the user belongs to.
func (p *PostgresDB) GetUserFanclubs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var fanclubIDs []uuid.UUID
	err := p.DB.SelectContext(ctx, &fanclubIDs, `SELECT fanclub_id FROM memberships WHERE user_id = $1`, userID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query user fanclubs", err)
	}
	return fanclubIDs, nil
}

// --- Post Methods ---

// SavePost inserts a new post or updates an existing one based on the ID.
func (p *PostgresDB) SavePost(ctx context.Context, post *models.Post) error {
	post.UpdatedAt = time.Now()
	if post.PublishedAt.IsZero() {
		post.PublishedAt = post.UpdatedAt
	}

	query := `
		INSERT INTO posts (id, fanclub_id, author_id, title, content, visibility, like_count, comment_count, published_at, updated_at)
		VALUES (:id, :fanclub_id, :author_id, :title, :content, :visibility, :like_count, :comment_count, :published_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			visibility = EXCLUDED.visibility,
			updated_at = EXCLUDED.updated_at
	`
	// Note: fanclub_id and author_id are never updated on conflict.

	_, err := p.DB.NamedExecContext(ctx, query, post)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "foreign_key_violation" {
			return utils.NewAppError(utils.ErrNotFound, "fanclub or author not found", err)
		}
		return utils.NewAppError(utils.ErrDatabase, "failed to save post", err)
	}
	return nil
}

// GetPost fetches a post by its ID, joined with author and fanclub names.
func (p *PostgresDB) GetPost(ctx context.Context, postID uuid.UUID) (*models.Post, error) {
	query := `
		SELECT
			p.id, p.fanclub_id, p.author_id, p.title, p.content, p.visibility,
			p.like_count, p.comment_count, p.published_at, p.updated_at,
			u.username AS author_username,
			f.name AS fanclub_name
		FROM posts p
		JOIN users u ON p.author_id = u.id
		JOIN fanclubs f ON p.fanclub_id = f.id
		WHERE p.id = $1
	`
	var post models.Post
	err := p.DB.GetContext(ctx, &post, query, postID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.NewAppError(utils.ErrNotFound, "post not found", err)
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query post by id", err)
	}
	return &post, nil
}

// GetPostsByFanclub fetches all posts of a fanclub, newest first. The
// caller filters the result through the visibility gate; this query never
// decides visibility itself.
func (p *PostgresDB) GetPostsByFanclub(ctx context.Context, fanclubID uuid.UUID) ([]*models.Post, error) {
	query := `
		SELECT
			p.id, p.fanclub_id, p.author_id, p.title, p.content, p.visibility,
			p.like_count, p.comment_count, p.published_at, p.updated_at,
			u.username AS author_username,
			f.name AS fanclub_name
		FROM posts p
		JOIN users u ON p.author_id = u.id
		JOIN fanclubs f ON p.fanclub_id = f.id
		WHERE p.fanclub_id = $1
		ORDER BY p.published_at DESC
	`
	posts := []*models.Post{}
	err := p.DB.SelectContext(ctx, &posts, query, fanclubID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query posts by fanclub", err)
	}
	return posts, nil
}

// UpdatePostVisibility changes the declared visibility of a post.
func (p *PostgresDB) UpdatePostVisibility(ctx context.Context, postID uuid.UUID, visibility models.Visibility) error {
	result, err := p.DB.ExecContext(ctx,
		`UPDATE posts SET visibility = $1, updated_at = NOW() WHERE id = $2`,
		visibility, postID,
	)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to update post visibility", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return utils.NewAppError(utils.ErrNotFound, "post not found", nil)
	}
	return nil
}

// --- Comment Methods ---

// SaveComment inserts a comment and increments the post's comment_count in
// one transaction.
func (p *PostgresDB) SaveComment(ctx context.Context, comment *models.Comment) error {
	tx, err := p.DB.BeginTxx(ctx, nil)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to begin transaction for save comment", err)
	}
	defer tx.Rollback()

	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}

	commentQuery := `
		INSERT INTO comments (id, post_id, author_id, content, created_at)
		VALUES (:id, :post_id, :author_id, :content, :created_at)
	`
	_, err = tx.NamedExecContext(ctx, commentQuery, comment)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "foreign_key_violation" {
			return utils.NewAppError(utils.ErrNotFound, "post or author not found", err)
		}
		return utils.NewAppError(utils.ErrDatabase, "failed to save comment", err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE posts SET comment_count = comment_count + 1, updated_at = NOW() WHERE id = $1`,
		comment.PostID,
	)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to update post comment_count", err)
	}
	if rowsAffected, _ := result.RowsAffected(); rowsAffected == 0 {
		return utils.NewAppError(utils.ErrNotFound, fmt.Sprintf("post %s not found to update comment count", comment.PostID), nil)
	}

	if err := tx.Commit(); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to commit comment transaction", err)
	}
	return nil
}

// GetComment fetches a single comment by its ID.
func (p *PostgresDB) GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	query := `
		SELECT c.id, c.post_id, c.author_id, u.username AS author_username, c.content, c.created_at
		FROM comments c
		JOIN users u ON c.author_id = u.id
		WHERE c.id = $1
	`
	var comment models.Comment
	err := p.DB.GetContext(ctx, &comment, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.NewAppError(utils.ErrNotFound, "comment not found", err)
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query comment by id", err)
	}
	return &comment, nil
}

// GetPostComments fetches all comments for a post, oldest first.
func (p *PostgresDB) GetPostComments(ctx context.Context, postID uuid.UUID) ([]*models.Comment, error) {
	query := `
		SELECT c.id, c.post_id, c.author_id, u.username AS author_username, c.content, c.created_at
		FROM comments c
		JOIN users u ON c.author_id = u.id
		WHERE c.post_id = $1
		ORDER BY c.created_at ASC
	`
	comments := []*models.Comment{}
	err := p.DB.SelectContext(ctx, &comments, query, postID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query post comments", err)
	}
	return comments, nil
}

// DeleteCommentAndDecrementCount deletes a comment and decrements the
// post's comment_count in one transaction.
func (p *PostgresDB) DeleteCommentAndDecrementCount(ctx context.Context, commentID uuid.UUID) error {
	tx, err := p.DB.BeginTxx(ctx, nil)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to begin transaction for delete comment", err)
	}
	defer tx.Rollback()

	var postID uuid.UUID
	err = tx.GetContext(ctx, &postID, `SELECT post_id FROM comments WHERE id = $1`, commentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return utils.NewAppError(utils.ErrNotFound, fmt.Sprintf("comment %s not found for deletion", commentID), err)
		}
		return utils.NewAppError(utils.ErrDatabase, "failed to get post_id from comment for deletion", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, commentID)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to delete comment", err)
	}
	if rowsAffected, _ := result.RowsAffected(); rowsAffected == 0 {
		return utils.NewAppError(utils.ErrNotFound, fmt.Sprintf("comment %s disappeared during deletion", commentID), nil)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE posts SET comment_count = GREATEST(0, comment_count - 1), updated_at = NOW() WHERE id = $1`,
		postID,
	)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to update post comment_count after deleting comment", err)
	}

	return tx.Commit()
}
