package database

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Azuznn/fanclub-site12/internal/models"
	"github.com/Azuznn/fanclub-site12/internal/utils"

	"github.com/google/uuid"
)

// MemoryDB is an in-memory DBAdapter used by tests and local development.
// A single mutex spans every row mutation together with its counter delta,
// which gives the same atomicity the SQL and Mongo backends get from
// transactions.
type MemoryDB struct {
	mu sync.Mutex

	users       map[uuid.UUID]*models.User
	usersByMail map[string]uuid.UUID
	fanclubs    map[uuid.UUID]*models.Fanclub
	memberships map[membershipKey]*models.Membership
	posts       map[uuid.UUID]*models.Post
	comments    map[uuid.UUID]*models.Comment
}

type membershipKey struct {
	fanclubID uuid.UUID
	userID    uuid.UUID
}

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		users:       make(map[uuid.UUID]*models.User),
		usersByMail: make(map[string]uuid.UUID),
		fanclubs:    make(map[uuid.UUID]*models.Fanclub),
		memberships: make(map[membershipKey]*models.Membership),
		posts:       make(map[uuid.UUID]*models.Post),
		comments:    make(map[uuid.UUID]*models.Comment),
	}
}

func (m *MemoryDB) Close(ctx context.Context) error {
	return nil
}

// --- User Methods ---

func (m *MemoryDB) SaveUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.usersByMail[user.Email]; exists {
		return utils.NewAppError(utils.ErrUserAlreadyExists, "user already exists", nil)
	}

	now := time.Now()
	user.UpdatedAt = now
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.LastActive.IsZero() {
		user.LastActive = now
	}

	stored := *user
	m.users[user.ID] = &stored
	m.usersByMail[user.Email] = user.ID
	return nil
}

func (m *MemoryDB) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, exists := m.users[id]
	if !exists {
		return nil, utils.NewAppError(utils.ErrNotFound, "user not found", nil)
	}

	copied := *user
	copied.Fanclubs = m.userFanclubsLocked(id)
	return &copied, nil
}

func (m *MemoryDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, exists := m.usersByMail[email]
	if !exists {
		return nil, utils.NewAppError(utils.ErrNotFound, "user not found", nil)
	}
	copied := *m.users[id]
	return &copied, nil
}

func (m *MemoryDB) TouchUserActivity(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, exists := m.users[id]
	if !exists {
		return utils.NewAppError(utils.ErrNotFound, "user not found for activity update", nil)
	}
	now := time.Now()
	user.LastActive = now
	user.UpdatedAt = now
	return nil
}

// --- Fanclub Methods ---

func (m *MemoryDB) CreateFanclubWithOwner(ctx context.Context, club *models.Fanclub) (*models.Membership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.fanclubs {
		if existing.Name == club.Name {
			return nil, utils.NewAppError(utils.ErrDuplicate, "fanclub already exists", nil)
		}
	}

	if club.CreatedAt.IsZero() {
		club.CreatedAt = time.Now()
	}
	club.MemberCount = 1

	stored := *club
	m.fanclubs[club.ID] = &stored

	owner := &models.Membership{
		ID:        uuid.New(),
		FanclubID: club.ID,
		UserID:    club.OwnerID,
		IsOwner:   true,
		JoinedAt:  club.CreatedAt,
	}
	m.memberships[membershipKey{club.ID, club.OwnerID}] = owner

	copied := *owner
	return &copied, nil
}

func (m *MemoryDB) GetFanclubByID(ctx context.Context, id uuid.UUID) (*models.Fanclub, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	club, exists := m.fanclubs[id]
	if !exists {
		return nil, utils.NewAppError(utils.ErrNotFound, "fanclub not found", nil)
	}
	copied := *club
	return &copied, nil
}

func (m *MemoryDB) SearchFanclubs(ctx context.Context, query string) ([]*models.Fanclub, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	needle := strings.ToLower(query)
	clubs := make([]*models.Fanclub, 0)
	for _, club := range m.fanclubs {
		haystack := strings.ToLower(club.Name + " " + club.Description + " " + club.Purpose)
		if needle == "" || strings.Contains(haystack, needle) {
			copied := *club
			clubs = append(clubs, &copied)
		}
	}

	sort.Slice(clubs, func(i, j int) bool {
		return clubs[i].CreatedAt.After(clubs[j].CreatedAt)
	})
	return clubs, nil
}

func (m *MemoryDB) GetFanclubMembers(ctx context.Context, fanclubID uuid.UUID) ([]*models.Membership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	members := make([]*models.Membership, 0)
	for key, membership := range m.memberships {
		if key.fanclubID == fanclubID {
			copied := *membership
			members = append(members, &copied)
		}
	}
	sort.Slice(members, func(i, j int) bool {
		return members[i].JoinedAt.Before(members[j].JoinedAt)
	})
	return members, nil
}

func (m *MemoryDB) CheckFanclubConsistency(ctx context.Context, fanclubID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	club, exists := m.fanclubs[fanclubID]
	if !exists {
		return utils.NewAppError(utils.ErrNotFound, "fanclub not found", nil)
	}

	actual := 0
	for key := range m.memberships {
		if key.fanclubID == fanclubID {
			actual++
		}
	}

	if club.MemberCount != actual {
		return utils.NewConsistencyFaultError(fanclubID.String(), club.MemberCount, actual)
	}
	return nil
}

// --- Membership Methods ---

func (m *MemoryDB) JoinFanclub(ctx context.Context, fanclubID, userID uuid.UUID, nextPayment time.Time) (*models.Membership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	club, exists := m.fanclubs[fanclubID]
	if !exists {
		return nil, utils.NewAppError(utils.ErrNotFound, "fanclub not found", nil)
	}

	key := membershipKey{fanclubID, userID}
	if _, exists := m.memberships[key]; exists {
		return nil, utils.NewAppError(utils.ErrAlreadyMember, "user is already a member of this fanclub", nil)
	}

	membership := &models.Membership{
		ID:              uuid.New(),
		FanclubID:       fanclubID,
		UserID:          userID,
		IsOwner:         false,
		JoinedAt:        time.Now(),
		NextPaymentDate: &nextPayment,
	}
	m.memberships[key] = membership
	club.MemberCount++

	copied := *membership
	return &copied, nil
}

func (m *MemoryDB) LeaveFanclub(ctx context.Context, fanclubID, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := membershipKey{fanclubID, userID}
	membership, exists := m.memberships[key]
	if !exists || membership.IsOwner {
		return utils.NewAppError(utils.ErrForbidden, "membership does not exist or belongs to the owner", nil)
	}

	delete(m.memberships, key)
	if club, ok := m.fanclubs[fanclubID]; ok && club.MemberCount > 0 {
		club.MemberCount--
	}
	return nil
}

func (m *MemoryDB) GetMembership(ctx context.Context, fanclubID, userID uuid.UUID) (*models.Membership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	membership, exists := m.memberships[membershipKey{fanclubID, userID}]
	if !exists {
		return nil, utils.NewAppError(utils.ErrNotFound, "membership not found", nil)
	}
	copied := *membership
	return &copied, nil
}

func (m *MemoryDB) IsMember(ctx context.Context, userID, fanclubID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, exists := m.memberships[membershipKey{fanclubID, userID}]
	return exists, nil
}

func (m *MemoryDB) IsOwner(ctx context.Context, userID, fanclubID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	membership, exists := m.memberships[membershipKey{fanclubID, userID}]
	return exists && membership.IsOwner, nil
}

func (m *MemoryDB) GetUserFanclubs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userFanclubsLocked(userID), nil
}

func (m *MemoryDB) userFanclubsLocked(userID uuid.UUID) []uuid.UUID {
	var fanclubIDs []uuid.UUID
	for key := range m.memberships {
		if key.userID == userID {
			fanclubIDs = append(fanclubIDs, key.fanclubID)
		}
	}
	return fanclubIDs
}

// --- Post Methods ---

func (m *MemoryDB) SavePost(ctx context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	post.UpdatedAt = time.Now()
	if post.PublishedAt.IsZero() {
		post.PublishedAt = post.UpdatedAt
	}

	stored := *post
	m.posts[post.ID] = &stored
	return nil
}

func (m *MemoryDB) GetPost(ctx context.Context, postID uuid.UUID) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	post, exists := m.posts[postID]
	if !exists {
		return nil, utils.NewAppError(utils.ErrNotFound, "post not found", nil)
	}
	copied := *post
	return &copied, nil
}

func (m *MemoryDB) GetPostsByFanclub(ctx context.Context, fanclubID uuid.UUID) ([]*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	posts := make([]*models.Post, 0)
	for _, post := range m.posts {
		if post.FanclubID == fanclubID {
			copied := *post
			posts = append(posts, &copied)
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].PublishedAt.After(posts[j].PublishedAt)
	})
	return posts, nil
}

func (m *MemoryDB) UpdatePostVisibility(ctx context.Context, postID uuid.UUID, visibility models.Visibility) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	post, exists := m.posts[postID]
	if !exists {
		return utils.NewAppError(utils.ErrNotFound, "post not found", nil)
	}
	post.Visibility = visibility
	post.UpdatedAt = time.Now()
	return nil
}

// --- Comment Methods ---

func (m *MemoryDB) SaveComment(ctx context.Context, comment *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	post, exists := m.posts[comment.PostID]
	if !exists {
		return utils.NewAppError(utils.ErrNotFound, "post not found to update comment count", nil)
	}

	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}

	stored := *comment
	m.comments[comment.ID] = &stored
	post.CommentCount++
	return nil
}

func (m *MemoryDB) GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	comment, exists := m.comments[id]
	if !exists {
		return nil, utils.NewAppError(utils.ErrNotFound, "comment not found", nil)
	}
	copied := *comment
	return &copied, nil
}

func (m *MemoryDB) GetPostComments(ctx context.Context, postID uuid.UUID) ([]*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	comments := make([]*models.Comment, 0)
	for _, comment := range m.comments {
		if comment.PostID == postID {
			copied := *comment
			comments = append(comments, &copied)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	return comments, nil
}

func (m *MemoryDB) DeleteCommentAndDecrementCount(ctx context.Context, commentID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	comment, exists := m.comments[commentID]
	if !exists {
		return utils.NewAppError(utils.ErrNotFound, "comment not found for deletion", nil)
	}

	delete(m.comments, commentID)
	if post, ok := m.posts[comment.PostID]; ok && post.CommentCount > 0 {
		post.CommentCount--
	}
	return nil
}
