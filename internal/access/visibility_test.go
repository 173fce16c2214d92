package access

import (
	"context"
	"testing"

	"github.com/Azuznn/fanclub-site12/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// fakeLedger answers membership and ownership from fixed sets.
type fakeLedger struct {
	members map[uuid.UUID]bool
	owners  map[uuid.UUID]bool
	calls   int
}

func (f *fakeLedger) IsMember(_ context.Context, userID, _ uuid.UUID) (bool, error) {
	f.calls++
	return f.members[userID], nil
}

func (f *fakeLedger) IsOwner(_ context.Context, userID, _ uuid.UUID) (bool, error) {
	return f.owners[userID], nil
}

func TestCanViewPublicPost(t *testing.T) {
	post := &models.Post{FanclubID: uuid.New(), Visibility: models.VisibilityPublic}
	ledger := &fakeLedger{}

	ok, err := CanView(context.Background(), Anonymous, post, ledger)
	assert.NoError(t, err)
	assert.True(t, ok, "public posts are visible to everyone")

	ok, err = CanView(context.Background(), uuid.New(), post, ledger)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, ledger.calls, "public posts must not consult the ledger")
}

func TestCanViewMembersOnlyPost(t *testing.T) {
	member := uuid.New()
	outsider := uuid.New()
	post := &models.Post{FanclubID: uuid.New(), Visibility: models.VisibilityMembers}
	ledger := &fakeLedger{members: map[uuid.UUID]bool{member: true}}

	ok, err := CanView(context.Background(), Anonymous, post, ledger)
	assert.NoError(t, err)
	assert.False(t, ok, "anonymous viewers never see members-only posts")

	ok, err = CanView(context.Background(), member, post, ledger)
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = CanView(context.Background(), outsider, post, ledger)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestCanViewUnknownVisibilityDenied(t *testing.T) {
	post := &models.Post{FanclubID: uuid.New(), Visibility: "secret"}
	ok, err := CanView(context.Background(), uuid.New(), post, &fakeLedger{})
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestFilterVisible(t *testing.T) {
	fanclubID := uuid.New()
	member := uuid.New()
	posts := []*models.Post{
		{ID: uuid.New(), FanclubID: fanclubID, Visibility: models.VisibilityMembers},
		{ID: uuid.New(), FanclubID: fanclubID, Visibility: models.VisibilityPublic},
		{ID: uuid.New(), FanclubID: fanclubID, Visibility: models.VisibilityMembers},
	}
	ledger := &fakeLedger{members: map[uuid.UUID]bool{member: true}}

	anon, err := FilterVisible(context.Background(), Anonymous, posts, ledger)
	assert.NoError(t, err)
	assert.Len(t, anon, 1)
	assert.Equal(t, models.VisibilityPublic, anon[0].Visibility)

	all, err := FilterVisible(context.Background(), member, posts, ledger)
	assert.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, posts[0].ID, all[0].ID, "filtering must preserve order")
	assert.Equal(t, 1, ledger.calls, "one ledger lookup per fanclub, not per post")

	outsider, err := FilterVisible(context.Background(), uuid.New(), posts, ledger)
	assert.NoError(t, err)
	assert.Len(t, outsider, 1)
}

func TestCanPublish(t *testing.T) {
	owner := uuid.New()
	member := uuid.New()
	fanclubID := uuid.New()
	ledger := &fakeLedger{owners: map[uuid.UUID]bool{owner: true}, members: map[uuid.UUID]bool{owner: true, member: true}}

	ok, err := CanPublish(context.Background(), owner, fanclubID, ledger)
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = CanPublish(context.Background(), member, fanclubID, ledger)
	assert.NoError(t, err)
	assert.False(t, ok, "plain members may not publish")

	ok, err = CanPublish(context.Background(), Anonymous, fanclubID, ledger)
	assert.NoError(t, err)
	assert.False(t, ok)
}
