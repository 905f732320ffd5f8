package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/Guyuepp/go-comment-engine/domain"
	"github.com/Guyuepp/go-comment-engine/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStorage() *memory.Storage {
	s := memory.New()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	s.SetClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	})
	return s
}

func post(t *testing.T, s *memory.Storage, author, page string, thread *string) *domain.Comment {
	t.Helper()
	c, err := s.PostComment(context.Background(), domain.AuthInfo{ID: author}, page, thread,
		&domain.ContentNode{Type: "doc"})
	require.NoError(t, err)
	return c
}

func TestGetComments_Filters(t *testing.T) {
	s := newStorage()
	ctx := context.Background()

	root := post(t, s, "u1", "p1", nil)
	post(t, s, "u2", "p1", &root.ID)
	post(t, s, "u1", "p2", nil)

	top, err := s.GetComments(ctx, domain.ListOptions{Page: "p1", Sort: domain.SortNewest, Limit: 10})
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, root.ID, top[0].ID)
	assert.Equal(t, int64(1), top[0].Replies)

	replies, err := s.GetComments(ctx, domain.ListOptions{Page: "p1", Thread: &root.ID, Sort: domain.SortNewest, Limit: 10})
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, "u2", replies[0].Author)
}

func TestGetComments_WindowIsExclusive(t *testing.T) {
	s := newStorage()
	ctx := context.Background()

	a := post(t, s, "u1", "p1", nil)
	b := post(t, s, "u1", "p1", nil)
	c := post(t, s, "u1", "p1", nil)

	res, err := s.GetComments(ctx, domain.ListOptions{
		Page: "p1", Sort: domain.SortOldest, Limit: 10,
		After:  &a.CreatedAt,
		Before: &c.CreatedAt,
	})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, b.ID, res[0].ID)
}

func TestGetComments_OrderAndLimit(t *testing.T) {
	s := newStorage()
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, post(t, s, "u1", "p1", nil).ID)
	}

	res, err := s.GetComments(ctx, domain.ListOptions{Page: "p1", Sort: domain.SortNewest, Limit: 3})
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, ids[4], res[0].ID)

	res, err = s.GetComments(ctx, domain.ListOptions{Page: "p1", Sort: domain.SortOldest, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, ids[0], res[0].ID)
}

func TestUpdateComment_PredicateMiss(t *testing.T) {
	s := newStorage()
	ctx := context.Background()

	c := post(t, s, "u1", "p1", nil)
	edited := &domain.ContentNode{Type: "doc", Content: []*domain.ContentNode{{Type: "text", Text: "edited"}}}

	// wrong author and wrong page are both silent no-ops
	require.NoError(t, s.UpdateComment(ctx, c.ID, domain.AuthInfo{ID: "u2"}, "p1", edited))
	require.NoError(t, s.UpdateComment(ctx, c.ID, domain.AuthInfo{ID: "u1"}, "p2", edited))

	res, err := s.GetComments(ctx, domain.ListOptions{Page: "p1", Sort: domain.SortNewest, Limit: 1})
	require.NoError(t, err)
	assert.Empty(t, res[0].Content.PlainText())

	require.NoError(t, s.UpdateComment(ctx, c.ID, domain.AuthInfo{ID: "u1"}, "p1", edited))
	res, err = s.GetComments(ctx, domain.ListOptions{Page: "p1", Sort: domain.SortNewest, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, "edited", res[0].Content.PlainText())
}

func TestDeleteComment_CascadesAndDropsRatings(t *testing.T) {
	s := newStorage()
	ctx := context.Background()

	root := post(t, s, "u1", "p1", nil)
	reply := post(t, s, "u2", "p1", &root.ID)
	require.NoError(t, s.SetRate(ctx, reply.ID, domain.AuthInfo{ID: "u3"}, "p1", true))

	require.NoError(t, s.DeleteComment(ctx, root.ID, domain.AuthInfo{ID: "u1"}, "p1"))

	_, err := s.GetCommentAuthor(ctx, root.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.GetCommentAuthor(ctx, reply.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSetRate_UpsertSemantics(t *testing.T) {
	s := newStorage()
	ctx := context.Background()
	actor := domain.AuthInfo{ID: "u2"}

	c := post(t, s, "u1", "p1", nil)

	require.NoError(t, s.SetRate(ctx, c.ID, actor, "p1", true))
	require.NoError(t, s.SetRate(ctx, c.ID, actor, "p1", true))
	require.NoError(t, s.SetRate(ctx, c.ID, actor, "p1", false))

	res, err := s.GetComments(ctx, domain.ListOptions{Page: "p1", Sort: domain.SortNewest, Limit: 1, Auth: &actor})
	require.NoError(t, err)
	assert.Equal(t, int64(0), res[0].Likes)
	assert.Equal(t, int64(1), res[0].Dislikes)
	require.NotNil(t, res[0].Liked)
	assert.False(t, *res[0].Liked)

	assert.ErrorIs(t, s.SetRate(ctx, "missing", actor, "p1", true), domain.ErrNotFound)
}

func TestGetRole(t *testing.T) {
	s := newStorage()
	ctx := context.Background()

	role, err := s.GetRole(ctx, domain.AuthInfo{ID: "u1"}, "p1")
	require.NoError(t, err)
	assert.Nil(t, role)

	s.SeedRole("u1", "p1", domain.Role{Name: "moderator", CanDelete: true})
	role, err = s.GetRole(ctx, domain.AuthInfo{ID: "u1"}, "p1")
	require.NoError(t, err)
	require.NotNil(t, role)
	assert.True(t, role.CanDelete)

	// roles are scoped per page
	role, err = s.GetRole(ctx, domain.AuthInfo{ID: "u1"}, "p2")
	require.NoError(t, err)
	assert.Nil(t, role)
}
