package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Guyuepp/go-comment-engine/domain"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const listCacheTTL = 30 * time.Second

// ListCache is the slice of the cache layer the coordinator needs.
type ListCache interface {
	GetList(ctx context.Context, key string) ([]domain.Comment, bool, error)
	SetList(ctx context.Context, key, page string, comments []domain.Comment, ttl time.Duration) error
	DeletePage(ctx context.Context, page string) error
}

// cachedCommentStorage 协调层，协调缓存和数据库
//
// Reads of anonymous, uncursored listings go through the cache with logical
// expiry; an expired hit is served stale while one goroutine rebuilds it
// (singleflight against cache stampedes). Everything else passes straight
// through to the backend.
type cachedCommentStorage struct {
	db           domain.CommentStorage
	cache        ListCache
	rebuildGroup singleflight.Group
}

var _ domain.CommentStorage = (*cachedCommentStorage)(nil)

// NewCachedCommentStorage wraps a storage backend with the listing cache.
func NewCachedCommentStorage(db domain.CommentStorage, cache ListCache) *cachedCommentStorage {
	return &cachedCommentStorage{
		db:    db,
		cache: cache,
	}
}

// cacheable reports whether a listing can be served from the cache: only
// anonymous, uncursored queries — the caller's own rating must never be
// cached under a shared key.
func cacheable(opts domain.ListOptions) bool {
	return opts.Auth == nil && opts.Before == nil && opts.After == nil
}

func listKey(opts domain.ListOptions) string {
	thread := ""
	if opts.Thread != nil {
		thread = *opts.Thread
	}
	return fmt.Sprintf("%s:%s:%s:%d", opts.Page, thread, opts.Sort, opts.Limit)
}

func (r *cachedCommentStorage) GetComments(ctx context.Context, opts domain.ListOptions) ([]domain.Comment, error) {
	if !cacheable(opts) {
		return r.db.GetComments(ctx, opts)
	}

	key := listKey(opts)
	cached, expired, err := r.cache.GetList(ctx, key)
	if err == nil {
		if expired {
			go r.rebuild(key, opts)
		}
		return cached, nil
	}

	res, err := r.db.GetComments(ctx, opts)
	if err != nil {
		return nil, err
	}
	// 异步回填缓存
	go func(data []domain.Comment) {
		if err := r.cache.SetList(context.Background(), key, opts.Page, data, listCacheTTL); err != nil {
			logrus.Warnf("failed to fill list cache for page %s: %v", opts.Page, err)
		}
	}(res)
	return res, nil
}

func (r *cachedCommentStorage) rebuild(key string, opts domain.ListOptions) {
	_, _, _ = r.rebuildGroup.Do(key, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		res, err := r.db.GetComments(ctx, opts)
		if err != nil {
			logrus.Warnf("failed to rebuild list cache for page %s: %v", opts.Page, err)
			return nil, err
		}
		return nil, r.cache.SetList(ctx, key, opts.Page, res, listCacheTTL)
	})
}

func (r *cachedCommentStorage) PostComment(ctx context.Context, auth domain.AuthInfo, page string, thread *string, content *domain.ContentNode) (*domain.Comment, error) {
	return r.db.PostComment(ctx, auth, page, thread, content)
}

func (r *cachedCommentStorage) UpdateComment(ctx context.Context, id string, auth domain.AuthInfo, page string, content *domain.ContentNode) error {
	return r.db.UpdateComment(ctx, id, auth, page, content)
}

func (r *cachedCommentStorage) DeleteComment(ctx context.Context, id string, auth domain.AuthInfo, page string) error {
	return r.db.DeleteComment(ctx, id, auth, page)
}

func (r *cachedCommentStorage) SetRate(ctx context.Context, id string, auth domain.AuthInfo, page string, like bool) error {
	return r.db.SetRate(ctx, id, auth, page, like)
}

func (r *cachedCommentStorage) DeleteRate(ctx context.Context, id string, auth domain.AuthInfo, page string) error {
	return r.db.DeleteRate(ctx, id, auth, page)
}

func (r *cachedCommentStorage) GetCommentAuthor(ctx context.Context, id string) (string, error) {
	return r.db.GetCommentAuthor(ctx, id)
}

func (r *cachedCommentStorage) GetRole(ctx context.Context, auth domain.AuthInfo, page string) (*domain.Role, error) {
	return r.db.GetRole(ctx, auth, page)
}
