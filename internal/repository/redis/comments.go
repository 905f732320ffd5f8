package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Guyuepp/go-comment-engine/domain"
	"github.com/Guyuepp/go-comment-engine/internal/repository/cache"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefixList  = "comments:list:"
	keyPrefixPages = "comments:pages:"

	// physical TTL keeps abandoned keys from living forever; logical expiry
	// decides freshness well before this
	physicalTTL = 24 * time.Hour
)

// ListCache caches rendered comment listings per page with logical expiry.
// Every list key is also tracked in a per-page set so a write to the page
// can drop all of them at once.
type ListCache struct {
	client *redis.Client
}

func NewListCache(client *redis.Client) *ListCache {
	return &ListCache{client: client}
}

// GetList returns the cached listing under key and whether it is logically
// expired. A missing key returns redis.Nil wrapped as-is.
func (c *ListCache) GetList(ctx context.Context, key string) ([]domain.Comment, bool, error) {
	raw, err := c.client.Get(ctx, keyPrefixList+key).Bytes()
	if err != nil {
		return nil, false, err
	}

	// the typed Data field shadows the envelope's untyped one at decode time
	var envelope struct {
		cache.Envelope
		Data []domain.Comment `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, false, err
	}
	return envelope.Data, envelope.Expired(), nil
}

// SetList stores a listing and registers its key under the page's key set.
func (c *ListCache) SetList(ctx context.Context, key, page string, comments []domain.Comment, ttl time.Duration) error {
	raw, err := json.Marshal(cache.NewEnvelope(comments, ttl))
	if err != nil {
		return err
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, keyPrefixList+key, raw, physicalTTL)
	pipe.SAdd(ctx, keyPrefixPages+page, key)
	pipe.Expire(ctx, keyPrefixPages+page, physicalTTL)
	_, err = pipe.Exec(ctx)
	return err
}

// DeletePage drops every cached listing of a page.
func (c *ListCache) DeletePage(ctx context.Context, page string) error {
	keys, err := c.client.SMembers(ctx, keyPrefixPages+page).Result()
	if err != nil {
		return err
	}

	pipe := c.client.Pipeline()
	for _, key := range keys {
		pipe.Del(ctx, keyPrefixList+key)
	}
	pipe.Del(ctx, keyPrefixPages+page)
	_, err = pipe.Exec(ctx)
	return err
}
