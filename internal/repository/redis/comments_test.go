package redis_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Guyuepp/go-comment-engine/domain"
	"github.com/Guyuepp/go-comment-engine/internal/repository/cache"
	redisrepo "github.com/Guyuepp/go-comment-engine/internal/repository/redis"
	"github.com/go-redis/redismock/v9"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envelopeJSON(t *testing.T, comments []domain.Comment, ttl time.Duration) string {
	t.Helper()
	raw, err := json.Marshal(cache.NewEnvelope(comments, ttl))
	require.NoError(t, err)
	return string(raw)
}

func TestGetList_Fresh(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := redisrepo.NewListCache(client)

	comments := []domain.Comment{{ID: "c1", Page: "p1", Author: "u1"}}
	mock.ExpectGet("comments:list:p1:top:newest:10").
		SetVal(envelopeJSON(t, comments, time.Minute))

	got, expired, err := c.GetList(context.Background(), "p1:top:newest:10")
	require.NoError(t, err)
	assert.False(t, expired)
	require.Len(t, got, 1)
	assert.Equal(t, "c1", got[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetList_LogicallyExpired(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := redisrepo.NewListCache(client)

	comments := []domain.Comment{{ID: "c1"}}
	mock.ExpectGet("comments:list:k1").
		SetVal(envelopeJSON(t, comments, -time.Minute))

	got, expired, err := c.GetList(context.Background(), "k1")
	require.NoError(t, err)
	assert.True(t, expired)
	// stale data still comes back so the caller can serve it while rebuilding
	require.Len(t, got, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetList_Miss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := redisrepo.NewListCache(client)

	mock.ExpectGet("comments:list:k1").RedisNil()

	_, _, err := c.GetList(context.Background(), "k1")
	assert.ErrorIs(t, err, goredis.Nil)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeletePage(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := redisrepo.NewListCache(client)

	mock.ExpectSMembers("comments:pages:p1").SetVal([]string{"k1", "k2"})
	mock.ExpectDel("comments:list:k1").SetVal(1)
	mock.ExpectDel("comments:list:k2").SetVal(1)
	mock.ExpectDel("comments:pages:p1").SetVal(1)

	require.NoError(t, c.DeletePage(context.Background(), "p1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeletePage_EmptySet(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := redisrepo.NewListCache(client)

	mock.ExpectSMembers("comments:pages:p1").SetVal([]string{})
	mock.ExpectDel("comments:pages:p1").SetVal(0)

	require.NoError(t, c.DeletePage(context.Background(), "p1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
