package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inventra-labs/gatekeeper/internal/shared/authorization"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return client, mr
}

func newTestSession(id, userID string) *Session {
	return &Session{
		ID:         id,
		UserID:     userID,
		Email:      userID + "@inventra.io",
		Role:       authorization.RoleAdmin,
		RefreshJTI: "jti-0",
	}
}

func TestSessionStore_CreateGet(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newTestSession("s1", "u1"), time.Hour))

	sess, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "u1", sess.UserID)
	assert.Equal(t, authorization.RoleAdmin, sess.Role)
	assert.Equal(t, "jti-0", sess.RefreshJTI)
	assert.False(t, sess.CreatedAt.IsZero())

	mr.FastForward(2 * time.Hour)

	_, err = store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionStore_Rotate(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newTestSession("s1", "u1"), time.Hour))

	require.NoError(t, store.Rotate(ctx, "s1", "jti-0", "jti-1", time.Hour))

	sess, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "jti-1", sess.RefreshJTI)

	err = store.Rotate(ctx, "s1", "jti-0", "jti-2", time.Hour)
	assert.ErrorIs(t, err, ErrRefreshReused)

	err = store.Rotate(ctx, "missing", "jti-0", "jti-2", time.Hour)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionStore_RotateIsOneTimeUnderConcurrency(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newTestSession("s1", "u1"), time.Hour))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := store.Rotate(ctx, "s1", "jti-0", "next", time.Hour); err == nil {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestSessionStore_Delete(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newTestSession("s1", "u1"), time.Hour))
	require.NoError(t, store.Create(ctx, newTestSession("s2", "u1"), time.Hour))
	require.NoError(t, store.Create(ctx, newTestSession("s3", "u2"), time.Hour))

	require.NoError(t, store.Delete(ctx, "s1"))
	require.NoError(t, store.Delete(ctx, "s1"), "deleting twice is fine")

	_, err := store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	n, err := store.DeleteAll(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	sess, err := store.Get(ctx, "s3")
	require.NoError(t, err, "other users keep their sessions")
	assert.Equal(t, "u2", sess.UserID)
}
