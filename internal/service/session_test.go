package service

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/pu-ac-cn/hypergrid-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 创建测试用的 Redis 客户端
func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return client, func() {
		client.Close()
		mr.Close()
	}
}

func TestTravelSessionStore_Store(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewTravelSessionStore(client, nil)
	ctx := context.Background()

	sess := &model.TravelSession{
		SessionID:        "session-123",
		UserID:           "user-123",
		GridExternalName: "http://grid.example.org:8002/",
		ServiceTokenHash: "$2a$10$hash",
		ClientIPAddress:  "203.0.113.7",
	}

	err := store.Store(ctx, sess)
	require.NoError(t, err)
	assert.False(t, sess.CreatedAt.IsZero())
	assert.False(t, sess.UpdatedAt.IsZero())
}

func TestTravelSessionStore_Get(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewTravelSessionStore(client, nil)
	ctx := context.Background()

	sess := &model.TravelSession{
		SessionID:        "session-123",
		UserID:           "user-123",
		GridExternalName: "http://grid.example.org:8002/",
		ClientIPAddress:  "203.0.113.7",
	}
	require.NoError(t, store.Store(ctx, sess))

	retrieved, err := store.Get(ctx, "session-123")
	require.NoError(t, err)
	assert.Equal(t, sess.UserID, retrieved.UserID)
	assert.Equal(t, sess.GridExternalName, retrieved.GridExternalName)
	assert.Equal(t, sess.ClientIPAddress, retrieved.ClientIPAddress)
}

func TestTravelSessionStore_Get_NotFound(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewTravelSessionStore(client, nil)
	ctx := context.Background()

	_, err := store.Get(ctx, "non-existent-id")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestTravelSessionStore_Overwrite(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewTravelSessionStore(client, nil)
	ctx := context.Background()

	sess := &model.TravelSession{
		SessionID:        "session-123",
		UserID:           "user-123",
		GridExternalName: "http://home.example.org:8002/",
	}
	require.NoError(t, store.Store(ctx, sess))

	// 跨网格传送：同一会话 ID 整体覆盖
	sess.GridExternalName = "http://other.example.org:8002/"
	require.NoError(t, store.Store(ctx, sess))

	retrieved, err := store.Get(ctx, "session-123")
	require.NoError(t, err)
	assert.Equal(t, "http://other.example.org:8002/", retrieved.GridExternalName)
}

func TestTravelSessionStore_GetByUserID(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewTravelSessionStore(client, nil)
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, &model.TravelSession{
		SessionID: "session-1", UserID: "user-123",
	}))
	require.NoError(t, store.Store(ctx, &model.TravelSession{
		SessionID: "session-2", UserID: "user-123",
	}))
	require.NoError(t, store.Store(ctx, &model.TravelSession{
		SessionID: "session-3", UserID: "user-456",
	}))

	sessions, err := store.GetByUserID(ctx, "user-123")
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestTravelSessionStore_Delete(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewTravelSessionStore(client, nil)
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, &model.TravelSession{
		SessionID: "session-123", UserID: "user-123",
	}))

	require.NoError(t, store.Delete(ctx, "session-123"))

	_, err := store.Get(ctx, "session-123")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// 索引一并清理
	sessions, err := store.GetByUserID(ctx, "user-123")
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestTravelSessionStore_DeleteByUserID(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewTravelSessionStore(client, nil)
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, &model.TravelSession{
		SessionID: "session-1", UserID: "user-123",
	}))
	require.NoError(t, store.Store(ctx, &model.TravelSession{
		SessionID: "session-2", UserID: "user-123",
	}))

	require.NoError(t, store.DeleteByUserID(ctx, "user-123"))

	_, err := store.Get(ctx, "session-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = store.Get(ctx, "session-2")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestTravelSessionStore_Sweep(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewTravelSessionStore(client, nil)
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, &model.TravelSession{
		SessionID: "session-1", UserID: "user-123",
	}))
	require.NoError(t, store.Store(ctx, &model.TravelSession{
		SessionID: "session-2", UserID: "user-123",
	}))

	// 会话键已过期但索引残留的情形
	require.NoError(t, client.Del(ctx, "hg_session:session-1").Err())

	removed, err := store.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	sessions, err := store.GetByUserID(ctx, "user-123")
	require.NoError(t, err)
	assert.Len(t, sessions, 1)

	// 再次扫描无残留
	removed, err = store.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
