package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/BradenHooton/taskdesk/internal/models"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*ThrottleRedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewThrottleRedisStore(rdb), mr
}

func TestThrottleRedisStore_GetMissing(t *testing.T) {
	store, _ := newTestRedisStore(t)

	state, err := store.Get(context.Background(), "auth:login-throttle:missing")

	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestThrottleRedisStore_SetStoresJSONWithTTL(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()
	want := models.ThrottleState{Failures: 5, FirstFailureAt: 100, NextAllowedAt: 130}

	require.NoError(t, store.Set(ctx, "k", want, 90*time.Second))

	raw, err := mr.Get("k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"failures":5,"first_failure_at":100,"next_allowed_at":130,"blocked_until":0}`, raw)
	assert.Equal(t, 90*time.Second, mr.TTL("k"))

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, want, *got)
}

func TestThrottleRedisStore_Expires(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", models.ThrottleState{Failures: 1}, 10*time.Second))
	mr.FastForward(11 * time.Second)

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestThrottleRedisStore_SubSecondTTLRoundsUp(t *testing.T) {
	store, mr := newTestRedisStore(t)

	require.NoError(t, store.Set(context.Background(), "k", models.ThrottleState{Failures: 1}, 0))

	assert.Equal(t, time.Second, mr.TTL("k"))
}

func TestThrottleRedisStore_CorruptValue(t *testing.T) {
	store, mr := newTestRedisStore(t)
	require.NoError(t, mr.Set("k", "{not json"))

	_, err := store.Get(context.Background(), "k")

	assert.Error(t, err)
}

func TestThrottleRedisStore_ServerError(t *testing.T) {
	store, mr := newTestRedisStore(t)
	mr.SetError("LOADING")

	_, err := store.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.Error(t, store.Set(context.Background(), "k", models.ThrottleState{}, time.Second))
	assert.Error(t, store.Delete(context.Background(), "k"))
}

func TestThrottleRedisStore_Delete(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", models.ThrottleState{Failures: 1}, time.Minute))
	require.NoError(t, store.Delete(ctx, "k"))

	assert.False(t, mr.Exists("k"))
}

func TestThrottleRedisStore_DeletePrefixAcrossBatches(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	for i := 0; i < 250; i++ {
		require.NoError(t, store.Set(ctx, fmt.Sprintf("auth:login-throttle:%d", i), models.ThrottleState{Failures: 1}, time.Minute))
	}
	require.NoError(t, mr.Set("session:keep", "x"))

	removed, err := store.DeletePrefix(ctx, "auth:login-throttle:")

	require.NoError(t, err)
	assert.Equal(t, 250, removed)
	assert.True(t, mr.Exists("session:keep"))
	assert.Len(t, mr.Keys(), 1)
}
