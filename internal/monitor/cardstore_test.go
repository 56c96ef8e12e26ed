package monitor

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisCardStore(t *testing.T) (*miniredis.Miniredis, *RedisCardStore) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr:       mr.Addr(),
		MaxRetries: -1,
	})
	t.Cleanup(func() { client.Close() })

	return mr, NewRedisCardStore(client)
}

func TestRedisCardStore_MissingKeyIsNoCard(t *testing.T) {
	_, store := setupRedisCardStore(t)

	id, err := store.Get(context.Background(), "guild-1")
	require.NoError(t, err)
	assert.Equal(t, "", id)
}

func TestRedisCardStore_SetThenGet(t *testing.T) {
	mr, store := setupRedisCardStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "guild-1", "m-1"))
	require.NoError(t, store.Set(ctx, "guild-1", "m-2"))

	id, err := store.Get(ctx, "guild-1")
	require.NoError(t, err)
	assert.Equal(t, "m-2", id)

	stored, err := mr.Get("mcstatus:card:guild-1")
	require.NoError(t, err)
	assert.Equal(t, "m-2", stored)
	assert.Zero(t, mr.TTL("mcstatus:card:guild-1"))

	// other guilds are untouched
	id, err = store.Get(ctx, "guild-2")
	require.NoError(t, err)
	assert.Equal(t, "", id)
}

func TestRedisCardStore_ConnectionFailure(t *testing.T) {
	mr, store := setupRedisCardStore(t)
	ctx := context.Background()
	mr.Close()

	id, err := store.Get(ctx, "guild-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, redis.Nil)
	assert.Equal(t, "", id)

	assert.Error(t, store.Set(ctx, "guild-1", "m-1"))
}

func TestRedisCardStore_DrivesReconciler(t *testing.T) {
	_, store := setupRedisCardStore(t)
	gw := newFakeGateway()
	r := NewReconciler(gw, store, NewCardRenderer(testHost, ""), quietLogger())

	action, err := r.Reconcile(context.Background(), binding, snapshot(3, 20))
	require.NoError(t, err)
	assert.Equal(t, ActionPublished, action)

	action, err = r.Reconcile(context.Background(), binding, snapshot(4, 20))
	require.NoError(t, err)
	assert.Equal(t, ActionEdited, action)
}
