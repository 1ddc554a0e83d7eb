package storage

import (
	"context"
	"testing"
	"time"

	"checkout-service/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisSuccessStore) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return mr, NewRedisSuccessStoreWithClient(client, time.Hour)
}

func record() models.OrderSuccessRecord {
	return models.OrderSuccessRecord{
		OrderNumber: "ORD123",
		TotalAmount: decimal.RequireFromString("1497.00"),
		Items: []models.CartLine{{
			ID:       "l1",
			Product:  models.Product{ID: "kurta-01", Name: "Cotton Kurta", Price: decimal.NewFromInt(499)},
			Quantity: 3,
		}},
		PaymentMethod: models.PaymentCOD,
		Status:        "confirmed",
		PlacedAt:      time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC),
	}
}

func TestRedisSuccessStore_RoundTrip(t *testing.T) {
	mr, store := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sess-1", record()))
	assert.True(t, mr.Exists("orderSuccessData:sess-1"))

	got, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "ORD123", got.OrderNumber)
	assert.True(t, got.TotalAmount.Equal(decimal.NewFromInt(1497)))
	require.Len(t, got.Items, 1)
	assert.Equal(t, 3, got.Items[0].Quantity)
	assert.Equal(t, models.PaymentCOD, got.PaymentMethod)
}

func TestRedisSuccessStore_Expires(t *testing.T) {
	mr, store := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sess-1", record()))
	assert.Equal(t, time.Hour, mr.TTL("orderSuccessData:sess-1"))

	mr.FastForward(2 * time.Hour)

	_, err := store.Load(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisSuccessStore_Clear(t *testing.T) {
	_, store := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sess-1", record()))
	require.NoError(t, store.Clear(ctx, "sess-1"))

	_, err := store.Load(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, store.Clear(ctx, "sess-1"))
}

func TestRedisSuccessStore_Unavailable(t *testing.T) {
	mr, store := setupTestRedis(t)
	mr.Close()

	err := store.Save(context.Background(), "sess-1", record())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestNewRedisSuccessStore(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := NewRedisSuccessStore(context.Background(), "redis://"+mr.Addr(), time.Minute)
	require.NoError(t, err)
	defer store.Close()

	_, err = NewRedisSuccessStore(context.Background(), "not a url", time.Minute)
	assert.Error(t, err)
}

func TestMemorySuccessStore(t *testing.T) {
	store := NewMemorySuccessStore()
	ctx := context.Background()

	_, err := store.Load(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Save(ctx, "sess-1", record()))
	got, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "ORD123", got.OrderNumber)

	require.NoError(t, store.Clear(ctx, "sess-1"))
	_, err = store.Load(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrNotFound)
}
