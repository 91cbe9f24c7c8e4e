package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ereceipt-api/internal/domain/entity"
	"github.com/jhoicas/ereceipt-api/pkg/config"
)

func sampleStats() *entity.ReceiptStats {
	return &entity.ReceiptStats{
		TotalReceipts: 3,
		TotalRevenue:  decimal.RequireFromString("120.55"),
		TotalTax:      decimal.RequireFromString("10.96"),
		EmailsSent:    2,
		SMSSent:       1,
	}
}

func TestEncodeDecodeStats(t *testing.T) {
	b, err := encodeStats(sampleStats())
	require.NoError(t, err)

	got, err := decodeStats(string(b))
	require.NoError(t, err)
	assert.EqualValues(t, 3, got.TotalReceipts)
	assert.True(t, got.TotalRevenue.Equal(decimal.RequireFromString("120.55")))
	assert.EqualValues(t, 1, got.SMSSent)

	_, err = decodeStats("{no json")
	assert.Error(t, err)
}

func TestStatsKey(t *testing.T) {
	assert.Equal(t, "receipts:u1:stats", statsKey("u1"))
}

// Requiere Redis: TEST_REDIS_ADDR=localhost:6379
func TestStatsCache_Redis(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR no definido")
	}
	ctx := context.Background()
	r := New(config.RedisConfig{Addr: addr})
	t.Cleanup(func() { _ = r.Close() })
	require.NoError(t, r.Ping(ctx))

	c := NewStatsCache(r, time.Minute)
	user := uuid.NewString()

	_, ok, err := c.Get(ctx, user)
	require.NoError(t, err)
	assert.False(t, ok, "miss inicial")

	require.NoError(t, c.Set(ctx, user, sampleStats()))
	st, ok, err := c.Get(ctx, user)
	require.NoError(t, err)
	require.True(t, ok)
	assert.EqualValues(t, 2, st.EmailsSent)

	require.NoError(t, c.Invalidate(ctx, user))
	_, ok, _ = c.Get(ctx, user)
	assert.False(t, ok)
}
