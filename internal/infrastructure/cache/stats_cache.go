package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/ereceipt-api/internal/application/billing"
	"github.com/jhoicas/ereceipt-api/internal/domain/entity"
)

var _ billing.StatsCache = (*StatsCache)(nil)

// DefaultStatsTTL si la configuración no trae TTL.
const DefaultStatsTTL = 5 * time.Minute

// StatsCache estadísticas de recibos por usuario en Redis. Se invalida en cada escritura de recibos.
type StatsCache struct {
	redis *Redis
	ttl   time.Duration
}

// NewStatsCache construye la caché sobre el cliente compartido.
func NewStatsCache(r *Redis, ttl time.Duration) *StatsCache {
	if ttl <= 0 {
		ttl = DefaultStatsTTL
	}
	return &StatsCache{redis: r, ttl: ttl}
}

func statsKey(userID string) string { return "receipts:" + userID + ":stats" }

type statsRecord struct {
	TotalReceipts int64           `json:"total_receipts"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalTax      decimal.Decimal `json:"total_tax"`
	EmailsSent    int64           `json:"emails_sent"`
	SMSSent       int64           `json:"sms_sent"`
}

// Get ok=false si la clave no existe.
func (c *StatsCache) Get(ctx context.Context, userID string) (*entity.ReceiptStats, bool, error) {
	s, err := c.redis.C.Get(ctx, statsKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get stats: %w", err)
	}
	st, err := decodeStats(s)
	if err != nil {
		return nil, false, err
	}
	return st, true, nil
}

// Set guarda las estadísticas con el TTL configurado.
func (c *StatsCache) Set(ctx context.Context, userID string, st *entity.ReceiptStats) error {
	b, err := encodeStats(st)
	if err != nil {
		return err
	}
	if err := c.redis.C.Set(ctx, statsKey(userID), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set stats: %w", err)
	}
	return nil
}

// Invalidate borra la entrada del usuario.
func (c *StatsCache) Invalidate(ctx context.Context, userID string) error {
	if err := c.redis.C.Del(ctx, statsKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis del stats: %w", err)
	}
	return nil
}

func encodeStats(st *entity.ReceiptStats) ([]byte, error) {
	return json.Marshal(statsRecord{
		TotalReceipts: st.TotalReceipts,
		TotalRevenue:  st.TotalRevenue,
		TotalTax:      st.TotalTax,
		EmailsSent:    st.EmailsSent,
		SMSSent:       st.SMSSent,
	})
}

func decodeStats(s string) (*entity.ReceiptStats, error) {
	var rec statsRecord
	if err := json.Unmarshal([]byte(s), &rec); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	return &entity.ReceiptStats{
		TotalReceipts: rec.TotalReceipts,
		TotalRevenue:  rec.TotalRevenue,
		TotalTax:      rec.TotalTax,
		EmailsSent:    rec.EmailsSent,
		SMSSent:       rec.SMSSent,
	}, nil
}
