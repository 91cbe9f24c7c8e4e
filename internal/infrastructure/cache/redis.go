package cache

import (
	"context"
	"time"

	"github.com/jhoicas/ereceipt-api/pkg/config"
	"github.com/redis/go-redis/v9"
)

// Redis cliente compartido por las cachés.
type Redis struct {
	C *redis.Client
}

// New crea el cliente. No conecta hasta el primer comando.
func New(cfg config.RedisConfig) *Redis {
	return &Redis{
		C: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
	}
}

// Ping verifica la conexión (se usa al arrancar).
func (r *Redis) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return r.C.Ping(ctx).Err()
}

// Close cierra el pool de conexiones.
func (r *Redis) Close() error {
	return r.C.Close()
}
