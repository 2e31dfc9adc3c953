package localstore

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/storefront/cartsync/internal/domain/cart"
	"github.com/storefront/cartsync/internal/infrastructure/config"
)

// Backend is a local cart store that owns a connection
type Backend interface {
	cart.LocalStore
	Close() error
}

// Factory builds the configured local backend
type Factory struct {
	sync          config.SyncConfig
	redis         config.RedisConfig
	logger        *zap.Logger
	allowFallback bool
}

// FactoryOption configures a Factory
type FactoryOption func(*Factory)

// WithLogger sets the factory logger
func WithLogger(l *zap.Logger) FactoryOption {
	return func(f *Factory) { f.logger = l }
}

// WithMemoryFallback controls whether an unreachable Redis degrades to memory.
// Enabled by default.
func WithMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) { f.allowFallback = allow }
}

// NewFactory creates a factory for the sync and redis config sections
func NewFactory(syncCfg config.SyncConfig, redisCfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{sync: syncCfg, redis: redisCfg, logger: zap.NewNop(), allowFallback: true}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create opens the backend named by sync.local_backend
func (f *Factory) Create(ctx context.Context) (Backend, error) {
	switch f.sync.LocalBackend {
	case "memory":
		f.logger.Info("using in-memory local cart store; cart will not survive restart")
		return NewMemoryStore(f.sync.LocalQuotaBytes), nil
	case "sqlite":
		db, err := OpenSQLite(f.sync.SQLitePath, f.logger)
		if err != nil {
			return nil, err
		}
		f.logger.Info("using sqlite local cart store", zap.String("path", f.sync.SQLitePath))
		return NewSQLiteStore(db, f.sync.LocalKey, f.sync.LocalQuotaBytes), nil
	case "redis":
		store, err := NewRedisStore(ctx, RedisOptions{
			Addr:     f.redis.Addr(),
			Password: f.redis.Password,
			DB:       f.redis.DB,
			Key:      f.sync.LocalKey,
			Quota:    f.sync.LocalQuotaBytes,
		})
		if err == nil {
			f.logger.Info("using redis local cart store", zap.String("addr", f.redis.Addr()))
			return store, nil
		}
		if !f.allowFallback {
			return nil, fmt.Errorf("redis local store unavailable: %w", err)
		}
		f.logger.Warn("redis unavailable, falling back to in-memory local cart store", zap.Error(err))
		return NewMemoryStore(f.sync.LocalQuotaBytes), nil
	}
	return nil, fmt.Errorf("unknown local backend %q", f.sync.LocalBackend)
}
