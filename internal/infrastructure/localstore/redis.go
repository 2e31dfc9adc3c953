package localstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/storefront/cartsync/internal/domain/cart"
)

const redisKeyPrefix = "cart:local:"

// RedisStore keeps the anonymous cart in a single Redis string key
type RedisStore struct {
	client *redis.Client
	key    string
	quota  int
	ttl    time.Duration
}

// RedisOptions configures a RedisStore
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Key      string
	Quota    int
	// TTL expires abandoned carts; zero keeps them forever
	TTL time.Duration
}

// NewRedisStore connects and pings Redis
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}
	return NewRedisStoreWithClient(client, opts), nil
}

// NewRedisStoreWithClient wraps an existing client
func NewRedisStoreWithClient(client *redis.Client, opts RedisOptions) *RedisStore {
	return &RedisStore{client: client, key: redisKeyPrefix + opts.Key, quota: opts.Quota, ttl: opts.TTL}
}

// LoadCart implements cart.LocalStore
func (s *RedisStore) LoadCart(ctx context.Context) ([]cart.LineItem, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load local cart: %w", err)
	}
	return decode(data)
}

// SaveCart implements cart.LocalStore. Redis maxmemory (OOM) errors count as a full store.
func (s *RedisStore) SaveCart(ctx context.Context, items []cart.LineItem) error {
	data, err := encode(items, s.quota)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		if isOOM(err) {
			return fmt.Errorf("%w: %v", cart.ErrStorageFull, err)
		}
		return fmt.Errorf("save local cart: %w", err)
	}
	return nil
}

// Close closes the client
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func isOOM(err error) bool {
	var rerr redis.Error
	return errors.As(err, &rerr) && strings.HasPrefix(rerr.Error(), "OOM")
}

var _ Backend = (*RedisStore)(nil)
