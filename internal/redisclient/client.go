package redisclient

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps go-redis with the timeouts the service expects from a cache:
// short, so a slow Redis degrades to cache misses instead of slow requests.
type Client struct {
	rdb *redis.Client
}

type Config struct {
	Addr     string
	Password string
	DB       int
	// PoolSize zero keeps the go-redis default (10 per CPU).
	PoolSize int
}

func New(cfg Config) *Client {
	return &Client{rdb: redis.NewClient(&redis.Options{
		Addr:            cfg.Addr,
		Password:        cfg.Password,
		DB:              cfg.DB,
		PoolSize:        cfg.PoolSize,
		DialTimeout:     2 * time.Second,
		ReadTimeout:     300 * time.Millisecond,
		WriteTimeout:    300 * time.Millisecond,
		MaxRetries:      1,
		ConnMaxIdleTime: 5 * time.Minute,
	})}
}

// Ping backs the /readyz check.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// Raw exposes the underlying client for the cache layer.
func (c *Client) Raw() *redis.Client {
	return c.rdb
}
