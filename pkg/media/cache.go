package media

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const cacheKeyPrefix = "media:signed-url:"

// CachedSigner memoizes signed URLs in Redis so repeated reads of the same
// media within the cache window hand out the same URL. Redis failures fall
// back to signing directly.
type CachedSigner struct {
	signer  URLSigner
	client  *redis.Client
	ttl     time.Duration
	timeout time.Duration
	logger  *logrus.Logger
}

// NewCachedSigner wraps signer with a Redis cache. ttl must be shorter than the
// signer's own URL lifetime so cached URLs are never served expired.
func NewCachedSigner(signer URLSigner, client *redis.Client, ttl time.Duration, logger *logrus.Logger) *CachedSigner {
	return &CachedSigner{
		signer:  signer,
		client:  client,
		ttl:     ttl,
		timeout: 200 * time.Millisecond,
		logger:  logger,
	}
}

// NewRedisClient builds a client from address, password and database index
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// SignURL returns a cached URL for key, or signs and caches a new one
func (c *CachedSigner) SignURL(key string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	cacheKey := cacheKeyPrefix + key
	cached, err := c.client.Get(ctx, cacheKey).Result()
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, redis.Nil) {
		c.logger.WithField("key", key).WithError(err).Warn("Signed URL cache read failed")
	}

	signed, err := c.signer.SignURL(key)
	if err != nil {
		return "", err
	}

	if err := c.client.Set(ctx, cacheKey, signed, c.ttl).Err(); err != nil {
		c.logger.WithField("key", key).WithError(err).Warn("Signed URL cache write failed")
	}
	return signed, nil
}
