// Package cache keeps catalog reads in Redis. Entries are JSON-encoded part
// lists; any catalog write bumps the catalog generation and drops every entry.
//
// A reader only stores what it loaded if the generation is unchanged since
// before the load, so a write racing a cache miss cannot leave a stale entry
// behind. If Redis drops the generation key itself, an entry is at worst
// stale for one TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jogardn/partsdepot/internal/config"
	"github.com/jogardn/partsdepot/pkg/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	keyPrefix  = "parts:"
	allKey     = keyPrefix + "all"
	searchKey  = keyPrefix + "search:"
	scanBatch  = 100

	// generationKey sits outside keyPrefix so invalidation never deletes it.
	generationKey = "catalog:generation"
	opDeadline = 500 * time.Millisecond
)

type PartStore interface {
	ListParts(ctx context.Context) ([]models.Part, error)
	SearchParts(ctx context.Context, term string) ([]models.Part, error)
	GetPart(ctx context.Context, id int64) (*models.Part, error)
	CreatePart(ctx context.Context, p *models.Part) error
	UpdatePart(ctx context.Context, p *models.Part) error
	DeletePart(ctx context.Context, id int64) error
}

// CachedPartStore is a read-through cache in front of a PartStore. Redis
// failures are logged and served from the underlying store.
type CachedPartStore struct {
	next   PartStore
	rdb    *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

func NewCachedPartStore(next PartStore, rdb *redis.Client, ttl time.Duration, logger *logrus.Logger) *CachedPartStore {
	return &CachedPartStore{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

// Connect opens a Redis client and verifies it answers PING.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

func (c *CachedPartStore) ListParts(ctx context.Context) ([]models.Part, error) {
	return c.readThrough(ctx, allKey, func() ([]models.Part, error) {
		return c.next.ListParts(ctx)
	})
}

func (c *CachedPartStore) SearchParts(ctx context.Context, term string) ([]models.Part, error) {
	normalized := strings.ToLower(strings.TrimSpace(term))
	if normalized == "" {
		return c.ListParts(ctx)
	}
	return c.readThrough(ctx, searchKey+normalized, func() ([]models.Part, error) {
		return c.next.SearchParts(ctx, term)
	})
}

func (c *CachedPartStore) GetPart(ctx context.Context, id int64) (*models.Part, error) {
	return c.next.GetPart(ctx, id)
}

func (c *CachedPartStore) CreatePart(ctx context.Context, p *models.Part) error {
	if err := c.next.CreatePart(ctx, p); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *CachedPartStore) UpdatePart(ctx context.Context, p *models.Part) error {
	if err := c.next.UpdatePart(ctx, p); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *CachedPartStore) DeletePart(ctx context.Context, id int64) error {
	if err := c.next.DeletePart(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *CachedPartStore) readThrough(ctx context.Context, key string, load func() ([]models.Part, error)) ([]models.Part, error) {
	if parts, ok := c.get(ctx, key); ok {
		return parts, nil
	}

	gen, genOK := c.generation(ctx)
	parts, err := load()
	if err != nil {
		return nil, err
	}
	if genOK {
		c.set(ctx, key, gen, parts)
	}
	return parts, nil
}

func (c *CachedPartStore) generation(ctx context.Context) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, opDeadline)
	defer cancel()

	gen, err := c.rdb.Get(ctx, generationKey).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return "0", true
	case err != nil:
		c.logger.WithError(err).Warn("Catalog generation read failed")
		return "", false
	}
	return gen, true
}

func (c *CachedPartStore) get(ctx context.Context, key string) ([]models.Part, bool) {
	ctx, cancel := context.WithTimeout(ctx, opDeadline)
	defer cancel()

	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WithError(err).WithField("key", key).Warn("Catalog cache read failed")
		}
		return nil, false
	}

	var parts []models.Part
	if err := json.Unmarshal(data, &parts); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Discarding corrupt catalog cache entry")
		return nil, false
	}
	return parts, true
}

var errStale = errors.New("catalog changed during load")

// set stores parts under key only while the catalog is still at gen.
func (c *CachedPartStore) set(ctx context.Context, key, gen string, parts []models.Part) {
	data, err := json.Marshal(parts)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, opDeadline)
	defer cancel()

	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, generationKey).Result()
		if errors.Is(err, redis.Nil) {
			current = "0"
		} else if err != nil {
			return err
		}
		if current != gen {
			return errStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, c.ttl)
			return nil
		})
		return err
	}, generationKey)

	switch {
	case err == nil:
	case errors.Is(err, errStale), errors.Is(err, redis.TxFailedErr):
		c.logger.WithField("key", key).Debug("Skipping stale catalog cache write")
	default:
		c.logger.WithError(err).WithField("key", key).Warn("Catalog cache write failed")
	}
}

func (c *CachedPartStore) invalidate(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, opDeadline)
	defer cancel()

	if err := c.rdb.Incr(ctx, generationKey).Err(); err != nil {
		c.logger.WithError(err).Warn("Catalog generation bump failed")
	}

	var keys []string
	iter := c.rdb.Scan(ctx, 0, keyPrefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.WithError(err).Warn("Catalog cache scan failed")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.logger.WithError(err).Warn("Catalog cache invalidation failed")
	}
}
