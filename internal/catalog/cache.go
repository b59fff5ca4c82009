package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	categoriesKey   = "catalog:categories"
	notFoundMarker  = "notfound"
	notFoundTTL     = time.Minute
	defaultCacheTTL = 5 * time.Minute
)

func productKey(id int64) string {
	return fmt.Sprintf("catalog:product:%d", id)
}

// cachedRepository serves product detail and category reads from Redis and
// invalidates them on every write. Redis failures fall through to the
// wrapped repository.
type cachedRepository struct {
	Repository
	redis *redis.Client
	ttl   time.Duration
}

func NewCachedRepository(next Repository, rdb *redis.Client, ttl time.Duration) Repository {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &cachedRepository{Repository: next, redis: rdb, ttl: ttl}
}

func (c *cachedRepository) GetVisibleByID(ctx context.Context, id int64) (*Product, error) {
	key := productKey(id)

	data, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if string(data) == notFoundMarker {
			return nil, ErrProductNotFound
		}
		var product Product
		if err := json.Unmarshal(data, &product); err == nil {
			return &product, nil
		}
		log.Warn().Err(err).Str("key", key).Msg("cache: failed to decode cached product, reading from db")
	case errors.Is(err, redis.Nil):
	default:
		log.Warn().Err(err).Str("key", key).Msg("cache: redis get failed, reading from db")
	}

	product, err := c.Repository.GetVisibleByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			c.set(ctx, key, notFoundMarker, notFoundTTL)
		}
		return nil, err
	}

	if payload, err := json.Marshal(product); err == nil {
		c.set(ctx, key, payload, c.ttl)
	}

	return product, nil
}

func (c *cachedRepository) ListCategories(ctx context.Context) ([]Category, error) {
	data, err := c.redis.Get(ctx, categoriesKey).Bytes()
	if err == nil {
		var categories []Category
		if err := json.Unmarshal(data, &categories); err == nil {
			return categories, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		log.Warn().Err(err).Msg("cache: redis get categories failed, reading from db")
	}

	categories, err := c.Repository.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(categories); err == nil {
		c.set(ctx, categoriesKey, payload, c.ttl)
	}

	return categories, nil
}

func (c *cachedRepository) Create(ctx context.Context, p *Product) (int64, error) {
	id, err := c.Repository.Create(ctx, p)
	if err != nil {
		return 0, err
	}
	c.invalidate(ctx, productKey(id))
	return id, nil
}

func (c *cachedRepository) Update(ctx context.Context, p *Product) error {
	defer c.invalidate(ctx, productKey(p.ID))
	return c.Repository.Update(ctx, p)
}

func (c *cachedRepository) SetArchived(ctx context.Context, id int64, archived bool) error {
	defer c.invalidate(ctx, productKey(id))
	return c.Repository.SetArchived(ctx, id, archived)
}

func (c *cachedRepository) CreateCategory(ctx context.Context, cat *Category) (int64, error) {
	defer c.invalidate(ctx, categoriesKey)
	return c.Repository.CreateCategory(ctx, cat)
}

// ProductCache drops cached product entries for changes made outside the
// catalog repository, such as stock moved by order transitions.
type ProductCache struct {
	redis *redis.Client
}

func NewProductCache(rdb *redis.Client) *ProductCache {
	return &ProductCache{redis: rdb}
}

func (p *ProductCache) InvalidateProducts(ctx context.Context, productIDs ...int64) {
	if len(productIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		keys = append(keys, productKey(id))
	}
	if err := p.redis.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Strs("keys", keys).Msg("cache: failed to invalidate products after stock change")
	}
}

func (c *cachedRepository) set(ctx context.Context, key string, value any, ttl time.Duration) {
	if err := c.redis.Set(ctx, key, value, ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache: failed to store value")
	}
}

func (c *cachedRepository) invalidate(ctx context.Context, keys ...string) {
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Strs("keys", keys).Msg("cache: failed to invalidate keys")
	}
}
