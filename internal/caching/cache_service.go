package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"medassist/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const keyPrefix = "medassist"

type CacheService interface {
	// Trending aggregate
	GetTrending(ctx context.Context) ([]*models.MedicineAggregate, error)
	SetTrending(ctx context.Context, trending []*models.MedicineAggregate, ttl time.Duration) error

	// Catalog categories
	GetCategories(ctx context.Context) (*models.CategoryList, error)
	SetCategories(ctx context.Context, categories *models.CategoryList, ttl time.Duration) error

	// Daily search quota
	SearchCount(ctx context.Context, userID uuid.UUID, day string) (int64, error)
	IncrementSearchCount(ctx context.Context, userID uuid.UUID, day string) (int64, error)

	// Rate limiting
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	// Accept redis://host:port as well as host:port
	parsedAddr := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://")

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Warn().Err(pingErr).Str("addr", parsedAddr).Msg("Redis ping failed on initialization")
	} else {
		log.Debug().Str("addr", parsedAddr).Msg("Redis connection established")
	}

	return &redisCacheService{client: client}
}

// NewCacheServiceFromClient wraps an existing client.
func NewCacheServiceFromClient(client *redis.Client) CacheService {
	return &redisCacheService{client: client}
}

// Keys of the shared catalog entries.
const (
	TrendingKey   = keyPrefix + ":trending"
	CategoriesKey = keyPrefix + ":categories"
)

func searchQuotaKey(userID uuid.UUID, day string) string {
	return fmt.Sprintf("%s:quota:search:%s:%s", keyPrefix, userID.String(), day)
}

// getJSON returns false on a cache miss.
func (r *redisCacheService) getJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (r *redisCacheService) setJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) GetTrending(ctx context.Context) ([]*models.MedicineAggregate, error) {
	var trending []*models.MedicineAggregate
	hit, err := r.getJSON(ctx, TrendingKey, &trending)
	if err != nil || !hit {
		return nil, err
	}
	return trending, nil
}

func (r *redisCacheService) SetTrending(ctx context.Context, trending []*models.MedicineAggregate, ttl time.Duration) error {
	return r.setJSON(ctx, TrendingKey, trending, ttl)
}

func (r *redisCacheService) GetCategories(ctx context.Context) (*models.CategoryList, error) {
	var categories models.CategoryList
	hit, err := r.getJSON(ctx, CategoriesKey, &categories)
	if err != nil || !hit {
		return nil, err
	}
	return &categories, nil
}

func (r *redisCacheService) SetCategories(ctx context.Context, categories *models.CategoryList, ttl time.Duration) error {
	return r.setJSON(ctx, CategoriesKey, categories, ttl)
}

// SearchCount returns the caller's counter for the given day, zero when unset.
func (r *redisCacheService) SearchCount(ctx context.Context, userID uuid.UUID, day string) (int64, error) {
	count, err := r.client.Get(ctx, searchQuotaKey(userID, day)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return count, err
}

// IncrementSearchCount bumps the caller's counter for the given day and
// returns the new value. Counters expire after two days.
func (r *redisCacheService) IncrementSearchCount(ctx context.Context, userID uuid.UUID, day string) (int64, error) {
	key := searchQuotaKey(userID, day)
	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, 48*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (r *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	cacheKey := fmt.Sprintf("%s:ratelimit:%s", keyPrefix, key)
	count, err := r.client.Incr(ctx, cacheKey).Result()
	if err != nil {
		return true, err
	}

	// Set expiry on first request
	if count == 1 {
		r.client.Expire(ctx, cacheKey, window)
	}

	return count > int64(limit), nil
}

func (r *redisCacheService) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisCacheService) Close() error {
	return r.client.Close()
}
