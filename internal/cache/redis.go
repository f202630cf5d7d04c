package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/paintpro/appointments/config"
	"github.com/paintpro/appointments/internal/domain"
)

type RedisCache struct {
	client   *redis.Client
	slotsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, slotsTTL time.Duration) *RedisCache {
	return NewWithClient(redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}), slotsTTL)
}

func NewWithClient(client *redis.Client, slotsTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, slotsTTL: slotsTTL}
}

// generationTTL keeps a day's generation counter well past the listing TTL.
const generationTTL = 48 * time.Hour

// GetOpenSlots returns the cached listing for day and the generation it was looked up under. A miss
// is reported as a nil listing; the generation is still valid for a later SetOpenSlots.
func (c *RedisCache) GetOpenSlots(ctx context.Context, day time.Time) ([]domain.SlotAvailability, int64, error) {
	gen, err := c.generation(ctx, day)
	if err != nil {
		return nil, 0, err
	}

	data, err := c.client.Get(ctx, openSlotsKey(day, gen)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, gen, nil
		}
		return nil, 0, err
	}

	slots := make([]domain.SlotAvailability, 0)
	if err := json.Unmarshal(data, &slots); err != nil {
		return nil, 0, err
	}
	return slots, gen, nil
}

// SetOpenSlots stores a listing under gen. A listing read before an invalidation lands on a key
// no reader looks up any more.
func (c *RedisCache) SetOpenSlots(ctx context.Context, day time.Time, gen int64, slots []domain.SlotAvailability) error {
	payload, err := json.Marshal(slots)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, openSlotsKey(day, gen), payload, c.slotsTTL).Err()
}

// InvalidateOpenSlots moves day to a new generation.
func (c *RedisCache) InvalidateOpenSlots(ctx context.Context, day time.Time) error {
	key := generationKey(day)
	if err := c.client.Incr(ctx, key).Err(); err != nil {
		return err
	}
	return c.client.Expire(ctx, key, generationTTL).Err()
}

func (c *RedisCache) generation(ctx context.Context, day time.Time) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey(day)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// AcquireSweepLock lets one worker replica run the past-slot sweep for day.
func (c *RedisCache) AcquireSweepLock(ctx context.Context, day time.Time, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, sweepLockKey(day), "locked", ttl).Result()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func openSlotsKey(day time.Time, gen int64) string {
	return "cache:slots:open:" + day.Format(domain.DateLayout) + ":" + strconv.FormatInt(gen, 10)
}

func generationKey(day time.Time) string {
	return "cache:slots:gen:" + day.Format(domain.DateLayout)
}

func sweepLockKey(day time.Time) string {
	return "lock:slots:sweep:" + day.Format(domain.DateLayout)
}
