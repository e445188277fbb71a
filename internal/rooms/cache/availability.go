package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"roombook/pkg/model"

	"github.com/redis/go-redis/v9"
)

const (
	KeyPrefix        = "rooms:availability:"
	GenerationPrefix = "rooms:availability-gen:"
	generationAllKey = GenerationPrefix + "all"
	scanBatchSize    = 500
)

// ErrStale is returned by Set when the day was invalidated after the generation was read.
var ErrStale = errors.New("availability snapshot is stale")

// Generation counts invalidations of every day and of one day.
type Generation struct {
	All int64
	Day int64
}

// AvailabilityCache stores the available-room snapshot computed for a day.
type AvailabilityCache interface {
	Get(ctx context.Context, day model.Day) ([]*model.Room, bool, error)
	// Generation must be read before querying the store for the snapshot passed to Set.
	Generation(ctx context.Context, day model.Day) (Generation, error)
	Set(ctx context.Context, day model.Day, rooms []*model.Room, gen Generation) error
	Invalidate(ctx context.Context, day model.Day) error
	InvalidateAll(ctx context.Context) error
}

type RedisAvailabilityCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisAvailabilityCache(client redis.UniversalClient, ttl time.Duration) *RedisAvailabilityCache {
	return &RedisAvailabilityCache{
		client: client,
		ttl:    ttl,
	}
}

// Key returns the cache key for day, e.g. rooms:availability:2024-03-01T00:00:00.000Z.
func Key(day model.Day) string {
	return KeyPrefix + day.ISO()
}

func generationKey(day model.Day) string {
	return GenerationPrefix + day.ISO()
}

func (c *RedisAvailabilityCache) Get(ctx context.Context, day model.Day) ([]*model.Room, bool, error) {
	data, err := c.client.Get(ctx, Key(day)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get availability from redis: %w", err)
	}

	var rooms []*model.Room
	if err := json.Unmarshal(data, &rooms); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal availability: %w", err)
	}
	return rooms, true, nil
}

func (c *RedisAvailabilityCache) Generation(ctx context.Context, day model.Day) (Generation, error) {
	return readGeneration(ctx, c.client, day)
}

type multiGetter interface {
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
}

func readGeneration(ctx context.Context, cmd multiGetter, day model.Day) (Generation, error) {
	values, err := cmd.MGet(ctx, generationAllKey, generationKey(day)).Result()
	if err != nil {
		return Generation{}, fmt.Errorf("failed to read availability generation: %w", err)
	}

	counters := make([]int64, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		counters[i], err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Generation{}, fmt.Errorf("failed to parse availability generation: %w", err)
		}
	}
	return Generation{All: counters[0], Day: counters[1]}, nil
}

// Set stores rooms for day only if no invalidation happened since gen was read.
func (c *RedisAvailabilityCache) Set(ctx context.Context, day model.Day, rooms []*model.Room, gen Generation) error {
	if rooms == nil {
		rooms = []*model.Room{}
	}
	data, err := json.Marshal(rooms)
	if err != nil {
		return fmt.Errorf("failed to marshal availability: %w", err)
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGeneration(ctx, tx, day)
		if err != nil {
			return err
		}
		if current != gen {
			return ErrStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, Key(day), data, c.ttl)
			return nil
		})
		return err
	}, generationAllKey, generationKey(day))

	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrStale), errors.Is(err, redis.TxFailedErr):
		return ErrStale
	default:
		return fmt.Errorf("failed to set availability in redis: %w", err)
	}
}

func (c *RedisAvailabilityCache) Invalidate(ctx context.Context, day model.Day) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(day))
		pipe.Expire(ctx, generationKey(day), c.ttl)
		pipe.Del(ctx, Key(day))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete availability from redis: %w", err)
	}
	return nil
}

// InvalidateAll removes every availability entry. It scans by prefix rather than
// flushing so other keys in the same database survive.
func (c *RedisAvailabilityCache) InvalidateAll(ctx context.Context) error {
	if err := c.client.Incr(ctx, generationAllKey).Err(); err != nil {
		return fmt.Errorf("failed to bump availability generation: %w", err)
	}

	// Deleting while the scan runs can move the cursor past live keys, so collect first.
	var keys []string
	var cursor uint64
	for {
		batch, next, err := c.client.Scan(ctx, cursor, KeyPrefix+"*", scanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("failed to scan availability keys: %w", err)
		}
		keys = append(keys, batch...)
		if next == 0 {
			break
		}
		cursor = next
	}

	for start := 0; start < len(keys); start += scanBatchSize {
		end := min(start+scanBatchSize, len(keys))
		if err := c.client.Del(ctx, keys[start:end]...).Err(); err != nil {
			return fmt.Errorf("failed to delete availability keys: %w", err)
		}
	}
	return nil
}
