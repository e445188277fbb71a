package cache

import (
	"context"
	"testing"
	"time"

	"roombook/pkg/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*RedisAvailabilityCache, *miniredis.Miniredis) {
	t.Helper()
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisAvailabilityCache(client, 3600*time.Second), s
}

func store(t *testing.T, c *RedisAvailabilityCache, day model.Day, rooms []*model.Room) {
	t.Helper()
	gen, err := c.Generation(context.Background(), day)
	require.NoError(t, err)
	require.NoError(t, c.Set(context.Background(), day, rooms, gen))
}

func TestRedisAvailabilityCache(t *testing.T) {
	c, s := setup(t)
	ctx := context.Background()
	day := model.NewDay(2024, time.March, 1)
	rooms := []*model.Room{
		{ID: "65f1a2b3c4d5e6f708192a3b", Name: "Oda 1", Type: model.RoomTypeSuite, Price: 120, Availability: true,
			BookedDates: []model.Day{day.AddDays(1)}},
	}

	t.Run("MissBeforeSet", func(t *testing.T) {
		got, hit, err := c.Get(ctx, day)
		require.NoError(t, err)
		assert.False(t, hit)
		assert.Nil(t, got)
	})

	t.Run("SetAndGet", func(t *testing.T) {
		store(t, c, day, rooms)

		got, hit, err := c.Get(ctx, day)
		require.NoError(t, err)
		require.True(t, hit)
		assert.Equal(t, rooms, got)
		assert.True(t, s.Exists("rooms:availability:2024-03-01T00:00:00.000Z"))
	})

	t.Run("TTL", func(t *testing.T) {
		assert.Equal(t, 3600*time.Second, s.TTL(Key(day)))

		s.FastForward(3599 * time.Second)
		_, hit, err := c.Get(ctx, day)
		require.NoError(t, err)
		assert.True(t, hit)

		s.FastForward(2 * time.Second)
		_, hit, err = c.Get(ctx, day)
		require.NoError(t, err)
		assert.False(t, hit)
	})

	t.Run("EmptySnapshotIsAHit", func(t *testing.T) {
		store(t, c, day, nil)

		got, hit, err := c.Get(ctx, day)
		require.NoError(t, err)
		assert.True(t, hit)
		assert.Empty(t, got)
	})

	t.Run("Invalidate", func(t *testing.T) {
		store(t, c, day, rooms)
		require.NoError(t, c.Invalidate(ctx, day))

		_, hit, err := c.Get(ctx, day)
		require.NoError(t, err)
		assert.False(t, hit)
	})
}

func TestRedisAvailabilityCache_InvalidateAllKeepsOtherKeys(t *testing.T) {
	c, s := setup(t)
	ctx := context.Background()
	start := model.NewDay(2024, time.March, 1)

	for i := 0; i < 1200; i++ {
		require.NoError(t, c.Set(ctx, start.AddDays(i), []*model.Room{}, Generation{}))
	}
	require.NoError(t, s.Set("roombook:idempotency:abc", "kept"))

	require.NoError(t, c.InvalidateAll(ctx))

	assert.Equal(t, []string{"roombook:idempotency:abc", "rooms:availability-gen:all"}, s.Keys())
	for i := 0; i < 1200; i++ {
		_, hit, err := c.Get(ctx, start.AddDays(i))
		require.NoError(t, err)
		require.False(t, hit, "day %d still cached", i)
	}
}

func TestRedisAvailabilityCache_SnapshotReadBeforeInvalidateIsDropped(t *testing.T) {
	c, s := setup(t)
	ctx := context.Background()
	day := model.NewDay(2024, time.March, 9)
	snapshot := []*model.Room{{ID: "65f1a2b3c4d5e6f708192a3b", Name: "Oda 1"}}

	t.Run("DayInvalidated", func(t *testing.T) {
		gen, err := c.Generation(ctx, day)
		require.NoError(t, err)
		require.NoError(t, c.Invalidate(ctx, day))

		assert.ErrorIs(t, c.Set(ctx, day, snapshot, gen), ErrStale)
		assert.False(t, s.Exists(Key(day)))
	})

	t.Run("AllInvalidated", func(t *testing.T) {
		gen, err := c.Generation(ctx, day)
		require.NoError(t, err)
		require.NoError(t, c.InvalidateAll(ctx))

		assert.ErrorIs(t, c.Set(ctx, day, snapshot, gen), ErrStale)
		assert.False(t, s.Exists(Key(day)))
	})

	t.Run("OtherDayInvalidated", func(t *testing.T) {
		gen, err := c.Generation(ctx, day)
		require.NoError(t, err)
		require.NoError(t, c.Invalidate(ctx, day.AddDays(1)))

		require.NoError(t, c.Set(ctx, day, snapshot, gen))
		got, hit, err := c.Get(ctx, day)
		require.NoError(t, err)
		assert.True(t, hit)
		assert.Equal(t, snapshot, got)
	})

	t.Run("GenerationKeyExpires", func(t *testing.T) {
		assert.Equal(t, 3600*time.Second, s.TTL(generationKey(day)))
	})
}

func TestRedisAvailabilityCache_BackendDown(t *testing.T) {
	c, s := setup(t)
	s.Close()

	_, _, err := c.Get(context.Background(), model.NewDay(2024, time.March, 1))
	assert.Error(t, err)
}

func TestRedisAvailabilityCache_CorruptEntry(t *testing.T) {
	c, s := setup(t)
	day := model.NewDay(2024, time.March, 1)
	require.NoError(t, s.Set(Key(day), "{not json"))

	_, hit, err := c.Get(context.Background(), day)
	assert.Error(t, err)
	assert.False(t, hit)
}
