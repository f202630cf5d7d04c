package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paintpro/appointments/internal/domain"
)

var day = time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)

func sampleSlots() []domain.SlotAvailability {
	return []domain.SlotAvailability{{
		Slot: domain.Slot{
			ID:        uuid.MustParse("7b0c1f2e-4c1a-4c36-9f7e-1b0a6f3d2c11"),
			Date:      day.AddDate(0, 0, 1),
			StartTime: "09:00",
			EndTime:   "11:00",
			Capacity:  2,
			Status:    domain.SlotStatusOpen,
			CreatedAt: day,
		},
		Booked: 1,
	}}
}

const (
	genKey     = "cache:slots:gen:2026-10-16"
	listingKey = "cache:slots:open:2026-10-16:3"
)

func TestRedisCache_GetOpenSlots(t *testing.T) {
	ctx := context.Background()

	t.Run("hit", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		c := NewWithClient(db, time.Minute)
		payload, err := json.Marshal(sampleSlots())
		require.NoError(t, err)

		mock.ExpectGet(genKey).SetVal("3")
		mock.ExpectGet(listingKey).SetVal(string(payload))

		slots, gen, err := c.GetOpenSlots(ctx, day)
		require.NoError(t, err)
		assert.Equal(t, int64(3), gen)
		require.Len(t, slots, 1)
		assert.Equal(t, "09:00", slots[0].StartTime)
		assert.Equal(t, 1, slots[0].Remaining())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cached empty listing is not a miss", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		c := NewWithClient(db, time.Minute)

		mock.ExpectGet(genKey).SetVal("3")
		mock.ExpectGet(listingKey).SetVal("[]")

		slots, _, err := c.GetOpenSlots(ctx, day)
		require.NoError(t, err)
		assert.NotNil(t, slots)
		assert.Empty(t, slots)
	})

	t.Run("miss before any invalidation", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		c := NewWithClient(db, time.Minute)

		mock.ExpectGet(genKey).RedisNil()
		mock.ExpectGet("cache:slots:open:2026-10-16:0").RedisNil()

		slots, gen, err := c.GetOpenSlots(ctx, day)
		require.NoError(t, err)
		assert.Nil(t, slots)
		assert.Equal(t, int64(0), gen)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("generation read fails", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		c := NewWithClient(db, time.Minute)

		mock.ExpectGet(genKey).SetErr(errors.New("connection refused"))

		_, _, err := c.GetOpenSlots(ctx, day)
		assert.Error(t, err)
	})

	t.Run("listing read fails", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		c := NewWithClient(db, time.Minute)

		mock.ExpectGet(genKey).SetVal("3")
		mock.ExpectGet(listingKey).SetErr(errors.New("connection refused"))

		_, _, err := c.GetOpenSlots(ctx, day)
		assert.Error(t, err)
	})
}

func TestRedisCache_SetOpenSlots(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewWithClient(db, 30*time.Second)
	payload, err := json.Marshal(sampleSlots())
	require.NoError(t, err)

	mock.ExpectSet(listingKey, payload, 30*time.Second).SetVal("OK")

	require.NoError(t, c.SetOpenSlots(context.Background(), day, 3, sampleSlots()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCache_InvalidateOpenSlots(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewWithClient(db, time.Minute)

	mock.ExpectIncr(genKey).SetVal(4)
	mock.ExpectExpire(genKey, generationTTL).SetVal(true)

	require.NoError(t, c.InvalidateOpenSlots(context.Background(), day))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A fill computed before an invalidation is written under the old generation and never served.
func TestRedisCache_FillAfterInvalidateIsNotServed(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	c := NewWithClient(db, 30*time.Second)
	payload, err := json.Marshal(sampleSlots())
	require.NoError(t, err)

	mock.ExpectGet(genKey).SetVal("3")
	mock.ExpectGet(listingKey).RedisNil()
	mock.ExpectIncr(genKey).SetVal(4)
	mock.ExpectExpire(genKey, generationTTL).SetVal(true)
	mock.ExpectSet(listingKey, payload, 30*time.Second).SetVal("OK")
	mock.ExpectGet(genKey).SetVal("4")
	mock.ExpectGet("cache:slots:open:2026-10-16:4").RedisNil()

	_, gen, err := c.GetOpenSlots(ctx, day)
	require.NoError(t, err)
	require.NoError(t, c.InvalidateOpenSlots(ctx, day))
	require.NoError(t, c.SetOpenSlots(ctx, day, gen, sampleSlots()))

	slots, _, err := c.GetOpenSlots(ctx, day)
	require.NoError(t, err)
	assert.Nil(t, slots)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCache_AcquireSweepLock(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewWithClient(db, time.Minute)

	mock.ExpectSetNX("lock:slots:sweep:2026-10-16", "locked", 10*time.Minute).SetVal(true)
	mock.ExpectSetNX("lock:slots:sweep:2026-10-16", "locked", 10*time.Minute).SetVal(false)

	first, err := c.AcquireSweepLock(context.Background(), day, 10*time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := c.AcquireSweepLock(context.Background(), day, 10*time.Minute)
	require.NoError(t, err)
	assert.False(t, second)
}
