package cachestore

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/emberfall/go-forge-perf/config"
	"github.com/stretchr/testify/require"
)

func testCfg(maxSize int, ttl time.Duration) *config.CacheCfg {
	return &config.CacheCfg{
		MaxSize:          maxSize,
		TTL:              ttl,
		EnableLRU:        true,
		Categories:       config.DefaultCategories(),
		EvictionFraction: 0.25,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func TestGetAfterSet(t *testing.T) {
	mock := clock.NewMock()
	store := New(testCfg(100, time.Minute), testLogger(), mock)

	store.Set("stats", "char1-warrior-1", map[string]int{"hp": 10})

	got, err := store.Get("stats", "char1-warrior-1", nil)
	require.NoError(t, err)
	require.Equal(t, map[string]int{"hp": 10}, got)
	require.Greater(t, store.HitRate(), 0.0)
}

func TestMissWithoutComputeIsNil(t *testing.T) {
	store := New(testCfg(100, time.Minute), testLogger(), clock.NewMock())

	got, err := store.Get("stats", "absent", nil)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestComputeOnMissStoresResult(t *testing.T) {
	store := New(testCfg(100, time.Minute), testLogger(), clock.NewMock())

	invokes := 0
	compute := func() (any, error) {
		invokes++
		return "derived", nil
	}

	for i := 0; i < 100; i++ {
		got, err := store.Get("skills", "char1-mage-3", compute)
		require.NoError(t, err)
		require.Equal(t, "derived", got)
	}
	require.Equal(t, 1, invokes)
}

func TestComputeErrPropagatesAndNothingStored(t *testing.T) {
	store := New(testCfg(100, time.Minute), testLogger(), clock.NewMock())

	boom := errors.New("boom")
	_, err := store.Get("skills", "k", func() (any, error) { return nil, boom })
	require.ErrorIs(t, err, boom)

	got, err := store.Get("skills", "k", nil)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestTTLExpiryBehavesAsMiss(t *testing.T) {
	mock := clock.NewMock()
	store := New(testCfg(100, time.Minute), testLogger(), mock)

	store.Set("stats", "k", 42)

	mock.Add(59 * time.Second)
	got, err := store.Get("stats", "k", nil)
	require.NoError(t, err)
	require.Equal(t, 42, got)

	mock.Add(2 * time.Minute)
	got, err = store.Get("stats", "k", nil)
	require.NoError(t, err)
	require.Nil(t, got, "entry past ttl must read as a miss even if never evicted for size")
}

func TestBatchLRUEviction(t *testing.T) {
	mock := clock.NewMock()
	store := New(testCfg(100, time.Hour), testLogger(), mock)

	for i := 0; i < 100; i++ {
		store.Set("stats", fmt.Sprintf("key_%d", i), i)
		mock.Add(time.Millisecond) // distinct touch times for a stable order
	}

	// Touch the newest key so it survives the batch for sure.
	_, err := store.Get("stats", "key_99", nil)
	require.NoError(t, err)
	mock.Add(time.Millisecond)

	store.Set("stats", "overflow", "v")

	// Oldest quarter is gone in one batch.
	for i := 0; i < 25; i++ {
		got, err := store.Get("stats", fmt.Sprintf("key_%d", i), nil)
		require.NoError(t, err)
		require.Nil(t, got, "key_%d should have been evicted", i)
	}

	got, err := store.Get("stats", "key_99", nil)
	require.NoError(t, err)
	require.Equal(t, 99, got)

	got, err = store.Get("stats", "overflow", nil)
	require.NoError(t, err)
	require.Equal(t, "v", got)
}

func TestCategoriesAreIndependent(t *testing.T) {
	mock := clock.NewMock()
	store := New(testCfg(10, time.Hour), testLogger(), mock)

	for i := 0; i < 10; i++ {
		store.Set("stats", fmt.Sprintf("s%d", i), i)
		store.Set("skills", fmt.Sprintf("sk%d", i), i)
		mock.Add(time.Millisecond)
	}
	store.Set("stats", "trigger", "x") // evicts in stats only

	got, err := store.Get("skills", "sk0", nil)
	require.NoError(t, err)
	require.Equal(t, 0, got, "eviction in one category must not affect another")
}

func TestUnknownCategoryNeverErrors(t *testing.T) {
	store := New(testCfg(10, time.Minute), testLogger(), clock.NewMock())

	store.Set("nope", "k", 1)
	got, err := store.Get("nope", "k", nil)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestClearAndEvictExpired(t *testing.T) {
	mock := clock.NewMock()
	store := New(testCfg(10, time.Minute), testLogger(), mock)

	store.Set("stats", "a", 1)
	store.Set("skills", "b", 2)
	require.Equal(t, 2, store.Len())

	store.Clear("stats")
	require.Equal(t, 1, store.Len())

	mock.Add(2 * time.Minute)
	require.Equal(t, 1, store.EvictExpired())
	require.Equal(t, 0, store.Len())
}
