package pool

import (
	"log/slog"
	"os"
	"testing"

	"github.com/emberfall/go-forge-perf/config"
	"github.com/stretchr/testify/require"
)

type statRecord struct {
	HP     int
	MP     int
	Attack int
	Skills []string
	Mods   map[string]int
}

func resetStatRecord(obj any) {
	r := obj.(*statRecord)
	r.HP, r.MP, r.Attack = 0, 0, 0
	r.Skills = r.Skills[:0]
	clear(r.Mods)
}

func testCfg() *config.PoolCfg {
	return &config.PoolCfg{
		InitialSize:     10,
		MaxSize:         100,
		GrowthFactor:    1.5,
		ShrinkThreshold: 0.3,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := New(testCfg(), testLogger())
	r.RegisterType("stat_record",
		func() any { return &statRecord{Mods: make(map[string]int)} },
		resetStatRecord,
	)
	return r
}

func TestAcquireGrowsEmptyPool(t *testing.T) {
	r := newTestRegistry(t)

	obj := r.Acquire("stat_record")
	require.NotNil(t, obj)
	// ceil(10 * 1.5) = 15 constructed, one handed out.
	require.Equal(t, 14, r.FreeCount("stat_record"))
}

func TestReleaseResetsObject(t *testing.T) {
	r := newTestRegistry(t)

	rec := r.Acquire("stat_record").(*statRecord)
	rec.HP, rec.MP, rec.Attack = 120, 40, 15
	rec.Skills = append(rec.Skills, "cleave", "bash")
	rec.Mods["str"] = 3

	r.Release("stat_record", rec)

	got := r.Acquire("stat_record").(*statRecord)
	require.Same(t, rec, got, "lifo free list returns the released instance")
	require.Zero(t, got.HP)
	require.Zero(t, got.MP)
	require.Zero(t, got.Attack)
	require.Empty(t, got.Skills)
	require.Empty(t, got.Mods)
}

func TestReleaseBeyondMaxIsDropped(t *testing.T) {
	cfg := testCfg()
	cfg.InitialSize = 2
	cfg.MaxSize = 3
	r := New(cfg, testLogger())
	r.RegisterType("stat_record",
		func() any { return &statRecord{Mods: make(map[string]int)} },
		resetStatRecord,
	)

	// Fill the free list to MaxSize with externally constructed objects.
	for i := 0; i < cfg.MaxSize; i++ {
		r.Release("stat_record", &statRecord{Mods: make(map[string]int)})
	}
	require.Equal(t, cfg.MaxSize, r.FreeCount("stat_record"))

	extra := &statRecord{Mods: make(map[string]int)}
	r.Release("stat_record", extra)
	require.Equal(t, cfg.MaxSize, r.FreeCount("stat_record"), "free list never exceeds max size")

	for i := 0; i < cfg.MaxSize; i++ {
		require.NotSame(t, extra, r.Acquire("stat_record"), "dropped object identity must not come back")
	}

	_, _, _, dropped, _, _ := r.Metrics()
	require.Equal(t, int64(1), dropped)
}

func TestUnregisteredTypeFailureSemantics(t *testing.T) {
	r := newTestRegistry(t)

	require.Nil(t, r.Acquire("nope"))
	_, _, _, _, unpooled, _ := r.Metrics()
	require.Equal(t, int64(1), unpooled)

	// Release of an unregistered type must be a silent no-op.
	r.Release("nope", &statRecord{})
	require.Equal(t, 0, r.FreeCount("nope"))
}

func TestUtilization(t *testing.T) {
	r := newTestRegistry(t)

	require.Equal(t, 1.0, r.Utilization("stat_record"), "nothing resident yet")

	r.Acquire("stat_record") // grows to 15, 14 free
	require.InDelta(t, (100.0-14.0)/100.0, r.Utilization("stat_record"), 1e-9)
	require.InDelta(t, r.Utilization("stat_record"), r.GlobalUtilization(), 1e-9)
}

func TestShrinkIdleTrimsTowardInitial(t *testing.T) {
	cfg := testCfg()
	cfg.ShrinkThreshold = 0.5
	r := New(cfg, testLogger())
	r.RegisterType("stat_record",
		func() any { return &statRecord{Mods: make(map[string]int)} },
		resetStatRecord,
	)

	// Burst: force two growths, then return everything.
	held := make([]any, 0, 16)
	for i := 0; i < 16; i++ {
		held = append(held, r.Acquire("stat_record"))
	}
	for _, obj := range held {
		r.Release("stat_record", obj)
	}
	require.Greater(t, r.FreeCount("stat_record"), cfg.InitialSize)
	require.Less(t, r.Utilization("stat_record"), cfg.ShrinkThreshold)

	trimmed := r.ShrinkIdle()
	require.Greater(t, trimmed, 0)
	require.Equal(t, cfg.InitialSize, r.FreeCount("stat_record"), "never trims below initial size")

	require.Zero(t, r.ShrinkIdle(), "already at floor")
}
