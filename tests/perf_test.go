package tests

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	forgeperf "github.com/emberfall/go-forge-perf"
	"github.com/emberfall/go-forge-perf/tests/help"
	"github.com/stretchr/testify/require"
)

func TestSetThenGetWithHitRate(t *testing.T) {
	p, err := forgeperf.New(context.Background(), help.NoMonitorCfg(), help.Logger())
	require.NoError(t, err)
	defer func() { require.NoError(t, p.Close()) }()

	p.Set("stats", "char1-warrior-1", map[string]int{"hp": 10})

	got, ok := p.Get("stats", "char1-warrior-1")
	require.True(t, ok)
	require.Equal(t, map[string]int{"hp": 10}, got)
	require.Greater(t, p.Metrics().CacheHitRate, 0.0)
}

func TestGetOrComputeCollapsesConcurrentCallers(t *testing.T) {
	p, err := forgeperf.New(context.Background(), help.NoMonitorCfg(), help.Logger())
	require.NoError(t, err)
	defer p.Close()

	var invokes atomic.Int64
	started := make(chan struct{})
	block := make(chan struct{})
	compute := func() (any, error) {
		if invokes.Add(1) == 1 {
			close(started)
		}
		<-block
		return "derived", nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		got, err := p.GetOrCompute("skills", "char1-mage-3", compute)
		require.NoError(t, err)
		require.Equal(t, "derived", got)
	}()

	// Followers arrive while the first compute is in flight; they must
	// join it instead of computing again.
	<-started
	for i := 0; i < 7; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := p.GetOrCompute("skills", "char1-mage-3", compute)
			require.NoError(t, err)
			require.Equal(t, "derived", got)
		}()
	}
	time.Sleep(20 * time.Millisecond) // let the followers park on the flight
	close(block)
	wg.Wait()

	require.Equal(t, int64(1), invokes.Load(),
		"concurrent computes for one key collapse into a single flight")

	got, err := p.GetOrCompute("skills", "char1-mage-3", compute)
	require.NoError(t, err)
	require.Equal(t, "derived", got)
}

func TestTwentyUpdatesFourBatches(t *testing.T) {
	var executed atomic.Int64
	p, err := forgeperf.New(context.Background(), help.SchedulerCfg(5), help.Logger(),
		forgeperf.WithDispatcher(func(target string, kind forgeperf.Kind, payload any) error {
			executed.Add(1)
			return nil
		}),
		forgeperf.WithClock(clock.NewMock()),
	)
	require.NoError(t, err)
	defer p.Close()

	for i := 0; i < 20; i++ {
		p.RequestUpdate(fmt.Sprintf("unit_%d", i), forgeperf.KindStats, forgeperf.PriorityNormal, nil, nil)
	}

	res := p.Tick()
	require.Equal(t, 20, res.Executed)
	require.Equal(t, 4, res.Batches)
	require.Equal(t, int64(20), executed.Load())
}

func TestPoolGrowthScenario(t *testing.T) {
	p, err := forgeperf.New(context.Background(), help.NoMonitorCfg(), help.Logger())
	require.NoError(t, err)
	defer p.Close()

	type changeResult struct {
		OldRank int
		NewRank int
		Skills  []string
	}
	p.RegisterPoolType("change_result",
		func() any { return &changeResult{} },
		func(obj any) {
			r := obj.(*changeResult)
			r.OldRank, r.NewRank = 0, 0
			r.Skills = r.Skills[:0]
		},
	)

	obj := p.Acquire("change_result")
	require.NotNil(t, obj)
	// initial_size=10 and growth_factor=1.5: 15 built, one checked out.
	require.InDelta(t, (100.0-14.0)/100.0, p.Metrics().PoolUtilization, 1e-9)

	r := obj.(*changeResult)
	r.NewRank = 3
	r.Skills = append(r.Skills, "flame_slash")
	p.Release("change_result", r)

	reused := p.Acquire("change_result").(*changeResult)
	require.Same(t, r, reused)
	require.Zero(t, reused.NewRank)
	require.Empty(t, reused.Skills)
}

func TestBatchUpdateChainsInOrder(t *testing.T) {
	var order []forgeperf.Kind
	p, err := forgeperf.New(context.Background(), help.NoMonitorCfg(), help.Logger(),
		forgeperf.WithDispatcher(func(target string, kind forgeperf.Kind, payload any) error {
			order = append(order, kind)
			return nil
		}),
		forgeperf.WithClock(clock.NewMock()),
	)
	require.NoError(t, err)
	defer p.Close()

	ids := p.BatchUpdate("char1", []forgeperf.UpdateSpec{
		{Kind: forgeperf.KindStats, Priority: forgeperf.PriorityNormal},
		{Kind: forgeperf.KindSkills, Priority: forgeperf.PriorityNormal},
		{Kind: forgeperf.KindAppearance, Priority: forgeperf.PriorityNormal},
	})
	require.Len(t, ids, 3)

	p.Tick()
	require.Equal(t,
		[]forgeperf.Kind{forgeperf.KindStats, forgeperf.KindSkills, forgeperf.KindAppearance},
		order)
}

func TestForceCleanupAndReport(t *testing.T) {
	p, err := forgeperf.New(context.Background(), help.Cfg(), help.Logger())
	require.NoError(t, err)
	defer p.Close()

	p.Set("stats", "k", 1)
	p.Track("boss_panel", "ui_panel", 512)

	evicted, trimmed := p.ForceCleanup()
	require.GreaterOrEqual(t, evicted, 0)
	require.GreaterOrEqual(t, trimmed, 0)

	report := p.GenerateReport()
	require.Contains(t, report, "cache:")
	require.Contains(t, report, "scheduler:")
	require.Contains(t, report, "tracked refs:    1")
}

func TestCloseIsIdempotent(t *testing.T) {
	p, err := forgeperf.New(context.Background(), help.Cfg(), help.Logger())
	require.NoError(t, err)

	p.Set("stats", "k", 1)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	// The engine stays callable after dispose; everything reads empty.
	_, ok := p.Get("stats", "k")
	require.False(t, ok)
}

func TestInvalidConfigRejectedAtConstruction(t *testing.T) {
	cfg := help.Cfg()
	cfg.Cache.MaxSize = 0
	_, err := forgeperf.New(context.Background(), cfg, help.Logger())
	require.Error(t, err)

	cfg = help.Cfg()
	cfg.Monitor.WarningThreshold = 1.7
	_, err = forgeperf.New(context.Background(), cfg, help.Logger())
	require.Error(t, err)
}
