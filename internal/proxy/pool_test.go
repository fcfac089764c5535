package proxy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CollapsesDuplicates(t *testing.T) {
	p := New([]string{"http://a:1", "http://b:2", "http://a:1"})
	stats := p.Stats()
	assert.Equal(t, 2, stats.PoolSize)
	assert.Equal(t, 2, stats.Healthy)

	snap := p.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "http://a:1", snap[0].URL, "first occurrence keeps its position")
	assert.Equal(t, "http://b:2", snap[1].URL)
}

func TestNext_RoundRobinCycles(t *testing.T) {
	p := New([]string{"a", "b", "c"})
	var got []string
	for i := 0; i < 6; i++ {
		url, ok := p.Next(StrategyRoundRobin)
		require.True(t, ok)
		got = append(got, url)
	}
	assert.Equal(t, []string{"a", "b", "c", "a", "b", "c"}, got)
	assert.Equal(t, 6, p.Stats().Rotations)
}

func TestNext_RoundRobinCursorSharedAcrossStrategies(t *testing.T) {
	// The cursor does not reset when other strategies are interleaved; it
	// resumes from where round-robin last left it.
	p := New([]string{"a", "b", "c"}, withRand(func(n int) int { return 0 }))

	url, ok := p.Next(StrategyRoundRobin)
	require.True(t, ok)
	assert.Equal(t, "a", url)

	_, ok = p.Next(StrategyRandom)
	require.True(t, ok)

	url, ok = p.Next(StrategyRoundRobin)
	require.True(t, ok)
	assert.Equal(t, "b", url)
}

func TestNext_RandomOnlyHealthy(t *testing.T) {
	p := New([]string{"a", "b"}, WithMaxFailures(1))
	p.ReportFailure("a")

	for i := 0; i < 10; i++ {
		url, ok := p.Next(StrategyRandom)
		require.True(t, ok)
		assert.Equal(t, "b", url)
	}
}

func TestNext_LeastRecentlyUsed(t *testing.T) {
	clock := time.Unix(1000, 0)
	p := New([]string{"a", "b", "c"}, withClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}))

	// Never-used records tie at the zero time; original order breaks ties.
	url, _ := p.Next(StrategyLeastRecentlyUsed)
	assert.Equal(t, "a", url)
	url, _ = p.Next(StrategyLeastRecentlyUsed)
	assert.Equal(t, "b", url)
	url, _ = p.Next(StrategyLeastRecentlyUsed)
	assert.Equal(t, "c", url)
	// All used once; the oldest use is "a" again.
	url, _ = p.Next(StrategyLeastRecentlyUsed)
	assert.Equal(t, "a", url)
}

func TestNext_NoHealthyProxies(t *testing.T) {
	p := New([]string{"a"}, WithMaxFailures(1))
	p.ReportFailure("a")

	url, ok := p.Next(StrategyRoundRobin)
	assert.False(t, ok)
	assert.Empty(t, url)
	assert.Equal(t, 0, p.Stats().Rotations, "a miss is not a rotation")
}

func TestReportFailure_ThresholdAndRecovery(t *testing.T) {
	p := New([]string{"a", "b"}, WithMaxFailures(3))

	p.ReportFailure("a")
	p.ReportFailure("a")
	assert.Equal(t, 2, p.Stats().Healthy, "below threshold stays healthy")

	p.ReportFailure("a")
	assert.Equal(t, 1, p.Stats().Healthy)
	for i := 0; i < 5; i++ {
		url, ok := p.Next(StrategyRoundRobin)
		require.True(t, ok)
		assert.Equal(t, "b", url)
	}

	p.ReportSuccess("a")
	assert.Equal(t, 2, p.Stats().Healthy)
	snap := p.Snapshot()
	assert.Equal(t, 0, snap[0].FailCount, "success resets the counter")
	assert.True(t, snap[0].Healthy)
}

func TestReports_UnknownURLIsNoop(t *testing.T) {
	p := New([]string{"a"})
	p.ReportFailure("nope")
	p.ReportSuccess("nope")
	stats := p.Stats()
	assert.Equal(t, 0, stats.Failures)
	assert.Equal(t, 1, stats.Healthy)
}

func TestStats_CountsFailures(t *testing.T) {
	p := New([]string{"a", "b"}, WithMaxFailures(10))
	p.ReportFailure("a")
	p.ReportFailure("b")
	p.ReportFailure("a")
	assert.Equal(t, 3, p.Stats().Failures)
}

func TestHealthCheck_Counts(t *testing.T) {
	probe := func(ctx context.Context, proxyURL, checkURL string) (time.Duration, error) {
		switch proxyURL {
		case "bad1", "bad2":
			return 0, errors.New("unreachable")
		}
		return 5 * time.Millisecond, nil
	}
	p := New([]string{"ok1", "bad1", "ok2", "bad2", "ok3"},
		WithMaxFailures(1), WithProbe(probe))

	sum := p.HealthCheck(context.Background())
	assert.Equal(t, Summary{Healthy: 3, Unhealthy: 2}, sum)

	snap := p.Snapshot()
	assert.Equal(t, 5*time.Millisecond, snap[0].Latency)
	assert.False(t, snap[0].LastChecked.IsZero())
}

func TestHealthCheck_RevivesAndResetsFailCount(t *testing.T) {
	okProbe := func(ctx context.Context, proxyURL, checkURL string) (time.Duration, error) {
		return time.Millisecond, nil
	}
	p := New([]string{"a"}, WithMaxFailures(1), WithProbe(okProbe))
	p.ReportFailure("a")
	require.Equal(t, 0, p.Stats().Healthy)

	sum := p.HealthCheck(context.Background())
	assert.Equal(t, Summary{Healthy: 1}, sum)
	assert.Equal(t, 0, p.Snapshot()[0].FailCount)

	url, ok := p.Next(StrategyRoundRobin)
	require.True(t, ok)
	assert.Equal(t, "a", url)
}

func TestHealthCheck_FailedProbeCountsTowardThreshold(t *testing.T) {
	badProbe := func(ctx context.Context, proxyURL, checkURL string) (time.Duration, error) {
		return 0, errors.New("down")
	}
	p := New([]string{"a"}, WithMaxFailures(2), WithProbe(badProbe))

	sum := p.HealthCheck(context.Background())
	assert.Equal(t, Summary{Healthy: 1}, sum, "one failure is below the threshold")

	sum = p.HealthCheck(context.Background())
	assert.Equal(t, Summary{Unhealthy: 1}, sum)
}

func TestHealthCheck_ProbesRunConcurrently(t *testing.T) {
	const pause = 80 * time.Millisecond
	slowProbe := func(ctx context.Context, proxyURL, checkURL string) (time.Duration, error) {
		time.Sleep(pause)
		return pause, nil
	}
	p := New([]string{"a", "b", "c", "d"}, WithProbe(slowProbe))

	start := time.Now()
	p.HealthCheck(context.Background())
	elapsed := time.Since(start)
	assert.Less(t, elapsed, 3*pause,
		"wall time should track the slowest probe, not the sum")
}

func TestHealthCheck_HangingProbeIsBounded(t *testing.T) {
	hangingProbe := func(ctx context.Context, proxyURL, checkURL string) (time.Duration, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	p := New([]string{"a"}, WithMaxFailures(1),
		WithProbe(hangingProbe), WithProbeTimeout(30*time.Millisecond))

	start := time.Now()
	sum := p.HealthCheck(context.Background())
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, Summary{Unhealthy: 1}, sum)
}
