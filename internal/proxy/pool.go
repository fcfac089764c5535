package proxy

import (
	"log/slog"
	"math/rand"
	"sync"
	"time"
)

// record is the mutable health state of a single endpoint. It lives for the
// lifetime of the pool and is only ever mutated under the pool lock.
type record struct {
	url         string
	healthy     bool
	latency     time.Duration
	failCount   int
	lastUsed    time.Time
	lastChecked time.Time
}

// RecordInfo is a read-only snapshot of one endpoint's state.
type RecordInfo struct {
	URL         string        `json:"url"`
	Healthy     bool          `json:"healthy"`
	Latency     time.Duration `json:"latency"`
	FailCount   int           `json:"fail_count"`
	LastUsed    time.Time     `json:"last_used"`
	LastChecked time.Time     `json:"last_checked"`
}

// Stats is a read-only snapshot of pool counters.
type Stats struct {
	Rotations int `json:"rotations"`
	Failures  int `json:"failures"`
	PoolSize  int `json:"pool_size"`
	Healthy   int `json:"healthy"`
}

// Pool manages a fixed set of proxy endpoints. Records are created at
// construction and never destroyed; health state changes through
// ReportSuccess, ReportFailure and HealthCheck.
type Pool struct {
	mu      sync.Mutex
	records []*record
	// cursor for round-robin selection. Shared across strategies: calls that
	// use another strategy do not advance it, but round-robin resumes from
	// wherever it last was regardless of what happened in between.
	cursor int

	rotations int
	failures  int

	checkURL     string
	maxFailures  int
	probeTimeout time.Duration
	probe        ProbeFunc
	logger       *slog.Logger
	now          func() time.Time
	randIntn     func(n int) int
}

// Option configures a Pool.
type Option func(*Pool)

// WithCheckURL sets the URL health probes are issued against.
func WithCheckURL(u string) Option {
	return func(p *Pool) { p.checkURL = u }
}

// WithMaxFailures sets how many consecutive failures mark an endpoint
// unhealthy.
func WithMaxFailures(n int) Option {
	return func(p *Pool) { p.maxFailures = n }
}

// WithProbeTimeout bounds each individual health probe.
func WithProbeTimeout(d time.Duration) Option {
	return func(p *Pool) { p.probeTimeout = d }
}

// WithProbe injects the probe implementation used by HealthCheck.
func WithProbe(f ProbeFunc) Option {
	return func(p *Pool) { p.probe = f }
}

// WithLogger injects the pool's logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pool) { p.logger = l }
}

// withClock and withRand exist for deterministic tests.
func withClock(now func() time.Time) Option {
	return func(p *Pool) { p.now = now }
}

func withRand(intn func(n int) int) Option {
	return func(p *Pool) { p.randIntn = intn }
}

// New builds a pool from endpoint URLs. Every endpoint starts healthy.
// Duplicate URLs collapse into a single record; the first occurrence keeps
// its position in the rotation order.
func New(endpoints []string, opts ...Option) *Pool {
	p := &Pool{
		checkURL:     "https://httpbin.org/ip",
		maxFailures:  3,
		probeTimeout: 10 * time.Second,
		probe:        HTTPProbe(nil),
		logger:       slog.Default(),
		now:          time.Now,
		randIntn:     rand.Intn,
	}
	for _, opt := range opts {
		opt(p)
	}

	seen := make(map[string]bool, len(endpoints))
	for _, url := range endpoints {
		if seen[url] {
			continue
		}
		seen[url] = true
		p.records = append(p.records, &record{url: url, healthy: true})
	}
	return p
}

// Next selects the next proxy URL among currently-healthy endpoints using
// the given strategy, marks it used, and counts the rotation. It returns
// ok=false when no healthy endpoint exists; that is a valid outcome, not an
// error.
func (p *Pool) Next(strategy Strategy) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var healthy []*record
	for _, r := range p.records {
		if r.healthy {
			healthy = append(healthy, r)
		}
	}
	if len(healthy) == 0 {
		p.logger.Warn("No healthy proxies available.")
		return "", false
	}

	var chosen *record
	switch strategy {
	case StrategyRandom:
		chosen = healthy[p.randIntn(len(healthy))]
	case StrategyLeastRecentlyUsed:
		chosen = healthy[0]
		for _, r := range healthy[1:] {
			if r.lastUsed.Before(chosen.lastUsed) {
				chosen = r
			}
		}
	default: // StrategyRoundRobin
		p.cursor = p.cursor % len(healthy)
		chosen = healthy[p.cursor]
		p.cursor++
	}

	chosen.lastUsed = p.now()
	p.rotations++
	p.logger.Debug("Proxy selected.", "proxy", chosen.url, "strategy", string(strategy))
	return chosen.url, true
}

// ReportFailure records a failed use of the endpoint. Crossing the failure
// threshold marks it unhealthy. Unknown URLs are ignored.
func (p *Pool) ReportFailure(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	r := p.lookup(url)
	if r == nil {
		return
	}
	r.failCount++
	p.failures++
	if r.failCount >= p.maxFailures {
		r.healthy = false
		p.logger.Warn("Proxy marked unhealthy.", "proxy", url, "fail_count", r.failCount)
	}
}

// ReportSuccess records a successful use of the endpoint, resetting its
// failure count and making it eligible for rotation again. Unknown URLs are
// ignored.
func (p *Pool) ReportSuccess(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	r := p.lookup(url)
	if r == nil {
		return
	}
	r.failCount = 0
	r.healthy = true
}

// lookup returns the first record matching url. Callers hold the lock.
func (p *Pool) lookup(url string) *record {
	for _, r := range p.records {
		if r.url == url {
			return r
		}
	}
	return nil
}

// Stats returns current pool counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	healthy := 0
	for _, r := range p.records {
		if r.healthy {
			healthy++
		}
	}
	return Stats{
		Rotations: p.rotations,
		Failures:  p.failures,
		PoolSize:  len(p.records),
		Healthy:   healthy,
	}
}

// Snapshot returns a copy of every record's current state, in rotation
// order.
func (p *Pool) Snapshot() []RecordInfo {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]RecordInfo, 0, len(p.records))
	for _, r := range p.records {
		out = append(out, RecordInfo{
			URL:         r.url,
			Healthy:     r.healthy,
			Latency:     r.latency,
			FailCount:   r.failCount,
			LastUsed:    r.lastUsed,
			LastChecked: r.lastChecked,
		})
	}
	return out
}
