package proxy

import (
	"context"
	"sync"

	"github.com/vk/flowgridgo/internal/ctxlog"
)

// Summary aggregates the outcome of one health sweep.
type Summary struct {
	Healthy   int `json:"healthy"`
	Unhealthy int `json:"unhealthy"`
}

// HealthCheck probes every endpoint concurrently, healthy and unhealthy
// alike, through the pool's ProbeFunc. A successful probe resets the failure
// count, marks the endpoint healthy and records its latency; a failed probe
// counts against the same threshold as ReportFailure. The call returns only
// after every probe has settled; each probe carries its own timeout, so one
// hanging endpoint cannot stall the sweep.
func (p *Pool) HealthCheck(ctx context.Context) Summary {
	logger := ctxlog.FromContext(ctx)

	p.mu.Lock()
	targets := make([]*record, len(p.records))
	copy(targets, p.records)
	p.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(len(targets))
	for _, r := range targets {
		go func(r *record) {
			defer wg.Done()
			p.probeOne(ctx, r)
		}(r)
	}
	wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	summary := Summary{}
	for _, r := range p.records {
		if r.healthy {
			summary.Healthy++
		} else {
			summary.Unhealthy++
		}
	}
	logger.Info("Health check finished.",
		"healthy", summary.Healthy, "unhealthy", summary.Unhealthy)
	return summary
}

// probeOne runs a single bounded probe and folds its outcome into the
// record.
func (p *Pool) probeOne(ctx context.Context, r *record) {
	probeCtx, cancel := context.WithTimeout(ctx, p.probeTimeout)
	defer cancel()

	latency, err := p.probe(probeCtx, r.url, p.checkURL)

	p.mu.Lock()
	defer p.mu.Unlock()
	r.lastChecked = p.now()
	if err != nil {
		ctxlog.FromContext(ctx).Debug("Health probe failed.", "proxy", r.url, "error", err)
		r.failCount++
		if r.failCount >= p.maxFailures {
			r.healthy = false
		}
		return
	}
	r.failCount = 0
	r.healthy = true
	r.latency = latency
}
