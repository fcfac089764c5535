package proxy

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ProbeFunc verifies that a single proxy endpoint can reach checkURL. It
// returns the observed latency on success. The context carries the per-probe
// deadline; implementations must respect it.
type ProbeFunc func(ctx context.Context, proxyURL, checkURL string) (time.Duration, error)

// HTTPProbe returns a ProbeFunc that issues a GET to checkURL through the
// proxy and requires a 200 response. A nil transport uses a fresh transport
// per probe, so connections through a dead proxy are not pooled.
func HTTPProbe(base *http.Transport) ProbeFunc {
	return func(ctx context.Context, proxyURL, checkURL string) (time.Duration, error) {
		parsed, err := url.Parse(proxyURL)
		if err != nil {
			return 0, fmt.Errorf("invalid proxy url %q: %w", proxyURL, err)
		}

		var transport *http.Transport
		if base != nil {
			transport = base.Clone()
		} else {
			transport = &http.Transport{}
		}
		transport.Proxy = http.ProxyURL(parsed)
		defer transport.CloseIdleConnections()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, checkURL, nil)
		if err != nil {
			return 0, fmt.Errorf("failed to create probe request: %w", err)
		}

		client := &http.Client{Transport: transport}
		start := time.Now()
		resp, err := client.Do(req)
		if err != nil {
			return 0, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return 0, fmt.Errorf("probe got status %d from %s", resp.StatusCode, checkURL)
		}
		return time.Since(start), nil
	}
}
