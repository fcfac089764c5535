package httpfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/proxy"
	"github.com/vk/flowgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the http_fetch action.
type Input struct {
	URL          string            `flow:"url"`
	Method       string            `flow:"method,optional"`
	Body         string            `flow:"body,optional"`
	Headers      map[string]string `flow:"headers,optional"`
	ExpectStatus int               `flow:"expect_status,optional"`

	// Direct bypasses the proxy pool even when one is configured.
	Direct bool `flow:"direct,optional"`

	// Strategy overrides the pool's rotation strategy for this task.
	Strategy string `flow:"strategy,optional"`
}

// maxBodyBytes caps how much of a response is pulled into the task result.
const maxBodyBytes = 1 << 20

// OnRunHTTPFetch issues a single HTTP request, optionally routed through the
// proxy pool. A transport-level failure through a proxy is reported to the
// pool; a completed exchange resets that proxy's failure count.
func OnRunHTTPFetch(ctx context.Context, svc *registry.Services, input *Input) (any, error) {
	logger := ctxlog.FromContext(ctx).With("action", "http_fetch", "url", input.URL)

	method := input.Method
	if method == "" {
		method = http.MethodGet
	}

	proxyURL, client, err := pickClient(svc, input)
	if err != nil {
		return nil, err
	}
	if proxyURL != "" {
		logger = logger.With("proxy", proxyURL)
	}

	var body io.Reader
	if input.Body != "" {
		body = strings.NewReader(input.Body)
	}
	req, err := http.NewRequestWithContext(ctx, method, input.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for k, v := range input.Headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		if proxyURL != "" {
			svc.Pool.ReportFailure(proxyURL)
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if proxyURL != "" {
		svc.Pool.ReportSuccess(proxyURL)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	latency := time.Since(start)
	logger.Debug("Request finished.", "status", resp.StatusCode, "latency", latency)

	if input.ExpectStatus != 0 && resp.StatusCode != input.ExpectStatus {
		return nil, fmt.Errorf("got status %d, expected %d", resp.StatusCode, input.ExpectStatus)
	}

	return map[string]any{
		"status_code": resp.StatusCode,
		"body":        string(data),
		"latency_ms":  latency.Milliseconds(),
		"proxy":       proxyURL,
	}, nil
}

// pickClient resolves which http.Client carries the request. When the pool
// is in play it returns the rotated proxy URL alongside a client whose
// transport routes through it.
func pickClient(svc *registry.Services, input *Input) (string, *http.Client, error) {
	direct := svc.Client
	if direct == nil {
		direct = http.DefaultClient
	}
	if svc.Pool == nil || input.Direct {
		return "", direct, nil
	}

	strategy := svc.Strategy
	if input.Strategy != "" {
		parsed, err := proxy.ParseStrategy(input.Strategy)
		if err != nil {
			return "", nil, err
		}
		strategy = parsed
	}
	proxyURL, ok := svc.Pool.Next(strategy)
	if !ok {
		return "", nil, fmt.Errorf("no healthy proxies available")
	}
	parsed, err := url.Parse(proxyURL)
	if err != nil {
		return "", nil, fmt.Errorf("invalid proxy url %q: %w", proxyURL, err)
	}

	client := &http.Client{
		Transport: &http.Transport{Proxy: http.ProxyURL(parsed)},
		Timeout:   direct.Timeout,
	}
	return proxyURL, client, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("http_fetch", &registry.RegisteredAction{
		NewInput: func() any { return new(Input) },
		Fn:       OnRunHTTPFetch,
	})
}
