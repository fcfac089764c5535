package httpfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/flowgridgo/internal/proxy"
	"github.com/vk/flowgridgo/internal/registry"
)

func TestOnRunHTTPFetch_Direct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "token", r.Header.Get("X-Auth"))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"items": 3}`))
	}))
	defer srv.Close()

	out, err := OnRunHTTPFetch(context.Background(), &registry.Services{}, &Input{
		URL:     srv.URL,
		Headers: map[string]string{"X-Auth": "token"},
	})
	require.NoError(t, err)

	result := out.(map[string]any)
	assert.Equal(t, http.StatusOK, result["status_code"])
	assert.Equal(t, `{"items": 3}`, result["body"])
	assert.Empty(t, result["proxy"], "no pool configured, so no proxy used")
}

func TestOnRunHTTPFetch_RoutesThroughPool(t *testing.T) {
	var sawAbsoluteURL string
	proxySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// A forward proxy receives the full target URL in the request line.
		sawAbsoluteURL = r.RequestURI
		w.WriteHeader(http.StatusOK)
	}))
	defer proxySrv.Close()

	pool := proxy.New([]string{proxySrv.URL})
	svc := &registry.Services{Pool: pool}

	out, err := OnRunHTTPFetch(context.Background(), svc, &Input{
		URL: "http://upstream.test/data",
	})
	require.NoError(t, err)

	result := out.(map[string]any)
	assert.Equal(t, proxySrv.URL, result["proxy"])
	assert.Equal(t, "http://upstream.test/data", sawAbsoluteURL)
	assert.Equal(t, 1, pool.Stats().Rotations)
	assert.Equal(t, 0, pool.Snapshot()[0].FailCount, "completed exchange resets the counter")
}

func TestOnRunHTTPFetch_ReportsTransportFailure(t *testing.T) {
	// A proxy endpoint nothing listens on.
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	dead.Close()

	pool := proxy.New([]string{dead.URL}, proxy.WithMaxFailures(2))
	svc := &registry.Services{Pool: pool}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := OnRunHTTPFetch(ctx, svc, &Input{URL: "http://upstream.test/data"})
	require.Error(t, err)
	assert.Equal(t, 1, pool.Snapshot()[0].FailCount)
	assert.Equal(t, 1, pool.Stats().Failures)
}

func TestOnRunHTTPFetch_ExpectStatusMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := OnRunHTTPFetch(context.Background(), &registry.Services{}, &Input{
		URL:          srv.URL,
		ExpectStatus: http.StatusOK,
	})
	require.ErrorContains(t, err, "got status 502, expected 200")
}

func TestOnRunHTTPFetch_NoHealthyProxies(t *testing.T) {
	pool := proxy.New([]string{"http://p1:1"}, proxy.WithMaxFailures(1))
	pool.ReportFailure("http://p1:1")
	svc := &registry.Services{Pool: pool}

	_, err := OnRunHTTPFetch(context.Background(), svc, &Input{URL: "http://upstream.test/"})
	require.ErrorContains(t, err, "no healthy proxies")
}
