package hcl

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	hcllib "github.com/hashicorp/hcl/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

// writeGrid drops an .hcl file into a temp dir and returns its path.
func writeGrid(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoader_ParsesWorkflowAndPool(t *testing.T) {
	path := writeGrid(t, "grid.hcl", `
workflow "nightly_scrape" {
  workers               = 4
  honor_skip_on_failure = true

  task "http_fetch" "listing" {
    retry_count = 2
    timeout     = "30s"
    arguments {
      url = "https://example.com/items"
    }
  }

  task "print" "report" {
    depends_on      = ["listing"]
    skip_on_failure = true
    arguments {
      value = task.listing.status_code
    }
  }
}

proxy_pool {
  endpoints      = ["http://p1:8080", "http://p2:8080"]
  check_url      = "https://example.com/ping"
  check_interval = "2m"
  max_failures   = 5
  probe_timeout  = "3s"
  strategy       = "random"
}
`)

	model, conv, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, conv)

	wf := model.Workflow
	require.NotNil(t, wf)
	assert.Equal(t, "nightly_scrape", wf.Name)
	assert.Equal(t, 4, wf.Workers)
	assert.True(t, wf.HonorSkipOnFailure)
	require.Len(t, wf.Tasks, 2)

	listing := wf.Tasks[0]
	assert.Equal(t, "http_fetch", listing.ActionType)
	assert.Equal(t, "listing", listing.Name)
	assert.Equal(t, 2, listing.RetryCount)
	assert.Equal(t, 30*time.Second, listing.Timeout)
	assert.Contains(t, listing.Arguments, "url")

	report := wf.Tasks[1]
	assert.Equal(t, []string{"listing"}, report.DependsOn)
	assert.True(t, report.SkipOnFailure)

	pool := model.ProxyPool
	require.NotNil(t, pool)
	assert.Equal(t, []string{"http://p1:8080", "http://p2:8080"}, pool.Endpoints)
	assert.Equal(t, "https://example.com/ping", pool.CheckURL)
	assert.Equal(t, 2*time.Minute, pool.CheckInterval)
	assert.Equal(t, 5, pool.MaxFailures)
	assert.Equal(t, 3*time.Second, pool.ProbeTimeout)
	assert.Equal(t, "random", pool.Strategy)
}

func TestLoader_DefaultsStayZero(t *testing.T) {
	path := writeGrid(t, "grid.hcl", `
workflow "minimal" {
  task "print" "only" {}
}
`)
	model, _, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)

	wf := model.Workflow
	assert.Equal(t, 0, wf.Workers)
	assert.False(t, wf.HonorSkipOnFailure)
	require.Len(t, wf.Tasks, 1)
	assert.Zero(t, wf.Tasks[0].Timeout)
	assert.Zero(t, wf.Tasks[0].RetryCount)
	assert.Nil(t, model.ProxyPool)
}

func TestLoader_MergesFilesFromDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "workflow.hcl"), []byte(`
workflow "split" {
  task "print" "hello" {}
}
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "proxies.hcl"), []byte(`
proxy_pool {
  endpoints = ["http://p1:8080"]
}
`), 0o644))

	model, _, err := NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "split", model.Workflow.Name)
	require.NotNil(t, model.ProxyPool)
}

func TestLoader_RequiresExactlyOneWorkflow(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		path := writeGrid(t, "grid.hcl", `
proxy_pool {
  endpoints = ["http://p1:8080"]
}
`)
		_, _, err := NewLoader().Load(context.Background(), path)
		require.ErrorContains(t, err, "no workflow block")
	})

	t.Run("two", func(t *testing.T) {
		path := writeGrid(t, "grid.hcl", `
workflow "a" {}
workflow "b" {}
`)
		_, _, err := NewLoader().Load(context.Background(), path)
		require.ErrorContains(t, err, "expected exactly one")
	})
}

func TestLoader_RejectsBadValues(t *testing.T) {
	cases := []struct {
		name    string
		grid    string
		wantErr string
	}{
		{
			name: "bad timeout",
			grid: `
workflow "w" {
  task "print" "a" {
    timeout = "not-a-duration"
  }
}
`,
			wantErr: "invalid timeout",
		},
		{
			name: "negative retry",
			grid: `
workflow "w" {
  task "print" "a" {
    retry_count = -1
  }
}
`,
			wantErr: "retry_count",
		},
		{
			name: "unknown strategy",
			grid: `
workflow "w" {}
proxy_pool {
  endpoints = ["http://p1:8080"]
  strategy  = "fastest"
}
`,
			wantErr: "strategy",
		},
		{
			name: "empty endpoints",
			grid: `
workflow "w" {}
proxy_pool {
  endpoints = []
}
`,
			wantErr: "endpoints",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeGrid(t, "grid.hcl", tc.grid)
			_, _, err := NewLoader().Load(context.Background(), path)
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestConverter_DecodeArguments(t *testing.T) {
	type input struct {
		URL    string `flow:"url"`
		Method string `flow:"method,optional"`
	}

	path := writeGrid(t, "grid.hcl", `
workflow "w" {
  task "http_fetch" "a" {
    arguments {
      url = "https://${host}/items"
    }
  }
}
`)
	model, conv, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)

	t.Run("evaluates against variables", func(t *testing.T) {
		in := &input{}
		err := conv.DecodeArguments(context.Background(), in,
			model.Workflow.Tasks[0].Arguments, hostEvalContext("example.com"))
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/items", in.URL)
		assert.Empty(t, in.Method, "optional argument stays zero when omitted")
	})

	t.Run("missing required argument", func(t *testing.T) {
		type strict struct {
			Token string `flow:"token"`
		}
		err := conv.DecodeArguments(context.Background(), &strict{},
			model.Workflow.Tasks[0].Arguments, hostEvalContext("example.com"))
		require.ErrorContains(t, err, `missing required argument "token"`)
	})
}

// hostEvalContext exposes a single string variable named host.
func hostEvalContext(host string) *hcllib.EvalContext {
	return &hcllib.EvalContext{
		Variables: map[string]cty.Value{
			"host": cty.StringVal(host),
		},
	}
}

func TestConverter_ToCtyValue(t *testing.T) {
	conv := NewConverter()

	val, err := conv.ToCtyValue(map[string]any{
		"status_code": 200,
		"body":        "ok",
		"tags":        []any{"a", "b"},
		"nested":      map[string]any{"healthy": true},
	})
	require.NoError(t, err)

	assert.Equal(t, "ok", val.GetAttr("body").AsString())
	assert.True(t, val.GetAttr("nested").GetAttr("healthy").True())
	assert.Equal(t, 2, val.GetAttr("tags").LengthInt())

	nilVal, err := conv.ToCtyValue(nil)
	require.NoError(t, err)
	assert.True(t, nilVal.IsNull())
}
