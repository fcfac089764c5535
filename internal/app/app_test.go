package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/flowgridgo/internal/hcl"
	"github.com/vk/flowgridgo/internal/registry"
)

// recorderModule registers a "record" action that appends its invocations,
// and an "explode" action that always fails.
type recorderModule struct {
	calls []string
}

type recordInput struct {
	Tag string `flow:"tag"`
}

func (m *recorderModule) Register(r *registry.Registry) {
	r.RegisterAction("record", &registry.RegisteredAction{
		NewInput: func() any { return new(recordInput) },
		Fn: func(ctx context.Context, svc *registry.Services, in *recordInput) (any, error) {
			m.calls = append(m.calls, in.Tag)
			return map[string]any{"tag": in.Tag}, nil
		},
	})
	r.RegisterAction("explode", &registry.RegisteredAction{
		Fn: func(ctx context.Context, svc *registry.Services) (any, error) {
			return nil, errors.New("kaboom")
		},
	})
}

func TestApp_RunsWorkflowInDependencyOrder(t *testing.T) {
	mod := &recorderModule{}
	testApp, out := SetupAppTest(t, `
workflow "ordered" {
  task "record" "second" {
    depends_on = ["first"]
    arguments {
      tag = "${task.first.tag}-then-b"
    }
  }
  task "record" "first" {
    arguments {
      tag = "a"
    }
  }
}
`, mod)

	err := testApp.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "a-then-b"}, mod.calls,
		"dependency runs first and its result feeds the dependent's arguments")
	assert.Contains(t, out.String(), "Execution finished")
	assert.Contains(t, out.String(), "2 completed")
}

func TestApp_FailedTaskMakesRunFail(t *testing.T) {
	mod := &recorderModule{}
	testApp, out := SetupAppTest(t, `
workflow "doomed" {
  task "explode" "bomb" {}
  task "record" "after" {
    depends_on = ["bomb"]
    arguments {
      tag = "never"
    }
  }
}
`, mod)

	err := testApp.Run(context.Background())
	require.ErrorContains(t, err, "1 failed task(s)")
	assert.Empty(t, mod.calls, "dependent of a failed task must not run")
	assert.Contains(t, out.String(), "kaboom")
}

func TestNewApp_RejectsUnknownActionType(t *testing.T) {
	gridPath := filepath.Join(t.TempDir(), "grid.hcl")
	require.NoError(t, os.WriteFile(gridPath, []byte(`
workflow "w" {
  task "teleport" "nope" {}
}
`), 0o644))

	cfg, err := NewConfig(Config{GridPath: gridPath})
	require.NoError(t, err)

	_, err = NewApp(&SafeBuffer{}, cfg, hcl.NewLoader(), &recorderModule{})
	require.ErrorContains(t, err, "unknown action type 'teleport'")
}

func TestNewConfig_RequiresGridPath(t *testing.T) {
	_, err := NewConfig(Config{})
	require.ErrorContains(t, err, "GridPath is a required")
}

func TestNewApp_BuildsPoolFromGrid(t *testing.T) {
	testApp, _ := SetupAppTest(t, `
workflow "w" {
  task "record" "a" {
    arguments {
      tag = "x"
    }
  }
}

proxy_pool {
  endpoints    = ["http://p1:8080", "http://p2:8080"]
  max_failures = 7
  strategy     = "least_recently_used"
}
`, &recorderModule{})

	svc := testApp.Services()
	require.NotNil(t, svc.Pool)
	assert.Equal(t, 2, svc.Pool.Stats().PoolSize)
	assert.Equal(t, "least_recently_used", string(svc.Strategy))
}
