package app

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/flowgridgo/internal/hcl"
	"github.com/vk/flowgridgo/internal/registry"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// SetupAppTest writes the grid to a temp file and builds an App around it.
func SetupAppTest(t *testing.T, grid string, modules ...registry.Module) (*App, *SafeBuffer) {
	t.Helper()

	gridPath := filepath.Join(t.TempDir(), "grid.hcl")
	require.NoError(t, os.WriteFile(gridPath, []byte(grid), 0o644))

	cfg, err := NewConfig(Config{GridPath: gridPath, LogLevel: "debug"})
	require.NoError(t, err)

	logBuffer := &SafeBuffer{}
	testApp, err := NewApp(logBuffer, cfg, hcl.NewLoader(), modules...)
	require.NoError(t, err)

	t.Cleanup(func() {
		if os.Getenv("FLOWGRID_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, logBuffer
}
