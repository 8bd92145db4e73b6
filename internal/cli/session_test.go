package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thruflo/taskboard/internal/config"
	"github.com/thruflo/taskboard/internal/logging"
	"github.com/thruflo/taskboard/internal/state"
	"github.com/thruflo/taskboard/internal/testutil"
)

func writeConfig(t *testing.T, dir, yaml string) {
	t.Helper()
	testutil.WriteTestFile(t, dir, filepath.Join(config.DirName, "config.yaml"), []byte(yaml))
}

func TestResolveConfig_ConfigFile(t *testing.T) {
	setupBoardDir(t)
	dir := testutil.SetupTestDir(t)

	cfg, err := resolveConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, config.DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, 600, cfg.Server.RateLimit)
	assert.Zero(t, cfg.UI.DeleteDelay)
}

func TestResolveConfig_Flags(t *testing.T) {
	dir := setupBoardDir(t)

	cfg, err := resolveConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, config.DriverFile, cfg.Storage.Driver)

	flagStorage = config.DriverMemory
	flagLogLevel = "debug"
	cfg, err = resolveConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, config.DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)

	flagStorage = "bogus"
	_, err = resolveConfig(dir)
	assert.True(t, config.IsValidationError(err))

	flagStorage = ""
	flagLogLevel = "loud"
	_, err = resolveConfig(dir)
	assert.True(t, config.IsValidationError(err))
}

func TestResolveConfig_EphemeralWins(t *testing.T) {
	dir := setupBoardDir(t)
	writeConfig(t, dir, "storage:\n  driver: redis\n  redis_url: redis://127.0.0.1:1\n")

	flagEphemeral = true
	cfg, err := resolveConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, config.DriverMemory, cfg.Storage.Driver)
}

func TestBoardDir(t *testing.T) {
	setupBoardDir(t)

	flagDir = "relative"
	dir, err := boardDir()
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(dir))

	flagDir = ""
	dir, err = boardDir()
	require.NoError(t, err)
	cwd, _ := os.Getwd()
	assert.Equal(t, cwd, dir)
}

func TestRedisStorage(t *testing.T) {
	setupBoardDir(t)
	mr := miniredis.RunT(t)

	t.Setenv(config.EnvRedisURL, "redis://"+mr.Addr())
	flagStorage = config.DriverRedis

	assert.Contains(t, run(t, runAdd, "Write tests"), "task-5")
	assert.Contains(t, list(t), "task-5  Write tests", "read back from redis")

	raw, err := mr.Get(config.DefaultRedisPrefix + state.KeyTasks)
	require.NoError(t, err)
	assert.Contains(t, raw, "Write tests")
}

func TestRedisUnreachableRunsInMemory(t *testing.T) {
	setupBoardDir(t)
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	t.Setenv(config.EnvRedisURL, "redis://"+addr)
	flagStorage = config.DriverRedis

	cmd, out := newTestCmd("")
	require.NoError(t, runAdd(cmd, []string{"Write tests"}))
	assert.Contains(t, out.String(), "Added task-5")
	assert.Contains(t, out.String(), "warning: storage unavailable")
	assert.Contains(t, stderr(cmd), "redis unreachable")
}

func TestUnsavedChangeWarns(t *testing.T) {
	setupBoardDir(t)

	backend := state.NewMemoryBackend()
	old := newBackend
	newBackend = func(context.Context, *config.Config, string, *logging.Logger) (state.Backend, error) {
		return backend, nil
	}
	t.Cleanup(func() { newBackend = old })

	assert.NotContains(t, run(t, runAdd, "saved"), "warning")

	backend.SetFailWrites(errors.New("disk full"))
	assert.Contains(t, run(t, runAdd, "lost"), "warning: storage unavailable, the change was not saved")
}

func TestBackendError(t *testing.T) {
	setupBoardDir(t)

	old := newBackend
	newBackend = func(context.Context, *config.Config, string, *logging.Logger) (state.Backend, error) {
		return nil, errors.New("no such driver")
	}
	t.Cleanup(func() { newBackend = old })

	cmd, _ := newTestCmd("")
	err := runList(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open file storage")
}

func TestLogFile(t *testing.T) {
	dir := setupBoardDir(t)
	writeConfig(t, dir, "log:\n  level: debug\n  file: logs/board.log\n")

	cmd, _ := newTestCmd("")
	require.NoError(t, runList(cmd, nil))

	data, err := os.ReadFile(filepath.Join(dir, "logs", "board.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "board opened")
	assert.Empty(t, stderr(cmd), "logs go to the file only")
}

func TestNewBackend(t *testing.T) {
	setupBoardDir(t)
	log := logging.New()

	tests := []struct {
		name   string
		driver string
		check  func(t *testing.T, b state.Backend)
	}{
		{"file", config.DriverFile, func(t *testing.T, b state.Backend) {
			fb, ok := b.(*state.FileBackend)
			require.True(t, ok)
			assert.True(t, strings.HasSuffix(fb.Dir(), config.DirName))
		}},
		{"memory", config.DriverMemory, func(t *testing.T, b state.Backend) {
			assert.IsType(t, &state.MemoryBackend{}, b)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Storage.Driver = tt.driver
			b, err := newBackend(context.Background(), &cfg, t.TempDir(), log)
			require.NoError(t, err)
			tt.check(t, b)
		})
	}
}
