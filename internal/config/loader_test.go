package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	dir := filepath.Join(tmpDir, DirName)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))
	return tmpDir
}

func TestLoadConfig_Default(t *testing.T) {
	t.Parallel()

	// Create temp directory without config file
	tmpDir := t.TempDir()

	cfg, err := LoadConfig(tmpDir)
	require.NoError(t, err)

	// Should return default values
	assert.Equal(t, DriverFile, cfg.Storage.Driver)
	assert.Equal(t, DefaultRedisPrefix, cfg.Storage.RedisPrefix)
	assert.Equal(t, DefaultServerHost, cfg.Server.Host)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, DefaultRateLimit, cfg.Server.RateLimit)
	assert.Equal(t, DefaultDeleteDelay, cfg.UI.DeleteDelay)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
}

func TestLoadConfig_ValidFile(t *testing.T) {
	t.Parallel()

	tmpDir := writeConfig(t, `storage:
  driver: redis
  redis_url: redis://localhost:6379/1
  redis_prefix: "board:"
server:
  host: 0.0.0.0
  port: 9000
  rate_limit: 30
ui:
  delete_delay: 350ms
log:
  level: debug
  file: board.log
`)

	cfg, err := LoadConfig(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, DriverRedis, cfg.Storage.Driver)
	assert.Equal(t, "redis://localhost:6379/1", cfg.Storage.RedisURL)
	assert.Equal(t, "board:", cfg.Storage.RedisPrefix)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr())
	assert.Equal(t, 30, cfg.Server.RateLimit)
	assert.Equal(t, 350*time.Millisecond, cfg.UI.DeleteDelay)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "board.log", cfg.Log.File)
}

func TestLoadConfig_PartialFile(t *testing.T) {
	t.Parallel()

	// Only set the port, rest should keep defaults
	tmpDir := writeConfig(t, `server:
  port: 9100
`)

	cfg, err := LoadConfig(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, DefaultServerHost, cfg.Server.Host)
	assert.Equal(t, DefaultRateLimit, cfg.Server.RateLimit)
	assert.Equal(t, DriverFile, cfg.Storage.Driver)
	assert.Equal(t, DefaultDeleteDelay, cfg.UI.DeleteDelay)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	t.Parallel()

	tmpDir := writeConfig(t, `storage: [`)

	_, err := LoadConfig(tmpDir)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadConfig_ValidationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		field   string
	}{
		{
			name:    "unknown driver",
			content: "storage:\n  driver: sqlite\n",
			field:   "storage.driver",
		},
		{
			name:    "redis without url",
			content: "storage:\n  driver: redis\n",
			field:   "storage.redis_url",
		},
		{
			name:    "port out of range",
			content: "server:\n  port: 70000\n",
			field:   "server.port",
		},
		{
			name:    "zero rate limit",
			content: "server:\n  rate_limit: 0\n",
			field:   "server.rate_limit",
		},
		{
			name:    "negative delete delay",
			content: "ui:\n  delete_delay: -1s\n",
			field:   "ui.delete_delay",
		},
		{
			name:    "unknown log level",
			content: "log:\n  level: loud\n",
			field:   "log.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := LoadConfig(writeConfig(t, tt.content))
			require.Error(t, err)

			var ve ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	err := ApplyEnv(&cfg, map[string]string{
		EnvStorage:     " Redis ",
		EnvRedisURL:    "redis://cache:6379",
		EnvAddr:        ":9999",
		EnvLogLevel:    "info",
		EnvDeleteDelay: "0s",
	})
	require.NoError(t, err)

	assert.Equal(t, DriverRedis, cfg.Storage.Driver)
	assert.Equal(t, "redis://cache:6379", cfg.Storage.RedisURL)
	assert.Equal(t, DefaultServerHost, cfg.Server.Host)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Zero(t, cfg.UI.DeleteDelay)
	require.NoError(t, ValidateConfig(&cfg))
}

func TestApplyEnv_EmptyValuesIgnored(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	require.NoError(t, ApplyEnv(&cfg, map[string]string{EnvStorage: "", EnvAddr: "  "}))
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestApplyEnv_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		env   map[string]string
		field string
	}{
		{"bad addr", map[string]string{EnvAddr: "nonsense"}, EnvAddr},
		{"bad port", map[string]string{EnvAddr: "localhost:http"}, EnvAddr},
		{"bad delay", map[string]string{EnvDeleteDelay: "soon"}, EnvDeleteDelay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			err := ApplyEnv(&cfg, tt.env)
			var ve ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

// Resolve reads the process environment, so these tests do not run in
// parallel.
func TestResolve_Precedence(t *testing.T) {
	tmpDir := writeConfig(t, "storage:\n  driver: memory\nlog:\n  level: error\n")
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".env"),
		[]byte("# local overrides\nTASKBOARD_LOG_LEVEL=debug\nTASKBOARD_ADDR=127.0.0.1:9001\n"), 0o644))
	t.Setenv(EnvAddr, "127.0.0.1:9002")

	cfg, err := Resolve(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.Storage.Driver, "file value kept")
	assert.Equal(t, "debug", cfg.Log.Level, ".env overrides file")
	assert.Equal(t, 9002, cfg.Server.Port, "process env overrides .env")
}

func TestResolve_ValidatesOverrides(t *testing.T) {
	t.Setenv(EnvStorage, "redis")
	t.Setenv(EnvRedisURL, "")

	_, err := Resolve(t.TempDir())
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestLoadEnvFile_Valid(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	envContent := `# comment
TASKBOARD_STORAGE=file
QUOTED="with spaces"
export EXPORTED=yes
KEY=value=with=equals
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".env"), []byte(envContent), 0o644))

	env, err := LoadEnvFile(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "file", env["TASKBOARD_STORAGE"])
	assert.Equal(t, "with spaces", env["QUOTED"])
	assert.Equal(t, "yes", env["EXPORTED"])
	assert.Equal(t, "value=with=equals", env["KEY"])
}

func TestLoadEnvFile_NotFound(t *testing.T) {
	t.Parallel()

	env, err := LoadEnvFile(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, env)
}

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	ve := ValidationError{Field: "test.field", Message: "must be valid"}
	assert.Equal(t, "validation error: test.field: must be valid", ve.Error())
}

func TestIsValidationError(t *testing.T) {
	t.Parallel()

	ve := ValidationError{Field: "test", Message: "test"}
	assert.True(t, IsValidationError(ve))
	assert.False(t, IsValidationError(os.ErrNotExist))
}
