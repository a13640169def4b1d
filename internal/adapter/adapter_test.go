package adapter

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darbyjohnston/DJV-sub020/internal/memory"
	"github.com/darbyjohnston/DJV-sub020/internal/playback"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoadConfigDefaultsWhenMissing(t *testing.T) {
	resetViper(t)
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 1.0, cfg.Cache.SizeGB)
	assert.Equal(t, 8, cfg.Cache.Prefetch)
	assert.Equal(t, memory.Gigabyte, cfg.CacheBytes())
	assert.Equal(t, 60, cfg.Playback.TickRate)

	mode, err := cfg.PlaybackMode()
	require.NoError(t, err)
	assert.Equal(t, playback.Loop, mode)
}

func TestLoadConfigFromFileAndEnv(t *testing.T) {
	resetViper(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
cache:
  size_gb: 4
  prefetch: 12
playback:
  mode: pingpong
  every_frame: true
store:
  path: ""
`), 0o644))
	t.Setenv("DJV_CACHE_ENABLED", "false")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 4.0, cfg.Cache.SizeGB)
	assert.Equal(t, 12, cfg.Cache.Prefetch)
	assert.False(t, cfg.Cache.Enabled)
	assert.Zero(t, cfg.CacheBytes())
	assert.True(t, cfg.Playback.EveryFrame)
	assert.Empty(t, cfg.Store.Path)

	mode, err := cfg.PlaybackMode()
	require.NoError(t, err)
	assert.Equal(t, playback.PingPong, mode)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	resetViper(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("playback:\n  mode: sideways\n"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	resetViper(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	cfg.Cache.SizeGB = 2.5
	cfg.Playback.Mode = "once"
	require.NoError(t, SaveConfig(cfg))
	require.FileExists(t, path)

	viper.Reset()
	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 2.5, loaded.Cache.SizeGB)
	assert.Equal(t, "once", loaded.Playback.Mode)
}

func TestSetupLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "djv.log")
	logger, closer, err := SetupLogger(&LoggingConfig{File: path, Level: "debug"})
	require.NoError(t, err)
	logger.Debug("cache purged", "removed", 3)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"removed":3`)

	logger, closer, err = SetupLogger(&LoggingConfig{})
	require.NoError(t, err)
	assert.NotNil(t, logger)
	assert.NoError(t, closer.Close())
}

func TestParseLogLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARNING": slog.LevelWarn,
		"ERROR":   slog.LevelError,
		"":        slog.LevelInfo,
	} {
		got, err := ParseLogLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLogLevel("chatty")
	assert.Error(t, err)
}

func TestLoadConfigRejectsUnknownLogLevel(t *testing.T) {
	resetViper(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: chatty\n"), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")

	_, _, err = SetupLogger(&LoggingConfig{File: filepath.Join(t.TempDir(), "djv.log"), Level: "chatty"})
	assert.Error(t, err)
}
