package adapter

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/darbyjohnston/DJV-sub020/internal/memory"
	"github.com/darbyjohnston/DJV-sub020/internal/playback"
)

// Config holds all application configuration
type Config struct {
	Cache    CacheConfig    `mapstructure:"cache"`
	Playback PlaybackConfig `mapstructure:"playback"`
	Store    StoreConfig    `mapstructure:"store"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// CacheConfig holds frame cache configuration
type CacheConfig struct {
	Enabled  bool    `mapstructure:"enabled"`
	SizeGB   float64 `mapstructure:"size_gb"`  // Budget shared by all open clips
	Prefetch int     `mapstructure:"prefetch"` // Frames requested ahead of the playhead
}

// PlaybackConfig holds playback defaults
type PlaybackConfig struct {
	Mode       string  `mapstructure:"mode"`        // "once", "loop" or "pingpong"
	EveryFrame bool    `mapstructure:"every_frame"` // Stall instead of dropping frames
	Speed      float64 `mapstructure:"speed"`       // Frames per second, 0 uses the clip rate
	TickRate   int     `mapstructure:"tick_rate"`   // TUI refresh rate in Hz
}

// StoreConfig holds the clip metadata database location
type StoreConfig struct {
	Path string `mapstructure:"path"` // Empty keeps metadata in memory
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{
			Enabled:  true,
			SizeGB:   1.0,
			Prefetch: 8,
		},
		Playback: PlaybackConfig{
			Mode:     "loop",
			TickRate: 60,
		},
		Store: StoreConfig{
			Path: filepath.Join(defaultDataPath(), "djv.db"),
		},
		Logging: LoggingConfig{
			File:  filepath.Join(defaultDataPath(), "djv.log"),
			Level: "INFO",
		},
	}
}

// CacheBytes returns the cache budget in bytes, zero when disabled
func (c *Config) CacheBytes() uint64 {
	if !c.Cache.Enabled {
		return 0
	}
	return memory.GigabytesToBytes(c.Cache.SizeGB)
}

// PlaybackMode parses the configured loop mode
func (c *Config) PlaybackMode() (playback.Mode, error) {
	return playback.ParseMode(c.Playback.Mode)
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Cache.SizeGB < 0 {
		return fmt.Errorf("cache.size_gb must not be negative: %v", c.Cache.SizeGB)
	}
	if c.Cache.Prefetch < 0 {
		return fmt.Errorf("cache.prefetch must not be negative: %d", c.Cache.Prefetch)
	}
	if c.Playback.Speed < 0 {
		return fmt.Errorf("playback.speed must not be negative: %v", c.Playback.Speed)
	}
	if c.Playback.TickRate <= 0 {
		return fmt.Errorf("playback.tick_rate must be positive: %d", c.Playback.TickRate)
	}
	if _, err := c.PlaybackMode(); err != nil {
		return err
	}
	if _, err := ParseLogLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}

// defaultDataPath returns the default data directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "djv")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "djv")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "djv")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "djv")
	}
}

func setDefaults(cfg *Config) {
	viper.SetDefault("cache.enabled", cfg.Cache.Enabled)
	viper.SetDefault("cache.size_gb", cfg.Cache.SizeGB)
	viper.SetDefault("cache.prefetch", cfg.Cache.Prefetch)
	viper.SetDefault("playback.mode", cfg.Playback.Mode)
	viper.SetDefault("playback.every_frame", cfg.Playback.EveryFrame)
	viper.SetDefault("playback.speed", cfg.Playback.Speed)
	viper.SetDefault("playback.tick_rate", cfg.Playback.TickRate)
	viper.SetDefault("store.path", cfg.Store.Path)
	viper.SetDefault("logging.file", cfg.Logging.File)
	viper.SetDefault("logging.level", cfg.Logging.Level)
}

// LoadConfig loads configuration from file and environment. An empty path
// searches the default config directory and the working directory.
func LoadConfig(path string) (*Config, error) {
	setDefaults(DefaultConfig())

	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(defaultConfigPath())
		viper.AddConfigPath(".")
	}

	// Environment variable overrides, e.g. DJV_CACHE_SIZE_GB
	viper.SetEnvPrefix("DJV")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	return unmarshalConfig()
}

func unmarshalConfig() (*Config, error) {
	cfg := DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// configFile returns the file SaveConfig writes to
func configFile() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return filepath.Join(defaultConfigPath(), "config.yaml")
}

// SaveConfig saves the configuration to the loaded config file, or to the
// default location when none was found
func SaveConfig(cfg *Config) error {
	file := configFile()

	// Ensure config directory exists
	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set fields individually to ensure correct key names (snake_case)
	viper.Set("cache.enabled", cfg.Cache.Enabled)
	viper.Set("cache.size_gb", cfg.Cache.SizeGB)
	viper.Set("cache.prefetch", cfg.Cache.Prefetch)

	viper.Set("playback.mode", cfg.Playback.Mode)
	viper.Set("playback.every_frame", cfg.Playback.EveryFrame)
	viper.Set("playback.speed", cfg.Playback.Speed)
	viper.Set("playback.tick_rate", cfg.Playback.TickRate)

	viper.Set("store.path", cfg.Store.Path)

	viper.Set("logging.file", cfg.Logging.File)
	viper.Set("logging.level", cfg.Logging.Level)

	if err := viper.WriteConfigAs(file); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// WatchConfig calls onChange with the re-read configuration whenever the
// config file changes. onChange runs on viper's watcher goroutine.
func WatchConfig(onChange func(*Config, error)) {
	viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		onChange(unmarshalConfig())
	})
	viper.WatchConfig()
}
