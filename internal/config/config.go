package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix            = "SWIPESORT"
	defaultDatabasePath  = "swipesort.db"
	defaultLibraryPath   = "."
	defaultLogLevel      = "info"
	defaultWindowSize    = 6
	defaultCacheCapacity = 64
	defaultPreloadWidth  = 3
	defaultFetchRate     = 32
)

// Per-rendition-class fetch deadlines. Thumbnails are expected to be local
// and cheap; video renditions get the longest leash.
const (
	defaultThumbnailTimeoutMS = 2000
	defaultPreviewTimeoutMS   = 5000
	defaultFullTimeoutMS      = 10000
	defaultVideoTimeoutMS     = 15000
)

// AppConfig captures runtime configuration for the triage core and CLI.
type AppConfig struct {
	DatabasePath  string
	LibraryPath   string
	LogLevel      string
	WindowSize    int
	CacheCapacity int
	PreloadWidth  int
	FetchRate     int

	ThumbnailTimeout time.Duration
	PreviewTimeout   time.Duration
	FullTimeout      time.Duration
	VideoTimeout     time.Duration
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("library.path", defaultLibraryPath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("cache.window_size", defaultWindowSize)
	configViper.SetDefault("cache.capacity", defaultCacheCapacity)
	configViper.SetDefault("cache.preload_width", defaultPreloadWidth)
	configViper.SetDefault("fetch.rate_per_second", defaultFetchRate)
	configViper.SetDefault("fetch.thumbnail_timeout_ms", defaultThumbnailTimeoutMS)
	configViper.SetDefault("fetch.preview_timeout_ms", defaultPreviewTimeoutMS)
	configViper.SetDefault("fetch.full_timeout_ms", defaultFullTimeoutMS)
	configViper.SetDefault("fetch.video_timeout_ms", defaultVideoTimeoutMS)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		DatabasePath:     configViper.GetString("database.path"),
		LibraryPath:      configViper.GetString("library.path"),
		LogLevel:         configViper.GetString("log.level"),
		WindowSize:       configViper.GetInt("cache.window_size"),
		CacheCapacity:    configViper.GetInt("cache.capacity"),
		PreloadWidth:     configViper.GetInt("cache.preload_width"),
		FetchRate:        configViper.GetInt("fetch.rate_per_second"),
		ThumbnailTimeout: time.Duration(configViper.GetInt("fetch.thumbnail_timeout_ms")) * time.Millisecond,
		PreviewTimeout:   time.Duration(configViper.GetInt("fetch.preview_timeout_ms")) * time.Millisecond,
		FullTimeout:      time.Duration(configViper.GetInt("fetch.full_timeout_ms")) * time.Millisecond,
		VideoTimeout:     time.Duration(configViper.GetInt("fetch.video_timeout_ms")) * time.Millisecond,
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.WindowSize <= 0 {
		return fmt.Errorf("cache.window_size must be positive")
	}
	if c.CacheCapacity <= 0 {
		return fmt.Errorf("cache.capacity must be positive")
	}
	if c.PreloadWidth <= 0 {
		return fmt.Errorf("cache.preload_width must be positive")
	}
	if c.FetchRate <= 0 {
		return fmt.Errorf("fetch.rate_per_second must be positive")
	}
	return nil
}
