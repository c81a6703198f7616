package config

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/learnercorpus/errmap/internal/tagger"
)

// AppName names the cache directory and the default profile.
const AppName = "errmap"

// Cfg holds all runtime configuration.
type Cfg struct {
	// Tagger
	TaggerURLs           []string // TAGGER_URLS=https://a/api,https://b/api
	TaggerModel          string
	TaggerConnectTimeout time.Duration
	TaggerReadTimeout    time.Duration
	TaggerMaxAttempts    int // total attempts per text, across endpoints

	// Disk cache of tagger output
	CacheEnabled bool
	CacheDir     string

	// Pipeline
	Workers int

	// Server
	ListenAddr string // e.g. :8080

	LogLevel slog.Level

	// Profile is the TOML file the values were read from, if any.
	Profile string
}

// profile mirrors the optional TOML run profile. Durations are strings
// such as "25s".
type profile struct {
	Tagger struct {
		URLs           []string `toml:"urls"`
		Model          string   `toml:"model"`
		ConnectTimeout string   `toml:"connect_timeout"`
		ReadTimeout    string   `toml:"read_timeout"`
		MaxAttempts    int      `toml:"max_attempts"`
	} `toml:"tagger"`
	Cache struct {
		Dir     string `toml:"dir"`
		Enabled *bool  `toml:"enabled"`
	} `toml:"cache"`
	Pipeline struct {
		Workers int `toml:"workers"`
	} `toml:"pipeline"`
	Server struct {
		Port string `toml:"port"`
	} `toml:"server"`
	Log struct {
		Level string `toml:"level"`
	} `toml:"log"`
}

// Load reads .env (if present), then the TOML profile at path (or
// ERRMAP_CONFIG when path is empty), then environment variables. Later
// sources override earlier ones.
func Load(path string) (*Cfg, error) {
	// Best-effort: load .env from current directory
	_ = godotenv.Load()

	cfg := &Cfg{
		TaggerURLs:           []string{tagger.DefaultURL},
		TaggerModel:          tagger.DefaultModel,
		TaggerConnectTimeout: tagger.DefaultConnectTimeout,
		TaggerReadTimeout:    tagger.DefaultReadTimeout,
		TaggerMaxAttempts:    1,
		Workers:              runtime.GOMAXPROCS(0),
		ListenAddr:           ":8080",
		LogLevel:             slog.LevelInfo,
	}

	if path == "" {
		path = strings.TrimSpace(os.Getenv("ERRMAP_CONFIG"))
	}
	if path != "" {
		if err := cfg.applyProfile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if cfg.CacheDir == "" {
		dir, err := tagger.DefaultCacheDir(AppName)
		if err != nil && cfg.CacheEnabled {
			return nil, fmt.Errorf("config: cache dir: %w", err)
		}
		cfg.CacheDir = dir
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Cfg) applyProfile(path string) error {
	var p profile
	if _, err := toml.DecodeFile(path, &p); err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}
	c.Profile = path

	if len(p.Tagger.URLs) > 0 {
		c.TaggerURLs = p.Tagger.URLs
	}
	if p.Tagger.Model != "" {
		c.TaggerModel = p.Tagger.Model
	}
	var err error
	if p.Tagger.ConnectTimeout != "" {
		if c.TaggerConnectTimeout, err = time.ParseDuration(p.Tagger.ConnectTimeout); err != nil {
			return fmt.Errorf("config: %s: tagger.connect_timeout: %w", path, err)
		}
	}
	if p.Tagger.ReadTimeout != "" {
		if c.TaggerReadTimeout, err = time.ParseDuration(p.Tagger.ReadTimeout); err != nil {
			return fmt.Errorf("config: %s: tagger.read_timeout: %w", path, err)
		}
	}
	if p.Tagger.MaxAttempts != 0 {
		c.TaggerMaxAttempts = p.Tagger.MaxAttempts
	}
	if p.Cache.Dir != "" {
		c.CacheDir = p.Cache.Dir
	}
	if p.Cache.Enabled != nil {
		c.CacheEnabled = *p.Cache.Enabled
	}
	if p.Pipeline.Workers != 0 {
		c.Workers = p.Pipeline.Workers
	}
	if p.Server.Port != "" {
		c.ListenAddr = ":" + p.Server.Port
	}
	if p.Log.Level != "" {
		if err := c.LogLevel.UnmarshalText([]byte(p.Log.Level)); err != nil {
			return fmt.Errorf("config: %s: log.level: %w", path, err)
		}
	}
	return nil
}

func (c *Cfg) applyEnv() error {
	if raw := env("TAGGER_URLS"); raw != "" {
		urls, err := parseURLs(raw)
		if err != nil {
			return err
		}
		c.TaggerURLs = urls
	}
	if v := env("TAGGER_MODEL"); v != "" {
		c.TaggerModel = v
	}
	var err error
	if v := env("TAGGER_CONNECT_TIMEOUT"); v != "" {
		if c.TaggerConnectTimeout, err = time.ParseDuration(v); err != nil {
			return fmt.Errorf("config: TAGGER_CONNECT_TIMEOUT: %w", err)
		}
	}
	if v := env("TAGGER_READ_TIMEOUT"); v != "" {
		if c.TaggerReadTimeout, err = time.ParseDuration(v); err != nil {
			return fmt.Errorf("config: TAGGER_READ_TIMEOUT: %w", err)
		}
	}
	if v := env("TAGGER_MAX_ATTEMPTS"); v != "" {
		if c.TaggerMaxAttempts, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("config: TAGGER_MAX_ATTEMPTS: %w", err)
		}
	}
	if v := env("CACHE"); v != "" {
		c.CacheEnabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := env("CACHE_DIR"); v != "" {
		c.CacheDir = v
	}
	if v := env("WORKERS"); v != "" {
		if c.Workers, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("config: WORKERS: %w", err)
		}
	}
	if v := env("PORT"); v != "" {
		c.ListenAddr = ":" + v
	}
	if v := env("LOG_LEVEL"); v != "" {
		if err := c.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("config: LOG_LEVEL: %w", err)
		}
	}
	return nil
}

func (c *Cfg) validate() error {
	switch {
	case c.TaggerMaxAttempts < 1:
		return fmt.Errorf("config: tagger max attempts must be at least 1, got %d", c.TaggerMaxAttempts)
	case c.Workers < 1:
		return fmt.Errorf("config: workers must be at least 1, got %d", c.Workers)
	case c.TaggerConnectTimeout <= 0 || c.TaggerReadTimeout <= 0:
		return fmt.Errorf("config: tagger timeouts must be positive")
	case c.TaggerModel == "":
		return fmt.Errorf("config: tagger model is empty")
	}
	return nil
}

func env(key string) string { return strings.TrimSpace(os.Getenv(key)) }

// parseURLs parses "url1,url2,url3" into a list of base URLs.
func parseURLs(raw string) ([]string, error) {
	var urls []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimRight(strings.TrimSpace(part), "/")
		if part == "" {
			continue
		}
		if !strings.HasPrefix(part, "http://") && !strings.HasPrefix(part, "https://") {
			return nil, fmt.Errorf("config: TAGGER_URLS entry %q is not an http(s) URL", part)
		}
		urls = append(urls, part)
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("config: TAGGER_URLS is set but contains no valid entries")
	}
	return urls, nil
}
