package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/learnercorpus/errmap/internal/tagger"
)

var envKeys = []string{
	"ERRMAP_CONFIG", "TAGGER_URLS", "TAGGER_MODEL", "TAGGER_CONNECT_TIMEOUT",
	"TAGGER_READ_TIMEOUT", "TAGGER_MAX_ATTEMPTS", "CACHE", "CACHE_DIR",
	"WORKERS", "PORT", "LOG_LEVEL", "XDG_CACHE_HOME",
}

// clean isolates a test from the process environment and any .env file.
func clean(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())
}

func TestDefaults(t *testing.T) {
	clean(t)
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.TaggerURLs) != 1 || cfg.TaggerURLs[0] != tagger.DefaultURL {
		t.Errorf("TaggerURLs = %v", cfg.TaggerURLs)
	}
	if cfg.TaggerModel != tagger.DefaultModel {
		t.Errorf("TaggerModel = %q", cfg.TaggerModel)
	}
	if cfg.TaggerConnectTimeout != 25*time.Second || cfg.TaggerReadTimeout != 60*time.Second {
		t.Errorf("timeouts = %v/%v", cfg.TaggerConnectTimeout, cfg.TaggerReadTimeout)
	}
	if cfg.TaggerMaxAttempts != 1 || cfg.CacheEnabled || cfg.ListenAddr != ":8080" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.CacheDir != filepath.Join("/tmp/xdg", AppName) {
		t.Errorf("CacheDir = %q", cfg.CacheDir)
	}
	if cfg.LogLevel != slog.LevelInfo || cfg.Workers < 1 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestEnvOverridesProfile(t *testing.T) {
	clean(t)
	path := filepath.Join(t.TempDir(), "errmap.toml")
	err := os.WriteFile(path, []byte(`
[tagger]
urls = ["http://one/api", "http://two/api"]
model = "turkish-imst"
read_timeout = "2m"
max_attempts = 3

[cache]
enabled = true
dir = "/var/cache/errmap"

[pipeline]
workers = 2

[log]
level = "debug"
`), 0o644)
	if err != nil {
		t.Fatal(err)
	}
	t.Setenv("ERRMAP_CONFIG", path)
	t.Setenv("WORKERS", "6")
	t.Setenv("PORT", "9090")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Profile != path {
		t.Errorf("Profile = %q", cfg.Profile)
	}
	if strings.Join(cfg.TaggerURLs, ",") != "http://one/api,http://two/api" {
		t.Errorf("TaggerURLs = %v", cfg.TaggerURLs)
	}
	if cfg.TaggerModel != "turkish-imst" || cfg.TaggerReadTimeout != 2*time.Minute || cfg.TaggerMaxAttempts != 3 {
		t.Errorf("tagger cfg = %+v", cfg)
	}
	if !cfg.CacheEnabled || cfg.CacheDir != "/var/cache/errmap" {
		t.Errorf("cache cfg = %v %q", cfg.CacheEnabled, cfg.CacheDir)
	}
	if cfg.Workers != 6 || cfg.ListenAddr != ":9090" || cfg.LogLevel != slog.LevelDebug {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestInvalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"TAGGER_URLS", " , "},
		{"TAGGER_URLS", "ftp://x"},
		{"TAGGER_READ_TIMEOUT", "soon"},
		{"TAGGER_MAX_ATTEMPTS", "0"},
		{"WORKERS", "-1"},
		{"LOG_LEVEL", "loud"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clean(t)
			t.Setenv(tt.key, tt.value)
			if _, err := Load(""); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestParseURLs(t *testing.T) {
	got, err := parseURLs("http://a/api/, https://b/api,,")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(got, " ") != "http://a/api https://b/api" {
		t.Fatalf("parseURLs = %v", got)
	}
}

func TestMissingProfile(t *testing.T) {
	clean(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error for missing profile")
	}
}
