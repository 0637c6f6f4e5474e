package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowdesk/pkg/cache"
	"github.com/matzehuels/flowdesk/pkg/config"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	os.Unsetenv("XDG_CACHE_HOME")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".cache", appName)
	if dir != expected {
		t.Errorf("cacheDir() = %q, want %q", dir, expected)
	}
}

func TestCacheDirXDG(t *testing.T) {
	customCache := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", customCache)

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	expected := filepath.Join(customCache, appName)
	if dir != expected {
		t.Errorf("cacheDir() with XDG_CACHE_HOME = %q, want %q", dir, expected)
	}
}

func TestCacheDirConfigured(t *testing.T) {
	c := New(&strings.Builder{}, log.InfoLevel)
	c.Config.Cache.Dir = "/srv/flowdesk-cache"

	dir, err := c.cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if dir != "/srv/flowdesk-cache" {
		t.Errorf("cacheDir() = %q, want the configured directory", dir)
	}
}

func TestNewCacheBackends(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		noCache bool
		want    string
	}{
		{"file", config.CacheFile, false, "*cache.FileCache"},
		{"none", config.CacheNone, false, "*cache.NullCache"},
		{"no-cache flag", config.CacheFile, true, "*cache.NullCache"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(&strings.Builder{}, log.InfoLevel)
			c.Config.Cache.Backend = tt.backend
			c.Config.Cache.Dir = t.TempDir()

			cc, err := c.newCache(context.Background(), tt.noCache)
			if err != nil {
				t.Fatalf("newCache() error: %v", err)
			}
			defer cc.Close()

			var got string
			switch cc.(type) {
			case *cache.FileCache:
				got = "*cache.FileCache"
			case *cache.NullCache:
				got = "*cache.NullCache"
			}
			if got != tt.want {
				t.Errorf("newCache() = %T, want %s", cc, tt.want)
			}
		})
	}
}

func TestClearFileCache(t *testing.T) {
	dir := t.TempDir()
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for _, key := range []string{"layout:a", "artifact:b"} {
		if err := fc.Set(ctx, key, []byte("x"), 0); err != nil {
			t.Fatal(err)
		}
	}

	c := New(&strings.Builder{}, log.InfoLevel)
	c.Config.Cache.Dir = dir

	n, err := c.clearCache()
	if err != nil {
		t.Fatalf("clearCache() error: %v", err)
	}
	if n != 2 {
		t.Errorf("clearCache() removed %d entries, want 2", n)
	}
}

func TestClearCacheUnsupported(t *testing.T) {
	c := New(&strings.Builder{}, log.InfoLevel)
	c.Config.Cache.Backend = config.CacheRedis

	if _, err := c.clearCache(); err == nil {
		t.Error("clearCache() on redis should fail")
	}
}
