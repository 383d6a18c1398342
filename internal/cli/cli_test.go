package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stacsmith/stacsmith/pkg/cache"
)

func TestCacheDirXDG(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	want := filepath.Join(xdg, "stacsmith")
	if dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestCacheDirHome(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	home, _ := os.UserHomeDir()
	want := filepath.Join(home, ".cache", "stacsmith")
	if dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestCacheStorageDirOverride(t *testing.T) {
	c := New(io.Discard, LogInfo)
	c.Config.Cache.Dir = "/tmp/elsewhere"

	dir, err := c.cacheStorageDir()
	if err != nil {
		t.Fatalf("cacheStorageDir() error: %v", err)
	}
	if dir != "/tmp/elsewhere" {
		t.Errorf("cacheStorageDir() = %q, want configured dir", dir)
	}
}

func TestNewCache(t *testing.T) {
	ctx := context.Background()

	t.Run("None", func(t *testing.T) {
		c := New(io.Discard, LogInfo)
		c.Config.Cache.Backend = "none"

		got, err := c.newCache(ctx)
		if err != nil {
			t.Fatalf("newCache() error: %v", err)
		}
		if _, ok := got.(*cache.NullCache); !ok {
			t.Errorf("newCache() = %T, want *cache.NullCache", got)
		}
	})

	t.Run("File", func(t *testing.T) {
		c := New(io.Discard, LogInfo)
		c.Config.Cache.Backend = "file"
		c.Config.Cache.Dir = t.TempDir()

		got, err := c.newCache(ctx)
		if err != nil {
			t.Fatalf("newCache() error: %v", err)
		}
		defer got.Close()
		if _, ok := got.(*cache.FileCache); !ok {
			t.Errorf("newCache() = %T, want *cache.FileCache", got)
		}
	})

	t.Run("FileIsDefault", func(t *testing.T) {
		c := New(io.Discard, LogInfo)
		c.Config.Cache.Backend = ""
		c.Config.Cache.Dir = t.TempDir()

		got, err := c.newCache(ctx)
		if err != nil {
			t.Fatalf("newCache() error: %v", err)
		}
		defer got.Close()
		if _, ok := got.(*cache.FileCache); !ok {
			t.Errorf("newCache() = %T, want *cache.FileCache", got)
		}
	})

	t.Run("Badger", func(t *testing.T) {
		c := New(io.Discard, LogInfo)
		c.Config.Cache.Backend = "badger"
		c.Config.Cache.Dir = t.TempDir()

		got, err := c.newCache(ctx)
		if err != nil {
			t.Fatalf("newCache() error: %v", err)
		}
		defer got.Close()
		if _, ok := got.(*cache.BadgerCache); !ok {
			t.Errorf("newCache() = %T, want *cache.BadgerCache", got)
		}
	})

	t.Run("Unknown", func(t *testing.T) {
		c := New(io.Discard, LogInfo)
		c.Config.Cache.Backend = "memcached"

		if _, err := c.newCache(ctx); err == nil {
			t.Fatal("newCache() with unknown backend should fail")
		}
	})
}

func TestNewStoreClosesClean(t *testing.T) {
	c := New(io.Discard, LogInfo)

	store, closer, err := c.newStore(context.Background())
	if err != nil {
		t.Fatalf("newStore() error: %v", err)
	}
	if store == nil {
		t.Fatal("newStore() returned nil store")
	}
	if err := closer(); err != nil {
		t.Errorf("closer() error: %v", err)
	}
}

func TestRootCommand(t *testing.T) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	if root.Use != "stacsmith" {
		t.Errorf("root.Use = %q, want %q", root.Use, "stacsmith")
	}

	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	for _, want := range []string{
		"describe", "validate", "normalize", "copy", "subcatalogs",
		"viz", "serve", "browse", "cache", "completion",
	} {
		if !slices.Contains(names, want) {
			t.Errorf("root is missing subcommand %q (have %s)", want, strings.Join(names, ", "))
		}
	}
}
