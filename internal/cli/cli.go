// Package cli implements the stacsmith command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/stacsmith/stacsmith/pkg/buildinfo"
	"github.com/stacsmith/stacsmith/pkg/cache"
	"github.com/stacsmith/stacsmith/pkg/storage"
	"github.com/stacsmith/stacsmith/pkg/storage/mongostore"
)

// appName is the application name used for directories and display.
const appName = "stacsmith"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config *Config

	configPath string
}

// New creates a new CLI instance with a default logger and configuration.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: DefaultConfig(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands
// registered. Configuration is loaded in the persistent pre-run, so flags
// registered by main can still adjust the CLI first.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Stacsmith builds, validates and reshapes STAC catalogs",
		Long:         `Stacsmith is a CLI tool for working with SpatioTemporal Asset Catalogs: inspecting and validating existing catalogs, normalizing their layout on disk, reorganizing items into subcatalogs, and rendering catalog trees as diagrams.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(c.configPath)
			if err != nil {
				return err
			}
			c.Config = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ~/.config/stacsmith/config.toml)")

	root.AddCommand(c.describeCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.normalizeCommand())
	root.AddCommand(c.copyCommand())
	root.AddCommand(c.subcatalogsCommand())
	root.AddCommand(c.vizCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newStore builds the document store per configuration: MongoDB when a
// connection string is configured, otherwise scheme dispatch between HTTP
// and the local filesystem with the configured HTTP behavior.
func (c *CLI) newStore(ctx context.Context) (storage.Store, func() error, error) {
	noClose := func() error { return nil }
	if uri := c.Config.Mongo.URI; uri != "" {
		ms, err := mongostore.Connect(ctx, mongostore.Options{
			URI:        uri,
			Database:   c.Config.Mongo.Database,
			Collection: c.Config.Mongo.Collection,
		})
		if err != nil {
			return nil, nil, err
		}
		return ms, func() error { return ms.Close(context.Background()) }, nil
	}

	httpCfg := c.Config.HTTP
	opts := []storage.HTTPOption{
		storage.WithHeaders(map[string]string{"User-Agent": httpCfg.UserAgent}),
	}
	if httpCfg.Retries > 0 {
		opts = append(opts, storage.WithRetries(httpCfg.Retries))
	}
	if httpCfg.Timeout > 0 {
		opts = append(opts, storage.WithHTTPClient(&http.Client{Timeout: time.Duration(httpCfg.Timeout)}))
	}
	return storage.NewStore(storage.NewHTTPReader(opts...), storage.NewFileStore()), noClose, nil
}

// newReader wraps the configured store with the configured byte cache. The
// returned closer releases both the cache and the store.
func (c *CLI) newReader(ctx context.Context, noCache bool) (storage.Reader, storage.Store, func() error, error) {
	store, closeStore, err := c.newStore(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	if noCache {
		return store, store, closeStore, nil
	}

	byteCache, err := c.newCache(ctx)
	if err != nil {
		_ = closeStore()
		return nil, nil, nil, err
	}
	closer := func() error {
		cerr := byteCache.Close()
		if serr := closeStore(); serr != nil {
			return serr
		}
		return cerr
	}
	reader := storage.NewCachingReader(store, byteCache, time.Duration(c.Config.Cache.TTL))
	return reader, store, closer, nil
}

// newCache builds the byte cache named by the cache backend setting.
func (c *CLI) newCache(ctx context.Context) (cache.Cache, error) {
	cc := c.Config.Cache
	switch cc.Backend {
	case "", "file":
		dir, err := c.cacheStorageDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	case "badger":
		dir, err := c.cacheStorageDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		return cache.NewBadgerCache(filepath.Join(dir, "badger"))
	case "redis":
		return cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cc.RedisAddr,
			Password: cc.RedisPassword,
			DB:       cc.RedisDB,
		})
	case "none":
		return cache.NewNullCache(), nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", cc.Backend)
}

// cacheStorageDir returns the configured cache directory, falling back to
// the XDG default.
func (c *CLI) cacheStorageDir() (string, error) {
	if c.Config.Cache.Dir != "" {
		return c.Config.Cache.Dir, nil
	}
	return cacheDir()
}

// cacheDir returns the cache directory using XDG standard (~/.cache/stacsmith/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
