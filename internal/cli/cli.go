// Package cli implements the depchase command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/depchase/depchase/pkg/buildinfo"
	"github.com/depchase/depchase/pkg/cache"
	"github.com/depchase/depchase/pkg/engine"
	"github.com/depchase/depchase/pkg/integrations/github"
	"github.com/depchase/depchase/pkg/mapping"
	"github.com/depchase/depchase/pkg/source"
)

// appName is the application name used for directories and display.
const appName = "depchase"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Depchase maps library dependencies to their source code",
		Long:         `Depchase resolves Maven and Gradle dependency declarations to source repositories, locates symbol implementations inside them, and follows implementation chains across repository boundaries.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.analyzeCommand())
	root.AddCommand(c.traceCommand())
	root.AddCommand(c.chainCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.mcpCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// engineOptions are the flags shared by every command that talks to
// the engine.
type engineOptions struct {
	noCache      bool
	mappingsPath string
}

func (o *engineOptions) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&o.mappingsPath, "mappings", "", "TOML file with coordinate-to-repository overrides")
}

// newEngine builds the engine and its GitHub host. The token comes
// from GITHUB_TOKEN; redis is used when DEPCHASE_REDIS_ADDR is set,
// otherwise the file cache under the XDG cache dir.
func (c *CLI) newEngine(ctx context.Context, opts engineOptions) (*engine.Engine, source.Host, error) {
	store, err := newCache(ctx, opts.noCache)
	if err != nil {
		return nil, nil, err
	}

	var overrides mapping.Table
	if opts.mappingsPath != "" {
		overrides, err = mapping.LoadOverrides(opts.mappingsPath)
		if err != nil {
			return nil, nil, err
		}
	}

	host := github.New(github.Options{
		Token: os.Getenv("GITHUB_TOKEN"),
		Cache: store,
	})

	eng := engine.New(engine.Options{
		Host:             host,
		Cache:            store,
		MappingOverrides: overrides,
	})
	return eng, host, nil
}

func newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if addr := os.Getenv("DEPCHASE_REDIS_ADDR"); addr != "" {
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     addr,
			Password: os.Getenv("DEPCHASE_REDIS_PASSWORD"),
		})
	}
	if uri := os.Getenv("DEPCHASE_MONGO_URI"); uri != "" {
		return cache.NewMongoCache(ctx, cache.MongoConfig{URI: uri})
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns the cache directory using XDG standard (~/.cache/depchase/).
func cacheDir() (string, error) {
	if dir := os.Getenv("DEPCHASE_CACHE_DIR"); dir != "" {
		return dir, nil
	}
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
