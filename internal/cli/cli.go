// Package cli implements the nugetfetch command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nugetfetch/pkg/buildinfo"
	"github.com/matzehuels/nugetfetch/pkg/cache"
	"github.com/matzehuels/nugetfetch/pkg/integrations"
	"github.com/matzehuels/nugetfetch/pkg/integrations/nuget"
	"github.com/matzehuels/nugetfetch/pkg/nugetconfig"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "nugetfetch"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger   *log.Logger
	Settings Settings

	// Out receives command results, Err progress and diagnostics.
	Out io.Writer
	Err io.Writer

	// Environ replaces the process environment when non-nil.
	Environ map[string]string

	flags flagValues
}

// New creates a new CLI instance with a default logger writing to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:   newLogger(w, level),
		Settings: defaultSettings(),
		Out:      os.Stdout,
		Err:      w,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "nugetfetch downloads and unpacks NuGet packages",
		Long:          `nugetfetch finds a package on a NuGet v3 feed, downloads its .nupkg and unpacks it into <output>/<id>.<version>/. Feeds are given by URL or by a source name from NuGet.Config.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadSettings(cmd)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	c.flags.register(root.PersistentFlags())

	root.AddCommand(c.downloadCommand())
	root.AddCommand(c.searchCommand())
	root.AddCommand(c.infoCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadSettings resolves Settings for this invocation and attaches the logger
// to the command context.
func (c *CLI) loadSettings(cmd *cobra.Command) error {
	s, err := loadSettings(c.flags.settings, c.Environ)
	if err != nil {
		return err
	}
	c.flags.apply(cmd.Flags(), &s)
	if err := s.validate(); err != nil {
		return err
	}
	c.Settings = s
	c.Logger.Debug("settings loaded", "source", s.Source, "index_cache", s.IndexCache, "retries", s.Retries)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(withLogger(ctx, c.Logger))
	return nil
}

// =============================================================================
// Client Factory
// =============================================================================

// newClient builds a registry client from the current settings. The returned
// close function releases the index cache.
func (c *CLI) newClient(ctx context.Context, opts ...nuget.Option) (*nuget.Client, func(), error) {
	store, err := c.newCache(ctx)
	if err != nil {
		return nil, nil, err
	}

	var resolverOpts []nugetconfig.Option
	resolverOpts = append(resolverOpts, nugetconfig.WithLogger(c.Logger))
	if c.Settings.NuGetConfig != "" {
		resolverOpts = append(resolverOpts, nugetconfig.WithPath(c.Settings.NuGetConfig))
	}

	all := []nuget.Option{
		nuget.WithSource(c.Settings.Source),
		nuget.WithCredential(c.Settings.User, c.Settings.Token),
		nuget.WithConfig(nugetconfig.NewResolver(resolverOpts...)),
		nuget.WithHTTPClient(integrations.NewHTTPClient(c.Settings.Timeout)),
		nuget.WithResourceCache(nuget.NewResourceCache(store)),
		nuget.WithLogger(c.Logger),
	}
	client, err := nuget.NewClient(append(all, opts...)...)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	c.Logger.Debug("using registry", "url", client.Registry().URL)
	return client, func() { store.Close() }, nil
}

// newCache opens the persistent index cache selected by the settings.
func (c *CLI) newCache(ctx context.Context) (cache.Cache, error) {
	switch c.Settings.IndexCache {
	case IndexCacheNone:
		return cache.NewNullCache(), nil
	case IndexCacheRedis:
		return cache.NewRedisCache(ctx, c.Settings.RedisAddr, cache.DefaultRedisPrefix)
	}
	dir, err := cacheDir()
	if err != nil {
		c.Logger.Debug("no cache directory, index cache disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/nugetfetch/).
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
