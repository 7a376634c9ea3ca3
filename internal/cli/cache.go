package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nugetfetch/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the registry index cache",
		Long: `Manage the persistent cache of discovered registry endpoints.

Entries expire after ` + cache.IndexTTL.String() + `. The backend is chosen with the
index_cache setting (file, redis or none).`,
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached registry endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.Settings.IndexCache == IndexCacheNone {
				printInfo(c.Out, "Index cache is disabled")
				return nil
			}

			store, err := c.newCache(cmd.Context())
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			defer store.Close()

			clearer, ok := store.(cache.Clearer)
			if !ok {
				return fmt.Errorf("%s cache cannot be cleared", c.Settings.IndexCache)
			}
			if err := clearer.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}

			printSuccess(c.Out, "Cleared index cache")
			switch s := store.(type) {
			case *cache.FileCache:
				printDetail(c.Out, "Directory: %s", s.Dir())
			case *cache.RedisCache:
				printDetail(c.Out, "Redis: %s", c.Settings.RedisAddr)
			}
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(c.Out, dir)
			return nil
		},
	}
}
