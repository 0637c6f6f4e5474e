package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowdesk/pkg/cache"
	"github.com/matzehuels/flowdesk/pkg/config"
	ferrors "github.com/matzehuels/flowdesk/pkg/errors"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the layout and render cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached layouts and renders",
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := c.clearCache()
			if err != nil {
				return err
			}
			if count == 0 {
				printInfo("Cache is empty")
				return nil
			}
			dir, _ := c.cacheDir()
			printSuccess("Cleared %d cached entries", count)
			printDetail("Directory: %s", dir)
			return nil
		},
	}
}

// clearCache removes every entry of the file cache. Redis entries expire
// on their own and are not enumerated.
func (c *CLI) clearCache() (int, error) {
	if c.Config.Cache.Backend != config.CacheFile {
		return 0, ferrors.New(ferrors.ErrCodeUnsupported,
			"cache clear is not supported for the %q backend", c.Config.Cache.Backend)
	}
	dir, err := c.cacheDir()
	if err != nil {
		return 0, fmt.Errorf("get cache dir: %w", err)
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return 0, err
	}
	return fc.Clear()
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}
