package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowdesk/internal/server"
)

// serveCommand creates the serve command, which runs the HTTP API and the
// WebSocket diagram sessions.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and diagram sessions",
		Long: `Serve the flowchart API over HTTP.

Files come from the configured storage backend. Browser canvases connect
to /ws/diagram/<path> and receive a snapshot after every change.`,
		Args: cobra.NoArgs,
	}
	lf := addLayoutFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("addr") {
			c.Config.Server.Addr = addr
		}
		opts, err := lf.apply(cmd, c.Config.Layout)
		if err != nil {
			return err
		}
		c.Config.Layout = opts
		return c.runServe(cmd.Context(), noCache)
	}

	cmd.Flags().StringVar(&addr, "addr", c.Config.Server.Addr, "listen address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, noCache bool) error {
	store, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	srv := server.New(store, runner, c.Logger, server.Options{
		Layout:         c.Config.Layout,
		Debounce:       c.Config.Editor.Debounce,
		AllowedOrigins: c.Config.Server.AllowedOrigins,
	})

	cfg := c.Config.Server
	printSuccess("Serving on http://%s", cfg.Addr)
	printDetail("storage: %s", c.Config.Storage.Backend)
	printDetail("cache:   %s", c.Config.Cache.Backend)
	printNewline()

	return srv.ListenAndServe(ctx, cfg.Addr, cfg.ReadTimeout, cfg.WriteTimeout, cfg.ShutdownTimeout)
}
