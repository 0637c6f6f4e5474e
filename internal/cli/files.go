package cli

import (
	"context"
	"fmt"
	"path"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowdesk/pkg/storage"
)

// filesCommand creates the files command, which lists flowcharts in the
// configured storage.
func (c *CLI) filesCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "files [dir]",
		Short: "List flowcharts in storage",
		Long: `List the flowcharts (.mmd, .mermaid) below a directory of the
configured storage backend. With --all every file is listed.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeDirs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			return c.runFiles(cmd.Context(), cmd, dir, all)
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "list every file, not only flowcharts")

	return cmd
}

func (c *CLI) runFiles(ctx context.Context, cmd *cobra.Command, dir string, all bool) error {
	store, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	paths, err := listFlowcharts(ctx, store, dir, all)
	if err != nil {
		return fmt.Errorf("list %q: %w", dir, err)
	}
	if len(paths) == 0 {
		printInfo("No flowcharts found")
		return nil
	}
	for _, p := range paths {
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}
	return nil
}

func listFlowcharts(ctx context.Context, store storage.Store, dir string, all bool) ([]string, error) {
	paths, err := store.List(ctx, dir)
	if err != nil {
		return nil, err
	}
	if !all {
		paths = storage.FilterFlowcharts(paths)
	}
	return paths, nil
}

// displayName is the label of a path in the file picker.
func displayName(p string) string {
	return path.Base(p)
}
