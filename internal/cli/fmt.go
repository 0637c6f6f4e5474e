package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowdesk/pkg/mermaid"
	"github.com/matzehuels/flowdesk/pkg/pipeline"
)

// errNotFormatted is returned by `fmt --check` for files that would change.
var errNotFormatted = errors.New("not formatted")

// fmtCommand creates the fmt command, which rewrites flowcharts in the
// canonical form the editor saves.
func (c *CLI) fmtCommand() *cobra.Command {
	var write, check bool

	cmd := &cobra.Command{
		Use:   "fmt [file.mmd|-]...",
		Short: "Rewrite flowcharts in canonical form",
		Long: `Rewrite flowcharts in the canonical form the editor saves: a
"flowchart TD" header, one declaration per node, then one connection per
edge.

Lines the parser does not understand (classDef, style, subgraph, ...) are
dropped. Without --write the result is printed to stdout.`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: completeFlowchartList,
		RunE: func(cmd *cobra.Command, args []string) error {
			if write && check {
				return fmt.Errorf("--write and --check are mutually exclusive")
			}
			var unformatted []string
			for _, arg := range args {
				changed, err := c.runFmt(cmd.Context(), cmd, arg, write, check)
				if err != nil {
					return err
				}
				if changed && check {
					unformatted = append(unformatted, arg)
				}
			}
			if len(unformatted) > 0 {
				for _, f := range unformatted {
					printWarning("%s", f)
				}
				return fmt.Errorf("%d file(s) %w", len(unformatted), errNotFormatted)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the result back to the file")
	cmd.Flags().BoolVar(&check, "check", false, "exit non-zero if a file is not formatted")

	return cmd
}

// runFmt formats one input and reports whether its text changed.
func (c *CLI) runFmt(ctx context.Context, cmd *cobra.Command, input string, write, check bool) (bool, error) {
	text, err := readInput(cmd, input)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", input, err)
	}
	formatted, ignored := format(ctx, input, text)
	changed := formatted != text

	switch {
	case check:
		return changed, nil
	case write && input != stdinArg:
		if !changed {
			return false, nil
		}
		if err := os.WriteFile(input, []byte(formatted), 0o644); err != nil {
			return false, fmt.Errorf("write %s: %w", input, err)
		}
		printSuccess("Formatted %s", input)
		if ignored > 0 {
			printDetail("dropped %d unsupported line(s)", ignored)
		}
		return true, nil
	default:
		_, err := fmt.Fprint(cmd.OutOrStdout(), formatted)
		return changed, err
	}
}

// format returns the canonical text of a flowchart and how many lines it
// dropped.
func format(ctx context.Context, input, text string) (string, int) {
	g, stats := pipeline.Parse(ctx, sourceName(input), text)
	out := mermaid.Serialize(g)
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out, stats.Ignored
}
