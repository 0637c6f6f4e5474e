package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowdesk/pkg/flow"
	"github.com/matzehuels/flowdesk/pkg/pipeline"
)

// parseCommand creates the parse command, which turns Mermaid text into a
// graph document.
func (c *CLI) parseCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "parse [file.mmd|-]",
		Short: "Parse a Mermaid flowchart into a graph document",
		Long: `Parse a Mermaid flowchart into a JSON graph document.

Lines that are not node declarations or connections (classDef, style,
click, subgraph, ...) are counted and skipped. Use "-" to read from stdin.

The document is written to stdout unless -o is given.`,
		Example: `  flowdesk parse order.mmd -o order.json
  cat order.mmd | flowdesk parse - | jq '.nodes'`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeFlowcharts,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runParse(cmd.Context(), cmd, args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")

	return cmd
}

func (c *CLI) runParse(ctx context.Context, cmd *cobra.Command, input, output string) error {
	text, err := readInput(cmd, input)
	if err != nil {
		return fmt.Errorf("read %s: %w", input, err)
	}

	prog := newProgress(c.Logger)
	g, stats := pipeline.Parse(ctx, sourceName(input), text)
	prog.done("parsed flowchart", "lines", stats.Lines)

	if output == "" {
		return flow.WriteJSON(g, cmd.OutOrStdout())
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}
	if err := flow.WriteJSON(g, f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", output, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	printSuccess("Parsed %s", sourceName(input))
	printFile(output)
	printStats(g.NodeCount(), g.EdgeCount(), stats.Ignored, nil)
	printNewline()
	printNextStep("Lay out", "flowdesk layout "+input)
	return nil
}
