package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowdesk/pkg/flow"
	"github.com/matzehuels/flowdesk/pkg/layout"
	"github.com/matzehuels/flowdesk/pkg/pipeline"
)

// layoutFile is written by the layout command: the graph with positions
// applied plus the raw engine output.
type layoutFile struct {
	Graph  flow.Document `json:"graph"`
	Layout layout.Result `json:"layout"`
}

// layoutCommand creates the layout command for computing node positions.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "layout [file.mmd|-]",
		Short: "Compute node positions for a flowchart",
		Long: `Compute node positions and edge routing for a flowchart.

The output is a JSON file with the positioned graph and the engine result
(default: <input>.layout.json). Results are cached by graph content and
layout options.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeFlowcharts,
	}
	lf := addLayoutFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		opts, err := lf.apply(cmd, c.Config.Layout)
		if err != nil {
			return err
		}
		text, err := readInput(cmd, args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}
		if output == "" {
			output = outputBase(args[0], "") + ".layout.json"
		}
		return c.runLayout(cmd.Context(), text, pipeline.Options{
			Source:  sourceName(args[0]),
			Layout:  opts,
			Refresh: refresh,
		}, output, noCache)
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even if cached")

	return cmd
}

// runLayout parses text, lays it out and writes the layout file.
func (c *CLI) runLayout(ctx context.Context, text string, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	g, stats := pipeline.Parse(ctx, opts.Source, text)

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Computing %s layout...", opts.Layout.Engine))
	spinner.Start()
	res, cacheHit, err := runner.LayoutWithCacheInfo(ctx, g, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if err := writeJSONFile(output, layoutFile{Graph: flow.ToDocument(g), Layout: res}); err != nil {
		return err
	}

	printSuccess("Layout complete")
	printFile(output)
	printStats(g.NodeCount(), g.EdgeCount(), stats.Ignored, &cacheHit)
	printDetail("%.0fx%.0f, %d crossing(s)", res.Width, res.Height, res.Crossings)
	printNewline()
	printNextStep("Render", "flowdesk render "+opts.Source)
	return nil
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", path, err)
	}
	return nil
}
