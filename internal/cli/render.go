package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowdesk/pkg/pipeline"
	"github.com/matzehuels/flowdesk/pkg/render"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output  string   // base path of the output files
	formats []string // svg (default), png, pdf, dot, json, mmd
	noCache bool
	refresh bool
}

// renderCommand creates the render command, which runs the full parse,
// layout and render pipeline.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		opts       renderOpts
		formatsStr string
	)

	cmd := &cobra.Command{
		Use:   "render [file.mmd|-]",
		Short: "Render a flowchart to SVG, PNG, PDF or DOT",
		Long: `Render a flowchart after laying it out.

One file is written per format, named <base>.<format>. The base defaults
to the input path without its extension. PNG and PDF output need
rsvg-convert (librsvg) on the PATH.`,
		Example: `  flowdesk render order.mmd
  flowdesk render order.mmd -f svg,png -d LR -o build/order`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeFlowcharts,
	}
	lf := addLayoutFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		opts.formats = parseFormats(formatsStr)
		if err := validateFormats(opts.formats); err != nil {
			return err
		}
		layoutOpts, err := lf.apply(cmd, c.Config.Layout)
		if err != nil {
			return err
		}
		text, err := readInput(cmd, args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}
		return c.runRender(cmd.Context(), text, args[0], pipeline.Options{
			Source:  sourceName(args[0]),
			Layout:  layoutOpts,
			Refresh: opts.refresh,
			Formats: opts.formats,
		}, opts)
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output base path (default: input without extension)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, pdf, dot, json, mmd (comma-separated)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even if cached")

	return cmd
}

// validateFormats checks that all requested formats are valid.
func validateFormats(formats []string) error {
	for _, f := range formats {
		if err := render.ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

func (c *CLI) runRender(ctx context.Context, text, input string, opts pipeline.Options, ro renderOpts) error {
	runner, err := c.newRunner(ctx, ro.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Rendering...")
	spinner.Start()
	result, err := runner.Execute(ctx, text, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	paths, err := writeArtifacts(outputBase(input, ro.output), result.Artifacts)
	if err != nil {
		return err
	}

	printSuccess("Rendered %s", opts.Source)
	for _, p := range paths {
		printFile(p)
	}
	cached := result.CacheInfo.LayoutHit && result.CacheInfo.RenderHit
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.Stats.IgnoredLines, &cached)
	return nil
}

// writeArtifacts writes one <base>.<format> file per artifact and returns
// the paths in format order.
func writeArtifacts(base string, artifacts map[string][]byte) ([]string, error) {
	formats := make([]string, 0, len(artifacts))
	for f := range artifacts {
		formats = append(formats, f)
	}
	slices.Sort(formats)

	if dir := filepath.Dir(base); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	paths := make([]string, 0, len(formats))
	for _, f := range formats {
		p := base + "." + f
		if err := os.WriteFile(p, artifacts[f], 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", p, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}
