package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowdesk/pkg/editor"
	"github.com/matzehuels/flowdesk/pkg/layout"
	"github.com/matzehuels/flowdesk/pkg/render"
	"github.com/matzehuels/flowdesk/pkg/storage"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for flowdesk.

File arguments complete to .mmd and .mermaid files; --format, --engine,
--direction and --mode complete to their accepted values.

  $ source <(flowdesk completion bash)
  $ flowdesk completion zsh > "${fpath[1]}/_flowdesk"
  $ flowdesk completion fish > ~/.config/fish/completions/flowdesk.fish
  PS> flowdesk completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}

	return cmd
}

type completeFunc = func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective)

// completeFlowcharts offers flowchart files for a single file argument.
func completeFlowcharts(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return storage.Extensions(), cobra.ShellCompDirectiveFilterFileExt
}

// completeFlowchartList offers flowchart files for every argument.
func completeFlowchartList(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return storage.Extensions(), cobra.ShellCompDirectiveFilterFileExt
}

// completeDirs offers directories only.
func completeDirs(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return nil, cobra.ShellCompDirectiveFilterDirs
}

// completeValues offers a fixed set of flag values.
func completeValues(values ...string) completeFunc {
	return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}

// completeFormats offers output formats for a comma-separated list,
// continuing after the last comma.
func completeFormats(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	prefix := ""
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		prefix = toComplete[:i+1]
	}
	out := make([]string, 0, len(render.Formats))
	for _, f := range render.Formats {
		out = append(out, prefix+f)
	}
	return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}

// registerLayoutCompletions completes the values of the shared layout flags.
func registerLayoutCompletions(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc("engine", completeValues(layout.EngineNames()...))
	_ = cmd.RegisterFlagCompletionFunc("direction", completeValues(string(layout.TopBottom), string(layout.LeftRight)))
}

func registerModeCompletion(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc("mode", completeValues(editor.ModeDiagram.String(), editor.ModeText.String()))
}
