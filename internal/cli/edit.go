package cli

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowdesk/pkg/editor"
	"github.com/matzehuels/flowdesk/pkg/layout"
	"github.com/matzehuels/flowdesk/pkg/storage"
)

// editCommand creates the edit command, which opens the terminal editor.
func (c *CLI) editCommand() *cobra.Command {
	var (
		mode    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "edit [file.mmd]",
		Short: "Edit a flowchart in the terminal",
		Long: `Edit a flowchart in the terminal.

In diagram mode the graph is authoritative: add, rename, relabel, connect
and delete nodes with single keys, and the layout follows each structural
change. In text mode (ctrl+t) the Mermaid text is authoritative and the
graph is a live preview. ctrl+s saves.

Without a file, pick one from the configured storage. A file that does not
exist yet is created on the first save.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeFlowcharts,
	}
	lf := addLayoutFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		m, err := editor.ParseMode(mode)
		if err != nil {
			return err
		}
		opts, err := lf.apply(cmd, c.Config.Layout)
		if err != nil {
			return err
		}
		arg := ""
		if len(args) == 1 {
			arg = args[0]
		}
		return c.runEdit(cmd.Context(), arg, m, opts, noCache)
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", editor.ModeDiagram.String(), "initial mode: diagram or text")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	registerModeCompletion(cmd)

	return cmd
}

func (c *CLI) runEdit(ctx context.Context, arg string, mode editor.Mode, opts layout.Options, noCache bool) error {
	store, path, err := c.pickFile(ctx, arg)
	if err != nil {
		return err
	}
	if store == nil {
		return nil
	}
	defer store.Close()

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	logger, closeLog := c.editorLogger()
	defer closeLog()

	canvas := newTeaCanvas()
	session := editor.New(store, path,
		editor.WithRunner(runner),
		editor.WithLayout(opts),
		editor.WithDebounce(c.Config.Editor.Debounce),
		editor.WithCanvas(canvas),
		editor.WithLogger(logger),
		editor.WithMode(mode),
	)
	defer session.Close()

	// A missing file opens empty with a notice; the first save creates it.
	if err := session.Load(ctx); err != nil {
		logger.Debug("initial load", "path", path, "err", err)
	}

	p := tea.NewProgram(newEditorModel(ctx, session, canvas), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("editor: %w", err)
	}

	if session.Dirty() {
		printWarning("Closed %s with unsaved changes", path)
	}
	return nil
}

// pickFile resolves the file to edit. Without an argument the user picks
// one of the flowcharts in storage; a nil store means the picker was
// cancelled.
func (c *CLI) pickFile(ctx context.Context, arg string) (storage.Store, string, error) {
	if arg != "" {
		return c.resolveFile(ctx, arg)
	}

	store, err := c.openStore(ctx)
	if err != nil {
		return nil, "", err
	}
	files, err := listFlowcharts(ctx, store, "", false)
	if err != nil {
		store.Close()
		return nil, "", fmt.Errorf("list flowcharts: %w", err)
	}
	if len(files) == 0 {
		store.Close()
		printInfo("No flowcharts found")
		printNextStep("Create one", "flowdesk edit new.mmd")
		return nil, "", nil
	}

	final, err := tea.NewProgram(NewFileListModel(files), tea.WithContext(ctx)).Run()
	if err != nil {
		store.Close()
		return nil, "", fmt.Errorf("file picker: %w", err)
	}
	fm, ok := final.(FileListModel)
	if !ok || fm.Selected == "" {
		store.Close()
		return nil, "", nil
	}
	return store, fm.Selected, nil
}
