package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/sheetsh/internal/application/shell"
	"github.com/doeshing/sheetsh/internal/domain"
	"github.com/doeshing/sheetsh/internal/infrastructure/terminal"
	"github.com/doeshing/sheetsh/internal/ports"
)

const spinnerDelay = 150 * time.Millisecond

type shellOptions struct {
	workbook string
	sheet    string
	eval     []string
	noDetect bool
}

func newShellCommand(e *env) *cobra.Command {
	var opts shellOptions
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive shell",
		Long: "Start the interactive shell. With --eval, run the given lines and exit.\n" +
			"When stdin is not a terminal, lines are read from it as a script.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd, e, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.workbook, "workbook", "w", "", "Start with this workbook as the working document")
	cmd.Flags().StringVarP(&opts.sheet, "sheet", "s", "", "Start with this sheet (requires --workbook)")
	cmd.Flags().StringArrayVarP(&opts.eval, "eval", "e", nil, "Run a line and exit (repeatable)")
	cmd.Flags().BoolVar(&opts.noDetect, "no-detect", false, "Do not detect the active workbook at startup")
	return cmd
}

func runShell(cmd *cobra.Command, e *env, opts shellOptions) error {
	if opts.sheet != "" && opts.workbook == "" {
		return fmt.Errorf("--sheet requires --workbook")
	}
	if err := e.build(cmd.Context()); err != nil {
		return err
	}
	c := e.container
	ctx := cmd.Context()
	interactive := len(opts.eval) == 0 && terminal.Interactive()

	display := &failureCounter{Display: NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), c.Config.Shell.Color && interactive)}

	var (
		reader ports.LineReader
		editor *terminal.LineEditor
		busy   ports.BusyIndicator
	)
	switch {
	case len(opts.eval) > 0:
	case interactive:
		editor = terminal.NewLineEditor(nil)
		reader = editor
		busy = NewSpinner(cmd.ErrOrStderr(), spinnerDelay)
	default:
		reader = terminal.NewPlainReader(cmd.InOrStdin(), cmd.OutOrStdout(), false)
	}
	if reader != nil {
		defer reader.Close()
	}

	session := c.NewSession(reader, display, busy)
	if editor != nil {
		editor.SetCompletion(session.Completer().Func(ctx))
	}
	session.Start(ctx, opts.workbook, opts.sheet, c.Config.Shell.AutoDetect && !opts.noDetect)

	if len(opts.eval) > 0 {
		return evalLines(ctx, session, display, opts.eval)
	}
	if interactive {
		fmt.Fprintln(cmd.OutOrStdout(), "Type help for commands, exit to leave.")
	}
	if err := session.Run(ctx); err != nil {
		return err
	}
	if !interactive && display.failures > 0 {
		return fmt.Errorf("%d line(s) failed", display.failures)
	}
	return nil
}

func evalLines(ctx context.Context, session *shell.Session, display *failureCounter, lines []string) error {
	for _, line := range lines {
		if session.Eval(ctx, line) {
			break
		}
	}
	if display.failures > 0 {
		return fmt.Errorf("%d line(s) failed", display.failures)
	}
	return nil
}

// failureCounter tracks failures so scripted runs can exit non-zero.
type failureCounter struct {
	ports.Display
	failures int
}

func (f *failureCounter) Failure(t domain.Translation) {
	f.failures++
	f.Display.Failure(t)
}
