package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doeshing/sheetsh/internal/app"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose bool
}

const skipContainer = "skip-container"

// env carries the lazily built container to subcommands.
type env struct {
	opts      Options
	container *app.Container
}

// NewRootCmd wires the cobra root command. Running it without a
// subcommand starts the interactive shell.
func NewRootCmd(ctx context.Context, opts Options) (*cobra.Command, error) {
	e := &env{opts: opts}
	shellCmd := newShellCommand(e)

	root := &cobra.Command{
		Use:   "sheetsh",
		Short: "sheetsh - interactive shell for spreadsheet automation",
		Long: "sheetsh keeps a working workbook and sheet, fills them into commands,\n" +
			"completes names from the running application and remembers what you typed.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return shellCmd.RunE(cmd, args)
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipContainer] == "true" {
				return nil
			}
			return e.build(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if e.container == nil {
				return nil
			}
			return e.container.Close()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&e.opts.Verbose, "verbose", "v", opts.Verbose, "Enable debug logging to stderr")
	root.Flags().AddFlagSet(shellCmd.Flags())

	root.AddCommand(shellCmd)
	root.AddCommand(newCommandsCommand(e))
	root.AddCommand(newConfigCommand(e))
	root.AddCommand(newDoctorCommand(e))
	root.AddCommand(newHistoryCommand(e))
	root.SetContext(ctx)
	return root, nil
}

func (e *env) build(ctx context.Context) error {
	if e.container != nil {
		return nil
	}
	container, err := app.BuildContainer(ctx, e.opts.Verbose)
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}
	e.container = container
	return nil
}
