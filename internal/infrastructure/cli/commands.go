package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	appconfig "github.com/doeshing/sheetsh/internal/application/config"
	"github.com/doeshing/sheetsh/internal/domain"
	"github.com/doeshing/sheetsh/internal/infrastructure/config"
)

func newCommandsCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "List catalog commands and the options filled from context",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			renderCatalog(cmd.OutOrStdout(), e.container.Registry.ListCommands())
			return nil
		},
	}
}

func renderCatalog(out io.Writer, commands []domain.CommandDescriptor) {
	for _, desc := range commands {
		var filled []string
		for _, b := range desc.ContextFillable {
			filled = append(filled, fmt.Sprintf("--%s<-%s", b.Option, b.Field))
		}
		line := fmt.Sprintf("%-18s %s", desc.Name, desc.Summary)
		if len(filled) > 0 {
			line += " [" + strings.Join(filled, " ") + "]"
		}
		fmt.Fprintln(out, line)
	}
}

func newDoctorCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose environment setup",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := e.container.DoctorService.Run(cmd.Context())
			renderDoctorReport(cmd.OutOrStdout(), report)
			if err != nil {
				return err
			}
			if report.Failed() {
				return fmt.Errorf("doctor found problems")
			}
			return nil
		},
	}
}

func renderDoctorReport(out io.Writer, report domain.HealthReport) {
	for _, check := range report.Checks {
		fmt.Fprintf(out, "[%s] %s - %s\n", strings.ToUpper(string(check.Status)), check.Name, check.Details)
	}
}

func newConfigCommand(e *env) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect sheetsh configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd.Context(), cmd.OutOrStdout(), e)
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show full configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd.Context(), cmd.OutOrStdout(), e)
		},
	}

	pathCmd := &cobra.Command{
		Use:         "path",
		Short:       "Print the configuration file path",
		Annotations: map[string]string{skipContainer: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), config.NewFileLoader("").Path())
			return nil
		},
	}

	validateCmd := &cobra.Command{
		Use:         "validate",
		Short:       "Validate configuration file",
		Annotations: map[string]string{skipContainer: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewFileLoader("").Load(cmd.Context())
			if err != nil {
				return err
			}
			if err := appconfig.Validate(cfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration valid")
			return nil
		},
	}

	configCmd.AddCommand(showCmd, pathCmd, validateCmd)
	return configCmd
}

func runConfigShow(ctx context.Context, out io.Writer, e *env) error {
	cfg, err := e.container.ConfigProvider.Load(ctx)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	fmt.Fprint(out, string(data))
	return nil
}

func newHistoryCommand(e *env) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect shell history",
	}

	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent history entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := e.container.HistoryStore.Load()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No history recorded yet.")
				return nil
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[len(entries)-limit:]
			}
			for _, entry := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%5d  %s\n", entry.Index+1, entry.Line)
			}
			return nil
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", domain.DefaultHistoryLimit, "Max entries to show (0 for all)")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all history entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.container.HistoryStore.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "History cleared")
			return nil
		},
	}

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the history store location",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), e.container.HistoryStore.Path())
			return nil
		},
	}

	historyCmd.AddCommand(listCmd, clearCmd, pathCmd)
	return historyCmd
}
