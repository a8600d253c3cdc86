package backend

import (
	"context"
	"encoding/json"
	"slices"

	"github.com/doeshing/sheetsh/internal/domain"
	"github.com/doeshing/sheetsh/internal/ports"
)

// Registry serves a fixed command catalog and executes entries through a Runner.
type Registry struct {
	commands []domain.CommandDescriptor
	known    map[string]bool
	runner   *Runner
}

// NewRegistry builds a registry over commands.
func NewRegistry(commands []domain.CommandDescriptor, runner *Runner) *Registry {
	known := make(map[string]bool, len(commands))
	for _, desc := range commands {
		known[desc.Name] = true
	}
	return &Registry{commands: commands, known: known, runner: runner}
}

// ListCommands returns the catalog.
func (r *Registry) ListCommands() []domain.CommandDescriptor {
	return slices.Clone(r.commands)
}

// Execute runs a catalog command.
func (r *Registry) Execute(ctx context.Context, name string, args []string) (domain.Result, error) {
	if !r.known[name] {
		return domain.Result{}, domain.NewError(domain.KindUnknownCommand, "unknown command %q", name)
	}
	out, err := r.runner.Run(ctx, name, args)
	if err != nil {
		return domain.Result{}, err
	}
	result := domain.Result{Command: name, Duration: out.Duration}
	if !out.Enveloped {
		result.Output = out.Raw
		return result, nil
	}
	if len(out.Result) == 0 || string(out.Result) == "null" {
		return result, nil
	}
	var text string
	if err := json.Unmarshal(out.Result, &text); err == nil {
		result.Output = text
		return result, nil
	}
	var data any
	if err := json.Unmarshal(out.Result, &data); err != nil {
		result.Output = string(out.Result)
		return result, nil
	}
	result.Data = data
	return result, nil
}

var _ ports.CommandRegistry = (*Registry)(nil)
