package shell

import "github.com/doeshing/sheetsh/internal/domain"

// Inject builds the argument list dispatched for inv: positional arguments,
// then every explicit option as typed, then context values for
// context-fillable options the user left out. An explicit option is never
// overridden, and an empty context field is never injected. Inject does not
// check required options; the backend reports those.
func Inject(inv domain.Invocation, desc domain.CommandDescriptor, current domain.Context) []string {
	args := make([]string, 0, len(inv.Args)+2*len(inv.Options)+2*len(desc.ContextFillable))
	args = append(args, inv.Args...)
	for _, opt := range inv.Options {
		args = append(args, "--"+opt.Name)
		if opt.HasValue {
			args = append(args, opt.Value)
		}
	}
	for _, binding := range desc.ContextFillable {
		if inv.Explicit[binding.Option] {
			continue
		}
		value := current.Value(binding.Field)
		if value == "" {
			continue
		}
		args = append(args, "--"+binding.Option, value)
	}
	return args
}

// dispatchedValue is the value option had in the injected argument list.
func dispatchedValue(inv domain.Invocation, desc domain.CommandDescriptor, current domain.Context, option string) (string, bool) {
	if value, ok := inv.Lookup(option); ok {
		return value, true
	}
	if field, ok := desc.Binding(option); ok {
		if value := current.Value(field); value != "" {
			return value, true
		}
	}
	return "", false
}
