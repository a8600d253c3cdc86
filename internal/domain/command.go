package domain

import "time"

// ValueKind describes what an option expects after its name.
type ValueKind string

const (
	// ValueNone marks a boolean flag.
	ValueNone ValueKind = "none"
	// ValueText is a free-form value.
	ValueText ValueKind = "text"
	// ValueDocument completes against the open documents.
	ValueDocument ValueKind = "document"
	// ValueSheet completes against the sheets of a document.
	ValueSheet ValueKind = "sheet"
)

// Valid reports whether the kind is known.
func (k ValueKind) Valid() bool {
	switch k {
	case ValueNone, ValueText, ValueDocument, ValueSheet:
		return true
	default:
		return false
	}
}

// Dynamic reports whether values come from a live query.
func (k ValueKind) Dynamic() bool {
	return k == ValueDocument || k == ValueSheet
}

// TakesValue reports whether the option consumes a value token.
func (k ValueKind) TakesValue() bool {
	return k != ValueNone
}

// OptionSpec declares one option accepted by a command.
type OptionSpec struct {
	Name     string    `yaml:"name" toml:"name"`
	Value    ValueKind `yaml:"value" toml:"value"`
	Required bool      `yaml:"required,omitempty" toml:"required"`
	Help     string    `yaml:"help,omitempty" toml:"help"`
}

// ContextBinding marks an option the shell may fill from the context.
type ContextBinding struct {
	Option string       `yaml:"option" toml:"option"`
	Field  ContextField `yaml:"field" toml:"field"`
}

// EffectAction is how a successful command changes a context field.
type EffectAction string

const (
	EffectSet   EffectAction = "set"
	EffectClear EffectAction = "clear"
)

// ContextEffect describes a context change implied by a successful command.
// Set takes the option's dispatched value (its basename when Basename is true),
// and when Match is named only if Match's value equals the current field.
// Clear drops the field when the option's value equals the current one.
type ContextEffect struct {
	Field    ContextField `yaml:"field" toml:"field"`
	Option   string       `yaml:"option" toml:"option"`
	Action   EffectAction `yaml:"action" toml:"action"`
	Match    string       `yaml:"match,omitempty" toml:"match"`
	Basename bool         `yaml:"basename,omitempty" toml:"basename"`
}

// CommandDescriptor is the registry's read-only description of a command.
type CommandDescriptor struct {
	Name               string           `yaml:"name" toml:"name"`
	Summary            string           `yaml:"summary" toml:"summary"`
	Help               string           `yaml:"help,omitempty" toml:"help"`
	Options            []OptionSpec     `yaml:"options,omitempty" toml:"options"`
	ContextFillable    []ContextBinding `yaml:"context,omitempty" toml:"context"`
	Effects            []ContextEffect  `yaml:"effects,omitempty" toml:"effects"`
	SupportsCompletion bool             `yaml:"completion" toml:"completion"`
}

// Option looks up a declared option by name.
func (d CommandDescriptor) Option(name string) (OptionSpec, bool) {
	for _, opt := range d.Options {
		if opt.Name == name {
			return opt, true
		}
	}
	return OptionSpec{}, false
}

// Binding returns the context field bound to an option, if any.
func (d CommandDescriptor) Binding(option string) (ContextField, bool) {
	for _, b := range d.ContextFillable {
		if b.Option == option {
			return b.Field, true
		}
	}
	return "", false
}

// OptionFor returns the first context-fillable option bound to field.
func (d CommandDescriptor) OptionFor(field ContextField) (string, bool) {
	for _, b := range d.ContextFillable {
		if b.Field == field {
			return b.Option, true
		}
	}
	return "", false
}

// Option is a single parsed option occurrence.
type Option struct {
	Name     string
	Value    string
	HasValue bool
}

// Invocation is one parsed input line. Explicit holds the names of every
// option the user typed.
type Invocation struct {
	Command  string
	Args     []string
	Options  []Option
	Explicit map[string]bool
}

// Lookup returns the last value given for an option.
func (inv Invocation) Lookup(name string) (string, bool) {
	for i := len(inv.Options) - 1; i >= 0; i-- {
		if inv.Options[i].Name == name {
			return inv.Options[i].Value, true
		}
	}
	return "", false
}

// Result is the display-ready outcome of a dispatched command.
type Result struct {
	Command  string
	Output   string
	Data     any
	Duration time.Duration
}
