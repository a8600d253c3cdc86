// Package catalog loads the command descriptors the shell dispatches to.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/doeshing/sheetsh/assets"
	"github.com/doeshing/sheetsh/internal/domain"
)

// File is the on-disk catalog layout shared by the YAML and TOML forms.
type File struct {
	Commands []domain.CommandDescriptor `yaml:"commands" toml:"commands"`
}

// Load returns the embedded catalog merged with userFile, if set. Entries
// in userFile replace embedded entries with the same name. reserved lists
// names commands may not use.
func Load(userFile string, reserved []string) ([]domain.CommandDescriptor, error) {
	base, err := Parse(assets.DefaultCommandsYAML)
	if err != nil {
		return nil, fmt.Errorf("embedded catalog: %w", err)
	}
	if userFile != "" {
		extra, err := ReadFile(userFile)
		if err != nil {
			return nil, err
		}
		base = Merge(base, extra)
	}
	for i := range base {
		base[i] = normalize(base[i])
	}
	if err := Validate(base, reserved); err != nil {
		return nil, err
	}
	return base, nil
}

// Parse decodes a YAML catalog.
func Parse(data []byte) ([]domain.CommandDescriptor, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return f.Commands, nil
}

// ReadFile decodes a YAML or TOML catalog chosen by extension.
func ReadFile(path string) ([]domain.CommandDescriptor, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		var f File
		if _, err := toml.DecodeFile(path, &f); err != nil {
			return nil, fmt.Errorf("catalog %s: %w", path, err)
		}
		return f.Commands, nil
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: %w", path, err)
		}
		cmds, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: %w", path, err)
		}
		return cmds, nil
	default:
		return nil, fmt.Errorf("catalog %s: unsupported format (use .yaml or .toml)", path)
	}
}

// Merge overlays extra onto base by name, keeping base order.
func Merge(base, extra []domain.CommandDescriptor) []domain.CommandDescriptor {
	index := make(map[string]int, len(base))
	out := append([]domain.CommandDescriptor(nil), base...)
	for i, desc := range out {
		index[desc.Name] = i
	}
	for _, desc := range extra {
		if i, ok := index[desc.Name]; ok {
			out[i] = desc
			continue
		}
		index[desc.Name] = len(out)
		out = append(out, desc)
	}
	return out
}

// normalize fills the value kind of options that leave it out.
func normalize(desc domain.CommandDescriptor) domain.CommandDescriptor {
	opts := make([]domain.OptionSpec, len(desc.Options))
	for i, opt := range desc.Options {
		if opt.Value == "" {
			opt.Value = domain.ValueText
		}
		opts[i] = opt
	}
	desc.Options = opts
	return desc
}

// Validate checks descriptors for internal consistency.
func Validate(commands []domain.CommandDescriptor, reserved []string) error {
	var errs []error
	seen := map[string]bool{}
	blocked := map[string]bool{}
	for _, name := range reserved {
		blocked[name] = true
	}
	for _, desc := range commands {
		switch {
		case desc.Name == "":
			errs = append(errs, errors.New("command with empty name"))
			continue
		case strings.HasPrefix(desc.Name, "-") || strings.ContainsAny(desc.Name, " \t\"'"):
			errs = append(errs, fmt.Errorf("%s: invalid command name", desc.Name))
		case blocked[desc.Name]:
			errs = append(errs, fmt.Errorf("%s: name is reserved by the shell", desc.Name))
		case seen[desc.Name]:
			errs = append(errs, fmt.Errorf("%s: duplicate command", desc.Name))
		}
		seen[desc.Name] = true
		errs = append(errs, validateDescriptor(desc)...)
	}
	return errors.Join(errs...)
}

func validateDescriptor(desc domain.CommandDescriptor) []error {
	var errs []error
	options := map[string]bool{}
	for _, opt := range desc.Options {
		if opt.Name == "" || strings.HasPrefix(opt.Name, "-") || strings.ContainsAny(opt.Name, " =") {
			errs = append(errs, fmt.Errorf("%s: invalid option name %q", desc.Name, opt.Name))
		}
		if options[opt.Name] {
			errs = append(errs, fmt.Errorf("%s: duplicate option --%s", desc.Name, opt.Name))
		}
		if !opt.Value.Valid() {
			errs = append(errs, fmt.Errorf("%s: option --%s has unknown value kind %q", desc.Name, opt.Name, opt.Value))
		}
		options[opt.Name] = true
	}
	bound := map[string]bool{}
	for _, b := range desc.ContextFillable {
		if !options[b.Option] {
			errs = append(errs, fmt.Errorf("%s: context option --%s is not declared", desc.Name, b.Option))
		}
		if !b.Field.Valid() {
			errs = append(errs, fmt.Errorf("%s: unknown context field %q", desc.Name, b.Field))
		}
		if bound[b.Option] {
			errs = append(errs, fmt.Errorf("%s: option --%s bound twice", desc.Name, b.Option))
		}
		bound[b.Option] = true
		if opt, ok := desc.Option(b.Option); ok && !opt.Value.TakesValue() {
			errs = append(errs, fmt.Errorf("%s: context option --%s takes no value", desc.Name, b.Option))
		}
	}
	for _, e := range desc.Effects {
		if !options[e.Option] {
			errs = append(errs, fmt.Errorf("%s: effect option --%s is not declared", desc.Name, e.Option))
		}
		if e.Match != "" && !options[e.Match] {
			errs = append(errs, fmt.Errorf("%s: effect match --%s is not declared", desc.Name, e.Match))
		}
		if !e.Field.Valid() {
			errs = append(errs, fmt.Errorf("%s: unknown effect field %q", desc.Name, e.Field))
		}
		if e.Action != domain.EffectSet && e.Action != domain.EffectClear {
			errs = append(errs, fmt.Errorf("%s: unknown effect action %q", desc.Name, e.Action))
		}
	}
	return errs
}
