package shell

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/doeshing/sheetsh/internal/domain"
)

var errExit = errors.New("exit")

type builtinSpec struct {
	name    string
	usage   string
	summary string
}

// builtinSpecs is checked before the command registry, in this order.
var builtinSpecs = []builtinSpec{
	{"use", "use document <name> | use sheet <name>", "Switch the working document or sheet"},
	{"show", "show context", "Print the working document and sheet"},
	{"workbooks", "workbooks", "List open documents"},
	{"sheets", "sheets [document]", "List sheets of the working (or named) document"},
	{"help", "help [command]", "List commands or describe one"},
	{"exit", "exit", "Leave the shell"},
}

type builtin func(ctx context.Context, s *Session, inv domain.Invocation) error

var builtinTable = map[string]builtin{
	"use":       runUse,
	"show":      runShow,
	"workbooks": runWorkbooks,
	"sheets":    runSheets,
	"help":      runHelp,
	"exit":      runExit,
	"quit":      runExit,
}

func builtinNames() []string {
	names := make([]string, 0, len(builtinSpecs))
	for _, spec := range builtinSpecs {
		names = append(names, spec.name)
	}
	return names
}

// ReservedNames lists the words handled by the shell itself. Catalog
// commands may not use them.
func ReservedNames() []string {
	names := make([]string, 0, len(builtinTable))
	for name := range builtinTable {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func usageError(name string) error {
	for _, spec := range builtinSpecs {
		if spec.name == name {
			return domain.NewError(domain.KindParse, "usage: %s", spec.usage)
		}
	}
	return domain.NewError(domain.KindParse, "usage: %s", name)
}

func runUse(ctx context.Context, s *Session, inv domain.Invocation) error {
	if len(inv.Args) != 2 || len(inv.Options) > 0 {
		return usageError("use")
	}
	var err error
	switch inv.Args[0] {
	case "document", "workbook":
		err = s.store.UseDocument(ctx, inv.Args[1])
	case "sheet":
		err = s.store.UseSheet(ctx, inv.Args[1])
	default:
		return usageError("use")
	}
	if err != nil {
		return err
	}
	s.display.Message(describeContext(s.store.Current()))
	return nil
}

func runShow(_ context.Context, s *Session, inv domain.Invocation) error {
	if len(inv.Args) > 1 || (len(inv.Args) == 1 && inv.Args[0] != "context") {
		return usageError("show")
	}
	s.display.Message(describeContext(s.store.Current()))
	return nil
}

func runWorkbooks(ctx context.Context, s *Session, _ domain.Invocation) error {
	documents, err := call(ctx, s.store.timeout, s.store.query.ListOpenDocuments)
	if err != nil {
		return unavailable(err, "cannot list open documents")
	}
	s.display.Listing("Open workbooks", documents, s.store.Current().Document)
	return nil
}

func runSheets(ctx context.Context, s *Session, inv domain.Invocation) error {
	current := s.store.Current()
	document := current.Document
	if len(inv.Args) > 1 {
		return usageError("sheets")
	}
	if len(inv.Args) == 1 {
		document = inv.Args[0]
	}
	if document == "" {
		return domain.NewError(domain.KindResourceUnavailable, "no document selected; run: use document <name>")
	}
	sheets, err := call(ctx, s.store.timeout, func(c context.Context) ([]string, error) {
		return s.store.query.ListSheets(c, document)
	})
	if err != nil {
		return unavailable(err, "cannot list sheets of %q", document)
	}
	marked := ""
	if strings.EqualFold(document, current.Document) {
		marked = current.Sheet
	}
	s.display.Listing(fmt.Sprintf("Sheets in %s", document), sheets, marked)
	return nil
}

func runHelp(_ context.Context, s *Session, inv domain.Invocation) error {
	if len(inv.Args) == 0 {
		s.display.Message(s.overview())
		return nil
	}
	name := inv.Args[0]
	for _, spec := range builtinSpecs {
		if spec.name == name {
			s.display.Message(fmt.Sprintf("%s\n  %s", spec.usage, spec.summary))
			return nil
		}
	}
	desc, ok := s.commands[name]
	if !ok {
		return domain.NewError(domain.KindUnknownCommand, "unknown command %q", name)
	}
	s.display.Message(describeCommand(desc))
	return nil
}

func runExit(context.Context, *Session, domain.Invocation) error {
	return errExit
}

func (s *Session) overview() string {
	var b strings.Builder
	b.WriteString("Shell commands:\n")
	for _, spec := range builtinSpecs {
		fmt.Fprintf(&b, "  %-12s %s\n", spec.name, spec.summary)
	}
	b.WriteString("\nCommands:\n")
	for _, desc := range s.registry.ListCommands() {
		fmt.Fprintf(&b, "  %-18s %s\n", desc.Name, desc.Summary)
	}
	b.WriteString("\nType help <command> for its options.")
	return b.String()
}

func describeCommand(desc domain.CommandDescriptor) string {
	var b strings.Builder
	b.WriteString(desc.Name)
	if desc.Summary != "" {
		b.WriteString(" - " + desc.Summary)
	}
	if desc.Help != "" {
		b.WriteString("\n\n" + strings.TrimSpace(desc.Help))
	}
	if len(desc.Options) > 0 {
		b.WriteString("\n\nOptions:")
		for _, opt := range desc.Options {
			flag := "--" + opt.Name
			if opt.Value.TakesValue() {
				flag += " <" + string(opt.Value) + ">"
			}
			fmt.Fprintf(&b, "\n  %-28s %s", flag, opt.Help)
			if opt.Required {
				b.WriteString(" (required)")
			}
			if field, ok := desc.Binding(opt.Name); ok {
				fmt.Fprintf(&b, " [from context: %s]", field)
			}
		}
	}
	return b.String()
}

func describeContext(c domain.Context) string {
	document, sheet := c.Document, c.Sheet
	if document == "" {
		document = "(none)"
	}
	if sheet == "" {
		sheet = "(none)"
	}
	return fmt.Sprintf("document: %s\nsheet:    %s", document, sheet)
}
