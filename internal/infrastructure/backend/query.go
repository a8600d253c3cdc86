package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/doeshing/sheetsh/internal/domain"
	"github.com/doeshing/sheetsh/internal/ports"
)

// Query reads live document state by running the configured query commands.
type Query struct {
	runner   *Runner
	commands domain.QueryCommands
}

// NewQuery builds a ContextQuery over runner.
func NewQuery(runner *Runner, commands domain.QueryCommands) *Query {
	return &Query{runner: runner, commands: commands}
}

func (q *Query) ListOpenDocuments(ctx context.Context) ([]string, error) {
	return q.names(ctx, q.commands.ListDocuments, nil)
}

func (q *Query) ListSheets(ctx context.Context, document string) ([]string, error) {
	return q.names(ctx, q.commands.ListSheets, q.documentArgs(document))
}

func (q *Query) ActiveDocument(ctx context.Context) (string, error) {
	return q.name(ctx, q.commands.ActiveDocument, nil)
}

func (q *Query) ActiveSheet(ctx context.Context, document string) (string, error) {
	return q.name(ctx, q.commands.ActiveSheet, q.documentArgs(document))
}

func (q *Query) documentArgs(document string) []string {
	if document == "" {
		return nil
	}
	return []string{"--" + q.commands.DocumentOption, document}
}

func (q *Query) names(ctx context.Context, command string, args []string) ([]string, error) {
	out, err := q.runner.Run(ctx, command, args)
	if err != nil {
		return nil, asUnavailable(command, err)
	}
	if !out.Enveloped {
		return splitLines(out.Raw), nil
	}
	names, err := decodeNames(out.Result)
	if err != nil {
		return nil, asUnavailable(command, err)
	}
	return names, nil
}

func (q *Query) name(ctx context.Context, command string, args []string) (string, error) {
	out, err := q.runner.Run(ctx, command, args)
	if err != nil {
		return "", asUnavailable(command, err)
	}
	if !out.Enveloped {
		return firstLine(out.Raw), nil
	}
	name, err := decodeName(out.Result)
	if err != nil {
		return "", asUnavailable(command, err)
	}
	return name, nil
}

func asUnavailable(command string, err error) error {
	var de *domain.Error
	if errors.As(err, &de) && de.Kind == domain.KindResourceUnavailable {
		return err
	}
	return domain.WrapError(domain.KindResourceUnavailable, err, "%s: %v", command, err)
}

// decodeNames accepts ["a","b"], [{"name":"a"}], or an object wrapping one
// such array ({"sheets":[...]}).
func decodeNames(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return nil, fmt.Errorf("unexpected name list %s", abbreviate(raw))
		}
		for _, v := range wrapper {
			if names, err := decodeNames(v); err == nil && len(names) > 0 {
				return names, nil
			}
		}
		return nil, nil
	}
	names := make([]string, 0, len(items))
	for _, item := range items {
		name, err := decodeName(item)
		if err != nil {
			return nil, err
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// decodeName accepts "a", {"name":"a"} or null.
func decodeName(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", fmt.Errorf("unexpected name %s", abbreviate(raw))
	}
	for _, key := range []string{"name", "Name"} {
		if v, ok := obj[key].(string); ok {
			return v, nil
		}
	}
	return "", fmt.Errorf("no name in %s", abbreviate(raw))
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func abbreviate(raw json.RawMessage) string {
	const limit = 80
	if len(raw) > limit {
		return string(raw[:limit]) + "..."
	}
	return string(raw)
}

var _ ports.ContextQuery = (*Query)(nil)
