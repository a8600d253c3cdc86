package shell

import (
	"context"
	"iter"
	"slices"
	"strings"
	"time"

	"github.com/doeshing/sheetsh/internal/domain"
	"github.com/doeshing/sheetsh/internal/ports"
)

// Completion is the outcome of one completion request. Candidates replace
// line[Start:pos]. The sequence is lazy: live queries run when it is first
// ranged over, and it yields nothing on later passes.
type Completion struct {
	Start      int
	Fragment   string
	Candidates iter.Seq[domain.Candidate]
}

// Completer resolves completion candidates from the command table, the
// built-ins and live document state.
type Completer struct {
	commands map[string]domain.CommandDescriptor
	names    []string
	query    ports.ContextQuery
	current  func() domain.Context
	timeout  time.Duration
	logger   ports.Logger
}

// NewCompleter builds a Completer. current is read on every request so
// candidates always reflect the latest context. A non-positive timeout
// selects the default.
func NewCompleter(commands []domain.CommandDescriptor, query ports.ContextQuery, current func() domain.Context, timeout time.Duration, logger ports.Logger) *Completer {
	if timeout <= 0 {
		timeout = domain.DefaultCompletionTimeout
	}
	c := &Completer{
		commands: make(map[string]domain.CommandDescriptor, len(commands)),
		query:    query,
		current:  current,
		timeout:  timeout,
		logger:   logger,
	}
	for _, desc := range commands {
		c.commands[desc.Name] = desc
		c.names = append(c.names, desc.Name)
	}
	c.names = append(c.names, builtinNames()...)
	return c
}

// Complete resolves candidates for the text before pos.
func (c *Completer) Complete(ctx context.Context, line string, pos int) Completion {
	pos = max(0, min(pos, len(line)))
	res := scan(line[:pos])
	tokens := res.tokens
	comp := Completion{Start: pos, Candidates: none}
	var last token
	if res.partial {
		last = tokens[len(tokens)-1]
		comp.Start, comp.Fragment = last.start, last.text
		tokens = tokens[:len(tokens)-1]
	}

	at, pending := commandIndex(tokens)
	if at < 0 {
		// An option typed before the command is waiting for its value.
		if !pending && !strings.HasPrefix(comp.Fragment, "-") {
			comp.Candidates = c.static(domain.CandidateCommand, comp.Fragment, c.names)
		}
		return comp
	}
	command := tokens[at].text
	if _, ok := builtinTable[command]; ok {
		comp.Candidates = c.builtinArgs(ctx, command, tokens[at+1:], comp.Fragment)
		return comp
	}
	desc, ok := c.commands[command]
	if !ok || !desc.SupportsCompletion {
		return comp
	}

	// --name=value completes the value part.
	if res.partial && isOptionToken(last) {
		if name, value, found := strings.Cut(comp.Fragment[2:], "="); found {
			spec, ok := desc.Option(name)
			if !ok || !spec.Value.Dynamic() {
				return comp
			}
			comp.Start += 2 + len(name) + 1
			comp.Fragment = value
			comp.Candidates = c.dynamic(ctx, spec.Value, c.documentFor(desc, tokens), value)
			return comp
		}
	}

	// A fragment starting with -- is always another option, even after a
	// value-taking one.
	if !strings.HasPrefix(comp.Fragment, "--") {
		prev := tokens[len(tokens)-1]
		if name, _, inline, ok := optionName(prev); ok && !inline {
			if spec, ok := desc.Option(name); ok && spec.Value.TakesValue() {
				if spec.Value.Dynamic() {
					comp.Candidates = c.dynamic(ctx, spec.Value, c.documentFor(desc, tokens), comp.Fragment)
				}
				return comp
			}
		}
	}
	if comp.Fragment == "" || strings.HasPrefix(comp.Fragment, "-") {
		comp.Candidates = c.static(domain.CandidateOption, comp.Fragment, unusedOptions(desc, tokens))
	}
	return comp
}

// commandIndex finds the command word, skipping leading options and their
// values the way build does. When no command is found, pending reports that
// the last token is an option still expecting a value.
func commandIndex(tokens []token) (at int, pending bool) {
	for i := 0; i < len(tokens); i++ {
		_, _, inline, ok := optionName(tokens[i])
		switch {
		case !ok:
			return i, false
		case inline:
		case i+1 == len(tokens):
			return -1, true
		case !isOptionToken(tokens[i+1]):
			i++
		}
	}
	return -1, false
}

// Func adapts the completer to a line editor, quoting candidates that
// contain whitespace.
func (c *Completer) Func(ctx context.Context) ports.CompletionFunc {
	return func(line string, pos int) (int, []string) {
		comp := c.Complete(ctx, line, pos)
		var out []string
		for cand := range comp.Candidates {
			out = append(out, Quote(cand.Text))
		}
		return comp.Start, out
	}
}

func (c *Completer) builtinArgs(ctx context.Context, command string, args []token, fragment string) iter.Seq[domain.Candidate] {
	switch command {
	case "use":
		switch {
		case len(args) == 0:
			return c.static(domain.CandidateCommand, fragment, []string{"document", "sheet"})
		case len(args) == 1 && args[0].text == "document":
			return c.dynamic(ctx, domain.ValueDocument, "", fragment)
		case len(args) == 1 && args[0].text == "sheet":
			return c.dynamic(ctx, domain.ValueSheet, c.current().Document, fragment)
		}
	case "show":
		if len(args) == 0 {
			return c.static(domain.CandidateCommand, fragment, []string{"context"})
		}
	case "help":
		if len(args) == 0 {
			return c.static(domain.CandidateCommand, fragment, c.names)
		}
	case "sheets":
		if len(args) == 0 {
			return c.dynamic(ctx, domain.ValueDocument, "", fragment)
		}
	}
	return none
}

// documentFor picks the document whose sheets are offered: the line's own
// document option when typed, otherwise the context document.
func (c *Completer) documentFor(desc domain.CommandDescriptor, tokens []token) string {
	if option, ok := desc.OptionFor(domain.FieldDocument); ok {
		for i := len(tokens) - 1; i >= 0; i-- {
			name, value, inline, ok := optionName(tokens[i])
			if !ok || name != option {
				continue
			}
			if inline {
				return value
			}
			if i+1 < len(tokens) && !isOptionToken(tokens[i+1]) {
				return tokens[i+1].text
			}
		}
	}
	return c.current().Document
}

func (c *Completer) static(kind domain.CandidateKind, fragment string, values []string) iter.Seq[domain.Candidate] {
	return once(func() []domain.Candidate {
		return rank(kind, fragment, values)
	})
}

// dynamic queries live state under the completion timeout. Failures and
// timeouts produce no candidates.
func (c *Completer) dynamic(ctx context.Context, kind domain.ValueKind, document string, fragment string) iter.Seq[domain.Candidate] {
	if kind == domain.ValueSheet && document == "" {
		return none
	}
	return once(func() []domain.Candidate {
		values, err := call(ctx, c.timeout, func(q context.Context) ([]string, error) {
			if kind == domain.ValueSheet {
				return c.query.ListSheets(q, document)
			}
			return c.query.ListOpenDocuments(q)
		})
		if err != nil {
			if c.logger != nil {
				c.logger.Debug("completion query failed", map[string]interface{}{
					"kind":     string(kind),
					"document": document,
					"error":    err.Error(),
				})
			}
			return nil
		}
		return rank(domain.CandidateValue, fragment, values)
	})
}

func unusedOptions(desc domain.CommandDescriptor, tokens []token) []string {
	used := map[string]bool{}
	for _, tok := range tokens {
		if name, _, _, ok := optionName(tok); ok {
			used[name] = true
		}
	}
	var names []string
	for _, opt := range desc.Options {
		if !used[opt.Name] {
			names = append(names, "--"+opt.Name)
		}
	}
	return names
}

// rank keeps exact-prefix matches, sorted and deduplicated.
func rank(kind domain.CandidateKind, fragment string, values []string) []domain.Candidate {
	var matches []string
	for _, v := range values {
		if strings.HasPrefix(v, fragment) {
			matches = append(matches, v)
		}
	}
	slices.Sort(matches)
	matches = slices.Compact(matches)
	out := make([]domain.Candidate, 0, len(matches))
	for _, m := range matches {
		out = append(out, domain.Candidate{Text: m, Kind: kind})
	}
	return out
}

// once defers produce until the sequence is ranged over, and only allows
// a single pass.
func once(produce func() []domain.Candidate) iter.Seq[domain.Candidate] {
	used := false
	return func(yield func(domain.Candidate) bool) {
		if used {
			return
		}
		used = true
		for _, cand := range produce() {
			if !yield(cand) {
				return
			}
		}
	}
}

func none(func(domain.Candidate) bool) {}
