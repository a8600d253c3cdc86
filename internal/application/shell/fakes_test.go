package shell

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/doeshing/sheetsh/internal/domain"
	"github.com/doeshing/sheetsh/internal/ports"
)

var errHostDown = domain.NewError(domain.KindResourceUnavailable, "document host not running")

// fakeQuery serves a fixed set of documents and sheets.
type fakeQuery struct {
	mu       sync.Mutex
	docs     []string
	sheets   map[string][]string
	active   string
	actSheet map[string]string
	err      error
	// block makes every call wait for ctx.
	block bool
	calls int
}

func newFakeQuery() *fakeQuery {
	return &fakeQuery{
		docs: []string{"sales.xlsx", "budget 2024.xlsx"},
		sheets: map[string][]string{
			"sales.xlsx":       {"Sheet1", "Data", "Summary"},
			"budget 2024.xlsx": {"Q1", "Q2"},
		},
		active:   "sales.xlsx",
		actSheet: map[string]string{"sales.xlsx": "Sheet1", "budget 2024.xlsx": "Q1"},
	}
}

func (q *fakeQuery) enter(ctx context.Context) error {
	q.mu.Lock()
	q.calls++
	block, err := q.block, q.err
	q.mu.Unlock()
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

func (q *fakeQuery) ListOpenDocuments(ctx context.Context) ([]string, error) {
	if err := q.enter(ctx); err != nil {
		return nil, err
	}
	return append([]string(nil), q.docs...), nil
}

func (q *fakeQuery) ListSheets(ctx context.Context, document string) ([]string, error) {
	if err := q.enter(ctx); err != nil {
		return nil, err
	}
	sheets, ok := q.sheets[document]
	if !ok {
		return nil, domain.NewError(domain.KindResourceUnavailable, "no document %q", document)
	}
	return append([]string(nil), sheets...), nil
}

func (q *fakeQuery) ActiveDocument(ctx context.Context) (string, error) {
	if err := q.enter(ctx); err != nil {
		return "", err
	}
	return q.active, nil
}

func (q *fakeQuery) ActiveSheet(ctx context.Context, document string) (string, error) {
	if err := q.enter(ctx); err != nil {
		return "", err
	}
	return q.actSheet[document], nil
}

func (q *fakeQuery) callCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.calls
}

type execCall struct {
	name string
	args []string
}

// fakeRegistry records dispatches. run, when set, decides the outcome.
type fakeRegistry struct {
	commands []domain.CommandDescriptor
	calls    []execCall
	run      func(ctx context.Context, name string, args []string) (domain.Result, error)
}

func (r *fakeRegistry) ListCommands() []domain.CommandDescriptor {
	return r.commands
}

func (r *fakeRegistry) Execute(ctx context.Context, name string, args []string) (domain.Result, error) {
	r.calls = append(r.calls, execCall{name: name, args: args})
	if r.run != nil {
		return r.run(ctx, name, args)
	}
	return domain.Result{Command: name, Output: "ok"}, nil
}

type fakeDisplay struct {
	results  []domain.Result
	failures []domain.Translation
	messages []string
	listings []string
}

func (d *fakeDisplay) Result(r domain.Result)       { d.results = append(d.results, r) }
func (d *fakeDisplay) Failure(t domain.Translation) { d.failures = append(d.failures, t) }
func (d *fakeDisplay) Message(text string)          { d.messages = append(d.messages, text) }
func (d *fakeDisplay) Listing(title string, items []string, current string) {
	d.listings = append(d.listings, title)
	for _, item := range items {
		mark := " "
		if item == current {
			mark = "*"
		}
		d.listings = append(d.listings, mark+item)
	}
}

func (d *fakeDisplay) lastFailureKind() domain.ErrorKind {
	if len(d.failures) == 0 {
		return ""
	}
	return d.failures[len(d.failures)-1].Kind
}

type memHistory struct {
	lines []string
	err   error
}

func (h *memHistory) Load() ([]domain.HistoryEntry, error) {
	out := make([]domain.HistoryEntry, len(h.lines))
	for i, line := range h.lines {
		out[i] = domain.HistoryEntry{Line: line, Index: i}
	}
	return out, nil
}

func (h *memHistory) Append(line string) (domain.HistoryEntry, error) {
	if h.err != nil {
		return domain.HistoryEntry{}, h.err
	}
	h.lines = append(h.lines, line)
	return domain.HistoryEntry{Line: line, Index: len(h.lines) - 1}, nil
}

func (h *memHistory) Clear() error {
	h.lines = nil
	return nil
}

func (h *memHistory) Path() string { return ":memory:" }

// scriptReader replays lines, then reports EOF. aborts marks the read
// positions where Ctrl-C is pressed instead.
type scriptReader struct {
	lines    []string
	aborts   map[int]bool
	pos      int
	prompts  []string
	appended []string
}

func (r *scriptReader) Prompt(prompt string) (string, error) {
	r.prompts = append(r.prompts, prompt)
	if r.aborts[r.pos] {
		delete(r.aborts, r.pos)
		return "", ports.ErrLineAborted
	}
	if r.pos >= len(r.lines) {
		return "", io.EOF
	}
	line := r.lines[r.pos]
	r.pos++
	return line, nil
}

func (r *scriptReader) AppendHistory(line string) { r.appended = append(r.appended, line) }
func (r *scriptReader) Close() error              { return nil }

var errBoom = errors.New("boom")

// testCatalog mirrors the shape of the shipped catalog.
func testCatalog() []domain.CommandDescriptor {
	ctxBindings := []domain.ContextBinding{
		{Option: "workbook-name", Field: domain.FieldDocument},
		{Option: "sheet", Field: domain.FieldSheet},
	}
	return []domain.CommandDescriptor{
		{
			Name: "range-read",
			Options: []domain.OptionSpec{
				{Name: "workbook-name", Value: domain.ValueDocument},
				{Name: "sheet", Value: domain.ValueSheet},
				{Name: "range", Value: domain.ValueText, Required: true},
				{Name: "formulas", Value: domain.ValueNone},
			},
			ContextFillable:    ctxBindings,
			SupportsCompletion: true,
		},
		{
			Name: "workbook-open",
			Options: []domain.OptionSpec{
				{Name: "path", Value: domain.ValueText, Required: true},
			},
			Effects: []domain.ContextEffect{
				{Field: domain.FieldDocument, Option: "path", Action: domain.EffectSet, Basename: true},
			},
			SupportsCompletion: true,
		},
		{
			Name: "workbook-close",
			Options: []domain.OptionSpec{
				{Name: "workbook-name", Value: domain.ValueDocument},
			},
			ContextFillable: ctxBindings[:1],
			Effects: []domain.ContextEffect{
				{Field: domain.FieldDocument, Option: "workbook-name", Action: domain.EffectClear},
			},
			SupportsCompletion: true,
		},
		{
			Name: "sheet-activate",
			Options: []domain.OptionSpec{
				{Name: "workbook-name", Value: domain.ValueDocument},
				{Name: "sheet", Value: domain.ValueSheet, Required: true},
			},
			ContextFillable: ctxBindings[:1],
			Effects: []domain.ContextEffect{
				{Field: domain.FieldSheet, Option: "sheet", Action: domain.EffectSet},
			},
			SupportsCompletion: true,
		},
		{
			Name: "sheet-rename",
			Options: []domain.OptionSpec{
				{Name: "workbook-name", Value: domain.ValueDocument},
				{Name: "sheet", Value: domain.ValueSheet},
				{Name: "new-name", Value: domain.ValueText, Required: true},
			},
			ContextFillable: ctxBindings,
			Effects: []domain.ContextEffect{
				{Field: domain.FieldSheet, Option: "new-name", Action: domain.EffectSet, Match: "sheet"},
			},
			SupportsCompletion: true,
		},
		{
			Name: "sheet-delete",
			Options: []domain.OptionSpec{
				{Name: "workbook-name", Value: domain.ValueDocument},
				{Name: "sheet", Value: domain.ValueSheet, Required: true},
			},
			ContextFillable: ctxBindings[:1],
			Effects: []domain.ContextEffect{
				{Field: domain.FieldSheet, Option: "sheet", Action: domain.EffectClear},
			},
			SupportsCompletion: true,
		},
		{
			Name:    "macro-run",
			Options: []domain.OptionSpec{{Name: "name", Value: domain.ValueText}},
		},
	}
}

func findCommand(name string) domain.CommandDescriptor {
	for _, desc := range testCatalog() {
		if desc.Name == name {
			return desc
		}
	}
	panic("no test command " + name)
}
