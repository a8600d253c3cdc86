package shell

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/doeshing/sheetsh/internal/domain"
	"github.com/doeshing/sheetsh/internal/ports"
)

// Store owns the session's working context. It is the only place the
// context is mutated, and a failed mutation leaves the previous value intact.
type Store struct {
	current domain.Context
	query   ports.ContextQuery
	timeout time.Duration
}

// NewStore builds a Store that validates switches against query. Every
// query is bounded; a non-positive timeout selects the default.
func NewStore(query ports.ContextQuery, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = domain.DefaultQueryTimeout
	}
	return &Store{query: query, timeout: timeout}
}

// Current returns a snapshot of the context.
func (s *Store) Current() domain.Context {
	return s.current
}

// Detect seeds the context from the document host's active document and
// sheet. Failures leave the context unchanged.
func (s *Store) Detect(ctx context.Context) error {
	document, err := call(ctx, s.timeout, s.query.ActiveDocument)
	if err != nil {
		return unavailable(err, "cannot detect the active document")
	}
	if document == "" {
		return nil
	}
	next := domain.Context{Document: document}
	next.Sheet = s.activeSheet(ctx, document)
	s.current = next
	return nil
}

// UseDocument switches to document, which must be open. The sheet becomes
// the document's active sheet, or none when that cannot be determined.
func (s *Store) UseDocument(ctx context.Context, document string) error {
	documents, err := call(ctx, s.timeout, s.query.ListOpenDocuments)
	if err != nil {
		return unavailable(err, "cannot list open documents")
	}
	name, ok := matchName(documents, document)
	if !ok {
		return domain.NewError(domain.KindResourceUnavailable, "document %q is not open", document)
	}
	next := s.current.WithDocument(name)
	if next.Sheet == "" {
		next.Sheet = s.activeSheet(ctx, name)
	}
	s.current = next
	return nil
}

// UseSheet switches to sheet, which must exist in the current document.
func (s *Store) UseSheet(ctx context.Context, sheet string) error {
	document := s.current.Document
	if document == "" {
		return domain.NewError(domain.KindResourceUnavailable, "no document selected; run: use document <name>")
	}
	sheets, err := call(ctx, s.timeout, func(c context.Context) ([]string, error) {
		return s.query.ListSheets(c, document)
	})
	if err != nil {
		return unavailable(err, "cannot list sheets of %q", document)
	}
	name, ok := matchName(sheets, sheet)
	if !ok {
		return domain.NewError(domain.KindResourceUnavailable, "sheet %q does not exist in %q", sheet, document)
	}
	s.current = s.current.WithSheet(name)
	return nil
}

// ApplyEffects updates the context after desc succeeded with inv. It reports
// whether the context changed.
func (s *Store) ApplyEffects(ctx context.Context, desc domain.CommandDescriptor, inv domain.Invocation) bool {
	before := s.current
	next := before
	value := func(option string) (string, bool) {
		return dispatchedValue(inv, desc, before, option)
	}
	// Sheet effects only apply when the command addressed the context document.
	addressesContext := func() bool {
		option, ok := desc.OptionFor(domain.FieldDocument)
		if !ok {
			return true
		}
		document, ok := value(option)
		return !ok || strings.EqualFold(document, next.Document)
	}

	for _, effect := range desc.Effects {
		v, ok := value(effect.Option)
		if !ok || v == "" {
			continue
		}
		if effect.Basename {
			v = baseName(v)
		}
		switch effect.Action {
		case domain.EffectSet:
			if effect.Match != "" {
				m, ok := value(effect.Match)
				if !ok || !strings.EqualFold(m, before.Value(effect.Field)) {
					continue
				}
			}
			switch effect.Field {
			case domain.FieldDocument:
				next = next.WithDocument(v)
			case domain.FieldSheet:
				if next.Document != "" && addressesContext() {
					next = next.WithSheet(v)
				}
			}
		case domain.EffectClear:
			if !strings.EqualFold(v, before.Value(effect.Field)) {
				continue
			}
			switch effect.Field {
			case domain.FieldDocument:
				next = domain.Context{}
			case domain.FieldSheet:
				if addressesContext() {
					next = next.WithSheet("")
				}
			}
		}
	}

	if next.Document != "" && next.Document != before.Document && next.Sheet == "" {
		next.Sheet = s.activeSheet(ctx, next.Document)
	}
	s.current = next
	return next != before
}

func (s *Store) activeSheet(ctx context.Context, document string) string {
	sheet, err := call(ctx, s.timeout, func(c context.Context) (string, error) {
		return s.query.ActiveSheet(c, document)
	})
	if err != nil {
		return ""
	}
	return sheet
}

func call[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()
	return bounded(ctx, fn)
}

// unavailable classifies a failed live query as ResourceUnavailable unless
// it already carries a kind.
func unavailable(err error, format string, args ...any) error {
	var de *domain.Error
	if errors.As(err, &de) && de.Kind == domain.KindResourceUnavailable {
		return err
	}
	e := domain.WrapError(domain.KindResourceUnavailable, err, format, args...)
	e.Message += ": " + err.Error()
	return e
}

// matchName finds want in names, preferring an exact match over a
// case-insensitive one. Document hosts treat these names case-insensitively.
func matchName(names []string, want string) (string, bool) {
	for _, name := range names {
		if name == want {
			return name, true
		}
	}
	for _, name := range names {
		if strings.EqualFold(name, want) {
			return name, true
		}
	}
	return "", false
}

// baseName strips directories using either separator.
func baseName(path string) string {
	if idx := strings.LastIndexAny(path, `/\`); idx >= 0 {
		return path[idx+1:]
	}
	return path
}
