// Package shell implements the interactive session: parsing input lines,
// filling context into commands, dispatching them, completing partial input
// and recording history.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/doeshing/sheetsh/internal/domain"
	"github.com/doeshing/sheetsh/internal/ports"
)

// State is a step of the session loop.
type State int

const (
	StateIdle State = iota
	StateReadingLine
	StateClassifying
	StateDispatching
	StateHandlingBuiltin
	StateReportingUnknown
	StateExited
)

var stateNames = [...]string{
	StateIdle:             "idle",
	StateReadingLine:      "reading_line",
	StateClassifying:      "classifying",
	StateDispatching:      "dispatching",
	StateHandlingBuiltin:  "handling_builtin",
	StateReportingUnknown: "reporting_unknown",
	StateExited:           "exited",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// InterruptFunc derives a context that is canceled when the user interrupts
// a running command.
type InterruptFunc func(context.Context) (context.Context, context.CancelFunc)

// Options configures a Session. Registry, Query, Reader and Display are required.
type Options struct {
	Registry          ports.CommandRegistry
	Query             ports.ContextQuery
	Translator        ports.ErrorTranslator
	History           ports.HistoryStore
	Reader            ports.LineReader
	Display           ports.Display
	Busy              ports.BusyIndicator
	Logger            ports.Logger
	Prompt            string
	DispatchTimeout   time.Duration
	QueryTimeout      time.Duration
	CompletionTimeout time.Duration
	HistoryLimit      int
	Interrupts        InterruptFunc
}

// Session is one interactive shell. It processes a single line at a time;
// nothing in it is safe for concurrent use.
type Session struct {
	registry        ports.CommandRegistry
	commands        map[string]domain.CommandDescriptor
	store           *Store
	completer       *Completer
	translator      ports.ErrorTranslator
	history         ports.HistoryStore
	reader          ports.LineReader
	display         ports.Display
	busy            ports.BusyIndicator
	logger          ports.Logger
	prompt          string
	dispatchTimeout time.Duration
	historyLimit    int
	interrupts      InterruptFunc
	state           State
}

// NewSession wires a Session from opts.
func NewSession(opts Options) *Session {
	s := &Session{
		registry:        opts.Registry,
		commands:        map[string]domain.CommandDescriptor{},
		store:           NewStore(opts.Query, opts.QueryTimeout),
		translator:      opts.Translator,
		history:         opts.History,
		reader:          opts.Reader,
		display:         opts.Display,
		busy:            opts.Busy,
		logger:          opts.Logger,
		prompt:          opts.Prompt,
		dispatchTimeout: opts.DispatchTimeout,
		historyLimit:    opts.HistoryLimit,
		interrupts:      opts.Interrupts,
	}
	if s.translator == nil {
		s.translator = passthrough{}
	}
	if s.logger == nil {
		s.logger = nopLogger{}
	}
	if s.prompt == "" {
		s.prompt = domain.DefaultPrompt
	}
	if s.interrupts == nil {
		s.interrupts = func(ctx context.Context) (context.Context, context.CancelFunc) {
			return signal.NotifyContext(ctx, os.Interrupt)
		}
	}
	descriptors := opts.Registry.ListCommands()
	for _, desc := range descriptors {
		s.commands[desc.Name] = desc
	}
	s.completer = NewCompleter(descriptors, opts.Query, s.store.Current, opts.CompletionTimeout, s.logger)
	return s
}

// State returns the current loop state.
func (s *Session) State() State {
	return s.state
}

// Context returns the working context.
func (s *Session) Context() domain.Context {
	return s.store.Current()
}

// Completer exposes the session's completion resolver.
func (s *Session) Completer() *Completer {
	return s.completer
}

// Start seeds the working context. Explicit values are validated like the
// use built-ins; without them the active document is detected when detect
// is set. Failures are reported and leave the context empty.
func (s *Session) Start(ctx context.Context, document, sheet string, detect bool) {
	switch {
	case document != "":
		if err := s.store.UseDocument(ctx, document); err != nil {
			s.fail(err)
			return
		}
		if sheet != "" {
			if err := s.store.UseSheet(ctx, sheet); err != nil {
				s.fail(err)
			}
		}
	case detect:
		if err := s.store.Detect(ctx); err != nil {
			s.logger.Warn("context detection failed", map[string]interface{}{"error": err.Error()})
		}
	}
	s.logger.Info("session context", map[string]interface{}{
		"document": s.store.Current().Document,
		"sheet":    s.store.Current().Sheet,
	})
}

// Prompt renders the prompt with the current context.
func (s *Session) Prompt() string {
	if label := s.store.Current().Label(); label != "" {
		return fmt.Sprintf("%s[%s]> ", s.prompt, label)
	}
	return s.prompt + "> "
}

// Run reads and evaluates lines until exit or end of input.
func (s *Session) Run(ctx context.Context) error {
	s.seedHistory()
	for {
		if err := ctx.Err(); err != nil {
			s.setState(StateExited)
			return err
		}
		s.setState(StateReadingLine)
		line, err := s.reader.Prompt(s.Prompt())
		switch {
		case errors.Is(err, ports.ErrLineAborted):
			s.setState(StateIdle)
			continue
		case errors.Is(err, io.EOF):
			s.setState(StateExited)
			return nil
		case err != nil:
			s.setState(StateExited)
			return fmt.Errorf("read input: %w", err)
		}
		if exited := s.Eval(ctx, line); exited {
			return nil
		}
	}
}

// Eval processes one input line and reports whether the session exited.
func (s *Session) Eval(ctx context.Context, line string) bool {
	if strings.TrimSpace(line) == "" {
		s.setState(StateIdle)
		return false
	}
	s.setState(StateClassifying)
	inv, err := Parse(line)
	switch {
	case err != nil:
		s.setState(StateReportingUnknown)
		s.fail(err)
	default:
		if b, ok := builtinTable[inv.Command]; ok {
			s.setState(StateHandlingBuiltin)
			if err := s.runBuiltin(ctx, b, inv); err != nil {
				if errors.Is(err, errExit) {
					s.setState(StateExited)
					return true
				}
				s.fail(err)
			}
		} else if desc, ok := s.commands[inv.Command]; ok {
			s.setState(StateDispatching)
			s.dispatch(ctx, inv, desc)
		} else {
			s.setState(StateReportingUnknown)
			s.fail(domain.NewError(domain.KindUnknownCommand, "unknown command %q (type help for a list)", inv.Command))
		}
	}
	s.record(line)
	s.setState(StateIdle)
	return false
}

// runBuiltin runs b under the interrupt context so Ctrl-C during a live
// query cancels the built-in instead of the process.
func (s *Session) runBuiltin(ctx context.Context, b builtin, inv domain.Invocation) error {
	runCtx, stop := s.interrupts(ctx)
	defer stop()
	err := b(runCtx, s, inv)
	if err != nil && !errors.Is(err, errExit) && errors.Is(runCtx.Err(), context.Canceled) && ctx.Err() == nil {
		return domain.WrapError(domain.KindDispatchCanceled, err, "%s interrupted", inv.Command)
	}
	return err
}

func (s *Session) dispatch(ctx context.Context, inv domain.Invocation, desc domain.CommandDescriptor) {
	args := Inject(inv, desc, s.store.Current())
	s.logger.Debug("dispatch", map[string]interface{}{"command": desc.Name, "args": args})

	runCtx, stop := s.interrupts(ctx)
	defer stop()
	runCtx, cancel := withTimeout(runCtx, s.dispatchTimeout)
	defer cancel()

	if s.busy != nil {
		s.busy.Start()
	}
	start := time.Now()
	result, err := bounded(runCtx, func(c context.Context) (domain.Result, error) {
		return s.registry.Execute(c, desc.Name, args)
	})
	if s.busy != nil {
		s.busy.Stop()
	}
	if err != nil {
		s.fail(s.classifyDispatch(ctx, runCtx, desc.Name, err))
		return
	}
	if result.Command == "" {
		result.Command = desc.Name
	}
	if result.Duration == 0 {
		result.Duration = time.Since(start)
	}
	s.display.Result(result)
	if s.store.ApplyEffects(ctx, desc, inv) {
		s.logger.Info("context changed", map[string]interface{}{
			"command":  desc.Name,
			"document": s.store.Current().Document,
			"sheet":    s.store.Current().Sheet,
		})
	}
}

// classifyDispatch names timeouts and interrupts; other errors pass through.
func (s *Session) classifyDispatch(parent, runCtx context.Context, name string, err error) error {
	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return domain.WrapError(domain.KindDispatchTimeout, err, "%s did not finish within %s", name, s.dispatchTimeout)
	case errors.Is(runCtx.Err(), context.Canceled) && parent.Err() == nil:
		return domain.WrapError(domain.KindDispatchCanceled, err, "%s interrupted", name)
	default:
		return err
	}
}

func (s *Session) fail(err error) {
	t := s.translator.Translate(err)
	if t.Kind == "" {
		t.Kind = domain.KindOf(err)
	}
	s.display.Failure(t)
	s.logger.Debug("line failed", map[string]interface{}{"kind": string(t.Kind), "error": err.Error()})
}

// record appends an accepted line to the persisted and in-session history.
func (s *Session) record(line string) {
	if s.history != nil {
		if _, err := s.history.Append(line); err != nil {
			s.logger.Warn("history append failed", map[string]interface{}{"error": err.Error()})
		}
	}
	if s.reader != nil {
		s.reader.AppendHistory(line)
	}
}

// seedHistory loads the newest persisted lines into the line editor.
func (s *Session) seedHistory() {
	if s.history == nil || s.reader == nil {
		return
	}
	entries, err := s.history.Load()
	if err != nil {
		s.logger.Warn("history load failed", map[string]interface{}{"error": err.Error()})
		return
	}
	if s.historyLimit > 0 && len(entries) > s.historyLimit {
		entries = entries[len(entries)-s.historyLimit:]
	}
	for _, entry := range entries {
		s.reader.AppendHistory(entry.Line)
	}
}

func (s *Session) setState(next State) {
	if s.state == next {
		return
	}
	s.logger.Debug("state", map[string]interface{}{"from": s.state.String(), "to": next.String()})
	s.state = next
}

type passthrough struct{}

func (passthrough) Translate(err error) domain.Translation {
	var de *domain.Error
	if errors.As(err, &de) {
		return domain.Translation{Kind: de.Kind, Message: de.Message, Details: de.Details}
	}
	return domain.Translation{Kind: domain.KindCommandFailed, Message: err.Error()}
}

type nopLogger struct{}

func (nopLogger) Debug(string, map[string]interface{})        {}
func (nopLogger) Info(string, map[string]interface{})         {}
func (nopLogger) Warn(string, map[string]interface{})         {}
func (nopLogger) Error(string, error, map[string]interface{}) {}
