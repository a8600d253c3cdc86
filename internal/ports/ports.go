// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// The shell core in internal/application depends only on these interfaces.
// Adapters in internal/infrastructure talk to the automation backend, the
// terminal and the filesystem.
//
// Key architectural concepts:
//   - Ports: Interfaces defined here (e.g., CommandRegistry, ContextQuery)
//   - Adapters: Concrete implementations in the infrastructure layer
//   - Dependency inversion: Application depends on abstractions, not implementations
package ports

import (
	"context"
	"errors"

	"github.com/doeshing/sheetsh/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.sheetsh/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// CommandRegistry is the static table of commands the backend understands.
// Execute blocks until the backend returns or ctx is done.
type CommandRegistry interface {
	ListCommands() []domain.CommandDescriptor
	Execute(ctx context.Context, name string, args []string) (domain.Result, error)
}

// ContextQuery reads live state from the document host. Every call may fail
// with a domain.KindResourceUnavailable error; callers treat that as
// "no candidates" or "no context".
type ContextQuery interface {
	ListOpenDocuments(ctx context.Context) ([]string, error)
	ListSheets(ctx context.Context, document string) ([]string, error)
	ActiveDocument(ctx context.Context) (string, error)
	ActiveSheet(ctx context.Context, document string) (string, error)
}

// ErrorTranslator turns raw failures into display text. It never changes
// control flow.
type ErrorTranslator interface {
	Translate(err error) domain.Translation
}

// HistoryStore persists accepted input lines in insertion order.
type HistoryStore interface {
	Load() ([]domain.HistoryEntry, error)
	Append(line string) (domain.HistoryEntry, error)
	Clear() error
	Path() string
}

// ErrLineAborted is returned by LineReader.Prompt when the user abandons the
// current line (Ctrl-C at the prompt). The session keeps running.
var ErrLineAborted = errors.New("line aborted")

// LineReader reads one line of input at a time. Prompt returns io.EOF when
// the input stream is closed.
type LineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(line string)
	Close() error
}

// Display renders session output.
type Display interface {
	Result(domain.Result)
	Failure(domain.Translation)
	Message(text string)
	Listing(title string, items []string, current string)
}

// BusyIndicator is shown while a command is dispatching.
type BusyIndicator interface {
	Start()
	Stop()
}

// CompletionFunc resolves candidates for the text before pos.
// start is the byte offset where the replaced fragment begins.
type CompletionFunc func(line string, pos int) (start int, candidates []string)

// Logger provides structured logging abstraction for the application layer.
// Implementations can route to different backends (stdout, files, external services).
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
