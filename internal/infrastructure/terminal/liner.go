// Package terminal adapts the user's terminal to the shell's line reader.
package terminal

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"
	"golang.org/x/term"

	"github.com/doeshing/sheetsh/internal/ports"
)

// Interactive reports whether stdin and stdout are both terminals.
func Interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// LineEditor reads lines with editing, history navigation and tab completion.
type LineEditor struct {
	state *liner.State
}

// NewLineEditor takes over the terminal. complete may be nil and set later
// with SetCompletion.
func NewLineEditor(complete ports.CompletionFunc) *LineEditor {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	state.SetTabCompletionStyle(liner.TabPrints)
	e := &LineEditor{state: state}
	e.SetCompletion(complete)
	return e
}

// SetCompletion installs the tab completion resolver.
func (e *LineEditor) SetCompletion(complete ports.CompletionFunc) {
	if complete == nil {
		return
	}
	e.state.SetWordCompleter(wordCompleter(complete))
}

// Prompt reads one line. Ctrl-C yields ports.ErrLineAborted; Ctrl-D on an
// empty line yields io.EOF.
func (e *LineEditor) Prompt(prompt string) (string, error) {
	line, err := e.state.Prompt(prompt)
	switch {
	case errors.Is(err, liner.ErrPromptAborted):
		return "", ports.ErrLineAborted
	case errors.Is(err, io.EOF):
		return "", io.EOF
	}
	return line, err
}

// AppendHistory records line for recall. Repeated lines are kept, matching
// the persisted history; liner's own AppendHistory collapses them.
func (e *LineEditor) AppendHistory(line string) {
	if line == "" || strings.ContainsAny(line, "\r\n") {
		return
	}
	_, _ = e.state.ReadHistory(strings.NewReader(line + "\n"))
}

// History returns the recall buffer, oldest first.
func (e *LineEditor) History() []string {
	var buf bytes.Buffer
	if _, err := e.state.WriteHistory(&buf); err != nil || buf.Len() == 0 {
		return nil
	}
	return strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
}

// Close restores the terminal mode.
func (e *LineEditor) Close() error {
	return e.state.Close()
}

// wordCompleter bridges liner's rune cursor to the byte offsets the
// completer works in.
func wordCompleter(complete ports.CompletionFunc) liner.WordCompleter {
	return func(line string, pos int) (string, []string, string) {
		runes := []rune(line)
		pos = max(0, min(pos, len(runes)))
		before := string(runes[:pos])
		tail := string(runes[pos:])
		start, candidates := complete(before, len(before))
		start = max(0, min(start, len(before)))
		return before[:start], candidates, tail
	}
}

var _ ports.LineReader = (*LineEditor)(nil)
