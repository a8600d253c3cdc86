package terminal

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/doeshing/sheetsh/internal/ports"
)

// PlainReader reads newline-terminated lines from a non-interactive stream.
// The prompt is only echoed when echo is set.
type PlainReader struct {
	scanner *bufio.Scanner
	out     io.Writer
	echo    bool
}

// NewPlainReader reads from in. Prompts go to out when echo is set.
func NewPlainReader(in io.Reader, out io.Writer, echo bool) *PlainReader {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &PlainReader{scanner: scanner, out: out, echo: echo}
}

func (r *PlainReader) Prompt(prompt string) (string, error) {
	if r.echo && r.out != nil {
		fmt.Fprint(r.out, prompt)
	}
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimRight(r.scanner.Text(), "\r"), nil
}

// AppendHistory is a no-op; scripted input has no recall.
func (r *PlainReader) AppendHistory(string) {}

func (r *PlainReader) Close() error {
	return nil
}

var _ ports.LineReader = (*PlainReader)(nil)
