package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/doeshing/sheetsh/internal/domain"
	"github.com/doeshing/sheetsh/internal/ports"
)

// Renderer writes session output. Results and messages go to out, failures
// to errOut.
type Renderer struct {
	out, errOut io.Writer
	heading     lipgloss.Style
	failure     lipgloss.Style
	muted       lipgloss.Style
	marker      lipgloss.Style
}

// NewRenderer builds a renderer. Styles are dropped when color is false.
func NewRenderer(out, errOut io.Writer, color bool) *Renderer {
	r := &Renderer{out: out, errOut: errOut}
	if !color {
		return r
	}
	styles := lipgloss.NewRenderer(out)
	r.heading = styles.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	r.muted = styles.NewStyle().Faint(true)
	r.marker = styles.NewStyle().Foreground(lipgloss.Color("10"))
	r.failure = lipgloss.NewRenderer(errOut).NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	return r
}

// Result prints command output followed by structured data, if any.
func (r *Renderer) Result(res domain.Result) {
	if text := strings.TrimRight(res.Output, "\n"); text != "" {
		fmt.Fprintln(r.out, text)
	}
	if res.Data != nil {
		data, err := yaml.Marshal(res.Data)
		if err != nil {
			fmt.Fprintf(r.out, "%v\n", res.Data)
		} else {
			fmt.Fprint(r.out, string(data))
		}
	}
	if res.Output == "" && res.Data == nil {
		fmt.Fprintln(r.out, r.muted.Render(fmt.Sprintf("%s ok (%s)", res.Command, res.Duration.Round(time.Millisecond))))
	}
}

// Failure prints a translated error as "[Kind] message" with its details.
func (r *Renderer) Failure(t domain.Translation) {
	fmt.Fprintf(r.errOut, "%s %s\n", r.failure.Render("["+string(t.Kind)+"]"), t.Message)
	if len(t.Details) == 0 {
		return
	}
	keys := make([]string, 0, len(t.Details))
	for k := range t.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(r.errOut, "  %s: %v\n", k, t.Details[k])
	}
}

func (r *Renderer) Message(text string) {
	fmt.Fprintln(r.out, text)
}

// Listing prints items under title, marking current.
func (r *Renderer) Listing(title string, items []string, current string) {
	fmt.Fprintln(r.out, r.heading.Render(title+":"))
	if len(items) == 0 {
		fmt.Fprintln(r.out, r.muted.Render("  (none)"))
		return
	}
	for _, item := range items {
		if current != "" && strings.EqualFold(item, current) {
			fmt.Fprintf(r.out, "%s %s\n", r.marker.Render("*"), item)
			continue
		}
		fmt.Fprintf(r.out, "  %s\n", item)
	}
}

var _ ports.Display = (*Renderer)(nil)
