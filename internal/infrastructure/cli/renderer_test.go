package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/doeshing/sheetsh/internal/domain"
)

func TestRendererPlainOutput(t *testing.T) {
	tests := []struct {
		name    string
		render  func(r *Renderer)
		wantOut string
		wantErr string
	}{
		{
			name:    "text result",
			render:  func(r *Renderer) { r.Result(domain.Result{Command: "range-read", Output: "1\t2\n"}) },
			wantOut: "1\t2\n",
		},
		{
			name: "structured result",
			render: func(r *Renderer) {
				r.Result(domain.Result{Command: "range-read", Data: map[string]any{"rows": 2}})
			},
			wantOut: "rows: 2\n",
		},
		{
			name: "empty result",
			render: func(r *Renderer) {
				r.Result(domain.Result{Command: "workbook-save", Duration: 1500 * time.Millisecond})
			},
			wantOut: "workbook-save ok (1.5s)\n",
		},
		{
			name: "failure with details",
			render: func(r *Renderer) {
				r.Failure(domain.Translation{
					Kind:    domain.KindMissingArgument,
					Message: "--range is required",
					Details: map[string]any{"option": "range", "code": "E1"},
				})
			},
			wantErr: "[MissingRequiredArgument] --range is required\n  code: E1\n  option: range\n",
		},
		{
			name: "listing marks current case-insensitively",
			render: func(r *Renderer) {
				r.Listing("Open workbooks", []string{"Sales.xlsx", "budget.xlsx"}, "sales.xlsx")
			},
			wantOut: "Open workbooks:\n* Sales.xlsx\n  budget.xlsx\n",
		},
		{
			name:    "empty listing",
			render:  func(r *Renderer) { r.Listing("Sheets in a.xlsx", nil, "") },
			wantOut: "Sheets in a.xlsx:\n  (none)\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			tt.render(NewRenderer(&out, &errOut, false))
			if diff := cmp.Diff(tt.wantOut, out.String()); diff != "" {
				t.Errorf("stdout mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantErr, errOut.String()); diff != "" {
				t.Errorf("stderr mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRenderCatalogShowsContextBindings(t *testing.T) {
	var out bytes.Buffer
	renderCatalog(&out, []domain.CommandDescriptor{
		{
			Name:    "range-read",
			Summary: "Read cell values",
			ContextFillable: []domain.ContextBinding{
				{Option: "workbook-name", Field: domain.FieldDocument},
				{Option: "sheet", Field: domain.FieldSheet},
			},
		},
		{Name: "workbook-list", Summary: "List open workbooks"},
	})
	got := out.String()
	if !strings.Contains(got, "[--workbook-name<-document --sheet<-sheet]") {
		t.Fatalf("bindings missing from %q", got)
	}
	if !strings.Contains(got, "workbook-list") || strings.Count(got, "\n") != 2 {
		t.Fatalf("unexpected catalog output %q", got)
	}
}

func TestFailureCounter(t *testing.T) {
	var out, errOut bytes.Buffer
	counter := &failureCounter{Display: NewRenderer(&out, &errOut, false)}
	counter.Message("hello")
	counter.Failure(domain.Translation{Kind: domain.KindUnknownCommand, Message: "unknown command"})
	counter.Failure(domain.Translation{Kind: domain.KindParse, Message: "bad quote"})
	if counter.failures != 2 {
		t.Fatalf("failures = %d, want 2", counter.failures)
	}
	if out.String() != "hello\n" {
		t.Fatalf("stdout = %q", out.String())
	}
}
