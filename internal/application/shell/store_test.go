package shell

import (
	"context"
	"testing"
	"time"

	"github.com/doeshing/sheetsh/internal/domain"
)

func TestUseDocument(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newFakeQuery(), time.Second)

	if err := store.UseDocument(ctx, "sales.xlsx"); err != nil {
		t.Fatalf("UseDocument error: %v", err)
	}
	if got := store.Current(); got != (domain.Context{Document: "sales.xlsx", Sheet: "Sheet1"}) {
		t.Fatalf("context = %+v", got)
	}

	// Names are matched case-insensitively and stored as the host spells them.
	if err := store.UseDocument(ctx, "BUDGET 2024.XLSX"); err != nil {
		t.Fatalf("UseDocument error: %v", err)
	}
	if got := store.Current(); got != (domain.Context{Document: "budget 2024.xlsx", Sheet: "Q1"}) {
		t.Fatalf("context = %+v", got)
	}
}

func TestUseDocumentNotOpen(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newFakeQuery(), time.Second)
	if err := store.UseDocument(ctx, "sales.xlsx"); err != nil {
		t.Fatalf("UseDocument error: %v", err)
	}
	before := store.Current()

	err := store.UseDocument(ctx, "missing.xlsx")
	if !domain.IsKind(err, domain.KindResourceUnavailable) {
		t.Fatalf("expected ResourceUnavailable, got %v", err)
	}
	if store.Current() != before {
		t.Fatalf("context changed to %+v", store.Current())
	}
}

func TestUseDocumentWithoutActiveSheet(t *testing.T) {
	q := newFakeQuery()
	delete(q.actSheet, "sales.xlsx")
	store := NewStore(q, time.Second)

	if err := store.UseDocument(context.Background(), "sales.xlsx"); err != nil {
		t.Fatalf("UseDocument error: %v", err)
	}
	if got := store.Current(); got != (domain.Context{Document: "sales.xlsx"}) {
		t.Fatalf("context = %+v", got)
	}
}

func TestUseSheet(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newFakeQuery(), time.Second)

	if err := store.UseSheet(ctx, "Data"); !domain.IsKind(err, domain.KindResourceUnavailable) {
		t.Fatalf("UseSheet without document: got %v", err)
	}

	if err := store.UseDocument(ctx, "sales.xlsx"); err != nil {
		t.Fatalf("UseDocument error: %v", err)
	}
	if err := store.UseSheet(ctx, "data"); err != nil {
		t.Fatalf("UseSheet error: %v", err)
	}
	if got := store.Current().Sheet; got != "Data" {
		t.Fatalf("sheet = %q, want Data", got)
	}

	before := store.Current()
	err := store.UseSheet(ctx, "DoesNotExist")
	if !domain.IsKind(err, domain.KindResourceUnavailable) {
		t.Fatalf("expected ResourceUnavailable, got %v", err)
	}
	if store.Current() != before {
		t.Fatalf("context changed to %+v", store.Current())
	}
}

func TestStoreQueryFailureKeepsContext(t *testing.T) {
	ctx := context.Background()
	q := newFakeQuery()
	store := NewStore(q, time.Second)
	if err := store.UseDocument(ctx, "sales.xlsx"); err != nil {
		t.Fatalf("UseDocument error: %v", err)
	}
	before := store.Current()

	q.err = errBoom
	if err := store.UseDocument(ctx, "budget 2024.xlsx"); !domain.IsKind(err, domain.KindResourceUnavailable) {
		t.Fatalf("expected ResourceUnavailable, got %v", err)
	}
	if store.Current() != before {
		t.Fatalf("context changed to %+v", store.Current())
	}
}

func TestStoreQueryTimeout(t *testing.T) {
	q := newFakeQuery()
	q.block = true
	store := NewStore(q, 20*time.Millisecond)

	start := time.Now()
	err := store.UseDocument(context.Background(), "sales.xlsx")
	if !domain.IsKind(err, domain.KindResourceUnavailable) {
		t.Fatalf("expected ResourceUnavailable, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("query was not bounded: %s", elapsed)
	}
}

func TestStoreNonPositiveTimeoutUsesDefault(t *testing.T) {
	for _, timeout := range []time.Duration{0, -time.Second} {
		if got := NewStore(newFakeQuery(), timeout).timeout; got != domain.DefaultQueryTimeout {
			t.Fatalf("NewStore(%s) timeout = %s, want %s", timeout, got, domain.DefaultQueryTimeout)
		}
	}
}

func TestDetect(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newFakeQuery(), time.Second)
	if err := store.Detect(ctx); err != nil {
		t.Fatalf("Detect error: %v", err)
	}
	if got := store.Current(); got != (domain.Context{Document: "sales.xlsx", Sheet: "Sheet1"}) {
		t.Fatalf("context = %+v", got)
	}

	q := newFakeQuery()
	q.err = errHostDown
	store = NewStore(q, time.Second)
	if err := store.Detect(ctx); err == nil {
		t.Fatal("expected detection error")
	}
	if !store.Current().IsEmpty() {
		t.Fatalf("context = %+v, want empty", store.Current())
	}
}

func TestApplyEffects(t *testing.T) {
	full := domain.Context{Document: "sales.xlsx", Sheet: "Sheet1"}

	tests := []struct {
		name    string
		start   domain.Context
		line    string
		want    domain.Context
		changed bool
	}{
		{
			name:    "open sets document from path basename",
			start:   domain.Context{},
			line:    `workbook-open --path "C:\Reports\budget 2024.xlsx"`,
			want:    domain.Context{Document: "budget 2024.xlsx", Sheet: "Q1"},
			changed: true,
		},
		{
			name:    "close of context document clears everything",
			start:   full,
			line:    "workbook-close",
			want:    domain.Context{},
			changed: true,
		},
		{
			name:  "close of another document keeps context",
			start: full,
			line:  `workbook-close --workbook-name "budget 2024.xlsx"`,
			want:  full,
		},
		{
			name:    "activate sets sheet",
			start:   full,
			line:    "sheet-activate --sheet Data",
			want:    domain.Context{Document: "sales.xlsx", Sheet: "Data"},
			changed: true,
		},
		{
			name:  "activate in another document keeps sheet",
			start: full,
			line:  `sheet-activate --workbook-name "budget 2024.xlsx" --sheet Q2`,
			want:  full,
		},
		{
			name:    "rename of context sheet follows it",
			start:   full,
			line:    "sheet-rename --new-name Totals",
			want:    domain.Context{Document: "sales.xlsx", Sheet: "Totals"},
			changed: true,
		},
		{
			name:  "rename of another sheet keeps context",
			start: full,
			line:  "sheet-rename --sheet Data --new-name Raw",
			want:  full,
		},
		{
			name:    "delete of context sheet clears it",
			start:   full,
			line:    "sheet-delete --sheet Sheet1",
			want:    domain.Context{Document: "sales.xlsx"},
			changed: true,
		},
		{
			name:  "delete of another sheet keeps it",
			start: full,
			line:  "sheet-delete --sheet Data",
			want:  full,
		},
		{
			name:  "command without effects",
			start: full,
			line:  "range-read --range A1",
			want:  full,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewStore(newFakeQuery(), time.Second)
			store.current = tt.start
			inv, err := Parse(tt.line)
			if err != nil {
				t.Fatalf("Parse error: %v", err)
			}
			changed := store.ApplyEffects(context.Background(), findCommand(inv.Command), inv)
			if changed != tt.changed {
				t.Fatalf("changed = %v, want %v", changed, tt.changed)
			}
			if got := store.Current(); got != tt.want {
				t.Fatalf("context = %+v, want %+v", got, tt.want)
			}
		})
	}
}
