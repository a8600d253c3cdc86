package translator

import (
	"errors"
	"strings"
	"testing"

	"github.com/doeshing/sheetsh/internal/domain"
)

func TestTranslateKnownCodes(t *testing.T) {
	tr, err := New(nil)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "code in details",
			err:  &domain.Error{Kind: domain.KindCommandFailed, Message: "Exception from HRESULT", Details: map[string]any{"code": "0x800a03ec"}},
			want: "rejected the request",
		},
		{
			name: "numeric code",
			err:  &domain.Error{Kind: domain.KindCommandFailed, Message: "call failed", Details: map[string]any{"code": float64(-2146777998)}},
			want: "busy",
		},
		{
			name: "code in message",
			err:  domain.NewError(domain.KindResourceUnavailable, "The RPC server is unavailable. (0x800706BA)"),
			want: "not responding",
		},
		{
			name: "pattern with hint keeps message",
			err:  domain.NewError(domain.KindCommandFailed, "Sheet 'Q4' not found"),
			want: "Sheet 'Q4' not found\nRun sheets",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tr.Translate(tt.err)
			if !strings.Contains(got.Message, tt.want) {
				t.Fatalf("message = %q, want it to contain %q", got.Message, tt.want)
			}
			if got.Kind != domain.KindOf(tt.err) {
				t.Fatalf("kind = %s, want %s", got.Kind, domain.KindOf(tt.err))
			}
		})
	}
}

func TestTranslatePassesThroughUnknown(t *testing.T) {
	tr, err := New(nil)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	got := tr.Translate(&domain.Error{Kind: domain.KindMissingArgument, Message: "--range is required", Details: map[string]any{"argument": "range"}})
	if got.Kind != domain.KindMissingArgument || got.Message != "--range is required" || got.Details["argument"] != "range" {
		t.Fatalf("unexpected translation %+v", got)
	}

	plain := tr.Translate(errors.New("boom"))
	if plain.Kind != domain.KindCommandFailed || plain.Message != "boom" {
		t.Fatalf("unexpected translation %+v", plain)
	}
}

func TestNewRejectsBadPattern(t *testing.T) {
	if _, err := New([]Rule{{Pattern: "("}}); err == nil {
		t.Fatal("expected compile error")
	}
}
