package doctor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/doeshing/sheetsh/internal/domain"
)

type stubConfig struct {
	cfg domain.Config
	err error
}

func (s stubConfig) Load(context.Context) (domain.Config, error) {
	return s.cfg, s.err
}

type stubQuery struct {
	documents []string
	err       error
}

func (q stubQuery) ListOpenDocuments(context.Context) ([]string, error) {
	return q.documents, q.err
}

func (stubQuery) ListSheets(context.Context, string) ([]string, error) {
	return nil, nil
}

func (stubQuery) ActiveDocument(context.Context) (string, error) {
	return "", nil
}

func (stubQuery) ActiveSheet(context.Context, string) (string, error) {
	return "", nil
}

type stubRegistry struct{ n int }

func (r stubRegistry) ListCommands() []domain.CommandDescriptor {
	return make([]domain.CommandDescriptor, r.n)
}

func (stubRegistry) Execute(context.Context, string, []string) (domain.Result, error) {
	return domain.Result{}, nil
}

type stubHistory struct{ path string }

func (stubHistory) Load() ([]domain.HistoryEntry, error) {
	return nil, nil
}

func (stubHistory) Append(string) (domain.HistoryEntry, error) {
	return domain.HistoryEntry{}, nil
}

func (stubHistory) Clear() error {
	return nil
}

func (h stubHistory) Path() string {
	return h.path
}

func statuses(report domain.HealthReport) map[string]domain.HealthStatus {
	out := map[string]domain.HealthStatus{}
	for _, c := range report.Checks {
		out[c.Name] = c.Status
	}
	return out
}

func TestRun(t *testing.T) {
	historyPath := filepath.Join(t.TempDir(), "history")
	if err := os.WriteFile(historyPath, []byte("show context\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg := domain.Config{ConfigFormatVersion: "1", Backend: domain.BackendSettings{Command: "excel-cli"}}
	found := func(string) (string, error) { return "/usr/local/bin/excel-cli", nil }
	missing := func(string) (string, error) { return "", errors.New("not found") }

	tests := []struct {
		name       string
		svc        Service
		want       map[string]domain.HealthStatus
		wantFailed bool
	}{
		{
			name: "healthy",
			svc: Service{
				ConfigProvider: stubConfig{cfg: cfg},
				Query:          stubQuery{documents: []string{"sales.xlsx"}},
				Registry:       stubRegistry{n: 3},
				History:        stubHistory{path: historyPath},
				LookPath:       found,
			},
			want: map[string]domain.HealthStatus{
				"Config file":       domain.HealthOK,
				"Backend binary":    domain.HealthOK,
				"Backend reachable": domain.HealthOK,
				"Command catalog":   domain.HealthOK,
				"History":           domain.HealthOK,
			},
		},
		{
			name: "backend missing",
			svc: Service{
				ConfigProvider: stubConfig{cfg: cfg},
				Query:          stubQuery{},
				Registry:       stubRegistry{n: 3},
				History:        stubHistory{path: historyPath},
				LookPath:       missing,
			},
			want: map[string]domain.HealthStatus{
				"Config file":     domain.HealthOK,
				"Backend binary":  domain.HealthError,
				"Command catalog": domain.HealthOK,
				"History":         domain.HealthOK,
			},
			wantFailed: true,
		},
		{
			name: "host not running",
			svc: Service{
				ConfigProvider: stubConfig{cfg: cfg},
				Query:          stubQuery{err: domain.NewError(domain.KindResourceUnavailable, "no host")},
				Registry:       stubRegistry{n: 3},
				History:        stubHistory{path: filepath.Join(t.TempDir(), "absent")},
				LookPath:       found,
			},
			want: map[string]domain.HealthStatus{
				"Config file":       domain.HealthOK,
				"Backend binary":    domain.HealthOK,
				"Backend reachable": domain.HealthWarn,
				"Command catalog":   domain.HealthOK,
				"History":           domain.HealthOK,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := tt.svc.Run(context.Background())
			if err != nil {
				t.Fatalf("Run error: %v", err)
			}
			got := statuses(report)
			if len(got) != len(tt.want) {
				t.Fatalf("checks = %v, want %v", got, tt.want)
			}
			for name, status := range tt.want {
				if got[name] != status {
					t.Errorf("%s = %s, want %s", name, got[name], status)
				}
			}
			if report.Failed() != tt.wantFailed {
				t.Fatalf("Failed() = %v, want %v", report.Failed(), tt.wantFailed)
			}
		})
	}
}

func TestRunConfigError(t *testing.T) {
	svc := Service{ConfigProvider: stubConfig{err: errors.New("bad yaml")}}
	report, err := svc.Run(context.Background())
	if err == nil || !report.Failed() {
		t.Fatalf("expected failure, got report %+v err %v", report, err)
	}
}
