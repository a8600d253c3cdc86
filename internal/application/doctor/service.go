package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/doeshing/sheetsh/internal/domain"
	"github.com/doeshing/sheetsh/internal/ports"
)

// Service runs environment diagnostics.
type Service struct {
	ConfigProvider ports.ConfigProvider
	Query          ports.ContextQuery
	Registry       ports.CommandRegistry
	History        ports.HistoryStore
	// LookPath resolves the backend executable; exec.LookPath when nil.
	LookPath     func(string) (string, error)
	QueryTimeout time.Duration
}

// Run executes checks and returns a report.
func (s *Service) Run(ctx context.Context) (domain.HealthReport, error) {
	var checks []domain.HealthCheck

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Config file", fmt.Sprintf("load failed: %v", err)))
		return domain.HealthReport{Checks: checks}, err
	}
	checks = append(checks, ok("Config file", fmt.Sprintf("loaded %s", cfg.ConfigFormatVersion)))

	lookPath := s.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	path, err := lookPath(cfg.Backend.Command)
	if err != nil {
		checks = append(checks, fail("Backend binary", fmt.Sprintf("%s not found on PATH", cfg.Backend.Command)))
	} else {
		checks = append(checks, ok("Backend binary", path))
		checks = append(checks, s.reachability(ctx))
	}

	if s.Registry != nil {
		checks = append(checks, ok("Command catalog", fmt.Sprintf("%d commands", len(s.Registry.ListCommands()))))
	} else {
		checks = append(checks, warn("Command catalog", "registry not initialized"))
	}

	checks = append(checks, s.historyCheck())
	return domain.HealthReport{Checks: checks}, nil
}

func (s *Service) reachability(ctx context.Context) domain.HealthCheck {
	if s.Query == nil {
		return warn("Backend reachable", "query adapter not initialized")
	}
	if s.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.QueryTimeout)
		defer cancel()
	}
	documents, err := s.Query.ListOpenDocuments(ctx)
	if err != nil {
		return warn("Backend reachable", err.Error())
	}
	return ok("Backend reachable", fmt.Sprintf("%d open documents", len(documents)))
}

func (s *Service) historyCheck() domain.HealthCheck {
	if s.History == nil {
		return warn("History", "history store not initialized")
	}
	info, err := os.Stat(s.History.Path())
	switch {
	case os.IsNotExist(err):
		return ok("History", fmt.Sprintf("%s (empty)", s.History.Path()))
	case err != nil:
		return warn("History", err.Error())
	}
	return ok("History", fmt.Sprintf("%s (%s)", s.History.Path(), humanize.Bytes(uint64(info.Size()))))
}

func ok(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthOK, Details: details}
}

func warn(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthWarn, Details: details}
}

func fail(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthError, Details: details}
}
