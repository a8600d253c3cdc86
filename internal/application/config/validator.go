package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doeshing/sheetsh/internal/domain"
)

// Validate ensures config structure is consistent.
func Validate(cfg domain.Config) error {
	if err := validateBackend(cfg.Backend); err != nil {
		return err
	}
	if err := validateShell(cfg.Shell); err != nil {
		return err
	}
	if err := validateHistory(cfg.History); err != nil {
		return err
	}
	return nil
}

func validateBackend(backend domain.BackendSettings) error {
	if strings.TrimSpace(backend.Command) == "" {
		return errors.New("backend.command must be set")
	}
	if err := validateDuration("backend.dispatch_timeout", backend.DispatchTimeout); err != nil {
		return err
	}
	if err := validatePositiveDuration("backend.query_timeout", backend.QueryTimeout); err != nil {
		return err
	}
	q := backend.Queries
	for key, value := range map[string]string{
		"list_documents":  q.ListDocuments,
		"list_sheets":     q.ListSheets,
		"active_document": q.ActiveDocument,
		"active_sheet":    q.ActiveSheet,
		"document_option": q.DocumentOption,
	} {
		if value == "" {
			return fmt.Errorf("backend.queries.%s must be set", key)
		}
	}
	return nil
}

func validateShell(shell domain.ShellSettings) error {
	if strings.ContainsAny(shell.Prompt, "\r\n") {
		return errors.New("shell.prompt must be a single line")
	}
	return validatePositiveDuration("shell.completion_timeout", shell.CompletionTimeout)
}

func validateHistory(history domain.HistorySettings) error {
	switch history.Backend {
	case domain.HistoryBackendFile, domain.HistoryBackendSQLite:
	default:
		return fmt.Errorf("history.backend must be file|sqlite, got %s", history.Backend)
	}
	if history.Path == "" {
		return errors.New("history.path must be set")
	}
	if history.MaxEntries < 0 {
		return errors.New("history.max_entries must be >= 0")
	}
	return nil
}

func validateDuration(key, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s invalid: %w", key, err)
	}
	if d < 0 {
		return fmt.Errorf("%s must not be negative", key)
	}
	return nil
}

// validatePositiveDuration is validateDuration for timeouts that must bound
// every call: zero is rejected as well.
func validatePositiveDuration(key, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s invalid: %w", key, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s must be positive", key)
	}
	return nil
}

// Durations returns the parsed timeouts, with defaults for empty values.
// A zero dispatch timeout means no limit; live queries always get a bound.
func Durations(cfg domain.Config) (dispatch, query, completion time.Duration) {
	dispatch = parseOr(cfg.Backend.DispatchTimeout, domain.DefaultDispatchTimeout)
	query = positiveOr(parseOr(cfg.Backend.QueryTimeout, domain.DefaultQueryTimeout), domain.DefaultQueryTimeout)
	completion = positiveOr(parseOr(cfg.Shell.CompletionTimeout, domain.DefaultCompletionTimeout), domain.DefaultCompletionTimeout)
	return dispatch, query, completion
}

func positiveOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

func parseOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
