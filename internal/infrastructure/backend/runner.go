// Package backend talks to the automation program that drives the document
// host. Every command and every live query is one process invocation.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/doeshing/sheetsh/internal/domain"
	"github.com/doeshing/sheetsh/internal/ports"
)

// Output is what one backend invocation produced.
type Output struct {
	// Result is the envelope's result payload when Enveloped.
	Result json.RawMessage
	// Raw is stdout as written.
	Raw       string
	Enveloped bool
	Duration  time.Duration
}

type envelope struct {
	Success *bool           `json:"success"`
	Result  json.RawMessage `json:"result"`
	Error   *envelopeError  `json:"error"`
}

type envelopeError struct {
	Kind    string         `json:"kind"`
	Message string         `json:"message"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details"`
}

// waitDelay bounds how long a killed backend may hold its output pipes open.
const waitDelay = 2 * time.Second

// Runner executes backend commands as child processes.
type Runner struct {
	command string
	prefix  []string
	logger  ports.Logger
}

// NewRunner builds a runner for command, prepending prefix to every call.
func NewRunner(command string, prefix []string, logger ports.Logger) *Runner {
	return &Runner{command: command, prefix: prefix, logger: logger}
}

// Command returns the backend executable.
func (r *Runner) Command() string {
	return r.command
}

// Run executes name with args. The process is killed when ctx is done.
func (r *Runner) Run(ctx context.Context, name string, args []string) (Output, error) {
	argv := make([]string, 0, len(r.prefix)+1+len(args))
	argv = append(argv, r.prefix...)
	argv = append(argv, name)
	argv = append(argv, args...)

	c := exec.CommandContext(ctx, r.command, argv...)
	c.WaitDelay = waitDelay
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	start := time.Now()
	err := c.Run()
	out := Output{Raw: stdout.String(), Duration: time.Since(start)}
	if r.logger != nil {
		r.logger.Debug("backend call", map[string]interface{}{
			"command":     name,
			"duration_ms": out.Duration.Milliseconds(),
			"failed":      err != nil,
		})
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return out, ctxErr
	}
	if errors.Is(err, exec.ErrNotFound) {
		return out, domain.WrapError(domain.KindResourceUnavailable, err, "backend %q not found on PATH", r.command)
	}

	if env, ok := decodeEnvelope(stdout.Bytes()); ok {
		out.Enveloped = true
		if *env.Success {
			out.Result = env.Result
			return out, nil
		}
		return out, envelopeFailure(name, env.Error)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		msg := firstLine(stderr.String())
		if msg == "" {
			msg = firstLine(stdout.String())
		}
		if msg == "" {
			msg = exitErr.Error()
		}
		return out, &domain.Error{
			Kind:    domain.KindCommandFailed,
			Message: msg,
			Details: map[string]any{"exit_code": exitErr.ExitCode()},
			Err:     err,
		}
	}
	if err != nil {
		return out, domain.WrapError(domain.KindResourceUnavailable, err, "cannot run backend %q: %v", r.command, err)
	}
	return out, nil
}

func decodeEnvelope(data []byte) (envelope, bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return envelope{}, false
	}
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil || env.Success == nil {
		return envelope{}, false
	}
	return env, true
}

func envelopeFailure(name string, e *envelopeError) error {
	if e == nil {
		return domain.NewError(domain.KindCommandFailed, "%s failed", name)
	}
	details := e.Details
	if e.Code != "" {
		if details == nil {
			details = map[string]any{}
		}
		details["code"] = e.Code
	}
	msg := e.Message
	if msg == "" {
		msg = name + " failed"
	}
	return &domain.Error{Kind: kindFromBackend(e.Kind), Message: msg, Details: details}
}

// kindFromBackend maps the backend's error kind onto the shell's kinds.
func kindFromBackend(kind string) domain.ErrorKind {
	normalized := strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(kind))
	switch normalized {
	case "missingrequiredargument", "missingargument", "required":
		return domain.KindMissingArgument
	case "resourceunavailable", "notfound", "unavailable", "notrunning":
		return domain.KindResourceUnavailable
	case "parseerror", "invalidargument", "usage":
		return domain.KindParse
	case "timeout":
		return domain.KindDispatchTimeout
	default:
		return domain.KindCommandFailed
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
