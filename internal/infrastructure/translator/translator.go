// Package translator turns backend failures into readable messages.
package translator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/doeshing/sheetsh/internal/domain"
	"github.com/doeshing/sheetsh/internal/ports"
)

// Rule rewrites failures whose code or message matches Pattern.
type Rule struct {
	Code    string
	Pattern string
	Message string
	// Hint is appended on its own line when set.
	Hint string
}

type compiledRule struct {
	re   *regexp.Regexp
	rule Rule
}

// Translator implements ports.ErrorTranslator with an ordered rule table.
// The first matching rule wins.
type Translator struct {
	rules []compiledRule
}

// New compiles rules. A nil slice selects the built-in table.
func New(rules []Rule) (*Translator, error) {
	if rules == nil {
		rules = DefaultRules()
	}
	compiled := make([]compiledRule, 0, len(rules))
	for _, rule := range rules {
		c := compiledRule{rule: rule}
		if rule.Pattern != "" {
			re, err := regexp.Compile(rule.Pattern)
			if err != nil {
				return nil, fmt.Errorf("translator rule %q: %w", rule.Pattern, err)
			}
			c.re = re
		}
		compiled = append(compiled, c)
	}
	return &Translator{rules: compiled}, nil
}

// Translate classifies err and, when a rule matches, replaces its message.
func (t *Translator) Translate(err error) domain.Translation {
	if err == nil {
		return domain.Translation{}
	}
	out := domain.Translation{Kind: domain.KindCommandFailed, Message: err.Error()}
	var de *domain.Error
	if errors.As(err, &de) {
		out = domain.Translation{Kind: de.Kind, Message: de.Message, Details: de.Details}
		if out.Message == "" && de.Err != nil {
			out.Message = de.Err.Error()
		}
	}
	code := codeOf(out.Details)
	for _, c := range t.rules {
		if !c.matches(code, out.Message) {
			continue
		}
		msg := c.rule.Message
		if msg == "" {
			msg = out.Message
		}
		if c.rule.Hint != "" {
			msg += "\n" + c.rule.Hint
		}
		out.Message = msg
		return out
	}
	return out
}

func (c compiledRule) matches(code, message string) bool {
	if c.rule.Code != "" && (strings.EqualFold(code, c.rule.Code) || containsFold(message, c.rule.Code)) {
		return true
	}
	return c.re != nil && c.re.MatchString(message)
}

func codeOf(details map[string]any) string {
	if details == nil {
		return ""
	}
	switch v := details["code"].(type) {
	case string:
		return v
	case float64:
		// JSON numbers arrive as float64; HRESULTs are printed in hex.
		return fmt.Sprintf("0x%08X", uint32(int64(v)))
	case int:
		return fmt.Sprintf("0x%08X", uint32(v))
	default:
		return ""
	}
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// DefaultRules covers the failures the automation host reports most often.
func DefaultRules() []Rule {
	return []Rule{
		{Code: "0x800A03EC", Message: "The document host rejected the request (invalid range, name or argument)."},
		{Code: "0x800AC472", Message: "The document host is busy.", Hint: "Finish any open cell edit or dialog and try again."},
		{Code: "0x800706BA", Message: "The document host is not responding (RPC server unavailable).", Hint: "Check that the application is running."},
		{Code: "0x80010001", Message: "The document host refused the call because it is busy.", Hint: "Try again in a moment."},
		{Code: "0x8001010A", Message: "The document host is busy processing another request.", Hint: "Try again in a moment."},
		{Code: "0x800401E3", Message: "No running document host was found.", Hint: "Start the application and open a workbook."},
		{Pattern: `(?i)workbook .* (not found|is not open)`, Hint: "Run workbooks to see open documents."},
		{Pattern: `(?i)(work)?sheet .* (not found|does not exist)`, Hint: "Run sheets to see the sheets of the working document."},
	}
}

var _ ports.ErrorTranslator = (*Translator)(nil)
