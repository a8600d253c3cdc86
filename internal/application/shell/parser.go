package shell

import (
	"strings"

	"github.com/doeshing/sheetsh/internal/domain"
)

// token is one word of an input line after quote removal.
type token struct {
	text   string
	start  int
	quoted bool
}

// scanResult is the lenient tokenization of a (possibly partial) line.
type scanResult struct {
	tokens []token
	// openQuote is the quote character still open at end of input, or 0.
	openQuote byte
	// partial is true when the last token runs to the end of input.
	partial bool
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// scan splits line into tokens. Quotes group text and are stripped;
// backslashes are literal so Windows paths survive untouched.
func scan(line string) scanResult {
	var (
		res   scanResult
		buf   strings.Builder
		cur   token
		inTok bool
		quote byte
	)
	flush := func() {
		if inTok {
			cur.text = buf.String()
			res.tokens = append(res.tokens, cur)
		}
		buf.Reset()
		cur = token{}
		inTok = false
	}
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
				continue
			}
			buf.WriteByte(c)
		case c == '\'' || c == '"':
			if !inTok {
				inTok = true
				cur.start = i
			}
			cur.quoted = true
			quote = c
		case isSpace(c):
			flush()
		default:
			if !inTok {
				inTok = true
				cur.start = i
			}
			buf.WriteByte(c)
		}
	}
	res.openQuote = quote
	res.partial = inTok
	flush()
	return res
}

// optionName reports whether tok is an option and splits an inline value.
func optionName(tok token) (name, value string, inline, ok bool) {
	if tok.quoted || !strings.HasPrefix(tok.text, "--") {
		return "", "", false, false
	}
	name = tok.text[2:]
	if idx := strings.IndexByte(name, '='); idx >= 0 {
		return name[:idx], name[idx+1:], true, true
	}
	return name, "", false, true
}

func isOptionToken(tok token) bool {
	_, _, _, ok := optionName(tok)
	return ok
}

// Parse turns a raw input line into an Invocation.
func Parse(line string) (domain.Invocation, error) {
	res := scan(line)
	if res.openQuote != 0 {
		return domain.Invocation{}, domain.NewError(domain.KindParse, "unterminated %c quote", res.openQuote)
	}
	return build(res.tokens)
}

func build(tokens []token) (domain.Invocation, error) {
	inv := domain.Invocation{Explicit: map[string]bool{}}
	haveCommand := false
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if name, value, inline, ok := optionName(tok); ok {
			if name == "" {
				return domain.Invocation{}, domain.NewError(domain.KindParse, "option name missing after --")
			}
			opt := domain.Option{Name: name}
			switch {
			case inline:
				opt.Value, opt.HasValue = value, true
			case i+1 < len(tokens) && !isOptionToken(tokens[i+1]):
				opt.Value, opt.HasValue = tokens[i+1].text, true
				i++
			}
			inv.Options = append(inv.Options, opt)
			inv.Explicit[name] = true
			continue
		}
		if !haveCommand {
			if tok.text == "" {
				return domain.Invocation{}, domain.NewError(domain.KindParse, "empty command")
			}
			inv.Command = tok.text
			haveCommand = true
			continue
		}
		inv.Args = append(inv.Args, tok.text)
	}
	if !haveCommand {
		return domain.Invocation{}, domain.NewError(domain.KindParse, "empty command")
	}
	return inv, nil
}

// Format serializes an Invocation so that Parse reproduces it. Positional
// arguments are written before options so a boolean option never swallows them.
func Format(inv domain.Invocation) string {
	parts := make([]string, 0, 1+len(inv.Args)+2*len(inv.Options))
	parts = append(parts, Quote(inv.Command))
	for _, arg := range inv.Args {
		parts = append(parts, Quote(arg))
	}
	for _, opt := range inv.Options {
		parts = append(parts, "--"+opt.Name)
		if opt.HasValue {
			parts = append(parts, Quote(opt.Value))
		}
	}
	return strings.Join(parts, " ")
}

// Quote returns s as a single token, quoting it when it holds whitespace or
// quotes, is empty, or would otherwise read as an option.
func Quote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\r\n'\"") && !strings.HasPrefix(s, "--") {
		return s
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	var b strings.Builder
	for i, part := range strings.Split(s, `"`) {
		if i > 0 {
			b.WriteString(`'"'`)
		}
		if part != "" {
			b.WriteString(`"` + part + `"`)
		}
	}
	return b.String()
}
