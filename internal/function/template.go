// Package function implements the dialect function registry: typed SQL
// templates with positional argument placeholders and the renderers that turn
// a function call into SQL fragments.
package function

import (
	"fmt"
	"strconv"
	"strings"
)

// Token is one element of a rendered function call: either literal SQL text or
// a reference to an argument (Arg is the zero-based argument index).
type Token struct {
	Text string
	Arg  int
}

// IsArg reports whether the token refers to an argument.
func (t Token) IsArg() bool { return t.Arg >= 0 }

// Lit returns a literal token.
func Lit(s string) Token { return Token{Text: s, Arg: -1} }

// ArgRef returns a token referring to argument i (zero-based).
func ArgRef(i int) Token { return Token{Arg: i} }

// Fragment is a sequence of tokens. The translator writes literal tokens as-is
// and renders the referenced argument in place of each argument token, so an
// argument may appear zero, one or several times and in any order.
type Fragment []Token

// String substitutes already rendered argument SQL into the fragment.
func (f Fragment) String(args ...string) string {
	var b strings.Builder
	for _, t := range f {
		if t.IsArg() {
			if t.Arg < len(args) {
				b.WriteString(args[t.Arg])
			}
			continue
		}
		b.WriteString(t.Text)
	}
	return b.String()
}

// Template is a parsed pattern such as "position(?1 in ?2)".
type Template struct {
	pattern string
	arity   int
	tokens  Fragment
}

// TemplateError reports a pattern that does not match its declared arity.
type TemplateError struct {
	Pattern string
	Arity   int
	Msg     string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("function: template %q (arity %d): %s", e.Pattern, e.Arity, e.Msg)
}

// ParseTemplate parses pattern and validates it against arity: every
// placeholder must be within 1..arity and the highest placeholder must equal
// arity. A '?' not followed by a digit is literal text.
func ParseTemplate(pattern string, arity int) (*Template, error) {
	if arity < 0 {
		return nil, &TemplateError{Pattern: pattern, Arity: arity, Msg: "negative arity"}
	}
	var (
		tokens  Fragment
		lit     strings.Builder
		highest int
	)
	flush := func() {
		if lit.Len() > 0 {
			tokens = append(tokens, Lit(lit.String()))
			lit.Reset()
		}
	}
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c != '?' || i+1 == len(pattern) || !isDigit(pattern[i+1]) {
			lit.WriteByte(c)
			continue
		}
		j := i + 1
		for j < len(pattern) && isDigit(pattern[j]) {
			j++
		}
		n, _ := strconv.Atoi(pattern[i+1 : j])
		if n < 1 || n > arity {
			return nil, &TemplateError{
				Pattern: pattern, Arity: arity,
				Msg: fmt.Sprintf("placeholder ?%d out of range", n),
			}
		}
		flush()
		tokens = append(tokens, ArgRef(n-1))
		highest = max(highest, n)
		i = j - 1
	}
	flush()
	if highest != arity {
		return nil, &TemplateError{
			Pattern: pattern, Arity: arity,
			Msg: fmt.Sprintf("highest placeholder is ?%d", highest),
		}
	}
	return &Template{pattern: pattern, arity: arity, tokens: tokens}, nil
}

// MustParseTemplate is like ParseTemplate but panics on error. It is intended
// for package-level tables that are verified by tests.
func MustParseTemplate(pattern string, arity int) *Template {
	t, err := ParseTemplate(pattern, arity)
	if err != nil {
		panic(err)
	}
	return t
}

// Pattern returns the source pattern.
func (t *Template) Pattern() string { return t.pattern }

// Arity returns the number of arguments the template consumes.
func (t *Template) Arity() int { return t.arity }

// Render implements Renderer.
func (t *Template) Render(args []Argument) (Fragment, error) {
	if len(args) != t.arity {
		return nil, fmt.Errorf("function: template %q expects %d arguments, got %d", t.pattern, t.arity, len(args))
	}
	return t.tokens, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
