// Package pattern implements the small matching language used to filter
// release and cache listings.
//
// A textual rule wrapped in slashes ("/^solc-v0\.8/") is a regular
// expression; anything else is matched exactly. Prefix and suffix patterns
// can only be built with Prefix and Suffix.
package pattern

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind identifies how a Pattern compares text.
type Kind int

const (
	KindAny Kind = iota
	KindExact
	KindPrefix
	KindSuffix
	KindRegexp
)

func (k Kind) String() string {
	switch k {
	case KindAny:
		return "any"
	case KindExact:
		return "exact"
	case KindPrefix:
		return "prefix"
	case KindSuffix:
		return "suffix"
	case KindRegexp:
		return "regexp"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Pattern is an immutable compiled rule. The zero value matches everything.
type Pattern struct {
	kind Kind
	text string
	re   *regexp.Regexp
}

func Exact(s string) Pattern  { return Pattern{kind: KindExact, text: s} }
func Prefix(s string) Pattern { return Pattern{kind: KindPrefix, text: s} }
func Suffix(s string) Pattern { return Pattern{kind: KindSuffix, text: s} }

// Regexp compiles expr into a pattern that matches anywhere in the text.
func Regexp(expr string) (Pattern, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return Pattern{}, fmt.Errorf("compile pattern %q: %w", expr, err)
	}
	return Pattern{kind: KindRegexp, text: expr, re: re}, nil
}

// Parse compiles a textual rule: /expr/ is a regexp, "" matches
// everything, anything else must match exactly.
func Parse(rule string) (Pattern, error) {
	if rule == "" {
		return Pattern{}, nil
	}
	if len(rule) >= 2 && strings.HasPrefix(rule, "/") && strings.HasSuffix(rule, "/") {
		return Regexp(rule[1 : len(rule)-1])
	}
	return Exact(rule), nil
}

// MustParse is like Parse but panics on an invalid rule.
func MustParse(rule string) Pattern {
	p, err := Parse(rule)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Pattern) Kind() Kind { return p.kind }

// Match reports whether text satisfies the pattern.
func (p Pattern) Match(text string) bool {
	switch p.kind {
	case KindExact:
		return text == p.text
	case KindPrefix:
		return strings.HasPrefix(text, p.text)
	case KindSuffix:
		return strings.HasSuffix(text, p.text)
	case KindRegexp:
		return p.re.MatchString(text)
	default:
		return true
	}
}

// String renders the pattern in the form Parse accepts. Prefix and suffix
// patterns have no textual form of their own and render as regexps.
func (p Pattern) String() string {
	switch p.kind {
	case KindExact:
		return p.text
	case KindPrefix:
		return "/^" + regexp.QuoteMeta(p.text) + "/"
	case KindSuffix:
		return "/" + regexp.QuoteMeta(p.text) + "$/"
	case KindRegexp:
		return "/" + p.text + "/"
	default:
		return ""
	}
}

// UnmarshalText lets patterns be decoded from config files and flags.
func (p *Pattern) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func (p Pattern) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Filter returns the elements of items that match p, preserving order.
func Filter(p Pattern, items []string) []string {
	var out []string
	for _, item := range items {
		if p.Match(item) {
			out = append(out, item)
		}
	}
	return out
}
