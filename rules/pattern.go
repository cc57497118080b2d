package rules

import (
	"regexp"
	"strings"
)

// Scope selects what a pattern is matched against.
type Scope uint8

const (
	ScopeFunction Scope = iota // function name
	ScopeModule                // compilation unit identifier
)

func (s Scope) String() string {
	if s == ScopeModule {
		return "module"
	}
	return "function"
}

// Pattern is one parsed pattern line.
type Pattern struct {
	expr     *regexp.Regexp
	Source   string
	Scope    Scope
	Exclude  bool
	Wildcard bool
}

// ParsePattern parses a pattern line. When the regular expression is
// invalid the returned pattern never matches and the compile error is
// returned alongside it.
func ParsePattern(line string) (Pattern, error) {
	p := Pattern{Source: line}
	rest := line
	if strings.HasPrefix(rest, "@") {
		p.Scope = ScopeModule
		rest = rest[1:]
	}
	if strings.HasPrefix(rest, "!") {
		p.Exclude = true
		rest = rest[1:]
	}
	if strings.HasPrefix(rest, "=") {
		p.Wildcard = true
		return p, nil
	}
	// The bare expression must compile on its own, or an unbalanced group
	// such as "a)|(b" would escape the anchors below.
	if _, err := regexp.Compile(rest); err != nil {
		return p, err
	}
	expr, err := regexp.Compile(`^(?:` + rest + `)$`)
	if err != nil {
		return p, err
	}
	p.expr = expr
	return p, nil
}

// MustParsePattern is like ParsePattern but panics on an invalid regex.
func MustParsePattern(line string) Pattern {
	p, err := ParsePattern(line)
	if err != nil {
		panic(err)
	}
	return p
}

// Match reports whether the pattern matches its target. unit is the
// compilation unit identifier and name the function name.
func (p Pattern) Match(unit, name string) bool {
	if p.Wildcard {
		return true
	}
	if p.expr == nil {
		return false
	}
	if p.Scope == ScopeModule {
		return p.expr.MatchString(unit)
	}
	return p.expr.MatchString(name)
}

func (p Pattern) String() string { return p.Source }
