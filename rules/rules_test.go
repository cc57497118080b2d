package rules

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/irobf/errors"
)

func TestParsePattern(t *testing.T) {
	tests := []struct {
		line     string
		scope    Scope
		exclude  bool
		wildcard bool
	}{
		{"foo.*", ScopeFunction, false, false},
		{"!foobar", ScopeFunction, true, false},
		{"=", ScopeFunction, false, true},
		{"!=", ScopeFunction, true, true},
		{"@=", ScopeModule, false, true},
		{"@!=", ScopeModule, true, true},
		{"@src/.*\\.c", ScopeModule, false, false},
		{"@!vendor/.*", ScopeModule, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			p, err := ParsePattern(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.scope, p.Scope)
			assert.Equal(t, tt.exclude, p.Exclude)
			assert.Equal(t, tt.wildcard, p.Wildcard)
			assert.Equal(t, tt.line, p.String())
		})
	}
}

func TestPattern_Match(t *testing.T) {
	tests := []struct {
		pattern string
		unit    string
		name    string
		want    bool
	}{
		{"foo.*", "a.c", "foobar", true},
		{"foo", "a.c", "foobar", false}, // full match, not substring
		{"bar", "a.c", "foobar", false},
		{"foo|baz", "a.c", "baz", true}, // alternation stays anchored
		{"foo|baz", "a.c", "bazz", false},
		{"@a\\.c", "a.c", "anything", true},
		{"@a\\.c", "b.c", "anything", false},
		{"@=", "whatever.c", "f", true},
		{"@=", "", "f", true},
		{"=", "x", "", true},
		{"main", "main", "other", false}, // function scope ignores the unit
	}
	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.name, func(t *testing.T) {
			p := MustParsePattern(tt.pattern)
			assert.Equal(t, tt.want, p.Match(tt.unit, tt.name))
		})
	}
}

func TestParsePattern_InvalidRegexNeverMatches(t *testing.T) {
	p, err := ParsePattern("foo(")
	require.Error(t, err)
	assert.False(t, p.Match("foo(", "foo("))
	assert.Panics(t, func() { MustParsePattern("[") })
}

func TestParsePattern_UnbalancedGroupsRejected(t *testing.T) {
	tests := []struct {
		line   string
		probes []string
	}{
		{"a)|(b", []string{"a", "b", "a_extra", "my_b"}},
		{"main)|(helper", []string{"main_extra", "my_helper"}},
		{"!main)|(helper", []string{"main_extra", "my_helper"}},
		{"@src)(x", []string{"srcx"}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			p, err := ParsePattern(tt.line)
			require.Error(t, err)
			for _, name := range tt.probes {
				assert.False(t, p.Match(name, name), name)
			}
		})
	}
}

func TestRule_Fires(t *testing.T) {
	rule := func(dir string, pats ...string) Rule {
		r := Rule{Directive: dir}
		for _, p := range pats {
			r.Patterns = append(r.Patterns, MustParsePattern(p))
		}
		return r
	}

	tests := []struct {
		name string
		rule Rule
		unit string
		fn   string
		want bool
	}{
		{"exclusion wins", rule("+sub:", "foo.*", "!foobar"), "a.c", "foobar", false},
		{"exclusion listed first", rule("+sub:", "!foobar", "foo.*"), "a.c", "foobar", false},
		{"inclusion", rule("+sub:", "foo.*", "!foobar"), "a.c", "foobaz", true},
		{"no inclusion", rule("+sub:", "!x"), "a.c", "y", false},
		{"module wildcard", rule("+bcf:", "@="), "any/unit.c", "f", true},
		{"module exclusion", rule("+bcf:", "=", "@!vendor/.*"), "vendor/z.c", "f", false},
		{"module exclusion other unit", rule("+bcf:", "=", "@!vendor/.*"), "src/z.c", "f", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rule.Fires(tt.unit, tt.fn))
		})
	}
}

func TestParse(t *testing.T) {
	src := strings.Join([]string{
		"# leading comment",
		"orphan_pattern",
		"+sub:",
		"foo.*",
		"!foobar",
		"",
		"-bcf:  ",
		"# comment inside block",
		"@=",
		"^sub=4:\r",
		"empty_block_is_replaced:",
		"+fla:",
		"main",
		"trailing_directive_without_patterns:",
	}, "\n")

	s, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, 3, s.Len())

	rules := s.Rules()
	assert.Equal(t, "+sub:", rules[0].Directive)
	assert.Len(t, rules[0].Patterns, 2)
	assert.Equal(t, 3, rules[0].Line)
	assert.Equal(t, "-bcf:  ", rules[1].Directive)
	assert.Len(t, rules[1].Patterns, 1)
	assert.Equal(t, "+fla:", rules[2].Directive)

	assert.Equal(t, []string{"+sub:", "-bcf:  "}, s.Directives("u.c", "foo1"))
	assert.Equal(t, []string{"-bcf:  "}, s.Directives("u.c", "foobar"))
	assert.Equal(t, []string{"-bcf:  ", "+fla:"}, s.Directives("u.c", "main"))
}

func TestParse_BadPatternWarns(t *testing.T) {
	s, err := Parse(strings.NewReader("+sub:\nok_.*\nbad(\n"))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseRules, Kind: errors.KindBadPattern}))
	assert.Contains(t, err.Error(), "line 3")

	require.Equal(t, 1, s.Len())
	assert.Equal(t, []string{"+sub:"}, s.Directives("u", "ok_1"))
	assert.Empty(t, s.Directives("u", "bad("))
}

func TestLoad(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		s, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, 0, s.Len())
	})

	t.Run("missing file", func(t *testing.T) {
		s, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
		require.Error(t, err)
		assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseRules, Kind: errors.KindIO}))
		assert.NotNil(t, s)
		assert.Equal(t, 0, s.Len())
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.txt")
		require.NoError(t, os.WriteFile(path, []byte("+bcf:\n=\n"), 0o644))
		s, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"+bcf:"}, s.Directives("x", "y"))
	})
}

func TestStore_Nil(t *testing.T) {
	var s *Store
	assert.Equal(t, 0, s.Len())
	assert.Nil(t, s.Rules())
	assert.Nil(t, s.Directives("u", "f"))
}
