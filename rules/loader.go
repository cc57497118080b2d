package rules

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/irobf/errors"
)

var directiveLine = regexp.MustCompile(`:\s*$`)

// Load reads the rule file at path. An empty path yields an empty store.
// Problems with the file are returned as warnings next to whatever rules
// could be loaded; the store is never nil.
func Load(path string) (*Store, error) {
	if path == "" {
		return NewStore(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		werr := errors.IO(errors.PhaseRules, path, err)
		Logger().Warn("rule file not loaded", zap.String("path", path), zap.Error(err))
		return NewStore(), werr
	}
	defer f.Close()

	s, err := Parse(f)
	if err != nil {
		Logger().Warn("rule file has problems", zap.String("path", path), zap.Error(err))
	}
	Logger().Debug("rules loaded", zap.String("path", path), zap.Int("count", s.Len()))
	return s, err
}

// Parse reads rules from r. A block is kept only once it has both a
// directive line and at least one pattern line.
func Parse(r io.Reader) (*Store, error) {
	var (
		rules     []Rule
		warnings  error
		directive string
		dirLine   int
		patterns  []Pattern
	)
	commit := func() {
		if directive != "" && len(patterns) > 0 {
			rules = append(rules, Rule{Directive: directive, Patterns: patterns, Line: dirLine})
		}
		patterns = nil
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSuffix(sc.Text(), "\r")
		if strings.HasPrefix(line, "#") {
			continue
		}
		if directiveLine.MatchString(line) {
			commit()
			directive = line
			dirLine = lineNo
			continue
		}
		if directive == "" || line == "" {
			continue
		}
		p, err := ParsePattern(line)
		if err != nil {
			warnings = multierr.Append(warnings, errors.BadPattern(lineNo, line, err))
		}
		patterns = append(patterns, p)
	}
	commit()

	if err := sc.Err(); err != nil {
		warnings = multierr.Append(warnings, errors.Wrap(errors.PhaseRules, errors.KindIO, err, "read rule file"))
	}
	return NewStore(rules...), warnings
}
