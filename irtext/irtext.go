package irtext

import (
	"os"

	"github.com/wippyai/irobf/errors"
	"github.com/wippyai/irobf/ir"
	"github.com/wippyai/irobf/irtext/internal/parser"
	"github.com/wippyai/irobf/irtext/internal/token"
)

// Parse builds a module from its text form.
func Parse(source string) (*ir.Module, error) {
	tokens := token.Tokenize(source)
	p := parser.New(tokens)
	return p.Parse()
}

// ParseFile reads and parses the module stored at path.
func ParseFile(path string) (*ir.Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IO(errors.PhaseParse, path, err)
	}
	return Parse(string(data))
}

// MustParse is like Parse but panics on error. Intended for tests and
// static fixtures.
func MustParse(source string) *ir.Module {
	m, err := Parse(source)
	if err != nil {
		panic(err)
	}
	return m
}
