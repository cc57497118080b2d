package parser

import (
	"strconv"
	"strings"

	"github.com/wippyai/irobf/errors"
	"github.com/wippyai/irobf/ir"
	"github.com/wippyai/irobf/irtext/internal/ast"
	"github.com/wippyai/irobf/irtext/internal/token"
)

func parseInt(n *ast.Node) (uint64, error) {
	if !n.IsAtom(token.Number) {
		return 0, errors.Syntax(n.Line, "expected number, got %s", n)
	}
	s := strings.ReplaceAll(n.Atom.Value, "_", "")
	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, errors.Syntax(n.Line, "invalid number %s", n.Atom.Value)
	}
	if neg {
		v = -v
	}
	return v, nil
}

func parseString(n *ast.Node) (string, error) {
	if !n.IsAtom(token.String) {
		return "", errors.Syntax(n.Line, "expected string, got %s", n)
	}
	s, err := strconv.Unquote(`"` + n.Atom.Value + `"`)
	if err != nil {
		return "", errors.Syntax(n.Line, "invalid string literal %q", n.Atom.Value)
	}
	return s, nil
}

func parseType(n *ast.Node) (ir.Type, error) {
	if n.IsAtom(token.Ident) {
		if t, ok := ir.ParseType(n.Atom.Value); ok && t != ir.Void {
			return t, nil
		}
	}
	return ir.Void, errors.Syntax(n.Line, "expected integer type, got %s", n)
}

// parseName returns the identifier after the sigil.
func parseName(n *ast.Node, sigil byte) (string, error) {
	if n.IsAtom(token.Ident) && len(n.Atom.Value) > 1 && n.Atom.Value[0] == sigil {
		return n.Atom.Value[1:], nil
	}
	return "", errors.Syntax(n.Line, "expected %c-name, got %s", sigil, n)
}

func expectArgs(n *ast.Node, args []*ast.Node, lo, hi int) error {
	if len(args) < lo || (hi >= 0 && len(args) > hi) {
		return errors.Syntax(n.Line, "%s: wrong number of arguments (%d)", n.Head(), len(args))
	}
	return nil
}
