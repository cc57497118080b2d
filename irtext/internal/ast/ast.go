// Package ast holds the untyped s-expression tree read from IR text.
package ast

import "github.com/wippyai/irobf/irtext/internal/token"

// Node is either an atom (a single token) or a parenthesized list.
type Node struct {
	Atom   token.Token
	List   []*Node
	IsList bool
	Line   int
}

// Head returns the leading keyword of a list, or "".
func (n *Node) Head() string {
	if !n.IsList || len(n.List) == 0 || n.List[0].IsList || n.List[0].Atom.Type != token.Ident {
		return ""
	}
	return n.List[0].Atom.Value
}

// Args returns the list elements after the head.
func (n *Node) Args() []*Node {
	if !n.IsList || len(n.List) == 0 {
		return nil
	}
	return n.List[1:]
}

// IsAtom reports whether n is a token of type t.
func (n *Node) IsAtom(t token.Type) bool {
	return !n.IsList && n.Atom.Type == t
}

func (n *Node) String() string {
	if !n.IsList {
		return n.Atom.Value
	}
	s := "("
	for i, c := range n.List {
		if i > 0 {
			s += " "
		}
		s += c.String()
	}
	return s + ")"
}
