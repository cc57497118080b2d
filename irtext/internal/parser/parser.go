package parser

import (
	"github.com/wippyai/irobf/errors"
	"github.com/wippyai/irobf/ir"
	"github.com/wippyai/irobf/irtext/internal/ast"
	"github.com/wippyai/irobf/irtext/internal/token"
)

type Parser struct {
	mod    *ir.Module
	tokens []token.Token
	pos    int
}

func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse reads a single (module ...) form and builds the IR module.
func (p *Parser) Parse() (*ir.Module, error) {
	root, err := p.parseNode()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t != nil {
		return nil, errors.Syntax(t.Line, "unexpected %q after module", t.Value)
	}
	return p.lowerModule(root)
}

func (p *Parser) peek() *token.Token {
	if p.pos >= len(p.tokens) {
		return nil
	}
	return &p.tokens[p.pos]
}

func (p *Parser) next() *token.Token {
	if p.pos >= len(p.tokens) {
		return nil
	}
	t := &p.tokens[p.pos]
	p.pos++
	return t
}

func (p *Parser) lastLine() int {
	if len(p.tokens) == 0 {
		return 1
	}
	return p.tokens[len(p.tokens)-1].Line
}

// parseNode reads one atom or one balanced list.
func (p *Parser) parseNode() (*ast.Node, error) {
	t := p.next()
	if t == nil {
		return nil, errors.Syntax(p.lastLine(), "unexpected end of input")
	}
	switch t.Type {
	case token.RParen:
		return nil, errors.Syntax(t.Line, "unexpected ')'")
	case token.LParen:
		n := &ast.Node{IsList: true, Line: t.Line}
		for {
			nt := p.peek()
			if nt == nil {
				return nil, errors.Syntax(t.Line, "unclosed '(' opened here")
			}
			if nt.Type == token.RParen {
				p.next()
				return n, nil
			}
			child, err := p.parseNode()
			if err != nil {
				return nil, err
			}
			n.List = append(n.List, child)
		}
	}
	return &ast.Node{Atom: *t, Line: t.Line}, nil
}
