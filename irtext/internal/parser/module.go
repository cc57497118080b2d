package parser

import (
	"github.com/wippyai/irobf/errors"
	"github.com/wippyai/irobf/ir"
	"github.com/wippyai/irobf/irtext/internal/ast"
)

type funcDef struct {
	fn   *ir.Function
	body []*ast.Node
}

func (p *Parser) lowerModule(root *ast.Node) (*ir.Module, error) {
	if root.Head() != "module" {
		return nil, errors.Syntax(root.Line, "expected (module ...)")
	}
	args := root.Args()
	if len(args) == 0 {
		return nil, errors.Syntax(root.Line, "module needs an identifier")
	}
	id, err := parseString(args[0])
	if err != nil {
		return nil, err
	}
	p.mod = ir.NewModule(id)

	var defs []funcDef
	for _, n := range args[1:] {
		switch n.Head() {
		case "global":
			if err := p.lowerGlobal(n); err != nil {
				return nil, err
			}
		case "func", "declare":
			def, err := p.lowerSignature(n)
			if err != nil {
				return nil, err
			}
			defs = append(defs, def)
		default:
			return nil, errors.Syntax(n.Line, "unexpected module field %s", n)
		}
	}

	for _, def := range defs {
		if len(def.body) == 0 {
			continue
		}
		fb := &funcBuilder{p: p, fn: def.fn, values: make(map[string]ir.Value)}
		if err := fb.lower(def.body); err != nil {
			return nil, err
		}
	}
	return p.mod, nil
}

// (global @name type init)
func (p *Parser) lowerGlobal(n *ast.Node) error {
	args := n.Args()
	if err := expectArgs(n, args, 2, 3); err != nil {
		return err
	}
	name, err := parseName(args[0], '@')
	if err != nil {
		return err
	}
	if p.mod.Global(name) != nil {
		return errors.Syntax(n.Line, "duplicate global @%s", name)
	}
	t, err := parseType(args[1])
	if err != nil {
		return err
	}
	var init uint64
	if len(args) == 3 {
		if init, err = parseInt(args[2]); err != nil {
			return err
		}
	}
	p.mod.AddGlobal(name, t, init)
	return nil
}

// (func $name (param $p type)* (result type)? (linkage l)? (annotate "..."*)? (block ...)*)
func (p *Parser) lowerSignature(n *ast.Node) (funcDef, error) {
	args := n.Args()
	if len(args) == 0 {
		return funcDef{}, errors.Syntax(n.Line, "%s needs a name", n.Head())
	}
	name, err := parseName(args[0], '$')
	if err != nil {
		return funcDef{}, err
	}
	if p.mod.Function(name) != nil {
		return funcDef{}, errors.Syntax(n.Line, "duplicate function $%s", name)
	}

	var (
		params  []*ir.Param
		result  = ir.Void
		linkage = ir.External
		annots  []string
		body    []*ast.Node
		seen    = make(map[string]bool)
	)
	for _, f := range args[1:] {
		fa := f.Args()
		switch f.Head() {
		case "param":
			if err := expectArgs(f, fa, 2, 2); err != nil {
				return funcDef{}, err
			}
			pname, err := parseName(fa[0], '$')
			if err != nil {
				return funcDef{}, err
			}
			if seen[pname] {
				return funcDef{}, errors.Syntax(f.Line, "duplicate parameter $%s", pname)
			}
			seen[pname] = true
			pt, err := parseType(fa[1])
			if err != nil {
				return funcDef{}, err
			}
			params = append(params, &ir.Param{Name: pname, Typ: pt})
		case "result":
			if err := expectArgs(f, fa, 1, 1); err != nil {
				return funcDef{}, err
			}
			if result, err = parseType(fa[0]); err != nil {
				return funcDef{}, err
			}
		case "linkage":
			if err := expectArgs(f, fa, 1, 1); err != nil {
				return funcDef{}, err
			}
			l, ok := ir.ParseLinkage(fa[0].Atom.Value)
			if !ok {
				return funcDef{}, errors.Syntax(f.Line, "unknown linkage %s", fa[0])
			}
			linkage = l
		case "annotate":
			for _, a := range fa {
				s, err := parseString(a)
				if err != nil {
					return funcDef{}, err
				}
				annots = append(annots, s)
			}
		case "block":
			if n.Head() == "declare" {
				return funcDef{}, errors.Syntax(f.Line, "declaration $%s cannot have blocks", name)
			}
			body = append(body, f)
		default:
			return funcDef{}, errors.Syntax(f.Line, "unexpected function field %s", f)
		}
	}
	if n.Head() == "func" && len(body) == 0 {
		return funcDef{}, errors.Syntax(n.Line, "function $%s has no blocks", name)
	}

	fn := ir.NewFunction(name, result, params...)
	fn.Linkage = linkage
	fn.Annotations = annots
	p.mod.AddFunction(fn)
	return funcDef{fn: fn, body: body}, nil
}
