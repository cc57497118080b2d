package parser

import (
	"github.com/wippyai/irobf/errors"
	"github.com/wippyai/irobf/ir"
	"github.com/wippyai/irobf/irtext/internal/ast"
	"github.com/wippyai/irobf/irtext/internal/token"
)

type funcBuilder struct {
	p       *Parser
	fn      *ir.Function
	values  map[string]ir.Value
	pending []pending
}

type pending struct {
	in    *ir.Instr
	node  *ast.Node
	args  []*ast.Node
	attrs []*ast.Node
}

// lower builds the body in three passes so that blocks and values can be
// referenced before their definition.
func (fb *funcBuilder) lower(blocks []*ast.Node) error {
	for _, prm := range fb.fn.Params {
		fb.values[prm.Name] = prm
	}

	for _, bn := range blocks {
		args := bn.Args()
		if len(args) == 0 {
			return errors.Syntax(bn.Line, "block needs a name")
		}
		name, err := parseName(args[0], '$')
		if err != nil {
			return err
		}
		if !fb.fn.ReserveName(name) {
			return errors.Syntax(bn.Line, "duplicate name $%s", name)
		}
		fb.fn.AppendBlock(name)
	}

	for i, bn := range blocks {
		b := fb.fn.Blocks[i]
		for _, n := range bn.Args()[1:] {
			in, err := fb.shell(n)
			if err != nil {
				return err
			}
			b.Append(in)
		}
	}

	for _, pd := range fb.pending {
		if pd.in.HasResult() && pd.in.Name == "" {
			pd.in.Name = fb.fn.UniqueName("t")
		}
		if err := fb.fill(pd); err != nil {
			return err
		}
	}
	return nil
}

// shell creates the instruction with its opcode, type and name.
func (fb *funcBuilder) shell(n *ast.Node) (*ir.Instr, error) {
	if !n.IsList {
		return nil, errors.Syntax(n.Line, "expected instruction, got %s", n)
	}
	name := ""
	op := n
	if n.Head() == "let" {
		args := n.Args()
		if err := expectArgs(n, args, 2, 2); err != nil {
			return nil, err
		}
		var err error
		if name, err = parseName(args[0], '$'); err != nil {
			return nil, err
		}
		op = args[1]
	}

	code, ok := ir.ParseOpcode(op.Head())
	if !ok {
		return nil, errors.Syntax(op.Line, "unknown instruction %q", op.Head())
	}
	in := &ir.Instr{Op: code}

	pd := pending{in: in, node: op}
	for _, a := range op.Args() {
		if h := a.Head(); h == "loc" || h == "meta" {
			pd.attrs = append(pd.attrs, a)
		} else {
			pd.args = append(pd.args, a)
		}
	}

	switch {
	case code.IsBinary(), code.IsCast(), code == ir.OpPhi, code == ir.OpLoad,
		code == ir.OpLandingPad, code == ir.OpSelect:
		if len(pd.args) == 0 {
			return nil, errors.Syntax(op.Line, "%s needs a type", code)
		}
		t, err := parseType(pd.args[0])
		if err != nil {
			return nil, err
		}
		in.Typ = t
	case code == ir.OpICmp:
		in.Typ = ir.I1
	case code == ir.OpCall || code == ir.OpInvoke:
		if len(pd.args) == 0 {
			return nil, errors.Syntax(op.Line, "%s needs a callee", code)
		}
		cname, err := parseName(pd.args[0], '$')
		if err != nil {
			return nil, err
		}
		callee := fb.p.mod.Function(cname)
		if callee == nil {
			return nil, errors.Syntax(op.Line, "unknown function $%s", cname)
		}
		in.Callee = callee
		in.Typ = callee.Result
	}

	if name != "" {
		if !in.HasResult() {
			return nil, errors.Syntax(n.Line, "%s produces no value to bind to $%s", code, name)
		}
		if !fb.fn.ReserveName(name) {
			return nil, errors.Syntax(n.Line, "duplicate name $%s", name)
		}
		in.Name = name
		fb.values[name] = in
	}
	fb.pending = append(fb.pending, pd)
	return in, nil
}

// fill resolves operands, targets and attributes.
func (fb *funcBuilder) fill(pd pending) error {
	in, n, args := pd.in, pd.node, pd.args
	var err error
	vals := func(want ir.Type, ns ...*ast.Node) error {
		for _, a := range ns {
			v, err := fb.value(a, want)
			if err != nil {
				return err
			}
			in.Operands = append(in.Operands, v)
		}
		return nil
	}

	switch {
	case in.Op.IsBinary():
		if err = expectArgs(n, args, 3, 3); err == nil {
			err = vals(in.Typ, args[1:]...)
		}
	case in.Op == ir.OpICmp:
		if err = expectArgs(n, args, 4, 4); err != nil {
			return err
		}
		pred, ok := ir.ParsePredicate(args[0].Atom.Value)
		if !ok || args[0].IsList {
			return errors.Syntax(n.Line, "unknown predicate %s", args[0])
		}
		in.Pred = pred
		var t ir.Type
		if t, err = parseType(args[1]); err == nil {
			err = vals(t, args[2:]...)
		}
	case in.Op.IsCast():
		if err = expectArgs(n, args, 2, 2); err == nil {
			err = vals(ir.Void, args[1])
		}
	case in.Op == ir.OpSelect:
		if err = expectArgs(n, args, 4, 4); err == nil {
			if err = vals(ir.I1, args[1]); err == nil {
				err = vals(in.Typ, args[2:]...)
			}
		}
	case in.Op == ir.OpPhi:
		for _, pair := range args[1:] {
			if !pair.IsList || len(pair.List) != 2 {
				return errors.Syntax(pair.Line, "phi incoming must be (value $block)")
			}
			v, err := fb.value(pair.List[0], in.Typ)
			if err != nil {
				return err
			}
			b, err := fb.block(pair.List[1])
			if err != nil {
				return err
			}
			in.AddIncoming(v, b)
		}
	case in.Op == ir.OpLoad:
		if err = expectArgs(n, args, 2, 2); err == nil {
			err = vals(in.Typ, args[1])
		}
	case in.Op == ir.OpStore:
		if err = expectArgs(n, args, 2, 2); err != nil {
			return err
		}
		g, gerr := fb.value(args[1], ir.Void)
		if gerr != nil {
			return gerr
		}
		if _, ok := g.(*ir.Global); !ok {
			return errors.Syntax(n.Line, "store target must be a global, got %s", args[1])
		}
		if err = vals(g.Type(), args[0]); err == nil {
			in.Operands = append(in.Operands, g)
		}
	case in.Op == ir.OpCall:
		err = fb.callArgs(in, n, args[1:])
	case in.Op == ir.OpInvoke:
		var rest []*ast.Node
		for _, a := range args[1:] {
			switch a.Head() {
			case "to", "unwind":
			default:
				rest = append(rest, a)
			}
		}
		if err = fb.callArgs(in, n, rest); err != nil {
			return err
		}
		normal, err := fb.edge(n, args, "to")
		if err != nil {
			return err
		}
		unwind, err := fb.edge(n, args, "unwind")
		if err != nil {
			return err
		}
		in.Targets = []*ir.Block{normal, unwind}
	case in.Op == ir.OpLandingPad:
		err = expectArgs(n, args, 1, 1)
	case in.Op == ir.OpBr:
		if err = expectArgs(n, args, 1, 1); err == nil {
			var b *ir.Block
			if b, err = fb.block(args[0]); err == nil {
				in.Targets = []*ir.Block{b}
			}
		}
	case in.Op == ir.OpCondBr:
		if err = expectArgs(n, args, 3, 3); err != nil {
			return err
		}
		if err = vals(ir.I1, args[0]); err != nil {
			return err
		}
		for _, a := range args[1:] {
			b, err := fb.block(a)
			if err != nil {
				return err
			}
			in.Targets = append(in.Targets, b)
		}
	case in.Op == ir.OpRet:
		if err = expectArgs(n, args, 0, 1); err == nil && len(args) == 1 {
			err = vals(fb.fn.Result, args[0])
		}
	case in.Op == ir.OpUnreachable:
		err = expectArgs(n, args, 0, 0)
	}
	if err != nil {
		return err
	}
	return fb.attrs(in, pd.attrs)
}

func (fb *funcBuilder) callArgs(in *ir.Instr, n *ast.Node, args []*ast.Node) error {
	params := in.Callee.Params
	if len(args) != len(params) {
		return errors.Syntax(n.Line, "call to $%s has %d arguments, want %d", in.Callee.Name, len(args), len(params))
	}
	for i, a := range args {
		v, err := fb.value(a, params[i].Typ)
		if err != nil {
			return err
		}
		in.Operands = append(in.Operands, v)
	}
	return nil
}

func (fb *funcBuilder) edge(n *ast.Node, args []*ast.Node, head string) (*ir.Block, error) {
	for _, a := range args {
		if a.Head() == head {
			if len(a.Args()) != 1 {
				return nil, errors.Syntax(a.Line, "(%s $block) takes one block", head)
			}
			return fb.block(a.Args()[0])
		}
	}
	return nil, errors.Syntax(n.Line, "invoke needs (%s $block)", head)
}

func (fb *funcBuilder) attrs(in *ir.Instr, attrs []*ast.Node) error {
	for _, a := range attrs {
		args := a.Args()
		switch a.Head() {
		case "loc":
			if err := expectArgs(a, args, 3, 3); err != nil {
				return err
			}
			file, err := parseString(args[0])
			if err != nil {
				return err
			}
			line, err := parseInt(args[1])
			if err != nil {
				return err
			}
			col, err := parseInt(args[2])
			if err != nil {
				return err
			}
			in.Loc = &ir.Location{File: file, Line: int(line), Col: int(col)}
		case "meta":
			if err := expectArgs(a, args, 1, 2); err != nil {
				return err
			}
			key, err := parseString(args[0])
			if err != nil {
				return err
			}
			md := ir.Metadata{Key: key}
			if len(args) == 2 {
				if md.Value, err = fb.value(args[1], ir.Void); err != nil {
					return err
				}
			}
			in.Meta = append(in.Meta, md)
		}
	}
	return nil
}

// value resolves an operand. want is the expected type, or Void when the
// operand must carry its own type.
func (fb *funcBuilder) value(n *ast.Node, want ir.Type) (ir.Value, error) {
	var v ir.Value
	switch {
	case n.IsAtom(token.Ident) && len(n.Atom.Value) > 1 && n.Atom.Value[0] == '$':
		lv, ok := fb.values[n.Atom.Value[1:]]
		if !ok {
			return nil, errors.Syntax(n.Line, "unknown value %s", n.Atom.Value)
		}
		v = lv
	case n.IsAtom(token.Ident) && len(n.Atom.Value) > 1 && n.Atom.Value[0] == '@':
		g := fb.p.mod.Global(n.Atom.Value[1:])
		if g == nil {
			return nil, errors.Syntax(n.Line, "unknown global %s", n.Atom.Value)
		}
		v = g
	case n.IsAtom(token.Number):
		if want == ir.Void {
			return nil, errors.Syntax(n.Line, "constant %s needs a type, write (i32 %s)", n.Atom.Value, n.Atom.Value)
		}
		bits, err := parseInt(n)
		if err != nil {
			return nil, err
		}
		v = ir.ConstInt(want, bits)
	case n.IsList && len(n.List) == 2:
		t, err := parseType(n.List[0])
		if err != nil {
			return nil, err
		}
		bits, err := parseInt(n.List[1])
		if err != nil {
			return nil, err
		}
		v = ir.ConstInt(t, bits)
	default:
		return nil, errors.Syntax(n.Line, "expected value, got %s", n)
	}
	if want != ir.Void && v.Type() != want {
		return nil, errors.New(errors.PhaseParse, errors.KindTypeMismatch).
			Line(n.Line).
			Detail("%s is %s, want %s", n, v.Type(), want).
			Build()
	}
	return v, nil
}

func (fb *funcBuilder) block(n *ast.Node) (*ir.Block, error) {
	name, err := parseName(n, '$')
	if err != nil {
		return nil, err
	}
	b := fb.fn.Block(name)
	if b == nil {
		return nil, errors.Syntax(n.Line, "unknown block $%s", name)
	}
	return b, nil
}
