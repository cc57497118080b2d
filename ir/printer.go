package ir

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Print renders m in the s-expression text form.
func Print(m *Module) string {
	var sb strings.Builder
	_ = Fprint(&sb, m)
	return sb.String()
}

// Fprint writes m to w in the s-expression text form.
func Fprint(w io.Writer, m *Module) error {
	p := &printer{}
	p.module(m)
	_, err := io.WriteString(w, p.sb.String())
	return err
}

// PrintFunction renders a single function.
func PrintFunction(f *Function) string {
	p := &printer{}
	p.function(f)
	return p.sb.String()
}

type printer struct {
	sb strings.Builder
}

func (p *printer) printf(format string, args ...any) {
	fmt.Fprintf(&p.sb, format, args...)
}

func (p *printer) module(m *Module) {
	p.printf("(module %s\n", strconv.Quote(m.ID))
	for _, g := range m.Globals {
		p.printf("  (global @%s %s %d)\n", g.Name, g.Typ, g.Typ.SignExtend(g.Init))
	}
	for _, f := range m.Functions {
		p.function(f)
	}
	p.printf(")\n")
}

func (p *printer) function(f *Function) {
	kw := "func"
	if f.IsDeclaration() {
		kw = "declare"
	}
	p.printf("  (%s $%s", kw, f.Name)
	for _, prm := range f.Params {
		p.printf(" (param $%s %s)", prm.Name, prm.Typ)
	}
	if f.Result != Void {
		p.printf(" (result %s)", f.Result)
	}
	if f.Linkage != External {
		p.printf(" (linkage %s)", f.Linkage)
	}
	if len(f.Annotations) > 0 {
		p.printf("\n    (annotate")
		for _, a := range f.Annotations {
			p.printf(" %s", strconv.Quote(a))
		}
		p.printf(")")
	}
	for _, b := range f.Blocks {
		p.printf("\n    (block $%s", b.Name)
		for _, in := range b.Instrs {
			p.printf("\n      %s", FormatInstr(in))
		}
		p.printf(")")
	}
	p.printf(")\n")
}

// FormatInstr renders one instruction.
func FormatInstr(in *Instr) string {
	var sb strings.Builder
	body := formatOp(in)
	if in.Loc != nil {
		body += fmt.Sprintf(" (loc %s %d %d)", strconv.Quote(in.Loc.File), in.Loc.Line, in.Loc.Col)
	}
	for _, m := range in.Meta {
		body += " (meta " + strconv.Quote(m.Key)
		if m.Value != nil {
			body += " " + m.Value.Ref()
		}
		body += ")"
	}
	if in.HasResult() {
		fmt.Fprintf(&sb, "(let %s (%s))", in.Ref(), body)
	} else {
		fmt.Fprintf(&sb, "(%s)", body)
	}
	return sb.String()
}

func formatOp(in *Instr) string {
	parts := []string{in.Op.String()}
	refs := func(vs []Value) {
		for _, v := range vs {
			parts = append(parts, v.Ref())
		}
	}

	switch in.Op {
	case OpICmp:
		parts = append(parts, in.Pred.String(), in.Operands[0].Type().String())
		refs(in.Operands)
	case OpPhi:
		parts = append(parts, in.Typ.String())
		for i, v := range in.Operands {
			parts = append(parts, "("+v.Ref()+" "+in.Targets[i].Ref()+")")
		}
	case OpCall:
		parts = append(parts, "$"+in.Callee.Name)
		refs(in.Operands)
	case OpInvoke:
		parts = append(parts, "$"+in.Callee.Name)
		refs(in.Operands)
		parts = append(parts, "(to "+in.Targets[0].Ref()+")", "(unwind "+in.Targets[1].Ref()+")")
	case OpStore, OpRet, OpCondBr, OpUnreachable:
		refs(in.Operands)
	case OpBr:
	default:
		parts = append(parts, in.Typ.String())
		refs(in.Operands)
	}
	for _, t := range in.Targets {
		if in.Op == OpBr || in.Op == OpCondBr {
			parts = append(parts, t.Ref())
		}
	}
	return strings.Join(parts, " ")
}
