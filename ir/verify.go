package ir

import (
	"fmt"
	"slices"

	"go.uber.org/multierr"

	"github.com/wippyai/irobf/errors"
)

// Verify checks that f is well formed: every block ends in one terminator,
// phis lead their block and agree with its predecessors, operand types
// line up, and every use is dominated by its definition. All problems found
// are returned combined.
func Verify(f *Function) error {
	if f.IsDeclaration() {
		return nil
	}
	v := &verifier{fn: f, blocks: make(map[*Block]bool, len(f.Blocks)), defs: make(map[*Instr]bool)}
	for _, b := range f.Blocks {
		v.blocks[b] = true
		for _, in := range b.Instrs {
			v.defs[in] = true
		}
	}
	for _, b := range f.Blocks {
		v.checkBlock(b)
	}
	if v.err == nil {
		v.checkDominance()
	}
	return v.err
}

// VerifyModule verifies every function of m.
func VerifyModule(m *Module) error {
	var err error
	for _, f := range m.Functions {
		err = multierr.Append(err, Verify(f))
	}
	return err
}

type verifier struct {
	err    error
	fn     *Function
	blocks map[*Block]bool
	defs   map[*Instr]bool
}

func (v *verifier) fail(b *Block, kind errors.Kind, format string, args ...any) {
	path := []string{v.fn.Name}
	if b != nil {
		path = append(path, b.Name)
	}
	v.err = multierr.Append(v.err, errors.New(errors.PhaseVerify, kind).
		Path(path...).
		Detail(format, args...).
		Build())
}

func (v *verifier) checkBlock(b *Block) {
	if len(b.Instrs) == 0 {
		v.fail(b, errors.KindMalformed, "empty block")
		return
	}
	if b.Terminator() == nil {
		v.fail(b, errors.KindMalformed, "block does not end in a terminator")
	}

	preds := b.Predecessors()
	seenNonPhi := false
	for i, in := range b.Instrs {
		if in.block != b {
			v.fail(b, errors.KindMalformed, "%s has wrong parent block", describe(in))
		}
		if in.IsTerminator() && i != len(b.Instrs)-1 {
			v.fail(b, errors.KindMalformed, "terminator %s in the middle of the block", in.Op)
		}
		switch in.Op {
		case OpPhi:
			if seenNonPhi {
				v.fail(b, errors.KindMalformed, "phi %s after non-phi instruction", in.Ref())
			}
			v.checkPhi(b, in, preds)
		case OpLandingPad:
			if i != 0 {
				v.fail(b, errors.KindMalformed, "landingpad must be the first instruction")
			}
			seenNonPhi = true
		default:
			seenNonPhi = true
		}
		for _, t := range in.Targets {
			if !v.blocks[t] {
				v.fail(b, errors.KindMalformed, "%s targets a block outside the function", describe(in))
			}
		}
		for _, op := range in.Operands {
			v.checkOperand(b, in, op)
		}
		v.checkTypes(b, in)
	}
}

func (v *verifier) checkPhi(b *Block, in *Instr, preds []*Block) {
	if len(in.Operands) != len(in.Targets) {
		v.fail(b, errors.KindMalformed, "phi %s has %d values for %d blocks", in.Ref(), len(in.Operands), len(in.Targets))
		return
	}
	if len(in.Targets) != len(preds) {
		v.fail(b, errors.KindMalformed, "phi %s has %d incoming edges, block has %d predecessors", in.Ref(), len(in.Targets), len(preds))
		return
	}
	for _, p := range preds {
		if !slices.Contains(in.Targets, p) {
			v.fail(b, errors.KindMalformed, "phi %s has no entry for predecessor %s", in.Ref(), p.Name)
		}
	}
	for _, op := range in.Operands {
		if op.Type() != in.Typ {
			v.fail(b, errors.KindTypeMismatch, "phi %s: incoming %s is %s", in.Ref(), op.Ref(), op.Type())
		}
	}
}

func (v *verifier) checkOperand(b *Block, in *Instr, op Value) {
	switch o := op.(type) {
	case nil:
		v.fail(b, errors.KindMalformed, "%s has a nil operand", describe(in))
	case *Instr:
		if !v.defs[o] {
			v.fail(b, errors.KindMalformed, "%s uses %s which is not in the function", describe(in), o.Ref())
		} else if !o.HasResult() {
			v.fail(b, errors.KindMalformed, "%s uses %s which has no result", describe(in), o.Ref())
		}
	case *Param:
		if o.Index >= len(v.fn.Params) || v.fn.Params[o.Index] != o {
			v.fail(b, errors.KindMalformed, "%s uses parameter %s of another function", describe(in), o.Ref())
		}
	case *Global:
		if m := v.fn.module; m != nil && m.Global(o.Name) != o {
			v.fail(b, errors.KindMalformed, "%s uses unknown global %s", describe(in), o.Ref())
		}
	}
}

func (v *verifier) checkTypes(b *Block, in *Instr) {
	mismatch := func(format string, args ...any) {
		v.fail(b, errors.KindTypeMismatch, describe(in)+": "+format, args...)
	}
	ops := in.Operands
	want := func(n int) bool {
		if len(ops) != n {
			v.fail(b, errors.KindMalformed, "%s has %d operands, want %d", describe(in), len(ops), n)
			return false
		}
		return true
	}
	targets := func(n int) bool {
		if len(in.Targets) != n {
			v.fail(b, errors.KindMalformed, "%s has %d targets, want %d", describe(in), len(in.Targets), n)
			return false
		}
		return true
	}

	switch {
	case in.Op.IsBinary():
		if want(2) && (ops[0].Type() != in.Typ || ops[1].Type() != in.Typ || !in.Typ.IsInt()) {
			mismatch("operands %s, %s for result %s", ops[0].Type(), ops[1].Type(), in.Typ)
		}
	case in.Op == OpICmp:
		if want(2) && (ops[0].Type() != ops[1].Type() || in.Typ != I1) {
			mismatch("compares %s with %s", ops[0].Type(), ops[1].Type())
		}
	case in.Op == OpZExt || in.Op == OpSExt:
		if want(1) && ops[0].Type().Bits() >= in.Typ.Bits() {
			mismatch("cannot extend %s to %s", ops[0].Type(), in.Typ)
		}
	case in.Op == OpTrunc:
		if want(1) && (ops[0].Type().Bits() <= in.Typ.Bits() || in.Typ == Void) {
			mismatch("cannot truncate %s to %s", ops[0].Type(), in.Typ)
		}
	case in.Op == OpSelect:
		if want(3) && (ops[0].Type() != I1 || ops[1].Type() != in.Typ || ops[2].Type() != in.Typ) {
			mismatch("select arms %s, %s", ops[1].Type(), ops[2].Type())
		}
	case in.Op == OpLoad:
		if want(1) {
			if g, ok := ops[0].(*Global); !ok || g.Typ != in.Typ {
				mismatch("load of %s", ops[0].Ref())
			}
		}
	case in.Op == OpStore:
		if want(2) {
			if g, ok := ops[1].(*Global); !ok || g.Typ != ops[0].Type() {
				mismatch("store of %s into %s", ops[0].Type(), ops[1].Ref())
			}
		}
	case in.Op == OpCall || in.Op == OpInvoke:
		if in.Callee == nil {
			v.fail(b, errors.KindMalformed, "%s has no callee", describe(in))
			return
		}
		if in.Op == OpInvoke {
			targets(2)
		}
		if in.Typ != in.Callee.Result {
			mismatch("result %s, callee returns %s", in.Typ, in.Callee.Result)
		}
		if want(len(in.Callee.Params)) {
			for i, p := range in.Callee.Params {
				if ops[i].Type() != p.Typ {
					mismatch("argument %d is %s, want %s", i, ops[i].Type(), p.Typ)
				}
			}
		}
	case in.Op == OpBr:
		targets(1)
	case in.Op == OpCondBr:
		if targets(2) && want(1) && ops[0].Type() != I1 {
			mismatch("condition is %s", ops[0].Type())
		}
	case in.Op == OpRet:
		if v.fn.Result == Void {
			want(0)
		} else if want(1) && ops[0].Type() != v.fn.Result {
			mismatch("returns %s from function returning %s", ops[0].Type(), v.fn.Result)
		}
	}
}

func (v *verifier) checkDominance() {
	dt := Dominators(v.fn)
	for _, b := range v.fn.Blocks {
		if !dt.Reachable(b) {
			continue
		}
		if b.IsEHPad() {
			for _, p := range b.Predecessors() {
				t := p.Terminator()
				if t.Op != OpInvoke || t.Targets[1] != b || t.Targets[0] == b {
					v.fail(b, errors.KindMalformed, "landing pad reached by a non-unwind edge from %s", p.Name)
				}
			}
		}
		for i, in := range b.Instrs {
			for k, op := range in.Operands {
				def, ok := op.(*Instr)
				if !ok || def.block == nil {
					continue
				}
				if in.Op == OpPhi {
					pred := in.Targets[k]
					if dt.Reachable(pred) && !dominatesEdge(dt, def, pred, b) {
						v.fail(b, errors.KindDominance, "%s does not dominate the edge from %s", def.Ref(), pred.Name)
					}
					continue
				}
				if !defDominates(dt, def, b, i) {
					v.fail(b, errors.KindDominance, "%s does not dominate its use in %s", def.Ref(), describe(in))
				}
			}
		}
	}
}

func defDominates(dt *DomTree, def *Instr, useBlock *Block, useIdx int) bool {
	if def.block == useBlock {
		return useBlock.Index(def) < useIdx
	}
	if !dt.Dominates(def.block, useBlock) {
		return false
	}
	// An invoke result is only available on the normal edge.
	if def.Op == OpInvoke {
		return dt.Dominates(def.Targets[0], useBlock)
	}
	return true
}

func dominatesEdge(dt *DomTree, def *Instr, pred, succ *Block) bool {
	if def.block == pred {
		return def.Op != OpInvoke || def.Targets[0] == succ
	}
	return defDominates(dt, def, pred, len(pred.Instrs))
}

func describe(in *Instr) string {
	if in.HasResult() {
		return fmt.Sprintf("%s (%s)", in.Ref(), in.Op)
	}
	return in.Op.String()
}
