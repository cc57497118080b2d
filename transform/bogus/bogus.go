// Package bogus guards basic blocks with opaque predicates that branch to
// dead copies of the guarded code.
//
// A transformed block B becomes
//
//	head:  B's phis; p1 = opaque(); condbr p1, body, clone
//	body:  B's other instructions; p2 = opaque(); condbr p2, tail, clone
//	tail:  B's terminator
//	clone: copy of body's instructions; br body
//
// The predicate y < 10 || x*(x+1) % 2 == 0 is true for every x and y, so
// execution always goes head, body, tail and the clone never runs. The
// counters x and y are globals created once per module with random
// initial values.
package bogus

import (
	"math/rand/v2"

	"github.com/wippyai/irobf/errors"
	"github.com/wippyai/irobf/ir"
	"github.com/wippyai/irobf/pipeline"
	"github.com/wippyai/irobf/policy"
	"github.com/wippyai/irobf/stats"
)

// Counters are the globals read by the opaque predicates of one module.
type Counters struct {
	X *ir.Global
	Y *ir.Global
}

// Transform is the bogus control flow pass.
type Transform struct {
	rng      *rand.Rand
	stats    *stats.Collector
	counters map[*ir.Module]Counters
}

// New creates the pass for one pipeline run.
func New(env *pipeline.Env) pipeline.Transform {
	return &Transform{
		rng:      env.Rand,
		stats:    env.Stats,
		counters: make(map[*ir.Module]Counters),
	}
}

// Factory registers the pass with a pipeline registry.
func Factory() pipeline.Factory {
	return pipeline.Factory{Kind: policy.BogusControlFlow, Scope: pipeline.ScopeFunction, New: New}
}

func (t *Transform) Kind() policy.Kind { return policy.BogusControlFlow }

// Finalize drops the per-module counter cache. Counters left without a
// reader, because every function that used them was restored, are removed
// from their module.
func (t *Transform) Finalize() error {
	for m, c := range t.counters {
		for _, g := range []*ir.Global{c.X, c.Y} {
			if !m.Uses(g) {
				m.RemoveGlobal(g)
			}
		}
	}
	clear(t.counters)
	return nil
}

// CountersFor returns the counters of m, creating them on first use.
func (t *Transform) CountersFor(m *ir.Module) Counters {
	if c, ok := t.counters[m]; ok {
		return c
	}
	c := Counters{
		X: m.AddGlobal("x", ir.I32, t.rng.Uint64()),
		Y: m.AddGlobal("y", ir.I32, t.rng.Uint64()),
	}
	t.counters[m] = c
	return c
}

// RunOnFunction transforms each eligible block of f with probability
// eff.Level percent. Blocks ending in invoke and exception handling
// entries are never transformed.
func (t *Transform) RunOnFunction(f *ir.Function, eff policy.Effective) (bool, error) {
	m := f.Module()
	if m == nil {
		return false, errors.New(errors.PhaseTransform, errors.KindInvalidData).
			Path(f.Name).
			Detail("function is not part of a module").
			Build()
	}

	changed := false
	for _, b := range append([]*ir.Block(nil), f.Blocks...) {
		if !eligible(b) {
			continue
		}
		if t.rng.IntN(100) >= int(min(eff.Level, 100)) {
			continue
		}
		t.guard(b, t.CountersFor(m))
		t.stats.BogusBlock()
		changed = true
	}
	return changed, nil
}

func eligible(b *ir.Block) bool {
	term := b.Terminator()
	if term == nil || term.Op == ir.OpInvoke {
		return false
	}
	return !b.IsEHPad()
}

// guard rewrites head into the head, body, tail and clone layout.
func (t *Transform) guard(head *ir.Block, c Counters) {
	body := head.SplitAt(head.FirstNonPhi(), head.Name+".body")
	body.SplitAt(len(body.Instrs)-1, head.Name+".tail")
	clone, _ := ir.CloneBlock(body, head.Name+".bogus")

	clone.Remove(clone.Terminator())
	ir.NewBuilder(clone).Br(body)

	for _, blk := range []*ir.Block{head, body} {
		term := blk.Terminator()
		next := term.Targets[0]
		loc := term.Loc
		blk.Remove(term)

		b := ir.NewBuilder(blk).SetLoc(loc)
		b.CondBr(Predicate(b, c), next, clone)
	}
}

// Predicate emits y < 10 || x*(x+1) % 2 == 0 at b.
func Predicate(b *ir.Builder, c Counters) ir.Value {
	x := b.Load(c.X)
	y := b.Load(c.Y)
	small := b.ICmp(ir.PredSLT, y, ir.ConstInt(ir.I32, 10))
	prod := b.Mul(b.Add(x, ir.ConstInt(ir.I32, 1)), x)
	even := b.ICmp(ir.PredEQ, b.URem(prod, ir.ConstInt(ir.I32, 2)), ir.ConstInt(ir.I32, 0))
	return b.Or(small, even)
}
