// Package substitute replaces integer add, sub, and, or and xor
// instructions with longer sequences that compute the same value.
//
// The function is swept 1+level times. Each sweep visits the matching
// instructions present when it starts, picks one variant uniformly at
// random for each, builds it in place and deletes the original. Later
// sweeps therefore also rewrite the instructions earlier sweeps produced.
package substitute

import (
	"math/rand/v2"

	"github.com/wippyai/irobf/ir"
	"github.com/wippyai/irobf/pipeline"
	"github.com/wippyai/irobf/policy"
	"github.com/wippyai/irobf/stats"
)

// Transform is the instruction substitution pass.
type Transform struct {
	rng     *rand.Rand
	stats   *stats.Collector
	onSweep func(visited int)
}

// New creates the pass for one pipeline run.
func New(env *pipeline.Env) pipeline.Transform {
	return &Transform{rng: env.Rand, stats: env.Stats}
}

// Factory registers the pass with a pipeline registry.
func Factory() pipeline.Factory {
	return pipeline.Factory{Kind: policy.Substitution, Scope: pipeline.ScopeFunction, New: New}
}

func (t *Transform) Kind() policy.Kind { return policy.Substitution }

func (t *Transform) Finalize() error { return nil }

// RunOnFunction sweeps f 1+eff.Level times.
func (t *Transform) RunOnFunction(f *ir.Function, eff policy.Effective) (bool, error) {
	changed := false
	for n := uint64(0); n <= uint64(eff.Level); n++ {
		visited := t.sweep(f)
		if t.onSweep != nil {
			t.onSweep(visited)
		}
		if visited == 0 {
			// nothing to rewrite now means nothing later either
			break
		}
		changed = true
	}
	return changed, nil
}

func (t *Transform) sweep(f *ir.Function) int {
	var work []*ir.Instr
	for _, in := range f.Instructions() {
		if len(Variants(in.Op)) > 0 && in.Typ.IsInt() {
			work = append(work, in)
		}
	}
	for _, in := range work {
		t.substitute(f, in)
	}
	return len(work)
}

func (t *Transform) substitute(f *ir.Function, in *ir.Instr) {
	variants := Variants(in.Op)
	v := variants[t.rng.IntN(len(variants))]

	b := ir.NewBuilderBefore(in)
	nv := Build(b, v, in.Operands[0], in.Operands[1], t.rng.Uint64())
	f.ReplaceAllUsesWith(in, nv)
	in.Block().Remove(in)

	t.stats.Substituted(in.Op.String())
}
