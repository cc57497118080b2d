package pipeline

import (
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/wippyai/irobf/ir"
	"github.com/wippyai/irobf/policy"
	"github.com/wippyai/irobf/stats"
)

// Scope tells the pipeline how to drive a transform.
type Scope uint8

const (
	ScopeFunction Scope = iota // run once per function
	ScopeModule                // run once per compilation unit
)

func (s Scope) String() string {
	if s == ScopeModule {
		return "module"
	}
	return "function"
}

// Transform is a rewrite pass instantiated for one pipeline run.
type Transform interface {
	Kind() policy.Kind
	// Finalize releases per-run state. The pipeline calls it exactly once
	// after the last function or module was processed.
	Finalize() error
}

// FunctionTransform rewrites one function at a time. The pipeline resolves
// the function's policy before calling RunOnFunction and never calls it for
// ineligible or disabled functions.
//
// A transform that cannot handle some construct in f returns false with a
// nil error; an error or panic makes the pipeline restore f.
type FunctionTransform interface {
	Transform
	RunOnFunction(f *ir.Function, eff policy.Effective) (bool, error)
}

// ModuleTransform rewrites the whole compilation unit.
type ModuleTransform interface {
	Transform
	RunOnModule(m *ir.Module, r *policy.Resolver) (bool, error)
}

// Env is the shared state handed to transform constructors.
type Env struct {
	Rand   *rand.Rand
	Stats  *stats.Collector
	Logger *zap.Logger
}

// Factory creates a transform for one run.
type Factory struct {
	New   func(env *Env) Transform
	Kind  policy.Kind
	Scope Scope
}

// Registry maps kinds to factories.
type Registry struct {
	factories map[policy.Kind]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[policy.Kind]Factory)}
}

// Register adds f, replacing any factory of the same kind.
func (r *Registry) Register(f Factory) {
	r.factories[f.Kind] = f
}

// Lookup returns the factory of k.
func (r *Registry) Lookup(k policy.Kind) (Factory, bool) {
	f, ok := r.factories[k]
	return f, ok
}

// Kinds returns the registered kinds in execution order.
func (r *Registry) Kinds() []policy.Kind {
	var out []policy.Kind
	for _, k := range Order {
		if _, ok := r.factories[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// Order is the fixed execution order. String encryption rewrites shared
// constants before anything duplicates code. Transforms that add decoy code
// run before instruction level rewrites so the decoys get rewritten too.
// Call, branch and global indirection run last, once the graph is stable.
var Order = []policy.Kind{
	policy.StringEncryption,
	policy.BogusControlFlow,
	policy.Flattening,
	policy.Substitution,
	policy.ConstantIntEncryption,
	policy.ConstantFPEncryption,
	policy.IndirectCall,
	policy.IndirectBranch,
	policy.IndirectGlobal,
}
