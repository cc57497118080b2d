package pipeline

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/irobf/errors"
	"github.com/wippyai/irobf/ir"
	"github.com/wippyai/irobf/policy"
	"github.com/wippyai/irobf/stats"
)

// Options controls pipeline activation and safety checks.
type Options struct {
	// Rand drives every random choice of the transforms. A nil Rand is
	// seeded from the runtime's random source.
	Rand *rand.Rand
	// Stats receives pass counters. Nil disables counting.
	Stats *stats.Collector

	// ConfigPath and RulesPath are the files the policy was loaded from.
	// A non-empty path turns the pipeline on even when no kind is
	// globally enabled. RulesPath also locates the pass filter file.
	ConfigPath string
	RulesPath  string

	// Master turns the pipeline on explicitly.
	Master bool
	// Verify checks every changed function and restores it on failure.
	Verify bool
}

// Pipeline runs the configured transforms over compilation units in a
// fixed order. A Pipeline may run any number of units; transforms are
// instantiated afresh for each run.
type Pipeline struct {
	registry *Registry
	resolver *policy.Resolver
	opts     Options
}

// New creates a pipeline. The resolver must not be nil.
func New(reg *Registry, r *policy.Resolver, opts Options) *Pipeline {
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Pipeline{registry: reg, resolver: r, opts: opts}
}

// Active reports whether the master switch is on: explicitly, through any
// globally enabled kind, or through a configured config or rules path.
func (p *Pipeline) Active() bool {
	return p.opts.Master ||
		p.opts.ConfigPath != "" ||
		p.opts.RulesPath != "" ||
		p.resolver.Store().AnyEnabled()
}

// Plan returns the kinds that Run will instantiate, in execution order.
// Module transforms need their kind enabled globally; function transforms
// are always instantiated once the pipeline is active since per-function
// directives can enable them.
func (p *Pipeline) Plan() []policy.Kind {
	if !p.Active() {
		return nil
	}
	var out []policy.Kind
	for _, k := range p.registry.Kinds() {
		f, _ := p.registry.Lookup(k)
		if f.Scope == ScopeModule && !p.resolver.Global(k).Enabled {
			continue
		}
		out = append(out, k)
	}
	return out
}

// Run applies the planned transforms to m and reports whether any of them
// changed it. Per-function failures are rolled back and never abort the
// run; the returned error only carries finalization failures.
func (p *Pipeline) Run(m *ir.Module) (bool, error) {
	plan := p.Plan()
	if len(plan) == 0 {
		return false, nil
	}

	runID := uuid.New()
	log := Logger().With(zap.String("unit", m.ID), zap.String("run", runID.String()))
	p.writePassFilter(m, runID)

	env := &Env{Rand: p.opts.Rand, Stats: p.opts.Stats, Logger: log}
	passes := make([]Transform, len(plan))
	for i, k := range plan {
		f, _ := p.registry.Lookup(k)
		passes[i] = f.New(env)
	}

	changed := false
	for _, t := range passes {
		start := time.Now()
		switch t := t.(type) {
		case ModuleTransform:
			changed = p.runModule(t, m, log) || changed
		case FunctionTransform:
			for _, f := range m.Functions {
				changed = p.runFunction(t, f, log) || changed
			}
		default:
			log.Warn("transform has no run method", zap.Stringer("kind", t.Kind()))
		}
		p.opts.Stats.ObservePass(t.Kind().String(), time.Since(start))
	}

	var errs error
	for _, t := range passes {
		if err := t.Finalize(); err != nil {
			errs = multierr.Append(errs, errors.Wrap(errors.PhasePipeline, errors.KindInvalidData, err,
				fmt.Sprintf("finalize %s", t.Kind())))
		}
	}
	return changed, errs
}

func (p *Pipeline) runModule(t ModuleTransform, m *ir.Module, log *zap.Logger) bool {
	changed, err := guard(func() (bool, error) { return t.RunOnModule(m, p.resolver) })
	if err != nil {
		log.Warn("module transform failed", zap.Stringer("kind", t.Kind()), zap.Error(err))
		return false
	}
	return changed
}

// runFunction applies t to f atomically: on error, panic or failed
// verification f is restored to its state before the call.
func (p *Pipeline) runFunction(t FunctionTransform, f *ir.Function, log *zap.Logger) bool {
	name := t.Kind().String()
	eff := p.resolver.Resolve(t.Kind(), f)
	if !eff.Enabled {
		p.opts.Stats.Function(name, stats.OutcomeSkipped)
		return false
	}

	snap := f.Snapshot()
	changed, err := guard(func() (bool, error) { return t.RunOnFunction(f, eff) })
	if err == nil && changed && p.opts.Verify {
		err = ir.Verify(f)
	}
	if err != nil {
		f.Restore(snap)
		p.opts.Stats.Function(name, stats.OutcomeRolledBack)
		log.Debug("function restored",
			zap.String("function", f.Name),
			zap.String("transform", name),
			zap.Error(err))
		return false
	}

	if changed {
		p.opts.Stats.Function(name, stats.OutcomeChanged)
	} else {
		p.opts.Stats.Function(name, stats.OutcomeUnchanged)
	}
	return changed
}

func guard(run func() (bool, error)) (changed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			changed = false
			err = errors.New(errors.PhaseTransform, errors.KindPanic).
				Value(r).
				Detail("%v", r).
				Build()
		}
	}()
	return run()
}
