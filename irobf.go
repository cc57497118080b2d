package irobf

import (
	"math/rand/v2"

	"go.uber.org/multierr"

	"github.com/wippyai/irobf/ir"
	"github.com/wippyai/irobf/pipeline"
	"github.com/wippyai/irobf/policy"
	"github.com/wippyai/irobf/rules"
	"github.com/wippyai/irobf/stats"
	"github.com/wippyai/irobf/transform/bogus"
	"github.com/wippyai/irobf/transform/substitute"
)

// Options configures an obfuscation run.
type Options struct {
	// Levels overrides the global level of a kind, after the config file.
	Levels map[policy.Kind]uint32
	// Seed makes every random choice reproducible when set.
	Seed  *uint64
	Stats *stats.Collector

	ConfigPath string
	RulesPath  string

	// Enable turns kinds on globally, after the config file.
	Enable []policy.Kind

	// Master turns the pipeline on even when nothing else does.
	Master bool
	// Verify checks each rewritten function and undoes failed rewrites.
	Verify bool
}

// DefaultRegistry returns a registry holding every built-in transform.
func DefaultRegistry() *pipeline.Registry {
	reg := pipeline.NewRegistry()
	reg.Register(bogus.Factory())
	reg.Register(substitute.Factory())
	return reg
}

// LoadPolicy builds the resolver described by opts. Configuration
// problems are returned as combined warnings next to a usable resolver.
func LoadPolicy(opts Options) (*policy.Resolver, error) {
	store, err := policy.LoadConfig(opts.ConfigPath)
	for _, k := range opts.Enable {
		store.SetEnabled(k, true)
	}
	for k, level := range opts.Levels {
		store.SetLevel(k, level)
	}

	rs, rerr := rules.Load(opts.RulesPath)
	return policy.NewResolver(store, rs), multierr.Append(err, rerr)
}

// Obfuscator applies a fixed configuration to any number of modules.
type Obfuscator struct {
	resolver *policy.Resolver
	pipeline *pipeline.Pipeline
}

// New creates an obfuscator with the built-in transforms. The returned
// Obfuscator is always usable; the error carries configuration warnings.
func New(opts Options) (*Obfuscator, error) {
	return NewWithRegistry(DefaultRegistry(), opts)
}

// NewWithRegistry is New with a custom transform registry.
func NewWithRegistry(reg *pipeline.Registry, opts Options) (*Obfuscator, error) {
	resolver, warnings := LoadPolicy(opts)

	var rng *rand.Rand
	if opts.Seed != nil {
		rng = rand.New(rand.NewPCG(*opts.Seed, *opts.Seed))
	}
	p := pipeline.New(reg, resolver, pipeline.Options{
		Rand:       rng,
		Stats:      opts.Stats,
		ConfigPath: opts.ConfigPath,
		RulesPath:  opts.RulesPath,
		Master:     opts.Master,
		Verify:     opts.Verify,
	})
	return &Obfuscator{resolver: resolver, pipeline: p}, warnings
}

// Resolver returns the policy resolver.
func (o *Obfuscator) Resolver() *policy.Resolver { return o.resolver }

// Plan returns the transforms a run will instantiate, in order.
func (o *Obfuscator) Plan() []policy.Kind { return o.pipeline.Plan() }

// Run obfuscates m in place and reports whether anything changed.
func (o *Obfuscator) Run(m *ir.Module) (bool, error) {
	return o.pipeline.Run(m)
}

// Obfuscate is New followed by Run. Configuration warnings do not stop the
// run; they are returned combined with any run error.
func Obfuscate(m *ir.Module, opts Options) (bool, error) {
	o, warnings := New(opts)
	changed, err := o.Run(m)
	return changed, multierr.Append(warnings, err)
}
