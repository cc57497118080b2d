package policy

import (
	"github.com/wippyai/irobf/rules"
)

// Target is what the resolver needs to know about a function.
type Target interface {
	// Ident returns the compilation unit id and the function name.
	Ident() (unit, name string)
	// Directives returns the inline annotation strings in attachment order.
	Directives() []string
	IsDeclaration() bool
	IsAvailableExternally() bool
}

// Effective is the resolved (enabled, level) decision for one function and
// one kind.
type Effective struct {
	Enabled bool
	Level   uint32
}

// Resolver merges global settings, inline annotations and fired rules into
// per-function decisions. It holds no mutable state; Resolve may be called
// any number of times with identical results.
type Resolver struct {
	store *Store
	rules *rules.Store
}

// NewResolver creates a resolver. A nil store means all defaults and a nil
// rule store means no rules.
func NewResolver(store *Store, rs *rules.Store) *Resolver {
	if store == nil {
		store = NewStore()
	}
	return &Resolver{store: store, rules: rs}
}

// Global returns the global setting of k.
func (r *Resolver) Global(k Kind) Setting {
	return r.store.Get(k)
}

// Store returns the underlying settings.
func (r *Resolver) Store() *Store {
	return r.store
}

// Rules returns the rule store, possibly nil.
func (r *Resolver) Rules() *rules.Store {
	return r.rules
}

// Eligible reports whether t can be transformed at all.
func Eligible(t Target) bool {
	return !t.IsDeclaration() && !t.IsAvailableExternally()
}

// DirectiveList returns the merged directive strings for t: inline
// annotations first, then the directives of every firing rule in file order.
func (r *Resolver) DirectiveList(t Target) []string {
	unit, name := t.Ident()
	inline := t.Directives()
	fired := r.rules.Directives(unit, name)
	out := make([]string, 0, len(inline)+len(fired))
	out = append(out, inline...)
	return append(out, fired...)
}

// Resolve returns the effective policy of kind k for t.
func (r *Resolver) Resolve(k Kind, t Target) Effective {
	eff, _ := r.resolve(k, t)
	return eff
}

func (r *Resolver) resolve(k Kind, t Target) (Effective, []Directive) {
	if !Eligible(t) {
		return Effective{}, nil
	}
	g := r.store.Get(k)
	return evaluate(g, k, r.DirectiveList(t))
}

// evaluate scans directive strings in order. A disable stops the scan.
func evaluate(g Setting, k Kind, list []string) (Effective, []Directive) {
	enable := g.Enabled
	level := g.Level
	var applied []Directive

	for _, s := range list {
		for _, d := range ParseDirectives(s, k) {
			applied = append(applied, d)
			switch d.Op {
			case OpDisable:
				return Effective{Enabled: false, Level: level}, applied
			case OpEnable:
				enable = true
			case OpSetLevel:
				level = d.Level
			}
		}
	}
	return Effective{Enabled: enable, Level: level}, applied
}

// KindReport describes how one kind was resolved for a function.
type KindReport struct {
	Kind      Kind
	Global    Setting
	Effective Effective
	Applied   []Directive
}

// Explanation is the full resolution of every kind for one function.
type Explanation struct {
	Unit       string
	Function   string
	Eligible   bool
	Directives []string
	Kinds      []KindReport
}

// Explain resolves every kind for t and records which directives
// contributed.
func (r *Resolver) Explain(t Target) Explanation {
	unit, name := t.Ident()
	ex := Explanation{
		Unit:     unit,
		Function: name,
		Eligible: Eligible(t),
	}
	if ex.Eligible {
		ex.Directives = r.DirectiveList(t)
	}
	for _, k := range Kinds() {
		eff, applied := r.resolve(k, t)
		ex.Kinds = append(ex.Kinds, KindReport{
			Kind:      k,
			Global:    r.store.Get(k),
			Effective: eff,
			Applied:   applied,
		})
	}
	return ex
}
