package rules

// Rule pairs an ordered set of patterns with the directive string applied
// to the functions it fires for.
type Rule struct {
	Directive string
	Patterns  []Pattern
	Line      int // line of the directive in the rule file
}

// Fires reports whether r applies to function name in unit. Exclusions are
// checked first; any matching exclusion suppresses the rule.
func (r Rule) Fires(unit, name string) bool {
	for _, p := range r.Patterns {
		if p.Exclude && p.Match(unit, name) {
			return false
		}
	}
	for _, p := range r.Patterns {
		if !p.Exclude && p.Match(unit, name) {
			return true
		}
	}
	return false
}

// Store is the ordered rule list loaded from a rule file. It is read-only
// once loaded.
type Store struct {
	rules []Rule
}

// NewStore creates a store holding rules in the given order.
func NewStore(rules ...Rule) *Store {
	return &Store{rules: rules}
}

// Rules returns the rules in file order.
func (s *Store) Rules() []Rule {
	if s == nil {
		return nil
	}
	return s.rules
}

// Len returns the number of rules.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rules)
}

// Directives returns, in file order, the directive strings of every rule
// that fires for function name in unit.
func (s *Store) Directives(unit, name string) []string {
	if s == nil {
		return nil
	}
	var out []string
	for _, r := range s.rules {
		if r.Fires(unit, name) {
			out = append(out, r.Directive)
		}
	}
	return out
}
