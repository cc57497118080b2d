package policy

// Setting is the global (enabled, level) pair of one transform kind.
type Setting struct {
	Kind    Kind
	Enabled bool
	Level   uint32
}

// Name returns the kind's short name.
func (s Setting) Name() string { return s.Kind.String() }

// Store holds one Setting per kind. Settings start disabled at level 0.
// A Store is mutated while configuration is assembled and treated as
// read-only once a pipeline runs.
type Store struct {
	settings [numKinds]Setting
}

// NewStore returns a store with default settings.
func NewStore() *Store {
	s := &Store{}
	for i := range s.settings {
		s.settings[i].Kind = Kind(i)
	}
	return s
}

// Get returns the setting of k.
func (s *Store) Get(k Kind) Setting {
	return s.settings[k]
}

// Set replaces the setting of k.
func (s *Store) Set(k Kind, enabled bool, level uint32) {
	s.settings[k] = Setting{Kind: k, Enabled: enabled, Level: level}
}

// SetEnabled changes only the enabled flag of k.
func (s *Store) SetEnabled(k Kind, enabled bool) {
	s.settings[k].Enabled = enabled
}

// SetLevel changes only the level of k.
func (s *Store) SetLevel(k Kind, level uint32) {
	s.settings[k].Level = level
}

// All returns every setting in kind order.
func (s *Store) All() []Setting {
	out := make([]Setting, numKinds)
	copy(out, s.settings[:])
	return out
}

// AnyEnabled reports whether at least one kind is globally enabled.
func (s *Store) AnyEnabled() bool {
	for _, st := range s.settings {
		if st.Enabled {
			return true
		}
	}
	return false
}
