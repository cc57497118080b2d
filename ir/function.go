package ir

import (
	"slices"
	"strconv"
)

// Linkage describes who owns a function's definition.
type Linkage uint8

const (
	External            Linkage = iota // visible outside the unit
	Internal                           // private to the unit
	AvailableExternally                // body copy for inlining; owned elsewhere
)

func (l Linkage) String() string {
	switch l {
	case Internal:
		return "internal"
	case AvailableExternally:
		return "available_externally"
	}
	return "external"
}

// ParseLinkage returns the linkage with the given name.
func ParseLinkage(s string) (Linkage, bool) {
	switch s {
	case "external":
		return External, true
	case "internal":
		return Internal, true
	case "available_externally":
		return AvailableExternally, true
	}
	return External, false
}

// Function is a function definition or, when it has no blocks, a declaration.
type Function struct {
	module      *Module
	names       map[string]struct{}
	Name        string
	Params      []*Param
	Annotations []string
	Blocks      []*Block
	Result      Type
	Linkage     Linkage
}

// NewFunction creates a detached function. Add it to a module with
// Module.AddFunction.
func NewFunction(name string, result Type, params ...*Param) *Function {
	f := &Function{Name: name, Result: result, names: make(map[string]struct{})}
	for i, p := range params {
		p.Index = i
		f.Params = append(f.Params, p)
		f.names[p.Name] = struct{}{}
	}
	return f
}

// Module returns the module containing f.
func (f *Function) Module() *Module { return f.module }

// Ident returns the compilation unit identifier and the function name.
func (f *Function) Ident() (unit, name string) {
	if f.module != nil {
		unit = f.module.ID
	}
	return unit, f.Name
}

// Directives returns the inline annotation strings attached to f.
func (f *Function) Directives() []string { return f.Annotations }

// IsDeclaration reports whether f has no body.
func (f *Function) IsDeclaration() bool { return len(f.Blocks) == 0 }

// IsAvailableExternally reports whether f's body is owned by another unit.
func (f *Function) IsAvailableExternally() bool { return f.Linkage == AvailableExternally }

// Entry returns the entry block, or nil for a declaration.
func (f *Function) Entry() *Block {
	if len(f.Blocks) == 0 {
		return nil
	}
	return f.Blocks[0]
}

// Block returns the block with the given name.
func (f *Function) Block(name string) *Block {
	for _, b := range f.Blocks {
		if b.Name == name {
			return b
		}
	}
	return nil
}

// Param returns the parameter with the given name.
func (f *Function) Param(name string) *Param {
	for _, p := range f.Params {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// UniqueName reserves and returns a name derived from base that no other
// value or block of f uses.
func (f *Function) UniqueName(base string) string {
	if f.names == nil {
		f.names = make(map[string]struct{})
	}
	if base == "" {
		base = "t"
	}
	name := base
	for i := 1; ; i++ {
		if _, taken := f.names[name]; !taken {
			break
		}
		name = base + "." + strconv.Itoa(i)
	}
	f.names[name] = struct{}{}
	return name
}

// NewBlock appends a new empty block.
func (f *Function) NewBlock(name string) *Block {
	b := &Block{fn: f, Name: f.UniqueName(name)}
	f.Blocks = append(f.Blocks, b)
	return b
}

// InsertBlockAfter creates a new empty block placed right after prev.
func (f *Function) InsertBlockAfter(prev *Block, name string) *Block {
	b := &Block{fn: f, Name: f.UniqueName(name)}
	i := slices.Index(f.Blocks, prev)
	f.Blocks = slices.Insert(f.Blocks, i+1, b)
	return b
}

// Instructions returns a snapshot of every instruction in block order.
func (f *Function) Instructions() []*Instr {
	var out []*Instr
	for _, b := range f.Blocks {
		out = append(out, b.Instrs...)
	}
	return out
}

// Users returns the instructions that reference v as an operand.
func (f *Function) Users(v Value) []*Instr {
	var out []*Instr
	for _, b := range f.Blocks {
		for _, in := range b.Instrs {
			if slices.Contains(in.Operands, v) {
				out = append(out, in)
			}
		}
	}
	return out
}

// ReplaceAllUsesWith rewrites every operand and metadata reference to old
// so that it names nv instead.
func (f *Function) ReplaceAllUsesWith(old, nv Value) {
	for _, b := range f.Blocks {
		for _, in := range b.Instrs {
			for i, op := range in.Operands {
				if op == old {
					in.Operands[i] = nv
				}
			}
			for i, m := range in.Meta {
				if m.Value == old {
					in.Meta[i].Value = nv
				}
			}
		}
	}
}

// Snapshot is a saved copy of a function body.
type Snapshot struct {
	names  map[string]struct{}
	blocks []*Block
}

// Snapshot returns a deep copy of f's body that Restore can reinstate.
func (f *Function) Snapshot() *Snapshot {
	names := make(map[string]struct{}, len(f.names))
	for k := range f.names {
		names[k] = struct{}{}
	}
	return &Snapshot{names: names, blocks: copyBody(f, f.Blocks)}
}

// Restore replaces f's body with the snapshot. A snapshot can be restored
// only once.
func (f *Function) Restore(s *Snapshot) {
	f.Blocks = s.blocks
	f.names = s.names
	s.blocks = nil
}

// copyBody clones blocks into fresh detached objects owned by f, remapping
// all intra-function references.
func copyBody(f *Function, blocks []*Block) []*Block {
	bmap := make(map[*Block]*Block, len(blocks))
	vmap := make(ValueMap)
	out := make([]*Block, len(blocks))
	for i, b := range blocks {
		nb := &Block{fn: f, Name: b.Name}
		bmap[b] = nb
		out[i] = nb
	}
	for i, b := range blocks {
		for _, in := range b.Instrs {
			c := cloneInstr(in)
			c.Name = in.Name
			vmap[in] = c
			out[i].Append(c)
		}
	}
	for _, b := range out {
		for _, in := range b.Instrs {
			vmap.remap(in)
			for j, t := range in.Targets {
				if nt, ok := bmap[t]; ok {
					in.Targets[j] = nt
				}
			}
		}
	}
	return out
}

// ReserveName claims name for a value or block of f. It reports false if
// the name is already in use.
func (f *Function) ReserveName(name string) bool {
	if f.names == nil {
		f.names = make(map[string]struct{})
	}
	if _, taken := f.names[name]; taken {
		return false
	}
	f.names[name] = struct{}{}
	return true
}

// AppendBlock attaches a block whose name was already reserved.
func (f *Function) AppendBlock(name string) *Block {
	b := &Block{fn: f, Name: name}
	f.Blocks = append(f.Blocks, b)
	return b
}
