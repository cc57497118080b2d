package ir

import (
	"slices"
	"strconv"
)

// Module is a compilation unit.
type Module struct {
	ID        string
	Globals   []*Global
	Functions []*Function
}

// NewModule creates an empty module identified by id.
func NewModule(id string) *Module {
	return &Module{ID: id}
}

// AddFunction attaches f to m.
func (m *Module) AddFunction(f *Function) *Function {
	f.module = m
	m.Functions = append(m.Functions, f)
	return f
}

// Function returns the function with the given name.
func (m *Module) Function(name string) *Function {
	for _, f := range m.Functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Global returns the global with the given name.
func (m *Module) Global(name string) *Global {
	for _, g := range m.Globals {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// AddGlobal creates a global. The name is suffixed if already taken.
func (m *Module) AddGlobal(name string, t Type, init uint64) *Global {
	unique := name
	for i := 1; m.Global(unique) != nil; i++ {
		unique = name + "." + strconv.Itoa(i)
	}
	g := &Global{Name: unique, Typ: t, Init: init & t.Mask()}
	m.Globals = append(m.Globals, g)
	return g
}

// RemoveGlobal detaches g from m. Instructions still naming g are left
// as they are; callers check Uses first.
func (m *Module) RemoveGlobal(g *Global) {
	m.Globals = slices.DeleteFunc(m.Globals, func(o *Global) bool { return o == g })
}

// Uses reports whether any instruction of m names v as an operand or in
// its metadata.
func (m *Module) Uses(v Value) bool {
	for _, f := range m.Functions {
		for _, b := range f.Blocks {
			for _, in := range b.Instrs {
				if slices.Contains(in.Operands, v) {
					return true
				}
				for _, md := range in.Meta {
					if md.Value == v {
						return true
					}
				}
			}
		}
	}
	return false
}

// Definitions returns the functions that have a body.
func (m *Module) Definitions() []*Function {
	var out []*Function
	for _, f := range m.Functions {
		if !f.IsDeclaration() {
			out = append(out, f)
		}
	}
	return out
}
