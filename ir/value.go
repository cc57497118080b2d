package ir

import "strconv"

// Value is anything that can appear as an instruction operand.
type Value interface {
	Type() Type
	// Ref returns the textual reference used by the printer.
	Ref() string
}

// Const is an integer constant. Bits always holds the value masked to Typ.
type Const struct {
	Typ  Type
	Bits uint64
}

// ConstInt returns a constant of type t holding v truncated to t's width.
func ConstInt(t Type, v uint64) *Const {
	return &Const{Typ: t, Bits: v & t.Mask()}
}

// AllOnes returns the constant with every bit of t set.
func AllOnes(t Type) *Const {
	return ConstInt(t, t.Mask())
}

func (c *Const) Type() Type { return c.Typ }

func (c *Const) Ref() string {
	return "(" + c.Typ.String() + " " + strconv.FormatInt(c.Typ.SignExtend(c.Bits), 10) + ")"
}

// Param is a function parameter.
type Param struct {
	Name  string
	Typ   Type
	Index int
}

func (p *Param) Type() Type  { return p.Typ }
func (p *Param) Ref() string { return "$" + p.Name }

// Global is a module-level mutable integer cell. As an operand it names the
// cell itself; load and store access its contents.
type Global struct {
	Name string
	Typ  Type
	Init uint64
}

func (g *Global) Type() Type  { return g.Typ }
func (g *Global) Ref() string { return "@" + g.Name }

// Location is a source position attached to an instruction.
type Location struct {
	File string
	Line int
	Col  int
}

// Metadata is a keyed annotation on an instruction. Value may reference
// another value, in which case cloning remaps it like an operand.
type Metadata struct {
	Value Value
	Key   string
}
