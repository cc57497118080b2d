package ir

// Builder creates instructions at an insertion point.
type Builder struct {
	block  *Block
	before *Instr
	loc    *Location
}

// NewBuilder returns a builder appending to the end of b.
func NewBuilder(b *Block) *Builder {
	return &Builder{block: b}
}

// NewBuilderBefore returns a builder inserting right before in.
func NewBuilderBefore(in *Instr) *Builder {
	return &Builder{block: in.block, before: in, loc: in.Loc}
}

// SetLoc sets the debug location stamped on new instructions.
func (b *Builder) SetLoc(loc *Location) *Builder {
	b.loc = loc
	return b
}

// Block returns the block being built.
func (b *Builder) Block() *Block { return b.block }

// Insert places a prepared instruction at the insertion point.
func (b *Builder) Insert(in *Instr) *Instr {
	if in.HasResult() && in.Name == "" {
		in.Name = b.block.fn.UniqueName("t")
	}
	if in.Loc == nil {
		in.Loc = b.loc
	}
	if b.before == nil {
		b.block.Append(in)
		return in
	}
	b.block.InsertAt(b.block.Index(b.before), in)
	return in
}

// Binary builds a two-operand integer instruction.
func (b *Builder) Binary(op Opcode, x, y Value) *Instr {
	return b.Insert(&Instr{Op: op, Typ: x.Type(), Operands: []Value{x, y}})
}

func (b *Builder) Add(x, y Value) *Instr  { return b.Binary(OpAdd, x, y) }
func (b *Builder) Sub(x, y Value) *Instr  { return b.Binary(OpSub, x, y) }
func (b *Builder) Mul(x, y Value) *Instr  { return b.Binary(OpMul, x, y) }
func (b *Builder) URem(x, y Value) *Instr { return b.Binary(OpURem, x, y) }
func (b *Builder) And(x, y Value) *Instr  { return b.Binary(OpAnd, x, y) }
func (b *Builder) Or(x, y Value) *Instr   { return b.Binary(OpOr, x, y) }
func (b *Builder) Xor(x, y Value) *Instr  { return b.Binary(OpXor, x, y) }

// Neg builds 0 - x.
func (b *Builder) Neg(x Value) *Instr {
	return b.Sub(ConstInt(x.Type(), 0), x)
}

// Not builds x ^ all-ones.
func (b *Builder) Not(x Value) *Instr {
	return b.Xor(x, AllOnes(x.Type()))
}

// ICmp builds an integer comparison producing an i1.
func (b *Builder) ICmp(pred Predicate, x, y Value) *Instr {
	return b.Insert(&Instr{Op: OpICmp, Typ: I1, Pred: pred, Operands: []Value{x, y}})
}

// Cast builds a zext, sext or trunc of x to t.
func (b *Builder) Cast(op Opcode, x Value, t Type) *Instr {
	return b.Insert(&Instr{Op: op, Typ: t, Operands: []Value{x}})
}

// Select builds cond ? x : y.
func (b *Builder) Select(cond, x, y Value) *Instr {
	return b.Insert(&Instr{Op: OpSelect, Typ: x.Type(), Operands: []Value{cond, x, y}})
}

// Phi builds an empty phi of type t. Populate it with AddIncoming.
func (b *Builder) Phi(t Type) *Instr {
	return b.Insert(&Instr{Op: OpPhi, Typ: t})
}

// Load reads global g.
func (b *Builder) Load(g *Global) *Instr {
	return b.Insert(&Instr{Op: OpLoad, Typ: g.Typ, Operands: []Value{g}})
}

// Store writes v into global g.
func (b *Builder) Store(v Value, g *Global) *Instr {
	return b.Insert(&Instr{Op: OpStore, Operands: []Value{v, g}})
}

// Call builds a direct call.
func (b *Builder) Call(callee *Function, args ...Value) *Instr {
	return b.Insert(&Instr{Op: OpCall, Typ: callee.Result, Callee: callee, Operands: args})
}

// Invoke builds a call that transfers to unwind if the callee unwinds.
func (b *Builder) Invoke(callee *Function, normal, unwind *Block, args ...Value) *Instr {
	return b.Insert(&Instr{Op: OpInvoke, Typ: callee.Result, Callee: callee, Operands: args, Targets: []*Block{normal, unwind}})
}

// LandingPad builds an unwind entry yielding the payload as a t.
func (b *Builder) LandingPad(t Type) *Instr {
	return b.Insert(&Instr{Op: OpLandingPad, Typ: t})
}

// Br builds an unconditional branch.
func (b *Builder) Br(dst *Block) *Instr {
	return b.Insert(&Instr{Op: OpBr, Targets: []*Block{dst}})
}

// CondBr branches to then if cond is true and to els otherwise.
func (b *Builder) CondBr(cond Value, then, els *Block) *Instr {
	return b.Insert(&Instr{Op: OpCondBr, Operands: []Value{cond}, Targets: []*Block{then, els}})
}

// Ret returns v, or nothing when v is nil.
func (b *Builder) Ret(v Value) *Instr {
	in := &Instr{Op: OpRet}
	if v != nil {
		in.Operands = []Value{v}
	}
	return b.Insert(in)
}

// Unreachable builds a trap.
func (b *Builder) Unreachable() *Instr {
	return b.Insert(&Instr{Op: OpUnreachable})
}
