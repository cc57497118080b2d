package ir

import "fmt"

// Opcode identifies an instruction.
type Opcode uint8

const (
	OpInvalid Opcode = iota

	// Binary integer arithmetic; operands and result share one type.
	OpAdd
	OpSub
	OpMul
	OpUDiv
	OpSDiv
	OpURem
	OpSRem
	OpShl
	OpLShr
	OpAShr
	OpAnd
	OpOr
	OpXor

	OpICmp   // integer compare, result i1
	OpZExt   // zero extend
	OpSExt   // sign extend
	OpTrunc  // truncate
	OpSelect // cond ? a : b
	OpPhi    // SSA merge
	OpLoad   // read a global
	OpStore  // write a global
	OpCall   // direct call

	// LandingPad marks an exception-handling entry. It must be the first
	// instruction of its block and yields the unwind payload.
	OpLandingPad

	// Terminators.
	OpBr          // unconditional branch
	OpCondBr      // two-way branch on an i1
	OpRet         // return
	OpInvoke      // call with normal and unwind successors
	OpUnreachable // trap
)

var opNames = [...]string{
	OpInvalid:     "invalid",
	OpAdd:         "add",
	OpSub:         "sub",
	OpMul:         "mul",
	OpUDiv:        "udiv",
	OpSDiv:        "sdiv",
	OpURem:        "urem",
	OpSRem:        "srem",
	OpShl:         "shl",
	OpLShr:        "lshr",
	OpAShr:        "ashr",
	OpAnd:         "and",
	OpOr:          "or",
	OpXor:         "xor",
	OpICmp:        "icmp",
	OpZExt:        "zext",
	OpSExt:        "sext",
	OpTrunc:       "trunc",
	OpSelect:      "select",
	OpPhi:         "phi",
	OpLoad:        "load",
	OpStore:       "store",
	OpCall:        "call",
	OpLandingPad:  "landingpad",
	OpBr:          "br",
	OpCondBr:      "condbr",
	OpRet:         "ret",
	OpInvoke:      "invoke",
	OpUnreachable: "unreachable",
}

func (op Opcode) String() string {
	if int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return fmt.Sprintf("op(%d)", uint8(op))
}

// ParseOpcode returns the opcode with the given mnemonic.
func ParseOpcode(s string) (Opcode, bool) {
	for i, name := range opNames {
		if name == s && Opcode(i) != OpInvalid {
			return Opcode(i), true
		}
	}
	return OpInvalid, false
}

// IsBinary reports whether op is a two-operand integer operation.
func (op Opcode) IsBinary() bool {
	return op >= OpAdd && op <= OpXor
}

// IsTerminator reports whether op ends a block.
func (op Opcode) IsTerminator() bool {
	return op >= OpBr && op <= OpUnreachable
}

// IsCast reports whether op converts between integer widths.
func (op Opcode) IsCast() bool {
	return op == OpZExt || op == OpSExt || op == OpTrunc
}

// Predicate is the comparison performed by icmp.
type Predicate uint8

const (
	PredEQ Predicate = iota
	PredNE
	PredULT
	PredULE
	PredUGT
	PredUGE
	PredSLT
	PredSLE
	PredSGT
	PredSGE
)

var predNames = [...]string{"eq", "ne", "ult", "ule", "ugt", "uge", "slt", "sle", "sgt", "sge"}

func (p Predicate) String() string {
	if int(p) < len(predNames) {
		return predNames[p]
	}
	return fmt.Sprintf("pred(%d)", uint8(p))
}

// ParsePredicate returns the predicate with the given mnemonic.
func ParsePredicate(s string) (Predicate, bool) {
	for i, name := range predNames {
		if name == s {
			return Predicate(i), true
		}
	}
	return 0, false
}

// Instr is a single instruction. Instructions producing a result are Values.
//
// Targets holds the block references of the instruction: the destination of
// br, the then/else pair of condbr, the normal/unwind pair of invoke, and for
// phi the incoming block of each operand at the same index.
type Instr struct {
	Callee   *Function
	Loc      *Location
	block    *Block
	Name     string
	Operands []Value
	Targets  []*Block
	Meta     []Metadata
	Op       Opcode
	Typ      Type
	Pred     Predicate
}

func (in *Instr) Type() Type  { return in.Typ }
func (in *Instr) Ref() string { return "$" + in.Name }

// Block returns the block containing in, or nil if detached.
func (in *Instr) Block() *Block { return in.block }

// HasResult reports whether in defines a value.
func (in *Instr) HasResult() bool { return in.Typ != Void }

// IsTerminator reports whether in ends its block.
func (in *Instr) IsTerminator() bool { return in.Op.IsTerminator() }

// Successors returns the blocks control may transfer to after in.
// Only terminators have successors.
func (in *Instr) Successors() []*Block {
	if !in.IsTerminator() {
		return nil
	}
	return in.Targets
}

// Incoming returns the value phi in receives from pred, or nil.
func (in *Instr) Incoming(pred *Block) Value {
	for i, b := range in.Targets {
		if b == pred {
			return in.Operands[i]
		}
	}
	return nil
}

// AddIncoming appends a (value, block) pair to a phi.
func (in *Instr) AddIncoming(v Value, from *Block) {
	in.Operands = append(in.Operands, v)
	in.Targets = append(in.Targets, from)
}

// MetaValue returns the metadata value stored under key.
func (in *Instr) MetaValue(key string) (Value, bool) {
	for _, m := range in.Meta {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// replaceTarget rewrites every reference to old among the targets of in.
func (in *Instr) replaceTarget(old, nb *Block) {
	for i, b := range in.Targets {
		if b == old {
			in.Targets[i] = nb
		}
	}
}
