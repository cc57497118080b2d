package substitute

import (
	"github.com/wippyai/irobf/ir"
)

// Variant identifies one rewrite of a binary operator into an equivalent
// instruction sequence.
type Variant uint8

const (
	AddNeg       Variant = iota // a - (-b)
	AddDoubleNeg                // -((-a) + (-b))
	AddRand                     // ((a + r) + b) - r
	AddRand2                    // ((a - r) + b) + r

	SubNeg   // a + (-b)
	SubRand  // ((a + r) - b) - r
	SubRand2 // ((a - r) - b) + r

	AndXorNot // (a ^ ~b) & a
	AndRand   // ~(~a | ~b) & (r | ~r)

	OrAndXor // (a & b) | (a ^ b)
	OrRand   // (((~a & r) | (a & ~r)) ^ ((~b & r) | (b & ~r))) | (~(~a | ~b) & (r | ~r))

	XorAndNot // (~a & b) | (a & ~b)
	XorRand   // ((~a & r) | (a & ~r)) ^ ((~b & r) | (b & ~r))

	numVariants
)

var variantNames = [numVariants]string{
	AddNeg:       "add-neg",
	AddDoubleNeg: "add-double-neg",
	AddRand:      "add-rand",
	AddRand2:     "add-rand2",
	SubNeg:       "sub-neg",
	SubRand:      "sub-rand",
	SubRand2:     "sub-rand2",
	AndXorNot:    "and-xor-not",
	AndRand:      "and-rand",
	OrAndXor:     "or-and-xor",
	OrRand:       "or-rand",
	XorAndNot:    "xor-and-not",
	XorRand:      "xor-rand",
}

func (v Variant) String() string {
	if v < numVariants {
		return variantNames[v]
	}
	return "invalid"
}

var catalog = map[ir.Opcode][]Variant{
	ir.OpAdd: {AddNeg, AddDoubleNeg, AddRand, AddRand2},
	ir.OpSub: {SubNeg, SubRand, SubRand2},
	ir.OpAnd: {AndXorNot, AndRand},
	ir.OpOr:  {OrAndXor, OrRand},
	ir.OpXor: {XorAndNot, XorRand},
}

// Variants returns the rewrites available for op, or nil when op is not
// substituted.
func Variants(op ir.Opcode) []Variant {
	return catalog[op]
}

// Build emits variant v of x OP y at b and returns the value equal to it.
// r is the random constant for the randomized variants; it is truncated to
// the operand width.
func Build(b *ir.Builder, v Variant, x, y ir.Value, r uint64) ir.Value {
	t := x.Type()
	rc := ir.ConstInt(t, r)

	switch v {
	case AddNeg:
		return b.Sub(x, b.Neg(y))
	case AddDoubleNeg:
		return b.Neg(b.Add(b.Neg(x), b.Neg(y)))
	case AddRand:
		return b.Sub(b.Add(b.Add(x, rc), y), rc)
	case AddRand2:
		return b.Add(b.Add(b.Sub(x, rc), y), rc)

	case SubNeg:
		return b.Add(x, b.Neg(y))
	case SubRand:
		return b.Sub(b.Sub(b.Add(x, rc), y), rc)
	case SubRand2:
		return b.Add(b.Sub(b.Sub(x, rc), y), rc)

	case AndXorNot:
		return b.And(b.Xor(x, b.Not(y)), x)
	case AndRand:
		return b.And(b.Not(b.Or(b.Not(x), b.Not(y))), b.Or(rc, b.Not(rc)))

	case OrAndXor:
		return b.Or(b.And(x, y), b.Xor(x, y))
	case OrRand:
		notX, notY, notR := b.Not(x), b.Not(y), b.Not(rc)
		mixed := b.Xor(
			b.Or(b.And(notX, rc), b.And(x, notR)),
			b.Or(b.And(notY, rc), b.And(y, notR)),
		)
		both := b.And(b.Not(b.Or(notX, notY)), b.Or(rc, notR))
		return b.Or(mixed, both)

	case XorAndNot:
		return b.Or(b.And(y, b.Not(x)), b.And(x, b.Not(y)))
	case XorRand:
		notR := b.Not(rc)
		return b.Xor(
			b.Or(b.And(rc, b.Not(x)), b.And(x, notR)),
			b.Or(b.And(b.Not(y), rc), b.And(y, notR)),
		)
	}
	panic("substitute: unknown variant " + v.String())
}
