package interp

import (
	stderrors "errors"

	"github.com/wippyai/irobf/ir"
)

var (
	ErrDivideByZero = stderrors.New("integer divide by zero")
	ErrOverflow     = stderrors.New("integer overflow")
	ErrShift        = stderrors.New("shift amount exceeds width")
	ErrUnsupported  = stderrors.New("unsupported instruction")
)

// Eval computes the result of a pure instruction given the values of its
// operands. The result is masked to the instruction's width.
func Eval(in *ir.Instr, get func(ir.Value) uint64) (uint64, error) {
	t := in.Typ
	switch {
	case in.Op.IsBinary():
		return Binary(in.Op, t, get(in.Operands[0]), get(in.Operands[1]))
	case in.Op == ir.OpICmp:
		if Compare(in.Pred, in.Operands[0].Type(), get(in.Operands[0]), get(in.Operands[1])) {
			return 1, nil
		}
		return 0, nil
	case in.Op == ir.OpZExt:
		return get(in.Operands[0]) & t.Mask(), nil
	case in.Op == ir.OpSExt:
		src := in.Operands[0].Type()
		return uint64(src.SignExtend(get(in.Operands[0]))) & t.Mask(), nil
	case in.Op == ir.OpTrunc:
		return get(in.Operands[0]) & t.Mask(), nil
	case in.Op == ir.OpSelect:
		if get(in.Operands[0])&1 == 1 {
			return get(in.Operands[1]), nil
		}
		return get(in.Operands[2]), nil
	}
	return 0, ErrUnsupported
}

// Binary applies op to x and y under wraparound arithmetic of width t.
func Binary(op ir.Opcode, t ir.Type, x, y uint64) (uint64, error) {
	m := t.Mask()
	x &= m
	y &= m
	var r uint64
	switch op {
	case ir.OpAdd:
		r = x + y
	case ir.OpSub:
		r = x - y
	case ir.OpMul:
		r = x * y
	case ir.OpAnd:
		r = x & y
	case ir.OpOr:
		r = x | y
	case ir.OpXor:
		r = x ^ y
	case ir.OpUDiv, ir.OpURem:
		if y == 0 {
			return 0, ErrDivideByZero
		}
		if op == ir.OpUDiv {
			r = x / y
		} else {
			r = x % y
		}
	case ir.OpSDiv, ir.OpSRem:
		if y == 0 {
			return 0, ErrDivideByZero
		}
		sx, sy := t.SignExtend(x), t.SignExtend(y)
		minVal := t.SignExtend(1 << (t.Bits() - 1))
		if sx == minVal && sy == -1 {
			if op == ir.OpSDiv {
				return 0, ErrOverflow
			}
			return 0, nil
		}
		if op == ir.OpSDiv {
			r = uint64(sx / sy)
		} else {
			r = uint64(sx % sy)
		}
	case ir.OpShl, ir.OpLShr, ir.OpAShr:
		if y >= uint64(t.Bits()) {
			return 0, ErrShift
		}
		switch op {
		case ir.OpShl:
			r = x << y
		case ir.OpLShr:
			r = x >> y
		default:
			r = uint64(t.SignExtend(x) >> y)
		}
	default:
		return 0, ErrUnsupported
	}
	return r & m, nil
}

// Compare evaluates an icmp predicate on two values of type t.
func Compare(p ir.Predicate, t ir.Type, x, y uint64) bool {
	x &= t.Mask()
	y &= t.Mask()
	sx, sy := t.SignExtend(x), t.SignExtend(y)
	switch p {
	case ir.PredEQ:
		return x == y
	case ir.PredNE:
		return x != y
	case ir.PredULT:
		return x < y
	case ir.PredULE:
		return x <= y
	case ir.PredUGT:
		return x > y
	case ir.PredUGE:
		return x >= y
	case ir.PredSLT:
		return sx < sy
	case ir.PredSLE:
		return sx <= sy
	case ir.PredSGT:
		return sx > sy
	case ir.PredSGE:
		return sx >= sy
	}
	return false
}
