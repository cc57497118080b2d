package ir

import "fmt"

// Type is the type of an IR value. Only fixed-width integers are modelled.
type Type uint8

const (
	Void Type = iota // no value
	I1               // boolean
	I8
	I16
	I32
	I64
)

// Bits returns the bit width of t, or 0 for Void.
func (t Type) Bits() int {
	switch t {
	case I1:
		return 1
	case I8:
		return 8
	case I16:
		return 16
	case I32:
		return 32
	case I64:
		return 64
	}
	return 0
}

// Mask returns the all-ones bit pattern of t.
func (t Type) Mask() uint64 {
	n := t.Bits()
	if n == 64 {
		return ^uint64(0)
	}
	return 1<<n - 1
}

// IsInt reports whether t is an integer type.
func (t Type) IsInt() bool {
	return t != Void && t <= I64
}

func (t Type) String() string {
	switch t {
	case Void:
		return "void"
	case I1:
		return "i1"
	case I8:
		return "i8"
	case I16:
		return "i16"
	case I32:
		return "i32"
	case I64:
		return "i64"
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// ParseType returns the Type named s.
func ParseType(s string) (Type, bool) {
	switch s {
	case "void":
		return Void, true
	case "i1":
		return I1, true
	case "i8":
		return I8, true
	case "i16":
		return I16, true
	case "i32":
		return I32, true
	case "i64":
		return I64, true
	}
	return Void, false
}

// SignExtend interprets the low t.Bits() of v as a two's complement number.
func (t Type) SignExtend(v uint64) int64 {
	n := t.Bits()
	if n == 0 || n == 64 {
		return int64(v)
	}
	shift := 64 - n
	return int64(v<<shift) >> shift
}
