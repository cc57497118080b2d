package policy

import "fmt"

// Kind identifies a transform. Its short name is both the config key and
// the directive suffix (+name, -name, ^name=N).
type Kind uint8

const (
	IndirectBranch Kind = iota
	IndirectCall
	IndirectGlobal
	Flattening
	Substitution
	BogusControlFlow
	StringEncryption
	ConstantIntEncryption
	ConstantFPEncryption

	numKinds
)

var kindInfo = [numKinds]struct {
	name string
	desc string
}{
	IndirectBranch:        {"indbr", "indirect branch"},
	IndirectCall:          {"icall", "indirect call"},
	IndirectGlobal:        {"indgv", "indirect global variable"},
	Flattening:            {"fla", "control flow flattening"},
	Substitution:          {"sub", "instruction substitution"},
	BogusControlFlow:      {"bcf", "bogus control flow"},
	StringEncryption:      {"cse", "constant string encryption"},
	ConstantIntEncryption: {"cie", "constant integer encryption"},
	ConstantFPEncryption:  {"cfe", "constant floating point encryption"},
}

// String returns the short name.
func (k Kind) String() string {
	if k < numKinds {
		return kindInfo[k].name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Description returns a human readable name.
func (k Kind) Description() string {
	if k < numKinds {
		return kindInfo[k].desc
	}
	return k.String()
}

// Kinds returns every transform kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, numKinds)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

// ParseKind returns the kind with the given short name.
func ParseKind(name string) (Kind, bool) {
	for i, info := range kindInfo {
		if info.name == name {
			return Kind(i), true
		}
	}
	return 0, false
}
