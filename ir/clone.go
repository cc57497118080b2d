package ir

import "slices"

// ValueMap maps original values to their copies.
type ValueMap map[Value]Value

// Lookup returns the mapped value of v, or v itself if unmapped.
func (m ValueMap) Lookup(v Value) Value {
	if nv, ok := m[v]; ok {
		return nv
	}
	return v
}

// remap rewrites the operands and metadata of in through m.
func (m ValueMap) remap(in *Instr) {
	for i, op := range in.Operands {
		in.Operands[i] = m.Lookup(op)
	}
	for i, md := range in.Meta {
		if md.Value != nil {
			in.Meta[i].Value = m.Lookup(md.Value)
		}
	}
}

// cloneInstr copies in without a name or parent block.
func cloneInstr(in *Instr) *Instr {
	c := &Instr{
		Op:       in.Op,
		Typ:      in.Typ,
		Pred:     in.Pred,
		Callee:   in.Callee,
		Operands: slices.Clone(in.Operands),
		Targets:  slices.Clone(in.Targets),
		Meta:     slices.Clone(in.Meta),
	}
	if in.Loc != nil {
		loc := *in.Loc
		c.Loc = &loc
	}
	return c
}

// CloneBlock duplicates src into a new block placed after it. References
// between instructions of src are remapped to the copies, including
// references held in metadata. The returned map sends each original
// instruction to its copy.
func CloneBlock(src *Block, name string) (*Block, ValueMap) {
	fn := src.fn
	dst := fn.InsertBlockAfter(src, name)
	vmap := make(ValueMap, len(src.Instrs))

	for _, in := range src.Instrs {
		c := cloneInstr(in)
		if in.HasResult() {
			c.Name = fn.UniqueName(in.Name)
		}
		vmap[in] = c
		dst.Append(c)
	}
	for _, in := range dst.Instrs {
		vmap.remap(in)
	}
	return dst, vmap
}
