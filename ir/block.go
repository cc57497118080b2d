package ir

import "slices"

// Block is a basic block: straight-line instructions ending in a terminator.
type Block struct {
	fn     *Function
	Name   string
	Instrs []*Instr
}

// Parent returns the function owning b.
func (b *Block) Parent() *Function { return b.fn }

func (b *Block) Ref() string { return "$" + b.Name }

// Terminator returns the last instruction if it is a terminator.
func (b *Block) Terminator() *Instr {
	if len(b.Instrs) == 0 {
		return nil
	}
	last := b.Instrs[len(b.Instrs)-1]
	if !last.IsTerminator() {
		return nil
	}
	return last
}

// Successors returns the successor blocks named by the terminator.
func (b *Block) Successors() []*Block {
	if t := b.Terminator(); t != nil {
		return t.Successors()
	}
	return nil
}

// Predecessors returns the distinct blocks whose terminator targets b,
// in function block order.
func (b *Block) Predecessors() []*Block {
	if b.fn == nil {
		return nil
	}
	var preds []*Block
	for _, p := range b.fn.Blocks {
		if slices.Contains(p.Successors(), b) {
			preds = append(preds, p)
		}
	}
	return preds
}

// IsEHPad reports whether b is an exception-handling entry.
func (b *Block) IsEHPad() bool {
	return len(b.Instrs) > 0 && b.Instrs[0].Op == OpLandingPad
}

// FirstNonPhi returns the index of the first instruction that is not a phi.
func (b *Block) FirstNonPhi() int {
	for i, in := range b.Instrs {
		if in.Op != OpPhi {
			return i
		}
	}
	return len(b.Instrs)
}

// Index returns the position of in within b, or -1.
func (b *Block) Index(in *Instr) int {
	return slices.Index(b.Instrs, in)
}

// Append adds in at the end of b.
func (b *Block) Append(in *Instr) {
	in.block = b
	b.Instrs = append(b.Instrs, in)
}

// InsertAt inserts instructions before position idx.
func (b *Block) InsertAt(idx int, ins ...*Instr) {
	for _, in := range ins {
		in.block = b
	}
	b.Instrs = slices.Insert(b.Instrs, idx, ins...)
}

// Remove detaches in from b. Uses of in are left untouched.
func (b *Block) Remove(in *Instr) {
	if i := b.Index(in); i >= 0 {
		b.Instrs = slices.Delete(b.Instrs, i, i+1)
		in.block = nil
	}
}

// SplitAt moves the instructions from idx onward into a new block placed
// right after b, and terminates b with a branch to it. Phis in the
// successors of the moved terminator are updated to name the new block.
func (b *Block) SplitAt(idx int, name string) *Block {
	fn := b.fn
	nb := fn.InsertBlockAfter(b, name)

	moved := slices.Clone(b.Instrs[idx:])
	b.Instrs = b.Instrs[:idx:idx]
	for _, in := range moved {
		nb.Append(in)
	}

	for _, succ := range nb.Successors() {
		for _, in := range succ.Instrs {
			if in.Op != OpPhi {
				break
			}
			in.replaceTarget(b, nb)
		}
	}

	NewBuilder(b).Br(nb)
	return nb
}
