package ir

import "github.com/wippyai/irobf/ir/internal/bitset"

// DomTree holds the dominator sets of a function's reachable blocks.
type DomTree struct {
	index map[*Block]int
	dom   []*bitset.Set
	reach *bitset.Set
}

// Dominators computes dominator sets with the iterative dataflow algorithm.
func Dominators(f *Function) *DomTree {
	n := len(f.Blocks)
	t := &DomTree{index: make(map[*Block]int, n), dom: make([]*bitset.Set, n)}
	for i, b := range f.Blocks {
		t.index[b] = i
	}
	t.reach = bitset.New(n)
	if n == 0 {
		return t
	}

	var order []*Block
	stack := []*Block{f.Blocks[0]}
	t.reach.Add(0)
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		order = append(order, b)
		for _, s := range b.Successors() {
			i, ok := t.index[s]
			if ok && !t.reach.Has(i) {
				t.reach.Add(i)
				stack = append(stack, s)
			}
		}
	}

	preds := make([][]int, n)
	for _, b := range order {
		for _, s := range b.Successors() {
			if i, ok := t.index[s]; ok {
				preds[i] = append(preds[i], t.index[b])
			}
		}
	}

	for i := range t.dom {
		if i == 0 {
			t.dom[i] = bitset.New(n)
			t.dom[i].Add(0)
		} else {
			t.dom[i] = bitset.Full(n)
		}
	}

	for changed := true; changed; {
		changed = false
		for _, b := range order[1:] {
			i := t.index[b]
			next := bitset.Full(n)
			for _, p := range preds[i] {
				next.Intersect(t.dom[p])
			}
			next.Add(i)
			if !next.Equal(t.dom[i]) {
				t.dom[i] = next
				changed = true
			}
		}
	}
	return t
}

// Reachable reports whether b can be reached from the entry block.
func (t *DomTree) Reachable(b *Block) bool {
	i, ok := t.index[b]
	return ok && t.reach.Has(i)
}

// Dominates reports whether every path from entry to b passes through a.
// Unreachable blocks are dominated by everything.
func (t *DomTree) Dominates(a, b *Block) bool {
	if !t.Reachable(b) {
		return true
	}
	ia, ok := t.index[a]
	if !ok {
		return false
	}
	return t.dom[t.index[b]].Has(ia)
}
