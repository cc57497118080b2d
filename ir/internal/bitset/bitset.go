// Package bitset provides a dense set of block indices used by the
// dominator and reachability analyses.
package bitset

import "math/bits"

// Set is a compact set of non-negative ints backed by a bitmap.
type Set struct {
	words []uint64
}

// New creates a Set that can hold values up to n-1 without growing.
func New(n int) *Set {
	return &Set{words: make([]uint64, (n+63)/64)}
}

// Full creates a Set containing every value in [0, n).
func Full(n int) *Set {
	s := New(n)
	for i := 0; i < n; i++ {
		s.Add(i)
	}
	return s
}

// Add inserts v.
func (s *Set) Add(v int) {
	w := v / 64
	if w >= len(s.words) {
		s.grow(w + 1)
	}
	s.words[w] |= 1 << (uint(v) % 64)
}

// Remove deletes v.
func (s *Set) Remove(v int) {
	w := v / 64
	if w < len(s.words) {
		s.words[w] &^= 1 << (uint(v) % 64)
	}
}

// Has reports whether v is in the set.
func (s *Set) Has(v int) bool {
	w := v / 64
	if w >= len(s.words) {
		return false
	}
	return s.words[w]&(1<<(uint(v)%64)) != 0
}

// Intersect keeps only the values also present in other.
func (s *Set) Intersect(other *Set) {
	for i := range s.words {
		if i < len(other.words) {
			s.words[i] &= other.words[i]
		} else {
			s.words[i] = 0
		}
	}
}

// Union adds all values from other.
func (s *Set) Union(other *Set) {
	if len(other.words) > len(s.words) {
		s.grow(len(other.words))
	}
	for i := range other.words {
		s.words[i] |= other.words[i]
	}
}

// Equal reports whether both sets hold the same values.
func (s *Set) Equal(other *Set) bool {
	n := max(len(s.words), len(other.words))
	for i := 0; i < n; i++ {
		var a, b uint64
		if i < len(s.words) {
			a = s.words[i]
		}
		if i < len(other.words) {
			b = other.words[i]
		}
		if a != b {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (s *Set) Clone() *Set {
	c := &Set{words: make([]uint64, len(s.words))}
	copy(c.words, s.words)
	return c
}

// Len returns the number of values in the set.
func (s *Set) Len() int {
	n := 0
	for _, w := range s.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// Values returns the members in ascending order.
func (s *Set) Values() []int {
	var out []int
	for i, w := range s.words {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			out = append(out, i*64+b)
			w &= w - 1
		}
	}
	return out
}

func (s *Set) grow(n int) {
	words := make([]uint64, n)
	copy(words, s.words)
	s.words = words
}
