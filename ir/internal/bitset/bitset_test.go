package bitset

import (
	"slices"
	"testing"
)

func TestSet_AddHasRemove(t *testing.T) {
	s := New(10)
	if s.Has(3) {
		t.Error("new set should be empty")
	}
	s.Add(3)
	s.Add(130)
	if !s.Has(3) || !s.Has(130) {
		t.Error("set should hold 3 and 130 after Add")
	}
	s.Remove(3)
	if s.Has(3) {
		t.Error("set should not hold 3 after Remove")
	}
	if s.Has(1000) {
		t.Error("Has beyond capacity should be false")
	}
}

func TestSet_IntersectUnion(t *testing.T) {
	tests := []struct {
		name      string
		a, b      []int
		intersect []int
		union     []int
	}{
		{"disjoint", []int{1, 2}, []int{3, 4}, nil, []int{1, 2, 3, 4}},
		{"overlap", []int{1, 5, 70}, []int{5, 70, 90}, []int{5, 70}, []int{1, 5, 70, 90}},
		{"empty", nil, []int{2}, nil, []int{2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			build := func(vs []int) *Set {
				s := New(8)
				for _, v := range vs {
					s.Add(v)
				}
				return s
			}
			i := build(tt.a)
			i.Intersect(build(tt.b))
			if got := i.Values(); !slices.Equal(got, tt.intersect) {
				t.Errorf("Intersect = %v, want %v", got, tt.intersect)
			}
			u := build(tt.a)
			u.Union(build(tt.b))
			if got := u.Values(); !slices.Equal(got, tt.union) {
				t.Errorf("Union = %v, want %v", got, tt.union)
			}
		})
	}
}

func TestSet_FullCloneEqual(t *testing.T) {
	f := Full(70)
	if f.Len() != 70 {
		t.Fatalf("Len = %d, want 70", f.Len())
	}
	c := f.Clone()
	if !c.Equal(f) {
		t.Error("clone should equal original")
	}
	c.Remove(69)
	if c.Equal(f) {
		t.Error("modified clone should differ")
	}
	if !f.Has(69) {
		t.Error("clone must not alias original")
	}

	small := New(1)
	big := New(200)
	if !small.Equal(big) {
		t.Error("empty sets of different capacity should be equal")
	}
}
