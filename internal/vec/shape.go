package vec

import (
	"fmt"
	"strconv"
)

// Shape describes the structure of a Vector. The zero value is a leaf of
// width zero.
type Shape struct {
	dim    int
	first  *Shape
	second *Shape
}

// Leaf returns a flat shape of width n. It panics if n is negative.
func Leaf(n int) Shape {
	if n < 0 {
		panic(fmt.Sprintf("vec: negative width %d", n))
	}
	return Shape{dim: n}
}

// Pair returns the shape of Concat(a, b) for vectors shaped a and b.
func Pair(a, b Shape) Shape {
	return Shape{dim: a.dim + b.dim, first: &a, second: &b}
}

// Dim is the total flat width.
func (s Shape) Dim() int { return s.dim }

// IsPair reports whether s was built by Pair.
func (s Shape) IsPair() bool { return s.first != nil }

// Halves returns the two constituents of a pair shape. ok is false for leaves.
func (s Shape) Halves() (first, second Shape, ok bool) {
	if !s.IsPair() {
		return Shape{}, Shape{}, false
	}
	return *s.first, *s.second, true
}

// Equal reports whether s and o have identical structure.
func (s Shape) Equal(o Shape) bool {
	if s.IsPair() != o.IsPair() {
		return false
	}
	if !s.IsPair() {
		return s.dim == o.dim
	}
	return s.first.Equal(*o.first) && s.second.Equal(*o.second)
}

func (s Shape) String() string {
	if !s.IsPair() {
		return strconv.Itoa(s.dim)
	}
	return "(" + s.first.String() + "," + s.second.String() + ")"
}
