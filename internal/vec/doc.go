// Package vec provides the composable vector used for every state, input and
// output signal in blocksim.
//
// A [Vector] carries a structural [Shape]: either a leaf of fixed width or a
// pair of two shapes. Concatenating two vectors produces a pair-shaped vector
// that can be split back into the original operands, so a composite system can
// hand each child exactly its own slice without any runtime tags.
//
//	a := vec.New(1, 2)
//	b := vec.New(3)
//	ab := vec.Concat(a, b) // shape (2,1), flat [1 2 3]
//	x, y, _ := ab.Split()  // x == a, y == b
//
// Vectors are immutable values. Every operation returns a fresh vector and
// [Vector.Flat] returns a copy of the underlying data.
package vec
