package vec

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Vector is an immutable flat buffer laid out according to its Shape.
type Vector struct {
	shape Shape
	data  []float64
}

// New returns a leaf vector holding a copy of vals.
func New(vals ...float64) Vector {
	data := make([]float64, len(vals))
	copy(data, vals)
	return Vector{shape: Leaf(len(vals)), data: data}
}

// Zeros returns the zero vector of the given shape.
func Zeros(s Shape) Vector {
	return Vector{shape: s, data: make([]float64, s.Dim())}
}

// FromFlat fills shape s from buf. The buffer is copied.
func FromFlat(s Shape, buf []float64) (Vector, error) {
	if len(buf) != s.Dim() {
		return Vector{}, &DimensionError{Expected: s.Dim(), Actual: len(buf)}
	}
	data := make([]float64, len(buf))
	copy(data, buf)
	return Vector{shape: s, data: data}, nil
}

// FromVecDense fills shape s from a gonum vector.
func FromVecDense(s Shape, v mat.Vector) (Vector, error) {
	n := 0
	if v != nil {
		n = v.Len()
	}
	if n != s.Dim() {
		return Vector{}, &DimensionError{Expected: s.Dim(), Actual: n}
	}
	data := make([]float64, n)
	for i := range data {
		data[i] = v.AtVec(i)
	}
	return Vector{shape: s, data: data}, nil
}

// Concat joins a and b into a pair-shaped vector laid out as [a..., b...].
func Concat(a, b Vector) Vector {
	data := make([]float64, 0, len(a.data)+len(b.data))
	data = append(data, a.data...)
	data = append(data, b.data...)
	return Vector{shape: Pair(a.shape, b.shape), data: data}
}

func (v Vector) Concat(o Vector) Vector { return Concat(v, o) }

// Split recovers the two operands of Concat. Leaf vectors cannot be split.
func (v Vector) Split() (first, second Vector, err error) {
	fs, ss, ok := v.shape.Halves()
	if !ok {
		return Vector{}, Vector{}, &ShapeError{Op: "split", Got: v.shape}
	}
	n := fs.Dim()
	first = Vector{shape: fs, data: append([]float64(nil), v.data[:n]...)}
	second = Vector{shape: ss, data: append([]float64(nil), v.data[n:]...)}
	return first, second, nil
}

func (v Vector) Shape() Shape { return v.shape }

func (v Vector) Dim() int { return len(v.data) }

func (v Vector) At(i int) float64 { return v.data[i] }

// Flat returns a copy of the data in order.
func (v Vector) Flat() []float64 {
	out := make([]float64, len(v.data))
	copy(out, v.data)
	return out
}

// Reshape reinterprets the same data under another shape of equal width.
func (v Vector) Reshape(s Shape) (Vector, error) {
	return FromFlat(s, v.data)
}

// Sub returns v - o elementwise. Both must have the same shape.
func (v Vector) Sub(o Vector) (Vector, error) {
	if !v.shape.Equal(o.shape) {
		return Vector{}, &ShapeError{Op: "sub", Want: v.shape, Got: o.shape}
	}
	out := make([]float64, len(v.data))
	floats.SubTo(out, v.data, o.data)
	return Vector{shape: v.shape, data: out}, nil
}

// Add returns v + o elementwise. Both must have the same shape.
func (v Vector) Add(o Vector) (Vector, error) {
	if !v.shape.Equal(o.shape) {
		return Vector{}, &ShapeError{Op: "add", Want: v.shape, Got: o.shape}
	}
	out := make([]float64, len(v.data))
	floats.AddTo(out, v.data, o.data)
	return Vector{shape: v.shape, data: out}, nil
}

// AddScaled returns v + alpha*o.
func (v Vector) AddScaled(alpha float64, o Vector) (Vector, error) {
	if !v.shape.Equal(o.shape) {
		return Vector{}, &ShapeError{Op: "add", Want: v.shape, Got: o.shape}
	}
	out := make([]float64, len(v.data))
	floats.AddScaledTo(out, v.data, alpha, o.data)
	return Vector{shape: v.shape, data: out}, nil
}

// Scale returns c*v.
func (v Vector) Scale(c float64) Vector {
	out := make([]float64, len(v.data))
	floats.ScaleTo(out, c, v.data)
	return Vector{shape: v.shape, data: out}
}

// Norm is the Euclidean norm.
func (v Vector) Norm() float64 {
	if len(v.data) == 0 {
		return 0
	}
	return floats.Norm(v.data, 2)
}

// Equal reports identical shape and bit-identical data.
func (v Vector) Equal(o Vector) bool {
	return v.shape.Equal(o.shape) && floats.Equal(v.data, o.data)
}

// ApproxEqual reports identical shape and elementwise |a-b| <= tol.
func (v Vector) ApproxEqual(o Vector, tol float64) bool {
	return v.shape.Equal(o.shape) && floats.EqualApprox(v.data, o.data, tol)
}

// IsValid reports whether no component is NaN or infinite.
func (v Vector) IsValid() bool {
	for _, x := range v.data {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// VecDense copies v into a gonum vector. A zero-width vector yields an empty
// VecDense.
func (v Vector) VecDense() *mat.VecDense {
	if len(v.data) == 0 {
		return &mat.VecDense{}
	}
	return mat.NewVecDense(len(v.data), v.Flat())
}

func (v Vector) String() string {
	parts := make([]string, len(v.data))
	for i, x := range v.data {
		parts[i] = fmt.Sprintf("%.6g", x)
	}
	return "[" + strings.Join(parts, " ") + "]" + v.shape.String()
}
