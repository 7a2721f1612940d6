package vec

import (
	"errors"
	"testing"
)

func TestConcatSplitRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		a, b Vector
	}{
		{"scalars", New(1), New(2)},
		{"uneven", New(1, 2, 3), New(4)},
		{"empty first", New(), New(5, 6)},
		{"empty both", New(), New()},
		{"nested", Concat(New(1), New(2)), New(3, 4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ab := Concat(tt.a, tt.b)
			if ab.Dim() != tt.a.Dim()+tt.b.Dim() {
				t.Fatalf("Dim() = %d, want %d", ab.Dim(), tt.a.Dim()+tt.b.Dim())
			}

			flat := ab.Flat()
			want := append(tt.a.Flat(), tt.b.Flat()...)
			for i := range want {
				if flat[i] != want[i] {
					t.Fatalf("Flat()[%d] = %v, want %v", i, flat[i], want[i])
				}
			}

			first, second, err := ab.Split()
			if err != nil {
				t.Fatalf("Split: %v", err)
			}
			if !first.Equal(tt.a) || !second.Equal(tt.b) {
				t.Errorf("Split() = %v, %v; want %v, %v", first, second, tt.a, tt.b)
			}
		})
	}
}

func TestSplitLeaf(t *testing.T) {
	_, _, err := New(1, 2).Split()
	if !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestFromFlat(t *testing.T) {
	s := Pair(Leaf(2), Pair(Leaf(1), Leaf(0)))

	v, err := FromFlat(s, []float64{1, 2, 3})
	if err != nil {
		t.Fatalf("FromFlat: %v", err)
	}
	if !v.Shape().Equal(s) {
		t.Errorf("shape = %s, want %s", v.Shape(), s)
	}

	_, err = FromFlat(s, []float64{1, 2})
	var dimErr *DimensionError
	if !errors.As(err, &dimErr) {
		t.Fatalf("expected DimensionError, got %v", err)
	}
	if dimErr.Expected != 3 || dimErr.Actual != 2 {
		t.Errorf("DimensionError = %+v", dimErr)
	}
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Error("DimensionError should match ErrDimensionMismatch")
	}
}

func TestFromFlatCopies(t *testing.T) {
	buf := []float64{1, 2}
	v, _ := FromFlat(Leaf(2), buf)
	buf[0] = 99
	if v.At(0) != 1 {
		t.Error("FromFlat aliased the input buffer")
	}

	out := v.Flat()
	out[1] = 99
	if v.At(1) != 2 {
		t.Error("Flat returned an aliased slice")
	}
}

func TestSub(t *testing.T) {
	a, b := New(5, 7), New(1)
	c, d := New(2, 3), New(4)

	got, err := Concat(a, b).Sub(Concat(c, d))
	if err != nil {
		t.Fatalf("Sub: %v", err)
	}

	ac, _ := a.Sub(c)
	bd, _ := b.Sub(d)
	if !got.Equal(Concat(ac, bd)) {
		t.Errorf("Sub across boundary = %v, want %v", got, Concat(ac, bd))
	}

	zero, _ := got.Sub(got)
	if !zero.Equal(Zeros(got.Shape())) {
		t.Errorf("a - a = %v, want zeros", zero)
	}
}

func TestSubShapeMismatch(t *testing.T) {
	tests := []struct {
		name string
		a, b Vector
	}{
		{"width", New(1, 2), New(1)},
		{"structure", New(1, 2), Concat(New(1), New(2))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.a.Sub(tt.b); !errors.Is(err, ErrShapeMismatch) {
				t.Errorf("expected ErrShapeMismatch, got %v", err)
			}
		})
	}
}

func TestArithmetic(t *testing.T) {
	a := New(1, 2, 3)
	b := New(4, 5, 6)

	sum, _ := a.Add(b)
	if !sum.Equal(New(5, 7, 9)) {
		t.Errorf("Add = %v", sum)
	}

	scaled := a.Scale(2)
	if !scaled.Equal(New(2, 4, 6)) {
		t.Errorf("Scale = %v", scaled)
	}

	axpy, _ := a.AddScaled(0.5, b)
	if !axpy.Equal(New(3, 4.5, 6)) {
		t.Errorf("AddScaled = %v", axpy)
	}

	if New(3, 4).Norm() != 5 {
		t.Errorf("Norm = %v", New(3, 4).Norm())
	}
	if New().Norm() != 0 {
		t.Error("empty Norm should be 0")
	}
}

func TestShapeString(t *testing.T) {
	s := Pair(Leaf(2), Pair(Leaf(1), Leaf(0)))
	if got := s.String(); got != "(2,(1,0))" {
		t.Errorf("String() = %q", got)
	}
}

func TestVecDenseBridge(t *testing.T) {
	v := Concat(New(1), New(2, 3))
	back, err := FromVecDense(v.Shape(), v.VecDense())
	if err != nil {
		t.Fatalf("FromVecDense: %v", err)
	}
	if !back.Equal(v) {
		t.Errorf("bridge round trip = %v, want %v", back, v)
	}

	empty := New().VecDense()
	if empty.Len() != 0 {
		t.Errorf("empty VecDense Len = %d", empty.Len())
	}
}
