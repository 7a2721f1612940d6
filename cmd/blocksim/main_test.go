package main

import (
	"errors"
	"testing"

	"github.com/san-kum/blocksim/internal/config"
	"github.com/san-kum/blocksim/internal/vec"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		preset string
		want   string
	}{
		{"loop_gain", "feedback(gain, gain)"},
		{"unity_lag", "feedback(lag)"},
		{"parallel_lags", "(lag || lag)"},
		{"pid_spring", "feedback((pid -> spring_mass))"},
	}

	for _, tt := range tests {
		if got := describe(config.GetPreset(tt.preset).System); got != tt.want {
			t.Errorf("describe(%s) = %q, want %q", tt.preset, got, tt.want)
		}
	}
}

func TestFlatOrZeros(t *testing.T) {
	s := vec.Pair(vec.Leaf(2), vec.Leaf(0))

	v, err := flatOrZeros(s, nil)
	if err != nil || !v.Equal(vec.Zeros(s)) {
		t.Errorf("flatOrZeros(nil) = %v, %v", v, err)
	}

	v, err = flatOrZeros(s, []float64{1, 2})
	if err != nil || !v.Shape().Equal(s) || v.At(1) != 2 {
		t.Errorf("flatOrZeros = %v, %v", v, err)
	}

	if _, err := flatOrZeros(s, []float64{1}); !errors.Is(err, vec.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestParseGrid(t *testing.T) {
	names, ranges, err := parseGrid([]string{"pid.kp=1, 2,3", "lag.rate=0.5"})
	if err != nil {
		t.Fatalf("parseGrid: %v", err)
	}
	if len(names) != 2 || names[0] != "lag.rate" || names[1] != "pid.kp" {
		t.Errorf("names = %v", names)
	}
	if len(ranges[1]) != 3 || ranges[1][2] != 3 || ranges[0][0] != 0.5 {
		t.Errorf("ranges = %v", ranges)
	}

	for _, bad := range [][]string{nil, {"pid.kp"}, {"pid.kp=a"}, {"=1"}} {
		if _, _, err := parseGrid(bad); err == nil {
			t.Errorf("parseGrid(%v) should fail", bad)
		}
	}
}
