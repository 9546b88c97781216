package kernel

import (
	"sort"
	"testing"
)

func TestWeightAtLeastOne(t *testing.T) {
	for _, name := range Names() {
		if w := Weight(Get(name)); w < 1 {
			t.Errorf("Weight(%s) = %v, want >= 1", name, w)
		}
	}
}

func TestWeight(t *testing.T) {
	tests := []struct {
		name string
		want float32
	}{
		{Normal, 1},
		{GaussianBlur2, 16},
		{GaussianBlur3, 5},
		{Sharpen, 8},
		{EdgeDetect2, 1},   // sum 0
		{SobelVertical, 1}, // sum 0
		{EdgeDetect6, 1},   // sum -1
		{Emboss, 1},
	}

	for _, tt := range tests {
		if got := Weight(Get(tt.name)); got != tt.want {
			t.Errorf("Weight(%s) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestGetUnknownPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Get(unknown) did not panic")
		}
	}()
	_ = Get("doesNotExist")
}

func TestLookup(t *testing.T) {
	if _, ok := Lookup(SobelHorizontal); !ok {
		t.Errorf("Lookup(%s) ok = false, want true", SobelHorizontal)
	}
	if _, ok := Lookup("nope"); ok {
		t.Error("Lookup(nope) ok = true, want false")
	}
}

func TestNamesSortedAndComplete(t *testing.T) {
	names := Names()
	if len(names) != 20 {
		t.Errorf("len(Names()) = %d, want 20", len(names))
	}
	if !sort.StringsAreSorted(names) {
		t.Error("Names() is not sorted")
	}
}

func TestFlipRows(t *testing.T) {
	m := Get(SobelHorizontal)
	f := m.FlipRows()

	for dx := -1; dx <= 1; dx++ {
		if f.At(dx, -1) != m.At(dx, 1) || f.At(dx, 1) != m.At(dx, -1) {
			t.Errorf("FlipRows column %d not mirrored: %v -> %v", dx, m, f)
		}
		if f.At(dx, 0) != m.At(dx, 0) {
			t.Errorf("FlipRows changed middle row at %d", dx)
		}
	}
	if f.FlipRows() != m {
		t.Error("FlipRows is not an involution")
	}
}

func TestAt(t *testing.T) {
	m := Get(Emboss)
	if got := m.At(-1, -1); got != -2 {
		t.Errorf("At(-1,-1) = %v, want -2", got)
	}
	if got := m.At(1, 1); got != 2 {
		t.Errorf("At(1,1) = %v, want 2", got)
	}
	if got := m.At(0, 0); got != 1 {
		t.Errorf("At(0,0) = %v, want 1", got)
	}
}
