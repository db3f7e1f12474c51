package partition

import (
	"math"
	"reflect"
	"sort"
	"testing"
)

func TestSplit_Counts(t *testing.T) {
	tests := []struct {
		n                  int
		train, valid, test int
	}{
		{100, 97, 2, 1},
		{1000, 970, 20, 10},
		{10, 9, 0, 1},
		{1, 0, 0, 1},
		{0, 0, 0, 0},
		{150, 145, 3, 2},
	}

	for _, tt := range tests {
		s := Split(tt.n, DefaultSeed, DefaultRatios)
		if len(s.Train) != tt.train || len(s.Valid) != tt.valid || len(s.Test) != tt.test {
			t.Errorf("Split(%d) = %d/%d/%d, want %d/%d/%d", tt.n,
				len(s.Train), len(s.Valid), len(s.Test), tt.train, tt.valid, tt.test)
		}
	}
}

func TestSplit_DisjointAndExhaustive(t *testing.T) {
	for n := 0; n <= 300; n += 7 {
		s := Split(n, DefaultSeed, DefaultRatios)
		seen := make([]int, n)
		for _, idx := range [][]int{s.Train, s.Valid, s.Test} {
			if !sort.IntsAreSorted(idx) {
				t.Errorf("n=%d: split is not ascending: %v", n, idx)
			}
			for _, i := range idx {
				if i < 0 || i >= n {
					t.Fatalf("n=%d: index %d out of range", n, i)
				}
				seen[i]++
			}
		}
		for i, c := range seen {
			if c != 1 {
				t.Errorf("n=%d: index %d appears %d times", n, i, c)
			}
		}
		if minTest := int(math.Floor(0.01 * float64(n))); len(s.Test) < minTest {
			t.Errorf("n=%d: test has %d, want at least %d", n, len(s.Test), minTest)
		}
	}
}

func TestSplit_Deterministic(t *testing.T) {
	a := Split(500, DefaultSeed, DefaultRatios)
	b := Split(500, DefaultSeed, DefaultRatios)
	if !reflect.DeepEqual(a, b) {
		t.Error("Split() is not deterministic for the same seed")
	}

	c := Split(500, 42, DefaultRatios)
	if reflect.DeepEqual(a.Test, c.Test) && reflect.DeepEqual(a.Valid, c.Valid) {
		t.Error("Split() ignored the seed")
	}
}

func TestSplit_CustomRatios(t *testing.T) {
	s := Split(10, 3, Ratios{Train: 0.5, Valid: 0.3, Test: 0.2})
	if len(s.Train) != 5 || len(s.Valid) != 3 || len(s.Test) != 2 {
		t.Errorf("Split() = %d/%d/%d, want 5/3/2", len(s.Train), len(s.Valid), len(s.Test))
	}

	// ratios summing past one are clamped so nothing goes out of range
	s = Split(10, 3, Ratios{Train: 0.8, Valid: 0.5})
	if len(s.Train)+len(s.Valid)+len(s.Test) != 10 || len(s.Test) != 0 {
		t.Errorf("Split() = %d/%d/%d", len(s.Train), len(s.Valid), len(s.Test))
	}
}

func TestAssign(t *testing.T) {
	s := Sets{Train: []int{0, 2, 3}, Valid: []int{4}, Test: []int{1}}
	got := s.Assign(5)
	want := []Name{Train, Test, Train, Train, Valid}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Assign() = %v, want %v", got, want)
	}
	if s.Len(Train) != 3 || s.Len(Valid) != 1 || s.Len(Test) != 1 || s.Len("other") != 0 {
		t.Errorf("Len() mismatch for %+v", s)
	}
}
