// Package partition splits a corpus into train, valid and test sets.
// The split is a seeded permutation, so identical inputs always produce
// identical sets.
package partition

import (
	"math"
	"math/rand"
	"sort"
)

// Name identifies a split.
type Name string

const (
	Train Name = "train"
	Valid Name = "valid"
	Test  Name = "test"
)

// Names lists the splits in processing order.
var Names = []Name{Train, Valid, Test}

// DefaultSeed seeds the shuffle when the config does not set one.
const DefaultSeed int64 = 0

type Ratios struct {
	Train float64
	Valid float64
	Test  float64
}

var DefaultRatios = Ratios{Train: 0.97, Valid: 0.02, Test: 0.01}

// Sets holds ascending index lists for each split.
type Sets struct {
	Train []int
	Valid []int
	Test  []int
}

// Split permutes 0..n-1 with seed and slices it into floor(Train*n) train
// indices, floor(Valid*n) valid indices and the rest for test. r.Test is not
// consulted: test absorbs whatever flooring leaves over.
func Split(n int, seed int64, r Ratios) Sets {
	if n <= 0 {
		return Sets{}
	}
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(n, func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })

	trainN := clamp(int(math.Floor(r.Train*float64(n))), 0, n)
	validN := clamp(int(math.Floor(r.Valid*float64(n))), 0, n-trainN)

	return Sets{
		Train: sorted(perm[:trainN]),
		Valid: sorted(perm[trainN : trainN+validN]),
		Test:  sorted(perm[trainN+validN:]),
	}
}

// Assign returns the split of every index in 0..n-1.
func (s Sets) Assign(n int) []Name {
	out := make([]Name, n)
	for _, group := range []struct {
		name Name
		idx  []int
	}{{Train, s.Train}, {Valid, s.Valid}, {Test, s.Test}} {
		for _, i := range group.idx {
			if i >= 0 && i < n {
				out[i] = group.name
			}
		}
	}
	return out
}

// Len returns the size of the named split.
func (s Sets) Len(name Name) int {
	switch name {
	case Train:
		return len(s.Train)
	case Valid:
		return len(s.Valid)
	case Test:
		return len(s.Test)
	}
	return 0
}

func sorted(idx []int) []int {
	out := append([]int(nil), idx...)
	sort.Ints(out)
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
