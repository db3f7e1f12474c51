// Package align reconciles the frame counts of per-utterance label and
// acoustic matrices. The label side is authoritative: acoustic frames are
// truncated or padded with the last frame until both have L frames.
package align

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// ErrEmptyUtterance is returned when an utterance has no frames to align.
var ErrEmptyUtterance = errors.New("empty utterance")

// Align returns a copy of acoustic with exactly as many rows as label.
// label is never modified. A nil matrix stands for zero frames.
func Align(label, acoustic *mat.Dense) (*mat.Dense, error) {
	if label == nil || label.IsEmpty() {
		return nil, ErrEmptyUtterance
	}
	if acoustic == nil || acoustic.IsEmpty() {
		return nil, ErrEmptyUtterance
	}

	l, _ := label.Dims()
	a, c := acoustic.Dims()

	out := mat.NewDense(l, c, nil)
	out.Copy(acoustic)
	if l > a {
		last := acoustic.RawRowView(a - 1)
		for i := a; i < l; i++ {
			out.SetRow(i, last)
		}
	}
	return out, nil
}
