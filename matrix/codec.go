// Package matrix reads and writes 2-D feature matrices as raw fixed-width
// binary streams: row-major, no header, no padding, host byte order.
// The column count and element width are never stored in the file; callers
// supply them.
package matrix

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gonum.org/v1/gonum/mat"
)

// Element widths in bytes.
const (
	Float32 = 4
	Float64 = 8
)

// ErrNoFrames is returned when a file decodes to zero rows.
var ErrNoFrames = errors.New("matrix has no frames")

// MalformedFileError reports a file whose contents do not fit the declared
// dimension and element width.
type MalformedFileError struct {
	Path      string
	Size      int64
	Dimension int
	Width     int
	Reason    string
}

func (e *MalformedFileError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("malformed matrix file %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("malformed matrix file %s: %d bytes is not a multiple of %d columns x %d bytes",
		e.Path, e.Size, e.Dimension, e.Width)
}

// Read loads a binary matrix with the given column count and element width.
func Read(path string, dimension, width int) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := Decode(f, dimension, width)
	var mf *MalformedFileError
	if errors.As(err, &mf) {
		mf.Path = path
	}
	return m, err
}

// Decode reads r to EOF and interprets the bytes as a row-major matrix.
func Decode(r io.Reader, dimension, width int) (*mat.Dense, error) {
	if err := checkShape(dimension, width); err != nil {
		return nil, err
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	rowBytes := dimension * width
	if len(raw)%rowBytes != 0 {
		return nil, &MalformedFileError{Size: int64(len(raw)), Dimension: dimension, Width: width}
	}
	rows := len(raw) / rowBytes
	if rows == 0 {
		return nil, ErrNoFrames
	}

	data := make([]float64, rows*dimension)
	for i := range data {
		b := raw[i*width : (i+1)*width]
		switch width {
		case Float32:
			data[i] = float64(math.Float32frombits(binary.NativeEndian.Uint32(b)))
		case Float64:
			data[i] = math.Float64frombits(binary.NativeEndian.Uint64(b))
		}
	}
	return mat.NewDense(rows, dimension, data), nil
}

// Write serializes m to path, creating or truncating the file.
func Write(m mat.Matrix, path string, width int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, m, width); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// Encode writes m row-major with width-byte elements.
func Encode(w io.Writer, m mat.Matrix, width int) error {
	rows, cols := m.Dims()
	if err := checkShape(cols, width); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	buf := make([]byte, width)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := m.At(i, j)
			switch width {
			case Float32:
				binary.NativeEndian.PutUint32(buf, math.Float32bits(float32(v)))
			case Float64:
				binary.NativeEndian.PutUint64(buf, math.Float64bits(v))
			}
			if _, err := bw.Write(buf); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

func checkShape(dimension, width int) error {
	if dimension < 1 {
		return &MalformedFileError{Dimension: dimension, Width: width, Reason: fmt.Sprintf("invalid dimension %d", dimension)}
	}
	if width != Float32 && width != Float64 {
		return &MalformedFileError{Dimension: dimension, Width: width, Reason: fmt.Sprintf("unsupported element width %d", width)}
	}
	return nil
}
