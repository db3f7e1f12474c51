package matrix

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

const maxLineBytes = 16 << 20

// ReadText loads a whitespace-separated text matrix, one frame per line.
// Blank lines and lines starting with '#' are skipped.
func ReadText(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := DecodeText(f)
	var mf *MalformedFileError
	if errors.As(err, &mf) {
		mf.Path = path
	}
	return m, err
}

// DecodeText parses a text matrix from r.
func DecodeText(r io.Reader) (*mat.Dense, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var (
		data []float64
		cols int
		rows int
		line int
	)
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if cols == 0 {
			cols = len(fields)
		} else if len(fields) != cols {
			return nil, &MalformedFileError{
				Dimension: cols,
				Reason:    fmt.Sprintf("line %d has %d columns, want %d", line, len(fields), cols),
			}
		}
		for _, s := range fields {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, &MalformedFileError{Dimension: cols, Reason: fmt.Sprintf("line %d: %v", line, err)}
			}
			data = append(data, v)
		}
		rows++
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrNoFrames
	}
	return mat.NewDense(rows, cols, data), nil
}
