package matrix

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestWriteRead_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		width int
		data  []float64
	}{
		{"float64", Float64, []float64{0, 1.5, -2.25, 1e-300, 3.141592653589793, 42}},
		{"float32", Float32, []float64{0, 1.5, -2.25, 0.125, 1024, -7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mat.NewDense(2, 3, tt.data)
			path := filepath.Join(t.TempDir(), "utt.cmp")

			if err := Write(m, path, tt.width); err != nil {
				t.Fatalf("Write() error = %v", err)
			}

			info, err := os.Stat(path)
			if err != nil {
				t.Fatalf("Stat() error = %v", err)
			}
			if info.Size() != int64(6*tt.width) {
				t.Errorf("file size = %d, want %d", info.Size(), 6*tt.width)
			}

			got, err := Read(path, 3, tt.width)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !mat.Equal(got, m) {
				t.Errorf("Read() = %v, want %v", mat.Formatted(got), mat.Formatted(m))
			}
		})
	}
}

func TestEncode_NoHeader(t *testing.T) {
	m := mat.NewDense(1, 2, []float64{1, 2})
	var buf bytes.Buffer
	if err := Encode(&buf, m, Float32); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if buf.Len() != 8 {
		t.Errorf("encoded length = %d, want 8", buf.Len())
	}
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name      string
		size      int
		dimension int
		width     int
	}{
		{"partial row float64", 5*8 + 3, 5, Float64},
		{"partial row float32", 7, 2, Float32},
		{"one byte", 1, 1, Float64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(make([]byte, tt.size)), tt.dimension, tt.width)
			var mf *MalformedFileError
			if !errors.As(err, &mf) {
				t.Fatalf("Decode() error = %v, want *MalformedFileError", err)
			}
			if mf.Size != int64(tt.size) {
				t.Errorf("Size = %d, want %d", mf.Size, tt.size)
			}
		})
	}
}

func TestDecode_InvalidShape(t *testing.T) {
	tests := []struct {
		name      string
		dimension int
		width     int
	}{
		{"zero dimension", 0, Float64},
		{"negative dimension", -3, Float32},
		{"bad width", 4, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(make([]byte, 16)), tt.dimension, tt.width)
			var mf *MalformedFileError
			if !errors.As(err, &mf) {
				t.Fatalf("Decode() error = %v, want *MalformedFileError", err)
			}
		})
	}
}

func TestDecode_Empty(t *testing.T) {
	_, err := Decode(bytes.NewReader(nil), 5, Float64)
	if !errors.Is(err, ErrNoFrames) {
		t.Errorf("Decode(empty) error = %v, want ErrNoFrames", err)
	}
}

func TestRead_MalformedCarriesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.cmp")
	if err := os.WriteFile(path, make([]byte, 13), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Read(path, 2, Float64)
	var mf *MalformedFileError
	if !errors.As(err, &mf) {
		t.Fatalf("Read() error = %v, want *MalformedFileError", err)
	}
	if mf.Path != path {
		t.Errorf("Path = %q, want %q", mf.Path, path)
	}
	if !strings.Contains(err.Error(), "bad.cmp") {
		t.Errorf("error %q does not mention the file", err.Error())
	}
}

func TestRead_MissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope.cmp"), 2, Float64)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Read() error = %v, want not-exist", err)
	}
}

func TestWrite_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "utt.lab")
	if err := Write(mat.NewDense(3, 2, nil), path, Float64); err != nil {
		t.Fatal(err)
	}
	small := mat.NewDense(1, 2, []float64{7, 8})
	if err := Write(small, path, Float64); err != nil {
		t.Fatal(err)
	}
	got, err := Read(path, 2, Float64)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !mat.Equal(got, small) {
		t.Errorf("Read() = %v, want %v", mat.Formatted(got), mat.Formatted(small))
	}
}
