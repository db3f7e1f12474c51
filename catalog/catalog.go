// Package catalog builds and parses manifests: text files with one
// "<utterance_id> <path>" line per utterance.
package catalog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Reserved manifest directories inside the prepared label and cmp dirs.
const (
	LabelManifestDir = "label_scp"
	ParamManifestDir = "param_scp"
)

// File extensions of aligned label and acoustic artifacts.
const (
	LabelExt = ".lab"
	CmpExt   = ".cmp"
)

// Manifest file names.
const (
	All   = "all.scp"
	Train = "train.scp"
	Valid = "valid.scp"
	Test  = "test.scp"
)

type Entry struct {
	ID   string
	Path string
}

func (e Entry) String() string { return e.ID + " " + e.Path }

// Build scans the aligned label dir and writes the label and param `all`
// manifests under their reserved subdirectories. Acoustic paths are derived
// by swapping labelExt for cmpExt under cmpDir; the cmp files are not stat'ed.
// It returns the number of utterances catalogued.
func Build(labelDir, cmpDir, labelExt, cmpExt string) (int, error) {
	labelDir, err := filepath.Abs(labelDir)
	if err != nil {
		return 0, err
	}
	cmpDir, err = filepath.Abs(cmpDir)
	if err != nil {
		return 0, err
	}
	for _, d := range []string{filepath.Join(labelDir, LabelManifestDir), filepath.Join(cmpDir, ParamManifestDir)} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return 0, err
		}
	}

	files, err := os.ReadDir(labelDir)
	if err != nil {
		return 0, err
	}
	var labels, params []Entry
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		name := f.Name()
		if filepath.Ext(name) != labelExt {
			continue
		}
		id := strings.TrimSuffix(name, labelExt)
		labels = append(labels, Entry{ID: id, Path: filepath.Join(labelDir, name)})
		params = append(params, Entry{ID: id, Path: filepath.Join(cmpDir, id+cmpExt)})
	}

	if err := WriteManifest(filepath.Join(labelDir, LabelManifestDir, All), labels); err != nil {
		return 0, err
	}
	if err := WriteManifest(filepath.Join(cmpDir, ParamManifestDir, All), params); err != nil {
		return 0, err
	}
	return len(labels), nil
}

// WriteManifest creates or truncates path and writes entries in order.
func WriteManifest(path string, entries []Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, entries); err != nil {
		f.Close()
		return fmt.Errorf("write manifest %s: %w", path, err)
	}
	return f.Close()
}

// Encode writes one line per entry.
func Encode(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)
	for _, e := range entries {
		if _, err := fmt.Fprintln(bw, e.String()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadManifest parses a manifest file.
func ReadManifest(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entries, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	return entries, nil
}

// Decode parses manifest lines. Blank lines are skipped; the path is
// everything after the first space.
func Decode(r io.Reader) ([]Entry, error) {
	var entries []Entry
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		id, path, ok := strings.Cut(text, " ")
		if !ok || id == "" || path == "" {
			return nil, fmt.Errorf("line %d: want \"<id> <path>\", got %q", line, text)
		}
		entries = append(entries, Entry{ID: id, Path: path})
	}
	return entries, sc.Err()
}
