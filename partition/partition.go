package partition

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/maastricht-university/acoustic-prep/catalog"
)

var (
	ErrManifestLengthMismatch = errors.New("manifest length mismatch")
	ErrManifestParity         = errors.New("manifest utterance ids differ")
)

// ListExt is the extension of the per-split list files.
const ListExt = ".lst"

// Paths locates the `all` manifests and the directories receiving the
// per-split outputs.
type Paths struct {
	LabelAll string
	ParamAll string
	LabelDir string // receives {train,valid,test}.scp for labels
	ParamDir string // receives {train,valid,test}.scp for params
	ListDir  string // receives {train,valid,test}.lst
}

// ListPath returns the list file of a split under dir.
func ListPath(dir string, name Name) string {
	return filepath.Join(dir, string(name)+ListExt)
}

// Partition reads both `all` manifests, splits them and writes the per-split
// manifests and list files. Lines keep their manifest order within a split.
func Partition(p Paths, seed int64, r Ratios) (Sets, error) {
	labels, err := catalog.ReadManifest(p.LabelAll)
	if err != nil {
		return Sets{}, err
	}
	params, err := catalog.ReadManifest(p.ParamAll)
	if err != nil {
		return Sets{}, err
	}
	if len(labels) != len(params) {
		return Sets{}, fmt.Errorf("%w: %s has %d lines, %s has %d",
			ErrManifestLengthMismatch, p.LabelAll, len(labels), p.ParamAll, len(params))
	}
	for i := range labels {
		if labels[i].ID != params[i].ID {
			return Sets{}, fmt.Errorf("%w: line %d is %q in %s and %q in %s",
				ErrManifestParity, i+1, labels[i].ID, p.LabelAll, params[i].ID, p.ParamAll)
		}
	}

	if err := os.MkdirAll(p.ListDir, 0o755); err != nil {
		return Sets{}, err
	}

	sets := Split(len(labels), seed, r)
	assign := sets.Assign(len(labels))

	out, err := createOutputs(p)
	if err != nil {
		return Sets{}, err
	}
	for i, name := range assign {
		w := out.split[name]
		fmt.Fprintln(w.label, labels[i].String())
		fmt.Fprintln(w.param, params[i].String())
		fmt.Fprintln(w.list, ListLine(labels[i], params[i]))
	}
	if err := out.Close(); err != nil {
		return Sets{}, err
	}
	return sets, nil
}

// ListLine formats one list file line: "<id> <label_path> <param_path>".
func ListLine(label, param catalog.Entry) string {
	return ListEntry{ID: label.ID, LabelPath: label.Path, ParamPath: param.Path}.String()
}

type splitWriters struct {
	label, param, list *bufio.Writer
}

// splitFiles owns every file written by one Partition call.
type splitFiles struct {
	files   []*os.File
	writers []*bufio.Writer
	split   map[Name]*splitWriters
}

// createOutputs opens every per-split file. On failure the files opened so
// far are closed again.
func createOutputs(p Paths) (*splitFiles, error) {
	out := &splitFiles{split: map[Name]*splitWriters{}}
	open := func(path string) (*bufio.Writer, error) {
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		w := bufio.NewWriter(f)
		out.files = append(out.files, f)
		out.writers = append(out.writers, w)
		return w, nil
	}

	for _, name := range Names {
		var (
			sw  splitWriters
			err error
		)
		if sw.label, err = open(filepath.Join(p.LabelDir, string(name)+".scp")); err == nil {
			if sw.param, err = open(filepath.Join(p.ParamDir, string(name)+".scp")); err == nil {
				sw.list, err = open(ListPath(p.ListDir, name))
			}
		}
		if err != nil {
			out.Close()
			return nil, err
		}
		out.split[name] = &sw
	}
	return out, nil
}

// Close flushes and closes every file and returns the first error.
func (s *splitFiles) Close() error {
	var first error
	for i, f := range s.files {
		if err := s.writers[i].Flush(); err != nil && first == nil {
			first = fmt.Errorf("flush %s: %w", f.Name(), err)
		}
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
