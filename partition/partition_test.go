package partition

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/maastricht-university/acoustic-prep/catalog"
)

type fixture struct {
	paths  Paths
	labels []catalog.Entry
	params []catalog.Entry
}

func newFixture(t *testing.T, n int) *fixture {
	t.Helper()
	root := t.TempDir()
	f := &fixture{paths: Paths{
		LabelDir: filepath.Join(root, "prepared_label", catalog.LabelManifestDir),
		ParamDir: filepath.Join(root, "prepared_cmp", catalog.ParamManifestDir),
		ListDir:  filepath.Join(root, "config_test"),
	}}
	f.paths.LabelAll = filepath.Join(f.paths.LabelDir, catalog.All)
	f.paths.ParamAll = filepath.Join(f.paths.ParamDir, catalog.All)
	for _, d := range []string{f.paths.LabelDir, f.paths.ParamDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("utt_%04d", i)
		f.labels = append(f.labels, catalog.Entry{ID: id, Path: "/raw/prepared_label/" + id + ".lab"})
		f.params = append(f.params, catalog.Entry{ID: id, Path: "/raw/prepared_cmp/" + id + ".cmp"})
	}
	f.write(t)
	return f
}

func (f *fixture) write(t *testing.T) {
	t.Helper()
	if err := catalog.WriteManifest(f.paths.LabelAll, f.labels); err != nil {
		t.Fatal(err)
	}
	if err := catalog.WriteManifest(f.paths.ParamAll, f.params); err != nil {
		t.Fatal(err)
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	var lines []string
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines
}

func TestPartition_Outputs(t *testing.T) {
	f := newFixture(t, 100)

	sets, err := Partition(f.paths, DefaultSeed, DefaultRatios)
	if err != nil {
		t.Fatalf("Partition() error = %v", err)
	}
	if len(sets.Train) != 97 || len(sets.Valid) != 2 || len(sets.Test) != 1 {
		t.Fatalf("sets = %d/%d/%d, want 97/2/1", len(sets.Train), len(sets.Valid), len(sets.Test))
	}

	total := 0
	seen := map[string]Name{}
	for _, name := range Names {
		labels := readLines(t, filepath.Join(f.paths.LabelDir, string(name)+".scp"))
		params := readLines(t, filepath.Join(f.paths.ParamDir, string(name)+".scp"))
		lists := readLines(t, ListPath(f.paths.ListDir, name))

		if len(labels) != sets.Len(name) || len(params) != sets.Len(name) || len(lists) != sets.Len(name) {
			t.Errorf("%s: lines = %d/%d/%d, want %d", name, len(labels), len(params), len(lists), sets.Len(name))
		}
		prev := ""
		for i := range labels {
			id := strings.Fields(labels[i])[0]
			if strings.Fields(params[i])[0] != id {
				t.Errorf("%s line %d: label/param ids differ: %q vs %q", name, i, labels[i], params[i])
			}
			want := id + " /raw/prepared_label/" + id + ".lab /raw/prepared_cmp/" + id + ".cmp"
			if lists[i] != want {
				t.Errorf("%s list line %d = %q, want %q", name, i, lists[i], want)
			}
			if id <= prev {
				t.Errorf("%s: %s after %s breaks manifest order", name, id, prev)
			}
			prev = id
			if other, dup := seen[id]; dup {
				t.Errorf("%s is in both %s and %s", id, other, name)
			}
			seen[id] = name
		}
		total += len(labels)
	}
	if total != 100 {
		t.Errorf("total lines = %d, want 100", total)
	}
}

func TestPartition_Deterministic(t *testing.T) {
	f := newFixture(t, 250)
	names := []string{
		filepath.Join(f.paths.LabelDir, "train.scp"),
		filepath.Join(f.paths.ParamDir, "valid.scp"),
		ListPath(f.paths.ListDir, Test),
		ListPath(f.paths.ListDir, Train),
	}

	if _, err := Partition(f.paths, DefaultSeed, DefaultRatios); err != nil {
		t.Fatal(err)
	}
	first := map[string][]byte{}
	for _, p := range names {
		b, err := os.ReadFile(p)
		if err != nil {
			t.Fatal(err)
		}
		first[p] = b
	}

	if _, err := Partition(f.paths, DefaultSeed, DefaultRatios); err != nil {
		t.Fatal(err)
	}
	for _, p := range names {
		b, err := os.ReadFile(p)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(b, first[p]) {
			t.Errorf("%s differs between runs", filepath.Base(p))
		}
	}
}

func TestPartition_LengthMismatch(t *testing.T) {
	f := newFixture(t, 10)
	f.params = f.params[:9]
	f.write(t)

	_, err := Partition(f.paths, DefaultSeed, DefaultRatios)
	if !errors.Is(err, ErrManifestLengthMismatch) {
		t.Errorf("Partition() error = %v, want ErrManifestLengthMismatch", err)
	}
}

func TestPartition_Parity(t *testing.T) {
	f := newFixture(t, 10)
	f.params[3], f.params[4] = f.params[4], f.params[3]
	f.write(t)

	_, err := Partition(f.paths, DefaultSeed, DefaultRatios)
	if !errors.Is(err, ErrManifestParity) {
		t.Errorf("Partition() error = %v, want ErrManifestParity", err)
	}
}

func TestPartition_MissingManifest(t *testing.T) {
	f := newFixture(t, 3)
	if err := os.Remove(f.paths.ParamAll); err != nil {
		t.Fatal(err)
	}
	if _, err := Partition(f.paths, DefaultSeed, DefaultRatios); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Partition() error = %v, want not-exist", err)
	}
}

func TestPartition_Empty(t *testing.T) {
	f := newFixture(t, 0)
	sets, err := Partition(f.paths, DefaultSeed, DefaultRatios)
	if err != nil {
		t.Fatalf("Partition() error = %v", err)
	}
	if len(sets.Train)+len(sets.Valid)+len(sets.Test) != 0 {
		t.Errorf("sets = %+v, want empty", sets)
	}
	if _, err := os.Stat(ListPath(f.paths.ListDir, Train)); err != nil {
		t.Errorf("train list not created: %v", err)
	}
}
