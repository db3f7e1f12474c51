package partition

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/maastricht-university/acoustic-prep/catalog"
)

// ListEntry is one line of a split list file.
type ListEntry struct {
	ID        string
	LabelPath string
	ParamPath string
}

func (e ListEntry) String() string {
	return e.ID + " " + e.LabelPath + " " + e.ParamPath
}

// WriteList creates or truncates path and writes one line per entry.
func WriteList(path string, entries []ListEntry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, e := range entries {
		fmt.Fprintln(w, e.String())
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write list %s: %w", path, err)
	}
	return f.Close()
}

// ReadList parses a list file written by Partition. Paths may contain
// spaces: the id ends at the first space and the label path ends at the
// first "<catalog.LabelExt> " that follows.
func ReadList(path string) ([]ListEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []ListEntry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		e, ok := parseListLine(text)
		if !ok {
			return nil, fmt.Errorf("%s line %d: want \"<id> <label_path> <param_path>\", got %q", path, line, text)
		}
		entries = append(entries, e)
	}
	return entries, sc.Err()
}

func parseListLine(text string) (ListEntry, bool) {
	id, rest, ok := strings.Cut(text, " ")
	if !ok || id == "" {
		return ListEntry{}, false
	}
	sep := catalog.LabelExt + " "
	i := strings.Index(rest, sep)
	if i < 0 {
		return ListEntry{}, false
	}
	label, param := rest[:i+len(catalog.LabelExt)], rest[i+len(sep):]
	if param == "" {
		return ListEntry{}, false
	}
	return ListEntry{ID: id, LabelPath: label, ParamPath: param}, true
}
