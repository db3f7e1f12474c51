package orchestrator

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// SummaryFile is written into the list dir of every run.
const SummaryFile = "run.json"

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func persist(res *Result) (string, error) {
	path := filepath.Join(res.Layout.ListDir, SummaryFile)
	if err := writeJSON(path, res); err != nil {
		return "", err
	}
	return path, nil
}

// LoadSummary reads a run.json written by a previous run.
func LoadSummary(path string) (*Result, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var res Result
	if err := json.Unmarshal(b, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
