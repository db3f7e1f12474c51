package orchestrator

import (
	"time"

	"github.com/maastricht-university/acoustic-prep/config"
)

// Options are the per-run inputs given on the command line.
type Options struct {
	LabelDir  string // source text labels
	CmpDir    string // source acoustic params
	Name      string // namespaces raw_<name>, config_<name>, data_<name>
	ModelType config.ModelType
}

type SplitSizes struct {
	Train int `json:"train"`
	Valid int `json:"valid"`
	Test  int `json:"test"`
}

// Result summarizes a run; it is also persisted as run.json.
type Result struct {
	RunID      string           `json:"run_id"`
	Name       string           `json:"name"`
	ModelType  config.ModelType `json:"model_type"`
	Seed       int64            `json:"seed"`
	Aligned    int              `json:"aligned"` // 0 when alignment was skipped
	Utterances int              `json:"utterances"`
	Splits     SplitSizes       `json:"splits"`
	Layout     Layout           `json:"layout"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Stage      string           `json:"stage"` // last stage entered
	Error      string           `json:"error,omitempty"`
}
