// Package normalize computes CMVN statistics over a split and writes
// normalized training tensors.
package normalize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/maastricht-university/acoustic-prep/align"
	"github.com/maastricht-university/acoustic-prep/config"
	"github.com/maastricht-university/acoustic-prep/matrix"
	"github.com/maastricht-university/acoustic-prep/partition"
)

// Service is the statistics and conversion collaborator of the pipeline.
type Service interface {
	CalculateCMVN(ctx context.Context, split, lstDir, dataDir string, mt config.ModelType) error
	ConvertTo(ctx context.Context, split, listPath, dataDir string, mt config.ModelType) error
}

// ReferenceSplit is the split whose statistics normalize every split.
const ReferenceSplit = "train"

// TensorWidth is the element width of converted tensors.
const TensorWidth = matrix.Float32

var ErrNoStatistics = errors.New("cmvn statistics not found")

type Stats struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

type CMVN struct {
	Split      string           `json:"split"`
	ModelType  config.ModelType `json:"model_type"`
	Utterances int              `json:"utterances"`
	Frames     int              `json:"frames"`
	Label      Stats            `json:"label"`
	Acoustic   Stats            `json:"acoustic"`
}

// CMVNPath returns where the statistics of split are stored.
func CMVNPath(dataDir, split string) string {
	return filepath.Join(dataDir, split+"_cmvn.json")
}

// Local runs the normalization in-process.
type Local struct {
	hp  config.HParams
	log logrus.FieldLogger
}

func NewLocal(hp config.HParams, log logrus.FieldLogger) *Local {
	return &Local{hp: hp, log: log}
}

// CalculateCMVN computes the per-column mean and population standard
// deviation of every frame listed in <lstDir>/<split>.lst.
func (l *Local) CalculateCMVN(ctx context.Context, split, lstDir, dataDir string, mt config.ModelType) error {
	dim, width, err := l.hp.AcousticShape(mt)
	if err != nil {
		return err
	}
	entries, err := partition.ReadList(partition.ListPath(lstDir, partition.Name(split)))
	if err != nil {
		return err
	}

	labAcc := newAccumulator(l.hp.LabelChannels)
	cmpAcc := newAccumulator(dim)
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		lab, cmp, err := l.load(e, dim, width)
		if err != nil {
			return err
		}
		labAcc.add(lab)
		cmpAcc.add(cmp)
	}
	if labAcc.n == 0 {
		return fmt.Errorf("cmvn %s: no frames listed", split)
	}

	stats := CMVN{
		Split:      split,
		ModelType:  mt,
		Utterances: len(entries),
		Frames:     labAcc.n,
		Label:      labAcc.stats(),
		Acoustic:   cmpAcc.stats(),
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(CMVNPath(dataDir, split), b, 0o644); err != nil {
		return err
	}
	l.log.Infof("cmvn: %s statistics over %d utterances, %d frames", split, stats.Utterances, stats.Frames)
	return nil
}

// ConvertTo normalizes every utterance of a list with the reference split
// statistics and writes <dataDir>/<split>/{label,cmp}/<id> tensors plus
// <dataDir>/<split>.lst.
func (l *Local) ConvertTo(ctx context.Context, split, listPath, dataDir string, mt config.ModelType) error {
	dim, width, err := l.hp.AcousticShape(mt)
	if err != nil {
		return err
	}
	if filepath.Ext(listPath) == "" {
		listPath += partition.ListExt
	}
	stats, err := LoadCMVN(CMVNPath(dataDir, ReferenceSplit))
	if err != nil {
		return err
	}
	if len(stats.Label.Mean) != l.hp.LabelChannels || len(stats.Acoustic.Mean) != dim {
		return fmt.Errorf("cmvn %s: statistics shape %d/%d does not match %d/%d",
			ReferenceSplit, len(stats.Label.Mean), len(stats.Acoustic.Mean), l.hp.LabelChannels, dim)
	}
	entries, err := partition.ReadList(listPath)
	if err != nil {
		return err
	}

	labDir := filepath.Join(dataDir, split, "label")
	cmpDir := filepath.Join(dataDir, split, "cmp")
	for _, d := range []string{labDir, cmpDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}

	out := make([]partition.ListEntry, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		lab, cmp, err := l.load(e, dim, width)
		if err != nil {
			return err
		}
		apply(lab, stats.Label)
		apply(cmp, stats.Acoustic)

		oe := partition.ListEntry{
			ID:        e.ID,
			LabelPath: filepath.Join(labDir, e.ID+align.LabelExt),
			ParamPath: filepath.Join(cmpDir, e.ID+align.CmpExt),
		}
		if err := matrix.Write(lab, oe.LabelPath, TensorWidth); err != nil {
			return err
		}
		if err := matrix.Write(cmp, oe.ParamPath, TensorWidth); err != nil {
			return err
		}
		out = append(out, oe)
	}

	if err := partition.WriteList(filepath.Join(dataDir, split+partition.ListExt), out); err != nil {
		return err
	}
	l.log.Infof("convert: %s wrote %d utterances to %s", split, len(out), filepath.Join(dataDir, split))
	return nil
}

// LoadCMVN reads statistics written by CalculateCMVN.
func LoadCMVN(path string) (*CMVN, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoStatistics, path)
	}
	if err != nil {
		return nil, err
	}
	var c CMVN
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &c, nil
}

func (l *Local) load(e partition.ListEntry, dim, width int) (*mat.Dense, *mat.Dense, error) {
	lab, err := matrix.Read(e.LabelPath, l.hp.LabelChannels, align.LabelWidth)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", e.ID, err)
	}
	cmp, err := matrix.Read(e.ParamPath, dim, width)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", e.ID, err)
	}
	lr, _ := lab.Dims()
	cr, _ := cmp.Dims()
	if lr != cr {
		return nil, nil, fmt.Errorf("%s: label has %d frames, acoustic params have %d", e.ID, lr, cr)
	}
	return lab, cmp, nil
}

func apply(m *mat.Dense, s Stats) {
	m.Apply(func(_, j int, v float64) float64 {
		return (v - s.Mean[j]) / s.Std[j]
	}, m)
}

// accumulator keeps running per-column mean and M2 (Welford).
type accumulator struct {
	n     int
	mean  []float64
	m2    []float64
	delta []float64
	tmp   []float64
}

func newAccumulator(dim int) *accumulator {
	return &accumulator{
		mean:  make([]float64, dim),
		m2:    make([]float64, dim),
		delta: make([]float64, dim),
		tmp:   make([]float64, dim),
	}
}

func (a *accumulator) add(m *mat.Dense) {
	rows, _ := m.Dims()
	for i := 0; i < rows; i++ {
		row := m.RawRowView(i)
		a.n++
		floats.SubTo(a.delta, row, a.mean)
		floats.AddScaled(a.mean, 1/float64(a.n), a.delta)
		floats.SubTo(a.tmp, row, a.mean)
		floats.Mul(a.tmp, a.delta)
		floats.Add(a.m2, a.tmp)
	}
}

func (a *accumulator) stats() Stats {
	mean := append([]float64(nil), a.mean...)
	std := make([]float64, len(a.m2))
	floats.ScaleTo(std, 1/float64(a.n), a.m2)
	for j, v := range std {
		std[j] = math.Sqrt(v)
		if std[j] == 0 {
			std[j] = 1
		}
	}
	return Stats{Mean: mean, Std: std}
}
