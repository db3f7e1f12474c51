package orchestrator

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/acoustic-prep/align"
	"github.com/maastricht-university/acoustic-prep/catalog"
	"github.com/maastricht-university/acoustic-prep/clients"
	cfg "github.com/maastricht-university/acoustic-prep/config"
	"github.com/maastricht-university/acoustic-prep/normalize"
	"github.com/maastricht-university/acoustic-prep/partition"
)

type Pipeline struct {
	cfg      *cfg.Root
	hp       cfg.HParams
	norm     normalize.Service
	log      *logrus.Logger
	progress io.Writer
}

// NewPipeline wires the stages. Normalization runs remotely when a
// normalizer URL is configured and in-process otherwise.
func NewPipeline(c *cfg.Root, hp cfg.HParams, log *logrus.Logger) *Pipeline {
	p := &Pipeline{cfg: c, hp: hp, log: log}
	if url := c.Services.Normalizer.URL; url != "" {
		p.norm = clients.NewNormalizer(url, log)
	} else {
		p.norm = normalize.NewLocal(hp, log)
	}
	if c.Align.Progress {
		p.progress = os.Stderr
	}
	return p
}

// WithNormalizer replaces the normalization service.
func (p *Pipeline) WithNormalizer(s normalize.Service) *Pipeline {
	p.norm = s
	return p
}

func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	if err := p.hp.Validate(opts.ModelType); err != nil {
		return nil, err
	}
	layout, err := NewLayout(p.cfg.Paths.Root, opts.Name)
	if err != nil {
		return nil, err
	}
	if err := layout.ensure(); err != nil {
		return nil, err
	}

	res := &Result{
		RunID:     uuid.NewString(),
		Name:      opts.Name,
		ModelType: opts.ModelType,
		Seed:      p.cfg.Split.Seed,
		Layout:    layout,
		StartedAt: time.Now(),
	}
	log := p.log.WithFields(logrus.Fields{"run": res.RunID, "name": opts.Name})
	log.Infof("preparing %s data from %s and %s", opts.ModelType, opts.LabelDir, opts.CmpDir)

	// align
	res.Stage = "align"
	aligner, err := align.New(align.Options{
		LabelDir:    opts.LabelDir,
		CmpDir:      opts.CmpDir,
		OutLabelDir: layout.LabelDir,
		OutCmpDir:   layout.CmpDir,
		ModelType:   opts.ModelType,
		Workers:     p.cfg.Align.Workers,
		Progress:    p.progress,
	}, p.hp, log)
	if err != nil {
		return p.fail(log, res, err)
	}
	if aligner.Prepared() && !p.cfg.Align.Force {
		log.Info("raw data has been prepared")
	} else {
		if res.Aligned, err = aligner.AlignAll(ctx); err != nil {
			return p.fail(log, res, fmt.Errorf("align: %w", err))
		}
		log.Infof("aligned %d utterances", res.Aligned)
	}

	// catalog
	res.Stage = "catalog"
	if res.Utterances, err = catalog.Build(layout.LabelDir, layout.CmpDir, align.LabelExt, align.CmpExt); err != nil {
		return p.fail(log, res, fmt.Errorf("catalog: %w", err))
	}
	log.Infof("catalogued %d utterances", res.Utterances)

	// partition
	res.Stage = "partition"
	sets, err := partition.Partition(partition.Paths{
		LabelAll: filepath.Join(layout.LabelScpDir, catalog.All),
		ParamAll: filepath.Join(layout.ParamScpDir, catalog.All),
		LabelDir: layout.LabelScpDir,
		ParamDir: layout.ParamScpDir,
		ListDir:  layout.ListDir,
	}, p.cfg.Split.Seed, partition.Ratios{
		Train: p.cfg.Split.TrainRatio,
		Valid: p.cfg.Split.ValidRatio,
		Test:  p.cfg.Split.TestRatio,
	})
	if err != nil {
		return p.fail(log, res, fmt.Errorf("partition: %w", err))
	}
	res.Splits = SplitSizes{Train: len(sets.Train), Valid: len(sets.Valid), Test: len(sets.Test)}
	log.Infof("split train=%d valid=%d test=%d", res.Splits.Train, res.Splits.Valid, res.Splits.Test)

	// normalize: train statistics first, they are reused for valid and test
	res.Stage = "normalize"
	if _, err := persist(res); err != nil {
		return nil, err
	}
	if err := p.norm.CalculateCMVN(ctx, normalize.ReferenceSplit, layout.ListDir, layout.DataDir, opts.ModelType); err != nil {
		return p.fail(log, res, fmt.Errorf("cmvn: %w", err))
	}
	for _, name := range partition.Names {
		listPath := filepath.Join(layout.ListDir, string(name))
		if err := p.norm.ConvertTo(ctx, string(name), listPath, layout.DataDir, opts.ModelType); err != nil {
			return p.fail(log, res, fmt.Errorf("convert %s: %w", name, err))
		}
	}

	res.Stage = "done"
	res.FinishedAt = time.Now()
	path, err := persist(res)
	if err != nil {
		return nil, err
	}
	log.Infof("run summary written to %s", path)
	return res, nil
}

// fail records err in the run summary so run.json names the stage that
// stopped the run, then returns err.
func (p *Pipeline) fail(log logrus.FieldLogger, res *Result, err error) (*Result, error) {
	res.Error = err.Error()
	res.FinishedAt = time.Now()
	if _, perr := persist(res); perr != nil {
		log.WithError(perr).Warn("could not write run summary")
	}
	log.WithError(err).Errorf("run failed during %s", res.Stage)
	return nil, err
}
