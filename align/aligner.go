package align

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/sync/errgroup"

	"github.com/maastricht-university/acoustic-prep/catalog"
	"github.com/maastricht-university/acoustic-prep/config"
	"github.com/maastricht-university/acoustic-prep/matrix"
)

// File extensions of label and acoustic artifacts.
const (
	LabelExt = catalog.LabelExt
	CmpExt   = catalog.CmpExt
)

// PreparedMarker is written into the output label dir once every utterance
// has been aligned.
const PreparedMarker = ".aligned"

// LabelWidth is the element width of aligned label files.
const LabelWidth = matrix.Float32

type Options struct {
	LabelDir    string // source text labels
	CmpDir      string // source binary acoustic params
	OutLabelDir string
	OutCmpDir   string
	ModelType   config.ModelType
	Workers     int
	Progress    io.Writer // nil disables the progress bar
}

type Aligner struct {
	opts     Options
	hp       config.HParams
	cmpDim   int
	cmpWidth int
	log      logrus.FieldLogger
}

func New(opts Options, hp config.HParams, log logrus.FieldLogger) (*Aligner, error) {
	dim, width, err := hp.AcousticShape(opts.ModelType)
	if err != nil {
		return nil, err
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Aligner{opts: opts, hp: hp, cmpDim: dim, cmpWidth: width, log: log}, nil
}

// Prepared reports whether a previous AlignAll completed into the output
// directories. Directories left behind by a failed run do not count.
func (a *Aligner) Prepared() bool {
	return isFile(a.markerPath()) && isDir(a.opts.OutCmpDir)
}

func (a *Aligner) markerPath() string {
	return filepath.Join(a.opts.OutLabelDir, PreparedMarker)
}

// Utterances lists the ids of the source label files in directory order.
func (a *Aligner) Utterances() ([]string, error) {
	entries, err := os.ReadDir(a.opts.LabelDir)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != LabelExt {
			a.log.Debugf("align: skipping %s", name)
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, LabelExt))
	}
	return ids, nil
}

// AlignUtterance aligns one utterance and writes both output files.
func (a *Aligner) AlignUtterance(id string) error {
	label, err := matrix.ReadText(filepath.Join(a.opts.LabelDir, id+LabelExt))
	if errors.Is(err, matrix.ErrNoFrames) {
		return fmt.Errorf("%s: %w: label has no frames", id, ErrEmptyUtterance)
	}
	if err != nil {
		return fmt.Errorf("%s: read label: %w", id, err)
	}
	if _, cols := label.Dims(); a.hp.LabelChannels > 0 && cols != a.hp.LabelChannels {
		return fmt.Errorf("%s: %w", id, &matrix.MalformedFileError{
			Path:      filepath.Join(a.opts.LabelDir, id+LabelExt),
			Dimension: a.hp.LabelChannels,
			Reason:    fmt.Sprintf("label has %d columns, want %d", cols, a.hp.LabelChannels),
		})
	}

	cmp, err := matrix.Read(filepath.Join(a.opts.CmpDir, id+CmpExt), a.cmpDim, a.cmpWidth)
	if errors.Is(err, matrix.ErrNoFrames) {
		return fmt.Errorf("%s: %w: acoustic params have no frames", id, ErrEmptyUtterance)
	}
	if err != nil {
		return fmt.Errorf("%s: read acoustic params: %w", id, err)
	}

	aligned, err := Align(label, cmp)
	if err != nil {
		return fmt.Errorf("%s: %w", id, err)
	}

	if err := matrix.Write(label, filepath.Join(a.opts.OutLabelDir, id+LabelExt), LabelWidth); err != nil {
		return err
	}
	return matrix.Write(aligned, filepath.Join(a.opts.OutCmpDir, id+CmpExt), a.cmpWidth)
}

// AlignAll aligns every source utterance and returns how many were written.
// The first failure stops the remaining work.
func (a *Aligner) AlignAll(ctx context.Context) (int, error) {
	for _, dir := range []string{a.opts.OutLabelDir, a.opts.OutCmpDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, err
		}
	}
	if err := os.Remove(a.markerPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return 0, err
	}
	ids, err := a.Utterances()
	if err != nil {
		return 0, err
	}

	var (
		progress *mpb.Progress
		bar      *mpb.Bar
	)
	if a.opts.Progress != nil && len(ids) > 0 {
		progress = mpb.NewWithContext(ctx, mpb.WithOutput(a.opts.Progress))
		bar = progress.AddBar(int64(len(ids)),
			mpb.PrependDecorators(decor.Name("align "), decor.CountersNoUnit("%d / %d")),
			mpb.AppendDecorators(decor.Percentage()),
		)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Workers)
	for _, id := range ids {
		if gctx.Err() != nil {
			break
		}
		id := id
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			a.log.Infof("processing %s", id)
			if err := a.AlignUtterance(id); err != nil {
				return err
			}
			if bar != nil {
				bar.Increment()
			}
			return nil
		})
	}
	err = g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	if progress != nil {
		if err != nil {
			bar.Abort(false)
		}
		progress.Wait()
	}
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(a.markerPath(), []byte(fmt.Sprintf("%d\n", len(ids))), 0o644); err != nil {
		return 0, fmt.Errorf("write %s: %w", a.markerPath(), err)
	}
	return len(ids), nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
