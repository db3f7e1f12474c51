// Package cmd holds the acoustic-prep command line.
package cmd

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	cfg "github.com/maastricht-university/acoustic-prep/config"
	"github.com/maastricht-university/acoustic-prep/logging"
	"github.com/maastricht-university/acoustic-prep/orchestrator"
)

type rootFlags struct {
	labelDir  string
	cmpDir    string
	name      string
	modelType string
}

// NewRootCommand builds the command with its four required flags.
func NewRootCommand() *cobra.Command {
	var f rootFlags
	c := &cobra.Command{
		Use:   "acoustic-prep",
		Short: "Align, catalogue and split label/acoustic data for TTS training",
		Long: `Align per-utterance label and acoustic matrices to equal frame counts,
write them under raw_<name>/, split the corpus into train/valid/test manifests
under config_<name>/ and normalize every split into data_<name>/.

Channel dimensions are read from hparams.json (HPARAMS_PATH overrides the
location); pipeline settings from config/<CONFIG_ENV>/config.yaml.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), f)
		},
	}
	c.Flags().StringVar(&f.labelDir, "label_dir", "", "directory of source label files (<id>.lab, text)")
	c.Flags().StringVar(&f.cmpDir, "cmp_dir", "", "directory of source acoustic parameter files (<id>.cmp, binary)")
	c.Flags().StringVar(&f.name, "name", "", "dataset name; outputs go to raw_<name>, config_<name> and data_<name>")
	c.Flags().StringVar(&f.modelType, "model_type", "", "acoustic or acoustic_mgc")
	for _, name := range []string{"label_dir", "cmp_dir", "name", "model_type"} {
		_ = c.MarkFlagRequired(name)
	}
	return c
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func run(ctx context.Context, f rootFlags) error {
	mt, err := cfg.ParseModelType(f.modelType)
	if err != nil {
		return err
	}
	conf, err := cfg.Load()
	if err != nil {
		return err
	}
	logger := logging.New(conf.Pipeline.LogLvl, conf.Pipeline.LogFormat)

	hp, err := cfg.LoadHParams(cfg.HParamsPath(conf.Paths.HParams))
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"target_channels":     hp.TargetChannels,
		"mgc_target_channels": hp.MGCTargetChannels,
		"label_channels":      hp.LabelChannels,
		"workers":             conf.Align.Workers,
		"seed":                conf.Split.Seed,
	}).Info("configuration loaded")

	p := orchestrator.NewPipeline(conf, hp, logger)
	_, err = p.Run(ctx, orchestrator.Options{
		LabelDir:  f.labelDir,
		CmpDir:    f.cmpDir,
		Name:      f.name,
		ModelType: mt,
	})
	return err
}
