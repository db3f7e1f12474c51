package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/maastricht-university/acoustic-prep/matrix"
)

// ModelType selects the acoustic feature layout.
type ModelType string

const (
	Acoustic    ModelType = "acoustic"
	AcousticMGC ModelType = "acoustic_mgc"
)

var (
	ErrUnknownModelType = errors.New("unknown model type")
	ErrInvalidHParams   = errors.New("invalid hparams")
)

// ParseModelType accepts "acoustic" or "acoustic_mgc".
func ParseModelType(s string) (ModelType, error) {
	switch mt := ModelType(s); mt {
	case Acoustic, AcousticMGC:
		return mt, nil
	}
	return "", fmt.Errorf("%w %q (want %s or %s)", ErrUnknownModelType, s, Acoustic, AcousticMGC)
}

// HParams holds the corpus-wide channel dimensions from hparams.json.
type HParams struct {
	TargetChannels    int `mapstructure:"target_channels"`
	MGCTargetChannels int `mapstructure:"mgc_target_channels"`
	LabelChannels     int `mapstructure:"label_channels"`
}

var hparamKeys = []string{"target_channels", "mgc_target_channels", "label_channels"}

// HParamsPath returns HPARAMS_PATH when set, otherwise fallback.
func HParamsPath(fallback string) string {
	if p := os.Getenv("HPARAMS_PATH"); p != "" {
		return p
	}
	return fallback
}

// LoadHParams reads a JSON hparams document. Each key may be overridden by
// HPARAMS_<KEY> in the environment.
func LoadHParams(path string) (HParams, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix("HPARAMS")
	for _, k := range hparamKeys {
		if err := v.BindEnv(k); err != nil {
			return HParams{}, err
		}
	}
	if err := v.ReadInConfig(); err != nil {
		return HParams{}, fmt.Errorf("read hparams %s: %w", path, err)
	}

	var h HParams
	if err := v.Unmarshal(&h); err != nil {
		return HParams{}, fmt.Errorf("decode hparams %s: %w", path, err)
	}
	return h, nil
}

// AcousticShape returns the column count and element width of acoustic
// matrices for mt.
func (h HParams) AcousticShape(mt ModelType) (dimension, width int, err error) {
	switch mt {
	case Acoustic:
		dimension, width = h.TargetChannels, matrix.Float64
	case AcousticMGC:
		dimension, width = h.MGCTargetChannels, matrix.Float32
	default:
		return 0, 0, fmt.Errorf("%w %q", ErrUnknownModelType, mt)
	}
	if dimension < 1 {
		return 0, 0, fmt.Errorf("%w: no channel count for model type %s", ErrInvalidHParams, mt)
	}
	return dimension, width, nil
}

// Validate checks the dimensions needed to process mt.
func (h HParams) Validate(mt ModelType) error {
	if _, _, err := h.AcousticShape(mt); err != nil {
		return err
	}
	if h.LabelChannels < 1 {
		return fmt.Errorf("%w: label_channels must be at least 1", ErrInvalidHParams)
	}
	return nil
}
