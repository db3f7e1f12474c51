package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Service struct {
	URL string `yaml:"url"`
}
type Services struct {
	Normalizer Service `yaml:"normalizer"`
}
type Split struct {
	Seed       int64   `yaml:"seed"`
	TrainRatio float64 `yaml:"train_ratio"`
	ValidRatio float64 `yaml:"valid_ratio"`
	TestRatio  float64 `yaml:"test_ratio"`
}
type Align struct {
	Workers  int  `yaml:"workers"`
	Progress bool `yaml:"progress"`
	Force    bool `yaml:"force"`
}
type Root struct {
	Pipeline struct {
		Name      string `yaml:"name"`
		Version   string `yaml:"version"`
		LogLvl    string `yaml:"log_level"`
		LogFormat string `yaml:"log_format"`
	} `yaml:"pipeline"`
	Split    Split    `yaml:"split"`
	Align    Align    `yaml:"align"`
	Services Services `yaml:"services"`
	Paths    struct {
		Root    string `yaml:"root"`
		HParams string `yaml:"hparams"`
	} `yaml:"paths"`
}

// Default returns the configuration used when no config file is present.
func Default() *Root {
	var c Root
	c.Pipeline.Name = "acoustic-prep"
	c.Pipeline.LogLvl = "info"
	c.Pipeline.LogFormat = "text"
	c.Split = Split{Seed: 0, TrainRatio: 0.97, ValidRatio: 0.02, TestRatio: 0.01}
	c.Align.Workers = 1
	c.Paths.Root = "."
	c.Paths.HParams = "hparams.json"
	return &c
}

// Load decodes the first config file found for CONFIG_ENV (default "dev")
// over Default(). A missing file is not an error.
func Load() (*Root, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	var guess []string = []string{
		filepath.Join("config", env, "config.yaml"),
		filepath.Join("config.yaml"),
	}
	for _, p := range guess {
		cfg, err := LoadFile(p)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		return cfg, err
	}
	return Default(), nil
}

// LoadFile decodes a single YAML config over Default().
func LoadFile(path string) (*Root, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := Default()
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks ratios, worker count and logging settings.
func (c *Root) Validate() error {
	s := c.Split
	if s.TrainRatio < 0 || s.ValidRatio < 0 || s.TestRatio < 0 {
		return errors.New("split ratios must be non-negative")
	}
	if s.TrainRatio+s.ValidRatio > 1 {
		return errors.New("split.train_ratio + split.valid_ratio must not exceed 1")
	}
	if c.Align.Workers < 1 {
		return errors.New("align.workers must be at least 1")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Pipeline.LogLvl] {
		return errors.New("pipeline.log_level must be one of: debug, info, warn, error")
	}
	validLogFormats := map[string]bool{"text": true, "json": true}
	if !validLogFormats[c.Pipeline.LogFormat] {
		return errors.New("pipeline.log_format must be one of: text, json")
	}
	return nil
}
