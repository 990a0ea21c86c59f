// Package config loads and validates the project file.
//
// A project file is YAML describing one analysis campaign: where the
// characteristic tables live, how many datapoints to sample, which upgrades
// to simulate, and the scheduler knobs. The file is validated against an
// embedded CUE schema before decoding, so a malformed project fails with
// positioned errors instead of zero values deep in a run.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Config is one project's campaign description.
type Config struct {
	ProjectDirectory    string    `yaml:"project_directory"`
	BuildstockDirectory string    `yaml:"buildstock_directory"`
	OutputDirectory     string    `yaml:"output_directory"`
	Baseline            Baseline  `yaml:"baseline"`
	Upgrades            []Upgrade `yaml:"upgrades"`
	HPC                 HPC       `yaml:"hpc"`

	// Path is where the config was loaded from, for re-invocation by array
	// tasks.
	Path string `yaml:"-"`
}

// Baseline configures the sampled building stock.
type Baseline struct {
	// NDatapoints is the number of buildings simulated per scenario.
	NDatapoints int `yaml:"n_datapoints"`

	// NSamples is the sample-table size; defaults to NDatapoints.
	NSamples int `yaml:"n_samples"`
}

// Upgrade is one upgrade scenario applied on top of the baseline stock.
type Upgrade struct {
	Name string `yaml:"name"`
}

// HPC carries the scheduler knobs.
type HPC struct {
	Queue         string `yaml:"queue"`
	NodeType      string `yaml:"nodetype"`
	Allocation    string `yaml:"allocation"`
	MinutesPerSim int    `yaml:"minutes_per_sim"`
	NJobs         int    `yaml:"n_jobs"`
}

// Load reads, validates, and decodes the project file at path, applying
// defaults for the optional fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project file: %w", err)
	}

	if err := Validate(data); err != nil {
		return nil, fmt.Errorf("project file %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode project file %s: %w", path, err)
	}
	cfg.Path = path
	cfg.applyDefaults()
	return cfg, nil
}

// Validate checks raw project YAML against the embedded CUE schema without
// decoding it. Returns all violations, not just the first.
func Validate(data []byte) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile project schema: %w", err)
	}
	if err := cueyaml.Validate(data, schema); err != nil {
		return fmt.Errorf("validate project file:\n%s", cueerrors.Details(err, nil))
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.OutputDirectory == "" {
		c.OutputDirectory = filepath.Join("/scratch", os.Getenv("USER"), filepath.Base(c.ProjectDirectory))
	}
	if c.Baseline.NSamples == 0 {
		c.Baseline.NSamples = c.Baseline.NDatapoints
	}
	if c.HPC.Queue == "" {
		c.HPC.Queue = "batch-h"
	}
	if c.HPC.NodeType == "" {
		c.HPC.NodeType = "haswell"
	}
	if c.HPC.Allocation == "" {
		c.HPC.Allocation = "res_stock"
	}
	if c.HPC.MinutesPerSim == 0 {
		c.HPC.MinutesPerSim = 3
	}
	if c.HPC.NJobs == 0 {
		c.HPC.NJobs = 200
	}
}

// CharacteristicsDir is where the attribute TSV set lives.
func (c *Config) CharacteristicsDir() string {
	return filepath.Join(c.BuildstockDirectory, c.ProjectDirectory, "housing_characteristics")
}

// SampleTablePath is the output location of the sample table artifact.
func (c *Config) SampleTablePath() string {
	return filepath.Join(c.OutputDirectory, "buildstock.csv")
}

// ResultsDir is where per-unit simulation directories are created.
func (c *Config) ResultsDir() string {
	return filepath.Join(c.OutputDirectory, "results")
}

// StorePath is the outcome registry database location.
func (c *Config) StorePath() string {
	return filepath.Join(c.OutputDirectory, "outcomes.db")
}
