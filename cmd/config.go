package cmd

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hfjet-gen/hfjet/sim"
	"github.com/hfjet-gen/hfjet/sim/output"
	"github.com/hfjet-gen/hfjet/sim/source"
)

// GeneratorConfig selects the event source. An empty Input uses the toy
// hard-scatter generator.
type GeneratorConfig struct {
	Input  string           `yaml:"input"`  // HepMC2 ASCII file
	Events int              `yaml:"events"` // accepted events to produce
	Seed   int64            `yaml:"seed"`   // -1 derives a seed from time and pid
	Toy    source.ToyConfig `yaml:"toy"`
	Pileup PileupConfig     `yaml:"pileup"`
}

// PileupConfig parameterizes the minimum-bias pileup generator.
type PileupConfig struct {
	Input        string `yaml:"input"`        // HepMC2 ASCII file; empty uses the toy minimum-bias generator
	Multiplicity int    `yaml:"multiplicity"` // mean particles per toy pileup event
}

// RunConfig is the YAML run configuration. All top-level sections must be
// listed to satisfy KnownFields(true) strict parsing.
type RunConfig struct {
	OutFile   string             `yaml:"out_file"`
	PlotsDir  string             `yaml:"plots_dir"` // flavor comparison PNGs; empty disables
	Generator GeneratorConfig    `yaml:"generator"`
	Pipeline  sim.PipelineConfig `yaml:"pipeline"`
	S3        output.S3Config    `yaml:"s3"`
}

// DefaultRunConfig returns the configuration used when no file is given.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		OutFile: "test.root",
		Generator: GeneratorConfig{
			Events: 1000,
			Seed:   -1,
			Toy: source.ToyConfig{
				PtHatMin:        10,
				PtHatMax:        -1,
				BottomFraction:  0.2,
				CharmFraction:   0.2,
				UnderlyingEvent: 20,
			},
			Pileup: PileupConfig{Multiplicity: 40},
		},
		Pipeline: sim.PipelineConfig{
			Detector:      sim.NewDetectorConfig(30, 0.8, false, false),
			Jets:          sim.NewJetConfig(0.4, 10, 200, sim.UnmatchedSkipJet),
			ProgressEvery: sim.DefaultProgressStep,
		},
	}
}

// LoadRunConfig reads a YAML run configuration on top of the defaults.
// Unknown fields are rejected.
func LoadRunConfig(path string) (RunConfig, error) {
	cfg := DefaultRunConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading run config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing run config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the parts of the configuration the pipeline does not.
func (c RunConfig) Validate() error {
	if c.OutFile == "" {
		return fmt.Errorf("output file name required")
	}
	if c.Generator.Events <= 0 {
		return fmt.Errorf("number of events must be > 0, got %d", c.Generator.Events)
	}
	if c.Generator.Input == "" {
		if err := c.Generator.Toy.Validate(); err != nil {
			return fmt.Errorf("toy generator: %w", err)
		}
	}
	if c.Generator.Pileup.Multiplicity < 0 {
		return fmt.Errorf("pileup multiplicity must be >= 0, got %d", c.Generator.Pileup.Multiplicity)
	}
	return c.Pipeline.Validate()
}
