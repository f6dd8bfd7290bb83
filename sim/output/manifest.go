package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/hfjet-gen/hfjet/sim"
)

// Manifest describes a finished run. It is written as YAML next to the ROOT
// file so a training set can be traced back to its configuration.
type Manifest struct {
	RunID    string         `yaml:"run_id"`
	Created  time.Time      `yaml:"created"`
	OutFile  string         `yaml:"out_file"`
	Seed     int64          `yaml:"seed"`
	Config   any            `yaml:"config"`
	Counters sim.Counters   `yaml:"counters"`
	Summary  sim.RunSummary `yaml:"summary"`
}

// NewManifest creates a manifest with a fresh run id.
func NewManifest(outFile string, seed int64, cfg any) *Manifest {
	return &Manifest{
		RunID:   uuid.NewString(),
		Created: time.Now().UTC(),
		OutFile: outFile,
		Seed:    seed,
		Config:  cfg,
	}
}

// Complete records the outcome of the run.
func (m *Manifest) Complete(summary sim.RunSummary) {
	m.Counters = summary.Counters
	m.Summary = summary
}

// ManifestPath returns the manifest path for a ROOT output file:
// out.root -> out.yaml.
func ManifestPath(outFile string) string {
	return strings.TrimSuffix(outFile, filepath.Ext(outFile)) + ".yaml"
}

// Write stores the manifest at path.
func (m *Manifest) Write(path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// ReadManifest loads a manifest written by Write. Config is decoded as a
// generic YAML mapping.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}
