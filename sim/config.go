package sim

import "fmt"

// Fixed acceptance and detector constants.
const (
	MinTrackPt          = 0.2      // lowest accepted track pT (GeV)
	MaxTrackEta         = 1.0      // tracking acceptance |eta|
	MaxTrackDCAz        = 60.0     // |DCA_z| acceptance (mm)
	MaxTrackDCAxy       = 20.0     // DCA_xy acceptance (mm)
	PileupVertexRange   = 60.0     // pileup vertex z drawn in [-range, range)
	PionMass            = 0.139570 // mass assumed for every track (GeV)
	SeedJetMinPt        = 5.0      // inclusive jet pT floor passed to the clusterer
	MaxPartonEta        = 1.0      // |eta| acceptance of tagging partons
	HardProcessStatus   = 23       // |status| of outgoing hard-scattering partons
	MaxConstituents     = 100      // constituent slots per persisted jet
	DefaultProgressStep = 1000     // accepted events between progress logs
)

// UnmatchedPolicy selects what happens to an event when one of its jets
// matches no parton.
type UnmatchedPolicy string

const (
	// UnmatchedSkipJet drops only the unmatched jet.
	UnmatchedSkipJet UnmatchedPolicy = "skip-jet"
	// UnmatchedAbortEvent drops every jet of the event, including those
	// labeled before the unmatched one, and fails the event with
	// ErrUnmatchedJet.
	UnmatchedAbortEvent UnmatchedPolicy = "abort-event"
)

// ValidUnmatchedPolicies is the set of recognized unmatched-jet policies.
var ValidUnmatchedPolicies = map[UnmatchedPolicy]bool{"": true, UnmatchedSkipJet: true, UnmatchedAbortEvent: true}

// DetectorConfig groups track-level detector simulation parameters.
type DetectorConfig struct {
	PtTrackMax         float64 `yaml:"pt_track_max"`        // track pT ceiling (GeV)
	TrackingEfficiency float64 `yaml:"tracking_efficiency"` // probability of keeping a track, applied only when Smear is set
	Smear              bool    `yaml:"smear"`               // enable efficiency and resolution simulation
	Pileup             bool    `yaml:"pileup"`              // mix one pileup event per primary event
}

// JetConfig groups jet selection and tagging parameters.
type JetConfig struct {
	Radius    float64         `yaml:"radius"`     // clustering radius R
	PtJetMin  float64         `yaml:"pt_jet_min"` // accepted jet pT range (GeV)
	PtJetMax  float64         `yaml:"pt_jet_max"`
	Unmatched UnmatchedPolicy `yaml:"unmatched"` // "" behaves as UnmatchedSkipJet
}

// PipelineConfig groups everything the event driver needs.
type PipelineConfig struct {
	Detector      DetectorConfig `yaml:"detector"`
	Jets          JetConfig      `yaml:"jets"`
	ProgressEvery int            `yaml:"progress_every"` // accepted events between progress logs; 0 uses DefaultProgressStep
}

// NewDetectorConfig creates a DetectorConfig. Zero values are kept as given.
func NewDetectorConfig(ptTrackMax, trackingEfficiency float64, smear, pileup bool) DetectorConfig {
	return DetectorConfig{
		PtTrackMax:         ptTrackMax,
		TrackingEfficiency: trackingEfficiency,
		Smear:              smear,
		Pileup:             pileup,
	}
}

// NewJetConfig creates a JetConfig. Zero values are kept as given.
func NewJetConfig(radius, ptJetMin, ptJetMax float64, unmatched UnmatchedPolicy) JetConfig {
	return JetConfig{
		Radius:    radius,
		PtJetMin:  ptJetMin,
		PtJetMax:  ptJetMax,
		Unmatched: unmatched,
	}
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c PipelineConfig) Validate() error {
	d, j := c.Detector, c.Jets
	if d.PtTrackMax < MinTrackPt {
		return fmt.Errorf("track pT ceiling %.3f below the %.1f GeV floor", d.PtTrackMax, MinTrackPt)
	}
	if d.TrackingEfficiency < 0 || d.TrackingEfficiency > 1 {
		return fmt.Errorf("tracking efficiency %.3f outside [0, 1]", d.TrackingEfficiency)
	}
	if j.Radius <= 0 || j.Radius >= 1 {
		return fmt.Errorf("jet radius %.3f outside (0, 1)", j.Radius)
	}
	if j.PtJetMin < 0 || j.PtJetMax < j.PtJetMin {
		return fmt.Errorf("invalid jet pT range [%.2f, %.2f]", j.PtJetMin, j.PtJetMax)
	}
	if !ValidUnmatchedPolicies[j.Unmatched] {
		return fmt.Errorf("unknown unmatched-jet policy %q", j.Unmatched)
	}
	if c.ProgressEvery < 0 {
		return fmt.Errorf("progress interval must be >= 0, got %d", c.ProgressEvery)
	}
	return nil
}
