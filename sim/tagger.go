package sim

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"go-hep.org/x/hep/fmom"
)

// Flavor is the heavy-flavor label of a jet.
type Flavor int

const (
	Unlabeled Flavor = 0
	Light     Flavor = 1
	Charm     Flavor = 2
	Bottom    Flavor = 3
)

// Flavors lists the persisted labels in ascending mass order.
var Flavors = []Flavor{Light, Charm, Bottom}

// Suffix returns the histogram suffix of a label ("l", "c", "b").
func (f Flavor) Suffix() string {
	switch f {
	case Light:
		return "l"
	case Charm:
		return "c"
	case Bottom:
		return "b"
	default:
		return "none"
	}
}

func (f Flavor) String() string {
	switch f {
	case Light:
		return "light"
	case Charm:
		return "charm"
	case Bottom:
		return "bottom"
	default:
		return "unlabeled"
	}
}

// PartonFlavor maps an absolute PDG id to the label it votes for.
// Species other than d, u, s, c, b and gluons vote Unlabeled.
func PartonFlavor(absID int) Flavor {
	switch absID {
	case 5:
		return Bottom
	case 4:
		return Charm
	case 1, 2, 3, 21:
		return Light
	default:
		return Unlabeled
	}
}

// HeaviestFlavor returns the largest label among candidates, or Unlabeled
// when there are none. Encounter order does not matter.
func HeaviestFlavor(candidates []Flavor) Flavor {
	best := Unlabeled
	for _, c := range candidates {
		if c > best {
			best = c
		}
	}
	return best
}

// CandidateJet is one clustered jet.
type CandidateJet struct {
	Momentum     fmom.PxPyPzE
	Constituents []int // indices into the clustered track slice, in clustering order
}

// Pt returns the jet transverse momentum.
func (j *CandidateJet) Pt() float64 { return j.Momentum.Pt() }

// Eta returns the jet pseudorapidity.
func (j *CandidateJet) Eta() float64 { return j.Momentum.Eta() }

// Phi returns the jet azimuth in [0, 2pi).
func (j *CandidateJet) Phi() float64 { return phi02pi(j.Momentum.Phi()) }

// Clusterer groups four-momenta into jets.
// Implementations must be deterministic for identical input.
type Clusterer interface {
	Cluster(momenta []fmom.PxPyPzE, radius, ptMin float64) ([]CandidateJet, error)
}

// LabeledJet is a jet that passed acceptance and matched at least one parton.
type LabeledJet struct {
	Jet    CandidateJet
	Flavor Flavor
}

// Tagger selects jets in acceptance and labels them against truth partons.
type Tagger struct {
	Clusterer Clusterer
	Config    JetConfig
	Monitor   *Monitor
}

// NewTagger creates a Tagger.
func NewTagger(c Clusterer, cfg JetConfig, monitor *Monitor) *Tagger {
	return &Tagger{Clusterer: c, Config: cfg, Monitor: monitor}
}

// Select clusters the tracks and keeps jets with |eta| <= 1-R and pT within
// [PtJetMin, PtJetMax]. Returns ErrNoAcceptedJet when none survive.
func (t *Tagger) Select(tracks []Track) ([]CandidateJet, error) {
	momenta := make([]fmom.PxPyPzE, len(tracks))
	for i := range tracks {
		momenta[i] = tracks[i].Momentum
	}
	jets, err := t.Clusterer.Cluster(momenta, t.Config.Radius, SeedJetMinPt)
	if err != nil {
		return nil, fmt.Errorf("clustering %d tracks: %w", len(tracks), err)
	}
	if t.Monitor != nil {
		t.Monitor.Counters.JetsClustered += int64(len(jets))
	}

	var accepted []CandidateJet
	for i := range jets {
		if t.inAcceptance(&jets[i]) {
			accepted = append(accepted, jets[i])
		}
	}
	if len(accepted) == 0 {
		return nil, ErrNoAcceptedJet
	}
	return accepted, nil
}

func (t *Tagger) inAcceptance(j *CandidateJet) bool {
	pt := j.Pt()
	return math.Abs(j.Eta()) <= 1-t.Config.Radius &&
		pt >= t.Config.PtJetMin && pt <= t.Config.PtJetMax
}

// Tag labels a jet with the heaviest outgoing hard-scattering parton of the
// truth event lying within the clustering radius.
func (t *Tagger) Tag(jet *CandidateJet, truth Event) Flavor {
	var candidates []Flavor
	for i := range truth.Particles {
		p := &truth.Particles[i]
		if !p.Parton || absInt(p.Status) != HardProcessStatus {
			continue
		}
		mom := p.Momentum()
		if math.Abs(mom.Eta()) > MaxPartonEta {
			continue
		}
		if fmom.DeltaR(&jet.Momentum, &mom) > t.Config.Radius {
			continue
		}
		if f := PartonFlavor(absInt(p.ID)); f != Unlabeled {
			candidates = append(candidates, f)
		}
	}
	return HeaviestFlavor(candidates)
}

// Run selects and labels the jets of one event. Jets with a single
// constituent are skipped. Unmatched jets follow the configured policy; under
// UnmatchedAbortEvent no jet of the event is labeled or histogrammed.
func (t *Tagger) Run(tracks []Track, truth Event) ([]LabeledJet, error) {
	jets, err := t.Select(tracks)
	if err != nil {
		return nil, err
	}

	var labeled []LabeledJet
	for i := range jets {
		jet := &jets[i]
		if t.Monitor != nil {
			t.Monitor.fillAcceptedJet(jet.Pt())
		}
		if len(jet.Constituents) == 1 {
			if t.Monitor != nil {
				t.Monitor.Counters.SingleConstituent++
			}
			continue
		}

		flavor := t.Tag(jet, truth)
		if flavor == Unlabeled {
			if t.Monitor != nil {
				t.Monitor.Counters.UnmatchedJets++
			}
			if t.Config.Unmatched == UnmatchedAbortEvent {
				logrus.Debugf("jet %d (pT %.2f) has no matching parton, dropping event", i, jet.Pt())
				return nil, ErrUnmatchedJet
			}
			logrus.Debugf("jet %d (pT %.2f) has no matching parton, skipping", i, jet.Pt())
			continue
		}

		labeled = append(labeled, LabeledJet{Jet: *jet, Flavor: flavor})
	}

	// Labeled-jet histograms only count jets that leave the tagger.
	if t.Monitor != nil {
		for i := range labeled {
			t.Monitor.fillLabeledJet(labeled[i].Flavor, labeled[i].Jet.Pt())
		}
	}
	return labeled, nil
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// phi02pi maps an azimuth into [0, 2pi).
func phi02pi(phi float64) float64 {
	phi = math.Mod(phi, 2*math.Pi)
	if phi < 0 {
		phi += 2 * math.Pi
	}
	return phi
}
