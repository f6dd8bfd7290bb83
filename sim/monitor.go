// Monitoring histograms and run counters, filled throughout a run and
// flushed once by the sink.

package sim

import (
	"math"

	"go-hep.org/x/hep/hbook"
)

// Counters holds integer run statistics.
type Counters struct {
	EventsGenerated     int64    `yaml:"events_generated"` // attempts, including rejected events
	EventsAccepted      int64    `yaml:"events_accepted"`  // events that yielded at least one record
	TracksBuilt         int64    `yaml:"tracks_built"`
	JetsClustered       int64    `yaml:"jets_clustered"`
	JetsInAcceptance    int64    `yaml:"jets_in_acceptance"`
	SingleConstituent   int64    `yaml:"single_constituent"` // accepted jets skipped for having one track
	UnmatchedJets       int64    `yaml:"unmatched_jets"`
	JetsLabeled         [4]int64 `yaml:"jets_labeled,flow"`    // indexed by Flavor
	ConstituentsDropped int64    `yaml:"constituents_dropped"` // constituents beyond MaxConstituents
	RecordsWritten      int64    `yaml:"records_written"`
}

// flavorHists holds the per-flavor constituent feature histograms.
type flavorHists struct {
	jetPt  *hbook.H1D
	dcaZ   *hbook.H1D
	dcaXY  *hbook.H1D
	deltaR *hbook.H1D
	z      *hbook.H1D
	sip3d  *hbook.H1D
}

// Monitor is the process-wide set of monitoring histograms.
// Histograms are append-only and never reset during a run.
type Monitor struct {
	Counters Counters

	stat       *hbook.H1D
	jetPt      *hbook.H1D
	trackPt    *hbook.H1D
	trackDCAz  *hbook.H1D
	trackDCAxy *hbook.H1D
	byFlavor   map[Flavor]*flavorHists
	ordered    []*hbook.H1D
}

// NewMonitor books every monitoring histogram.
func NewMonitor() *Monitor {
	m := &Monitor{byFlavor: make(map[Flavor]*flavorHists)}
	m.stat = m.book("hStat", 3, 0, 2)
	m.jetPt = m.book("hJetPt", 200, 0, 100)
	for _, f := range Flavors {
		m.byFlavor[f] = &flavorHists{jetPt: m.book("hJetPt_"+f.Suffix(), 200, 0, 100)}
	}
	m.trackPt = m.book("hConstTrackPt", 200, 0, 100)
	m.trackDCAz = m.book("hConstTrackDCA_z", 4000, -100, 100)
	m.trackDCAxy = m.book("hConstTrackDCA_xy", 4000, 0, 100)
	for _, f := range Flavors {
		fh := m.byFlavor[f]
		fh.dcaZ = m.book("hConstTrackDCA_z_"+f.Suffix(), 4000, -100, 100)
		fh.dcaXY = m.book("hConstTrackDCA_xy_"+f.Suffix(), 4000, 0, 100)
	}
	for _, f := range Flavors {
		m.byFlavor[f].deltaR = m.book("hDeltaR_"+f.Suffix(), 1000, 0, 1)
	}
	for _, f := range Flavors {
		m.byFlavor[f].z = m.book("hZ_"+f.Suffix(), 1000, 0, 1)
	}
	for _, f := range Flavors {
		m.byFlavor[f].sip3d = m.book("hSIP3D_"+f.Suffix(), 4000, -100, 100)
	}
	return m
}

func (m *Monitor) book(name string, nbins int, lo, hi float64) *hbook.H1D {
	h := hbook.NewH1D(nbins, lo, hi)
	h.Annotation()["name"] = name
	m.ordered = append(m.ordered, h)
	return h
}

// Histograms returns every histogram in booking order.
func (m *Monitor) Histograms() []*hbook.H1D {
	return m.ordered
}

// Histogram returns the histogram with the given name, or nil.
func (m *Monitor) Histogram(name string) *hbook.H1D {
	for _, h := range m.ordered {
		if h.Name() == name {
			return h
		}
	}
	return nil
}

func (m *Monitor) fillTrack(pt, dcaZ, dcaXY float64) {
	m.trackPt.Fill(pt, 1)
	m.trackDCAz.Fill(dcaZ, 1)
	m.trackDCAxy.Fill(dcaXY, 1)
	m.Counters.TracksBuilt++
}

func (m *Monitor) fillAcceptedJet(pt float64) {
	m.jetPt.Fill(pt, 1)
	m.Counters.JetsInAcceptance++
}

func (m *Monitor) fillLabeledJet(f Flavor, pt float64) {
	if fh, ok := m.byFlavor[f]; ok {
		fh.jetPt.Fill(pt, 1)
	}
	m.stat.Fill(1, 1)
	m.Counters.JetsLabeled[f]++
}

func (m *Monitor) fillConstituent(f Flavor, c ConstituentFeatures) {
	fh, ok := m.byFlavor[f]
	if !ok {
		return
	}
	fh.dcaZ.Fill(math.Abs(c.DCAz), 1)
	fh.dcaXY.Fill(c.DCAxy, 1)
	fh.deltaR.Fill(c.DeltaR, 1)
	fh.z.Fill(c.Z, 1)
	fh.sip3d.Fill(c.SIP3D, 1)
}
