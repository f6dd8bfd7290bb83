package sim

import (
	"fmt"

	"go-hep.org/x/hep/hbook"
	"gonum.org/v1/gonum/stat"
)

// FlavorSummary aggregates the jets of one label.
type FlavorSummary struct {
	Jets         int64   `yaml:"jets"`
	MeanJetPt    float64 `yaml:"mean_jet_pt"`
	StdDevJetPt  float64 `yaml:"stddev_jet_pt"`
	MeanSIP3D    float64 `yaml:"mean_sip3d"`
	Constituents int64   `yaml:"constituents"`
}

// RunSummary aggregates statistics of a finished run.
type RunSummary struct {
	Counters       Counters                 `yaml:"-"`
	AcceptanceRate float64                  `yaml:"acceptance_rate"` // accepted / generated events
	Flavors        map[string]FlavorSummary `yaml:"flavors"`
}

// Summarize computes aggregate statistics from a Monitor.
// Safe for nil or empty monitors (returns zero-value fields).
func Summarize(m *Monitor) RunSummary {
	summary := RunSummary{Flavors: make(map[string]FlavorSummary)}
	if m == nil {
		return summary
	}
	summary.Counters = m.Counters
	if m.Counters.EventsGenerated > 0 {
		summary.AcceptanceRate = float64(m.Counters.EventsAccepted) / float64(m.Counters.EventsGenerated)
	}
	for _, f := range Flavors {
		fh := m.byFlavor[f]
		fs := FlavorSummary{
			Jets:         m.Counters.JetsLabeled[f],
			Constituents: fh.z.Entries(),
		}
		fs.MeanJetPt, fs.StdDevJetPt = binnedMeanStdDev(fh.jetPt)
		fs.MeanSIP3D, _ = binnedMeanStdDev(fh.sip3d)
		summary.Flavors[f.String()] = fs
	}
	return summary
}

// binnedMeanStdDev estimates the mean and standard deviation of a histogram
// from its in-range bin centers weighted by bin contents.
func binnedMeanStdDev(h *hbook.H1D) (mean, std float64) {
	bins := h.Binning.Bins
	xs := make([]float64, 0, len(bins))
	ws := make([]float64, 0, len(bins))
	total := 0.0
	for _, b := range bins {
		if b.SumW() == 0 {
			continue
		}
		xs = append(xs, b.XMid())
		ws = append(ws, b.SumW())
		total += b.SumW()
	}
	switch {
	case total == 0:
		return 0, 0
	case len(xs) == 1:
		return xs[0], 0
	}
	return stat.MeanStdDev(xs, ws)
}

// Print displays the run summary.
func (s RunSummary) Print() {
	c := s.Counters
	fmt.Println("=== Generation Summary ===")
	fmt.Printf("Events generated     : %d\n", c.EventsGenerated)
	fmt.Printf("Events accepted      : %d (%.2f%%)\n", c.EventsAccepted, 100*s.AcceptanceRate)
	fmt.Printf("Tracks built         : %d\n", c.TracksBuilt)
	fmt.Printf("Jets clustered       : %d\n", c.JetsClustered)
	fmt.Printf("Jets in acceptance   : %d\n", c.JetsInAcceptance)
	fmt.Printf("Single-track jets    : %d\n", c.SingleConstituent)
	fmt.Printf("Unmatched jets       : %d\n", c.UnmatchedJets)
	fmt.Printf("Records written      : %d\n", c.RecordsWritten)
	if c.ConstituentsDropped > 0 {
		fmt.Printf("Constituents dropped : %d\n", c.ConstituentsDropped)
	}
	for _, f := range Flavors {
		fs := s.Flavors[f.String()]
		fmt.Printf("%-7s jets: %d, <pT> %.2f GeV (sd %.2f), <SIP3D> %.2f\n",
			f, fs.Jets, fs.MeanJetPt, fs.StdDevJetPt, fs.MeanSIP3D)
	}
}
