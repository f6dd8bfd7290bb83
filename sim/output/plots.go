package output

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot/vg"

	"github.com/hfjet-gen/hfjet/sim"
)

// flavorColors gives each label a fixed line color in comparison plots.
var flavorColors = map[sim.Flavor]color.Color{
	sim.Light:  color.RGBA{B: 255, A: 255},
	sim.Charm:  color.RGBA{G: 160, A: 255},
	sim.Bottom: color.RGBA{R: 255, A: 255},
}

// comparisonPlots lists the per-flavor histogram families drawn by
// PlotFlavorComparison: histogram name prefix and x axis label.
var comparisonPlots = []struct {
	prefix string
	xlabel string
}{
	{"hJetPt_", "jet pT [GeV]"},
	{"hConstTrackDCA_z_", "|DCA_z| [mm]"},
	{"hConstTrackDCA_xy_", "DCA_xy [mm]"},
	{"hDeltaR_", "DeltaR(track, jet)"},
	{"hZ_", "z = pT(track) / pT(jet)"},
	{"hSIP3D_", "SIP3D"},
}

// PlotFlavorComparison draws, for each per-flavor feature, the unit-area
// light, charm and bottom distributions on one PNG in dir. It returns the
// written file paths.
func PlotFlavorComparison(m *sim.Monitor, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating plot directory: %w", err)
	}
	var files []string
	for _, cp := range comparisonPlots {
		p := hplot.New()
		p.X.Label.Text = cp.xlabel
		p.Y.Label.Text = "normalized count"
		drawn := 0
		for _, f := range sim.Flavors {
			h := m.Histogram(cp.prefix + f.Suffix())
			if h == nil || h.Entries() == 0 {
				continue
			}
			hp := hplot.NewH1D(normalized(h))
			hp.LineStyle.Color = flavorColors[f]
			p.Add(hp)
			p.Legend.Add(f.String(), hp)
			drawn++
		}
		if drawn == 0 {
			continue
		}
		file := filepath.Join(dir, cp.prefix+"flavors.png")
		if err := p.Save(6*vg.Inch, 4*vg.Inch, file); err != nil {
			return files, fmt.Errorf("saving %s: %w", file, err)
		}
		files = append(files, file)
	}
	return files, nil
}

// normalized returns a unit-area copy of h built from its in-range bins.
func normalized(h *hbook.H1D) *hbook.H1D {
	bins := h.Binning.Bins
	out := hbook.NewH1D(len(bins), h.XMin(), h.XMax())
	total := 0.0
	for _, b := range bins {
		total += b.SumW()
	}
	if total == 0 {
		return out
	}
	for _, b := range bins {
		if w := b.SumW(); w != 0 {
			out.Fill(b.XMid(), w/total)
		}
	}
	return out
}
