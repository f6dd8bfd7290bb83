package sim

import (
	"math"

	"github.com/sirupsen/logrus"
	"go-hep.org/x/hep/fmom"
	"gonum.org/v1/gonum/spatial/r3"
)

// Sentinel written to jet-level scalars of a cleared FixedRecord.
const sentinel = -999

// ConstituentFeatures are the training features of one jet constituent.
type ConstituentFeatures struct {
	Pt     float64
	Eta    float64
	Phi    float64 // [0, 2pi)
	DCAz   float64 // signed
	DCAxy  float64 // unsigned
	DeltaR float64 // to the jet axis
	Z      float64 // pT fraction of the jet
	SIP3D  float64 // signed impact parameter significance
}

// JetRecord is the output unit: one labeled jet and its constituents in
// clustering order. Constituents never holds more than MaxConstituents entries.
type JetRecord struct {
	Pt           float64
	Eta          float64
	Phi          float64 // [0, 2pi)
	Flavor       Flavor
	Constituents []ConstituentFeatures
	Dropped      int // constituents beyond MaxConstituents
}

// NTracks returns the number of meaningful constituent entries.
func (r *JetRecord) NTracks() int { return len(r.Constituents) }

// Extractor derives per-constituent features of labeled jets.
type Extractor struct {
	Monitor *Monitor
}

// NewExtractor creates an Extractor filling the given monitor.
func NewExtractor(monitor *Monitor) *Extractor {
	return &Extractor{Monitor: monitor}
}

// Extract builds the record of one labeled jet. tracks must be the slice the
// jet was clustered from. Constituents beyond MaxConstituents are dropped
// with a warning, keeping the first ones in clustering order.
func (e *Extractor) Extract(lj LabeledJet, tracks []Track) JetRecord {
	jet := lj.Jet
	rec := JetRecord{
		Pt:     jet.Pt(),
		Eta:    jet.Eta(),
		Phi:    jet.Phi(),
		Flavor: lj.Flavor,
	}

	n := len(jet.Constituents)
	if n > MaxConstituents {
		rec.Dropped = n - MaxConstituents
		n = MaxConstituents
		logrus.Warnf("jet with pT %.2f has %d constituents, keeping the first %d",
			rec.Pt, len(jet.Constituents), MaxConstituents)
		if e.Monitor != nil {
			e.Monitor.Counters.ConstituentsDropped += int64(rec.Dropped)
		}
	}

	rec.Constituents = make([]ConstituentFeatures, 0, n)
	for _, idx := range jet.Constituents[:n] {
		c := constituentFeatures(&tracks[idx], &rec, &jet.Momentum)
		rec.Constituents = append(rec.Constituents, c)
		if e.Monitor != nil {
			e.Monitor.fillConstituent(rec.Flavor, c)
		}
	}
	return rec
}

func constituentFeatures(t *Track, rec *JetRecord, axis *fmom.PxPyPzE) ConstituentFeatures {
	v := t.Vertex
	return ConstituentFeatures{
		Pt:     t.Pt,
		Eta:    t.Eta,
		Phi:    phi02pi(t.Phi),
		DCAz:   v.Z,
		DCAxy:  v.XY,
		DeltaR: fmom.DeltaR(&t.Momentum, axis),
		Z:      t.Pt / rec.Pt,
		SIP3D:  SIP3D(v, momentumMagnitude(&t.Momentum), rec.Pt, rec.Eta, rec.Phi),
	}
}

// SIP3D returns the signed 3D impact parameter significance of a track with
// displacement v and momentum magnitude p in a jet with the given kinematics.
// The sign is that of v.X*jetPt + v.Y*jetEta + v.Z*jetPhi, with zero positive.
func SIP3D(v VertexDisplacement, p, jetPt, jetEta, jetPhi float64) float64 {
	sign := 1.0
	if v.X*jetPt+v.Y*jetEta+v.Z*jetPhi < 0 {
		sign = -1
	}
	d := r3.Norm(r3.Vec{X: v.X, Y: v.Y, Z: v.Z})
	return sign * d / LongitudinalImpactResolution(p)
}

func momentumMagnitude(p *fmom.PxPyPzE) float64 {
	return math.Sqrt(p.Px()*p.Px() + p.Py()*p.Py() + p.Pz()*p.Pz())
}

// FixedRecord is the fixed-width, zero-padded layout of a JetRecord used at
// the output boundary. Entries at index >= NTracks are always zero.
type FixedRecord struct {
	NTracks int32
	JetPt   float32
	JetEta  float32
	JetPhi  float32
	Tag     int32

	Pt     [MaxConstituents]float32
	Eta    [MaxConstituents]float32
	Phi    [MaxConstituents]float32
	DCAz   [MaxConstituents]float32
	DCAxy  [MaxConstituents]float32
	DeltaR [MaxConstituents]float32
	Z      [MaxConstituents]float32
	SIP3D  [MaxConstituents]float32
}

// NewFixedRecord returns a cleared FixedRecord.
func NewFixedRecord() *FixedRecord {
	f := &FixedRecord{}
	f.Clear()
	return f
}

// Clear resets jet-level scalars to -999 and every array entry to 0.
func (f *FixedRecord) Clear() {
	*f = FixedRecord{
		NTracks: sentinel,
		JetPt:   sentinel,
		JetEta:  sentinel,
		JetPhi:  sentinel,
		Tag:     sentinel,
	}
}

// Load clears f and copies rec into it.
func (f *FixedRecord) Load(rec *JetRecord) {
	f.Clear()
	n := min(rec.NTracks(), MaxConstituents)
	f.NTracks = int32(n)
	f.JetPt = float32(rec.Pt)
	f.JetEta = float32(rec.Eta)
	f.JetPhi = float32(rec.Phi)
	f.Tag = int32(rec.Flavor)
	for i, c := range rec.Constituents[:n] {
		f.Pt[i] = float32(c.Pt)
		f.Eta[i] = float32(c.Eta)
		f.Phi[i] = float32(c.Phi)
		f.DCAz[i] = float32(c.DCAz)
		f.DCAxy[i] = float32(c.DCAxy)
		f.DeltaR[i] = float32(c.DeltaR)
		f.Z[i] = float32(c.Z)
		f.SIP3D[i] = float32(c.SIP3D)
	}
}
