package sim

import (
	"math"
	"math/rand"

	"go-hep.org/x/hep/fmom"
)

// VertexDisplacement is the displacement of a track's production point from
// the nominal collision vertex.
type VertexDisplacement struct {
	XY float64 // unsigned transverse magnitude
	X  float64
	Y  float64
	Z  float64
}

// Track is one detector-level charged track.
// A track's index in the slice returned by TrackBuilder.Build is its identity:
// clustered jets refer to their constituents by that index.
type Track struct {
	Momentum fmom.PxPyPzE // pion-mass four-momentum
	Pt       float64
	Eta      float64
	Phi      float64
	Vertex   VertexDisplacement
	Pileup   bool
}

// TrackBuilder turns raw events into detector-level tracks.
type TrackBuilder struct {
	Config  DetectorConfig
	Monitor *Monitor
}

// NewTrackBuilder creates a TrackBuilder filling the given monitor.
func NewTrackBuilder(cfg DetectorConfig, monitor *Monitor) *TrackBuilder {
	return &TrackBuilder{Config: cfg, Monitor: monitor}
}

// Build returns the tracks of the primary event followed by those of the
// pileup event, if one is given. All random draws come from rng.
func (b *TrackBuilder) Build(primary Event, pileup *Event, rng *rand.Rand) []Track {
	tracks := make([]Track, 0, len(primary.Particles)/2)
	tracks = b.appendTracks(tracks, primary, false, 0, rng)
	if pileup != nil {
		vtx := (2*rng.Float64() - 1) * PileupVertexRange
		tracks = b.appendTracks(tracks, *pileup, true, vtx, rng)
	}
	return tracks
}

func (b *TrackBuilder) appendTracks(tracks []Track, evt Event, isPileup bool, vertexZ float64, rng *rand.Rand) []Track {
	for i := range evt.Particles {
		t, ok := b.buildTrack(&evt.Particles[i], isPileup, vertexZ, rng)
		if !ok {
			continue
		}
		tracks = append(tracks, t)
	}
	return tracks
}

// buildTrack applies selection, smearing and fiducial cuts to one particle.
func (b *TrackBuilder) buildTrack(p *RawParticle, isPileup bool, vertexZ float64, rng *rand.Rand) (Track, bool) {
	cfg := b.Config
	if !p.Final || !p.Charged {
		return Track{}, false
	}
	if cfg.Smear && rng.Float64() > cfg.TrackingEfficiency {
		return Track{}, false
	}

	pt := p.Pt()
	mom := p.P()
	phi := p.Phi()
	x, y, z := p.X, p.Y, p.Z
	if isPileup {
		z += vertexZ
	}
	xy := math.Hypot(p.X, p.Y)

	eta := p.Eta()
	if isPileup {
		eta = VertexCorrectedEta(eta, z)
	}

	if cfg.Smear {
		pt = gauss(rng, pt, TrackPtResolution(pt))
		x = gauss(rng, x, LongitudinalImpactResolution(mom))
		y = gauss(rng, y, LongitudinalImpactResolution(mom))
		z = gauss(rng, z, LongitudinalImpactResolution(mom))
		xy = gauss(rng, xy, TransverseImpactResolution(mom))
	}

	if !inFiducial(pt, eta, z, xy, cfg.PtTrackMax) {
		return Track{}, false
	}

	if b.Monitor != nil {
		b.Monitor.fillTrack(pt, z, xy)
	}

	v := fmom.NewPtEtaPhiM(pt, eta, phi, PionMass)
	return Track{
		Momentum: fmom.NewPxPyPzE(v.Px(), v.Py(), v.Pz(), v.E()),
		Pt:       pt,
		Eta:      eta,
		Phi:      phi,
		Vertex:   VertexDisplacement{XY: math.Abs(xy), X: x, Y: y, Z: z},
		Pileup:   isPileup,
	}, true
}

// inFiducial reports whether a reconstructed track lies inside the tracking
// acceptance. NaN values are rejected.
func inFiducial(pt, eta, dcaZ, dcaXY, ptMax float64) bool {
	return pt <= ptMax && pt >= MinTrackPt &&
		math.Abs(eta) <= MaxTrackEta &&
		math.Abs(dcaZ) <= MaxTrackDCAz &&
		math.Abs(dcaXY) <= MaxTrackDCAxy
}

// gauss draws from Normal(mean, sigma).
func gauss(rng *rand.Rand, mean, sigma float64) float64 {
	return rng.NormFloat64()*sigma + mean
}
