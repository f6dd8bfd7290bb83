package sim

import (
	"context"
	"errors"
	"math"

	"go-hep.org/x/hep/fmom"
)

var (
	// ErrGeneratorExhausted means a generator could not produce an event.
	// Fatal for the run.
	ErrGeneratorExhausted = errors.New("generator exhausted")

	// ErrNoAcceptedJet means no jet of the event passed acceptance.
	// The driver retries with a fresh event.
	ErrNoAcceptedJet = errors.New("no accepted jet")

	// ErrUnmatchedJet means a jet had no matching parton under the
	// abort-event policy. The driver retries with a fresh event.
	ErrUnmatchedJet = errors.New("jet without matching parton")
)

// RawParticle is one generator-level particle. Read-only to the pipeline.
type RawParticle struct {
	ID      int     // PDG species id
	Status  int     // generator status code
	Final   bool    // final-state particle
	Charged bool    // non-zero electric charge
	Parton  bool    // quark, gluon or diquark
	Px      float64 // GeV
	Py      float64
	Pz      float64
	E       float64
	X       float64 // production vertex, mm
	Y       float64
	Z       float64
}

// Momentum returns the particle four-momentum.
func (p RawParticle) Momentum() fmom.PxPyPzE {
	return fmom.NewPxPyPzE(p.Px, p.Py, p.Pz, p.E)
}

// Pt returns the transverse momentum.
func (p RawParticle) Pt() float64 {
	return math.Hypot(p.Px, p.Py)
}

// P returns the momentum magnitude.
func (p RawParticle) P() float64 {
	return math.Sqrt(p.Px*p.Px + p.Py*p.Py + p.Pz*p.Pz)
}

// Phi returns the azimuth in (-pi, pi].
func (p RawParticle) Phi() float64 {
	return math.Atan2(p.Py, p.Px)
}

// Eta returns the pseudorapidity. Particles along the beam axis get +-Inf.
func (p RawParticle) Eta() float64 {
	pt := p.Pt()
	if pt == 0 {
		return math.Copysign(math.Inf(1), p.Pz)
	}
	return math.Asinh(p.Pz / pt)
}

// Event is one generated collision.
type Event struct {
	Number    int64
	Particles []RawParticle
}

// Generator produces collision events one at a time.
// Implementations report exhaustion with an error wrapping ErrGeneratorExhausted.
type Generator interface {
	Next(ctx context.Context) (Event, error)
}
