package source

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/hfjet-gen/hfjet/sim"
)

// PDG ids and masses used by the toy generators.
const (
	pdgPion   = 211
	pdgPhoton = 22
	pdgGluon  = 21

	bottomMass  = 4.8
	charmMass   = 1.5
	bHadronMass = 5.28
	cHadronMass = 1.865

	// Proper decay lengths in mm.
	bHadronCTau = 0.455
	cHadronCTau = 0.123

	// Spread in eta and phi of fragments around the parton axis.
	fragmentSpread = 0.08
	// dN/dpT ~ pT^-ptHatPower
	ptHatPower = 5.0
)

// ToyConfig parameterizes the hard-scatter toy generator.
type ToyConfig struct {
	PtHatMin        float64 `yaml:"pt_hat_min"`       // GeV
	PtHatMax        float64 `yaml:"pt_hat_max"`       // <= PtHatMin means no upper bound
	BottomFraction  float64 `yaml:"bottom_fraction"`  // probability of a b-bbar event
	CharmFraction   float64 `yaml:"charm_fraction"`   // probability of a c-cbar event
	UnderlyingEvent int     `yaml:"underlying_event"` // mean number of soft particles added to each event
	Limit           int64   `yaml:"limit"`            // events before exhaustion; 0 means unlimited
}

// Validate checks the toy configuration.
func (c ToyConfig) Validate() error {
	if c.PtHatMin <= 0 {
		return fmt.Errorf("pT-hat minimum must be > 0, got %.2f", c.PtHatMin)
	}
	if c.BottomFraction < 0 || c.CharmFraction < 0 || c.BottomFraction+c.CharmFraction > 1 {
		return fmt.Errorf("invalid heavy-flavor fractions b=%.3f c=%.3f", c.BottomFraction, c.CharmFraction)
	}
	if c.UnderlyingEvent < 0 || c.Limit < 0 {
		return fmt.Errorf("underlying event and limit must be >= 0")
	}
	return nil
}

// Toy generates 2->2 hard scatterings: two back-to-back outgoing partons
// (status -23) fragmenting into charged pions and photons, plus a soft
// underlying event. Heavy-flavor fragments come from a displaced decay vertex.
type Toy struct {
	cfg ToyConfig
	rng *rand.Rand
	n   int64
}

// NewToy creates a toy generator drawing from rng.
func NewToy(cfg ToyConfig, rng *rand.Rand) *Toy {
	return &Toy{cfg: cfg, rng: rng}
}

// Next implements sim.Generator.
func (g *Toy) Next(ctx context.Context) (sim.Event, error) {
	if err := ctx.Err(); err != nil {
		return sim.Event{}, err
	}
	if g.cfg.Limit > 0 && g.n >= g.cfg.Limit {
		return sim.Event{}, fmt.Errorf("toy generator after %d events: %w", g.n, sim.ErrGeneratorExhausted)
	}
	evt := sim.Event{Number: g.n}
	g.n++

	ptHat := g.samplePtHat()
	phi := (2*g.rng.Float64() - 1) * math.Pi
	id1, id2 := g.sampleFlavors()
	for i, id := range []int{id1, id2} {
		eta := (2*g.rng.Float64() - 1) * 1.5
		parton := newParticle(id, -sim.HardProcessStatus, ptHat, eta, phi+float64(i)*math.Pi, partonMass(id))
		parton.Parton = true
		evt.Particles = append(evt.Particles, parton)
		evt.Particles = g.fragment(evt.Particles, parton)
	}
	evt.Particles = appendSoft(evt.Particles, g.rng, g.cfg.UnderlyingEvent)
	return evt, nil
}

// samplePtHat draws from a power-law spectrum truncated to [PtHatMin, PtHatMax].
func (g *Toy) samplePtHat() float64 {
	lo, hi := g.cfg.PtHatMin, g.cfg.PtHatMax
	for {
		u := g.rng.Float64()
		pt := lo * math.Pow(1-u, -1/(ptHatPower-1))
		if hi <= lo || pt <= hi {
			return pt
		}
	}
}

func (g *Toy) sampleFlavors() (int, int) {
	u := g.rng.Float64()
	switch {
	case u < g.cfg.BottomFraction:
		return 5, -5
	case u < g.cfg.BottomFraction+g.cfg.CharmFraction:
		return 4, -4
	}
	light := []int{1, 2, 3, pdgGluon}
	return light[g.rng.Intn(len(light))], light[g.rng.Intn(len(light))]
}

// fragment appends the hadronization products of parton. About two thirds of
// the fragments are charged pions, the rest photons.
func (g *Toy) fragment(out []sim.RawParticle, parton sim.RawParticle) []sim.RawParticle {
	n := 2 + g.rng.Intn(10)
	fractions := make([]float64, n)
	total := 0.0
	for i := range fractions {
		fractions[i] = g.rng.ExpFloat64()
		total += fractions[i]
	}

	var x, y, z float64
	nDisplaced := 0
	if ctau, mass, ok := decayParameters(parton.ID); ok {
		p := parton.P()
		length := g.rng.ExpFloat64() * ctau * p / mass
		x, y, z = length*parton.Px/p, length*parton.Py/p, length*parton.Pz/p
		nDisplaced = min(n, 2+g.rng.Intn(3))
	}

	pt, eta, phi := parton.Pt(), parton.Eta(), parton.Phi()
	for i, f := range fractions {
		id, charged := pdgPhoton, false
		if g.rng.Float64() < 2.0/3.0 {
			id, charged = pdgPion, true
			if g.rng.Intn(2) == 0 {
				id = -id
			}
		}
		mass := 0.0
		if charged {
			mass = sim.PionMass
		}
		h := newParticle(id, 1, 0.9*pt*f/total,
			eta+g.rng.NormFloat64()*fragmentSpread,
			phi+g.rng.NormFloat64()*fragmentSpread, mass)
		h.Final, h.Charged = true, charged
		if i < nDisplaced {
			h.X, h.Y, h.Z = x, y, z
		}
		out = append(out, h)
	}
	return out
}

// MinBias generates soft non-diffractive-like events for pileup mixing.
type MinBias struct {
	mean  int
	limit int64
	rng   *rand.Rand
	n     int64
}

// NewMinBias creates a pileup generator with the given mean multiplicity.
// limit > 0 bounds the number of events.
func NewMinBias(meanMultiplicity int, limit int64, rng *rand.Rand) *MinBias {
	return &MinBias{mean: meanMultiplicity, limit: limit, rng: rng}
}

// Next implements sim.Generator.
func (g *MinBias) Next(ctx context.Context) (sim.Event, error) {
	if err := ctx.Err(); err != nil {
		return sim.Event{}, err
	}
	if g.limit > 0 && g.n >= g.limit {
		return sim.Event{}, fmt.Errorf("minimum-bias generator after %d events: %w", g.n, sim.ErrGeneratorExhausted)
	}
	evt := sim.Event{Number: g.n}
	g.n++
	evt.Particles = appendSoft(evt.Particles, g.rng, g.mean)
	return evt, nil
}

// appendSoft appends a uniform-multiplicity sample of soft particles with
// mean multiplicity mean, exponential pT and flat |eta| < 2.
func appendSoft(out []sim.RawParticle, rng *rand.Rand, mean int) []sim.RawParticle {
	if mean <= 0 {
		return out
	}
	n := rng.Intn(2*mean + 1)
	for i := 0; i < n; i++ {
		pt := 0.15 + rng.ExpFloat64()*0.45
		eta := (2*rng.Float64() - 1) * 2
		phi := (2*rng.Float64() - 1) * math.Pi
		var p sim.RawParticle
		if rng.Float64() < 2.0/3.0 {
			id := pdgPion
			if rng.Intn(2) == 0 {
				id = -id
			}
			p = newParticle(id, 1, pt, eta, phi, sim.PionMass)
			p.Charged = true
		} else {
			p = newParticle(pdgPhoton, 1, pt, eta, phi, 0)
		}
		p.Final = true
		out = append(out, p)
	}
	return out
}

func newParticle(id, status int, pt, eta, phi, mass float64) sim.RawParticle {
	px, py, pz := pt*math.Cos(phi), pt*math.Sin(phi), pt*math.Sinh(eta)
	return sim.RawParticle{
		ID:     id,
		Status: status,
		Px:     px,
		Py:     py,
		Pz:     pz,
		E:      math.Sqrt(px*px + py*py + pz*pz + mass*mass),
	}
}

func partonMass(id int) float64 {
	switch id {
	case 5, -5:
		return bottomMass
	case 4, -4:
		return charmMass
	}
	return 0
}

// decayParameters returns the proper decay length and mass of the hadron a
// heavy quark fragments into.
func decayParameters(id int) (ctau, mass float64, ok bool) {
	switch id {
	case 5, -5:
		return bHadronCTau, bHadronMass, true
	case 4, -4:
		return cHadronCTau, cHadronMass, true
	}
	return 0, 0, false
}
