package sim

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go-hep.org/x/hep/fmom"
)

// pion returns a final-state charged pion produced at vertex (x, y, z).
func pion(pt, eta, phi, x, y, z float64) RawParticle {
	p := kinematics(211, 1, pt, eta, phi, PionMass)
	p.Final, p.Charged = true, true
	p.X, p.Y, p.Z = x, y, z
	return p
}

// photon returns a final-state neutral particle.
func photon(pt, eta, phi float64) RawParticle {
	p := kinematics(22, 1, pt, eta, phi, 0)
	p.Final = true
	return p
}

// hardParton returns an outgoing hard-process parton.
func hardParton(id int, pt, eta, phi float64) RawParticle {
	p := kinematics(id, -HardProcessStatus, pt, eta, phi, 0)
	p.Parton = true
	return p
}

func kinematics(id, status int, pt, eta, phi, mass float64) RawParticle {
	px, py, pz := pt*math.Cos(phi), pt*math.Sin(phi), pt*math.Sinh(eta)
	return RawParticle{
		ID: id, Status: status,
		Px: px, Py: py, Pz: pz,
		E: math.Sqrt(px*px + py*py + pz*pz + mass*mass),
	}
}

// bJetEvent returns a b parton at pT 22, eta 0.18 with four pions, two displaced,
// carrying its momentum, plus a soft neutral particle.
func bJetEvent(number int64) Event {
	const eta, phi = 0.18, 1.0
	return Event{
		Number: number,
		Particles: []RawParticle{
			hardParton(5, 22, eta, phi),
			pion(9, eta+0.02, phi+0.03, 0.1, 0.2, 0.3),
			pion(6, eta-0.03, phi-0.02, 0.1, 0.2, 0.3),
			pion(4, eta+0.05, phi-0.04, 0, 0, 0),
			pion(3, eta-0.01, phi+0.05, 0, 0, 0),
			photon(2, eta, phi),
		},
	}
}

// sliceGenerator replays a fixed list of events and then reports exhaustion.
type sliceGenerator struct {
	events []Event
	next   int
}

func (g *sliceGenerator) Next(ctx context.Context) (Event, error) {
	if err := ctx.Err(); err != nil {
		return Event{}, err
	}
	if g.next >= len(g.events) {
		return Event{}, fmt.Errorf("slice generator after %d events: %w", g.next, ErrGeneratorExhausted)
	}
	evt := g.events[g.next]
	g.next++
	return evt, nil
}

// repeatGenerator produces the same event forever.
type repeatGenerator struct {
	event Event
	calls int
}

func (g *repeatGenerator) Next(ctx context.Context) (Event, error) {
	g.calls++
	evt := g.event
	evt.Number = int64(g.calls)
	return evt, nil
}

// memorySink keeps records in memory.
type memorySink struct {
	records []JetRecord
	flushed *Monitor
	failAt  int // WriteJet fails on this record number when > 0
}

func (s *memorySink) WriteJet(rec JetRecord) error {
	if s.failAt > 0 && len(s.records)+1 == s.failAt {
		return fmt.Errorf("disk full")
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *memorySink) Flush(m *Monitor) error {
	s.flushed = m
	return nil
}

// coneClusterer is a deterministic stand-in for anti-kt: the hardest
// unassigned momentum seeds a cone of the given radius.
type coneClusterer struct{}

func (coneClusterer) Cluster(momenta []fmom.PxPyPzE, radius, ptMin float64) ([]CandidateJet, error) {
	order := make([]int, len(momenta))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return momenta[order[a]].Pt() > momenta[order[b]].Pt()
	})

	used := make([]bool, len(momenta))
	var jets []CandidateJet
	for _, seed := range order {
		if used[seed] {
			continue
		}
		var px, py, pz, e float64
		var members []int
		for _, i := range order {
			if used[i] || fmom.DeltaR(&momenta[seed], &momenta[i]) >= radius {
				continue
			}
			used[i] = true
			members = append(members, i)
			px, py, pz, e = px+momenta[i].Px(), py+momenta[i].Py(), pz+momenta[i].Pz(), e+momenta[i].E()
		}
		jet := CandidateJet{Momentum: fmom.NewPxPyPzE(px, py, pz, e), Constituents: members}
		if jet.Pt() >= ptMin {
			jets = append(jets, jet)
		}
	}
	sort.SliceStable(jets, func(a, b int) bool { return jets[a].Pt() > jets[b].Pt() })
	return jets, nil
}

// fixedClusterer returns preset jets regardless of input.
type fixedClusterer struct {
	jets []CandidateJet
	err  error
}

func (c fixedClusterer) Cluster([]fmom.PxPyPzE, float64, float64) ([]CandidateJet, error) {
	return c.jets, c.err
}

// jetAt builds a candidate jet with the given kinematics and constituents.
func jetAt(pt, eta, phi float64, constituents ...int) CandidateJet {
	p := kinematics(0, 0, pt, eta, phi, 0)
	return CandidateJet{Momentum: p.Momentum(), Constituents: constituents}
}

func momenta(tracks []Track) []fmom.PxPyPzE {
	out := make([]fmom.PxPyPzE, len(tracks))
	for i := range tracks {
		out[i] = tracks[i].Momentum
	}
	return out
}

func defaultTestConfig() PipelineConfig {
	return PipelineConfig{
		Detector: NewDetectorConfig(30, 0.8, false, false),
		Jets:     NewJetConfig(0.4, 10, 200, UnmatchedSkipJet),
	}
}
