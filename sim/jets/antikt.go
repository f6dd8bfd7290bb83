// Package jets adapts go-hep's fastjet port to the sim.Clusterer interface.
package jets

import (
	"fmt"
	"sort"

	"go-hep.org/x/hep/fastjet"
	"go-hep.org/x/hep/fmom"

	"github.com/hfjet-gen/hfjet/sim"
)

// AntiKt clusters tracks with the anti-kt algorithm and the E recombination
// scheme. Jets are returned by decreasing pT; constituents keep fastjet's
// order and are identified by their input index.
type AntiKt struct{}

// NewAntiKt creates an anti-kt clusterer.
func NewAntiKt() *AntiKt {
	return &AntiKt{}
}

// Cluster implements sim.Clusterer.
func (AntiKt) Cluster(momenta []fmom.PxPyPzE, radius, ptMin float64) ([]sim.CandidateJet, error) {
	if len(momenta) == 0 {
		return nil, nil
	}

	particles := make([]fastjet.Jet, len(momenta))
	for i := range momenta {
		p := &momenta[i]
		particles[i] = fastjet.NewJet(p.Px(), p.Py(), p.Pz(), p.E())
		particles[i].UserInfo = i
	}

	def := fastjet.NewJetDefinition(fastjet.AntiKtAlgorithm, radius, fastjet.EScheme, fastjet.BestStrategy)
	cs, err := fastjet.NewClusterSequence(particles, def)
	if err != nil {
		return nil, fmt.Errorf("cluster sequence: %w", err)
	}
	inclusive, err := cs.InclusiveJets(ptMin)
	if err != nil {
		return nil, fmt.Errorf("inclusive jets: %w", err)
	}
	sort.SliceStable(inclusive, func(i, j int) bool {
		return inclusive[i].Pt() > inclusive[j].Pt()
	})

	out := make([]sim.CandidateJet, 0, len(inclusive))
	for i := range inclusive {
		jet := &inclusive[i]
		cj := sim.CandidateJet{Momentum: jet.PxPyPzE}
		for _, c := range jet.Constituents() {
			idx, ok := c.UserInfo.(int)
			if !ok {
				return nil, fmt.Errorf("constituent %v carries no input index", c.PxPyPzE)
			}
			cj.Constituents = append(cj.Constituents, idx)
		}
		out = append(out, cj)
	}
	return out, nil
}
