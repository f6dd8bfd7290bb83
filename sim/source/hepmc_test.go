package source

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/fmom"
	"go-hep.org/x/hep/hepmc"

	"github.com/hfjet-gen/hfjet/sim"
)

func TestIsParton(t *testing.T) {
	tests := []struct {
		id   int
		want bool
	}{
		{1, true}, {-5, true}, {8, true}, {21, true},
		{2101, true}, {-3303, true},
		{9, false}, {11, false}, {22, false}, {211, false}, {2212, false}, {2112, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsParton(tt.id), "id %d", tt.id)
	}
}

func TestCharge(t *testing.T) {
	assert.InDelta(t, 1, charge(211), 1e-9)
	assert.InDelta(t, -1, charge(-211), 1e-9)
	assert.InDelta(t, 1, charge(2212), 1e-9)
	assert.Zero(t, charge(22))
	assert.Zero(t, charge(111))
	assert.Zero(t, charge(2112))
	assert.Zero(t, charge(0))
}

func TestConvertHepMC(t *testing.T) {
	// GIVEN an event with a displaced pion, a photon and an outgoing b quark
	vtx := &hepmc.Vertex{Position: fmom.NewPxPyPzE(0.1, -0.2, 0.3, 0)}
	evt := &hepmc.Event{
		EventNumber: 17,
		Particles: map[int]*hepmc.Particle{
			12: {Barcode: 12, PdgID: -211, Status: 1, Momentum: fmom.NewPxPyPzE(3, 4, 0, 5.002), ProdVertex: vtx},
			11: {Barcode: 11, PdgID: 22, Status: 1, Momentum: fmom.NewPxPyPzE(1, 0, 0, 1)},
			3:  {Barcode: 3, PdgID: 5, Status: 23, Momentum: fmom.NewPxPyPzE(10, 0, 2, 11.3)},
		},
	}

	// WHEN converting
	out := convertHepMC(evt)

	// THEN particles are ordered by barcode with their flags derived
	require.Len(t, out.Particles, 3)
	assert.Equal(t, int64(17), out.Number)

	b, gamma, pi := out.Particles[0], out.Particles[1], out.Particles[2]
	assert.Equal(t, 5, b.ID)
	assert.True(t, b.Parton)
	assert.False(t, b.Final)
	assert.Equal(t, 23, b.Status)

	assert.True(t, gamma.Final)
	assert.False(t, gamma.Charged)

	assert.Equal(t, -211, pi.ID)
	assert.True(t, pi.Final)
	assert.True(t, pi.Charged)
	assert.InDelta(t, 5, pi.Pt(), 1e-12)
	assert.Equal(t, 0.1, pi.X)
	assert.Equal(t, -0.2, pi.Y)
	assert.Equal(t, 0.3, pi.Z)
}

func TestHepMCReader_EmptyStreamIsExhausted(t *testing.T) {
	r := NewHepMCReader("empty", strings.NewReader(""))
	_, err := r.Next(context.Background())
	assert.ErrorIs(t, err, sim.ErrGeneratorExhausted)
	assert.NoError(t, r.Close())
}

func TestOpenHepMC_MissingFile(t *testing.T) {
	_, err := OpenHepMC("does-not-exist.hepmc")
	assert.Error(t, err)
}
