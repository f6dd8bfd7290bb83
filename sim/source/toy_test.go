package source

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hfjet-gen/hfjet/sim"
)

func testToyConfig() ToyConfig {
	return ToyConfig{PtHatMin: 20, PtHatMax: 60, BottomFraction: 0.3, CharmFraction: 0.3, UnderlyingEvent: 10}
}

func TestToyConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ToyConfig)
		wantErr bool
	}{
		{"valid", func(*ToyConfig) {}, false},
		{"unbounded pt hat", func(c *ToyConfig) { c.PtHatMax = -1 }, false},
		{"zero pt hat min", func(c *ToyConfig) { c.PtHatMin = 0 }, true},
		{"fractions above one", func(c *ToyConfig) { c.BottomFraction, c.CharmFraction = 0.6, 0.6 }, true},
		{"negative fraction", func(c *ToyConfig) { c.CharmFraction = -0.1 }, true},
		{"negative limit", func(c *ToyConfig) { c.Limit = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testToyConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestToy_EventStructure(t *testing.T) {
	g := NewToy(testToyConfig(), rand.New(rand.NewSource(42)))
	for i := 0; i < 200; i++ {
		evt, err := g.Next(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(i), evt.Number)

		// GIVEN the outgoing hard partons
		var partons []sim.RawParticle
		for _, p := range evt.Particles {
			if p.Parton {
				partons = append(partons, p)
				continue
			}
			// THEN every other particle is a final-state pion or photon
			assert.True(t, p.Final)
			assert.Equal(t, p.Charged, math.Abs(float64(p.ID)) == pdgPion)
			assert.Equal(t, 1, p.Status)
		}
		require.Len(t, partons, 2)
		for _, p := range partons {
			assert.Equal(t, -sim.HardProcessStatus, p.Status)
			assert.False(t, p.Final)
			assert.GreaterOrEqual(t, p.Pt(), 20.0)
			assert.LessOrEqual(t, p.Pt(), 60.0)
		}
		// back to back in azimuth with equal pT
		assert.InDelta(t, partons[0].Pt(), partons[1].Pt(), 1e-9)
		assert.InDelta(t, -1, math.Cos(partons[0].Phi()-partons[1].Phi()), 1e-9)
		if absID := abs(partons[0].ID); absID == 4 || absID == 5 {
			assert.Equal(t, -partons[0].ID, partons[1].ID)
		}
	}
}

func TestToy_FlavorFractions(t *testing.T) {
	// GIVEN 10000 events with 30% b and 30% c pairs
	g := NewToy(testToyConfig(), rand.New(rand.NewSource(42)))
	counts := map[int]int{}
	const n = 10000
	for i := 0; i < n; i++ {
		evt, err := g.Next(context.Background())
		require.NoError(t, err)
		counts[abs(evt.Particles[0].ID)]++
	}
	// THEN the observed fractions agree within statistical tolerance
	assert.InDelta(t, 0.3, float64(counts[5])/n, 0.02)
	assert.InDelta(t, 0.3, float64(counts[4])/n, 0.02)
}

func TestToy_HeavyFlavorFragmentsAreDisplaced(t *testing.T) {
	cfg := testToyConfig()
	cfg.BottomFraction, cfg.CharmFraction, cfg.UnderlyingEvent = 1, 0, 0
	g := NewToy(cfg, rand.New(rand.NewSource(7)))

	displaced := 0
	for i := 0; i < 100; i++ {
		evt, err := g.Next(context.Background())
		require.NoError(t, err)
		var parton sim.RawParticle
		for _, p := range evt.Particles {
			if p.Parton {
				parton = p
				continue
			}
			d := math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
			if d == 0 {
				continue
			}
			displaced++
			// displacement points along the parent parton
			cos := (p.X*parton.Px + p.Y*parton.Py + p.Z*parton.Pz) / (d * parton.P())
			assert.InDelta(t, 1, cos, 1e-9)
		}
	}
	assert.Positive(t, displaced)
}

func TestToy_LightEventsAreNotDisplaced(t *testing.T) {
	cfg := testToyConfig()
	cfg.BottomFraction, cfg.CharmFraction = 0, 0
	g := NewToy(cfg, rand.New(rand.NewSource(7)))
	for i := 0; i < 50; i++ {
		evt, err := g.Next(context.Background())
		require.NoError(t, err)
		for _, p := range evt.Particles {
			assert.Zero(t, p.X)
			assert.Zero(t, p.Y)
			assert.Zero(t, p.Z)
		}
	}
}

func TestToy_LimitExhausts(t *testing.T) {
	cfg := testToyConfig()
	cfg.Limit = 2
	g := NewToy(cfg, rand.New(rand.NewSource(1)))
	for i := 0; i < 2; i++ {
		_, err := g.Next(context.Background())
		require.NoError(t, err)
	}
	_, err := g.Next(context.Background())
	assert.ErrorIs(t, err, sim.ErrGeneratorExhausted)
}

func TestToy_Deterministic(t *testing.T) {
	g1 := NewToy(testToyConfig(), rand.New(rand.NewSource(5)))
	g2 := NewToy(testToyConfig(), rand.New(rand.NewSource(5)))
	for i := 0; i < 10; i++ {
		e1, err := g1.Next(context.Background())
		require.NoError(t, err)
		e2, err := g2.Next(context.Background())
		require.NoError(t, err)
		assert.Equal(t, e1, e2)
	}
}

func TestToy_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewToy(testToyConfig(), rand.New(rand.NewSource(1))).Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMinBias(t *testing.T) {
	g := NewMinBias(30, 3, rand.New(rand.NewSource(42)))
	total := 0
	for i := 0; i < 3; i++ {
		evt, err := g.Next(context.Background())
		require.NoError(t, err)
		for _, p := range evt.Particles {
			assert.True(t, p.Final)
			assert.False(t, p.Parton)
			assert.Less(t, math.Abs(p.Eta()), 2.0+1e-9)
			assert.GreaterOrEqual(t, p.Pt(), 0.15-1e-9)
		}
		total += len(evt.Particles)
	}
	assert.Positive(t, total)

	_, err := g.Next(context.Background())
	assert.ErrorIs(t, err, sim.ErrGeneratorExhausted)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
