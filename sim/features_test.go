package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSIP3D_Sign(t *testing.T) {
	tests := []struct {
		name string
		v    VertexDisplacement
		want float64
	}{
		{"positive projection", VertexDisplacement{X: 0.1}, 1},
		{"negative projection", VertexDisplacement{X: -0.1}, -1},
		{"zero projection counts as positive", VertexDisplacement{X: 0.1, Y: -0.1 * 20 / 0.5}, 1},
		{"no displacement", VertexDisplacement{}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SIP3D(tt.v, 5, 20, 0.5, 1.0)
			if tt.v == (VertexDisplacement{}) {
				assert.Equal(t, 0.0, got)
				assert.False(t, math.Signbit(got))
				return
			}
			assert.Equal(t, tt.want, math.Copysign(1, got))
		})
	}
}

func TestSIP3D_Magnitude(t *testing.T) {
	// GIVEN a 3-4-0 displacement and a 1 GeV track
	v := VertexDisplacement{X: 0.3, Y: 0.4}
	got := SIP3D(v, 1, 10, 0.2, 1)

	// THEN |d| = 0.5 divided by the longitudinal resolution at |p| = 1
	assert.InDelta(t, 0.5/LongitudinalImpactResolution(1), got, 1e-12)
}

func TestExtractor_Features(t *testing.T) {
	// GIVEN the b-jet event clustered into one jet
	evt := bJetEvent(0)
	m := NewMonitor()
	tracks := NewTrackBuilder(NewDetectorConfig(30, 0.8, false, false), m).Build(evt, nil, nil)
	require.Len(t, tracks, 4)
	jets, err := coneClusterer{}.Cluster(momenta(tracks), 0.4, SeedJetMinPt)
	require.NoError(t, err)
	require.Len(t, jets, 1)

	// WHEN extracting features
	rec := NewExtractor(m).Extract(LabeledJet{Jet: jets[0], Flavor: Bottom}, tracks)

	// THEN every constituent is described, in clustering order
	require.Equal(t, 4, rec.NTracks())
	assert.Equal(t, Bottom, rec.Flavor)
	assert.Zero(t, rec.Dropped)
	zSum := 0.0
	for i, c := range rec.Constituents {
		tr := tracks[jets[0].Constituents[i]]
		assert.Equal(t, tr.Pt, c.Pt)
		assert.InDelta(t, tr.Pt/rec.Pt, c.Z, 1e-12)
		assert.GreaterOrEqual(t, c.Phi, 0.0)
		assert.Less(t, c.Phi, 2*math.Pi)
		assert.Less(t, c.DeltaR, 0.4)
		zSum += c.Z
	}
	assert.InDelta(t, 1, zSum, 0.01)
	assert.GreaterOrEqual(t, rec.Phi, 0.0)
	assert.Equal(t, int64(4), m.Histogram("hSIP3D_b").Entries())
	assert.Equal(t, int64(4), m.Histogram("hZ_b").Entries())
	assert.Equal(t, int64(0), m.Histogram("hZ_l").Entries())
}

func TestExtractor_TruncatesOverflow(t *testing.T) {
	// GIVEN a jet with 130 constituents
	const n = 130
	tracks := make([]Track, n)
	constituents := make([]int, n)
	for i := range tracks {
		p := pion(1+float64(i)/100, 0, 0, 0, 0, 0)
		tracks[i] = Track{Momentum: p.Momentum(), Pt: p.Pt(), Eta: 0, Phi: 0}
		constituents[i] = n - 1 - i
	}
	jet := jetAt(200, 0, 0, constituents...)
	m := NewMonitor()

	// WHEN extracting
	rec := NewExtractor(m).Extract(LabeledJet{Jet: jet, Flavor: Light}, tracks)

	// THEN the first 100 in clustering order are kept and the rest counted
	require.Equal(t, MaxConstituents, rec.NTracks())
	assert.Equal(t, 30, rec.Dropped)
	assert.Equal(t, int64(30), m.Counters.ConstituentsDropped)
	assert.Equal(t, tracks[n-1].Pt, rec.Constituents[0].Pt)
	assert.Equal(t, tracks[n-MaxConstituents].Pt, rec.Constituents[MaxConstituents-1].Pt)
}

func TestFixedRecord_Clear(t *testing.T) {
	f := NewFixedRecord()
	assert.Equal(t, int32(-999), f.NTracks)
	assert.Equal(t, float32(-999), f.JetPt)
	assert.Equal(t, float32(-999), f.JetEta)
	assert.Equal(t, float32(-999), f.JetPhi)
	assert.Equal(t, int32(-999), f.Tag)
	for i := 0; i < MaxConstituents; i++ {
		assert.Zero(t, f.Pt[i])
		assert.Zero(t, f.SIP3D[i])
	}
}

func TestFixedRecord_LoadPadsWithZeros(t *testing.T) {
	// GIVEN a buffer that previously held a 5-track jet
	f := NewFixedRecord()
	long := JetRecord{Pt: 50, Flavor: Bottom, Constituents: make([]ConstituentFeatures, 5)}
	for i := range long.Constituents {
		long.Constituents[i] = ConstituentFeatures{Pt: 10, DCAz: 1, SIP3D: 3}
	}
	f.Load(&long)

	// WHEN loading a 2-track jet
	short := JetRecord{Pt: 20, Eta: 0.3, Phi: 1.2, Flavor: Charm, Constituents: []ConstituentFeatures{
		{Pt: 12, Eta: 0.31, Phi: 1.21, DCAz: -0.01, DCAxy: 0.02, DeltaR: 0.01, Z: 0.6, SIP3D: -0.5},
		{Pt: 8, Eta: 0.29, Phi: 1.19, DCAz: 0.02, DCAxy: 0.01, DeltaR: 0.02, Z: 0.4, SIP3D: 1.5},
	}}
	f.Load(&short)

	// THEN entries beyond nTracks are zero and scalars describe the new jet
	assert.Equal(t, int32(2), f.NTracks)
	assert.Equal(t, int32(Charm), f.Tag)
	assert.Equal(t, float32(20), f.JetPt)
	assert.Equal(t, float32(12), f.Pt[0])
	assert.Equal(t, float32(-0.5), f.SIP3D[0])
	for i := 2; i < MaxConstituents; i++ {
		assert.Zero(t, f.Pt[i], "Pt[%d]", i)
		assert.Zero(t, f.DCAz[i], "DCAz[%d]", i)
		assert.Zero(t, f.SIP3D[i], "SIP3D[%d]", i)
	}
}
