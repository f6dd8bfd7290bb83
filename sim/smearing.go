package sim

import "math"

// Detector response constants. Distances are in mm, momenta in GeV.
const (
	// ptResolutionCoeff is the TPC curvature resolution coefficient (sigma = k*pT^2).
	ptResolutionCoeff = 0.003

	// ImpactResolutionThreshold separates the flat and fitted regimes of the
	// impact parameter resolution.
	ImpactResolutionThreshold = 2.5

	// impactResolutionFloor is the flat resolution above the threshold.
	impactResolutionFloor = 0.02

	// MinResolutionInput is the lowest input the fitted curves are evaluated at.
	// Both fit offsets sit below it, so the reciprocal stays finite and positive.
	MinResolutionInput = 0.05

	// ReferenceRadius is the radius at which vertex-corrected eta is computed.
	ReferenceRadius = 2000.0
)

// Heavy-Flavor Tracker DCA fits (reciprocal offset, scale, floor).
var (
	transverseFit   = reciprocalFit{offset: 0.0364787, scale: 0.028081, floor: 0.00564347}
	longitudinalFit = reciprocalFit{offset: 0.0187011, scale: 0.0313573, floor: 0.00782682}
)

type reciprocalFit struct {
	offset, scale, floor float64
}

func (f reciprocalFit) eval(x float64) float64 {
	if x > ImpactResolutionThreshold {
		return impactResolutionFloor
	}
	if x < MinResolutionInput {
		x = MinResolutionInput
	}
	return f.scale/(x-f.offset) + f.floor
}

// TrackPtResolution returns the transverse momentum resolution at pt.
func TrackPtResolution(pt float64) float64 {
	return ptResolutionCoeff * pt * pt
}

// TransverseImpactResolution returns the DCA_xy resolution for input x.
// Strictly positive for every non-negative x.
func TransverseImpactResolution(x float64) float64 {
	return transverseFit.eval(x)
}

// LongitudinalImpactResolution returns the DCA_z resolution for input x.
// Strictly positive for every non-negative x.
func LongitudinalImpactResolution(x float64) float64 {
	return longitudinalFit.eval(x)
}

// VertexCorrectedEta returns the pseudorapidity seen from the nominal vertex
// by a particle emitted at eta from a vertex shifted by dcaZ along the beam.
// The track is projected to ReferenceRadius; eta == 0 projects to z = 0.
func VertexCorrectedEta(eta, dcaZ float64) float64 {
	theta := 2.0 * math.Atan(math.Exp(-eta))
	z := 0.0
	if eta != 0 {
		z = ReferenceRadius / math.Tan(theta)
	}
	thetaCorr := math.Atan2(ReferenceRadius, z-dcaZ)
	return -math.Log(math.Tan(thetaCorr / 2.0))
}
