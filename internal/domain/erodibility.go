package domain

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

// ErodibilityParams are the WEPP baseline cropland parameters. When the
// survey has no sand value the formulas are undefined and Available is false.
type ErodibilityParams struct {
	Ki        float64 // inter-rill erodibility, kg·s/m^4
	Kr        float64 // rill erodibility, s/m
	Tauc      float64 // critical shear, Pa
	Keff      float64 // effective hydraulic conductivity, mm/hr
	Available bool
}

const (
	// sandyThreshold selects the sand-dominant formulas.
	sandyThreshold = 30.0
	// clayKeffThreshold selects the exponential Keff form.
	clayKeffThreshold = 40.0
	// keffCECDefault replaces a missing CEC in the Keff polynomial.
	keffCECDefault = 4.0
)

// ComputeErodibility derives baseline cropland erodibility from a layer's
// unrounded survey texture and chemistry.
func ComputeErodibility(layer NormalizedLayer) ErodibilityParams {
	sv := layer.Survey
	if !sv.SandMeasured {
		return ErodibilityParams{}
	}

	sand, clay, om := sv.Sand, sv.Clay, sv.OrganicMatter
	vfs := math.Min(40, sv.VeryFineSand)

	p := ErodibilityParams{Available: true}
	if sand > sandyThreshold {
		p.Ki = scalar.Round(2728000+192100*vfs, 0)
		p.Kr = 0.00197 + 0.0003*vfs + 0.3863*math.Exp(-1.84*math.Max(0.35, om))
		p.Tauc = 2.67 + 0.065*math.Min(40, clay) - 0.058*vfs
	} else {
		p.Ki = scalar.Round(6054000-55130*math.Max(10, clay), 0)
		p.Kr = 0.0069 + 0.134*math.Exp(-0.2*math.Max(10, clay))
		p.Tauc = 3.5
	}

	if clay <= clayKeffThreshold {
		cec := keffCECDefault
		if sv.CECMeasured && sv.CEC > 0 {
			cec = sv.CEC
		}
		p.Keff = -0.265 + 0.0086*math.Pow(sand, 1.8) + 11.46*math.Pow(cec, -0.75)
	} else {
		p.Keff = 0.0066 * math.Exp(244/clay)
	}
	return p
}
