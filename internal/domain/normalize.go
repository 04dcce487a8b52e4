package domain

import (
	"slices"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

// Defaults substituted for null survey values.
const (
	DefaultBulkDensity   = 0.0
	DefaultSand          = 55.0
	DefaultClay          = 10.0
	DefaultOrganicMatter = 5.0
	DefaultCEC           = 15.0
	DefaultRock          = 25.0
	DefaultVeryFineSand  = 0.0
)

// Field names reported in FieldDefault, matching the SSURGO columns.
const (
	FieldBulkDensity   = "dbthirdbar_r"
	FieldSand          = "sandtotal_r"
	FieldClay          = "claytotal_r"
	FieldOrganicMatter = "om_r"
	FieldCEC           = "ecec_r"
	FieldRock          = "sieveno10_r"
	FieldVeryFineSand  = "sandvf_r"
)

const (
	// MinFlowKsat is the conductivity, in mm/hr, below which a layer is restrictive.
	MinFlowKsat = 11.0

	// ksatToMMPerHour converts the survey conductivity to mm/hr.
	ksatToMMPerHour = 3.6

	// anisotropyDepth is the bottom depth, in cm, below which layers are isotropic.
	anisotropyDepth = 50.0
)

// NormalizeHorizon converts one horizon to WEPP units and applies the rock
// correction. It returns the defaults it had to substitute. The record must
// pass Validate.
func NormalizeHorizon(rec HorizonRecord) (NormalizedLayer, []FieldDefault) {
	var defaults []FieldDefault
	value := func(v *float64, field string, def float64) float64 {
		if v == nil {
			defaults = append(defaults, FieldDefault{ChKey: rec.ChKey, Field: field, Value: def})
			return def
		}
		return *v
	}
	pick := func(v *float64, field string, def float64, prec int) float64 {
		return scalar.Round(value(v, field, def), prec)
	}

	fragments := valueOr(rec.FragGT10, 0) + valueOr(rec.Frag3To10, 0)
	fineEarth := (100 - fragments) / 100

	layer := NormalizedLayer{
		Depth:         scalar.Round(*rec.BottomDepth*10, 1),
		BulkDensity:   pick(rec.BulkDensity, FieldBulkDensity, DefaultBulkDensity, 2),
		Sand:          pick(rec.Sand, FieldSand, DefaultSand, 1),
		Clay:          pick(rec.Clay, FieldClay, DefaultClay, 1),
		OrganicMatter: pick(rec.OrganicMatter, FieldOrganicMatter, DefaultOrganicMatter, 1),
		CEC:           pick(rec.CEC, FieldCEC, DefaultCEC, 1),
		Rock:          pick(sieveRock(rec, fragments, fineEarth), FieldRock, DefaultRock, 1),
		Ksat:          conductivity(rec.Ksat),
		Anisotropy:    anisotropy(*rec.BottomDepth),
		FieldCapacity: waterFraction(rec.WaterThirdBar, fineEarth),
		WiltingPoint:  waterFraction(rec.WaterFifteenBar, fineEarth),
		Survey: SurveyValues{
			Sand:          valueOr(rec.Sand, DefaultSand),
			Clay:          valueOr(rec.Clay, DefaultClay),
			OrganicMatter: valueOr(rec.OrganicMatter, DefaultOrganicMatter),
			CEC:           valueOr(rec.CEC, DefaultCEC),
			VeryFineSand:  value(rec.VeryFineSand, FieldVeryFineSand, DefaultVeryFineSand),
			SandMeasured:  rec.Sand != nil,
			CECMeasured:   rec.CEC != nil,
		},
	}
	return layer, defaults
}

// NormalizeComponent normalizes every horizon of one component, sorts them by
// depth, computes the restrictive conductivity and drops restrictive layers.
// A component left with no retained layer is still returned; callers use
// Horizons.Surface to detect it.
func NormalizeComponent(cokey string, records []HorizonRecord) (Horizons, error) {
	if len(records) == 0 {
		return Horizons{}, ErrNoHorizons
	}

	h := Horizons{
		CoKey:  cokey,
		Layers: make([]NormalizedLayer, 0, len(records)),
	}
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			return Horizons{}, err
		}
		layer, defaults := NormalizeHorizon(rec)
		h.Layers = append(h.Layers, layer)
		h.Defaults = append(h.Defaults, defaults...)
		h.ComponentName = strings.ReplaceAll(rec.ComponentName, " ", "_")
	}

	slices.SortStableFunc(h.Layers, func(a, b NormalizedLayer) int {
		switch {
		case a.Depth < b.Depth:
			return -1
		case a.Depth > b.Depth:
			return 1
		}
		return 0
	})

	h.RestrictiveKsat = restrictiveKsat(h.Layers)
	for _, layer := range h.Layers {
		if layer.Ksat >= MinFlowKsat {
			h.Retained = append(h.Retained, layer)
		}
	}
	return h, nil
}

// sieveRock combines fragment volume with the coarse material retained on a
// #10 sieve. Organic horizons carry no rock. Returns nil when the sieve
// value needed for a mineral horizon is missing.
func sieveRock(rec HorizonRecord, fragments, fineEarth float64) *float64 {
	if strings.EqualFold(strings.TrimSpace(rec.MasterDesignation), "O") {
		zero := 0.0
		return &zero
	}
	if rec.SieveNo10 == nil {
		return nil
	}
	rock := fineEarth*(100-*rec.SieveNo10) + fragments
	return &rock
}

// waterFraction rescales a fine-earth water content (%) to the whole soil
// volume and returns it as a fraction.
func waterFraction(v *float64, fineEarth float64) float64 {
	if v == nil || fineEarth == 0 {
		return 0
	}
	return scalar.Round(*v/fineEarth/100, 3)
}

func conductivity(ksat *float64) float64 {
	if ksat == nil {
		return 0
	}
	return scalar.Round(*ksat*ksatToMMPerHour, 2)
}

func anisotropy(bottomDepth float64) int {
	if bottomDepth > anisotropyDepth {
		return 1
	}
	return 10
}

// restrictiveKsat returns the minimum layer conductivity. Minima below 10
// mm/hr are scaled down by 100 for the restrictive layer line.
func restrictiveKsat(layers []NormalizedLayer) float64 {
	if len(layers) == 0 {
		return 0
	}
	ksats := make([]float64, len(layers))
	for i, layer := range layers {
		ksats[i] = layer.Ksat
	}
	low := floats.Min(ksats)
	if low < 10 {
		return low / 100
	}
	return low
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
