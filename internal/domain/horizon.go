package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoHorizons is returned when a component has no horizon rows.
	ErrNoHorizons = errors.New("component has no horizons")

	// ErrNoQualifyingLayer is returned when every horizon of a component is
	// restrictive, leaving no layer to classify or write.
	ErrNoQualifyingLayer = errors.New("no horizon conducts at least 11 mm/hr")

	// ErrMissingDepth is returned for a horizon without a bottom depth.
	ErrMissingDepth = errors.New("horizon bottom depth is missing")

	// ErrMissingKey is returned for a horizon row without a component key.
	ErrMissingKey = errors.New("horizon component key is missing")
)

// HorizonRecord is one chorizon row joined with its component. Numeric
// fields are nil when the database value is null.
type HorizonRecord struct {
	MuKey         string
	CoKey         string
	ChKey         string
	HzName        string
	ComponentName string
	ComponentPct  *float64

	BottomDepth     *float64 // cm
	BulkDensity     *float64
	Ksat            *float64
	Sand            *float64
	Clay            *float64
	OrganicMatter   *float64
	CEC             *float64
	AWCLow          *float64
	FragGT10        *float64
	Frag3To10       *float64
	SieveNo10       *float64
	WaterThirdBar   *float64
	WaterFifteenBar *float64
	VeryFineSand    *float64

	MasterDesignation string
}

// Validate reports whether the record can be normalized at all. Missing
// measurements are not validation errors; they are replaced by defaults.
func (r HorizonRecord) Validate() error {
	if r.CoKey == "" {
		return ErrMissingKey
	}
	if r.BottomDepth == nil {
		return fmt.Errorf("chkey %s: %w", r.ChKey, ErrMissingDepth)
	}
	return nil
}

// NormalizedLayer is a rock-corrected horizon in WEPP units.
type NormalizedLayer struct {
	Depth         float64 // mm
	BulkDensity   float64
	Sand          float64
	Clay          float64
	OrganicMatter float64
	CEC           float64
	Rock          float64
	Ksat          float64 // mm/hr
	Anisotropy    int
	FieldCapacity float64 // fraction
	WiltingPoint  float64 // fraction

	// Survey keeps the unrounded values the erodibility formulas read.
	Survey SurveyValues
}

// SurveyValues are a horizon's texture and chemistry as stored in the
// survey, before rounding. Absent values carry the layer defaults.
type SurveyValues struct {
	Sand          float64
	Clay          float64
	OrganicMatter float64
	CEC           float64
	VeryFineSand  float64

	// SandMeasured and CECMeasured record whether the survey had a value;
	// the erodibility formulas treat the defaults differently.
	SandMeasured bool
	CECMeasured  bool
}

// FieldDefault records a null survey value replaced by a default.
type FieldDefault struct {
	ChKey string
	Field string
	Value float64
}

// Horizons is the normalized view of one component.
type Horizons struct {
	CoKey         string
	ComponentName string

	// Layers holds every horizon sorted by depth; Retained only those that
	// conduct at least MinFlowKsat.
	Layers   []NormalizedLayer
	Retained []NormalizedLayer

	// RestrictiveKsat is derived from the minimum conductivity over all
	// layers, before restrictive layers are dropped.
	RestrictiveKsat float64

	Defaults []FieldDefault
}

// Surface returns the shallowest retained layer.
func (h Horizons) Surface() (NormalizedLayer, error) {
	if len(h.Retained) == 0 {
		return NormalizedLayer{}, fmt.Errorf("cokey %s: %w", h.CoKey, ErrNoQualifyingLayer)
	}
	return h.Retained[0], nil
}

// ComponentShare is a component's percent composition within a map unit.
type ComponentShare struct {
	MuKey string
	CoKey string
	Pct   *float64
}
