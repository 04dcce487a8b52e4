package domain

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats/scalar"
)

// Severity names a fire severity scenario. The value doubles as the file
// name suffix.
type Severity string

const (
	Unburned Severity = "unb"
	Low      Severity = "low"
	Moderate Severity = "mod"
	High     Severity = "high"
	Normal   Severity = "norm"
)

// Severities lists every scenario in output order.
var Severities = []Severity{Unburned, Low, Moderate, High, Normal}

// ErrUnknownProfile is returned by ProfileByName for an unrecognized format.
var ErrUnknownProfile = errors.New("unknown soil file format")

// HeaderMultipliers scale the soil-wide parameters of a scenario.
type HeaderMultipliers struct {
	Albedo            float64
	InitialSaturation float64
	Ki                float64
	Kr                float64
	Tauc              float64
	Keff              float64
}

// LayerMultipliers scale the per-layer texture and chemistry values. Depth,
// bulk density, conductivity, anisotropy, field capacity and wilting point
// are never scaled.
type LayerMultipliers struct {
	Sand          float64
	Clay          float64
	OrganicMatter float64
	CEC           float64
	Rock          float64
}

// Multipliers is one row of a profile's severity table.
type Multipliers struct {
	Header HeaderMultipliers
	Layer  LayerMultipliers
}

var (
	identityHeader = HeaderMultipliers{1, 1, 1, 1, 1, 1}
	identityLayer  = LayerMultipliers{1, 1, 1, 1, 1}
	identity       = Multipliers{identityHeader, identityLayer}
)

// Layout is the on-disk arrangement of a soil file.
type Layout int

const (
	// LayoutLegacy writes 11-field layer lines and a restrictive layer line.
	LayoutLegacy Layout = iota
	// LayoutVersioned writes 6-field layer lines and a colour trailer.
	LayoutVersioned
)

// Profile is a named soil file format with its own severity table.
type Profile struct {
	Name    string
	Version string
	Layout  Layout
	table   map[Severity]Multipliers
}

// Multipliers returns the factors for sev. Severities missing from the
// table are the identity.
func (p Profile) Multipliers(sev Severity) Multipliers {
	if m, ok := p.table[sev]; ok {
		return m
	}
	return identity
}

// LegacyProfile is the 7778 format. Only the normal baseline is scaled.
var LegacyProfile = Profile{
	Name:    "legacy",
	Version: "7778",
	Layout:  LayoutLegacy,
	table: map[Severity]Multipliers{
		Unburned: identity,
		Low:      identity,
		Moderate: identity,
		High:     identity,
		Normal: {
			Header: HeaderMultipliers{Albedo: 1, InitialSaturation: 1, Ki: 2.5, Kr: 2.6, Tauc: 1, Keff: 0.4},
			Layer:  identityLayer,
		},
	},
}

// VersionedProfile is the 95.7 format with per-severity fire adjustments.
var VersionedProfile = Profile{
	Name:    "95.7",
	Version: "95.7",
	Layout:  LayoutVersioned,
	table: map[Severity]Multipliers{
		Unburned: {
			Header: HeaderMultipliers{Albedo: 1.1, InitialSaturation: 1, Ki: 1, Kr: 1, Tauc: 1, Keff: 1},
			Layer:  identityLayer,
		},
		Low: {
			Header: HeaderMultipliers{Albedo: 1, InitialSaturation: 0.9, Ki: 1.2, Kr: 1.2, Tauc: 1, Keff: 0.9},
			Layer:  LayerMultipliers{Sand: 1, Clay: 1, OrganicMatter: 0.9, CEC: 1, Rock: 1},
		},
		Moderate: {
			Header: HeaderMultipliers{Albedo: 1, InitialSaturation: 0.8, Ki: 1.5, Kr: 1.25, Tauc: 1, Keff: 0.8},
			Layer:  LayerMultipliers{Sand: 1, Clay: 1, OrganicMatter: 0.75, CEC: 1, Rock: 1},
		},
		High: {
			Header: HeaderMultipliers{Albedo: 1, InitialSaturation: 0.5, Ki: 2.6, Kr: 2.5, Tauc: 1, Keff: 0.4},
			Layer:  LayerMultipliers{Sand: 1, Clay: 1, OrganicMatter: 0.5, CEC: 0.9, Rock: 1},
		},
		Normal: identity,
	},
}

// ProfileByName looks up a profile by its name or version string.
func ProfileByName(name string) (Profile, error) {
	for _, p := range []Profile{LegacyProfile, VersionedProfile} {
		if name == p.Name || name == p.Version {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
}

// ScenarioBase holds the unscaled inputs shared by all scenarios.
type ScenarioBase struct {
	Albedo            float64
	InitialSaturation float64
	Params            ErodibilityParams
	Layers            []NormalizedLayer
}

// Scenario is one severity's adjusted parameters and layers.
type Scenario struct {
	Severity          Severity
	Albedo            float64
	InitialSaturation float64
	Params            ErodibilityParams
	Layers            []NormalizedLayer
}

// GenerateScenarios applies each severity's multipliers to base, in
// Severities order. Every scenario gets its own layer slice.
func GenerateScenarios(profile Profile, base ScenarioBase) []Scenario {
	scenarios := make([]Scenario, 0, len(Severities))
	for _, sev := range Severities {
		scenarios = append(scenarios, ApplySeverity(base, sev, profile.Multipliers(sev)))
	}
	return scenarios
}

// ApplySeverity scales base by m.
func ApplySeverity(base ScenarioBase, sev Severity, m Multipliers) Scenario {
	s := Scenario{
		Severity:          sev,
		Albedo:            scale(base.Albedo, m.Header.Albedo),
		InitialSaturation: scale(base.InitialSaturation, m.Header.InitialSaturation),
		Params:            base.Params,
		Layers:            make([]NormalizedLayer, len(base.Layers)),
	}
	if s.Params.Available {
		s.Params.Ki *= m.Header.Ki
		s.Params.Kr *= m.Header.Kr
		s.Params.Tauc *= m.Header.Tauc
		s.Params.Keff *= m.Header.Keff
	}
	for i, layer := range base.Layers {
		layer.Sand = scale(layer.Sand, m.Layer.Sand)
		layer.Clay = scale(layer.Clay, m.Layer.Clay)
		layer.OrganicMatter = scale(layer.OrganicMatter, m.Layer.OrganicMatter)
		layer.CEC = scale(layer.CEC, m.Layer.CEC)
		layer.Rock = scale(layer.Rock, m.Layer.Rock)
		s.Layers[i] = layer
	}
	return s
}

// scale multiplies and rounds away float noise such as 1.1*0.9.
func scale(v, m float64) float64 {
	return scalar.Round(v*m, 4)
}
