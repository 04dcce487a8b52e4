// Package wepp renders soil scenarios as WEPP soil input (.sol) files.
//
// Two layouts are supported. The legacy 7778 layout writes eleven fields per
// layer (depth, bulk density, Ksat, anisotropy, field capacity, wilting
// point, sand, clay, organic matter, CEC, rock) and ends with a restrictive
// layer line. The 95.7 layout writes six fields per layer (depth, sand, clay,
// organic matter, CEC, rock) and ends with the texture colour.
//
// Rendering is deterministic: the same input always yields the same bytes.
package wepp

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/soilgen/soilgen-fire/internal/domain"
)

// Unavailable is written in place of an erodibility value that could not be
// computed.
const Unavailable = "na"

const sep = "    "

// SoilFile is everything needed to render one scenario.
type SoilFile struct {
	Profile       domain.Profile
	SourceLabel   string
	ComponentName string
	CoKey         string
	Texture       domain.Texture

	// AssumedAlbedo and AssumedSaturation are the unscaled assumptions
	// quoted in the header comment.
	AssumedAlbedo     float64
	AssumedSaturation float64

	RestrictiveKsat float64
	Scenario        domain.Scenario
}

// SoilName is the lower-case file stem for a component name.
func SoilName(componentName string) string {
	return strings.ToLower(strings.ReplaceAll(componentName, " ", "_"))
}

// Filename returns the .sol name for a scenario. The normal baseline has no
// severity suffix.
func Filename(soilName string, sev domain.Severity) string {
	if sev == domain.Normal {
		return soilName + ".sol"
	}
	return fmt.Sprintf("%s_%s.sol", soilName, sev)
}

// Render serializes f.
func Render(f SoilFile) []byte {
	var b bytes.Buffer
	writeHeader(&b, f)
	writeParams(&b, f)
	for _, layer := range f.Scenario.Layers {
		writeLayer(&b, f.Profile.Layout, layer)
	}
	writeTrailer(&b, f)
	return b.Bytes()
}

func writeHeader(b *bytes.Buffer, f SoilFile) {
	fmt.Fprintln(b, f.Profile.Version)
	fmt.Fprintf(b, "#  This WEPP soil input file was made using %s data\n", f.SourceLabel)
	fmt.Fprintf(b, "#  base. Assumptions: soil albedo = %s, initial sat. = %s.\n",
		pyFloat(f.AssumedAlbedo), pyFloat(f.AssumedSaturation))
	fmt.Fprintf(b, "#  Soil Name: %s    Component Key: %s    Tex.: %s\n",
		f.ComponentName, f.CoKey, f.Texture.Name)
	fmt.Fprintln(b, "soil file")
	fmt.Fprintln(b, "1 1")
}

func writeParams(b *bytes.Buffer, f SoilFile) {
	s := f.Scenario
	kiDecimals := 2
	if f.Profile.Layout == domain.LayoutVersioned {
		kiDecimals = 1
	}
	fields := []string{
		quote(SoilName(f.ComponentName)),
		quote(f.Texture.Name),
		strconv.Itoa(len(s.Layers)),
		pyFloat(s.Albedo),
		pyFloat(s.InitialSaturation),
		param(s.Params, s.Params.Ki, kiDecimals),
		param(s.Params, s.Params.Kr, 2),
		param(s.Params, s.Params.Tauc, 2),
		param(s.Params, s.Params.Keff, 2),
	}
	b.WriteString(strings.Join(fields, sep))
	b.WriteByte('\n')
}

func writeLayer(b *bytes.Buffer, layout domain.Layout, l domain.NormalizedLayer) {
	var fields []string
	switch layout {
	case domain.LayoutVersioned:
		fields = []string{
			pyFloat(l.Depth), pyFloat(l.Sand), pyFloat(l.Clay),
			pyFloat(l.OrganicMatter), pyFloat(l.CEC), pyFloat(l.Rock),
		}
	default:
		fields = []string{
			pyFloat(l.Depth), pyFloat(l.BulkDensity), pyFloat(l.Ksat),
			strconv.Itoa(l.Anisotropy), pyFloat(l.FieldCapacity), pyFloat(l.WiltingPoint),
			pyFloat(l.Sand), pyFloat(l.Clay), pyFloat(l.OrganicMatter),
			pyFloat(l.CEC), pyFloat(l.Rock),
		}
	}
	b.WriteString(strings.Join(fields, sep))
	b.WriteByte('\n')
}

func writeTrailer(b *bytes.Buffer, f SoilFile) {
	switch f.Profile.Layout {
	case domain.LayoutVersioned:
		fmt.Fprintln(b, f.Texture.Color.String())
	default:
		fmt.Fprintf(b, "1 13 1000 %s\n", pyFloat(f.RestrictiveKsat))
	}
}

func param(p domain.ErodibilityParams, v float64, decimals int) string {
	if !p.Available {
		return Unavailable
	}
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

func quote(s string) string {
	return "'" + s + "'"
}

// pyFloat formats v in its shortest form, always keeping a decimal point
// so whole numbers read as reals ("100.0", not "100").
func pyFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}
