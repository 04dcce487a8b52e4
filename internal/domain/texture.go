package domain

import "fmt"

// Color is an RGB display colour used by WEPP soil viewers.
type Color struct {
	R, G, B uint8
}

func (c Color) String() string {
	return fmt.Sprintf("%d %d %d", c.R, c.G, c.B)
}

// Texture is a USDA soil texture class.
type Texture struct {
	Name  string
	Color Color
}

// USDA texture classes with their WEPP colours.
var (
	TextureSand          = Texture{"Sand", Color{246, 232, 195}}
	TextureLoamySand     = Texture{"Loamy Sand", Color{223, 194, 125}}
	TextureSandyLoam     = Texture{"Sandy Loam", Color{191, 129, 45}}
	TextureLoam          = Texture{"Loam", Color{84, 48, 5}}
	TextureSiltLoam      = Texture{"Silt Loam", Color{140, 81, 10}}
	TextureSilt          = Texture{"Silt", Color{245, 245, 245}}
	TextureSandyClayLoam = Texture{"Sandy Clay Loam", Color{199, 234, 229}}
	TextureClayLoam      = Texture{"Clay Loam", Color{128, 205, 193}}
	TextureSiltyClayLoam = Texture{"Silty Clay Loam", Color{53, 151, 143}}
	TextureSandyClay     = Texture{"Sandy Clay", Color{223, 194, 125}}
	TextureSiltyClay     = Texture{"Silty Clay", Color{1, 102, 94}}
	TextureClay          = Texture{"Clay", Color{0, 60, 48}}

	// TextureDefault is returned when no rule matches. It shares the Sandy
	// Loam name but keeps the Loam colour.
	TextureDefault = Texture{"Sandy Loam", Color{84, 48, 5}}
)

type textureRule struct {
	texture Texture
	match   func(sand, silt, clay float64) bool
}

// textureRules follow the NRCS texture triangle calculations. The rules
// overlap; order decides.
var textureRules = []textureRule{
	{TextureSand, func(_, silt, clay float64) bool {
		return silt+1.5*clay < 15
	}},
	{TextureLoamySand, func(_, silt, clay float64) bool {
		return silt+1.5*clay >= 15 && silt+2*clay < 30
	}},
	{TextureSandyLoam, func(sand, silt, clay float64) bool {
		return (clay >= 7 && clay < 20 && sand > 52 && silt+2*clay >= 30) ||
			(clay < 7 && silt < 50 && silt+2*clay >= 30)
	}},
	{TextureLoam, func(sand, silt, clay float64) bool {
		return clay >= 7 && clay < 27 && silt >= 28 && silt < 50 && sand <= 52
	}},
	{TextureSiltLoam, func(_, silt, clay float64) bool {
		return (silt >= 50 && clay >= 12 && clay < 27) || (silt >= 50 && silt < 80 && clay < 12)
	}},
	{TextureSilt, func(_, silt, clay float64) bool {
		return silt >= 80 && clay < 12
	}},
	{TextureSandyClayLoam, func(sand, silt, clay float64) bool {
		return clay >= 20 && clay < 35 && silt < 28 && sand > 45
	}},
	{TextureClayLoam, func(sand, _, clay float64) bool {
		return clay >= 27 && clay < 40 && sand > 20 && sand <= 45
	}},
	{TextureSiltyClayLoam, func(sand, _, clay float64) bool {
		return clay >= 27 && clay < 40 && sand <= 20
	}},
	{TextureSandyClay, func(sand, _, clay float64) bool {
		return clay >= 35 && sand > 45
	}},
	{TextureSiltyClay, func(_, silt, clay float64) bool {
		return clay >= 40 && silt >= 40
	}},
	{TextureClay, func(sand, silt, clay float64) bool {
		return clay >= 40 && sand <= 45 && silt < 40
	}},
}

// ClassifyTexture returns the first texture class whose rule matches. The
// fractions are not required to sum to 100.
func ClassifyTexture(sand, silt, clay float64) Texture {
	for _, rule := range textureRules {
		if rule.match(sand, silt, clay) {
			return rule.texture
		}
	}
	return TextureDefault
}

// LayerTexture classifies a layer the way the soil file header does: sand
// and clay are truncated to whole percent and silt is the remainder.
func LayerTexture(layer NormalizedLayer) Texture {
	sand := float64(int(layer.Sand))
	clay := float64(int(layer.Clay))
	return ClassifyTexture(sand, 100-sand-clay, clay)
}
