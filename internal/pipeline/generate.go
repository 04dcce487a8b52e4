package pipeline

import (
	"log/slog"

	"github.com/soilgen/soilgen-fire/internal/domain"
	"github.com/soilgen/soilgen-fire/internal/observability"
	"github.com/soilgen/soilgen-fire/internal/wepp"
)

// GeneratorOptions are the run-wide constants a Generator renders with.
type GeneratorOptions struct {
	Profile           domain.Profile
	SourceLabel       string
	Albedo            float64
	InitialSaturation float64
}

// File is one rendered soil file.
type File struct {
	Name     string
	Severity domain.Severity
	Body     []byte
}

// SoilSet is the full output for one component.
type SoilSet struct {
	CoKey    string
	SoilName string
	Files    []File
}

// Generator turns raw horizon rows into one soil file per severity.
type Generator struct {
	opts    GeneratorOptions
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewGenerator creates a Generator.
func NewGenerator(opts GeneratorOptions, logger *slog.Logger, metrics *observability.Metrics) *Generator {
	return &Generator{opts: opts, logger: logger, metrics: metrics}
}

// Generate normalizes records and renders every scenario. It does no I/O.
func (g *Generator) Generate(cokey string, records []domain.HorizonRecord) (SoilSet, error) {
	h, err := domain.NormalizeComponent(cokey, records)
	if err != nil {
		return SoilSet{}, err
	}
	for _, d := range h.Defaults {
		g.logger.Warn("horizon value missing, using default",
			"cokey", cokey, "chkey", d.ChKey, "field", d.Field, "default", d.Value)
		g.metrics.FieldDefaults.WithLabelValues(d.Field).Inc()
	}

	surface, err := h.Surface()
	if err != nil {
		return SoilSet{}, err
	}

	params := domain.ComputeErodibility(surface)
	if !params.Available {
		g.logger.Warn("surface sand not measured, erodibility unavailable", "cokey", cokey)
	}

	texture := domain.LayerTexture(surface)
	scenarios := domain.GenerateScenarios(g.opts.Profile, domain.ScenarioBase{
		Albedo:            g.opts.Albedo,
		InitialSaturation: g.opts.InitialSaturation,
		Params:            params,
		Layers:            h.Retained,
	})

	set := SoilSet{
		CoKey:    cokey,
		SoilName: wepp.SoilName(h.ComponentName),
		Files:    make([]File, 0, len(scenarios)),
	}
	for _, s := range scenarios {
		body := wepp.Render(wepp.SoilFile{
			Profile:           g.opts.Profile,
			SourceLabel:       g.opts.SourceLabel,
			ComponentName:     h.ComponentName,
			CoKey:             cokey,
			Texture:           texture,
			AssumedAlbedo:     g.opts.Albedo,
			AssumedSaturation: g.opts.InitialSaturation,
			RestrictiveKsat:   h.RestrictiveKsat,
			Scenario:          s,
		})
		set.Files = append(set.Files, File{
			Name:     wepp.Filename(set.SoilName, s.Severity),
			Severity: s.Severity,
			Body:     body,
		})
	}
	return set, nil
}
