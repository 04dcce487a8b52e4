package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/jonboulle/clockwork"

	"github.com/soilgen/soilgen-fire/internal/domain"
	"github.com/soilgen/soilgen-fire/internal/observability"
)

// ErrNoDominantComponent is returned for a map unit without components.
var ErrNoDominantComponent = errors.New("map unit has no components")

// NoSoil is the soil name logged for a map unit that produced nothing.
const NoSoil = "none"

// Source reads soil survey rows.
type Source interface {
	Horizons(ctx context.Context, cokey string) ([]domain.HorizonRecord, error)
	Components(ctx context.Context, mukey string) ([]domain.ComponentShare, error)
}

// Sink stores rendered soil files by name.
type Sink interface {
	Put(ctx context.Context, name string, body []byte) error
}

// MappingLog records which soil was generated for a map unit.
type MappingLog interface {
	Record(ctx context.Context, soilName, mukey string) error
}

// Runner drives generation over component and map unit keys. Keys are
// processed one at a time; a failing key is reported and skipped.
type Runner struct {
	source    Source
	generator *Generator
	sink      Sink
	mapLog    MappingLog
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock
	ready     atomic.Bool

	total  atomic.Int64
	done   atomic.Int64
	failed atomic.Int64
}

// Progress is a snapshot of the keys seen by a Runner. It is safe to read
// while a batch is running.
type Progress struct {
	Total  int64 `json:"total"`
	Done   int64 `json:"done"`
	Failed int64 `json:"failed"`
}

// NewRunner creates a Runner. mapLog may be nil when only component keys are processed.
func NewRunner(source Source, generator *Generator, sink Sink, mapLog MappingLog, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) *Runner {
	return &Runner{
		source:    source,
		generator: generator,
		sink:      sink,
		mapLog:    mapLog,
		logger:    logger,
		metrics:   metrics,
		clock:     clock,
	}
}

// CheckReadiness returns nil once the runner has written at least one soil,
// or an error describing why it is not yet ready.
func (r *Runner) CheckReadiness(_ context.Context) error {
	if !r.ready.Load() {
		return errors.New("no soil files written yet")
	}
	return nil
}

// Progress returns the key counts so far.
func (r *Runner) Progress() Progress {
	return Progress{Total: r.total.Load(), Done: r.done.Load(), Failed: r.failed.Load()}
}

// ProcessComponent queries, generates and stores the soil files for cokey.
func (r *Runner) ProcessComponent(ctx context.Context, cokey string) (SoilSet, error) {
	start := r.clock.Now()

	records, err := r.source.Horizons(ctx, cokey)
	if err != nil {
		return SoilSet{}, fmt.Errorf("query horizons: %w", err)
	}

	set, err := r.generator.Generate(cokey, records)
	if err != nil {
		return SoilSet{}, err
	}

	for _, f := range set.Files {
		if err := r.sink.Put(ctx, f.Name, f.Body); err != nil {
			return SoilSet{}, fmt.Errorf("write %s: %w", f.Name, err)
		}
		r.metrics.FilesWritten.Inc()
	}

	r.metrics.ComponentsProcessed.Inc()
	r.metrics.ComponentDuration.Observe(r.clock.Since(start).Seconds())
	r.ready.Store(true)
	r.logger.Info("wrote soil files", "cokey", cokey, "soil", set.SoilName, "files", len(set.Files))
	return set, nil
}

// RunComponents processes each cokey. The returned error is non-nil only
// when ctx ends the run early; per-key failures are in the Report.
func (r *Runner) RunComponents(ctx context.Context, cokeys []string) (Report, error) {
	r.metrics.RunInProgress.Set(1)
	defer r.metrics.RunInProgress.Set(0)

	r.total.Add(int64(len(cokeys)))
	start := r.clock.Now()
	var rep Report
	for _, cokey := range cokeys {
		if err := ctx.Err(); err != nil {
			rep.Duration = r.clock.Since(start)
			return rep, err
		}
		set, err := r.ProcessComponent(ctx, cokey)
		r.done.Add(1)
		if err != nil {
			r.failed.Add(1)
			r.componentFailed(&rep, cokey, err)
			continue
		}
		rep.Written = append(rep.Written, set.SoilName)
	}
	rep.Duration = r.clock.Since(start)
	return rep, nil
}

// RunMapUnits processes the dominant components of each mukey and records
// each generated soil in the mapping log. A map unit where nothing was
// generated is logged as NoSoil.
func (r *Runner) RunMapUnits(ctx context.Context, mukeys []string) (Report, error) {
	r.metrics.RunInProgress.Set(1)
	defer r.metrics.RunInProgress.Set(0)

	r.total.Add(int64(len(mukeys)))
	start := r.clock.Now()
	var rep Report
	for _, mukey := range mukeys {
		if err := ctx.Err(); err != nil {
			rep.Duration = r.clock.Since(start)
			return rep, err
		}
		if !r.runMapUnit(ctx, &rep, mukey) {
			r.failed.Add(1)
		}
		r.done.Add(1)
	}
	rep.Duration = r.clock.Since(start)
	return rep, nil
}

// runMapUnit reports whether any soil was generated for mukey.
func (r *Runner) runMapUnit(ctx context.Context, rep *Report, mukey string) bool {
	shares, err := r.source.Components(ctx, mukey)
	if err != nil {
		r.mapUnitFailed(ctx, rep, mukey, fmt.Errorf("query components: %w", err))
		return false
	}
	cokeys := domain.DominantComponents(shares)
	if len(cokeys) == 0 {
		r.mapUnitFailed(ctx, rep, mukey, ErrNoDominantComponent)
		return false
	}

	written := 0
	for _, cokey := range cokeys {
		set, err := r.ProcessComponent(ctx, cokey)
		if err != nil {
			r.componentFailed(rep, cokey, err)
			continue
		}
		written++
		rep.Written = append(rep.Written, set.SoilName)
		r.record(ctx, set.SoilName, mukey)
	}
	if written == 0 {
		r.mapUnitFailed(ctx, rep, mukey, fmt.Errorf("all %d dominant component(s) failed", len(cokeys)))
		return false
	}
	return true
}

func (r *Runner) componentFailed(rep *Report, cokey string, err error) {
	r.logger.Error("component failed", "cokey", cokey, "error", err)
	r.metrics.ComponentsFailed.Inc()
	rep.Failed = append(rep.Failed, KeyError{Kind: KindComponent, Key: cokey, Err: err})
}

func (r *Runner) mapUnitFailed(ctx context.Context, rep *Report, mukey string, err error) {
	r.logger.Error("map unit failed", "mukey", mukey, "error", err)
	rep.Failed = append(rep.Failed, KeyError{Kind: KindMapUnit, Key: mukey, Err: err})
	r.record(ctx, NoSoil, mukey)
}

func (r *Runner) record(ctx context.Context, soilName, mukey string) {
	if r.mapLog == nil {
		return
	}
	if err := r.mapLog.Record(ctx, soilName, mukey); err != nil {
		r.logger.Warn("mapping log write failed", "soil", soilName, "mukey", mukey, "error", err)
	}
}
