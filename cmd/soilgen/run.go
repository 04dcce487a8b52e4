package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/soilgen/soilgen-fire/internal/adapter/filestore"
	httpadapter "github.com/soilgen/soilgen-fire/internal/adapter/http"
	kafkaadapter "github.com/soilgen/soilgen-fire/internal/adapter/kafka"
	"github.com/soilgen/soilgen-fire/internal/adapter/maplog"
	s3adapter "github.com/soilgen/soilgen-fire/internal/adapter/s3"
	"github.com/soilgen/soilgen-fire/internal/adapter/ssurgo"
	"github.com/soilgen/soilgen-fire/internal/config"
	"github.com/soilgen/soilgen-fire/internal/observability"
	"github.com/soilgen/soilgen-fire/internal/pipeline"
)

const shutdownTimeout = 5 * time.Second

func (a *app) run(ctx context.Context, cfg *config.Config, o options) error {
	logger := observability.NewLogger(cfg)
	announceDefaults(cfg, logger)

	sel, ok := flagSelection(o)
	if !ok {
		var err error
		if sel, err = promptSelection(a.stdin, a.stdout); err != nil {
			return err
		}
	}
	keys, err := sel.keys()
	if err != nil {
		return err
	}

	store, err := ssurgo.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	source, err := ssurgo.NewCachedSource(store, cfg.CacheSize, a.metrics)
	if err != nil {
		return err
	}

	sink, err := newSink(ctx, cfg)
	if err != nil {
		return err
	}

	var mapLog pipeline.MappingLog
	if sel.kind == pipeline.KindMapUnit {
		file, err := maplog.Open(cfg.MapLog)
		if err != nil {
			return err
		}
		defer func() { _ = file.Close() }()
		mapLog = file

		if len(cfg.KafkaBrokers) > 0 {
			writer := kafkaadapter.NewWriter(cfg, a.clock, logger)
			defer func() {
				if err := writer.Close(); err != nil {
					logger.Error("kafka writer close error", "error", err)
				}
			}()
			mapLog = maplog.Tee{file, writer}
			logger.Info("mirroring mapping log to kafka", "topic", cfg.KafkaTopic)
		}
	}

	generator := pipeline.NewGenerator(pipeline.GeneratorOptions{
		Profile:           cfg.Profile(),
		SourceLabel:       cfg.SourceLabel,
		Albedo:            cfg.Albedo,
		InitialSaturation: cfg.InitialSaturation,
	}, logger, a.metrics)
	runner := pipeline.NewRunner(source, generator, sink, mapLog, logger, a.metrics, a.clock)

	if cfg.MetricsAddr != "" {
		srv := httpadapter.NewServer(cfg.MetricsAddr, runner, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("metrics server shutdown error", "error", err)
			}
		}()
	}

	logger.Info("generating soils", "keys", len(keys), "kind", sel.kind, "format", cfg.Format, "output", cfg.Output)
	var rep pipeline.Report
	if sel.kind == pipeline.KindMapUnit {
		rep, err = runner.RunMapUnits(ctx, keys)
	} else {
		rep, err = runner.RunComponents(ctx, keys)
	}
	if sumErr := rep.WriteSummary(a.stdout); sumErr != nil {
		logger.Error("write summary", "error", sumErr)
	}
	if err != nil {
		return err
	}
	if !rep.OK() {
		return errKeysFailed
	}
	return nil
}

func newSink(ctx context.Context, cfg *config.Config) (pipeline.Sink, error) {
	if cfg.OutputIsS3() {
		return s3adapter.New(ctx, cfg.Output, s3adapter.Config{
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
		})
	}
	return filestore.New(cfg.Output)
}

func announceDefaults(cfg *config.Config, logger *slog.Logger) {
	if cfg.DatabaseDefaulted {
		logger.Info("using default database", "database", cfg.Database)
	}
	if cfg.ComponentTableDefaulted {
		logger.Info("using default component table", "table", cfg.ComponentTable)
	}
	if cfg.HorizonTableDefaulted {
		logger.Info("using default horizon table", "table", cfg.HorizonTable)
	}
}
