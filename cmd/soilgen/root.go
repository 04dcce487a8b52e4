package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/soilgen/soilgen-fire/internal/config"
	"github.com/soilgen/soilgen-fire/internal/observability"
)

// errKeysFailed is returned after the summary when any key failed.
var errKeysFailed = errors.New("one or more keys failed")

type app struct {
	stdin   io.Reader
	stdout  io.Writer
	metrics *observability.Metrics
	clock   clockwork.Clock
}

type options struct {
	cokey, colist, mukey, mulist string

	database, driver, cotable, chtable string
	out, format, mapLog, metricsAddr   string
}

func (a *app) rootCmd() *cobra.Command {
	var o options
	cmd := &cobra.Command{
		Use:   "soilgen",
		Short: "Generate WEPP soil files with fire severity scenarios from SSURGO data.",
		Long: `soilgen reads soil components and horizons from a SSURGO or STATSGO2 database
and writes five WEPP soil files per component: unburned, low, moderate and high
fire severity, plus the normal baseline.

Select exactly one of --cokey, --colist, --mukey or --mulist. Without a
selection the keys are prompted for. Map unit keys are resolved to their
dominant components and recorded in the mapping log.

Settings not given as flags come from SOILGEN_* environment variables or a
.env file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			cfg = applyOverrides(cfg, cmd.Flags(), o)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return a.run(cmd.Context(), cfg, o)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.cokey, "cokey", "c", "", "a single component key")
	f.StringVarP(&o.colist, "colist", "l", "", "a list of component keys (.csv, .txt or .xlsx, first column)")
	f.StringVarP(&o.mukey, "mukey", "m", "", "a single map unit key; its dominant components are used")
	f.StringVarP(&o.mulist, "mulist", "k", "", "a list of map unit keys (.csv, .txt or .xlsx, first column)")
	cmd.MarkFlagsMutuallyExclusive("cokey", "colist", "mukey", "mulist")

	f.StringVarP(&o.database, "database", "d", "", fmt.Sprintf("database path or DSN (default %s)", config.DefaultDatabase))
	f.StringVar(&o.driver, "driver", "", "database driver: sqlite, pgx or postgres")
	f.StringVarP(&o.cotable, "cotable", "o", "", fmt.Sprintf("component table (default %s)", config.DefaultComponentTable))
	f.StringVarP(&o.chtable, "chtable", "t", "", fmt.Sprintf("horizon table (default %s)", config.DefaultHorizonTable))
	f.StringVar(&o.out, "out", "", "output directory or s3://bucket/prefix")
	f.StringVar(&o.format, "format", "", "soil file format: legacy (7778) or 95.7")
	f.StringVar(&o.mapLog, "maplog", "", "mapping log path")
	f.StringVar(&o.metricsAddr, "metrics-addr", "", "serve /metrics, /healthz, /readyz and /progress on this address")

	cmd.SetIn(a.stdin)
	cmd.SetOut(a.stdout)
	return cmd
}

// applyOverrides layers explicitly set flags over the loaded configuration.
func applyOverrides(cfg *config.Config, flags *pflag.FlagSet, o options) *config.Config {
	if flags.Changed("database") {
		cfg = cfg.WithDatabase(o.database)
	}
	if flags.Changed("driver") {
		cfg = cfg.WithDriver(o.driver)
	}
	if flags.Changed("cotable") {
		cfg = cfg.WithComponentTable(o.cotable)
	}
	if flags.Changed("chtable") {
		cfg = cfg.WithHorizonTable(o.chtable)
	}
	if flags.Changed("out") {
		cfg = cfg.WithOutput(o.out)
	}
	if flags.Changed("format") {
		cfg = cfg.WithFormat(o.format)
	}
	if flags.Changed("maplog") {
		cfg = cfg.WithMapLog(o.mapLog)
	}
	if flags.Changed("metrics-addr") {
		cfg = cfg.WithMetricsAddr(o.metricsAddr)
	}
	return cfg
}
