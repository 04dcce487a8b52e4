package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/soilgen/soilgen-fire/internal/domain"
)

// Defaults for the data source. Load records whether each was used so the
// CLI can say which database and tables it fell back to.
const (
	DefaultDriver         = "sqlite"
	DefaultDatabase       = "STATSGO2.sqlite"
	DefaultComponentTable = "component"
	DefaultHorizonTable   = "chorizon"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Config holds all run settings, populated from environment variables and
// overridden by CLI flags through the With helpers. A Config is never
// mutated after Load; the helpers return copies.
type Config struct {
	DBDriver         string
	Database         string
	ComponentTable   string
	HorizonTable     string
	DBConnectTimeout time.Duration
	CacheSize        int

	Output      string
	Format      string
	SourceLabel string
	MapLog      string

	// Albedo and InitialSaturation are the assumed soil-wide values
	// before severity scaling.
	Albedo            float64
	InitialSaturation float64

	S3Region    string
	S3Endpoint  string
	S3PathStyle bool

	KafkaBrokers []string
	KafkaTopic   string

	MetricsAddr string
	LogLevel    string
	LogFormat   string

	DatabaseDefaulted       bool
	ComponentTableDefaulted bool
	HorizonTableDefaulted   bool
}

// Load reads configuration from environment variables, applying defaults where unset.
// A .env file in the working directory is loaded first if present; it never
// overrides variables already set.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	timeout, err := time.ParseDuration(envOrDefault("SOILGEN_DB_CONNECT_TIMEOUT", "15s"))
	if err != nil || timeout <= 0 {
		return nil, errors.New("invalid SOILGEN_DB_CONNECT_TIMEOUT")
	}

	cacheSize, err := strconv.Atoi(envOrDefault("SOILGEN_CACHE_SIZE", "256"))
	if err != nil || cacheSize < 0 {
		return nil, errors.New("invalid SOILGEN_CACHE_SIZE")
	}

	albedo, err := strconv.ParseFloat(envOrDefault("SOILGEN_ALBEDO", "0.23"), 64)
	if err != nil {
		return nil, errors.New("invalid SOILGEN_ALBEDO")
	}

	saturation, err := strconv.ParseFloat(envOrDefault("SOILGEN_INITIAL_SATURATION", "0.753"), 64)
	if err != nil {
		return nil, errors.New("invalid SOILGEN_INITIAL_SATURATION")
	}

	pathStyle, err := strconv.ParseBool(envOrDefault("SOILGEN_S3_PATH_STYLE", "false"))
	if err != nil {
		return nil, errors.New("invalid SOILGEN_S3_PATH_STYLE")
	}

	cfg := &Config{
		DBDriver:         envOrDefault("SOILGEN_DB_DRIVER", DefaultDriver),
		Database:         envOrDefault("SOILGEN_DATABASE", DefaultDatabase),
		ComponentTable:   envOrDefault("SOILGEN_COMPONENT_TABLE", DefaultComponentTable),
		HorizonTable:     envOrDefault("SOILGEN_HORIZON_TABLE", DefaultHorizonTable),
		DBConnectTimeout: timeout,
		CacheSize:        cacheSize,

		Output:      envOrDefault("SOILGEN_OUTPUT", "sol"),
		Format:      envOrDefault("SOILGEN_FORMAT", domain.LegacyProfile.Name),
		SourceLabel: envOrDefault("SOILGEN_SOURCE_LABEL", "USDA STATSGO2 (2006)"),
		MapLog:      envOrDefault("SOILGEN_MAPLOG", "soildic.txt"),

		Albedo:            albedo,
		InitialSaturation: saturation,

		S3Region:    envOrDefault("SOILGEN_S3_REGION", "us-east-1"),
		S3Endpoint:  os.Getenv("SOILGEN_S3_ENDPOINT"),
		S3PathStyle: pathStyle,

		KafkaBrokers: parseList(os.Getenv("SOILGEN_KAFKA_BROKERS")),
		KafkaTopic:   envOrDefault("SOILGEN_KAFKA_TOPIC", "soilgen-mapping"),

		MetricsAddr: os.Getenv("METRICS_ADDR"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		LogFormat:   envOrDefault("LOG_FORMAT", "text"),

		DatabaseDefaulted:       os.Getenv("SOILGEN_DATABASE") == "",
		ComponentTableDefaulted: os.Getenv("SOILGEN_COMPONENT_TABLE") == "",
		HorizonTableDefaulted:   os.Getenv("SOILGEN_HORIZON_TABLE") == "",
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that flags can change after Load.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite", "pgx", "postgres":
	default:
		return fmt.Errorf("SOILGEN_DB_DRIVER must be sqlite, pgx or postgres, got %q", c.DBDriver)
	}
	if c.Database == "" {
		return errors.New("SOILGEN_DATABASE is required")
	}
	if !identifier.MatchString(c.ComponentTable) {
		return fmt.Errorf("SOILGEN_COMPONENT_TABLE is not a valid table name: %q", c.ComponentTable)
	}
	if !identifier.MatchString(c.HorizonTable) {
		return fmt.Errorf("SOILGEN_HORIZON_TABLE is not a valid table name: %q", c.HorizonTable)
	}
	if c.Output == "" {
		return errors.New("SOILGEN_OUTPUT is required")
	}
	if _, err := domain.ProfileByName(c.Format); err != nil {
		return fmt.Errorf("SOILGEN_FORMAT: %w", err)
	}
	if c.Albedo <= 0 || c.Albedo > 1 {
		return errors.New("SOILGEN_ALBEDO must be in (0, 1]")
	}
	if c.InitialSaturation <= 0 || c.InitialSaturation > 1 {
		return errors.New("SOILGEN_INITIAL_SATURATION must be in (0, 1]")
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return errors.New("SOILGEN_KAFKA_TOPIC is required when SOILGEN_KAFKA_BROKERS is set")
	}
	return nil
}

// Profile returns the soil file format selected by Format.
func (c *Config) Profile() domain.Profile {
	p, err := domain.ProfileByName(c.Format)
	if err != nil {
		return domain.LegacyProfile
	}
	return p
}

// OutputIsS3 reports whether Output names an S3 location.
func (c *Config) OutputIsS3() bool {
	return strings.HasPrefix(c.Output, "s3://")
}

// WithDatabase returns a copy using path as the database.
func (c *Config) WithDatabase(path string) *Config {
	cp := *c
	cp.Database = path
	cp.DatabaseDefaulted = false
	return &cp
}

// WithDriver returns a copy using the named database/sql driver.
func (c *Config) WithDriver(driver string) *Config {
	cp := *c
	cp.DBDriver = driver
	return &cp
}

// WithComponentTable returns a copy reading components from table.
func (c *Config) WithComponentTable(table string) *Config {
	cp := *c
	cp.ComponentTable = table
	cp.ComponentTableDefaulted = false
	return &cp
}

// WithHorizonTable returns a copy reading horizons from table.
func (c *Config) WithHorizonTable(table string) *Config {
	cp := *c
	cp.HorizonTable = table
	cp.HorizonTableDefaulted = false
	return &cp
}

// WithOutput returns a copy writing soil files to out.
func (c *Config) WithOutput(out string) *Config {
	cp := *c
	cp.Output = out
	return &cp
}

// WithFormat returns a copy rendering the named format.
func (c *Config) WithFormat(format string) *Config {
	cp := *c
	cp.Format = format
	return &cp
}

// WithMapLog returns a copy appending the mapping log to path.
func (c *Config) WithMapLog(path string) *Config {
	cp := *c
	cp.MapLog = path
	return &cp
}

// WithMetricsAddr returns a copy serving metrics on addr.
func (c *Config) WithMetricsAddr(addr string) *Config {
	cp := *c
	cp.MetricsAddr = addr
	return &cp
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
