// Package ssurgo reads components and horizons from a SSURGO or STATSGO2
// database through database/sql. SQLite exports and Postgres mirrors are
// supported; table names are configurable because state extracts often carry
// a suffix.
package ssurgo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	_ "github.com/lib/pq"              // registers "postgres"
	_ "modernc.org/sqlite"             // registers "sqlite"

	"github.com/soilgen/soilgen-fire/internal/config"
	"github.com/soilgen/soilgen-fire/internal/domain"
)

// ErrUnavailable means the database could not be reached. It ends the run.
var ErrUnavailable = errors.New("soil database unavailable")

const horizonQuery = `SELECT co.mukey, ch.cokey, ch.chkey, ch.hzname, co.compname, co.comppct_r,
	ch.hzdepb_r, ch.dbthirdbar_r, ch.ksat_r, ch.sandtotal_r, ch.claytotal_r, ch.om_r,
	ch.ecec_r, ch.awc_l, ch.fraggt10_r, ch.frag3to10_r, ch.desgnmaster, ch.sieveno10_r,
	ch.wthirdbar_r, ch.wfifteenbar_r, ch.sandvf_r
FROM %s AS ch JOIN %s AS co ON ch.cokey = co.cokey
WHERE ch.cokey = %s
ORDER BY ch.hzdepb_r, ch.chkey`

const componentQuery = `SELECT mukey, cokey, comppct_r FROM %s WHERE mukey = %s ORDER BY cokey`

// Store implements pipeline.Source over a SQL database.
type Store struct {
	db           *sql.DB
	horizonSQL   string
	componentSQL string
	logger       *slog.Logger
}

// Open connects to cfg.Database with cfg.DBDriver, retrying the ping with
// exponential backoff until cfg.DBConnectTimeout elapses.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if cfg.DBDriver == "sqlite" {
		// sqlite creates a missing file on first use.
		if _, err := os.Stat(cfg.Database); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	db, err := sql.Open(cfg.DBDriver, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrUnavailable, cfg.DBDriver, err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = cfg.DBConnectTimeout
	err = backoff.Retry(func() error {
		if err := db.PingContext(ctx); err != nil {
			logger.Warn("soil database not reachable, retrying", "driver", cfg.DBDriver, "error", err)
			return err
		}
		return nil
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	logger.Info("soil database connected", "driver", cfg.DBDriver,
		"component_table", cfg.ComponentTable, "horizon_table", cfg.HorizonTable)
	return New(db, cfg.DBDriver, cfg.ComponentTable, cfg.HorizonTable, logger), nil
}

// New wraps an open database. Table names must already be validated
// identifiers; config.Validate does this.
func New(db *sql.DB, driver, componentTable, horizonTable string, logger *slog.Logger) *Store {
	ph := "?"
	if driver == "pgx" || driver == "postgres" {
		ph = "$1"
	}
	return &Store{
		db:           db,
		horizonSQL:   fmt.Sprintf(horizonQuery, horizonTable, componentTable, ph),
		componentSQL: fmt.Sprintf(componentQuery, componentTable, ph),
		logger:       logger,
	}
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Horizons returns every horizon of cokey joined with its component.
func (s *Store) Horizons(ctx context.Context, cokey string) ([]domain.HorizonRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.horizonSQL, cokey)
	if err != nil {
		return nil, fmt.Errorf("select horizons: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.HorizonRecord
	for rows.Next() {
		rec, err := scanHorizon(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate horizons: %w", err)
	}
	s.logger.Debug("horizons loaded", "cokey", cokey, "rows", len(out))
	return out, nil
}

// Components returns the component shares of mukey.
func (s *Store) Components(ctx context.Context, mukey string) ([]domain.ComponentShare, error) {
	rows, err := s.db.QueryContext(ctx, s.componentSQL, mukey)
	if err != nil {
		return nil, fmt.Errorf("select components: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.ComponentShare
	for rows.Next() {
		var (
			mu, co sql.NullString
			pct    sql.NullFloat64
		)
		if err := rows.Scan(&mu, &co, &pct); err != nil {
			return nil, fmt.Errorf("scan component: %w", err)
		}
		out = append(out, domain.ComponentShare{MuKey: mu.String, CoKey: co.String, Pct: floatPtr(pct)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate components: %w", err)
	}
	return out, nil
}

func scanHorizon(rows *sql.Rows) (domain.HorizonRecord, error) {
	var (
		mukey, cokey, chkey, hzname, compname, master sql.NullString

		pct, depth, bd, ksat, sand, clay, om, cec, awc sql.NullFloat64
		fragGT10, frag3To10, sieve, w3, w15, vfs       sql.NullFloat64
	)
	err := rows.Scan(&mukey, &cokey, &chkey, &hzname, &compname, &pct,
		&depth, &bd, &ksat, &sand, &clay, &om,
		&cec, &awc, &fragGT10, &frag3To10, &master, &sieve,
		&w3, &w15, &vfs)
	if err != nil {
		return domain.HorizonRecord{}, fmt.Errorf("scan horizon: %w", err)
	}
	return domain.HorizonRecord{
		MuKey:             mukey.String,
		CoKey:             cokey.String,
		ChKey:             chkey.String,
		HzName:            hzname.String,
		ComponentName:     compname.String,
		ComponentPct:      floatPtr(pct),
		BottomDepth:       floatPtr(depth),
		BulkDensity:       floatPtr(bd),
		Ksat:              floatPtr(ksat),
		Sand:              floatPtr(sand),
		Clay:              floatPtr(clay),
		OrganicMatter:     floatPtr(om),
		CEC:               floatPtr(cec),
		AWCLow:            floatPtr(awc),
		FragGT10:          floatPtr(fragGT10),
		Frag3To10:         floatPtr(frag3To10),
		SieveNo10:         floatPtr(sieve),
		WaterThirdBar:     floatPtr(w3),
		WaterFifteenBar:   floatPtr(w15),
		VeryFineSand:      floatPtr(vfs),
		MasterDesignation: master.String,
	}, nil
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
