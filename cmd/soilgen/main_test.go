package main

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/soilgen/soilgen-fire/internal/adapter/ssurgo"
	"github.com/soilgen/soilgen-fire/internal/config"
	"github.com/soilgen/soilgen-fire/internal/observability"
	"github.com/soilgen/soilgen-fire/internal/pipeline"
)

const fixtureSQL = `
CREATE TABLE component (mukey TEXT, cokey TEXT, compname TEXT, comppct_r INTEGER);
CREATE TABLE chorizon (
	cokey TEXT, chkey TEXT, hzname TEXT, hzdepb_r REAL, dbthirdbar_r REAL, ksat_r REAL,
	sandtotal_r REAL, claytotal_r REAL, om_r REAL, ecec_r REAL, awc_l REAL,
	fraggt10_r REAL, frag3to10_r REAL, desgnmaster TEXT, sieveno10_r REAL,
	wthirdbar_r REAL, wfifteenbar_r REAL, sandvf_r REAL
);
INSERT INTO component VALUES
	('657964', '10001', 'Amsterdam', 45),
	('657964', '10002', 'Ola', 45);
INSERT INTO chorizon VALUES
	('10001', '20001', 'A', 15, 1.3, 9, 40, 18, 3, 20, 0.15, 0, 0, 'A', 95, 28, 12, 9),
	('10001', '20002', 'Bt', 60, 1.5, 2.5, 35, 28, 0.5, 14, 0.12, 0, 2, 'B', 85, 30, 16, 8),
	('10002', '20003', 'Oi', 3, NULL, NULL, NULL, NULL, 60, NULL, NULL, NULL, NULL, 'O', NULL, NULL, NULL, NULL);
`

func fixtureDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "STATSGO2.sqlite")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(fixtureSQL)
	require.NoError(t, err)
	require.NoError(t, db.Close())
	return path
}

func newTestApp(stdin string) (*app, *bytes.Buffer) {
	var out bytes.Buffer
	return &app{
		stdin:   strings.NewReader(stdin),
		stdout:  &out,
		metrics: observability.NewMetricsForTesting(),
		clock:   clockwork.NewFakeClock(),
	}, &out
}

func execute(a *app, args ...string) error {
	cmd := a.rootCmd()
	cmd.SetArgs(args)
	cmd.SetErr(&bytes.Buffer{})
	return cmd.ExecuteContext(context.Background())
}

func TestRun_Cokey(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	db := fixtureDB(t)
	out := filepath.Join(t.TempDir(), "sol")

	a, stdout := newTestApp("")
	require.NoError(t, execute(a, "--database", db, "--cokey", "10001", "--out", out))

	for _, name := range []string{"amsterdam_unb.sol", "amsterdam_low.sol", "amsterdam_mod.sol", "amsterdam_high.sol", "amsterdam.sol"} {
		assert.FileExists(t, filepath.Join(out, name))
	}
	body, err := os.ReadFile(filepath.Join(out, "amsterdam_unb.sol"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "7778\n"))
	assert.Contains(t, string(body), "Component Key: 10001")
	assert.Contains(t, stdout.String(), "generated 1 soil(s)")
}

func TestRun_MulistWithFailure(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	db := fixtureDB(t)
	dir := t.TempDir()
	list := filepath.Join(dir, "mukeys.csv")
	require.NoError(t, os.WriteFile(list, []byte("657964\n"), 0o600))
	mapLog := filepath.Join(dir, "soildic.txt")

	a, stdout := newTestApp("")
	err := execute(a, "-d", db, "-k", list, "--out", filepath.Join(dir, "sol"), "--format", "95.7", "--maplog", mapLog)
	require.ErrorIs(t, err, errKeysFailed)

	got, err := os.ReadFile(mapLog)
	require.NoError(t, err)
	assert.Equal(t, "amsterdam,657964\n", string(got))

	body, err := os.ReadFile(filepath.Join(dir, "sol", "amsterdam_high.sol"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "95.7\n"))
	assert.Contains(t, stdout.String(), "cokey 10002")
}

func TestRun_Prompt(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	db := fixtureDB(t)
	out := filepath.Join(t.TempDir(), "sol")

	a, stdout := newTestApp("\n657964\n")
	err := execute(a, "-d", db, "--out", out, "--maplog", filepath.Join(t.TempDir(), "soildic.txt"))
	require.ErrorIs(t, err, errKeysFailed)

	assert.Contains(t, stdout.String(), "cokey or cokey list")
	assert.Contains(t, stdout.String(), "mukey or mukey list")
	assert.FileExists(t, filepath.Join(out, "amsterdam.sol"))
}

func TestRun_MutuallyExclusiveFlags(t *testing.T) {
	a, _ := newTestApp("")
	err := execute(a, "--cokey", "10001", "--mukey", "657964")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "none of the others can be")
}

func TestRun_MissingDatabase(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	a, _ := newTestApp("")
	err := execute(a, "-d", filepath.Join(t.TempDir(), "nope.sqlite"), "-c", "10001", "--out", t.TempDir())
	require.ErrorIs(t, err, ssurgo.ErrUnavailable)
}

func TestRun_InvalidFormatFlag(t *testing.T) {
	a, _ := newTestApp("")
	err := execute(a, "-c", "10001", "--format", "2006")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SOILGEN_FORMAT")
}

func TestPromptSelection(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    selection
		wantErr error
	}{
		{"cokey", "10001\n", selection{kind: pipeline.KindComponent, input: "10001"}, nil},
		{"cokey list", "keys.csv\n", selection{kind: pipeline.KindComponent, input: "keys.csv", list: true}, nil},
		{"mukey", "\n 657964 \n", selection{kind: pipeline.KindMapUnit, input: "657964"}, nil},
		{"nothing", "\n\n", selection{}, errNoSelection},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := promptSelection(strings.NewReader(tt.input), &out)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFlagSelection(t *testing.T) {
	tests := []struct {
		name string
		opts options
		want selection
	}{
		{"cokey", options{cokey: "10001"}, selection{kind: pipeline.KindComponent, input: "10001"}},
		{"cokey with list extension", options{cokey: "foo.csv"}, selection{kind: pipeline.KindComponent, input: "foo.csv"}},
		{"colist without extension", options{colist: "mykeys"}, selection{kind: pipeline.KindComponent, input: "mykeys", list: true}},
		{"mulist", options{mulist: "mukeys.xlsx"}, selection{kind: pipeline.KindMapUnit, input: "mukeys.xlsx", list: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, ok := flagSelection(tt.opts)
			require.True(t, ok)
			assert.Equal(t, tt.want, sel)
		})
	}

	_, ok := flagSelection(options{})
	assert.False(t, ok)
}

func TestSelectionKeys(t *testing.T) {
	keys, err := selection{kind: pipeline.KindComponent, input: "10001"}.keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"10001"}, keys)

	t.Run("list flag reads files without a list extension", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "mykeys")
		require.NoError(t, os.WriteFile(path, []byte("10001\n10002\n"), 0o600))

		keys, err := selection{kind: pipeline.KindComponent, input: path, list: true}.keys()
		require.NoError(t, err)
		assert.Equal(t, []string{"10001", "10002"}, keys)
	})

	t.Run("key flag never reads a file", func(t *testing.T) {
		keys, err := selection{kind: pipeline.KindComponent, input: "foo.csv"}.keys()
		require.NoError(t, err)
		assert.Equal(t, []string{"foo.csv"}, keys)
	})

	t.Run("empty list", func(t *testing.T) {
		empty := filepath.Join(t.TempDir(), "empty.csv")
		require.NoError(t, os.WriteFile(empty, nil, 0o600))
		_, err := selection{kind: pipeline.KindComponent, input: empty, list: true}.keys()
		require.Error(t, err)
	})
}

func TestApplyOverrides_OnlyChangedFlags(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	a, _ := newTestApp("")
	cmd := a.rootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"-o", "co_2006", "--out", "s3://soils/fire"}))

	got := applyOverrides(cfg, cmd.Flags(), options{cotable: "co_2006", out: "s3://soils/fire"})
	assert.Equal(t, "co_2006", got.ComponentTable)
	assert.False(t, got.ComponentTableDefaulted)
	assert.True(t, got.OutputIsS3())
	assert.Equal(t, config.DefaultDatabase, got.Database)
	assert.Equal(t, config.DefaultHorizonTable, got.HorizonTable)
}
