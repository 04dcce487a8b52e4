//go:build integration

package integration_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
	_ "modernc.org/sqlite"

	"github.com/soilgen/soilgen-fire/internal/adapter/filestore"
	"github.com/soilgen/soilgen-fire/internal/adapter/kafka"
	"github.com/soilgen/soilgen-fire/internal/adapter/maplog"
	"github.com/soilgen/soilgen-fire/internal/adapter/ssurgo"
	"github.com/soilgen/soilgen-fire/internal/config"
	"github.com/soilgen/soilgen-fire/internal/domain"
	"github.com/soilgen/soilgen-fire/internal/observability"
	"github.com/soilgen/soilgen-fire/internal/pipeline"
)

const testTopic = "test-soil-mapping"

const fixtureSQL = `
CREATE TABLE component (mukey TEXT, cokey TEXT, compname TEXT, comppct_r INTEGER);
CREATE TABLE chorizon (
	cokey TEXT, chkey TEXT, hzname TEXT, hzdepb_r REAL, dbthirdbar_r REAL, ksat_r REAL,
	sandtotal_r REAL, claytotal_r REAL, om_r REAL, ecec_r REAL, awc_l REAL,
	fraggt10_r REAL, frag3to10_r REAL, desgnmaster TEXT, sieveno10_r REAL,
	wthirdbar_r REAL, wfifteenbar_r REAL, sandvf_r REAL
);
INSERT INTO component VALUES ('657964', '10001', 'Amsterdam', 85), ('657965', '10009', 'Pits', 100);
INSERT INTO chorizon VALUES
	('10001', '20001', 'A', 15, 1.3, 9, 40, 18, 3, 20, 0.15, 0, 0, 'A', 95, 28, 12, 9),
	('10009', '20009', 'C', 20, 1.6, 0.1, 20, 45, 0.2, 10, 0.1, 0, 0, 'C', 90, 35, 25, 5);
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("soilgen-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func openStore(t *testing.T) *ssurgo.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "STATSGO2.sqlite")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(fixtureSQL)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	store, err := ssurgo.Open(context.Background(), &config.Config{
		DBDriver:         "sqlite",
		Database:         path,
		ComponentTable:   "component",
		HorizonTable:     "chorizon",
		DBConnectTimeout: 5 * time.Second,
	}, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// TestMappingMirror runs a map unit batch against a real broker and checks
// that the Kafka mirror carries the same entries as the mapping log file.
func TestMappingMirror(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	dir := t.TempDir()
	sink, err := filestore.New(filepath.Join(dir, "sol"))
	require.NoError(t, err)
	file, err := maplog.Open(filepath.Join(dir, "soildic.txt"))
	require.NoError(t, err)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic}
	clock := clockwork.NewFakeClockAt(time.Date(2024, 4, 26, 0, 0, 0, 0, time.UTC))
	writer := kafka.NewWriter(cfg, clock, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	generator := pipeline.NewGenerator(pipeline.GeneratorOptions{
		Profile:           domain.VersionedProfile,
		SourceLabel:       "test",
		Albedo:            0.23,
		InitialSaturation: 0.753,
	}, discardLogger(), metrics)
	runner := pipeline.NewRunner(openStore(t), generator, sink, maplog.Tee{file, writer},
		discardLogger(), metrics, clock)

	rep, err := runner.RunMapUnits(ctx, []string{"657964", "657965"})
	require.NoError(t, err)
	require.NoError(t, file.Close())

	assert.Equal(t, []string{"657965"}, rep.FailedKeys(pipeline.KindMapUnit))

	got, err := os.ReadFile(filepath.Join(dir, "soildic.txt"))
	require.NoError(t, err)
	assert.Equal(t, "amsterdam,657964\nnone,657965\n", string(got))

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testTopic,
		Partition: 0,
		MaxWait:   500 * time.Millisecond,
	})
	t.Cleanup(func() { _ = reader.Close() })

	var entries []kafka.MappingEntry
	for i := 0; i < 2; i++ {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := reader.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read mapping topic")

		var entry kafka.MappingEntry
		require.NoError(t, json.Unmarshal(msg.Value, &entry))
		assert.Equal(t, entry.MuKey, string(msg.Key))
		entries = append(entries, entry)
	}

	assert.Equal(t, "amsterdam", entries[0].SoilName)
	assert.Equal(t, "657964", entries[0].MuKey)
	assert.Equal(t, "none", entries[1].SoilName)
	assert.Equal(t, "657965", entries[1].MuKey)
	assert.Equal(t, clock.Now().UTC(), entries[0].RecordedAt)
}
