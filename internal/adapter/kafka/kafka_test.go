package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockMessageWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (m *mockMessageWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if m.err != nil {
		return m.err
	}
	m.msgs = append(m.msgs, msgs...)
	return nil
}

func (m *mockMessageWriter) Close() error {
	m.closed = true
	return nil
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	entry := MappingEntry{SoilName: "amsterdam", MuKey: "657964", RecordedAt: now}

	msg, err := serializeToMessage(entry)
	require.NoError(t, err)

	assert.Equal(t, []byte("657964"), msg.Key)
	assert.JSONEq(t, `{"soil_name":"amsterdam","mukey":"657964","recorded_at":"2024-04-26T15:10:00Z"}`, string(msg.Value))
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "soil_name", msg.Headers[0].Key)
	assert.Equal(t, []byte("amsterdam"), msg.Headers[0].Value)
	assert.Equal(t, "recorded_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestWriter_Record(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC))
	mw := &mockMessageWriter{}
	w := &Writer{writer: mw, clock: clock, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	require.NoError(t, w.Record(context.Background(), "none", "657965"))
	require.NoError(t, w.Close())

	require.Len(t, mw.msgs, 1)
	assert.Equal(t, []byte("657965"), mw.msgs[0].Key)
	assert.Contains(t, string(mw.msgs[0].Value), `"soil_name":"none"`)
	assert.True(t, mw.closed)
}

func TestWriter_RecordError(t *testing.T) {
	mw := &mockMessageWriter{err: errors.New("leader not available")}
	w := &Writer{writer: mw, clock: clockwork.NewFakeClock(), logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	err := w.Record(context.Background(), "amsterdam", "657964")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish mapping amsterdam,657964")
}
