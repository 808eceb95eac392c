package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferWriterDecodesEvents(t *testing.T) {
	buf := NewLogBuffer(10)
	w := NewLogBufferWriter(buf)
	zl := zerolog.New(w).With().Timestamp().Logger()

	zl.Info().Str(HostField, "agg0").Msg("launched")
	zl.Warn().Msg("no consumer")

	entries := buf.GetAll()
	require.Len(t, entries, 2)
	assert.Equal(t, "agg0", entries[0].Host)
	assert.Equal(t, "info", entries[0].Level)
	assert.Equal(t, "launched", entries[0].Message)
	assert.Equal(t, SystemSource, entries[1].Host)
	assert.Equal(t, "warn", entries[1].Level)
	assert.Len(t, buf.ForHost("agg0"), 1)
}

func TestBufferWriterPartialLines(t *testing.T) {
	buf := NewLogBuffer(10)
	w := NewLogBufferWriter(buf)

	_, err := w.Write([]byte("[pro1] serving"))
	require.NoError(t, err)
	assert.Empty(t, buf.GetAll())

	_, err = w.Write([]byte(" /agg\nplain line\n"))
	require.NoError(t, err)

	entries := buf.GetAll()
	require.Len(t, entries, 2)
	assert.Equal(t, "pro1", entries[0].Host)
	assert.Equal(t, "serving /agg", entries[0].Message)
	assert.Equal(t, SystemSource, entries[1].Host)
	assert.Equal(t, "plain line", entries[1].Message)
}

func TestBufferKeepsNewest(t *testing.T) {
	buf := NewLogBuffer(3)
	for _, m := range []string{"a", "b", "c", "d", "e"} {
		buf.Add("h", "info", m)
	}

	recent := buf.GetRecent(10)
	require.Len(t, recent, 3)
	assert.Equal(t, "c", recent[0].Message)
	assert.Equal(t, "e", recent[2].Message)

	assert.Contains(t, FormatLogEntry(recent[2]), "INF h: e")

	buf.Clear()
	assert.Empty(t, buf.GetAll())
}

func TestUninitializedOutputs(t *testing.T) {
	if GetGlobalLogger() != nil {
		t.Skip("global logger already initialized")
	}
	assert.Error(t, AddOutput(NewLogBufferWriter(NewLogBuffer(1))))
	assert.Error(t, SetEnabled(false))
	Infof("falls back to stderr %d", 1)
}
