package log

import (
	"bytes"
	"encoding/json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

func TestWithLevelName(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"WARN":    zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}

	for name, want := range cases {
		c := &loggerConfig{level: zerolog.InfoLevel}
		WithLevelName(name)(c)
		assert.Equal(t, want, c.level, name)
	}
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	l := New("ms-transaction", WithOutput(&buf), WithLevelName("warn"))

	l.Info().Msg("dropped")
	l.Warn().Str("transaction_id", "T1").Msg("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "ms-transaction", entry["service"])
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "T1", entry["transaction_id"])
	assert.Equal(t, "kept", entry["message"])
	assert.Contains(t, entry, "time")
}
