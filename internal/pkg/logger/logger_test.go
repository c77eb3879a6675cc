package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func newBufferLogger() (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(zapcore.AddSync(&buf)), &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	require.NotEmpty(t, line)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(line), &m))
	return m
}

func TestRedactToken(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://x/ads_archive?access_token=EAAB123&limit=5", "https://x/ads_archive?access_token=***&limit=5"},
		{"no token here", "no token here"},
		{"a access_token=abc b", "a access_token=*** b"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RedactToken(tt.in))
	}
}

func TestLog_KeyValues(t *testing.T) {
	l, buf := newBufferLogger()
	l.Log(INFO, "scoring complete", "calculated", 10, "err", errors.New("boom"))

	m := decodeLine(t, buf)
	assert.Equal(t, "scoring complete", m["msg"])
	assert.Equal(t, "INFO", m["level"])
	assert.EqualValues(t, 10, m["calculated"])
	assert.Equal(t, "boom", m["err"])
}

func TestLog_RedactsSecrets(t *testing.T) {
	l, buf := newBufferLogger()
	l.Log(WARN, "fetch failed", "url", "https://x?access_token=abc", "meta_token", "abc")

	m := decodeLine(t, buf)
	assert.Equal(t, "https://x?access_token=***", m["url"])
	assert.Equal(t, "***", m["meta_token"])
}

func TestLog_LevelFilter(t *testing.T) {
	l, buf := newBufferLogger()
	l.Log(DEBUG, "hidden")
	assert.Empty(t, buf.String())

	l.level.SetLevel(zapcore.DebugLevel)
	l.Log(DEBUG, "shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel("WARNING"))
	assert.Equal(t, ERROR, ParseLevel("error"))
	assert.Equal(t, INFO, ParseLevel("bogus"))
}
