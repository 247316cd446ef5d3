package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"commonsfetch/pkg/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{name: "info level", cfg: &config.LoggingConfig{Level: "info"}},
		{name: "debug level", cfg: &config.LoggingConfig{Level: "debug"}},
		{name: "invalid level", cfg: &config.LoggingConfig{Level: "loud"}, wantErr: true},
		{name: "file output", cfg: &config.LoggingConfig{Level: "warn", File: filepath.Join(t.TempDir(), "logs", "run.log")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"verbose", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestStructuredOutput(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.DebugLevel)

	l.WithField("term", "lighthouse").
		WithError(errors.New("boom")).
		InfoWithFields("search finished", map[string]interface{}{"count": 3})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "search finished", entry["message"])
	assert.Equal(t, "lighthouse", entry["term"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, float64(3), entry["count"])
	assert.Equal(t, "commonsfetch", entry["app"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.WarnLevel)

	l.Debug("hidden")
	l.Info("hidden too")
	l.Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewWithWriter(&buf, zerolog.InfoLevel)
	_ = parent.WithField("run_id", "abc")

	parent.Info("plain")
	assert.NotContains(t, buf.String(), "run_id")
}

func TestTestLoggerCapturesFields(t *testing.T) {
	tl := NewTestLogger()
	tl.WithField("term", "cats").WithError(errors.New("nope")).Error("failed")
	tl.Info("ok")

	msgs := tl.GetMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "cats", msgs[0].Fields["term"])
	assert.EqualError(t, msgs[0].Error, "nope")
	assert.True(t, tl.HasError())
	assert.True(t, tl.HasMessage("ok"))
	assert.Len(t, tl.GetMessagesByLevel("INFO"), 1)
}

func TestLogDownload(t *testing.T) {
	tl := NewTestLogger()

	LogDownload(tl, "cats", "https://example/a.jpg", "images/cats/a.jpg", 10, nil)
	LogDownload(tl, "cats", "https://example/b.jpg", "images/cats/b.jpg", 0, errors.New("status 500"))

	assert.Len(t, tl.GetMessagesByLevel("INFO"), 1)
	errs := tl.GetMessagesByLevel("ERROR")
	require.Len(t, errs, 1)
	assert.Equal(t, "https://example/b.jpg", errs[0].Fields["url"])
}
