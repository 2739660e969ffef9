package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name          string
		logLevel      string
		envLevel      string
		logFormat     string
		isDevelopment bool
		expectedLevel logrus.Level
		expectJSON    bool
	}{
		{
			name:          "production defaults",
			expectedLevel: logrus.InfoLevel,
			expectJSON:    true,
		},
		{
			name:          "development defaults",
			isDevelopment: true,
			expectedLevel: logrus.DebugLevel,
			expectJSON:    false,
		},
		{
			name:          "development with json format",
			isDevelopment: true,
			logFormat:     "JSON",
			expectedLevel: logrus.DebugLevel,
			expectJSON:    true,
		},
		{
			name:          "explicit level wins over environment",
			logLevel:      "error",
			envLevel:      "debug",
			expectedLevel: logrus.ErrorLevel,
			expectJSON:    true,
		},
		{
			name:          "environment level",
			envLevel:      "WARN",
			expectedLevel: logrus.WarnLevel,
			expectJSON:    true,
		},
		{
			name:          "invalid level defaults to info",
			logLevel:      "loud",
			expectedLevel: logrus.InfoLevel,
			expectJSON:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.envLevel)
			t.Setenv("LOG_FORMAT", tt.logFormat)
			Logger = nil

			log := InitLogger(tt.logLevel, tt.isDevelopment)

			assert.Equal(t, tt.expectedLevel, log.GetLevel())
			if tt.expectJSON {
				_, ok := log.Formatter.(*logrus.JSONFormatter)
				assert.True(t, ok, "expected JSON formatter")
			} else {
				_, ok := log.Formatter.(*logrus.TextFormatter)
				assert.True(t, ok, "expected text formatter")
			}
			assert.Same(t, log, GetLogger())
		})
	}
}

func TestWithOptimizationContext(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")
	Logger = nil
	log := InitLogger("debug", false)

	var buf bytes.Buffer
	log.SetOutput(&buf)

	WithOptimizationContext("opt-456", "nfl", "fanduel").Debug("processing players")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "opt-456", entry["optimization_id"])
	assert.Equal(t, "nfl", entry["sport"])
	assert.Equal(t, "fanduel", entry["provider"])
	assert.Equal(t, "processing players", entry["msg"])
}

func TestRequestFields(t *testing.T) {
	Logger = nil
	log := InitLogger("info", false)

	var buf bytes.Buffer
	SetOutput(&buf)

	log.WithFields(RequestFields("req-789", "opt-456")).Info("request processing")
	WithService("lineup-api").Info("service message")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "req-789", entry["request_id"])
	assert.Equal(t, "opt-456", entry["optimization_id"])

	require.NoError(t, json.Unmarshal(lines[1], &entry))
	assert.Equal(t, "lineup-api", entry["service"])
	assert.Same(t, log, GetLogger())
}

func TestGetLogger(t *testing.T) {
	Logger = nil

	first := GetLogger()
	assert.NotNil(t, first)
	assert.Same(t, first, GetLogger())
}
