package log_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoic/dicl/pkg/log"
)

func TestToLogLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, log.ToLogLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, log.ToLogLevel(" WARN "))
	assert.Equal(t, zerolog.InfoLevel, log.ToLogLevel(""))
	assert.Equal(t, zerolog.InfoLevel, log.ToLogLevel("verbose"))
}

func TestZerologProvider_Fields(t *testing.T) {
	var buf bytes.Buffer
	provider := log.NewZerologProviderWithWriter(&buf, zerolog.DebugLevel)

	logger := provider.GetLoggerWithName("dicl").With(log.ComponentKey, "forecaster")
	logger.Info("Prediction started", log.SamplesKey, 12, log.FeaturesKey, 3)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "dicl", entry["logger"])
	assert.Equal(t, "forecaster", entry[log.ComponentKey])
	assert.Equal(t, float64(12), entry[log.SamplesKey])
	assert.Equal(t, "Prediction started", entry["message"])
}

func TestZerologProvider_ErrorAttachesErr(t *testing.T) {
	var buf bytes.Buffer
	provider := log.NewZerologProviderWithWriter(&buf, zerolog.InfoLevel)

	provider.GetLogger().Error("trainer failed", errors.New("boom"), log.HorizonKey, 4)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, float64(4), entry[log.HorizonKey])
}

func TestZerologProvider_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	provider := log.NewZerologProviderWithWriter(&buf, zerolog.InfoLevel)

	provider.GetLogger().Debug("hidden")
	assert.Zero(t, buf.Len())

	provider.SetLevel(zerolog.DebugLevel)
	provider.GetLogger().Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}
