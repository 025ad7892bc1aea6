package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LOG_LEVEL", "LOG_FORMAT", "METRICS_ADDR",
		"WORKERS", "STRICT", "NEIGHBOUR_K", "SEARCH_RADIUS", "INDEX_CACHE_SIZE",
		"SHUTDOWN_TIMEOUT",
		"KAFKA_BROKERS", "KAFKA_SINK_TOPIC", "KAFKA_ENABLED",
		"SPOT_DB_PATH",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Empty(t, cfg.MetricsAddr)
	assert.Equal(t, 4, cfg.Workers)
	assert.False(t, cfg.Strict)
	assert.Equal(t, 4, cfg.NeighbourK)
	assert.Zero(t, cfg.SearchRadius)
	assert.Equal(t, 8, cfg.IndexCacheSize)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "spot-forecasts", cfg.KafkaSinkTopic)
	assert.False(t, cfg.KafkaEnabled)
	assert.Empty(t, cfg.SpotDBPath)
}

func TestLoadCustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("METRICS_ADDR", ":9102")
	t.Setenv("WORKERS", "16")
	t.Setenv("STRICT", "true")
	t.Setenv("NEIGHBOUR_K", "8")
	t.Setenv("SEARCH_RADIUS", "25000")
	t.Setenv("INDEX_CACHE_SIZE", "2")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_SINK_TOPIC", "spots")
	t.Setenv("SPOT_DB_PATH", "/tmp/spots.db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, ":9102", cfg.MetricsAddr)
	assert.Equal(t, 16, cfg.Workers)
	assert.True(t, cfg.Strict)
	assert.Equal(t, 8, cfg.NeighbourK)
	assert.Equal(t, 25000.0, cfg.SearchRadius)
	assert.Equal(t, 2, cfg.IndexCacheSize)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "spots", cfg.KafkaSinkTopic)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, "/tmp/spots.db", cfg.SpotDBPath)
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "workers not a number", key: "WORKERS", value: "many"},
		{name: "workers below range", key: "WORKERS", value: "0"},
		{name: "workers above range", key: "WORKERS", value: "1000"},
		{name: "neighbour k above range", key: "NEIGHBOUR_K", value: "65"},
		{name: "negative search radius", key: "SEARCH_RADIUS", value: "-1"},
		{name: "search radius not a number", key: "SEARCH_RADIUS", value: "far"},
		{name: "cache size below range", key: "INDEX_CACHE_SIZE", value: "0"},
		{name: "bad shutdown timeout", key: "SHUTDOWN_TIMEOUT", value: "soon"},
		{name: "negative shutdown timeout", key: "SHUTDOWN_TIMEOUT", value: "-5s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadKafkaToggle(t *testing.T) {
	t.Run("brokers enable publishing", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("KAFKA_BROKERS", "broker:9092")

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.KafkaEnabled)
	})

	t.Run("explicit disable wins over brokers", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("KAFKA_BROKERS", "broker:9092")
		t.Setenv("KAFKA_ENABLED", "false")

		cfg, err := Load()
		require.NoError(t, err)
		assert.False(t, cfg.KafkaEnabled)
	})

	t.Run("enabled without brokers is an error", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("KAFKA_ENABLED", "true")

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestLoadDiagnostics(t *testing.T) {
	t.Run("full spec", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "diagnostics.json")
		require.NoError(t, os.WriteFile(path, []byte(`{
			"diagnostics": {
				"air_temperature": {
					"lapse_rate": "air_temperature_lapse_rate",
					"constraint": "land",
					"tie_break": "min_altitude_difference",
					"k": 8,
					"search_radius": 20000,
					"strict": true
				},
				"wind_speed": {}
			}
		}`), 0o644))

		diags, err := LoadDiagnostics(path)
		require.NoError(t, err)

		spec := diags.Spec("air_temperature")
		assert.Equal(t, "air_temperature_lapse_rate", spec.LapseRate)
		assert.Equal(t, "land", spec.Constraint)
		assert.Equal(t, "min_altitude_difference", spec.TieBreak)
		assert.Equal(t, 8, spec.K)
		assert.Equal(t, 20000.0, spec.SearchRadius)
		require.NotNil(t, spec.Strict)
		assert.True(t, *spec.Strict)

		empty := diags.Spec("wind_speed")
		assert.Empty(t, empty.LapseRate)
		assert.Nil(t, empty.Strict)
	})

	t.Run("absent diagnostic yields defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "diagnostics.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"diagnostics": {}}`), 0o644))

		diags, err := LoadDiagnostics(path)
		require.NoError(t, err)
		assert.Equal(t, DiagnosticSpec{}, diags.Spec("visibility"))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadDiagnostics(filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, err)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "diagnostics.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

		_, err := LoadDiagnostics(path)
		assert.Error(t, err)
	})
}
