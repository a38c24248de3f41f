package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, DefaultChunkSize, cfg.ChunkSize)
	assert.Equal(t, DefaultMaxIterations, cfg.MaxIterations)
	assert.Equal(t, DefaultTopThreshold, cfg.TopThreshold)
	assert.Equal(t, "processed_good_data.csv", cfg.GoodOutput)
	assert.Equal(t, "processed_bad_data.csv", cfg.BadOutput)
	assert.Contains(t, cfg.FlagTokens, "N/A")
	assert.Contains(t, cfg.FlagTokens, "N|/|A")
	assert.Contains(t, cfg.DropColumns, "Runtime")
	assert.Equal(t, "Parental Guide", cfg.GuideColumn)
	assert.False(t, cfg.EncodeCategoricals)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"zero chunk size", func(c *Config) { c.ChunkSize = -1 }, true},
		{"zero iterations", func(c *Config) { c.MaxIterations = 0 }, true},
		{"zero threshold", func(c *Config) { c.TopThreshold = -5 }, true},
		{"no outputs at all", func(c *Config) {
			c.GoodOutput = ""
			c.BadOutput = ""
		}, true},
		{"sqlite only", func(c *Config) {
			c.GoodOutput = ""
			c.BadOutput = ""
			c.SQLitePath = "out.db"
		}, false},
		{"same good and bad output", func(c *Config) {
			c.BadOutput = c.GoodOutput
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWithDefaultsFillsZeroValues(t *testing.T) {
	cfg := Config{InputPath: "data.csv", ChunkSize: 250}.WithDefaults()

	assert.Equal(t, "data.csv", cfg.InputPath)
	assert.Equal(t, 250, cfg.ChunkSize)
	assert.Equal(t, DefaultMaxIterations, cfg.MaxIterations)
	assert.Equal(t, "Duration", cfg.DurationColumn)
	assert.Equal(t, "Gross Worldwide", cfg.GrossColumn)
	assert.NotEmpty(t, cfg.NumericColumns)
	require.NoError(t, cfg.Validate())
}

func TestWithDefaultsKeepsSQLiteOutputs(t *testing.T) {
	cfg := Config{SQLitePath: "out.db"}.WithDefaults()

	// With a SQLite destination the CSV outputs stay unset rather than
	// silently writing files nobody asked for.
	assert.Empty(t, cfg.GoodOutput)
	assert.Empty(t, cfg.BadOutput)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(
			"input_path: movies.csv\nchunk_size: 500\nencode_categoricals: true\n"), 0o644))

		cfg, err := LoadFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, "movies.csv", cfg.InputPath)
		assert.Equal(t, 500, cfg.ChunkSize)
		assert.True(t, cfg.EncodeCategoricals)
		// Unset fields are defaulted.
		assert.Equal(t, DefaultMaxIterations, cfg.MaxIterations)
	})

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "config.json")
		require.NoError(t, os.WriteFile(path, []byte(
			`{"input_path": "movies.csv", "top_threshold": 10}`), 0o644))

		cfg, err := LoadFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, "movies.csv", cfg.InputPath)
		assert.Equal(t, 10, cfg.TopThreshold)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := filepath.Join(dir, "config.toml")
		require.NoError(t, os.WriteFile(path, []byte("x = 1"), 0o644))
		_, err := LoadFromFile(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFromFile(filepath.Join(dir, "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(dir, "broken.yaml")
		require.NoError(t, os.WriteFile(path, []byte("chunk_size: [not an int"), 0o644))
		_, err := LoadFromFile(path)
		assert.Error(t, err)
	})
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PREPROC_INPUT", "env.csv")
	t.Setenv("PREPROC_CHUNK_SIZE", "123")
	t.Setenv("PREPROC_ENCODE_CATEGORICALS", "true")
	t.Setenv("PREPROC_MAX_ITERATIONS", "not a number")

	cfg := LoadFromEnv()
	assert.Equal(t, "env.csv", cfg.InputPath)
	assert.Equal(t, 123, cfg.ChunkSize)
	assert.True(t, cfg.EncodeCategoricals)
	// Unparseable values fall back to the default.
	assert.Equal(t, DefaultMaxIterations, cfg.MaxIterations)
}
