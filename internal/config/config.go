// Package config provides configuration management for the preprocessing
// pipeline.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the configuration surface of a pipeline run.
type Config struct {
	// Input/Output
	InputPath  string `json:"input_path" yaml:"input_path"`   // Source CSV of crawled rows
	GoodOutput string `json:"good_output" yaml:"good_output"` // Destination for fully processed rows
	BadOutput  string `json:"bad_output" yaml:"bad_output"`   // Destination for imputed/outlier rows

	// Chunking
	ChunkSize int `json:"chunk_size" yaml:"chunk_size"` // Rows per unit of work and of durability

	// Normalization
	FlagTokens  []string `json:"flag_tokens" yaml:"flag_tokens"`   // Values treated as missing
	DropColumns []string `json:"drop_columns" yaml:"drop_columns"` // Structurally empty columns to drop
	GuideColumn string   `json:"guide_column" yaml:"guide_column"` // Parental-guide composite column
	DateColumn  string   `json:"date_column" yaml:"date_column"`   // Date-and-place composite column
	PlaceColumn string   `json:"place_column" yaml:"place_column"` // Destination of the place part

	DurationColumn string `json:"duration_column" yaml:"duration_column"` // "<N>h <N>m" column
	BudgetColumn   string `json:"budget_column" yaml:"budget_column"`     // "$..." column, log1p-transformed
	GrossColumn    string `json:"gross_column" yaml:"gross_column"`       // "$..." column, log1p-transformed
	ProfitColumn   string `json:"profit_column" yaml:"profit_column"`     // Derived Gross - Budget column

	CleanNumericColumns []string `json:"clean_numeric_columns" yaml:"clean_numeric_columns"` // Columns coerced to numeric
	NumericColumns      []string `json:"numeric_columns" yaml:"numeric_columns"`             // Outlier detection + scaling set

	// Imputation
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"` // Fixed imputation sweep budget

	// Encoding
	EncodeCategoricals bool     `json:"encode_categoricals" yaml:"encode_categoricals"` // One-hot encode output chunks
	TopThreshold       int      `json:"top_threshold" yaml:"top_threshold"`             // Retained values per encoded column
	ExcludeFromEncode  []string `json:"exclude_from_encode" yaml:"exclude_from_encode"` // Columns kept out of encoding

	// Optional SQLite destination. When set, good/bad rows are written to the
	// good_rows/bad_rows tables of this database instead of CSV files.
	SQLitePath string `json:"sqlite_path" yaml:"sqlite_path"`
}

// Default configuration values, mirroring the crawled-dataset column set.
const (
	DefaultChunkSize     = 1000
	DefaultMaxIterations = 5
	DefaultTopThreshold  = 100
)

// NewConfig creates a new configuration with default values.
func NewConfig() Config {
	return Config{
		GoodOutput: "processed_good_data.csv",
		BadOutput:  "processed_bad_data.csv",

		ChunkSize: DefaultChunkSize,

		FlagTokens:  []string{"N/A", "", "N|/|A"},
		DropColumns: []string{"Type", "Watchlist Count", "Runtime"},
		GuideColumn: "Parental Guide",
		DateColumn:  "Release Date",
		PlaceColumn: "Place",

		DurationColumn: "Duration",
		BudgetColumn:   "Budget",
		GrossColumn:    "Gross Worldwide",
		ProfitColumn:   "Profit Margin",

		CleanNumericColumns: []string{
			"Year", "Rating", "Number of votes", "Critic Reviews",
			"Metascore", "Budget", "Gross Worldwide",
		},
		NumericColumns: []string{
			"Rating", "Number of votes", "Critic Reviews",
			"Metascore", "Budget", "Gross Worldwide",
		},

		MaxIterations: DefaultMaxIterations,

		EncodeCategoricals: false,
		TopThreshold:       DefaultTopThreshold,
		ExcludeFromEncode: []string{
			"Year", "Duration", "Rating", "Number of votes", "Critic Reviews",
			"Metascore", "Budget", "Gross Worldwide", "Profit Margin",
			"Release Date", "Popularity", "Popularity Delta",
		},
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("ChunkSize must be positive, got %d", c.ChunkSize)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("MaxIterations must be positive, got %d", c.MaxIterations)
	}
	if c.TopThreshold <= 0 {
		return fmt.Errorf("TopThreshold must be positive, got %d", c.TopThreshold)
	}
	if c.GoodOutput == "" || c.BadOutput == "" {
		if c.SQLitePath == "" {
			return fmt.Errorf("good and bad outputs must both be set")
		}
	}
	if c.GoodOutput != "" && c.GoodOutput == c.BadOutput {
		return fmt.Errorf("good and bad outputs must differ, both are %q", c.GoodOutput)
	}
	return nil
}

// WithDefaults fills zero-valued fields with defaults.
func (c Config) WithDefaults() Config {
	def := NewConfig()
	if c.ChunkSize == 0 {
		c.ChunkSize = def.ChunkSize
	}
	if c.MaxIterations == 0 {
		c.MaxIterations = def.MaxIterations
	}
	if c.TopThreshold == 0 {
		c.TopThreshold = def.TopThreshold
	}
	if c.GoodOutput == "" && c.SQLitePath == "" {
		c.GoodOutput = def.GoodOutput
	}
	if c.BadOutput == "" && c.SQLitePath == "" {
		c.BadOutput = def.BadOutput
	}
	if c.FlagTokens == nil {
		c.FlagTokens = def.FlagTokens
	}
	if c.DropColumns == nil {
		c.DropColumns = def.DropColumns
	}
	if c.GuideColumn == "" {
		c.GuideColumn = def.GuideColumn
	}
	if c.DateColumn == "" {
		c.DateColumn = def.DateColumn
	}
	if c.PlaceColumn == "" {
		c.PlaceColumn = def.PlaceColumn
	}
	if c.DurationColumn == "" {
		c.DurationColumn = def.DurationColumn
	}
	if c.BudgetColumn == "" {
		c.BudgetColumn = def.BudgetColumn
	}
	if c.GrossColumn == "" {
		c.GrossColumn = def.GrossColumn
	}
	if c.ProfitColumn == "" {
		c.ProfitColumn = def.ProfitColumn
	}
	if c.CleanNumericColumns == nil {
		c.CleanNumericColumns = def.CleanNumericColumns
	}
	if c.NumericColumns == nil {
		c.NumericColumns = def.NumericColumns
	}
	if c.ExcludeFromEncode == nil {
		c.ExcludeFromEncode = def.ExcludeFromEncode
	}
	return c
}

// LoadFromFile loads configuration from a YAML or JSON file, selected by
// extension, and fills unset fields with defaults.
func LoadFromFile(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", filename, err)
	}

	var config Config
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".json":
		err = json.Unmarshal(data, &config)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	default:
		return Config{}, fmt.Errorf("unsupported config file format: %s", ext)
	}

	if err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", filename, err)
	}

	return config.WithDefaults(), nil
}

// LoadFromEnv loads configuration from PREPROC_* environment variables on top
// of the defaults.
func LoadFromEnv() Config {
	config := NewConfig()

	if val := os.Getenv("PREPROC_INPUT"); val != "" {
		config.InputPath = val
	}
	if val := os.Getenv("PREPROC_GOOD_OUTPUT"); val != "" {
		config.GoodOutput = val
	}
	if val := os.Getenv("PREPROC_BAD_OUTPUT"); val != "" {
		config.BadOutput = val
	}
	if val := os.Getenv("PREPROC_SQLITE_PATH"); val != "" {
		config.SQLitePath = val
	}
	if val := os.Getenv("PREPROC_CHUNK_SIZE"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.ChunkSize = parsed
		}
	}
	if val := os.Getenv("PREPROC_MAX_ITERATIONS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.MaxIterations = parsed
		}
	}
	if val := os.Getenv("PREPROC_TOP_THRESHOLD"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.TopThreshold = parsed
		}
	}
	if val := os.Getenv("PREPROC_ENCODE_CATEGORICALS"); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			config.EncodeCategoricals = parsed
		}
	}

	return config
}
