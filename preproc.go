// Package preproc turns crawled movie metadata into a modeling-ready tabular
// dataset. This package is the public entry point; the stages live under
// internal/ and are wired together here.
//
// A run reads the input CSV as bounded chunks, cleans and normalizes each
// chunk, imputes missing values in its incomplete rows, quarantines outliers
// and scales the rest, then appends the results to the "good" and "bad"
// output streams.
package preproc

import (
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/moviedex/preproc/internal/config"
	pio "github.com/moviedex/preproc/internal/io"
	"github.com/moviedex/preproc/internal/pipeline"
)

// Config is the pipeline configuration surface.
type Config = config.Config

// DefaultConfig returns the default configuration for the crawled movie
// dataset.
func DefaultConfig() Config {
	return config.NewConfig()
}

// LoadConfig loads a YAML or JSON configuration file.
func LoadConfig(path string) (Config, error) {
	return config.LoadFromFile(path)
}

// Run executes a full preprocessing run: input CSV to good/bad outputs.
// CSV destinations are the default; setting Config.SQLitePath routes both
// streams into one SQLite database instead.
func Run(cfg Config, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	p, err := pipeline.New(cfg, logger)
	if err != nil {
		return err
	}
	cfg = cfg.WithDefaults()

	source, err := pio.NewCSVSource(cfg.InputPath, cfg.ChunkSize, memory.NewGoAllocator())
	if err != nil {
		return err
	}
	defer source.Close()

	var good, bad pio.RowSink
	if cfg.SQLitePath != "" {
		good, bad, err = pio.NewSQLitePair(cfg.SQLitePath)
		if err != nil {
			return err
		}
	} else {
		good, err = pio.NewCSVSink(cfg.GoodOutput, logger)
		if err != nil {
			return err
		}
		bad, err = pio.NewCSVSink(cfg.BadOutput, logger)
		if err != nil {
			_ = good.Close()
			return err
		}
	}
	defer bad.Close()
	defer good.Close()

	return p.Run(source, good, bad)
}
