package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/moviedex/preproc"
)

var (
	runConfig    *string
	runInput     *string
	runGood      *string
	runBad       *string
	runChunkSize *int
	runEncode    *bool
	runSQLite    *string
)

func init() {
	runConfig = runCmd.Flags().String("config", "", "Path to a YAML or JSON config file.")
	runInput = runCmd.Flags().String("input", "", "CSV file of crawled rows to process.")
	runGood = runCmd.Flags().String("good", "", "Destination for fully processed rows.")
	runBad = runCmd.Flags().String("bad", "", "Destination for imputed and outlier rows.")
	runChunkSize = runCmd.Flags().Int("chunk-size", 0, "Rows per chunk.")
	runEncode = runCmd.Flags().Bool("encode", false, "One-hot encode categorical columns.")
	runSQLite = runCmd.Flags().String("sqlite", "", "Write outputs to this SQLite database instead of CSV files.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run --input <crawled.csv> [--good <out.csv>] [--bad <out.csv>]",
	Short: "Runs the chunked preprocessing pipeline over a crawled dataset.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := preproc.DefaultConfig()
		if *runConfig != "" {
			loaded, err := preproc.LoadConfig(*runConfig)
			if err != nil {
				return err
			}
			cfg = loaded
		}
		if *runInput != "" {
			cfg.InputPath = *runInput
		}
		if *runGood != "" {
			cfg.GoodOutput = *runGood
		}
		if *runBad != "" {
			cfg.BadOutput = *runBad
		}
		if *runChunkSize > 0 {
			cfg.ChunkSize = *runChunkSize
		}
		if *runEncode {
			cfg.EncodeCategoricals = true
		}
		if *runSQLite != "" {
			cfg.SQLitePath = *runSQLite
		}

		slog.Info("starting preprocessing",
			"input", cfg.InputPath, "chunk_size", cfg.ChunkSize,
			"good", cfg.GoodOutput, "bad", cfg.BadOutput)
		return preproc.Run(cfg, slog.Default())
	},
}
