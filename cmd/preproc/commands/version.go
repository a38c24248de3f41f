package commands

import (
	"github.com/spf13/cobra"

	"github.com/moviedex/preproc/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Println(version.Get().String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
