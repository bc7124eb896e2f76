package cmd

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"
)

// Version is replaced at startup with the embedded VERSION file.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "keepsake",
	Short: "Keepsake photo and video importer",
	Long: `Keepsake organizes photos and videos into a date-based library.

Capture time and GPS position are read from embedded metadata, recovered
from messaging-app filenames when metadata is missing, and written back
into the imported copies together with provenance tags that make every
import idempotent.`,
}

// ApplyVersion pushes the current Version into the root command.
func ApplyVersion() {
	rootCmd.Version = Version
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Interrupted watch runs shut down cleanly and carry the
		// conventional interrupt exit status.
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		os.Exit(1)
	}
}

func init() {
	ApplyVersion()
}
