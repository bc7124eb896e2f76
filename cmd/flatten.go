package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"keepsake/internal"
)

var (
	flattenMoveFlag    bool
	flattenDryRunFlag  bool
	flattenVerboseFlag bool
)

var flattenCmd = &cobra.Command{
	Use:   "flatten [source] [destination]",
	Short: "Flatten skipped folders into a single directory",
	Long: `Collapse a directory tree (typically destination/skipped/) into one flat
directory. Relative paths become filenames with path separators replaced
by underscores; conflicting names get numbered suffixes.`,
	Example: `  keepsake flatten ~/Pictures/library/skipped ~/Pictures/review
  keepsake flatten ~/Pictures/library/skipped ~/Pictures/review --move --dry-run`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, dest := args[0], args[1]

		info, err := os.Stat(source)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("folder does not exist or is not a directory: %s", source)
		}

		logger, err := internal.NewLogger(flattenVerboseFlag, "")
		if err != nil {
			return err
		}
		defer logger.Sync()

		_, err = internal.Flatten(source, dest, flattenMoveFlag, flattenDryRunFlag, logger)
		return err
	},
}

func init() {
	flattenCmd.Flags().BoolVar(&flattenMoveFlag, "move", false, "Move files instead of copying")
	flattenCmd.Flags().BoolVar(&flattenDryRunFlag, "dry-run", false, "Preview changes without modifying files")
	flattenCmd.Flags().BoolVarP(&flattenVerboseFlag, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(flattenCmd)
}
