package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"keepsake/internal"
)

var (
	watchMoveFlag         bool
	watchLocationFlag     string
	watchSkipLocationFlag bool
	watchVerboseFlag      bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [source] [destination]",
	Short: "Watch a folder and import new media files as they arrive",
	Long: `Keep a source directory under observation and run every new media file
through the import pipeline once it has finished being written.

Watching is always non-interactive: files missing a datetime or a GPS
position are skipped (or collected) instead of prompting. Use --location
to stamp a position on everything that lacks one.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := internal.LoadConfig()
		if err != nil {
			return err
		}

		cfg.Source = args[0]
		cfg.Destination = args[1]
		cfg.MoveFiles = watchMoveFlag
		cfg.NonInteractive = true
		if watchLocationFlag != "" {
			cfg.DefaultLocation = watchLocationFlag
		}
		if watchSkipLocationFlag {
			cfg.SkipLocation = true
		}
		if watchVerboseFlag {
			cfg.Verbose = true
		}

		if err := cfg.Validate(); err != nil {
			return err
		}

		logger, err := internal.NewLogger(cfg.Verbose, "")
		if err != nil {
			return err
		}
		defer logger.Sync()

		codec, err := internal.NewExifTool(logger)
		if err != nil {
			fmt.Fprintln(os.Stderr, "❌ exiftool is not installed or not available in PATH.")
			fmt.Fprintln(os.Stderr, "Keepsake requires exiftool to read and write metadata.")
			return err
		}
		defer codec.Close()

		org := internal.NewOrganizer(cfg, codec, internal.NopPrompter{}, logger, Version)
		if count, err := org.BuildRegistry(); err != nil {
			logger.Warn("destination scan was incomplete: " + err.Error())
		} else if count > 0 {
			fmt.Printf("🔍 Recognized %d previously imported files\n", count)
		}

		watcher, err := internal.NewWatcher(cfg, org, logger)
		if err != nil {
			return err
		}
		defer watcher.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		err = watcher.Run(ctx)
		if errors.Is(err, context.Canceled) {
			// A signal is the normal way to stop watching; the summary
			// is already printed, so skip cobra's error line.
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true
		}
		return err
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchMoveFlag, "move", false, "Move files instead of copying")
	watchCmd.Flags().StringVar(&watchLocationFlag, "location", "", "GPS coordinates for all files, as \"lat,lon\"")
	watchCmd.Flags().BoolVar(&watchSkipLocationFlag, "skip-location", false, "Do not require GPS coordinates")
	watchCmd.Flags().BoolVarP(&watchVerboseFlag, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(watchCmd)
}
