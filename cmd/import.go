package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"keepsake/internal"
)

var (
	moveFlag            bool
	dryRunFlag          bool
	nonInteractiveFlag  bool
	noCollectFlag       bool
	folderPatternFlag   string
	filenamePatternFlag string
	locationFlag        string
	skipLocationFlag    bool
	allowDuplicatesFlag bool
	reportDirFlag       string
	noReportFlag        bool
	imagesOnlyFlag      bool
	videosOnlyFlag      bool
	noRecursiveFlag     bool
	verboseFlag         bool
)

var importCmd = &cobra.Command{
	Use:   "import [source] [destination]",
	Short: "Import and organize photos and videos",
	Long: `Import media files from a source directory (or a single file) into a
date-organized destination library.

Pattern variables:
  {year}             - 4-digit year (2025)
  {month}            - Month number (1-12)
  {month:02d}        - Zero-padded month (01-12)
  {month_name}       - Full month name (January)
  {month_name_short} - Short month name (Jan)
  {day}              - Day of month (1-31)
  {hour}, {min}, {sec} - Time components
  {original_name}    - Original filename without extension
  {ext}              - File extension (lowercase)`,
	Example: `  # Preview an import without touching anything
  keepsake import ~/Downloads/camera ~/Pictures/library --dry-run

  # Move files and stamp a location for the whole batch
  keepsake import /sdcard/DCIM ~/Pictures/library --move --location "46.07,11.12"

  # Custom layout
  keepsake import src dest --folder-pattern "{year}/{month:02d}-{month_name}"`,
	Args: cobra.ExactArgs(2),
	RunE: runImport,
}

// applyImportFlags overlays command line flags onto the loaded configuration.
// Flags left at their defaults keep whatever the config file provided.
func applyImportFlags(cfg *internal.Config) {
	cfg.MoveFiles = moveFlag
	cfg.DryRun = dryRunFlag
	cfg.NonInteractive = nonInteractiveFlag
	if noCollectFlag {
		cfg.CollectSkipped = false
	}
	if folderPatternFlag != "" {
		cfg.FolderPattern = folderPatternFlag
	}
	if filenamePatternFlag != "" {
		cfg.FilenamePattern = filenamePatternFlag
	}
	if locationFlag != "" {
		cfg.DefaultLocation = locationFlag
	}
	if skipLocationFlag {
		cfg.SkipLocation = true
	}
	if allowDuplicatesFlag {
		cfg.SkipDuplicates = false
	}
	cfg.ImagesOnly = imagesOnlyFlag
	cfg.VideosOnly = videosOnlyFlag
	if noRecursiveFlag {
		cfg.Recursive = false
	}
	if verboseFlag {
		cfg.Verbose = true
	}
	if noReportFlag {
		cfg.SaveReport = false
	}
	if reportDirFlag != "" {
		cfg.ReportDir = reportDirFlag
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := internal.LoadConfig()
	if err != nil {
		return err
	}

	cfg.Source = args[0]
	cfg.Destination = args[1]
	applyImportFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}

	// The run log directory is created first so the logger can tee into it.
	var session *internal.RunLog
	logPath := ""
	if cfg.SaveReport && !cfg.DryRun {
		session, err = internal.NewRunLog(cfg.EffectiveReportDir())
		if err != nil {
			return fmt.Errorf("could not create report directory: %w", err)
		}
		defer session.Close()
		logPath = session.LogPath()
	}

	logger, err := internal.NewLogger(cfg.Verbose, logPath)
	if err != nil {
		return err
	}
	defer logger.Sync()

	codec, err := internal.NewExifTool(logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "❌ exiftool is not installed or not available in PATH.")
		fmt.Fprintln(os.Stderr, "Keepsake requires exiftool to read and write metadata. Install it:")
		fmt.Fprintln(os.Stderr, "  - Ubuntu/Debian: sudo apt-get install libimage-exiftool-perl")
		fmt.Fprintln(os.Stderr, "  - macOS: brew install exiftool")
		fmt.Fprintln(os.Stderr, "  - Or visit https://exiftool.org/ for instructions.")
		return err
	}
	defer codec.Close()

	files, err := internal.ScanSource(cfg.Source, cfg)
	if err != nil {
		return err
	}

	fmt.Printf("Found %d media files\n", len(files))
	if len(files) == 0 {
		fmt.Println("No files to process.")
		return nil
	}
	if cfg.DryRun {
		fmt.Println("Dry run mode: no files will be modified")
	}

	var prompter internal.Prompter = internal.NopPrompter{}
	if cfg.Interactive() {
		prompter = internal.NewTerminalPrompter()
	}

	org := internal.NewOrganizer(cfg, codec, prompter, logger, Version)
	if session != nil {
		org.AttachSession(session)
	}

	if count, err := org.BuildRegistry(); err != nil {
		logger.Warn("destination scan was incomplete: " + err.Error())
	} else if count > 0 {
		fmt.Printf("🔍 Recognized %d previously imported files\n", count)
	}

	results, stats := org.Run(files)

	if session != nil {
		report := internal.NewRunReport(session.ID, cfg)
		report.Finish(results, stats)
		if err := report.SaveAll(session.Dir); err != nil {
			logger.Warn("could not save reports: " + err.Error())
		} else {
			fmt.Printf("\n📄 Reports saved to %s\n", session.Dir)
		}
	}

	if stats.Errors > 0 {
		return fmt.Errorf("import finished with %d errors", stats.Errors)
	}
	return nil
}

func init() {
	importCmd.Flags().BoolVar(&moveFlag, "move", false, "Move files instead of copying")
	importCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Preview changes without modifying files")
	importCmd.Flags().BoolVar(&nonInteractiveFlag, "non-interactive", false, "Skip user prompts for missing data")
	importCmd.Flags().BoolVar(&noCollectFlag, "no-collect-skipped", false, "Do not collect unprocessable files into the skipped folder")
	importCmd.Flags().StringVar(&folderPatternFlag, "folder-pattern", "", "Folder structure pattern")
	importCmd.Flags().StringVar(&filenamePatternFlag, "filename-pattern", "", "Filename pattern")
	importCmd.Flags().StringVar(&locationFlag, "location", "", "GPS coordinates for all files, as \"lat,lon\"")
	importCmd.Flags().BoolVar(&skipLocationFlag, "skip-location", false, "Skip prompting for missing GPS coordinates")
	importCmd.Flags().BoolVar(&allowDuplicatesFlag, "allow-duplicates", false, "Process files even if they are duplicates")
	importCmd.Flags().StringVar(&reportDirFlag, "report-dir", "", "Directory for saving reports (default: destination/reports)")
	importCmd.Flags().BoolVar(&noReportFlag, "no-report", false, "Do not generate reports")
	importCmd.Flags().BoolVar(&imagesOnlyFlag, "images-only", false, "Process only image files")
	importCmd.Flags().BoolVar(&videosOnlyFlag, "videos-only", false, "Process only video files")
	importCmd.Flags().BoolVar(&noRecursiveFlag, "no-recursive", false, "Do not scan subdirectories")
	importCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(importCmd)
}
