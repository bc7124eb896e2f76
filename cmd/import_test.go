package cmd

import (
	"testing"

	"keepsake/internal"
)

// resetImportFlags returns every import flag variable to its default so
// tests do not leak state into each other.
func resetImportFlags() {
	moveFlag = false
	dryRunFlag = false
	nonInteractiveFlag = false
	noCollectFlag = false
	folderPatternFlag = ""
	filenamePatternFlag = ""
	locationFlag = ""
	skipLocationFlag = false
	allowDuplicatesFlag = false
	reportDirFlag = ""
	noReportFlag = false
	imagesOnlyFlag = false
	videosOnlyFlag = false
	noRecursiveFlag = false
	verboseFlag = false
}

// baseConfig mirrors the state LoadConfig hands to runImport before any
// flag is applied.
func baseConfig() *internal.Config {
	return &internal.Config{
		FolderPattern:   "{year}",
		FilenamePattern: "{original_name}",
		CollectSkipped:  true,
		SkipDuplicates:  true,
		Recursive:       true,
		SaveReport:      true,
	}
}

func TestSubcommandsRegistered(t *testing.T) {
	expected := []string{"import", "analytics", "flatten", "watch"}
	for _, name := range expected {
		found := false
		for _, c := range rootCmd.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected subcommand %q to be registered", name)
		}
	}
}

func TestImportArgsValidation(t *testing.T) {
	testCases := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{"no args", []string{}, true},
		{"source only", []string{"src"}, true},
		{"source and destination", []string{"src", "dest"}, false},
		{"too many args", []string{"src", "dest", "extra"}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := importCmd.Args(importCmd, tc.args)
			if tc.wantErr && err == nil {
				t.Error("Expected an argument error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("Expected args to validate, got %v", err)
			}
		})
	}
}

func TestImportFlagDefaults(t *testing.T) {
	testCases := []struct {
		flag     string
		defValue string
	}{
		{"move", "false"},
		{"dry-run", "false"},
		{"non-interactive", "false"},
		{"no-collect-skipped", "false"},
		{"folder-pattern", ""},
		{"filename-pattern", ""},
		{"location", ""},
		{"skip-location", "false"},
		{"allow-duplicates", "false"},
		{"report-dir", ""},
		{"no-report", "false"},
		{"images-only", "false"},
		{"videos-only", "false"},
		{"no-recursive", "false"},
		{"verbose", "false"},
	}

	for _, tc := range testCases {
		t.Run(tc.flag, func(t *testing.T) {
			f := importCmd.Flags().Lookup(tc.flag)
			if f == nil {
				t.Fatalf("Expected flag --%s to exist", tc.flag)
			}
			if f.DefValue != tc.defValue {
				t.Errorf("Expected default %q, got %q", tc.defValue, f.DefValue)
			}
		})
	}
}

func TestVerboseShorthand(t *testing.T) {
	f := importCmd.Flags().ShorthandLookup("v")
	if f == nil {
		t.Fatal("Expected -v shorthand to exist")
	}
	if f.Name != "verbose" {
		t.Errorf("Expected -v to map to verbose, got %s", f.Name)
	}
}

func TestApplyImportFlags_Defaults(t *testing.T) {
	resetImportFlags()
	defer resetImportFlags()

	cfg := baseConfig()
	applyImportFlags(cfg)

	if !cfg.CollectSkipped {
		t.Error("Expected CollectSkipped to stay enabled")
	}
	if !cfg.SkipDuplicates {
		t.Error("Expected SkipDuplicates to stay enabled")
	}
	if !cfg.Recursive {
		t.Error("Expected Recursive to stay enabled")
	}
	if !cfg.SaveReport {
		t.Error("Expected SaveReport to stay enabled")
	}
	if cfg.FolderPattern != "{year}" {
		t.Errorf("Expected folder pattern to be untouched, got %q", cfg.FolderPattern)
	}
}

func TestApplyImportFlags_Inversions(t *testing.T) {
	resetImportFlags()
	defer resetImportFlags()

	noCollectFlag = true
	allowDuplicatesFlag = true
	noRecursiveFlag = true
	noReportFlag = true

	cfg := baseConfig()
	applyImportFlags(cfg)

	if cfg.CollectSkipped {
		t.Error("Expected --no-collect-skipped to disable CollectSkipped")
	}
	if cfg.SkipDuplicates {
		t.Error("Expected --allow-duplicates to disable SkipDuplicates")
	}
	if cfg.Recursive {
		t.Error("Expected --no-recursive to disable Recursive")
	}
	if cfg.SaveReport {
		t.Error("Expected --no-report to disable SaveReport")
	}
}

func TestApplyImportFlags_Overrides(t *testing.T) {
	resetImportFlags()
	defer resetImportFlags()

	moveFlag = true
	dryRunFlag = true
	folderPatternFlag = "{year}/{month:02d}"
	locationFlag = "46.05,14.51"
	reportDirFlag = "/tmp/reports"

	cfg := baseConfig()
	applyImportFlags(cfg)

	if !cfg.MoveFiles {
		t.Error("Expected MoveFiles to be set")
	}
	if !cfg.DryRun {
		t.Error("Expected DryRun to be set")
	}
	if cfg.FolderPattern != "{year}/{month:02d}" {
		t.Errorf("Expected folder pattern override, got %q", cfg.FolderPattern)
	}
	if cfg.DefaultLocation != "46.05,14.51" {
		t.Errorf("Expected default location override, got %q", cfg.DefaultLocation)
	}
	if cfg.ReportDir != "/tmp/reports" {
		t.Errorf("Expected report dir override, got %q", cfg.ReportDir)
	}
}

func TestRootVersion(t *testing.T) {
	old := Version
	defer func() {
		Version = old
		ApplyVersion()
	}()

	Version = "9.9.9"
	ApplyVersion()
	if rootCmd.Version != "9.9.9" {
		t.Errorf("Expected root version 9.9.9, got %s", rootCmd.Version)
	}
}

func TestOtherCommandArgCounts(t *testing.T) {
	if err := analyticsCmd.Args(analyticsCmd, []string{"folder"}); err != nil {
		t.Errorf("Expected analytics to accept one arg, got %v", err)
	}
	if err := analyticsCmd.Args(analyticsCmd, []string{"a", "b"}); err == nil {
		t.Error("Expected analytics to reject two args")
	}
	if err := flattenCmd.Args(flattenCmd, []string{"src", "dest"}); err != nil {
		t.Errorf("Expected flatten to accept two args, got %v", err)
	}
	if err := watchCmd.Args(watchCmd, []string{"src", "dest"}); err != nil {
		t.Errorf("Expected watch to accept two args, got %v", err)
	}
}
