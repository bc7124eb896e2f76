package internal

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func readManifest(t *testing.T, path string) []ManifestEvent {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var events []ManifestEvent
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev ManifestEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("bad manifest line %q: %v", scanner.Text(), err)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		t.Fatal(err)
	}
	return events
}

func TestRunLog_ManifestSequence(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "keepsake_test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tempDir)

	run, err := NewRunLog(filepath.Join(tempDir, "reports"))
	if err != nil {
		t.Fatal(err)
	}
	defer run.Close()

	if run.ID == "" {
		t.Error("Expected a run ID")
	}
	if !pathExists(run.Dir) {
		t.Error("Expected the run directory created")
	}

	cfg := testConfig("/phone", "/photos")
	cfg.MoveFiles = true
	if err := run.LogRunStart(cfg, 3); err != nil {
		t.Fatal(err)
	}

	imported := filepath.Join(tempDir, "imported.jpg")
	writeTestFile(t, imported, "pixels")
	run.LogResult(Result{
		Source:      "/phone/IMG_1.jpg",
		Destination: imported,
		Outcome:     OutcomeImported,
		Fingerprint: "abc123",
	})
	run.LogResult(Result{
		Source:  "/phone/IMG_2.jpg",
		Outcome: OutcomeSkippedNoDateTime,
		Reason:  "No datetime found in metadata or filename",
	})
	run.LogResult(Result{
		Source:  "/phone/IMG_3.jpg",
		Outcome: OutcomeError,
		Err:     CategorizeError("/phone/IMG_3.jpg", errors.New("no space left on device")),
	})

	if err := run.LogRunEnd(Stats{Total: 3, Imported: 1, SkippedNoDateTime: 1, Errors: 1}); err != nil {
		t.Fatal(err)
	}

	events := readManifest(t, run.ManifestPath)
	if len(events) != 5 {
		t.Fatalf("Expected 5 manifest events, got %d", len(events))
	}

	if events[0].Event != "run_start" {
		t.Errorf("Expected run_start first, got %s", events[0].Event)
	}
	if events[0].Mode != "move" {
		t.Errorf("Expected move mode recorded, got %s", events[0].Mode)
	}
	if events[0].TotalFiles != 3 {
		t.Errorf("Expected 3 total files, got %d", events[0].TotalFiles)
	}

	if events[1].Event != "imported" || events[1].Fingerprint != "abc123" {
		t.Errorf("Unexpected imported event: %+v", events[1])
	}
	if events[2].Event != "skipped" || events[2].Reason == "" {
		t.Errorf("Unexpected skipped event: %+v", events[2])
	}
	if events[3].Event != "error" {
		t.Errorf("Expected error event, got %s", events[3].Event)
	}
	if events[3].Category != string(ErrorCategoryIO) {
		t.Errorf("Expected io category recorded, got %s", events[3].Category)
	}
	if events[3].Suggestion == "" {
		t.Error("Expected the suggestion carried into the manifest")
	}

	last := events[4]
	if last.Event != "run_end" {
		t.Errorf("Expected run_end last, got %s", last.Event)
	}
	if last.Imported != 1 || last.Skipped != 1 || last.Errors != 1 {
		t.Errorf("Unexpected run_end counts: %+v", last)
	}

	for _, ev := range events {
		if ev.Time == "" {
			t.Error("Expected every event to carry a timestamp")
		}
	}
}

func TestRunLog_BrowseLinks(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "keepsake_test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tempDir)

	run, err := NewRunLog(filepath.Join(tempDir, "reports"))
	if err != nil {
		t.Fatal(err)
	}
	defer run.Close()

	a := filepath.Join(tempDir, "lib", "trip", "IMG_1.jpg")
	b := filepath.Join(tempDir, "lib", "phone", "IMG_1.jpg")
	writeTestFile(t, a, "first")
	writeTestFile(t, b, "second")

	run.LogResult(Result{Source: "/x/IMG_1.jpg", Destination: a, Outcome: OutcomeImported})
	run.LogResult(Result{Source: "/y/IMG_1.jpg", Destination: b, Outcome: OutcomeImported})

	browse := filepath.Join(run.Dir, "browse")
	if !pathExists(filepath.Join(browse, "IMG_1.jpg")) {
		t.Error("Expected the first browse link")
	}
	if !pathExists(filepath.Join(browse, "IMG_1_2.jpg")) {
		t.Error("Expected the repeated name to get a counter")
	}

	// Skips never land in browse
	run.LogResult(Result{Source: "/z/skip.jpg", Outcome: OutcomeSkippedNoDateTime, Reason: "x"})
	if pathExists(filepath.Join(browse, "skip.jpg")) {
		t.Error("Expected skipped files out of the browse folder")
	}
}

func TestRunLog_LogPath(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "keepsake_test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tempDir)

	run, err := NewRunLog(filepath.Join(tempDir, "reports"))
	if err != nil {
		t.Fatal(err)
	}
	defer run.Close()

	if run.LogPath() != filepath.Join(run.Dir, "run.log") {
		t.Errorf("Expected run.log inside the run directory, got %s", run.LogPath())
	}
}
