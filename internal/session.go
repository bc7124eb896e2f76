package internal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RunLog captures one import run on disk: a JSONL manifest of everything
// that happened, plus a browse folder of hardlinks to the files this run
// imported, so a batch can be reviewed without digging through the dated
// tree. It lives under reports/<run-id>/ next to the generated reports and
// the run.log file.
type RunLog struct {
	ID           string
	Dir          string
	ManifestPath string

	manifest  *os.File
	browseDir string
	usedNames map[string]int
}

// ManifestEvent is one line in the run manifest.
type ManifestEvent struct {
	Time        string `json:"time"`
	Event       string `json:"event"`
	RunID       string `json:"run_id,omitempty"`
	Mode        string `json:"mode,omitempty"`
	Source      string `json:"source,omitempty"`
	Destination string `json:"destination,omitempty"`
	Outcome     string `json:"outcome,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Error       string `json:"error,omitempty"`
	Category    string `json:"category,omitempty"`
	Suggestion  string `json:"suggestion,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
	TotalFiles  int    `json:"total_files,omitempty"`
	Imported    int    `json:"imported,omitempty"`
	Skipped     int    `json:"skipped,omitempty"`
	Errors      int    `json:"errors,omitempty"`
}

// NewRunLog allocates a run ID and creates the run directory with the
// manifest open for appending. The timestamp prefix keeps directories
// sorted; the uuid suffix keeps two runs in the same second apart.
func NewRunLog(reportDir string) (*RunLog, error) {
	id := time.Now().Format("2006-01-02-150405") + "-" + uuid.NewString()[:8]
	dir := filepath.Join(reportDir, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	manifestPath := filepath.Join(dir, "manifest.jsonl")
	f, err := os.OpenFile(manifestPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create manifest: %w", err)
	}

	return &RunLog{
		ID:           id,
		Dir:          dir,
		ManifestPath: manifestPath,
		manifest:     f,
		browseDir:    filepath.Join(dir, "browse"),
		usedNames:    make(map[string]int),
	}, nil
}

// LogPath is where the zap file core writes for this run.
func (r *RunLog) LogPath() string {
	return filepath.Join(r.Dir, "run.log")
}

func (r *RunLog) LogRunStart(cfg *Config, totalFiles int) error {
	mode := "copy"
	if cfg.MoveFiles {
		mode = "move"
	}
	return r.writeEvent(ManifestEvent{
		Event:       "run_start",
		RunID:       r.ID,
		Mode:        mode,
		Source:      cfg.Source,
		Destination: cfg.Destination,
		TotalFiles:  totalFiles,
	})
}

// LogResult writes the manifest line for one processed file. Imported
// files also get a browse hardlink.
func (r *RunLog) LogResult(res Result) error {
	ev := ManifestEvent{
		Source:      res.Source,
		Destination: res.Destination,
		Outcome:     string(res.Outcome),
		Fingerprint: res.Fingerprint,
	}
	switch res.Outcome {
	case OutcomeImported:
		ev.Event = "imported"
		r.linkForBrowsing(res.Destination)
	case OutcomeError:
		ev.Event = "error"
		if res.Err != nil {
			ev.Error = res.Err.Error()
			ev.Category = string(res.Err.Category)
			ev.Suggestion = res.Err.Suggestion
		}
	default:
		ev.Event = "skipped"
		ev.Reason = res.Reason
	}
	return r.writeEvent(ev)
}

func (r *RunLog) LogRunEnd(stats Stats) error {
	return r.writeEvent(ManifestEvent{
		Event:      "run_end",
		RunID:      r.ID,
		TotalFiles: stats.Total,
		Imported:   stats.Imported,
		Skipped:    stats.SkippedDuplicate + stats.SkippedNoDateTime + stats.SkippedNoLocation,
		Errors:     stats.Errors,
	})
}

func (r *RunLog) Close() error {
	return r.manifest.Close()
}

func (r *RunLog) writeEvent(ev ManifestEvent) error {
	ev.Time = time.Now().Format(time.RFC3339)
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := r.manifest.Write(append(data, '\n')); err != nil {
		return err
	}
	return r.manifest.Sync()
}

// linkForBrowsing hardlinks an imported file into browse/. Repeated names
// get _2, _3 counters. Links are best-effort: a destination on another
// filesystem cannot be hardlinked and is copied instead, and a failure
// never affects the import itself.
func (r *RunLog) linkForBrowsing(dest string) {
	if dest == "" {
		return
	}
	if err := os.MkdirAll(r.browseDir, 0755); err != nil {
		return
	}

	name := filepath.Base(dest)
	link := filepath.Join(r.browseDir, name)
	if count, seen := r.usedNames[name]; seen {
		ext := filepath.Ext(name)
		base := strings.TrimSuffix(name, ext)
		r.usedNames[name] = count + 1
		link = filepath.Join(r.browseDir, fmt.Sprintf("%s_%d%s", base, count+1, ext))
	} else {
		r.usedNames[name] = 1
	}

	if err := os.Link(dest, link); err != nil {
		copyFileAtomic(dest, link)
	}
}
