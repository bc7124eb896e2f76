package internal

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// RunReport renders one finished run as report.txt, report.json and
// report.csv inside the run directory. The text report is for people, the
// JSON one for scripts, the CSV one for spreadsheets.
type RunReport struct {
	RunID       string
	Source      string
	Destination string
	Mode        string
	DryRun      bool
	Started     time.Time
	Finished    time.Time
	Stats       Stats
	Results     []Result
}

func NewRunReport(runID string, cfg *Config) *RunReport {
	mode := "copy"
	if cfg.MoveFiles {
		mode = "move"
	}
	return &RunReport{
		RunID:       runID,
		Source:      cfg.Source,
		Destination: cfg.Destination,
		Mode:        mode,
		DryRun:      cfg.DryRun,
		Started:     time.Now(),
	}
}

// Finish records the outcome of the run.
func (r *RunReport) Finish(results []Result, stats Stats) {
	r.Finished = time.Now()
	r.Results = results
	r.Stats = stats
}

// SaveAll writes the three report files into dir.
func (r *RunReport) SaveAll(dir string) error {
	if err := r.writeText(filepath.Join(dir, "report.txt")); err != nil {
		return err
	}
	if err := r.writeJSON(filepath.Join(dir, "report.json")); err != nil {
		return err
	}
	return r.writeCSV(filepath.Join(dir, "report.csv"))
}

const reportBanner = "======================================================================"

func (r *RunReport) writeText(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var b strings.Builder
	b.WriteString(reportBanner + "\n")
	b.WriteString("KEEPSAKE IMPORT REPORT\n")
	b.WriteString(reportBanner + "\n")
	fmt.Fprintf(&b, "Run:         %s\n", r.RunID)
	fmt.Fprintf(&b, "Started:     %s\n", r.Started.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Finished:    %s\n", r.Finished.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Source:      %s\n", r.Source)
	fmt.Fprintf(&b, "Destination: %s\n", r.Destination)
	mode := r.Mode
	if r.DryRun {
		mode += " (dry run)"
	}
	fmt.Fprintf(&b, "Mode:        %s\n", mode)

	b.WriteString("\nSTATISTICS\n")
	b.WriteString(strings.Repeat("-", 70) + "\n")
	fmt.Fprintf(&b, "Total files:           %d\n", r.Stats.Total)
	fmt.Fprintf(&b, "Imported:              %d\n", r.Stats.Imported)
	fmt.Fprintf(&b, "Skipped (duplicate):   %d\n", r.Stats.SkippedDuplicate)
	fmt.Fprintf(&b, "Skipped (no datetime): %d\n", r.Stats.SkippedNoDateTime)
	fmt.Fprintf(&b, "Skipped (no location): %d\n", r.Stats.SkippedNoLocation)
	fmt.Fprintf(&b, "Errors:                %d\n", r.Stats.Errors)

	writeSection := func(title string, match func(Result) bool, line func(Result) string) {
		var lines []string
		for _, res := range r.Results {
			if match(res) {
				lines = append(lines, line(res))
			}
		}
		if len(lines) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n%s (%d)\n", title, len(lines))
		b.WriteString(strings.Repeat("-", 70) + "\n")
		for _, l := range lines {
			b.WriteString(l + "\n")
		}
	}

	writeSection("IMPORTED FILES",
		func(res Result) bool { return res.Outcome == OutcomeImported },
		func(res Result) string {
			l := fmt.Sprintf("✓ %s → %s", res.Source, res.Destination)
			if !res.DateTime.IsZero() {
				l += fmt.Sprintf("\n    datetime %s (%s)",
					res.DateTime.Format("2006-01-02 15:04:05"), res.DateTimeSource)
			}
			return l
		})
	writeSection("SKIPPED FILES",
		func(res Result) bool {
			return res.Outcome == OutcomeSkippedDuplicate ||
				res.Outcome == OutcomeSkippedNoDateTime ||
				res.Outcome == OutcomeSkippedNoLocation
		},
		func(res Result) string {
			l := fmt.Sprintf("⊘ %s: %s", res.Source, res.Reason)
			if res.CollectedTo != "" {
				l += fmt.Sprintf("\n    collected to %s", res.CollectedTo)
			}
			return l
		})
	writeSection("ERRORS",
		func(res Result) bool { return res.Outcome == OutcomeError },
		func(res Result) string {
			l := fmt.Sprintf("✗ %s: %v", res.Source, res.Err)
			if res.Err != nil && res.Err.Suggestion != "" {
				l += fmt.Sprintf("\n    suggestion: %s", res.Err.Suggestion)
			}
			return l
		})

	_, err = f.WriteString(b.String())
	return err
}

type jsonReportRecord struct {
	Source         string `json:"source"`
	Destination    string `json:"destination,omitempty"`
	Outcome        string `json:"outcome"`
	Reason         string `json:"reason,omitempty"`
	Error          string `json:"error,omitempty"`
	OriginalName   string `json:"original_name,omitempty"`
	DateTime       string `json:"datetime,omitempty"`
	DateTimeSource string `json:"datetime_source,omitempty"`
	LocationSet    bool   `json:"location_set"`
	VersionSet     bool   `json:"version_set"`
}

type jsonReport struct {
	RunID       string `json:"run_id"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Mode        string `json:"mode"`
	DryRun      bool   `json:"dry_run"`
	Started     string `json:"started"`
	Finished    string `json:"finished"`
	Statistics  struct {
		Total             int `json:"total_files"`
		Imported          int `json:"imported"`
		SkippedDuplicate  int `json:"skipped_duplicate"`
		SkippedNoDateTime int `json:"skipped_no_datetime"`
		SkippedNoLocation int `json:"skipped_no_location"`
		Errors            int `json:"errors"`
	} `json:"statistics"`
	Files []jsonReportRecord `json:"files"`
}

func (r *RunReport) writeJSON(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	out := jsonReport{
		RunID:       r.RunID,
		Source:      r.Source,
		Destination: r.Destination,
		Mode:        r.Mode,
		DryRun:      r.DryRun,
		Started:     r.Started.Format(time.RFC3339),
		Finished:    r.Finished.Format(time.RFC3339),
	}
	out.Statistics.Total = r.Stats.Total
	out.Statistics.Imported = r.Stats.Imported
	out.Statistics.SkippedDuplicate = r.Stats.SkippedDuplicate
	out.Statistics.SkippedNoDateTime = r.Stats.SkippedNoDateTime
	out.Statistics.SkippedNoLocation = r.Stats.SkippedNoLocation
	out.Statistics.Errors = r.Stats.Errors

	for _, res := range r.Results {
		rec := jsonReportRecord{
			Source:         res.Source,
			Destination:    res.Destination,
			Outcome:        string(res.Outcome),
			Reason:         res.Reason,
			OriginalName:   res.OriginalName,
			DateTimeSource: res.DateTimeSource,
			LocationSet:    res.LocationSet,
			VersionSet:     res.VersionSet,
		}
		if res.Err != nil {
			rec.Error = res.Err.Error()
		}
		if !res.DateTime.IsZero() {
			rec.DateTime = res.DateTime.Format("2006-01-02 15:04:05")
		}
		out.Files = append(out.Files, rec)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

var csvHeader = []string{
	"source", "destination", "outcome", "reason", "error",
	"original_name", "datetime", "datetime_source", "location_set", "version_set",
}

func (r *RunReport) writeCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, res := range r.Results {
		errMsg := ""
		if res.Err != nil {
			errMsg = res.Err.Error()
		}
		dt := ""
		if !res.DateTime.IsZero() {
			dt = res.DateTime.Format("2006-01-02 15:04:05")
		}
		record := []string{
			res.Source,
			res.Destination,
			string(res.Outcome),
			res.Reason,
			errMsg,
			res.OriginalName,
			dt,
			res.DateTimeSource,
			strconv.FormatBool(res.LocationSet),
			strconv.FormatBool(res.VersionSet),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
