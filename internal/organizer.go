package internal

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Outcome classifies what happened to one source file.
type Outcome string

const (
	OutcomeImported          Outcome = "imported"
	OutcomeSkippedDuplicate  Outcome = "skipped_duplicate"
	OutcomeSkippedNoDateTime Outcome = "skipped_no_datetime"
	OutcomeSkippedNoLocation Outcome = "skipped_no_location"
	OutcomeError             Outcome = "error"
)

// Result records how one file went through the pipeline.
type Result struct {
	Source         string
	Destination    string
	Outcome        Outcome
	Reason         string
	Err            *ProcessError
	OriginalName   string
	DateTime       time.Time
	DateTimeSource string
	Inferred       bool
	LocationSet    bool
	NameTagSet     bool
	VersionSet     bool
	Fingerprint    string
	CollectedTo    string
}

// Stats aggregates the outcomes of one run.
type Stats struct {
	Total             int
	Imported          int
	SkippedDuplicate  int
	SkippedNoDateTime int
	SkippedNoLocation int
	Errors            int
}

func (s *Stats) count(outcome Outcome) {
	switch outcome {
	case OutcomeImported:
		s.Imported++
	case OutcomeSkippedDuplicate:
		s.SkippedDuplicate++
	case OutcomeSkippedNoDateTime:
		s.SkippedNoDateTime++
	case OutcomeSkippedNoLocation:
		s.SkippedNoLocation++
	case OutcomeError:
		s.Errors++
	}
}

// Organizer drives the import pipeline, one file at a time. Files never
// affect each other: a fault on one is recorded and the run moves on.
type Organizer struct {
	cfg      *Config
	codec    TagCodec
	hasher   *Hasher
	registry *Registry
	prompter Prompter
	log      *zap.Logger
	session  *RunLog
	errs     *ErrorStats
	version  string
	out      io.Writer
}

func NewOrganizer(cfg *Config, codec TagCodec, prompter Prompter, logger *zap.Logger, version string) *Organizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if prompter == nil {
		prompter = NopPrompter{}
	}
	hasher := NewHasher()
	return &Organizer{
		cfg:      cfg,
		codec:    codec,
		hasher:   hasher,
		registry: NewRegistry(hasher),
		prompter: prompter,
		log:      logger,
		errs:     NewErrorStats(),
		version:  version,
		out:      os.Stdout,
	}
}

// AttachSession routes per-file events into a run log.
func (o *Organizer) AttachSession(s *RunLog) {
	o.session = s
}

func (o *Organizer) ErrorStats() *ErrorStats {
	return o.errs
}

// BuildRegistry recognizes previously imported files by scanning the
// destination tree for provenance tags.
func (o *Organizer) BuildRegistry() (int, error) {
	return o.registry.BuildFromDestination(o.cfg.Destination, o.codec, o.cfg, o.log)
}

// ProcessFile runs one file through the pipeline and reports the outcome.
// The steps are ordered so that a previously imported file is skipped by a
// map lookup alone, before its content is ever read.
func (o *Organizer) ProcessFile(path string) Result {
	name := filepath.Base(path)
	res := Result{Source: path}

	if o.cfg.SkipDuplicates {
		if dest, ok := o.registry.LookupProcessed(name); ok {
			return skip(res, OutcomeSkippedDuplicate, fmt.Sprintf("Already processed to %s", dest))
		}
		dup, existing, sum, err := o.registry.CheckAndRegisterContent(path)
		if err != nil {
			return o.fail(res, err)
		}
		res.Fingerprint = sum
		if dup {
			return skip(res, OutcomeSkippedDuplicate, fmt.Sprintf("Exact content duplicate of %s", existing))
		}
	}

	raw := o.codec.ReadTags(path)
	md := ResolveMetadata(raw)

	// A file renamed since its import still carries provenance tags.
	if o.cfg.SkipDuplicates && md.OriginalName != "" && md.OriginalName != name {
		if dest, ok := o.registry.LookupProcessed(md.OriginalName); ok {
			return skip(res, OutcomeSkippedDuplicate, fmt.Sprintf("Already processed to %s", dest))
		}
	}

	originalName, needNameUpdate := resolveOriginalName(name, md)
	res.OriginalName = originalName
	res.NameTagSet = needNameUpdate

	dt := md.DateTime
	dtSource := md.DateTimeTag
	inferred := false
	if !md.HasDateTime() {
		dt, dtSource, inferred = o.datetimeFromFilename(name, md, raw)
		if dt.IsZero() {
			res = o.collectSkipped(res, "no_datetime")
			return skip(res, OutcomeSkippedNoDateTime, "No datetime found in metadata or filename")
		}
	}
	res.DateTime = dt
	res.DateTimeSource = dtSource
	res.Inferred = inferred

	var setLat, setLon *float64
	if !md.HasLocation() {
		if lat, lon := o.cfg.DefaultCoordinates(); lat != nil {
			setLat, setLon = lat, lon
		} else if !o.cfg.SkipLocation {
			if o.cfg.DryRun {
				o.log.Debug("would prompt for location", zap.String("file", name))
			} else {
				lat, lon, ok := o.prompter.Location(name)
				if !ok {
					res = o.collectSkipped(res, "no_location")
					return skip(res, OutcomeSkippedNoLocation, "User skipped file (no location provided)")
				}
				setLat, setLon = &lat, &lon
			}
		}
	}
	res.LocationSet = setLat != nil

	destPath := DestinationPath(o.cfg.Destination, o.cfg.FolderPattern, o.cfg.FilenamePattern,
		dt, originalName, filepath.Ext(path))
	if pathExists(destPath) {
		same, err := o.sameContent(path, destPath, res.Fingerprint)
		if err != nil {
			return o.fail(res, err)
		}
		if same {
			res.Destination = destPath
			return skip(res, OutcomeSkippedDuplicate, "Already exists at destination (same content)")
		}
		destPath = NextAvailablePath(destPath)
	}
	res.Destination = destPath

	if o.cfg.DryRun {
		o.log.Info("dry run, would import",
			zap.String("source", path),
			zap.String("destination", destPath),
			zap.Bool("set_name_tags", needNameUpdate),
			zap.Bool("set_datetime", !md.HasDateTime()),
			zap.Bool("set_gps", setLat != nil))
		o.registerIdentities(name, originalName, destPath)
		res.Outcome = OutcomeImported
		return res
	}

	mtime, err := fileModTime(path)
	if err != nil {
		return o.fail(res, err)
	}

	if o.cfg.MoveFiles {
		err = MoveFile(path, destPath)
	} else {
		err = CopyFile(path, destPath)
	}
	if err != nil {
		res.Destination = ""
		return o.fail(res, err)
	}

	var failed []string
	write := func(group string, tags map[string]any) bool {
		ok := o.codec.WriteTags(destPath, tags, false)
		if !ok {
			failed = append(failed, group)
		}
		return ok
	}
	if needNameUpdate {
		write("original filename", nameWriteTags(originalName, name))
	}
	if !md.HasDateTime() {
		write("datetime", datetimeWriteTags(dt, inferred, dtSource))
	}
	if setLat != nil {
		write("gps", gpsWriteTags(*setLat, *setLon))
	}
	res.VersionSet = write("version", versionWriteTags(o.version))

	// Metadata writes touch the file, so the original timestamp goes back
	// on afterwards.
	if err := restoreModTime(destPath, mtime); err != nil {
		o.log.Warn("could not restore file timestamp", zap.String("path", destPath), zap.Error(err))
	}

	o.registerIdentities(name, originalName, destPath)

	if len(failed) > 0 {
		return o.fail(res, fmt.Errorf("metadata writeback failed: %s", strings.Join(failed, ", ")))
	}

	res.Outcome = OutcomeImported
	return res
}

// datetimeFromFilename recovers a capture time from a messaging-app
// filename. A full pattern carries the time itself. A date-only pattern
// borrows the time of day from another timestamp in the file when one
// falls within two days of the filename date, and otherwise asks.
func (o *Organizer) datetimeFromFilename(name string, md Metadata, raw map[string]any) (time.Time, string, bool) {
	fd := ParseFilenameDate(name)
	if fd == nil && md.OriginalName != "" {
		fd = ParseFilenameDate(md.OriginalName)
		if fd != nil {
			o.log.Debug("filename date found in original-name tag",
				zap.String("file", name), zap.String("original_name", md.OriginalName))
		}
	}
	if fd == nil {
		return time.Time{}, "", false
	}

	if fd.HasTime {
		return fd.DateTime(), fmt.Sprintf("WhatsApp filename (%s)", fd.Variant), false
	}

	if match, ok := FindMatchingDate(AllDates(raw), fd.Date, 2); ok {
		t := match.Time
		dt := fd.WithTime(t.Hour(), t.Minute(), t.Second())
		return dt, fmt.Sprintf("Inferred from %s (matched date within 2 days)", match.Tag), true
	}

	if !o.cfg.DryRun {
		if hour, minute, second, ok := o.prompter.TimeOfDay(name, fd.Date); ok {
			return fd.WithTime(hour, minute, second), "User-provided time for WhatsApp date-only file", true
		}
	}
	return time.Time{}, "", false
}

// resolveOriginalName decides which name is the file's identity and whether
// the provenance tags need updating. A stored original name wins; the
// current name only forces an update when it matches neither the original
// nor the recorded alternate.
func resolveOriginalName(currentName string, md Metadata) (string, bool) {
	if md.OriginalName != "" {
		if currentName != md.OriginalName && currentName != md.AlternateName {
			return md.OriginalName, true
		}
		return md.OriginalName, false
	}
	return currentName, true
}

func (o *Organizer) registerIdentities(currentName, originalName, dest string) {
	o.registry.RegisterProcessed(originalName, dest)
	if currentName != originalName {
		o.registry.RegisterProcessed(currentName, dest)
	}
}

func (o *Organizer) sameContent(source, dest, sourceSum string) (bool, error) {
	if sourceSum == "" {
		var err error
		sourceSum, err = o.hasher.Fingerprint(source)
		if err != nil {
			return false, err
		}
	}
	destSum, err := o.hasher.Fingerprint(dest)
	if err != nil {
		return false, err
	}
	return sourceSum == destSum, nil
}

// collectSkipped moves or copies a skipped file into a reason-named folder
// under the destination, so skips are reviewable without re-running.
func (o *Organizer) collectSkipped(res Result, reason string) Result {
	if !o.cfg.CollectSkipped || o.cfg.DryRun {
		return res
	}
	target := filepath.Join(o.cfg.Destination, "skipped", reason, filepath.Base(res.Source))
	if pathExists(target) {
		target = NextAvailablePath(target)
	}
	var err error
	if o.cfg.MoveFiles {
		err = MoveFile(res.Source, target)
	} else {
		err = CopyFile(res.Source, target)
	}
	if err != nil {
		o.log.Warn("could not collect skipped file",
			zap.String("source", res.Source), zap.Error(err))
		return res
	}
	res.CollectedTo = target
	return res
}

func skip(res Result, outcome Outcome, reason string) Result {
	res.Outcome = outcome
	res.Reason = reason
	return res
}

func (o *Organizer) fail(res Result, err error) Result {
	pe := CategorizeError(res.Source, err)
	o.errs.Add(pe)
	res.Outcome = OutcomeError
	res.Err = pe
	o.log.Error("file failed",
		zap.String("source", res.Source),
		zap.String("category", string(pe.Category)),
		zap.Error(err))
	return res
}

// Run processes every file in order and prints progress as it goes.
func (o *Organizer) Run(files []string) ([]Result, Stats) {
	stats := Stats{Total: len(files)}
	if o.session != nil {
		o.session.LogRunStart(o.cfg, len(files))
	}

	results := make([]Result, 0, len(files))
	for i, path := range files {
		fmt.Fprintf(o.out, "[%d/%d] %s\n", i+1, len(files), filepath.Base(path))
		res := o.ProcessFile(path)
		results = append(results, res)
		stats.count(res.Outcome)
		o.printResult(res)
		if o.session != nil {
			o.session.LogResult(res)
		}
	}

	o.printSummary(stats)
	if o.errs.Total() > 0 {
		fmt.Fprintln(o.out)
		fmt.Fprintln(o.out, o.errs.GenerateReport())
	}
	if o.session != nil {
		o.session.LogRunEnd(stats)
	}
	return results, stats
}

func (o *Organizer) printResult(res Result) {
	name := filepath.Base(res.Source)
	switch res.Outcome {
	case OutcomeImported:
		fmt.Fprintf(o.out, "  ✓ %s\n", name)
		if o.cfg.Verbose {
			fmt.Fprintf(o.out, "    -> %s\n", res.Destination)
		}
	case OutcomeError:
		fmt.Fprintf(o.out, "  ✗ %s\n", name)
		fmt.Fprintf(o.out, "    Error: %v\n", res.Err)
	default:
		fmt.Fprintf(o.out, "  ⊘ %s\n", name)
		fmt.Fprintf(o.out, "    Skipped: %s\n", res.Reason)
	}
}

func (o *Organizer) printSummary(stats Stats) {
	line := strings.Repeat("=", 60)
	fmt.Fprintf(o.out, "\n%s\nSummary\n%s\n", line, line)
	fmt.Fprintf(o.out, "  Total files scanned: %d\n", stats.Total)
	fmt.Fprintf(o.out, "  Successfully processed: %d\n", stats.Imported)
	fmt.Fprintf(o.out, "  Skipped (duplicates): %d\n", stats.SkippedDuplicate)
	fmt.Fprintf(o.out, "  Skipped (no datetime): %d\n", stats.SkippedNoDateTime)
	fmt.Fprintf(o.out, "  Skipped (no location): %d\n", stats.SkippedNoLocation)
	fmt.Fprintf(o.out, "  Errors: %d\n", stats.Errors)
	if o.cfg.DryRun {
		fmt.Fprintln(o.out, "\n[DRY RUN] No files were actually modified.")
	}
}
