package internal

import (
	"fmt"
	"strings"
)

// ErrorCategory groups per-file faults for reporting.
type ErrorCategory string

const (
	ErrorCategoryIO          ErrorCategory = "io_error"
	ErrorCategoryMetadata    ErrorCategory = "metadata_error"
	ErrorCategoryWriteback   ErrorCategory = "writeback_error"
	ErrorCategoryUnsupported ErrorCategory = "unsupported_format"
	ErrorCategoryUnknown     ErrorCategory = "unknown_error"
)

// ErrorSeverity indicates how bad a fault is. Severity never aborts a run;
// a fault on one file must not affect the next one. It only colors the
// report.
type ErrorSeverity string

const (
	SeverityCritical ErrorSeverity = "critical"
	SeverityError    ErrorSeverity = "error"
	SeverityWarning  ErrorSeverity = "warning"
)

// ProcessError is a categorized per-file fault.
type ProcessError struct {
	FilePath    string
	Category    ErrorCategory
	Severity    ErrorSeverity
	OriginalErr error
	Suggestion  string
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Category, e.FilePath, e.OriginalErr)
}

func (e *ProcessError) Unwrap() error {
	return e.OriginalErr
}

// CategorizeError classifies a raw error by message. Substring matching is
// crude but the error sources here (os, exiftool) have stable wording.
func CategorizeError(filePath string, err error) *ProcessError {
	pe := &ProcessError{
		FilePath:    filePath,
		Category:    ErrorCategoryUnknown,
		Severity:    SeverityError,
		OriginalErr: err,
	}
	if err == nil {
		return pe
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no space left"):
		pe.Category = ErrorCategoryIO
		pe.Severity = SeverityCritical
		pe.Suggestion = "Free disk space on the destination volume"
	case strings.Contains(msg, "read-only file system"):
		pe.Category = ErrorCategoryIO
		pe.Severity = SeverityCritical
		pe.Suggestion = "Destination is mounted read-only; remount it writable"
	case strings.Contains(msg, "permission denied"):
		pe.Category = ErrorCategoryIO
		pe.Suggestion = "Check permissions on the file and the destination folder"
	case strings.Contains(msg, "too many open files"):
		pe.Category = ErrorCategoryIO
		pe.Suggestion = "Raise the open-file limit (ulimit -n)"
	case strings.Contains(msg, "no such file"):
		pe.Category = ErrorCategoryIO
		pe.Suggestion = "The file disappeared mid-run; re-scan the source"
	case strings.Contains(msg, "input/output error"):
		pe.Category = ErrorCategoryIO
		pe.Severity = SeverityCritical
		pe.Suggestion = "Possible failing disk; check the drive"
	case strings.Contains(msg, "writeback"):
		pe.Category = ErrorCategoryWriteback
		pe.Suggestion = "The file was imported but its tags were not updated; re-run or fix with exiftool"
	case strings.Contains(msg, "exiftool"), strings.Contains(msg, "metadata"):
		pe.Category = ErrorCategoryMetadata
		pe.Suggestion = "Verify the file is valid media and exiftool supports it"
	case strings.Contains(msg, "unsupported"):
		pe.Category = ErrorCategoryUnsupported
		pe.Severity = SeverityWarning
		pe.Suggestion = "Add the extension to image_extensions or video_extensions if it is media"
	}
	return pe
}

// ErrorStats aggregates the faults of one run for the closing report.
type ErrorStats struct {
	ByCategory map[ErrorCategory]int
	BySeverity map[ErrorSeverity]int
	Recent     []*ProcessError
	total      int
}

const recentErrorsKept = 5

func NewErrorStats() *ErrorStats {
	return &ErrorStats{
		ByCategory: make(map[ErrorCategory]int),
		BySeverity: make(map[ErrorSeverity]int),
	}
}

func (s *ErrorStats) Add(pe *ProcessError) {
	s.total++
	s.ByCategory[pe.Category]++
	s.BySeverity[pe.Severity]++
	s.Recent = append(s.Recent, pe)
	if len(s.Recent) > recentErrorsKept {
		s.Recent = s.Recent[1:]
	}
}

func (s *ErrorStats) Total() int {
	return s.total
}

// GenerateReport renders the error summary printed after a run that had
// faults: counts per category, the most recent failures, and one line of
// advice per distinct suggestion.
func (s *ErrorStats) GenerateReport() string {
	if s.total == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "⚠️  %d files failed:\n", s.total)
	for _, cat := range []ErrorCategory{
		ErrorCategoryIO, ErrorCategoryMetadata, ErrorCategoryWriteback,
		ErrorCategoryUnsupported, ErrorCategoryUnknown,
	} {
		if n := s.ByCategory[cat]; n > 0 {
			fmt.Fprintf(&b, "   %-20s %d\n", string(cat)+":", n)
		}
	}

	b.WriteString("\n   Last failures:\n")
	for _, pe := range s.Recent {
		fmt.Fprintf(&b, "   ✗ %s\n", pe.Error())
	}

	seen := make(map[string]bool)
	for _, pe := range s.Recent {
		if pe.Suggestion == "" || seen[pe.Suggestion] {
			continue
		}
		seen[pe.Suggestion] = true
		fmt.Fprintf(&b, "   💡 %s\n", pe.Suggestion)
	}
	return b.String()
}
