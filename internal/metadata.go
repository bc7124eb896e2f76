package internal

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Candidate tag tables, priority ordered. Namespace-qualified spellings
// come first so grouped reader output wins; the bare spellings at the end
// cover readers that flatten group names away. Adding a tag means adding a
// line here, nothing else.
var datetimeTags = []string{
	"EXIF:DateTimeOriginal",
	"EXIF:CreateDate",
	"EXIF:ModifyDate",
	"XMP:DateTimeOriginal",
	"XMP:CreateDate",
	"XMP:ModifyDate",
	"QuickTime:CreateDate",
	"QuickTime:ModifyDate",
	"QuickTime:MediaCreateDate",
	"QuickTime:MediaModifyDate",
	"QuickTime:TrackCreateDate",
	"QuickTime:TrackModifyDate",
	"DateTimeOriginal",
	"CreateDate",
	"ModifyDate",
	"MediaCreateDate",
	"MediaModifyDate",
	"TrackCreateDate",
	"TrackModifyDate",
}

// Filesystem dates extend the embedded tables for the inference scan only;
// they are too weak to count as a real capture time on their own.
var fileDateTags = []string{
	"File:FileModifyDate",
	"File:FileAccessDate",
	"File:FileCreateDate",
	"FileModifyDate",
	"FileAccessDate",
	"FileCreateDate",
}

var (
	latitudeTags     = []string{"EXIF:GPSLatitude", "XMP:GPSLatitude", "Composite:GPSLatitude", "GPSLatitude"}
	latitudeRefTags  = []string{"EXIF:GPSLatitudeRef", "XMP:GPSLatitudeRef", "GPSLatitudeRef"}
	longitudeTags    = []string{"EXIF:GPSLongitude", "XMP:GPSLongitude", "Composite:GPSLongitude", "GPSLongitude"}
	longitudeRefTags = []string{"EXIF:GPSLongitudeRef", "XMP:GPSLongitudeRef", "GPSLongitudeRef"}
)

// Provenance tags. The original-name tag is written under the plain XMP
// group; reads also accept the xmpMM spelling other tools use and this
// tool's own namespace.
const (
	tagOriginalName     = "XMP:OriginalFileName"
	tagAlternateName    = "XMP-keepsake:AlternateFileName"
	tagDateTimeInferred = "XMP-keepsake:DateTimeInferred"
	tagInferenceSource  = "XMP-keepsake:DateTimeInferenceSource"
	tagLocationManual   = "XMP-keepsake:LocationManuallySet"
	tagProcessedBy      = "XMP-keepsake:ProcessedByVersion"
)

var (
	originalNameTags = []string{
		"XMP:OriginalFileName",
		"XMP-xmpMM:OriginalFileName",
		"XMP-keepsake:OriginalFileName",
		"OriginalFileName",
	}
	alternateNameTags   = []string{"XMP-keepsake:AlternateFileName", "AlternateFileName"}
	inferredFlagTags    = []string{"XMP-keepsake:DateTimeInferred", "DateTimeInferred"}
	inferenceSourceTags = []string{"XMP-keepsake:DateTimeInferenceSource", "DateTimeInferenceSource"}
)

const exifDateTimeLayout = "2006:01:02 15:04:05"

// Exiftool emits a handful of separator styles depending on the tag family.
// Values longer than 19 characters carry a timezone suffix that is cut off
// before parsing, the same way "2024:10:01 10:06:47+02:00" loses "+02:00".
var datetimeLayouts = []string{
	"2006:01:02 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02 15:04:05",
}

// Metadata is the resolved view of one file's raw tag map.
type Metadata struct {
	DateTime        time.Time
	DateTimeTag     string
	Lat             *float64
	Lon             *float64
	OriginalName    string
	AlternateName   string
	Inferred        bool
	InferenceSource string
}

func (m Metadata) HasDateTime() bool {
	return !m.DateTime.IsZero()
}

func (m Metadata) HasLocation() bool {
	return m.Lat != nil && m.Lon != nil
}

// ResolveMetadata runs the candidate tables over a raw tag map.
func ResolveMetadata(raw map[string]any) Metadata {
	var md Metadata
	md.DateTime, md.DateTimeTag = firstDateTime(raw, datetimeTags)
	md.Lat = resolveAxis(raw, latitudeTags, latitudeRefTags, "S")
	md.Lon = resolveAxis(raw, longitudeTags, longitudeRefTags, "W")
	md.OriginalName = firstString(raw, originalNameTags)
	md.AlternateName = firstString(raw, alternateNameTags)
	md.Inferred = strings.EqualFold(firstString(raw, inferredFlagTags), "true")
	md.InferenceSource = firstString(raw, inferenceSourceTags)
	return md
}

func firstDateTime(raw map[string]any, tags []string) (time.Time, string) {
	for _, tag := range tags {
		v, ok := raw[tag]
		if !ok {
			continue
		}
		if t, ok := ParseDateTimeValue(v); ok {
			return t, tag
		}
	}
	return time.Time{}, ""
}

func firstString(raw map[string]any, tags []string) string {
	for _, tag := range tags {
		if v, ok := raw[tag]; ok {
			if s := strings.TrimSpace(stringValue(v)); s != "" {
				return s
			}
		}
	}
	return ""
}

// resolveAxis picks one coordinate axis. The decimal value and the
// hemisphere ref resolve independently; a ref only flips the sign when the
// value does not already carry it, so signed output stays untouched.
func resolveAxis(raw map[string]any, valueTags, refTags []string, negRef string) *float64 {
	var val *float64
	for _, tag := range valueTags {
		v, ok := raw[tag]
		if !ok {
			continue
		}
		if f, ok := floatValue(v); ok {
			val = &f
			break
		}
	}
	if val == nil {
		return nil
	}
	for _, tag := range refTags {
		v, ok := raw[tag]
		if !ok {
			continue
		}
		ref := strings.ToUpper(strings.TrimSpace(stringValue(v)))
		if strings.HasPrefix(ref, negRef) && *val > 0 {
			*val = -*val
			break
		}
	}
	return val
}

// ParseDateTimeValue parses an exiftool-style date string. The all-zero
// sentinel some cameras write is not a date.
func ParseDateTimeValue(v any) (time.Time, bool) {
	s := strings.TrimSpace(stringValue(v))
	if s == "" || strings.HasPrefix(s, "0000:00:00") {
		return time.Time{}, false
	}
	if len(s) > 19 {
		s = s[:19]
	}
	for _, layout := range datetimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// TagDate pairs a candidate tag with its parsed timestamp.
type TagDate struct {
	Tag  string
	Time time.Time
}

// AllDates lists every parseable date in the raw map, embedded tags first,
// filesystem dates last, preserving table priority.
func AllDates(raw map[string]any) []TagDate {
	var dates []TagDate
	for _, tag := range datetimeTags {
		if v, ok := raw[tag]; ok {
			if t, ok := ParseDateTimeValue(v); ok {
				dates = append(dates, TagDate{Tag: tag, Time: t})
			}
		}
	}
	for _, tag := range fileDateTags {
		if v, ok := raw[tag]; ok {
			if t, ok := ParseDateTimeValue(v); ok {
				dates = append(dates, TagDate{Tag: tag, Time: t})
			}
		}
	}
	return dates
}

// FindMatchingDate returns the first candidate whose calendar date lies
// within toleranceDays of target. Ties are settled by table order, not by
// closeness.
func FindMatchingDate(dates []TagDate, target time.Time, toleranceDays int) (TagDate, bool) {
	for _, td := range dates {
		if dayDistance(td.Time, target) <= toleranceDays {
			return td, true
		}
	}
	return TagDate{}, false
}

func dayDistance(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	d := int(da.Sub(db) / (24 * time.Hour))
	if d < 0 {
		d = -d
	}
	return d
}

// datetimeWriteTags builds the writeback map for a resolved capture time.
// Both the EXIF and XMP spellings are written so any later reader agrees.
func datetimeWriteTags(t time.Time, inferred bool, source string) map[string]any {
	tags := map[string]any{
		"EXIF:DateTimeOriginal": t.Format(exifDateTimeLayout),
		"XMP:DateTimeOriginal":  t.Format(exifDateTimeLayout),
	}
	if inferred {
		tags[tagDateTimeInferred] = "true"
		tags[tagInferenceSource] = source
	}
	return tags
}

// gpsWriteTags builds the writeback map for a coordinate pair: unsigned
// EXIF values with hemisphere refs, signed XMP values, and the marker that
// the location was supplied rather than captured.
func gpsWriteTags(lat, lon float64) map[string]any {
	latRef, lonRef := "N", "E"
	if lat < 0 {
		latRef = "S"
	}
	if lon < 0 {
		lonRef = "W"
	}
	return map[string]any{
		"EXIF:GPSLatitude":     math.Abs(lat),
		"EXIF:GPSLatitudeRef":  latRef,
		"EXIF:GPSLongitude":    math.Abs(lon),
		"EXIF:GPSLongitudeRef": lonRef,
		"XMP:GPSLatitude":      lat,
		"XMP:GPSLongitude":     lon,
		tagLocationManual:      "true",
	}
}

// nameWriteTags records the original filename and, when the file shows up
// under a different name, that name as the alternate.
func nameWriteTags(original, current string) map[string]any {
	tags := map[string]any{tagOriginalName: original}
	if current != "" && current != original {
		tags[tagAlternateName] = current
	}
	return tags
}

func versionWriteTags(version string) map[string]any {
	return map[string]any{tagProcessedBy: version}
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}

func floatValue(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
