package internal

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// PatternKind says how much of a timestamp a filename pattern carries.
type PatternKind string

const (
	PatternFull     PatternKind = "full"
	PatternDateOnly PatternKind = "date_only"
)

// FilenameDate is a capture date recovered from a messaging-app filename.
// Date-only matches carry no time of day; the caller has to find one
// elsewhere before the date becomes a usable timestamp.
type FilenameDate struct {
	Date    time.Time // midnight, local
	Hour    int
	Minute  int
	Second  int
	HasTime bool
	Kind    PatternKind
	Variant string
}

// DateTime returns the full timestamp of a match that included a time.
func (fd FilenameDate) DateTime() time.Time {
	return fd.WithTime(fd.Hour, fd.Minute, fd.Second)
}

// WithTime combines the filename date with a time of day obtained elsewhere.
func (fd FilenameDate) WithTime(hour, minute, second int) time.Time {
	return time.Date(fd.Date.Year(), fd.Date.Month(), fd.Date.Day(),
		hour, minute, second, 0, time.Local)
}

// WhatsApp desktop exports: "WhatsApp Image 2024-10-01 at 10.06.47.jpg",
// optionally with a 12-hour clock ("... at 2.38.55 PM.mp4"). Mobile exports
// carry only a date: "IMG-20241001-WA0001.jpg" and an underscore variant
// produced by some Android versions.
var (
	whatsappFull = regexp.MustCompile(
		`(?i)^WhatsApp\s+(Image|Video)\s+(\d{4})-(\d{2})-(\d{2})\s+at\s+(\d{1,2})\.(\d{2})\.(\d{2})\s*(AM|PM)?`)
	whatsappDateOnly = regexp.MustCompile(
		`(?i)^(IMG|VID)-(\d{4})(\d{2})(\d{2})-WA\d+`)
	whatsappDateOnlyUnderscore = regexp.MustCompile(
		`(?i)^(IMG|VID)_(\d{4})(\d{2})(\d{2})_WA\d+`)
)

var dateOnlyVariants = []struct {
	re      *regexp.Regexp
	variant string
}{
	{whatsappDateOnly, "whatsapp_date_only"},
	{whatsappDateOnlyUnderscore, "whatsapp_date_only_underscore"},
}

// ParseFilenameDate inspects a filename for the date patterns messaging
// apps use. Patterns are anchored: a file that was renamed to carry a
// prefix no longer matches. Only the basename is considered.
func ParseFilenameDate(filename string) *FilenameDate {
	name := baseName(filename)

	if m := whatsappFull.FindStringSubmatch(name); m != nil {
		year := atoi(m[2])
		month := atoi(m[3])
		day := atoi(m[4])
		hour := atoi(m[5])
		minute := atoi(m[6])
		second := atoi(m[7])

		switch strings.ToUpper(m[8]) {
		case "PM":
			if hour != 12 {
				hour += 12
			}
		case "AM":
			if hour == 12 {
				hour = 0
			}
		}

		date, ok := validDate(year, month, day)
		if !ok || !validClock(hour, minute, second) {
			// A name that looks like the full pattern but carries a bogus
			// date is not retried against the weaker patterns.
			return nil
		}
		return &FilenameDate{
			Date:    date,
			Hour:    hour,
			Minute:  minute,
			Second:  second,
			HasTime: true,
			Kind:    PatternFull,
			Variant: "whatsapp_full_datetime",
		}
	}

	for _, p := range dateOnlyVariants {
		m := p.re.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		date, ok := validDate(atoi(m[2]), atoi(m[3]), atoi(m[4]))
		if !ok {
			continue
		}
		return &FilenameDate{Date: date, Kind: PatternDateOnly, Variant: p.variant}
	}

	return nil
}

func baseName(filename string) string {
	if i := strings.LastIndexAny(filename, `/\`); i >= 0 {
		filename = filename[i+1:]
	}
	return filename
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// validDate rejects digit runs like 20241301 that fit the pattern but are
// not real dates. time.Date normalizes out-of-range components, so the
// round trip has to be checked explicitly.
func validDate(year, month, day int) (time.Time, bool) {
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local)
	if d.Year() != year || d.Month() != time.Month(month) || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

func validClock(hour, minute, second int) bool {
	return hour >= 0 && hour <= 23 &&
		minute >= 0 && minute <= 59 &&
		second >= 0 && second <= 59
}
