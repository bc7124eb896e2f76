package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var monthNames = []string{"",
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

var monthNamesShort = []string{"",
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// placeholderRe matches the known placeholders with an optional format
// specifier, "{month:02d}" style. Anything else in braces passes through
// untouched.
var placeholderRe = regexp.MustCompile(
	`\{(year|month|day|hour|min|sec|month_name|month_name_short|original_name|ext)(?::([^{}]+))?\}`)

// intSpecRe accepts the zero-pad and width specifiers that make sense for
// integer placeholders: "d", "2d", "02d".
var intSpecRe = regexp.MustCompile(`^0?\d*d$`)

// RenderPattern fills a layout pattern from a capture time and the source
// name. originalName supplies the {original_name} stem, ext supplies {ext}
// (lowercased, no dot). Unknown placeholders and malformed specifiers stay
// verbatim rather than failing the file.
func RenderPattern(pattern string, t time.Time, originalName, ext string) string {
	stem := strings.TrimSuffix(filepath.Base(originalName), filepath.Ext(originalName))

	ints := map[string]int{
		"year":  t.Year(),
		"month": int(t.Month()),
		"day":   t.Day(),
		"hour":  t.Hour(),
		"min":   t.Minute(),
		"sec":   t.Second(),
	}
	strs := map[string]string{
		"month_name":       monthNames[t.Month()],
		"month_name_short": monthNamesShort[t.Month()],
		"original_name":    stem,
		"ext":              strings.ToLower(strings.TrimPrefix(ext, ".")),
	}

	return placeholderRe.ReplaceAllStringFunc(pattern, func(m string) string {
		groups := placeholderRe.FindStringSubmatch(m)
		name, spec := groups[1], groups[2]

		if n, ok := ints[name]; ok {
			if spec == "" {
				return strconv.Itoa(n)
			}
			if intSpecRe.MatchString(spec) {
				return fmt.Sprintf("%"+spec, n)
			}
			return m
		}
		if s, ok := strs[name]; ok {
			if spec != "" {
				return m
			}
			return s
		}
		return m
	})
}

// DestinationPath renders the folder and filename patterns under root and
// appends the extension when the rendered name does not already end with
// it, compared case-insensitively. The extension keeps its original case
// when appended.
func DestinationPath(root, folderPattern, filenamePattern string, t time.Time, originalName, ext string) string {
	folder := RenderPattern(folderPattern, t, originalName, ext)
	filename := RenderPattern(filenamePattern, t, originalName, ext)
	if ext != "" && !strings.HasSuffix(strings.ToLower(filename), strings.ToLower(ext)) {
		filename = filename + "." + strings.TrimPrefix(ext, ".")
	}
	return filepath.Join(root, folder, filename)
}

// NextAvailablePath returns path unchanged when it is free, otherwise the
// first suffixed variant (name_1.ext, name_2.ext, ...) that does not exist.
func NextAvailablePath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for i := 1; ; i++ {
		try := fmt.Sprintf("%s_%d%s", base, i, ext)
		if _, err := os.Stat(try); os.IsNotExist(err) {
			return try
		}
	}
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
