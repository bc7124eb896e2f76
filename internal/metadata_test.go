package internal

import (
	"testing"
	"time"
)

func TestResolveMetadata_DateTimePriority(t *testing.T) {
	raw := map[string]any{
		"EXIF:ModifyDate":       "2024:10:05 09:00:00",
		"EXIF:DateTimeOriginal": "2024:10:01 10:06:47",
		"EXIF:CreateDate":       "2024:10:02 11:00:00",
	}

	md := ResolveMetadata(raw)
	if !md.HasDateTime() {
		t.Fatal("Expected a datetime")
	}
	if md.DateTimeTag != "EXIF:DateTimeOriginal" {
		t.Errorf("Expected EXIF:DateTimeOriginal to win, got %s", md.DateTimeTag)
	}
	if got := md.DateTime.Format("2006-01-02 15:04:05"); got != "2024-10-01 10:06:47" {
		t.Errorf("Expected 2024-10-01 10:06:47, got %s", got)
	}
}

func TestResolveMetadata_Deterministic(t *testing.T) {
	raw := map[string]any{
		"EXIF:DateTimeOriginal": "2024:10:01 10:06:47",
		"QuickTime:CreateDate":  "2024:10:02 11:00:00",
	}

	first := ResolveMetadata(raw)
	second := ResolveMetadata(raw)
	if !first.DateTime.Equal(second.DateTime) {
		t.Errorf("Expected identical datetimes, got %v and %v", first.DateTime, second.DateTime)
	}
	if first.DateTimeTag != second.DateTimeTag {
		t.Errorf("Expected the same source tag, got %s and %s", first.DateTimeTag, second.DateTimeTag)
	}
}

func TestResolveMetadata_SkipsZeroSentinel(t *testing.T) {
	raw := map[string]any{
		"EXIF:DateTimeOriginal": "0000:00:00 00:00:00",
		"EXIF:CreateDate":       "2024:10:02 11:00:00",
	}

	md := ResolveMetadata(raw)
	if md.DateTimeTag != "EXIF:CreateDate" {
		t.Errorf("Expected the sentinel to be skipped, got tag %s", md.DateTimeTag)
	}
}

func TestResolveMetadata_QuickTimeFallback(t *testing.T) {
	raw := map[string]any{
		"QuickTime:MediaCreateDate": "2023:07:19 22:06:47",
	}

	md := ResolveMetadata(raw)
	if md.DateTimeTag != "QuickTime:MediaCreateDate" {
		t.Errorf("Expected QuickTime tag, got %s", md.DateTimeTag)
	}
}

func TestResolveMetadata_BareTagSpelling(t *testing.T) {
	raw := map[string]any{
		"DateTimeOriginal": "2024:10:01 10:06:47",
	}

	md := ResolveMetadata(raw)
	if !md.HasDateTime() {
		t.Error("Expected the bare spelling to resolve")
	}
}

func TestResolveMetadata_NoDateTime(t *testing.T) {
	md := ResolveMetadata(map[string]any{"EXIF:Make": "Canon"})
	if md.HasDateTime() {
		t.Errorf("Expected no datetime, got %v", md.DateTime)
	}
}

func TestParseDateTimeValue(t *testing.T) {
	testCases := []struct {
		name     string
		value    any
		expected string // "" means no parse
	}{
		{"exif colons", "2024:10:01 10:06:47", "2024-10-01 10:06:47"},
		{"dashes", "2024-10-01 10:06:47", "2024-10-01 10:06:47"},
		{"iso t", "2024-10-01T10:06:47", "2024-10-01 10:06:47"},
		{"slashes", "2024/10/01 10:06:47", "2024-10-01 10:06:47"},
		{"timezone suffix cut", "2024:10:01 10:06:47+02:00", "2024-10-01 10:06:47"},
		{"subseconds cut", "2024:10:01 10:06:47.123", "2024-10-01 10:06:47"},
		{"zero sentinel", "0000:00:00 00:00:00", ""},
		{"empty", "", ""},
		{"whitespace", "   ", ""},
		{"garbage", "not a date", ""},
		{"nil", nil, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			parsed, ok := ParseDateTimeValue(tc.value)
			if tc.expected == "" {
				if ok {
					t.Errorf("Expected no parse, got %v", parsed)
				}
				return
			}
			if !ok {
				t.Fatalf("Expected a parse for %v", tc.value)
			}
			if got := parsed.Format("2006-01-02 15:04:05"); got != tc.expected {
				t.Errorf("Expected %s, got %s", tc.expected, got)
			}
		})
	}
}

func TestResolveMetadata_GPS(t *testing.T) {
	testCases := []struct {
		name   string
		raw    map[string]any
		lat    float64
		lon    float64
		hasLoc bool
	}{
		{
			"signed composite values",
			map[string]any{"Composite:GPSLatitude": -33.8688, "Composite:GPSLongitude": 151.2093},
			-33.8688, 151.2093, true,
		},
		{
			"unsigned with refs",
			map[string]any{
				"EXIF:GPSLatitude": 33.8688, "EXIF:GPSLatitudeRef": "S",
				"EXIF:GPSLongitude": 151.2093, "EXIF:GPSLongitudeRef": "E",
			},
			-33.8688, 151.2093, true,
		},
		{
			"ref words spelled out",
			map[string]any{
				"EXIF:GPSLatitude": 40.7128, "EXIF:GPSLatitudeRef": "North",
				"EXIF:GPSLongitude": 74.0060, "EXIF:GPSLongitudeRef": "West",
			},
			40.7128, -74.0060, true,
		},
		{
			"already signed value not flipped twice",
			map[string]any{
				"EXIF:GPSLatitude": -33.8688, "EXIF:GPSLatitudeRef": "S",
				"EXIF:GPSLongitude": 151.2093, "EXIF:GPSLongitudeRef": "E",
			},
			-33.8688, 151.2093, true,
		},
		{
			"string coordinate values",
			map[string]any{"GPSLatitude": "46.0569", "GPSLongitude": "14.5058"},
			46.0569, 14.5058, true,
		},
		{
			"latitude alone is not a location",
			map[string]any{"EXIF:GPSLatitude": 46.0569},
			46.0569, 0, false,
		},
		{
			"no coordinates",
			map[string]any{"EXIF:Make": "Canon"},
			0, 0, false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			md := ResolveMetadata(tc.raw)
			if md.HasLocation() != tc.hasLoc {
				t.Fatalf("Expected HasLocation=%v, got %v", tc.hasLoc, md.HasLocation())
			}
			if md.Lat != nil && *md.Lat != tc.lat {
				t.Errorf("Expected lat %v, got %v", tc.lat, *md.Lat)
			}
			if md.Lon != nil && *md.Lon != tc.lon {
				t.Errorf("Expected lon %v, got %v", tc.lon, *md.Lon)
			}
		})
	}
}

func TestResolveMetadata_Provenance(t *testing.T) {
	raw := map[string]any{
		"XMP:OriginalFileName":                 "IMG_1234.jpg",
		"XMP-keepsake:AlternateFileName":       "holiday.jpg",
		"XMP-keepsake:DateTimeInferred":        "True",
		"XMP-keepsake:DateTimeInferenceSource": "EXIF:ModifyDate",
	}

	md := ResolveMetadata(raw)
	if md.OriginalName != "IMG_1234.jpg" {
		t.Errorf("Expected original name IMG_1234.jpg, got %s", md.OriginalName)
	}
	if md.AlternateName != "holiday.jpg" {
		t.Errorf("Expected alternate name holiday.jpg, got %s", md.AlternateName)
	}
	if !md.Inferred {
		t.Error("Expected Inferred=true from a capitalized flag value")
	}
	if md.InferenceSource != "EXIF:ModifyDate" {
		t.Errorf("Expected inference source EXIF:ModifyDate, got %s", md.InferenceSource)
	}
}

func TestAllDates_Order(t *testing.T) {
	raw := map[string]any{
		"File:FileModifyDate":   "2024:12:01 08:00:00",
		"EXIF:CreateDate":       "2024:10:02 11:00:00",
		"EXIF:DateTimeOriginal": "2024:10:01 10:06:47",
	}

	dates := AllDates(raw)
	if len(dates) != 3 {
		t.Fatalf("Expected 3 dates, got %d", len(dates))
	}
	if dates[0].Tag != "EXIF:DateTimeOriginal" {
		t.Errorf("Expected EXIF:DateTimeOriginal first, got %s", dates[0].Tag)
	}
	if dates[1].Tag != "EXIF:CreateDate" {
		t.Errorf("Expected EXIF:CreateDate second, got %s", dates[1].Tag)
	}
	if dates[2].Tag != "File:FileModifyDate" {
		t.Errorf("Expected filesystem date last, got %s", dates[2].Tag)
	}
}

func TestFindMatchingDate(t *testing.T) {
	target := time.Date(2024, 10, 1, 0, 0, 0, 0, time.Local)
	dates := []TagDate{
		{Tag: "EXIF:CreateDate", Time: time.Date(2024, 10, 3, 14, 0, 0, 0, time.Local)},
		{Tag: "File:FileModifyDate", Time: time.Date(2024, 10, 2, 9, 30, 0, 0, time.Local)},
	}

	// Within 2 days both qualify; table order wins, not closeness
	match, ok := FindMatchingDate(dates, target, 2)
	if !ok {
		t.Fatal("Expected a match within tolerance")
	}
	if match.Tag != "EXIF:CreateDate" {
		t.Errorf("Expected first-listed candidate, got %s", match.Tag)
	}

	// Tolerance 1 excludes the first candidate
	match, ok = FindMatchingDate(dates, target, 1)
	if !ok {
		t.Fatal("Expected a match within tolerance")
	}
	if match.Tag != "File:FileModifyDate" {
		t.Errorf("Expected the one-day-off candidate, got %s", match.Tag)
	}

	// Nothing within zero days
	if _, ok := FindMatchingDate(dates, target, 0); ok {
		t.Error("Expected no match at zero tolerance")
	}
}

func TestFindMatchingDate_IgnoresTimeOfDay(t *testing.T) {
	target := time.Date(2024, 10, 1, 0, 0, 0, 0, time.Local)
	dates := []TagDate{
		{Tag: "EXIF:CreateDate", Time: time.Date(2024, 10, 3, 23, 59, 59, 0, time.Local)},
	}

	// 2024-10-03 23:59 is nearly three full days after midnight on the 1st
	// but only two calendar days away
	if _, ok := FindMatchingDate(dates, target, 2); !ok {
		t.Error("Expected calendar-day distance, not elapsed hours")
	}
}

func TestDatetimeWriteTags(t *testing.T) {
	when := time.Date(2024, 10, 1, 10, 6, 47, 0, time.Local)

	tags := datetimeWriteTags(when, false, "")
	if tags["EXIF:DateTimeOriginal"] != "2024:10:01 10:06:47" {
		t.Errorf("Expected exif layout, got %v", tags["EXIF:DateTimeOriginal"])
	}
	if tags["XMP:DateTimeOriginal"] != "2024:10:01 10:06:47" {
		t.Errorf("Expected xmp spelling too, got %v", tags["XMP:DateTimeOriginal"])
	}
	if _, ok := tags["XMP-keepsake:DateTimeInferred"]; ok {
		t.Error("Expected no inference marker for a certain datetime")
	}

	tags = datetimeWriteTags(when, true, "EXIF:ModifyDate")
	if tags["XMP-keepsake:DateTimeInferred"] != "true" {
		t.Errorf("Expected inference marker, got %v", tags["XMP-keepsake:DateTimeInferred"])
	}
	if tags["XMP-keepsake:DateTimeInferenceSource"] != "EXIF:ModifyDate" {
		t.Errorf("Expected inference source recorded, got %v", tags["XMP-keepsake:DateTimeInferenceSource"])
	}
}

func TestGpsWriteTags(t *testing.T) {
	tags := gpsWriteTags(-33.8688, 151.2093)

	if tags["EXIF:GPSLatitude"] != 33.8688 {
		t.Errorf("Expected unsigned exif latitude, got %v", tags["EXIF:GPSLatitude"])
	}
	if tags["EXIF:GPSLatitudeRef"] != "S" {
		t.Errorf("Expected S ref, got %v", tags["EXIF:GPSLatitudeRef"])
	}
	if tags["EXIF:GPSLongitudeRef"] != "E" {
		t.Errorf("Expected E ref, got %v", tags["EXIF:GPSLongitudeRef"])
	}
	if tags["XMP:GPSLatitude"] != -33.8688 {
		t.Errorf("Expected signed xmp latitude, got %v", tags["XMP:GPSLatitude"])
	}
	if tags["XMP-keepsake:LocationManuallySet"] != "true" {
		t.Errorf("Expected manual-location marker, got %v", tags["XMP-keepsake:LocationManuallySet"])
	}
}

func TestNameWriteTags(t *testing.T) {
	tags := nameWriteTags("IMG_1234.jpg", "IMG_1234.jpg")
	if tags["XMP:OriginalFileName"] != "IMG_1234.jpg" {
		t.Errorf("Expected original name tag, got %v", tags["XMP:OriginalFileName"])
	}
	if _, ok := tags["XMP-keepsake:AlternateFileName"]; ok {
		t.Error("Expected no alternate tag when names agree")
	}

	tags = nameWriteTags("IMG_1234.jpg", "renamed.jpg")
	if tags["XMP-keepsake:AlternateFileName"] != "renamed.jpg" {
		t.Errorf("Expected alternate tag for diverged name, got %v", tags["XMP-keepsake:AlternateFileName"])
	}
}

func TestVersionWriteTags(t *testing.T) {
	tags := versionWriteTags("1.0.0")
	if tags["XMP-keepsake:ProcessedByVersion"] != "1.0.0" {
		t.Errorf("Expected version tag, got %v", tags["XMP-keepsake:ProcessedByVersion"])
	}
}
