package internal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// AnalyticsOptions contains configuration for folder analysis
type AnalyticsOptions struct {
	MaxDepth       int
	IncludeHidden  bool
	FindDuplicates bool
	Format         string
}

// AnalyticsResults contains the analysis results
type AnalyticsResults struct {
	FolderPath         string   `json:"folder_path"`
	TotalFiles         int      `json:"total_files"`
	TotalSize          int64    `json:"total_size_bytes"`
	DirectoriesScanned int      `json:"directories_scanned"`
	DirectoriesSkipped int      `json:"directories_skipped"`
	SkippedFolders     []string `json:"skipped_folders"`

	FileTypes    map[string]*FileTypeInfo `json:"file_types"`
	Readiness    *ImportReadiness         `json:"import_readiness,omitempty"`
	Duplicates   []DuplicateSet           `json:"duplicates,omitempty"`
	LargestFiles []LargeFileInfo          `json:"largest_files"`

	ScanDuration time.Duration `json:"scan_duration"`
}

// FileTypeInfo contains information about a specific file type
type FileTypeInfo struct {
	Count       int            `json:"count"`
	TotalSize   int64          `json:"total_size_bytes"`
	Extensions  map[string]int `json:"extensions"`
	LargestFile string         `json:"largest_file"`
	LargestSize int64          `json:"largest_size_bytes"`
}

// ImportReadiness reports how much of the folder the import pipeline could
// place without asking questions. It is built from a native metadata probe
// that decodes JPEG and TIFF headers directly; formats the probe cannot
// decode are counted as unreadable rather than guessed at.
type ImportReadiness struct {
	MediaFiles       int            `json:"media_files"`
	EmbeddedDateTime int            `json:"embedded_datetime"`
	FilenameDateTime int            `json:"filename_datetime"`
	FilenameDateOnly int            `json:"filename_date_only"`
	MissingDateTime  int            `json:"missing_datetime"`
	EmbeddedGPS      int            `json:"embedded_gps"`
	MissingGPS       int            `json:"missing_gps"`
	MetadataUnread   int            `json:"metadata_unreadable"`
	MessagingApps    map[string]int `json:"messaging_apps,omitempty"`
	Earliest         time.Time      `json:"earliest,omitempty"`
	Latest           time.Time      `json:"latest,omitempty"`
}

type DuplicateSet struct {
	Fingerprint string   `json:"fingerprint"`
	Files       []string `json:"files"`
	Size        int64    `json:"size_bytes"`
}

// LargeFileInfo contains information about large files (>100MB)
type LargeFileInfo struct {
	Path     string `json:"path"`
	Size     int64  `json:"size_bytes"`
	Category string `json:"category"`
}

// ProgressInfo tracks scanning progress
type ProgressInfo struct {
	FilesScanned int64
	DirsScanned  int64
	CurrentDir   atomic.Value
	StartTime    time.Time
}

// Default folders to skip for performance
var defaultSkipPatterns = []string{
	"node_modules",
	".git",
	".cache",
	"cache",
	"Cache",
	"Lightroom Previews",
	"Lightroom Previews.lrdata",
	".lightroom",
	"Thumbs.db",
	".DS_Store",
	".idea",
	".vscode",
	"build",
	"dist",
	"target",
	"__pycache__",
	".pytest_cache",
	"venv",
	".venv",
	"vendor",
}

// File type categories
var fileTypeCategories = map[string][]string{
	"Images":       {".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".tif", ".webp", ".heic", ".heif", ".raw", ".cr2", ".nef", ".arw", ".dng"},
	"Videos":       {".mp4", ".mov", ".avi", ".mkv", ".wmv", ".flv", ".webm", ".m4v", ".mpg", ".mpeg", ".3gp"},
	"Documents":    {".pdf", ".doc", ".docx", ".rtf", ".odt"},
	"Spreadsheets": {".xls", ".xlsx", ".csv", ".ods"},
	"Text":         {".txt", ".md", ".rst"},
	"Code":         {".go", ".js", ".ts", ".py", ".java", ".c", ".cpp", ".h", ".rs", ".php", ".rb", ".swift"},
	"Config":       {".json", ".yaml", ".yml", ".toml", ".ini", ".conf", ".xml"},
	"Archives":     {".zip", ".rar", ".7z", ".tar", ".gz", ".bz2", ".xz"},
	"Audio":        {".mp3", ".wav", ".flac", ".aac", ".ogg", ".m4a"},
}

// AnalyzeFolder performs comprehensive folder analysis
func AnalyzeFolder(folderPath string, cfg *Config, options *AnalyticsOptions) (*AnalyticsResults, error) {
	startTime := time.Now()

	results := &AnalyticsResults{
		FolderPath:     folderPath,
		FileTypes:      make(map[string]*FileTypeInfo),
		SkippedFolders: []string{},
		LargestFiles:   []LargeFileInfo{},
		Readiness: &ImportReadiness{
			MessagingApps: make(map[string]int),
		},
	}

	// Initialize file type categories
	for category := range fileTypeCategories {
		results.FileTypes[category] = &FileTypeInfo{
			Extensions: make(map[string]int),
		}
	}
	results.FileTypes["Other"] = &FileTypeInfo{
		Extensions: make(map[string]int),
	}

	var sizeBuckets map[int64][]string
	if options.FindDuplicates {
		sizeBuckets = make(map[int64][]string)
	}

	// Setup progress tracking
	progress := &ProgressInfo{
		StartTime: startTime,
	}
	progress.CurrentDir.Store(folderPath)

	// Start progress display goroutine
	done := make(chan bool)
	go displayProgress(progress, done)

	// Scan folder
	err := scanFolderRecursive(folderPath, "", cfg, options, results, sizeBuckets, progress)
	if err != nil {
		done <- true
		return nil, err
	}

	// Stop progress display
	done <- true

	// Files with identical size are hash candidates; everything else
	// cannot be a duplicate and is never read.
	if options.FindDuplicates {
		results.Duplicates = findDuplicateSets(sizeBuckets)
	}

	// Sort and keep top 5 largest files
	sort.Slice(results.LargestFiles, func(i, j int) bool {
		return results.LargestFiles[i].Size > results.LargestFiles[j].Size
	})
	if len(results.LargestFiles) > 5 {
		results.LargestFiles = results.LargestFiles[:5]
	}

	if results.Readiness.MediaFiles == 0 {
		results.Readiness = nil
	}

	results.ScanDuration = time.Since(startTime)
	return results, nil
}

// scanFolderRecursive recursively scans folder with smart filtering
func scanFolderRecursive(currentPath, relativePath string, cfg *Config, options *AnalyticsOptions, results *AnalyticsResults, sizeBuckets map[int64][]string, progress *ProgressInfo) error {
	// Check max depth
	if options.MaxDepth > 0 {
		depth := strings.Count(relativePath, string(filepath.Separator))
		if depth >= options.MaxDepth {
			return nil
		}
	}

	atomic.AddInt64(&progress.DirsScanned, 1)
	progress.CurrentDir.Store(currentPath)

	entries, err := os.ReadDir(currentPath)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		name := entry.Name()
		fullPath := filepath.Join(currentPath, name)

		// Skip hidden files/folders unless requested
		if !options.IncludeHidden && strings.HasPrefix(name, ".") {
			continue
		}

		if entry.IsDir() {
			// Check if folder should be skipped
			if shouldSkipFolder(name) {
				results.DirectoriesSkipped++
				results.SkippedFolders = append(results.SkippedFolders, name)
				continue
			}

			results.DirectoriesScanned++

			// Recurse into subdirectory
			newRelativePath := filepath.Join(relativePath, name)
			if err := scanFolderRecursive(fullPath, newRelativePath, cfg, options, results, sizeBuckets, progress); err != nil {
				// Log error but continue scanning
				fmt.Fprintf(os.Stderr, "Warning: error scanning %s: %v\n", fullPath, err)
			}
		} else {
			atomic.AddInt64(&progress.FilesScanned, 1)

			if err := analyzeFile(fullPath, cfg, results, sizeBuckets); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: error analyzing %s: %v\n", fullPath, err)
			}
		}
	}

	return nil
}

// shouldSkipFolder checks if a folder should be skipped for performance
func shouldSkipFolder(folderName string) bool {
	folderLower := strings.ToLower(folderName)

	for _, pattern := range defaultSkipPatterns {
		if folderLower == strings.ToLower(pattern) {
			return true
		}
	}

	return false
}

// displayProgress shows real-time scanning progress
func displayProgress(progress *ProgressInfo, done <-chan bool) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			// Clear the progress line and return
			fmt.Fprint(os.Stderr, "\r\033[K")
			return
		case <-ticker.C:
			files := atomic.LoadInt64(&progress.FilesScanned)
			dirs := atomic.LoadInt64(&progress.DirsScanned)
			elapsed := time.Since(progress.StartTime)

			var rate string
			if elapsed > 0 && files > 0 {
				filesPerSec := float64(files) / elapsed.Seconds()
				if filesPerSec >= 1 {
					rate = fmt.Sprintf("%.1f files/s", filesPerSec)
				} else {
					rate = fmt.Sprintf("%.1f s/file", 1/filesPerSec)
				}
			}

			// Show progress (without newline, overwrite previous)
			currentDir, _ := progress.CurrentDir.Load().(string)
			if len(currentDir) > 50 {
				currentDir = "..." + currentDir[len(currentDir)-47:]
			}

			fmt.Fprintf(os.Stderr, "\r🔍 Scanning: %d files, %d dirs | %s | %s",
				files, dirs, rate, currentDir)
		}
	}
}

// analyzeFile analyzes a single file and updates results
func analyzeFile(filePath string, cfg *Config, results *AnalyticsResults, sizeBuckets map[int64][]string) error {
	info, err := os.Stat(filePath)
	if err != nil {
		return err
	}

	results.TotalFiles++
	results.TotalSize += info.Size()

	ext := strings.ToLower(filepath.Ext(filePath))
	category := categorizeFile(ext)

	// Update category stats
	typeInfo := results.FileTypes[category]
	typeInfo.Count++
	typeInfo.TotalSize += info.Size()
	typeInfo.Extensions[ext]++

	// Track largest file in category
	if info.Size() > typeInfo.LargestSize {
		typeInfo.LargestSize = info.Size()
		typeInfo.LargestFile = filePath
	}

	// Track large files (>100MB)
	const largeSizeThreshold = 100 * 1024 * 1024
	if info.Size() > largeSizeThreshold {
		results.LargestFiles = append(results.LargestFiles, LargeFileInfo{
			Path:     filePath,
			Size:     info.Size(),
			Category: category,
		})
	}

	if cfg.SupportedMedia(filePath) {
		probeMedia(filePath, results.Readiness)
		if sizeBuckets != nil {
			sizeBuckets[info.Size()] = append(sizeBuckets[info.Size()], filePath)
		}
	}

	return nil
}

// probeMedia classifies one media file the way the import pipeline would,
// using the native EXIF decoder instead of an exiftool process.
func probeMedia(path string, r *ImportReadiness) {
	r.MediaFiles++

	dt, hasDT, hasGPS, decoded := nativeProbe(path)

	fd := ParseFilenameDate(filepath.Base(path))
	if fd != nil {
		r.MessagingApps[fd.Variant]++
	}

	switch {
	case hasDT:
		r.EmbeddedDateTime++
		r.recordDate(dt)
	case fd != nil && fd.HasTime:
		r.FilenameDateTime++
		r.recordDate(fd.DateTime())
	case fd != nil:
		r.FilenameDateOnly++
		r.recordDate(fd.Date)
	default:
		r.MissingDateTime++
	}

	switch {
	case !decoded:
		r.MetadataUnread++
	case hasGPS:
		r.EmbeddedGPS++
	default:
		r.MissingGPS++
	}
}

func (r *ImportReadiness) recordDate(t time.Time) {
	if r.Earliest.IsZero() || t.Before(r.Earliest) {
		r.Earliest = t
	}
	if r.Latest.IsZero() || t.After(r.Latest) {
		r.Latest = t
	}
}

// nativeProbe reads EXIF directly from the file header. It understands
// JPEG and TIFF; anything else reports decoded=false.
func nativeProbe(path string) (dt time.Time, hasDT, hasGPS, decoded bool) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil || x == nil {
		return
	}
	decoded = true

	if t, err := x.DateTime(); err == nil {
		dt, hasDT = t, true
	}
	if _, _, err := x.LatLong(); err == nil {
		hasGPS = true
	}
	return
}

// categorizeFile determines the category of a file based on extension
func categorizeFile(ext string) string {
	for category, extensions := range fileTypeCategories {
		for _, e := range extensions {
			if ext == e {
				return category
			}
		}
	}
	return "Other"
}

// findDuplicateSets hashes the size-collision candidates and groups files
// with identical content.
func findDuplicateSets(sizeBuckets map[int64][]string) []DuplicateSet {
	hasher := NewHasher()
	byHash := make(map[string][]string)
	sizeOf := make(map[string]int64)

	for size, files := range sizeBuckets {
		if len(files) < 2 {
			continue
		}
		for _, f := range files {
			sum, err := hasher.Fingerprint(f)
			if err != nil {
				continue
			}
			byHash[sum] = append(byHash[sum], f)
			sizeOf[sum] = size
		}
	}

	var duplicates []DuplicateSet
	for sum, files := range byHash {
		if len(files) > 1 {
			sort.Strings(files)
			duplicates = append(duplicates, DuplicateSet{
				Fingerprint: sum,
				Files:       files,
				Size:        sizeOf[sum],
			})
		}
	}

	// Largest waste first
	sort.Slice(duplicates, func(i, j int) bool {
		wi := duplicates[i].Size * int64(len(duplicates[i].Files)-1)
		wj := duplicates[j].Size * int64(len(duplicates[j].Files)-1)
		if wi != wj {
			return wi > wj
		}
		return duplicates[i].Fingerprint < duplicates[j].Fingerprint
	})
	return duplicates
}

// DisplayAnalytics formats and displays the analysis results
func DisplayAnalytics(results *AnalyticsResults, options *AnalyticsOptions) error {
	if options.Format == "json" {
		return displayJSON(results)
	}

	return displayTable(results, options)
}

// displayJSON outputs results in JSON format
func displayJSON(results *AnalyticsResults) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(results)
}

// displayTable outputs results in human-readable table format
func displayTable(results *AnalyticsResults, options *AnalyticsOptions) error {
	fmt.Printf("=== Keepsake Analytics: %s ===\n\n", results.FolderPath)

	// Overview
	fmt.Printf("📊 Overview:\n")
	fmt.Printf("  - %d total files (%s)\n", results.TotalFiles, formatBytes(results.TotalSize))
	fmt.Printf("  - %d directories scanned", results.DirectoriesScanned)
	if results.DirectoriesSkipped > 0 {
		fmt.Printf(" (%d skipped: %s)", results.DirectoriesSkipped,
			strings.Join(results.SkippedFolders[:min(3, len(results.SkippedFolders))], ", "))
		if len(results.SkippedFolders) > 3 {
			fmt.Printf("...")
		}
	}
	fmt.Printf("\n")
	fmt.Printf("  - Scan completed in %v\n\n", results.ScanDuration.Round(time.Millisecond))

	// File types
	fmt.Printf("📁 File Types:\n")

	// Sort categories by count (but keep Other at the end)
	type categoryStats struct {
		name string
		info *FileTypeInfo
	}
	var categories []categoryStats
	var otherCategory *categoryStats

	for name, info := range results.FileTypes {
		if info.Count > 0 {
			if name == "Other" {
				otherCategory = &categoryStats{name, info}
			} else {
				categories = append(categories, categoryStats{name, info})
			}
		}
	}

	sort.Slice(categories, func(i, j int) bool {
		if categories[i].info.Count != categories[j].info.Count {
			return categories[i].info.Count > categories[j].info.Count
		}
		return categories[i].name < categories[j].name
	})

	// Add Other at the end if present
	if otherCategory != nil {
		categories = append(categories, *otherCategory)
	}

	for _, cat := range categories {
		emoji := getCategoryEmoji(cat.name)
		fmt.Printf("  %s %s: %d files (%s)\n", emoji, cat.name,
			cat.info.Count, formatBytes(cat.info.TotalSize))
		displayExtensionList(cat.info.Extensions)
	}

	// Import readiness
	if r := results.Readiness; r != nil {
		fmt.Printf("\n📈 Import Readiness (%d media files):\n", r.MediaFiles)
		fmt.Printf("  - Datetime: %d embedded, %d from filename, %d date-only, %d missing\n",
			r.EmbeddedDateTime, r.FilenameDateTime, r.FilenameDateOnly, r.MissingDateTime)
		fmt.Printf("  - GPS: %d embedded, %d missing, %d not readable natively\n",
			r.EmbeddedGPS, r.MissingGPS, r.MetadataUnread)
		if len(r.MessagingApps) > 0 {
			var variants []string
			for v := range r.MessagingApps {
				variants = append(variants, v)
			}
			sort.Strings(variants)
			fmt.Printf("  - Messaging app files:\n")
			for _, v := range variants {
				fmt.Printf("    - %s: %d\n", v, r.MessagingApps[v])
			}
		}
		if !r.Earliest.IsZero() {
			fmt.Printf("  - Date range: %s to %s\n",
				r.Earliest.Format("2006-01-02"), r.Latest.Format("2006-01-02"))
		}
	}

	// Largest files (>100MB)
	if len(results.LargestFiles) > 0 {
		fmt.Printf("\n📏 Largest Files (>100MB):\n")
		for i, file := range results.LargestFiles {
			emoji := getCategoryEmoji(file.Category)
			fmt.Printf("  %d. %s %s (%s)\n", i+1, emoji, filepath.Base(file.Path), formatBytes(file.Size))
			if len(file.Path) > 60 {
				fmt.Printf("     %s\n", file.Path)
			}
		}
	}

	// Duplicates
	if options.FindDuplicates && len(results.Duplicates) > 0 {
		fmt.Printf("\n🔍 Duplicates Found (%d sets):\n", len(results.Duplicates))
		totalWaste := int64(0)
		for _, dup := range results.Duplicates {
			totalWaste += dup.Size * int64(len(dup.Files)-1)
		}
		for i, dup := range results.Duplicates[:min(5, len(results.Duplicates))] {
			fmt.Printf("  - Set %d: %d files (%s each)\n", i+1, len(dup.Files), formatBytes(dup.Size))
		}
		if len(results.Duplicates) > 5 {
			fmt.Printf("  - ... and %d more sets\n", len(results.Duplicates)-5)
		}
		fmt.Printf("  💾 Potential space savings: %s\n", formatBytes(totalWaste))
	}

	// Recommendations
	fmt.Printf("\n💡 Recommendations:\n")
	if r := results.Readiness; r != nil {
		ready := r.EmbeddedDateTime + r.FilenameDateTime
		fmt.Printf("  ✅ Ready for import: %d of %d media files (%d%%)\n",
			ready, r.MediaFiles, percentage(ready, r.MediaFiles))
		if r.FilenameDateOnly > 0 {
			fmt.Printf("  📅 Need time-of-day inference: %d date-only files\n", r.FilenameDateOnly)
		}
		if r.MissingDateTime > 0 {
			fmt.Printf("  ⚠️  No datetime anywhere: %d files would be skipped\n", r.MissingDateTime)
		}
		fmt.Printf("     Run: keepsake import %s <destination>\n", results.FolderPath)
	} else {
		fmt.Printf("  - No media files found\n")
	}

	return nil
}

// displayExtensionList shows file extensions as a bulleted list
func displayExtensionList(extensions map[string]int) {
	type extCount struct {
		ext   string
		count int
	}
	var extList []extCount

	for ext, count := range extensions {
		extList = append(extList, extCount{ext, count})
	}

	// Sort by count (descending) then by extension name
	sort.Slice(extList, func(i, j int) bool {
		if extList[i].count != extList[j].count {
			return extList[i].count > extList[j].count
		}
		return extList[i].ext < extList[j].ext
	})

	// Display up to 5 most common extensions
	displayCount := len(extList)
	if displayCount > 5 {
		displayCount = 5
	}

	for i := 0; i < displayCount; i++ {
		ext := extList[i]
		extName := strings.ToUpper(strings.TrimPrefix(ext.ext, "."))
		if extName == "" {
			extName = "(no extension)"
		}
		fmt.Printf("    - %s: %d\n", extName, ext.count)
	}

	if len(extList) > 5 {
		fmt.Printf("    - ...and %d more formats\n", len(extList)-5)
	}
}

func percentage(part, total int) int {
	if total == 0 {
		return 0
	}
	return (part * 100) / total
}

func getCategoryEmoji(category string) string {
	emojis := map[string]string{
		"Images":       "📷",
		"Videos":       "🎬",
		"Documents":    "📄",
		"Spreadsheets": "📊",
		"Text":         "📝",
		"Code":         "💻",
		"Config":       "⚙️",
		"Archives":     "🗃️",
		"Audio":        "🎵",
		"Other":        "❓",
	}
	if emoji, ok := emojis[category]; ok {
		return emoji
	}
	return "📁"
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
