package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

const (
	defaultFolderPattern   = "{year}-{month:02d}-{month_name_short}"
	defaultFilenamePattern = "{year}-{month:02d}-{day:02d}_{hour:02d}-{min:02d}-{sec:02d}-{original_name}"
)

// Config holds everything an import run needs. The mapstructure-tagged
// fields load from keepsake.toml; the rest is filled in from flags by the
// commands before Validate runs.
type Config struct {
	FolderPattern   string   `mapstructure:"folder_pattern"`
	FilenamePattern string   `mapstructure:"filename_pattern"`
	ImageExt        []string `mapstructure:"image_extensions"`
	VideoExt        []string `mapstructure:"video_extensions"`
	DefaultLocation string   `mapstructure:"default_location"`
	SkipLocation    bool     `mapstructure:"skip_location"`
	CollectSkipped  bool     `mapstructure:"collect_skipped"`
	ReportDir       string   `mapstructure:"report_dir"`
	Verbose         bool     `mapstructure:"verbose"`

	Source         string `mapstructure:"-"`
	Destination    string `mapstructure:"-"`
	MoveFiles      bool   `mapstructure:"-"`
	DryRun         bool   `mapstructure:"-"`
	NonInteractive bool   `mapstructure:"-"`
	SkipDuplicates bool   `mapstructure:"-"`
	ImagesOnly     bool   `mapstructure:"-"`
	VideosOnly     bool   `mapstructure:"-"`
	Recursive      bool   `mapstructure:"-"`
	SaveReport     bool   `mapstructure:"-"`

	defaultLat *float64
	defaultLon *float64
}

func defaultImageExtensions() []string {
	return []string{
		".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".tif", ".webp",
		".heic", ".heif", ".raw", ".cr2", ".cr3", ".nef", ".arw", ".dng",
		".orf", ".rw2", ".pef", ".srw",
	}
}

func defaultVideoExtensions() []string {
	return []string{
		".mp4", ".mov", ".avi", ".mkv", ".wmv", ".flv", ".webm", ".m4v",
		".3gp", ".3g2", ".mts", ".m2ts", ".ts",
	}
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("keepsake")
	viper.SetConfigType("toml")
	if configDir, err := os.UserConfigDir(); err == nil {
		viper.AddConfigPath(filepath.Join(configDir, "keepsake"))
	}
	viper.AddConfigPath(".")

	// Set defaults:
	viper.SetDefault("folder_pattern", defaultFolderPattern)
	viper.SetDefault("filename_pattern", defaultFilenamePattern)
	viper.SetDefault("image_extensions", defaultImageExtensions())
	viper.SetDefault("video_extensions", defaultVideoExtensions())
	viper.SetDefault("default_location", "")
	viper.SetDefault("skip_location", false)
	viper.SetDefault("collect_skipped", true)
	viper.SetDefault("report_dir", "")
	viper.SetDefault("verbose", false)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Flag-only fields start from their conventional defaults.
	cfg.SkipDuplicates = true
	cfg.Recursive = true
	cfg.SaveReport = true
	return cfg, nil
}

// Validate fails fast on anything that would make the run nonsensical.
// Nothing may be touched on disk before this passes.
func (c *Config) Validate() error {
	if c.Source == "" {
		return fmt.Errorf("source folder is required")
	}
	if _, err := os.Stat(c.Source); err != nil {
		return fmt.Errorf("source does not exist: %s", c.Source)
	}
	if c.Destination == "" {
		return fmt.Errorf("destination folder is required")
	}
	if strings.TrimSpace(c.FolderPattern) == "" {
		return fmt.Errorf("folder pattern must not be empty")
	}
	if strings.TrimSpace(c.FilenamePattern) == "" {
		return fmt.Errorf("filename pattern must not be empty")
	}
	if c.ImagesOnly && c.VideosOnly {
		return fmt.Errorf("images-only and videos-only are mutually exclusive")
	}
	if c.DefaultLocation != "" {
		lat, lon, err := ParseLocation(c.DefaultLocation)
		if err != nil {
			return err
		}
		c.defaultLat, c.defaultLon = &lat, &lon
	}
	return nil
}

// ParseLocation parses a "lat,lon" pair and range-checks it.
func ParseLocation(s string) (float64, float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("location must be \"lat,lon\", got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude %q", strings.TrimSpace(parts[0]))
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude %q", strings.TrimSpace(parts[1]))
	}
	if lat < -90 || lat > 90 {
		return 0, 0, fmt.Errorf("latitude out of range: %v", lat)
	}
	if lon < -180 || lon > 180 {
		return 0, 0, fmt.Errorf("longitude out of range: %v", lon)
	}
	return lat, lon, nil
}

// DefaultCoordinates returns the parsed default location, nil when unset.
// Validate has to run first.
func (c *Config) DefaultCoordinates() (*float64, *float64) {
	return c.defaultLat, c.defaultLon
}

// SupportedMedia reports whether a path's extension is importable under
// the current image/video filters.
func (c *Config) SupportedMedia(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return false
	}
	if !c.VideosOnly && containsExt(c.ImageExt, ext) {
		return true
	}
	if !c.ImagesOnly && containsExt(c.VideoExt, ext) {
		return true
	}
	return false
}

// IsImage ignores the only-filters; analytics wants the raw class.
func (c *Config) IsImage(path string) bool {
	return containsExt(c.ImageExt, strings.ToLower(filepath.Ext(path)))
}

func (c *Config) IsVideo(path string) bool {
	return containsExt(c.VideoExt, strings.ToLower(filepath.Ext(path)))
}

func containsExt(list []string, ext string) bool {
	for _, e := range list {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

// Interactive reports whether prompting the user is possible in this run.
func (c *Config) Interactive() bool {
	return !c.DryRun && !c.NonInteractive
}

// EffectiveReportDir is where run artifacts land, DEST/reports by default.
func (c *Config) EffectiveReportDir() string {
	if c.ReportDir != "" {
		return c.ReportDir
	}
	return filepath.Join(c.Destination, "reports")
}
