package internal

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/maruel/natural"
)

// ScanSource lists the media files an import run will consider. A single
// file is accepted as-is when its extension qualifies; a directory is
// walked, recursively unless configured otherwise. The result is in
// natural order (IMG_9 before IMG_10) so runs are reproducible and match
// how people read their camera rolls.
func ScanSource(source string, cfg *Config) ([]string, error) {
	info, err := os.Stat(source)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if !cfg.SupportedMedia(source) {
			return nil, fmt.Errorf("unsupported file type: %s", source)
		}
		return []string{source}, nil
	}

	var files []string
	if cfg.Recursive {
		err = filepath.WalkDir(source, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				return nil
			}
			if cfg.SupportedMedia(path) {
				files = append(files, path)
			}
			return nil
		})
	} else {
		var entries []fs.DirEntry
		entries, err = os.ReadDir(source)
		if err == nil {
			for _, entry := range entries {
				if entry.IsDir() {
					continue
				}
				path := filepath.Join(source, entry.Name())
				if cfg.SupportedMedia(path) {
					files = append(files, path)
				}
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("error scanning files: %w", err)
	}

	sort.Slice(files, func(i, j int) bool {
		return natural.Less(files[i], files[j])
	})
	return files, nil
}
