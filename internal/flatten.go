package internal

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Flatten collapses a directory tree into a single flat directory. Each
// file's relative path becomes its filename, with path separators turned
// into underscores; name conflicts get numbered suffixes before the
// extension. Returns the number of files processed.
func Flatten(source, dest string, move, dryRun bool, logger *zap.Logger) (int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	info, err := os.Stat(source)
	if err != nil || !info.IsDir() {
		return 0, fmt.Errorf("source directory does not exist: %s", source)
	}

	if dryRun {
		fmt.Printf("[DRY RUN] Would flatten %s to %s\n", source, dest)
	} else if err := os.MkdirAll(dest, 0755); err != nil {
		return 0, fmt.Errorf("error creating destination: %w", err)
	}

	used := make(map[string]bool)
	processed := 0
	failed := 0

	err = filepath.WalkDir(source, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(source, path)
		if relErr != nil {
			logger.Warn("no relative path", zap.String("path", path), zap.Error(relErr))
			return nil
		}

		flat := uniqueFlatName(rel, used, dest)
		target := filepath.Join(dest, flat)

		if dryRun {
			action := "copy"
			if move {
				action = "move"
			}
			fmt.Printf("[DRY RUN] Would %s: %s -> %s\n", action, path, target)
			processed++
			return nil
		}

		var opErr error
		if move {
			opErr = MoveFile(path, target)
		} else {
			opErr = CopyFile(path, target)
		}
		if opErr != nil {
			fmt.Printf("Error processing %s: %v\n", path, opErr)
			logger.Warn("flatten failed for file", zap.String("path", path), zap.Error(opErr))
			failed++
			return nil
		}
		processed++
		logger.Debug("flattened", zap.String("source", path), zap.String("target", target))
		return nil
	})
	if err != nil {
		return processed, fmt.Errorf("error scanning files: %w", err)
	}

	verb := "were"
	if dryRun {
		verb = "would be"
	}
	fmt.Printf("\nFlatten complete: %d files %s processed\n", processed, verb)
	if failed > 0 {
		fmt.Printf("%d files were skipped due to errors\n", failed)
	}
	return processed, nil
}

// uniqueFlatName turns a relative path into a flat filename nobody in this
// run or on disk is using yet.
func uniqueFlatName(rel string, used map[string]bool, destDir string) string {
	name := strings.NewReplacer("/", "_", "\\", "_").Replace(rel)
	candidate := name
	for i := 1; used[candidate] || pathExists(filepath.Join(destDir, candidate)); i++ {
		candidate = numberedName(name, i)
	}
	used[candidate] = true
	return candidate
}

// numberedName inserts _n before the extension, or appends it when there
// is none.
func numberedName(filename string, n int) string {
	ext := filepath.Ext(filename)
	if ext == "" {
		return fmt.Sprintf("%s_%d", filename, n)
	}
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(filename, ext), n, ext)
}
