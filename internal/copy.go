package internal

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// copyFileAtomic copies a file atomically (copy temp → rename)
func copyFileAtomic(src, dest string) error {
	tmp := dest + ".tmp"
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(tmp)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, dest)
}

// CopyFile copies src into place, creating parent directories and carrying
// the source modification time over to the copy.
func CopyFile(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(dest), err)
	}
	mtime, mtimeErr := fileModTime(src)
	if err := copyFileAtomic(src, dest); err != nil {
		return fmt.Errorf("failed to copy file %s to %s: %w", src, dest, err)
	}
	if mtimeErr == nil {
		restoreModTime(dest, mtime)
	}
	return nil
}

// MoveFile renames src into place. A rename across filesystems fails, so
// it falls back to copy plus remove.
func MoveFile(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(dest), err)
	}
	if err := os.Rename(src, dest); err == nil {
		return nil
	}
	if err := CopyFile(src, dest); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("moved %s but could not remove the source: %w", src, err)
	}
	return nil
}

// fileModTime returns the file's modification time.
func fileModTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// restoreModTime puts a saved modification time back after metadata writes
// touched the file. The access time is set to the same value; there is no
// portable way to read the real one.
func restoreModTime(path string, mtime time.Time) error {
	return os.Chtimes(path, mtime, mtime)
}
