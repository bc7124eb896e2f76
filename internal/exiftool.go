package internal

import (
	"fmt"

	exiftool "github.com/barasher/go-exiftool"
	"go.uber.org/zap"
)

// TagCodec reads and writes raw metadata tag maps. The pipeline and the
// registry depend on this interface, not on exiftool, so tests can run
// against an in-memory implementation.
type TagCodec interface {
	// ReadTags returns the raw tag map. Unreadable or tagless files yield
	// an empty map, never an error; missing metadata is an expected state.
	ReadTags(path string) map[string]any

	// WriteTags applies the given tags and reports success. keepBackup
	// leaves an "_original" copy of the file next to it.
	WriteTags(path string, tags map[string]any, keepBackup bool) bool

	Close() error
}

// ExifTool is the exiftool-backed TagCodec. It holds two stay-open
// exiftool conversations, one writing in place and one keeping backups,
// because backup behavior is fixed per conversation.
type ExifTool struct {
	overwrite *exiftool.Exiftool
	backup    *exiftool.Exiftool
	log       *zap.Logger
}

// NewExifTool starts the exiftool sidecar processes. An error here means
// the binary is missing or broken, which has to stop the run before any
// file is touched.
func NewExifTool(logger *zap.Logger) (*ExifTool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	overwrite, err := exiftool.NewExiftool(exiftool.NoPrintConversion())
	if err != nil {
		return nil, fmt.Errorf("starting exiftool: %w", err)
	}
	backup, err := exiftool.NewExiftool(exiftool.NoPrintConversion(), exiftool.BackupOriginal())
	if err != nil {
		overwrite.Close()
		return nil, fmt.Errorf("starting exiftool (backup mode): %w", err)
	}
	return &ExifTool{overwrite: overwrite, backup: backup, log: logger}, nil
}

func (e *ExifTool) ReadTags(path string) map[string]any {
	fms := e.overwrite.ExtractMetadata(path)
	if len(fms) == 0 || fms[0].Err != nil || fms[0].Fields == nil {
		if len(fms) > 0 && fms[0].Err != nil {
			e.log.Debug("metadata not readable",
				zap.String("file", path), zap.Error(fms[0].Err))
		}
		return map[string]any{}
	}
	return fms[0].Fields
}

func (e *ExifTool) WriteTags(path string, tags map[string]any, keepBackup bool) bool {
	fm := exiftool.EmptyFileMetadata()
	fm.File = path
	for k, v := range tags {
		switch val := v.(type) {
		case float64:
			fm.SetFloat(k, val)
		case int:
			fm.SetFloat(k, float64(val))
		default:
			fm.SetString(k, stringValue(v))
		}
	}

	et := e.overwrite
	if keepBackup {
		et = e.backup
	}
	fms := []exiftool.FileMetadata{fm}
	et.WriteMetadata(fms)
	if fms[0].Err != nil {
		e.log.Warn("metadata write failed",
			zap.String("file", path), zap.Error(fms[0].Err))
		return false
	}
	return true
}

func (e *ExifTool) Close() error {
	err := e.overwrite.Close()
	if berr := e.backup.Close(); err == nil {
		err = berr
	}
	return err
}
