package internal

import (
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Registry tracks what has already been imported, by filename identity and
// by content fingerprint. Both maps live for one run only; there is no
// index file. The identity map is rebuilt from provenance tags in the
// destination tree, which keeps re-runs cheap: a previously imported file
// is recognized by a map lookup before anything gets hashed.
type Registry struct {
	processed map[string]string // filename identity -> destination path
	contents  map[string]string // content fingerprint -> first-seen path
	hasher    *Hasher
}

func NewRegistry(hasher *Hasher) *Registry {
	return &Registry{
		processed: make(map[string]string),
		contents:  make(map[string]string),
		hasher:    hasher,
	}
}

// LookupProcessed reports whether any of the given identities was imported
// before, and where to. Empty identities are ignored.
func (r *Registry) LookupProcessed(identities ...string) (string, bool) {
	for _, id := range identities {
		if id == "" {
			continue
		}
		if dest, ok := r.processed[id]; ok {
			return dest, true
		}
	}
	return "", false
}

func (r *Registry) RegisterProcessed(identity, dest string) {
	if identity == "" {
		return
	}
	r.processed[identity] = dest
}

// CheckAndRegisterContent fingerprints the file and reports whether the
// same content was already seen this run, and where. The first sighting
// registers itself.
func (r *Registry) CheckAndRegisterContent(path string) (bool, string, string, error) {
	sum, err := r.hasher.Fingerprint(path)
	if err != nil {
		return false, "", "", err
	}
	if existing, ok := r.contents[sum]; ok {
		return true, existing, sum, nil
	}
	r.contents[sum] = path
	return false, "", sum, nil
}

// BuildFromDestination walks the destination tree and registers every
// media file that carries an original-filename provenance tag, under both
// its original and alternate names. The reports directory is run
// bookkeeping, not library content, and is left out. A destination that
// does not exist yet registers nothing.
func (r *Registry) BuildFromDestination(root string, codec TagCodec, cfg *Config, logger *zap.Logger) (int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return 0, nil
	}

	reportsDir := filepath.Join(root, "reports")
	count := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			logger.Debug("destination scan skipping entry", zap.String("path", path), zap.Error(walkErr))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path == reportsDir {
				return fs.SkipDir
			}
			return nil
		}
		if !cfg.SupportedMedia(path) {
			return nil
		}

		md := ResolveMetadata(codec.ReadTags(path))
		if md.OriginalName == "" && md.AlternateName == "" {
			return nil
		}
		r.RegisterProcessed(md.OriginalName, path)
		r.RegisterProcessed(md.AlternateName, path)
		count++
		return nil
	})
	return count, err
}
