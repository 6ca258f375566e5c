package storage

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Thumbnail artifacts are pure cache: regenerable from the source asset, a
// model reference, and a camera configuration. The cache mirrors the source
// asset's relative directory under thumbnails/<category>/ and names files
// by asset identifier, so it shares the identifier collision domain with
// the assets themselves. There is no freshness check against the source;
// staleness is handled by delete-time invalidation and manual
// regeneration.

var thumbnailExts = []string{".webp", ".gif", ".png", ".jpg", ".jpeg"}

// ModelThumbnail returns the cached thumbnail location for a model
// identifier, or ErrNotFound.
func (s *Store) ModelThumbnail(id string) (string, error) {
	return s.findThumbnail(CategoryModels, id)
}

// TrajectoryThumbnail returns the cached animation location for a
// trajectory identifier, or ErrNotFound.
func (s *Store) TrajectoryThumbnail(id string) (string, error) {
	return s.findThumbnail(CategoryTrajectories, id)
}

// PutThumbnail stores a rendered artifact under
// thumbnails/<category>/<relDir>/<id>.<ext>, mirroring the source asset's
// directory. relDir may be empty for assets at a category root.
func (s *Store) PutThumbnail(category, relDir, id, ext string, data []byte) (string, error) {
	if category != CategoryModels && category != CategoryTrajectories {
		return "", fmt.Errorf("%w: unknown thumbnail category %q", ErrInvalidInput, category)
	}
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	dir := filepath.Join(s.thumbnailsDir, category, filepath.FromSlash(relDir))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: create thumbnail dir: %w", err)
	}
	p := filepath.Join(dir, id+"."+ext)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write thumbnail: %w", err)
	}
	return p, nil
}

func (s *Store) findThumbnail(category, id string) (string, error) {
	root := filepath.Join(s.thumbnailsDir, category)
	found := ""
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || found != "" {
			return nil
		}
		if thumbnailBaseMatches(d.Name(), id) {
			found = p
		}
		return nil
	})
	if err != nil {
		// A cache root removed out-of-band reads the same as an empty one.
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", err
	}
	if found == "" {
		return "", ErrNotFound
	}
	return found, nil
}

// removeThumbnails enforces the delete-invalidation invariant: when an
// asset goes away, every cached artifact under its identifier goes with
// it.
func (s *Store) removeThumbnails(category, id string) error {
	root := filepath.Join(s.thumbnailsDir, category)
	stale := []string{}
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if thumbnailBaseMatches(d.Name(), id) {
			stale = append(stale, p)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, p := range stale {
		if err := os.Remove(p); err != nil {
			return fmt.Errorf("storage: remove stale thumbnail: %w", err)
		}
	}
	return nil
}

func thumbnailBaseMatches(name, id string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range thumbnailExts {
		if ext == e {
			return strings.TrimSuffix(name, filepath.Ext(name)) == id
		}
	}
	return false
}
