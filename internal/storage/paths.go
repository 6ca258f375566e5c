package storage

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// The batch pipeline addresses assets by category-relative path (the same
// strings the identifiers are derived from). These accessors confine those
// paths to their category root before handing back absolute locations.

// TrajectoryAbs resolves a category-relative trajectory path to an absolute
// location, verifying confinement and existence.
func (s *Store) TrajectoryAbs(rel string) (string, error) {
	return confinedFile(s.trajectoriesDir, rel)
}

// ModelAbs resolves a category-relative model entry-document path to an
// absolute location, verifying confinement and existence.
func (s *Store) ModelAbs(rel string) (string, error) {
	return confinedFile(s.modelsDir, rel)
}

// TrajectoriesInFolder lists trajectory files directly inside one folder
// under the trajectories root (non-recursive), for batch rendering.
func (s *Store) TrajectoriesInFolder(relDir string) ([]TrajectoryInfo, error) {
	cleaned, err := confineRel(relDir)
	if err != nil {
		return nil, err
	}
	dir := s.trajectoriesDir
	if cleaned != "." {
		dir = filepath.Join(dir, filepath.FromSlash(cleaned))
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("storage: read trajectory folder: %w", err)
	}
	out := []TrajectoryInfo{}
	for _, e := range entries {
		if e.IsDir() || !trajectoryExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		rel := e.Name()
		if cleaned != "." {
			rel = cleaned + "/" + e.Name()
		}
		out = append(out, trajectoryInfoFor(rel, info.Size()))
	}
	return out, nil
}

func confinedFile(root, rel string) (string, error) {
	cleaned, err := confineRel(rel)
	if err != nil {
		return "", err
	}
	abs := filepath.Join(root, filepath.FromSlash(cleaned))
	fi, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("storage: stat %s: %w", rel, err)
	}
	if fi.IsDir() {
		return "", ErrNotFound
	}
	return abs, nil
}

func confineRel(rel string) (string, error) {
	cleaned := path.Clean(strings.ReplaceAll(rel, `\`, "/"))
	if cleaned == "" || strings.HasPrefix(cleaned, "/") ||
		cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: path escapes category root", ErrInvalidInput)
	}
	return cleaned, nil
}
