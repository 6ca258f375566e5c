// Package storage owns the on-disk layout of the motion library: trajectory
// files, model bundles, and the derived thumbnail cache. One Store is
// constructed at process start with its roots as configuration and passed by
// handle into every request handler and batch entry point; there is no
// ambient global state and no in-process locking (administrative,
// low-concurrency workload).
package storage

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/yungbote/motionlib-backend/internal/assetid"
	"github.com/yungbote/motionlib-backend/internal/platform/logger"
)

var trajectoryExts = map[string]bool{
	".npy": true,
	".npz": true,
}

type Store struct {
	log *logger.Logger

	trajectoriesDir string
	modelsDir       string
	thumbnailsDir   string
}

type Config struct {
	DataDir string
}

func New(cfg Config, baseLog *logger.Logger) (*Store, error) {
	if strings.TrimSpace(cfg.DataDir) == "" {
		return nil, fmt.Errorf("storage: DataDir required")
	}
	s := &Store{
		log:             baseLog.With("service", "Store"),
		trajectoriesDir: filepath.Join(cfg.DataDir, CategoryTrajectories),
		modelsDir:       filepath.Join(cfg.DataDir, CategoryModels),
		thumbnailsDir:   filepath.Join(cfg.DataDir, "thumbnails"),
	}
	for _, dir := range []string{
		s.trajectoriesDir,
		s.modelsDir,
		filepath.Join(s.thumbnailsDir, CategoryModels),
		filepath.Join(s.thumbnailsDir, CategoryTrajectories),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("storage: create %s: %w", dir, err)
		}
	}
	return s, nil
}

// ListTrajectories enumerates every trajectory file under the trajectories
// root, optionally filtered by category tag (the first path segment).
// Ordering is directory-walk order: lexical, stable for a given tree.
func (s *Store) ListTrajectories(category string) ([]TrajectoryInfo, error) {
	out := []TrajectoryInfo{}
	err := s.walkTrajectories(func(rel, abs string, size int64) {
		info := trajectoryInfoFor(rel, size)
		if category != "" && info.Category != category {
			return
		}
		out = append(out, info)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ResolveTrajectory reverse-maps an identifier to a file location by
// recomputing identifiers over every candidate. Linear scan; the corpus is
// small and writes are rare, and there is no separate index to drift.
func (s *Store) ResolveTrajectory(id string) (string, error) {
	found := ""
	err := s.walkTrajectories(func(rel, abs string, size int64) {
		if found == "" && assetid.New(rel) == id {
			found = abs
		}
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", ErrNotFound
	}
	return found, nil
}

// TrajectoryByID returns the summary for one identifier, or ErrNotFound.
func (s *Store) TrajectoryByID(id string) (TrajectoryInfo, error) {
	var found *TrajectoryInfo
	err := s.walkTrajectories(func(rel, abs string, size int64) {
		if found == nil && assetid.New(rel) == id {
			info := trajectoryInfoFor(rel, size)
			found = &info
		}
	})
	if err != nil {
		return TrajectoryInfo{}, err
	}
	if found == nil {
		return TrajectoryInfo{}, ErrNotFound
	}
	return *found, nil
}

// SaveTrajectory writes uploaded content verbatim. The filename must be a
// bare name with a recognized array-container extension; the optional
// category becomes a subdirectory. Existing content at the same path is
// replaced, which makes any cached thumbnail for that identifier stale
// until the next explicit regeneration.
func (s *Store) SaveTrajectory(filename string, content []byte, category string) (TrajectoryInfo, error) {
	if err := validateBareName(filename); err != nil {
		return TrajectoryInfo{}, err
	}
	if !trajectoryExts[strings.ToLower(filepath.Ext(filename))] {
		return TrajectoryInfo{}, fmt.Errorf("%w: only .npy and .npz files are supported", ErrInvalidInput)
	}
	rel := filename
	if category != "" {
		if err := validateBareName(category); err != nil {
			return TrajectoryInfo{}, err
		}
		rel = category + "/" + filename
	}
	abs := filepath.Join(s.trajectoriesDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return TrajectoryInfo{}, fmt.Errorf("storage: create category dir: %w", err)
	}
	if err := os.WriteFile(abs, content, 0o644); err != nil {
		return TrajectoryInfo{}, fmt.Errorf("storage: write trajectory: %w", err)
	}
	s.log.Info("trajectory saved", "path", rel, "size_bytes", len(content))
	return trajectoryInfoFor(rel, int64(len(content))), nil
}

// DeleteTrajectory removes the file and any cached thumbnail sharing the
// identifier. Returns false when the identifier resolves to nothing.
func (s *Store) DeleteTrajectory(id string) (bool, error) {
	abs, err := s.ResolveTrajectory(id)
	if err != nil {
		if err == ErrNotFound {
			return false, nil
		}
		return false, err
	}
	if err := os.Remove(abs); err != nil {
		return false, fmt.Errorf("storage: delete trajectory: %w", err)
	}
	if err := s.removeThumbnails(CategoryTrajectories, id); err != nil {
		return false, err
	}
	s.log.Info("trajectory deleted", "id", id)
	return true, nil
}

func (s *Store) walkTrajectories(visit func(rel, abs string, size int64)) error {
	return filepath.WalkDir(s.trajectoriesDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !trajectoryExts[strings.ToLower(filepath.Ext(d.Name()))] {
			return nil
		}
		rel, err := filepath.Rel(s.trajectoriesDir, p)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		visit(filepath.ToSlash(rel), p, info.Size())
		return nil
	})
}

func trajectoryInfoFor(rel string, size int64) TrajectoryInfo {
	category := ""
	if i := strings.IndexByte(rel, '/'); i >= 0 {
		category = rel[:i]
	}
	base := rel[strings.LastIndexByte(rel, '/')+1:]
	return TrajectoryInfo{
		ID:        assetid.New(rel),
		Name:      base,
		Path:      rel,
		Category:  category,
		SizeBytes: size,
	}
}

// validateBareName rejects anything that could change the directory an
// upload lands in: separators, parent references, absolute paths.
func validateBareName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidInput)
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%w: name must not contain path separators", ErrInvalidInput)
	}
	return nil
}
