package storage

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yungbote/motionlib-backend/internal/assetid"
)

const modelExt = ".xml"

// ListModels enumerates every model entry document under the models root.
func (s *Store) ListModels() ([]ModelInfo, error) {
	out := []ModelInfo{}
	err := s.walkModels(func(rel, abs string, size int64) {
		out = append(out, modelInfoFor(rel, size))
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ResolveModel reverse-maps an identifier to the entry document location.
func (s *Store) ResolveModel(id string) (string, error) {
	found := ""
	err := s.walkModels(func(rel, abs string, size int64) {
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

// ModelByID returns the summary for one identifier, or ErrNotFound.
func (s *Store) ModelByID(id string) (ModelInfo, error) {
	var found *ModelInfo
	err := s.walkModels(func(rel, abs string, size int64) {
		if found == nil && assetid.New(rel) == id {
			info := modelInfoFor(rel, size)
			found = &info
		}
	})
	if err != nil {
		return ModelInfo{}, err
	}
	if found == nil {
		return ModelInfo{}, ErrNotFound
	}
	return *found, nil
}

// SaveModel writes an uploaded entry document verbatim into the models
// root. Auxiliary bundle files (meshes, textures) are provisioned alongside
// the document out of band; the document is the unit of identity.
func (s *Store) SaveModel(filename string, content []byte, displayName string) (ModelInfo, error) {
	if err := validateBareName(filename); err != nil {
		return ModelInfo{}, err
	}
	if strings.ToLower(filepath.Ext(filename)) != modelExt {
		return ModelInfo{}, fmt.Errorf("%w: only .xml files are supported", ErrInvalidInput)
	}
	abs := filepath.Join(s.modelsDir, filename)
	if err := os.WriteFile(abs, content, 0o644); err != nil {
		return ModelInfo{}, fmt.Errorf("storage: write model: %w", err)
	}
	info := modelInfoFor(filename, int64(len(content)))
	if strings.TrimSpace(displayName) != "" {
		info.Name = strings.TrimSpace(displayName)
	}
	s.log.Info("model saved", "path", info.Path, "size_bytes", len(content))
	return info, nil
}

// DeleteModel removes the model and any cached thumbnail sharing the
// identifier. A model that lives in its own subdirectory is removed as a
// whole directory, since auxiliary files have no identity of their own; an
// entry document sitting directly in the models root is removed alone.
func (s *Store) DeleteModel(id string) (bool, error) {
	abs, err := s.ResolveModel(id)
	if err != nil {
		if err == ErrNotFound {
			return false, nil
		}
		return false, err
	}
	dir := filepath.Dir(abs)
	if dir == s.modelsDir {
		if err := os.Remove(abs); err != nil {
			return false, fmt.Errorf("storage: delete model: %w", err)
		}
	} else {
		if err := os.RemoveAll(dir); err != nil {
			return false, fmt.Errorf("storage: delete model directory: %w", err)
		}
	}
	if err := s.removeThumbnails(CategoryModels, id); err != nil {
		return false, err
	}
	s.log.Info("model deleted", "id", id)
	return true, nil
}

// ModelFiles lists every file under the model's directory as sorted
// forward-slash paths relative to that directory, for auxiliary-asset
// serving.
func (s *Store) ModelFiles(id string) ([]string, error) {
	entry, err := s.ResolveModel(id)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(entry)
	if dir == s.modelsDir {
		return []string{filepath.Base(entry)}, nil
	}
	files := []string{}
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// ModelFile resolves a sub-path inside a model's directory. Any sub-path
// that escapes the directory is rejected before touching the filesystem:
// parent-directory segments, absolute paths, and symlink targets outside
// the directory. This is a security boundary, not a convenience check.
func (s *Store) ModelFile(id, subPath string) (string, error) {
	entry, err := s.ResolveModel(id)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(entry)
	if dir == s.modelsDir {
		// Root-level model: the bundle is the single entry document.
		if subPath == filepath.Base(entry) {
			return entry, nil
		}
		return "", ErrNotFound
	}

	cleaned := path.Clean(strings.ReplaceAll(subPath, `\`, "/"))
	if cleaned == "" || cleaned == "." || strings.HasPrefix(cleaned, "/") ||
		cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: sub-path escapes model directory", ErrInvalidInput)
	}

	abs := filepath.Join(dir, filepath.FromSlash(cleaned))
	if rel, err := filepath.Rel(dir, abs); err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: sub-path escapes model directory", ErrInvalidInput)
	}

	fi, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("storage: stat model file: %w", err)
	}
	if fi.IsDir() {
		return "", ErrNotFound
	}

	// A symlink inside the bundle must not point outside of it.
	resolvedDir, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return "", fmt.Errorf("storage: resolve model directory: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("storage: resolve model file: %w", err)
	}
	if rel, err := filepath.Rel(resolvedDir, resolved); err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: sub-path escapes model directory", ErrInvalidInput)
	}
	return abs, nil
}

func (s *Store) walkModels(visit func(rel, abs string, size int64)) error {
	return filepath.WalkDir(s.modelsDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.ToLower(filepath.Ext(d.Name())) != modelExt {
			return nil
		}
		rel, err := filepath.Rel(s.modelsDir, p)
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

func modelInfoFor(rel string, size int64) ModelInfo {
	base := rel[strings.LastIndexByte(rel, '/')+1:]
	return ModelInfo{
		ID:        assetid.New(rel),
		Name:      strings.TrimSuffix(base, filepath.Ext(base)),
		Path:      rel,
		SizeBytes: size,
	}
}
