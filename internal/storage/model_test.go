package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/yungbote/motionlib-backend/internal/assetid"
)

// seedModelBundle lays out a multi-file model directory the way bundles
// arrive on disk: entry document plus meshes/textures below it.
func seedModelBundle(t *testing.T, s *Store, name string) string {
	t.Helper()
	dir := filepath.Join(s.modelsDir, name)
	for _, sub := range []string{"meshes", "textures"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	files := map[string]string{
		name + ".xml":         "<mujoco model=\"" + name + "\"/>",
		"meshes/torso.stl":    "solid torso",
		"meshes/arm.obj":      "v 0 0 0",
		"textures/skin.png":   "\x89PNG",
		"textures/notes.xml":  "<materials/>",
	}
	for rel, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	return assetid.New(name + "/" + name + ".xml")
}

func TestSaveModelRejectsExtensions(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	if _, err := s.SaveModel("x.npy", []byte("x"), ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("SaveModel(x.npy): got err=%v, want ErrInvalidInput", err)
	}
	info, err := s.SaveModel("humanoid.xml", []byte("<mujoco/>"), "Humanoid v2")
	if err != nil {
		t.Fatalf("SaveModel(humanoid.xml): %v", err)
	}
	if info.Name != "Humanoid v2" {
		t.Fatalf("display name ignored: got=%q", info.Name)
	}
}

func TestModelFilesListsBundle(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	id := seedModelBundle(t, s, "walker")

	files, err := s.ModelFiles(id)
	if err != nil {
		t.Fatalf("model files: %v", err)
	}
	want := []string{
		"meshes/arm.obj",
		"meshes/torso.stl",
		"textures/notes.xml",
		"textures/skin.png",
		"walker.xml",
	}
	if len(files) != len(want) {
		t.Fatalf("got %d files, want %d: %v", len(files), len(want), files)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Fatalf("file %d: got=%q want=%q", i, files[i], want[i])
		}
	}
}

func TestModelFileResolvesAuxFiles(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	id := seedModelBundle(t, s, "walker")

	abs, err := s.ModelFile(id, "meshes/torso.stl")
	if err != nil {
		t.Fatalf("model file: %v", err)
	}
	got, err := os.ReadFile(abs)
	if err != nil {
		t.Fatalf("read aux: %v", err)
	}
	if string(got) != "solid torso" {
		t.Fatalf("unexpected aux content: %q", got)
	}

	if _, err := s.ModelFile(id, "meshes/missing.stl"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing aux: got err=%v, want ErrNotFound", err)
	}
	if _, err := s.ModelFile(id, "meshes"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("directory sub-path: got err=%v, want ErrNotFound", err)
	}
}

func TestModelFileRejectsTraversal(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	id := seedModelBundle(t, s, "walker")

	// Plant a file outside the bundle that traversal would reach.
	outside := filepath.Join(s.modelsDir, "secret.txt")
	if err := os.WriteFile(outside, []byte("secret"), 0o644); err != nil {
		t.Fatalf("write outside file: %v", err)
	}

	cases := []string{
		"../secret.txt",
		"../../etc/passwd",
		"/etc/passwd",
		"meshes/../../secret.txt",
		`..\secret.txt`,
		"..",
		".",
	}
	for _, sub := range cases {
		if _, err := s.ModelFile(id, sub); !errors.Is(err, ErrInvalidInput) && !errors.Is(err, ErrNotFound) {
			t.Fatalf("ModelFile(%q) escaped: err=%v", sub, err)
		}
		if p, err := s.ModelFile(id, sub); err == nil {
			t.Fatalf("ModelFile(%q) returned location %q", sub, p)
		}
	}
}

func TestModelFileRejectsSymlinkEscape(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	id := seedModelBundle(t, s, "walker")

	outside := filepath.Join(s.modelsDir, "secret.txt")
	if err := os.WriteFile(outside, []byte("secret"), 0o644); err != nil {
		t.Fatalf("write outside file: %v", err)
	}
	link := filepath.Join(s.modelsDir, "walker", "meshes", "sneaky.stl")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	if _, err := s.ModelFile(id, "meshes/sneaky.stl"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("symlink escape: got err=%v, want ErrInvalidInput", err)
	}
}

func TestDeleteModelRemovesDirectoryAndThumbnail(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	id := seedModelBundle(t, s, "walker")

	if _, err := s.PutThumbnail(CategoryModels, "walker", id, "jpg", []byte("jpegdata")); err != nil {
		t.Fatalf("put thumbnail: %v", err)
	}

	found, err := s.DeleteModel(id)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !found {
		t.Fatal("delete reported not found")
	}
	if _, err := os.Stat(filepath.Join(s.modelsDir, "walker")); !os.IsNotExist(err) {
		t.Fatal("model directory survived delete")
	}
	if _, err := s.ModelThumbnail(id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("thumbnail after delete: got err=%v, want ErrNotFound", err)
	}
}

func TestDeleteRootLevelModelRemovesOnlyFile(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	info, err := s.SaveModel("simple.xml", []byte("<mujoco/>"), "")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	other, err := s.SaveModel("other.xml", []byte("<mujoco/>"), "")
	if err != nil {
		t.Fatalf("save other: %v", err)
	}

	found, err := s.DeleteModel(info.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !found {
		t.Fatal("delete reported not found")
	}
	if _, err := s.ResolveModel(other.ID); err != nil {
		t.Fatalf("sibling root-level model lost: %v", err)
	}
}

func TestThumbnailMirrorsSourceDirectory(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	id := seedModelBundle(t, s, "walker")

	p, err := s.PutThumbnail(CategoryModels, "walker", id, ".jpg", []byte("jpegdata"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	wantSuffix := filepath.Join("thumbnails", "models", "walker", id+".jpg")
	if !pathHasSuffix(p, wantSuffix) {
		t.Fatalf("thumbnail path %q does not mirror source directory (want suffix %q)", p, wantSuffix)
	}

	got, err := s.ModelThumbnail(id)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got != p {
		t.Fatalf("lookup path mismatch: got=%q want=%q", got, p)
	}
}

func pathHasSuffix(p, suffix string) bool {
	return len(p) >= len(suffix) && p[len(p)-len(suffix):] == suffix
}
