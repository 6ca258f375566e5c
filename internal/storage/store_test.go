package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/yungbote/motionlib-backend/internal/assetid"
	"github.com/yungbote/motionlib-backend/internal/platform/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	s, err := New(Config{DataDir: t.TempDir()}, log)
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	return s
}

func TestSaveTrajectoryRoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	content := []byte{0x93, 'N', 'U', 'M', 'P', 'Y', 1, 2, 3}
	info, err := s.SaveTrajectory("walk.npy", content, "locomotion")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if info.Path != "locomotion/walk.npy" {
		t.Fatalf("unexpected path: got=%q", info.Path)
	}
	if info.ID != assetid.New("locomotion/walk.npy") {
		t.Fatalf("identifier not derived from relative path: got=%q", info.ID)
	}
	if info.Category != "locomotion" {
		t.Fatalf("unexpected category: got=%q", info.Category)
	}

	abs, err := s.ResolveTrajectory(info.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	got, err := os.ReadFile(abs)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(got) != string(content) {
		t.Fatal("resolved file content differs from saved bytes")
	}
}

func TestSaveTrajectoryRejectsExtensions(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	cases := []string{"x.txt", "x.xml", "x", "x.npy.bak"}
	for _, name := range cases {
		if _, err := s.SaveTrajectory(name, []byte("data"), ""); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("SaveTrajectory(%q): got err=%v, want ErrInvalidInput", name, err)
		}
	}
	if _, err := s.SaveTrajectory("ok.npz", []byte("data"), ""); err != nil {
		t.Fatalf("SaveTrajectory(ok.npz): %v", err)
	}
}

func TestSaveTrajectoryRejectsPathyNames(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	for _, name := range []string{"../escape.npy", "a/b.npy", `a\b.npy`} {
		if _, err := s.SaveTrajectory(name, []byte("x"), ""); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("SaveTrajectory(%q): got err=%v, want ErrInvalidInput", name, err)
		}
	}
	if _, err := s.SaveTrajectory("walk.npy", []byte("x"), "../evil"); !errors.Is(err, ErrInvalidInput) {
		t.Fatal("category with parent reference accepted")
	}
}

func TestListTrajectoriesFiltersByCategory(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	mustSaveTrajectory(t, s, "walk.npy", "locomotion")
	mustSaveTrajectory(t, s, "run.npy", "locomotion")
	mustSaveTrajectory(t, s, "wave.npz", "gestures")
	mustSaveTrajectory(t, s, "root.npy", "")

	all, err := s.ListTrajectories("")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("list all: got=%d entries, want 4", len(all))
	}

	loco, err := s.ListTrajectories("locomotion")
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(loco) != 2 {
		t.Fatalf("list filtered: got=%d entries, want 2", len(loco))
	}
	for _, info := range loco {
		if info.Category != "locomotion" {
			t.Fatalf("filter leaked category %q", info.Category)
		}
	}

	// Walk order is lexical, so repeated listings agree.
	again, err := s.ListTrajectories("")
	if err != nil {
		t.Fatalf("list again: %v", err)
	}
	for i := range all {
		if all[i].Path != again[i].Path {
			t.Fatalf("listing order unstable at %d: %q vs %q", i, all[i].Path, again[i].Path)
		}
	}
}

func TestResolveTrajectoryNotFound(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	if _, err := s.ResolveTrajectory("deadbeefdeadbeef"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got err=%v, want ErrNotFound", err)
	}
}

func TestDeleteTrajectoryInvalidatesThumbnail(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	info := mustSaveTrajectory(t, s, "walk.npy", "locomotion")
	if _, err := s.PutThumbnail(CategoryTrajectories, "locomotion", info.ID, "gif", []byte("gifdata")); err != nil {
		t.Fatalf("put thumbnail: %v", err)
	}
	if _, err := s.TrajectoryThumbnail(info.ID); err != nil {
		t.Fatalf("thumbnail lookup before delete: %v", err)
	}

	found, err := s.DeleteTrajectory(info.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !found {
		t.Fatal("delete reported not found for existing trajectory")
	}
	if _, err := s.ResolveTrajectory(info.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("resolve after delete: got err=%v, want ErrNotFound", err)
	}
	if _, err := s.TrajectoryThumbnail(info.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("thumbnail after delete: got err=%v, want ErrNotFound", err)
	}

	found, err = s.DeleteTrajectory(info.ID)
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if found {
		t.Fatal("second delete reported found")
	}
}

func TestThumbnailCacheRootRemovedOutOfBand(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	info := mustSaveTrajectory(t, s, "walk.npy", "locomotion")
	if err := os.RemoveAll(s.thumbnailsDir); err != nil {
		t.Fatalf("remove cache root: %v", err)
	}

	// Reads on a vanished cache look like an empty cache.
	if _, err := s.TrajectoryThumbnail(info.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("thumbnail lookup: got err=%v, want ErrNotFound", err)
	}
	if _, err := s.ModelThumbnail(info.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("model thumbnail lookup: got err=%v, want ErrNotFound", err)
	}

	// Deletes still invalidate cleanly with nothing to remove.
	found, err := s.DeleteTrajectory(info.ID)
	if err != nil {
		t.Fatalf("delete with missing cache root: %v", err)
	}
	if !found {
		t.Fatal("delete reported not found")
	}
}

func TestCategoriesDoNotCross(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	// The same relative path in both categories legally yields the same
	// identifier; resolution must still stay inside its own category.
	if _, err := s.SaveModel("shared.xml", []byte("<mujoco/>"), ""); err != nil {
		t.Fatalf("save model: %v", err)
	}
	id := assetid.New("shared.xml")
	if _, err := s.ResolveTrajectory(id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("trajectory resolve crossed into models: err=%v", err)
	}
	if _, err := s.ResolveModel(id); err != nil {
		t.Fatalf("model resolve: %v", err)
	}
}

func TestTrajectoryAbsConfinement(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	info := mustSaveTrajectory(t, s, "walk.npy", "locomotion")
	abs, err := s.TrajectoryAbs(info.Path)
	if err != nil {
		t.Fatalf("abs: %v", err)
	}
	if filepath.Base(abs) != "walk.npy" {
		t.Fatalf("unexpected abs path: %q", abs)
	}
	if _, err := s.TrajectoryAbs("../models/shared.xml"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("escaping rel path accepted: err=%v", err)
	}
	if _, err := s.TrajectoryAbs("missing.npy"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing rel path: got err=%v, want ErrNotFound", err)
	}
}

func mustSaveTrajectory(t *testing.T, s *Store, name, category string) TrajectoryInfo {
	t.Helper()
	info, err := s.SaveTrajectory(name, []byte("payload-"+name), category)
	if err != nil {
		t.Fatalf("save %s: %v", name, err)
	}
	return info
}
