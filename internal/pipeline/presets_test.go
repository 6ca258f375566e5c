package pipeline

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPresets(t *testing.T) {
	t.Parallel()
	p := filepath.Join(t.TempDir(), "cameras.yaml")
	body := `
side:
  camera: side_view
closeup:
  distance: 1.5
  elevation: -10
  lookat: [0.5, 0, 0.8]
`
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write presets: %v", err)
	}

	presets, err := LoadPresets(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	side, ok := presets["side"]
	if !ok {
		t.Fatal("side preset missing")
	}
	if side.Name != "side_view" {
		t.Fatalf("side camera name: got=%q", side.Name)
	}
	if side.Distance != 3.0 || side.Azimuth != 45 || side.Elevation != -20 {
		t.Fatalf("side preset lost default framing: %+v", side)
	}

	closeup := presets["closeup"]
	if closeup.Distance != 1.5 || closeup.Elevation != -10 {
		t.Fatalf("closeup overrides not applied: %+v", closeup)
	}
	if closeup.Azimuth != 45 {
		t.Fatalf("closeup azimuth should keep default: %+v", closeup)
	}
	if closeup.LookAt != [3]float64{0.5, 0, 0.8} {
		t.Fatalf("closeup lookat: %+v", closeup.LookAt)
	}
}

func TestLoadPresetsRejectsBadFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if _, err := LoadPresets(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("missing file accepted")
	}

	p := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(p, []byte("side: [not, a, map"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadPresets(p); err == nil {
		t.Fatal("malformed yaml accepted")
	}
}
