package pipeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/motionlib-backend/internal/renderer"
)

// cameraPreset is one entry of the optional presets YAML file. Omitted
// numeric fields keep the standard framing, so presets only state what
// they change.
type cameraPreset struct {
	Camera    string      `yaml:"camera"`
	Distance  *float64    `yaml:"distance"`
	Azimuth   *float64    `yaml:"azimuth"`
	Elevation *float64    `yaml:"elevation"`
	LookAt    *[3]float64 `yaml:"lookat"`
}

// LoadPresets reads a YAML map of preset name to camera settings for the
// batch CLI, e.g.:
//
//	side:
//	  camera: side_view
//	closeup:
//	  distance: 1.5
//	  elevation: -10
func LoadPresets(path string) (map[string]renderer.Camera, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read presets file: %w", err)
	}
	var raw map[string]cameraPreset
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse presets file: %w", err)
	}

	out := make(map[string]renderer.Camera, len(raw))
	for name, p := range raw {
		cam := renderer.Default()
		cam.Name = p.Camera
		if p.Distance != nil {
			cam.Distance = *p.Distance
		}
		if p.Azimuth != nil {
			cam.Azimuth = *p.Azimuth
		}
		if p.Elevation != nil {
			cam.Elevation = *p.Elevation
		}
		if p.LookAt != nil {
			cam.LookAt = *p.LookAt
		}
		out[name] = cam
	}
	return out, nil
}
