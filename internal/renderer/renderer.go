// Package renderer defines the contract the thumbnail pipeline consumes: a
// collaborator that loads an articulated-body model document and produces
// pixel buffers for a virtual camera. The pipeline treats implementations
// as black boxes; state lives behind the model handle.
package renderer

import (
	"context"
	"image"
)

// Camera selects the viewpoint for a render. When Name is set it refers to
// a camera declared inside the model document; implementations fall back
// to the programmatic parameters when the name is unknown. The zero value
// is not a valid camera — use Default.
type Camera struct {
	Name      string
	Distance  float64
	Azimuth   float64
	Elevation float64
	LookAt    [3]float64
}

// Default is the standard thumbnail framing.
func Default() Camera {
	return Camera{
		Distance:  3.0,
		Azimuth:   45,
		Elevation: -20,
		LookAt:    [3]float64{0, 0, 1},
	}
}

// Model is a loaded model with mutable pose state.
type Model interface {
	// SetPose replaces the model's pose vector. Length mismatches against
	// the model's degrees of freedom are a caller error and are not
	// validated here.
	SetPose(pose []float64)
	// Settle evaluates a consistent derived state for the current pose
	// without time integration.
	Settle()
	// Render produces one frame for the camera at the given resolution.
	Render(cam Camera, width, height int) (image.Image, error)
	Close() error
}

// Renderer loads model documents.
type Renderer interface {
	// LoadModel parses the entry document at documentPath. It fails when
	// the document is malformed or references missing auxiliary files.
	LoadModel(ctx context.Context, documentPath string) (Model, error)
}
