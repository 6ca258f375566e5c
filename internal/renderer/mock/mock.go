// Package mock is a scriptable renderer.Renderer for tests. It records
// every load, pose, and render, and produces tiny flat-color frames whose
// shade tracks the render count so callers can tell frames apart.
package mock

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"sync"

	"github.com/yungbote/motionlib-backend/internal/renderer"
)

type Renderer struct {
	mu sync.Mutex

	// LoadErr fails LoadModel for documents whose base name matches.
	LoadErr map[string]error
	// RenderErrAfter, when > 0, fails every Render call after that many
	// successes across all models.
	RenderErrAfter int

	Loaded  []string
	Poses   [][]float64
	Settles int
	Renders int
	Cameras []renderer.Camera
}

func New() *Renderer {
	return &Renderer{LoadErr: make(map[string]error)}
}

func (r *Renderer) LoadModel(ctx context.Context, documentPath string) (renderer.Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.LoadErr[filepath.Base(documentPath)]; err != nil {
		return nil, err
	}
	r.Loaded = append(r.Loaded, documentPath)
	return &model{r: r}, nil
}

type model struct {
	r      *Renderer
	closed bool
}

func (m *model) SetPose(pose []float64) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	cp := append([]float64(nil), pose...)
	m.r.Poses = append(m.r.Poses, cp)
}

func (m *model) Settle() {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	m.r.Settles++
}

func (m *model) Render(cam renderer.Camera, width, height int) (image.Image, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	if m.closed {
		return nil, fmt.Errorf("render on closed model")
	}
	if m.r.RenderErrAfter > 0 && m.r.Renders >= m.r.RenderErrAfter {
		return nil, fmt.Errorf("scripted render failure after %d frames", m.r.RenderErrAfter)
	}
	m.r.Renders++
	m.r.Cameras = append(m.r.Cameras, cam)

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	shade := uint8(m.r.Renders * 7)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, color.RGBA{R: shade, G: 128, B: 255 - shade, A: 255})
		}
	}
	return img, nil
}

func (m *model) Close() error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	m.closed = true
	return nil
}
