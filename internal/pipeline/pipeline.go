// Package pipeline generates thumbnails offline: a still per model and a
// looping animation per trajectory, written through the store's thumbnail
// cache. Rendering is sequential; one renderer context serves the whole
// batch run.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"math"
	"path"
	"time"

	"github.com/yungbote/motionlib-backend/internal/assetid"
	"github.com/yungbote/motionlib-backend/internal/platform/logger"
	"github.com/yungbote/motionlib-backend/internal/renderer"
	"github.com/yungbote/motionlib-backend/internal/storage"
	"github.com/yungbote/motionlib-backend/internal/trajfile"
)

// Options tune output format. Zero fields take the defaults.
type Options struct {
	// Size is the square frame edge in pixels.
	Size int
	// FrameCount is how many frames an animation samples from a
	// trajectory, regardless of trajectory length.
	FrameCount int
	// FrameDelay is the animation frame duration.
	FrameDelay time.Duration
	// StillQuality is the JPEG quality for model stills.
	StillQuality int
}

func DefaultOptions() Options {
	return Options{
		Size:         320,
		FrameCount:   30,
		FrameDelay:   100 * time.Millisecond,
		StillQuality: 85,
	}
}

// RenderError marks a failure of the rendering stage (model loading,
// trajectory decoding, or frame production) as opposed to a store error.
type RenderError struct {
	Asset string
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Asset, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

func renderErr(asset string, err error) error {
	return &RenderError{Asset: asset, Err: err}
}

type Generator struct {
	store *storage.Store
	eng   renderer.Renderer
	log   *logger.Logger
	opts  Options
}

func New(store *storage.Store, eng renderer.Renderer, log *logger.Logger, opts Options) *Generator {
	def := DefaultOptions()
	if opts.Size <= 0 {
		opts.Size = def.Size
	}
	if opts.FrameCount <= 0 {
		opts.FrameCount = def.FrameCount
	}
	if opts.FrameDelay <= 0 {
		opts.FrameDelay = def.FrameDelay
	}
	if opts.StillQuality <= 0 {
		opts.StillQuality = def.StillQuality
	}
	return &Generator{
		store: store,
		eng:   eng,
		log:   log.With("service", "ThumbnailGenerator"),
		opts:  opts,
	}
}

// RenderModel produces a single still for the model at the given
// category-relative entry-document path and stores it in the cache.
// Returns the cached thumbnail's absolute path.
func (g *Generator) RenderModel(ctx context.Context, modelRel string, cam renderer.Camera) (string, error) {
	abs, err := g.store.ModelAbs(modelRel)
	if err != nil {
		return "", err
	}

	m, err := g.eng.LoadModel(ctx, abs)
	if err != nil {
		return "", renderErr(modelRel, err)
	}
	defer m.Close()

	m.Settle()
	img, err := m.Render(cam, g.opts.Size, g.opts.Size)
	if err != nil {
		return "", renderErr(modelRel, err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: g.opts.StillQuality}); err != nil {
		return "", renderErr(modelRel, err)
	}

	id := assetid.New(modelRel)
	p, err := g.store.PutThumbnail(storage.CategoryModels, relDir(modelRel), id, "jpg", buf.Bytes())
	if err != nil {
		return "", err
	}
	g.log.Info("Model thumbnail rendered", "model", modelRel, "id", id)
	return p, nil
}

// RenderTrajectory produces a looping animation for the trajectory at
// trajRel, posed on the model at modelRel, and stores it in the cache.
func (g *Generator) RenderTrajectory(ctx context.Context, trajRel, modelRel string, cam renderer.Camera) (string, error) {
	trajAbs, err := g.store.TrajectoryAbs(trajRel)
	if err != nil {
		return "", err
	}
	modelAbs, err := g.store.ModelAbs(modelRel)
	if err != nil {
		return "", err
	}

	frames, err := trajfile.Frames(trajAbs)
	if err != nil {
		return "", renderErr(trajRel, err)
	}

	m, err := g.eng.LoadModel(ctx, modelAbs)
	if err != nil {
		return "", renderErr(modelRel, err)
	}
	defer m.Close()

	anim := &gif.GIF{LoopCount: 0}
	delay := int(g.opts.FrameDelay / (10 * time.Millisecond)) // GIF delay unit is 10ms
	for _, i := range sampleIndices(len(frames), g.opts.FrameCount) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		m.SetPose(frames[i])
		m.Settle()
		img, err := m.Render(cam, g.opts.Size, g.opts.Size)
		if err != nil {
			return "", renderErr(fmt.Sprintf("%s frame %d", trajRel, i), err)
		}
		anim.Image = append(anim.Image, quantize(img))
		anim.Delay = append(anim.Delay, delay)
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, anim); err != nil {
		return "", renderErr(trajRel, err)
	}

	id := assetid.New(trajRel)
	p, err := g.store.PutThumbnail(storage.CategoryTrajectories, relDir(trajRel), id, "gif", buf.Bytes())
	if err != nil {
		return "", err
	}
	g.log.Info("Trajectory thumbnail rendered", "trajectory", trajRel, "id", id, "frames", len(anim.Image))
	return p, nil
}

// RenderTrajectoryFolder renders every trajectory file directly inside
// folderRel. Individual failures are logged and skipped; the batch keeps
// going. Returns (succeeded, total).
func (g *Generator) RenderTrajectoryFolder(ctx context.Context, folderRel, modelRel string, cam renderer.Camera) (int, int, error) {
	infos, err := g.store.TrajectoriesInFolder(folderRel)
	if err != nil {
		return 0, 0, err
	}

	ok := 0
	for _, info := range infos {
		if err := ctx.Err(); err != nil {
			return ok, len(infos), err
		}
		if _, err := g.RenderTrajectory(ctx, info.Path, modelRel, cam); err != nil {
			g.log.Warn("Skipping trajectory after render failure", "trajectory", info.Path, "error", err)
			continue
		}
		ok++
	}
	g.log.Info("Folder render complete", "folder", folderRel, "succeeded", ok, "total", len(infos))
	return ok, len(infos), nil
}

// sampleIndices picks count indices evenly spaced over [0, n): the first
// is always 0 and the last always n-1. Trajectories shorter than count
// repeat indices rather than shrinking the animation.
func sampleIndices(n, count int) []int {
	if n <= 0 || count <= 0 {
		return nil
	}
	if count == 1 || n == 1 {
		return make([]int, count)
	}
	out := make([]int, count)
	step := float64(n-1) / float64(count-1)
	for k := range out {
		out[k] = int(math.Round(float64(k) * step))
	}
	return out
}

func quantize(img image.Image) *image.Paletted {
	b := img.Bounds()
	p := image.NewPaletted(b, palette.Plan9)
	draw.FloydSteinberg.Draw(p, b, img, b.Min)
	return p
}

// relDir is the thumbnail mirror directory for a category-relative asset
// path ("" for root-level assets).
func relDir(rel string) string {
	d := path.Dir(rel)
	if d == "." {
		return ""
	}
	return d
}
