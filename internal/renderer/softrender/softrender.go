// Package softrender is a pure-software renderer.Renderer. It parses the
// model's XML document, validates referenced asset files, and draws a
// deterministic schematic of the posed body: gradient backdrop, ground
// grid, and a stick figure driven by the pose vector. Offline thumbnail
// generation does not need physical accuracy, it needs stable, legible
// frames that change when the pose changes.
package softrender

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"

	"github.com/yungbote/motionlib-backend/internal/platform/logger"
	"github.com/yungbote/motionlib-backend/internal/renderer"
)

// Renderer draws schematic frames with gg. A single Renderer is safe for
// concurrent LoadModel calls; each Model is single-goroutine.
type Renderer struct {
	log      *logger.Logger
	fontFace font.Face
}

// New builds a Renderer. When the RENDER_FONT env var names a TTF file,
// frames carry a small model-name label; otherwise frames are unlabeled.
func New(log *logger.Logger) (*Renderer, error) {
	rendererLog := log.With("component", "softrender")

	var face font.Face
	if fontPath := strings.TrimSpace(os.Getenv("RENDER_FONT")); fontPath != "" {
		rendererLog.Info("Loading render label font", "font", fontPath)
		f, err := loadFontFace(fontPath, 18)
		if err != nil {
			return nil, fmt.Errorf("could not load render font: %w", err)
		}
		face = f
	}

	return &Renderer{log: rendererLog, fontFace: face}, nil
}

// LoadModel parses the entry document and verifies that every mesh,
// texture, and include it references exists on disk.
func (r *Renderer) LoadModel(ctx context.Context, documentPath string) (renderer.Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(documentPath)
	if err != nil {
		return nil, fmt.Errorf("read model document: %w", err)
	}

	doc, err := parseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(documentPath), err)
	}
	if doc.name == "" {
		doc.name = strings.TrimSuffix(filepath.Base(documentPath), filepath.Ext(documentPath))
	}

	baseDir := filepath.Dir(documentPath)
	for _, ref := range doc.assetRefs {
		p := filepath.Join(baseDir, filepath.FromSlash(ref.dir), filepath.FromSlash(ref.file))
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("model references missing asset %s: %w", ref.file, err)
		}
	}

	r.log.Debug("Model loaded", "name", doc.name, "cameras", len(doc.cameras), "assets", len(doc.assetRefs))
	return &model{r: r, name: doc.name, cameras: doc.cameras}, nil
}

type assetRef struct {
	dir  string
	file string
}

type document struct {
	name      string
	cameras   map[string]struct{}
	assetRefs []assetRef
}

// parseDocument token-scans the XML rather than unmarshalling into a full
// schema: only the model name, declared cameras, asset file references,
// and the compiler's asset directories matter here.
func parseDocument(data []byte) (*document, error) {
	doc := &document{cameras: make(map[string]struct{})}
	meshDir, textureDir := "", ""

	dec := xml.NewDecoder(bytes.NewReader(data))
	sawRoot := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed XML: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if !sawRoot {
			sawRoot = true
			doc.name = attr(se, "model")
		}
		switch se.Name.Local {
		case "compiler":
			if v := attr(se, "meshdir"); v != "" {
				meshDir = v
			}
			if v := attr(se, "texturedir"); v != "" {
				textureDir = v
			}
		case "camera":
			if name := attr(se, "name"); name != "" {
				doc.cameras[name] = struct{}{}
			}
		case "mesh":
			if f := attr(se, "file"); f != "" {
				doc.assetRefs = append(doc.assetRefs, assetRef{dir: meshDir, file: f})
			}
		case "texture":
			if f := attr(se, "file"); f != "" {
				doc.assetRefs = append(doc.assetRefs, assetRef{dir: textureDir, file: f})
			}
		case "include":
			if f := attr(se, "file"); f != "" {
				doc.assetRefs = append(doc.assetRefs, assetRef{file: f})
			}
		}
	}
	if !sawRoot {
		return nil, fmt.Errorf("document has no root element")
	}
	return doc, nil
}

func attr(se xml.StartElement, name string) string {
	for _, a := range se.Attr {
		if a.Name.Local == name {
			return strings.TrimSpace(a.Value)
		}
	}
	return ""
}

type model struct {
	r       *Renderer
	name    string
	cameras map[string]struct{}

	mu      sync.Mutex
	pose    []float64
	settled []float64
	closed  bool
}

func (m *model) SetPose(pose []float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pose = append(m.pose[:0], pose...)
	m.settled = nil
}

// Settle normalizes every joint value into [-pi, pi). There is no time
// integration: the settled pose depends only on the current pose.
func (m *model) Settle() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settled = make([]float64, len(m.pose))
	for i, q := range m.pose {
		m.settled[i] = wrapAngle(q)
	}
}

func (m *model) Render(cam renderer.Camera, width, height int) (image.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, fmt.Errorf("render on closed model %s", m.name)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}

	cam = m.resolveCamera(cam)
	pose := m.settled
	if pose == nil {
		pose = m.pose
	}

	// Draw at 2x and downscale for cheap antialiasing.
	ssW, ssH := width*2, height*2
	dc := gg.NewContext(ssW, ssH)
	drawBackdrop(dc, m.name+"/"+cam.Name, ssW, ssH, cam)
	drawGroundGrid(dc, ssW, ssH, cam)
	drawFigure(dc, pose, ssW, ssH, cam)
	if m.r.fontFace != nil {
		dc.SetFontFace(m.r.fontFace)
		dc.SetColor(color.NRGBA{R: 255, G: 255, B: 255, A: 200})
		dc.DrawString(m.name, float64(ssW)*0.04, float64(ssH)*0.95)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), dc.Image(), dc.Image().Bounds(), draw.Over, nil)
	return dst, nil
}

func (m *model) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.pose = nil
	m.settled = nil
	return nil
}

// resolveCamera maps a named camera onto deterministic viewpoint
// parameters. An unknown name falls back to the programmatic parameters
// already carried in cam.
func (m *model) resolveCamera(cam renderer.Camera) renderer.Camera {
	if cam.Name == "" {
		return cam
	}
	if _, ok := m.cameras[cam.Name]; !ok {
		cam.Name = ""
		return cam
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(cam.Name))
	sum := h.Sum32()
	cam.Distance = 2.0 + float64(sum%30)/10
	cam.Azimuth = float64((sum >> 5) % 360)
	cam.Elevation = -float64((sum >> 14) % 60)
	return cam
}

func drawBackdrop(dc *gg.Context, seed string, w, h int, cam renderer.Camera) {
	c1, c2 := gradientColors(seed)
	for y := 0; y < h; y++ {
		t := float64(y) / float64(h-1)
		dc.SetColor(color.NRGBA{
			R: uint8(math.Round(float64(c1.R)*(1-t) + float64(c2.R)*t)),
			G: uint8(math.Round(float64(c1.G)*(1-t) + float64(c2.G)*t)),
			B: uint8(math.Round(float64(c1.B)*(1-t) + float64(c2.B)*t)),
			A: 255,
		})
		dc.DrawLine(0, float64(y), float64(w), float64(y))
		dc.Stroke()
	}
}

func drawGroundGrid(dc *gg.Context, w, h int, cam renderer.Camera) {
	fw, fh := float64(w), float64(h)
	horizon := fh * (0.55 - cam.Elevation/400)

	dc.SetColor(color.NRGBA{R: 255, G: 255, B: 255, A: 28})
	dc.SetLineWidth(fh * 0.002)
	dc.DrawLine(0, horizon, fw, horizon)
	dc.Stroke()

	// Converging floor lines, slewed by azimuth so different viewpoints
	// read differently.
	vx := fw * (0.5 + math.Sin(gg.Radians(cam.Azimuth))*0.1)
	for i := -6; i <= 6; i++ {
		x := fw*0.5 + float64(i)*fw*0.18
		dc.DrawLine(x, fh, vx, horizon)
		dc.Stroke()
	}
}

// limbAnchors positions the figure's five chains (torso, two arms, two
// legs) relative to the hip point.
type limbAnchor struct {
	dx, dy float64 // offset from hip, in torso lengths
	start  float64 // initial heading, radians (0 = right, -pi/2 = up)
}

var limbAnchors = []limbAnchor{
	{dx: 0, dy: 0, start: -math.Pi / 2},      // torso + head
	{dx: 0, dy: -0.9, start: -math.Pi * 0.8}, // left arm
	{dx: 0, dy: -0.9, start: -math.Pi * 0.2}, // right arm
	{dx: 0, dy: 0, start: math.Pi * 0.65},    // left leg
	{dx: 0, dy: 0, start: math.Pi * 0.35},    // right leg
}

func drawFigure(dc *gg.Context, pose []float64, w, h int, cam renderer.Camera) {
	fw, fh := float64(w), float64(h)
	scale := 3.0 / math.Max(cam.Distance, 0.5)
	torso := fh * 0.11 * scale
	hipX := fw*0.5 + cam.LookAt[0]*fh*0.05
	hipY := fh*0.62 - cam.LookAt[2]*fh*0.04

	dc.SetLineCapRound()
	dc.SetLineWidth(fh * 0.012 * scale)
	dc.SetColor(color.NRGBA{R: 240, G: 240, B: 245, A: 255})

	if len(pose) == 0 {
		dc.DrawLine(hipX, hipY, hipX, hipY-torso*2)
		dc.Stroke()
		dc.DrawCircle(hipX, hipY-torso*2.4, torso*0.35)
		dc.Fill()
		return
	}

	chains := splitChains(pose, len(limbAnchors))
	lean := gg.Radians(cam.Azimuth) * 0.05
	for li, chain := range chains {
		anchor := limbAnchors[li]
		x := hipX + anchor.dx*torso
		y := hipY + anchor.dy*torso
		angle := anchor.start + lean
		for _, q := range chain {
			angle += q * 0.5
			nx := x + torso*math.Cos(angle)
			ny := y + torso*math.Sin(angle)
			dc.DrawLine(x, y, nx, ny)
			dc.Stroke()
			dc.DrawCircle(nx, ny, fh*0.006*scale)
			dc.Fill()
			x, y = nx, ny
		}
		if li == 0 {
			// Head caps the torso chain.
			dc.DrawCircle(x, y-torso*0.4, torso*0.35)
			dc.Fill()
		}
	}
}

// splitChains deals the pose vector across n chains round-robin so every
// joint value influences the drawing.
func splitChains(pose []float64, n int) [][]float64 {
	chains := make([][]float64, n)
	for i, q := range pose {
		chains[i%n] = append(chains[i%n], q)
	}
	return chains
}

func wrapAngle(q float64) float64 {
	q = math.Mod(q+math.Pi, 2*math.Pi)
	if q < 0 {
		q += 2 * math.Pi
	}
	return q - math.Pi
}

func gradientColors(seed string) (color.RGBA, color.RGBA) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(seed))
	sum := h.Sum32()

	r1 := uint8(32 + (sum & 0x7F))
	g1 := uint8(24 + ((sum >> 7) & 0x7F))
	b1 := uint8(48 + ((sum >> 14) & 0x7F))

	r2 := uint8(24 + ((sum >> 5) & 0x7F))
	g2 := uint8(48 + ((sum >> 12) & 0x7F))
	b2 := uint8(32 + ((sum >> 19) & 0x7F))

	return color.RGBA{R: r1, G: g1, B: b1, A: 255}, color.RGBA{R: r2, G: g2, B: b2, A: 255}
}

func loadFontFace(fontPath string, size float64) (font.Face, error) {
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file: %w", err)
	}
	parsedFont, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	return truetype.NewFace(parsedFont, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	}), nil
}
