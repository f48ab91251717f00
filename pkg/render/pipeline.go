package render

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/taigrr/flatshade/pkg/math3d"
	"github.com/taigrr/flatshade/pkg/scene"
)

var (
	// ErrInvalidViewport is returned for a View with a non-positive size or a
	// non-finite parameter.
	ErrInvalidViewport = errors.New("render: invalid viewport")

	// ErrDegenerateLight is returned when the camera-space light direction
	// has zero length, so no polygon can be shaded.
	ErrDegenerateLight = errors.New("render: degenerate light direction")
)

// View holds the viewing parameters of one frame.
type View struct {
	XRot, YRot float64 // Rotation about X, then Y (radians)

	Width, Height int // Viewport size in pixels

	Scale     float64     // Uniform scale after rotation; 0 means 1, negative is invalid
	Translate math3d.Vec3 // Translation after scaling

	// AutoFit scales and centers the visible scene to the viewport after
	// shading.
	AutoFit bool
}

// Validate reports whether the view can be rendered.
func (v View) Validate() error {
	if v.Width <= 0 || v.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidViewport, v.Width, v.Height)
	}
	for _, f := range []float64{v.XRot, v.YRot, v.Scale} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: non-finite parameter %v", ErrInvalidViewport, f)
		}
	}
	// A negative scale mirrors the scene but not its winding, which would
	// invert culling.
	if v.Scale < 0 {
		return fmt.Errorf("%w: negative scale %v", ErrInvalidViewport, v.Scale)
	}
	if !v.Translate.IsFinite() {
		return fmt.Errorf("%w: non-finite translation %v", ErrInvalidViewport, v.Translate)
	}
	return nil
}

// transform returns the camera transform: rotate, then scale, then
// translate.
func (v View) transform() math3d.Transform {
	t := math3d.Compose(math3d.RotationX(v.XRot), math3d.RotationY(v.YRot))
	if v.Scale != 0 && v.Scale != 1 {
		t = t.Then(math3d.UniformScaling(v.Scale))
	}
	if v.Translate != (math3d.Vec3{}) {
		t = t.Then(math3d.Translation(v.Translate.X, v.Translate.Y, v.Translate.Z))
	}
	return t
}

// Stats describes one rendered frame.
type Stats struct {
	Polygons   int           // Polygons in the input scene
	Culled     int           // Back-facing polygons removed
	Degenerate int           // Zero-area polygons skipped while shading
	Drawn      int           // Polygons composited
	Pixels     int           // Pixels written by the depth test
	Elapsed    time.Duration // Wall time of the frame
}

// Pipeline turns a Scene and a View into a Framebuffer. A Pipeline holds only
// configuration and may be shared by concurrent callers.
type Pipeline struct {
	workers    int
	background scene.Color
	outline    *scene.Color
	logger     *log.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWorkers sets how many goroutines build edge lists and composite row
// bands. Values <= 1 render serially.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		p.workers = n
	}
}

// WithBackground sets the color of uncovered pixels.
func WithBackground(c scene.Color) Option {
	return func(p *Pipeline) {
		p.background = c
	}
}

// WithOutline draws the edges of every composited polygon in c.
func WithOutline(c scene.Color) Option {
	return func(p *Pipeline) {
		p.outline = &c
	}
}

// WithLogger logs per-frame statistics at debug level.
func WithLogger(l *log.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// NewPipeline creates a pipeline. By default it renders serially on a black
// background and does not log.
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		workers:    1,
		background: scene.ColorBlack,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Render draws sc as seen through view into a new Framebuffer.
func (p *Pipeline) Render(sc scene.Scene, view View) (*Framebuffer, Stats, error) {
	fb := &Framebuffer{}
	stats, err := p.RenderInto(fb, sc, view)
	if err != nil {
		return nil, stats, err
	}
	return fb, stats, nil
}

// RenderInto draws sc into fb, resizing and clearing it first. Reusing one
// Framebuffer across frames avoids reallocating its buffers.
//
// Stages run in order: transform, cull, shade, fit, scan convert and
// composite.
func (p *Pipeline) RenderInto(fb *Framebuffer, sc scene.Scene, view View) (Stats, error) {
	start := time.Now()
	stats := Stats{Polygons: sc.Len()}

	if err := view.Validate(); err != nil {
		return stats, err
	}
	if err := sc.Validate(); err != nil {
		return stats, fmt.Errorf("render: %w", err)
	}

	camera := sc.ApplyTransform(view.transform())
	visible, culled := camera.Cull()
	stats.Culled = culled

	shaded, colors, err := shade(visible)
	if err != nil {
		return stats, err
	}
	stats.Degenerate = visible.Len() - shaded.Len()

	if view.AutoFit {
		if b, ok := scene.BoundsOf(camera); ok {
			shaded = scene.FitByScaleTranslate(shaded, b, view.Width, view.Height)
		}
	}

	fb.Resize(view.Width, view.Height)
	fb.Reset(p.background)

	polygons := shaded.Polygons()
	if p.workers > 1 {
		stats.Pixels, err = p.compositeParallel(fb, polygons, colors)
		if err != nil {
			return stats, err
		}
	} else {
		stats.Pixels = compositeSerial(fb, polygons, colors)
	}
	stats.Drawn = len(polygons)

	if p.outline != nil {
		for _, poly := range polygons {
			fb.DrawOutline(poly, *p.outline)
		}
	}

	stats.Elapsed = time.Since(start)
	if p.logger != nil {
		p.logger.Debug("frame rendered",
			"polygons", stats.Polygons,
			"culled", stats.Culled,
			"degenerate", stats.Degenerate,
			"pixels", stats.Pixels,
			"elapsed", stats.Elapsed,
		)
	}
	return stats, nil
}

// shade computes the flat color of every polygon in sc. Polygons without a
// normal are dropped from the returned scene; colors[i] belongs to the i-th
// polygon of the returned scene.
func shade(sc scene.Scene) (scene.Scene, []scene.Color, error) {
	light := sc.Light()
	if _, err := light.Unit(); err != nil {
		return scene.Scene{}, nil, fmt.Errorf("%w: %w", ErrDegenerateLight, err)
	}

	polygons := make([]scene.Polygon, 0, sc.Len())
	colors := make([]scene.Color, 0, sc.Len())
	for i := 0; i < sc.Len(); i++ {
		poly := sc.Polygon(i)
		c, err := poly.Shade(light, sc.LightColor(), sc.Ambient())
		if errors.Is(err, math3d.ErrDegenerateVector) {
			continue
		}
		if err != nil {
			return scene.Scene{}, nil, err
		}
		polygons = append(polygons, poly)
		colors = append(colors, c)
	}
	return scene.New(polygons, light, sc.LightColor(), sc.Ambient()), colors, nil
}

func compositeSerial(fb *Framebuffer, polygons []scene.Polygon, colors []scene.Color) int {
	pixels := 0
	for i, poly := range polygons {
		pixels += fb.Composite(NewEdgeListWithin(poly, fb.Height), colors[i])
	}
	return pixels
}

// compositeParallel builds the edge lists concurrently, then splits the
// buffer into horizontal bands. Each band composites every polygon in
// submission order, so the result is identical to compositeSerial.
func (p *Pipeline) compositeParallel(fb *Framebuffer, polygons []scene.Polygon, colors []scene.Color) (int, error) {
	edges := make([]*EdgeList, len(polygons))

	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, poly := range polygons {
		g.Go(func() error {
			edges[i] = NewEdgeListWithin(poly, fb.Height)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("build edge lists: %w", err)
	}

	bands := min(p.workers, fb.Height)
	if bands < 1 {
		return 0, nil
	}
	bandHeight := (fb.Height + bands - 1) / bands
	counts := make([]int, bands)

	var cg errgroup.Group
	for b := range bands {
		y0 := b * bandHeight
		y1 := min(y0+bandHeight, fb.Height)
		cg.Go(func() error {
			for i, el := range edges {
				counts[b] += fb.compositeRows(el, colors[i], y0, y1)
			}
			return nil
		})
	}
	if err := cg.Wait(); err != nil {
		return 0, fmt.Errorf("composite: %w", err)
	}

	pixels := 0
	for _, n := range counts {
		pixels += n
	}
	return pixels, nil
}
