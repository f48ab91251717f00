// Package scene holds the immutable scene model of the flatshade pipeline:
// flat-shaded polygons, one directional light and an ambient term, plus the
// pure stages (rotate, translate, scale, cull, fit) that turn one Scene into
// a new one.
package scene

import (
	"errors"
	"fmt"

	"github.com/taigrr/flatshade/pkg/math3d"
)

// ErrNonFinite is returned by Validate when a coordinate is NaN or infinite.
var ErrNonFinite = errors.New("scene: non-finite coordinate")

// Scene is an ordered list of polygons lit by one light and an ambient term.
// A Scene is never mutated: every stage returns a new value.
type Scene struct {
	polygons   []Polygon
	light      math3d.Vec3
	lightColor Color
	ambient    Color
}

// New creates a scene. The polygon slice is copied.
func New(polygons []Polygon, light math3d.Vec3, lightColor, ambient Color) Scene {
	return Scene{
		polygons:   clonePolygons(polygons),
		light:      light,
		lightColor: lightColor,
		ambient:    ambient,
	}
}

func clonePolygons(polygons []Polygon) []Polygon {
	out := make([]Polygon, len(polygons))
	copy(out, polygons)
	return out
}

// Polygons returns a copy of the polygons in submission order.
func (s Scene) Polygons() []Polygon {
	return clonePolygons(s.polygons)
}

// Polygon returns the i-th polygon.
func (s Scene) Polygon(i int) Polygon {
	return s.polygons[i]
}

// Len returns the number of polygons.
func (s Scene) Len() int {
	return len(s.polygons)
}

// Light returns the light position, which also serves as the light direction.
func (s Scene) Light() math3d.Vec3 {
	return s.light
}

// LightColor returns the color of the directional light.
func (s Scene) LightColor() Color {
	return s.lightColor
}

// Ambient returns the ambient light color.
func (s Scene) Ambient() Color {
	return s.ambient
}

// WithLighting returns a copy of s lit by the given light and ambient. The
// polygons are shared, not copied.
func (s Scene) WithLighting(light math3d.Vec3, lightColor, ambient Color) Scene {
	return Scene{
		polygons:   s.polygons,
		light:      light,
		lightColor: lightColor,
		ambient:    ambient,
	}
}

// Validate reports a precondition violation that would make rendering
// meaningless. It should be called before a scene enters the pipeline.
func (s Scene) Validate() error {
	if !s.light.IsFinite() {
		return fmt.Errorf("light %v: %w", s.light, ErrNonFinite)
	}
	for i, p := range s.polygons {
		if !p.IsFinite() {
			return fmt.Errorf("polygon %d: %w", i, ErrNonFinite)
		}
	}
	return nil
}

// ApplyTransform transforms every vertex of every polygon and the light
// position by t. Reflectances, colors and polygon order are kept.
//
// The light is transformed exactly like a vertex, translation included, so a
// translated scene also moves its light.
func (s Scene) ApplyTransform(t math3d.Transform) Scene {
	polygons := make([]Polygon, len(s.polygons))
	for i, p := range s.polygons {
		polygons[i] = p.Transform(t)
	}
	return Scene{
		polygons:   polygons,
		light:      t.Apply(s.light),
		lightColor: s.lightColor,
		ambient:    s.ambient,
	}
}

// Rotate rotates the scene by xAngle around the X axis and then by yAngle
// around the Y axis (radians). Rotating the world this way simulates the
// viewer rotating the opposite way.
func (s Scene) Rotate(xAngle, yAngle float64) Scene {
	return s.ApplyTransform(math3d.Compose(
		math3d.RotationX(xAngle),
		math3d.RotationY(yAngle),
	))
}

// Translate moves the scene by (dx, dy, dz).
func (s Scene) Translate(dx, dy, dz float64) Scene {
	return s.ApplyTransform(math3d.Translation(dx, dy, dz))
}

// ScaleBy scales the scene by (sx, sy, sz) about the origin.
func (s Scene) ScaleBy(sx, sy, sz float64) Scene {
	return s.ApplyTransform(math3d.Scaling(sx, sy, sz))
}

// Cull returns a scene holding only the polygons that face the viewer, in
// their original order, and the number of polygons removed.
func (s Scene) Cull() (Scene, int) {
	visible := make([]Polygon, 0, len(s.polygons))
	for _, p := range s.polygons {
		if !p.IsBackFacing() {
			visible = append(visible, p)
		}
	}
	return Scene{
		polygons:   visible,
		light:      s.light,
		lightColor: s.lightColor,
		ambient:    s.ambient,
	}, len(s.polygons) - len(visible)
}
