package scene

import (
	"fmt"

	"github.com/taigrr/flatshade/pkg/math3d"
)

// BackFaceEpsilon is the camera-space normal Z above which a polygon faces
// away from the viewer. The comparison is strict so edge-on polygons are
// treated consistently.
const BackFaceEpsilon = 1e-5

// Polygon is a flat-shaded triangle.
type Polygon struct {
	Vertices    [3]math3d.Vec3
	Reflectance Color
}

// NewPolygon creates a polygon from three vertices and a reflectance.
func NewPolygon(v0, v1, v2 math3d.Vec3, reflectance Color) Polygon {
	return Polygon{
		Vertices:    [3]math3d.Vec3{v0, v1, v2},
		Reflectance: reflectance,
	}
}

// Normal returns (v1-v0) × (v2-v0). It is not normalized and is always
// computed from the current vertices.
func (p Polygon) Normal() math3d.Vec3 {
	edge1 := p.Vertices[1].Sub(p.Vertices[0])
	edge2 := p.Vertices[2].Sub(p.Vertices[0])
	return edge1.Cross(edge2)
}

// IsBackFacing reports whether the polygon faces away from a viewer looking
// down +Z, i.e. its normal points toward +Z.
func (p Polygon) IsBackFacing() bool {
	return p.Normal().Z > BackFaceEpsilon
}

// Reversed returns the polygon with its winding order flipped.
func (p Polygon) Reversed() Polygon {
	return Polygon{
		Vertices:    [3]math3d.Vec3{p.Vertices[0], p.Vertices[2], p.Vertices[1]},
		Reflectance: p.Reflectance,
	}
}

// Transform returns a copy of p with every vertex transformed by t.
func (p Polygon) Transform(t math3d.Transform) Polygon {
	out := p
	for i := range out.Vertices {
		out.Vertices[i] = t.Apply(p.Vertices[i])
	}
	return out
}

// Shade computes the single flat color of the polygon under a directional
// light and an ambient term. Each channel is
//
//	reflectance/255 * (ambient + light*cos)   if cos > 0
//	reflectance/255 * ambient                 otherwise
//
// truncated toward zero and clamped to [0, 255]. A zero-length normal or
// light direction returns math3d.ErrDegenerateVector.
func (p Polygon) Shade(lightDir math3d.Vec3, lightColor, ambient Color) (Color, error) {
	cos, err := p.Normal().CosTheta(lightDir)
	if err != nil {
		return Color{}, fmt.Errorf("shade polygon: %w", err)
	}

	channel := func(reflect, amb, light uint8) uint8 {
		k := float64(reflect) / 255
		if cos > 0 {
			return clampChannel(k * (float64(amb) + float64(light)*cos))
		}
		return clampChannel(k * float64(amb))
	}

	return RGB(
		channel(p.Reflectance.R, ambient.R, lightColor.R),
		channel(p.Reflectance.G, ambient.G, lightColor.G),
		channel(p.Reflectance.B, ambient.B, lightColor.B),
	), nil
}

// IsFinite reports whether every vertex coordinate is finite.
func (p Polygon) IsFinite() bool {
	for _, v := range p.Vertices {
		if !v.IsFinite() {
			return false
		}
	}
	return true
}
