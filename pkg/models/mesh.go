// Package models loads scenes for the flatshade pipeline from plain text
// scene files and from glTF/GLB models.
package models

import (
	"github.com/taigrr/flatshade/pkg/math3d"
	"github.com/taigrr/flatshade/pkg/scene"
)

// Mesh is an indexed triangle mesh with one reflectance per face.
type Mesh struct {
	Name     string
	Vertices []math3d.Vec3
	Faces    []Face

	// Bounding box (calculated on load)
	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3
}

// Face is a triangle given by vertex indices and its reflectance.
type Face struct {
	V           [3]int // Indices into Mesh.Vertices
	Reflectance scene.Color
}

// NewMesh creates an empty mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{
		Name:     name,
		Vertices: make([]math3d.Vec3, 0),
		Faces:    make([]Face, 0),
	}
}

// CalculateBounds computes the axis-aligned bounding box.
func (m *Mesh) CalculateBounds() {
	if len(m.Vertices) == 0 {
		return
	}

	m.BoundsMin = m.Vertices[0]
	m.BoundsMax = m.Vertices[0]

	for _, v := range m.Vertices[1:] {
		m.BoundsMin = m.BoundsMin.Min(v)
		m.BoundsMax = m.BoundsMax.Max(v)
	}
}

// Center returns the center of the bounding box.
func (m *Mesh) Center() math3d.Vec3 {
	return m.BoundsMin.Add(m.BoundsMax).Scale(0.5)
}

// Size returns the dimensions of the bounding box.
func (m *Mesh) Size() math3d.Vec3 {
	return m.BoundsMax.Sub(m.BoundsMin)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Faces)
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// Transform applies t to all vertices.
func (m *Mesh) Transform(t math3d.Transform) {
	for i := range m.Vertices {
		m.Vertices[i] = t.Apply(m.Vertices[i])
	}
	m.CalculateBounds()
}

// Recenter moves the mesh so its bounding box is centered on the origin.
func (m *Mesh) Recenter() {
	c := m.Center()
	m.Transform(math3d.Translation(-c.X, -c.Y, -c.Z))
}

// Polygons expands the indexed faces into polygons, in face order. Faces
// referencing a vertex out of range are skipped and counted.
func (m *Mesh) Polygons() (polys []scene.Polygon, skipped int) {
	polys = make([]scene.Polygon, 0, len(m.Faces))
	for _, f := range m.Faces {
		if !m.validFace(f) {
			skipped++
			continue
		}
		polys = append(polys, scene.NewPolygon(
			m.Vertices[f.V[0]],
			m.Vertices[f.V[1]],
			m.Vertices[f.V[2]],
			f.Reflectance,
		))
	}
	return polys, skipped
}

func (m *Mesh) validFace(f Face) bool {
	for _, i := range f.V {
		if i < 0 || i >= len(m.Vertices) {
			return false
		}
	}
	return true
}
