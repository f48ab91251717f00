package models

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/taigrr/flatshade/pkg/math3d"
	"github.com/taigrr/flatshade/pkg/scene"
)

// writeTriangleGLTF writes a glTF file holding one indexed triangle with the
// given vertices, embedded as a base64 data URI.
func writeTriangleGLTF(t *testing.T, verts [3]math3d.Vec3) string {
	t.Helper()

	buf := make([]byte, 0, 44)
	for _, v := range verts {
		for _, f := range []float64{v.X, v.Y, v.Z} {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(f)))
		}
	}
	for _, i := range []uint16{0, 1, 2} {
		buf = binary.LittleEndian.AppendUint16(buf, i)
	}
	buf = append(buf, 0, 0) // pad to a multiple of 4

	minV := verts[0].Min(verts[1]).Min(verts[2])
	maxV := verts[0].Max(verts[1]).Max(verts[2])

	doc := fmt.Sprintf(`{
  "asset": {"version": "2.0"},
  "buffers": [{"byteLength": %d, "uri": "data:application/octet-stream;base64,%s"}],
  "bufferViews": [
    {"buffer": 0, "byteOffset": 0, "byteLength": 36},
    {"buffer": 0, "byteOffset": 36, "byteLength": 6}
  ],
  "accessors": [
    {"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3",
     "min": [%g, %g, %g], "max": [%g, %g, %g]},
    {"bufferView": 1, "componentType": 5123, "count": 3, "type": "SCALAR"}
  ],
  "meshes": [{"name": "tri", "primitives": [{"attributes": {"POSITION": 0}, "indices": 1, "mode": 4}]}]
}`, len(buf), base64.StdEncoding.EncodeToString(buf),
		minV.X, minV.Y, minV.Z, maxV.X, maxV.Y, maxV.Z)

	path := filepath.Join(t.TempDir(), "tri.gltf")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// ccwTriangle winds counter-clockwise seen from +Z, so it faces a glTF
// viewer.
var ccwTriangle = [3]math3d.Vec3{
	math3d.V3(0, 0, 0),
	math3d.V3(2, 0, 0),
	math3d.V3(0, 2, 0),
}

func TestLoadGLTFMesh(t *testing.T) {
	path := writeTriangleGLTF(t, ccwTriangle)

	mesh, err := LoadGLTFMesh(path, scene.ColorGray)
	if err != nil {
		t.Fatalf("LoadGLTFMesh: %v", err)
	}
	if mesh.VertexCount() != 3 || mesh.TriangleCount() != 1 {
		t.Fatalf("got %d vertices, %d faces", mesh.VertexCount(), mesh.TriangleCount())
	}
	if mesh.Faces[0].V != [3]int{0, 1, 2} {
		t.Errorf("face = %v, want [0 1 2]", mesh.Faces[0].V)
	}
	for i, v := range mesh.Vertices {
		if !v.ApproxEqual(ccwTriangle[i], 1e-6) {
			t.Errorf("vertex %d = %v, want %v", i, v, ccwTriangle[i])
		}
	}
	if !mesh.Size().ApproxEqual(math3d.V3(2, 2, 0), 1e-6) {
		t.Errorf("Size() = %v", mesh.Size())
	}
}

// writeQuantizedGLTF writes a glTF file whose positions are 16-bit integers
// of the given component type, padded to a 4-byte stride, followed by the
// index buffer.
func writeQuantizedGLTF(t *testing.T, componentType int, normalized bool, raw [3][3]uint16) string {
	t.Helper()

	buf := make([]byte, 0, 32)
	for _, v := range raw {
		for _, c := range v {
			buf = binary.LittleEndian.AppendUint16(buf, c)
		}
		buf = append(buf, 0, 0)
	}
	for _, i := range []uint16{0, 1, 2} {
		buf = binary.LittleEndian.AppendUint16(buf, i)
	}
	buf = append(buf, 0, 0)

	doc := fmt.Sprintf(`{
  "asset": {"version": "2.0"},
  "extensionsUsed": ["KHR_mesh_quantization"],
  "buffers": [{"byteLength": %d, "uri": "data:application/octet-stream;base64,%s"}],
  "bufferViews": [
    {"buffer": 0, "byteOffset": 0, "byteLength": 24, "byteStride": 8},
    {"buffer": 0, "byteOffset": 24, "byteLength": 6}
  ],
  "accessors": [
    {"bufferView": 0, "componentType": %d, "normalized": %t, "count": 3, "type": "VEC3"},
    {"bufferView": 1, "componentType": 5123, "count": 3, "type": "SCALAR"}
  ],
  "meshes": [{"primitives": [{"attributes": {"POSITION": 0}, "indices": 1}]}]
}`, len(buf), base64.StdEncoding.EncodeToString(buf), componentType, normalized)

	path := filepath.Join(t.TempDir(), "quantized.gltf")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadGLTFMeshQuantized(t *testing.T) {
	const (
		componentShort  = 5122
		componentUshort = 5123
	)
	tests := []struct {
		name          string
		componentType int
		normalized    bool
		raw           [3][3]uint16
		want          [3]math3d.Vec3
	}{
		{
			name:          "ushort",
			componentType: componentUshort,
			raw:           [3][3]uint16{{0, 0, 0}, {10, 0, 0}, {0, 10, 0}},
			want:          [3]math3d.Vec3{math3d.V3(0, 0, 0), math3d.V3(10, 0, 0), math3d.V3(0, 10, 0)},
		},
		{
			name:          "normalized ushort",
			componentType: componentUshort,
			normalized:    true,
			raw:           [3][3]uint16{{0, 0, 0}, {65535, 0, 0}, {0, 65535, 0}},
			want:          [3]math3d.Vec3{math3d.V3(0, 0, 0), math3d.V3(1, 0, 0), math3d.V3(0, 1, 0)},
		},
		{
			name:          "normalized short",
			componentType: componentShort,
			normalized:    true,
			raw:           [3][3]uint16{{0x8001, 0, 0}, {32767, 0, 0}, {0, 0x8000, 0}},
			want:          [3]math3d.Vec3{math3d.V3(-1, 0, 0), math3d.V3(1, 0, 0), math3d.V3(0, -1, 0)},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeQuantizedGLTF(t, tc.componentType, tc.normalized, tc.raw)

			mesh, err := LoadGLTFMesh(path, scene.ColorGray)
			if err != nil {
				t.Fatalf("LoadGLTFMesh: %v", err)
			}
			if mesh.VertexCount() != 3 || mesh.TriangleCount() != 1 {
				t.Fatalf("got %d vertices, %d faces", mesh.VertexCount(), mesh.TriangleCount())
			}
			for i, v := range mesh.Vertices {
				if !v.ApproxEqual(tc.want[i], 1e-9) {
					t.Errorf("vertex %d = %v, want %v", i, v, tc.want[i])
				}
			}
		})
	}
}

func TestLoadGLTFMeshBadAccessor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.gltf")
	doc := `{
  "asset": {"version": "2.0"},
  "buffers": [{"byteLength": 4, "uri": "data:application/octet-stream;base64,AAAAAA=="}],
  "bufferViews": [{"buffer": 0, "byteOffset": 0, "byteLength": 4}],
  "accessors": [{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"}],
  "meshes": [{"primitives": [{"attributes": {"POSITION": 0}}]}]
}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadGLTFMesh(path, scene.ColorGray); err == nil {
		t.Error("expected error for an accessor larger than its buffer view")
	}
}

func TestLoadGLTFFacesViewer(t *testing.T) {
	path := writeTriangleGLTF(t, ccwTriangle)

	sc, err := LoadGLTF(path, WithRecenter(false), WithReflectance(scene.RGB(9, 8, 7)))
	if err != nil {
		t.Fatalf("LoadGLTF: %v", err)
	}
	if sc.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", sc.Len())
	}

	p := sc.Polygon(0)
	if p.IsBackFacing() {
		t.Errorf("glTF front face is back-facing, normal %v", p.Normal())
	}
	if p.Reflectance != scene.RGB(9, 8, 7) {
		t.Errorf("reflectance = %v", p.Reflectance)
	}
	// Y up in glTF is up on screen, where Y grows downward.
	if !p.Vertices[2].ApproxEqual(math3d.V3(0, -2, 0), 1e-6) {
		t.Errorf("top vertex = %v, want (0, -2, 0)", p.Vertices[2])
	}
	if sc.Light() != DefaultLight || sc.Ambient() != DefaultAmbient {
		t.Errorf("light %v ambient %v, want defaults", sc.Light(), sc.Ambient())
	}
}

func TestLoadGLTFRecenter(t *testing.T) {
	path := writeTriangleGLTF(t, ccwTriangle)

	sc, err := LoadGLTF(path)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := scene.BoundsOf(sc)
	if !b.Center().ApproxEqual(math3d.Zero3(), 1e-6) {
		t.Errorf("center = %v, want origin", b.Center())
	}
}

func TestLoadGLTFInvalidPath(t *testing.T) {
	if _, err := LoadGLTF("/nonexistent/path.glb"); err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestLoadDispatch(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"model.glb", FormatGLTF},
		{"model.GLTF", FormatGLTF},
		{"cube.txt", FormatText},
		{"scene", FormatText},
	}
	for _, tc := range tests {
		if got := DetectFormat(tc.path); got != tc.want {
			t.Errorf("DetectFormat(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}

	gltfPath := writeTriangleGLTF(t, ccwTriangle)
	if sc, err := Load(gltfPath); err != nil || sc.Len() != 1 {
		t.Errorf("Load(gltf) = %d polygons, %v", sc.Len(), err)
	}

	textPath := filepath.Join(t.TempDir(), "one.txt")
	if err := os.WriteFile(textPath, []byte(oneTriangle), 0o644); err != nil {
		t.Fatal(err)
	}
	if sc, err := Load(textPath); err != nil || sc.Len() != 1 {
		t.Errorf("Load(text) = %d polygons, %v", sc.Len(), err)
	}
}

func TestMeshPolygonsSkipsBadFaces(t *testing.T) {
	mesh := NewMesh("test")
	mesh.Vertices = []math3d.Vec3{math3d.V3(0, 0, 0), math3d.V3(1, 0, 0), math3d.V3(0, 1, 0)}
	mesh.Faces = []Face{
		{V: [3]int{0, 1, 2}, Reflectance: scene.ColorWhite},
		{V: [3]int{0, 1, 3}, Reflectance: scene.ColorWhite},
		{V: [3]int{-1, 1, 2}, Reflectance: scene.ColorWhite},
	}

	polys, skipped := mesh.Polygons()
	if len(polys) != 1 || skipped != 2 {
		t.Errorf("got %d polygons, %d skipped, want 1 and 2", len(polys), skipped)
	}
}

func TestMeshRecenter(t *testing.T) {
	mesh := NewMesh("test")
	mesh.Vertices = []math3d.Vec3{math3d.V3(10, 20, 30), math3d.V3(12, 24, 36)}
	mesh.CalculateBounds()
	mesh.Recenter()

	if !mesh.Center().ApproxEqual(math3d.Zero3(), 1e-12) {
		t.Errorf("Center() = %v", mesh.Center())
	}
	if !mesh.Size().ApproxEqual(math3d.V3(2, 4, 6), 1e-12) {
		t.Errorf("Size() = %v", mesh.Size())
	}
}

func TestNoTriangles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.gltf")
	if err := os.WriteFile(path, []byte(`{"asset": {"version": "2.0"}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadGLTF(path); !errors.Is(err, ErrNoTriangles) {
		t.Errorf("err = %v, want ErrNoTriangles", err)
	}
}
