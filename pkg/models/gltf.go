package models

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/taigrr/flatshade/pkg/math3d"
	"github.com/taigrr/flatshade/pkg/scene"
)

// ErrNoTriangles is returned for a model without any triangle primitive.
var ErrNoTriangles = errors.New("model has no triangles")

// gltfToScreen maps glTF axes (Y up, viewer on +Z looking toward -Z) onto
// the pipeline's (Y down, viewer looking toward +Z). It is a half turn about
// X, so winding and therefore facing are preserved.
var gltfToScreen = math3d.Scaling(1, -1, -1)

// LoadGLTF loads the triangle primitives of a glTF or GLB file as a scene.
// Every polygon gets the reflectance set by WithReflectance. The model is
// centered on the origin unless WithRecenter(false) is given, and is lit from
// DefaultLight unless WithLight is given.
func LoadGLTF(path string, opts ...LoadOption) (scene.Scene, error) {
	cfg := newLoadConfig(opts)

	mesh, err := LoadGLTFMesh(path, cfg.reflectance)
	if err != nil {
		return scene.Scene{}, err
	}
	if mesh.TriangleCount() == 0 {
		return scene.Scene{}, fmt.Errorf("%s: %w", path, ErrNoTriangles)
	}
	mesh.Transform(gltfToScreen)
	if cfg.recenter {
		mesh.Recenter()
	}

	polys, skipped := mesh.Polygons()
	if skipped > 0 {
		return scene.Scene{}, fmt.Errorf("%s: %d faces reference missing vertices", path, skipped)
	}

	return cfg.relight(scene.New(polys, DefaultLight, scene.ColorWhite, DefaultAmbient)), nil
}

// LoadGLTFMesh loads the triangle primitives of a glTF or GLB file into one
// mesh whose faces all have the given reflectance. Coordinates are left in
// glTF axes.
func LoadGLTFMesh(path string, reflectance scene.Color) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	mesh := NewMesh(filepath.Base(path))
	for _, m := range doc.Meshes {
		if err := processMesh(doc, m, mesh, reflectance); err != nil {
			return nil, fmt.Errorf("process mesh %q: %w", m.Name, err)
		}
	}
	mesh.CalculateBounds()

	return mesh, nil
}

// processMesh appends the geometry of one glTF mesh.
func processMesh(doc *gltf.Document, m *gltf.Mesh, mesh *Mesh, reflectance scene.Color) error {
	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
			// Skip non-triangle primitives (lines, points, etc)
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}

		positions, err := readPositions(doc, posIdx)
		if err != nil {
			return fmt.Errorf("read positions: %w", err)
		}

		baseVertex := len(mesh.Vertices)
		mesh.Vertices = append(mesh.Vertices, positions...)

		var indices []int
		if prim.Indices != nil {
			indices, err = readIndices(doc, *prim.Indices)
			if err != nil {
				return fmt.Errorf("read indices: %w", err)
			}
		} else {
			// No indices, assume sequential triangles
			indices = make([]int, len(positions))
			for i := range indices {
				indices[i] = i
			}
		}

		for i := 0; i+2 < len(indices); i += 3 {
			mesh.Faces = append(mesh.Faces, Face{
				V: [3]int{
					baseVertex + indices[i],
					baseVertex + indices[i+1],
					baseVertex + indices[i+2],
				},
				Reflectance: reflectance,
			})
		}
	}

	return nil
}

// readPositions reads a POSITION accessor. Float positions are read as is;
// integer positions (KHR_mesh_quantization) are converted, and normalized
// ones are mapped to [0,1] or [-1,1].
func readPositions(doc *gltf.Document, accessorIdx int) ([]math3d.Vec3, error) {
	if accessorIdx < 0 || accessorIdx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", accessorIdx)
	}
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorVec3 {
		return nil, fmt.Errorf("expected VEC3, got %v", accessor.Type)
	}

	if accessor.ComponentType == gltf.ComponentFloat {
		pos, err := modeler.ReadPosition(doc, accessor, nil)
		if err != nil {
			return nil, err
		}
		return toVec3(pos, 1, false), nil
	}

	data, err := modeler.ReadAccessor(doc, accessor, nil)
	if err != nil {
		return nil, err
	}
	norm := accessor.Normalized
	switch data := data.(type) {
	case [][3]uint8:
		return toVec3(data, math.MaxUint8, norm), nil
	case [][3]int8:
		return toVec3(data, math.MaxInt8, norm), nil
	case [][3]uint16:
		return toVec3(data, math.MaxUint16, norm), nil
	case [][3]int16:
		return toVec3(data, math.MaxInt16, norm), nil
	default:
		return nil, fmt.Errorf("unsupported position component type %v", accessor.ComponentType)
	}
}

type positionComponent interface {
	~float32 | ~uint8 | ~int8 | ~uint16 | ~int16
}

// toVec3 widens accessor elements to Vec3. When normalized, components are
// divided by maxVal and clamped at -1, as glTF defines for signed types.
func toVec3[T positionComponent](data [][3]T, maxVal float64, normalized bool) []math3d.Vec3 {
	result := make([]math3d.Vec3, len(data))
	for i, e := range data {
		var xyz [3]float64
		for j, c := range e {
			xyz[j] = float64(c)
			if normalized {
				xyz[j] = max(xyz[j]/maxVal, -1)
			}
		}
		result[i] = math3d.V3(xyz[0], xyz[1], xyz[2])
	}
	return result
}

// readIndices reads scalar index data from a glTF accessor.
func readIndices(doc *gltf.Document, accessorIdx int) ([]int, error) {
	if accessorIdx < 0 || accessorIdx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", accessorIdx)
	}
	raw, err := modeler.ReadIndices(doc, doc.Accessors[accessorIdx], nil)
	if err != nil {
		return nil, err
	}
	result := make([]int, len(raw))
	for i, idx := range raw {
		result[i] = int(idx)
	}
	return result, nil
}
