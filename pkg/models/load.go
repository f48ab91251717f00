package models

import (
	"path/filepath"
	"strings"

	"github.com/taigrr/flatshade/pkg/scene"
)

// Format identifies a scene file format.
type Format int

const (
	FormatText Format = iota // flatshade text scene
	FormatGLTF               // glTF JSON or binary GLB
)

func (f Format) String() string {
	switch f {
	case FormatGLTF:
		return "gltf"
	default:
		return "text"
	}
}

// DetectFormat picks the format from the file extension. Anything that is not
// .gltf or .glb is read as a text scene.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gltf", ".glb":
		return FormatGLTF
	default:
		return FormatText
	}
}

// Load reads a scene from path in the format given by its extension.
func Load(path string, opts ...LoadOption) (scene.Scene, error) {
	if DetectFormat(path) == FormatGLTF {
		return LoadGLTF(path, opts...)
	}
	return LoadScene(path, opts...)
}
