package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/spf13/cobra"

	"github.com/taigrr/flatshade/pkg/math3d"
	"github.com/taigrr/flatshade/pkg/models"
	"github.com/taigrr/flatshade/pkg/scene"
)

// parseColor accepts "r,g,b" with 0-255 channels or a hex color such as
// "#1e1e28" (the leading # is optional).
func parseColor(s string) (scene.Color, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") {
		parts := strings.Split(s, ",")
		if len(parts) != 3 {
			return scene.Color{}, fmt.Errorf("color %q: want r,g,b", s)
		}
		var rgb [3]uint8
		for i, p := range parts {
			v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
			if err != nil {
				return scene.Color{}, fmt.Errorf("color %q: channel %q out of range 0-255", s, p)
			}
			rgb[i] = uint8(v)
		}
		return scene.RGB(rgb[0], rgb[1], rgb[2]), nil
	}

	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return scene.Color{}, fmt.Errorf("color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return scene.RGB(r, g, b), nil
}

// parseVec3 accepts "x,y,z".
func parseVec3(s string) (math3d.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return math3d.Vec3{}, fmt.Errorf("vector %q: want x,y,z", s)
	}
	var xyz [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return math3d.Vec3{}, fmt.Errorf("vector %q: invalid component %q", s, p)
		}
		xyz[i] = f
	}
	return math3d.V3(xyz[0], xyz[1], xyz[2]), nil
}

// colorValue is a flag holding a color. set reports whether the flag was
// given, so optional overrides can fall back to the scene's own value.
type colorValue struct {
	c   scene.Color
	set bool
}

func newColorValue(def scene.Color) *colorValue {
	return &colorValue{c: def}
}

func (v *colorValue) String() string {
	return fmt.Sprintf("%d,%d,%d", v.c.R, v.c.G, v.c.B)
}

func (v *colorValue) Set(s string) error {
	c, err := parseColor(s)
	if err != nil {
		return err
	}
	v.c, v.set = c, true
	return nil
}

func (v *colorValue) Type() string { return "color" }

type vec3Value struct {
	v   math3d.Vec3
	set bool
}

func (v *vec3Value) String() string {
	return fmt.Sprintf("%g,%g,%g", v.v.X, v.v.Y, v.v.Z)
}

func (v *vec3Value) Set(s string) error {
	p, err := parseVec3(s)
	if err != nil {
		return err
	}
	v.v, v.set = p, true
	return nil
}

func (v *vec3Value) Type() string { return "x,y,z" }

// sceneFlags are the loader flags shared by every command that reads a
// scene.
type sceneFlags struct {
	ambient     *colorValue
	lightColor  *colorValue
	light       *vec3Value
	reflectance *colorValue
	noRecenter  bool
}

func addSceneFlags(cmd *cobra.Command) *sceneFlags {
	f := &sceneFlags{
		ambient:     newColorValue(models.DefaultAmbient),
		lightColor:  newColorValue(scene.ColorWhite),
		light:       &vec3Value{v: models.DefaultLight},
		reflectance: newColorValue(scene.RGB(200, 200, 200)),
	}
	fs := cmd.Flags()
	fs.Var(f.ambient, "ambient", "Ambient light color (r,g,b or hex)")
	fs.Var(f.lightColor, "light-color", "Override the scene's light color")
	fs.Var(f.light, "light", "Override the scene's light position")
	fs.Var(f.reflectance, "reflectance", "Polygon color for glTF models")
	fs.BoolVar(&f.noRecenter, "no-recenter", false, "Keep glTF models at their file coordinates")
	return f
}

func (f *sceneFlags) options() []models.LoadOption {
	opts := []models.LoadOption{
		models.WithAmbient(f.ambient.c),
		models.WithReflectance(f.reflectance.c),
		models.WithRecenter(!f.noRecenter),
	}
	if f.lightColor.set {
		opts = append(opts, models.WithLightColor(f.lightColor.c))
	}
	if f.light.set {
		opts = append(opts, models.WithLight(f.light.v))
	}
	return opts
}

func (f *sceneFlags) load(path string) (scene.Scene, error) {
	sc, err := models.Load(path, f.options()...)
	if err != nil {
		return scene.Scene{}, fmt.Errorf("load scene: %w", err)
	}
	return sc, nil
}

func degToRad(d float64) float64 {
	return d * math.Pi / 180
}
