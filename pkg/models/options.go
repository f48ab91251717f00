package models

import (
	"github.com/taigrr/flatshade/pkg/math3d"
	"github.com/taigrr/flatshade/pkg/scene"
)

// DefaultLight is the light position used for models that carry none. It
// sits in front of the model, on the viewer's side.
var DefaultLight = math3d.V3(0, 0, -1)

// DefaultAmbient is the ambient color used when none is configured.
var DefaultAmbient = scene.RGB(40, 40, 40)

type loadConfig struct {
	ambient     scene.Color
	lightColor  *scene.Color
	light       *math3d.Vec3
	reflectance scene.Color
	recenter    bool
}

// LoadOption configures a loader.
type LoadOption func(*loadConfig)

// WithAmbient sets the ambient color of the loaded scene.
func WithAmbient(c scene.Color) LoadOption {
	return func(cfg *loadConfig) {
		cfg.ambient = c
	}
}

// WithLightColor overrides the light color. Scene files may set their own
// light color; this option takes precedence.
func WithLightColor(c scene.Color) LoadOption {
	return func(cfg *loadConfig) {
		cfg.lightColor = &c
	}
}

// WithLight overrides the light position.
func WithLight(pos math3d.Vec3) LoadOption {
	return func(cfg *loadConfig) {
		cfg.light = &pos
	}
}

// WithReflectance sets the reflectance of every polygon of a glTF model.
// Scene files carry per-polygon reflectance and ignore it.
func WithReflectance(c scene.Color) LoadOption {
	return func(cfg *loadConfig) {
		cfg.reflectance = c
	}
}

// WithRecenter centers glTF models on the origin before building the scene.
func WithRecenter(on bool) LoadOption {
	return func(cfg *loadConfig) {
		cfg.recenter = on
	}
}

func newLoadConfig(opts []LoadOption) loadConfig {
	cfg := loadConfig{
		ambient:     DefaultAmbient,
		reflectance: scene.RGB(200, 200, 200),
		recenter:    true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// relight applies the configured ambient and any light overrides to a
// freshly loaded scene.
func (cfg loadConfig) relight(sc scene.Scene) scene.Scene {
	light, lightColor := sc.Light(), sc.LightColor()
	if cfg.light != nil {
		light = *cfg.light
	}
	if cfg.lightColor != nil {
		lightColor = *cfg.lightColor
	}
	return sc.WithLighting(light, lightColor, cfg.ambient)
}
