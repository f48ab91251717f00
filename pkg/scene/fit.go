package scene

import (
	"math"

	"github.com/taigrr/flatshade/pkg/math3d"
)

// FitScale returns the uniform scale that makes b fit a width×height
// viewport. Each axis gets half the viewport: width/2 for X, height/2 for Y
// and min(width, height)/2 for Z. The smallest candidate wins so the aspect
// ratio is kept. Flat axes do not constrain the scale; a box that is flat
// along every axis keeps scale 1.
func FitScale(b Bounds, width, height int) float64 {
	w, h := float64(width), float64(height)
	candidates := [3]float64{
		w / 2 / b.Width(),
		h / 2 / b.Height(),
		math.Min(w, h) / 2 / b.Depth(),
	}

	scale := math.Inf(1)
	for _, c := range candidates {
		if c > 0 && !math.IsInf(c, 0) && !math.IsNaN(c) {
			scale = math.Min(scale, c)
		}
	}
	if math.IsInf(scale, 1) {
		return 1
	}
	return scale
}

// centering returns the translation that moves the X/Y extent of b to the
// center of the viewport. Z is left alone.
func centering(b Bounds, width, height int) math3d.Transform {
	dx := (float64(width)-b.Width())/2 - b.Min.X
	dy := (float64(height)-b.Height())/2 - b.Min.Y
	return math3d.Translation(dx, dy, 0)
}

// FitByScaleTranslate uniformly scales s so that b, its bounding box, fits
// the viewport, then centers it. b is normally BoundsOf(s).
func FitByScaleTranslate(s Scene, b Bounds, width, height int) Scene {
	scale := math3d.UniformScaling(FitScale(b, width, height))
	scaled := b.Transform(scale)
	return s.ApplyTransform(math3d.Compose(scale, centering(scaled, width, height)))
}

// ReTranslation centers s in the viewport without rescaling, given its
// precomputed bounding box b.
func ReTranslation(s Scene, b Bounds, width, height int) Scene {
	return s.ApplyTransform(centering(b, width, height))
}
