package math3d

import "math"

// Transform is an affine 4x4 matrix stored in column-major order.
//
// Memory layout (indices):
// | 0  4  8  12 |
// | 1  5  9  13 |
// | 2  6  10 14 |
// | 3  7  11 15 |
//
// The bottom row is always (0, 0, 0, 1): only rotations, scales and
// translations are built, so applying a Transform never needs a divide.
type Transform [16]float64

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translation creates a translation by (dx, dy, dz).
func Translation(dx, dy, dz float64) Transform {
	return Transform{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		dx, dy, dz, 1,
	}
}

// Scaling creates a non-uniform scale.
func Scaling(sx, sy, sz float64) Transform {
	return Transform{
		sx, 0, 0, 0,
		0, sy, 0, 0,
		0, 0, sz, 0,
		0, 0, 0, 1,
	}
}

// UniformScaling creates a scale by s along every axis.
func UniformScaling(s float64) Transform {
	return Scaling(s, s, s)
}

// RotationX creates a right-handed rotation of angle radians around the X axis.
func RotationX(angle float64) Transform {
	c, s := math.Cos(angle), math.Sin(angle)
	return Transform{
		1, 0, 0, 0,
		0, c, s, 0,
		0, -s, c, 0,
		0, 0, 0, 1,
	}
}

// RotationY creates a right-handed rotation of angle radians around the Y axis.
func RotationY(angle float64) Transform {
	c, s := math.Cos(angle), math.Sin(angle)
	return Transform{
		c, 0, -s, 0,
		0, 1, 0, 0,
		s, 0, c, 0,
		0, 0, 0, 1,
	}
}

// RotationZ creates a right-handed rotation of angle radians around the Z axis.
func RotationZ(angle float64) Transform {
	c, s := math.Cos(angle), math.Sin(angle)
	return Transform{
		c, s, 0, 0,
		-s, c, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Then returns the transform that applies t first and next second.
func (t Transform) Then(next Transform) Transform {
	return next.mul(t)
}

// Compose chains transforms left to right: the result applies ts[0] first,
// then ts[1], and so on. Composing nothing yields the identity.
func Compose(ts ...Transform) Transform {
	out := Identity()
	for _, t := range ts {
		out = out.Then(t)
	}
	return out
}

// mul is the plain matrix product a * b.
func (a Transform) mul(b Transform) Transform {
	var m Transform
	for col := range 4 {
		for row := range 4 {
			var sum float64
			for k := range 4 {
				sum += a[row+k*4] * b[k+col*4]
			}
			m[row+col*4] = sum
		}
	}
	return m
}

// Apply transforms v as a point (w=1). W of the result is ignored.
func (t Transform) Apply(v Vec3) Vec3 {
	return t.MulVec4(Point(v)).Vec3()
}

// ApplyDir transforms v as a direction (w=0, no translation).
func (t Transform) ApplyDir(v Vec3) Vec3 {
	return t.MulVec4(Direction(v)).Vec3()
}

// MulVec4 multiplies the matrix by a homogeneous vector.
func (t Transform) MulVec4(v Vec4) Vec4 {
	return Vec4{
		t[0]*v.X + t[4]*v.Y + t[8]*v.Z + t[12]*v.W,
		t[1]*v.X + t[5]*v.Y + t[9]*v.Z + t[13]*v.W,
		t[2]*v.X + t[6]*v.Y + t[10]*v.Z + t[14]*v.W,
		t[3]*v.X + t[7]*v.Y + t[11]*v.Z + t[15]*v.W,
	}
}

// Get returns the element at (row, col).
func (t Transform) Get(row, col int) float64 {
	return t[row+col*4]
}

// TranslationPart extracts the translation component.
func (t Transform) TranslationPart() Vec3 {
	return Vec3{t[12], t[13], t[14]}
}

// ApproxEqual reports whether every element of t and o differs by at most eps.
func (t Transform) ApproxEqual(o Transform, eps float64) bool {
	for i := range t {
		if math.Abs(t[i]-o[i]) > eps {
			return false
		}
	}
	return true
}
