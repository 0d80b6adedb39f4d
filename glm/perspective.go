package glm

import "math"

// Perspective builds a symmetric projection matrix for a
// clip space depth range of [0, 1].
func Perspective[T float](fovY Rad, aspect, near, far T) Mat4[T] {
	half := fovY * 0.5
	tanY := T(math.Tan(float64(half)))
	tanX := tanY * aspect

	return Frustum(-tanX, tanX, tanY, -tanY, near, far)
}

// Fov describes an asymmetric field of view as the four angles of the
// frustum planes to the view direction. Left and Down are usually negative.
type Fov struct {
	Left, Right, Up, Down Rad
}

// FovFromTangents converts the tangents of the frustum half angles, as
// reported by most headset runtimes, into a Fov.
func FovFromTangents(tanLeft, tanRight, tanUp, tanDown float32) Fov {
	return Fov{
		Left:  Rad(math.Atan(float64(tanLeft))),
		Right: Rad(math.Atan(float64(tanRight))),
		Up:    Rad(math.Atan(float64(tanUp))),
		Down:  Rad(math.Atan(float64(tanDown))),
	}
}

// Projection builds the projection matrix for this field of view.
func (f Fov) Projection(near, far float32) Mat4f {
	return Frustum(
		float32(math.Tan(float64(f.Left))),
		float32(math.Tan(float64(f.Right))),
		float32(math.Tan(float64(f.Up))),
		float32(math.Tan(float64(f.Down))),
		near, far,
	)
}

// Frustum builds an off-axis projection matrix from the tangents of the
// four frustum half angles, mapping depth into [0, 1] with y pointing up.
func Frustum[T float](tanLeft, tanRight, tanUp, tanDown, near, far T) Mat4[T] {
	width := tanRight - tanLeft
	height := tanUp - tanDown
	depth := far - near

	return Mat4[T]{
		2 / width, 0, 0, 0,
		0, 2 / height, 0, 0,
		(tanRight + tanLeft) / width, (tanUp + tanDown) / height, -far / depth, -1,
		0, 0, -(far * near) / depth, 0,
	}
}

func DegToRad[T float](deg T) Rad {
	return Rad(float64(deg) * (math.Pi / 180))
}
