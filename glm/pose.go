package glm

// Pose is a rigid transform, usually the placement of a head or an eye
// in tracking space.
type Pose[T float] struct {
	Orientation Quaternion[T]
	Position    Vec3[T]
}

type Posef = Pose[float32]

// Matrix returns the transform from the local space of the pose into
// the space the pose is expressed in.
func (p Pose[T]) Matrix() Mat4[T] {
	return TranslationMat4(p.Position[0], p.Position[1], p.Position[2]).
		Mul(Mat4FromQuaternion(p.Orientation))
}

// ViewMatrix returns the inverse of Matrix, as needed for a camera
// placed at this pose.
func (p Pose[T]) ViewMatrix() Mat4[T] {
	return p.Matrix().InverseRigid()
}

// Mul places the child pose, expressed relative to p, into the
// space p is expressed in.
func (p Pose[T]) Mul(child Pose[T]) Pose[T] {
	return Pose[T]{
		Orientation: p.Orientation.Mul(child.Orientation),
		Position:    p.Position.Add(p.Orientation.Rotate(child.Position)),
	}
}
