package glm

// Quaternion is a rotation quaternion with vector part V and scalar part S.
type Quaternion[T numeric] struct {
	V Vec3[T]
	S T
}

func IdentityQuaternion[T numeric]() Quaternion[T] {
	return Quaternion[T]{S: 1}
}

// QuaternionFromAxisAngle builds a rotation of angle around axis.
func QuaternionFromAxisAngle[T float](axis Vec3[T], angle Rad) Quaternion[T] {
	s, c := fastSincos(angle / 2)

	return Quaternion[T]{
		V: axis.Normalize().MulScalar(T(s)),
		S: T(c),
	}
}

// Mul composes two rotations, rhs is applied first.
func (lhs Quaternion[T]) Mul(rhs Quaternion[T]) Quaternion[T] {
	return Quaternion[T]{
		V: rhs.V.MulScalar(lhs.S).
			Add(lhs.V.MulScalar(rhs.S)).
			Add(lhs.V.Cross(rhs.V)),
		S: lhs.S*rhs.S - lhs.V.Dot(rhs.V),
	}
}

// Rotate applies the rotation to the vector.
func (lhs Quaternion[T]) Rotate(v Vec3[T]) Vec3[T] {
	t := lhs.V.Cross(v).MulScalar(2)
	return v.Add(t.MulScalar(lhs.S)).Add(lhs.V.Cross(t))
}
