package sim

import (
	"github.com/furui/fastnoiselite-go"
	"github.com/oliverbestmann/parallax/glm"
)

// headMotion produces a smooth, deterministic head sway around a
// standing position.
type headMotion struct {
	noise  *fastnoiselite.FastNoiseLite
	offset float32
	frame  int
}

func newHeadMotion(seed int) *headMotion {
	noise := fastnoiselite.NewNoise()
	noise.SetNoiseType(fastnoiselite.NoiseTypeOpenSimplex2)
	noise.FractalType = fastnoiselite.FractalTypeFBm

	return &headMotion{noise: noise, offset: float32(seed) * 1000}
}

func (m *headMotion) sample(x, y float32) float32 {
	return float32(m.noise.GetNoise2D(fastnoiselite.FNLfloat(x), fastnoiselite.FNLfloat(y+m.offset)))
}

// next returns the pose for the next frame.
func (m *headMotion) next() glm.Posef {
	t := float32(m.frame) * 0.5
	m.frame += 1

	yaw := glm.DegToRad(20 * m.sample(t, 0))
	pitch := glm.DegToRad(8 * m.sample(t, 100))

	orientation := glm.QuaternionFromAxisAngle(glm.Vec3f{0, 1, 0}, yaw).
		Mul(glm.QuaternionFromAxisAngle(glm.Vec3f{1, 0, 0}, pitch))

	return glm.Posef{
		Orientation: orientation,
		Position: glm.Vec3f{
			0.05 * m.sample(t, 200),
			1.7 + 0.02*m.sample(t, 300),
			0.05 * m.sample(t, 400),
		},
	}
}
