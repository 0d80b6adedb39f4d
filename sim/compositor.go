package sim

import (
	"fmt"
	"time"

	"github.com/oliverbestmann/parallax/glm"
	"github.com/oliverbestmann/parallax/pulse"
)

// Compositor simulates a VR compositor with a swaying head.
type Compositor struct {
	Width, Height uint32

	// distance between the eyes in meters
	IPD float32

	// time WaitPoses blocks to pace the frames
	FrameInterval time.Duration

	// errors returned by the next submission of an eye
	FailSubmit map[pulse.Eye]error

	// if set, WaitPoses fails with this error
	FailPoses error

	PoseWaits int
	Submitted []pulse.Eye
	Images    map[pulse.Eye]pulse.Image

	motion *headMotion
}

func NewCompositor(width, height uint32) *Compositor {
	return &Compositor{
		Width:      width,
		Height:     height,
		IPD:        0.064,
		FailSubmit: map[pulse.Eye]error{},
		Images:     map[pulse.Eye]pulse.Image{},
		motion:     newHeadMotion(1),
	}
}

func (c *Compositor) RenderTargetSize() (uint32, uint32) {
	return c.Width, c.Height
}

func (c *Compositor) WaitPoses() (glm.Posef, error) {
	c.PoseWaits += 1

	if c.FailPoses != nil {
		return glm.Posef{}, c.FailPoses
	}

	if c.FrameInterval > 0 {
		time.Sleep(c.FrameInterval)
	}

	return c.motion.next(), nil
}

func (c *Compositor) EyeToHead(eye pulse.Eye) glm.Posef {
	offset := c.IPD / 2
	if eye == pulse.EyeLeft {
		offset = -offset
	}

	return glm.Posef{
		Orientation: glm.IdentityQuaternion[float32](),
		Position:    glm.Vec3f{offset, 0, 0},
	}
}

func (c *Compositor) ProjectionRaw(eye pulse.Eye) (left, right, up, down float32) {
	// the nose side of each eye is narrower
	if eye == pulse.EyeLeft {
		return -1.39, 1.24, 1.11, -1.47
	}

	return -1.24, 1.39, 1.11, -1.47
}

func (c *Compositor) Submit(eye pulse.Eye, image pulse.Image) error {
	if err := c.FailSubmit[eye]; err != nil {
		delete(c.FailSubmit, eye)
		return fmt.Errorf("compositor rejected %s eye: %w", eye, err)
	}

	c.Submitted = append(c.Submitted, eye)
	c.Images[eye] = image

	return nil
}
