package sim

import (
	"errors"
	"fmt"
	"time"

	"github.com/oliverbestmann/parallax/glm"
	"github.com/oliverbestmann/parallax/orion"
	"github.com/oliverbestmann/parallax/pulse"
)

// XRSwapchain is the swapchain of one eye of a simulated XR runtime. It
// enforces the acquire, wait and release order of the images.
type XRSwapchain struct {
	Width, Height uint32
	SimImages     []*Image

	Acquires int
	Waits    int
	Releases int

	LastWaitTimeout time.Duration

	// if set, the next Wait fails with this error
	FailWait error

	acquired bool
	waited   bool
	next     int
}

func newXRSwapchain(eye pulse.Eye, width, height uint32, imageCount int) *XRSwapchain {
	s := &XRSwapchain{Width: width, Height: height}

	for idx := range imageCount {
		s.SimImages = append(s.SimImages, &Image{
			Label:  fmt.Sprintf("XR %s[%d]", eye, idx),
			Width:  width,
			Height: height,
		})
	}

	return s
}

func (s *XRSwapchain) Size() (uint32, uint32) {
	return s.Width, s.Height
}

func (s *XRSwapchain) Images() []pulse.Image {
	images := make([]pulse.Image, 0, len(s.SimImages))
	for _, img := range s.SimImages {
		images = append(images, img)
	}

	return images
}

func (s *XRSwapchain) Acquire() (int, error) {
	if s.acquired {
		return 0, errors.New("sim: swapchain image already acquired")
	}

	s.Acquires += 1
	s.acquired = true
	s.waited = false

	index := s.next
	s.next = (s.next + 1) % len(s.SimImages)

	return index, nil
}

func (s *XRSwapchain) Wait(timeout time.Duration) error {
	if !s.acquired {
		return errors.New("sim: wait without acquired image")
	}

	if err := s.FailWait; err != nil {
		s.FailWait = nil
		return err
	}

	s.Waits += 1
	s.waited = true
	s.LastWaitTimeout = timeout

	return nil
}

func (s *XRSwapchain) Release() error {
	if !s.acquired || !s.waited {
		return errors.New("sim: release of an image that was not acquired and waited for")
	}

	s.Releases += 1
	s.acquired = false

	return nil
}

// Holding reports whether an image is acquired and not yet released.
func (s *XRSwapchain) Holding() bool {
	return s.acquired
}

// Runtime simulates an XR runtime. Session state changes are queued with
// Push and delivered by PollEvent.
type Runtime struct {
	ShouldRender bool

	// display period of the headset, defaults to 90 Hz
	FramePeriod time.Duration

	// if set, LocateViews fails with this error
	FailLocate error

	SessionsBegun int
	SessionsEnded int

	WaitFrames  int
	BeginFrames int
	EndFrames   int

	// layers and display times passed to EndFrame
	Layers       [][]orion.ProjectionLayer
	DisplayTimes []time.Duration

	events     []orion.Event
	swapchains [2]*XRSwapchain

	running     bool
	frameWaited bool
	frameBegun  bool
	displayTime time.Duration

	motion *headMotion
}

var _ orion.Runtime = (*Runtime)(nil)

func NewRuntime(width, height uint32, imageCount int) *Runtime {
	return &Runtime{
		ShouldRender: true,
		FramePeriod:  time.Second / 90,
		swapchains: [2]*XRSwapchain{
			newXRSwapchain(pulse.EyeLeft, width, height, imageCount),
			newXRSwapchain(pulse.EyeRight, width, height, imageCount),
		},
		motion: newHeadMotion(2),
	}
}

// Push queues session state changes.
func (r *Runtime) Push(events ...orion.SessionEvent) {
	for _, event := range events {
		r.events = append(r.events, orion.Event{StateChanged: true, State: event})
	}
}

// PushEvent queues any event.
func (r *Runtime) PushEvent(event orion.Event) {
	r.events = append(r.events, event)
}

func (r *Runtime) PollEvent() (orion.Event, bool, error) {
	if len(r.events) == 0 {
		return orion.Event{}, false, nil
	}

	event := r.events[0]
	r.events = r.events[1:]

	return event, true, nil
}

func (r *Runtime) BeginSession() error {
	if r.running {
		return errors.New("sim: session already running")
	}

	r.running = true
	r.SessionsBegun += 1
	return nil
}

func (r *Runtime) EndSession() error {
	if !r.running {
		return errors.New("sim: session not running")
	}

	r.running = false
	r.SessionsEnded += 1
	return nil
}

// Running reports whether the session was begun and not ended.
func (r *Runtime) Running() bool {
	return r.running
}

func (r *Runtime) WaitFrame() (orion.FrameState, error) {
	if !r.running {
		return orion.FrameState{}, errors.New("sim: wait frame without running session")
	}

	r.WaitFrames += 1
	r.frameWaited = true
	r.displayTime += r.FramePeriod

	state := orion.FrameState{
		PredictedDisplayTime: r.displayTime,
		ShouldRender:         r.ShouldRender,
	}

	return state, nil
}

func (r *Runtime) BeginFrame() error {
	if !r.frameWaited || r.frameBegun {
		return errors.New("sim: begin frame out of order")
	}

	r.BeginFrames += 1
	r.frameWaited = false
	r.frameBegun = true
	return nil
}

func (r *Runtime) LocateViews(displayTime time.Duration) (orion.XRView, orion.XRView, error) {
	if r.FailLocate != nil {
		return orion.XRView{}, orion.XRView{}, r.FailLocate
	}

	head := r.motion.next()

	view := func(offset float32, fov glm.Fov) orion.XRView {
		eye := glm.Posef{
			Orientation: glm.IdentityQuaternion[float32](),
			Position:    glm.Vec3f{offset, 0, 0},
		}

		return orion.XRView{Pose: head.Mul(eye), Fov: fov}
	}

	left := view(-0.032, glm.Fov{Left: -0.95, Right: 0.8, Up: 0.85, Down: -0.95})
	right := view(0.032, glm.Fov{Left: -0.8, Right: 0.95, Up: 0.85, Down: -0.95})

	return left, right, nil
}

func (r *Runtime) EndFrame(displayTime time.Duration, layers []orion.ProjectionLayer) error {
	if !r.frameBegun {
		return errors.New("sim: end frame without begin frame")
	}

	for idx, swapchain := range r.swapchains {
		if swapchain.Holding() {
			return fmt.Errorf("sim: end frame while holding the %s eye image", pulse.Eye(idx))
		}
	}

	r.frameBegun = false
	r.EndFrames += 1
	r.Layers = append(r.Layers, layers)
	r.DisplayTimes = append(r.DisplayTimes, displayTime)

	return nil
}

func (r *Runtime) Swapchain(eye pulse.Eye) orion.XRSwapchain {
	return r.swapchains[eye]
}

// EyeSwapchain gives access to the simulated swapchain of an eye.
func (r *Runtime) EyeSwapchain(eye pulse.Eye) *XRSwapchain {
	return r.swapchains[eye]
}
