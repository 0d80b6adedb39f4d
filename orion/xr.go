package orion

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/oliverbestmann/parallax/glm"
	"github.com/oliverbestmann/parallax/pulse"
)

// InfiniteTimeout is passed to XRSwapchain.Wait. Runtimes guarantee
// that an acquired image eventually becomes available.
const InfiniteTimeout = time.Duration(math.MaxInt64)

// Event is polled from the Runtime.
type Event struct {
	// StateChanged is set for session state changes, State holds the new state.
	StateChanged bool
	State        SessionEvent

	// Name describes any other event.
	Name string
}

// FrameState is the result of waiting for the next frame.
type FrameState struct {
	PredictedDisplayTime time.Duration
	ShouldRender         bool
}

// XRView is the located view of one eye at the predicted display time.
type XRView struct {
	Pose glm.Posef
	Fov  glm.Fov
}

// XRSwapchain is the swapchain of one eye.
type XRSwapchain interface {
	Images() []pulse.Image
	Size() (width, height uint32)

	Acquire() (int, error)
	Wait(timeout time.Duration) error
	Release() error
}

// ProjectionView references the image rendered for one eye.
type ProjectionView struct {
	Eye       pulse.Eye
	Pose      glm.Posef
	Fov       glm.Fov
	Swapchain XRSwapchain
	ImageRect pulse.Rectangle2u
}

// ProjectionLayer is the composition layer submitted at the end of a frame.
type ProjectionLayer struct {
	Views [2]ProjectionView
}

// Runtime is an XR runtime with one session and one swapchain per eye.
type Runtime interface {
	// PollEvent returns the next pending event. ok is false if no event is pending.
	PollEvent() (event Event, ok bool, err error)

	BeginSession() error
	EndSession() error

	WaitFrame() (FrameState, error)
	BeginFrame() error
	LocateViews(displayTime time.Duration) (left, right XRView, err error)
	EndFrame(displayTime time.Duration, layers []ProjectionLayer) error

	Swapchain(eye pulse.Eye) XRSwapchain
}

type SessionOptions struct {
	ClearColor   *pulse.Color
	FenceTimeout time.Duration

	// time to sleep in NextFrame while the session is not running. Defaults to 10ms.
	IdleInterval time.Duration

	// clip planes of the eye projections, default to 0.05 and 100
	Near, Far float32
}

func (opts SessionOptions) withDefaults() SessionOptions {
	if opts.IdleInterval <= 0 {
		opts.IdleInterval = 10 * time.Millisecond
	}

	if opts.Near <= 0 {
		opts.Near = 0.05
	}

	if opts.Far <= opts.Near {
		opts.Far = 100
	}

	return opts
}

// SessionDriver drives the frame loop of an XR session. The session state
// follows the events of the runtime, see Transition.
type SessionDriver struct {
	runtime Runtime
	backend *pulse.Backend

	swapchains [2]XRSwapchain

	state SessionState
	opts  SessionOptions

	// replaced in tests
	sleep func(time.Duration)

	stats FrameStats
}

var _ Driver = (*SessionDriver)(nil)

func NewSessionDriver(device pulse.Device, queue *pulse.SharedQueue, runtime Runtime, opts SessionOptions) (*SessionDriver, error) {
	opts = opts.withDefaults()

	backend, err := pulse.NewBackend(device, queue, pulse.BackendOptions{
		Mode:         pulse.ModeStereo,
		ClearColor:   opts.ClearColor,
		FenceTimeout: opts.FenceTimeout,
	})

	if err != nil {
		return nil, err
	}

	left := runtime.Swapchain(pulse.EyeLeft)
	right := runtime.Swapchain(pulse.EyeRight)

	width, height := left.Size()
	if w, h := right.Size(); w != width || h != height {
		return nil, fmt.Errorf("eye swapchains differ in size: %dx%d and %dx%d", width, height, w, h)
	}

	images := pulse.Stereo(left.Images(), right.Images())
	if err := backend.Resize(images, width, height); err != nil {
		return nil, err
	}

	d := &SessionDriver{
		runtime:    runtime,
		backend:    backend,
		swapchains: [2]XRSwapchain{left, right},
		state:      SessionIdle,
		opts:       opts,
		sleep:      time.Sleep,
	}

	return d, nil
}

func (d *SessionDriver) Backend() *pulse.Backend {
	return d.backend
}

func (d *SessionDriver) Stats() *FrameStats {
	return &d.stats
}

func (d *SessionDriver) State() SessionState {
	return d.state
}

func (d *SessionDriver) NextFrame() (bool, error) {
	if d.backend.InFlight() {
		return false, fmt.Errorf("next frame: %w", pulse.ErrFenceBusy)
	}

	if err := d.pollEvents(); err != nil {
		return frameResult(err)
	}

	if d.state == SessionExiting {
		return false, nil
	}

	if !d.state.Renderable() {
		d.sleep(d.opts.IdleInterval)
		return true, nil
	}

	d.stats.StartFrame()

	if err := d.frame(); err != nil {
		return frameResult(err)
	}

	d.stats.EndFrame()

	return true, nil
}

func (d *SessionDriver) pollEvents() error {
	var errs []error

	for d.state != SessionExiting {
		event, ok, err := d.runtime.PollEvent()
		if err != nil {
			return nativeError("poll event", err)
		}

		if !ok {
			break
		}

		if !event.StateChanged {
			pulse.Logger().Debug("Ignoring runtime event", "event", event.Name)
			continue
		}

		if err := d.apply(event.State); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (d *SessionDriver) apply(event SessionEvent) error {
	next, action, err := Transition(d.state, event)

	switch {
	case errors.Is(err, ErrUnknownEvent):
		pulse.Logger().Warn("Ignoring unknown session event", "event", event)
		return nil

	case err != nil:
		return err
	}

	pulse.Logger().Debug("Session state changed",
		"event", event,
		"from", d.state,
		"to", next,
		"action", action,
	)

	previous := d.state
	d.state = next

	switch action {
	case ActionBegin:
		if err := d.runtime.BeginSession(); err != nil {
			d.state = previous
			return nativeError("begin session", err)
		}

	case ActionEnd:
		if err := d.runtime.EndSession(); err != nil {
			return nativeError("end session", err)
		}

	case ActionExit:
		if previous.Renderable() {
			if err := d.runtime.EndSession(); err != nil {
				return nativeError("end session", err)
			}
		}
	}

	return nil
}

func (d *SessionDriver) frame() error {
	frameState, err := d.runtime.WaitFrame()
	if err != nil {
		return nativeError("wait frame", err)
	}

	if err := d.runtime.BeginFrame(); err != nil {
		return nativeError("begin frame", err)
	}

	displayTime := frameState.PredictedDisplayTime

	left, right, err := d.runtime.LocateViews(displayTime)
	if err != nil {
		return errors.Join(
			nativeError("locate views", err),
			d.endFrame(displayTime, nil),
		)
	}

	var indices [2]int

	// swapchains holding an image that was acquired and waited for. Only
	// those images may be released.
	var ready int

	for idx, swapchain := range d.swapchains {
		index, err := swapchain.Acquire()
		if err == nil {
			err = swapchain.Wait(InfiniteTimeout)
		}

		if err != nil {
			return errors.Join(
				nativeError(fmt.Sprintf("acquire %s eye image", pulse.Eye(idx)), err),
				d.release(ready),
				d.endFrame(displayTime, nil),
			)
		}

		indices[idx] = index
		ready += 1
	}

	d.stats.StartRender()

	var layers []ProjectionLayer

	if frameState.ShouldRender {
		if err := d.render(left, right, indices); err != nil {
			return errors.Join(err,
				d.release(ready),
				d.endFrame(displayTime, nil),
			)
		}

		layers = []ProjectionLayer{d.projectionLayer(left, right)}
	}

	d.stats.StartSubmit()

	if err := d.release(ready); err != nil {
		return errors.Join(err, d.endFrame(displayTime, nil))
	}

	return d.endFrame(displayTime, layers)
}

func (d *SessionDriver) render(left, right XRView, indices [2]int) error {
	views := pulse.Stereo(
		eyeView(left, d.opts.Near, d.opts.Far),
		eyeView(right, d.opts.Near, d.opts.Far),
	)

	if err := d.backend.SetViews(views); err != nil {
		return err
	}

	frame, err := d.backend.Render(pulse.Stereo(indices[0], indices[1]))
	if err != nil {
		return err
	}

	if err := d.backend.Submit(pulse.Submission{Frame: frame}); err != nil {
		return err
	}

	return d.backend.WaitFrame()
}

// release releases the images of the first count swapchains.
func (d *SessionDriver) release(count int) error {
	var errs []error

	for idx, swapchain := range d.swapchains[:count] {
		if err := swapchain.Release(); err != nil {
			errs = append(errs, nativeError(fmt.Sprintf("release %s eye image", pulse.Eye(idx)), err))
		}
	}

	return errors.Join(errs...)
}

func (d *SessionDriver) endFrame(displayTime time.Duration, layers []ProjectionLayer) error {
	if err := d.runtime.EndFrame(displayTime, layers); err != nil {
		return nativeError("end frame", err)
	}

	return nil
}

func (d *SessionDriver) projectionLayer(left, right XRView) ProjectionLayer {
	projectionView := func(eye pulse.Eye, view XRView) ProjectionView {
		swapchain := d.swapchains[eye]
		width, height := swapchain.Size()

		return ProjectionView{
			Eye:       eye,
			Pose:      view.Pose,
			Fov:       view.Fov,
			Swapchain: swapchain,
			ImageRect: pulse.RectangleFromXYWH(0, 0, width, height),
		}
	}

	return ProjectionLayer{
		Views: [2]ProjectionView{
			projectionView(pulse.EyeLeft, left),
			projectionView(pulse.EyeRight, right),
		},
	}
}

func eyeView(view XRView, near, far float32) pulse.EyeView {
	return pulse.EyeView{
		Pose:       view.Pose,
		Fov:        view.Fov,
		View:       view.Pose.ViewMatrix(),
		Projection: view.Fov.Projection(near, far),
	}
}

func (d *SessionDriver) Release() error {
	var errs []error

	if err := d.backend.Release(); err != nil {
		errs = append(errs, err)
	}

	if d.state.Renderable() {
		if err := d.runtime.EndSession(); err != nil {
			errs = append(errs, nativeError("end session", err))
		}

		d.state = SessionStopping
	}

	return errors.Join(errs...)
}
