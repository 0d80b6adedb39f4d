package orion

import (
	"errors"
	"fmt"
	"time"

	"github.com/oliverbestmann/parallax/pulse"
)

type WindowState int

const (
	WindowReady WindowState = iota
	WindowAcquiring
	WindowRendering
	WindowPresenting
	WindowRecreating
)

func (s WindowState) String() string {
	switch s {
	case WindowReady:
		return "Ready"
	case WindowAcquiring:
		return "Acquiring"
	case WindowRendering:
		return "Rendering"
	case WindowPresenting:
		return "Presenting"
	case WindowRecreating:
		return "Recreating"
	default:
		return fmt.Sprintf("WindowState(%d)", int(s))
	}
}

type WindowOptions struct {
	ClearColor   *pulse.Color
	FenceTimeout time.Duration

	// MaxAcquireRetries limits how often the swapchain is recreated while
	// acquiring the image of a single frame. Zero means no limit.
	MaxAcquireRetries int
}

// WindowDriver drives a desktop window: acquire an image from the swapchain,
// render into it, then submit and present while holding the queue.
type WindowDriver struct {
	swapchain pulse.Swapchain
	backend   *pulse.Backend

	imageAvailable pulse.Semaphore
	renderFinished pulse.Semaphore

	maxAcquireRetries int

	state WindowState
	stats FrameStats
}

var _ Driver = (*WindowDriver)(nil)

// errSkipFrame is returned by acquire if the surface can not be rendered
// to right now, e.g. while the window is minimized.
var errSkipFrame = errors.New("skip frame")

func NewWindowDriver(device pulse.Device, queue *pulse.SharedQueue, swapchain pulse.Swapchain, opts WindowOptions) (*WindowDriver, error) {
	backend, err := pulse.NewBackend(device, queue, pulse.BackendOptions{
		Mode:         pulse.ModeMono,
		ClearColor:   opts.ClearColor,
		FenceTimeout: opts.FenceTimeout,
	})

	if err != nil {
		return nil, err
	}

	imageAvailable, err := device.CreateSemaphore()
	if err != nil {
		return nil, fmt.Errorf("create semaphore: %w", err)
	}

	renderFinished, err := device.CreateSemaphore()
	if err != nil {
		imageAvailable.Release()
		return nil, fmt.Errorf("create semaphore: %w", err)
	}

	d := &WindowDriver{
		swapchain:         swapchain,
		backend:           backend,
		imageAvailable:    imageAvailable,
		renderFinished:    renderFinished,
		maxAcquireRetries: max(0, opts.MaxAcquireRetries),
	}

	return d, nil
}

func (d *WindowDriver) Backend() *pulse.Backend {
	return d.backend
}

func (d *WindowDriver) Stats() *FrameStats {
	return &d.stats
}

func (d *WindowDriver) State() WindowState {
	return d.state
}

func (d *WindowDriver) NextFrame() (bool, error) {
	if d.backend.InFlight() {
		return false, fmt.Errorf("next frame: %w", pulse.ErrFenceBusy)
	}

	d.stats.StartFrame()

	index, err := d.acquire()
	switch {
	case errors.Is(err, errSkipFrame):
		d.state = WindowReady
		return true, nil

	case err != nil:
		d.state = WindowReady
		return frameResult(err)
	}

	d.state = WindowRendering
	d.stats.StartRender()

	frame, err := d.backend.Render(pulse.Single(index))
	if err != nil {
		d.state = WindowReady
		return frameResult(err)
	}

	d.state = WindowPresenting
	d.stats.StartSubmit()

	var presentErr error

	err = d.backend.Submit(pulse.Submission{
		Frame:  frame,
		Wait:   []pulse.Semaphore{d.imageAvailable},
		Signal: []pulse.Semaphore{d.renderFinished},
		Present: func(queue pulse.Queue) error {
			presentErr = d.swapchain.Present(queue, index, d.renderFinished)
			return nil
		},
	})

	if err != nil {
		d.state = WindowReady
		return frameResult(err)
	}

	// the frame was submitted, wait for it even if presenting failed
	if err := d.backend.WaitFrame(); err != nil {
		return false, err
	}

	switch {
	case errors.Is(presentErr, pulse.ErrOutOfDate):
		pulse.Logger().Debug("Swapchain out of date after present, frame dropped")

		if err := d.resize(); err != nil && !errors.Is(err, pulse.ErrOutOfDate) {
			d.state = WindowReady
			return frameResult(err)
		}

	case presentErr != nil:
		d.state = WindowReady
		return frameResult(fmt.Errorf("present image %d: %w", index, presentErr))
	}

	d.state = WindowReady
	d.stats.EndFrame()

	return true, nil
}

func (d *WindowDriver) acquire() (int, error) {
	var retries int

	for {
		d.state = WindowAcquiring

		index, err := d.swapchain.Acquire(d.imageAvailable)
		if err == nil {
			return index, nil
		}

		if !errors.Is(err, pulse.ErrOutOfDate) {
			return 0, nativeError("acquire image", err)
		}

		if d.maxAcquireRetries > 0 && retries >= d.maxAcquireRetries {
			return 0, fmt.Errorf("acquire image after %d recreations: %w", retries, ErrSurfaceLost)
		}

		retries += 1

		if err := d.resize(); err != nil {
			if errors.Is(err, pulse.ErrOutOfDate) {
				// nothing to render to right now
				return 0, errSkipFrame
			}

			return 0, err
		}
	}
}

func (d *WindowDriver) resize() error {
	d.state = WindowRecreating

	images, width, height, err := d.swapchain.Recreate()
	if err != nil {
		return fmt.Errorf("recreate swapchain: %w", err)
	}

	if err := d.backend.Resize(pulse.Single(images), width, height); err != nil {
		return err
	}

	d.state = WindowReady

	pulse.Logger().Debug("Swapchain recreated",
		"width", width,
		"height", height,
		"images", len(images),
	)

	return nil
}

func (d *WindowDriver) Release() error {
	err := d.backend.Release()

	d.imageAvailable.Release()
	d.renderFinished.Release()

	return err
}
