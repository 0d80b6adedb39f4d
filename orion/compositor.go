package orion

import (
	"errors"
	"fmt"
	"time"

	"github.com/oliverbestmann/parallax/glm"
	"github.com/oliverbestmann/parallax/pulse"
)

// Compositor is the VR compositor of a headset runtime.
type Compositor interface {
	// RenderTargetSize is the recommended size of the per-eye images.
	RenderTargetSize() (width, height uint32)

	// WaitPoses blocks until the compositor wants the next frame and
	// returns the predicted pose of the head.
	WaitPoses() (glm.Posef, error)

	// EyeToHead returns the pose of the eye relative to the head.
	EyeToHead(eye pulse.Eye) glm.Posef

	// ProjectionRaw returns the tangents of the half angles of the eye frustum.
	ProjectionRaw(eye pulse.Eye) (left, right, up, down float32)

	// Submit hands the rendered image of one eye to the compositor.
	Submit(eye pulse.Eye, image pulse.Image) error
}

type CompositorOptions struct {
	ClearColor   *pulse.Color
	FenceTimeout time.Duration

	// clip planes of the eye projections, default to 0.05 and 100
	Near, Far float32
}

func (opts CompositorOptions) withDefaults() CompositorOptions {
	if opts.Near <= 0 {
		opts.Near = 0.05
	}

	if opts.Far <= opts.Near {
		opts.Far = 100
	}

	return opts
}

// CompositorDriver renders both eyes into two persistent images and
// submits them to a VR compositor.
type CompositorDriver struct {
	compositor Compositor
	backend    *pulse.Backend

	left, right pulse.Image

	near, far float32

	stats FrameStats
}

var _ Driver = (*CompositorDriver)(nil)

func NewCompositorDriver(device pulse.Device, queue *pulse.SharedQueue, compositor Compositor, opts CompositorOptions) (*CompositorDriver, error) {
	opts = opts.withDefaults()

	backend, err := pulse.NewBackend(device, queue, pulse.BackendOptions{
		Mode:         pulse.ModeStereo,
		ClearColor:   opts.ClearColor,
		FenceTimeout: opts.FenceTimeout,
	})

	if err != nil {
		return nil, err
	}

	width, height := compositor.RenderTargetSize()

	left, err := device.CreateImage(pulse.ImageOptions{Label: "EyeLeft", Width: width, Height: height})
	if err != nil {
		return nil, fmt.Errorf("create left eye image: %w", err)
	}

	right, err := device.CreateImage(pulse.ImageOptions{Label: "EyeRight", Width: width, Height: height})
	if err != nil {
		return nil, fmt.Errorf("create right eye image: %w", err)
	}

	images := pulse.Stereo([]pulse.Image{left}, []pulse.Image{right})
	if err := backend.Resize(images, width, height); err != nil {
		return nil, err
	}

	d := &CompositorDriver{
		compositor: compositor,
		backend:    backend,
		left:       left,
		right:      right,
		near:       opts.Near,
		far:        opts.Far,
	}

	return d, nil
}

func (d *CompositorDriver) Backend() *pulse.Backend {
	return d.backend
}

func (d *CompositorDriver) Stats() *FrameStats {
	return &d.stats
}

// Images returns the persistent images of the left and right eye.
func (d *CompositorDriver) Images() pulse.Dual[pulse.Image] {
	return pulse.Stereo(d.left, d.right)
}

func (d *CompositorDriver) NextFrame() (bool, error) {
	if d.backend.InFlight() {
		return false, fmt.Errorf("next frame: %w", pulse.ErrFenceBusy)
	}

	d.stats.StartFrame()

	head, err := d.compositor.WaitPoses()
	if err != nil {
		return false, nativeError("wait poses", err)
	}

	d.stats.StartRender()

	if err := d.backend.SetViews(d.eyeViews(head)); err != nil {
		return false, err
	}

	frame, err := d.backend.Render(pulse.Stereo(0, 0))
	if err != nil {
		return frameResult(err)
	}

	d.stats.StartSubmit()

	if err := d.backend.Submit(pulse.Submission{Frame: frame}); err != nil {
		return frameResult(err)
	}

	if err := d.backend.WaitFrame(); err != nil {
		return false, err
	}

	// compositing happens outside the queue lock
	var errs []error

	if err := d.compositor.Submit(pulse.EyeLeft, d.left); err != nil {
		errs = append(errs, fmt.Errorf("submit left eye: %w", err))
	}

	if err := d.compositor.Submit(pulse.EyeRight, d.right); err != nil {
		errs = append(errs, fmt.Errorf("submit right eye: %w", err))
	}

	d.stats.EndFrame()

	return true, errors.Join(errs...)
}

func (d *CompositorDriver) eyeViews(head glm.Posef) pulse.Dual[pulse.EyeView] {
	view := func(eye pulse.Eye) pulse.EyeView {
		fov := glm.FovFromTangents(d.compositor.ProjectionRaw(eye))
		pose := head.Mul(d.compositor.EyeToHead(eye))

		return pulse.EyeView{
			Pose:       pose,
			Fov:        fov,
			View:       pose.ViewMatrix(),
			Projection: fov.Projection(d.near, d.far),
		}
	}

	return pulse.Stereo(view(pulse.EyeLeft), view(pulse.EyeRight))
}

func (d *CompositorDriver) Release() error {
	err := d.backend.Release()

	for _, image := range []pulse.Image{d.left, d.right} {
		if releaser, ok := image.(pulse.Releaser); ok {
			releaser.Release()
		}
	}

	return err
}
