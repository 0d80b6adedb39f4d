// Package sim provides a headless implementation of the native graphics
// boundary of pulse and of the platform runtimes used by orion. All objects
// count what is done to them, so tests can observe the frame protocol.
package sim

import (
	"errors"
	"fmt"
	"time"

	"github.com/oliverbestmann/parallax/pulse"
)

var ErrInjected = errors.New("sim: injected failure")

// Image is an in-memory image. Clears are applied when the commands
// recording them are submitted.
type Image struct {
	Label         string
	Width, Height uint32

	Clears    int
	LastClear pulse.Color
}

func (img *Image) Size() (width, height uint32) {
	return img.Width, img.Height
}

type clearOp struct {
	image *Image
	color pulse.Color
}

// CommandBuffer records clear operations.
type CommandBuffer struct {
	Primary bool
	Ended   bool

	// number of secondary buffers executed into this buffer
	Executed int

	clears []clearOp
}

func (c *CommandBuffer) ClearImage(image pulse.Image, color pulse.Color) error {
	if c.Ended {
		return errors.New("sim: clear on ended command buffer")
	}

	img, ok := image.(*Image)
	if !ok {
		return fmt.Errorf("sim: clear of foreign image %T", image)
	}

	c.clears = append(c.clears, clearOp{image: img, color: color})
	return nil
}

func (c *CommandBuffer) Execute(secondary pulse.CommandBuffer) error {
	other, ok := secondary.(*CommandBuffer)
	switch {
	case c.Ended:
		return errors.New("sim: execute on ended command buffer")
	case !ok || other.Primary:
		return errors.New("sim: execute of a non secondary command buffer")
	case !other.Ended:
		return errors.New("sim: execute of a secondary buffer still recording")
	}

	c.clears = append(c.clears, other.clears...)
	c.Executed += 1
	return nil
}

func (c *CommandBuffer) End() error {
	if c.Ended {
		return errors.New("sim: command buffer already ended")
	}

	c.Ended = true
	return nil
}

// Fence signals as soon as the submission it was attached to was executed
// by the Queue. A hanging fence never signals.
type Fence struct {
	Hang bool

	Signaled bool
	Released bool

	Waits  int
	Resets int
}

func (f *Fence) Wait(timeout time.Duration) error {
	f.Waits += 1

	if !f.Signaled {
		return pulse.ErrFenceTimeout
	}

	return nil
}

func (f *Fence) Reset() error {
	f.Resets += 1
	f.Signaled = false
	return nil
}

func (f *Fence) Release() {
	f.Released = true
}

type Semaphore struct {
	Released bool
}

func (s *Semaphore) Release() {
	s.Released = true
}

// Queue executes submissions immediately.
type Queue struct {
	// if set, the next submission fails with this error
	FailSubmit error

	Submits int

	// semaphores passed with the last submission
	LastWait   []pulse.Semaphore
	LastSignal []pulse.Semaphore
}

func (q *Queue) Submit(info pulse.SubmitInfo) error {
	if err := q.FailSubmit; err != nil {
		q.FailSubmit = nil
		return err
	}

	for idx, cmd := range info.Commands {
		buf, ok := cmd.(*CommandBuffer)
		if !ok || !buf.Primary || !buf.Ended {
			return fmt.Errorf("sim: command buffer %d is not an ended primary buffer", idx)
		}
	}

	var fence *Fence
	if info.Fence != nil {
		fence = info.Fence.(*Fence)
		if fence.Signaled {
			return errors.New("sim: submit with a fence that was not reset")
		}
	}

	for _, cmd := range info.Commands {
		for _, op := range cmd.(*CommandBuffer).clears {
			op.image.Clears += 1
			op.image.LastClear = op.color
		}
	}

	q.Submits += 1
	q.LastWait = info.Wait
	q.LastSignal = info.Signal

	if fence != nil && !fence.Hang {
		fence.Signaled = true
	}

	return nil
}

// Device is the headless pulse.Device.
type Device struct {
	SimQueue *Queue

	// if set, the next allocation fails with this error
	FailAllocate error

	Primaries   int
	Secondaries int

	Fences     []*Fence
	Semaphores []*Semaphore
	Images     []*Image
}

var _ pulse.Device = (*Device)(nil)

func NewDevice() *Device {
	return &Device{SimQueue: &Queue{}}
}

func (d *Device) Queue() pulse.Queue {
	return d.SimQueue
}

func (d *Device) AllocatePrimary() (pulse.CommandBuffer, error) {
	if err := d.takeFailure(); err != nil {
		return nil, err
	}

	d.Primaries += 1
	return &CommandBuffer{Primary: true}, nil
}

func (d *Device) AllocateSecondary() (pulse.CommandBuffer, error) {
	if err := d.takeFailure(); err != nil {
		return nil, err
	}

	d.Secondaries += 1
	return &CommandBuffer{}, nil
}

func (d *Device) takeFailure() error {
	err := d.FailAllocate
	d.FailAllocate = nil
	return err
}

func (d *Device) CreateFence() (pulse.Fence, error) {
	fence := &Fence{}
	d.Fences = append(d.Fences, fence)
	return fence, nil
}

func (d *Device) CreateSemaphore() (pulse.Semaphore, error) {
	sem := &Semaphore{}
	d.Semaphores = append(d.Semaphores, sem)
	return sem, nil
}

func (d *Device) CreateImage(opts pulse.ImageOptions) (pulse.Image, error) {
	img := &Image{Label: opts.Label, Width: opts.Width, Height: opts.Height}
	d.Images = append(d.Images, img)
	return img, nil
}

// Fence returns the fence created last, usually the frame fence of a backend.
func (d *Device) Fence() *Fence {
	if len(d.Fences) == 0 {
		return nil
	}

	return d.Fences[len(d.Fences)-1]
}
