package pulse

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// RenderAttachment is implemented by images that webgpu can render into.
type RenderAttachment interface {
	Image
	RenderView() (view, resolveTarget *wgpu.TextureView)
}

// Commands is the webgpu CommandBuffer. A primary buffer encodes directly into
// a command encoder. A secondary buffer records its commands and replays
// them into the primary buffer it is executed in.
type Commands struct {
	// nil for secondary buffers
	encoder *wgpu.CommandEncoder

	// commands recorded into a secondary buffer
	recorded []func(enc *wgpu.CommandEncoder) error

	// finished primary buffer, ready for submission
	buffer *wgpu.CommandBuffer

	ended bool
}

var _ CommandBuffer = (*Commands)(nil)

// Record runs fn with the command encoder of the primary buffer. For a
// secondary buffer, fn runs once the buffer is executed.
func (c *Commands) Record(fn func(enc *wgpu.CommandEncoder) error) error {
	if c.ended {
		return errors.New("record into ended command buffer")
	}

	if c.encoder == nil {
		c.recorded = append(c.recorded, fn)
		return nil
	}

	return fn(c.encoder)
}

func (c *Commands) ClearImage(image Image, color Color) error {
	target, ok := image.(RenderAttachment)
	if !ok {
		return fmt.Errorf("image of type %T can not be rendered to", image)
	}

	return c.Record(func(enc *wgpu.CommandEncoder) error {
		return clearAttachment(enc, target, color)
	})
}

func (c *Commands) Execute(secondary CommandBuffer) error {
	other, ok := secondary.(*Commands)
	if !ok || other.encoder != nil {
		return errors.New("execute: not a secondary command buffer")
	}

	if !other.ended {
		return errors.New("execute: secondary command buffer not ended")
	}

	for _, fn := range other.recorded {
		if err := c.Record(fn); err != nil {
			return err
		}
	}

	return nil
}

func (c *Commands) End() error {
	if c.ended {
		return nil
	}

	c.ended = true

	if c.encoder == nil {
		return nil
	}

	buf, err := c.encoder.Finish(&wgpu.CommandBufferDescriptor{Label: "Frame"})
	if err != nil {
		return fmt.Errorf("finish command encoder: %w", err)
	}

	c.buffer = buf

	return nil
}

func (c *Commands) Release() {
	if c.buffer != nil {
		c.buffer.Release()
		c.buffer = nil
	}

	if c.encoder != nil {
		c.encoder.Release()
		c.encoder = nil
	}
}

func clearAttachment(enc *wgpu.CommandEncoder, target RenderAttachment, color Color) error {
	view, resolveTarget := target.RenderView()

	pass := enc.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "ClearTexture",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:          view,
				ResolveTarget: resolveTarget,
				LoadOp:        wgpu.LoadOpClear,
				StoreOp:       wgpu.StoreOpStore,
				ClearValue:    color.ToWGPU(),
			},
		},
	})

	passGuard := NewReleaseGuard(pass)
	defer passGuard.Release()

	if err := pass.End(); err != nil {
		return fmt.Errorf("end clear pass: %w", err)
	}

	return nil
}

type ReleaseGuard struct {
	delegate Releaser
}

func NewReleaseGuard(delegate Releaser) ReleaseGuard {
	return ReleaseGuard{delegate: delegate}
}

func (r *ReleaseGuard) Keep() {
	r.delegate = nil
}

func (r *ReleaseGuard) Release() {
	if r.delegate != nil {
		r.delegate.Release()
		r.delegate = nil
	}
}
