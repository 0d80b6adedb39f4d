package pulse

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// Surface is the Swapchain of a window. webgpu hands out one current texture
// per frame, so the swapchain consists of a single image slot that points to
// the texture acquired last.
type Surface struct {
	ctx *Context

	surfaceConfig *wgpu.SurfaceConfiguration

	// reports the current framebuffer size of the window
	framebufferSize func() (width, height uint32)

	slot surfaceImage
}

var _ Swapchain = (*Surface)(nil)

func NewSurface(ctx *Context, framebufferSize func() (width, height uint32)) *Surface {
	caps := ctx.Surface.GetCapabilities(ctx.Adapter)
	Logger().Info("Available surface formats", "formats", caps.Formats)

	surfaceConfig := &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      wgpu.TextureFormatBGRA8Unorm,
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}

	return &Surface{
		ctx:             ctx,
		surfaceConfig:   surfaceConfig,
		framebufferSize: framebufferSize,
	}
}

func (s *Surface) outOfDate() bool {
	width, height := s.framebufferSize()

	return width == 0 || height == 0 ||
		s.surfaceConfig.Width != width ||
		s.surfaceConfig.Height != height
}

func (s *Surface) Acquire(signal Semaphore) (int, error) {
	if s.outOfDate() {
		return 0, ErrOutOfDate
	}

	if s.slot.release() {
		Logger().Debug("Released surface texture that was never presented")
	}

	texture, err := s.ctx.Surface.GetCurrentTexture()
	if err != nil {
		return 0, &NativeError{Op: "get current texture", Err: err}
	}

	view, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()
		return 0, &NativeError{Op: "create surface view", Err: err}
	}

	s.slot.set(WrapTexture(texture, view))

	return 0, nil
}

func (s *Surface) Present(queue Queue, index int, wait Semaphore) error {
	if index != 0 || s.slot.current == nil {
		return fmt.Errorf("present surface image %d: %w", index, ErrImageIndex)
	}

	s.ctx.Surface.Present()
	s.slot.release()

	if s.outOfDate() {
		return ErrOutOfDate
	}

	return nil
}

func (s *Surface) Recreate() ([]Image, uint32, uint32, error) {
	width, height := s.framebufferSize()
	if width == 0 || height == 0 {
		return nil, 0, 0, fmt.Errorf("configure surface: %w", ErrOutOfDate)
	}

	Logger().Debug("Configure surface",
		"width", width,
		"height", height,
	)

	s.surfaceConfig.Width = width
	s.surfaceConfig.Height = height
	s.ctx.Surface.Configure(s.ctx.Adapter, s.ctx.Device, s.surfaceConfig)

	s.slot.width = width
	s.slot.height = height

	return []Image{&s.slot}, width, height, nil
}

// Release releases a texture that was acquired and not yet presented.
func (s *Surface) Release() {
	s.slot.release()
}

type surfaceTexture interface {
	RenderView() (view, resolveTarget *wgpu.TextureView)
	Release()
}

type surfaceImage struct {
	width, height uint32
	current       surfaceTexture
}

// set makes texture the current texture. A previous texture is released.
func (s *surfaceImage) set(texture surfaceTexture) {
	s.release()
	s.current = texture
}

// release releases the current texture and reports whether there was one.
func (s *surfaceImage) release() bool {
	if s.current == nil {
		return false
	}

	s.current.Release()
	s.current = nil

	return true
}

func (s *surfaceImage) Size() (width, height uint32) {
	return s.width, s.height
}

func (s *surfaceImage) RenderView() (view, resolveTarget *wgpu.TextureView) {
	if s.current == nil {
		return nil, nil
	}

	return s.current.RenderView()
}
