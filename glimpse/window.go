package glimpse

import "github.com/cogentcore/webgpu/wgpu"

// Window is a desktop window that a webgpu surface can be created for.
type Window interface {
	// FramebufferSize returns the size of the window in pixels.
	FramebufferSize() (width, height uint32)

	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// Poll processes pending window events and reports
	// if the window is still open.
	Poll() bool

	Terminate()
}

type Options struct {
	Width  int
	Height int
	Title  string

	// write a cpu profile into the given directory while the window is open
	ProfilePath string
}

func (opts Options) withDefaults() Options {
	if opts.Width == 0 {
		opts.Width = 1000
	}

	if opts.Height == 0 {
		opts.Height = 600
	}

	if opts.Title == "" {
		opts.Title = "Parallax"
	}

	return opts
}
