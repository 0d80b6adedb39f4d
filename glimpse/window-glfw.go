package glimpse

import (
	"fmt"
	"log/slog"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/profile"
)

type glfwWindow struct {
	win  *glfw.Window
	prof interface{ Stop() }
}

func NewWindow(opts Options) (Window, error) {
	opts = opts.withDefaults()

	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("initialize glfw: %w", err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	window, err := glfw.CreateWindow(opts.Width, opts.Height, opts.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create window: %w", err)
	}

	w := &glfwWindow{win: window}

	if opts.ProfilePath != "" {
		slog.Info("Write cpu profile", slog.String("path", opts.ProfilePath))

		w.prof = profile.Start(
			profile.CPUProfile,
			profile.ProfilePath(opts.ProfilePath),
			profile.Quiet,
		)
	}

	window.SetKeyCallback(func(win *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			slog.Info("Escape pressed, closing window")
			win.SetShouldClose(true)
		}
	})

	window.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		slog.Debug("Framebuffer resized",
			slog.Int("width", width),
			slog.Int("height", height),
		)
	})

	return w, nil
}

func (g *glfwWindow) FramebufferSize() (uint32, uint32) {
	width, height := g.win.GetFramebufferSize()
	return uint32(width), uint32(height)
}

func (g *glfwWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(g.win)
}

func (g *glfwWindow) Poll() bool {
	glfw.PollEvents()
	return !g.win.ShouldClose()
}

func (g *glfwWindow) Terminate() {
	if g.prof != nil {
		g.prof.Stop()
	}

	g.win.Destroy()
	glfw.Terminate()
}
