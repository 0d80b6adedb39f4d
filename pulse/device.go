package pulse

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
)

var forceFallbackAdapter = os.Getenv("WGPU_FORCE_FALLBACK_ADAPTER") == "1"

func init() {
	runtime.LockOSThread()

	switch strings.ToUpper(os.Getenv("WGPU_LOG_LEVEL")) {
	case "OFF":
		wgpu.SetLogLevel(wgpu.LogLevelOff)
	case "ERROR":
		wgpu.SetLogLevel(wgpu.LogLevelError)
	case "WARN":
		wgpu.SetLogLevel(wgpu.LogLevelWarn)
	case "INFO":
		wgpu.SetLogLevel(wgpu.LogLevelInfo)
	case "DEBUG":
		wgpu.SetLogLevel(wgpu.LogLevelDebug)
	case "TRACE":
		wgpu.SetLogLevel(wgpu.LogLevelTrace)
	}
}

// Context encapsulates the low level state of the webgpu context,
// this includes the Device, Surface and active Adapter.
// Context implements the Device interface.
type Context struct {
	*wgpu.Device
	Surface *wgpu.Surface
	Adapter *wgpu.Adapter

	queue *wgpu.Queue
}

var _ Device = (*Context)(nil)

func New(sd *wgpu.SurfaceDescriptor) (st *Context, err error) {
	defer func() {
		if err != nil && st != nil {
			st.Release()
			st = nil
		}
	}()

	st = &Context{}

	// create the webgpu instance
	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	// create a Surface based on the window
	st.Surface = instance.CreateSurface(sd)

	// create an adapter that can render to the Surface
	st.Adapter, err = instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    st.Surface,
	})

	if err != nil {
		return st, fmt.Errorf("request adapter: %w", err)
	}

	// get a Device with the default settings
	st.Device, err = st.Adapter.RequestDevice(nil)
	if err != nil {
		return st, fmt.Errorf("request device: %w", err)
	}

	st.queue = st.Device.GetQueue()

	Logger().Info("WebGPU context created",
		"fallbackAdapter", forceFallbackAdapter,
	)

	return st, nil
}

// Queue returns the queue of the device. Wrap it in a SharedQueue
// before handing it to a Backend.
func (d *Context) Queue() Queue {
	return &contextQueue{queue: d.queue}
}

func (d *Context) AllocatePrimary() (CommandBuffer, error) {
	enc, err := d.Device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{
		Label: "Frame",
	})

	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}

	return &Commands{encoder: enc}, nil
}

func (d *Context) AllocateSecondary() (CommandBuffer, error) {
	return &Commands{}, nil
}

// CreateFence creates a fence that is signaled once the device finished
// all work submitted before.
func (d *Context) CreateFence() (Fence, error) {
	return &deviceFence{device: d.Device}, nil
}

// CreateSemaphore returns a no-op semaphore, webgpu orders
// acquire, submit and present on its own.
func (d *Context) CreateSemaphore() (Semaphore, error) {
	return deviceSemaphore{}, nil
}

func (d *Context) CreateImage(opts ImageOptions) (Image, error) {
	return NewTexture(d, NewTextureOptions{
		Label:  opts.Label,
		Format: wgpu.TextureFormatRGBA8Unorm,
		Width:  opts.Width,
		Height: opts.Height,
	})
}

func (d *Context) Release() {
	if d.queue != nil {
		d.queue.Release()
		d.queue = nil
	}

	if d.Device != nil {
		d.Device.Release()
		d.Device = nil
	}

	if d.Adapter != nil {
		d.Adapter.Release()
		d.Adapter = nil
	}

	if d.Surface != nil {
		d.Surface.Release()
		d.Surface = nil
	}
}

type contextQueue struct {
	queue *wgpu.Queue
}

func (q *contextQueue) Submit(info SubmitInfo) error {
	buffers := make([]*wgpu.CommandBuffer, 0, len(info.Commands))

	for idx, cmd := range info.Commands {
		commands, ok := cmd.(*Commands)
		if !ok || commands.buffer == nil {
			return fmt.Errorf("command buffer %d was not recorded by this device", idx)
		}

		buffers = append(buffers, commands.buffer)
	}

	q.queue.Submit(buffers...)

	for _, cmd := range info.Commands {
		cmd.(*Commands).Release()
	}

	if fence, ok := info.Fence.(*deviceFence); ok {
		fence.submitted = true
	}

	return nil
}

type deviceFence struct {
	device    *wgpu.Device
	submitted bool
}

func (f *deviceFence) Wait(timeout time.Duration) error {
	if !f.submitted {
		return nil
	}

	done := make(chan struct{})

	// Poll cannot be cancelled. On timeout the goroutine stays blocked until
	// the device completes or is lost, callers treat ErrFenceTimeout as fatal
	// and do not wait on the fence again.
	go func() {
		defer close(done)
		f.device.Poll(true, nil)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return ErrFenceTimeout
	}
}

func (f *deviceFence) Reset() error {
	f.submitted = false
	return nil
}

func (f *deviceFence) Release() {
}

type deviceSemaphore struct{}

func (deviceSemaphore) Release() {
}
