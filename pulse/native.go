package pulse

import "time"

// The interfaces in this file are the boundary to the native graphics API.
// The WebGPU backed Context implements them, as does the headless sim package.

type Releaser interface {
	Release()
}

// Image is a render target owned by the platform layer, e.g. a swapchain
// image or a persistent per-eye texture.
type Image interface {
	Size() (width, height uint32)
}

// Fence signals the CPU that submitted work has completed.
type Fence interface {
	Releaser

	// Wait blocks until the fence is signaled or the timeout elapsed.
	// A timeout is reported as ErrFenceTimeout.
	Wait(timeout time.Duration) error

	// Reset puts a signaled fence back into the unsignaled state.
	Reset() error
}

// Semaphore orders one queue operation after another on the GPU.
type Semaphore interface {
	Releaser
}

// CommandBuffer records work for the GPU.
type CommandBuffer interface {
	// ClearImage records clearing the image to the given color.
	ClearImage(image Image, color Color) error

	// Execute records the commands of a finished secondary buffer.
	Execute(secondary CommandBuffer) error

	// End finishes recording. The buffer can not be modified afterward.
	End() error
}

// CommandPool allocates command buffers.
type CommandPool interface {
	AllocatePrimary() (CommandBuffer, error)
	AllocateSecondary() (CommandBuffer, error)
}

// SubmitInfo describes one submission to a Queue.
type SubmitInfo struct {
	Commands []CommandBuffer

	// semaphores to wait on before execution
	Wait []Semaphore

	// semaphores to signal after execution
	Signal []Semaphore

	// optional fence to signal once all commands completed
	Fence Fence
}

// Queue is the native queue. It is not safe for concurrent use,
// see SharedQueue.
type Queue interface {
	Submit(info SubmitInfo) error
}

type ImageOptions struct {
	Label  string
	Width  uint32
	Height uint32
}

// Device creates the native objects a Backend and the frame drivers need.
type Device interface {
	CommandPool

	Queue() Queue

	CreateFence() (Fence, error)
	CreateSemaphore() (Semaphore, error)
	CreateImage(opts ImageOptions) (Image, error)
}

// Swapchain is the rotating set of presentable images of a window surface.
type Swapchain interface {
	// Acquire returns the index of the next image to render to. The signal
	// semaphore is signaled once the image is available. Reports ErrOutOfDate
	// if the swapchain must be recreated first.
	Acquire(signal Semaphore) (int, error)

	// Present queues the image for presentation after wait was signaled.
	// It is called with exclusive access to the queue. Reports ErrOutOfDate
	// if the swapchain must be recreated.
	Present(queue Queue, index int, wait Semaphore) error

	// Recreate rebuilds the swapchain for the current surface size and
	// returns the new images.
	Recreate() (images []Image, width, height uint32, err error)
}
