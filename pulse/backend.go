package pulse

import (
	"fmt"
	"time"
)

type BackendOptions struct {
	// Mode selects mono or stereo rendering. Required.
	Mode Mode

	// Color the images are cleared to at the start of each frame.
	// The default is opaque black.
	ClearColor *Color

	// Time a frame may take on the GPU, defaults to DefaultFenceTimeout.
	FenceTimeout time.Duration
}

func (opts BackendOptions) withDefaults() BackendOptions {
	if opts.ClearColor == nil {
		opts.ClearColor = &ColorBlack
	}

	if opts.FenceTimeout <= 0 {
		opts.FenceTimeout = DefaultFenceTimeout
	}

	return opts
}

// Frame is a finished primary command buffer for one frame,
// ready to be submitted.
type Frame struct {
	Commands CommandBuffer
	Indices  Dual[int]

	// generation of the images the frame was recorded against
	Generation uint64
}

// Submission describes how a Frame is handed to the queue.
type Submission struct {
	Frame  *Frame
	Wait   []Semaphore
	Signal []Semaphore

	// Present, if set, runs after a successful submit while the
	// queue lock is still held.
	Present func(queue Queue) error
}

// Backend owns the registered scenes and post-processes and records one
// primary command buffer per frame: clear the target image(s), update and
// draw all scenes and finally run all post-processes.
type Backend struct {
	device     Device
	queue      *SharedQueue
	mode       Mode
	clearColor Color

	fence     *FrameFence
	resources FrameResources

	scenes registry[Scene]
	post   registry[PostProcess]

	views    Dual[EyeView]
	hasViews bool
}

// NewBackend creates a backend rendering through device. All submissions
// go through queue, which should be shared by everyone using the same
// native queue.
func NewBackend(device Device, queue *SharedQueue, opts BackendOptions) (*Backend, error) {
	if opts.Mode != ModeMono && opts.Mode != ModeStereo {
		return nil, fmt.Errorf("create backend: %w", &VariantError{Got: opts.Mode})
	}

	opts = opts.withDefaults()

	fence, err := device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("create frame fence: %w", err)
	}

	b := &Backend{
		device:     device,
		queue:      queue,
		mode:       opts.Mode,
		clearColor: *opts.ClearColor,
		fence:      NewFrameFence(fence, opts.FenceTimeout),
	}

	return b, nil
}

func (b *Backend) Mode() Mode {
	return b.mode
}

func (b *Backend) Queue() *SharedQueue {
	return b.queue
}

func (b *Backend) Fence() *FrameFence {
	return b.fence
}

func (b *Backend) Generation() uint64 {
	return b.resources.Generation()
}

func (b *Backend) Images() Dual[[]Image] {
	return b.resources.Images()
}

func (b *Backend) ImageCount() Dual[int] {
	return b.resources.ImageCount()
}

// Targets resolves image indices to the current images.
func (b *Backend) Targets(indices Dual[int]) (Dual[Image], error) {
	return b.resources.Targets(indices)
}

func (b *Backend) Size() (width, height uint32) {
	return b.resources.Size()
}

// AddScene registers a scene. Registering a scene twice is a no-op and
// returns the handle of the first registration.
func (b *Backend) AddScene(scene Scene) (Handle, error) {
	handle, added, err := b.scenes.add(scene, 0)
	if err != nil {
		return 0, fmt.Errorf("add scene: %w", err)
	}

	if added {
		Logger().Debug("Scene added", "handle", handle, "scenes", b.scenes.len())
	}

	return handle, nil
}

// RemoveScene removes the scene, returning false if it was not registered.
func (b *Backend) RemoveScene(scene Scene) bool {
	return b.scenes.remove(scene)
}

// AddPostProcess registers a post-process, ordered by its priority.
// Registering the same post-process again changes nothing.
func (b *Backend) AddPostProcess(post PostProcess) (Handle, error) {
	id, err := identityOf(post)
	if err != nil {
		return 0, fmt.Errorf("add post-process: %w", err)
	}

	if idx, ok := b.post.find(id); ok {
		return b.post.entries[idx].handle, nil
	}

	priority := post.Priority()

	handle, _, err := b.post.add(post, priority)
	if err != nil {
		return 0, fmt.Errorf("add post-process: %w", err)
	}

	b.post.sortByPriority()

	Logger().Debug("Post-process added",
		"handle", handle,
		"priority", priority,
	)

	return handle, nil
}

func (b *Backend) RemovePostProcess(post PostProcess) bool {
	return b.post.remove(post)
}

// Scenes returns the registered scenes in registration order.
func (b *Backend) Scenes() []Scene {
	return b.scenes.values()
}

// PostProcesses returns the registered post-processes in execution order.
func (b *Backend) PostProcesses() []PostProcess {
	return b.post.values()
}

func (b *Backend) AllocatePrimary() (CommandBuffer, error) {
	return b.device.AllocatePrimary()
}

func (b *Backend) AllocateSecondary() (CommandBuffer, error) {
	return b.device.AllocateSecondary()
}

// SetViews sets the eye views passed to every ViewReceiver scene
// during the following frames.
func (b *Backend) SetViews(views Dual[EyeView]) error {
	if err := CheckMode(b.mode, views.Mode()); err != nil {
		return fmt.Errorf("set views: %w", err)
	}

	b.views = views
	b.hasViews = true
	return nil
}

// Resize replaces the images and notifies every scene and post-process.
// The registries are left untouched. No frame may be in flight.
func (b *Backend) Resize(images Dual[[]Image], width, height uint32) error {
	if err := CheckMode(b.mode, images.Mode()); err != nil {
		return fmt.Errorf("resize: %w", err)
	}

	if !b.fence.Idle() {
		return fmt.Errorf("resize: %w", ErrFenceBusy)
	}

	b.resources.Replace(images, width, height)

	Logger().Debug("Images replaced",
		"generation", b.resources.Generation(),
		"images", b.resources.ImageCount().String(),
		"width", width,
		"height", height,
	)

	err := b.scenes.each(func(handle Handle, scene Scene) error {
		if err := scene.Resize(width, height); err != nil {
			return fmt.Errorf("resize scene %d: %w", handle, err)
		}

		return nil
	})

	if err != nil {
		return err
	}

	return b.post.each(func(handle Handle, post PostProcess) error {
		if err := post.Resize(width, height); err != nil {
			return fmt.Errorf("resize post-process %d: %w", handle, err)
		}

		return nil
	})
}

// Render records the commands of one frame into a new primary command buffer.
// The indices must carry the mode of the backend. Any failure aborts the frame.
func (b *Backend) Render(indices Dual[int]) (*Frame, error) {
	if err := CheckMode(b.mode, indices.Mode()); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	targets, err := b.resources.Targets(indices)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	if b.hasViews {
		for _, scene := range b.scenes.values() {
			if receiver, ok := scene.(ViewReceiver); ok {
				receiver.SetViews(b.views)
			}
		}
	}

	err = b.scenes.each(func(handle Handle, scene Scene) error {
		if err := scene.Update(); err != nil {
			return fmt.Errorf("update scene %d: %w", handle, err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	cmd, err := b.device.AllocatePrimary()
	if err != nil {
		return nil, fmt.Errorf("allocate primary command buffer: %w", err)
	}

	frame, err := b.record(cmd, indices, targets)
	if err != nil {
		if releaser, ok := cmd.(Releaser); ok {
			releaser.Release()
		}

		return nil, err
	}

	return frame, nil
}

// record clears the targets and records scenes and post-processes into cmd.
func (b *Backend) record(cmd CommandBuffer, indices Dual[int], targets Dual[Image]) (*Frame, error) {
	err := targets.Each(func(eye Eye, image Image) error {
		if err := cmd.ClearImage(image, b.clearColor); err != nil {
			return fmt.Errorf("clear %s image: %w", eye, err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	err = b.scenes.each(func(handle Handle, scene Scene) error {
		if err := scene.Process(cmd, indices); err != nil {
			return fmt.Errorf("process scene %d: %w", handle, err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	err = b.post.each(func(handle Handle, post PostProcess) error {
		if err := post.Process(cmd, indices); err != nil {
			return fmt.Errorf("process post-process %d: %w", handle, err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	if err := cmd.End(); err != nil {
		return nil, fmt.Errorf("end primary command buffer: %w", err)
	}

	frame := &Frame{
		Commands:   cmd,
		Indices:    indices,
		Generation: b.resources.Generation(),
	}

	return frame, nil
}

// Check verifies that the frame was recorded against the current images.
func (b *Backend) Check(frame *Frame) error {
	if frame.Generation != b.resources.Generation() {
		return fmt.Errorf("%w: recorded for generation %d, current is %d",
			ErrStaleFrame, frame.Generation, b.resources.Generation())
	}

	return nil
}

// Submit hands the frame to the queue, guarded by the frame fence. If the
// submission succeeds but Present fails, the frame is in flight and must
// still be waited for using WaitFrame.
func (b *Backend) Submit(sub Submission) error {
	if err := b.Check(sub.Frame); err != nil {
		return fmt.Errorf("submit: %w", err)
	}

	fence, err := b.fence.Arm()
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}

	var submitted bool

	err = b.queue.Do(func(queue Queue) error {
		err := queue.Submit(SubmitInfo{
			Commands: []CommandBuffer{sub.Frame.Commands},
			Wait:     sub.Wait,
			Signal:   sub.Signal,
			Fence:    fence,
		})

		if err != nil {
			return fmt.Errorf("submit: %w", err)
		}

		submitted = true

		if sub.Present != nil {
			if err := sub.Present(queue); err != nil {
				return fmt.Errorf("present: %w", err)
			}
		}

		return nil
	})

	if !submitted {
		b.fence.Disarm()
	}

	return err
}

// WaitFrame blocks until the submitted frame completed and resets the fence.
func (b *Backend) WaitFrame() error {
	return b.fence.WaitAndReset()
}

// InFlight reports whether a submitted frame was not yet waited for.
func (b *Backend) InFlight() bool {
	return !b.fence.Idle()
}

// Release waits for a frame still in flight and releases the frame fence.
func (b *Backend) Release() error {
	err := b.WaitFrame()
	b.fence.Release()

	return err
}
