package pulse

import "github.com/oliverbestmann/parallax/glm"

// Scene is content rendered every frame.
type Scene interface {
	// Update advances the scene state, it is called before any
	// commands of the frame are recorded.
	Update() error

	// Process records the commands to draw the scene into the image(s)
	// selected by indices.
	Process(cmd CommandBuffer, indices Dual[int]) error

	// Resize is called after the images were replaced.
	Resize(width, height uint32) error
}

// PostProcess is a frame stage that runs after all scenes were drawn.
type PostProcess interface {
	Process(cmd CommandBuffer, indices Dual[int]) error
	Resize(width, height uint32) error

	// Priority orders post-processes, lower values run first. It is
	// queried once during registration.
	Priority() int
}

// EyeView holds the camera of one eye for the current frame.
type EyeView struct {
	Pose       glm.Posef
	Fov        glm.Fov
	View       glm.Mat4f
	Projection glm.Mat4f
}

// ViewReceiver is implemented by scenes that want to know the eye
// views of the current frame. SetViews is called before Update.
type ViewReceiver interface {
	SetViews(views Dual[EyeView])
}
