package orion

import (
	"github.com/oliverbestmann/parallax/pulse"
)

// Driver drives the frames of one platform: a desktop window, a VR
// compositor or an XR runtime.
type Driver interface {
	// NextFrame renders and presents exactly one frame, or skips it if the
	// platform does not want one. running is false if the driver can not
	// continue. A non nil error with running set reports a failed frame,
	// the caller decides whether to go on.
	NextFrame() (running bool, err error)

	// Backend returns the backend used for rendering. Register scenes
	// and post-processes here.
	Backend() *pulse.Backend

	// Stats returns timings of the recent frames.
	Stats() *FrameStats

	// Release waits for outstanding work and releases the native objects
	// owned by the driver.
	Release() error
}

// frameResult maps the error of a frame to the result of NextFrame.
func frameResult(err error) (bool, error) {
	if err == nil {
		return true, nil
	}

	return !fatal(err), err
}
