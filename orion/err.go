package orion

import (
	"errors"
	"fmt"

	"github.com/oliverbestmann/parallax/pulse"
)

var (
	// ErrIllegalTransition is returned by Transition for an event that is not
	// valid in the current session state.
	ErrIllegalTransition = errors.New("orion: illegal session state transition")

	// ErrUnknownEvent is returned by Transition for an event it does not know.
	// Drivers log and ignore these events.
	ErrUnknownEvent = errors.New("orion: unknown session event")

	// ErrSurfaceLost is returned by a WindowDriver if the swapchain stayed out
	// of date for more than WindowOptions.MaxAcquireRetries recreations.
	ErrSurfaceLost = errors.New("orion: surface stays out of date")
)

// Handle panics if err is not nil. Use it in main functions and examples.
func Handle(err error, desc string, args ...any) {
	if err != nil {
		text := fmt.Sprintf(desc, args...)
		panic(text + ": " + err.Error())
	}
}

// fatal reports whether the driver can not continue after err.
// Failures of scenes and post-processes only abort the current frame.
func fatal(err error) bool {
	var nativeErr *pulse.NativeError

	switch {
	case errors.Is(err, pulse.ErrFenceTimeout),
		errors.Is(err, pulse.ErrFenceBusy),
		errors.Is(err, pulse.ErrStaleFrame),
		errors.Is(err, pulse.ErrVariantMismatch),
		errors.Is(err, pulse.ErrImageIndex),
		errors.Is(err, pulse.ErrNoImages),
		errors.Is(err, ErrSurfaceLost),
		errors.As(err, &nativeErr):
		return true

	default:
		return false
	}
}

// nativeError marks a failure of the platform as native, keeping the
// result code if err already carries one.
func nativeError(op string, err error) error {
	var nativeErr *pulse.NativeError
	if errors.As(err, &nativeErr) {
		return fmt.Errorf("%s: %w", op, err)
	}

	return &pulse.NativeError{Op: op, Err: err}
}
