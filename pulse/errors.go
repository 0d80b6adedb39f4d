package pulse

import (
	"errors"
	"fmt"
)

var (
	// ErrVariantMismatch is matched by every *VariantError. It indicates a
	// mono value used where a stereo value was expected or the other way around.
	ErrVariantMismatch = errors.New("pulse: mono/stereo variant mismatch")

	// ErrOutOfDate is returned by a Swapchain if the presentable images no
	// longer match the surface and must be recreated.
	ErrOutOfDate = errors.New("pulse: surface out of date")

	// ErrFenceTimeout is returned if submitted work did not complete in time.
	ErrFenceTimeout = errors.New("pulse: timeout waiting for frame fence")

	// ErrFenceBusy is returned when a new frame is submitted, or the images are
	// replaced, while the previous frame is still in flight.
	ErrFenceBusy = errors.New("pulse: previous frame still in flight")

	// ErrStaleFrame is returned when submitting a frame that was recorded
	// against images that were replaced in the meantime.
	ErrStaleFrame = errors.New("pulse: frame recorded against replaced images")

	// ErrNoImages is returned when rendering before any images were configured.
	ErrNoImages = errors.New("pulse: no images configured")

	// ErrImageIndex is returned for an image index outside of the image list.
	ErrImageIndex = errors.New("pulse: image index out of range")

	// ErrNotComparable is returned when registering a value that has no identity.
	ErrNotComparable = errors.New("pulse: value can not be compared by identity")
)

// VariantError describes a mode mismatch of Dual values.
type VariantError struct {
	Want Mode
	Got  Mode
}

func (e *VariantError) Error() string {
	if e.Want == modeInvalid {
		return fmt.Sprintf("variant mismatch: got %s value", e.Got)
	}

	return fmt.Sprintf("variant mismatch: want %s, got %s", e.Want, e.Got)
}

func (e *VariantError) Unwrap() error {
	return ErrVariantMismatch
}

// NativeError reports a failing call into a native graphics or runtime API.
// Code holds the result code returned by the call.
type NativeError struct {
	Op   string
	Code int64
	Err  error
}

func (e *NativeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed with code %d: %s", e.Op, e.Code, e.Err)
	}

	return fmt.Sprintf("%s failed with code %d", e.Op, e.Code)
}

func (e *NativeError) Unwrap() error {
	return e.Err
}
