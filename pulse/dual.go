package pulse

import "fmt"

// Mode selects between mono and stereo rendering.
type Mode uint8

const (
	modeInvalid Mode = iota
	ModeMono
	ModeStereo
)

func (m Mode) String() string {
	switch m {
	case ModeMono:
		return "mono"
	case ModeStereo:
		return "stereo"
	default:
		return "invalid"
	}
}

// Eye identifies the target a value of a Dual belongs to.
type Eye uint8

const (
	EyeLeft Eye = iota
	EyeRight

	// EyeMono is reported for the single value of a mono Dual.
	EyeMono
)

func (e Eye) String() string {
	switch e {
	case EyeLeft:
		return "left"
	case EyeRight:
		return "right"
	case EyeMono:
		return "mono"
	default:
		return fmt.Sprintf("Eye(%d)", uint8(e))
	}
}

// Dual holds either one value for mono rendering, or two values, one per eye,
// for stereo rendering. All Dual values taking part in the same frame must
// carry the same Mode. The zero value is neither mono nor stereo and fails
// every accessor.
type Dual[T any] struct {
	mode   Mode
	values [2]T
}

// Single creates a mono Dual holding value.
func Single[T any](value T) Dual[T] {
	return Dual[T]{mode: ModeMono, values: [2]T{value}}
}

// Stereo creates a stereo Dual holding one value per eye.
func Stereo[T any](left, right T) Dual[T] {
	return Dual[T]{mode: ModeStereo, values: [2]T{left, right}}
}

func (d Dual[T]) Mode() Mode {
	return d.mode
}

func (d Dual[T]) IsStereo() bool {
	return d.mode == ModeStereo
}

// Mono returns the wrapped value of a mono Dual.
func (d Dual[T]) Mono() (T, error) {
	if err := CheckMode(ModeMono, d.mode); err != nil {
		var zero T
		return zero, err
	}

	return d.values[0], nil
}

// MonoPtr gives mutable access to the value of a mono Dual.
func (d *Dual[T]) MonoPtr() (*T, error) {
	if err := CheckMode(ModeMono, d.mode); err != nil {
		return nil, err
	}

	return &d.values[0], nil
}

// Stereo returns the left and right value of a stereo Dual.
func (d Dual[T]) Stereo() (left, right T, err error) {
	if err := CheckMode(ModeStereo, d.mode); err != nil {
		var zero T
		return zero, zero, err
	}

	return d.values[0], d.values[1], nil
}

// StereoPtr gives mutable access to both values of a stereo Dual.
func (d *Dual[T]) StereoPtr() (left, right *T, err error) {
	if err := CheckMode(ModeStereo, d.mode); err != nil {
		return nil, nil, err
	}

	return &d.values[0], &d.values[1], nil
}

// Clone returns a Dual of the same mode where every wrapped value
// was cloned independently using clone.
func (d Dual[T]) Clone(clone func(T) T) Dual[T] {
	return MapDual(d, clone)
}

// Each calls fn for the value of a mono Dual, or for the left and then the
// right value of a stereo Dual. It stops at the first error.
func (d Dual[T]) Each(fn func(eye Eye, value T) error) error {
	switch d.mode {
	case ModeMono:
		return fn(EyeMono, d.values[0])

	case ModeStereo:
		if err := fn(EyeLeft, d.values[0]); err != nil {
			return err
		}

		return fn(EyeRight, d.values[1])

	default:
		return &VariantError{Got: d.mode}
	}
}

// Get returns the value for the given eye. A mono Dual only holds a value
// for EyeMono, a stereo Dual for EyeLeft and EyeRight.
func (d Dual[T]) Get(eye Eye) (T, error) {
	var zero T

	switch {
	case d.mode == ModeMono && eye == EyeMono:
		return d.values[0], nil

	case d.mode == ModeStereo && (eye == EyeLeft || eye == EyeRight):
		return d.values[eye], nil

	case eye == EyeMono:
		return zero, &VariantError{Want: ModeMono, Got: d.mode}

	default:
		return zero, &VariantError{Want: ModeStereo, Got: d.mode}
	}
}

func (d Dual[T]) String() string {
	switch d.mode {
	case ModeMono:
		return fmt.Sprintf("Single(%v)", d.values[0])
	case ModeStereo:
		return fmt.Sprintf("Stereo(%v, %v)", d.values[0], d.values[1])
	default:
		return "Dual(invalid)"
	}
}

// MapDual converts each value of d using fn, keeping the mode of d.
func MapDual[T, U any](d Dual[T], fn func(T) U) Dual[U] {
	switch d.mode {
	case ModeMono:
		return Single(fn(d.values[0]))
	case ModeStereo:
		return Stereo(fn(d.values[0]), fn(d.values[1]))
	default:
		return Dual[U]{}
	}
}

// CheckMode returns a *VariantError if got is not want.
func CheckMode(want, got Mode) error {
	if want != got {
		return &VariantError{Want: want, Got: got}
	}

	return nil
}
