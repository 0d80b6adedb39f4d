package pulse

import (
	"fmt"
	"time"
)

// DefaultFenceTimeout is the time a frame may take on the GPU before it is
// considered stuck.
const DefaultFenceTimeout = 2 * time.Second

// FrameFence enforces one frame in flight. A frame may only be submitted
// while the fence is idle; after submission it stays pending until
// WaitAndReset observed the signal and reset the native fence.
type FrameFence struct {
	native  Fence
	timeout time.Duration
	pending bool
}

func NewFrameFence(native Fence, timeout time.Duration) *FrameFence {
	if timeout <= 0 {
		timeout = DefaultFenceTimeout
	}

	return &FrameFence{native: native, timeout: timeout}
}

// Idle reports whether no submitted frame is waiting on this fence.
func (f *FrameFence) Idle() bool {
	return !f.pending
}

// Arm marks the fence as pending and returns the native fence to pass
// along with the submission.
func (f *FrameFence) Arm() (Fence, error) {
	if f.pending {
		return nil, ErrFenceBusy
	}

	f.pending = true
	return f.native, nil
}

// Disarm returns the fence into the idle state after the
// submission it was armed for did not happen.
func (f *FrameFence) Disarm() {
	f.pending = false
}

// WaitAndReset blocks until the pending frame completed and resets the fence.
// A timeout is fatal, the fence stays pending.
func (f *FrameFence) WaitAndReset() error {
	if !f.pending {
		return nil
	}

	if err := f.native.Wait(f.timeout); err != nil {
		return fmt.Errorf("wait for frame fence: %w", err)
	}

	if err := f.native.Reset(); err != nil {
		return fmt.Errorf("reset frame fence: %w", err)
	}

	f.pending = false

	return nil
}

func (f *FrameFence) Release() {
	f.native.Release()
}
