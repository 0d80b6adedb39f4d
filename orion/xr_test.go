package orion_test

import (
	"testing"
	"time"

	"github.com/oliverbestmann/parallax/orion"
	"github.com/oliverbestmann/parallax/pulse"
	"github.com/oliverbestmann/parallax/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type xrFixture struct {
	device  *sim.Device
	runtime *sim.Runtime
	driver  *orion.SessionDriver
	scene   *countingScene
	sleeps  []time.Duration
}

func newXRFixture(t *testing.T) *xrFixture {
	t.Helper()

	f := &xrFixture{
		device:  sim.NewDevice(),
		runtime: sim.NewRuntime(1832, 1920, 3),
		scene:   &countingScene{journal: &journal{}},
	}

	driver, err := orion.NewSessionDriver(f.device, pulse.NewSharedQueue(f.device.Queue()), f.runtime, orion.SessionOptions{})
	require.NoError(t, err)

	driver.SetSleep(func(d time.Duration) {
		f.sleeps = append(f.sleeps, d)
	})

	_, err = driver.Backend().AddScene(f.scene)
	require.NoError(t, err)

	f.driver = driver
	return f
}

func TestSessionIdleSleeps(t *testing.T) {
	f := newXRFixture(t)

	running, err := f.driver.NextFrame()
	require.NoError(t, err)
	assert.True(t, running)

	assert.Equal(t, []time.Duration{10 * time.Millisecond}, f.sleeps)
	assert.Zero(t, f.runtime.WaitFrames)
	assert.Equal(t, orion.SessionIdle, f.driver.State())
}

func TestSessionFrameEndToEnd(t *testing.T) {
	f := newXRFixture(t)
	f.runtime.Push(orion.EventReady, orion.EventSynchronized, orion.EventVisible, orion.EventFocused)

	running, err := f.driver.NextFrame()
	require.NoError(t, err)
	assert.True(t, running)

	assert.Equal(t, orion.SessionRunning, f.driver.State())
	assert.Equal(t, 1, f.runtime.SessionsBegun)
	assert.Equal(t, 1, f.runtime.WaitFrames)
	assert.Equal(t, 1, f.runtime.BeginFrames)
	assert.Equal(t, 1, f.runtime.EndFrames)

	for _, eye := range []pulse.Eye{pulse.EyeLeft, pulse.EyeRight} {
		swapchain := f.runtime.EyeSwapchain(eye)
		assert.Equal(t, 1, swapchain.Acquires)
		assert.Equal(t, 1, swapchain.Waits)
		assert.Equal(t, 1, swapchain.Releases)
		assert.Equal(t, orion.InfiniteTimeout, swapchain.LastWaitTimeout)
		assert.Equal(t, 1, swapchain.SimImages[0].Clears)
	}

	assert.Equal(t, 1, f.scene.updates)
	assert.Equal(t, 1, f.device.Fence().Resets)

	require.Len(t, f.runtime.Layers, 1)
	require.Len(t, f.runtime.Layers[0], 1)

	layer := f.runtime.Layers[0][0]
	assert.Equal(t, pulse.EyeLeft, layer.Views[0].Eye)
	assert.Equal(t, pulse.EyeRight, layer.Views[1].Eye)
	assert.Equal(t, uint32(1832), layer.Views[0].ImageRect.Width())
	assert.Equal(t, uint32(1920), layer.Views[1].ImageRect.Height())

	assert.Equal(t, time.Second/90, f.runtime.DisplayTimes[0])
}

func TestSessionIndicesFollowSwapchains(t *testing.T) {
	f := newXRFixture(t)
	f.runtime.Push(orion.EventReady)

	for range 2 {
		_, err := f.driver.NextFrame()
		require.NoError(t, err)
	}

	left, right, err := f.scene.lastIndices.Stereo()
	require.NoError(t, err)
	assert.Equal(t, 1, left)
	assert.Equal(t, 1, right)
}

func TestSessionSkipRenderStillClosesFrame(t *testing.T) {
	f := newXRFixture(t)
	f.runtime.Push(orion.EventReady)
	f.runtime.ShouldRender = false

	running, err := f.driver.NextFrame()
	require.NoError(t, err)
	assert.True(t, running)

	assert.Zero(t, f.scene.updates)
	assert.Zero(t, f.device.SimQueue.Submits)
	assert.Zero(t, f.device.Fence().Waits)

	for _, eye := range []pulse.Eye{pulse.EyeLeft, pulse.EyeRight} {
		swapchain := f.runtime.EyeSwapchain(eye)
		assert.Equal(t, 1, swapchain.Acquires)
		assert.Equal(t, 1, swapchain.Releases)
	}

	assert.Equal(t, 1, f.runtime.EndFrames)
	require.Len(t, f.runtime.Layers, 1)
	assert.Empty(t, f.runtime.Layers[0])
}

func TestSessionRenderFailureStillClosesFrame(t *testing.T) {
	f := newXRFixture(t)
	f.runtime.Push(orion.EventReady)
	f.scene.failUpdate = sim.ErrInjected

	running, err := f.driver.NextFrame()
	assert.ErrorIs(t, err, sim.ErrInjected)
	assert.True(t, running)

	assert.Equal(t, 1, f.runtime.EndFrames)
	assert.Equal(t, 1, f.runtime.EyeSwapchain(pulse.EyeLeft).Releases)
	assert.Equal(t, 1, f.runtime.EyeSwapchain(pulse.EyeRight).Releases)

	// the loop can go on
	f.scene.failUpdate = nil

	_, err = f.driver.NextFrame()
	require.NoError(t, err)
	assert.Equal(t, 2, f.runtime.EndFrames)
}

func TestSessionWaitFailureReleasesOnlyWaitedImages(t *testing.T) {
	f := newXRFixture(t)
	f.runtime.Push(orion.EventReady)

	left := f.runtime.EyeSwapchain(pulse.EyeLeft)
	right := f.runtime.EyeSwapchain(pulse.EyeRight)
	right.FailWait = sim.ErrInjected

	running, err := f.driver.NextFrame()
	assert.False(t, running)
	assert.ErrorIs(t, err, sim.ErrInjected)

	var nativeErr *pulse.NativeError
	assert.ErrorAs(t, err, &nativeErr)

	assert.Equal(t, 1, left.Releases)
	assert.False(t, left.Holding())

	// acquired but never waited for, must not be released
	assert.Equal(t, 1, right.Acquires)
	assert.Zero(t, right.Waits)
	assert.Zero(t, right.Releases)
	assert.True(t, right.Holding())

	assert.Zero(t, f.scene.updates)
}

func TestSessionLocateFailureEndsFrame(t *testing.T) {
	f := newXRFixture(t)
	f.runtime.Push(orion.EventReady)
	f.runtime.FailLocate = &pulse.NativeError{Op: "xrLocateViews", Code: -1}

	running, err := f.driver.NextFrame()
	assert.False(t, running)

	var nativeErr *pulse.NativeError
	require.ErrorAs(t, err, &nativeErr)
	assert.Equal(t, int64(-1), nativeErr.Code)

	assert.Equal(t, 1, f.runtime.EndFrames)
	assert.Zero(t, f.runtime.EyeSwapchain(pulse.EyeLeft).Acquires)
}

func TestSessionStopAndRestart(t *testing.T) {
	f := newXRFixture(t)
	f.runtime.Push(orion.EventReady, orion.EventFocused)

	_, err := f.driver.NextFrame()
	require.NoError(t, err)

	f.runtime.Push(orion.EventStopping)

	running, err := f.driver.NextFrame()
	require.NoError(t, err)
	assert.True(t, running)

	assert.Equal(t, orion.SessionStopping, f.driver.State())
	assert.Equal(t, 1, f.runtime.SessionsEnded)
	assert.Equal(t, 1, f.runtime.EndFrames)

	f.runtime.Push(orion.EventIdle, orion.EventReady)

	_, err = f.driver.NextFrame()
	require.NoError(t, err)

	assert.Equal(t, orion.SessionReady, f.driver.State())
	assert.Equal(t, 2, f.runtime.SessionsBegun)
	assert.Equal(t, 2, f.runtime.EndFrames)
}

func TestSessionExitingStopsDriver(t *testing.T) {
	f := newXRFixture(t)
	f.runtime.Push(orion.EventReady, orion.EventFocused)

	_, err := f.driver.NextFrame()
	require.NoError(t, err)

	f.runtime.Push(orion.EventExiting)

	running, err := f.driver.NextFrame()
	require.NoError(t, err)
	assert.False(t, running)

	assert.Equal(t, orion.SessionExiting, f.driver.State())
	assert.False(t, f.runtime.Running())
}

func TestSessionIgnoresOtherEvents(t *testing.T) {
	f := newXRFixture(t)
	f.runtime.PushEvent(orion.Event{Name: "interaction profile changed"})
	f.runtime.PushEvent(orion.Event{StateChanged: true, State: orion.SessionEvent(99)})
	f.runtime.Push(orion.EventReady)

	running, err := f.driver.NextFrame()
	require.NoError(t, err)
	assert.True(t, running)
	assert.Equal(t, orion.SessionReady, f.driver.State())
}

func TestSessionIllegalTransitionIsReported(t *testing.T) {
	f := newXRFixture(t)
	f.runtime.Push(orion.EventStopping)

	running, err := f.driver.NextFrame()
	assert.ErrorIs(t, err, orion.ErrIllegalTransition)
	assert.True(t, running)
	assert.Equal(t, orion.SessionIdle, f.driver.State())
}
