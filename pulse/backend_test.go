package pulse_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/oliverbestmann/parallax/pulse"
	"github.com/oliverbestmann/parallax/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type journal struct {
	entries []string
}

func (j *journal) add(format string, args ...any) {
	j.entries = append(j.entries, fmt.Sprintf(format, args...))
}

type testScene struct {
	name    string
	journal *journal

	failUpdate  error
	failProcess error

	views pulse.Dual[pulse.EyeView]
}

func (s *testScene) Update() error {
	s.journal.add("update %s", s.name)
	return s.failUpdate
}

func (s *testScene) Process(cmd pulse.CommandBuffer, indices pulse.Dual[int]) error {
	s.journal.add("process %s %s", s.name, indices)
	return s.failProcess
}

func (s *testScene) Resize(width, height uint32) error {
	s.journal.add("resize %s %dx%d", s.name, width, height)
	return nil
}

type viewScene struct {
	testScene
}

func (s *viewScene) SetViews(views pulse.Dual[pulse.EyeView]) {
	s.journal.add("views %s", s.name)
	s.views = views
}

type testPost struct {
	name     string
	priority int
	journal  *journal

	failProcess error
}

func (p *testPost) Process(cmd pulse.CommandBuffer, indices pulse.Dual[int]) error {
	p.journal.add("post %s", p.name)
	return p.failProcess
}

func (p *testPost) Resize(width, height uint32) error {
	p.journal.add("resize post %s", p.name)
	return nil
}

func (p *testPost) Priority() int {
	return p.priority
}

func newBackend(t *testing.T, mode pulse.Mode) (*pulse.Backend, *sim.Device) {
	t.Helper()

	device := sim.NewDevice()

	backend, err := pulse.NewBackend(device, pulse.NewSharedQueue(device.Queue()), pulse.BackendOptions{
		Mode: mode,
	})

	require.NoError(t, err)

	return backend, device
}

func images(device *sim.Device, count int) []pulse.Image {
	var result []pulse.Image

	for idx := range count {
		img, _ := device.CreateImage(pulse.ImageOptions{
			Label:  fmt.Sprintf("image %d", idx),
			Width:  64,
			Height: 32,
		})

		result = append(result, img)
	}

	return result
}

func TestNewBackendRequiresMode(t *testing.T) {
	device := sim.NewDevice()

	_, err := pulse.NewBackend(device, pulse.NewSharedQueue(device.Queue()), pulse.BackendOptions{})
	assert.ErrorIs(t, err, pulse.ErrVariantMismatch)
}

func TestImageCountFollowsResize(t *testing.T) {
	backend, device := newBackend(t, pulse.ModeMono)

	require.NoError(t, backend.Resize(pulse.Single(images(device, 3)), 64, 32))
	count, err := backend.ImageCount().Mono()
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, uint64(1), backend.Generation())

	require.NoError(t, backend.Resize(pulse.Single(images(device, 2)), 128, 64))
	count, _ = backend.ImageCount().Mono()
	assert.Equal(t, 2, count)
	assert.Equal(t, uint64(2), backend.Generation())

	width, height := backend.Size()
	assert.Equal(t, uint32(128), width)
	assert.Equal(t, uint32(64), height)
}

func TestResizeRejectsWrongMode(t *testing.T) {
	backend, device := newBackend(t, pulse.ModeStereo)

	err := backend.Resize(pulse.Single(images(device, 1)), 64, 32)
	assert.ErrorIs(t, err, pulse.ErrVariantMismatch)
	assert.Equal(t, uint64(0), backend.Generation())
}

func TestRenderPipelineOrder(t *testing.T) {
	backend, device := newBackend(t, pulse.ModeMono)
	log := &journal{}

	a := &testScene{name: "a", journal: log}
	b := &testScene{name: "b", journal: log}

	_, err := backend.AddScene(a)
	require.NoError(t, err)
	_, err = backend.AddScene(b)
	require.NoError(t, err)

	for _, priority := range []int{50, 10, 30} {
		_, err := backend.AddPostProcess(&testPost{name: fmt.Sprint(priority), priority: priority, journal: log})
		require.NoError(t, err)
	}

	require.NoError(t, backend.Resize(pulse.Single(images(device, 2)), 64, 32))
	log.entries = nil

	frame, err := backend.Render(pulse.Single(1))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"update a",
		"update b",
		"process a Single(1)",
		"process b Single(1)",
		"post 10",
		"post 30",
		"post 50",
	}, log.entries)

	cmd := frame.Commands.(*sim.CommandBuffer)
	assert.True(t, cmd.Primary)
	assert.True(t, cmd.Ended)
	assert.Equal(t, uint64(1), frame.Generation)
}

func TestDuplicateRegistrationIsNoop(t *testing.T) {
	backend, _ := newBackend(t, pulse.ModeMono)
	log := &journal{}

	post := &testPost{name: "p", priority: 10, journal: log}

	first, err := backend.AddPostProcess(post)
	require.NoError(t, err)

	second, err := backend.AddPostProcess(post)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, backend.PostProcesses(), 1)

	scene := &testScene{name: "s", journal: log}
	h1, _ := backend.AddScene(scene)
	h2, _ := backend.AddScene(scene)
	assert.Equal(t, h1, h2)
	assert.Len(t, backend.Scenes(), 1)

	assert.True(t, backend.RemoveScene(scene))
	assert.False(t, backend.RemoveScene(scene))
	assert.True(t, backend.RemovePostProcess(post))
	assert.Empty(t, backend.PostProcesses())
}

func TestPostProcessOrderIsStableForEqualPriority(t *testing.T) {
	backend, _ := newBackend(t, pulse.ModeMono)
	log := &journal{}

	first := &testPost{name: "first", priority: 20, journal: log}
	second := &testPost{name: "second", priority: 20, journal: log}
	early := &testPost{name: "early", priority: 5, journal: log}

	for _, post := range []*testPost{first, second, early} {
		_, err := backend.AddPostProcess(post)
		require.NoError(t, err)
	}

	assert.Equal(t, []pulse.PostProcess{early, first, second}, backend.PostProcesses())
}

func TestRenderRejectsWrongMode(t *testing.T) {
	backend, device := newBackend(t, pulse.ModeMono)
	log := &journal{}

	_, _ = backend.AddScene(&testScene{name: "a", journal: log})
	require.NoError(t, backend.Resize(pulse.Single(images(device, 1)), 64, 32))
	log.entries = nil

	_, err := backend.Render(pulse.Stereo(0, 0))
	assert.ErrorIs(t, err, pulse.ErrVariantMismatch)
	assert.Empty(t, log.entries)
}

func TestRenderWithoutImages(t *testing.T) {
	backend, _ := newBackend(t, pulse.ModeMono)

	_, err := backend.Render(pulse.Single(0))
	assert.ErrorIs(t, err, pulse.ErrNoImages)
}

func TestRenderRejectsIndexOutOfRange(t *testing.T) {
	backend, device := newBackend(t, pulse.ModeStereo)

	imgs := images(device, 2)
	require.NoError(t, backend.Resize(pulse.Stereo(imgs[:1], imgs[1:]), 64, 32))

	_, err := backend.Render(pulse.Stereo(0, 1))
	assert.ErrorIs(t, err, pulse.ErrImageIndex)
}

func TestSceneFailureAbortsFrame(t *testing.T) {
	backend, device := newBackend(t, pulse.ModeMono)
	log := &journal{}

	errBroken := errors.New("broken scene")

	_, _ = backend.AddScene(&testScene{name: "a", journal: log, failUpdate: errBroken})
	_, _ = backend.AddScene(&testScene{name: "b", journal: log})
	_, _ = backend.AddPostProcess(&testPost{name: "p", journal: log})

	require.NoError(t, backend.Resize(pulse.Single(images(device, 1)), 64, 32))
	log.entries = nil

	frame, err := backend.Render(pulse.Single(0))
	assert.Nil(t, frame)
	assert.ErrorIs(t, err, errBroken)
	assert.Equal(t, []string{"update a"}, log.entries)
}

func TestPostProcessFailureAbortsFrame(t *testing.T) {
	backend, device := newBackend(t, pulse.ModeMono)
	log := &journal{}

	errBroken := errors.New("broken post-process")

	_, _ = backend.AddPostProcess(&testPost{name: "first", priority: 1, journal: log, failProcess: errBroken})
	_, _ = backend.AddPostProcess(&testPost{name: "second", priority: 2, journal: log})

	require.NoError(t, backend.Resize(pulse.Single(images(device, 1)), 64, 32))
	log.entries = nil

	_, err := backend.Render(pulse.Single(0))
	assert.ErrorIs(t, err, errBroken)
	assert.Equal(t, []string{"post first"}, log.entries)
}

func TestResizeNotifiesScenesThenPostProcesses(t *testing.T) {
	backend, device := newBackend(t, pulse.ModeMono)
	log := &journal{}

	_, _ = backend.AddPostProcess(&testPost{name: "p", journal: log})
	_, _ = backend.AddScene(&testScene{name: "a", journal: log})

	require.NoError(t, backend.Resize(pulse.Single(images(device, 1)), 640, 480))

	assert.Equal(t, []string{"resize a 640x480", "resize post p"}, log.entries)
	assert.Len(t, backend.Scenes(), 1)
	assert.Len(t, backend.PostProcesses(), 1)
}

func TestSubmitClearsImage(t *testing.T) {
	backend, device := newBackend(t, pulse.ModeMono)

	imgs := images(device, 2)
	require.NoError(t, backend.Resize(pulse.Single(imgs), 64, 32))

	frame, err := backend.Render(pulse.Single(1))
	require.NoError(t, err)

	require.NoError(t, backend.Submit(pulse.Submission{Frame: frame}))
	assert.True(t, backend.InFlight())

	require.NoError(t, backend.WaitFrame())
	assert.False(t, backend.InFlight())

	assert.Equal(t, 0, imgs[0].(*sim.Image).Clears)
	assert.Equal(t, 1, imgs[1].(*sim.Image).Clears)
	assert.Equal(t, pulse.ColorBlack, imgs[1].(*sim.Image).LastClear)

	fence := device.Fence()
	assert.Equal(t, 1, fence.Waits)
	assert.Equal(t, 1, fence.Resets)
}

func TestStaleFrameIsRejected(t *testing.T) {
	backend, device := newBackend(t, pulse.ModeMono)

	require.NoError(t, backend.Resize(pulse.Single(images(device, 1)), 64, 32))

	frame, err := backend.Render(pulse.Single(0))
	require.NoError(t, err)

	require.NoError(t, backend.Resize(pulse.Single(images(device, 1)), 128, 64))

	err = backend.Submit(pulse.Submission{Frame: frame})
	assert.ErrorIs(t, err, pulse.ErrStaleFrame)
	assert.False(t, backend.InFlight())
	assert.Equal(t, 0, device.SimQueue.Submits)
}

func TestResizeRefusedWhileFrameInFlight(t *testing.T) {
	backend, device := newBackend(t, pulse.ModeMono)

	require.NoError(t, backend.Resize(pulse.Single(images(device, 1)), 64, 32))

	frame, err := backend.Render(pulse.Single(0))
	require.NoError(t, err)
	require.NoError(t, backend.Submit(pulse.Submission{Frame: frame}))

	err = backend.Resize(pulse.Single(images(device, 1)), 128, 64)
	assert.ErrorIs(t, err, pulse.ErrFenceBusy)

	require.NoError(t, backend.WaitFrame())
	assert.NoError(t, backend.Resize(pulse.Single(images(device, 1)), 128, 64))
}

func TestSecondSubmitWithoutWaitIsRejected(t *testing.T) {
	backend, device := newBackend(t, pulse.ModeMono)

	require.NoError(t, backend.Resize(pulse.Single(images(device, 1)), 64, 32))

	first, err := backend.Render(pulse.Single(0))
	require.NoError(t, err)
	require.NoError(t, backend.Submit(pulse.Submission{Frame: first}))

	second, err := backend.Render(pulse.Single(0))
	require.NoError(t, err)

	err = backend.Submit(pulse.Submission{Frame: second})
	assert.ErrorIs(t, err, pulse.ErrFenceBusy)
	assert.Equal(t, 1, device.SimQueue.Submits)
}

func TestFenceTimeoutIsReported(t *testing.T) {
	backend, device := newBackend(t, pulse.ModeMono)
	device.Fence().Hang = true

	require.NoError(t, backend.Resize(pulse.Single(images(device, 1)), 64, 32))

	frame, err := backend.Render(pulse.Single(0))
	require.NoError(t, err)
	require.NoError(t, backend.Submit(pulse.Submission{Frame: frame}))

	err = backend.WaitFrame()
	assert.ErrorIs(t, err, pulse.ErrFenceTimeout)
	assert.True(t, backend.InFlight())
}

func TestFailedSubmitDisarmsFence(t *testing.T) {
	backend, device := newBackend(t, pulse.ModeMono)
	device.SimQueue.FailSubmit = sim.ErrInjected

	require.NoError(t, backend.Resize(pulse.Single(images(device, 1)), 64, 32))

	frame, err := backend.Render(pulse.Single(0))
	require.NoError(t, err)

	err = backend.Submit(pulse.Submission{Frame: frame})
	assert.ErrorIs(t, err, sim.ErrInjected)
	assert.False(t, backend.InFlight())
}

func TestPresentRunsWhileHoldingQueue(t *testing.T) {
	device := sim.NewDevice()
	queue := pulse.NewSharedQueue(device.Queue())

	backend, err := pulse.NewBackend(device, queue, pulse.BackendOptions{Mode: pulse.ModeMono})
	require.NoError(t, err)

	require.NoError(t, backend.Resize(pulse.Single(images(device, 1)), 64, 32))

	frame, err := backend.Render(pulse.Single(0))
	require.NoError(t, err)

	var held bool
	err = backend.Submit(pulse.Submission{
		Frame: frame,
		Present: func(pulse.Queue) error {
			held = queue.Held()
			return nil
		},
	})

	require.NoError(t, err)
	assert.True(t, held)
	assert.False(t, queue.Held())
}

func TestViewsReachViewReceiversBeforeUpdate(t *testing.T) {
	backend, device := newBackend(t, pulse.ModeStereo)
	log := &journal{}

	scene := &viewScene{testScene{name: "v", journal: log}}
	_, _ = backend.AddScene(scene)

	imgs := images(device, 2)
	require.NoError(t, backend.Resize(pulse.Stereo(imgs[:1], imgs[1:]), 64, 32))
	log.entries = nil

	err := backend.SetViews(pulse.Single(pulse.EyeView{}))
	assert.ErrorIs(t, err, pulse.ErrVariantMismatch)

	require.NoError(t, backend.SetViews(pulse.Stereo(pulse.EyeView{}, pulse.EyeView{})))

	_, err = backend.Render(pulse.Stereo(0, 0))
	require.NoError(t, err)

	assert.Equal(t, []string{"views v", "update v", "process v Stereo(0, 0)"}, log.entries)
	assert.True(t, scene.views.IsStereo())
}

type valueScene struct {
	name string
	meta any
}

func (s valueScene) Update() error {
	return nil
}

func (s valueScene) Process(cmd pulse.CommandBuffer, indices pulse.Dual[int]) error {
	return nil
}

func (s valueScene) Resize(width, height uint32) error {
	return nil
}

func TestValueScenesHaveNoIdentity(t *testing.T) {
	backend, _ := newBackend(t, pulse.ModeMono)

	scenes := []valueScene{
		{name: "grid"},
		{name: "grid"},
		{name: "a", meta: []int{1}},
		{name: "a", meta: []int{2}},
	}

	for _, scene := range scenes {
		_, err := backend.AddScene(scene)
		assert.ErrorIs(t, err, pulse.ErrNotComparable)
	}

	assert.Empty(t, backend.Scenes())

	// pointers to equal values are separate scenes
	_, err := backend.AddScene(&valueScene{name: "grid"})
	require.NoError(t, err)
	_, err = backend.AddScene(&valueScene{name: "grid"})
	require.NoError(t, err)

	assert.Len(t, backend.Scenes(), 2)
}

type countingPriorityPost struct {
	testPost
	queries int
}

func (p *countingPriorityPost) Priority() int {
	p.queries += 1
	return p.priority
}

func TestPostProcessPriorityIsQueriedOnce(t *testing.T) {
	backend, _ := newBackend(t, pulse.ModeMono)

	post := &countingPriorityPost{testPost: testPost{name: "p", priority: 10, journal: &journal{}}}

	_, err := backend.AddPostProcess(post)
	require.NoError(t, err)

	_, err = backend.AddPostProcess(post)
	require.NoError(t, err)

	assert.Equal(t, 1, post.queries)
}
