package sim

import (
	"fmt"

	"github.com/oliverbestmann/parallax/pulse"
)

// Swapchain simulates the presentable images of a window. It starts out of
// date, like a freshly created surface that was never configured.
type Swapchain struct {
	Width, Height uint32
	ImageCount    int

	// number of upcoming acquire/present calls that report ErrOutOfDate
	OutOfDateAcquires int
	OutOfDatePresents int

	// if set, Present fails with this error
	FailPresent error

	// called during Present, e.g. to check that the queue is held
	OnPresent func(queue pulse.Queue, index int)

	Acquires  int
	Presents  int
	Recreates int

	Presented []int
	Images    []*Image

	configured bool
	next       int
}

var _ pulse.Swapchain = (*Swapchain)(nil)

func NewSwapchain(width, height uint32, imageCount int) *Swapchain {
	return &Swapchain{
		Width:      width,
		Height:     height,
		ImageCount: imageCount,
	}
}

// Resize changes the size of the surface. The next acquire reports ErrOutOfDate.
func (s *Swapchain) Resize(width, height uint32) {
	s.Width = width
	s.Height = height
	s.configured = false
}

func (s *Swapchain) Acquire(signal pulse.Semaphore) (int, error) {
	s.Acquires += 1

	if !s.configured {
		return 0, pulse.ErrOutOfDate
	}

	if s.OutOfDateAcquires > 0 {
		s.OutOfDateAcquires -= 1
		return 0, pulse.ErrOutOfDate
	}

	index := s.next
	s.next = (s.next + 1) % len(s.Images)

	return index, nil
}

func (s *Swapchain) Present(queue pulse.Queue, index int, wait pulse.Semaphore) error {
	s.Presents += 1

	if s.OnPresent != nil {
		s.OnPresent(queue, index)
	}

	if err := s.FailPresent; err != nil {
		return err
	}

	if index < 0 || index >= len(s.Images) {
		return fmt.Errorf("present image %d: %w", index, pulse.ErrImageIndex)
	}

	s.Presented = append(s.Presented, index)

	if s.OutOfDatePresents > 0 {
		s.OutOfDatePresents -= 1
		return pulse.ErrOutOfDate
	}

	return nil
}

func (s *Swapchain) Recreate() ([]pulse.Image, uint32, uint32, error) {
	s.Recreates += 1

	s.Images = make([]*Image, 0, s.ImageCount)
	images := make([]pulse.Image, 0, s.ImageCount)

	for idx := range s.ImageCount {
		img := &Image{
			Label:  fmt.Sprintf("Swapchain[%d]", idx),
			Width:  s.Width,
			Height: s.Height,
		}

		s.Images = append(s.Images, img)
		images = append(images, img)
	}

	s.configured = true
	s.next = 0

	return images, s.Width, s.Height, nil
}
