package pulse

import (
	"fmt"
	"slices"
)

// FrameResources is the versioned set of images frames are rendered to.
// Every replacement of the images bumps the generation, so work recorded
// against older images can be detected.
type FrameResources struct {
	images     Dual[[]Image]
	width      uint32
	height     uint32
	generation uint64
}

// Replace drops the current images and takes over a copy of the new ones.
func (r *FrameResources) Replace(images Dual[[]Image], width, height uint32) {
	r.images = images.Clone(slices.Clone[[]Image])
	r.width = width
	r.height = height
	r.generation += 1
}

func (r *FrameResources) Generation() uint64 {
	return r.generation
}

func (r *FrameResources) Size() (width, height uint32) {
	return r.width, r.height
}

// Images returns the current images. The slices must not be modified.
func (r *FrameResources) Images() Dual[[]Image] {
	return r.images
}

// ImageCount returns the number of images per target.
func (r *FrameResources) ImageCount() Dual[int] {
	return MapDual(r.images, func(images []Image) int { return len(images) })
}

// Targets resolves image indices into the images to render to.
func (r *FrameResources) Targets(indices Dual[int]) (Dual[Image], error) {
	if r.images.Mode() == modeInvalid {
		return Dual[Image]{}, ErrNoImages
	}

	if err := CheckMode(r.images.Mode(), indices.Mode()); err != nil {
		return Dual[Image]{}, err
	}

	var targets [2]Image

	lists := [2][]Image{r.images.values[0], r.images.values[1]}

	err := indices.Each(func(eye Eye, index int) error {
		slot := 0
		if eye == EyeRight {
			slot = 1
		}

		if index < 0 || index >= len(lists[slot]) {
			return fmt.Errorf("%w: %s index %d of %d images", ErrImageIndex, eye, index, len(lists[slot]))
		}

		targets[slot] = lists[slot][index]
		return nil
	})

	if err != nil {
		return Dual[Image]{}, err
	}

	if indices.IsStereo() {
		return Stereo(targets[0], targets[1]), nil
	}

	return Single(targets[0]), nil
}
