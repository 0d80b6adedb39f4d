package orion

import (
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/oliverbestmann/parallax/pulse"
)

// OverlayPriority is the post-processing priority of an Overlay. It runs
// after most other post-processing.
const OverlayPriority = 50

// OverlayRecorder records the overlay for one eye into a secondary buffer.
type OverlayRecorder func(cmd pulse.CommandBuffer, eye pulse.Eye, target pulse.Image) error

type OverlayOptions struct {
	// Record is called whenever the overlay for an image is not cached.
	Record OverlayRecorder

	// number of cached command buffers, defaults to 8
	CacheSize int
}

type overlayKey struct {
	eye   pulse.Eye
	index int
}

// Overlay is a post-process that draws GUI content on top of the scenes.
// The recorded commands are cached per eye and image until the content
// is invalidated or the images are resized.
type Overlay struct {
	backend *pulse.Backend
	record  OverlayRecorder
	cache   *lru.Cache[overlayKey, pulse.CommandBuffer]

	recorded int
}

var _ pulse.PostProcess = (*Overlay)(nil)

func NewOverlay(backend *pulse.Backend, opts OverlayOptions) (*Overlay, error) {
	if opts.Record == nil {
		return nil, errors.New("overlay: Record must not be nil")
	}

	if opts.CacheSize <= 0 {
		opts.CacheSize = 8
	}

	cache, err := lru.NewWithEvict(opts.CacheSize, func(_ overlayKey, cmd pulse.CommandBuffer) {
		if releaser, ok := cmd.(pulse.Releaser); ok {
			releaser.Release()
		}
	})

	if err != nil {
		return nil, fmt.Errorf("create overlay cache: %w", err)
	}

	o := &Overlay{
		backend: backend,
		record:  opts.Record,
		cache:   cache,
	}

	return o, nil
}

func (o *Overlay) Priority() int {
	return OverlayPriority
}

// Invalidate drops all cached commands. Call it when the content changed.
func (o *Overlay) Invalidate() {
	o.cache.Purge()
}

// Cached returns the number of cached command buffers.
func (o *Overlay) Cached() int {
	return o.cache.Len()
}

// Recorded returns how often commands were recorded.
func (o *Overlay) Recorded() int {
	return o.recorded
}

func (o *Overlay) Resize(width, height uint32) error {
	o.cache.Purge()
	return nil
}

func (o *Overlay) Process(cmd pulse.CommandBuffer, indices pulse.Dual[int]) error {
	targets, err := o.backend.Targets(indices)
	if err != nil {
		return err
	}

	return indices.Each(func(eye pulse.Eye, index int) error {
		key := overlayKey{eye: eye, index: index}

		secondary, ok := o.cache.Get(key)
		if !ok {
			target, err := targets.Get(eye)
			if err != nil {
				return err
			}

			secondary, err = o.recordFor(eye, target)
			if err != nil {
				return err
			}

			o.cache.Add(key, secondary)
		}

		return cmd.Execute(secondary)
	})
}

func (o *Overlay) recordFor(eye pulse.Eye, target pulse.Image) (pulse.CommandBuffer, error) {
	secondary, err := o.backend.AllocateSecondary()
	if err != nil {
		return nil, fmt.Errorf("allocate overlay commands: %w", err)
	}

	if err := o.record(secondary, eye, target); err != nil {
		return nil, fmt.Errorf("record %s overlay: %w", eye, err)
	}

	if err := secondary.End(); err != nil {
		return nil, fmt.Errorf("end overlay commands: %w", err)
	}

	o.recorded += 1

	return secondary, nil
}
