package orion

import (
	"github.com/oliverbestmann/parallax/pulse"
)

type RunOptions struct {
	// Poll is called before every frame, the loop stops once it returns
	// false. Typically this is the Poll method of a glimpse.Window.
	Poll func() bool

	// OnError receives the error of a failed frame the driver can recover
	// from. The loop stops if it returns an error. The default logs the
	// error and continues with the next frame.
	OnError func(err error) error

	// OnStats is called every 60 frames.
	OnStats func(times *FrameTimes)

	// stop after this many frames, zero means no limit
	MaxFrames uint64
}

func (opts RunOptions) withDefaults() RunOptions {
	if opts.OnError == nil {
		opts.OnError = LogError
	}

	return opts
}

// LogError is the default error handler of Run.
func LogError(err error) error {
	pulse.Logger().Error("Frame failed", "err", err)
	return nil
}

// Run drives frames until the driver stops, Poll reports false or a frame
// fails fatally. Fatal errors are returned, stopping regularly returns nil.
func Run(driver Driver, opts RunOptions) error {
	opts = opts.withDefaults()

	var times FrameTimes

	for {
		if opts.Poll != nil && !opts.Poll() {
			pulse.Logger().Info("Run loop stopped by poll")
			return nil
		}

		running, err := driver.NextFrame()

		switch {
		case err != nil && !running:
			return err

		case err != nil:
			if err := opts.OnError(err); err != nil {
				return err
			}

		case !running:
			pulse.Logger().Info("Run loop stopped by driver")
			return nil
		}

		if times.Tick() {
			pulse.Logger().Debug("Frame times",
				"frames", times.FrameCount,
				"fps", times.FPS(),
				"max", times.MaxDuration,
			)

			if opts.OnStats != nil {
				opts.OnStats(&times)
			}
		}

		if opts.MaxFrames > 0 && times.FrameCount >= opts.MaxFrames {
			return nil
		}
	}
}
