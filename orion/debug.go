package orion

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

type frameTiming struct {
	Total time.Duration

	// time spent waiting for the platform, e.g. acquire or wait poses
	Wait   time.Duration
	Render time.Duration
	Submit time.Duration
}

// FrameStats collects the timings of the most recent frames of a driver.
// The zero value is ready to use.
type FrameStats struct {
	frameCount int
	frames     [60 * 10]frameTiming

	timeStartFrame  time.Time
	timeStartRender time.Time
	timeStartSubmit time.Time
	timeEndFrame    time.Time

	mem runtime.MemStats
}

func (d *FrameStats) StartFrame() {
	now := time.Now()

	if !d.timeStartFrame.IsZero() && !d.timeEndFrame.IsZero() {
		d.frames[d.frameCount%len(d.frames)] = frameTiming{
			Total:  now.Sub(d.timeStartFrame),
			Wait:   d.timeStartRender.Sub(d.timeStartFrame),
			Render: d.timeStartSubmit.Sub(d.timeStartRender),
			Submit: d.timeEndFrame.Sub(d.timeStartSubmit),
		}

		d.frameCount += 1
	}

	d.timeStartFrame = now
	d.timeEndFrame = time.Time{}
}

func (d *FrameStats) StartRender() {
	d.timeStartRender = time.Now()
}

func (d *FrameStats) StartSubmit() {
	d.timeStartSubmit = time.Now()
}

func (d *FrameStats) EndFrame() {
	d.timeEndFrame = time.Now()
}

// FrameCount returns the number of completed frames.
func (d *FrameStats) FrameCount() int {
	return d.frameCount
}

// FPS returns the frame rate averaged over the recent frames.
func (d *FrameStats) FPS() float64 {
	var frameCount int
	var totalTime time.Duration

	for _, frame := range d.frames {
		if frame.Total > 0 {
			frameCount += 1
			totalTime += frame.Total
		}
	}

	if frameCount == 0 {
		return 0
	}

	averageFrameTime := totalTime / time.Duration(frameCount)

	return 1.0 / averageFrameTime.Seconds()
}

// Last returns the timings of the last completed frame.
func (d *FrameStats) Last() (wait, render, submit time.Duration) {
	if d.frameCount == 0 {
		return 0, 0, 0
	}

	frame := d.frames[(d.frameCount-1)%len(d.frames)]
	return frame.Wait, frame.Render, frame.Submit
}

// Lines describes frame timings and memory usage in a few lines of text.
func (d *FrameStats) Lines() []string {
	runtime.ReadMemStats(&d.mem)

	lastCycle := (d.mem.NumGC + 255) % 256
	lastCycleDur := time.Duration(d.mem.PauseNs[lastCycle])

	wait, render, submit := d.Last()

	return []string{
		fmt.Sprintf("FPS: %1.2f", d.FPS()),
		fmt.Sprintf("Frames: %d", d.frameCount),
		fmt.Sprintf("  Wait:   %1.2fms", wait.Seconds()*1000),
		fmt.Sprintf("  Render: %1.2fms", render.Seconds()*1000),
		fmt.Sprintf("  Submit: %1.2fms", submit.Seconds()*1000),
		"Memory",
		fmt.Sprintf("  Heap Objects: %d", d.mem.HeapObjects),
		fmt.Sprintf("  Heap InUse:   %1.2fmb", float64(d.mem.HeapInuse)/(1024.0*1024.0)),
		"GC:",
		fmt.Sprintf("  Cycles:   %d", d.mem.NumGC),
		fmt.Sprintf("  Duration: %1.2fms", lastCycleDur.Seconds()*1000),
	}
}

func (d *FrameStats) String() string {
	return strings.Join(d.Lines(), "\n")
}
