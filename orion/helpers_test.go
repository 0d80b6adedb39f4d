package orion_test

import (
	"fmt"

	"github.com/oliverbestmann/parallax/pulse"
)

type journal struct {
	entries []string
}

func (j *journal) add(format string, args ...any) {
	j.entries = append(j.entries, fmt.Sprintf(format, args...))
}

func (j *journal) count(entry string) int {
	var n int
	for _, e := range j.entries {
		if e == entry {
			n += 1
		}
	}

	return n
}

type countingScene struct {
	journal *journal

	failUpdate error

	updates   int
	processes int
	resizes   int

	lastIndices pulse.Dual[int]
	views       pulse.Dual[pulse.EyeView]
}

func (s *countingScene) Update() error {
	s.updates += 1
	s.journal.add("update")
	return s.failUpdate
}

func (s *countingScene) Process(cmd pulse.CommandBuffer, indices pulse.Dual[int]) error {
	s.processes += 1
	s.lastIndices = indices
	s.journal.add("process")
	return nil
}

func (s *countingScene) Resize(width, height uint32) error {
	s.resizes += 1
	s.journal.add("resize")
	return nil
}

func (s *countingScene) SetViews(views pulse.Dual[pulse.EyeView]) {
	s.views = views
}

type countingPost struct {
	journal   *journal
	processes int
}

func (p *countingPost) Process(cmd pulse.CommandBuffer, indices pulse.Dual[int]) error {
	p.processes += 1
	p.journal.add("post")
	return nil
}

func (p *countingPost) Resize(width, height uint32) error {
	return nil
}

func (p *countingPost) Priority() int {
	return 10
}
