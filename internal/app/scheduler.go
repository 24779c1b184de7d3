package app

import "github.com/vigilcam/vigil/internal/alert"

// Scheduler decides which frames run the detection pipeline. Full
// detection runs on every Nth frame; in between, the last results are
// reused so overlays and tracking stay continuous without paying the
// DNN cost per frame.
type Scheduler struct {
	stride int
	count  int64
	cached []alert.Person
}

// NewScheduler returns a scheduler that detects on every stride-th
// frame. A stride below 1 is treated as 1 (detect every frame).
func NewScheduler(stride int) *Scheduler {
	if stride < 1 {
		stride = 1
	}
	return &Scheduler{stride: stride}
}

// Next advances the frame counter and reports whether this frame
// should run detection. The counter is incremented before the modulo
// test, so detection runs on every Nth frame starting at frame N.
func (s *Scheduler) Next() bool {
	s.count++
	return s.count%int64(s.stride) == 0
}

// Cache stores the results of the latest detection run.
func (s *Scheduler) Cache(persons []alert.Person) {
	s.cached = persons
}

// Cached returns the results from the most recent detection run.
func (s *Scheduler) Cached() []alert.Person {
	return s.cached
}

// Frames returns how many frames have been scheduled so far.
func (s *Scheduler) Frames() int64 {
	return s.count
}
