package app

import "sync"

// Stats accumulates pipeline counters. Safe for concurrent use; the
// main loop increments while shutdown reads a snapshot.
type Stats struct {
	mu sync.Mutex

	FramesRead     int64
	FramesSkipped  int64
	FacesDetected  int64
	KnownMatches   int64
	UnknownMatches int64
	MotionEvents   int64
	AlertsCreated  int64
	ReadFailures   int64
}

// Snapshot holds a point-in-time copy of the counters.
type Snapshot struct {
	FramesRead     int64
	FramesSkipped  int64
	FacesDetected  int64
	KnownMatches   int64
	UnknownMatches int64
	MotionEvents   int64
	AlertsCreated  int64
	ReadFailures   int64
}

func (s *Stats) AddFrame()       { s.add(&s.FramesRead) }
func (s *Stats) AddSkipped()     { s.add(&s.FramesSkipped) }
func (s *Stats) AddMotion()      { s.add(&s.MotionEvents) }
func (s *Stats) AddAlert()       { s.add(&s.AlertsCreated) }
func (s *Stats) AddReadFailure() { s.add(&s.ReadFailures) }

// AddFaces records n detected faces and how many resolved to a known
// identity.
func (s *Stats) AddFaces(n, known int) {
	s.mu.Lock()
	s.FacesDetected += int64(n)
	s.KnownMatches += int64(known)
	s.UnknownMatches += int64(n - known)
	s.mu.Unlock()
}

func (s *Stats) add(p *int64) {
	s.mu.Lock()
	*p++
	s.mu.Unlock()
}

// Snapshot returns a copy of the current counters.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		FramesRead:     s.FramesRead,
		FramesSkipped:  s.FramesSkipped,
		FacesDetected:  s.FacesDetected,
		KnownMatches:   s.KnownMatches,
		UnknownMatches: s.UnknownMatches,
		MotionEvents:   s.MotionEvents,
		AlertsCreated:  s.AlertsCreated,
		ReadFailures:   s.ReadFailures,
	}
}
