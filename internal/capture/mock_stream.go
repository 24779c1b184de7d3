package capture

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// MockStream plays back pre-recorded frames for testing.
type MockStream struct {
	frames  []*gocv.Mat
	width   int
	height  int
	index   int
	loop    bool
	mu      sync.Mutex
	running bool
}

func NewMockStream(frames []*gocv.Mat, width, height int, loop bool) *MockStream {
	return &MockStream{
		frames: frames,
		width:  width,
		height: height,
		loop:   loop,
	}
}

func (s *MockStream) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
	s.index = 0
	return nil
}

func (s *MockStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	return nil
}

func (s *MockStream) Read() (*gocv.Mat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil, ErrStreamNotOpen
	}

	if len(s.frames) == 0 {
		return nil, fmt.Errorf("no frames available: %w", ErrReadFailed)
	}

	if s.index >= len(s.frames) {
		if s.loop {
			s.index = 0
		} else {
			return nil, ErrReadFailed
		}
	}

	frame := s.frames[s.index]
	s.index++

	// Return a copy so the caller can close it independently.
	clone := frame.Clone()
	return &clone, nil
}

func (s *MockStream) Size() (int, int) {
	return s.width, s.height
}

func (s *MockStream) FPS() float64 {
	return DefaultFPS
}

func (s *MockStream) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
