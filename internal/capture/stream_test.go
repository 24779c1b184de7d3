package capture

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"
)

func TestNewStream_Defaults(t *testing.T) {
	s := NewStream("0", 0, 0, 0)

	impl, ok := s.(*streamImpl)
	if !ok {
		t.Fatal("NewStream did not return a *streamImpl")
	}

	if impl.width != DefaultWidth || impl.height != DefaultHeight {
		t.Errorf("size = %dx%d, want %dx%d", impl.width, impl.height, DefaultWidth, DefaultHeight)
	}
	if impl.fps != DefaultFPS {
		t.Errorf("fps = %f, want %d", impl.fps, DefaultFPS)
	}
	if s.IsOpen() {
		t.Error("stream should not be open before Open is called")
	}
}

func TestStream_ReadBeforeOpen(t *testing.T) {
	s := NewStream("0", 640, 480, 30)

	if _, err := s.Read(); !errors.Is(err, ErrStreamNotOpen) {
		t.Errorf("Read before Open: err = %v, want ErrStreamNotOpen", err)
	}
}

func TestStream_CloseWithoutOpen(t *testing.T) {
	s := NewStream("0", 640, 480, 30)

	if err := s.Close(); err != nil {
		t.Errorf("Close on unopened stream: err = %v, want nil", err)
	}
}

func TestMockStream_Playback(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	f1 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer f1.Close()
	f2 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer f2.Close()

	s := NewMockStream([]*gocv.Mat{&f1, &f2}, 640, 480, false)

	if _, err := s.Read(); !errors.Is(err, ErrStreamNotOpen) {
		t.Fatalf("Read before Open: err = %v, want ErrStreamNotOpen", err)
	}

	if err := s.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}

	for i := 0; i < 2; i++ {
		frame, err := s.Read()
		if err != nil {
			t.Fatalf("Read frame %d: %v", i, err)
		}
		frame.Close()
	}

	// Non-looping stream is exhausted after the last frame.
	if _, err := s.Read(); !errors.Is(err, ErrReadFailed) {
		t.Errorf("Read past end: err = %v, want ErrReadFailed", err)
	}
}

func TestMockStream_Loop(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	f1 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer f1.Close()

	s := NewMockStream([]*gocv.Mat{&f1}, 640, 480, true)
	if err := s.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	for i := 0; i < 5; i++ {
		frame, err := s.Read()
		if err != nil {
			t.Fatalf("Read iteration %d: %v", i, err)
		}
		frame.Close()
	}
}
