package capture

import (
	"testing"

	"gocv.io/x/gocv"
)

func TestNewMotionDetector(t *testing.T) {
	tests := []struct {
		name        string
		sensitivity float64
		want        float64
	}{
		{
			name:        "explicit sensitivity",
			sensitivity: 1000,
			want:        1000,
		},
		{
			name:        "zero falls back to default",
			sensitivity: 0,
			want:        DefaultSensitivity,
		},
		{
			name:        "negative falls back to default",
			sensitivity: -5,
			want:        DefaultSensitivity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := NewMotionDetector(tt.sensitivity)
			if md == nil {
				t.Fatal("NewMotionDetector returned nil")
			}
			defer md.Close()

			if md.sensitivity != tt.want {
				t.Errorf("sensitivity = %f, want %f", md.sensitivity, tt.want)
			}
		})
	}
}

func TestMotionDetector_StaticScene(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(DefaultSensitivity)
	defer md.Close()

	// A static scene of identical black frames should never report motion
	// once the background model has seen the first frame.
	for i := 0; i < 5; i++ {
		frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
		detected, pixels := md.Detect(&frame)
		frame.Close()

		if i > 0 && detected {
			t.Errorf("frame %d: detected motion in static scene (pixels=%f)", i, pixels)
		}
	}
}

func TestMotionDetector_NilAndEmptyFrames(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(DefaultSensitivity)
	defer md.Close()

	if detected, _ := md.Detect(nil); detected {
		t.Error("nil frame should not detect motion")
	}

	empty := gocv.NewMat()
	defer empty.Close()
	if detected, _ := md.Detect(&empty); detected {
		t.Error("empty frame should not detect motion")
	}
}

func TestMotionDetector_SetSensitivity(t *testing.T) {
	md := NewMotionDetector(500)
	defer md.Close()

	md.SetSensitivity(2000)
	if md.sensitivity != 2000 {
		t.Errorf("sensitivity = %f, want 2000", md.sensitivity)
	}

	// Non-positive values are ignored.
	md.SetSensitivity(0)
	if md.sensitivity != 2000 {
		t.Errorf("sensitivity = %f, want 2000 after ignored update", md.sensitivity)
	}
}

func TestMotionDetector_DetectAfterClose(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(DefaultSensitivity)
	md.Close()

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	if detected, _ := md.Detect(&frame); detected {
		t.Error("closed detector should not detect motion")
	}
}
