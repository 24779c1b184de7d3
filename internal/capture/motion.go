package capture

import (
	"sync"

	"gocv.io/x/gocv"
)

// Motion detection constants.
const (
	// BackgroundHistory is the number of frames the background model retains.
	BackgroundHistory = 100
	// VarThreshold is the variance threshold of the MOG2 model.
	VarThreshold = 50
	// MaskThreshold is the binary threshold applied to the foreground mask.
	MaskThreshold = 200
	// MinContourArea is the minimum contour area in px² counted as motion.
	MinContourArea = 500
	// DefaultSensitivity is the default motion pixel count that triggers.
	DefaultSensitivity = 500
)

// MotionDetector detects motion against an adaptive background model.
// It is independent of face detection and runs on every frame.
type MotionDetector struct {
	subtractor  gocv.BackgroundSubtractorMOG2
	sensitivity float64
	mu          sync.Mutex
	closed      bool
}

// NewMotionDetector creates a MotionDetector with the given sensitivity.
// Sensitivity is the total foreground contour area, in pixels, above which
// motion is reported. Values <= 0 fall back to the default.
func NewMotionDetector(sensitivity float64) *MotionDetector {
	if sensitivity <= 0 {
		sensitivity = DefaultSensitivity
	}
	return &MotionDetector{
		subtractor:  gocv.NewBackgroundSubtractorMOG2WithParams(BackgroundHistory, VarThreshold, false),
		sensitivity: sensitivity,
	}
}

// Detect updates the background model with the frame and reports whether
// motion is present, along with the summed foreground contour area.
//
// Algorithm:
//  1. Apply the MOG2 background subtractor to get a foreground mask
//  2. Binary-threshold the mask (threshold=200)
//  3. Extract external contours
//  4. Sum areas of contours larger than MinContourArea
//  5. Report motion when the sum exceeds the sensitivity
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || frame == nil || frame.Empty() {
		return false, 0
	}

	mask := gocv.NewMat()
	defer mask.Close()
	m.subtractor.Apply(*frame, &mask)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(mask, &thresh, MaskThreshold, 255, gocv.ThresholdBinary)

	contours := gocv.FindContours(thresh, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var motionPixels float64
	for i := 0; i < contours.Size(); i++ {
		area := gocv.ContourArea(contours.At(i))
		if area > MinContourArea {
			motionPixels += area
		}
	}

	return motionPixels > m.sensitivity, motionPixels
}

// SetSensitivity sets the motion trigger area. Values <= 0 are ignored.
func (m *MotionDetector) SetSensitivity(sensitivity float64) {
	if sensitivity <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sensitivity = sensitivity
}

// Close releases the background subtractor.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.subtractor.Close()
	m.closed = true
}
