package detector

import (
	"image"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the FaceDetector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	faces []image.Rectangle
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetFaces sets the boxes that will be returned by Detect.
func (m *MockDetector) SetFaces(faces []image.Rectangle) {
	m.faces = faces
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.err = err
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	return m.calls
}

// Detect returns the pre-configured faces or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]image.Rectangle, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.faces, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// MockEncoder is a test implementation of the FaceEncoder interface.
type MockEncoder struct {
	encoding []float64
	err      error
}

// NewMockEncoder creates a new MockEncoder instance.
func NewMockEncoder() *MockEncoder {
	return &MockEncoder{}
}

// SetEncoding sets the vector that will be returned by Encode.
func (m *MockEncoder) SetEncoding(encoding []float64) {
	m.encoding = encoding
}

// SetError sets the error that will be returned by Encode.
func (m *MockEncoder) SetError(err error) {
	m.err = err
}

// Encode returns the pre-configured encoding or error.
func (m *MockEncoder) Encode(face *gocv.Mat) ([]float64, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.encoding == nil {
		return nil, ErrNoEncoding
	}
	return m.encoding, nil
}

// Close is a no-op for the mock encoder.
func (m *MockEncoder) Close() error {
	return nil
}

// FlatEncoding returns an EncodingSize-dimension vector with every component
// set to v. Useful for building distinguishable test encodings.
func FlatEncoding(v float64) []float64 {
	encoding := make([]float64, EncodingSize)
	for i := range encoding {
		encoding[i] = v
	}
	return encoding
}
