// Package detector provides face detection and feature encoding backends
// built on the GoCV DNN module.
package detector

import (
	"image"

	"gocv.io/x/gocv"
)

// EncodingSize is the dimensionality of a face feature vector.
const EncodingSize = 128

// FaceDetector locates face regions in a frame.
type FaceDetector interface {
	// Detect analyzes a video frame and returns bounding boxes of faces.
	// Returns an empty slice if no faces are found.
	Detect(frame *gocv.Mat) ([]image.Rectangle, error)

	// Close releases any resources held by the detector.
	Close() error
}

// FaceEncoder produces a fixed-length feature vector from a face crop.
type FaceEncoder interface {
	// Encode computes a feature vector of EncodingSize dimensions for the
	// given face region.
	Encode(face *gocv.Mat) ([]float64, error)

	// Close releases any resources held by the encoder.
	Close() error
}

// Config holds configuration options for the detection backends.
type Config struct {
	// ProtoPath is the Caffe prototxt file for the SSD face detector.
	ProtoPath string

	// ModelPath is the Caffe weights file for the SSD face detector.
	ModelPath string

	// CascadePath is the Haar cascade XML used by the fallback detector.
	CascadePath string

	// EncoderPath is the Torch model file used by the feature encoder.
	EncoderPath string

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float32
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		ProtoPath:     "models/deploy.prototxt",
		ModelPath:     "models/res10_300x300_ssd_iter_140000.caffemodel",
		CascadePath:   "models/haarcascade_frontalface_default.xml",
		EncoderPath:   "models/nn4.small2.v1.t7",
		MinConfidence: 0.7,
	}
}
