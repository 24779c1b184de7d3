package detector

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// CascadeDetector detects faces with a Haar cascade classifier. It is the
// fallback backend used when the DNN model files are not available.
type CascadeDetector struct {
	classifier gocv.CascadeClassifier
	mu         sync.Mutex
}

// NewCascadeDetector loads the Haar cascade from the configured path.
func NewCascadeDetector(config Config) (*CascadeDetector, error) {
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(config.CascadePath) {
		classifier.Close()
		return nil, fmt.Errorf("load cascade %s failed", config.CascadePath)
	}

	return &CascadeDetector{classifier: classifier}, nil
}

// Detect returns face bounding boxes found by the cascade classifier.
func (d *CascadeDetector) Detect(frame *gocv.Mat) ([]image.Rectangle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if frame == nil || frame.Empty() {
		return nil, nil
	}

	gray := gocv.NewMat()
	defer gray.Close()

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	return d.classifier.DetectMultiScale(gray), nil
}

// Close releases the classifier.
func (d *CascadeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.classifier.Close()
	return nil
}
