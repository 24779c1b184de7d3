package detector

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// dnnInputSize is the input geometry of the res10 SSD face model.
var dnnInputSize = image.Pt(300, 300)

// DNNDetector detects faces with the res10 single-shot detector (Caffe).
// This is the primary detection backend.
type DNNDetector struct {
	net           gocv.Net
	minConfidence float32
	mu            sync.Mutex
}

// NewDNNDetector loads the Caffe SSD face model from the configured paths.
func NewDNNDetector(config Config) (*DNNDetector, error) {
	net := gocv.ReadNetFromCaffe(config.ProtoPath, config.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("load SSD face model (prototxt=%s, model=%s) failed", config.ProtoPath, config.ModelPath)
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	minConfidence := config.MinConfidence
	if minConfidence <= 0 {
		minConfidence = DefaultConfig().MinConfidence
	}

	return &DNNDetector{
		net:           net,
		minConfidence: minConfidence,
	}, nil
}

// Detect returns face bounding boxes in frame coordinates.
//
// The SSD output is [1,1,N,7] rows of
// (image_id, class_id, confidence, x1, y1, x2, y2) with normalized
// coordinates; rows below the confidence threshold are discarded and boxes
// are clamped to the frame bounds.
func (d *DNNDetector) Detect(frame *gocv.Mat) ([]image.Rectangle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if frame == nil || frame.Empty() {
		return nil, nil
	}

	blob := gocv.BlobFromImage(*frame, 1.0, dnnInputSize, gocv.NewScalar(104, 177, 123, 0), false, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	prob := d.net.Forward("")
	defer prob.Close()

	if prob.Empty() || prob.Total() < 7 {
		return nil, nil
	}

	rows := int(prob.Total() / 7)
	flat := prob.Reshape(1, rows)
	defer flat.Close()

	w := frame.Cols()
	h := frame.Rows()

	var faces []image.Rectangle
	for i := 0; i < rows; i++ {
		confidence := flat.GetFloatAt(i, 2)
		if confidence < d.minConfidence {
			continue
		}

		x1 := int(flat.GetFloatAt(i, 3) * float32(w))
		y1 := int(flat.GetFloatAt(i, 4) * float32(h))
		x2 := int(flat.GetFloatAt(i, 5) * float32(w))
		y2 := int(flat.GetFloatAt(i, 6) * float32(h))

		box := image.Rect(x1, y1, x2, y2).Intersect(image.Rect(0, 0, w, h))
		if box.Empty() {
			continue
		}
		faces = append(faces, box)
	}

	return faces, nil
}

// Close releases the network.
func (d *DNNDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}
