package detector

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// ErrNoEncoding is returned when no feature vector could be produced for a
// face region. Callers skip the region and continue the frame.
var ErrNoEncoding = errors.New("no encoding produced")

// encoderInputSize is the input geometry of the OpenFace embedding model.
var encoderInputSize = image.Pt(96, 96)

// OpenFaceEncoder produces 128-dimension face embeddings using the OpenFace
// nn4 Torch model.
type OpenFaceEncoder struct {
	net gocv.Net
	mu  sync.Mutex
}

// NewOpenFaceEncoder loads the Torch embedding model from the configured path.
func NewOpenFaceEncoder(config Config) (*OpenFaceEncoder, error) {
	net := gocv.ReadNetFromTorch(config.EncoderPath)
	if net.Empty() {
		return nil, fmt.Errorf("load embedding model %s failed", config.EncoderPath)
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &OpenFaceEncoder{net: net}, nil
}

// Encode computes the embedding for a face crop. The crop is resized to
// 96x96 and scaled to [0,1] before the forward pass.
func (e *OpenFaceEncoder) Encode(face *gocv.Mat) ([]float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if face == nil || face.Empty() {
		return nil, ErrNoEncoding
	}

	blob := gocv.BlobFromImage(*face, 1.0/255.0, encoderInputSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	e.net.SetInput(blob, "")
	out := e.net.Forward("")
	defer out.Close()

	if out.Empty() || int(out.Total()) != EncodingSize {
		return nil, ErrNoEncoding
	}

	flat := out.Reshape(1, 1)
	defer flat.Close()

	encoding := make([]float64, EncodingSize)
	for i := 0; i < EncodingSize; i++ {
		encoding[i] = float64(flat.GetFloatAt(0, i))
	}

	return encoding, nil
}

// Close releases the network.
func (e *OpenFaceEncoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.net.Close()
}
