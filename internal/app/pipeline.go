package app

import (
	"fmt"
	"image"
	"log"

	"gocv.io/x/gocv"

	"github.com/vigilcam/vigil/internal/alert"
	"github.com/vigilcam/vigil/internal/detector"
	"github.com/vigilcam/vigil/internal/facematch"
	"github.com/vigilcam/vigil/internal/track"
)

// Face regions smaller than this after expansion are discarded; the
// encoder produces garbage vectors on tiny crops.
const minFaceSize = 40

// boxExpansion widens detection boxes before encoding so the crop keeps
// some context around the face.
const boxExpansion = 0.2

// Pipeline runs detection, encoding and identity matching on a frame and
// composes the per-person results.
type Pipeline struct {
	detector detector.FaceDetector
	encoder  detector.FaceEncoder
	matcher  *facematch.Matcher
	tracker  *track.Tracker

	// scale < 1.0 downsizes frames before detection; boxes are mapped
	// back to full-frame coordinates afterwards.
	scale float64

	stats *Stats
}

// NewPipeline wires a detection pipeline from its collaborators.
func NewPipeline(d detector.FaceDetector, e detector.FaceEncoder, m *facematch.Matcher, t *track.Tracker, scale float64, stats *Stats) *Pipeline {
	if scale <= 0 || scale > 1 {
		scale = 1
	}
	return &Pipeline{
		detector: d,
		encoder:  e,
		matcher:  m,
		tracker:  t,
		scale:    scale,
		stats:    stats,
	}
}

// Process detects faces in the frame and resolves each to an identity.
// Detection runs on a downscaled copy when a scale below 1.0 is
// configured. Faces that cannot be encoded are still reported, as
// unknown with zero confidence.
func (p *Pipeline) Process(frame *gocv.Mat) ([]alert.Person, error) {
	boxes, err := p.detect(frame)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}
	if len(boxes) == 0 {
		return nil, nil
	}

	bounds := image.Rect(0, 0, frame.Cols(), frame.Rows())

	persons := make([]alert.Person, 0, len(boxes))
	known := 0
	for _, box := range boxes {
		// The expanded region is only the encoder's crop; tracking and
		// the reported box stay at the raw detection geometry, which
		// clamping at frame edges would otherwise shift off-center.
		region := expandBox(box, bounds)
		if region.Dx() < minFaceSize || region.Dy() < minFaceSize {
			continue
		}

		match := p.identify(frame, region)
		if match.Identity.IsKnown() {
			known++
		}

		persons = append(persons, alert.Person{
			Box:        box,
			Identity:   match.Identity,
			Confidence: match.Confidence,
			Tracking:   p.tracker.Update(box),
		})
	}

	if p.stats != nil {
		p.stats.AddFaces(len(persons), known)
	}
	return persons, nil
}

func (p *Pipeline) detect(frame *gocv.Mat) ([]image.Rectangle, error) {
	if p.scale >= 1 {
		return p.detector.Detect(frame)
	}

	small := gocv.NewMat()
	defer small.Close()
	gocv.Resize(*frame, &small, image.Point{}, p.scale, p.scale, gocv.InterpolationLinear)

	boxes, err := p.detector.Detect(&small)
	if err != nil {
		return nil, err
	}

	// Map boxes back to full-frame coordinates.
	inv := 1 / p.scale
	mapped := make([]image.Rectangle, len(boxes))
	for i, b := range boxes {
		mapped[i] = image.Rect(
			int(float64(b.Min.X)*inv),
			int(float64(b.Min.Y)*inv),
			int(float64(b.Max.X)*inv),
			int(float64(b.Max.Y)*inv),
		)
	}
	return mapped, nil
}

// identify crops the face region, encodes it and queries the matcher.
func (p *Pipeline) identify(frame *gocv.Mat, region image.Rectangle) facematch.Match {
	crop := frame.Region(region)
	defer crop.Close()

	encoding, err := p.encoder.Encode(&crop)
	if err != nil {
		log.Printf("pipeline: encode face at %v: %v", region, err)
		return facematch.Match{Identity: facematch.Unknown}
	}
	return p.matcher.Match(encoding)
}

// expandBox grows a detection box by boxExpansion on each side, clamped
// to the frame bounds.
func expandBox(box, bounds image.Rectangle) image.Rectangle {
	dx := int(float64(box.Dx()) * boxExpansion)
	dy := int(float64(box.Dy()) * boxExpansion)
	expanded := image.Rect(box.Min.X-dx, box.Min.Y-dy, box.Max.X+dx, box.Max.Y+dy)
	return expanded.Intersect(bounds)
}
