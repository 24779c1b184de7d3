// Package track converts face bounding boxes into actuation targets for a
// pan stepper.
package track

import (
	"image"
	"math"
	"sync"
)

// Tracker command thresholds.
const (
	// LockAngleDegrees is the angular window considered on-target.
	LockAngleDegrees = 5.0
	// HighPriorityDistance is the normalized distance above which a target
	// is high priority.
	HighPriorityDistance = 0.7
	// MediumPriorityDistance is the normalized distance above which a
	// target is medium priority.
	MediumPriorityDistance = 0.3
)

// Stepper actions and priorities.
const (
	ActionIdle   = "idle"
	ActionLocked = "locked"
	ActionRotate = "rotate"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// TargetInfo describes a tracked target relative to the frame center.
type TargetInfo struct {
	Center   image.Point
	Angle    float64 // degrees in [-90, 90]
	Distance float64 // normalized horizontal offset in [0, 1]
	Box      image.Rectangle
}

// Command is a derived stepper instruction for the actuation consumer.
type Command struct {
	Action   string
	Angle    float64
	Distance float64
	Priority string
	TargetX  int
	TargetY  int
}

// Tracker derives angle/distance targets from bounding boxes. It keeps no
// history beyond the most recent target.
type Tracker struct {
	frameWidth  int
	frameHeight int

	mu      sync.Mutex
	current *TargetInfo
}

// NewTracker creates a Tracker for the given frame dimensions.
func NewTracker(frameWidth, frameHeight int) *Tracker {
	return &Tracker{
		frameWidth:  frameWidth,
		frameHeight: frameHeight,
	}
}

// SetFrameSize updates the frame dimensions used for normalization.
func (t *Tracker) SetFrameSize(width, height int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frameWidth = width
	t.frameHeight = height
}

// Update derives the target for a bounding box and records it as the
// current target.
//
// angle = (centerX - frameWidth/2) / (frameWidth/2) * 90 degrees;
// distance = |centerX - frameWidth/2| / (frameWidth/2), in [0, 1] by
// construction for boxes within the frame.
func (t *Tracker) Update(box image.Rectangle) TargetInfo {
	t.mu.Lock()
	defer t.mu.Unlock()

	centerX := (box.Min.X + box.Max.X) / 2
	centerY := (box.Min.Y + box.Max.Y) / 2

	halfWidth := float64(t.frameWidth / 2)
	offsetX := float64(centerX) - halfWidth

	info := TargetInfo{
		Center:   image.Pt(centerX, centerY),
		Angle:    offsetX / halfWidth * 90,
		Distance: math.Abs(offsetX) / halfWidth,
		Box:      box,
	}

	t.current = &info
	return info
}

// Command returns the stepper command for the most recent target, or an
// idle command when no target has been seen.
func (t *Tracker) Command() Command {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == nil {
		return Command{Action: ActionIdle, Priority: PriorityLow}
	}

	action := ActionRotate
	if math.Abs(t.current.Angle) < LockAngleDegrees {
		action = ActionLocked
	}

	priority := PriorityLow
	switch {
	case t.current.Distance > HighPriorityDistance:
		priority = PriorityHigh
	case t.current.Distance > MediumPriorityDistance:
		priority = PriorityMedium
	}

	return Command{
		Action:   action,
		Angle:    t.current.Angle,
		Distance: t.current.Distance,
		Priority: priority,
		TargetX:  t.current.Center.X,
		TargetY:  t.current.Center.Y,
	}
}
