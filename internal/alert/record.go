// Package alert provides the alert domain types, the per-identity cooldown
// gate, and the bounded-duration recording session.
package alert

import (
	"image"
	"strings"
	"time"

	"github.com/vigilcam/vigil/internal/facematch"
	"github.com/vigilcam/vigil/internal/track"
)

// ThreatLevel is the structured level parsed from an AI assessment.
type ThreatLevel string

const (
	ThreatLevelNone   ThreatLevel = ""
	ThreatLevelLow    ThreatLevel = "LOW"
	ThreatLevelMedium ThreatLevel = "MEDIUM"
	ThreatLevelHigh   ThreatLevel = "HIGH"
)

// Person is one detected person in a processed frame. Instances are
// composed fresh each processed frame and consumed immediately; only the
// most recent list is cached for skipped frames.
type Person struct {
	Box        image.Rectangle
	Identity   facematch.Identity
	Confidence float64
	Tracking   track.TargetInfo
}

// Record is an alert log entry. It is created synchronously when a
// recording session starts, without media URLs, and enriched asynchronously
// as background work completes.
type Record struct {
	ID            int64
	Owner         string
	DeviceID      string
	Identity      string
	IsKnown       bool
	Confidence    float64
	ThumbnailFile string
	VideoFile     string
	ThumbnailURL  string
	VideoURL      string
	Assessment    string
	ThreatLevel   ThreatLevel
	CreatedAt     time.Time
}

// RecordUpdate is a partial update applied to an existing Record. Nil
// fields are left unchanged.
type RecordUpdate struct {
	ThumbnailURL *string
	VideoURL     *string
	Assessment   *string
	ThreatLevel  *ThreatLevel
}

// ParseThreatLevel extracts a structured threat level token from a
// free-text assessment. Returns ThreatLevelNone when no token is present.
func ParseThreatLevel(assessment string) ThreatLevel {
	upper := strings.ToUpper(assessment)
	switch {
	case strings.Contains(upper, "THREAT: HIGH"):
		return ThreatLevelHigh
	case strings.Contains(upper, "THREAT: MEDIUM"):
		return ThreatLevelMedium
	case strings.Contains(upper, "THREAT: LOW"):
		return ThreatLevelLow
	default:
		return ThreatLevelNone
	}
}
