package alert

import (
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// DefaultRecordingDuration bounds the length of one alert recording.
const DefaultRecordingDuration = 15 * time.Second

// codecCandidates are tried in order when opening the video writer.
// Higher-quality codecs first, mp4v for compatibility.
var codecCandidates = []string{"avc1", "H264", "X264", "mp4v"}

// ErrWriterOpen is returned when no codec candidate produces a working
// video writer. The alert transition is aborted.
var ErrWriterOpen = errors.New("video writer failed to open for all codecs")

// ErrSessionActive is returned when Start is called while a recording is
// already in progress. At most one session is active system-wide.
var ErrSessionActive = errors.New("a recording session is already active")

// Session is one active alert recording: a snapshot already on disk plus a
// bounded-duration video being written.
type Session struct {
	Start         time.Time
	VideoPath     string
	ImagePath     string
	VideoFile     string
	ThumbnailFile string
	Size          image.Point
	Person        Person
	AlertID       int64

	writer *gocv.VideoWriter
}

// Recorder owns the single recording slot. Start, Write, Expired, and Stop
// are driven by the main loop; Close may be called from shutdown.
type Recorder struct {
	dir      string
	duration time.Duration
	fps      float64

	mu      sync.Mutex
	session *Session
}

// NewRecorder creates a Recorder writing media under dir at the given
// frame rate. The directory is created if missing.
func NewRecorder(dir string, duration time.Duration, fps float64) (*Recorder, error) {
	if duration <= 0 {
		duration = DefaultRecordingDuration
	}
	if fps <= 0 {
		fps = 30
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create recording directory: %w", err)
	}
	return &Recorder{
		dir:      dir,
		duration: duration,
		fps:      fps,
	}, nil
}

// Active reports whether a recording session is in progress.
func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session != nil
}

// StartSession persists a clean snapshot of the frame and opens a video
// writer for the person, trying codec candidates in order. On total writer
// failure the snapshot is removed and the transition is aborted.
func (r *Recorder) StartSession(frame *gocv.Mat, person Person, now time.Time) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session != nil {
		return nil, ErrSessionActive
	}

	stamp := now.Format("20060102_150405")
	thumbnailFile := fmt.Sprintf("ALERT_%s_%s.jpg", person.Identity, stamp)
	videoFile := fmt.Sprintf("ALERT_%s_%s.mp4", person.Identity, stamp)
	imagePath := filepath.Join(r.dir, thumbnailFile)
	videoPath := filepath.Join(r.dir, videoFile)

	if ok := gocv.IMWriteWithParams(imagePath, *frame, []int{gocv.IMWriteJpegQuality, 95}); !ok {
		return nil, fmt.Errorf("write snapshot %s failed", imagePath)
	}

	width := frame.Cols()
	height := frame.Rows()

	var writer *gocv.VideoWriter
	for _, codec := range codecCandidates {
		w, err := gocv.VideoWriterFile(videoPath, codec, r.fps, width, height, true)
		if err != nil {
			continue
		}
		if w.IsOpened() {
			writer = w
			break
		}
		w.Close()
	}
	if writer == nil {
		os.Remove(imagePath)
		return nil, ErrWriterOpen
	}

	r.session = &Session{
		Start:         now,
		VideoPath:     videoPath,
		ImagePath:     imagePath,
		VideoFile:     videoFile,
		ThumbnailFile: thumbnailFile,
		Size:          image.Pt(width, height),
		Person:        person,
		writer:        writer,
	}

	return r.session, nil
}

// Write appends a frame to the active recording, resizing to the session
// geometry if the stream geometry changed mid-session. No-op when idle.
func (r *Recorder) Write(frame *gocv.Mat) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session == nil {
		return
	}

	if frame.Cols() != r.session.Size.X || frame.Rows() != r.session.Size.Y {
		resized := gocv.NewMat()
		defer resized.Close()
		gocv.Resize(*frame, &resized, r.session.Size, 0, 0, gocv.InterpolationLinear)
		if err := r.session.writer.Write(resized); err != nil {
			log.Printf("Recording write failed: %v", err)
		}
		return
	}

	if err := r.session.writer.Write(*frame); err != nil {
		log.Printf("Recording write failed: %v", err)
	}
}

// Expired reports whether the active session has exceeded the recording
// duration. False when idle.
func (r *Recorder) Expired(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.session != nil && now.Sub(r.session.Start) > r.duration
}

// StopSession releases the writer unconditionally and returns the finished
// session, or nil when idle.
func (r *Recorder) StopSession() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.stopLocked()
}

func (r *Recorder) stopLocked() *Session {
	if r.session == nil {
		return nil
	}

	session := r.session
	r.session = nil

	if err := session.writer.Close(); err != nil {
		log.Printf("Error closing video writer: %v", err)
	}
	session.writer = nil

	return session
}

// Close releases the writer if a session is still active. Safe to call
// during shutdown mid-recording.
func (r *Recorder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session != nil {
		log.Printf("Releasing recording session on shutdown: %s", r.session.VideoPath)
		r.stopLocked()
	}
}
