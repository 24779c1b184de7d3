// Package capture provides video stream acquisition and motion detection
// using GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	"gocv.io/x/gocv"
)

// Default stream settings.
const (
	DefaultWidth  = 1280
	DefaultHeight = 720
	DefaultFPS    = 30
)

// ErrStreamNotOpen is returned when reading from a stream that is not open.
var ErrStreamNotOpen = errors.New("stream is not open")

// ErrReadFailed is returned when a frame read fails. The main loop treats
// this as fatal and shuts down rather than retrying indefinitely.
var ErrReadFailed = errors.New("failed to read frame from stream")

// Stream defines the interface for video stream implementations.
type Stream interface {
	Open() error
	Close() error
	Read() (*gocv.Mat, error)
	Size() (width, height int)
	FPS() float64
	IsOpen() bool
}

// streamImpl manages video capture from a local camera, an HTTP/MJPEG
// endpoint, or an RTSP source.
type streamImpl struct {
	source string
	width  int
	height int
	fps    float64

	capture *gocv.VideoCapture
	mu      sync.Mutex
	running bool
}

// NewStream creates a Stream for the given source. The source may be a
// local camera index ("0"), an http(s):// MJPEG URL, or an rtsp:// URL.
// The stream is not connected until Open is called.
func NewStream(source string, width, height int, fps float64) Stream {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &streamImpl{
		source: source,
		width:  width,
		height: height,
		fps:    fps,
	}
}

// Open connects to the stream, trying backend and URL fallbacks for HTTP
// sources. On success it applies frame size, FPS, and buffer settings.
func (s *streamImpl) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	capture, err := connect(s.source)
	if err != nil {
		return err
	}

	capture.Set(gocv.VideoCaptureFrameWidth, float64(s.width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(s.height))
	capture.Set(gocv.VideoCaptureFPS, s.fps)
	capture.Set(gocv.VideoCaptureBufferSize, 1)

	// Prefer the actual negotiated geometry over the requested one.
	if w := int(capture.Get(gocv.VideoCaptureFrameWidth)); w > 0 {
		s.width = w
	}
	if h := int(capture.Get(gocv.VideoCaptureFrameHeight)); h > 0 {
		s.height = h
	}
	if fps := capture.Get(gocv.VideoCaptureFPS); fps >= 5 && fps <= 120 {
		s.fps = fps
	}

	s.capture = capture
	s.running = true

	log.Printf("Stream connected: %s (%dx%d @ %.0f fps)", s.source, s.width, s.height, s.fps)
	return nil
}

// connect opens a VideoCapture for the source, attempting multiple
// connection strategies for HTTP sources.
func connect(source string) (*gocv.VideoCapture, error) {
	// Local camera index.
	if id, err := strconv.Atoi(source); err == nil {
		capture, err := gocv.OpenVideoCapture(id)
		if err != nil {
			return nil, fmt.Errorf("open local camera %d: %w", id, err)
		}
		return capture, nil
	}

	switch {
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		// FFMPEG handles HTTP/MJPEG streams better than the default backend.
		if capture, err := gocv.OpenVideoCaptureWithAPI(source, gocv.VideoCaptureFFmpeg); err == nil && capture.IsOpened() {
			return capture, nil
		}
		if capture, err := gocv.OpenVideoCapture(source); err == nil && capture.IsOpened() {
			return capture, nil
		}

		// Common MJPEG endpoint variations.
		base := strings.TrimRight(source, "/")
		variations := []string{
			source,
			base + "?action=stream",
			base + "/video",
			base + "/stream",
		}
		for _, url := range variations {
			if capture, err := gocv.OpenVideoCapture(url); err == nil && capture.IsOpened() {
				log.Printf("Stream connected using variation: %s", url)
				return capture, nil
			}
		}
		return nil, fmt.Errorf("open http stream %s: all connection attempts failed", source)

	case strings.HasPrefix(source, "rtsp://"):
		capture, err := gocv.OpenVideoCaptureWithAPI(source, gocv.VideoCaptureFFmpeg)
		if err != nil {
			return nil, fmt.Errorf("open rtsp stream %s: %w", source, err)
		}
		return capture, nil

	default:
		capture, err := gocv.OpenVideoCapture(source)
		if err != nil {
			return nil, fmt.Errorf("open stream %s: %w", source, err)
		}
		return capture, nil
	}
}

// Close closes the stream and releases the capture handle.
func (s *streamImpl) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.capture == nil {
		s.running = false
		return nil
	}

	err := s.capture.Close()
	s.capture = nil
	s.running = false

	return err
}

// Read reads a single frame from the stream.
// The caller is responsible for closing the returned Mat.
func (s *streamImpl) Read() (*gocv.Mat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.capture == nil {
		return nil, ErrStreamNotOpen
	}

	mat := gocv.NewMat()
	if ok := s.capture.Read(&mat); !ok {
		mat.Close()
		return nil, ErrReadFailed
	}

	if mat.Empty() {
		mat.Close()
		return nil, ErrReadFailed
	}

	return &mat, nil
}

// Size returns the frame dimensions of the stream.
func (s *streamImpl) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.width, s.height
}

// FPS returns the capture frame rate.
func (s *streamImpl) FPS() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.fps
}

// IsOpen returns true if the stream is currently connected.
func (s *streamImpl) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}
