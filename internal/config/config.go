// Package config collects process configuration from environment
// variables into one explicitly constructed value.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all settings for the surveillance pipeline. It is built
// once at startup and passed into each component; components never read
// the environment themselves.
type Config struct {
	// Stream settings
	StreamURL    string
	FrameWidth   int
	FrameHeight  int
	TargetFPS    float64
	RecordingFPS float64

	// Detection settings
	FrameStride        int
	DetectionScale     float64
	Tolerance          float64
	MotionSensitivity  float64
	FaceReloadInterval time.Duration

	// Alert settings
	Cooldown          time.Duration
	MotionCooldown    time.Duration
	RecordingDuration time.Duration
	RecordingDir      string

	// Identity of this installation
	Owner    string
	DeviceID string

	// Storage paths and collaborators
	DBPath     string
	StorageURL string
	StorageKey string
	Bucket     string

	// Model files
	ProtoPath   string
	ModelPath   string
	CascadePath string
	EncoderPath string

	// External services
	GeminiAPIKey     string
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFrom       string
	DevicePushURL    string
	DeviceSecret     string
}

// Load reads configuration from the environment, first loading a .env
// file if one is present.
func Load() Config {
	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	return Config{
		StreamURL:    envString("VIDEO_STREAM_URL", "0"),
		FrameWidth:   envInt("VIDEO_FRAME_WIDTH", 1280),
		FrameHeight:  envInt("VIDEO_FRAME_HEIGHT", 720),
		TargetFPS:    envFloat("VIDEO_TARGET_FPS", 30),
		RecordingFPS: envFloat("VIDEO_RECORDING_FPS", 30),

		FrameStride:        envInt("VIDEO_FRAME_STRIDE", 2),
		DetectionScale:     envFloat("VIDEO_DETECTION_SCALE", 0.75),
		Tolerance:          envFloat("FACE_TOLERANCE", 0.50),
		MotionSensitivity:  envFloat("MOTION_SENSITIVITY", 500),
		FaceReloadInterval: envDuration("FACE_RELOAD_SECONDS", 300),

		Cooldown:          envDuration("ALERT_COOLDOWN_SECONDS", 60),
		MotionCooldown:    envDuration("MOTION_COOLDOWN_SECONDS", 30),
		RecordingDuration: envDuration("RECORDING_SECONDS", 15),
		RecordingDir:      envString("RECORDING_DIR", "detections"),

		Owner:    os.Getenv("OWNER_ID"),
		DeviceID: envString("DEVICE_ID", "camera"),

		DBPath:     envString("DB_PATH", "vigil.db"),
		StorageURL: os.Getenv("STORAGE_URL"),
		StorageKey: os.Getenv("STORAGE_SERVICE_KEY"),
		Bucket:     envString("STORAGE_BUCKET", "alerts"),

		ProtoPath:   envString("FACE_PROTO_PATH", "models/deploy.prototxt"),
		ModelPath:   envString("FACE_MODEL_PATH", "models/res10_300x300_ssd_iter_140000.caffemodel"),
		CascadePath: envString("FACE_CASCADE_PATH", "models/haarcascade_frontalface_default.xml"),
		EncoderPath: envString("FACE_ENCODER_PATH", "models/nn4.small2.v1.t7"),

		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFrom:       os.Getenv("TWILIO_FROM_NUMBER"),
		DevicePushURL:    os.Getenv("INGEST_CAMERA_URL"),
		DeviceSecret:     os.Getenv("DEVICE_SECRET"),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallbackSeconds int) time.Duration {
	return time.Duration(envInt(key, fallbackSeconds)) * time.Second
}
