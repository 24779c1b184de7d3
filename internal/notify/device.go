package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// devicePushTimeout bounds the outbound device push; the channel is
// fire-and-forget and must never hold up its caller.
const devicePushTimeout = 5 * time.Second

// DevicePush is the outbound device alert channel, used for both
// motion-only and person-detected events. Failures are logged and
// swallowed.
type DevicePush struct {
	url    string
	secret string
	client *http.Client
}

// devicePayload is the wire format of a device push.
type devicePayload struct {
	DeviceID   string `json:"device_id"`
	Motion     bool   `json:"motion"`
	UltraClose bool   `json:"ultra_close"`
	AlertType  string `json:"alert_type,omitempty"`
}

// NewDevicePush creates a DevicePush. Returns nil when the channel is not
// configured, which disables pushes.
func NewDevicePush(url, secret string) *DevicePush {
	if url == "" || secret == "" {
		return nil
	}
	return &DevicePush{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: devicePushTimeout},
	}
}

// Notify posts the event to the device channel. Nil receivers and all
// failures are silent beyond a log line.
func (p *DevicePush) Notify(ctx context.Context, deviceID string, motion bool, alertType string) {
	if p == nil {
		return
	}

	body, err := json.Marshal(devicePayload{
		DeviceID:  deviceID,
		Motion:    motion,
		AlertType: alertType,
	})
	if err != nil {
		log.Printf("Device push marshal failed: %v", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		log.Printf("Device push request failed: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-device-secret", p.secret)

	resp, err := p.client.Do(req)
	if err != nil {
		log.Printf("Device push send failed: %v", err)
		return
	}
	resp.Body.Close()
}
