// Package storage uploads alert media to an object storage service.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Storage uploads media bytes and returns a public URL.
type Storage interface {
	Upload(ctx context.Context, data []byte, filename, contentType string) (string, error)

	// PublicURL returns the public URL an upload of filename would be
	// served from, without performing any network call.
	PublicURL(filename string) string
}

// ObjectStorage is an HTTP client for a Supabase-style storage endpoint.
// Objects are uploaded into a single bucket; the bucket is created on
// demand if the first upload reports it missing.
type ObjectStorage struct {
	baseURL    string
	serviceKey string
	bucket     string
	client     *http.Client
}

// NewObjectStorage creates an ObjectStorage against baseURL, authenticating
// with the service key and uploading into bucket.
func NewObjectStorage(baseURL, serviceKey, bucket string) *ObjectStorage {
	return &ObjectStorage{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		bucket:     bucket,
		client:     &http.Client{Timeout: 60 * time.Second},
	}
}

// Upload stores the bytes under filename and returns the public URL. If the
// destination bucket is missing it is created once and the upload is
// retried once.
func (s *ObjectStorage) Upload(ctx context.Context, data []byte, filename, contentType string) (string, error) {
	if err := s.put(ctx, data, filename, contentType); err != nil {
		if createErr := s.createBucket(ctx); createErr != nil {
			return "", fmt.Errorf("upload %s: %w (bucket creation also failed: %v)", filename, err, createErr)
		}
		if err := s.put(ctx, data, filename, contentType); err != nil {
			return "", fmt.Errorf("upload %s after bucket creation: %w", filename, err)
		}
	}

	return s.PublicURL(filename), nil
}

// PublicURL returns the public object URL for filename in the bucket.
func (s *ObjectStorage) PublicURL(filename string) string {
	return fmt.Sprintf("%s/object/public/%s/%s", s.baseURL, s.bucket, filename)
}

func (s *ObjectStorage) put(ctx context.Context, data []byte, filename, contentType string) error {
	url := fmt.Sprintf("%s/object/%s/%s", s.baseURL, s.bucket, filename)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("storage responded %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return nil
}

func (s *ObjectStorage) createBucket(ctx context.Context) error {
	payload := fmt.Sprintf(`{"name":%q,"public":true}`, s.bucket)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/bucket", strings.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("bucket creation responded %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return nil
}
