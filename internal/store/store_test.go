package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/vigilcam/vigil/internal/alert"
)

func testStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "vigil.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

func TestFaceRepository_AddAndList(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	faces := s.Faces()

	encoding := make([]float64, 128)
	encoding[0] = 0.25

	face := &KnownFace{Owner: "owner-1", Identity: "alice", Encoding: encoding}
	if err := faces.Add(ctx, face); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if face.ID == "" {
		t.Error("Add should assign an id")
	}

	listed, err := faces.ListKnownFaces(ctx, "owner-1")
	if err != nil {
		t.Fatalf("ListKnownFaces: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("len(listed) = %d, want 1", len(listed))
	}
	if listed[0].Identity != "alice" {
		t.Errorf("identity = %q, want alice", listed[0].Identity)
	}
	if len(listed[0].Encoding) != 128 || listed[0].Encoding[0] != 0.25 {
		t.Error("encoding did not round-trip")
	}

	// Other owners see nothing.
	other, err := faces.ListKnownFaces(ctx, "owner-2")
	if err != nil {
		t.Fatalf("ListKnownFaces: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("len(other) = %d, want 0", len(other))
	}
}

func TestFaceRepository_DeleteByIdentity(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	faces := s.Faces()

	for i := 0; i < 2; i++ {
		face := &KnownFace{Owner: "owner-1", Identity: "alice", Encoding: []float64{float64(i)}}
		if err := faces.Add(ctx, face); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	if err := faces.DeleteByIdentity(ctx, "owner-1", "alice"); err != nil {
		t.Fatalf("DeleteByIdentity: %v", err)
	}

	listed, err := faces.ListKnownFaces(ctx, "owner-1")
	if err != nil {
		t.Fatalf("ListKnownFaces: %v", err)
	}
	if len(listed) != 0 {
		t.Errorf("len(listed) = %d, want 0 after delete", len(listed))
	}

	if err := faces.DeleteByIdentity(ctx, "owner-1", "alice"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
}

func TestAlertRepository_CreateAndUpdate(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	alerts := s.Alerts()

	record := &alert.Record{
		Owner:         "owner-1",
		DeviceID:      "camera",
		Identity:      "UNKNOWN",
		IsKnown:       false,
		Confidence:    0,
		ThumbnailFile: "ALERT_UNKNOWN_1.jpg",
		VideoFile:     "ALERT_UNKNOWN_1.mp4",
	}

	id, err := alerts.Create(ctx, record)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id == 0 || record.ID != id {
		t.Fatalf("Create returned id %d, record.ID %d", id, record.ID)
	}

	thumbnailURL := "https://storage.example/alerts/ALERT_UNKNOWN_1.jpg"
	assessment := "THREAT: HIGH\nSTATUS: INTRUDER"
	level := alert.ThreatLevelHigh

	if err := alerts.Update(ctx, id, alert.RecordUpdate{ThumbnailURL: &thumbnailURL}); err != nil {
		t.Fatalf("Update thumbnail: %v", err)
	}
	if err := alerts.Update(ctx, id, alert.RecordUpdate{Assessment: &assessment, ThreatLevel: &level}); err != nil {
		t.Fatalf("Update assessment: %v", err)
	}

	records, err := alerts.List(ctx, "owner-1", 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}

	got := records[0]
	if got.ThumbnailURL != thumbnailURL {
		t.Errorf("ThumbnailURL = %q, want %q", got.ThumbnailURL, thumbnailURL)
	}
	if got.Assessment != assessment {
		t.Errorf("Assessment = %q, want %q", got.Assessment, assessment)
	}
	if got.ThreatLevel != alert.ThreatLevelHigh {
		t.Errorf("ThreatLevel = %q, want HIGH", got.ThreatLevel)
	}
	// VideoURL was never enriched.
	if got.VideoURL != "" {
		t.Errorf("VideoURL = %q, want empty", got.VideoURL)
	}
}

func TestAlertRepository_UpdateMissing(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	url := "https://storage.example/x.jpg"
	err := s.Alerts().Update(ctx, 9999, alert.RecordUpdate{ThumbnailURL: &url})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}

	// An empty update is a no-op, even for a missing id.
	if err := s.Alerts().Update(ctx, 9999, alert.RecordUpdate{}); err != nil {
		t.Errorf("empty update: err = %v, want nil", err)
	}
}

func TestContactRepository(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	contacts := s.Contacts()

	for _, phone := range []string{"+15550100", "+15550101"} {
		if err := contacts.Add(ctx, &Contact{Owner: "owner-1", Phone: phone}); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	listed, err := contacts.ListByOwner(ctx, "owner-1")
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("len(listed) = %d, want 2", len(listed))
	}

	if err := contacts.Delete(ctx, listed[0].ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := contacts.Delete(ctx, listed[0].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
}
