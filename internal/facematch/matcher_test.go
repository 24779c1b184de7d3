package facematch

import (
	"context"
	"errors"
	"math"
	"testing"
)

// fakeRegistry implements Registry for tests.
type fakeRegistry struct {
	faces []KnownFace
	err   error
}

func (r *fakeRegistry) ListKnownFaces(ctx context.Context, owner string) ([]KnownFace, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.faces, nil
}

// vec returns a 128-dimension vector with the first component set to head
// and the rest zero, so distances reduce to |head_a - head_b|.
func vec(head float64) []float64 {
	v := make([]float64, 128)
	v[0] = head
	return v
}

func loadedMatcher(t *testing.T, tolerance float64, faces ...KnownFace) *Matcher {
	t.Helper()
	m := NewMatcher(&fakeRegistry{faces: faces}, "owner-1", tolerance)
	if err := m.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	return m
}

func TestMatcher_EmptyIndex(t *testing.T) {
	m := loadedMatcher(t, 0)

	match := m.Match(vec(0))
	if match.Identity.IsKnown() {
		t.Error("empty index should never match")
	}
	if match.Confidence != 0 {
		t.Errorf("confidence = %f, want 0", match.Confidence)
	}
}

func TestMatcher_ToleranceGate(t *testing.T) {
	m := loadedMatcher(t, 0.5, KnownFace{Identity: "alice", Encoding: vec(0)})

	tests := []struct {
		name      string
		probe     []float64
		wantKnown bool
	}{
		{"exact match", vec(0), true},
		{"inside tolerance", vec(0.3), true},
		{"at tolerance boundary", vec(0.5), false},
		{"outside tolerance", vec(0.8), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match := m.Match(tt.probe)
			if match.Identity.IsKnown() != tt.wantKnown {
				t.Errorf("IsKnown = %v, want %v (distance %f)", match.Identity.IsKnown(), tt.wantKnown, match.Distance)
			}
			if !tt.wantKnown && match.Confidence != 0 {
				t.Errorf("rejected match must carry zero confidence, got %f", match.Confidence)
			}
		})
	}
}

func TestMatcher_ConfidenceIsOneMinusDistance(t *testing.T) {
	m := loadedMatcher(t, 0.5, KnownFace{Identity: "alice", Encoding: vec(0)})

	match := m.Match(vec(0.2))
	if !match.Identity.IsKnown() || match.Identity.Name() != "alice" {
		t.Fatalf("identity = %v, want alice", match.Identity)
	}
	if math.Abs(match.Confidence-0.8) > 1e-9 {
		t.Errorf("confidence = %f, want 0.8", match.Confidence)
	}
}

func TestMatcher_PluralityVote(t *testing.T) {
	// Known vectors {A, A, B} at distances [0.1, 0.2, 0.3] from the probe:
	// A wins with two votes, confidence is 1 - 0.1 = 0.9.
	m := loadedMatcher(t, 0.5,
		KnownFace{Identity: "A", Encoding: vec(0.1)},
		KnownFace{Identity: "A", Encoding: vec(0.2)},
		KnownFace{Identity: "B", Encoding: vec(0.3)},
	)

	match := m.Match(vec(0))
	if match.Identity.Name() != "A" {
		t.Errorf("identity = %q, want A", match.Identity.Name())
	}
	if math.Abs(match.Confidence-0.9) > 1e-9 {
		t.Errorf("confidence = %f, want 0.9", match.Confidence)
	}
}

func TestMatcher_VoteTieBreaksOnFirstEncountered(t *testing.T) {
	// One vote each; the nearest row appears first and reaches the maximum
	// vote count first.
	m := loadedMatcher(t, 0.5,
		KnownFace{Identity: "A", Encoding: vec(0.1)},
		KnownFace{Identity: "B", Encoding: vec(0.2)},
	)

	match := m.Match(vec(0))
	if match.Identity.Name() != "A" {
		t.Errorf("identity = %q, want A", match.Identity.Name())
	}
}

func TestMatcher_ToleranceMonotonicity(t *testing.T) {
	// Decreasing tolerance never increases the set of accepted matches.
	faces := []KnownFace{
		{Identity: "A", Encoding: vec(0.1)},
		{Identity: "B", Encoding: vec(0.45)},
	}

	probes := [][]float64{vec(0), vec(0.2), vec(0.4), vec(0.6)}

	wide := loadedMatcher(t, 0.5, faces...)
	narrow := loadedMatcher(t, 0.25, faces...)

	for i, probe := range probes {
		wideMatch := wide.Match(probe)
		narrowMatch := narrow.Match(probe)
		if narrowMatch.Identity.IsKnown() && !wideMatch.Identity.IsKnown() {
			t.Errorf("probe %d: narrow tolerance accepted a match the wide tolerance rejected", i)
		}
	}
}

func TestMatcher_ReloadReplacesIndex(t *testing.T) {
	registry := &fakeRegistry{faces: []KnownFace{{Identity: "alice", Encoding: vec(0)}}}
	m := NewMatcher(registry, "owner-1", 0.5)

	if err := m.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if m.Size() != 1 {
		t.Fatalf("Size = %d, want 1", m.Size())
	}

	// The reload is wholesale: the old index is discarded.
	registry.faces = []KnownFace{
		{Identity: "bob", Encoding: vec(0)},
		{Identity: "carol", Encoding: vec(1)},
	}
	if err := m.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if m.Size() != 2 {
		t.Fatalf("Size = %d, want 2", m.Size())
	}

	match := m.Match(vec(0))
	if match.Identity.Name() != "bob" {
		t.Errorf("identity = %q, want bob after reload", match.Identity.Name())
	}
}

func TestMatcher_ReloadError(t *testing.T) {
	registryErr := errors.New("registry unavailable")
	m := NewMatcher(&fakeRegistry{err: registryErr}, "owner-1", 0.5)

	if err := m.Reload(context.Background()); !errors.Is(err, registryErr) {
		t.Errorf("err = %v, want %v", err, registryErr)
	}
}

func TestMatcher_SkipsMalformedEncodings(t *testing.T) {
	m := loadedMatcher(t, 0.5,
		KnownFace{Identity: "alice", Encoding: vec(0)},
		KnownFace{Identity: "broken", Encoding: []float64{1, 2, 3}},
		KnownFace{Identity: "empty"},
	)

	if m.Size() != 1 {
		t.Errorf("Size = %d, want 1 (malformed rows skipped)", m.Size())
	}
}

func TestIdentity(t *testing.T) {
	if Unknown.IsKnown() {
		t.Error("Unknown must not be known")
	}
	if Unknown.String() != UnknownName {
		t.Errorf("Unknown.String() = %q, want %q", Unknown.String(), UnknownName)
	}

	alice := Known("alice")
	if !alice.IsKnown() || alice.Name() != "alice" || alice.String() != "alice" {
		t.Errorf("Known identity misbehaves: %+v", alice)
	}
}
