package facematch

import (
	"context"
	"log"
	"math"
	"sync"
)

// DefaultTolerance is the maximum distance between a probe vector and a
// known vector to count as a candidate match.
const DefaultTolerance = 0.50

// KnownFace is one enrolled (identity, feature vector) pair.
type KnownFace struct {
	Identity string
	Encoding []float64
}

// Registry is the backing store of known faces, polled at load time and on
// the reload interval.
type Registry interface {
	ListKnownFaces(ctx context.Context, owner string) ([]KnownFace, error)
}

// Match is the result of an identity query.
type Match struct {
	Identity   Identity
	Confidence float64
	Distance   float64
}

// Matcher answers nearest-neighbor identity queries against an in-memory
// index of enrolled feature vectors. The index is rebuilt wholesale on each
// Reload, never incrementally mutated.
type Matcher struct {
	registry  Registry
	owner     string
	tolerance float64

	mu     sync.RWMutex
	matrix []float64 // row-major, dims columns per row
	names  []string
	dims   int
}

// NewMatcher creates a Matcher over the given registry for one owner.
// Tolerance values <= 0 fall back to the default.
func NewMatcher(registry Registry, owner string, tolerance float64) *Matcher {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Matcher{
		registry:  registry,
		owner:     owner,
		tolerance: tolerance,
	}
}

// Reload replaces the matcher's index with the current registry contents.
// Faces with an empty or mismatched encoding length are skipped.
func (m *Matcher) Reload(ctx context.Context) error {
	faces, err := m.registry.ListKnownFaces(ctx, m.owner)
	if err != nil {
		return err
	}

	var (
		matrix []float64
		names  []string
		dims   int
	)
	for _, face := range faces {
		if len(face.Encoding) == 0 {
			continue
		}
		if dims == 0 {
			dims = len(face.Encoding)
		}
		if len(face.Encoding) != dims {
			log.Printf("Skipping face %q: encoding length %d, want %d", face.Identity, len(face.Encoding), dims)
			continue
		}
		matrix = append(matrix, face.Encoding...)
		names = append(names, face.Identity)
	}

	m.mu.Lock()
	m.matrix = matrix
	m.names = names
	m.dims = dims
	m.mu.Unlock()

	log.Printf("Loaded %d known face encodings", len(names))
	return nil
}

// Size returns the number of enrolled encodings in the current index.
func (m *Matcher) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.names)
}

// Match identifies the probe vector.
//
// The Euclidean distance to every enrolled row is computed in one pass. If
// the minimum distance is at or above the tolerance there is no match.
// Otherwise the winning identity is chosen by plurality vote over all rows
// within tolerance (ties broken by the first identity to reach the maximum
// vote count), with confidence 1 - minimum distance. Voting over near
// neighbors smooths noise when a person has multiple enrolled vectors.
func (m *Matcher) Match(probe []float64) Match {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.names) == 0 || len(probe) != m.dims {
		return Match{Identity: Unknown}
	}

	distances := make([]float64, len(m.names))
	minDistance := math.Inf(1)
	for row := range m.names {
		var sum float64
		base := row * m.dims
		for i, p := range probe {
			d := m.matrix[base+i] - p
			sum += d * d
		}
		distances[row] = math.Sqrt(sum)
		if distances[row] < minDistance {
			minDistance = distances[row]
		}
	}

	if minDistance >= m.tolerance {
		return Match{Identity: Unknown, Distance: minDistance}
	}

	votes := make(map[string]int)
	bestName := ""
	bestVotes := 0
	for row, distance := range distances {
		if distance >= m.tolerance {
			continue
		}
		name := m.names[row]
		votes[name]++
		if votes[name] > bestVotes {
			bestVotes = votes[name]
			bestName = name
		}
	}

	return Match{
		Identity:   Known(bestName),
		Confidence: 1.0 - minDistance,
		Distance:   minDistance,
	}
}
