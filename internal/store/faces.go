package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vigilcam/vigil/internal/facematch"
)

// KnownFace is an enrolled face row.
type KnownFace struct {
	ID        string
	Owner     string
	Identity  string
	Encoding  []float64
	CreatedAt time.Time
}

// FaceRepository provides access to the known-face registry.
type FaceRepository struct {
	db *sql.DB
}

// Faces returns the face repository for this store.
func (s *Store) Faces() *FaceRepository {
	return &FaceRepository{db: s.db}
}

// Add enrolls a face. The encoding is persisted as a JSON array.
func (r *FaceRepository) Add(ctx context.Context, face *KnownFace) error {
	encoded, err := json.Marshal(face.Encoding)
	if err != nil {
		return fmt.Errorf("marshal encoding: %w", err)
	}

	if face.ID == "" {
		face.ID = uuid.New().String()
	}
	face.CreatedAt = time.Now()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO known_faces (id, owner, identity, encoding, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		face.ID, face.Owner, face.Identity, string(encoded), face.CreatedAt,
	)
	return err
}

// ListKnownFaces returns all enrolled faces for the owner in a form the
// matcher consumes directly. Rows with malformed encodings are skipped.
func (r *FaceRepository) ListKnownFaces(ctx context.Context, owner string) ([]facematch.KnownFace, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT identity, encoding FROM known_faces WHERE owner = ? ORDER BY created_at`,
		owner,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var faces []facematch.KnownFace
	for rows.Next() {
		var identity, raw string
		if err := rows.Scan(&identity, &raw); err != nil {
			return nil, err
		}

		var encoding []float64
		if err := json.Unmarshal([]byte(raw), &encoding); err != nil {
			continue
		}

		faces = append(faces, facematch.KnownFace{Identity: identity, Encoding: encoding})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return faces, nil
}

// DeleteByIdentity removes every enrolled encoding for an identity.
func (r *FaceRepository) DeleteByIdentity(ctx context.Context, owner, identity string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM known_faces WHERE owner = ? AND identity = ?`,
		owner, identity,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
