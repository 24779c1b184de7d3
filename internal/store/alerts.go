package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/vigilcam/vigil/internal/alert"
)

// AlertRepository provides access to the alert log.
type AlertRepository struct {
	db *sql.DB
}

// Alerts returns the alert repository for this store.
func (s *Store) Alerts() *AlertRepository {
	return &AlertRepository{db: s.db}
}

// Create inserts a new alert record without media URLs and returns its id.
// Enrichment fields are filled in later via Update.
func (r *AlertRepository) Create(ctx context.Context, record *alert.Record) (int64, error) {
	record.CreatedAt = time.Now()

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO alert_logs
		 (owner, device_id, identity, is_known, confidence, thumbnail_filename, video_filename, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.Owner, record.DeviceID, record.Identity, record.IsKnown,
		record.Confidence, record.ThumbnailFile, record.VideoFile, record.CreatedAt,
	)
	if err != nil {
		return 0, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	record.ID = id
	return id, nil
}

// Update applies a partial update to an existing alert record. Nil fields
// are left unchanged; an update with no fields set is a no-op.
func (r *AlertRepository) Update(ctx context.Context, id int64, update alert.RecordUpdate) error {
	var (
		sets []string
		args []any
	)

	if update.ThumbnailURL != nil {
		sets = append(sets, "thumbnail_url = ?")
		args = append(args, *update.ThumbnailURL)
	}
	if update.VideoURL != nil {
		sets = append(sets, "video_url = ?")
		args = append(args, *update.VideoURL)
	}
	if update.Assessment != nil {
		sets = append(sets, "assessment = ?")
		args = append(args, *update.Assessment)
	}
	if update.ThreatLevel != nil {
		sets = append(sets, "threat_level = ?")
		if *update.ThreatLevel == alert.ThreatLevelNone {
			args = append(args, nil)
		} else {
			args = append(args, string(*update.ThreatLevel))
		}
	}

	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	result, err := r.db.ExecContext(ctx,
		`UPDATE alert_logs SET `+strings.Join(sets, ", ")+` WHERE id = ?`,
		args...,
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

// List retrieves the most recent alerts for an owner, newest first.
// A limit <= 0 returns every alert.
func (r *AlertRepository) List(ctx context.Context, owner string, limit int) ([]*alert.Record, error) {
	query := `SELECT id, owner, device_id, identity, is_known, confidence,
	       thumbnail_filename, video_filename, thumbnail_url, video_url,
	       assessment, threat_level, created_at
	  FROM alert_logs WHERE owner = ? ORDER BY created_at DESC, id DESC`
	args := []any{owner}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*alert.Record
	for rows.Next() {
		record := &alert.Record{}
		var thumbnailURL, videoURL, assessment, threatLevel sql.NullString

		err := rows.Scan(
			&record.ID, &record.Owner, &record.DeviceID, &record.Identity,
			&record.IsKnown, &record.Confidence, &record.ThumbnailFile,
			&record.VideoFile, &thumbnailURL, &videoURL, &assessment,
			&threatLevel, &record.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		record.ThumbnailURL = thumbnailURL.String
		record.VideoURL = videoURL.String
		record.Assessment = assessment.String
		record.ThreatLevel = alert.ThreatLevel(threatLevel.String)

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}
