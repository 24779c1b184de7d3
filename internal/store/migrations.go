package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Known faces table - enrolled (identity, encoding) pairs
		`CREATE TABLE IF NOT EXISTS known_faces (
			id TEXT PRIMARY KEY,
			owner TEXT NOT NULL,
			identity TEXT NOT NULL,
			encoding TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Alert logs table - one row per alert, enriched asynchronously
		`CREATE TABLE IF NOT EXISTS alert_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			owner TEXT NOT NULL,
			device_id TEXT NOT NULL,
			identity TEXT NOT NULL,
			is_known INTEGER NOT NULL,
			confidence REAL NOT NULL DEFAULT 0,
			thumbnail_filename TEXT NOT NULL,
			video_filename TEXT NOT NULL,
			thumbnail_url TEXT,
			video_url TEXT,
			assessment TEXT,
			threat_level TEXT CHECK(threat_level IN ('LOW', 'MEDIUM', 'HIGH') OR threat_level IS NULL),
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Emergency contacts table - notification destinations per owner
		`CREATE TABLE IF NOT EXISTS emergency_contacts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			owner TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_known_faces_owner ON known_faces(owner)`,
		`CREATE INDEX IF NOT EXISTS idx_alert_logs_owner ON alert_logs(owner)`,
		`CREATE INDEX IF NOT EXISTS idx_alert_logs_created_at ON alert_logs(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_emergency_contacts_owner ON emergency_contacts(owner)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
