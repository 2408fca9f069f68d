package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Sessions table - one row per tracking run
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			started_at DATETIME NOT NULL,
			ended_at DATETIME,
			frames INTEGER NOT NULL DEFAULT 0,
			published INTEGER NOT NULL DEFAULT 0,
			config TEXT NOT NULL DEFAULT '{}'
		)`,

		// Samples table - throttled per-frame metrics of the primary hand
		`CREATE TABLE IF NOT EXISTS samples (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			captured_at DATETIME NOT NULL,
			openness INTEGER NOT NULL,
			openness_state TEXT NOT NULL CHECK(openness_state IN ('OPEN', 'PARTIAL', 'CLOSED')),
			facing TEXT NOT NULL CHECK(facing IN ('FACING_CAMERA', 'FACING_AWAY', 'SIDE_ON')),
			facing_percent INTEGER NOT NULL,
			wrist_x INTEGER NOT NULL,
			wrist_y INTEGER NOT NULL,
			reach INTEGER NOT NULL,
			stationary INTEGER NOT NULL DEFAULT 0,
			thumb_x INTEGER NOT NULL,
			thumb_y INTEGER NOT NULL,
			index_x INTEGER NOT NULL,
			index_y INTEGER NOT NULL,
			mid_x INTEGER NOT NULL,
			mid_y INTEGER NOT NULL
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_samples_session_id ON samples(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
