package session

import "fmt"

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_seen DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		// One row per slot: the fetched table, the last generated code and
		// the framework that produced it.
		`CREATE TABLE IF NOT EXISTS session_slots (
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			slot TEXT NOT NULL,
			table_name TEXT NOT NULL DEFAULT '',
			columns_json TEXT NOT NULL DEFAULT '[]',
			relationships_json TEXT NOT NULL DEFAULT '{}',
			generated_code TEXT NOT NULL DEFAULT '',
			framework TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (session_id, slot)
		)`,

		`CREATE TABLE IF NOT EXISTS history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			framework TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS pending_columns (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			primary_key INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS logical_relationships (
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			rel_key TEXT NOT NULL,
			first_table TEXT NOT NULL,
			second_table TEXT NOT NULL,
			type TEXT NOT NULL,
			direction TEXT NOT NULL,
			PRIMARY KEY (session_id, rel_key)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_history_session ON history(session_id, id)`,
		`CREATE INDEX IF NOT EXISTS idx_pending_session ON pending_columns(session_id, id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_last_seen ON sessions(last_seen)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}
