package storage

import "database/sql"

// migrateV001 creates the initial schema: media files and their subtitle
// cues. Every statement uses IF NOT EXISTS for idempotency.
func migrateV001(tx *sql.Tx) error {
	stmts := []string{
		// ── Tables ──────────────────────────────────────────────

		`CREATE TABLE IF NOT EXISTS media_files (
			id            INTEGER PRIMARY KEY,
			file_path     TEXT NOT NULL UNIQUE,
			phash         TEXT NOT NULL DEFAULT '',
			modified_time INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS subtitles (
			id         INTEGER PRIMARY KEY,
			media_id   INTEGER NOT NULL REFERENCES media_files(id) ON DELETE CASCADE,
			start_time REAL NOT NULL,
			end_time   REAL NOT NULL,
			text       TEXT NOT NULL DEFAULT ''
		)`,

		// ── Indexes ────────────────────────────────────────────

		`CREATE INDEX IF NOT EXISTS idx_subtitles_media_id ON subtitles(media_id, id)`,
		`CREATE INDEX IF NOT EXISTS idx_media_files_mtime  ON media_files(modified_time)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
