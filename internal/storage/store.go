package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned by point lookups that match nothing.
var ErrNotFound = errors.New("not found")

// Store defines the index operations used by the indexer and the search engine.
type Store interface {
	LastModifiedTime(ctx context.Context) (int64, error)
	GetMedia(ctx context.Context, path string) (*MediaRecord, error)
	AddMediaWithCues(ctx context.Context, rec *MediaRecord, cues []Cue) (bool, error)
	ReplaceCues(ctx context.Context, rec *MediaRecord, cues []Cue) error
	SearchCues(ctx context.Context, text string) ([]Hit, error)
	CuesBefore(ctx context.Context, mediaID, cueID int64, n int) ([]Cue, error)
	CuesAfter(ctx context.Context, mediaID, cueID int64, n int) ([]Cue, error)
	GetStats(ctx context.Context) (*Stats, error)
	PurgeAll(ctx context.Context) error
	Close() error
}

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB

	// Prepared statements
	insertMedia *sql.Stmt
	insertCue   *sql.Stmt
	getMedia    *sql.Stmt
	cuesBefore  *sql.Stmt
	cuesAfter   *sql.Stmt
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLiteStore from an already-opened and migrated database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}

	if err := s.prepareStatements(); err != nil {
		s.Close()
		return nil, fmt.Errorf("prepare statements: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.insertMedia, err = s.db.Prepare(`
		INSERT INTO media_files (file_path, phash, modified_time)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return err
	}

	s.insertCue, err = s.db.Prepare(`
		INSERT INTO subtitles (media_id, start_time, end_time, text)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}

	s.getMedia, err = s.db.Prepare(`
		SELECT id, file_path, phash, modified_time
		FROM media_files WHERE file_path = ?
	`)
	if err != nil {
		return err
	}

	s.cuesBefore, err = s.db.Prepare(`
		SELECT id, media_id, start_time, end_time, text
		FROM subtitles
		WHERE media_id = ? AND id < ?
		ORDER BY id DESC
		LIMIT ?
	`)
	if err != nil {
		return err
	}

	s.cuesAfter, err = s.db.Prepare(`
		SELECT id, media_id, start_time, end_time, text
		FROM subtitles
		WHERE media_id = ? AND id > ?
		ORDER BY id ASC
		LIMIT ?
	`)
	if err != nil {
		return err
	}

	return nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

// likePattern turns text into a LIKE substring pattern, escaping the LIKE
// wildcards so the query matches literally.
func likePattern(text string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(text) + "%"
}

// LastModifiedTime returns the largest recorded modification time, or 0
// for an empty index.
func (s *SQLiteStore) LastModifiedTime(ctx context.Context) (int64, error) {
	var last sql.NullInt64
	err := s.db.QueryRowContext(ctx, "SELECT MAX(modified_time) FROM media_files").Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("max modified time: %w", err)
	}
	return last.Int64, nil
}

// GetMedia looks up a media record by path. Returns ErrNotFound when the
// path has not been indexed.
func (s *SQLiteStore) GetMedia(ctx context.Context, path string) (*MediaRecord, error) {
	var m MediaRecord
	err := s.getMedia.QueryRowContext(ctx, path).Scan(&m.ID, &m.Path, &m.ChangeToken, &m.ModifiedTime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("media %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("get media: %w", err)
	}
	return &m, nil
}

func (s *SQLiteStore) insertCuesTx(ctx context.Context, tx *sql.Tx, mediaID int64, cues []Cue) error {
	stmt := tx.StmtContext(ctx, s.insertCue)
	for i, c := range cues {
		if _, err := stmt.ExecContext(ctx, mediaID, c.Start, c.End, c.Text); err != nil {
			return fmt.Errorf("insert cue %d: %w", i+1, err)
		}
	}
	return nil
}

// AddMediaWithCues inserts a media record and its cues in one transaction.
// A duplicate path returns false and writes nothing.
func (s *SQLiteStore) AddMediaWithCues(ctx context.Context, rec *MediaRecord, cues []Cue) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.StmtContext(ctx, s.insertMedia).ExecContext(ctx, rec.Path, rec.ChangeToken, rec.ModifiedTime)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("insert media: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("insert media id: %w", err)
	}

	if err := s.insertCuesTx(ctx, tx, id, cues); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}

	rec.ID = id
	return true, nil
}

// ReplaceCues swaps the cues of an existing record and updates its change
// token and modification time. The record keeps its ID; the new cues get
// fresh, higher IDs in the given order.
func (s *SQLiteStore) ReplaceCues(ctx context.Context, rec *MediaRecord, cues []Cue) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		"UPDATE media_files SET phash = ?, modified_time = ? WHERE id = ?",
		rec.ChangeToken, rec.ModifiedTime, rec.ID,
	)
	if err != nil {
		return fmt.Errorf("update media: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("media %d: %w", rec.ID, ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM subtitles WHERE media_id = ?", rec.ID); err != nil {
		return fmt.Errorf("delete cues: %w", err)
	}
	if err := s.insertCuesTx(ctx, tx, rec.ID, cues); err != nil {
		return err
	}

	return tx.Commit()
}

// SearchCues returns every cue whose text contains text, ordered by media
// path and then cue start time. Matching follows SQLite LIKE, which is
// case-insensitive for ASCII letters.
func (s *SQLiteStore) SearchCues(ctx context.Context, text string) ([]Hit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.file_path, m.phash, m.modified_time,
		       s.id, s.media_id, s.start_time, s.end_time, s.text
		FROM media_files AS m
		JOIN subtitles AS s ON m.id = s.media_id
		WHERE s.text LIKE ? ESCAPE '\'
		ORDER BY m.file_path, s.start_time, s.id
	`, likePattern(text))
	if err != nil {
		return nil, fmt.Errorf("search cues: %w", err)
	}
	defer rows.Close()

	hits := []Hit{}
	for rows.Next() {
		var h Hit
		if err := rows.Scan(
			&h.Media.ID, &h.Media.Path, &h.Media.ChangeToken, &h.Media.ModifiedTime,
			&h.Cue.ID, &h.Cue.MediaID, &h.Cue.Start, &h.Cue.End, &h.Cue.Text,
		); err != nil {
			return nil, fmt.Errorf("scan hit: %w", err)
		}
		hits = append(hits, h)
	}

	return hits, rows.Err()
}

// CuesBefore returns up to n cues of mediaID with an id below cueID,
// nearest last (ascending id order).
func (s *SQLiteStore) CuesBefore(ctx context.Context, mediaID, cueID int64, n int) ([]Cue, error) {
	if n <= 0 {
		return []Cue{}, nil
	}
	cues, err := scanCues(s.cuesBefore.QueryContext(ctx, mediaID, cueID, n))
	if err != nil {
		return nil, fmt.Errorf("cues before %d: %w", cueID, err)
	}
	for i, j := 0, len(cues)-1; i < j; i, j = i+1, j-1 {
		cues[i], cues[j] = cues[j], cues[i]
	}
	return cues, nil
}

// CuesAfter returns up to n cues of mediaID with an id above cueID in
// ascending id order.
func (s *SQLiteStore) CuesAfter(ctx context.Context, mediaID, cueID int64, n int) ([]Cue, error) {
	if n <= 0 {
		return []Cue{}, nil
	}
	cues, err := scanCues(s.cuesAfter.QueryContext(ctx, mediaID, cueID, n))
	if err != nil {
		return nil, fmt.Errorf("cues after %d: %w", cueID, err)
	}
	return cues, nil
}

func scanCues(rows *sql.Rows, err error) ([]Cue, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cues := []Cue{}
	for rows.Next() {
		var c Cue
		if err := rows.Scan(&c.ID, &c.MediaID, &c.Start, &c.End, &c.Text); err != nil {
			return nil, err
		}
		cues = append(cues, c)
	}
	return cues, rows.Err()
}

// PurgeAll deletes every media record and cue.
func (s *SQLiteStore) PurgeAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmts := []string{
		"DELETE FROM subtitles",
		"DELETE FROM media_files",
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("purge (%s): %w", stmt, err)
		}
	}
	return tx.Commit()
}

// GetStats returns aggregate statistics about the index.
func (s *SQLiteStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM media_files").Scan(&stats.MediaFiles)
	if err != nil {
		return nil, fmt.Errorf("count media: %w", err)
	}

	err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM subtitles").Scan(&stats.Cues)
	if err != nil {
		return nil, fmt.Errorf("count cues: %w", err)
	}

	last, err := s.LastModifiedTime(ctx)
	if err != nil {
		return nil, err
	}
	if last > 0 {
		stats.LastModified = time.Unix(last, 0)
	}

	var pageCount, pageSize int64
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err != nil {
		return nil, fmt.Errorf("page count: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err != nil {
		return nil, fmt.Errorf("page size: %w", err)
	}
	stats.DatabaseSizeBytes = pageCount * pageSize

	rows, err := s.db.QueryContext(ctx, `
		SELECT m.file_path, COUNT(s.id) AS cnt
		FROM media_files m
		LEFT JOIN subtitles s ON s.media_id = m.id
		GROUP BY m.id
		ORDER BY cnt DESC, m.file_path
		LIMIT 10
	`)
	if err != nil {
		return nil, fmt.Errorf("top media: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var mc MediaCount
		if err := rows.Scan(&mc.Path, &mc.Cues); err != nil {
			return nil, err
		}
		stats.TopMedia = append(stats.TopMedia, mc)
	}

	return stats, rows.Err()
}

// Close releases all prepared statements. The underlying *sql.DB is NOT
// closed; that is the caller's responsibility.
func (s *SQLiteStore) Close() error {
	stmts := []*sql.Stmt{
		s.insertMedia, s.insertCue, s.getMedia,
		s.cuesBefore, s.cuesAfter,
	}
	for _, stmt := range stmts {
		if stmt != nil {
			stmt.Close()
		}
	}
	return nil
}
