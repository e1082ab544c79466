// Package store persists playlist snapshots in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"playlistwatch/internal/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS playlists (
	playlist_id   TEXT PRIMARY KEY,
	playlist_name TEXT NOT NULL,
	owner         TEXT NOT NULL DEFAULT '',
	spotify_url   TEXT NOT NULL DEFAULT '',
	total_songs   INTEGER NOT NULL,
	last_checked  TIMESTAMP NOT NULL,
	created_at    TIMESTAMP NOT NULL,
	updated_at    TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS playlist_tracks (
	playlist_id TEXT NOT NULL REFERENCES playlists(playlist_id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	track_id    TEXT NOT NULL,
	name        TEXT NOT NULL DEFAULT '',
	artists     TEXT NOT NULL DEFAULT '',
	album       TEXT NOT NULL DEFAULT '',
	added_at    TIMESTAMP,
	PRIMARY KEY (playlist_id, position)
);

CREATE INDEX IF NOT EXISTS idx_playlists_last_checked ON playlists(last_checked DESC);
`

// SQLiteStore implements core.SnapshotStore on a SQLite database. All writes
// are keyed by playlist ID, so cross-playlist writes never contend.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (creating if necessary) the snapshot database at path. The
// path can be ":memory:" for tests.
func Open(path string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// FindByPlaylistID loads a snapshot with its full track listing, ordered by
// position. Returns core.ErrSnapshotNotFound when the playlist was never
// observed.
func (s *SQLiteStore) FindByPlaylistID(ctx context.Context, playlistID string) (*core.PlaylistSnapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT playlist_id, playlist_name, owner, spotify_url, total_songs, last_checked
		FROM playlists
		WHERE playlist_id = ?`, playlistID)

	snapshot := &core.PlaylistSnapshot{}
	err := row.Scan(
		&snapshot.PlaylistID,
		&snapshot.PlaylistName,
		&snapshot.Owner,
		&snapshot.SpotifyURL,
		&snapshot.TotalSongs,
		&snapshot.LastChecked,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load playlist: %w", err)
	}

	tracks, err := s.loadTracks(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	snapshot.Tracks = tracks

	return snapshot, nil
}

// Create inserts a snapshot for a playlist observed for the first time.
// Returns core.ErrDuplicateSnapshot when the playlist ID already exists,
// which callers must treat as a lost create race, not a fatal condition.
func (s *SQLiteStore) Create(ctx context.Context, snapshot *core.PlaylistSnapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO playlists (playlist_id, playlist_name, owner, spotify_url, total_songs, last_checked, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snapshot.PlaylistID,
		snapshot.PlaylistName,
		snapshot.Owner,
		snapshot.SpotifyURL,
		snapshot.TotalSongs,
		snapshot.LastChecked,
		now,
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrDuplicateSnapshot
		}
		return fmt.Errorf("failed to insert playlist: %w", err)
	}

	if err := insertTracks(ctx, tx, snapshot.PlaylistID, snapshot.Tracks); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	s.logger.Debug("Created playlist snapshot",
		zap.String("playlistID", snapshot.PlaylistID),
		zap.Int("tracks", len(snapshot.Tracks)))

	return nil
}

// ReplaceTracks atomically overwrites the stored metadata, the full track
// listing and the last-checked timestamp.
func (s *SQLiteStore) ReplaceTracks(ctx context.Context, playlistID string, info *core.PlaylistInfo, tracks []core.Track, checkedAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE playlists
		SET playlist_name = ?, owner = ?, spotify_url = ?, total_songs = ?, last_checked = ?, updated_at = ?
		WHERE playlist_id = ?`,
		info.Name,
		info.Owner,
		info.SpotifyURL,
		info.Total,
		checkedAt,
		time.Now(),
		playlistID,
	)
	if err != nil {
		return fmt.Errorf("failed to update playlist: %w", err)
	}
	if rows, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	} else if rows == 0 {
		return core.ErrSnapshotNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM playlist_tracks WHERE playlist_id = ?`, playlistID); err != nil {
		return fmt.Errorf("failed to clear tracks: %w", err)
	}

	if err := insertTracks(ctx, tx, playlistID, tracks); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	s.logger.Debug("Replaced playlist snapshot",
		zap.String("playlistID", playlistID),
		zap.Int("tracks", len(tracks)))

	return nil
}

// TouchLastChecked updates only the last-checked timestamp, used when a
// check found no changes.
func (s *SQLiteStore) TouchLastChecked(ctx context.Context, playlistID string, checkedAt time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE playlists
		SET last_checked = ?, updated_at = ?
		WHERE playlist_id = ?`,
		checkedAt, time.Now(), playlistID)
	if err != nil {
		return fmt.Errorf("failed to touch last checked: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return core.ErrSnapshotNotFound
	}

	return nil
}

// ListByLastChecked returns snapshots ordered by most recently checked,
// without their track listings. limit <= 0 means no limit.
func (s *SQLiteStore) ListByLastChecked(ctx context.Context, limit int) ([]*core.PlaylistSnapshot, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT playlist_id, playlist_name, owner, spotify_url, total_songs, last_checked
		FROM playlists
		ORDER BY last_checked DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}
	defer rows.Close()

	var snapshots []*core.PlaylistSnapshot
	for rows.Next() {
		snapshot := &core.PlaylistSnapshot{}
		if err := rows.Scan(
			&snapshot.PlaylistID,
			&snapshot.PlaylistName,
			&snapshot.Owner,
			&snapshot.SpotifyURL,
			&snapshot.TotalSongs,
			&snapshot.LastChecked,
		); err != nil {
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate playlists: %w", err)
	}

	return snapshots, nil
}

func (s *SQLiteStore) loadTracks(ctx context.Context, playlistID string) ([]core.Track, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT track_id, name, artists, album, added_at, position
		FROM playlist_tracks
		WHERE playlist_id = ?
		ORDER BY position`, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tracks: %w", err)
	}
	defer rows.Close()

	var tracks []core.Track
	for rows.Next() {
		var track core.Track
		var addedAt sql.NullTime
		if err := rows.Scan(&track.TrackID, &track.Name, &track.Artists, &track.Album, &addedAt, &track.Position); err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		if addedAt.Valid {
			track.AddedAt = addedAt.Time
		}
		tracks = append(tracks, track)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tracks: %w", err)
	}

	return tracks, nil
}

func insertTracks(ctx context.Context, tx *sql.Tx, playlistID string, tracks []core.Track) error {
	if len(tracks) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO playlist_tracks (playlist_id, position, track_id, name, artists, album, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare track insert: %w", err)
	}
	defer stmt.Close()

	for _, track := range tracks {
		if _, err := stmt.ExecContext(ctx,
			playlistID,
			track.Position,
			track.TrackID,
			track.Name,
			track.Artists,
			track.Album,
			track.AddedAt,
		); err != nil {
			return fmt.Errorf("failed to insert track %s: %w", track.TrackID, err)
		}
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
