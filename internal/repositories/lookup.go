package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/placelist/internal/models"
	"github.com/desertthunder/placelist/internal/shared"
)

// Lookup is a cached catalog search for one bare name.
type Lookup struct {
	Name      string
	Found     bool
	Artist    models.Artist
	FetchedAt time.Time
}

// LookupRepository stores catalog lookups and top tracks in the cache database.
type LookupRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewLookupRepository creates a new LookupRepository with the given database connection
func NewLookupRepository(db *sql.DB) *LookupRepository {
	return &LookupRepository{db: db, now: time.Now}
}

// Get returns the lookup for name, or [shared.ErrCacheMiss].
func (r *LookupRepository) Get(ctx context.Context, name string) (Lookup, error) {
	query := `
		SELECT name, found, artist_json, fetched_at
		FROM artist_lookups
		WHERE name_key = ?
	`

	var (
		l          Lookup
		artistJSON sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, shared.LookupKey(name)).Scan(&l.Name, &l.Found, &artistJSON, &l.FetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Lookup{}, shared.ErrCacheMiss
	}
	if err != nil {
		return Lookup{}, fmt.Errorf("failed to get lookup: %w", err)
	}

	if l.Found && artistJSON.Valid {
		if err := json.Unmarshal([]byte(artistJSON.String), &l.Artist); err != nil {
			return Lookup{}, fmt.Errorf("failed to decode cached artist: %w", err)
		}
	}
	return l, nil
}

// PutArtist records that name resolved to artist.
func (r *LookupRepository) PutArtist(ctx context.Context, name string, artist models.Artist) error {
	data, err := json.Marshal(artist)
	if err != nil {
		return fmt.Errorf("failed to encode artist: %w", err)
	}
	return r.put(ctx, name, sql.NullString{String: artist.ID, Valid: true}, sql.NullString{String: string(data), Valid: true}, true)
}

// PutNotFound records that name has no catalog match.
func (r *LookupRepository) PutNotFound(ctx context.Context, name string) error {
	return r.put(ctx, name, sql.NullString{}, sql.NullString{}, false)
}

func (r *LookupRepository) put(ctx context.Context, name string, artistID, artistJSON sql.NullString, found bool) error {
	query := `
		INSERT INTO artist_lookups (name_key, name, artist_id, artist_json, found, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name_key) DO UPDATE SET
			name = excluded.name,
			artist_id = excluded.artist_id,
			artist_json = excluded.artist_json,
			found = excluded.found,
			fetched_at = excluded.fetched_at
	`

	if _, err := r.db.ExecContext(ctx, query, shared.LookupKey(name), name, artistID, artistJSON, found, r.now().UTC()); err != nil {
		return fmt.Errorf("failed to save lookup: %w", err)
	}
	return nil
}

// TopTracks returns the cached top tracks of artistID in catalog order and when
// they were fetched, or [shared.ErrCacheMiss].
//
// An artist cached with no tracks is a hit with an empty slice.
func (r *LookupRepository) TopTracks(ctx context.Context, artistID string) ([]models.Track, time.Time, error) {
	var fetchedAt time.Time
	err := r.db.QueryRowContext(ctx, "SELECT fetched_at FROM top_track_sets WHERE artist_id = ?", artistID).Scan(&fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, shared.ErrCacheMiss
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to get top tracks: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT track_id, uri, name, duration_ms
		FROM top_tracks
		WHERE artist_id = ?
		ORDER BY position
	`, artistID)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to query top tracks: %w", err)
	}
	defer rows.Close()

	tracks := []models.Track{}
	for rows.Next() {
		var t models.Track
		if err := rows.Scan(&t.ID, &t.URI, &t.Name, &t.DurationMS); err != nil {
			return nil, time.Time{}, fmt.Errorf("failed to scan track: %w", err)
		}
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, fmt.Errorf("error iterating tracks: %w", err)
	}
	return tracks, fetchedAt, nil
}

// PutTopTracks replaces the cached top tracks of artistID.
func (r *LookupRepository) PutTopTracks(ctx context.Context, artistID string, tracks []models.Track) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM top_tracks WHERE artist_id = ?", artistID); err != nil {
		return fmt.Errorf("failed to clear top tracks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO top_track_sets (artist_id, fetched_at) VALUES (?, ?)
		ON CONFLICT(artist_id) DO UPDATE SET fetched_at = excluded.fetched_at
	`, artistID, r.now().UTC()); err != nil {
		return fmt.Errorf("failed to save top track set: %w", err)
	}

	for i, t := range tracks {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO top_tracks (artist_id, position, track_id, uri, name, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?)
		`, artistID, i, t.ID, t.URI, t.Name, t.DurationMS); err != nil {
			return fmt.Errorf("failed to save track: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit top tracks: %w", err)
	}
	return nil
}

// Purge deletes lookups and track sets fetched before cutoff and returns how many lookups were removed.
func (r *LookupRepository) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM artist_lookups WHERE fetched_at < ?", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge lookups: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM top_tracks WHERE artist_id IN (SELECT artist_id FROM top_track_sets WHERE fetched_at < ?)", cutoff.UTC()); err != nil {
		return 0, fmt.Errorf("failed to purge top tracks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM top_track_sets WHERE fetched_at < ?", cutoff.UTC()); err != nil {
		return 0, fmt.Errorf("failed to purge top track sets: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit purge: %w", err)
	}
	return res.RowsAffected()
}

// Count returns the number of cached lookups.
func (r *LookupRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM artist_lookups").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count lookups: %w", err)
	}
	return n, nil
}
