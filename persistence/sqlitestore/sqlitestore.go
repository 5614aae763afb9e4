// Package sqlitestore persists session snapshots in a SQLite database using
// the pure-Go modernc.org/sqlite driver. One database holds any number of
// sessions, keyed by session ID; saving a session replaces its previous
// snapshot transactionally.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/desimkit/desim"
)

// ErrSessionNotFound is returned by Load and Delete for unknown session IDs.
var ErrSessionNotFound = errors.New("session not found")

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id       TEXT PRIMARY KEY,
	initial  BLOB NOT NULL,
	cursor   INTEGER NOT NULL,
	executed INTEGER NOT NULL,
	saved_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS events (
	session_id  TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	idx         INTEGER NOT NULL,
	event_id    TEXT NOT NULL,
	name        TEXT NOT NULL,
	data        BLOB NOT NULL,
	occurred_at TEXT NOT NULL,
	PRIMARY KEY (session_id, idx)
);`

type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at the given path.
// Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// List returns the stored session IDs, most recently saved first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM sessions ORDER BY saved_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Delete removes a stored session and its events.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return nil
}

// Save writes the session's snapshot, replacing any previous snapshot stored
// under the same session ID.
func Save[S any](ctx context.Context, store *Store, sess *desim.Session[S]) error {
	snap, err := sess.Export()
	if err != nil {
		return err
	}
	initial, err := json.Marshal(snap.Initial)
	if err != nil {
		return fmt.Errorf("encode initial state for session %s: %w", snap.SessionID, err)
	}

	tx, err := store.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, initial, cursor, executed, saved_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			initial  = excluded.initial,
			cursor   = excluded.cursor,
			executed = excluded.executed,
			saved_at = excluded.saved_at`,
		snap.SessionID, initial, snap.Cursor, snap.Executed, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM events WHERE session_id = ?`, snap.SessionID); err != nil {
		return err
	}
	for i, ev := range snap.Events {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO events (session_id, idx, event_id, name, data, occurred_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			snap.SessionID, i, ev.ID.String(), ev.Name, []byte(ev.Data),
			ev.OccurredAt.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Load reconstructs a session from its stored snapshot, decoding events
// through the decoder and replaying to the persisted cursor.
func Load[S any](ctx context.Context, store *Store, id string, dec *desim.Decoder[S], opts ...desim.Option[S]) (*desim.Session[S], error) {
	snap := &desim.Snapshot[S]{SessionID: id}

	var initial []byte
	row := store.db.QueryRowContext(ctx,
		`SELECT initial, cursor, executed FROM sessions WHERE id = ?`, id)
	if err := row.Scan(&initial, &snap.Cursor, &snap.Executed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}
		return nil, err
	}
	if err := json.Unmarshal(initial, &snap.Initial); err != nil {
		return nil, fmt.Errorf("decode initial state for session %s: %w", id, err)
	}

	rows, err := store.db.QueryContext(ctx, `
		SELECT event_id, name, data, occurred_at
		FROM events WHERE session_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			eventID    string
			occurredAt string
			ev         desim.SnapshotEvent
		)
		if err := rows.Scan(&eventID, &ev.Name, (*[]byte)(&ev.Data), &occurredAt); err != nil {
			return nil, err
		}
		if ev.ID, err = uuid.Parse(eventID); err != nil {
			return nil, fmt.Errorf("session %s: event %d: %w", id, len(snap.Events), err)
		}
		if ev.OccurredAt, err = time.Parse(time.RFC3339Nano, occurredAt); err != nil {
			return nil, fmt.Errorf("session %s: event %d: %w", id, len(snap.Events), err)
		}
		snap.Events = append(snap.Events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return desim.Import(ctx, snap, dec, opts...)
}
