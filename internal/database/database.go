// Package database persists room records and game snapshots in Postgres.
// Gameplay never waits on it: the room actor calls the Archive hooks on
// background goroutines with short deadlines.
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/b6428259/spotup-games/internal/room"
)

// ErrRoomNotFound is returned when a room record does not exist.
var ErrRoomNotFound = errors.New("room record not found")

// Store wraps a pgx pool.
type Store struct {
	pool *pgxpool.Pool
	log  *logrus.Entry
}

// Connect opens a pool against dsn and verifies it.
func Connect(ctx context.Context, dsn string, log *logrus.Entry) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pg pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Store{pool: pool, log: log}, nil
}

// Migrate creates the schema if missing. Deliberately simple; a real
// migration tool is overkill for three tables.
func (s *Store) Migrate(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS rooms (
    id            UUID PRIMARY KEY,
    players       JSONB       NOT NULL,
    passcode_hash BYTEA,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS game_initial_states (
    room_id    UUID PRIMARY KEY REFERENCES rooms(id) ON DELETE CASCADE,
    state      JSONB       NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS game_final_states (
    room_id     UUID PRIMARY KEY REFERENCES rooms(id) ON DELETE CASCADE,
    winner      TEXT        NOT NULL,
    state       JSONB       NOT NULL,
    finished_at TIMESTAMPTZ NOT NULL
);`
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// CreateRoom records a room and its roster. passcodeHash may be nil for
// open rooms.
func (s *Store) CreateRoom(ctx context.Context, roomID uuid.UUID, players []string, passcodeHash []byte) error {
	roster, err := json.Marshal(players)
	if err != nil {
		return fmt.Errorf("marshal roster: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO rooms (id, players, passcode_hash) VALUES ($1, $2, $3)`,
		roomID.String(), roster, passcodeHash)
	if err != nil {
		return fmt.Errorf("insert room %s: %w", roomID, err)
	}
	return nil
}

// PasscodeHash fetches a room's passcode hash; nil means no passcode.
func (s *Store) PasscodeHash(ctx context.Context, roomID uuid.UUID) ([]byte, error) {
	var hash []byte
	err := s.pool.QueryRow(ctx,
		`SELECT passcode_hash FROM rooms WHERE id = $1`, roomID.String()).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch passcode hash for room %s: %w", roomID, err)
	}
	return hash, nil
}

// SaveInitialState stores the post-deal snapshot, replacing any earlier
// one for the same room.
func (s *Store) SaveInitialState(ctx context.Context, roomID uuid.UUID, snap room.InitialState) error {
	state, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal initial state: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
INSERT INTO game_initial_states (room_id, state) VALUES ($1, $2)
ON CONFLICT (room_id) DO UPDATE SET state = EXCLUDED.state, created_at = now()`,
		roomID.String(), state)
	if err != nil {
		return fmt.Errorf("upsert initial state for room %s: %w", roomID, err)
	}
	return nil
}

// SaveFinalState stores the outcome snapshot.
func (s *Store) SaveFinalState(ctx context.Context, roomID uuid.UUID, snap room.FinalState) error {
	state, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal final state: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
INSERT INTO game_final_states (room_id, winner, state, finished_at) VALUES ($1, $2, $3, $4)
ON CONFLICT (room_id) DO UPDATE
SET winner = EXCLUDED.winner, state = EXCLUDED.state, finished_at = EXCLUDED.finished_at`,
		roomID.String(), snap.Winner, state, snap.FinishedAt)
	if err != nil {
		return fmt.Errorf("upsert final state for room %s: %w", roomID, err)
	}
	return nil
}

// Close shuts the pool down.
func (s *Store) Close() { s.pool.Close() }
