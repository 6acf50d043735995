// Package cache publishes the per-room action history to Redis: every
// accepted intent is appended to a capped list for replay and fanned out
// on a pub/sub channel for observers outside the game process.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/b6428259/spotup-games/internal/room"
)

// historyCap bounds how many records a room's action list retains.
const historyCap = 1024

// historyTTL lets finished rooms age out of Redis on their own.
const historyTTL = 24 * time.Hour

// Historian implements room.Historian on top of a Redis client.
type Historian struct {
	rdb *redis.Client
	log *logrus.Entry
}

// NewHistorian connects to Redis and verifies the connection.
func NewHistorian(ctx context.Context, addr, password string, db int, log *logrus.Entry) (*Historian, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Historian{rdb: rdb, log: log}, nil
}

func actionsKey(roomID uuid.UUID) string  { return "coup:room:" + roomID.String() + ":actions" }
func actionsChan(roomID uuid.UUID) string { return "coup:room:" + roomID.String() + ":events" }

// RecordAction appends the record to the room's history list and
// publishes it for live observers.
func (h *Historian) RecordAction(ctx context.Context, rec room.ActionRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal action record: %w", err)
	}

	key := actionsKey(rec.RoomID)
	pipe := h.rdb.TxPipeline()
	pipe.RPush(ctx, key, payload)
	pipe.LTrim(ctx, key, -historyCap, -1)
	pipe.Expire(ctx, key, historyTTL)
	pipe.Publish(ctx, actionsChan(rec.RoomID), payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record action %d for room %s: %w", rec.ActionIndex, rec.RoomID, err)
	}
	return nil
}

// History returns a room's recorded actions in application order.
func (h *Historian) History(ctx context.Context, roomID uuid.UUID) ([]room.ActionRecord, error) {
	raw, err := h.rdb.LRange(ctx, actionsKey(roomID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read history for room %s: %w", roomID, err)
	}
	recs := make([]room.ActionRecord, 0, len(raw))
	for _, item := range raw {
		var rec room.ActionRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			h.log.WithError(err).Warn("skipping malformed history record")
			continue
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Close releases the underlying client.
func (h *Historian) Close() error { return h.rdb.Close() }
