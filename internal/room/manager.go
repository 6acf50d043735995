// internal/room/manager.go
package room

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Manager is the registry of live rooms. Rooms are fully independent of
// each other and process in parallel; the manager only guards the map.
type Manager struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]*Room
	opts  Options
	log   *logrus.Entry
}

// NewManager creates a registry whose rooms share the given options.
func NewManager(opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Manager{
		rooms: make(map[uuid.UUID]*Room),
		opts:  opts,
		log:   opts.Logger,
	}
}

// SetReaper attaches the activity collector rooms report to. Call before
// the first Create.
func (m *Manager) SetReaper(r Reaper) {
	m.mu.Lock()
	m.opts.Reaper = r
	m.mu.Unlock()
}

// Create spins up a room for the roster. Corresponds to the external
// RoomCreated lifecycle signal; the game waits in the lobby until Start.
func (m *Manager) Create(players []string) (*Room, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("generate room id: %w", err)
	}
	seed := uint64(time.Now().UnixNano())
	m.mu.Lock()
	opts := m.opts
	m.mu.Unlock()
	r, err := New(id, players, seed, opts)
	if err != nil {
		return nil, err
	}
	r.OnClose(m.remove)

	m.mu.Lock()
	m.rooms[id] = r
	m.mu.Unlock()

	m.log.WithFields(logrus.Fields{"room": id.String(), "players": players}).Info("room created")
	return r, nil
}

// Get returns a live room by id.
func (m *Manager) Get(id uuid.UUID) (*Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	return r, ok
}

// Reap force-closes a room. Corresponds to the external RoomReaped
// lifecycle signal from the inactivity collector.
func (m *Manager) Reap(id uuid.UUID) {
	if r, ok := m.Get(id); ok {
		r.Reap()
	}
}

// Shutdown reaps every live room.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.Unlock()
	for _, r := range rooms {
		r.Reap()
	}
}

func (m *Manager) remove(r *Room) {
	m.mu.Lock()
	delete(m.rooms, r.ID)
	reaper := m.opts.Reaper
	m.mu.Unlock()
	if f, ok := reaper.(interface{ Forget(uuid.UUID) }); ok {
		f.Forget(r.ID)
	}
	m.log.WithField("room", r.ID.String()).Info("room released")
}
