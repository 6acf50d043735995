package room

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultIdleTimeout is how long a room may sit without any accepted
// intent before the collector closes it.
const DefaultIdleTimeout = 30 * time.Minute

// IdleReaper closes rooms that stop seeing activity. Rooms report
// accepted intents through Touch; a background sweep reaps the stale
// ones.
type IdleReaper struct {
	manager *Manager
	timeout time.Duration
	log     *logrus.Entry

	mu       sync.Mutex
	lastSeen map[uuid.UUID]time.Time

	stop chan struct{}
	once sync.Once
}

// NewIdleReaper creates a collector for the manager's rooms. Run starts
// the sweep loop.
func NewIdleReaper(manager *Manager, timeout time.Duration, log *logrus.Entry) *IdleReaper {
	if timeout <= 0 {
		timeout = DefaultIdleTimeout
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &IdleReaper{
		manager:  manager,
		timeout:  timeout,
		log:      log,
		lastSeen: make(map[uuid.UUID]time.Time),
		stop:     make(chan struct{}),
	}
}

// Touch implements Reaper.
func (ir *IdleReaper) Touch(roomID uuid.UUID) {
	ir.mu.Lock()
	ir.lastSeen[roomID] = time.Now()
	ir.mu.Unlock()
}

// Forget drops tracking for a closed room.
func (ir *IdleReaper) Forget(roomID uuid.UUID) {
	ir.mu.Lock()
	delete(ir.lastSeen, roomID)
	ir.mu.Unlock()
}

// Run sweeps until Stop is called.
func (ir *IdleReaper) Run() {
	interval := ir.timeout / 10
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			ir.sweep()
		case <-ir.stop:
			return
		}
	}
}

// Stop terminates the sweep loop.
func (ir *IdleReaper) Stop() {
	ir.once.Do(func() { close(ir.stop) })
}

func (ir *IdleReaper) sweep() {
	cutoff := time.Now().Add(-ir.timeout)

	ir.mu.Lock()
	var stale []uuid.UUID
	for id, seen := range ir.lastSeen {
		if seen.Before(cutoff) {
			stale = append(stale, id)
			delete(ir.lastSeen, id)
		}
	}
	ir.mu.Unlock()

	for _, id := range stale {
		ir.log.WithField("room", id.String()).Info("reaping idle room")
		ir.manager.Reap(id)
	}
}
