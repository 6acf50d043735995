package ws

import (
	"sync"

	"github.com/google/uuid"
)

// passcodeStore keeps room passcode hashes for the lifetime of the room.
// Hashes also land in Postgres when a recorder is configured, but token
// issuance must work without it.
type passcodeStore struct {
	mu     sync.RWMutex
	hashes map[uuid.UUID][]byte
}

func newPasscodeStore() passcodeStore {
	return passcodeStore{hashes: make(map[uuid.UUID][]byte)}
}

func (p *passcodeStore) set(roomID uuid.UUID, hash []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(hash) > 0 {
		p.hashes[roomID] = hash
	}
}

func (p *passcodeStore) get(roomID uuid.UUID) []byte {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.hashes[roomID]
}

func (p *passcodeStore) forget(roomID uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.hashes, roomID)
}
