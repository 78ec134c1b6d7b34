package repository

import (
	"strings"
	"sync"
)

// RoomLockManager provides per-room mutual exclusion so that the
// check-overlap-then-insert sequence is atomic with respect to other
// callers booking the same room. Locks are created lazily on first use and
// live for the process lifetime; room-ID cardinality is assumed small.
type RoomLockManager interface {
	AcquireForRoom(roomID string) (release func())
}

type roomLockManager struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewRoomLockManager() RoomLockManager {
	return &roomLockManager{
		locks: make(map[string]*sync.Mutex),
	}
}

// AcquireForRoom blocks until the room's lock is held and returns the
// release function. The same room ID (case-insensitive) always maps to the
// same underlying lock; unrelated rooms never block each other.
func (m *roomLockManager) AcquireForRoom(roomID string) func() {
	lock := m.lockFor(strings.ToLower(roomID))
	lock.Lock()
	return lock.Unlock
}

func (m *roomLockManager) lockFor(key string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	lock, ok := m.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[key] = lock
	}
	return lock
}
