// Package registry maps lobby codes to live lobbies and their command
// queues. It is sharded so the UDP read loop's per-packet lookup does not
// contend with control-plane writes.
package registry

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"sync/atomic"

	"gun-arena/internal/game"
)

var (
	ErrLobbyExists    = errors.New("lobby already exists")
	ErrLobbyNotFound  = errors.New("lobby not found")
	ErrTooManyLobbies = errors.New("lobby limit reached")
)

const shardCount = 32

// Handle bundles everything the rest of the server needs to reach one lobby:
// the lobby itself, the producer side of its command queue, and the ticker's
// lifecycle handles.
type Handle struct {
	Lobby    *game.Lobby
	Commands chan game.Command
	Cancel   context.CancelFunc
	Done     chan struct{}
}

type shard struct {
	mu      sync.RWMutex
	handles map[string]*Handle
}

// Registry is a sharded lobby table plus the global player id counter.
type Registry struct {
	shards [shardCount]shard
	nextID atomic.Uint32
}

// New creates an empty registry.
func New() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i].handles = make(map[string]*Handle)
	}
	return r
}

func (r *Registry) shardFor(code string) *shard {
	h := fnv.New32a()
	h.Write([]byte(code))
	return &r.shards[h.Sum32()%shardCount]
}

// NextPlayerID allocates a globally unique player id. Ids start at 1 and are
// never reused for the life of the process.
func (r *Registry) NextPlayerID() uint32 {
	for {
		id := r.nextID.Add(1)
		// Never hand out the scripted bot's id.
		if id != game.DummyPlayerID {
			return id
		}
	}
}

// Insert registers a handle under its lobby code. Returns ErrLobbyExists when
// the code is taken.
func (r *Registry) Insert(h *Handle) error {
	s := r.shardFor(h.Lobby.Code())
	s.mu.Lock()
	defer s.mu.Unlock()

	code := h.Lobby.Code()
	if _, ok := s.handles[code]; ok {
		return ErrLobbyExists
	}
	s.handles[code] = h
	return nil
}

// LookupSender returns the command queue for a lobby code. This is the UDP
// hot-path lookup.
func (r *Registry) LookupSender(code string) (chan<- game.Command, bool) {
	s := r.shardFor(code)
	s.mu.RLock()
	h, ok := s.handles[code]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return h.Commands, true
}

// LookupLobby returns the lobby for a code.
func (r *Registry) LookupLobby(code string) (*game.Lobby, bool) {
	s := r.shardFor(code)
	s.mu.RLock()
	h, ok := s.handles[code]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return h.Lobby, true
}

// Exists reports whether a lobby code is registered.
func (r *Registry) Exists(code string) bool {
	s := r.shardFor(code)
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.handles[code]
	return ok
}

// Count returns the number of registered lobbies.
func (r *Registry) Count() int {
	n := 0
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.RLock()
		n += len(s.handles)
		s.mu.RUnlock()
	}
	return n
}

// Remove unregisters a lobby and returns its handle, or nil when absent.
// After Remove no new commands can be routed to the lobby; the caller owns
// tearing down the ticker.
func (r *Registry) Remove(code string) *Handle {
	s := r.shardFor(code)
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.handles[code]
	if !ok {
		return nil
	}
	delete(s.handles, code)
	return h
}

// Range calls fn for every registered handle until fn returns false. The
// shard lock is not held during fn.
func (r *Registry) Range(fn func(code string, h *Handle) bool) {
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.RLock()
		snapshot := make(map[string]*Handle, len(s.handles))
		for code, h := range s.handles {
			snapshot[code] = h
		}
		s.mu.RUnlock()

		for code, h := range snapshot {
			if !fn(code, h) {
				return
			}
		}
	}
}
