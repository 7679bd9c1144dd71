package game

import (
	"errors"
	"net"
	"sync"
	"time"
)

var (
	ErrLobbyFull      = errors.New("lobby is full")
	ErrPlayerExists   = errors.New("player already exists")
	ErrPlayerNotFound = errors.New("player not found")
	ErrWeaponNotFound = errors.New("weapon not found")
	ErrInvalidDamage  = errors.New("invalid damage amount")
)

// Lobby is an isolated game room: players, transforms, combat state, client
// return addresses, and the delta-tracking structures the tick loop uses.
//
// Locking discipline: the tick loop is the only writer on the gameplay hot
// path and holds the write lock once per tick; control-plane reads take
// shared access via the exported methods. The unexported mutators assume the
// caller already holds the write lock.
type Lobby struct {
	mu sync.RWMutex

	code       string
	maxPlayers int
	scene      string

	players map[uint32]*Player
	addrs   map[uint32]*net.UDPAddr

	// Delta tracking for state sync.
	dirty    map[uint32]struct{}
	lastSync map[uint32]SyncState
}

// NewLobby creates an empty lobby.
func NewLobby(code string, maxPlayers int, scene string) *Lobby {
	return &Lobby{
		code:       code,
		maxPlayers: maxPlayers,
		scene:      scene,
		players:    make(map[uint32]*Player),
		addrs:      make(map[uint32]*net.UDPAddr),
		dirty:      make(map[uint32]struct{}),
		lastSync:   make(map[uint32]SyncState),
	}
}

// Code returns the lobby's join code.
func (l *Lobby) Code() string { return l.code }

// markDirty flags a player for the next delta-sync pass.
func (l *Lobby) markDirty(playerID uint32) {
	l.dirty[playerID] = struct{}{}
}

// clearDirty resets the dirty set at the end of a tick.
func (l *Lobby) clearDirty() {
	clear(l.dirty)
}

// addPlayer creates a player at the spawn transform. Rejects when the lobby
// is full or the id is already present.
func (l *Lobby) addPlayer(id uint32, name string, catalog *Catalog, now time.Time) error {
	if len(l.players) >= l.maxPlayers {
		return ErrLobbyFull
	}
	if _, ok := l.players[id]; ok {
		return ErrPlayerExists
	}

	weapon, ok := catalog.Get(DefaultWeaponID)
	if !ok {
		return ErrWeaponNotFound
	}

	l.players[id] = NewPlayer(id, name, weapon, now)
	l.markDirty(id)
	return nil
}

// removePlayer drops the player along with its address and delta snapshot.
// Removing an unknown id is a no-op.
func (l *Lobby) removePlayer(id uint32) {
	delete(l.players, id)
	delete(l.addrs, id)
	delete(l.lastSync, id)
}

// updatePosition moves a player and refreshes its liveness timestamp.
func (l *Lobby) updatePosition(id uint32, pos, rot Vec3, now time.Time) error {
	p, ok := l.players[id]
	if !ok {
		return ErrPlayerNotFound
	}
	p.Position = pos
	p.Rotation = rot
	p.LastUpdate = now
	l.markDirty(id)
	return nil
}

// setAddress records a player's datagram return address.
func (l *Lobby) setAddress(id uint32, addr *net.UDPAddr) {
	if _, ok := l.players[id]; ok && addr != nil {
		l.addrs[id] = addr
	}
}

// touch refreshes a player's liveness timestamp (heartbeat path, not dirty).
func (l *Lobby) touch(id uint32, now time.Time) {
	if p, ok := l.players[id]; ok {
		p.LastUpdate = now
	}
}

// cleanupInactive evicts every real player whose last update is older than
// the timeout. The dummy (id 999) is exempt. Returns the evicted ids.
func (l *Lobby) cleanupInactive(now time.Time, timeout time.Duration) []uint32 {
	var evicted []uint32
	for id, p := range l.players {
		if id == DummyPlayerID {
			continue
		}
		if now.Sub(p.LastUpdate) > timeout {
			evicted = append(evicted, id)
		}
	}
	for _, id := range evicted {
		l.removePlayer(id)
	}
	return evicted
}

// realPlayerCount counts players excluding the dummy.
func (l *Lobby) realPlayerCount() int {
	n := len(l.players)
	if _, ok := l.players[DummyPlayerID]; ok {
		n--
	}
	return n
}

// SpawnDummy adds the scripted bot (id 999). Safe to call once per lobby.
func (l *Lobby) SpawnDummy(catalog *Catalog, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.players[DummyPlayerID]; ok {
		return
	}
	weapon, ok := catalog.Get(DefaultWeaponID)
	if !ok {
		return
	}
	l.players[DummyPlayerID] = NewPlayer(DummyPlayerID, "Dummy", weapon, now)
	l.markDirty(DummyPlayerID)
}

// AddPlayer is the synchronous control-plane join path: the player entry is
// created immediately instead of waiting for the first datagram.
func (l *Lobby) AddPlayer(id uint32, name string, catalog *Catalog, now time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.addPlayer(id, name, catalog, now)
}

// PlayerCount returns the number of players including the dummy.
func (l *Lobby) PlayerCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.players)
}

// PlayerInfo is the control-plane view of a lobby member.
type PlayerInfo struct {
	ID   uint32 `json:"id"`
	Name string `json:"name"`
}

// LobbyInfo is the control-plane view of a lobby.
type LobbyInfo struct {
	Code        string       `json:"code"`
	PlayerCount int          `json:"player_count"`
	MaxPlayers  int          `json:"max_players"`
	Players     []PlayerInfo `json:"players"`
	ServerIP    string       `json:"server_ip"`
	UDPPort     int          `json:"udp_port"`
	Scene       string       `json:"scene"`
}

// Info snapshots the lobby for control-plane responses.
func (l *Lobby) Info(serverIP string, udpPort int) LobbyInfo {
	l.mu.RLock()
	defer l.mu.RUnlock()

	players := make([]PlayerInfo, 0, len(l.players))
	for _, p := range l.players {
		players = append(players, PlayerInfo{ID: p.ID, Name: p.Name})
	}
	return LobbyInfo{
		Code:        l.code,
		PlayerCount: len(l.players),
		MaxPlayers:  l.maxPlayers,
		Players:     players,
		ServerIP:    serverIP,
		UDPPort:     udpPort,
		Scene:       l.scene,
	}
}
