package game

import "time"

// DummyPlayerID is reserved for the scripted non-player entity a lobby may
// host. The dummy never counts as a real player and is exempt from
// inactivity eviction.
const DummyPlayerID uint32 = 999

// DefaultMaxHealth is the spawn health of every player.
const DefaultMaxHealth = 100

// Vec3 is a position or rotation in client space.
type Vec3 struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// SpawnPosition is where every player materializes.
var SpawnPosition = Vec3{X: 0, Y: 1, Z: 0}

// Player is the authoritative per-player state inside a lobby.
// All fields are guarded by the owning lobby's lock.
type Player struct {
	ID       uint32
	Name     string
	Position Vec3
	Rotation Vec3

	Health    int
	MaxHealth int

	WeaponID uint32
	Ammo     int
	MaxAmmo  int

	Reloading     bool
	ReloadEndTime time.Time // zero iff not reloading

	LastUpdate   time.Time // drives inactivity eviction
	LastShotTime time.Time // drives the fire-rate gate
}

// NewPlayer creates a player at the spawn transform holding the given weapon.
func NewPlayer(id uint32, name string, weapon Weapon, now time.Time) *Player {
	// LastShotTime stays zero so the fire-rate gate never blocks the first shot.
	return &Player{
		ID:         id,
		Name:       name,
		Position:   SpawnPosition,
		Health:     DefaultMaxHealth,
		MaxHealth:  DefaultMaxHealth,
		WeaponID:   weapon.ID,
		Ammo:       weapon.Magazine,
		MaxAmmo:    weapon.Magazine,
		LastUpdate: now,
	}
}

// SyncState is the snapshot of the fields covered by delta sync.
// Position rides on the per-tick position broadcast instead.
type SyncState struct {
	Health    int
	MaxHealth int
	WeaponID  uint32
	Ammo      int
	MaxAmmo   int
	Reloading bool
}

// ToSyncState captures the player's delta-tracked fields.
func (p *Player) ToSyncState() SyncState {
	return SyncState{
		Health:    p.Health,
		MaxHealth: p.MaxHealth,
		WeaponID:  p.WeaponID,
		Ammo:      p.Ammo,
		MaxAmmo:   p.MaxAmmo,
		Reloading: p.Reloading,
	}
}
