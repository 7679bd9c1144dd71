package game

import (
	"encoding/json"
	"time"
)

// EventType classifies audit-log events.
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypeLobbyCreated
	EventTypeLobbyRemoved
	EventTypePlayerJoin
	EventTypePlayerLeave
	EventTypePlayerEvicted
	EventTypeShot
	EventTypeDamage
	EventTypeReloadStart
	EventTypeReloadFinish
	EventTypeWeaponSwitch
)

// EventVersion for backwards compatibility in replay
const EventVersion uint8 = 1

// Event is one audit-log record. Events are observational; gameplay never
// depends on them.
type Event struct {
	Version   uint8     `json:"version"`
	Type      EventType `json:"type"`
	Timestamp int64     `json:"timestamp"` // Unix nano
	Sequence  uint64    `json:"sequence"`  // Monotonic sequence
	TickNum   uint64    `json:"tickNum"`
	LobbyCode string    `json:"lobbyCode"`
	PlayerID  uint32    `json:"playerId"` // Source player (for rate limiting)
	Payload   []byte    `json:"payload"`  // JSON-encoded payload
}

// String returns human-readable event type
func (t EventType) String() string {
	switch t {
	case EventTypeLobbyCreated:
		return "lobby_created"
	case EventTypeLobbyRemoved:
		return "lobby_removed"
	case EventTypePlayerJoin:
		return "player_join"
	case EventTypePlayerLeave:
		return "player_leave"
	case EventTypePlayerEvicted:
		return "player_evicted"
	case EventTypeShot:
		return "shot"
	case EventTypeDamage:
		return "damage"
	case EventTypeReloadStart:
		return "reload_start"
	case EventTypeReloadFinish:
		return "reload_finish"
	case EventTypeWeaponSwitch:
		return "weapon_switch"
	default:
		return "unknown"
	}
}

// Typed payloads for different event types

// DamagePayload contains damage event details
type DamagePayload struct {
	AttackerID uint32 `json:"attackerId"`
	VictimID   uint32 `json:"victimId"`
	Damage     int    `json:"damage"`
	VictimHP   int    `json:"victimHp"`
	WeaponID   uint32 `json:"weaponId"`
}

// PlayerJoinPayload contains player join details
type PlayerJoinPayload struct {
	PlayerID   uint32 `json:"playerId"`
	PlayerName string `json:"playerName"`
}

// ShotPayload contains shot event details
type ShotPayload struct {
	ShooterID uint32 `json:"shooterId"`
	TargetID  uint32 `json:"targetId"`
	WeaponID  uint32 `json:"weaponId"`
	AmmoLeft  int    `json:"ammoLeft"`
}

// WeaponSwitchPayload contains weapon switch details
type WeaponSwitchPayload struct {
	PlayerID uint32 `json:"playerId"`
	WeaponID uint32 `json:"weaponId"`
}

// EncodePayload marshals a payload to JSON bytes
func EncodePayload(payload interface{}) []byte {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, tickNum uint64, lobbyCode string, playerID uint32, payload interface{}) Event {
	return Event{
		Version:   EventVersion,
		Type:      eventType,
		Timestamp: time.Now().UnixNano(),
		TickNum:   tickNum,
		LobbyCode: lobbyCode,
		PlayerID:  playerID,
		Payload:   EncodePayload(payload),
	}
}
