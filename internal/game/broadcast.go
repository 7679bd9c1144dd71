package game

import (
	"encoding/json"
	"log"
	"net"
)

// PacketWriter is the outbound half of the gameplay socket. *net.UDPConn
// satisfies it; tests substitute a capture fake.
type PacketWriter interface {
	WriteToUDP(b []byte, addr *net.UDPAddr) (int, error)
}

// Egress message shapes. One JSON object per datagram; Type selects the
// client-side handler.

type welcomeMsg struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	PlayerID uint32 `json:"player_id"`
}

type playerListEntry struct {
	ID       uint32 `json:"id"`
	Name     string `json:"name"`
	Position Vec3   `json:"position"`
	Rotation Vec3   `json:"rotation"`
}

type playerListMsg struct {
	Type    string            `json:"type"`
	Players []playerListEntry `json:"players"`
}

type playerJoinedMsg struct {
	Type   string     `json:"type"`
	Player PlayerInfo `json:"player"`
}

type playerLeftMsg struct {
	Type     string `json:"type"`
	PlayerID uint32 `json:"player_id"`
}

type positionUpdateMsg struct {
	Type     string `json:"type"`
	PlayerID uint32 `json:"player_id"`
	Position Vec3   `json:"position"`
	Rotation Vec3   `json:"rotation"`
}

// stateUpdateMsg carries exactly one of health/ammo/max_ammo. Pointer fields
// with omitempty keep the other two off the wire while still serializing a
// legitimate zero value.
type stateUpdateMsg struct {
	Type     string `json:"type"`
	PlayerID uint32 `json:"player_id"`
	Health   *int   `json:"health,omitempty"`
	Ammo     *int   `json:"ammo,omitempty"`
	MaxAmmo  *int   `json:"max_ammo,omitempty"`
}

type weaponSwitchedMsg struct {
	Type     string `json:"type"`
	PlayerID uint32 `json:"player_id"`
	WeaponID uint32 `json:"weapon_id"`
}

type reloadMsg struct {
	Type     string `json:"type"`
	PlayerID uint32 `json:"player_id"`
}

type errorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// encodeSyncEvent shapes one delta-sync event into its wire form.
func encodeSyncEvent(ev SyncEvent) []byte {
	var msg any
	switch ev.Kind {
	case SyncHealth:
		v := ev.Value
		msg = stateUpdateMsg{Type: "player_state_update", PlayerID: ev.PlayerID, Health: &v}
	case SyncAmmo:
		v := ev.Value
		msg = stateUpdateMsg{Type: "player_state_update", PlayerID: ev.PlayerID, Ammo: &v}
	case SyncMaxAmmo:
		v := ev.Value
		msg = stateUpdateMsg{Type: "player_state_update", PlayerID: ev.PlayerID, MaxAmmo: &v}
	case SyncWeapon:
		msg = weaponSwitchedMsg{Type: "weapon_switched", PlayerID: ev.PlayerID, WeaponID: ev.WeaponID}
	case SyncReloadStarted:
		msg = reloadMsg{Type: "reload_started", PlayerID: ev.PlayerID}
	case SyncReloadFinished:
		msg = reloadMsg{Type: "reload_finished", PlayerID: ev.PlayerID}
	default:
		return nil
	}
	return mustEncode(msg)
}

func encodeWelcome(playerID uint32) []byte {
	return mustEncode(welcomeMsg{Type: "welcome", Message: "Connected to lobby", PlayerID: playerID})
}

func encodePlayerList(entries []playerListEntry) []byte {
	if entries == nil {
		entries = []playerListEntry{}
	}
	return mustEncode(playerListMsg{Type: "player_list", Players: entries})
}

func encodePlayerJoined(id uint32, name string) []byte {
	return mustEncode(playerJoinedMsg{Type: "player_joined", Player: PlayerInfo{ID: id, Name: name}})
}

func encodePlayerLeft(id uint32) []byte {
	return mustEncode(playerLeftMsg{Type: "player_left", PlayerID: id})
}

func encodePositionUpdate(id uint32, pos, rot Vec3) []byte {
	return mustEncode(positionUpdateMsg{Type: "position_update", PlayerID: id, Position: pos, Rotation: rot})
}

func encodeError(message string) []byte {
	return mustEncode(errorMsg{Type: "error", Message: message})
}

// mustEncode marshals a fixed message shape; these types cannot fail to
// marshal, so a nil return only guards against future edits.
func mustEncode(msg any) []byte {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil
	}
	return data
}

// addressed pairs a shaped datagram with its destination.
type addressed struct {
	data []byte
	addr *net.UDPAddr
}

// sendAll writes each datagram, logging failures at debug and moving on.
// Egress errors are never retried; the next tick's broadcast resumes.
func sendAll(out PacketWriter, batch []addressed, debug bool) {
	for _, pkt := range batch {
		if pkt.data == nil || pkt.addr == nil {
			continue
		}
		if _, err := out.WriteToUDP(pkt.data, pkt.addr); err != nil {
			RecordSendError()
			if debug {
				log.Printf("send to %s failed: %v", pkt.addr, err)
			}
			continue
		}
		RecordDatagramSent()
	}
}
