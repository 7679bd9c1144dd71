// Package ingress reads gameplay datagrams and routes them to lobby command
// queues. The read loop never blocks on a lobby: unroutable or overflowing
// packets are dropped and counted.
package ingress

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"

	"gun-arena/internal/game"
)

// maxDatagramSize covers any client packet with room to spare; gameplay
// messages are small JSON objects.
const maxDatagramSize = 1500

// SenderLookup resolves a lobby code to the producer side of its command
// queue. *registry.Registry satisfies it.
type SenderLookup interface {
	LookupSender(code string) (chan<- game.Command, bool)
}

// packet is the inbound wire shape. Unknown fields are ignored; missing
// fields take zero values.
type packet struct {
	Type       string     `json:"type"`
	LobbyCode  string     `json:"lobby_code"`
	PlayerID   uint32     `json:"player_id"`
	PlayerName string     `json:"player_name"`
	TargetID   uint32     `json:"target_id"`
	WeaponID   uint32     `json:"weapon_id"`
	Position   *game.Vec3 `json:"position"`
	Rotation   *game.Vec3 `json:"rotation"`
}

// Listener owns the UDP socket's read side.
type Listener struct {
	conn   *net.UDPConn
	lookup SenderLookup
	debug  bool
}

// NewListener wraps an already bound socket.
func NewListener(conn *net.UDPConn, lookup SenderLookup, debug bool) *Listener {
	return &Listener{conn: conn, lookup: lookup, debug: debug}
}

// Run reads datagrams until the context is canceled. It closes the socket on
// cancellation to unblock the pending read.
func (l *Listener) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		l.conn.Close()
	}()

	buf := make([]byte, maxDatagramSize)
	for {
		n, addr, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		recordReceived()
		l.handle(buf[:n], addr)
	}
}

// handle parses one datagram and routes it. Every drop path is counted;
// logging is debug-gated so a flood cannot saturate the log.
func (l *Listener) handle(data []byte, addr *net.UDPAddr) {
	var pkt packet
	if err := json.Unmarshal(data, &pkt); err != nil {
		recordDropped("malformed")
		if l.debug {
			log.Printf("⚠️ Malformed packet from %s: %v", addr, err)
		}
		return
	}
	if pkt.LobbyCode == "" {
		recordDropped("malformed")
		return
	}

	sender, ok := l.lookup.LookupSender(pkt.LobbyCode)
	if !ok {
		recordDropped("unknown_lobby")
		if l.debug {
			log.Printf("⚠️ Packet for unknown lobby %q from %s", pkt.LobbyCode, addr)
		}
		return
	}

	if !game.TrySend(sender, buildCommand(pkt, addr)) {
		recordDropped("queue_full")
		if l.debug {
			log.Printf("⚠️ Command queue full for lobby %s, dropping %s", pkt.LobbyCode, pkt.Type)
		}
	}
}

// buildCommand maps a wire packet to a lobby command. Unrecognized types
// degrade to a heartbeat so a stale client still refreshes its liveness
// instead of timing out mid-session.
func buildCommand(pkt packet, addr *net.UDPAddr) game.Command {
	cmd := game.Command{PlayerID: pkt.PlayerID, Addr: addr}

	switch pkt.Type {
	case "join":
		cmd.Kind = game.CommandJoin
		cmd.Name = pkt.PlayerName
		if cmd.Name == "" {
			cmd.Name = "Unknown"
		}
	case "leave":
		cmd.Kind = game.CommandLeave
	case "position_update":
		cmd.Kind = game.CommandPosition
		if pkt.Position != nil {
			cmd.Position = *pkt.Position
		}
		if pkt.Rotation != nil {
			cmd.Rotation = *pkt.Rotation
		}
	case "shoot":
		cmd.Kind = game.CommandShoot
		cmd.TargetID = pkt.TargetID
	case "reload":
		cmd.Kind = game.CommandReload
	case "weapon_switch":
		cmd.Kind = game.CommandWeaponSwitch
		cmd.WeaponID = pkt.WeaponID
	case "heartbeat", "keepalive":
		cmd.Kind = game.CommandHeartbeat
	default:
		cmd.Kind = game.CommandHeartbeat
	}
	return cmd
}
