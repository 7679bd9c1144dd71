package game

import (
	"context"
	"errors"
	"log"
	"net"
	"time"
)

// TickerConfig holds the per-lobby simulation parameters.
type TickerConfig struct {
	Interval          time.Duration
	InactivityTimeout time.Duration
	// EmptyGrace is how long a lobby may sit with zero real players before
	// onEmpty fires. Zero falls back to InactivityTimeout.
	EmptyGrace time.Duration
	Debug      bool
}

// Ticker drives one lobby's simulation. It is the only writer of lobby state
// on the gameplay path: it drains the command queue once per tick, applies
// everything under a single write lock, then broadcasts outside the lock.
type Ticker struct {
	lobby    *Lobby
	commands <-chan Command
	catalog  *Catalog
	out      PacketWriter
	events   *EventLog
	cfg      TickerConfig
	onEmpty  func(code string)

	tickNum    uint64
	emptySince time.Time
}

// NewTicker wires a ticker to its lobby and command queue. events and onEmpty
// may be nil.
func NewTicker(lobby *Lobby, commands <-chan Command, catalog *Catalog, out PacketWriter, events *EventLog, cfg TickerConfig, onEmpty func(code string)) *Ticker {
	if cfg.EmptyGrace <= 0 {
		cfg.EmptyGrace = cfg.InactivityTimeout
	}
	return &Ticker{
		lobby:    lobby,
		commands: commands,
		catalog:  catalog,
		out:      out,
		events:   events,
		cfg:      cfg,
		onEmpty:  onEmpty,
	}
}

// Run ticks until the context is canceled or the lobby stays empty past the
// grace window.
func (t *Ticker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			start := time.Now()
			done := t.tick(now)
			ObserveTickDuration(time.Since(start))
			if done {
				if t.onEmpty != nil {
					t.onEmpty(t.lobby.Code())
				}
				return
			}
		}
	}
}

// joinAck captures everything needed to answer one join after the lock drops.
// announce is false for a retransmitted join: the ack is re-sent to the
// joiner, but the lobby is not told about the player twice.
type joinAck struct {
	id       uint32
	name     string
	addr     *net.UDPAddr
	list     []playerListEntry
	announce bool
}

type posEvent struct {
	id       uint32
	pos, rot Vec3
}

// tick runs one simulation step. Returns true when the lobby has been empty
// for longer than the grace window and should be torn down.
func (t *Ticker) tick(now time.Time) bool {
	t.tickNum++
	cmds := DrainAndCoalesce(t.commands)

	var (
		joins     []joinAck
		joinFails []addressed
		leaves    []uint32
		positions []posEvent
	)

	l := t.lobby
	l.mu.Lock()

	for _, cmd := range cmds {
		switch cmd.Kind {
		case CommandJoin:
			err := l.addPlayer(cmd.PlayerID, cmd.Name, t.catalog, now)
			if err != nil && !errors.Is(err, ErrPlayerExists) {
				// ErrPlayerExists means the HTTP join already created the
				// player; the datagram only attaches the return address.
				if cmd.Addr != nil {
					joinFails = append(joinFails, addressed{data: encodeError(err.Error()), addr: cmd.Addr})
				}
				continue
			}
			_, hadAddr := l.addrs[cmd.PlayerID]
			l.setAddress(cmd.PlayerID, cmd.Addr)
			l.touch(cmd.PlayerID, now)
			joins = append(joins, joinAck{
				id:       cmd.PlayerID,
				name:     l.players[cmd.PlayerID].Name,
				addr:     cmd.Addr,
				list:     l.listEntries(cmd.PlayerID),
				announce: !hadAddr,
			})
			if !hadAddr {
				t.emit(EventTypePlayerJoin, cmd.PlayerID, PlayerJoinPayload{PlayerID: cmd.PlayerID, PlayerName: cmd.Name})
				if t.cfg.Debug {
					log.Printf("🎮 Player %d (%s) joined lobby %s", cmd.PlayerID, cmd.Name, l.code)
				}
			}

		case CommandLeave:
			if _, ok := l.players[cmd.PlayerID]; !ok {
				continue
			}
			l.removePlayer(cmd.PlayerID)
			leaves = append(leaves, cmd.PlayerID)
			t.emit(EventTypePlayerLeave, cmd.PlayerID, nil)

		case CommandPosition:
			if err := l.updatePosition(cmd.PlayerID, cmd.Position, cmd.Rotation, now); err != nil {
				continue
			}
			l.setAddress(cmd.PlayerID, cmd.Addr)
			positions = append(positions, posEvent{id: cmd.PlayerID, pos: cmd.Position, rot: cmd.Rotation})

		case CommandShoot:
			t.applyShoot(cmd, now)
			l.setAddress(cmd.PlayerID, cmd.Addr)
			l.touch(cmd.PlayerID, now)

		case CommandReload:
			started, err := l.startReload(t.catalog, cmd.PlayerID, now)
			if err == nil && started {
				t.emit(EventTypeReloadStart, cmd.PlayerID, nil)
			}
			l.setAddress(cmd.PlayerID, cmd.Addr)
			l.touch(cmd.PlayerID, now)

		case CommandWeaponSwitch:
			if err := l.switchWeapon(t.catalog, cmd.PlayerID, cmd.WeaponID); err == nil {
				t.emit(EventTypeWeaponSwitch, cmd.PlayerID, WeaponSwitchPayload{PlayerID: cmd.PlayerID, WeaponID: cmd.WeaponID})
			}
			l.setAddress(cmd.PlayerID, cmd.Addr)
			l.touch(cmd.PlayerID, now)

		case CommandHeartbeat:
			l.touch(cmd.PlayerID, now)
			l.setAddress(cmd.PlayerID, cmd.Addr)
		}
	}

	for _, id := range l.completeReloads(now) {
		t.emit(EventTypeReloadFinish, id, nil)
	}

	evicted := l.cleanupInactive(now, t.cfg.InactivityTimeout)
	for _, id := range evicted {
		t.emit(EventTypePlayerEvicted, id, nil)
		if t.cfg.Debug {
			log.Printf("⚠️ Player %d timed out of lobby %s", id, l.code)
		}
	}
	leaves = append(leaves, evicted...)

	deltas := l.collectDirtyEvents()
	l.clearDirty()

	addrs := make(map[uint32]*net.UDPAddr, len(l.addrs))
	for id, addr := range l.addrs {
		addrs[id] = addr
	}
	empty := l.realPlayerCount() == 0

	l.mu.Unlock()

	t.broadcast(joins, joinFails, leaves, positions, deltas, addrs)

	if !empty {
		t.emptySince = time.Time{}
		return false
	}
	if t.emptySince.IsZero() {
		t.emptySince = now
		return false
	}
	return now.Sub(t.emptySince) > t.cfg.EmptyGrace
}

// applyShoot fires and, when a live target is named, applies the weapon's
// damage. A shot with no target still spends the round. Caller holds the
// write lock.
func (t *Ticker) applyShoot(cmd Command, now time.Time) {
	l := t.lobby
	fired, err := l.tryShoot(t.catalog, cmd.PlayerID, now)
	if err != nil || !fired {
		return
	}

	shooter := l.players[cmd.PlayerID]
	weapon, _ := t.catalog.Get(shooter.WeaponID)
	t.emit(EventTypeShot, cmd.PlayerID, ShotPayload{ShooterID: cmd.PlayerID, TargetID: cmd.TargetID, WeaponID: weapon.ID, AmmoLeft: shooter.Ammo})

	if cmd.TargetID == 0 || cmd.TargetID == cmd.PlayerID {
		return
	}
	if err := l.applyDamage(cmd.TargetID, weapon.Damage); err != nil {
		if t.cfg.Debug && errors.Is(err, ErrInvalidDamage) {
			log.Printf("⚠️ Rejected damage %d from weapon %d", weapon.Damage, weapon.ID)
		}
		return
	}
	victim := l.players[cmd.TargetID]
	t.emit(EventTypeDamage, cmd.PlayerID, DamagePayload{
		AttackerID: cmd.PlayerID,
		VictimID:   cmd.TargetID,
		Damage:     weapon.Damage,
		VictimHP:   victim.Health,
		WeaponID:   weapon.ID,
	})
}

// broadcast shapes and sends this tick's outbound traffic. Ordering matters:
// join acks first so a new client has the roster before any update that
// references it, then leaves, positions, and delta events.
func (t *Ticker) broadcast(joins []joinAck, joinFails []addressed, leaves []uint32, positions []posEvent, deltas []SyncEvent, addrs map[uint32]*net.UDPAddr) {
	if t.out == nil {
		return
	}

	var batch []addressed
	batch = append(batch, joinFails...)

	for _, j := range joins {
		if j.addr != nil {
			batch = append(batch, addressed{data: encodeWelcome(j.id), addr: j.addr})
			batch = append(batch, addressed{data: encodePlayerList(j.list), addr: j.addr})
		}
		if !j.announce {
			continue
		}
		joined := encodePlayerJoined(j.id, j.name)
		for id, addr := range addrs {
			if id == j.id {
				continue
			}
			batch = append(batch, addressed{data: joined, addr: addr})
		}
	}

	for _, id := range leaves {
		left := encodePlayerLeft(id)
		for _, addr := range addrs {
			batch = append(batch, addressed{data: left, addr: addr})
		}
	}

	for _, p := range positions {
		update := encodePositionUpdate(p.id, p.pos, p.rot)
		for id, addr := range addrs {
			if id == p.id {
				continue
			}
			batch = append(batch, addressed{data: update, addr: addr})
		}
	}

	for _, ev := range deltas {
		data := encodeSyncEvent(ev)
		for _, addr := range addrs {
			batch = append(batch, addressed{data: data, addr: addr})
		}
	}

	sendAll(t.out, batch, t.cfg.Debug)
}

func (t *Ticker) emit(eventType EventType, playerID uint32, payload interface{}) {
	if t.events == nil {
		return
	}
	t.events.EmitSimple(eventType, t.tickNum, t.lobby.code, playerID, payload)
}

// listEntries snapshots the roster for a player_list message, excluding the
// joiner itself. Caller holds the lock.
func (l *Lobby) listEntries(exclude uint32) []playerListEntry {
	entries := make([]playerListEntry, 0, len(l.players))
	for _, p := range l.players {
		if p.ID == exclude {
			continue
		}
		entries = append(entries, playerListEntry{ID: p.ID, Name: p.Name, Position: p.Position, Rotation: p.Rotation})
	}
	return entries
}
