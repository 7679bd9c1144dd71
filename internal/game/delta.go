package game

// SyncEventKind discriminates delta-sync events.
type SyncEventKind uint8

const (
	SyncHealth SyncEventKind = iota + 1
	SyncAmmo
	SyncMaxAmmo
	SyncWeapon
	SyncReloadStarted
	SyncReloadFinished
)

// SyncEvent is one changed field for one player. Value carries the new
// health/ammo/max-ammo; WeaponID is set for SyncWeapon.
type SyncEvent struct {
	Kind     SyncEventKind
	PlayerID uint32
	Value    int
	WeaponID uint32
}

// collectDirtyEvents compares every dirty player against its last broadcast
// snapshot and emits one event per changed field. A player with no prior
// snapshot differs on every tracked field and emits the full set. The
// snapshot is replaced after emission, never before, so a later tick cannot
// miss a change. Max health is tracked in the snapshot but has no wire event.
//
// Caller holds the lobby write lock.
func (l *Lobby) collectDirtyEvents() []SyncEvent {
	var events []SyncEvent

	for id := range l.dirty {
		p, ok := l.players[id]
		if !ok {
			continue // left or evicted this tick
		}

		last, seen := l.lastSync[id]

		if !seen || last.Health != p.Health {
			events = append(events, SyncEvent{Kind: SyncHealth, PlayerID: id, Value: p.Health})
		}
		if !seen || last.Ammo != p.Ammo {
			events = append(events, SyncEvent{Kind: SyncAmmo, PlayerID: id, Value: p.Ammo})
		}
		if !seen || last.MaxAmmo != p.MaxAmmo {
			events = append(events, SyncEvent{Kind: SyncMaxAmmo, PlayerID: id, Value: p.MaxAmmo})
		}
		if !seen || last.WeaponID != p.WeaponID {
			events = append(events, SyncEvent{Kind: SyncWeapon, PlayerID: id, WeaponID: p.WeaponID})
		}
		if !seen || last.Reloading != p.Reloading {
			kind := SyncReloadFinished
			if p.Reloading {
				kind = SyncReloadStarted
			}
			events = append(events, SyncEvent{Kind: kind, PlayerID: id})
		}

		l.lastSync[id] = p.ToSyncState()
	}

	return events
}
