package game

import "net"

// CommandKind discriminates the command union.
type CommandKind uint8

const (
	CommandUnknown CommandKind = iota
	CommandJoin
	CommandLeave
	CommandPosition
	CommandShoot
	CommandReload
	CommandWeaponSwitch
	CommandHeartbeat
)

// String returns the wire name of the command kind.
func (k CommandKind) String() string {
	switch k {
	case CommandJoin:
		return "join"
	case CommandLeave:
		return "leave"
	case CommandPosition:
		return "position_update"
	case CommandShoot:
		return "shoot"
	case CommandReload:
		return "reload"
	case CommandWeaponSwitch:
		return "weapon_switch"
	case CommandHeartbeat:
		return "heartbeat"
	default:
		return "unknown"
	}
}

// Command is produced by ingress and consumed by a lobby's tick loop. It is a
// single flat struct rather than an interface so the hot path stays
// allocation-free; Kind selects which fields are meaningful.
type Command struct {
	Kind     CommandKind
	PlayerID uint32
	Name     string // join
	TargetID uint32 // shoot
	WeaponID uint32 // weapon_switch
	Position Vec3   // position_update
	Rotation Vec3   // position_update
	Addr     *net.UDPAddr
}

// TrySend enqueues a command without blocking. Returns false when the queue
// is full; the caller drops the packet (backpressure by shedding).
func TrySend(ch chan<- Command, cmd Command) bool {
	select {
	case ch <- cmd:
		return true
	default:
		return false
	}
}

// DrainAndCoalesce empties the queue without blocking and coalesces position
// updates: only the latest position per player survives, because position is
// idempotent and older samples are useless. Every other command kind has side
// effects on counters or timers and is preserved in arrival order, ahead of
// the surviving positions.
func DrainAndCoalesce(ch <-chan Command) []Command {
	var others []Command
	latest := make(map[uint32]Command)

	for {
		select {
		case cmd := <-ch:
			if cmd.Kind == CommandPosition {
				latest[cmd.PlayerID] = cmd
			} else {
				others = append(others, cmd)
			}
		default:
			for _, cmd := range latest {
				others = append(others, cmd)
			}
			return others
		}
	}
}
