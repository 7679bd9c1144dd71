// Package server is the supervisor: it owns the registry, creates and removes
// lobbies with their tick loops, and runs the control plane and UDP ingress.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	"gun-arena/internal/api"
	"gun-arena/internal/config"
	"gun-arena/internal/game"
	"gun-arena/internal/ingress"
	"gun-arena/internal/registry"
)

// Server wires the lobby registry, weapon catalog, audit log, and network
// listeners together. It satisfies api.ControlPlane.
type Server struct {
	cfg      config.Config
	catalog  *game.Catalog
	events   *game.EventLog
	registry *registry.Registry
	out      game.PacketWriter

	ctx context.Context
}

// New constructs the supervisor. out may be nil; Run fills it with the bound
// UDP socket. Tests inject a fake PacketWriter and never call Run.
func New(cfg config.Config, catalog *game.Catalog, events *game.EventLog, out game.PacketWriter) *Server {
	return &Server{
		cfg:      cfg,
		catalog:  catalog,
		events:   events,
		registry: registry.New(),
		out:      out,
		ctx:      context.Background(),
	}
}

// CreateLobby registers a new lobby and starts its tick loop.
func (s *Server) CreateLobby(code string, maxPlayers int, scene string) (game.LobbyInfo, error) {
	if s.registry.Count() >= s.cfg.Game.MaxLobbies {
		return game.LobbyInfo{}, registry.ErrTooManyLobbies
	}

	lobby := game.NewLobby(code, maxPlayers, scene)
	commands := make(chan game.Command, s.cfg.Game.CommandQueueSize)

	ctx, cancel := context.WithCancel(s.ctx)
	handle := &registry.Handle{
		Lobby:    lobby,
		Commands: commands,
		Cancel:   cancel,
		Done:     make(chan struct{}),
	}

	if err := s.registry.Insert(handle); err != nil {
		cancel()
		return game.LobbyInfo{}, err
	}

	if s.cfg.Game.SpawnDummy {
		lobby.SpawnDummy(s.catalog, time.Now())
	}

	ticker := game.NewTicker(lobby, commands, s.catalog, s.out, s.events, game.TickerConfig{
		Interval:          s.cfg.Game.TickInterval(),
		InactivityTimeout: s.cfg.Game.InactivityTimeout(),
		Debug:             s.cfg.Debug,
	}, s.onLobbyEmpty)

	go func() {
		defer close(handle.Done)
		ticker.Run(ctx)
	}()

	s.events.EmitSimple(game.EventTypeLobbyCreated, 0, code, 0, nil)
	api.UpdateLobbyCount(s.registry.Count())
	log.Printf("✅ Lobby %s created (max %d players, scene %s)", code, maxPlayers, scene)

	return lobby.Info(s.cfg.Server.PublicIP, s.cfg.Server.UDPPort), nil
}

// JoinLobby allocates a player id and adds the player synchronously so the
// lobby view returned to the client already contains it.
func (s *Server) JoinLobby(code, playerName string) (uint32, game.LobbyInfo, error) {
	lobby, ok := s.registry.LookupLobby(code)
	if !ok {
		return 0, game.LobbyInfo{}, registry.ErrLobbyNotFound
	}

	playerID := s.registry.NextPlayerID()
	if err := lobby.AddPlayer(playerID, playerName, s.catalog, time.Now()); err != nil {
		return 0, game.LobbyInfo{}, err
	}

	return playerID, lobby.Info(s.cfg.Server.PublicIP, s.cfg.Server.UDPPort), nil
}

// GetLobby returns a lobby snapshot.
func (s *Server) GetLobby(code string) (game.LobbyInfo, error) {
	lobby, ok := s.registry.LookupLobby(code)
	if !ok {
		return game.LobbyInfo{}, registry.ErrLobbyNotFound
	}
	return lobby.Info(s.cfg.Server.PublicIP, s.cfg.Server.UDPPort), nil
}

// ListLobbies returns snapshots of all live lobbies.
func (s *Server) ListLobbies() []game.LobbyInfo {
	var infos []game.LobbyInfo
	s.registry.Range(func(code string, h *registry.Handle) bool {
		infos = append(infos, h.Lobby.Info(s.cfg.Server.PublicIP, s.cfg.Server.UDPPort))
		return true
	})
	return infos
}

// Weapons returns the loaded weapon catalog.
func (s *Server) Weapons() []game.Weapon {
	return s.catalog.All()
}

// Stats returns operational counters for the stats endpoint and WS overview.
func (s *Server) Stats() map[string]interface{} {
	players := 0
	s.registry.Range(func(code string, h *registry.Handle) bool {
		players += h.Lobby.PlayerCount()
		return true
	})
	return map[string]interface{}{
		"lobbyCount":  s.registry.Count(),
		"playerCount": players,
		"eventLog":    s.events.GetStats(),
	}
}

// Registry exposes the lobby table to the ingress read loop.
func (s *Server) Registry() *registry.Registry {
	return s.registry
}

// onLobbyEmpty is called from the ticker goroutine when a lobby has been
// empty past the grace window. Teardown happens on a fresh goroutine because
// removeLobby waits for the ticker to exit.
func (s *Server) onLobbyEmpty(code string) {
	go s.removeLobby(code)
}

// removeLobby unregisters the lobby, stops its ticker, and waits for it to
// finish. After Remove returns no new commands can reach the lobby.
func (s *Server) removeLobby(code string) {
	handle := s.registry.Remove(code)
	if handle == nil {
		return
	}

	handle.Cancel()
	<-handle.Done

	s.events.EmitSimple(game.EventTypeLobbyRemoved, 0, code, 0, nil)
	api.UpdateLobbyCount(s.registry.Count())
	log.Printf("🧹 Lobby %s removed", code)
}

// Run binds both ports and serves until the context is canceled. The UDP
// socket doubles as the broadcast writer for every lobby ticker.
func (s *Server) Run(ctx context.Context) error {
	s.ctx = ctx

	udpAddr := &net.UDPAddr{Port: s.cfg.Server.UDPPort}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return fmt.Errorf("bind udp %d: %w", s.cfg.Server.UDPPort, err)
	}
	if s.out == nil {
		s.out = conn
	}
	log.Printf("📡 Gameplay channel listening on UDP %d", s.cfg.Server.UDPPort)

	listener := ingress.NewListener(conn, s.registry, s.cfg.Debug)
	httpServer := api.NewServer(s, s.cfg.Game.DefaultMaxPlayers)
	gaugeTicker := time.NewTicker(time.Second)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return listener.Run(ctx)
	})

	g.Go(func() error {
		return httpServer.Start(ctx, fmt.Sprintf(":%d", s.cfg.Server.HTTPPort))
	})

	g.Go(func() error {
		defer gaugeTicker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-gaugeTicker.C:
				players := 0
				s.registry.Range(func(code string, h *registry.Handle) bool {
					players += h.Lobby.PlayerCount()
					return true
				})
				api.UpdatePlayerCount(players)
				api.UpdateEventLogStats(s.events.GetTotalCount(), s.events.GetDroppedCount())
			}
		}
	})

	err = g.Wait()
	httpServer.Stop()
	s.stopAllLobbies()
	return err
}

// stopAllLobbies cancels every ticker and waits for them to exit.
func (s *Server) stopAllLobbies() {
	var handles []*registry.Handle
	s.registry.Range(func(code string, h *registry.Handle) bool {
		if removed := s.registry.Remove(code); removed != nil {
			handles = append(handles, removed)
		}
		return true
	})
	for _, h := range handles {
		h.Cancel()
		<-h.Done
	}
}
