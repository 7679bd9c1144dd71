package game

import (
	"errors"
	"net"
	"testing"
	"time"
)

func testAddr(port int) *net.UDPAddr {
	return &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port}
}

// TestAddPlayer tests basic player admission
func TestAddPlayer(t *testing.T) {
	lobby := NewLobby("TEST", 4, "world")
	catalog := DefaultCatalog()
	now := time.Now()

	if err := lobby.addPlayer(1, "Alice", catalog, now); err != nil {
		t.Fatalf("addPlayer failed: %v", err)
	}

	p, ok := lobby.players[1]
	if !ok {
		t.Fatal("Player 1 not present after addPlayer")
	}
	if p.Name != "Alice" {
		t.Errorf("Expected name 'Alice', got '%s'", p.Name)
	}
	if p.Health != DefaultMaxHealth {
		t.Errorf("Expected health %d, got %d", DefaultMaxHealth, p.Health)
	}
	if p.WeaponID != DefaultWeaponID {
		t.Errorf("Expected weapon %d, got %d", DefaultWeaponID, p.WeaponID)
	}
	if p.Position != SpawnPosition {
		t.Errorf("Expected spawn position %v, got %v", SpawnPosition, p.Position)
	}
	if _, dirty := lobby.dirty[1]; !dirty {
		t.Error("New player should be marked dirty")
	}
}

// TestAddPlayerFull tests the capacity limit
func TestAddPlayerFull(t *testing.T) {
	lobby := NewLobby("TEST", 1, "world")
	catalog := DefaultCatalog()
	now := time.Now()

	if err := lobby.addPlayer(1, "Alice", catalog, now); err != nil {
		t.Fatalf("addPlayer failed: %v", err)
	}
	if err := lobby.addPlayer(2, "Bob", catalog, now); !errors.Is(err, ErrLobbyFull) {
		t.Errorf("Expected ErrLobbyFull, got %v", err)
	}
}

// TestAddPlayerDuplicate tests id collision
func TestAddPlayerDuplicate(t *testing.T) {
	lobby := NewLobby("TEST", 4, "world")
	catalog := DefaultCatalog()
	now := time.Now()

	lobby.addPlayer(1, "Alice", catalog, now)
	if err := lobby.addPlayer(1, "Alice2", catalog, now); !errors.Is(err, ErrPlayerExists) {
		t.Errorf("Expected ErrPlayerExists, got %v", err)
	}
}

// TestRemovePlayer clears the player, its address, and its delta snapshot
func TestRemovePlayer(t *testing.T) {
	lobby := NewLobby("TEST", 4, "world")
	catalog := DefaultCatalog()
	now := time.Now()

	lobby.addPlayer(1, "Alice", catalog, now)
	lobby.setAddress(1, testAddr(5000))
	lobby.lastSync[1] = lobby.players[1].ToSyncState()

	lobby.removePlayer(1)

	if _, ok := lobby.players[1]; ok {
		t.Error("Player still present after removePlayer")
	}
	if _, ok := lobby.addrs[1]; ok {
		t.Error("Address still present after removePlayer")
	}
	if _, ok := lobby.lastSync[1]; ok {
		t.Error("Delta snapshot still present after removePlayer")
	}
}

// TestCleanupInactive evicts stale players but never the dummy
func TestCleanupInactive(t *testing.T) {
	lobby := NewLobby("TEST", 4, "world")
	catalog := DefaultCatalog()
	now := time.Now()

	lobby.addPlayer(1, "Alice", catalog, now.Add(-16*time.Second))
	lobby.addPlayer(2, "Bob", catalog, now)
	lobby.SpawnDummy(catalog, now.Add(-time.Hour))

	evicted := lobby.cleanupInactive(now, 15*time.Second)

	if len(evicted) != 1 || evicted[0] != 1 {
		t.Errorf("Expected eviction of player 1, got %v", evicted)
	}
	if _, ok := lobby.players[2]; !ok {
		t.Error("Active player 2 should survive cleanup")
	}
	if _, ok := lobby.players[DummyPlayerID]; !ok {
		t.Error("Dummy must never be evicted")
	}
}

// TestRealPlayerCount excludes the dummy
func TestRealPlayerCount(t *testing.T) {
	lobby := NewLobby("TEST", 4, "world")
	catalog := DefaultCatalog()
	now := time.Now()

	lobby.SpawnDummy(catalog, now)
	if lobby.realPlayerCount() != 0 {
		t.Errorf("Expected 0 real players, got %d", lobby.realPlayerCount())
	}

	lobby.addPlayer(1, "Alice", catalog, now)
	if lobby.realPlayerCount() != 1 {
		t.Errorf("Expected 1 real player, got %d", lobby.realPlayerCount())
	}
	if lobby.PlayerCount() != 2 {
		t.Errorf("Expected PlayerCount 2 including dummy, got %d", lobby.PlayerCount())
	}
}

// TestUpdatePosition refreshes transform and liveness
func TestUpdatePosition(t *testing.T) {
	lobby := NewLobby("TEST", 4, "world")
	catalog := DefaultCatalog()
	start := time.Now()

	lobby.addPlayer(1, "Alice", catalog, start)

	later := start.Add(time.Second)
	pos := Vec3{X: 10, Y: 2, Z: -3}
	rot := Vec3{Y: 90}
	if err := lobby.updatePosition(1, pos, rot, later); err != nil {
		t.Fatalf("updatePosition failed: %v", err)
	}

	p := lobby.players[1]
	if p.Position != pos {
		t.Errorf("Expected position %v, got %v", pos, p.Position)
	}
	if p.Rotation != rot {
		t.Errorf("Expected rotation %v, got %v", rot, p.Rotation)
	}
	if !p.LastUpdate.Equal(later) {
		t.Error("updatePosition should refresh LastUpdate")
	}

	if err := lobby.updatePosition(99, pos, rot, later); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("Expected ErrPlayerNotFound, got %v", err)
	}
}

// TestInfo snapshots the control-plane view
func TestInfo(t *testing.T) {
	lobby := NewLobby("ROOM1", 8, "desert")
	catalog := DefaultCatalog()
	now := time.Now()

	lobby.addPlayer(1, "Alice", catalog, now)
	lobby.addPlayer(2, "Bob", catalog, now)

	info := lobby.Info("10.0.0.5", 9000)

	if info.Code != "ROOM1" {
		t.Errorf("Expected code ROOM1, got %s", info.Code)
	}
	if info.PlayerCount != 2 {
		t.Errorf("Expected player_count 2, got %d", info.PlayerCount)
	}
	if info.MaxPlayers != 8 {
		t.Errorf("Expected max_players 8, got %d", info.MaxPlayers)
	}
	if info.ServerIP != "10.0.0.5" || info.UDPPort != 9000 {
		t.Errorf("Expected endpoint 10.0.0.5:9000, got %s:%d", info.ServerIP, info.UDPPort)
	}
	if info.Scene != "desert" {
		t.Errorf("Expected scene desert, got %s", info.Scene)
	}
	if len(info.Players) != 2 {
		t.Errorf("Expected 2 player infos, got %d", len(info.Players))
	}
}
