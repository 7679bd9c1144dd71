package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"gun-arena/internal/game"
	"gun-arena/internal/registry"
)

// mockControl is a ControlPlane stub recording the last call.
type mockControl struct {
	lobbies map[string]game.LobbyInfo

	lastCreateCode  string
	lastCreateMax   int
	lastCreateScene string
}

func newMockControl() *mockControl {
	return &mockControl{lobbies: make(map[string]game.LobbyInfo)}
}

func (m *mockControl) CreateLobby(code string, maxPlayers int, scene string) (game.LobbyInfo, error) {
	m.lastCreateCode = code
	m.lastCreateMax = maxPlayers
	m.lastCreateScene = scene

	if _, ok := m.lobbies[code]; ok {
		return game.LobbyInfo{}, registry.ErrLobbyExists
	}
	info := game.LobbyInfo{Code: code, MaxPlayers: maxPlayers, Scene: scene, Players: []game.PlayerInfo{}, ServerIP: "127.0.0.1", UDPPort: 8081}
	m.lobbies[code] = info
	return info, nil
}

func (m *mockControl) JoinLobby(code, playerName string) (uint32, game.LobbyInfo, error) {
	info, ok := m.lobbies[code]
	if !ok {
		return 0, game.LobbyInfo{}, registry.ErrLobbyNotFound
	}
	if info.PlayerCount >= info.MaxPlayers {
		return 0, game.LobbyInfo{}, game.ErrLobbyFull
	}
	info.PlayerCount++
	info.Players = append(info.Players, game.PlayerInfo{ID: uint32(info.PlayerCount), Name: playerName})
	m.lobbies[code] = info
	return uint32(info.PlayerCount), info, nil
}

func (m *mockControl) GetLobby(code string) (game.LobbyInfo, error) {
	info, ok := m.lobbies[code]
	if !ok {
		return game.LobbyInfo{}, registry.ErrLobbyNotFound
	}
	return info, nil
}

func (m *mockControl) ListLobbies() []game.LobbyInfo {
	out := make([]game.LobbyInfo, 0, len(m.lobbies))
	for _, info := range m.lobbies {
		out = append(out, info)
	}
	return out
}

func (m *mockControl) Weapons() []game.Weapon {
	return game.DefaultCatalog().All()
}

func (m *mockControl) Stats() map[string]interface{} {
	return map[string]interface{}{"lobbyCount": len(m.lobbies)}
}

func testServer(t *testing.T, control ControlPlane) *httptest.Server {
	t.Helper()
	router := NewRouter(RouterConfig{
		Control:        control,
		DisableLogging: true,
		RateLimitConfig: &RateLimitConfig{
			RequestsPerSecond: 10000,
			Burst:             10000,
			CleanupInterval:   DefaultRateLimitConfig.CleanupInterval,
		},
	})
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

// TestCreateLobby exercises the happy path and the conflict path
func TestCreateLobby(t *testing.T) {
	control := newMockControl()
	ts := testServer(t, control)

	resp := postJSON(t, ts.URL+"/lobbies", map[string]interface{}{"code": "ROOM1", "max_players": 8, "scene": "desert"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	var info game.LobbyInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatal(err)
	}
	if info.Code != "ROOM1" || info.MaxPlayers != 8 || info.Scene != "desert" {
		t.Errorf("Unexpected lobby info: %+v", info)
	}

	dup := postJSON(t, ts.URL+"/lobbies", map[string]interface{}{"code": "ROOM1"})
	defer dup.Body.Close()
	if dup.StatusCode != http.StatusConflict {
		t.Errorf("Expected 409 for duplicate code, got %d", dup.StatusCode)
	}
}

// TestCreateLobbyDefaults fills max_players=4 and scene=world
func TestCreateLobbyDefaults(t *testing.T) {
	control := newMockControl()
	ts := testServer(t, control)

	resp := postJSON(t, ts.URL+"/lobbies", map[string]interface{}{"code": "ROOM1"})
	resp.Body.Close()

	if control.lastCreateMax != 4 {
		t.Errorf("Expected default max_players 4, got %d", control.lastCreateMax)
	}
	if control.lastCreateScene != "world" {
		t.Errorf("Expected default scene 'world', got %q", control.lastCreateScene)
	}
}

// TestCreateLobbyConfiguredDefault uses the wired default_max_players
func TestCreateLobbyConfiguredDefault(t *testing.T) {
	control := newMockControl()
	router := NewRouter(RouterConfig{
		Control:           control,
		DefaultMaxPlayers: 16,
		DisableLogging:    true,
		RateLimitConfig: &RateLimitConfig{
			RequestsPerSecond: 10000,
			Burst:             10000,
			CleanupInterval:   DefaultRateLimitConfig.CleanupInterval,
		},
	})
	ts := httptest.NewServer(router)
	defer ts.Close()

	postJSON(t, ts.URL+"/lobbies", map[string]interface{}{"code": "ROOM1"}).Body.Close()

	if control.lastCreateMax != 16 {
		t.Errorf("Expected configured default max_players 16, got %d", control.lastCreateMax)
	}
}

// TestCreateLobbyMissingCode is a 400
func TestCreateLobbyMissingCode(t *testing.T) {
	ts := testServer(t, newMockControl())

	resp := postJSON(t, ts.URL+"/lobbies", map[string]interface{}{"max_players": 4})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", resp.StatusCode)
	}
}

// TestJoinLobby returns the player id with the lobby view
func TestJoinLobby(t *testing.T) {
	control := newMockControl()
	ts := testServer(t, control)

	postJSON(t, ts.URL+"/lobbies", map[string]interface{}{"code": "ROOM1", "max_players": 2}).Body.Close()

	resp := postJSON(t, ts.URL+"/lobbies/ROOM1/join", map[string]interface{}{"player_name": "Alice"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var joined JoinLobbyResponse
	if err := json.NewDecoder(resp.Body).Decode(&joined); err != nil {
		t.Fatal(err)
	}
	if joined.PlayerID == 0 {
		t.Error("Expected a non-zero player id")
	}
	if joined.Lobby.PlayerCount != 1 {
		t.Errorf("Expected player_count 1, got %d", joined.Lobby.PlayerCount)
	}
}

// TestJoinLobbyErrors maps not-found to 404, full to 409, bad body to 400
func TestJoinLobbyErrors(t *testing.T) {
	control := newMockControl()
	ts := testServer(t, control)

	resp := postJSON(t, ts.URL+"/lobbies/NOPE/join", map[string]interface{}{"player_name": "Alice"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown lobby, got %d", resp.StatusCode)
	}

	postJSON(t, ts.URL+"/lobbies", map[string]interface{}{"code": "ROOM1", "max_players": 1}).Body.Close()
	postJSON(t, ts.URL+"/lobbies/ROOM1/join", map[string]interface{}{"player_name": "Alice"}).Body.Close()

	resp = postJSON(t, ts.URL+"/lobbies/ROOM1/join", map[string]interface{}{"player_name": "Bob"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("Expected 409 for full lobby, got %d", resp.StatusCode)
	}

	resp = postJSON(t, ts.URL+"/lobbies/ROOM1/join", map[string]interface{}{})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing name, got %d", resp.StatusCode)
	}
}

// TestGetLobby covers found and not-found
func TestGetLobby(t *testing.T) {
	control := newMockControl()
	ts := testServer(t, control)

	postJSON(t, ts.URL+"/lobbies", map[string]interface{}{"code": "ROOM1"}).Body.Close()

	resp, err := http.Get(ts.URL + "/lobbies/ROOM1")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}

	missing, err := http.Get(ts.URL + "/lobbies/NOPE")
	if err != nil {
		t.Fatal(err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", missing.StatusCode)
	}
}

// TestListLobbies returns an array even when empty
func TestListLobbies(t *testing.T) {
	ts := testServer(t, newMockControl())

	resp, err := http.Get(ts.URL + "/lobbies")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var lobbies []game.LobbyInfo
	if err := json.NewDecoder(resp.Body).Decode(&lobbies); err != nil {
		t.Fatalf("Expected a JSON array: %v", err)
	}
	if len(lobbies) != 0 {
		t.Errorf("Expected empty list, got %d", len(lobbies))
	}
}

// TestGetWeapons serves the catalog
func TestGetWeapons(t *testing.T) {
	ts := testServer(t, newMockControl())

	resp, err := http.Get(ts.URL + "/weapons")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var weapons []game.Weapon
	if err := json.NewDecoder(resp.Body).Decode(&weapons); err != nil {
		t.Fatal(err)
	}
	if len(weapons) != 3 {
		t.Errorf("Expected 3 weapons, got %d", len(weapons))
	}
}

// TestRateLimitRejects returns 429 past the burst
func TestRateLimitRejects(t *testing.T) {
	router := NewRouter(RouterConfig{
		Control:        newMockControl(),
		DisableLogging: true,
		RateLimitConfig: &RateLimitConfig{
			RequestsPerSecond: 1,
			Burst:             2,
			CleanupInterval:   DefaultRateLimitConfig.CleanupInterval,
		},
	})
	ts := httptest.NewServer(router)
	defer ts.Close()

	var last int
	for i := 0; i < 5; i++ {
		resp, err := http.Get(ts.URL + "/health")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		last = resp.StatusCode
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("Expected 429 after burst, got %d", last)
	}
}
