package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"gun-arena/internal/game"
	"gun-arena/internal/registry"

	"github.com/go-chi/chi/v5"
)

// Handler methods for routerHandlers.
// These are used by both the standalone router (for testing) and the full Server.

// CreateLobbyRequest is the POST /lobbies body. max_players and scene are
// optional.
type CreateLobbyRequest struct {
	Code       string `json:"code"`
	MaxPlayers int    `json:"max_players"`
	Scene      string `json:"scene"`
}

// JoinLobbyRequest is the POST /lobbies/{code}/join body.
type JoinLobbyRequest struct {
	PlayerName string `json:"player_name"`
}

// JoinLobbyResponse couples the allocated player id with the lobby snapshot.
type JoinLobbyResponse struct {
	Lobby    game.LobbyInfo `json:"lobby"`
	PlayerID uint32         `json:"player_id"`
}

func (h *routerHandlers) handleCreateLobby(w http.ResponseWriter, r *http.Request) {
	var req CreateLobbyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Code == "" {
		writeError(w, "Lobby code is required", http.StatusBadRequest)
		return
	}
	if req.MaxPlayers <= 0 {
		req.MaxPlayers = h.defaultMaxPlayers
	}
	if req.Scene == "" {
		req.Scene = "world"
	}

	info, err := h.control.CreateLobby(req.Code, req.MaxPlayers, req.Scene)
	if err != nil {
		writeControlError(w, err)
		return
	}
	writeJSON(w, info)
}

func (h *routerHandlers) handleListLobbies(w http.ResponseWriter, r *http.Request) {
	lobbies := h.control.ListLobbies()
	if lobbies == nil {
		lobbies = []game.LobbyInfo{}
	}
	writeJSON(w, lobbies)
}

func (h *routerHandlers) handleGetLobby(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	info, err := h.control.GetLobby(code)
	if err != nil {
		writeControlError(w, err)
		return
	}
	writeJSON(w, info)
}

func (h *routerHandlers) handleJoinLobby(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req JoinLobbyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.PlayerName == "" {
		writeError(w, "Player name is required", http.StatusBadRequest)
		return
	}

	playerID, info, err := h.control.JoinLobby(code, req.PlayerName)
	if err != nil {
		writeControlError(w, err)
		return
	}
	writeJSON(w, JoinLobbyResponse{Lobby: info, PlayerID: playerID})
}

func (h *routerHandlers) handleGetWeapons(w http.ResponseWriter, r *http.Request) {
	weapons := h.control.Weapons()
	if weapons == nil {
		weapons = []game.Weapon{}
	}
	writeJSON(w, weapons)
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.control.Stats())
}

// writeControlError maps supervisor errors to HTTP status codes.
func writeControlError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registry.ErrLobbyNotFound):
		writeError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, registry.ErrLobbyExists):
		writeError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, game.ErrLobbyFull):
		writeError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, registry.ErrTooManyLobbies):
		writeError(w, err.Error(), http.StatusServiceUnavailable)
	default:
		writeError(w, "Internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
