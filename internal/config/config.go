// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for all server and gameplay settings.
//
// Precedence: built-in defaults < optional YAML file (CONFIG_FILE) < environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds the network-facing settings.
// The control plane (HTTP) and the gameplay channel (UDP) bind separate ports.
type ServerConfig struct {
	HTTPPort int    `yaml:"http_port"`
	UDPPort  int    `yaml:"udp_port"`
	PublicIP string `yaml:"public_ip"` // address advertised to clients in lobby views
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		HTTPPort: 8080,
		UDPPort:  8081,
		PublicIP: "127.0.0.1",
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv(cfg ServerConfig) ServerConfig {
	if p := getEnvInt("HTTP_PORT", 0); p > 0 {
		cfg.HTTPPort = p
	}
	if p := getEnvInt("UDP_PORT", 0); p > 0 {
		cfg.UDPPort = p
	}
	if ip := os.Getenv("PUBLIC_IP"); ip != "" {
		cfg.PublicIP = ip
	}
	return cfg
}

// GameConfig holds simulation settings shared by every lobby tick loop.
type GameConfig struct {
	TickRateHz            int  `yaml:"tick_rate_hz"`
	InactivityTimeoutSecs int  `yaml:"player_inactivity_timeout_secs"`
	CommandQueueSize      int  `yaml:"command_queue_size"`
	MaxLobbies            int  `yaml:"max_lobbies"`
	DefaultMaxPlayers     int  `yaml:"default_max_players"`
	SpawnDummy            bool `yaml:"spawn_dummy"` // scripted bot (id 999) per lobby
}

// DefaultGame returns the default gameplay configuration.
// Queue capacity 1000 absorbs >= 20s of worst-case ingress at 50 Hz.
func DefaultGame() GameConfig {
	return GameConfig{
		TickRateHz:            50, // 20ms per tick
		InactivityTimeoutSecs: 15,
		CommandQueueSize:      1000,
		MaxLobbies:            1000,
		DefaultMaxPlayers:     4,
		SpawnDummy:            false,
	}
}

// GameFromEnv returns gameplay configuration with environment variable overrides.
func GameFromEnv(cfg GameConfig) GameConfig {
	if v := getEnvInt("TICK_RATE_HZ", 0); v > 0 {
		cfg.TickRateHz = v
	}
	if v := getEnvInt("PLAYER_INACTIVITY_TIMEOUT_SECS", 0); v > 0 {
		cfg.InactivityTimeoutSecs = v
	}
	if v := getEnvInt("COMMAND_QUEUE_SIZE", 0); v > 0 {
		cfg.CommandQueueSize = v
	}
	if v := getEnvInt("MAX_LOBBIES", 0); v > 0 {
		cfg.MaxLobbies = v
	}
	if v := getEnvInt("DEFAULT_MAX_PLAYERS", 0); v > 0 {
		cfg.DefaultMaxPlayers = v
	}
	if os.Getenv("SPAWN_DUMMY") == "true" {
		cfg.SpawnDummy = true
	}
	return cfg
}

// TickInterval returns the duration of one tick.
func (g GameConfig) TickInterval() time.Duration {
	return time.Second / time.Duration(g.TickRateHz)
}

// InactivityTimeout returns the player eviction threshold as a duration.
func (g GameConfig) InactivityTimeout() time.Duration {
	return time.Duration(g.InactivityTimeoutSecs) * time.Second
}

// Config holds the complete application configuration.
type Config struct {
	Server       ServerConfig `yaml:"server"`
	Game         GameConfig   `yaml:"game"`
	WeaponsPath  string       `yaml:"weapons_path"`   // optional weapon catalog JSON
	EventLogPath string       `yaml:"event_log_path"` // audit trail output (JSONL)
	Debug        bool         `yaml:"debug"`          // enables hot-path drop logging
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server:       DefaultServer(),
		Game:         DefaultGame(),
		EventLogPath: "events.jsonl",
	}
}

// Load returns the complete configuration: defaults, then the optional YAML
// file named by CONFIG_FILE, then environment variable overrides.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	cfg.Server = ServerFromEnv(cfg.Server)
	cfg.Game = GameFromEnv(cfg.Game)
	if p := os.Getenv("WEAPONS_PATH"); p != "" {
		cfg.WeaponsPath = p
	}
	if p := os.Getenv("EVENT_LOG_PATH"); p != "" {
		cfg.EventLogPath = p
	}
	if os.Getenv("DEBUG") == "true" {
		cfg.Debug = true
	}
	return cfg, nil
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
