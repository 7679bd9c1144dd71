package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"gun-arena/internal/api"
	"gun-arena/internal/config"
	"gun-arena/internal/game"
	"gun-arena/internal/server"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("💡 No .env file found, using environment variables only")
	} else {
		log.Println("✅ Loaded environment from .env")
	}

	log.Println("🎮 ================================")
	log.Println("🎮  GUN ARENA - LOBBY SERVER")
	log.Println("🎮 ================================")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Config error: %v", err)
	}
	log.Printf("🎮 Config: %d Hz tick, %ds inactivity timeout, queue %d, max %d lobbies",
		cfg.Game.TickRateHz, cfg.Game.InactivityTimeoutSecs, cfg.Game.CommandQueueSize, cfg.Game.MaxLobbies)

	// Weapon catalog: built-in defaults unless a JSON file is configured
	catalog := game.DefaultCatalog()
	if cfg.WeaponsPath != "" {
		catalog, err = game.LoadCatalog(cfg.WeaponsPath)
		if err != nil {
			log.Fatalf("❌ Weapon catalog: %v", err)
		}
		log.Printf("🔫 Loaded %d weapons from %s", catalog.Len(), cfg.WeaponsPath)
	}

	// Audit log
	events := game.NewEventLog()
	if err := events.Start(cfg.EventLogPath); err != nil {
		log.Printf("⚠️ Event log disabled: %v", err)
	} else if cfg.EventLogPath != "" {
		log.Printf("📝 Event log: %s", cfg.EventLogPath)
	}

	// Debug server (pprof + metrics, localhost only)
	if os.Getenv("DISABLE_DEBUG_SERVER") != "true" {
		if err := api.StartDebugServer(api.DefaultObservabilityConfig()); err != nil {
			log.Printf("⚠️ Debug server disabled: %v", err)
		}
	}

	srv := server.New(cfg, catalog, events, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	if err := srv.Run(ctx); err != nil {
		log.Printf("⚠️ Server error: %v", err)
	}

	log.Println("🛑 Shutting down...")
	events.Stop()
	log.Println("👋 Goodbye!")
}
