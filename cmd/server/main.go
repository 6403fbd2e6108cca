package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"pizza-rush/internal/api"
	"pizza-rush/internal/config"
	"pizza-rush/internal/game"
	"pizza-rush/internal/level"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("💡 No .env file found, using environment variables only")
	}

	log.Println("🍕 ================================")
	log.Println("🍕  PIZZA RUSH - SIMULATION SERVER")
	log.Println("🍕 ================================")

	appConfig := config.Load()
	serverCfg := appConfig.Server

	log.Printf("🎮 Config: %d TPS, seed %d, world %d blocks",
		appConfig.Sim.TickRate, appConfig.Sim.Seed, appConfig.World.CityBlocks)

	engine := game.NewEngine(appConfig)

	// Level autosave store (editor exits write here)
	storeDir := getEnvWithDefault("LEVEL_STORE_DIR", "levels")
	if store, err := level.NewStore(storeDir); err != nil {
		log.Printf("⚠️ Level store disabled: %v", err)
	} else {
		engine.SetLevelStore(store)
		log.Printf("💾 Level store: %s", storeDir)
	}

	// Event log
	eventLogPath := getEnvWithDefault("EVENT_LOG_PATH", "events.jsonl")
	if err := engine.StartEventLog(eventLogPath); err != nil {
		log.Printf("⚠️ Event log disabled: %v", err)
	} else {
		log.Printf("📝 Event log: %s", eventLogPath)
	}

	// Debug server (pprof + prometheus, localhost only)
	if os.Getenv("DISABLE_DEBUG_SERVER") != "true" {
		if err := api.StartDebugServer(api.DefaultObservabilityConfig()); err != nil {
			log.Printf("⚠️ Debug server disabled: %v", err)
		}
	}

	server := api.NewServer(engine, getEnvWithDefault("STATIC_DIR", "./web"))

	engine.Start()

	// Graceful shutdown on SIGINT/SIGTERM
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		log.Printf("🛑 Received %v, shutting down", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("⚠️ Shutdown error: %v", err)
		}

		engine.Stop()
		engine.StopEventLog()
	}()

	if err := server.Start(serverCfg.Port); err != nil {
		log.Fatalf("❌ Server error: %v", err)
	}
	log.Println("👋 Bye")
}

func getEnvWithDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
