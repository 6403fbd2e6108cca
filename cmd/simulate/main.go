// Headless simulation runner: drives the engine for a fixed number of
// ticks with scripted input and prints a summary. Useful for tuning
// physics constants and sanity-checking determinism without a client.
package main

import (
	"flag"
	"log"
	"time"

	"pizza-rush/internal/config"
	"pizza-rush/internal/game"
)

func main() {
	ticks := flag.Int("ticks", 3000, "number of simulation ticks to run")
	seed := flag.Int64("seed", 42, "world seed")
	eventLog := flag.String("events", "", "write events to this JSONL file")
	flag.Parse()

	cfg := config.Load()
	cfg.Sim.Seed = *seed
	cfg.Server.ProfilePath = "" // Headless runs never touch the profile

	engine := game.NewEngine(cfg)

	if *eventLog != "" {
		if err := engine.StartEventLog(*eventLog); err != nil {
			log.Fatalf("❌ Event log: %v", err)
		}
		defer engine.StopEventLog()
	}

	// Count interesting events as they happen
	counts := make(map[game.EventType]int)
	engine.Bus().SubscribeAll(func(ev game.Event) {
		counts[ev.Type]++
	})

	dt := 1.0 / float64(cfg.Sim.TickRate)
	start := time.Now()

	for i := 0; i < *ticks; i++ {
		engine.ApplyInput(scriptedInput(i, cfg.Sim.TickRate))
		engine.Tick(dt)
	}

	elapsed := time.Since(start)
	snap := engine.GetSnapshot()

	log.Printf("🏁 %d ticks in %v (%.0f ticks/sec)",
		*ticks, elapsed, float64(*ticks)/elapsed.Seconds())
	log.Printf("📍 Rider at (%.1f, %.1f, %.1f), state %s, charge %.2f",
		snap.Rider.X, snap.Rider.Y, snap.Rider.Z, snap.Rider.State, snap.Rider.Charge)
	for _, t := range []game.EventType{
		game.EventTypeJump, game.EventTypeChargeThreshold, game.EventTypeBoostUsed,
		game.EventTypeFlightStart, game.EventTypeNearMiss, game.EventTypeTrickSuccess,
		game.EventTypeCollision, game.EventTypeDeliveryComplete, game.EventTypeDeliveryFailed,
	} {
		if counts[t] > 0 {
			log.Printf("   %-18s %d", t.String(), counts[t])
		}
	}
}

// scriptedInput rides forward, jumps periodically, and boosts whenever
// the charge script says so. Enough to exercise most of the simulation.
func scriptedInput(tick, tickRate int) game.InputState {
	second := tick / tickRate
	in := game.InputState{MoveZ: 1}

	switch second % 10 {
	case 3:
		in.Jump = tick%tickRate == 0
		in.TrickSpin = 1
	case 6:
		in.Boost = true
	case 8:
		in.MoveX = 0.6
	}
	return in
}
