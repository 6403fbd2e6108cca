package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsAreSane(t *testing.T) {
	phys := DefaultPhysics()

	if phys.MaxSpeed <= 0 || phys.Accel <= 0 {
		t.Error("Movement tuning not positive")
	}
	if phys.GroundSnap >= phys.AirborneMin {
		t.Error("Hysteresis band inverted: snap must sit below airborne threshold")
	}
	if phys.MaxDeltaTime <= 0 {
		t.Error("No dt clamp configured")
	}

	sim := DefaultSim()
	if sim.TickRate != 30 {
		t.Errorf("Expected 30 TPS default, got %d", sim.TickRate)
	}

	limits := DefaultLimits()
	if limits.MaxCars <= 0 || limits.MaxBuildings <= 0 {
		t.Error("Resource limits not positive")
	}
}

func TestSimFromEnvOverrides(t *testing.T) {
	t.Setenv("TICK_RATE", "60")
	t.Setenv("WORLD_SEED", "1234")

	cfg := SimFromEnv()
	if cfg.TickRate != 60 {
		t.Errorf("Expected tick rate 60, got %d", cfg.TickRate)
	}
	if cfg.Seed != 1234 {
		t.Errorf("Expected seed 1234, got %d", cfg.Seed)
	}
}

func TestSimFromEnvIgnoresGarbage(t *testing.T) {
	t.Setenv("TICK_RATE", "fast")

	cfg := SimFromEnv()
	if cfg.TickRate != DefaultSim().TickRate {
		t.Errorf("Garbage env value changed the tick rate: %d", cfg.TickRate)
	}
}

func TestServerFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("PROFILE_PATH", "/tmp/p.json")

	cfg := ServerFromEnv()
	if cfg.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", cfg.Port)
	}
	if cfg.ProfilePath != "/tmp/p.json" {
		t.Errorf("Profile path override missing: %q", cfg.ProfilePath)
	}
}

func TestLoadMaxSpeedEnvOverride(t *testing.T) {
	t.Setenv("MAX_SPEED", "50")

	cfg := Load()
	if cfg.Physics.MaxSpeed != 50 {
		t.Errorf("Expected max speed 50, got %f", cfg.Physics.MaxSpeed)
	}

	t.Setenv("MAX_SPEED", "not-a-number")
	cfg = Load()
	if cfg.Physics.MaxSpeed != DefaultPhysics().MaxSpeed {
		t.Errorf("Garbage override applied: %f", cfg.Physics.MaxSpeed)
	}
}

func TestApplyTuningFileReplacesWholeSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	yaml := `
physics:
  max_speed: 50
  accel: 60
  max_delta_time: 0.1
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := AppConfig{Physics: DefaultPhysics(), Tricks: DefaultTricks()}
	if err := ApplyTuningFile(&cfg, path); err != nil {
		t.Fatalf("ApplyTuningFile: %v", err)
	}

	if cfg.Physics.MaxSpeed != 50 {
		t.Errorf("Expected max speed 50 from tuning, got %f", cfg.Physics.MaxSpeed)
	}
	// Whole-section replacement: fields absent from the file zero out
	if cfg.Physics.Friction != 0 {
		t.Errorf("Expected unlisted fields zeroed, friction is %f", cfg.Physics.Friction)
	}
	// Sections absent from the file keep the defaults
	if cfg.Tricks.BaseScore != DefaultTricks().BaseScore {
		t.Error("Missing tricks section changed the defaults")
	}
}

func TestApplyTuningFileBadInputs(t *testing.T) {
	cfg := AppConfig{Physics: DefaultPhysics()}

	if err := ApplyTuningFile(&cfg, "/nonexistent/tuning.yaml"); err == nil {
		t.Error("Missing file reported no error")
	}
	if cfg.Physics.MaxSpeed != DefaultPhysics().MaxSpeed {
		t.Error("Missing file mutated the config")
	}

	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("physics: [not a map"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := ApplyTuningFile(&cfg, path); err == nil {
		t.Error("Malformed YAML reported no error")
	}
	if cfg.Physics.MaxSpeed != DefaultPhysics().MaxSpeed {
		t.Error("Malformed file mutated the config")
	}
}
