package game

import (
	"math"
	"testing"

	"pizza-rush/internal/config"
)

func TestTurnRateScalesWithSpeed(t *testing.T) {
	cfg := config.DefaultAim()

	slow := NewAimState(cfg)
	fast := NewAimState(cfg)

	for i := 0; i < 30; i++ {
		slow.Step(InputState{MoveX: 1}, 0, 28, testDt)
		fast.Step(InputState{MoveX: 1}, 28, 28, testDt)
	}

	if math.Abs(fast.Yaw) <= math.Abs(slow.Yaw) {
		t.Errorf("Turn rate not speed-scaled: slow %f, fast %f", slow.Yaw, fast.Yaw)
	}
}

func TestYawStaysWrapped(t *testing.T) {
	a := NewAimState(config.DefaultAim())

	for i := 0; i < 3000; i++ {
		a.Step(InputState{MoveX: 1}, 28, 28, testDt)
		if a.Yaw > math.Pi || a.Yaw <= -math.Pi {
			t.Fatalf("Yaw unwrapped: %f", a.Yaw)
		}
	}
}

func TestLeanFollowsStrafeAndRecovers(t *testing.T) {
	cfg := config.DefaultAim()
	a := NewAimState(cfg)

	for i := 0; i < 60; i++ {
		a.Step(InputState{MoveX: 1}, 28, 28, testDt)
	}
	if a.Lean <= 0 {
		t.Fatalf("No lean into the strafe: %f", a.Lean)
	}
	maxLean := cfg.MaxLeanDeg * math.Pi / 180
	if a.Lean > maxLean+1e-6 {
		t.Errorf("Lean %f exceeds cap %f", a.Lean, maxLean)
	}

	// Released: lean settles back toward level
	for i := 0; i < 300; i++ {
		a.Step(InputState{}, 28, 28, testDt)
	}
	if math.Abs(a.Lean) > 0.01 {
		t.Errorf("Lean did not recover: %f", a.Lean)
	}
}

func TestPitchClampsAndAutoLevels(t *testing.T) {
	cfg := config.DefaultAim()
	a := NewAimState(cfg)

	for i := 0; i < 600; i++ {
		a.Step(InputState{AimY: 1}, 10, 28, testDt)
	}
	maxPitch := cfg.MaxPitchDeg * math.Pi / 180
	if a.Pitch > maxPitch+1e-9 {
		t.Errorf("Pitch %f exceeds cap %f", a.Pitch, maxPitch)
	}

	for i := 0; i < 300; i++ {
		a.Step(InputState{}, 10, 28, testDt)
	}
	if math.Abs(a.Pitch) > 0.01 {
		t.Errorf("Pitch did not auto-level: %f", a.Pitch)
	}
}

func TestOrientationNegatesLean(t *testing.T) {
	a := NewAimState(config.DefaultAim())
	a.Yaw, a.Pitch, a.Lean = 1, 0.5, 0.3

	yaw, pitch, roll := a.Orientation()
	if yaw != 1 || pitch != 0.5 || roll != -0.3 {
		t.Errorf("Orientation wrong: %f %f %f", yaw, pitch, roll)
	}
}

func TestZeroMaxSpeedIsSafe(t *testing.T) {
	a := NewAimState(config.DefaultAim())
	// Degenerate tuning must not divide by zero
	a.Step(InputState{MoveX: 1}, 5, 0, testDt)
	if math.IsNaN(a.Yaw) || math.IsNaN(a.Lean) {
		t.Error("NaN leaked from zero max speed")
	}
}
