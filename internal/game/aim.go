package game

import (
	"math"

	"pizza-rush/internal/config"
)

// AimState integrates the player's heading, look pitch and banking lean.
// It owns only orientation - position and velocity live in Physics. The
// browser applies the resulting yaw/pitch/roll to the visual root in that
// fixed order (yaw, then pitch, then roll from the negated lean).
type AimState struct {
	cfg config.AimConfig

	Yaw   float64 // Radians, heading around vertical
	Pitch float64 // Radians, look up/down
	Lean  float64 // Radians, banking; roll applied is -Lean
}

// NewAimState creates aim kinematics with the given tuning.
func NewAimState(cfg config.AimConfig) *AimState {
	return &AimState{cfg: cfg}
}

// SetConfig swaps the tuning.
func (a *AimState) SetConfig(cfg config.AimConfig) {
	a.cfg = cfg
}

// Step advances orientation by one tick. speed is the current horizontal
// speed from the integrator; maxSpeed the configured cap.
func (a *AimState) Step(in InputState, speed, maxSpeed, dt float64) {
	ratio := 0.0
	if maxSpeed > 0 {
		ratio = math.Min(1, speed/maxSpeed)
	}

	// Turn rate scales with speed: sluggish at a standstill, snappy at
	// full tilt. Strafe input steers.
	turnRate := a.cfg.TurnRateMin + (a.cfg.TurnRateMax-a.cfg.TurnRateMin)*ratio
	a.Yaw += -in.MoveX * turnRate * dt
	a.Yaw = wrapAngle(a.Yaw)

	// Banking lean follows strafe with a speed-dependent intensity curve.
	// The curve front-loads: even moderate speed shows visible lean.
	intensity := math.Sqrt(ratio)
	maxLean := a.cfg.MaxLeanDeg * math.Pi / 180
	targetLean := in.MoveX * intensity * maxLean

	// Asymmetric smoothing - converges faster the faster the board moves
	smooth := a.cfg.LeanSmoothSlow + (a.cfg.LeanSmoothFast-a.cfg.LeanSmoothSlow)*ratio
	a.Lean += (targetLean - a.Lean) * math.Min(1, smooth*dt)

	// Look pitch from the dedicated aim axis, auto-leveling when idle
	maxPitch := a.cfg.MaxPitchDeg * math.Pi / 180
	if in.AimY != 0 {
		a.Pitch += in.AimY * a.cfg.PitchRate * dt
		a.Pitch = math.Max(-maxPitch, math.Min(maxPitch, a.Pitch))
	} else {
		a.Pitch += (0 - a.Pitch) * math.Min(1, a.cfg.PitchAutoLevel*dt)
	}
}

// Orientation returns the visual-root angles in application order:
// yaw, then pitch, then roll (the negated lean).
func (a *AimState) Orientation() (yaw, pitch, roll float64) {
	return a.Yaw, a.Pitch, -a.Lean
}

// wrapAngle keeps an angle in (-pi, pi].
func wrapAngle(rad float64) float64 {
	for rad > math.Pi {
		rad -= 2 * math.Pi
	}
	for rad <= -math.Pi {
		rad += 2 * math.Pi
	}
	return rad
}
