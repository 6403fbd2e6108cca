package game

import (
	"math"

	"pizza-rush/internal/config"
)

// trickRecord tracks one rotation axis while airborne.
type trickRecord struct {
	active    bool
	committed bool // Input released; rotation continues to minRotation
	direction int
	rotation  float64 // Accumulated degrees, always >= 0
	rate      float64
	min       float64
}

// step advances the rotation. dir is the current input on this axis.
func (r *trickRecord) step(dir int, dt float64) {
	if dir != 0 {
		if !r.active {
			r.active = true
			r.direction = dir
			r.rotation = 0
		}
		r.committed = false
		r.rotation += r.rate * dt
		return
	}

	if !r.active {
		return
	}

	// Input released mid-rotation: the trick is committed and keeps
	// rotating until it reaches its minimum. A trick never reports
	// completion below the minimum rotation.
	r.committed = true
	if r.rotation < r.min {
		r.rotation = math.Min(r.min, r.rotation+r.rate*dt)
	}
}

// TrickTracker accumulates airborne spin/flip rotations and scores them on
// landing. Spin (vertical axis) and flip (horizontal axis) are tracked
// independently and combine into a combo.
type TrickTracker struct {
	cfg  config.TrickConfig
	bus  *Bus
	spin trickRecord
	flip trickRecord
	tick uint64
}

// NewTrickTracker creates a tracker with the given tuning.
func NewTrickTracker(cfg config.TrickConfig, bus *Bus) *TrickTracker {
	t := &TrickTracker{cfg: cfg, bus: bus}
	t.applyRates()
	return t
}

// SetConfig swaps the tuning (spin-rate upgrades).
func (t *TrickTracker) SetConfig(cfg config.TrickConfig) {
	t.cfg = cfg
	t.applyRates()
}

func (t *TrickTracker) applyRates() {
	t.spin.rate = t.cfg.SpinRate
	t.spin.min = t.cfg.SpinMinRotation
	t.flip.rate = t.cfg.FlipRate
	t.flip.min = t.cfg.FlipMinRotation
}

// SpinRotation returns the signed accumulated spin degrees (for the visual).
func (t *TrickTracker) SpinRotation() float64 {
	return t.spin.rotation * float64(t.spin.direction)
}

// FlipRotation returns the signed accumulated flip degrees.
func (t *TrickTracker) FlipRotation() float64 {
	return t.flip.rotation * float64(t.flip.direction)
}

// Active reports whether any trick is in progress.
func (t *TrickTracker) Active() bool {
	return t.spin.active || t.flip.active
}

// Update consumes trick input for one tick. Input is only honored while
// airborne; on the ground the sticks steer, they don't spin.
func (t *TrickTracker) Update(in InputState, airborne bool, tick uint64, dt float64) {
	t.tick = tick
	if !airborne {
		return
	}

	spinWasActive := t.spin.active
	flipWasActive := t.flip.active

	t.spin.step(in.TrickSpin, dt)
	t.flip.step(in.TrickFlip, dt)

	if t.spin.active && !spinWasActive {
		t.bus.Emit(EventTypeTrickStart, tick, "tricks",
			TrickPayload{Axis: "spin", Direction: t.spin.direction})
	}
	if t.flip.active && !flipWasActive {
		t.bus.Emit(EventTypeTrickStart, tick, "tricks",
			TrickPayload{Axis: "flip", Direction: t.flip.direction})
	}
}

// Land scores the accumulated rotation and resets the tracker. Called by
// the engine on the landing-impact event.
//
// Classification:
//   - zero rotation on both axes: no trick was attempted, no event at all
//   - flip attitude outside the upright tolerance: bail. Spin is around the
//     vertical axis - yaw never tilts the board, so riding away switch from
//     a half spin is a clean landing
//   - otherwise: success, scored per qualifying trick (rotation >= minimum)
//     with a combo multiplier when both axes qualify
func (t *TrickTracker) Land() {
	spinRot := t.spin.rotation
	flipRot := t.flip.rotation
	defer t.Reset()

	if spinRot == 0 && flipRot == 0 {
		return
	}

	if !t.upright(flipRot) {
		t.bus.Emit(EventTypeTrickBail, t.tick, "tricks",
			TrickPayload{Axis: t.dominantAxis(), Rotation: spinRot + flipRot})
		return
	}

	score := 0
	tricks := 0
	if spinRot >= t.cfg.SpinMinRotation {
		tricks++
		score += t.cfg.BaseScore + t.cfg.RotationBonus*int(spinRot/360)
	}
	if flipRot >= t.cfg.FlipMinRotation {
		tricks++
		score += t.cfg.BaseScore + t.cfg.RotationBonus*int(flipRot/360)
	}

	if tricks == 0 {
		// Upright landing with only a token wiggle - not a trick, not a bail
		return
	}

	combo := tricks >= 2
	if combo {
		score = int(float64(score) * t.cfg.ComboMult)
	}

	t.bus.Emit(EventTypeTrickSuccess, t.tick, "tricks", TrickPayload{
		Axis:     t.dominantAxis(),
		Rotation: spinRot + flipRot,
		Score:    score,
		Combo:    combo,
	})
}

// upright reports whether a rotation lands within tolerance of a full turn.
func (t *TrickTracker) upright(rotation float64) bool {
	residual := math.Mod(rotation, 360)
	return residual <= t.cfg.UprightTolerance || residual >= 360-t.cfg.UprightTolerance
}

func (t *TrickTracker) dominantAxis() string {
	if t.flip.rotation > t.spin.rotation {
		return "flip"
	}
	return "spin"
}

// Reset clears all trick state immediately and unconditionally. Safe to
// call at any time (respawn, editor toggle), independent of the
// frame-driven path.
func (t *TrickTracker) Reset() {
	t.spin = trickRecord{rate: t.cfg.SpinRate, min: t.cfg.SpinMinRotation}
	t.flip = trickRecord{rate: t.cfg.FlipRate, min: t.cfg.FlipMinRotation}
}
