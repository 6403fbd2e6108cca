package game

import "math"

// InputState is the single action format shared by the live server (browser
// keyboard/gamepad forwarded over the API) and the headless script driver.
// It is polled exactly once per tick.
type InputState struct {
	MoveX float64 `json:"moveX"` // Strafe axis, -1..1 (steering)
	MoveZ float64 `json:"moveZ"` // Throttle axis, -1..1 (forward positive)
	AimY  float64 `json:"aimY"`  // Look pitch axis, -1..1

	Jump     bool `json:"jump"`     // Edge: pressed this tick
	JumpHeld bool `json:"jumpHeld"` // Level: held (flight thrust)
	Boost    bool `json:"boost"`    // Edge: boost/flight activation

	TrickSpin int `json:"trickSpin"` // -1, 0, +1 - spin input around vertical
	TrickFlip int `json:"trickFlip"` // -1, 0, +1 - flip input around horizontal
}

// InputDeadzone filters analog stick noise near center.
const InputDeadzone = 0.08

// Normalize clamps axes to [-1,1], applies the deadzone and caps the
// movement vector magnitude at 1 so diagonals are not faster.
func (in InputState) Normalize() InputState {
	in.MoveX = applyDeadzone(clampAxis(in.MoveX))
	in.MoveZ = applyDeadzone(clampAxis(in.MoveZ))
	in.AimY = applyDeadzone(clampAxis(in.AimY))

	if mag := math.Hypot(in.MoveX, in.MoveZ); mag > 1 {
		in.MoveX /= mag
		in.MoveZ /= mag
	}

	in.TrickSpin = clampDir(in.TrickSpin)
	in.TrickFlip = clampDir(in.TrickFlip)
	return in
}

func clampAxis(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-1, math.Min(1, v))
}

func applyDeadzone(v float64) float64 {
	if math.Abs(v) < InputDeadzone {
		return 0
	}
	return v
}

func clampDir(d int) int {
	if d > 0 {
		return 1
	}
	if d < 0 {
		return -1
	}
	return 0
}
