package game

import (
	"math"
	"math/rand"

	"pizza-rush/internal/config"
	"pizza-rush/internal/game/spatial"
)

// GroundState is the integrator's movement state machine.
type GroundState int

const (
	StateGrounded GroundState = iota
	StateAirborneJump
	StateFlight
	StatePostFlightFall
)

// String returns a human-readable state name.
func (s GroundState) String() string {
	switch s {
	case StateGrounded:
		return "grounded"
	case StateAirborneJump:
		return "airborne"
	case StateFlight:
		return "flight"
	case StatePostFlightFall:
		return "post_flight_fall"
	default:
		return "unknown"
	}
}

// ObstacleKind classifies dynamic obstacles for per-type collision response.
type ObstacleKind uint8

const (
	ObstacleCar ObstacleKind = iota
	ObstacleDrone
	ObstaclePedestrian
)

// String returns a human-readable obstacle kind.
func (k ObstacleKind) String() string {
	switch k {
	case ObstacleCar:
		return "car"
	case ObstacleDrone:
		return "drone"
	case ObstaclePedestrian:
		return "pedestrian"
	default:
		return "unknown"
	}
}

// DynamicObstacle is a transient collision volume supplied fresh every tick
// by the world population managers. Not cached anywhere - the slice handed
// to SetObstacles is only valid for the current tick.
type DynamicObstacle struct {
	Kind       ObstacleKind
	MinX, MaxX float64
	MinZ, MaxZ float64
	MinY, MaxY float64 // Vertical band (drones fly, cars sit near ground)
}

// fallOutY is the kill plane. Below this the player is off the map and
// gets respawned after a short delay.
const fallOutY = -60.0

// respawnDelay in seconds between falling out and reappearing at spawn.
const respawnDelay = 1.0

// Physics owns the player's kinematic state and advances it once per tick.
// Position, velocity, charge and flight energy are mutated ONLY here; every
// other subsystem reads them through the snapshot.
type Physics struct {
	cfg config.PhysicsConfig
	bus *Bus
	rng *rand.Rand

	// Kinematic state
	X, Y, Z    float64
	VX, VY, VZ float64
	State      GroundState

	// Height of whatever the player can stand on at the current position
	// (0 for the street, a roof height on top of a building).
	GroundHeight float64

	// Resources
	Charge       float64 // 0..1, fills with speed
	FlightEnergy float64 // Seconds of flight remaining
	Boosting     bool

	// Speed cap scale from outside systems (BULK deliveries slow the player,
	// upgrades raise MaxSpeed via the config instead).
	SpeedScale float64

	boostRemaining   float64
	nearMissCooldown float64
	respawnTimer     float64
	chargeFired      [4]bool // One-shot latches for the 25/50/75/100% events

	spawnX, spawnY, spawnZ float64

	buildings []spatial.AABB
	grid      *spatial.BuildingGrid
	obstacles []DynamicObstacle

	tick uint64

	// Last good state for NaN recovery
	lastX, lastY, lastZ float64
}

var chargeThresholds = [4]float64{0.25, 0.5, 0.75, 1.0}

// NewPhysics creates an integrator at the given spawn point.
func NewPhysics(cfg config.PhysicsConfig, cellSize float64, bus *Bus, rng *rand.Rand) *Physics {
	return &Physics{
		cfg:          cfg,
		bus:          bus,
		rng:          rng,
		grid:         spatial.NewBuildingGrid(cellSize),
		State:        StateGrounded,
		FlightEnergy: cfg.FlightMaxEnergy,
		SpeedScale:   1.0,
	}
}

// SetSpawn moves the spawn point and teleports the player there at rest.
func (p *Physics) SetSpawn(x, y, z float64) {
	p.spawnX, p.spawnY, p.spawnZ = x, y, z
	p.respawn()
}

// SetBuildings replaces the static building set and rebuilds the collision
// grid. Called on level load and editor changes - never per frame.
func (p *Physics) SetBuildings(bounds []spatial.AABB) {
	p.buildings = bounds
	p.grid.Rebuild(bounds)
}

// SetObstacles hands the integrator this tick's dynamic obstacle volumes.
// The slice is read during the next Step only.
func (p *Physics) SetObstacles(obs []DynamicObstacle) {
	p.obstacles = obs
}

// SetConfig swaps the tuning (upgrade purchases raise MaxSpeed etc.).
func (p *Physics) SetConfig(cfg config.PhysicsConfig) {
	p.cfg = cfg
	if p.FlightEnergy > cfg.FlightMaxEnergy {
		p.FlightEnergy = cfg.FlightMaxEnergy
	}
}

// Config returns the active tuning.
func (p *Physics) Config() config.PhysicsConfig {
	return p.cfg
}

// Speed returns the current horizontal speed.
func (p *Physics) Speed() float64 {
	return math.Hypot(p.VX, p.VZ)
}

// Grounded reports whether the state machine considers the player on the ground.
func (p *Physics) Grounded() bool {
	return p.State == StateGrounded
}

// Airborne reports whether the player is in any airborne state.
func (p *Physics) Airborne() bool {
	return p.State != StateGrounded
}

// Step advances the integrator by dt seconds. yaw is the player's current
// heading (from the aim kinematics); movement input is interpreted relative
// to it. Invalid dt (NaN, negative) is dropped, oversized dt is clamped -
// the original integrator propagated these silently, which is the one
// correctness gap this port closes.
func (p *Physics) Step(in InputState, yaw float64, dt float64) {
	if math.IsNaN(dt) || dt <= 0 {
		return
	}
	if dt > p.cfg.MaxDeltaTime {
		dt = p.cfg.MaxDeltaTime
	}
	p.tick++

	// Respawn countdown after falling off the map
	if p.respawnTimer > 0 {
		p.respawnTimer -= dt
		if p.respawnTimer <= 0 {
			p.respawn()
		}
		return
	}

	p.lastX, p.lastY, p.lastZ = p.X, p.Y, p.Z

	if p.boostRemaining > 0 {
		p.boostRemaining -= dt
		if p.boostRemaining <= 0 {
			p.Boosting = false
		}
	}
	if p.nearMissCooldown > 0 {
		p.nearMissCooldown -= dt
	}

	p.stepHorizontal(in, yaw, dt)
	p.stepActions(in)
	p.stepVertical(in, dt)

	// Integrate
	p.X += p.VX * dt
	p.Y += p.VY * dt
	p.Z += p.VZ * dt

	p.collideBuildings()
	p.collideObstacles(dt)

	// Hard world boundary
	he := p.cfg.WorldHalfExtent
	p.X = math.Max(-he, math.Min(he, p.X))
	p.Z = math.Max(-he, math.Min(he, p.Z))

	p.updateGroundHeight()
	p.stepGroundState()
	p.stepCharge(dt)

	// Flight energy recharges only with ground contact
	if p.State == StateGrounded && p.FlightEnergy < p.cfg.FlightMaxEnergy {
		p.FlightEnergy = math.Min(p.cfg.FlightMaxEnergy, p.FlightEnergy+p.cfg.FlightRecharge*dt)
	}

	// Fell off the map
	if p.Y < fallOutY {
		p.respawnTimer = respawnDelay
		p.bus.Emit(EventTypeHint, p.tick, "physics", HintPayload{Text: "Watch that last step!", TTL: 3})
		return
	}

	// NaN recovery: a bad input or degenerate pushback must not poison the
	// whole session. Roll back to the last good position at rest.
	if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsNaN(p.Z) ||
		math.IsNaN(p.VX) || math.IsNaN(p.VY) || math.IsNaN(p.VZ) {
		p.X, p.Y, p.Z = p.lastX, p.lastY, p.lastZ
		p.VX, p.VY, p.VZ = 0, 0, 0
	}
}

// stepHorizontal applies acceleration toward the wish direction and friction.
func (p *Physics) stepHorizontal(in InputState, yaw float64, dt float64) {
	sinY, cosY := math.Sin(yaw), math.Cos(yaw)

	// Rotate stick input into world space: +Z is forward at yaw 0
	wishX := cosY*in.MoveX + sinY*in.MoveZ
	wishZ := -sinY*in.MoveX + cosY*in.MoveZ

	if wishX != 0 || wishZ != 0 {
		p.VX += wishX * p.cfg.Accel * dt
		p.VZ += wishZ * p.cfg.Accel * dt
	} else {
		// Friction only without input - the board coasts
		damp := 1.0 - p.cfg.Friction*dt
		if damp < 0 {
			damp = 0
		}
		p.VX *= damp
		p.VZ *= damp
	}

	// Clamp to the effective speed cap
	maxSpeed := p.cfg.MaxSpeed * p.SpeedScale
	if p.Boosting {
		maxSpeed *= p.cfg.BoostSpeedMult
	}
	if speed := p.Speed(); speed > maxSpeed {
		p.VX = p.VX / speed * maxSpeed
		p.VZ = p.VZ / speed * maxSpeed
	}
}

// stepActions handles the jump and boost/flight edges.
func (p *Physics) stepActions(in InputState) {
	if in.Jump && p.State == StateGrounded {
		p.VY = p.cfg.JumpVelocity
		p.State = StateAirborneJump
		p.bus.Emit(EventTypeJump, p.tick, "physics", nil)
	}

	// Boost requires a full charge. With flight energy in the tank the
	// charge buys flight; without it, a ground speed burst. Exactly one
	// of the two events fires, and the charge is consumed either way.
	if in.Boost && p.Charge >= 1.0 {
		p.Charge = 0
		p.chargeFired = [4]bool{}

		if p.FlightEnergy > 0.05 {
			p.State = StateFlight
			if p.VY < 2 {
				p.VY = 2 // Lift off even from a standstill
			}
			p.bus.Emit(EventTypeFlightStart, p.tick, "physics", nil)
		} else {
			p.Boosting = true
			p.boostRemaining = p.cfg.BoostDuration
			p.bus.Emit(EventTypeBoostUsed, p.tick, "physics", nil)
		}
	}
}

// stepVertical applies gravity/thrust depending on the movement state.
func (p *Physics) stepVertical(in InputState, dt float64) {
	switch p.State {
	case StateGrounded:
		// Y is pinned to the ground in stepGroundState

	case StateFlight:
		p.FlightEnergy -= p.cfg.FlightDrain * dt
		if p.FlightEnergy <= 0 {
			p.FlightEnergy = 0
			p.State = StatePostFlightFall
			p.bus.Emit(EventTypeFlightEnd, p.tick, "physics", nil)
			break
		}
		if in.JumpHeld {
			p.VY += p.cfg.FlightThrust * dt
		}
		p.VY -= p.cfg.FlightGravity * dt

	default: // AirborneJump, PostFlightFall
		p.VY -= p.cfg.Gravity * dt
	}
}

// collideBuildings resolves wall contacts via closest-point pushback using
// the 3x3 cell neighborhood, and zeroes downward velocity on roof contact.
func (p *Physics) collideBuildings() {
	radius := p.cfg.PlayerRadius

	for _, idx := range p.grid.QueryNeighborhood(p.X, p.Z) {
		b := p.buildings[idx]

		// Crossed the roof plane while falling this tick: snap onto the
		// roof. A fast fall covers more than a tick of height, so the
		// plain height check below would see the board inside the wall
		// and fling it sideways instead of landing it. VY is left for
		// stepGroundState to convert into the landing impact.
		if p.VY <= 0 && b.Contains(p.X, p.Z) &&
			p.lastY-p.cfg.RideHeight >= b.Height &&
			p.Y-p.cfg.RideHeight < b.Height {
			p.Y = b.Height + p.cfg.RideHeight
			continue
		}

		// Above the roof: vertical handling only (updateGroundHeight picks
		// it up as standable ground). No wall pushback from up here.
		if p.Y-p.cfg.RideHeight >= b.Height {
			continue
		}

		cx, cz := b.ClosestPoint(p.X, p.Z)
		dx := p.X - cx
		dz := p.Z - cz
		distSq := dx*dx + dz*dz

		if distSq >= radius*radius {
			continue
		}

		speed := p.Speed()

		if distSq > 1e-9 {
			dist := math.Sqrt(distSq)
			// Push out along the penetration normal
			push := radius - dist
			p.X += dx / dist * push
			p.Z += dz / dist * push

			// Kill the velocity component into the wall
			dot := p.VX*dx/dist + p.VZ*dz/dist
			if dot < 0 {
				p.VX -= dx / dist * dot
				p.VZ -= dz / dist * dot
			}
		} else {
			// Center inside the footprint: eject through the nearest face
			p.ejectFromFootprint(b, radius)
		}

		if speed > 2 {
			p.bus.Emit(EventTypeCollision, p.tick, "physics",
				CollisionPayload{Obstacle: "building", Speed: speed})
		}
	}
}

// ejectFromFootprint pushes the player out through the nearest AABB face.
// Only reachable when a teleport or a huge dt lands the center inside a wall.
func (p *Physics) ejectFromFootprint(b spatial.AABB, radius float64) {
	dists := [4]float64{p.X - b.MinX, b.MaxX - p.X, p.Z - b.MinZ, b.MaxZ - p.Z}
	best := 0
	for i := 1; i < 4; i++ {
		if dists[i] < dists[best] {
			best = i
		}
	}
	switch best {
	case 0:
		p.X = b.MinX - radius
	case 1:
		p.X = b.MaxX + radius
	case 2:
		p.Z = b.MinZ - radius
	case 3:
		p.Z = b.MaxZ + radius
	}
	p.VX, p.VZ = 0, 0
}

// collideObstacles resolves contacts with this tick's dynamic volumes.
// Each kind keeps its own tuned response - these are feel heuristics, not
// a contact solver.
func (p *Physics) collideObstacles(dt float64) {
	radius := p.cfg.PlayerRadius

	for i := range p.obstacles {
		o := &p.obstacles[i]

		// Vertical band check first - drones overhead don't clip the board
		if p.Y < o.MinY-radius || p.Y > o.MaxY+radius {
			continue
		}

		cx := math.Max(o.MinX, math.Min(o.MaxX, p.X))
		cz := math.Max(o.MinZ, math.Min(o.MaxZ, p.Z))
		dx := p.X - cx
		dz := p.Z - cz
		dist := math.Hypot(dx, dz)

		if dist >= radius {
			// Near miss band: close to a car but never touching it
			if o.Kind == ObstacleCar && dist < p.cfg.NearMissRadius &&
				p.nearMissCooldown <= 0 && p.Speed() > p.cfg.ChargeMoveThreshold {
				p.grantNearMiss(dist)
			}
			continue
		}

		// Normalized penetration normal (fall back to velocity direction
		// when the center is exactly on the surface)
		nx, nz := dx, dz
		if dist > 1e-9 {
			nx /= dist
			nz /= dist
		} else if speed := p.Speed(); speed > 0 {
			nx, nz = -p.VX/speed, -p.VZ/speed
		} else {
			nx, nz = 1, 0
		}

		push := radius - dist
		p.X += nx * push
		p.Z += nz * push

		speed := p.Speed()
		switch o.Kind {
		case ObstacleCar:
			// Cars bounce the player back hard
			p.VX = nx * speed * p.cfg.CarBounce
			p.VZ = nz * speed * p.cfg.CarBounce

		case ObstacleDrone:
			// Drones knock the board around on all three axes
			imp := p.cfg.DroneImpulse
			p.VX += (p.rng.Float64()*2 - 1) * imp
			p.VZ += (p.rng.Float64()*2 - 1) * imp
			p.VY += p.rng.Float64() * imp * 0.5

		case ObstaclePedestrian:
			// Pedestrians just slow the player down
			p.VX *= p.cfg.PedestrianDamping
			p.VZ *= p.cfg.PedestrianDamping
		}

		p.bus.Emit(EventTypeCollision, p.tick, "physics",
			CollisionPayload{Obstacle: o.Kind.String(), Speed: speed})
	}
}

// grantNearMiss awards the charge bonus for shaving past a car.
func (p *Physics) grantNearMiss(dist float64) {
	p.nearMissCooldown = p.cfg.NearMissCooldown
	before := p.Charge
	p.Charge = math.Min(1, p.Charge+p.cfg.NearMissBonus)
	p.fireChargeThresholds(before)
	p.bus.Emit(EventTypeNearMiss, p.tick, "physics",
		NearMissPayload{Distance: dist, Bonus: p.cfg.NearMissBonus})
}

// updateGroundHeight computes the standable height under the player:
// the tallest roof whose footprint contains the position and which the
// player is above, else the street at 0.
func (p *Physics) updateGroundHeight() {
	ground := 0.0
	for _, idx := range p.grid.QueryNeighborhood(p.X, p.Z) {
		b := p.buildings[idx]
		if !b.Contains(p.X, p.Z) {
			continue
		}
		if p.Y-p.cfg.RideHeight >= b.Height-1e-6 && b.Height > ground {
			ground = b.Height
		}
	}
	p.GroundHeight = ground
}

// stepGroundState runs the grounded/airborne hysteresis. Heights below
// GroundSnap are definitely grounded, above AirborneMin definitely airborne;
// the dead zone in between preserves the prior state so the flag doesn't
// flicker on bumpy geometry.
func (p *Physics) stepGroundState() {
	height := p.Y - p.cfg.RideHeight - p.GroundHeight

	switch {
	case height <= p.cfg.GroundSnap:
		if p.State != StateGrounded && p.VY <= 0 {
			impact := -p.VY
			p.State = StateGrounded
			p.VY = 0
			p.Y = p.GroundHeight + p.cfg.RideHeight
			p.bus.Emit(EventTypeLandingImpact, p.tick, "physics",
				LandingImpactPayload{ImpactSpeed: impact, X: p.X, Z: p.Z})
		} else if p.State == StateGrounded {
			p.VY = 0
			p.Y = p.GroundHeight + p.cfg.RideHeight
		}

	case height >= p.cfg.AirborneMin:
		if p.State == StateGrounded {
			// Walked off an edge: airborne without a jump event
			p.State = StateAirborneJump
		}

	default:
		// Dead zone: keep prior state
	}
}

// stepCharge accumulates charge from speed, decays it at rest, and fires
// the one-shot threshold events.
func (p *Physics) stepCharge(dt float64) {
	before := p.Charge
	speed := p.Speed()

	if speed > p.cfg.ChargeMoveThreshold {
		ratio := speed / p.cfg.MaxSpeed
		if ratio > 1 {
			ratio = 1
		}
		p.Charge += p.cfg.ChargeRate * ratio * dt
	} else {
		p.Charge -= p.cfg.ChargeDecay * dt
	}

	// Invariant: clamped every frame, whatever happened above
	p.Charge = math.Max(0, math.Min(1, p.Charge))

	p.fireChargeThresholds(before)

	// Re-arm thresholds the charge has fallen back below
	for i, th := range chargeThresholds {
		if p.Charge < th {
			p.chargeFired[i] = false
		}
	}
}

// fireChargeThresholds emits one event per threshold crossed upward since
// the last firing, in increasing order.
func (p *Physics) fireChargeThresholds(before float64) {
	for i, th := range chargeThresholds {
		if !p.chargeFired[i] && before < th && p.Charge >= th {
			p.chargeFired[i] = true
			p.bus.Emit(EventTypeChargeThreshold, p.tick, "physics",
				ChargeThresholdPayload{Threshold: th, Charge: p.Charge})
		}
	}
}

func (p *Physics) respawn() {
	p.X, p.Y, p.Z = p.spawnX, p.spawnY, p.spawnZ
	p.VX, p.VY, p.VZ = 0, 0, 0
	p.State = StateGrounded
	p.GroundHeight = 0
	p.Boosting = false
	p.boostRemaining = 0
	p.respawnTimer = 0
}
