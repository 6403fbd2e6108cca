package world

import (
	"math"
	"math/rand"

	"pizza-rush/internal/config"
)

// Drones patrol an altitude band above street level. Wind pushes them
// around, which is what makes them chaotic obstacles during flight.
const (
	droneAltMin  = 8.0
	droneAltMax  = 26.0
	droneRadius  = 0.8
	droneMaxVel  = 7.0
	droneSteerIn = 2.5 // Seconds between wander retargets
)

// Drone is one patrolling unit.
type Drone struct {
	X, Y, Z    float64
	VX, VY, VZ float64
	retargetIn float64
}

// Bounds returns the drone's collision box.
func (d *Drone) Bounds() (minX, maxX, minZ, maxZ, minY, maxY float64) {
	return d.X - droneRadius, d.X + droneRadius,
		d.Z - droneRadius, d.Z + droneRadius,
		d.Y - droneRadius, d.Y + droneRadius
}

// DroneSwarm manages the drone population.
type DroneSwarm struct {
	cfg    config.WorldConfig
	limits config.ResourceLimits
	rng    *rand.Rand
	drones []Drone
}

func NewDroneSwarm(cfg config.WorldConfig, limits config.ResourceLimits, rng *rand.Rand) *DroneSwarm {
	return &DroneSwarm{cfg: cfg, limits: limits, rng: rng}
}

// Drones returns the live population. Valid until the next Update.
func (s *DroneSwarm) Drones() []Drone {
	return s.drones
}

// Update steers every drone toward a wander target plus wind drift,
// keeps the population topped up near the player, and culls strays.
func (s *DroneSwarm) Update(dt, playerX, playerZ, windX, windZ float64) {
	alive := s.drones[:0]
	for i := range s.drones {
		d := &s.drones[i]

		d.retargetIn -= dt
		if d.retargetIn <= 0 {
			d.retargetIn = droneSteerIn + s.rng.Float64()*droneSteerIn
			ang := s.rng.Float64() * 2 * math.Pi
			d.VX = math.Cos(ang) * (2 + s.rng.Float64()*4)
			d.VZ = math.Sin(ang) * (2 + s.rng.Float64()*4)
			d.VY = (s.rng.Float64() - 0.5) * 3
		}

		d.X += (d.VX + windX) * dt
		d.Z += (d.VZ + windZ) * dt
		d.Y += d.VY * dt

		// Bounce off the altitude band edges
		if d.Y < droneAltMin {
			d.Y = droneAltMin
			d.VY = math.Abs(d.VY)
		} else if d.Y > droneAltMax {
			d.Y = droneAltMax
			d.VY = -math.Abs(d.VY)
		}

		if dist2(d.X, d.Z, playerX, playerZ) <= s.cfg.CullRadius*s.cfg.CullRadius {
			alive = append(alive, *d)
		}
	}
	s.drones = alive

	for len(s.drones) < s.limits.MaxDrones {
		s.spawnNear(playerX, playerZ)
	}
}

func (s *DroneSwarm) spawnNear(playerX, playerZ float64) {
	ang := s.rng.Float64() * 2 * math.Pi
	dist := 40 + s.rng.Float64()*(s.cfg.SpawnRadius-40)
	s.drones = append(s.drones, Drone{
		X: playerX + math.Cos(ang)*dist,
		Z: playerZ + math.Sin(ang)*dist,
		Y: droneAltMin + s.rng.Float64()*(droneAltMax-droneAltMin),
	})
}
