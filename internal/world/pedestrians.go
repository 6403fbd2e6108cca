package world

import (
	"math"
	"math/rand"

	"pizza-rush/internal/config"
)

const (
	pedSpeed    = 1.4 // Walking pace, m/s
	pedRadius   = 0.4
	pedHeight   = 1.8
	pedWanderIn = 4.0
)

// Pedestrian wanders the sidewalks. Soft obstacle: hitting one damps the
// board instead of bouncing it.
type Pedestrian struct {
	X, Z       float64
	Yaw        float64
	retargetIn float64
}

// Bounds returns the pedestrian's collision box.
func (p *Pedestrian) Bounds() (minX, maxX, minZ, maxZ, minY, maxY float64) {
	return p.X - pedRadius, p.X + pedRadius,
		p.Z - pedRadius, p.Z + pedRadius,
		0, pedHeight
}

// Crowd manages the pedestrian population.
type Crowd struct {
	cfg    config.WorldConfig
	limits config.ResourceLimits
	rng    *rand.Rand
	peds   []Pedestrian
}

func NewCrowd(cfg config.WorldConfig, limits config.ResourceLimits, rng *rand.Rand) *Crowd {
	return &Crowd{cfg: cfg, limits: limits, rng: rng}
}

// Pedestrians returns the live population. Valid until the next Update.
func (c *Crowd) Pedestrians() []Pedestrian {
	return c.peds
}

// Update walks every pedestrian, retargets wanderers, and maintains the
// population around the player.
func (c *Crowd) Update(dt, playerX, playerZ float64) {
	alive := c.peds[:0]
	for i := range c.peds {
		p := &c.peds[i]

		p.retargetIn -= dt
		if p.retargetIn <= 0 {
			p.retargetIn = pedWanderIn + c.rng.Float64()*pedWanderIn
			p.Yaw += (c.rng.Float64() - 0.5) * math.Pi
		}

		p.X += math.Sin(p.Yaw) * pedSpeed * dt
		p.Z += math.Cos(p.Yaw) * pedSpeed * dt

		if dist2(p.X, p.Z, playerX, playerZ) <= c.cfg.CullRadius*c.cfg.CullRadius {
			alive = append(alive, *p)
		}
	}
	c.peds = alive

	for len(c.peds) < c.limits.MaxPedestrians {
		c.spawnNear(playerX, playerZ)
	}
}

func (c *Crowd) spawnNear(playerX, playerZ float64) {
	ang := c.rng.Float64() * 2 * math.Pi
	dist := 25 + c.rng.Float64()*(c.cfg.SpawnRadius-25)
	c.peds = append(c.peds, Pedestrian{
		X:   playerX + math.Cos(ang)*dist,
		Z:   playerZ + math.Sin(ang)*dist,
		Yaw: c.rng.Float64() * 2 * math.Pi,
	})
}
