package world

import (
	"math"
	"math/rand"

	"pizza-rush/internal/config"
	"pizza-rush/internal/level"
)

// Car half-extents for collision; cars are low and long.
const (
	carHalfWidth  = 1.1
	carHalfLength = 2.2
	carHeight     = 1.6
)

// Car drives along a road polyline and turns around at the ends.
type Car struct {
	X, Z    float64
	Yaw     float64
	Speed   float64
	road    int
	seg     int
	t       float64 // 0..1 along current segment
	forward bool
}

// Bounds returns the car's collision box. Axis-aligned, but the long side
// follows the dominant travel axis so a car isn't as wide as it is long.
func (c *Car) Bounds() (minX, maxX, minZ, maxZ, minY, maxY float64) {
	hx, hz := carHalfWidth, carHalfLength // Facing +Z at yaw 0
	if math.Abs(math.Sin(c.Yaw)) > math.Abs(math.Cos(c.Yaw)) {
		hx, hz = carHalfLength, carHalfWidth
	}
	return c.X - hx, c.X + hx, c.Z - hz, c.Z + hz, 0, carHeight
}

// Traffic manages the ambient car population. Cars spawn on roads near
// the player and are culled once they drift outside the cull radius.
type Traffic struct {
	cfg    config.WorldConfig
	limits config.ResourceLimits
	rng    *rand.Rand
	roads  []level.Road
	cars   []Car
}

func NewTraffic(cfg config.WorldConfig, limits config.ResourceLimits, rng *rand.Rand) *Traffic {
	return &Traffic{cfg: cfg, limits: limits, rng: rng}
}

// SetRoads replaces the road network and resets all cars (the old
// polyline indices no longer mean anything).
func (t *Traffic) SetRoads(roads []level.Road) {
	t.roads = roads
	t.cars = t.cars[:0]
}

// Cars returns the live population. Valid until the next Update.
func (t *Traffic) Cars() []Car {
	return t.cars
}

// Update advances every car and maintains the population around the
// player. In-place filter for culling, no allocation.
func (t *Traffic) Update(dt, playerX, playerZ float64) {
	alive := t.cars[:0]
	for i := range t.cars {
		c := &t.cars[i]
		t.advance(c, dt)
		if dist2(c.X, c.Z, playerX, playerZ) <= t.cfg.CullRadius*t.cfg.CullRadius {
			alive = append(alive, *c)
		}
	}
	t.cars = alive

	for len(t.cars) < t.limits.MaxCars {
		if !t.spawnNear(playerX, playerZ) {
			break
		}
	}
}

// advance moves a car along its polyline, flipping direction at the ends.
func (t *Traffic) advance(c *Car, dt float64) {
	if c.road >= len(t.roads) {
		return
	}
	pts := t.roads[c.road].Points

	ax, az := pts[c.seg][0], pts[c.seg][1]
	bx, bz := pts[c.seg+1][0], pts[c.seg+1][1]
	segLen := math.Hypot(bx-ax, bz-az)
	if segLen < 1e-6 {
		return
	}

	step := c.Speed * dt / segLen
	if c.forward {
		c.t += step
	} else {
		c.t -= step
	}

	// Roll over to the next segment, or turn around at the polyline end
	for c.t > 1 || c.t < 0 {
		if c.t > 1 {
			c.t -= 1
			c.seg++
			if c.seg >= len(pts)-1 {
				c.seg = len(pts) - 2
				c.forward = false
				c.t = 1
			}
		} else {
			c.t += 1
			c.seg--
			if c.seg < 0 {
				c.seg = 0
				c.forward = true
				c.t = 0
			}
		}
		ax, az = pts[c.seg][0], pts[c.seg][1]
		bx, bz = pts[c.seg+1][0], pts[c.seg+1][1]
	}

	c.X = ax + (bx-ax)*c.t
	c.Z = az + (bz-az)*c.t
	if c.forward {
		c.Yaw = math.Atan2(bx-ax, bz-az)
	} else {
		c.Yaw = math.Atan2(ax-bx, az-bz)
	}
}

// spawnNear places a car on a random road point inside the spawn radius
// but outside immediate view distance. Returns false when no road
// qualifies (tiny levels).
func (t *Traffic) spawnNear(playerX, playerZ float64) bool {
	if len(t.roads) == 0 {
		return false
	}
	for attempt := 0; attempt < 8; attempt++ {
		road := t.rng.Intn(len(t.roads))
		pts := t.roads[road].Points
		if len(pts) < 2 {
			continue
		}
		seg := t.rng.Intn(len(pts) - 1)
		frac := t.rng.Float64()
		x := pts[seg][0] + (pts[seg+1][0]-pts[seg][0])*frac
		z := pts[seg][1] + (pts[seg+1][1]-pts[seg][1])*frac

		d2 := dist2(x, z, playerX, playerZ)
		if d2 > t.cfg.SpawnRadius*t.cfg.SpawnRadius || d2 < 20*20 {
			continue
		}

		t.cars = append(t.cars, Car{
			X: x, Z: z,
			Speed:   6 + t.rng.Float64()*8,
			road:    road,
			seg:     seg,
			t:       frac,
			forward: t.rng.Intn(2) == 0,
		})
		return true
	}
	return false
}

func dist2(ax, az, bx, bz float64) float64 {
	dx, dz := ax-bx, az-bz
	return dx*dx + dz*dz
}
