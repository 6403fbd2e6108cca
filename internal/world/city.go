// Package world populates the city: static buildings and roads plus the
// ambient traffic, drones, and pedestrians that the physics treats as
// obstacles. Everything is seeded so the same seed reproduces the same
// city and the same ambient life.
package world

import (
	"fmt"
	"math/rand"

	"pizza-rush/internal/config"
	"pizza-rush/internal/game/spatial"
	"pizza-rush/internal/level"
)

// buildingPalette mirrors a dusk city: muted walls, occasional neon.
var buildingPalette = []string{
	"#8a7f6d", "#6d7a8a", "#7d6d8a", "#8a6d6d",
	"#5f6b57", "#4a5568", "#9a8f7d", "#3d4b5c",
}

// City is the static level content plus the derived gameplay points.
type City struct {
	Buildings    []level.Building
	Roads        []level.Road
	Spawn        [3]float64
	Pizzeria     [2]float64   // Pickup point
	Destinations [][2]float64 // Delivery doorsteps
}

// Generate builds a procedural city: a CityBlocks x CityBlocks grid of
// blocks separated by streets, buildings filling each block, roads laid
// along every street line. Deterministic for a given seed.
func Generate(cfg config.WorldConfig, limits config.ResourceLimits, seed int64) *City {
	rng := rand.New(rand.NewSource(seed))
	c := &City{}

	pitch := cfg.BlockSize + cfg.StreetWidth
	half := float64(cfg.CityBlocks) * pitch / 2

	// Roads: one polyline per street line, both axes
	for i := 0; i <= cfg.CityBlocks; i++ {
		p := -half + float64(i)*pitch - cfg.StreetWidth/2
		c.Roads = append(c.Roads,
			level.Road{Points: [][2]float64{{p, -half}, {p, half}}, Width: cfg.StreetWidth},
			level.Road{Points: [][2]float64{{-half, p}, {half, p}}, Width: cfg.StreetWidth},
		)
		if len(c.Roads) >= limits.MaxRoads {
			break
		}
	}

	// Buildings: 2-4 per block, skipping the center block (pizzeria plaza)
	center := cfg.CityBlocks / 2
	for bx := 0; bx < cfg.CityBlocks; bx++ {
		for bz := 0; bz < cfg.CityBlocks; bz++ {
			if bx == center && bz == center {
				continue
			}
			originX := -half + float64(bx)*pitch
			originZ := -half + float64(bz)*pitch
			n := 2 + rng.Intn(3)
			for i := 0; i < n && len(c.Buildings) < limits.MaxBuildings; i++ {
				w := 6 + rng.Float64()*(cfg.BlockSize/2-6)
				d := 6 + rng.Float64()*(cfg.BlockSize/2-6)
				h := 8 + rng.Float64()*32
				x := originX + w/2 + rng.Float64()*(cfg.BlockSize-w)
				z := originZ + d/2 + rng.Float64()*(cfg.BlockSize-d)
				c.Buildings = append(c.Buildings, level.Building{
					Shape:     "box",
					Position:  [3]float64{x, 0, z},
					Scale:     [3]float64{w, h, d},
					Color:     buildingPalette[rng.Intn(len(buildingPalette))],
					Collision: true,
				})
			}
		}
	}

	// Pizzeria plaza at world center, spawn just beside it
	c.Pizzeria = [2]float64{0, 0}
	c.Spawn = [3]float64{0, 1, cfg.BlockSize / 2}
	c.rebuildDestinations(rng)

	return c
}

// FromLevel rebuilds city content from an edited level. Gameplay points
// are re-derived so hand-built levels get deliveries too.
func FromLevel(l *level.Level, seed int64) *City {
	c := &City{
		Buildings: append([]level.Building(nil), l.Buildings...),
		Roads:     append([]level.Road(nil), l.Roads...),
		Spawn:     l.Spawn,
		Pizzeria:  [2]float64{l.Spawn[0], l.Spawn[2]},
	}
	c.rebuildDestinations(rand.New(rand.NewSource(seed)))
	return c
}

// ToLevel exports the city as a persistable level.
func (c *City) ToLevel(name string) *level.Level {
	l := level.New(name)
	l.Spawn = c.Spawn
	l.Buildings = append([]level.Building(nil), c.Buildings...)
	l.Roads = append([]level.Road(nil), c.Roads...)
	return l
}

// CollisionBoxes returns AABBs for every solid building. Rotation is
// ignored for collision - boxes stay axis-aligned.
func (c *City) CollisionBoxes() []spatial.AABB {
	boxes := make([]spatial.AABB, 0, len(c.Buildings))
	for _, b := range c.Buildings {
		if !b.Collision {
			continue
		}
		boxes = append(boxes, spatial.AABB{
			MinX:   b.Position[0] - b.Scale[0]/2,
			MaxX:   b.Position[0] + b.Scale[0]/2,
			MinZ:   b.Position[2] - b.Scale[2]/2,
			MaxZ:   b.Position[2] + b.Scale[2]/2,
			Height: b.Position[1] + b.Scale[1],
		})
	}
	return boxes
}

// rebuildDestinations picks doorstep points in front of a sample of
// buildings. Every city gets at least one destination even if empty.
func (c *City) rebuildDestinations(rng *rand.Rand) {
	c.Destinations = c.Destinations[:0]
	for i, b := range c.Buildings {
		if i%4 != 0 { // Every 4th building takes orders
			continue
		}
		// Doorstep just outside the -Z face
		c.Destinations = append(c.Destinations, [2]float64{
			b.Position[0],
			b.Position[2] - b.Scale[2]/2 - 3,
		})
	}
	if len(c.Destinations) == 0 {
		c.Destinations = append(c.Destinations, [2]float64{
			c.Pizzeria[0] + 30 + rng.Float64()*20,
			c.Pizzeria[1],
		})
	}
}

// Describe returns a one-line summary for logs and the level CLI.
func (c *City) Describe() string {
	return fmt.Sprintf("%d buildings, %d roads, %d destinations",
		len(c.Buildings), len(c.Roads), len(c.Destinations))
}
