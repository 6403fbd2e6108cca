package game

import (
	"math"
	"math/rand"
)

// DeliveryType is a delivery category configuration.
type DeliveryType struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Weight     int     `json:"weight"`     // Spawn weighting
	TimeBudget float64 `json:"timeBudget"` // Seconds to deliver
	BasePay    int     `json:"basePay"`
	Emoji      string  `json:"emoji"`

	// Type quirks
	SpeedBonus  bool    `json:"speedBonus"`  // HOT: regains time while fast
	FragileFail bool    `json:"fragileFail"` // FRAGILE: hard collision drops it
	SpeedScale  float64 `json:"speedScale"`  // BULK: speed cap while carried (1 = none)
}

// DeliveryTypes is the table of all delivery categories.
// Weights sum to 100 for easy reading; they don't have to.
var DeliveryTypes = map[string]DeliveryType{
	"standard": {
		ID:         "standard",
		Name:       "Standard",
		Weight:     40,
		TimeBudget: 90,
		BasePay:    60,
		Emoji:      "🍕",
		SpeedScale: 1.0,
	},
	"hot": {
		ID:         "hot",
		Name:       "Extra Hot",
		Weight:     20,
		TimeBudget: 60,
		BasePay:    90,
		Emoji:      "🔥",
		SpeedBonus: true, // Keep the speed up and the clock slows down
		SpeedScale: 1.0,
	},
	"fragile": {
		ID:          "fragile",
		Name:        "Fragile Stack",
		Weight:      15,
		TimeBudget:  100,
		BasePay:     110,
		Emoji:       "🎂",
		FragileFail: true, // One hard hit and it's street food
		SpeedScale:  1.0,
	},
	"bulk": {
		ID:         "bulk",
		Name:       "Party Order",
		Weight:     15,
		TimeBudget: 120,
		BasePay:    130,
		Emoji:      "📦",
		SpeedScale: 0.8, // The crate is heavy
	},
	"express": {
		ID:         "express",
		Name:       "Express",
		Weight:     10,
		TimeBudget: 40,
		BasePay:    160,
		Emoji:      "⚡",
		SpeedScale: 1.0,
	},
}

// GetDeliveryType returns a delivery type by ID, defaults to standard.
func GetDeliveryType(id string) DeliveryType {
	if t, ok := DeliveryTypes[id]; ok {
		return t
	}
	return DeliveryTypes["standard"]
}

// Delivery is an active delivery record. Created on pickup, destroyed on
// completion, failure or timeout. At most one exists at a time.
type Delivery struct {
	Type       string  `json:"type"`
	DestX      float64 `json:"destX"`
	DestZ      float64 `json:"destZ"`
	Remaining  float64 `json:"remaining"`
	TimeBudget float64 `json:"timeBudget"`
}

const (
	// PickupRadius around the pizzeria that starts a delivery.
	PickupRadius = 6.0
	// DeliverRadius around the destination that completes one.
	DeliverRadius = 8.0

	// hotSpeedFraction of max speed above which HOT deliveries regain time.
	hotSpeedFraction = 0.7
	// hotRegainRate of seconds regained per second while fast.
	hotRegainRate = 0.5
	// fragileImpactSpeed above which a collision drops a FRAGILE delivery.
	fragileImpactSpeed = 10.0
)

// DeliveryManager runs the pickup/deliver loop. It reads the player
// position each tick and reacts to collision events off the bus.
type DeliveryManager struct {
	bus *Bus
	rng *rand.Rand

	active *Delivery
	streak int

	pickupX, pickupZ float64    // The pizzeria
	destinations     [][2]float64 // Candidate drop-off points from the world

	totalWeight int
	tick        uint64
}

// NewDeliveryManager creates the manager and hooks collision events.
func NewDeliveryManager(bus *Bus, rng *rand.Rand) *DeliveryManager {
	dm := &DeliveryManager{bus: bus, rng: rng}
	for _, t := range DeliveryTypes {
		dm.totalWeight += t.Weight
	}
	bus.Subscribe(EventTypeCollision, dm.onCollision)
	return dm
}

// SetPickupPoint places the pizzeria.
func (dm *DeliveryManager) SetPickupPoint(x, z float64) {
	dm.pickupX, dm.pickupZ = x, z
}

// SetDestinations replaces the candidate drop-off points (building
// doorsteps, supplied by the city generator or the loaded level).
func (dm *DeliveryManager) SetDestinations(points [][2]float64) {
	dm.destinations = points
}

// Active returns the current delivery, nil if none.
func (dm *DeliveryManager) Active() *Delivery {
	return dm.active
}

// Streak returns the current completion streak.
func (dm *DeliveryManager) Streak() int {
	return dm.streak
}

// SpeedScale returns the speed cap multiplier imposed by the active
// delivery (1.0 when idle or the type carries no penalty).
func (dm *DeliveryManager) SpeedScale() float64 {
	if dm.active == nil {
		return 1.0
	}
	return GetDeliveryType(dm.active.Type).SpeedScale
}

// Update advances the delivery loop by one tick.
func (dm *DeliveryManager) Update(playerX, playerZ, speed, maxSpeed float64, tick uint64, dt float64) {
	dm.tick = tick

	if dm.active == nil {
		// Idle: a visit to the pizzeria starts the next order
		if len(dm.destinations) > 0 && dist2D(playerX, playerZ, dm.pickupX, dm.pickupZ) <= PickupRadius {
			dm.pickup()
		}
		return
	}

	d := dm.active
	typ := GetDeliveryType(d.Type)

	// Time remaining decreases monotonically - except the HOT bonus,
	// which claws back time while the player keeps the pace up.
	d.Remaining -= dt
	if typ.SpeedBonus && maxSpeed > 0 && speed >= maxSpeed*hotSpeedFraction {
		d.Remaining += hotRegainRate * dt
		if d.Remaining > d.TimeBudget {
			d.Remaining = d.TimeBudget
		}
	}

	// Failure fires exactly when remaining crosses <= 0 without completion
	if d.Remaining <= 0 {
		dm.fail("timeout")
		return
	}

	if dist2D(playerX, playerZ, d.DestX, d.DestZ) <= DeliverRadius {
		dm.complete()
	}
}

// pickup creates a new delivery record with a weighted random type and a
// destination drawn from the candidate points.
func (dm *DeliveryManager) pickup() {
	typ := dm.rollType()
	dest := dm.destinations[dm.rng.Intn(len(dm.destinations))]

	dm.active = &Delivery{
		Type:       typ.ID,
		DestX:      dest[0],
		DestZ:      dest[1],
		Remaining:  typ.TimeBudget,
		TimeBudget: typ.TimeBudget,
	}

	dm.bus.Emit(EventTypePickup, dm.tick, "delivery", DeliveryPayload{
		Type:      typ.ID,
		DestX:     dest[0],
		DestZ:     dest[1],
		Remaining: typ.TimeBudget,
	})
	dm.bus.Emit(EventTypeHint, dm.tick, "delivery", HintPayload{
		Text: typ.Emoji + " " + typ.Name + " order - get moving!",
		TTL:  4,
	})
}

// rollType picks a delivery type by spawn weight.
func (dm *DeliveryManager) rollType() DeliveryType {
	roll := dm.rng.Intn(dm.totalWeight)
	// Map iteration order is random; walk a stable order instead
	for _, id := range []string{"standard", "hot", "fragile", "bulk", "express"} {
		t := DeliveryTypes[id]
		if roll < t.Weight {
			return t
		}
		roll -= t.Weight
	}
	return DeliveryTypes["standard"]
}

func (dm *DeliveryManager) complete() {
	d := dm.active
	typ := GetDeliveryType(d.Type)

	// Pay scales with time left on the clock, plus a streak sweetener
	timeBonus := 1.0 + d.Remaining/d.TimeBudget
	payout := int(float64(typ.BasePay) * timeBonus)
	payout += dm.streak * 5

	dm.streak++
	dm.active = nil

	dm.bus.Emit(EventTypeDeliveryComplete, dm.tick, "delivery", DeliveryPayload{
		Type:      typ.ID,
		DestX:     d.DestX,
		DestZ:     d.DestZ,
		Remaining: d.Remaining,
		Payout:    payout,
	})
}

func (dm *DeliveryManager) fail(reason string) {
	d := dm.active
	dm.active = nil
	dm.streak = 0

	dm.bus.Emit(EventTypeDeliveryFailed, dm.tick, "delivery", DeliveryPayload{
		Type:   d.Type,
		DestX:  d.DestX,
		DestZ:  d.DestZ,
		Reason: reason,
	})
	dm.bus.Emit(EventTypeHint, dm.tick, "delivery", HintPayload{
		Text: "Order lost - back to the pizzeria",
		TTL:  4,
	})
}

// onCollision drops FRAGILE deliveries on hard contact.
func (dm *DeliveryManager) onCollision(ev Event) {
	if dm.active == nil || !GetDeliveryType(dm.active.Type).FragileFail {
		return
	}

	var payload CollisionPayload
	if err := decodePayload(ev.Payload, &payload); err != nil {
		return
	}
	if payload.Speed >= fragileImpactSpeed {
		dm.fail("dropped")
	}
}

// Reset clears the active delivery without a failure event (level reload,
// editor toggle).
func (dm *DeliveryManager) Reset() {
	dm.active = nil
	dm.streak = 0
}

func dist2D(x1, z1, x2, z2 float64) float64 {
	return math.Hypot(x2-x1, z2-z1)
}
