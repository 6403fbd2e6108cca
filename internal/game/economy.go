package game

import (
	"encoding/json"
	"log"
	"os"

	"github.com/pkg/errors"

	"pizza-rush/internal/config"
)

// UpgradeTrack is one purchasable upgrade line.
type UpgradeTrack struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MaxLevel int    `json:"maxLevel"`
	BaseCost int    `json:"baseCost"` // Cost doubles per level
}

// UpgradeTracks is the table of all upgrade lines.
var UpgradeTracks = map[string]UpgradeTrack{
	"speed":  {ID: "speed", Name: "Board Tune", MaxLevel: 5, BaseCost: 200},
	"charge": {ID: "charge", Name: "Charge Coil", MaxLevel: 5, BaseCost: 150},
	"flight": {ID: "flight", Name: "Thruster Cell", MaxLevel: 5, BaseCost: 300},
	"spin":   {ID: "spin", Name: "Gyro Bearings", MaxLevel: 3, BaseCost: 250},
}

// upgradeOrder gives deterministic iteration for UI listings.
var upgradeOrder = []string{"speed", "charge", "flight", "spin"}

// OrderedUpgradeTracks returns the upgrade table in display order, so the
// shop doesn't reshuffle on every request the way map iteration would.
func OrderedUpgradeTracks() []UpgradeTrack {
	tracks := make([]UpgradeTrack, 0, len(upgradeOrder))
	for _, id := range upgradeOrder {
		tracks = append(tracks, UpgradeTracks[id])
	}
	return tracks
}

// Profile is the persisted player state - the handful of scalars the
// original kept in browser local storage.
type Profile struct {
	Money           int            `json:"money"`
	Upgrades        map[string]int `json:"upgrades"`
	TotalDeliveries int            `json:"totalDeliveries"`
	BestStreak      int            `json:"bestStreak"`
	BestTrickScore  int            `json:"bestTrickScore"`
}

func defaultProfile() Profile {
	return Profile{Upgrades: make(map[string]int)}
}

// Economy owns money and upgrades. It listens for payouts and trick scores
// on the bus and persists the profile as a small JSON file.
type Economy struct {
	bus     *Bus
	profile Profile
	path    string
	dirty   bool
	tick    uint64
}

// NewEconomy creates the economy and loads the profile from path.
// A missing or corrupt profile falls back to defaults - the game must
// still start.
func NewEconomy(bus *Bus, path string) *Economy {
	e := &Economy{bus: bus, path: path, profile: defaultProfile()}

	if err := e.load(); err != nil {
		log.Printf("💰 No usable profile, starting fresh: %v", err)
	}

	bus.Subscribe(EventTypeDeliveryComplete, e.onDeliveryComplete)
	bus.Subscribe(EventTypeTrickSuccess, e.onTrickSuccess)
	return e
}

// Profile returns a copy of the persisted state.
func (e *Economy) Profile() Profile {
	p := e.profile
	p.Upgrades = make(map[string]int, len(e.profile.Upgrades))
	for k, v := range e.profile.Upgrades {
		p.Upgrades[k] = v
	}
	return p
}

// Money returns the current balance.
func (e *Economy) Money() int {
	return e.profile.Money
}

// UpgradeLevel returns the owned level for a track.
func (e *Economy) UpgradeLevel(track string) int {
	return e.profile.Upgrades[track]
}

// UpgradeCost returns the cost of the next level, or 0 if maxed/unknown.
func (e *Economy) UpgradeCost(track string) int {
	t, ok := UpgradeTracks[track]
	if !ok {
		return 0
	}
	level := e.profile.Upgrades[track]
	if level >= t.MaxLevel {
		return 0
	}
	return t.BaseCost << level
}

// SetTick lets the engine stamp emitted events with the current tick.
func (e *Economy) SetTick(tick uint64) {
	e.tick = tick
}

// Purchase buys the next level of an upgrade track. Returns false if the
// track is unknown, maxed out, or the balance is short.
func (e *Economy) Purchase(track string) bool {
	cost := e.UpgradeCost(track)
	if cost == 0 || e.profile.Money < cost {
		return false
	}

	e.profile.Money -= cost
	e.profile.Upgrades[track]++
	e.dirty = true

	level := e.profile.Upgrades[track]
	log.Printf("🛠️ Upgrade purchased: %s level %d for $%d", track, level, cost)

	e.bus.Emit(EventTypeUpgradePurchased, e.tick, "economy",
		UpgradePayload{Track: track, Level: level, Cost: cost})
	e.bus.Emit(EventTypeMoneyChanged, e.tick, "economy",
		MoneyPayload{Delta: -cost, Balance: e.profile.Money, Reason: "upgrade"})

	e.Save()
	return true
}

// ApplyUpgrades returns tuning with the owned upgrade levels applied.
// Upgrades scale the base values; they never touch the tuning file itself.
func (e *Economy) ApplyUpgrades(phys config.PhysicsConfig, tricks config.TrickConfig) (config.PhysicsConfig, config.TrickConfig) {
	phys.MaxSpeed *= 1 + 0.08*float64(e.profile.Upgrades["speed"])
	phys.ChargeRate *= 1 + 0.15*float64(e.profile.Upgrades["charge"])
	phys.FlightMaxEnergy *= 1 + 0.20*float64(e.profile.Upgrades["flight"])
	tricks.SpinRate *= 1 + 0.10*float64(e.profile.Upgrades["spin"])
	return phys, tricks
}

func (e *Economy) onDeliveryComplete(ev Event) {
	var payload DeliveryPayload
	if err := decodePayload(ev.Payload, &payload); err != nil {
		return
	}

	e.profile.Money += payload.Payout
	e.profile.TotalDeliveries++
	e.dirty = true

	e.bus.Emit(EventTypeMoneyChanged, ev.TickNum, "economy",
		MoneyPayload{Delta: payload.Payout, Balance: e.profile.Money, Reason: "delivery"})
}

func (e *Economy) onTrickSuccess(ev Event) {
	var payload TrickPayload
	if err := decodePayload(ev.Payload, &payload); err != nil {
		return
	}

	// Tricks pay a tenth of their score in cash
	cash := payload.Score / 10
	if cash > 0 {
		e.profile.Money += cash
		e.dirty = true
		e.bus.Emit(EventTypeMoneyChanged, ev.TickNum, "economy",
			MoneyPayload{Delta: cash, Balance: e.profile.Money, Reason: "trick"})
	}

	if payload.Score > e.profile.BestTrickScore {
		e.profile.BestTrickScore = payload.Score
		e.dirty = true
	}
}

// RecordStreak tracks the best delivery streak for the profile.
func (e *Economy) RecordStreak(streak int) {
	if streak > e.profile.BestStreak {
		e.profile.BestStreak = streak
		e.dirty = true
	}
}

// Save persists the profile if it changed. Write failures are logged and
// swallowed - losing a save beats crashing mid-delivery.
func (e *Economy) Save() {
	if !e.dirty || e.path == "" {
		return
	}

	data, err := json.MarshalIndent(e.profile, "", "  ")
	if err != nil {
		log.Printf("⚠️ Profile encode failed: %v", err)
		return
	}
	if err := os.WriteFile(e.path, data, 0644); err != nil {
		log.Printf("⚠️ Profile save failed: %v", err)
		return
	}
	e.dirty = false
}

func (e *Economy) load() error {
	if e.path == "" {
		return nil
	}

	data, err := os.ReadFile(e.path)
	if err != nil {
		return errors.Wrap(err, "reading profile")
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return errors.Wrap(err, "parsing profile")
	}
	if p.Upgrades == nil {
		p.Upgrades = make(map[string]int)
	}

	e.profile = p
	log.Printf("💰 Profile loaded: $%d, %d deliveries", p.Money, p.TotalDeliveries)
	return nil
}
