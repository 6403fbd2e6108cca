package game

import (
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/pkg/errors"

	"pizza-rush/internal/config"
	"pizza-rush/internal/editor"
	"pizza-rush/internal/level"
	"pizza-rush/internal/world"
)

// profileSaveInterval flushes the profile every N ticks (10s at 30 TPS).
const profileSaveInterval = 300

// ErrEditorInactive is returned when an editor command arrives while the
// simulation owns the tick.
var ErrEditorInactive = errors.New("editor not active")

// sectorName labels a sector for the entry hint toast.
func sectorName(sx, sz int32) string {
	return fmt.Sprintf("Entering sector %d,%d", sx, sz)
}

// Engine owns the simulation: one rider, the city, the ambient
// populations, and the delivery loop, advanced on a fixed tick.
type Engine struct {
	mu  sync.RWMutex
	cfg config.AppConfig

	// Simulation
	bus      *Bus
	physics  *Physics
	tricks   *TrickTracker
	aim      *AimState
	delivery *DeliveryManager
	economy  *Economy
	hints    *HintQueue
	board    *Leaderboard

	// World
	city       *world.City
	traffic    *world.Traffic
	drones     *world.DroneSwarm
	crowd      *world.Crowd
	atmosphere *world.Atmosphere
	sectors    *world.SectorTracker
	obstacles  []DynamicObstacle // Reused each tick

	// Editor mode is mutually exclusive with the simulation tick
	editor *editor.Editor
	store  *level.Store

	input InputState

	tickRate int
	running  bool
	ticker   *time.Ticker
	stopChan chan struct{}

	tickCount uint64

	// Snapshot system for lock-free render access
	snapshotPool *SnapshotPool

	// Event sourcing for replay and debugging
	eventLog *EventLog

	// Deterministic RNG for replay consistency
	rng     *rand.Rand
	rngSeed int64

	// OnTickDone, when set before Start, receives each tick's wall time
	// (metrics hook; the engine doesn't import the metrics package).
	OnTickDone func(time.Duration)
}

// NewEngine builds the full simulation from config. The city is
// generated procedurally unless a startup level is configured.
func NewEngine(cfg config.AppConfig) *Engine {
	seed := cfg.Sim.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	bus := NewBus()
	e := &Engine{
		cfg:          cfg,
		bus:          bus,
		physics:      NewPhysics(cfg.Physics, cfg.World.BuildingCellSize, bus, rng),
		tricks:       NewTrickTracker(cfg.Tricks, bus),
		aim:          NewAimState(cfg.Aim),
		delivery:     NewDeliveryManager(bus, rng),
		economy:      NewEconomy(bus, cfg.Server.ProfilePath),
		board:        NewLeaderboard(),
		traffic:      world.NewTraffic(cfg.World, cfg.Limits, rng),
		drones:       world.NewDroneSwarm(cfg.World, cfg.Limits, rng),
		crowd:        world.NewCrowd(cfg.World, cfg.Limits, rng),
		atmosphere:   world.NewAtmosphere(rng),
		sectors:      world.NewSectorTracker(cfg.World.SectorSize),
		tickRate:     cfg.Sim.TickRate,
		stopChan:     make(chan struct{}),
		snapshotPool: NewSnapshotPool(),
		eventLog:     NewEventLog(),
		rng:          rng,
		rngSeed:      seed,
	}
	e.hints = NewHintQueue(bus, cfg.Limits.MaxHints)

	// Every bus event flows into the JSONL log
	bus.SubscribeAll(func(ev Event) { e.eventLog.Record(ev) })

	// Landing settles any airborne trick
	bus.Subscribe(EventTypeLandingImpact, func(Event) { e.tricks.Land() })

	// Purchased upgrades retune physics and tricks immediately
	bus.Subscribe(EventTypeUpgradePurchased, func(Event) { e.applyUpgrades() })

	e.installCity(e.loadStartupCity(seed))
	e.applyUpgrades()

	return e
}

// loadStartupCity uses the configured level file when present, otherwise
// generates from seed. A broken level file logs and falls back.
func (e *Engine) loadStartupCity(seed int64) *world.City {
	if path := e.cfg.Server.LevelPath; path != "" {
		l, err := level.LoadFile(path)
		if err == nil {
			log.Printf("🗺️ Level loaded from %s: %q", path, l.Name)
			return world.FromLevel(l, seed)
		}
		log.Printf("⚠️ Level %s rejected, generating city instead: %v", path, err)
	}
	return world.Generate(e.cfg.World, e.cfg.Limits, seed)
}

// installCity swaps in new static content: collision boxes, roads,
// spawn, pickup point, and delivery destinations.
func (e *Engine) installCity(c *world.City) {
	e.city = c
	e.physics.SetBuildings(c.CollisionBoxes())
	e.physics.SetSpawn(c.Spawn[0], c.Spawn[1], c.Spawn[2])
	e.traffic.SetRoads(c.Roads)
	e.delivery.SetPickupPoint(c.Pizzeria[0], c.Pizzeria[1])
	e.delivery.SetDestinations(c.Destinations)
	log.Printf("🏙️ City installed: %s", c.Describe())
}

// Start begins the tick loop.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.mu.Unlock()

	e.ticker = time.NewTicker(time.Second / time.Duration(e.tickRate))

	go func() {
		for {
			select {
			case <-e.ticker.C:
				e.tick()
			case <-e.stopChan:
				return
			}
		}
	}()

	log.Printf("🎮 Engine started at %d TPS (seed %d)", e.tickRate, e.rngSeed)
}

// Stop halts the tick loop and flushes the profile.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}
	e.running = false
	if e.ticker != nil {
		e.ticker.Stop()
	}
	close(e.stopChan)

	e.economy.Save()
	log.Println("🛑 Engine stopped")
}

// StartEventLog begins recording events to a JSONL file.
func (e *Engine) StartEventLog(path string) error {
	return e.eventLog.Start(path)
}

// StopEventLog flushes and closes the event log.
func (e *Engine) StopEventLog() {
	e.eventLog.Stop()
}

// ApplyInput replaces the held input. The next tick consumes it.
func (e *Engine) ApplyInput(in InputState) {
	e.mu.Lock()
	e.input = in.Normalize()
	e.mu.Unlock()
}

// tick advances the simulation (or the editor, never both).
func (e *Engine) tick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	started := time.Now()
	defer func() {
		if e.OnTickDone != nil {
			e.OnTickDone(time.Since(started))
		}
	}()

	e.tickCount++
	dt := 1.0 / float64(e.tickRate)

	e.bus.Emit(EventTypeTick, e.tickCount, "engine", TickPayload{
		RNGSeed:     e.rngSeed,
		DeltaTimeNs: int64(dt * 1e9),
	})

	// Advance RNG seed deterministically for replay
	e.rngSeed = e.rng.Int63()
	e.rng.Seed(e.rngSeed)

	if e.editor == nil {
		e.stepSimulation(dt)
	}

	if e.tickCount%profileSaveInterval == 0 {
		e.economy.Save()
	}

	e.produceSnapshot()
}

func (e *Engine) stepSimulation(dt float64) {
	px, pz := e.physics.X, e.physics.Z

	// Ambient world first so physics sees this tick's obstacle positions
	e.atmosphere.Update(dt)
	if e.sectors.Update(px, pz) {
		sx, sz := e.sectors.Current()
		e.bus.Emit(EventTypeHint, e.tickCount, "world",
			HintPayload{Text: sectorName(sx, sz), TTL: 2.5})
	}
	e.traffic.Update(dt, px, pz)
	e.drones.Update(dt, px, pz, e.atmosphere.WindX, e.atmosphere.WindZ)
	e.crowd.Update(dt, px, pz)
	e.physics.SetObstacles(e.collectObstacles())

	// Rider: aim first so steering uses fresh input, then integrate
	maxSpeed := e.physics.Config().MaxSpeed // Upgrades raise the cap
	e.aim.Step(e.input, e.physics.Speed(), maxSpeed, dt)
	e.physics.SpeedScale = e.delivery.SpeedScale()
	e.physics.Step(e.input, e.aim.Yaw, dt)
	e.tricks.Update(e.input, e.physics.Airborne(), e.tickCount, dt)

	// Delivery loop and HUD
	e.delivery.Update(e.physics.X, e.physics.Z, e.physics.Speed(),
		maxSpeed, e.tickCount, dt)
	e.economy.SetTick(e.tickCount)
	e.economy.RecordStreak(e.delivery.Streak())
	e.hints.Update(dt)
}

// collectObstacles flattens the ambient populations into the physics
// obstacle list. The slice is reused across ticks.
func (e *Engine) collectObstacles() []DynamicObstacle {
	e.obstacles = e.obstacles[:0]

	for i := range e.traffic.Cars() {
		c := &e.traffic.Cars()[i]
		minX, maxX, minZ, maxZ, minY, maxY := c.Bounds()
		e.obstacles = append(e.obstacles, DynamicObstacle{
			Kind: ObstacleCar,
			MinX: minX, MaxX: maxX, MinZ: minZ, MaxZ: maxZ, MinY: minY, MaxY: maxY,
		})
	}
	for i := range e.drones.Drones() {
		d := &e.drones.Drones()[i]
		minX, maxX, minZ, maxZ, minY, maxY := d.Bounds()
		e.obstacles = append(e.obstacles, DynamicObstacle{
			Kind: ObstacleDrone,
			MinX: minX, MaxX: maxX, MinZ: minZ, MaxZ: maxZ, MinY: minY, MaxY: maxY,
		})
	}
	for i := range e.crowd.Pedestrians() {
		p := &e.crowd.Pedestrians()[i]
		minX, maxX, minZ, maxZ, minY, maxY := p.Bounds()
		e.obstacles = append(e.obstacles, DynamicObstacle{
			Kind: ObstaclePedestrian,
			MinX: minX, MaxX: maxX, MinZ: minZ, MaxZ: maxZ, MinY: minY, MaxY: maxY,
		})
	}

	return e.obstacles
}

// produceSnapshot fills the next write slot and publishes it.
func (e *Engine) produceSnapshot() {
	snap := e.snapshotPool.AcquireWrite()
	snap.TickNumber = e.tickCount
	snap.EditorMode = e.editor != nil
	snap.Money = e.economy.Money()

	yaw, pitch, roll := e.aim.Orientation()
	snap.Rider = RiderSnapshot{
		X: e.physics.X, Y: e.physics.Y, Z: e.physics.Z,
		VX: e.physics.VX, VY: e.physics.VY, VZ: e.physics.VZ,
		Yaw: yaw, Pitch: pitch, Roll: roll,
		State:        e.physics.State.String(),
		Charge:       e.physics.Charge,
		FlightEnergy: e.physics.FlightEnergy,
		Boosting:     e.physics.Boosting,
		SpinRotation: e.tricks.SpinRotation(),
		FlipRotation: e.tricks.FlipRotation(),
		TrickActive:  e.tricks.Active(),
	}

	snap.Delivery = DeliverySnapshot{Streak: e.delivery.Streak()}
	if d := e.delivery.Active(); d != nil {
		typ := GetDeliveryType(d.Type)
		snap.Delivery.Active = true
		snap.Delivery.Type = d.Type
		snap.Delivery.Icon = typ.Emoji
		snap.Delivery.DestX = d.DestX
		snap.Delivery.DestZ = d.DestZ
		snap.Delivery.Remaining = d.Remaining
		snap.Delivery.Budget = d.TimeBudget
	}

	snap.Atmosphere = AtmosphereSnapshot{
		TimeOfDay: e.atmosphere.TimeOfDay,
		WindX:     e.atmosphere.WindX,
		WindZ:     e.atmosphere.WindZ,
	}

	cars := e.traffic.Cars()
	for i := range cars {
		if i >= MaxSnapshotCars {
			break
		}
		snap.Obstacles = append(snap.Obstacles, ObstacleSnapshot{
			Kind: "car", X: cars[i].X, Z: cars[i].Z, Yaw: cars[i].Yaw,
		})
	}
	drones := e.drones.Drones()
	for i := range drones {
		if i >= MaxSnapshotDrones {
			break
		}
		snap.Obstacles = append(snap.Obstacles, ObstacleSnapshot{
			Kind: "drone", X: drones[i].X, Y: drones[i].Y, Z: drones[i].Z,
		})
	}
	peds := e.crowd.Pedestrians()
	for i := range peds {
		if i >= MaxSnapshotPedestrians {
			break
		}
		snap.Obstacles = append(snap.Obstacles, ObstacleSnapshot{
			Kind: "pedestrian", X: peds[i].X, Z: peds[i].Z, Yaw: peds[i].Yaw,
		})
	}

	snap.Hints = append(snap.Hints, e.hints.Active()...)
	if len(snap.Hints) > MaxSnapshotHints {
		snap.Hints = snap.Hints[:MaxSnapshotHints]
	}

	e.snapshotPool.PublishWrite()
}

// GetSnapshot returns the latest published snapshot. Lock-free.
func (e *Engine) GetSnapshot() *GameSnapshot {
	return e.snapshotPool.AcquireRead()
}

// =============================================================================
// EDITOR MODE
// =============================================================================

// EditorActive reports whether the editor owns the tick.
func (e *Engine) EditorActive() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.editor != nil
}

// EnterEditor suspends the simulation and opens the current city in the
// editor. No-op when already editing.
func (e *Engine) EnterEditor() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.editor != nil {
		return
	}
	e.editor = editor.New(e.city.ToLevel("edit"), e.cfg.Limits.MaxUndo)
	e.tricks.Reset()
	log.Println("🔧 Editor mode on")
}

// ExitEditor applies the edited level to the world and resumes the
// simulation. The result is autosaved when a store is attached.
func (e *Engine) ExitEditor() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.editor == nil {
		return
	}

	edited := e.editor.Export("edited")
	e.editor = nil
	e.installCity(world.FromLevel(edited, e.rngSeed))

	if e.store != nil {
		if err := e.store.SaveCurrent(edited); err != nil {
			log.Printf("⚠️ Level autosave failed: %v", err)
		}
	}
	log.Println("🔧 Editor mode off")
}

// SetLevelStore attaches the autosave store.
func (e *Engine) SetLevelStore(s *level.Store) {
	e.mu.Lock()
	e.store = s
	e.mu.Unlock()
}

// ApplyEditorAction forwards one action to the editor. Errors when the
// editor is off.
func (e *Engine) ApplyEditorAction(a editor.Action) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.editor == nil {
		return ErrEditorInactive
	}
	return e.editor.Apply(a)
}

// EditorUndo pops one undo step. False when the stack is empty or the
// editor is off.
func (e *Engine) EditorUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.editor == nil {
		return false
	}
	return e.editor.Undo()
}

// =============================================================================
// LEVEL / PROFILE / STATS ACCESS
// =============================================================================

// ExportLevel serializes the current city (or the editor's working copy
// when editing).
func (e *Engine) ExportLevel(name string) ([]byte, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.editor != nil {
		return e.editor.Export(name).Encode()
	}
	return e.city.ToLevel(name).Encode()
}

// ImportLevel replaces the world from uploaded level JSON. On any error
// the current world is untouched.
func (e *Engine) ImportLevel(data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	l, err := level.Decode(data)
	if err != nil {
		return err
	}
	if err := l.Validate(); err != nil {
		return err
	}

	if e.editor != nil {
		return e.editor.Import(data)
	}
	e.installCity(world.FromLevel(l, e.rngSeed))
	return nil
}

// Profile returns a copy of the persisted player state.
func (e *Engine) Profile() Profile {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.economy.Profile()
}

// PurchaseUpgrade buys the next level of a track.
func (e *Engine) PurchaseUpgrade(track string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.economy.Purchase(track)
}

// UpgradeCost exposes the next-level price for the shop UI.
func (e *Engine) UpgradeCost(track string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.economy.UpgradeCost(track)
}

// FinishRun records the current run on the board and resets the streak
// bookkeeping for the next session.
func (e *Engine) FinishRun() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := e.economy.Profile()
	key := e.board.RecordRun(p.TotalDeliveries, p.BestStreak, p.BestTrickScore)
	e.economy.Save()
	return key
}

// TopRuns returns the best recorded runs.
func (e *Engine) TopRuns(n int) []RunEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.board.GetTop(n)
}

// Bus exposes the event bus for wiring before Start.
func (e *Engine) Bus() *Bus {
	return e.bus
}

// City returns the installed city (read-only use).
func (e *Engine) City() *world.City {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.city
}

// EventLogStats surfaces event log counters for the stats endpoint.
func (e *Engine) EventLogStats() map[string]interface{} {
	return e.eventLog.GetStats()
}

// TickCount returns the number of completed ticks.
func (e *Engine) TickCount() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tickCount
}

// applyUpgrades retunes physics and tricks from the owned upgrade levels.
func (e *Engine) applyUpgrades() {
	phys, tricks := e.economy.ApplyUpgrades(e.cfg.Physics, e.cfg.Tricks)
	e.physics.SetConfig(phys)
	e.tricks.SetConfig(tricks)
}

// Tick runs exactly one simulation step with a caller-supplied dt.
// Used by the headless simulator; the live loop uses Start.
func (e *Engine) Tick(dt float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.tickCount++
	e.bus.Emit(EventTypeTick, e.tickCount, "engine", TickPayload{
		RNGSeed:     e.rngSeed,
		DeltaTimeNs: int64(dt * 1e9),
	})
	e.rngSeed = e.rng.Int63()
	e.rng.Seed(e.rngSeed)

	if e.editor == nil {
		e.stepSimulation(dt)
	}
	e.produceSnapshot()
}
