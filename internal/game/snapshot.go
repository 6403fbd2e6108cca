package game

import (
	"sync/atomic"
	"time"
)

// Snapshot entity caps. The world managers already cap their populations;
// these bound the wire payload independently so a bad tuning file can't
// blow up the render stream.
const (
	MaxSnapshotCars        = 64
	MaxSnapshotDrones      = 16
	MaxSnapshotPedestrians = 96
	MaxSnapshotHints       = 8
)

// RiderSnapshot is an immutable copy of the player state for rendering.
// Value types only, no pointers back into the simulation.
type RiderSnapshot struct {
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Z            float64 `json:"z"`
	VX           float64 `json:"vx"`
	VY           float64 `json:"vy"`
	VZ           float64 `json:"vz"`
	Yaw          float64 `json:"yaw"`
	Pitch        float64 `json:"pitch"`
	Roll         float64 `json:"roll"` // Board lean
	State        string  `json:"state"`
	Charge       float64 `json:"charge"`
	FlightEnergy float64 `json:"flightEnergy"`
	Boosting     bool    `json:"boosting"`
	SpinRotation float64 `json:"spinRotation"`
	FlipRotation float64 `json:"flipRotation"`
	TrickActive  bool    `json:"trickActive"`
}

// ObstacleSnapshot is one moving world entity (car, drone, pedestrian).
type ObstacleSnapshot struct {
	Kind string  `json:"kind"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Z    float64 `json:"z"`
	Yaw  float64 `json:"yaw"`
}

// DeliverySnapshot is the active order shown on the HUD.
type DeliverySnapshot struct {
	Active    bool    `json:"active"`
	Type      string  `json:"type"`
	Icon      string  `json:"icon"`
	DestX     float64 `json:"destX"`
	DestZ     float64 `json:"destZ"`
	Remaining float64 `json:"remaining"`
	Budget    float64 `json:"budget"`
	Streak    int     `json:"streak"`
}

// AtmosphereSnapshot is the sky/wind state for the renderer.
type AtmosphereSnapshot struct {
	TimeOfDay float64 `json:"timeOfDay"` // 0..24 hours
	WindX     float64 `json:"windX"`
	WindZ     float64 `json:"windZ"`
}

// GameSnapshot is a complete immutable frame for rendering.
// All slices are pre-allocated and capped.
type GameSnapshot struct {
	Sequence   uint64    `json:"sequence"`
	Timestamp  time.Time `json:"timestamp"`
	TickNumber uint64    `json:"tick"`

	Rider      RiderSnapshot      `json:"rider"`
	Delivery   DeliverySnapshot   `json:"delivery"`
	Atmosphere AtmosphereSnapshot `json:"atmosphere"`
	Money      int                `json:"money"`
	EditorMode bool               `json:"editorMode"`

	Obstacles []ObstacleSnapshot `json:"obstacles"`
	Hints     []Hint             `json:"hints"`
}

// SnapshotPool pre-allocates snapshots to avoid GC pressure.
// Triple buffering for lock-free producer/consumer: the tick goroutine
// writes, HTTP/websocket readers consume without blocking it.
type SnapshotPool struct {
	snapshots [3]GameSnapshot
	writeIdx  uint32 // atomic - producer index
	readIdx   uint32 // atomic - consumer index
	sequence  uint64 // atomic - monotonic sequence
}

// NewSnapshotPool creates a pool with pre-allocated slices.
func NewSnapshotPool() *SnapshotPool {
	pool := &SnapshotPool{}
	maxObstacles := MaxSnapshotCars + MaxSnapshotDrones + MaxSnapshotPedestrians
	for i := 0; i < 3; i++ {
		pool.snapshots[i] = GameSnapshot{
			Obstacles: make([]ObstacleSnapshot, 0, maxObstacles),
			Hints:     make([]Hint, 0, MaxSnapshotHints),
		}
	}
	return pool
}

// AcquireWrite gets the next write slot (tick goroutine only).
// Slices are reset but keep their capacity.
func (p *SnapshotPool) AcquireWrite() *GameSnapshot {
	idx := atomic.AddUint32(&p.writeIdx, 1) % 3
	snap := &p.snapshots[idx]

	snap.Obstacles = snap.Obstacles[:0]
	snap.Hints = snap.Hints[:0]
	snap.Sequence = atomic.AddUint64(&p.sequence, 1)
	snap.Timestamp = time.Now()

	return snap
}

// PublishWrite marks the write complete and advances the read pointer.
func (p *SnapshotPool) PublishWrite() {
	atomic.StoreUint32(&p.readIdx, atomic.LoadUint32(&p.writeIdx))
}

// AcquireRead gets the latest complete snapshot (readers only).
// Sequence 0 means no tick has published yet.
func (p *SnapshotPool) AcquireRead() *GameSnapshot {
	idx := atomic.LoadUint32(&p.readIdx) % 3
	return &p.snapshots[idx]
}
