// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for all simulation and server settings.
//
// IMPORTANT: When changing values, only modify this file (or ship a tuning
// file, see tuning.go). All other parts of the codebase should reference
// these values.
package config

import (
	"os"
	"strconv"
)

// =============================================================================
// SIMULATION CONFIGURATION
// =============================================================================

// SimConfig holds the core simulation loop settings.
type SimConfig struct {
	TickRate int   // Simulation ticks per second (the browser renders at its own rate)
	Seed     int64 // World generation seed (0 = derive from clock)
}

// DefaultSim returns the default simulation configuration.
func DefaultSim() SimConfig {
	return SimConfig{
		TickRate: 30,
		Seed:     0,
	}
}

// SimFromEnv returns simulation configuration with environment overrides.
func SimFromEnv() SimConfig {
	cfg := DefaultSim()

	if t := getEnvInt("TICK_RATE", 0); t > 0 {
		cfg.TickRate = t
	}
	if s := getEnvInt("WORLD_SEED", 0); s != 0 {
		cfg.Seed = int64(s)
	}

	return cfg
}

// =============================================================================
// PHYSICS TUNING
// =============================================================================

// PhysicsConfig holds the hoverboard movement "feel" constants.
//
// These values are empirically tuned, not derived. Treat them as data:
// override via a tuning file rather than re-deriving them in code.
type PhysicsConfig struct {
	MaxSpeed      float64 `yaml:"max_speed"`      // Horizontal speed cap (units/s)
	Accel         float64 `yaml:"accel"`          // Acceleration toward wish direction
	Friction      float64 `yaml:"friction"`       // Per-second velocity damping while idle
	Gravity       float64 `yaml:"gravity"`        // Downward accel while airborne
	FlightGravity float64 `yaml:"flight_gravity"` // Reduced gravity while flying
	JumpVelocity  float64 `yaml:"jump_velocity"`  // Upward velocity on jump
	FlightThrust  float64 `yaml:"flight_thrust"`  // Upward accel while flight input held

	PlayerRadius float64 `yaml:"player_radius"` // Collision radius against buildings/obstacles
	RideHeight   float64 `yaml:"ride_height"`   // Hover height above the ground plane

	// Grounded/airborne hysteresis. Heights below GroundSnap are definitely
	// grounded, above AirborneMin definitely airborne, in between the prior
	// state is preserved to avoid flicker.
	GroundSnap  float64 `yaml:"ground_snap"`
	AirborneMin float64 `yaml:"airborne_min"`

	// Charge resource (0..1). Fills with speed, decays at rest.
	ChargeMoveThreshold float64 `yaml:"charge_move_threshold"` // Min speed to accumulate
	ChargeRate          float64 `yaml:"charge_rate"`           // Fill per second at max speed
	ChargeDecay         float64 `yaml:"charge_decay"`          // Drain per second while idle

	// Near-miss detection (passing a car without touching it).
	NearMissRadius   float64 `yaml:"near_miss_radius"`   // Outer proximity band
	NearMissBonus    float64 `yaml:"near_miss_bonus"`    // Charge granted
	NearMissCooldown float64 `yaml:"near_miss_cooldown"` // Seconds between grants

	// Boost and flight.
	BoostSpeedMult  float64 `yaml:"boost_speed_mult"`  // Speed cap multiplier while boosting
	BoostDuration   float64 `yaml:"boost_duration"`    // Seconds of ground boost
	FlightMaxEnergy float64 `yaml:"flight_max_energy"` // Seconds of flight at full energy
	FlightDrain     float64 `yaml:"flight_drain"`      // Energy per second while flying
	FlightRecharge  float64 `yaml:"flight_recharge"`   // Energy per second while grounded

	// Per-obstacle collision response. Not a unified contact solver - each
	// obstacle type keeps its own hand-tuned response.
	CarBounce         float64 `yaml:"car_bounce"`         // Elastic bounce-back from cars
	DroneImpulse      float64 `yaml:"drone_impulse"`      // Chaotic multi-axis impulse from drones
	PedestrianDamping float64 `yaml:"pedestrian_damping"` // Velocity retention on pedestrian contact

	WorldHalfExtent float64 `yaml:"world_half_extent"` // Hard boundary clamp on X/Z
	MaxDeltaTime    float64 `yaml:"max_delta_time"`    // dt clamp - protects against frame hitches
}

// DefaultPhysics returns the default movement tuning.
func DefaultPhysics() PhysicsConfig {
	return PhysicsConfig{
		MaxSpeed:      28.0,
		Accel:         42.0,
		Friction:      5.5,
		Gravity:       38.0,
		FlightGravity: 6.0,
		JumpVelocity:  14.0,
		FlightThrust:  20.0,

		PlayerRadius: 1.2,
		RideHeight:   0.5,

		GroundSnap:  0.15,
		AirborneMin: 0.45,

		ChargeMoveThreshold: 4.0,
		ChargeRate:          0.25,
		ChargeDecay:         0.08,

		NearMissRadius:   4.5,
		NearMissBonus:    0.15,
		NearMissCooldown: 1.5,

		BoostSpeedMult:  1.8,
		BoostDuration:   2.5,
		FlightMaxEnergy: 3.0,
		FlightDrain:     1.0,
		FlightRecharge:  0.6,

		CarBounce:         1.6,
		DroneImpulse:      9.0,
		PedestrianDamping: 0.55,

		WorldHalfExtent: 450.0,
		MaxDeltaTime:    0.1, // 100ms - anything longer is a hitch, not a frame
	}
}

// =============================================================================
// TRICK TUNING
// =============================================================================

// TrickConfig holds airborne trick rotation and scoring settings.
type TrickConfig struct {
	SpinRate         float64 `yaml:"spin_rate"`         // Degrees per second around vertical
	FlipRate         float64 `yaml:"flip_rate"`         // Degrees per second around horizontal
	SpinMinRotation  float64 `yaml:"spin_min_rotation"` // Committed spins finish at least this
	FlipMinRotation  float64 `yaml:"flip_min_rotation"` // Committed flips finish at least this
	UprightTolerance float64 `yaml:"upright_tolerance"` // Degrees from upright for a clean landing

	BaseScore     int     `yaml:"base_score"`     // Per completed trick
	RotationBonus int     `yaml:"rotation_bonus"` // Per full rotation
	ComboMult     float64 `yaml:"combo_mult"`     // Multiplier when both axes land tricks
}

// DefaultTricks returns the default trick tuning.
func DefaultTricks() TrickConfig {
	return TrickConfig{
		SpinRate:         420.0,
		FlipRate:         360.0,
		SpinMinRotation:  360.0,
		FlipMinRotation:  180.0,
		UprightTolerance: 35.0,

		BaseScore:     100,
		RotationBonus: 50,
		ComboMult:     1.5,
	}
}

// =============================================================================
// AIM / LEAN TUNING
// =============================================================================

// AimConfig holds yaw/pitch/lean kinematics settings.
type AimConfig struct {
	TurnRateMin    float64 `yaml:"turn_rate_min"`    // Radians/s near-stationary
	TurnRateMax    float64 `yaml:"turn_rate_max"`    // Radians/s at max speed
	MaxLeanDeg     float64 `yaml:"max_lean_deg"`     // Banking cap
	LeanSmoothSlow float64 `yaml:"lean_smooth_slow"` // Convergence rate at low speed
	LeanSmoothFast float64 `yaml:"lean_smooth_fast"` // Convergence rate at high speed
	PitchRate      float64 `yaml:"pitch_rate"`       // Look pitch radians/s from aim input
	PitchAutoLevel float64 `yaml:"pitch_auto_level"` // Return-to-level rate when aim idle
	MaxPitchDeg    float64 `yaml:"max_pitch_deg"`    // Look pitch cap
}

// DefaultAim returns the default aim/lean tuning.
func DefaultAim() AimConfig {
	return AimConfig{
		TurnRateMin:    1.2,
		TurnRateMax:    2.6,
		MaxLeanDeg:     28.0,
		LeanSmoothSlow: 4.0,
		LeanSmoothFast: 9.0,
		PitchRate:      1.8,
		PitchAutoLevel: 3.0,
		MaxPitchDeg:    40.0,
	}
}

// =============================================================================
// WORLD GENERATION & POPULATION
// =============================================================================

// WorldConfig holds procedural city generation and population settings.
type WorldConfig struct {
	CityBlocks       int     `yaml:"city_blocks"`        // Blocks per side of the city grid
	BlockSize        float64 `yaml:"block_size"`         // Block edge length
	StreetWidth      float64 `yaml:"street_width"`       // Gap between blocks
	BuildingCellSize float64 `yaml:"building_cell_size"` // Static collision grid cell size
	SectorSize       float64 `yaml:"sector_size"`        // Population streaming sector edge

	SpawnRadius float64 `yaml:"spawn_radius"` // Populations spawn inside this radius
	CullRadius  float64 `yaml:"cull_radius"`  // And are culled beyond this one
}

// DefaultWorld returns the default world configuration.
func DefaultWorld() WorldConfig {
	return WorldConfig{
		CityBlocks:       12,
		BlockSize:        30.0, // Matches the collision grid cell for 3x3 lookups
		StreetWidth:      14.0,
		BuildingCellSize: 30.0,
		SectorSize:       60.0,

		SpawnRadius: 180.0,
		CullRadius:  220.0,
	}
}

// =============================================================================
// RESOURCE LIMITS
// =============================================================================

// ResourceLimits controls population caps and per-tick effect limits.
type ResourceLimits struct {
	MaxCars        int // Active traffic cars
	MaxDrones      int // Active delivery drones
	MaxPedestrians int // Active sidewalk pedestrians
	MaxHints       int // Queued hint toasts
	MaxUndo        int // Editor undo stack depth
	MaxBuildings   int // Building cap (procedural + editor-placed)
	MaxRoads       int // Road cap
}

// DefaultLimits returns the default resource limits.
func DefaultLimits() ResourceLimits {
	return ResourceLimits{
		MaxCars:        40,
		MaxDrones:      12,
		MaxPedestrians: 60,
		MaxHints:       8,
		MaxUndo:        64,
		MaxBuildings:   2000,
		MaxRoads:       400,
	}
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int
	ProfilePath string // Player profile persistence (money/upgrades)
	LevelPath   string // Startup level file ("" = procedural city only)
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:        3000,
		ProfilePath: "profile.json",
		LevelPath:   "",
	}
}

// ServerFromEnv returns server configuration with environment overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if pp := os.Getenv("PROFILE_PATH"); pp != "" {
		cfg.ProfilePath = pp
	}
	if lp := os.Getenv("LEVEL_PATH"); lp != "" {
		cfg.LevelPath = lp
	}

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Sim     SimConfig
	Physics PhysicsConfig
	Tricks  TrickConfig
	Aim     AimConfig
	World   WorldConfig
	Limits  ResourceLimits
	Server  ServerConfig
}

// Load returns the complete configuration with environment overrides and,
// if TUNING_PATH is set, tuning file overrides on top.
func Load() AppConfig {
	cfg := AppConfig{
		Sim:     SimFromEnv(),
		Physics: DefaultPhysics(),
		Tricks:  DefaultTricks(),
		Aim:     DefaultAim(),
		World:   DefaultWorld(),
		Limits:  DefaultLimits(),
		Server:  ServerFromEnv(),
	}

	if path := os.Getenv("TUNING_PATH"); path != "" {
		// Bad tuning file: keep defaults, the game must still come up
		_ = ApplyTuningFile(&cfg, path)
	}

	// Env beats the tuning file - quick feel experiments without editing it
	if ms := getEnvFloat("MAX_SPEED", 0); ms > 0 {
		cfg.Physics.MaxSpeed = ms
	}

	return cfg
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
