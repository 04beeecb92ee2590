// Package config centralizes all tunable game parameters.
package config

import "time"

// Tick timing. Kinematic constants below are expressed per nominal tick.
const (
	TickDuration = 16 * time.Millisecond
	MaxTickSteps = 3.0 // Largest dt (in ticks) applied after a stalled tick
)

// World geometry (units match the scene the renderer draws).
const (
	PlayerDepth     = 26.0  // Fixed depth of the player
	PlayerLane      = 0.0   // Single lane
	SpawnDepth      = -25.0 // Obstacles enter behind the horizon here
	DespawnDistance = 10.0  // Removed once this far past the player
	ScoreMargin     = 0.5   // Must travel this far past the player to score
)

// Collision geometry. DepthWindow must not exceed ScoreMargin, otherwise an
// obstacle could score and still hit the player afterwards.
const (
	LaneTolerance = 1.0
	DepthWindow   = 0.5
	Clearance     = 1.1 // Player height needed to clear an obstacle
)

// Player physics
const (
	Gravity     = -0.018 // Units per tick²
	JumpImpulse = 0.42   // Units per tick
	GroundLevel = 0.0
)

// Speed and difficulty
const (
	BaseSpeed          = 0.12 // Units per tick
	MaxSpeed           = 0.30
	SpeedIncrement     = 0.02
	SpeedUpInterval    = 10 * time.Second
	TumbleSpeedFactor  = 0.4
	SnapshotEveryTicks = 3 // Snapshot broadcast divider (~20 Hz)
)

// Spawning
const (
	MinSpawnSpacing  = 1200 * time.Millisecond
	MaxSpawnSpacing  = 2600 * time.Millisecond
	FirstSpawnDelay  = 800 * time.Millisecond
	MinSpawnDistance = 8.0
)

// Lives and damage
const (
	InitialLives       = 3
	InvincibleDuration = 750 * time.Millisecond
	TumbleDuration     = 1500 * time.Millisecond
	BlinkFrequency     = 10.0 // Hz
)

// Pause
const (
	ResumeCountdownSteps = 3
	ResumeCountdownStep  = time.Second
)

// Terminal rendering
const (
	MaxTermWidth          = 120
	MaxTermHeight         = 40
	ViewWidth             = 200.0 // Logical canvas width
	ViewHeight            = 100.0 // Logical canvas height (sub-pixels)
	ClientTargetFrameTime = 33 * time.Millisecond
)

// Track camera, in world units
const (
	CameraDepth  = PlayerDepth + 8
	CameraHeight = 3.0
	CameraFocal  = 160.0
	CameraNear   = 1.0
	HorizonY     = 20.0
	PlayerWidth  = 0.4 // Half-width of the drawn runner
	PlayerHeight = 1.6
	ObstacleSize = 1.0 // Half-width and height of a drawn obstacle
)

// Inactivity and shutdown (terminal hosts)
const (
	InactivityWarnUser       = 150 // Seconds
	InactivityDisconnectUser = 180 // Seconds
	ShutdownDisplaySeconds   = 3.0
)
