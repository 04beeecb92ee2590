package object

import (
	"math/rand"
	"time"

	"github.com/tomz197/hopline/internal/loop/config"
)

// ObstacleSpawner decides when a new obstacle enters the world. All times
// are active session time, so pauses never shorten a gap.
type ObstacleSpawner struct {
	MinSpacing    time.Duration
	MaxSpacing    time.Duration
	FirstDelay    time.Duration
	MinSeparation float64 // Minimum distance from the spawn plane to the newest obstacle

	rng       *rand.Rand
	active    bool
	lastSpawn time.Duration
	nextSpawn time.Duration
}

// NewObstacleSpawner creates an inactive spawner with the default spacing.
// A nil rng falls back to a time-seeded source.
func NewObstacleSpawner(rng *rand.Rand) *ObstacleSpawner {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &ObstacleSpawner{
		MinSpacing:    config.MinSpawnSpacing,
		MaxSpacing:    config.MaxSpawnSpacing,
		FirstDelay:    config.FirstSpawnDelay,
		MinSeparation: config.MinSpawnDistance,
		rng:           rng,
	}
}

// Active reports whether the spawner is scheduling obstacles.
func (s *ObstacleSpawner) Active() bool {
	return s.active
}

// NextSpawn returns the earliest time the next spawn will be attempted.
func (s *ObstacleSpawner) NextSpawn() time.Duration {
	return s.nextSpawn
}

// LastSpawn returns the time tracking considers the last spawn.
func (s *ObstacleSpawner) LastSpawn() time.Duration {
	return s.lastSpawn
}

// Start activates the spawner so the first obstacle appears FirstDelay after
// now. Starting an already active spawner resets its tracking instead of
// running a second schedule.
func (s *ObstacleSpawner) Start(now time.Duration) {
	s.active = true
	s.lastSpawn = now - s.MinSpacing
	s.nextSpawn = now + s.FirstDelay
}

// Resume restarts the schedule after a visibility pause. The previous spawn
// time is kept when it is more recent, so spacing still holds.
func (s *ObstacleSpawner) Resume(now time.Duration) {
	last := s.lastSpawn
	s.Start(now)
	if last > s.lastSpawn {
		s.lastSpawn = last
	}
}

// Stop deactivates the spawner.
func (s *ObstacleSpawner) Stop() {
	s.active = false
}

// Update spawns an obstacle when one is due. Returns the spawned obstacle or nil.
func (s *ObstacleSpawner) Update(ctx UpdateContext) *Obstacle {
	if !s.active || ctx.Now < s.nextSpawn {
		return nil
	}

	if ctx.Now-s.lastSpawn < s.MinSpacing {
		s.nextSpawn = s.lastSpawn + s.MinSpacing
		return nil
	}

	// The newest obstacle is the one with the smallest depth.
	if newest := newestObstacle(ctx.Obstacles); newest != nil &&
		newest.Depth-config.SpawnDepth < s.MinSeparation {
		return nil // retry next tick
	}

	o := NewObstacle()
	s.lastSpawn = ctx.Now
	s.nextSpawn = ctx.Now + s.randomSpacing()
	if ctx.Spawner != nil {
		ctx.Spawner.Spawn(o)
	}
	return o
}

func (s *ObstacleSpawner) randomSpacing() time.Duration {
	span := s.MaxSpacing - s.MinSpacing
	if span <= 0 {
		return s.MinSpacing
	}
	return s.MinSpacing + time.Duration(s.rng.Int63n(int64(span)+1))
}

func newestObstacle(obstacles map[string]*Obstacle) *Obstacle {
	var newest *Obstacle
	for _, o := range obstacles {
		if newest == nil || o.Depth < newest.Depth {
			newest = o
		}
	}
	return newest
}
