package loop

import (
	"io"
	"math/rand"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomz197/hopline/internal/loop/config"
	"github.com/tomz197/hopline/internal/object"
)

var epoch0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type harness struct {
	t   *testing.T
	s   *Session
	now time.Time
}

// quietTuning disables spawning and difficulty so tests place obstacles by hand.
func quietTuning() Tuning {
	tn := DefaultTuning()
	tn.FirstSpawnDelay = time.Hour
	tn.SpeedUpInterval = 0
	return tn
}

func newHarness(t *testing.T, tn Tuning) *harness {
	t.Helper()
	s, err := NewSession(epoch0,
		WithTuning(tn),
		WithRand(rand.New(rand.NewSource(1))),
		WithLogger(log.New(io.Discard)),
	)
	require.NoError(t, err)
	return &harness{t: t, s: s, now: epoch0}
}

func (h *harness) tick(jump bool) {
	h.now = h.now.Add(config.TickDuration)
	h.s.Step(h.now, jump)
}

func (h *harness) ticks(n int) {
	for i := 0; i < n; i++ {
		h.tick(false)
	}
}

// tickUntil steps until cond holds, failing after limit ticks.
func (h *harness) tickUntil(limit int, cond func() bool) {
	h.t.Helper()
	for i := 0; i < limit; i++ {
		if cond() {
			return
		}
		h.tick(false)
	}
	require.True(h.t, cond(), "condition not met after %d ticks", limit)
}

func (h *harness) place(id string, depth float64) *object.Obstacle {
	o := &object.Obstacle{ID: id, Lane: config.PlayerLane, Depth: depth}
	h.s.Spawn(o)
	return o
}

func TestSession_InitialState(t *testing.T) {
	h := newHarness(t, DefaultTuning())
	snap := h.s.Snapshot()

	assert.Equal(t, StateRunning, snap.State)
	assert.Equal(t, 3, snap.Lives)
	assert.Equal(t, 0, snap.Score)
	assert.Equal(t, config.BaseSpeed, snap.Speed)
	assert.True(t, snap.Grounded)
	assert.Empty(t, snap.Obstacles)
	assert.False(t, snap.Pause.Paused)
}

func TestSession_ContinuousOverlapDamagesOnce(t *testing.T) {
	tn := quietTuning()
	tn.BaseSpeed = 0
	h := newHarness(t, tn)
	o := h.place("wall", config.PlayerDepth)

	h.ticks(50)
	assert.Equal(t, 2, h.s.Lives())
	assert.True(t, o.HitPlayer)

	// Long after the tumble resolves the same obstacle still overlaps.
	h.ticks(300)
	assert.Equal(t, 2, h.s.Lives())
	assert.Equal(t, StateRunning, h.s.State())
}

func TestSession_LivesExhaustion(t *testing.T) {
	tn := quietTuning()
	tn.BaseSpeed = 0
	h := newHarness(t, tn)

	lives := []int{h.s.Lives()}
	var states []PlayerState
	for i, id := range []string{"a", "b", "c"} {
		h.place(id, config.PlayerDepth)
		h.tick(false)
		lives = append(lives, h.s.Lives())
		states = append(states, h.s.State())
		if i < 2 {
			h.tickUntil(200, func() bool { return h.s.State() == StateRunning })
			states = append(states, h.s.State())
		}
	}

	assert.Equal(t, []int{3, 2, 1, 0}, lives)
	assert.Equal(t, []PlayerState{
		StateTumbling, StateRunning,
		StateTumbling, StateRunning,
		StateGameOver,
	}, states)
}

func TestSession_GameOverFreezesPlayer(t *testing.T) {
	tn := quietTuning()
	tn.BaseSpeed = 0
	tn.Lives = 1
	h := newHarness(t, tn)
	h.place("a", config.PlayerDepth)
	h.tick(false)
	require.Equal(t, StateGameOver, h.s.State())

	h.tick(true)
	h.ticks(5)
	_, y, _ := h.s.PlayerPosition()
	assert.Equal(t, 0.0, y)
	assert.True(t, h.s.Snapshot().Grounded)
	assert.False(t, h.s.spawner.Active())

	h.place("b", config.PlayerDepth-0.5)
	h.ticks(5)
	assert.Equal(t, 0, h.s.Lives())
}

func TestSession_InvincibilitySuppressesDamage(t *testing.T) {
	tn := quietTuning()
	tn.BaseSpeed = 0
	h := newHarness(t, tn)
	h.s.invincible = time.Second

	o := h.place("a", config.PlayerDepth)
	h.tick(false)
	assert.Equal(t, 3, h.s.Lives())
	assert.False(t, o.HitPlayer)
}

func TestSession_DamageWithNoLivesIsNoop(t *testing.T) {
	h := newHarness(t, quietTuning())
	h.s.lives = 0
	o := &object.Obstacle{ID: "a"}

	h.s.applyDamage(0, []*object.Obstacle{o})
	assert.Equal(t, 0, h.s.Lives())
	assert.Equal(t, StateRunning, h.s.State())
	assert.False(t, o.HitPlayer)
}

func TestSession_JumpClearsObstacle(t *testing.T) {
	tn := quietTuning()
	h := newHarness(t, tn)

	// Arrives at the player after roughly 30 ticks; the jump is airborne for ~46.
	h.place("a", config.PlayerDepth-30*config.BaseSpeed)
	h.tick(true)
	h.tickUntil(100, func() bool { return h.s.Score() == 1 })
	assert.Equal(t, 3, h.s.Lives())
}

func TestSession_HitObstacleNeverScores(t *testing.T) {
	h := newHarness(t, quietTuning())
	o := h.place("a", config.PlayerDepth-0.5)

	h.tick(false)
	require.True(t, o.HitPlayer)

	h.tickUntil(200, func() bool { return o.PassedPlayer })
	h.ticks(50)
	assert.Equal(t, 0, h.s.Score())
}

func TestSession_ScoresOncePerObstacle(t *testing.T) {
	h := newHarness(t, quietTuning())
	o := h.place("a", config.PlayerDepth+1)

	h.tick(false)
	require.True(t, o.PassedPlayer)
	assert.Equal(t, 1, h.s.Score())

	for i := 0; i < 10; i++ {
		h.s.award()
	}
	h.ticks(20)
	assert.Equal(t, 1, h.s.Score())
}

func TestSession_DespawnKeepsScore(t *testing.T) {
	h := newHarness(t, quietTuning())
	h.place("a", config.PlayerDepth+1)

	h.tickUntil(200, func() bool { return len(h.s.Snapshot().Obstacles) == 0 })
	assert.Equal(t, 1, h.s.Score())
}

func TestSession_TumbleSlowsWorld(t *testing.T) {
	h := newHarness(t, quietTuning())
	h.place("hit", config.PlayerDepth)
	far := h.place("far", 0)

	h.tick(false)
	require.Equal(t, StateTumbling, h.s.State())
	before := far.Depth
	h.tick(false)
	assert.InDelta(t, config.BaseSpeed*config.TumbleSpeedFactor, far.Depth-before, 1e-9)
}

func TestSession_TumbleDurationIgnoresPause(t *testing.T) {
	resolve := func(pause bool) (wall, paused time.Duration) {
		tn := quietTuning()
		tn.BaseSpeed = 0
		h := newHarness(t, tn)
		h.place("a", config.PlayerDepth)
		h.tick(false)
		require.Equal(t, StateTumbling, h.s.State())
		hitAt := h.now

		h.ticks(10)
		if pause {
			pausedAt := h.now
			h.s.Pause(h.now)
			h.now = h.now.Add(5 * time.Second)
			require.True(t, h.s.RequestResume(h.now))
			h.tickUntil(400, func() bool { return !h.s.Paused() })
			paused = h.now.Sub(pausedAt)
		}
		h.tickUntil(400, func() bool { return h.s.State() == StateRunning })
		return h.now.Sub(hitAt), paused
	}

	plain, _ := resolve(false)
	withPause, p := resolve(true)
	assert.Greater(t, p, 8*time.Second)
	assert.Equal(t, plain, withPause-p)
	assert.GreaterOrEqual(t, plain, config.TumbleDuration)
}

func TestSession_PauseFreezesWorld(t *testing.T) {
	h := newHarness(t, quietTuning())
	o := h.place("a", 0)
	h.tick(false)
	depth := o.Depth

	h.s.Pause(h.now)
	h.ticks(100)
	assert.Equal(t, depth, o.Depth)
	assert.True(t, h.s.Snapshot().Pause.Paused)
}

func TestSession_VisibilityResumeRestartsSpawner(t *testing.T) {
	h := newHarness(t, DefaultTuning())
	h.ticks(200)
	h.s.SetVisible(h.now, false)
	require.True(t, h.s.Paused())

	h.now = h.now.Add(time.Minute)
	h.s.SetVisible(h.now, true)
	assert.Equal(t, config.ResumeCountdownSteps, h.s.Snapshot().Pause.Countdown)

	h.tickUntil(400, func() bool { return !h.s.Paused() })
	active := h.s.clock.Active(h.now)
	assert.Equal(t, active+config.FirstSpawnDelay, h.s.spawner.NextSpawn())
	assert.GreaterOrEqual(t, h.s.spawner.LastSpawn(), active-config.MinSpawnSpacing)
}

func TestSession_JumpNeedsRisingEdge(t *testing.T) {
	h := newHarness(t, quietTuning())

	h.tick(true)
	require.False(t, h.s.player.Grounded)
	for i := 0; i < 200 && !h.s.player.Grounded; i++ {
		h.tick(true)
	}
	require.True(t, h.s.player.Grounded)

	h.tick(true) // still held
	assert.True(t, h.s.player.Grounded)

	h.tick(false)
	h.tick(true)
	assert.False(t, h.s.player.Grounded)
}

func TestSession_SpeedEscalatesToCap(t *testing.T) {
	tn := DefaultTuning()
	tn.FirstSpawnDelay = time.Hour
	h := newHarness(t, tn)

	h.ticks(int(config.SpeedUpInterval/config.TickDuration) + 1)
	assert.InDelta(t, config.BaseSpeed+config.SpeedIncrement, h.s.Snapshot().Speed, 1e-9)

	h.ticks(int(20 * config.SpeedUpInterval / config.TickDuration))
	assert.Equal(t, config.MaxSpeed, h.s.Snapshot().Speed)
	assert.False(t, h.s.timers.armed(timerSpeedUp))
}

func TestSession_StaleTimerIsDropped(t *testing.T) {
	h := newHarness(t, quietTuning())
	h.s.Reset(h.now)
	h.s.timers.arm(timerSpeedUp, 0, h.s.Epoch()-1)

	h.tick(false)
	assert.Equal(t, config.BaseSpeed, h.s.Snapshot().Speed)
}

func TestSession_ResetClearsEverything(t *testing.T) {
	tn := quietTuning()
	tn.BaseSpeed = 0
	h := newHarness(t, tn)
	h.place("a", config.PlayerDepth)
	h.place("b", config.PlayerDepth+5)
	h.tick(false)
	require.Equal(t, StateTumbling, h.s.State())
	epoch := h.s.Epoch()

	h.s.Reset(h.now)
	snap := h.s.Snapshot()
	assert.Equal(t, epoch+1, snap.Epoch)
	assert.Equal(t, StateRunning, snap.State)
	assert.Equal(t, 3, snap.Lives)
	assert.Equal(t, 0, snap.Score)
	assert.Empty(t, snap.Obstacles)
	assert.False(t, h.s.timers.armed(timerTumbleExpiry))
	assert.False(t, h.s.wasColliding)
}

func TestSession_SpawnsDuringPlay(t *testing.T) {
	h := newHarness(t, DefaultTuning())
	h.ticks(int(config.FirstSpawnDelay/config.TickDuration) + 1)

	snap := h.s.Snapshot()
	require.Len(t, snap.Obstacles, 1)
	assert.Equal(t, config.SpawnDepth, snap.Obstacles[0].Position.Z)
}

func TestSession_ScoredObstacleCannotHit(t *testing.T) {
	assert.LessOrEqual(t, config.DepthWindow, config.ScoreMargin)

	h := newHarness(t, quietTuning())
	h.tick(true)
	h.tickUntil(100, func() bool {
		_, y, _ := h.s.PlayerPosition()
		return h.s.player.VY < 0 && y < 1.8
	})

	// Just past the score line while the player is still above clearance,
	// then the player lands with the obstacle close behind.
	h.place("a", config.PlayerDepth+config.ScoreMargin+0.01)
	best := 0
	for i := 0; i < 60; i++ {
		h.tick(false)
		require.GreaterOrEqual(t, h.s.Score(), best, "score dropped at tick %d", i)
		best = h.s.Score()
	}
	assert.Equal(t, 1, h.s.Score())
	assert.Equal(t, 3, h.s.Lives())
	assert.Equal(t, StateRunning, h.s.State())
}

func TestSession_ScoreNeverDecreasesAcrossLandings(t *testing.T) {
	for lead := 0; lead < 60; lead += 3 {
		h := newHarness(t, quietTuning())
		h.place("a", config.PlayerDepth-30*config.BaseSpeed)
		h.ticks(lead)
		h.tick(true)

		best := 0
		for i := 0; i < 150; i++ {
			h.tick(false)
			require.GreaterOrEqual(t, h.s.Score(), best, "lead %d tick %d", lead, i)
			best = h.s.Score()
		}
	}
}

func TestSession_TumbleTimeExcludesPause(t *testing.T) {
	tn := quietTuning()
	tn.BaseSpeed = 0
	h := newHarness(t, tn)
	h.place("a", config.PlayerDepth)
	h.tick(false)
	require.Equal(t, StateTumbling, h.s.State())
	assert.Zero(t, h.s.Snapshot().TumbleMs)

	h.ticks(10)
	assert.Equal(t, (10 * config.TickDuration).Milliseconds(), h.s.Snapshot().TumbleMs)

	h.s.Pause(h.now)
	h.now = h.now.Add(5 * time.Second)
	require.True(t, h.s.RequestResume(h.now))
	h.tickUntil(400, func() bool { return !h.s.Paused() })
	require.Equal(t, StateTumbling, h.s.State())
	assert.InDelta(t, (10 * config.TickDuration).Milliseconds(), h.s.Snapshot().TumbleMs,
		float64(config.TickDuration.Milliseconds()))

	h.tickUntil(400, func() bool { return h.s.State() == StateRunning })
	assert.Zero(t, h.s.Snapshot().TumbleMs)
}
