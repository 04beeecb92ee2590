package loop

import (
	"cmp"
	"slices"

	"github.com/tomz197/hopline/internal/clock"
	"github.com/tomz197/hopline/internal/object"
)

// ObstacleView is the read-only view of an obstacle for rendering.
type ObstacleView struct {
	ID       string          `json:"id"`
	Position object.Position `json:"position"`
	Hit      bool            `json:"hit"`
	Passed   bool            `json:"passed"`
}

// Snapshot is an immutable copy of the session state for renderers and UI.
type Snapshot struct {
	Epoch        uint64           `json:"epoch"`
	Tick         uint64           `json:"tick"`
	Score        int              `json:"score"`
	Lives        int              `json:"lives"`
	State        PlayerState      `json:"state"`
	Pause        clock.PauseState `json:"pause"`
	Speed        float64          `json:"speed"`
	ActiveMs     int64            `json:"active_ms"`
	InvincibleMs int64            `json:"invincible_ms"`
	TumbleMs     int64            `json:"tumble_ms"`
	Player       object.Position  `json:"player"`
	Grounded     bool             `json:"grounded"`
	Obstacles    []ObstacleView   `json:"obstacles"`
}

// Snapshot copies the current state. Obstacles are ordered nearest-first.
func (s *Session) Snapshot() *Snapshot {
	snap := &Snapshot{
		Epoch:        s.epoch,
		Tick:         s.ticks,
		Score:        s.ledger.Score(),
		Lives:        s.lives,
		State:        s.state,
		Pause:        s.pause.State(),
		Speed:        s.speed,
		ActiveMs:     s.lastActive.Milliseconds(),
		InvincibleMs: s.invincible.Milliseconds(),
		Player:       s.player.Position(),
		Grounded:     s.player.Grounded,
		Obstacles:    make([]ObstacleView, 0, len(s.obstacles)),
	}
	if s.state == StateTumbling {
		snap.TumbleMs = s.tumble.Elapsed(s.lastNow).Milliseconds()
	}
	for _, o := range s.obstacles {
		snap.Obstacles = append(snap.Obstacles, ObstacleView{
			ID:       o.ID,
			Position: o.Position(),
			Hit:      o.HitPlayer,
			Passed:   o.PassedPlayer,
		})
	}
	slices.SortFunc(snap.Obstacles, func(a, b ObstacleView) int {
		if c := cmp.Compare(b.Position.Z, a.Position.Z); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return snap
}
