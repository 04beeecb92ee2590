package loop

import "github.com/tomz197/hopline/internal/object"

// Ledger awards one point per obstacle that passes the player without ever
// hitting it. The score is the size of the scored set, so re-checking an
// obstacle can never count it twice.
type Ledger struct {
	scored       map[string]struct{}
	disqualified map[string]struct{}
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		scored:       make(map[string]struct{}),
		disqualified: make(map[string]struct{}),
	}
}

// Disqualify permanently excludes an obstacle from scoring.
func (l *Ledger) Disqualify(id string) {
	l.disqualified[id] = struct{}{}
	delete(l.scored, id)
}

// Consider scores the obstacle if it is eligible. Returns true only when the
// obstacle was newly scored.
func (l *Ledger) Consider(o *object.Obstacle) bool {
	if o.HitPlayer {
		l.Disqualify(o.ID)
		return false
	}
	if !o.PassedPlayer {
		return false
	}
	if _, ok := l.disqualified[o.ID]; ok {
		return false
	}
	if _, ok := l.scored[o.ID]; ok {
		return false
	}
	l.scored[o.ID] = struct{}{}
	return true
}

// Forget drops a despawned obstacle's disqualification. Scored ids are kept
// because they make up the score.
func (l *Ledger) Forget(id string) {
	delete(l.disqualified, id)
}

// Score returns the number of distinct scored obstacles.
func (l *Ledger) Score() int {
	return len(l.scored)
}

// Reset forgets every scored and disqualified obstacle.
func (l *Ledger) Reset() {
	clear(l.scored)
	clear(l.disqualified)
}
