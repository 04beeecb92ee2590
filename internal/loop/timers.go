package loop

import "time"

// timerKind identifies a session timer. At most one timer of each kind is
// pending at a time.
type timerKind int

const (
	timerTumbleExpiry timerKind = iota
	timerSpeedUp
)

func (k timerKind) String() string {
	switch k {
	case timerTumbleExpiry:
		return "tumble_expiry"
	case timerSpeedUp:
		return "speed_up"
	default:
		return "unknown"
	}
}

// scheduledTimer fires once active session time reaches due. It remembers
// the session epoch it was armed in; a timer from an older epoch is stale.
type scheduledTimer struct {
	kind  timerKind
	due   time.Duration
	epoch uint64
}

// timerQueue holds the session's pending timers.
type timerQueue struct {
	pending []scheduledTimer
}

// arm schedules a timer, replacing any pending timer of the same kind.
func (q *timerQueue) arm(kind timerKind, due time.Duration, epoch uint64) {
	q.cancel(kind)
	q.pending = append(q.pending, scheduledTimer{kind: kind, due: due, epoch: epoch})
}

// cancel drops a pending timer of the given kind.
func (q *timerQueue) cancel(kind timerKind) {
	kept := q.pending[:0]
	for _, t := range q.pending {
		if t.kind != kind {
			kept = append(kept, t)
		}
	}
	q.pending = kept
}

// armed reports whether a timer of the given kind is pending.
func (q *timerQueue) armed(kind timerKind) bool {
	for _, t := range q.pending {
		if t.kind == kind {
			return true
		}
	}
	return false
}

// due removes and returns every timer whose deadline has passed, in
// deadline order.
func (q *timerQueue) due(now time.Duration) []scheduledTimer {
	var fired []scheduledTimer
	kept := q.pending[:0]
	for _, t := range q.pending {
		if t.due <= now {
			fired = append(fired, t)
		} else {
			kept = append(kept, t)
		}
	}
	q.pending = kept

	for i := 1; i < len(fired); i++ {
		for j := i; j > 0 && fired[j].due < fired[j-1].due; j-- {
			fired[j], fired[j-1] = fired[j-1], fired[j]
		}
	}
	return fired
}

// clear drops every pending timer.
func (q *timerQueue) clear() {
	q.pending = q.pending[:0]
}
