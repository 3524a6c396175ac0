package ax25

import "time"

// Timer is a named, restartable monotonic countdown, modeled as an
// immutable value per spec.md §4.4 and grounded on original_source's
// ABMTimer dataclass: every operation returns a new Timer rather than
// mutating in place, so state snapshots (and the ABM State that embeds
// them) stay plain comparable values.
type Timer struct {
	name    string
	timeout time.Duration
	started time.Time // zero value means "not started"
}

// NewTimer returns a stopped timer with the given name and timeout.
func NewTimer(name string, timeout time.Duration) Timer {
	return Timer{name: name, timeout: timeout}
}

// Start returns a copy of t started at now+bonus. A bonus more negative
// than the timeout starts the timer already expired; StartExpired uses
// this to force an immediate timer-driven action on the next step (e.g.
// DISC after a user disconnect).
func (t Timer) Start(now time.Time, bonus time.Duration) Timer {
	t.started = now.Add(bonus)
	return t
}

// StartExpired returns a copy of t started far enough in the past that
// it is immediately expired.
func (t Timer) StartExpired(now time.Time) Timer {
	return t.Start(now, -(t.timeout + time.Second))
}

// StartAtEpoch returns a copy of t started at the Unix epoch: running,
// and expired against any realistic now. Used to seed a State's
// retransmit timer at construction time, before the caller has supplied
// a Clock to measure against (spec.md §3.4's "retransmit timer
// pre-expired, to fire SABM immediately").
func (t Timer) StartAtEpoch() Timer {
	t.started = time.Unix(0, 1)
	return t
}

// Stop returns a copy of t with no start time.
func (t Timer) Stop() Timer {
	t.started = time.Time{}
	return t
}

// Running reports whether t has been started (and not since stopped).
func (t Timer) Running() bool {
	return !t.started.IsZero()
}

// Expired reports whether t is running and now has passed its timeout.
func (t Timer) Expired(now time.Time) bool {
	return t.Running() && now.Sub(t.started) > t.timeout
}

// Elapsed returns how long t has been running as of now. Zero if stopped.
func (t Timer) Elapsed(now time.Time) time.Duration {
	if !t.Running() {
		return 0
	}
	return now.Sub(t.started)
}

// Equal reports value equality: both stopped, or both started at the
// same instant with the same timeout.
func (t Timer) Equal(other Timer) bool {
	if !t.Running() && !other.Running() {
		return true
	}
	if t.timeout != other.timeout {
		return false
	}
	return t.started.Equal(other.started)
}
