package replica

import "time"

// SyncTiming selects how the next send of an object is scheduled after a
// payload went out.
type SyncTiming uint8

const (
	// SyncVariable waits at least Interval after the last send.
	SyncVariable SyncTiming = iota
	// SyncFixed keeps a cadence of one send per Interval. A late send is
	// followed by sends on the next drains until the cadence is caught up.
	SyncFixed
	// SyncNoInterval sends on every drain that has changes.
	SyncNoInterval
)

func (t SyncTiming) String() string {
	switch t {
	case SyncVariable:
		return "variable"
	case SyncFixed:
		return "fixed"
	case SyncNoInterval:
		return "no-interval"
	}
	return "unknown"
}

// SyncSettings limits how often changes of an object are sent. The zero
// value sends on every drain.
type SyncSettings struct {
	Interval time.Duration
	Timing   SyncTiming
}

func (s SyncSettings) due(next, now time.Time) bool {
	return s.Timing == SyncNoInterval || s.Interval <= 0 || !now.Before(next)
}

func (s SyncSettings) advance(next, now time.Time) time.Time {
	switch s.Timing {
	case SyncFixed:
		if next.IsZero() {
			return now.Add(s.Interval)
		}
		return next.Add(s.Interval)
	case SyncNoInterval:
		return now
	default:
		return now.Add(s.Interval)
	}
}
