// Package clock abstracts wall-clock reads and delayed callbacks so the scan
// state machine can be driven deterministically in tests.
package clock

import "time"

// Timer is the subset of *time.Timer the scanner needs.
type Timer interface {
	Stop() bool
}

// Clock supplies the current time and schedules callbacks.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// System is the real wall clock. Times are returned in UTC.
type System struct{}

func (System) Now() time.Time { return time.Now().UTC() }

func (System) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
