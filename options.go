package kvconform

import "time"

const defaultTTLUnit = time.Second

// Options configures a conformance run.
type Options struct {
	// TTLUnit rescales the second-denominated TTL corpus for faster runs.
	// With a non-second unit, positive integer TTLs are materialized as
	// durations; the raw integer shape is still exercised by the zero and
	// negative TTL cases, which need no waiting. Defaults to one second.
	TTLUnit time.Duration

	// ObservationDelay is how long the suite waits between writing a
	// TTL-carrying value and re-reading it. Defaults to 2 × TTLUnit.
	ObservationDelay time.Duration

	// Sleeper performs the expiration wait. Defaults to a real time.Sleep.
	Sleeper Sleeper

	// Reporter receives one event per executed case.
	Reporter Reporter

	// SkipSnapshotCheck disables the "stored values are decoupled from the
	// caller's object" cases, for implementations that document live
	// reference semantics.
	SkipSnapshotCheck bool

	// SkipClear disables the clear cases for backends where a full flush is
	// unavailable or expensive.
	SkipClear bool
}

func (o Options) withDefaults() Options {
	if o.TTLUnit <= 0 {
		o.TTLUnit = defaultTTLUnit
	}
	if o.ObservationDelay <= 0 {
		o.ObservationDelay = 2 * o.TTLUnit
	}
	if o.Sleeper == nil {
		o.Sleeper = realSleeper{}
	}
	return o
}
