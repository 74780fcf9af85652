package kvconform

import "time"

// Sleeper performs the real-time wait between writing a TTL-carrying value
// and observing its expiry. Injecting a fake lets tests advance a controlled
// time source instead of blocking the calling goroutine.
type Sleeper interface {
	Sleep(d time.Duration)
}

// SleeperFunc adapts a function to the Sleeper interface.
type SleeperFunc func(d time.Duration)

// Sleep implements Sleeper.
func (f SleeperFunc) Sleep(d time.Duration) {
	if f == nil {
		return
	}
	f(d)
}

type realSleeper struct{}

func (realSleeper) Sleep(d time.Duration) { time.Sleep(d) }
