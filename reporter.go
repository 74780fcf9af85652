package kvconform

import "time"

// Reporter receives one event per executed case. It is called after the case
// finishes, whether it passed or failed.
type Reporter interface {
	OnCase(name string, family Family, failed bool, dur time.Duration)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(name string, family Family, failed bool, dur time.Duration)

// OnCase implements Reporter.
func (f ReporterFunc) OnCase(name string, family Family, failed bool, dur time.Duration) {
	if f == nil {
		return
	}
	f(name, family, failed, dur)
}
