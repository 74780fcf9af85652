package kvconform

import (
	"testing"
	"time"

	"github.com/goforj/kvconform/kvcontract"
)

// Factory yields a fresh, empty implementation instance for one case.
// Construction details (in-memory, networked, persisted) are up to the
// implementation; the suite only requires that no case observes state left
// behind by a previous one.
type Factory func(t testing.TB) kvcontract.Cache

// Run drives the implementation produced by factory through the full
// conformance battery. Each case runs as its own subtest against its own
// instance, so a failing case cannot affect the cases after it.
func Run(t *testing.T, factory Factory, opts Options) {
	t.Helper()
	opts = opts.withDefaults()

	for _, tc := range Cases(opts) {
		tc := tc
		t.Run(tc.Name, func(t *testing.T) {
			start := time.Now()
			if opts.Reporter != nil {
				defer func() {
					opts.Reporter.OnCase(tc.Name, tc.Family, t.Failed(), time.Since(start))
				}()
			}
			cache := factory(t)
			if cache == nil {
				t.Fatalf("factory returned a nil cache")
			}
			tc.Exercise(t, cache)
		})
	}
}
