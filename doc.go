// Package kvconform is a reusable conformance suite for key-value cache
// implementations of the kvcontract.Cache contract.
//
// It does not implement a cache; it verifies that an implementation behaves
// as the contract specifies: key and TTL validation before mutation,
// value round-trips with snapshot semantics, default substitution on
// misses, time-based expiration, and order-preserving batch operations.
//
// Backend authors run the battery from their own tests:
//
//	func TestMyCacheConformance(t *testing.T) {
//		kvconform.Run(t, func(t testing.TB) kvcontract.Cache {
//			return mycache.New() // fresh, empty instance per case
//		}, kvconform.Options{})
//	}
//
// Default options use the contract's second-denominated TTL corpus and a
// two second observation delay, so expiration cases block for real time.
// For fast in-process backends, shrink the unit:
//
//	kvconform.Run(t, factory, kvconform.Options{
//		TTLUnit:          50 * time.Millisecond,
//		ObservationDelay: 120 * time.Millisecond,
//	})
package kvconform
