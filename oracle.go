package kvconform

import (
	"time"

	"github.com/goforj/kvconform/kvcontract"
)

// Expires reports whether a value written now with the given ttl will have
// expired once observationDelay has elapsed.
//
// An absent ttl (nil) never expires. An integer ttl of n seconds and a
// duration ttl both expire when the resolved lifetime has run out by the
// time the observation happens, i.e. lifetime <= observationDelay. The
// error mirrors the contract: a ttl outside the accepted shapes reports
// kvcontract.ErrInvalidTTL.
func Expires(ttl any, observationDelay time.Duration) (bool, error) {
	d, present, err := kvcontract.ResolveTTL(ttl)
	if err != nil {
		return false, err
	}
	if !present {
		return false, nil
	}
	return d <= observationDelay, nil
}
