package clock

import "time"

// Clock provides the current time to adapters that stamp records.
// Tests substitute a manual clock.
type Clock interface {
	Now() time.Time
}
