package helpers

import (
	"time"

	"golang.org/x/time/rate"
)

// NewThrottle returns a rate.Sometimes that runs its function at most once a minute.
// Each caller owns its throttle so that unrelated warnings do not suppress each other.
func NewThrottle() *rate.Sometimes {
	return &rate.Sometimes{
		Interval: time.Minute,
	}
}
