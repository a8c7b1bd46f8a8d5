package dispatcher

import (
	"fmt"
	"time"
)

// BreakerOpenError is returned without calling the service while the breaker
// for an endpoint is cooling down.
type BreakerOpenError struct {
	Endpoint string
}

func (e *BreakerOpenError) Error() string {
	return fmt.Sprintf("generation service %s is cooling down after repeated failures; try again shortly", e.Endpoint)
}

// TimeoutError is returned when a call exceeds the per-request timeout.
type TimeoutError struct {
	Endpoint string
	Timeout  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("generation service %s timed out after %s", e.Endpoint, e.Timeout)
}
