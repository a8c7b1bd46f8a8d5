package dispatcher

import (
	"context"
	"fmt"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Breaker decides whether calls to an endpoint may proceed.
type Breaker interface {
	IsOpen(ctx context.Context, endpoint string) bool
	Open(ctx context.Context, endpoint string)
	Close(ctx context.Context, endpoint string)
}

// CircuitBreaker keeps breaker state in Redis so every instance sees the same
// cooldown for a generation endpoint.
type CircuitBreaker struct {
	redis       *redis.Client
	service     string
	baseBackoff time.Duration
	maxBackoff  time.Duration
}

func NewCircuitBreaker(redisClient *redis.Client, service string, baseBackoff, maxBackoff time.Duration) *CircuitBreaker {
	if baseBackoff <= 0 {
		baseBackoff = 30 * time.Second
	}
	if maxBackoff < baseBackoff {
		maxBackoff = baseBackoff
	}
	return &CircuitBreaker{
		redis:       redisClient,
		service:     service,
		baseBackoff: baseBackoff,
		maxBackoff:  maxBackoff,
	}
}

func (cb *CircuitBreaker) key(endpoint string) string {
	return fmt.Sprintf("cb:%s:%s", cb.service, endpoint)
}

// Backoff returns the cooldown after the given number of consecutive failures:
// base, 2*base, 4*base ... capped at max.
func Backoff(base, max time.Duration, failures int) time.Duration {
	d := base
	for i := 1; i < failures; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}

// Open opens (or extends) the breaker for an endpoint.
func (cb *CircuitBreaker) Open(ctx context.Context, endpoint string) {
	key := cb.key(endpoint)

	failuresStr, _ := cb.redis.HGet(ctx, key, "failures").Result()
	failures, _ := strconv.Atoi(failuresStr)
	failures++

	backoff := Backoff(cb.baseBackoff, cb.maxBackoff, failures)
	retryAt := time.Now().Add(backoff).Unix()

	cb.redis.HSet(ctx, key, map[string]interface{}{
		"state":     "open",
		"retry_at":  retryAt,
		"failures":  failures,
		"opened_at": time.Now().Unix(),
	})
	cb.redis.Expire(ctx, key, cb.maxBackoff*2)

	log.Warn().
		Str("service", cb.service).
		Str("endpoint", endpoint).
		Dur("cooldown", backoff).
		Int("failures", failures).
		Time("retry_at", time.Unix(retryAt, 0)).
		Msg("circuit breaker OPENED")
}

// IsOpen reports whether the endpoint is cooling down. An expired cooldown
// moves the breaker to half-open and lets one probe through.
func (cb *CircuitBreaker) IsOpen(ctx context.Context, endpoint string) bool {
	key := cb.key(endpoint)

	state, err := cb.redis.HGet(ctx, key, "state").Result()
	if err != nil || state != "open" {
		return false
	}

	retryAtStr, _ := cb.redis.HGet(ctx, key, "retry_at").Result()
	retryAt, _ := strconv.ParseInt(retryAtStr, 10, 64)

	if time.Now().Unix() >= retryAt {
		cb.redis.HSet(ctx, key, "state", "half_open")
		log.Info().
			Str("service", cb.service).
			Str("endpoint", endpoint).
			Msg("circuit breaker moved to HALF-OPEN")
		return false
	}
	return true
}

// Close resets the breaker on success.
func (cb *CircuitBreaker) Close(ctx context.Context, endpoint string) {
	key := cb.key(endpoint)
	state, _ := cb.redis.HGet(ctx, key, "state").Result()
	if state == "" || state == "closed" {
		return
	}
	cb.redis.Del(ctx, key)
	log.Info().
		Str("service", cb.service).
		Str("endpoint", endpoint).
		Msg("circuit breaker CLOSED (reset)")
}
