// Package catalog guards the movie catalog behind a circuit breaker so a
// failing backend degrades recommendations to their fallback quickly
// instead of timing out on every request.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/oggyb/moviease/internal/model"
)

// Source is a movie catalog.
type Source interface {
	Discover(ctx context.Context, q model.Query) ([]model.Movie, error)
	Popular(ctx context.Context, limit int) ([]model.Movie, error)
}

// BreakerConfig configures the circuit breaker.
type BreakerConfig struct {
	Name             string
	FailureThreshold uint32
	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration
}

// Breaker is a Source that stops calling its backend after
// FailureThreshold consecutive failures.
type Breaker struct {
	src Source
	cb  *gobreaker.CircuitBreaker[[]model.Movie]
}

// NewBreaker wraps src.
func NewBreaker(src Source, cfg BreakerConfig, log *slog.Logger) *Breaker {
	if cfg.Name == "" {
		cfg.Name = "catalog"
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("catalog circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
		// a caller giving up says nothing about the catalog's health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}
	return &Breaker{src: src, cb: gobreaker.NewCircuitBreaker[[]model.Movie](settings)}
}

func (b *Breaker) Discover(ctx context.Context, q model.Query) ([]model.Movie, error) {
	return b.cb.Execute(func() ([]model.Movie, error) {
		return b.src.Discover(ctx, q)
	})
}

func (b *Breaker) Popular(ctx context.Context, limit int) ([]model.Movie, error) {
	return b.cb.Execute(func() ([]model.Movie, error) {
		return b.src.Popular(ctx, limit)
	})
}

// State reports the breaker state for monitoring.
func (b *Breaker) State() string {
	return b.cb.State().String()
}
