// Package generator guards the external explanation function with a circuit
// breaker. Calls are never retried: a failed generation is reported as is.
package generator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"insighthub/pkg/platform/sentinel"
)

// Explainer is the external generator, e.g. *warehouse.Explainer.
type Explainer interface {
	GenerateExplanation(ctx context.Context, ageGroup, region string, riskScore, m2, m3, m4 float64) (string, error)
}

// Generator calls the Explainer through a breaker.
type Generator struct {
	explainer Explainer
	cb        *gobreaker.CircuitBreaker
}

type settings struct {
	threshold uint32
	timeout   time.Duration
	onChange  func(from, to string)
}

type Option func(*settings)

// WithFailureThreshold opens the breaker after n consecutive failures.
func WithFailureThreshold(n uint32) Option {
	return func(s *settings) {
		s.threshold = n
	}
}

// WithOpenTimeout sets how long the breaker stays open before a probe.
func WithOpenTimeout(d time.Duration) Option {
	return func(s *settings) {
		s.timeout = d
	}
}

func WithStateChange(fn func(from, to string)) Option {
	return func(s *settings) {
		s.onChange = fn
	}
}

func New(explainer Explainer, opts ...Option) *Generator {
	cfg := settings{threshold: 5, timeout: 30 * time.Second}
	for _, opt := range opts {
		opt(&cfg)
	}

	st := gobreaker.Settings{
		Name:        "insight-explanation",
		MaxRequests: 1,
		Timeout:     cfg.timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.threshold
		},
		// Caller cancellations say nothing about the generator's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}
	if cfg.onChange != nil {
		st.OnStateChange = func(_ string, from, to gobreaker.State) {
			cfg.onChange(from.String(), to.String())
		}
	}

	return &Generator{explainer: explainer, cb: gobreaker.NewCircuitBreaker(st)}
}

// Explain returns the generated text. An open breaker yields
// sentinel.ErrUnavailable without reaching the generator.
func (g *Generator) Explain(ctx context.Context, ageGroup, region string, riskScore, m2, m3, m4 float64) (string, error) {
	out, err := g.cb.Execute(func() (interface{}, error) {
		return g.explainer.GenerateExplanation(ctx, ageGroup, region, riskScore, m2, m3, m4)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("explanation generator: %w: %w", sentinel.ErrUnavailable, err)
		}
		return "", err
	}
	return out.(string), nil
}

// State reports the breaker state name (closed, half-open, open).
func (g *Generator) State() string {
	return g.cb.State().String()
}
