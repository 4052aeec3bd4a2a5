// Package llm defines the generation endpoint contract and its decorators.
//
// The rest of the application treats the endpoint as an opaque function
// (modelID, prompt) -> text that may fail. Provider adapters live in the
// openai and anthropic subpackages.
package llm

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"
)

// Generator is a request/response text-generation endpoint.
type Generator interface {
	Generate(ctx context.Context, modelID, prompt string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, modelID, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, modelID, prompt string) (string, error) {
	return f(ctx, modelID, prompt)
}

// ErrDisabled is returned by the Disabled generator.
var ErrDisabled = errors.New("llm: no generation provider configured")

// Disabled fails every call. It is used when no provider is configured so
// the rest of the app keeps working without AI features.
type Disabled struct{}

func (Disabled) Generate(context.Context, string, string) (string, error) {
	return "", ErrDisabled
}

// RateLimited throttles calls to the wrapped generator. A call waits for a
// token or fails when ctx ends first.
type RateLimited struct {
	next    Generator
	limiter *rate.Limiter
}

// NewRateLimited wraps next. perSecond <= 0 returns next unchanged.
func NewRateLimited(next Generator, perSecond float64, burst int) Generator {
	if perSecond <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

func (r *RateLimited) Generate(ctx context.Context, modelID, prompt string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("llm: rate limit wait: %w", err)
	}
	return r.next.Generate(ctx, modelID, prompt)
}
