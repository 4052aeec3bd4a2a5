package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echo() GeneratorFunc {
	return func(_ context.Context, modelID, prompt string) (string, error) {
		return modelID + ":" + prompt, nil
	}
}

func TestDisabled(t *testing.T) {
	_, err := Disabled{}.Generate(context.Background(), "m", "p")
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestNewRateLimited_ZeroRateIsPassthrough(t *testing.T) {
	g := NewRateLimited(echo(), 0, 0)
	_, isLimited := g.(*RateLimited)
	assert.False(t, isLimited)
}

func TestRateLimited_ForwardsCall(t *testing.T) {
	g := NewRateLimited(echo(), 100, 1)
	out, err := g.Generate(context.Background(), "m", "p")
	require.NoError(t, err)
	assert.Equal(t, "m:p", out)
}

func TestRateLimited_ContextEndsWhileWaiting(t *testing.T) {
	// One token per hour: the second call cannot get a token in time.
	g := NewRateLimited(echo(), 1.0/3600, 1)
	_, err := g.Generate(context.Background(), "m", "p")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = g.Generate(ctx, "m", "p")
	assert.Error(t, err)
}
