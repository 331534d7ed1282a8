package billing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedGenerator(prefix string, draws ...int) *Generator {
	g := NewGenerator(prefix, DefaultMaxAttempts)
	g.Now = func() time.Time { return time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC) }
	i := 0
	g.IntN = func(int) int {
		v := draws[i%len(draws)]
		i++
		return v
	}
	return g
}

func TestCandidateFormat(t *testing.T) {
	tests := []struct {
		draw int
		want string
	}{
		{0, "INV-20260315-0001"},
		{41, "INV-20260315-0042"},
		{9998, "INV-20260315-9999"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, fixedGenerator("INV", tt.draw).Candidate())
		})
	}
}

func TestAllocateSkipsTakenCandidates(t *testing.T) {
	g := fixedGenerator("RCP", 5, 5, 7)
	taken := map[string]bool{"RCP-20260315-0006": true}
	draws := 0
	isTaken := func(_ context.Context, c string) (bool, error) {
		draws++
		return taken[c], nil
	}

	got, err := g.Allocate(context.Background(), isTaken, nil)
	require.NoError(t, err)
	assert.Equal(t, "RCP-20260315-0008", got)
	assert.Equal(t, 3, draws)
}

func TestAllocateRetriesOnCollision(t *testing.T) {
	g := fixedGenerator("RCP", 5, 5, 7)
	stored := map[string]bool{}
	isTaken := func(_ context.Context, c string) (bool, error) { return stored[c], nil }
	claim := func(c string) error {
		stored[c] = true
		return nil
	}

	first, err := g.Allocate(context.Background(), isTaken, claim)
	require.NoError(t, err)
	second, err := g.Allocate(context.Background(), isTaken, claim)
	require.NoError(t, err)

	assert.Equal(t, "RCP-20260315-0006", first)
	assert.Equal(t, "RCP-20260315-0008", second)
}

func TestAllocateRetriesOnStorageDuplicate(t *testing.T) {
	g := fixedGenerator("INV", 1, 2)
	calls := 0
	claim := func(c string) error {
		calls++
		if c == "INV-20260315-0002" {
			return fmt.Errorf("%w: insert raced", ErrDuplicate)
		}
		return nil
	}
	never := func(context.Context, string) (bool, error) { return false, nil }

	got, err := g.Allocate(context.Background(), never, claim)
	require.NoError(t, err)
	assert.Equal(t, "INV-20260315-0003", got)
	assert.Equal(t, 2, calls)
}

func TestAllocateExhausted(t *testing.T) {
	g := fixedGenerator("INV", 3)
	always := func(context.Context, string) (bool, error) { return true, nil }

	_, err := g.Allocate(context.Background(), always, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIdentifierExhausted)

	var opErr *OpError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, "allocate INV number", opErr.Op)
}

func TestAllocateStopsOnOtherErrors(t *testing.T) {
	g := fixedGenerator("INV", 1)
	boom := errors.New("connection reset")
	_, err := g.Allocate(context.Background(),
		func(context.Context, string) (bool, error) { return false, nil },
		func(string) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestValidationErrorsMessage(t *testing.T) {
	v := ValidationErrors{}
	assert.NoError(t, v.Err())
	v.Add("tax", "tax must not be negative")
	v.Add("items", "at least one item is required")
	assert.EqualError(t, v.Err(), "validation failed: items: at least one item is required; tax: tax must not be negative")
}
