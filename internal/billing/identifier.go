package billing

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// DefaultMaxAttempts bounds how many candidates are tried before giving up.
const DefaultMaxAttempts = 6

// TakenFunc reports whether a candidate is already persisted.
type TakenFunc func(ctx context.Context, candidate string) (bool, error)

// ClaimFunc persists the row carrying candidate. An error wrapping ErrDuplicate
// means another writer got there first and a new candidate is drawn.
type ClaimFunc func(candidate string) error

// Generator produces identifiers of the form PREFIX-YYYYMMDD-NNNN with a
// random suffix in 1..9999. Uniqueness comes from the storage layer.
type Generator struct {
	Prefix      string
	MaxAttempts int
	Now         func() time.Time
	IntN        func(n int) int
}

func NewGenerator(prefix string, maxAttempts int) *Generator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Generator{
		Prefix:      prefix,
		MaxAttempts: maxAttempts,
		Now:         time.Now,
		IntN:        rand.Intn,
	}
}

// Candidate draws one identifier for today without checking it.
func (g *Generator) Candidate() string {
	return fmt.Sprintf("%s-%s-%04d", g.Prefix, g.Now().Format("20060102"), g.IntN(9999)+1)
}

// Allocate draws candidates until one is free and, when claim is set, stored.
func (g *Generator) Allocate(ctx context.Context, taken TakenFunc, claim ClaimFunc) (string, error) {
	for attempt := 0; attempt < g.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		candidate := g.Candidate()
		used, err := taken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if used {
			continue
		}
		if claim == nil {
			return candidate, nil
		}
		if err := claim(candidate); err != nil {
			if errors.Is(err, ErrDuplicate) {
				continue
			}
			return "", err
		}
		return candidate, nil
	}
	return "", &OpError{Op: "allocate " + g.Prefix + " number", Err: ErrIdentifierExhausted}
}
