package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GenerationTTL bounds how long a generation token lives without a bump.
// It must outlive every entry cached under it.
const GenerationTTL = 7 * 24 * time.Hour

// Generation names the current version of a group of cached keys. Entries
// are stored under Key(token, key), so bumping the token makes everything
// written under an older one unreachable, including writes that land after
// the bump.
type Generation struct {
	c   CacheService
	key string
}

func NewGeneration(c CacheService, key string) *Generation {
	return &Generation{c: c, key: key}
}

// Current returns the live token, creating one when none is stored.
func (g *Generation) Current(ctx context.Context) (string, error) {
	raw, found, err := g.c.Get(ctx, g.key)
	if err != nil {
		return "", fmt.Errorf("read cache generation: %w", err)
	}
	if found && len(raw) > 0 {
		return string(raw), nil
	}
	return g.Bump(ctx)
}

// Bump replaces the token and returns the new one.
func (g *Generation) Bump(ctx context.Context) (string, error) {
	token := uuid.NewString()
	if err := g.c.Set(ctx, g.key, []byte(token), GenerationTTL); err != nil {
		return "", fmt.Errorf("bump cache generation: %w", err)
	}
	return token, nil
}

func (g *Generation) Key(token, key string) string {
	return key + "@" + token
}
