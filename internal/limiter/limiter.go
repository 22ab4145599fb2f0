package limiter

import (
	"fmt"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/jvx/pkg/loader"
)

// DefaultStructuredChars is the largest payload, in characters, that gets the
// folding tree view without being asked for it.
const DefaultStructuredChars = 800 * 1024

// Tier says which view a payload of a given size is eligible for.
type Tier int

const (
	TierStructured Tier = iota // full tree view
	TierPlain                  // plain view, folding available on request
	TierTooLarge               // plain view of the raw text, never parsed
)

func (t Tier) String() string {
	switch t {
	case TierStructured:
		return "structured"
	case TierPlain:
		return "plain"
	case TierTooLarge:
		return "too-large"
	default:
		return fmt.Sprintf("Tier(%d)", int(t))
	}
}

// Config holds the size thresholds.
type Config struct {
	MaxChars        int // hard ceiling; larger payloads are never parsed (0 = default)
	StructuredChars int // above this the plain view is preferred (0 = default)
}

// Default returns the stock thresholds.
func Default() Config {
	return Config{MaxChars: loader.DefaultMaxChars, StructuredChars: DefaultStructuredChars}
}

// Validate checks for conflicting thresholds and returns an error if invalid.
// Rules:
// - All values must be non-negative
// - The structured threshold cannot exceed the ceiling
func (c Config) Validate() error {
	if c.MaxChars < 0 {
		return fmt.Errorf("limits.maxChars must be non-negative, got %d", c.MaxChars)
	}
	if c.StructuredChars < 0 {
		return fmt.Errorf("limits.structuredChars must be non-negative, got %d", c.StructuredChars)
	}
	n := c.normalized()
	if n.StructuredChars > n.MaxChars {
		return fmt.Errorf("limits.structuredChars (%d) exceeds limits.maxChars (%d)", n.StructuredChars, n.MaxChars)
	}
	return nil
}

// Ceiling returns the effective hard ceiling.
func (c Config) Ceiling() int { return c.normalized().MaxChars }

// Classify maps a payload length in characters to its tier. Lengths equal to
// a threshold fall in the lower tier.
func (c Config) Classify(length int) Tier {
	n := c.normalized()
	switch {
	case length > n.MaxChars:
		return TierTooLarge
	case length > n.StructuredChars:
		return TierPlain
	default:
		return TierStructured
	}
}

// Load runs the safe parser with this ceiling and reports the tier alongside.
func (c Config) Load(raw string, lgr logr.Logger) (loader.Result, Tier) {
	res := loader.LoadWithLogger(raw, c.Ceiling(), lgr)
	return res, c.Classify(res.Length)
}

func (c Config) normalized() Config {
	if c.MaxChars == 0 {
		c.MaxChars = loader.DefaultMaxChars
	}
	if c.StructuredChars == 0 {
		c.StructuredChars = DefaultStructuredChars
	}
	return c
}
