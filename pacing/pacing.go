// Package pacing computes the delay applied before each streamed row.
package pacing

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"
)

// Mode selects how delays are computed
type Mode string

const (
	// Fixed waits the configured interval before every row
	Fixed Mode = "fixed"
	// Variable waits a uniformly drawn delay in [0, interval) before every row
	Variable Mode = "variable"
)

var (
	// ErrInvalidInterval is returned for intervals that are not finite positive numbers
	ErrInvalidInterval = errors.New("interval must be a positive number of seconds")

	// ErrInvalidMode is returned for modes other than fixed and variable
	ErrInvalidMode = errors.New("mode must be one of: fixed, variable")
)

// ParseMode normalizes s, case is ignored
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case Fixed, Variable:
		return m, nil
	default:
		return "", fmt.Errorf("%w: got %q", ErrInvalidMode, s)
	}
}

// Config is a validated pacing configuration
type Config struct {
	Interval time.Duration
	Mode     Mode
}

// NewConfig validates seconds and mode
func NewConfig(seconds float64, mode string) (Config, error) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return Config{}, fmt.Errorf("%w: got %v", ErrInvalidInterval, seconds)
	}

	// float64(math.MaxInt64) rounds up to 2^63, which no Duration can hold
	if seconds >= float64(math.MaxInt64)/float64(time.Second) {
		return Config{}, fmt.Errorf("%w: %v seconds is too large", ErrInvalidInterval, seconds)
	}

	var interval = time.Duration(seconds * float64(time.Second))
	if interval <= 0 {
		return Config{}, fmt.Errorf("%w: %v is below one nanosecond", ErrInvalidInterval, seconds)
	}

	m, err := ParseMode(mode)
	if err != nil {
		return Config{}, err
	}

	return Config{Interval: interval, Mode: m}, nil
}

func (c Config) String() string {
	return fmt.Sprintf("%s every %v", c.Mode, c.Interval)
}

// Policy hands out delays for one configuration. It is not safe for concurrent use.
type Policy struct {
	cfg Config
	rnd *rand.Rand
}

// NewPolicy returns a policy for cfg drawing from rnd, a nil rnd is seeded from the clock
func NewPolicy(cfg Config, rnd *rand.Rand) *Policy {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec
	}

	return &Policy{cfg: cfg, rnd: rnd}
}

// Config returns the configuration the policy was built for
func (p *Policy) Config() Config {
	return p.cfg
}

// Delay returns the wait before the next row.
// The same value is meant to be both reported and slept for.
func (p *Policy) Delay() time.Duration {
	if p.cfg.Mode == Variable {
		return time.Duration(p.rnd.Float64() * float64(p.cfg.Interval))
	}

	return p.cfg.Interval
}
