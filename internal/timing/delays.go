// internal/timing/delays.go
package timing

import (
	"context"
	"time"
)

// Delay names one suspension point of the automation.
type Delay string

const (
	AfterNavigation Delay = "after_navigation"
	AfterSelect     Delay = "after_select"
	AfterClick      Delay = "after_click"
	AfterField      Delay = "after_field"
	BetweenListings Delay = "between_listings"
)

// Delays is the named suspension table of a campaign, plus the polling
// parameters used when awaiting document mutation.
type Delays struct {
	AfterNavigation time.Duration `mapstructure:"after_navigation" yaml:"after_navigation"`
	AfterSelect     time.Duration `mapstructure:"after_select" yaml:"after_select"`
	AfterClick      time.Duration `mapstructure:"after_click" yaml:"after_click"`
	AfterField      time.Duration `mapstructure:"after_field" yaml:"after_field"`
	BetweenListings time.Duration `mapstructure:"between_listings" yaml:"between_listings"`
	PollInterval    time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	PollAttempts    int           `mapstructure:"poll_attempts" yaml:"poll_attempts"`
}

// DefaultDelays mirrors the values shipped in the default configuration.
func DefaultDelays() Delays {
	return Delays{
		AfterNavigation: 3 * time.Second,
		AfterSelect:     2 * time.Second,
		AfterClick:      time.Second,
		AfterField:      200 * time.Millisecond,
		BetweenListings: 3 * time.Second,
		PollInterval:    500 * time.Millisecond,
		PollAttempts:    10,
	}
}

// Get returns the duration for a named delay, zero when unknown.
func (d Delays) Get(name Delay) time.Duration {
	switch name {
	case AfterNavigation:
		return d.AfterNavigation
	case AfterSelect:
		return d.AfterSelect
	case AfterClick:
		return d.AfterClick
	case AfterField:
		return d.AfterField
	case BetweenListings:
		return d.BetweenListings
	}
	return 0
}

// Pause sleeps for the named delay on clock.
func (d Delays) Pause(ctx context.Context, clock Clock, name Delay) error {
	return clock.Sleep(ctx, d.Get(name))
}
