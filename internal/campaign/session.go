// internal/campaign/session.go
package campaign

import (
	"time"

	"github.com/google/uuid"
)

// Session is the mutable state of one campaign run. It is created when the
// campaign starts and discarded when it ends.
type Session struct {
	ID      string
	Started time.Time
	Config  Config
	Ledger  *Ledger

	Attempts            int
	Submitted           int
	Failed              int
	ConsecutiveFailures int
	Recoveries          int
	Passes              int

	// recoveryStreak is the failure streak at the last recovery, so a
	// fruitless recovery is not retried before another failure.
	recoveryStreak int
}

func newSession(cfg Config, now time.Time) *Session {
	return &Session{
		ID:      uuid.NewString(),
		Started: now,
		Config:  cfg,
		Ledger:  NewLedger(),
	}
}

func (s *Session) quotaReached() bool {
	return s.Submitted >= s.Config.Quota
}

func (s *Session) thresholdReached() bool {
	return s.ConsecutiveFailures >= s.Config.FailureThreshold
}

// recoveryDue reports whether the failure streak calls for revealing more
// candidates before the hard threshold is hit.
func (s *Session) recoveryDue() bool {
	c := s.Config
	return c.RecoveryThreshold > 0 &&
		s.ConsecutiveFailures >= c.RecoveryThreshold &&
		!s.thresholdReached() &&
		s.Recoveries < c.MaxRecoveries &&
		s.ConsecutiveFailures > s.recoveryStreak
}
