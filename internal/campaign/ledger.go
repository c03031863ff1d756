// internal/campaign/ledger.go
package campaign

import (
	"fmt"
	"sync"
)

// Stage is the lifecycle position of a listing within one campaign.
type Stage int

const (
	StageUnprocessed Stage = iota
	StageIneligible
	StageSubmitted
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageIneligible:
		return "ineligible"
	case StageSubmitted:
		return "submitted"
	case StageFailed:
		return "failed"
	}
	return "unprocessed"
}

// MarshalText renders the stage by name in JSON output.
func (s Stage) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Stage) UnmarshalText(text []byte) error {
	for _, st := range []Stage{StageUnprocessed, StageIneligible, StageSubmitted, StageFailed} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown stage %q", text)
}

// Ledger is the processed set of a campaign. A listing enters it at most
// once and its stage never changes afterwards.
type Ledger struct {
	mu     sync.RWMutex
	stages map[string]Stage
	order  []string
}

func NewLedger() *Ledger {
	return &Ledger{stages: make(map[string]Stage)}
}

// Mark records id as processed with stage. It reports false, leaving the
// ledger untouched, when id is already processed or stage is
// StageUnprocessed.
func (l *Ledger) Mark(id string, stage Stage) bool {
	if stage == StageUnprocessed {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, seen := l.stages[id]; seen {
		return false
	}
	l.stages[id] = stage
	l.order = append(l.order, id)
	return true
}

func (l *Ledger) Has(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.stages[id]
	return ok
}

// Stage returns StageUnprocessed for unknown ids.
func (l *Ledger) Stage(id string) Stage {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.stages[id]
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}

// IDs returns processed ids in the order they were marked.
func (l *Ledger) IDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.order...)
}

// Count returns how many listings sit in stage.
func (l *Ledger) Count(stage Stage) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, s := range l.stages {
		if s == stage {
			n++
		}
	}
	return n
}
