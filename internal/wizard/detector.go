// internal/wizard/detector.go
package wizard

import (
	"context"
	"fmt"
	"strings"

	"github.com/xkilldash9x/quickapply-cli/internal/page"
)

// Signal names the evidence that a submission went through.
type Signal string

const (
	SignalNone           Signal = ""
	SignalSuccessSurface Signal = "success_surface"
	SignalBodyPhrase     Signal = "body_phrase"
	SignalWizardClosed   Signal = "wizard_closed"
)

// DefaultConfirmationPhrases are matched case-insensitively.
var DefaultConfirmationPhrases = []string{
	"application sent",
	"application submitted",
	"your application was sent",
	"thank you for applying",
	"successfully submitted",
}

// Detector decides whether the open wizard has reached terminal success.
// It only reads the page.
type Detector struct {
	phrases []string
}

// NewDetector builds a detector. An empty phrase list selects the defaults.
func NewDetector(phrases []string) *Detector {
	if len(phrases) == 0 {
		phrases = DefaultConfirmationPhrases
	}
	lowered := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			lowered = append(lowered, p)
		}
	}
	return &Detector{phrases: lowered}
}

// Detect returns the first success signal found. Checks run in order:
// success surfaces, page text, wizard presence.
func (d *Detector) Detect(ctx context.Context, s page.TerminalSurface) (Signal, error) {
	surfaces, err := s.SuccessSurfaces(ctx)
	if err != nil {
		return SignalNone, fmt.Errorf("failed to read success surfaces: %w", err)
	}
	for _, text := range surfaces {
		if d.containsPhrase(text) {
			return SignalSuccessSurface, nil
		}
	}

	body, err := s.BodyText(ctx)
	if err != nil {
		return SignalNone, fmt.Errorf("failed to read page text: %w", err)
	}
	if d.containsPhrase(body) {
		return SignalBodyPhrase, nil
	}

	present, err := s.WizardPresent(ctx)
	if err != nil {
		return SignalNone, fmt.Errorf("failed to check wizard presence: %w", err)
	}
	if !present {
		return SignalWizardClosed, nil
	}
	return SignalNone, nil
}

// IsSubmitted reports whether any success signal is present.
func (d *Detector) IsSubmitted(ctx context.Context, s page.TerminalSurface) (bool, error) {
	sig, err := d.Detect(ctx, s)
	return sig != SignalNone, err
}

func (d *Detector) containsPhrase(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range d.phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
