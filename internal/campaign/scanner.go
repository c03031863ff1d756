// internal/campaign/scanner.go
package campaign

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/quickapply-cli/internal/observability"
	"github.com/xkilldash9x/quickapply-cli/internal/page"
)

// ErrNoEligibleListing means a scan pass found no unprocessed, eligible
// posting. It is not fatal to the campaign.
var ErrNoEligibleListing = errors.New("no eligible listing")

// Scanner finds the next posting worth applying to.
type Scanner struct {
	logger *zap.Logger
}

func NewScanner(logger *zap.Logger) *Scanner {
	return &Scanner{logger: logger.Named("scanner")}
}

// FindNextEligible walks visible postings in document order. Postings that
// lack the eligibility marker or are already applied to are marked
// ineligible in ledger as a side effect and skipped.
func (s *Scanner) FindNextEligible(ctx context.Context, surface page.ListingSurface, ledger *Ledger) (page.ListingCard, error) {
	cards, err := surface.Listings(ctx)
	if err != nil {
		return page.ListingCard{}, fmt.Errorf("failed to read listings: %w", err)
	}
	for _, c := range cards {
		if !c.Visible || c.ID == "" || ledger.Has(c.ID) {
			continue
		}
		if !c.Eligible || c.Applied {
			ledger.Mark(c.ID, StageIneligible)
			observability.ListingsProcessed.WithLabelValues(StageIneligible.String()).Inc()
			s.logger.Debug("Skipping listing.",
				zap.String("category", "scanner"),
				zap.String("listing", c.ID),
				zap.Bool("eligible", c.Eligible),
				zap.Bool("applied", c.Applied))
			continue
		}
		return c, nil
	}
	return page.ListingCard{}, ErrNoEligibleListing
}
