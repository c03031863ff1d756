// internal/campaign/campaign.go
package campaign

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/xkilldash9x/quickapply-cli/internal/notify"
	"github.com/xkilldash9x/quickapply-cli/internal/observability"
	"github.com/xkilldash9x/quickapply-cli/internal/page"
	"github.com/xkilldash9x/quickapply-cli/internal/profile"
	"github.com/xkilldash9x/quickapply-cli/internal/timing"
	"github.com/xkilldash9x/quickapply-cli/internal/wizard"
)

const abandonTimeout = 10 * time.Second

// ErrCampaignRunning rejects a campaign started while another is active.
var ErrCampaignRunning = errors.New("campaign already running")

// StopReason explains why a campaign ended.
type StopReason string

const (
	StopQuotaReached     StopReason = "quota_reached"
	StopFailureThreshold StopReason = "failure_threshold"
	StopExternal         StopReason = "stopped"
)

// Config bounds one campaign. MaxSteps and Delays also reach every wizard
// run; a zero MaxSteps keeps the driver's own budget.
type Config struct {
	Quota             int
	MaxSteps          int
	FailureThreshold  int
	RecoveryThreshold int
	MaxRecoveries     int
	Delays            timing.Delays
}

// WizardRunner drives one opened wizard.
type WizardRunner interface {
	Run(ctx context.Context, s wizard.Surface, p *profile.Profile, opts ...wizard.RunOption) (wizard.Result, error)
}

// ListingOutcome is one processed listing in the summary.
type ListingOutcome struct {
	ID    string `json:"id"`
	Stage Stage  `json:"stage"`
}

// Summary is what a finished campaign reports back.
type Summary struct {
	SessionID  string           `json:"session_id"`
	Submitted  int              `json:"submitted"`
	Failed     int              `json:"failed"`
	Ineligible int              `json:"ineligible"`
	Attempts   int              `json:"attempts"`
	Processed  int              `json:"processed"`
	Recoveries int              `json:"recoveries"`
	Elapsed    time.Duration    `json:"elapsed"`
	StopReason StopReason       `json:"stop_reason"`
	Listings   []ListingOutcome `json:"listings"`
}

// Runner runs campaigns against one page. At most one campaign runs at a
// time; a second Run is rejected rather than queued.
type Runner struct {
	cfg      Config
	page     page.Page
	driver   WizardRunner
	scanner  *Scanner
	notifier notify.Notifier
	clock    timing.Clock
	logger   *zap.Logger
	guard    *semaphore.Weighted
}

// NewRunner wires a campaign runner.
func NewRunner(cfg Config, pg page.Page, driver WizardRunner, notifier notify.Notifier, clock timing.Clock, logger *zap.Logger) *Runner {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if clock == nil {
		clock = timing.RealClock{}
	}
	logger = logger.Named("campaign")
	return &Runner{
		cfg:      cfg,
		page:     pg,
		driver:   driver,
		scanner:  NewScanner(logger),
		notifier: notifier,
		clock:    clock,
		logger:   logger,
		guard:    semaphore.NewWeighted(1),
	}
}

// Run applies to postings until the quota is met or the consecutive
// failure threshold is hit. Cancelling ctx stops the campaign between
// steps; the partial summary is still returned.
func (r *Runner) Run(ctx context.Context, p *profile.Profile) (Summary, error) {
	return r.RunWith(ctx, r.cfg, p)
}

// RunWith is Run with per-invocation bounds. The single-campaign guard is
// shared with Run.
func (r *Runner) RunWith(ctx context.Context, cfg Config, p *profile.Profile) (Summary, error) {
	if !r.guard.TryAcquire(1) {
		r.notify(ctx, notify.Critical, "A campaign is already running.")
		return Summary{}, ErrCampaignRunning
	}
	defer r.guard.Release(1)

	sess := newSession(cfg, r.clock.Now())
	pacer := timing.NewPacer(r.clock, cfg.Delays.BetweenListings)
	log := r.logger.With(zap.String("session", sess.ID))
	log.Info("Campaign started.",
		zap.String("category", "campaign"),
		zap.Int("quota", cfg.Quota),
		zap.Int("failure_threshold", cfg.FailureThreshold))
	r.notify(ctx, notify.Info, fmt.Sprintf("Campaign started: up to %d applications.", cfg.Quota))

	reason := r.loop(ctx, sess, pacer, p, log)

	summary := r.summarize(sess, reason)
	observability.CampaignDuration.Observe(summary.Elapsed.Seconds())
	log.Info("Campaign finished.",
		zap.String("category", "campaign"),
		zap.String("reason", string(reason)),
		zap.Int("submitted", summary.Submitted),
		zap.Int("failed", summary.Failed),
		zap.Int("processed", summary.Processed),
		zap.Duration("elapsed", summary.Elapsed))

	severity := notify.Success
	if reason == StopFailureThreshold {
		severity = notify.Error
	}
	// The caller's context may already be gone; the closing toast still
	// goes out.
	r.notify(context.WithoutCancel(ctx), severity,
		fmt.Sprintf("Campaign finished (%s): %d submitted, %d failed.", reason, summary.Submitted, summary.Failed))
	return summary, nil
}

func (r *Runner) loop(ctx context.Context, sess *Session, pacer *timing.Pacer, p *profile.Profile, log *zap.Logger) StopReason {
	for {
		switch {
		case ctx.Err() != nil:
			return StopExternal
		case sess.quotaReached():
			return StopQuotaReached
		case sess.thresholdReached():
			return StopFailureThreshold
		}

		if sess.recoveryDue() {
			r.recover(ctx, sess, log)
			continue
		}

		sess.Passes++
		r.ensureFilter(ctx, sess, log)

		card, err := r.scanner.FindNextEligible(ctx, r.page, sess.Ledger)
		if err != nil {
			if ctx.Err() != nil {
				return StopExternal
			}
			sess.ConsecutiveFailures++
			log.Info("No listing to apply to in this pass.",
				zap.String("category", "scanner"),
				zap.Int("consecutive_failures", sess.ConsecutiveFailures),
				zap.Error(err))
			_ = sess.Config.Delays.Pause(ctx, r.clock, timing.AfterNavigation)
			continue
		}

		if err := pacer.Wait(ctx); err != nil {
			return StopExternal
		}
		r.attempt(ctx, sess, card, p, log)
	}
}

// attempt opens one listing and drives its wizard, folding the outcome into
// the session counters.
func (r *Runner) attempt(ctx context.Context, sess *Session, card page.ListingCard, p *profile.Profile, log *zap.Logger) {
	sess.Attempts++
	log = log.With(zap.String("listing", card.ID), zap.String("title", card.Title))

	fail := func(msg string, err error) {
		r.record(sess, card.ID, StageFailed)
		sess.Failed++
		sess.ConsecutiveFailures++
		log.Warn(msg,
			zap.String("category", "campaign"),
			zap.Int("consecutive_failures", sess.ConsecutiveFailures),
			zap.Error(err))
		r.notify(ctx, notify.Warning, fmt.Sprintf("Could not apply to %q.", displayTitle(card)))
	}

	if err := r.page.OpenListing(ctx, card.ID); err != nil {
		if ctx.Err() != nil {
			return
		}
		fail("Failed to open listing.", err)
		return
	}
	_ = sess.Config.Delays.Pause(ctx, r.clock, timing.AfterSelect)

	opened, err := r.page.OpenWizard(ctx)
	if err != nil || !opened {
		if ctx.Err() != nil {
			r.abandon(ctx, log)
			return
		}
		if err == nil {
			err = errors.New("wizard did not appear")
		}
		fail("Failed to open application wizard.", err)
		return
	}
	_ = sess.Config.Delays.Pause(ctx, r.clock, timing.AfterClick)

	res, err := r.driver.Run(ctx, r.page, p,
		wizard.WithMaxSteps(sess.Config.MaxSteps),
		wizard.WithDelays(sess.Config.Delays))
	if err != nil {
		if ctx.Err() != nil {
			// A stop is not a verdict on the listing; it stays unprocessed.
			r.abandon(ctx, log)
			return
		}
		fail("Wizard interrupted.", err)
		return
	}
	if res.Outcome != wizard.StateSuccess {
		fail("Wizard ended without a submission.", res.Err)
		return
	}

	r.record(sess, card.ID, StageSubmitted)
	sess.Submitted++
	sess.ConsecutiveFailures = 0
	log.Info("Application submitted.",
		zap.String("category", "campaign"),
		zap.Int("steps", res.Steps),
		zap.Int("fields_filled", res.FieldsFilled),
		zap.Int("submitted", sess.Submitted))
	r.notify(ctx, notify.Success, fmt.Sprintf("Applied to %q (%d/%d).", displayTitle(card), sess.Submitted, sess.Config.Quota))

	// Close any post-submit dialog so the listing column is usable again.
	if present, err := r.page.WizardPresent(ctx); err == nil && present {
		if err := r.page.DismissWizard(ctx); err != nil {
			log.Debug("Failed to close confirmation dialog.", zap.Error(err))
		}
	}
}

// abandon closes a wizard left open by a stop.
func (r *Runner) abandon(ctx context.Context, log *zap.Logger) {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), abandonTimeout)
	defer cancel()
	if present, err := r.page.WizardPresent(dctx); err != nil || !present {
		return
	}
	if err := r.page.DismissWizard(dctx); err != nil {
		log.Debug("Failed to close interrupted wizard.", zap.Error(err))
		return
	}
	log.Info("Closed the wizard interrupted by the stop.", zap.String("category", "campaign"))
}

// recover reveals more candidates. The failure streak restarts only when
// something new became visible.
func (r *Runner) recover(ctx context.Context, sess *Session, log *zap.Logger) {
	sess.Recoveries++
	sess.recoveryStreak = sess.ConsecutiveFailures
	revealed, err := r.page.RevealMore(ctx)
	if err != nil {
		log.Warn("Recovery action failed.", zap.String("category", "campaign"), zap.Error(err))
	}
	if revealed {
		sess.ConsecutiveFailures = 0
		sess.recoveryStreak = 0
		_ = sess.Config.Delays.Pause(ctx, r.clock, timing.AfterNavigation)
	}
	log.Info("Recovery attempted.",
		zap.String("category", "campaign"),
		zap.Bool("revealed", revealed),
		zap.Int("recoveries", sess.Recoveries))
	r.notify(ctx, notify.Warning, "Too many misses in a row, looking further down the list.")
}

// ensureFilter reapplies the eligibility filter when the page lost it and
// waits for it to take effect. Failures are logged only.
func (r *Runner) ensureFilter(ctx context.Context, sess *Session, log *zap.Logger) {
	active, err := r.page.FilterActive(ctx)
	if err == nil && active {
		return
	}
	if err := r.page.ApplyFilter(ctx); err != nil {
		log.Warn("Failed to apply eligibility filter.", zap.String("category", "scanner"), zap.Error(err))
		return
	}
	d := sess.Config.Delays
	err = timing.WaitUntil(ctx, r.clock, r.page.FilterActive, d.PollAttempts, d.PollInterval)
	if err != nil {
		log.Warn("Eligibility filter did not settle.", zap.String("category", "scanner"), zap.Error(err))
		return
	}
	_ = d.Pause(ctx, r.clock, timing.AfterNavigation)
}

func (r *Runner) record(sess *Session, id string, stage Stage) {
	if sess.Ledger.Mark(id, stage) {
		observability.ListingsProcessed.WithLabelValues(stage.String()).Inc()
	}
}

func (r *Runner) notify(ctx context.Context, sev notify.Severity, text string) {
	if err := r.notifier.Notify(ctx, notify.Notification{Text: text, Severity: sev, Category: notify.CategoryCampaign}); err != nil {
		r.logger.Debug("Notification not delivered.", zap.Error(err))
	}
}

func (r *Runner) summarize(sess *Session, reason StopReason) Summary {
	ids := sess.Ledger.IDs()
	outcomes := make([]ListingOutcome, 0, len(ids))
	for _, id := range ids {
		outcomes = append(outcomes, ListingOutcome{ID: id, Stage: sess.Ledger.Stage(id)})
	}
	return Summary{
		SessionID:  sess.ID,
		Submitted:  sess.Submitted,
		Failed:     sess.Failed,
		Ineligible: sess.Ledger.Count(StageIneligible),
		Attempts:   sess.Attempts,
		Processed:  sess.Ledger.Len(),
		Recoveries: sess.Recoveries,
		Elapsed:    r.clock.Now().Sub(sess.Started),
		StopReason: reason,
		Listings:   outcomes,
	}
}

func displayTitle(c page.ListingCard) string {
	if c.Title != "" {
		return c.Title
	}
	return c.ID
}
