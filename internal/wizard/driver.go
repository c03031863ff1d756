// internal/wizard/driver.go
package wizard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/quickapply-cli/internal/form"
	"github.com/xkilldash9x/quickapply-cli/internal/observability"
	"github.com/xkilldash9x/quickapply-cli/internal/page"
	"github.com/xkilldash9x/quickapply-cli/internal/profile"
	"github.com/xkilldash9x/quickapply-cli/internal/timing"
)

var (
	// ErrStepBudgetExceeded is reported when a wizard does not finish within
	// its step budget. It marks a Failure outcome, not a fault.
	ErrStepBudgetExceeded = errors.New("wizard step budget exceeded")
	// ErrSubmissionNotDetected is recorded for a step whose every action
	// was exhausted without a success signal.
	ErrSubmissionNotDetected = errors.New("submission not detected")
)

// State is a node of the wizard state machine.
type State string

const (
	StateFilling           State = "filling"
	StateAttemptingSubmit  State = "attempting_submit"
	StateAttemptingAdvance State = "attempting_advance"
	StateStuck             State = "stuck"
	StateForcedSubmit      State = "forced_submit"
	StateSuccess           State = "success"
	StateFailure           State = "failure"
)

// Terminal reports whether no further transition leaves s.
func (s State) Terminal() bool { return s == StateSuccess || s == StateFailure }

// Surface is what the driver needs from the page.
type Surface interface {
	page.WizardSurface
	page.TerminalSurface
}

// Filler fills the visible controls of one wizard step.
type Filler interface {
	Fill(ctx context.Context, surface page.WizardSurface, p *profile.Profile, opts ...form.FillOption) (form.FillReport, error)
}

// Config bounds and steers the driver.
type Config struct {
	MaxSteps        int
	SubmitKeywords  []string
	AdvanceKeywords []string
	Delays          timing.Delays
}

// DefaultSubmitKeywords and DefaultAdvanceKeywords match button text exactly
// after case folding.
var (
	DefaultSubmitKeywords  = []string{"submit application", "submit"}
	DefaultAdvanceKeywords = []string{"next", "continue", "review", "continue to next step", "review your application"}
)

// Transition records one state change.
type Transition struct {
	Step int    `json:"step"`
	From State  `json:"from"`
	To   State  `json:"to"`
	Note string `json:"note,omitempty"`
}

// Result is the outcome of one wizard run.
type Result struct {
	Outcome      State        `json:"outcome"`
	Steps        int          `json:"steps"`
	FieldsFilled int          `json:"fields_filled"`
	Signal       Signal       `json:"signal,omitempty"`
	Transitions  []Transition `json:"transitions"`
	Err          error        `json:"-"`
}

// Driver walks a wizard to Success or Failure within MaxSteps cycles.
type Driver struct {
	cfg      Config
	filler   Filler
	detector *Detector
	clock    timing.Clock
	logger   *zap.Logger
}

// NewDriver creates a driver. Missing keywords and a non-positive budget
// fall back to the defaults.
func NewDriver(cfg Config, filler Filler, detector *Detector, clock timing.Clock, logger *zap.Logger) *Driver {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = 30
	}
	if len(cfg.SubmitKeywords) == 0 {
		cfg.SubmitKeywords = DefaultSubmitKeywords
	}
	if len(cfg.AdvanceKeywords) == 0 {
		cfg.AdvanceKeywords = DefaultAdvanceKeywords
	}
	cfg.SubmitKeywords = lowerAll(cfg.SubmitKeywords)
	cfg.AdvanceKeywords = lowerAll(cfg.AdvanceKeywords)
	if detector == nil {
		detector = NewDetector(nil)
	}
	if clock == nil {
		clock = timing.RealClock{}
	}
	return &Driver{cfg: cfg, filler: filler, detector: detector, clock: clock, logger: logger.Named("wizard")}
}

// RunOption overrides a driver setting for one Run call.
type RunOption func(*run)

// WithMaxSteps sets the step budget of one run. Non-positive values are
// ignored.
func WithMaxSteps(n int) RunOption {
	return func(r *run) {
		if n > 0 {
			r.maxSteps = n
		}
	}
}

// WithDelays sets the pauses of one run, fill passes included.
func WithDelays(d timing.Delays) RunOption {
	return func(r *run) {
		r.delays = d
		r.fillOpts = []form.FillOption{form.WithDelays(d)}
	}
}

// run carries the mutable state of one Run call.
type run struct {
	state    State
	step     int
	result   Result
	maxSteps int
	delays   timing.Delays
	fillOpts []form.FillOption
}

func (r *run) to(next State, note string) {
	r.result.Transitions = append(r.result.Transitions, Transition{Step: r.step, From: r.state, To: next, Note: note})
	r.state = next
}

// Run drives the open wizard. The returned error is non-nil only when ctx
// ends; a Failure outcome is reported through Result.Err.
func (d *Driver) Run(ctx context.Context, s Surface, p *profile.Profile, opts ...RunOption) (Result, error) {
	r := &run{state: StateFilling, maxSteps: d.cfg.MaxSteps, delays: d.cfg.Delays}
	for _, opt := range opts {
		opt(r)
	}
	defer func() {
		observability.WizardSteps.WithLabelValues(string(r.result.Outcome)).Observe(float64(r.result.Steps))
	}()

	var lastErr error
	for r.step = 1; r.step <= r.maxSteps; r.step++ {
		r.result.Steps = r.step
		if r.state != StateFilling {
			r.to(StateFilling, "next step")
		}

		done, err := d.cycle(ctx, s, p, r)
		if err != nil {
			r.result.Outcome = StateFailure
			r.result.Err = err
			return r.result, err
		}
		if done {
			r.result.Outcome = StateSuccess
			d.logger.Info("Wizard submitted.",
				zap.String("category", "wizard"),
				zap.Int("steps", r.step),
				zap.String("signal", string(r.result.Signal)))
			return r.result, nil
		}
		if r.state == StateStuck {
			lastErr = ErrSubmissionNotDetected
		} else {
			lastErr = nil
		}
	}

	r.to(StateFailure, "step budget exhausted")
	r.result.Outcome = StateFailure
	if lastErr != nil {
		r.result.Err = fmt.Errorf("%w after %d steps: %w", ErrStepBudgetExceeded, r.maxSteps, lastErr)
	} else {
		r.result.Err = fmt.Errorf("%w after %d steps", ErrStepBudgetExceeded, r.maxSteps)
	}
	d.logger.Warn("Wizard did not finish within its step budget.",
		zap.String("category", "wizard"),
		zap.Int("max_steps", r.maxSteps),
		zap.Error(r.result.Err))

	// Leave the page clean for the next listing.
	if err := s.DismissWizard(ctx); err != nil {
		d.logger.Debug("Failed to dismiss wizard.", zap.Error(err))
	}
	return r.result, nil
}

// cycle executes one fill/submit/advance cycle. It reports true on success.
func (d *Driver) cycle(ctx context.Context, s Surface, p *profile.Profile, r *run) (bool, error) {
	if ok, err := d.submitted(ctx, s, r); ok || err != nil {
		return ok, err
	}

	report, err := d.filler.Fill(ctx, s, p, r.fillOpts...)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}
	if err != nil {
		d.logger.Debug("Fill pass failed.", zap.Int("step", r.step), zap.Error(err))
	}
	r.result.FieldsFilled += report.Filled
	if ok, err := d.submitted(ctx, s, r); ok || err != nil {
		return ok, err
	}

	buttons, err := s.Buttons(ctx)
	if err != nil {
		d.logger.Debug("Failed to list wizard buttons.", zap.Error(err))
	}

	r.to(StateAttemptingSubmit, "")
	if b, ok := findButton(buttons, d.cfg.SubmitKeywords, d.cfg.AdvanceKeywords, equalsKeyword); ok {
		if d.click(ctx, s, r, b) {
			return d.submitted(ctx, s, r)
		}
	}

	r.to(StateAttemptingAdvance, "")
	if b, ok := findButton(buttons, d.cfg.AdvanceKeywords, d.cfg.SubmitKeywords, equalsKeyword); ok {
		if d.click(ctx, s, r, b) {
			return d.submitted(ctx, s, r)
		}
	}

	r.to(StateStuck, "no submit or advance action")
	r.to(StateForcedSubmit, "")
	fired := false
	if b, ok := findButton(buttons, d.cfg.SubmitKeywords, d.cfg.AdvanceKeywords, containsKeyword); ok {
		fired = d.click(ctx, s, r, b)
	}
	if !fired {
		dispatched, err := s.InjectConfirm(ctx)
		if err != nil {
			d.logger.Debug("Synthetic confirm failed.", zap.Error(err))
		}
		fired = dispatched
		if fired {
			if err := r.delays.Pause(ctx, d.clock, timing.AfterClick); err != nil {
				return false, err
			}
		}
	}
	ok, err := d.submitted(ctx, s, r)
	if ok || err != nil {
		return ok, err
	}
	r.to(StateStuck, "forced submit had no effect, fired="+strconv.FormatBool(fired))
	return false, nil
}

// submitted consults the detector and moves r to Success when it fires.
// Detector errors count as "not yet"; only ctx errors are returned.
func (d *Driver) submitted(ctx context.Context, s Surface, r *run) (bool, error) {
	sig, err := d.detector.Detect(ctx, s)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}
	if err != nil {
		d.logger.Debug("Terminal detection failed.", zap.Int("step", r.step), zap.Error(err))
		return false, nil
	}
	if sig == SignalNone {
		return false, nil
	}
	r.result.Signal = sig
	r.to(StateSuccess, string(sig))
	return true, nil
}

func (d *Driver) click(ctx context.Context, s Surface, r *run, b page.Button) bool {
	if err := s.Click(ctx, b.Ref); err != nil {
		d.logger.Debug("Click failed.", zap.String("button", buttonText(b)), zap.Error(err))
		return false
	}
	d.logger.Debug("Clicked.", zap.String("button", buttonText(b)))
	return r.delays.Pause(ctx, d.clock, timing.AfterClick) == nil
}

type keywordMatch func(text, keyword string) bool

func equalsKeyword(text, keyword string) bool   { return text == keyword }
func containsKeyword(text, keyword string) bool { return strings.Contains(text, keyword) }

// findButton returns the first button whose text or label matches one of
// want and equals none of exclude.
func findButton(buttons []page.Button, want, exclude []string, match keywordMatch) (page.Button, bool) {
	for _, b := range buttons {
		candidates := []string{normalizeLabel(b.Text), normalizeLabel(b.Label)}
		if anyEquals(candidates, exclude) {
			continue
		}
		for _, c := range candidates {
			if c == "" {
				continue
			}
			for _, kw := range want {
				if match(c, kw) {
					return b, true
				}
			}
		}
	}
	return page.Button{}, false
}

func anyEquals(candidates, keywords []string) bool {
	for _, c := range candidates {
		for _, kw := range keywords {
			if c != "" && c == kw {
				return true
			}
		}
	}
	return false
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func buttonText(b page.Button) string {
	if b.Text != "" {
		return b.Text
	}
	return b.Label
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = normalizeLabel(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
