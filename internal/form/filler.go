// internal/form/filler.go
package form

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/quickapply-cli/internal/observability"
	"github.com/xkilldash9x/quickapply-cli/internal/page"
	"github.com/xkilldash9x/quickapply-cli/internal/profile"
	"github.com/xkilldash9x/quickapply-cli/internal/timing"
)

// ErrFieldFill wraps every per-control failure. Such failures are logged
// and never abort a fill pass.
var ErrFieldFill = errors.New("field fill failed")

// Action is what the fill pass did with a control.
type Action string

const (
	ActionFilled  Action = "filled"
	ActionSkipped Action = "skipped"
	ActionError   Action = "error"
)

// FieldResult is the outcome for one control.
type FieldResult struct {
	Ref     string           `json:"ref"`
	Kind    page.ControlKind `json:"kind"`
	Tag     Tag              `json:"tag"`
	Context string           `json:"context"`
	Value   string           `json:"value,omitempty"`
	Source  Source           `json:"source"`
	Tier    string           `json:"tier,omitempty"`
	Action  Action           `json:"action"`
	Reason  string           `json:"reason,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// FillReport summarises a fill pass.
type FillReport struct {
	Fields  []FieldResult `json:"fields"`
	Filled  int           `json:"filled"`
	Skipped int           `json:"skipped"`
	Errors  int           `json:"errors"`
}

func (r *FillReport) add(fr FieldResult) {
	r.Fields = append(r.Fields, fr)
	switch fr.Action {
	case ActionFilled:
		r.Filled++
	case ActionError:
		r.Errors++
	default:
		r.Skipped++
	}
	observability.FieldsFilled.WithLabelValues(string(fr.Tag), string(fr.Action)).Inc()
}

// FillerConfig carries the tunables of a fill pass.
type FillerConfig struct {
	Defaults       Defaults
	CountryMarkers []string
	MailMarkers    []string
	Delays         timing.Delays
}

// Filler classifies, resolves and writes every visible control of the
// current wizard step.
type Filler struct {
	classifier *Classifier
	resolver   *Resolver
	choices    *ChoiceResolver
	cfg        FillerConfig
	clock      timing.Clock
	logger     *zap.Logger
}

// NewFiller assembles a filler with the default rule table and tiers.
func NewFiller(cfg FillerConfig, clock timing.Clock, logger *zap.Logger) *Filler {
	if clock == nil {
		clock = timing.RealClock{}
	}
	return &Filler{
		classifier: NewClassifier(nil),
		resolver:   NewResolver(cfg.Defaults),
		choices:    NewChoiceResolver(nil),
		cfg:        cfg,
		clock:      clock,
		logger:     logger.Named("filler"),
	}
}

// FillOption adjusts a single fill pass.
type FillOption func(*fillSettings)

type fillSettings struct {
	delays timing.Delays
}

// WithDelays replaces the configured pauses for one pass.
func WithDelays(d timing.Delays) FillOption {
	return func(s *fillSettings) { s.delays = d }
}

// Fill runs one pass over the controls of surface. Only a failure to list
// the controls or a cancelled context is returned as an error.
func (f *Filler) Fill(ctx context.Context, surface page.WizardSurface, p *profile.Profile, opts ...FillOption) (FillReport, error) {
	settings := fillSettings{delays: f.cfg.Delays}
	for _, opt := range opts {
		opt(&settings)
	}

	var report FillReport
	controls, err := surface.Controls(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list wizard controls: %w", err)
	}

	q := Query{
		CountryMarkers: countryMarkers(p, f.cfg.CountryMarkers),
		MailMarkers:    mailMarkers(p, f.cfg.MailMarkers),
	}

	for _, c := range controls {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		fr := f.fillOne(ctx, surface, c, p, q, settings.delays)
		if fr.Action == ActionError {
			f.logger.Warn("Control could not be filled, continuing.",
				zap.String("category", "fill"),
				zap.String("ref", fr.Ref),
				zap.String("tag", string(fr.Tag)),
				zap.String("error", fr.Error))
		} else {
			f.logger.Debug("Control handled.",
				zap.String("ref", fr.Ref),
				zap.String("tag", string(fr.Tag)),
				zap.String("action", string(fr.Action)),
				zap.String("reason", fr.Reason))
		}
		report.add(fr)
	}
	return report, ctx.Err()
}

func (f *Filler) fillOne(ctx context.Context, surface page.WizardSurface, c page.Control, p *profile.Profile, q Query, delays timing.Delays) FieldResult {
	cl := f.classifier.Classify(c)
	value, src := f.resolver.Resolve(cl.Tag, p)
	fr := FieldResult{Ref: c.Ref, Kind: c.Kind, Tag: cl.Tag, Context: cl.Context, Source: src}
	q.Target = value
	q.Context = cl.Context

	if c.Kind.IsChoice() && len(c.Options) == 0 {
		skip(&fr, "no_options")
		return fr
	}

	var err error
	switch c.Kind {
	case page.KindSelect:
		err = f.fillSelect(ctx, surface, c, q, delays, &fr)
	case page.KindRadio:
		err = f.fillRadio(ctx, surface, c, q, delays, &fr)
	case page.KindCheckbox:
		err = f.fillCheckbox(ctx, surface, c, value, delays, &fr)
	default:
		err = f.fillText(ctx, surface, c, value, delays, &fr)
	}
	if err != nil {
		fr.Action = ActionError
		fr.Error = fmt.Errorf("%w: %s (%s): %v", ErrFieldFill, c.Ref, cl.Tag, err).Error()
	}
	return fr
}

func (f *Filler) fillText(ctx context.Context, s page.WizardSurface, c page.Control, value string, delays timing.Delays, fr *FieldResult) error {
	if value == "" {
		return skip(fr, "unresolved")
	}
	ok, reason := Decide(c.Value, fr.Tag, value)
	if !ok {
		return skip(fr, string(reason))
	}
	if err := s.SetValue(ctx, c.Ref, value); err != nil {
		return err
	}
	filled(fr, value, string(reason))
	return f.pause(ctx, delays, timing.AfterField)
}

func (f *Filler) fillSelect(ctx context.Context, s page.WizardSurface, c page.Control, q Query, delays timing.Delays, fr *FieldResult) error {
	// Without a target a real pre-selection is left alone.
	if q.Target == "" && strings.TrimSpace(c.Value) != "" && !IsSentinel(c.Value) {
		return skip(fr, "kept_selection")
	}
	choice, ok := f.choices.Resolve(c.Options, q)
	if !ok {
		return skip(fr, "no_options")
	}
	fr.Tier = choice.Tier
	cur := strings.TrimSpace(c.Value)
	if cur != "" && strings.EqualFold(cur, strings.TrimSpace(choice.Option.Value)) {
		return skip(fr, string(ReasonEqual))
	}
	if ok, reason := Decide(cur, fr.Tag, choice.Option.Text); !ok {
		return skip(fr, string(reason))
	}
	if err := s.SelectOption(ctx, c.Ref, choice.Option); err != nil {
		return err
	}
	filled(fr, choice.Option.Text, "")
	return f.pause(ctx, delays, timing.AfterSelect)
}

func (f *Filler) fillRadio(ctx context.Context, s page.WizardSurface, c page.Control, q Query, delays timing.Delays, fr *FieldResult) error {
	if q.Target == "" && strings.TrimSpace(c.Value) != "" {
		return skip(fr, "kept_selection")
	}
	choice, ok := f.choices.ResolveRadio(c.Options, q)
	if !ok {
		return skip(fr, "no_options")
	}
	fr.Tier = choice.Tier
	if ok, reason := Decide(c.Value, fr.Tag, choice.Option.Text); !ok {
		return skip(fr, string(reason))
	}
	if err := s.SelectOption(ctx, c.Ref, choice.Option); err != nil {
		return err
	}
	filled(fr, choice.Option.Text, "")
	return f.pause(ctx, delays, timing.AfterClick)
}

func (f *Filler) fillCheckbox(ctx context.Context, s page.WizardSurface, c page.Control, value string, delays timing.Delays, fr *FieldResult) error {
	if value == "" && !c.Required {
		return skip(fr, "unresolved")
	}
	want := isAffirmative(value) || c.Required
	if c.Checked == want {
		return skip(fr, string(ReasonEqual))
	}
	if err := s.SetChecked(ctx, c.Ref, want); err != nil {
		return err
	}
	filled(fr, fmt.Sprintf("%t", want), "")
	return f.pause(ctx, delays, timing.AfterClick)
}

func (f *Filler) pause(ctx context.Context, delays timing.Delays, d timing.Delay) error {
	return delays.Pause(ctx, f.clock, d)
}

func skip(fr *FieldResult, reason string) error {
	fr.Action = ActionSkipped
	fr.Reason = reason
	return nil
}

func filled(fr *FieldResult, value, reason string) {
	fr.Action = ActionFilled
	fr.Value = value
	fr.Reason = reason
}

func isAffirmative(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "y", "true", "1", "agree", "i agree", "accept":
		return true
	}
	return false
}

// countryMarkers puts the applicant's own country and dialing code ahead of
// the configured markers.
func countryMarkers(p *profile.Profile, configured []string) []string {
	var out []string
	if p != nil {
		if p.PhoneCountryCode != "" {
			out = append(out, p.PhoneCountryCode)
		}
		if p.Country != "" {
			out = append(out, p.Country)
			if code, ok := DialCode(p.Country); ok {
				out = append(out, code)
			}
		}
	}
	return append(out, configured...)
}

func mailMarkers(p *profile.Profile, configured []string) []string {
	var out []string
	if p != nil && p.Email != "" {
		out = append(out, p.Email)
		if at := strings.LastIndex(p.Email, "@"); at >= 0 && at < len(p.Email)-1 {
			out = append(out, p.Email[at+1:])
		}
	}
	return append(out, configured...)
}
