// internal/form/filler_test.go
package form

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/quickapply-cli/internal/page"
	"github.com/xkilldash9x/quickapply-cli/internal/profile"
	"github.com/xkilldash9x/quickapply-cli/internal/timing"
)

// stepSurface is a single wizard step held in memory.
type stepSurface struct {
	controls    []page.Control
	controlsErr error
	failRefs    map[string]error

	values   map[string]string
	selected map[string]page.Option
	checked  map[string]bool
}

func newStepSurface(controls ...page.Control) *stepSurface {
	return &stepSurface{
		controls: controls,
		failRefs: map[string]error{},
		values:   map[string]string{},
		selected: map[string]page.Option{},
		checked:  map[string]bool{},
	}
}

func (s *stepSurface) Controls(context.Context) ([]page.Control, error) {
	return s.controls, s.controlsErr
}

func (s *stepSurface) SetValue(_ context.Context, ref, value string) error {
	if err := s.failRefs[ref]; err != nil {
		return err
	}
	s.values[ref] = value
	return nil
}

func (s *stepSurface) SelectOption(_ context.Context, ref string, opt page.Option) error {
	if err := s.failRefs[ref]; err != nil {
		return err
	}
	s.selected[ref] = opt
	return nil
}

func (s *stepSurface) SetChecked(_ context.Context, ref string, checked bool) error {
	if err := s.failRefs[ref]; err != nil {
		return err
	}
	s.checked[ref] = checked
	return nil
}

func (s *stepSurface) Buttons(context.Context) ([]page.Button, error) { return nil, nil }
func (s *stepSurface) Click(context.Context, string) error            { return nil }
func (s *stepSurface) InjectConfirm(context.Context) (bool, error)    { return false, nil }
func (s *stepSurface) DismissWizard(context.Context) error            { return nil }

func newTestFiller(clock timing.Clock) *Filler {
	return NewFiller(FillerConfig{
		CountryMarkers: []string{"india", "+91", "IN"},
		MailMarkers:    []string{"gmail.com", "@"},
		Delays:         timing.DefaultDelays(),
	}, clock, zap.NewNop())
}

func TestFillerFill(t *testing.T) {
	surface := newStepSurface(
		page.Control{Ref: "first", Kind: page.KindText, Label: "First Name"},
		page.Control{Ref: "email", Kind: page.KindEmail, Label: "Email", Value: "Gmail"},
		page.Control{Ref: "city", Kind: page.KindText, Label: "City", Value: "pune"},
		page.Control{Ref: "code", Kind: page.KindSelect, Label: "Phone country code", Value: "Select an option",
			Options: opts("Select an option", "India (+91)", "United States (+1)")},
		page.Control{Ref: "auth", Kind: page.KindRadio, Label: "Are you legally authorized to work?",
			Options: opts("Yes", "No")},
		page.Control{Ref: "terms", Kind: page.KindCheckbox, Label: "I agree to the terms", Required: true},
		page.Control{Ref: "middle", Kind: page.KindText, Label: "Middle Name"},
		page.Control{Ref: "years", Kind: page.KindNumber, Label: "Years of experience"},
		page.Control{Ref: "degree", Kind: page.KindSelect, Label: "Degree", Value: "Master's",
			Options: opts("Bachelor's Degree", "Master's")},
	)
	surface.failRefs["years"] = errors.New("element detached")

	p := &profile.Profile{
		FirstName:       "Ada",
		LastName:        "Lovelace",
		Email:           "ada@example.com",
		City:            "Pune",
		Country:         "India",
		YearsExperience: "5",
	}
	clock := timing.NewFakeClock(time.Unix(0, 0))

	report, err := newTestFiller(clock).Fill(context.Background(), surface, p)
	require.NoError(t, err)

	assert.Equal(t, 6, report.Filled)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 1, report.Errors)
	require.Len(t, report.Fields, 9)

	assert.Equal(t, "Ada", surface.values["first"])
	assert.Equal(t, "ada@example.com", surface.values["email"])
	assert.NotContains(t, surface.values, "city")
	assert.NotContains(t, surface.values, "middle")
	assert.Equal(t, "India (+91)", surface.selected["code"].Text)
	assert.Equal(t, "Yes", surface.selected["auth"].Text)
	assert.True(t, surface.checked["terms"])
	assert.Equal(t, "Bachelor's Degree", surface.selected["degree"].Text)

	byRef := map[string]FieldResult{}
	for _, f := range report.Fields {
		byRef[f.Ref] = f
	}
	assert.Equal(t, string(ReasonIdentityCritical), byRef["email"].Reason)
	assert.Equal(t, string(ReasonEqual), byRef["city"].Reason)
	assert.Equal(t, "unresolved", byRef["middle"].Reason)
	assert.Equal(t, "context", byRef["code"].Tier)
	assert.Equal(t, SourceDefault, byRef["degree"].Source)
	assert.Equal(t, ActionError, byRef["years"].Action)
	assert.Contains(t, byRef["years"].Error, ErrFieldFill.Error())
	assert.Contains(t, byRef["years"].Error, "element detached")

	d := timing.DefaultDelays()
	assert.Equal(t, []time.Duration{
		d.AfterField, d.AfterField, // first, email
		d.AfterSelect, // code
		d.AfterClick,  // auth
		d.AfterClick,  // terms
		d.AfterSelect, // degree
	}, clock.Sleeps())
}

func TestFillerKeepsRealSelectionWithoutTarget(t *testing.T) {
	surface := newStepSurface(
		page.Control{Ref: "how", Kind: page.KindSelect, Label: "How did you hear about us?", Value: "Referral",
			Options: opts("Select an option", "Job board", "Referral")},
		page.Control{Ref: "shift", Kind: page.KindSelect, Label: "Preferred shift", Value: "Select an option",
			Options: opts("Select an option", "Day", "Night")},
	)

	report, err := newTestFiller(timing.NewFakeClock(time.Unix(0, 0))).Fill(context.Background(), surface, &profile.Profile{})
	require.NoError(t, err)

	assert.NotContains(t, surface.selected, "how")
	assert.Equal(t, "Day", surface.selected["shift"].Text)
	assert.Equal(t, "kept_selection", report.Fields[0].Reason)
	assert.Equal(t, "fallback", report.Fields[1].Tier)
}

func TestFillerCheckbox(t *testing.T) {
	surface := newStepSurface(
		page.Control{Ref: "relocate", Kind: page.KindCheckbox, Label: "Willing to relocate"},
		page.Control{Ref: "sponsor", Kind: page.KindCheckbox, Label: "Requires visa sponsorship", Checked: true},
		page.Control{Ref: "newsletter", Kind: page.KindCheckbox, Label: "Subscribe to newsletter"},
	)

	_, err := newTestFiller(timing.NewFakeClock(time.Unix(0, 0))).Fill(context.Background(), surface, &profile.Profile{})
	require.NoError(t, err)

	assert.True(t, surface.checked["relocate"])
	assert.False(t, surface.checked["sponsor"])
	assert.Contains(t, surface.checked, "sponsor")
	assert.NotContains(t, surface.checked, "newsletter")
}

func TestFillerErrors(t *testing.T) {
	t.Run("controls unavailable", func(t *testing.T) {
		surface := newStepSurface()
		surface.controlsErr = errors.New("no wizard")

		_, err := newTestFiller(timing.NewFakeClock(time.Unix(0, 0))).Fill(context.Background(), surface, &profile.Profile{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no wizard")
	})

	t.Run("cancelled context stops the pass", func(t *testing.T) {
		surface := newStepSurface(page.Control{Ref: "first", Kind: page.KindText, Label: "First Name"})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		report, err := newTestFiller(timing.NewFakeClock(time.Unix(0, 0))).Fill(ctx, surface, &profile.Profile{FirstName: "Ada"})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, report.Fields)
		assert.Empty(t, surface.values)
	})
}

func TestFillerAnswersSponsorshipQuestionNamingACountry(t *testing.T) {
	surface := newStepSurface(
		page.Control{Ref: "visa", Kind: page.KindRadio,
			Label:   "Will you now or in the future require visa sponsorship to work in this country?",
			Options: opts("Yes", "No")},
		page.Control{Ref: "auth", Kind: page.KindSelect,
			Label:   "Are you legally authorized to work in this country?",
			Options: opts("Select an option", "Yes", "No")},
	)

	_, err := newTestFiller(timing.NewFakeClock(time.Unix(0, 0))).Fill(context.Background(), surface, &profile.Profile{Country: "India"})
	require.NoError(t, err)
	assert.Equal(t, "No", surface.selected["visa"].Text)
	assert.Equal(t, "Yes", surface.selected["auth"].Text)
}

func TestFillerSkipsChoiceWithoutOptions(t *testing.T) {
	surface := newStepSurface(
		page.Control{Ref: "deg", Kind: page.KindSelect, Label: "Highest degree"},
		page.Control{Ref: "rel", Kind: page.KindRadio, Label: "Are you willing to relocate?", Value: "Yes"},
	)

	report, err := newTestFiller(timing.NewFakeClock(time.Unix(0, 0))).Fill(context.Background(), surface, &profile.Profile{})
	require.NoError(t, err)
	require.Len(t, report.Fields, 2)
	for _, f := range report.Fields {
		assert.Equal(t, ActionSkipped, f.Action, f.Ref)
		assert.Equal(t, "no_options", f.Reason, f.Ref)
	}
	assert.Empty(t, surface.selected)
}
