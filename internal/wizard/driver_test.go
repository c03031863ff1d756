// internal/wizard/driver_test.go
package wizard_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/quickapply-cli/internal/form"
	"github.com/xkilldash9x/quickapply-cli/internal/mocks"
	"github.com/xkilldash9x/quickapply-cli/internal/page"
	"github.com/xkilldash9x/quickapply-cli/internal/page/pagetest"
	"github.com/xkilldash9x/quickapply-cli/internal/profile"
	"github.com/xkilldash9x/quickapply-cli/internal/timing"
	"github.com/xkilldash9x/quickapply-cli/internal/wizard"
)

var ada = &profile.Profile{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}

func newDriver(maxSteps int, clock timing.Clock) *wizard.Driver {
	delays := timing.DefaultDelays()
	filler := form.NewFiller(form.FillerConfig{Delays: delays}, clock, zap.NewNop())
	return wizard.NewDriver(wizard.Config{MaxSteps: maxSteps, Delays: delays}, filler, nil, clock, zap.NewNop())
}

// openWizard returns a fake page with the given wizard already open.
func openWizard(t *testing.T, w func() *pagetest.Wizard) *pagetest.Page {
	t.Helper()
	p := pagetest.New()
	p.Cards = []page.ListingCard{{ID: "job-1", Visible: true, Eligible: true}}
	p.Wizards["job-1"] = w
	ctx := context.Background()
	require.NoError(t, p.OpenListing(ctx, "job-1"))
	opened, err := p.OpenWizard(ctx)
	require.NoError(t, err)
	require.True(t, opened)
	return p
}

func states(res wizard.Result) []wizard.State {
	out := make([]wizard.State, len(res.Transitions))
	for i, tr := range res.Transitions {
		out[i] = tr.To
	}
	return out
}

func TestDriverSubmitsMultiStepWizard(t *testing.T) {
	for _, effect := range []pagetest.SubmitEffect{pagetest.CloseWizard, pagetest.ShowSuccessSurface, pagetest.ShowBodyText} {
		p := openWizard(t, pagetest.LinearWizard(3, effect))
		res, err := newDriver(30, timing.NewFakeClock(time.Unix(0, 0))).Run(context.Background(), p, ada)
		require.NoError(t, err)

		assert.Equal(t, wizard.StateSuccess, res.Outcome)
		assert.Equal(t, 3, res.Steps)
		assert.Equal(t, 3, res.FieldsFilled)
		assert.NoError(t, res.Err)
		assert.Equal(t, "Ada", p.Values["first-0"])

		clicks, _, submissions := p.Snapshot()
		assert.Equal(t, []string{"next-0", "next-1", "submit"}, clicks)
		assert.Equal(t, []string{"job-1"}, submissions)
	}
}

func TestDriverTransitions(t *testing.T) {
	p := openWizard(t, pagetest.LinearWizard(2, pagetest.CloseWizard))
	res, err := newDriver(30, timing.NewFakeClock(time.Unix(0, 0))).Run(context.Background(), p, ada)
	require.NoError(t, err)

	assert.Equal(t, []wizard.State{
		wizard.StateAttemptingSubmit, wizard.StateAttemptingAdvance,
		wizard.StateFilling, wizard.StateAttemptingSubmit, wizard.StateSuccess,
	}, states(res))
	assert.Equal(t, wizard.SignalWizardClosed, res.Signal)

	for i := 1; i < len(res.Transitions); i++ {
		assert.GreaterOrEqual(t, res.Transitions[i].Step, res.Transitions[i-1].Step)
	}
}

func TestDriverDeadEndFailsWithinBudget(t *testing.T) {
	p := openWizard(t, pagetest.DeadEndWizard())
	res, err := newDriver(4, timing.NewFakeClock(time.Unix(0, 0))).Run(context.Background(), p, ada)
	require.NoError(t, err, "a failed wizard is an outcome, not a fault")

	assert.Equal(t, wizard.StateFailure, res.Outcome)
	assert.Equal(t, 4, res.Steps)
	assert.ErrorIs(t, res.Err, wizard.ErrStepBudgetExceeded)
	assert.ErrorIs(t, res.Err, wizard.ErrSubmissionNotDetected)
	assert.Equal(t, 4, p.Confirms, "one forced confirm per step")
	assert.Equal(t, 1, p.Dismissals, "the wizard is dismissed after failure")

	got := states(res)
	assert.Contains(t, got, wizard.StateStuck)
	assert.Contains(t, got, wizard.StateForcedSubmit)
	assert.Equal(t, wizard.StateFailure, got[len(got)-1])
}

func TestDriverForcedSubmit(t *testing.T) {
	t.Run("button containing a submit keyword", func(t *testing.T) {
		p := openWizard(t, func() *pagetest.Wizard {
			return &pagetest.Wizard{Steps: []pagetest.WizardStep{{
				Buttons: []page.Button{{Ref: "go", Text: "Submit my application now"}},
				Submit:  "go",
			}}}
		})
		res, err := newDriver(5, timing.NewFakeClock(time.Unix(0, 0))).Run(context.Background(), p, ada)
		require.NoError(t, err)
		assert.Equal(t, wizard.StateSuccess, res.Outcome)
		assert.Equal(t, 1, res.Steps)
		assert.Contains(t, states(res), wizard.StateForcedSubmit)
		assert.Zero(t, p.Confirms)
	})

	t.Run("synthetic confirm", func(t *testing.T) {
		p := openWizard(t, func() *pagetest.Wizard {
			return &pagetest.Wizard{
				ConfirmSubmits: true,
				OnSubmit:       pagetest.ShowBodyText,
				Steps:          []pagetest.WizardStep{{}},
			}
		})
		res, err := newDriver(5, timing.NewFakeClock(time.Unix(0, 0))).Run(context.Background(), p, ada)
		require.NoError(t, err)
		assert.Equal(t, wizard.StateSuccess, res.Outcome)
		assert.Equal(t, wizard.SignalBodyPhrase, res.Signal)
		assert.Equal(t, 1, p.Confirms)
	})
}

func TestDriverSkipsExcludedKeywords(t *testing.T) {
	// A button labelled "Review" must never be taken for a submit, even
	// though its aria label mentions submitting.
	p := openWizard(t, func() *pagetest.Wizard {
		return &pagetest.Wizard{Steps: []pagetest.WizardStep{
			{Buttons: []page.Button{{Ref: "rev", Text: "Review", Label: "Submit after review"}}, Advance: "rev"},
			{Buttons: []page.Button{{Ref: "sub", Text: "Submit"}}, Submit: "sub"},
		}}
	})
	res, err := newDriver(5, timing.NewFakeClock(time.Unix(0, 0))).Run(context.Background(), p, ada)
	require.NoError(t, err)
	assert.Equal(t, wizard.StateSuccess, res.Outcome)
	clicks, _, _ := p.Snapshot()
	assert.Equal(t, []string{"rev", "sub"}, clicks)
}

func TestDriverAlreadySubmitted(t *testing.T) {
	p := pagetest.New() // no wizard open at all
	filler := new(mocks.MockFiller)
	d := wizard.NewDriver(wizard.Config{}, filler, nil, timing.NewFakeClock(time.Unix(0, 0)), zap.NewNop())

	res, err := d.Run(context.Background(), p, ada)
	require.NoError(t, err)
	assert.Equal(t, wizard.StateSuccess, res.Outcome)
	assert.Equal(t, wizard.SignalWizardClosed, res.Signal)
	filler.AssertNotCalled(t, "Fill", mock.Anything, mock.Anything, mock.Anything)
}

func TestDriverFillErrorsDoNotStopTheWizard(t *testing.T) {
	p := openWizard(t, pagetest.LinearWizard(1, pagetest.CloseWizard))
	filler := new(mocks.MockFiller)
	filler.On("Fill", mock.Anything, p, ada).Return(form.FillReport{}, errors.New("controls unavailable")).Once()

	d := wizard.NewDriver(wizard.Config{MaxSteps: 3}, filler, nil, timing.NewFakeClock(time.Unix(0, 0)), zap.NewNop())
	res, err := d.Run(context.Background(), p, ada)
	require.NoError(t, err)
	assert.Equal(t, wizard.StateSuccess, res.Outcome)
	filler.AssertExpectations(t)
}

func TestDriverStopsOnCancellation(t *testing.T) {
	p := openWizard(t, pagetest.DeadEndWizard())
	ctx, cancel := context.WithCancel(context.Background())
	filler := new(mocks.MockFiller)
	filler.On("Fill", mock.Anything, p, ada).
		Run(func(mock.Arguments) { cancel() }).
		Return(form.FillReport{}, nil)

	d := wizard.NewDriver(wizard.Config{MaxSteps: 30}, filler, nil, timing.NewFakeClock(time.Unix(0, 0)), zap.NewNop())
	res, err := d.Run(ctx, p, ada)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, res.Steps)
	filler.AssertNumberOfCalls(t, "Fill", 1)
}

func TestDriverRunOptions(t *testing.T) {
	t.Run("MaxStepsOverridesBudget", func(t *testing.T) {
		p := openWizard(t, pagetest.DeadEndWizard())
		res, err := newDriver(30, timing.NewFakeClock(time.Unix(0, 0))).Run(context.Background(), p, ada, wizard.WithMaxSteps(2))
		require.NoError(t, err)
		assert.Equal(t, wizard.StateFailure, res.Outcome)
		assert.Equal(t, 2, res.Steps)
		assert.ErrorIs(t, res.Err, wizard.ErrStepBudgetExceeded)
	})

	t.Run("NonPositiveMaxStepsIgnored", func(t *testing.T) {
		p := openWizard(t, pagetest.LinearWizard(3, pagetest.CloseWizard))
		res, err := newDriver(5, timing.NewFakeClock(time.Unix(0, 0))).Run(context.Background(), p, ada, wizard.WithMaxSteps(0))
		require.NoError(t, err)
		assert.Equal(t, wizard.StateSuccess, res.Outcome)
	})

	t.Run("DelaysReachFillAndClicks", func(t *testing.T) {
		p := openWizard(t, pagetest.LinearWizard(1, pagetest.CloseWizard))
		clock := timing.NewFakeClock(time.Unix(0, 0))
		delays := timing.Delays{AfterField: 11 * time.Second, AfterClick: 13 * time.Second, PollAttempts: 1}

		res, err := newDriver(5, clock).Run(context.Background(), p, ada, wizard.WithDelays(delays))
		require.NoError(t, err)
		assert.Equal(t, wizard.StateSuccess, res.Outcome)
		assert.Equal(t, []time.Duration{11 * time.Second, 13 * time.Second}, clock.Sleeps())
	})
}
