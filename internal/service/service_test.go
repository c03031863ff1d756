package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/quickapply-cli/internal/campaign"
	"github.com/xkilldash9x/quickapply-cli/internal/config"
	"github.com/xkilldash9x/quickapply-cli/internal/mocks"
	"github.com/xkilldash9x/quickapply-cli/internal/page"
	"github.com/xkilldash9x/quickapply-cli/internal/page/pagetest"
	"github.com/xkilldash9x/quickapply-cli/internal/timing"
	"github.com/xkilldash9x/quickapply-cli/internal/wizard"
)

func TestCreate(t *testing.T) {
	t.Run("WiresEveryComponent", func(t *testing.T) {
		b := &fakeBrowser{}
		factory, _ := testFactory(pagetest.New(), b, nil)

		c, err := factory.Create(context.Background(), testConfig(), zap.NewNop())
		require.NoError(t, err)
		assert.NotNil(t, c.Page)
		assert.NotNil(t, c.Notifier)
		assert.NotNil(t, c.Filler)
		assert.NotNil(t, c.Driver)
		assert.NotNil(t, c.Campaign)
		assert.Nil(t, c.Metrics)

		c.Shutdown()
		assert.Equal(t, 1, b.count())
	})

	t.Run("RejectsInvalidConfig", func(t *testing.T) {
		b := &fakeBrowser{}
		factory, _ := testFactory(pagetest.New(), b, nil)
		cfg := testConfig()
		cfg.SetCampaignQuota(0)

		_, err := factory.Create(context.Background(), cfg, zap.NewNop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
		assert.Zero(t, b.count(), "the browser is never opened for a bad config")
	})

	t.Run("ShutsDownPartialComponentsOnPageFailure", func(t *testing.T) {
		b := &fakeBrowser{}
		factory, _ := testFactory(nil, b, errLaunch)

		_, err := factory.Create(context.Background(), testConfig(), zap.NewNop())
		assert.ErrorIs(t, err, errLaunch)
		assert.Equal(t, 1, b.count())
	})

	t.Run("AcceptsAnyConfigImplementation", func(t *testing.T) {
		defaults := config.NewDefaultConfig()
		cfg := new(mocks.MockConfig)
		cfg.On("Metrics").Return(config.MetricsConfig{})
		cfg.On("Form").Return(defaults.Form())
		cfg.On("Delays").Return(defaults.Delays())
		cfg.On("Campaign").Return(defaults.Campaign())

		factory, _ := testFactory(pagetest.New(), &fakeBrowser{}, nil)
		c, err := factory.Create(context.Background(), cfg, zap.NewNop())
		require.NoError(t, err)
		assert.NotNil(t, c.Campaign)
		cfg.AssertExpectations(t)
	})
}

func TestCampaignConfig(t *testing.T) {
	cfg := testConfig()
	cfg.SetCampaignQuota(3)
	cfg.SetCampaignFailureThreshold(7)

	cc := CampaignConfig(cfg)
	assert.Equal(t, 3, cc.Quota)
	assert.Equal(t, 7, cc.FailureThreshold)
	assert.Equal(t, cfg.Campaign().RecoveryThreshold, cc.RecoveryThreshold)
	assert.Equal(t, cfg.Delays(), cc.Delays)
}

func TestStartCampaign(t *testing.T) {
	p := pagetest.New()
	p.FilterOn = true
	p.Cards = []page.ListingCard{
		{ID: "a", Title: "Backend", Visible: true, Eligible: true},
		{ID: "b", Title: "Platform", Visible: true, Eligible: true},
	}
	p.Wizards["a"] = pagetest.LinearWizard(2, pagetest.CloseWizard)
	p.Wizards["b"] = pagetest.LinearWizard(1, pagetest.ShowSuccessSurface)

	factory, _ := testFactory(p, &fakeBrowser{}, nil)
	cfg := testConfig()
	c, err := factory.Create(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer c.Shutdown()

	bounds := CampaignConfig(cfg)
	bounds.Quota = 2
	resp := New(c, zap.NewNop()).StartCampaign(context.Background(), applicant, bounds)

	assert.True(t, resp.Success)
	assert.Empty(t, resp.Error)
	assert.Equal(t, 2, resp.SubmittedCount)
	assert.Positive(t, resp.ElapsedSeconds)
	require.NotNil(t, resp.Summary)
	assert.Equal(t, campaign.StopQuotaReached, resp.Summary.StopReason)
	assert.Equal(t, "Ada", p.Values["first-0"])
	assert.NotEmpty(t, p.Toasts, "notifications reach the page")
}

func TestStartCampaignReportsThresholdAsSuccess(t *testing.T) {
	p := pagetest.New()
	p.FilterOn = true

	factory, _ := testFactory(p, &fakeBrowser{}, nil)
	c, err := factory.Create(context.Background(), testConfig(), zap.NewNop())
	require.NoError(t, err)

	resp := New(c, zap.NewNop()).StartCampaign(context.Background(), applicant, CampaignConfig(testConfig()))
	assert.True(t, resp.Success, "running out of listings is not a command failure")
	assert.Zero(t, resp.SubmittedCount)
	assert.Equal(t, campaign.StopFailureThreshold, resp.Summary.StopReason)
}

func TestStartCampaignRejectsConcurrentRun(t *testing.T) {
	p := pagetest.New()
	p.FilterOn = true
	p.Cards = []page.ListingCard{{ID: "a", Visible: true, Eligible: true}}
	p.Wizards["a"] = pagetest.LinearWizard(1, pagetest.CloseWizard)

	factory, _ := testFactory(p, &fakeBrowser{}, nil)
	cfg := testConfig()
	c, err := factory.Create(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	driver := new(mocks.MockWizardRunner)
	driver.On("Run", mock.Anything, mock.Anything, applicant).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(wizard.Result{Outcome: wizard.StateSuccess}, nil).Once()
	c.Campaign = campaign.NewRunner(CampaignConfig(cfg), p, driver, c.Notifier, timing.NewFakeClock(time.Unix(0, 0)), zap.NewNop())
	svc := New(c, zap.NewNop())

	bounds := CampaignConfig(cfg)
	bounds.Quota = 1

	var wg sync.WaitGroup
	var first CampaignResponse
	wg.Add(1)
	go func() {
		defer wg.Done()
		first = svc.StartCampaign(context.Background(), applicant, bounds)
	}()

	<-started
	second := svc.StartCampaign(context.Background(), applicant, bounds)
	assert.False(t, second.Success)
	assert.Equal(t, campaign.ErrCampaignRunning.Error(), second.Error)
	assert.Nil(t, second.Summary)

	close(release)
	wg.Wait()
	assert.True(t, first.Success)
	assert.Equal(t, 1, first.SubmittedCount)
}

func TestPerformSingleFill(t *testing.T) {
	t.Run("FillsTheOpenStep", func(t *testing.T) {
		p := pagetest.New()
		p.Cards = []page.ListingCard{{ID: "a", Visible: true, Eligible: true}}
		p.Wizards["a"] = pagetest.LinearWizard(2, pagetest.CloseWizard)
		ctx := context.Background()
		require.NoError(t, p.OpenListing(ctx, "a"))
		opened, err := p.OpenWizard(ctx)
		require.NoError(t, err)
		require.True(t, opened)

		factory, _ := testFactory(p, &fakeBrowser{}, nil)
		c, err := factory.Create(ctx, testConfig(), zap.NewNop())
		require.NoError(t, err)

		resp := New(c, zap.NewNop()).PerformSingleFill(ctx, applicant)
		assert.True(t, resp.Success)
		assert.Equal(t, 1, resp.FieldsFilled)
		require.NotNil(t, resp.Report)
		assert.Equal(t, 1, resp.Report.Filled)
		assert.Equal(t, "Ada", p.Values["first-0"])

		_, _, submissions := p.Snapshot()
		assert.Empty(t, submissions, "a single fill never navigates")
	})

	t.Run("FailsWithoutWizard", func(t *testing.T) {
		p := pagetest.New()
		factory, _ := testFactory(p, &fakeBrowser{}, nil)
		c, err := factory.Create(context.Background(), testConfig(), zap.NewNop())
		require.NoError(t, err)

		resp := New(c, zap.NewNop()).PerformSingleFill(context.Background(), applicant)
		assert.False(t, resp.Success)
		assert.Equal(t, ErrNoWizardOpen.Error(), resp.Error)
		assert.Zero(t, resp.FieldsFilled)
		require.NotEmpty(t, p.Toasts)
		assert.Contains(t, p.Toasts[len(p.Toasts)-1], "error: ")
	})
}
