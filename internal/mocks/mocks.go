// File: internal/mocks/mocks.go
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/xkilldash9x/quickapply-cli/internal/config"
	"github.com/xkilldash9x/quickapply-cli/internal/form"
	"github.com/xkilldash9x/quickapply-cli/internal/notify"
	"github.com/xkilldash9x/quickapply-cli/internal/page"
	"github.com/xkilldash9x/quickapply-cli/internal/profile"
	"github.com/xkilldash9x/quickapply-cli/internal/timing"
	"github.com/xkilldash9x/quickapply-cli/internal/wizard"
)

// -- Config Mock --

// MockConfig mocks the config.Interface.
type MockConfig struct {
	mock.Mock
}

var _ config.Interface = (*MockConfig)(nil)

func (m *MockConfig) Logger() config.LoggerConfig {
	args := m.Called()
	return args.Get(0).(config.LoggerConfig)
}

func (m *MockConfig) Browser() config.BrowserConfig {
	args := m.Called()
	return args.Get(0).(config.BrowserConfig)
}

func (m *MockConfig) Selectors() config.SelectorsConfig {
	args := m.Called()
	return args.Get(0).(config.SelectorsConfig)
}

func (m *MockConfig) Campaign() config.CampaignConfig {
	args := m.Called()
	return args.Get(0).(config.CampaignConfig)
}

func (m *MockConfig) Delays() timing.Delays {
	args := m.Called()
	return args.Get(0).(timing.Delays)
}

func (m *MockConfig) Form() config.FormConfig {
	args := m.Called()
	return args.Get(0).(config.FormConfig)
}

func (m *MockConfig) Profile() config.ProfileConfig {
	args := m.Called()
	return args.Get(0).(config.ProfileConfig)
}

func (m *MockConfig) Metrics() config.MetricsConfig {
	args := m.Called()
	return args.Get(0).(config.MetricsConfig)
}

func (m *MockConfig) SetCampaignQuota(n int)            { m.Called(n) }
func (m *MockConfig) SetCampaignMaxSteps(n int)         { m.Called(n) }
func (m *MockConfig) SetCampaignFailureThreshold(n int) { m.Called(n) }
func (m *MockConfig) SetBrowserHeadless(b bool)         { m.Called(b) }
func (m *MockConfig) SetProfilePath(p string)           { m.Called(p) }

// -- Form Filler Mock --

// MockFiller mocks wizard.Filler.
type MockFiller struct {
	mock.Mock
}

var _ wizard.Filler = (*MockFiller)(nil)

// Fill options are not matched.
func (m *MockFiller) Fill(ctx context.Context, surface page.WizardSurface, p *profile.Profile, _ ...form.FillOption) (form.FillReport, error) {
	args := m.Called(ctx, surface, p)
	return args.Get(0).(form.FillReport), args.Error(1)
}

// -- Wizard Runner Mock --

// MockWizardRunner mocks the driver as seen by the campaign loop.
type MockWizardRunner struct {
	mock.Mock
}

// Run options are not matched.
func (m *MockWizardRunner) Run(ctx context.Context, s wizard.Surface, p *profile.Profile, _ ...wizard.RunOption) (wizard.Result, error) {
	args := m.Called(ctx, s, p)
	return args.Get(0).(wizard.Result), args.Error(1)
}

// -- Notifier Mock --

// MockNotifier mocks notify.Notifier.
type MockNotifier struct {
	mock.Mock
}

var _ notify.Notifier = (*MockNotifier)(nil)

func (m *MockNotifier) Notify(ctx context.Context, n notify.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}
