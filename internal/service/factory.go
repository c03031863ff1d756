// File: internal/service/factory.go
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/quickapply-cli/internal/browser"
	"github.com/xkilldash9x/quickapply-cli/internal/campaign"
	"github.com/xkilldash9x/quickapply-cli/internal/config"
	"github.com/xkilldash9x/quickapply-cli/internal/form"
	"github.com/xkilldash9x/quickapply-cli/internal/notify"
	"github.com/xkilldash9x/quickapply-cli/internal/observability"
	"github.com/xkilldash9x/quickapply-cli/internal/page"
	"github.com/xkilldash9x/quickapply-cli/internal/timing"
	"github.com/xkilldash9x/quickapply-cli/internal/wizard"
)

// ComponentFactory builds the components for one command invocation. The
// abstraction keeps the commands testable without a browser.
type ComponentFactory interface {
	Create(ctx context.Context, cfg config.Interface, logger *zap.Logger) (*Components, error)
}

// PageOpener yields the driven document and whatever must be closed with it.
type PageOpener func(ctx context.Context, cfg config.Interface, clock timing.Clock, logger *zap.Logger) (page.Page, Closer, error)

type concreteFactory struct {
	openPage PageOpener
	clock    timing.Clock
}

// FactoryOption customizes the factory.
type FactoryOption func(*concreteFactory)

// WithPageOpener replaces the browser with another document source.
func WithPageOpener(open PageOpener) FactoryOption {
	return func(f *concreteFactory) { f.openPage = open }
}

// WithClock injects the clock every wait runs on.
func WithClock(clock timing.Clock) FactoryOption {
	return func(f *concreteFactory) { f.clock = clock }
}

// NewComponentFactory creates the production factory, which drives a
// chromedp browser.
func NewComponentFactory(opts ...FactoryOption) ComponentFactory {
	f := &concreteFactory{openPage: openBrowserPage, clock: timing.RealClock{}}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func openBrowserPage(ctx context.Context, cfg config.Interface, clock timing.Clock, logger *zap.Logger) (page.Page, Closer, error) {
	mgr, err := browser.NewManager(ctx, cfg.Browser(), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start browser: %w", err)
	}
	pg, err := mgr.Page(cfg.Selectors(), cfg.Delays(), clock)
	if err != nil {
		return nil, mgr, fmt.Errorf("failed to bind page: %w", err)
	}
	return pg, mgr, nil
}

// Create validates the configuration and wires the components.
func (f *concreteFactory) Create(ctx context.Context, cfg config.Interface, logger *zap.Logger) (*Components, error) {
	components := &Components{Config: cfg, Clock: f.clock}

	// Ensure cleanup happens if initialization fails midway.
	var initializationErr error
	defer func() {
		if initializationErr != nil {
			logger.Warn("Initialization failed, shutting down partially created components.", zap.Error(initializationErr))
			components.Shutdown()
		}
	}()

	// 1. Configuration
	if c, ok := cfg.(*config.Config); ok {
		if err := c.Validate(); err != nil {
			initializationErr = fmt.Errorf("invalid configuration: %w", err)
			return nil, initializationErr
		}
	}

	// 2. Metrics
	if cfg.Metrics().Enabled {
		components.Metrics = observability.NewMetricsServer(cfg.Metrics().Addr, logger)
		components.Metrics.Start()
	}

	// 3. Page
	pg, closer, err := f.openPage(ctx, cfg, f.clock, logger)
	components.Browser = closer
	if err != nil {
		initializationErr = err
		return nil, initializationErr
	}
	components.Page = pg
	logger.Debug("Page ready.")

	// 4. Notifications go to the log and to the page.
	components.Notifier = notify.Multi{notify.NewLogNotifier(logger), notify.NewPageNotifier(pg)}

	// 5. Fill pass and wizard driver
	formCfg := cfg.Form()
	delays := cfg.Delays()
	components.Filler = form.NewFiller(form.FillerConfig{
		Defaults:       form.Defaults(formCfg.Defaults),
		CountryMarkers: formCfg.CountryMarkers,
		MailMarkers:    formCfg.MailMarkers,
		Delays:         delays,
	}, f.clock, logger)

	components.Driver = wizard.NewDriver(wizard.Config{
		MaxSteps:        cfg.Campaign().MaxSteps,
		SubmitKeywords:  formCfg.SubmitKeywords,
		AdvanceKeywords: formCfg.AdvanceKeywords,
		Delays:          delays,
	}, components.Filler, wizard.NewDetector(formCfg.ConfirmationPhrases), f.clock, logger)

	// 6. Campaign loop
	components.Campaign = campaign.NewRunner(CampaignConfig(cfg), pg, components.Driver, components.Notifier, f.clock, logger)

	logger.Info("All components initialized successfully.")
	return components, nil
}

// CampaignConfig projects the application configuration onto the campaign
// bounds.
func CampaignConfig(cfg config.Interface) campaign.Config {
	cc := cfg.Campaign()
	return campaign.Config{
		Quota:             cc.Quota,
		MaxSteps:          cc.MaxSteps,
		FailureThreshold:  cc.FailureThreshold,
		RecoveryThreshold: cc.RecoveryThreshold,
		MaxRecoveries:     cc.MaxRecoveries,
		Delays:            cfg.Delays(),
	}
}
