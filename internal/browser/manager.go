// internal/browser/manager.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/quickapply-cli/internal/config"
	"github.com/xkilldash9x/quickapply-cli/internal/timing"
)

const (
	launchTimeout       = 30 * time.Second
	defaultNavTimeout   = 60 * time.Second
	shutdownGracePeriod = 10 * time.Second
)

// ErrNoPageTarget is returned when a remote browser exposes no usable tab.
var ErrNoPageTarget = errors.New("remote browser has no page target")

// Manager owns the browser process (or the connection to a running one) and
// the single tab the automation drives.
type Manager struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	allocCtx     context.Context
	allocCancel  context.CancelFunc
	browserCtx   context.Context
	browserCanc  context.CancelFunc
	tabCtx       context.Context
	tabCancel    context.CancelFunc
	shutdownOnce sync.Once
}

// NewManager launches a local browser, or attaches to cfg.RemoteURL when set,
// and opens the configured start page. The browser is detached from ctx; it
// lives until Shutdown.
func NewManager(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Manager, error) {
	m := &Manager{
		cfg:    cfg,
		logger: logger.Named("browser_manager"),
	}

	root := Detach(ctx)
	if cfg.RemoteURL != "" {
		m.logger.Info("Attaching to running browser.", zap.String("remote_url", cfg.RemoteURL))
		m.allocCtx, m.allocCancel = chromedp.NewRemoteAllocator(root, cfg.RemoteURL)
	} else {
		m.logger.Info("Launching browser.", zap.Bool("headless", cfg.Headless))
		m.allocCtx, m.allocCancel = chromedp.NewExecAllocator(root, DefaultAllocatorOptions(cfg)...)
	}

	if err := m.openTab(ctx); err != nil {
		m.Shutdown(context.Background())
		return nil, err
	}

	if cfg.StartURL != "" && !m.onStartURL(ctx) {
		if err := m.Navigate(ctx, cfg.StartURL); err != nil {
			m.Shutdown(context.Background())
			return nil, err
		}
	}
	return m, nil
}

func (m *Manager) contextOptions() []chromedp.ContextOption {
	if !m.cfg.Debug {
		return nil
	}
	sugar := m.logger.Named("cdp").Sugar()
	return []chromedp.ContextOption{
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Errorf),
	}
}

// openTab creates the browser connection and the tab. A remote browser is
// driven through its existing page so the user's session is reused.
func (m *Manager) openTab(ctx context.Context) error {
	m.browserCtx, m.browserCanc = chromedp.NewContext(m.allocCtx, m.contextOptions()...)

	startCtx, cancel := CombineContext(m.browserCtx, ctx)
	defer cancel()
	startCtx, cancelTimeout := context.WithTimeout(startCtx, launchTimeout)
	defer cancelTimeout()

	if m.cfg.RemoteURL == "" {
		// The first Run allocates the browser and its initial tab.
		if err := chromedp.Run(startCtx); err != nil {
			return fmt.Errorf("browser failed to start or respond: %w", err)
		}
		m.tabCtx, m.tabCancel = m.browserCtx, func() {}
		m.logger.Info("Browser launched successfully and is responsive.")
		return nil
	}

	targets, err := chromedp.Targets(startCtx)
	if err != nil {
		return fmt.Errorf("failed to list remote targets: %w", err)
	}
	info := pickTarget(targets, m.cfg.StartURL)
	if info == nil {
		return ErrNoPageTarget
	}
	m.tabCtx, m.tabCancel = chromedp.NewContext(m.browserCtx, chromedp.WithTargetID(info.TargetID))
	if err := chromedp.Run(m.tabCtx); err != nil {
		return fmt.Errorf("failed to attach to tab %s: %w", info.URL, err)
	}
	m.logger.Info("Attached to browser tab.", zap.String("url", info.URL))
	return nil
}

// pickTarget prefers a page already showing the start URL, then any page.
func pickTarget(targets []*target.Info, startURL string) *target.Info {
	var first *target.Info
	for _, t := range targets {
		if t.Type != "page" || strings.HasPrefix(t.URL, "devtools://") || strings.HasPrefix(t.URL, "chrome-extension://") {
			continue
		}
		if startURL != "" && strings.HasPrefix(t.URL, startURL) {
			return t
		}
		if first == nil {
			first = t
		}
	}
	return first
}

func (m *Manager) onStartURL(ctx context.Context) bool {
	if m.cfg.RemoteURL == "" {
		return false
	}
	opCtx, cancel := CombineContext(m.tabCtx, ctx)
	defer cancel()
	var loc string
	if err := chromedp.Run(opCtx, chromedp.Location(&loc)); err != nil {
		return false
	}
	return strings.HasPrefix(loc, m.cfg.StartURL)
}

// Navigate loads url in the driven tab and waits for the body to be ready.
func (m *Manager) Navigate(ctx context.Context, url string) error {
	m.logger.Debug("Navigating to URL", zap.String("url", url))

	opCtx, opCancel := CombineContext(m.tabCtx, ctx)
	defer opCancel()

	navTimeout := m.cfg.NavigationTimeout
	if navTimeout <= 0 {
		navTimeout = defaultNavTimeout
	}
	navCtx, navCancel := context.WithTimeout(opCtx, navTimeout)
	defer navCancel()

	if err := chromedp.Run(navCtx, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		if navCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("navigation timed out after %s: %w", navTimeout, err)
		}
		if opCtx.Err() != nil {
			return fmt.Errorf("navigation canceled: %w", opCtx.Err())
		}
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

// Page returns the document driver bound to the managed tab.
func (m *Manager) Page(sel config.SelectorsConfig, delays timing.Delays, clock timing.Clock) (*Page, error) {
	return NewPage(m.tabCtx, sel, delays, clock, m.logger)
}

// Shutdown closes the tab and the browser. For a remote browser only the
// connection is dropped.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.shutdownOnce.Do(func() {
		m.logger.Info("Shutting down browser.")
		if m.tabCancel != nil && m.cfg.RemoteURL == "" {
			m.tabCancel()
		}
		if m.browserCanc != nil {
			done := make(chan struct{})
			go func() {
				if m.cfg.RemoteURL == "" {
					_ = chromedp.Cancel(m.browserCtx)
				}
				close(done)
			}()
			grace, cancel := context.WithTimeout(ctx, shutdownGracePeriod)
			defer cancel()
			select {
			case <-done:
			case <-grace.Done():
				m.logger.Warn("Browser did not close in time; forcing termination.")
			}
			m.browserCanc()
		}
		if m.allocCancel != nil {
			m.allocCancel()
		}
	})
	return nil
}
