// File: internal/service/components.go
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/quickapply-cli/internal/campaign"
	"github.com/xkilldash9x/quickapply-cli/internal/config"
	"github.com/xkilldash9x/quickapply-cli/internal/form"
	"github.com/xkilldash9x/quickapply-cli/internal/notify"
	"github.com/xkilldash9x/quickapply-cli/internal/observability"
	"github.com/xkilldash9x/quickapply-cli/internal/page"
	"github.com/xkilldash9x/quickapply-cli/internal/timing"
	"github.com/xkilldash9x/quickapply-cli/internal/wizard"
)

const shutdownTimeout = 30 * time.Second

// Closer releases a resource that outlives a single command.
type Closer interface {
	Shutdown(ctx context.Context) error
}

// Components holds everything a command needs, wired once per process.
type Components struct {
	Config   config.Interface
	Clock    timing.Clock
	Page     page.Page
	Browser  Closer
	Notifier notify.Notifier
	Filler   *form.Filler
	Driver   *wizard.Driver
	Campaign *campaign.Runner
	Metrics  *observability.MetricsServer
}

// Shutdown releases the components in reverse order of creation. It is
// safe on a partially built set.
func (c *Components) Shutdown() {
	logger := observability.GetLogger()
	logger.Debug("Beginning components shutdown sequence.")

	// The caller's context is usually gone by now.
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if c.Metrics != nil {
		if err := c.Metrics.Shutdown(ctx); err != nil {
			logger.Warn("Error during metrics server shutdown.", zap.Error(err))
		} else {
			logger.Debug("Metrics server stopped.")
		}
	}

	if c.Browser != nil {
		if err := c.Browser.Shutdown(ctx); err != nil {
			logger.Warn("Error during browser shutdown.", zap.Error(err))
		} else {
			logger.Debug("Browser shut down.")
		}
	}

	logger.Info("All components shut down successfully.")
}
