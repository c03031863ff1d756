// File: internal/service/service.go
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/quickapply-cli/internal/campaign"
	"github.com/xkilldash9x/quickapply-cli/internal/form"
	"github.com/xkilldash9x/quickapply-cli/internal/notify"
	"github.com/xkilldash9x/quickapply-cli/internal/profile"
)

// ErrNoWizardOpen is reported by PerformSingleFill when there is no form on
// screen.
var ErrNoWizardOpen = errors.New("no application form is open")

// CampaignResponse is the result of StartCampaign.
type CampaignResponse struct {
	Success        bool              `json:"success"`
	SubmittedCount int               `json:"submitted_count"`
	ElapsedSeconds float64           `json:"elapsed_seconds"`
	Error          string            `json:"error,omitempty"`
	Summary        *campaign.Summary `json:"summary,omitempty"`
}

// FillResponse is the result of PerformSingleFill.
type FillResponse struct {
	Success      bool             `json:"success"`
	FieldsFilled int              `json:"fields_filled"`
	Error        string           `json:"error,omitempty"`
	Report       *form.FillReport `json:"report,omitempty"`
}

// Service exposes the two commands the automation accepts.
type Service struct {
	c      *Components
	logger *zap.Logger
}

// New wraps wired components.
func New(c *Components, logger *zap.Logger) *Service {
	return &Service{c: c, logger: logger.Named("service")}
}

// StartCampaign runs one campaign with the given bounds. Only a concurrent
// campaign is reported as a failure; running out of listings is a normal
// outcome described by the summary.
func (s *Service) StartCampaign(ctx context.Context, p *profile.Profile, cfg campaign.Config) CampaignResponse {
	summary, err := s.c.Campaign.RunWith(ctx, cfg, p)
	if err != nil {
		s.logger.Error("Campaign rejected.", zap.String("category", string(notify.CategoryCommand)), zap.Error(err))
		return CampaignResponse{Error: err.Error()}
	}
	return CampaignResponse{
		Success:        true,
		SubmittedCount: summary.Submitted,
		ElapsedSeconds: summary.Elapsed.Seconds(),
		Summary:        &summary,
	}
}

// PerformSingleFill fills the currently open wizard step once without
// navigating.
func (s *Service) PerformSingleFill(ctx context.Context, p *profile.Profile) FillResponse {
	present, err := s.c.Page.WizardPresent(ctx)
	if err != nil {
		return s.fillFailed(ctx, fmt.Errorf("failed to inspect page: %w", err))
	}
	if !present {
		return s.fillFailed(ctx, ErrNoWizardOpen)
	}

	report, err := s.c.Filler.Fill(ctx, s.c.Page, p)
	if err != nil {
		return s.fillFailed(ctx, err)
	}

	sev := notify.Success
	if report.Errors > 0 {
		sev = notify.Warning
	}
	s.notify(ctx, sev, fmt.Sprintf("Filled %d fields (%d skipped, %d errors).", report.Filled, report.Skipped, report.Errors))
	return FillResponse{Success: true, FieldsFilled: report.Filled, Report: &report}
}

func (s *Service) fillFailed(ctx context.Context, err error) FillResponse {
	s.notify(ctx, notify.Error, "Fill failed: "+err.Error())
	return FillResponse{Error: err.Error()}
}

func (s *Service) notify(ctx context.Context, sev notify.Severity, text string) {
	n := notify.Notification{Text: text, Severity: sev, Category: notify.CategoryFill}
	if err := s.c.Notifier.Notify(ctx, n); err != nil {
		s.logger.Debug("Notification not delivered.", zap.Error(err))
	}
}
