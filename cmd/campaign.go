package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/quickapply-cli/internal/config"
	"github.com/xkilldash9x/quickapply-cli/internal/observability"
	"github.com/xkilldash9x/quickapply-cli/internal/profile"
	"github.com/xkilldash9x/quickapply-cli/internal/service"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// campaignFlags are the per-invocation overrides of the campaign command.
type campaignFlags struct {
	quota            int
	maxSteps         int
	failureThreshold int
	headless         bool
	profilePath      string
	jsonOutput       bool
}

// newCampaignCmd creates the `campaign` command.
func newCampaignCmd(factory service.ComponentFactory) *cobra.Command {
	var flags campaignFlags

	cmd := &cobra.Command{
		Use:   "campaign",
		Short: "Apply to listings until the quota is met",
		Long: `Walks the listing column of the configured job board, opens every eligible
posting and drives its application wizard to submission. The campaign stops
when the quota is met, after too many consecutive failures, or on Ctrl+C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := configFromContext(ctx)
			if err != nil {
				return err
			}
			applyOverrides(cmd, cfg, flags)

			p, err := profile.Load(cfg.Profile().Path)
			if err != nil {
				return err
			}

			components, err := factory.Create(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize components: %w", err)
			}
			defer components.Shutdown()

			logger.Info("Starting campaign",
				zap.Int("quota", cfg.Campaign().Quota),
				zap.Int("failure_threshold", cfg.Campaign().FailureThreshold))

			resp := service.New(components, logger).StartCampaign(ctx, p, service.CampaignConfig(cfg))
			if flags.jsonOutput {
				if err := writeJSON(cmd.OutOrStdout(), resp); err != nil {
					return err
				}
			} else {
				printCampaign(cmd.OutOrStdout(), resp)
			}
			if !resp.Success {
				return errors.New(resp.Error)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&flags.quota, "quota", "q", 0, "number of applications to submit")
	cmd.Flags().IntVar(&flags.maxSteps, "max-steps", 0, "step budget per application wizard")
	cmd.Flags().IntVar(&flags.failureThreshold, "failure-threshold", 0, "consecutive failures that end the campaign")
	addCommonFlags(cmd, &flags)
	return cmd
}

func addCommonFlags(cmd *cobra.Command, flags *campaignFlags) {
	cmd.Flags().BoolVar(&flags.headless, "headless", false, "run the browser without a window")
	cmd.Flags().StringVarP(&flags.profilePath, "profile", "p", "", "applicant profile YAML file")
	cmd.Flags().BoolVar(&flags.jsonOutput, "json", false, "print the result as JSON")
}

// applyOverrides copies the flags the user actually set onto cfg.
func applyOverrides(cmd *cobra.Command, cfg config.Interface, flags campaignFlags) {
	f := cmd.Flags()
	if f.Changed("quota") {
		cfg.SetCampaignQuota(flags.quota)
	}
	if f.Changed("max-steps") {
		cfg.SetCampaignMaxSteps(flags.maxSteps)
	}
	if f.Changed("failure-threshold") {
		cfg.SetCampaignFailureThreshold(flags.failureThreshold)
	}
	if f.Changed("headless") {
		cfg.SetBrowserHeadless(flags.headless)
	}
	if f.Changed("profile") {
		cfg.SetProfilePath(flags.profilePath)
	}
}

func printCampaign(w io.Writer, resp service.CampaignResponse) {
	if !resp.Success {
		fmt.Fprintf(w, "Campaign rejected: %s\n", resp.Error)
		return
	}
	elapsed := time.Duration(resp.ElapsedSeconds * float64(time.Second)).Round(time.Second)
	fmt.Fprintf(w, "Campaign finished: %d submitted in %s.\n", resp.SubmittedCount, elapsed)
	if s := resp.Summary; s != nil {
		fmt.Fprintf(w, "Session %s: %d processed, %d failed, %d recoveries (%s).\n",
			s.SessionID, s.Processed, s.Failed, s.Recoveries, s.StopReason)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
