package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/quickapply-cli/internal/form"
	"github.com/xkilldash9x/quickapply-cli/internal/observability"
	"github.com/xkilldash9x/quickapply-cli/internal/profile"
	"github.com/xkilldash9x/quickapply-cli/internal/service"
)

// newFillCmd creates the `fill` command, which fills the wizard step that
// is currently on screen and leaves navigation to the user.
func newFillCmd(factory service.ComponentFactory) *cobra.Command {
	var flags campaignFlags

	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Fill the open application form once",
		Args:  cobra.NoArgs,
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

			resp := service.New(components, logger).PerformSingleFill(ctx, p)
			if flags.jsonOutput {
				if err := writeJSON(cmd.OutOrStdout(), resp); err != nil {
					return err
				}
			} else {
				printFill(cmd.OutOrStdout(), resp)
			}
			if !resp.Success {
				return errors.New(resp.Error)
			}
			return nil
		},
	}

	addCommonFlags(cmd, &flags)
	return cmd
}

func printFill(w io.Writer, resp service.FillResponse) {
	if !resp.Success {
		fmt.Fprintf(w, "Fill failed: %s\n", resp.Error)
		return
	}
	fmt.Fprintf(w, "Filled %d fields.\n", resp.FieldsFilled)
	if resp.Report == nil {
		return
	}
	for _, f := range resp.Report.Fields {
		switch f.Action {
		case form.ActionFilled:
			fmt.Fprintf(w, "  + %-20s %s\n", f.Tag, f.Value)
		case form.ActionError:
			fmt.Fprintf(w, "  ! %-20s %s\n", f.Tag, f.Error)
		}
	}
}
