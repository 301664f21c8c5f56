package commands

import (
	"github.com/beetlebot/rewards-cli/internal/core"
	"github.com/beetlebot/rewards-cli/internal/output"
	"github.com/spf13/cobra"
)

func OptimizeCmd() *cobra.Command {
	var req core.OptimizeRequest

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Rank flight, hotel and gift card redemptions by value per point",
		Example: `  rewards optimize --from JFK --to LAX --date 2026-07-01 --balance 60000
  rewards optimize --from JFK --to LHR --date 2026-07-01 --balance 90000 --prefer direct_only
  rewards optimize --from BOS --to SFO --date 2026-07-01 --balance 40000 --hub ORD --hub DEN --mode hybrid`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Origin == "" || req.Destination == "" || req.Date == "" {
				return cmd.Help()
			}

			a, err := setup(cmd)
			if err != nil {
				return nil
			}
			defer a.Close()

			result, err := a.orchestrator(cmd.Context()).Optimize(cmd.Context(), req)
			a.flushMetrics()
			if err != nil {
				output.JSONError("optimize failed", errorCode(err), err.Error())
				return nil
			}
			return emit(cmd, result)
		},
	}

	cmd.Flags().StringVar(&req.Origin, "from", "", "Origin airport code (required)")
	cmd.Flags().StringVar(&req.Destination, "to", "", "Destination airport code (required)")
	cmd.Flags().StringVar(&req.Date, "date", "", "Departure date YYYY-MM-DD (required)")
	cmd.Flags().IntVar(&req.Balance, "balance", 0, "Points or miles available")
	cmd.Flags().StringVar(&req.Preference, "prefer", "maximize_value", "Preference: maximize_value, minimize_fees, direct_only")
	cmd.Flags().StringSliceVar(&req.Hubs, "hub", nil, "Connection hub to try (repeatable, default from reference data)")
	cmd.Flags().IntVar(&req.Limit, "limit", 0, "Maximum recommendations to return (0 = all)")
	cmd.Flags().BoolVar(&req.SkipCatalog, "flights-only", false, "Leave hotel and gift card redemptions out")

	return cmd
}
