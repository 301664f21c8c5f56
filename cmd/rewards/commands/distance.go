package commands

import (
	"fmt"

	"github.com/beetlebot/rewards-cli/internal/core"
	"github.com/beetlebot/rewards-cli/internal/output"
	"github.com/spf13/cobra"
)

type distanceResult struct {
	Origin      core.AirportCode `json:"origin"`
	Destination core.AirportCode `json:"destination"`
	core.TierAssignment
}

func DistanceCmd() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:     "distance",
		Short:   "Great-circle distance and award tier between two airports",
		Example: `  rewards distance --from JFK --to LHR`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if from == "" || to == "" {
				return cmd.Help()
			}

			a, err := setup(cmd)
			if err != nil {
				return nil
			}
			defer a.Close()

			origin, err := core.ParseAirportCode(from)
			if err != nil {
				output.JSONError("distance failed", output.CodeInvalidInput, err.Error())
				return nil
			}
			destination, err := core.ParseAirportCode(to)
			if err != nil {
				output.JSONError("distance failed", output.CodeInvalidInput, err.Error())
				return nil
			}
			if origin == destination {
				output.JSONError("distance failed", output.CodeInvalidInput,
					fmt.Sprintf("origin and destination are both %s", origin))
				return nil
			}

			tier, err := a.orchestrator(cmd.Context()).ClassifyLeg(origin, destination)
			if err != nil {
				output.JSONError("distance failed", errorCode(err), err.Error())
				return nil
			}
			return emit(cmd, distanceResult{Origin: origin, Destination: destination, TierAssignment: tier})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Origin airport code (required)")
	cmd.Flags().StringVar(&to, "to", "", "Destination airport code (required)")

	return cmd
}
