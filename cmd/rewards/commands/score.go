package commands

import (
	"github.com/beetlebot/rewards-cli/internal/core"
	"github.com/beetlebot/rewards-cli/internal/output"
	"github.com/spf13/cobra"
)

type scoreResult struct {
	CashValue      core.Money      `json:"cashValue"`
	Fees           core.Money      `json:"fees"`
	PointsRequired int             `json:"pointsRequired"`
	Score          core.ValueScore `json:"score"`
}

func ScoreCmd() *cobra.Command {
	var (
		cash, fees, baseline float64
		points               int
		currency             string
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Value a single redemption in cents per point",
		Example: `  rewards score --cash 300 --points 25000 --baseline 1.2
  rewards score --cash 450 --fees 5.60 --points 30000 --baseline 1.4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if points == 0 && cash == 0 {
				return cmd.Help()
			}

			cashMoney := core.NewMoney(cash, currency)
			feesMoney := core.NewMoney(fees, currency)
			score, err := core.Score(cashMoney, points, baseline, feesMoney)
			if err != nil {
				output.JSONError("score failed", errorCode(err), err.Error())
				return nil
			}
			return emit(cmd, scoreResult{
				CashValue:      cashMoney,
				Fees:           feesMoney,
				PointsRequired: points,
				Score:          score,
			})
		},
	}

	cmd.Flags().Float64Var(&cash, "cash", 0, "Cash price of the redemption")
	cmd.Flags().Float64Var(&fees, "fees", 0, "Taxes and fees still paid in cash")
	cmd.Flags().IntVar(&points, "points", 0, "Points or miles required")
	cmd.Flags().Float64Var(&baseline, "baseline", 1.0, "Published value in cents per point")
	cmd.Flags().StringVar(&currency, "currency", "USD", "ISO currency of cash and fees")

	return cmd
}
