package main

import (
	"fmt"
	"os"

	"github.com/beetlebot/rewards-cli/cmd/rewards/commands"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "rewards",
		Short: "Beetlebot rewards optimizer – where your points are worth the most",
		Long:  "A local-first CLI that prices flights, synthetic connections, hotel stays and gift cards in points and ranks them by cents per point, with compact JSON output for AI consumption.",
	}

	root.PersistentFlags().String("mode", "", "Provider mode: mock, live, hybrid (default from config/env)")
	root.PersistentFlags().Bool("compact", false, "Single-line JSON output")
	root.PersistentFlags().String("config", "", "Config file (default $REWARDS_CONFIG or ~/.config/beetlebot/rewards.yaml)")

	root.AddCommand(commands.OptimizeCmd())
	root.AddCommand(commands.ScoreCmd())
	root.AddCommand(commands.DistanceCmd())
	root.AddCommand(commands.ProvidersCmd())
	root.AddCommand(commands.DoctorCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print rewards CLI version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("rewards v0.1.0")
		},
	}
}
