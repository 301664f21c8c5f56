package commands

import (
	"github.com/beetlebot/rewards-cli/internal/core"
	"github.com/spf13/cobra"
)

func ProvidersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List offer providers and whether the current mode uses them",
	}
	cmd.AddCommand(providersListCmd())
	return cmd
}

func providersListCmd() *cobra.Command {
	var activeOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all registered providers and their status",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return nil
			}
			defer a.Close()

			infos := a.Router(cmd.Context()).ProviderInfos()
			if activeOnly {
				filtered := make([]core.ProviderInfo, 0, len(infos))
				for _, p := range infos {
					if p.Status == "active" {
						filtered = append(filtered, p)
					}
				}
				infos = filtered
			}
			return emit(cmd, infos)
		},
	}

	cmd.Flags().BoolVar(&activeOnly, "active", false, "Only show providers the current mode would query")
	return cmd
}
