package commands

import (
	"fmt"
	"strings"

	"github.com/beetlebot/rewards-cli/internal/core"
	"github.com/spf13/cobra"
)

func DoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Validate configuration, reference data, and provider health",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return nil
			}
			defer a.Close()

			infos := a.Router(cmd.Context()).ProviderInfos()

			active := 0
			var issues []string
			for _, p := range infos {
				switch p.Status {
				case "active":
					active++
				case "no_credentials":
					missing := a.cfg.MissingCredentials(p.Name)
					if len(missing) == 0 {
						issues = append(issues, fmt.Sprintf("%s: %s", p.Name, p.Reason))
					} else {
						issues = append(issues, fmt.Sprintf("%s: missing %s", p.Name, strings.Join(missing, ", ")))
					}
				}
			}

			healthy := active > 0 && len(a.ref.Airports) > 0
			summary := fmt.Sprintf("%d/%d providers active (mode=%s), %d airports, %d hubs",
				active, len(infos), a.cfg.Mode, len(a.ref.Airports), len(a.ref.Hubs))
			if len(issues) > 0 {
				summary += " | issues: " + strings.Join(issues, "; ")
			}

			return emit(cmd, core.DoctorReport{
				Mode:      a.cfg.Mode,
				Providers: infos,
				Airports:  len(a.ref.Airports),
				Hubs:      len(a.ref.Hubs),
				Healthy:   healthy,
				Summary:   summary,
			})
		},
	}
	return cmd
}
