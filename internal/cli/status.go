package cli

import (
	"time"

	"github.com/spf13/cobra"

	"ibkr-trader/pkg/utils"
)

func addStatusCommands(rootCmd *cobra.Command, app *App) {
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show gateway connection status",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd)
			ctx := cmd.Context()

			// Best effort connect so status reflects reachability, not
			// just configuration.
			if err := app.Session.EnsureConnected(ctx); err != nil {
				app.Logger.Debug().Err(err).Msg("Status probe could not connect")
			}
			status := app.Session.Status(ctx)

			if out.IsJSON() {
				return out.JSON(status)
			}

			out.Bold("Gateway Connection")
			if status.Connected && status.ConnectionAlive {
				out.Success("  State:     connected")
			} else {
				out.Error("  State:     disconnected")
			}
			out.Printf("  Host:      %s:%d\n", status.Host, status.Port)
			out.Printf("  Client ID: %d\n", status.ClientID)
			if status.Account != "" {
				out.Printf("  Account:   %s\n", status.Account)
			}
			mode := "live"
			if status.Paper {
				mode = "paper"
			}
			out.Printf("  Mode:      %s\n", mode)
			out.Printf("  Market:    %s\n", utils.GetMarketStatus(time.Now()))
			return nil
		},
	}
	rootCmd.AddCommand(statusCmd)
}
