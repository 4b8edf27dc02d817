package cli

import (
	"github.com/spf13/cobra"

	"ibkr-trader/internal/config"
)

func addUtilityCommands(rootCmd *cobra.Command, app *App) {
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := NewOutput(cmd)
			if out.IsJSON() {
				_ = out.JSON(map[string]string{"version": Version})
				return
			}
			out.Printf("ibkr-trader %s\n", Version)
		},
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a template configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd)
			configDir, _ := cmd.Flags().GetString("config")
			if err := config.WriteTemplate(configDir); err != nil {
				return err
			}
			if configDir == "" {
				configDir = config.DefaultConfigDir()
			}
			out.Success("Wrote config template to %s/config.toml", configDir)
			return nil
		},
	}

	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Show recent session events",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd)
			limit, _ := cmd.Flags().GetInt("limit")

			if app.Audit == nil {
				out.Warning("Audit journal is disabled")
				return nil
			}
			events, err := app.Audit.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if out.IsJSON() {
				return out.JSON(events)
			}
			if len(events) == 0 {
				out.Info("No recorded events")
				return nil
			}
			for _, e := range events {
				out.Printf("%s  %-18s %s\n",
					e.Timestamp.Format("2006-01-02 15:04:05"), e.Event, e.Detail)
			}
			return nil
		},
	}
	auditCmd.Flags().Int("limit", 50, "maximum events to show")

	rootCmd.AddCommand(versionCmd, initCmd, auditCmd)
}
