package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func addChainCommands(rootCmd *cobra.Command, app *App) {
	chainCmd := &cobra.Command{
		Use:   "chain SYMBOL",
		Short: "Show an ATM-centered option chain",
		Long: `Fetch an option chain centered on the at-the-money strike.

With no --expiry the nearest listed expiration is used. --window bounds the
number of strikes around the ATM strike.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd)
			ctx := cmd.Context()
			symbol := strings.ToUpper(args[0])
			expiry, _ := cmd.Flags().GetString("expiry")
			window, _ := cmd.Flags().GetInt("window")
			exchange, _ := cmd.Flags().GetString("exchange")

			if err := app.Session.EnsureConnected(ctx); err != nil {
				return err
			}
			result, err := app.Builder.Build(ctx, symbol, expiry, window, exchange)
			if err != nil {
				return err
			}

			if out.IsJSON() {
				return out.JSON(result)
			}

			out.Bold("%s option chain  expiry %s  underlying %.2f",
				result.Symbol, result.Expiry, result.UnderlyingPrice)
			out.Printf("%10s | %8s %8s %8s | %8s %8s %8s\n",
				"STRIKE", "C BID", "C ASK", "C LAST", "P BID", "P ASK", "P LAST")
			for _, row := range result.Strikes {
				callBid, callAsk, callLast := "-", "-", "-"
				if row.Call != nil {
					callBid = FormatOptional(row.Call.Bid)
					callAsk = FormatOptional(row.Call.Ask)
					callLast = FormatOptional(row.Call.Last)
				}
				putBid, putAsk, putLast := "-", "-", "-"
				if row.Put != nil {
					putBid = FormatOptional(row.Put.Bid)
					putAsk = FormatOptional(row.Put.Ask)
					putLast = FormatOptional(row.Put.Last)
				}
				out.Printf("%10.2f | %8s %8s %8s | %8s %8s %8s\n",
					row.Strike, callBid, callAsk, callLast, putBid, putAsk, putLast)
			}
			return nil
		},
	}
	chainCmd.Flags().String("expiry", "", "expiration (yyyymmdd), default nearest")
	chainCmd.Flags().Int("window", 0, "strikes around ATM (default from config)")
	chainCmd.Flags().String("exchange", "SMART", "routing exchange")

	expirationsCmd := &cobra.Command{
		Use:   "expirations SYMBOL",
		Short: "List available option expirations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd)
			ctx := cmd.Context()
			symbol := strings.ToUpper(args[0])
			exchange, _ := cmd.Flags().GetString("exchange")

			if err := app.Session.EnsureConnected(ctx); err != nil {
				return err
			}
			expirations, err := app.Builder.Expirations(ctx, symbol, exchange)
			if err != nil {
				return err
			}

			if out.IsJSON() {
				return out.JSON(map[string]interface{}{
					"symbol":      symbol,
					"expirations": expirations,
				})
			}

			if len(expirations) == 0 {
				out.Info("No option expirations for %s", symbol)
				return nil
			}
			out.Bold("%s expirations", symbol)
			for _, exp := range expirations {
				out.Println("  " + exp)
			}
			return nil
		},
	}
	expirationsCmd.Flags().String("exchange", "SMART", "routing exchange")

	rootCmd.AddCommand(chainCmd, expirationsCmd)
}
