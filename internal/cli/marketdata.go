package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func addMarketDataCommands(rootCmd *cobra.Command, app *App) {
	quoteCmd := &cobra.Command{
		Use:   "quote SYMBOL",
		Short: "Fetch a stock price snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd)
			ctx := cmd.Context()
			symbol := strings.ToUpper(args[0])
			exchange, _ := cmd.Flags().GetString("exchange")

			if err := app.Session.EnsureConnected(ctx); err != nil {
				return err
			}
			quote, err := app.Fetcher.StockPrice(ctx, symbol, exchange)
			if err != nil {
				return err
			}

			if out.IsJSON() {
				return out.JSON(quote)
			}

			out.Bold("%s", quote.Symbol)
			if quote.Price == 0 {
				out.Warning("  No market data available")
			} else {
				out.Printf("  Price:  %.2f\n", quote.Price)
			}
			out.Printf("  Bid:    %s\n", FormatOptional(quote.Bid))
			out.Printf("  Ask:    %s\n", FormatOptional(quote.Ask))
			if quote.Volume != nil {
				out.Printf("  Volume: %d\n", *quote.Volume)
			}
			if quote.Close != nil {
				out.Printf("  Close:  %.2f\n", *quote.Close)
			}
			return nil
		},
	}
	quoteCmd.Flags().String("exchange", "SMART", "routing exchange")

	optionPriceCmd := &cobra.Command{
		Use:   "option-price SYMBOL EXPIRY STRIKE RIGHT",
		Short: "Fetch an option price snapshot",
		Long: `Fetch a price snapshot for a single option contract.

EXPIRY is yyyymmdd, STRIKE a decimal number, RIGHT is C or P.`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd)
			ctx := cmd.Context()

			symbol := strings.ToUpper(args[0])
			expiry := args[1]
			strike, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid strike %q: %w", args[2], err)
			}
			right := strings.ToUpper(args[3])
			if right != "C" && right != "P" {
				return fmt.Errorf("right must be C or P, got %q", args[3])
			}
			exchange, _ := cmd.Flags().GetString("exchange")

			if err := app.Session.EnsureConnected(ctx); err != nil {
				return err
			}
			quote, err := app.Fetcher.OptionPrice(ctx, symbol, expiry, strike, right, exchange)
			if err != nil {
				return err
			}

			if out.IsJSON() {
				return out.JSON(quote)
			}

			out.Bold("%s", quote.Symbol)
			if quote.Price == 0 {
				out.Warning("  No market data available")
			} else {
				out.Printf("  Price: %.2f\n", quote.Price)
			}
			out.Printf("  Bid:   %s\n", FormatOptional(quote.Bid))
			out.Printf("  Ask:   %s\n", FormatOptional(quote.Ask))
			return nil
		},
	}
	optionPriceCmd.Flags().String("exchange", "SMART", "routing exchange")

	rootCmd.AddCommand(quoteCmd, optionPriceCmd)
}
