package cli

import (
	"github.com/spf13/cobra"
)

func addAccountCommands(rootCmd *cobra.Command, app *App) {
	portfolioCmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Show current positions and account values",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd)
			ctx := cmd.Context()

			if err := app.Session.EnsureConnected(ctx); err != nil {
				return err
			}
			portfolio, err := app.Session.Portfolio(ctx)
			if err != nil {
				return err
			}

			if out.IsJSON() {
				return out.JSON(portfolio)
			}

			out.Bold("Portfolio (%s)", portfolio.Account)
			out.Printf("  Net Liquidation: %s\n", FormatCurrency(portfolio.TotalValue))
			out.Printf("  Cash:            %s\n", FormatCurrency(portfolio.TotalCash))
			out.Printf("  Buying Power:    %s\n", FormatCurrency(portfolio.BuyingPower))
			out.Printf("  Day P&L:         %s\n", FormatPnL(portfolio.DayPnL))
			out.Println()

			if len(portfolio.Positions) == 0 {
				out.Info("No open positions")
				return nil
			}
			out.Printf("%-28s %10s %12s %14s %12s\n",
				"INSTRUMENT", "QTY", "AVG COST", "MKT VALUE", "UNREAL P&L")
			for _, p := range portfolio.Positions {
				pnl := FormatPnL(p.UnrealizedPnL)
				if p.UnrealizedPnL > 0 {
					pnl = out.Green(pnl)
				} else if p.UnrealizedPnL < 0 {
					pnl = out.Red(pnl)
				}
				out.Printf("%-28s %10s %12s %14s %12s\n",
					FormatContract(p.Symbol, p.ContractKind, p.Option),
					FormatQuantity(p.Quantity),
					FormatCurrency(p.AverageCost),
					FormatCurrency(p.MarketValue),
					pnl)
			}
			return nil
		},
	}

	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Show account-level summary values",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd)
			ctx := cmd.Context()

			if err := app.Session.EnsureConnected(ctx); err != nil {
				return err
			}
			summary, err := app.Session.AccountSummary(ctx)
			if err != nil {
				return err
			}

			if out.IsJSON() {
				return out.JSON(summary)
			}

			out.Bold("Account Summary (%s)", summary.Account)
			rows := []struct {
				label string
				value float64
			}{
				{"Net Liquidation", summary.NetLiquidation},
				{"Total Cash", summary.TotalCashValue},
				{"Settled Cash", summary.SettledCash},
				{"Accrued Cash", summary.AccruedCash},
				{"Buying Power", summary.BuyingPower},
				{"Equity w/ Loan", summary.EquityWithLoanValue},
				{"Prev Day Equity", summary.PreviousDayEquityWithLoanValue},
				{"Gross Position Value", summary.GrossPositionValue},
				{"Reg T Margin", summary.RegTMargin},
				{"SMA", summary.SMA},
				{"Init Margin Req", summary.InitMarginReq},
				{"Maint Margin Req", summary.MaintMarginReq},
				{"Available Funds", summary.AvailableFunds},
				{"Excess Liquidity", summary.ExcessLiquidity},
			}
			for _, row := range rows {
				out.Printf("  %-22s %16s\n", row.label, FormatCurrency(row.value))
			}
			if summary.Currency != "" {
				out.Printf("  %-22s %16s\n", "Currency", summary.Currency)
			}
			return nil
		},
	}

	rootCmd.AddCommand(portfolioCmd, summaryCmd)
}
