package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func addOrderCommands(rootCmd *cobra.Command, app *App) {
	ordersCmd := &cobra.Command{
		Use:   "orders",
		Short: "List open orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd)
			ctx := cmd.Context()
			all, _ := cmd.Flags().GetBool("all")

			if err := app.Session.EnsureConnected(ctx); err != nil {
				return err
			}
			orders, err := app.Session.Orders(ctx, !all)
			if err != nil {
				return err
			}

			if out.IsJSON() {
				return out.JSON(orders)
			}

			if len(orders) == 0 {
				out.Info("No orders")
				return nil
			}
			out.Printf("%-10s %-28s %-5s %-6s %10s %10s %10s %-14s\n",
				"ORDER ID", "INSTRUMENT", "SIDE", "TYPE", "QTY", "FILLED", "LIMIT", "STATUS")
			for _, o := range orders {
				out.Printf("%-10d %-28s %-5s %-6s %10s %10s %10s %-14s\n",
					o.OrderID,
					FormatContract(o.Symbol, o.ContractKind, o.Option),
					o.Action, o.OrderType,
					FormatQuantity(o.TotalQuantity),
					FormatQuantity(o.FilledQuantity),
					FormatOptional(o.LimitPrice),
					o.Status)
			}
			return nil
		},
	}
	ordersCmd.Flags().Bool("all", false, "include completed and cancelled orders")

	tradesCmd := &cobra.Command{
		Use:   "trades",
		Short: "List session orders with fill aggregates",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd)
			ctx := cmd.Context()

			if err := app.Session.EnsureConnected(ctx); err != nil {
				return err
			}
			trades, err := app.Session.Trades(ctx)
			if err != nil {
				return err
			}

			if out.IsJSON() {
				return out.JSON(trades)
			}

			if len(trades) == 0 {
				out.Info("No trades this session")
				return nil
			}
			out.Printf("%-10s %-28s %-5s %10s %10s %12s %12s %-14s\n",
				"ORDER ID", "INSTRUMENT", "SIDE", "FILLED", "AVG PX", "COMMISSION", "REAL P&L", "STATUS")
			for _, t := range trades {
				out.Printf("%-10d %-28s %-5s %10s %10.2f %12s %12s %-14s\n",
					t.OrderID,
					FormatContract(t.Symbol, t.ContractKind, t.Option),
					t.Action,
					FormatQuantity(t.FilledQuantity),
					t.AvgFillPrice,
					FormatCurrency(t.Commission),
					FormatPnL(t.RealizedPnL),
					t.Status)
			}
			return nil
		},
	}

	executionsCmd := &cobra.Command{
		Use:   "executions",
		Short: "List individual fills for the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd)
			ctx := cmd.Context()

			if err := app.Session.EnsureConnected(ctx); err != nil {
				return err
			}
			execs, err := app.Session.Executions(ctx)
			if err != nil {
				return err
			}

			if out.IsJSON() {
				return out.JSON(execs)
			}

			if len(execs) == 0 {
				out.Info("No executions this session")
				return nil
			}
			out.Printf("%-20s %-28s %-5s %10s %10s %-20s\n",
				"EXEC ID", "INSTRUMENT", "SIDE", "QTY", "PRICE", "TIME")
			for _, e := range execs {
				out.Printf("%-20s %-28s %-5s %10s %10.2f %-20s\n",
					e.ExecID,
					FormatContract(e.Symbol, e.ContractKind, e.Option),
					e.Action,
					FormatQuantity(e.Quantity),
					e.Price,
					e.Time.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}

	cancelCmd := &cobra.Command{
		Use:   "cancel ORDER_ID",
		Short: "Cancel an open order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd)
			ctx := cmd.Context()

			orderID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid order id %q: %w", args[0], err)
			}

			if err := app.Session.EnsureConnected(ctx); err != nil {
				return err
			}
			cancelled, err := app.Session.CancelOrder(ctx, orderID)
			if err != nil {
				return err
			}

			if out.IsJSON() {
				return out.JSON(map[string]interface{}{
					"order_id":  orderID,
					"cancelled": cancelled,
				})
			}
			if cancelled {
				out.Success("Cancel submitted for order %d", orderID)
			} else {
				out.Warning("No open order with ID %d", orderID)
			}
			return nil
		},
	}

	rootCmd.AddCommand(ordersCmd, tradesCmd, executionsCmd, cancelCmd)
}
