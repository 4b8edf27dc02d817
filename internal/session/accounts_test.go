package session

import (
	"context"
	"testing"

	"ibkr-trader/internal/gateway"
)

func TestPortfolioCombinesPositionsAndLedger(t *testing.T) {
	sim := gateway.NewSim()
	sim.Ledger = map[string][]gateway.AccountValue{
		"DU111": {
			{Tag: "NetLiquidation", Value: "100000"},
			{Tag: "TotalCashValue", Value: "25000"},
			{Tag: "BuyingPower", Value: "200000"},
			{Tag: "PreviousDayEquityWithLoanValue", Value: "99000"},
			{Tag: "Currency", Value: "USD"},
		},
	}
	sim.Positions = map[string][]gateway.PortfolioItem{
		"DU111": {
			{Contract: gateway.Contract{Symbol: "AAPL", SecType: "STK", Currency: "USD"},
				Account: "DU111", Position: 100, MarketValue: 18700, UnrealizedPnL: 450},
			{Contract: gateway.Contract{Symbol: "SPY", SecType: "OPT", Currency: "USD",
				Expiry: "20260220", Strike: 480, Right: "C"},
				Account: "DU111", Position: -1, MarketValue: -420, UnrealizedPnL: -30},
		},
	}
	sess := connectedSession(t, sim)

	portfolio, err := sess.Portfolio(context.Background())
	if err != nil {
		t.Fatalf("Portfolio: %v", err)
	}
	if portfolio.Account != "DU111" {
		t.Errorf("Account = %q", portfolio.Account)
	}
	if portfolio.TotalValue != 100000 || portfolio.TotalCash != 25000 {
		t.Errorf("headline values = %v/%v", portfolio.TotalValue, portfolio.TotalCash)
	}
	if portfolio.DayPnL != 1000 {
		t.Errorf("DayPnL = %v, want 1000", portfolio.DayPnL)
	}
	if portfolio.UnrealizedPnL != 420 {
		t.Errorf("UnrealizedPnL = %v, want 420", portfolio.UnrealizedPnL)
	}
	if len(portfolio.Positions) != 2 {
		t.Fatalf("positions = %d, want 2", len(portfolio.Positions))
	}
	if portfolio.Positions[0].Option != nil {
		t.Error("stock position carries option detail")
	}
	if portfolio.Positions[1].Option == nil {
		t.Error("option position missing option detail")
	}
}

func TestAccountSummaryFromLedger(t *testing.T) {
	sim := gateway.NewSim()
	sim.Ledger = map[string][]gateway.AccountValue{
		"DU111": {
			{Tag: "NetLiquidation", Value: "125430.55"},
			{Tag: "AvailableFunds", Value: "98210.10"},
			{Tag: "Currency", Value: "USD"},
			{Tag: "AccountType", Value: "INDIVIDUAL"},
		},
	}
	sess := connectedSession(t, sim)

	summary, err := sess.AccountSummary(context.Background())
	if err != nil {
		t.Fatalf("AccountSummary: %v", err)
	}
	if summary.NetLiquidation != 125430.55 {
		t.Errorf("NetLiquidation = %v", summary.NetLiquidation)
	}
	if summary.AvailableFunds != 98210.10 {
		t.Errorf("AvailableFunds = %v", summary.AvailableFunds)
	}
	if summary.BuyingPower != 0 {
		t.Errorf("unreported BuyingPower = %v, want 0", summary.BuyingPower)
	}
	if summary.Currency != "USD" {
		t.Errorf("Currency = %q", summary.Currency)
	}
}
