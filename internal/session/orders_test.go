package session

import (
	"context"
	"testing"

	"ibkr-trader/internal/gateway"
	"ibkr-trader/internal/models"
)

func connectedSession(t *testing.T, sim *gateway.Sim) *Session {
	t.Helper()
	sim.Accounts = []string{"DU111"}
	sess := newTestSession(sim)
	if err := sess.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	return sess
}

func TestOrdersOpenOnlyFiltersInactive(t *testing.T) {
	sim := gateway.NewSim()
	sim.OrderRows = []gateway.OrderRecord{
		{OrderID: 1, Status: "Submitted", Contract: gateway.Contract{Symbol: "AAPL", SecType: "STK"}},
		{OrderID: 2, Status: "Filled", Contract: gateway.Contract{Symbol: "MSFT", SecType: "STK"}},
		{OrderID: 3, Status: "PreSubmitted", Contract: gateway.Contract{Symbol: "TSLA", SecType: "STK"}},
	}
	sess := connectedSession(t, sim)

	open, err := sess.Orders(context.Background(), true)
	if err != nil {
		t.Fatalf("Orders: %v", err)
	}
	if len(open) != 2 {
		t.Fatalf("open orders = %d, want 2", len(open))
	}
	for _, o := range open {
		if o.Status == "Filled" {
			t.Errorf("filled order leaked into open list: %+v", o)
		}
	}

	all, err := sess.Orders(context.Background(), false)
	if err != nil {
		t.Fatalf("Orders all: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("all orders = %d, want 3", len(all))
	}
}

func TestCancelOrderUnknownIDIsFalseNotError(t *testing.T) {
	sim := gateway.NewSim()
	sim.OrderRows = []gateway.OrderRecord{
		{OrderID: 1, Status: "Submitted", Contract: gateway.Contract{Symbol: "AAPL", SecType: "STK"}},
	}
	sess := connectedSession(t, sim)

	cancelled, err := sess.CancelOrder(context.Background(), 999)
	if err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	if cancelled {
		t.Error("cancel of unknown order reported true")
	}
	if len(sim.CancelledIDs) != 0 {
		t.Errorf("cancel reached gateway for unknown order: %v", sim.CancelledIDs)
	}
}

func TestCancelOrderSubmitsForOpenOrder(t *testing.T) {
	sim := gateway.NewSim()
	sim.OrderRows = []gateway.OrderRecord{
		{OrderID: 7, Status: "Submitted", Contract: gateway.Contract{Symbol: "AAPL", SecType: "STK"}},
	}
	sess := connectedSession(t, sim)

	cancelled, err := sess.CancelOrder(context.Background(), 7)
	if err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	if !cancelled {
		t.Error("cancel of open order reported false")
	}
	if len(sim.CancelledIDs) != 1 || sim.CancelledIDs[0] != 7 {
		t.Errorf("gateway cancel calls = %v, want [7]", sim.CancelledIDs)
	}
}

func TestTradesAggregateFills(t *testing.T) {
	sim := gateway.NewSim()
	sim.OrderRows = []gateway.OrderRecord{
		{OrderID: 5, Status: "Filled", Filled: 20, TotalQuantity: 20,
			Contract: gateway.Contract{Symbol: "AAPL", SecType: "STK"}, Action: "BUY"},
	}
	sim.FillRows = []gateway.Fill{
		{OrderID: 5, Shares: 10, Price: 100, Time: "20260115 10:00:00",
			Contract:   gateway.Contract{Symbol: "AAPL", SecType: "STK"},
			Commission: &gateway.CommissionReport{Commission: 1.00, RealizedPnL: 5}},
		{OrderID: 5, Shares: 10, Price: 101, Time: "20260115 10:00:01",
			Contract:   gateway.Contract{Symbol: "AAPL", SecType: "STK"},
			Commission: &gateway.CommissionReport{Commission: 1.00, RealizedPnL: 5}},
	}
	sess := connectedSession(t, sim)

	trades, err := sess.Trades(context.Background())
	if err != nil {
		t.Fatalf("Trades: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("trades = %d, want 1", len(trades))
	}
	if trades[0].Commission != 2.00 {
		t.Errorf("Commission = %v, want 2.00", trades[0].Commission)
	}
	if trades[0].RealizedPnL != 10 {
		t.Errorf("RealizedPnL = %v, want 10", trades[0].RealizedPnL)
	}
}

func TestExecutionsCarryOptionDetail(t *testing.T) {
	sim := gateway.NewSim()
	sim.FillRows = []gateway.Fill{
		{ExecID: "0001.01", OrderID: 2, Side: "SLD", Shares: 1, Price: 4.20,
			Time: "20260115 11:15:00",
			Contract: gateway.Contract{Symbol: "SPY", SecType: "OPT",
				Expiry: "20260220", Strike: 480, Right: "P"}},
	}
	sess := connectedSession(t, sim)

	execs, err := sess.Executions(context.Background())
	if err != nil {
		t.Fatalf("Executions: %v", err)
	}
	if len(execs) != 1 {
		t.Fatalf("executions = %d, want 1", len(execs))
	}
	e := execs[0]
	if e.Action != models.SideSold {
		t.Errorf("Action = %v, want SLD", e.Action)
	}
	if e.Option == nil || e.Option.Strike != 480 || e.Option.Right != models.RightPut {
		t.Errorf("option detail = %+v", e.Option)
	}
}
