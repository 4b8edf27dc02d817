package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"ibkr-trader/internal/config"
	apperrors "ibkr-trader/internal/errors"
	"ibkr-trader/internal/gateway"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Session.ReconnectAttempts = 3
	cfg.Session.ReconnectBackoff = time.Millisecond
	return cfg
}

func newTestSession(sim *gateway.Sim) *Session {
	return New(func() gateway.Transport { return sim }, testConfig(), zerolog.Nop(), nil)
}

func TestConnectResolvesFirstManagedAccount(t *testing.T) {
	sim := gateway.NewSim()
	sim.Accounts = []string{"DU111", "DU222"}
	sess := newTestSession(sim)

	if err := sess.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if got := sess.Account(); got != "DU111" {
		t.Errorf("Account = %q, want DU111", got)
	}
	if sess.CurrentState() != StateConnected {
		t.Errorf("state = %v, want connected", sess.CurrentState())
	}
}

func TestConnectPrefersConfiguredAccount(t *testing.T) {
	sim := gateway.NewSim()
	sim.Accounts = []string{"DU111", "DU222"}
	sess := newTestSession(sim)
	sess.cfg.Gateway.Account = "DU222"

	if err := sess.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if got := sess.Account(); got != "DU222" {
		t.Errorf("Account = %q, want DU222", got)
	}
}

func TestConnectHonoursConfiguredAccountNotInManagedList(t *testing.T) {
	sim := gateway.NewSim()
	sim.Accounts = []string{"DU111"}
	sess := newTestSession(sim)
	sess.cfg.Gateway.Account = "DU999"

	if err := sess.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if got := sess.Account(); got != "DU999" {
		t.Errorf("Account = %q, want configured DU999", got)
	}
}

func TestConnectConfiguredAccountSurvivesEmptyManagedList(t *testing.T) {
	sim := gateway.NewSim()
	sess := newTestSession(sim)
	sess.cfg.Gateway.Account = "DU999"

	if err := sess.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if got := sess.Account(); got != "DU999" {
		t.Errorf("Account = %q, want DU999", got)
	}
	if sess.CurrentState() != StateConnected {
		t.Errorf("state = %v, want connected", sess.CurrentState())
	}
}

func TestConnectFailsWithoutAccounts(t *testing.T) {
	sim := gateway.NewSim()
	sess := newTestSession(sim)

	err := sess.Connect(context.Background())
	if !errors.Is(err, apperrors.ErrNoAccountsFound) {
		t.Fatalf("err = %v, want ErrNoAccountsFound", err)
	}
	if sess.CurrentState() != StateDisconnected {
		t.Errorf("state = %v, want disconnected", sess.CurrentState())
	}
}

func TestEnsureConnectedDoesNotReconnectWhenAlive(t *testing.T) {
	sim := gateway.NewSim()
	sim.Accounts = []string{"DU111"}
	sess := newTestSession(sim)

	if err := sess.EnsureConnected(context.Background()); err != nil {
		t.Fatalf("EnsureConnected: %v", err)
	}
	connects := sim.ConnectCount()

	for i := 0; i < 5; i++ {
		if err := sess.EnsureConnected(context.Background()); err != nil {
			t.Fatalf("EnsureConnected #%d: %v", i, err)
		}
	}
	if sim.ConnectCount() != connects {
		t.Errorf("live session reconnected: %d -> %d connects", connects, sim.ConnectCount())
	}
}

func TestEnsureConnectedBoundsAttempts(t *testing.T) {
	sim := gateway.NewSim()
	sim.Accounts = []string{"DU111"}
	sim.ConnectErrs = []error{
		apperrors.ErrConnectFailed,
		apperrors.ErrConnectFailed,
		apperrors.ErrConnectFailed,
		apperrors.ErrConnectFailed, // would succeed only on attempt 5
	}
	sess := newTestSession(sim)

	err := sess.EnsureConnected(context.Background())
	if !errors.Is(err, apperrors.ErrConnectFailed) {
		t.Fatalf("err = %v, want ErrConnectFailed", err)
	}
	if got := sim.ConnectCount(); got != 3 {
		t.Errorf("connect attempts = %d, want 3", got)
	}
	if sess.CurrentState() != StateDisconnected {
		t.Errorf("state = %v, want disconnected after exhausted attempts", sess.CurrentState())
	}
}

func TestEnsureConnectedRecoversWithinBound(t *testing.T) {
	sim := gateway.NewSim()
	sim.Accounts = []string{"DU111"}
	sim.ConnectErrs = []error{apperrors.ErrConnectFailed, apperrors.ErrConnectFailed}
	sess := newTestSession(sim)

	if err := sess.EnsureConnected(context.Background()); err != nil {
		t.Fatalf("EnsureConnected: %v", err)
	}
	if got := sim.ConnectCount(); got != 3 {
		t.Errorf("connect attempts = %d, want 3", got)
	}
	if sess.CurrentState() != StateConnected {
		t.Errorf("state = %v, want connected", sess.CurrentState())
	}
}

func TestSuccessResetsAttemptCounter(t *testing.T) {
	sim := gateway.NewSim()
	sim.Accounts = []string{"DU111"}
	sim.ConnectErrs = []error{apperrors.ErrConnectFailed, apperrors.ErrConnectFailed}
	sess := newTestSession(sim)

	if err := sess.EnsureConnected(context.Background()); err != nil {
		t.Fatalf("first EnsureConnected: %v", err)
	}

	// Kill the connection; the full attempt budget must be available again
	// even though two attempts were already spent connecting the first time.
	dead := false
	sim.AliveOverride = &dead
	sim.ConnectErrs = []error{apperrors.ErrConnectFailed, apperrors.ErrConnectFailed}

	if err := sess.EnsureConnected(context.Background()); err != nil {
		t.Fatalf("second EnsureConnected: %v", err)
	}
	if got := sim.ConnectCount(); got != 6 {
		t.Errorf("connect attempts = %d, want 6 across both recoveries", got)
	}
}

func TestEnsureConnectedStopsOnMissingAccounts(t *testing.T) {
	sim := gateway.NewSim()
	sess := newTestSession(sim)

	err := sess.EnsureConnected(context.Background())
	if !errors.Is(err, apperrors.ErrNoAccountsFound) {
		t.Fatalf("err = %v, want ErrNoAccountsFound", err)
	}
	// Account resolution failure is not a transport flake; no retries.
	if got := sim.ConnectCount(); got != 1 {
		t.Errorf("connect attempts = %d, want 1", got)
	}
}

func TestEnsureConnectedHonoursContextDuringBackoff(t *testing.T) {
	sim := gateway.NewSim()
	sim.Accounts = []string{"DU111"}
	sim.ConnectErrs = []error{apperrors.ErrConnectFailed, apperrors.ErrConnectFailed, apperrors.ErrConnectFailed}
	sess := newTestSession(sim)
	sess.cfg.Session.ReconnectBackoff = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := sess.EnsureConnected(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want context deadline", err)
	}
	if got := sim.ConnectCount(); got != 1 {
		t.Errorf("connect attempts = %d, want 1 before cancelled backoff", got)
	}
}

func TestAccessorsFailFastWhenDisconnected(t *testing.T) {
	sim := gateway.NewSim()
	sess := newTestSession(sim)
	ctx := context.Background()

	if _, err := sess.Portfolio(ctx); !errors.Is(err, apperrors.ErrNotConnected) {
		t.Errorf("Portfolio err = %v, want ErrNotConnected", err)
	}
	if _, err := sess.AccountSummary(ctx); !errors.Is(err, apperrors.ErrNotConnected) {
		t.Errorf("AccountSummary err = %v, want ErrNotConnected", err)
	}
	if _, err := sess.Orders(ctx, true); !errors.Is(err, apperrors.ErrNotConnected) {
		t.Errorf("Orders err = %v, want ErrNotConnected", err)
	}
	if _, err := sess.Executions(ctx); !errors.Is(err, apperrors.ErrNotConnected) {
		t.Errorf("Executions err = %v, want ErrNotConnected", err)
	}
	if _, err := sess.CancelOrder(ctx, 1); !errors.Is(err, apperrors.ErrNotConnected) {
		t.Errorf("CancelOrder err = %v, want ErrNotConnected", err)
	}
}

func TestStatusEchoesConfiguration(t *testing.T) {
	sim := gateway.NewSim()
	sim.Accounts = []string{"DU111"}
	sess := newTestSession(sim)

	status := sess.Status(context.Background())
	if status.Connected || status.ConnectionAlive {
		t.Errorf("disconnected session reports connected: %+v", status)
	}

	if err := sess.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	status = sess.Status(context.Background())
	if !status.Connected || !status.ConnectionAlive {
		t.Errorf("live session reports disconnected: %+v", status)
	}
	if status.Account != "DU111" {
		t.Errorf("Account = %q, want DU111", status.Account)
	}
	if status.Host != sess.cfg.Gateway.Host || status.Port != sess.cfg.Gateway.Port {
		t.Errorf("status does not echo gateway config: %+v", status)
	}
}
