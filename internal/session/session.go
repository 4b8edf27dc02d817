// Package session owns the gateway connection lifecycle: connect, account
// resolution, liveness checks and the bounded reconnect policy. All gateway
// operations go through a Session so that a broken transport is repaired (or
// reported) in exactly one place.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ibkr-trader/internal/config"
	apperrors "ibkr-trader/internal/errors"
	"ibkr-trader/internal/gateway"
	"ibkr-trader/internal/models"
)

// State is the session's connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
)

// TransportFactory builds a fresh transport. Each reconnect attempt uses a
// new transport so a wedged connection never poisons the next attempt.
type TransportFactory func() gateway.Transport

// Auditor records session lifecycle events. Implementations must tolerate
// being called concurrently; a nil Auditor disables recording.
type Auditor interface {
	Record(ctx context.Context, event, detail string)
}

// Session is the resilient client session over the gateway.
type Session struct {
	factory TransportFactory
	cfg     *config.Config
	logger  zerolog.Logger
	audit   Auditor

	mu        sync.Mutex
	transport gateway.Transport
	state     State
	account   string
	attempts  int // consecutive failed reconnect attempts
}

// New creates a disconnected session.
func New(factory TransportFactory, cfg *config.Config, logger zerolog.Logger, audit Auditor) *Session {
	return &Session{
		factory: factory,
		cfg:     cfg,
		logger:  logger.With().Str("component", "session").Logger(),
		audit:   audit,
		state:   StateDisconnected,
	}
}

func (s *Session) record(ctx context.Context, event, detail string) {
	if s.audit != nil {
		s.audit.Record(ctx, event, detail)
	}
}

// Connect establishes the session: opens the transport and resolves the
// working account. A session that is already live is left untouched.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateConnected && s.transport != nil && s.transport.IsConnected(ctx) {
		return nil
	}
	s.state = StateConnecting
	return s.connectLocked(ctx)
}

// connectLocked runs one connect attempt over a fresh transport. Caller
// holds the mutex.
func (s *Session) connectLocked(ctx context.Context) error {
	if s.transport != nil {
		_ = s.transport.Disconnect()
	}
	s.transport = s.factory()

	if err := s.transport.Connect(ctx); err != nil {
		s.state = StateDisconnected
		return apperrors.Wrap(err, "connecting to gateway")
	}

	account, err := s.resolveAccount(ctx)
	if err != nil {
		_ = s.transport.Disconnect()
		s.state = StateDisconnected
		return err
	}

	s.account = account
	s.state = StateConnected
	s.attempts = 0
	s.logger.Info().
		Str("account", account).
		Str("host", s.cfg.Gateway.Host).
		Int("port", s.cfg.Gateway.Port).
		Bool("paper", s.cfg.Gateway.Paper).
		Msg("Session connected")
	s.record(ctx, "connect", account)
	return nil
}

// resolveAccount picks the working account. A configured account is used
// unconditionally; the managed list only matters for auto-detection, where an
// empty list is ErrNoAccountsFound.
func (s *Session) resolveAccount(ctx context.Context) (string, error) {
	accounts, err := s.transport.ManagedAccounts(ctx)
	if err != nil {
		return "", apperrors.Wrap(err, "listing managed accounts")
	}
	if want := s.cfg.Gateway.Account; want != "" {
		found := false
		for _, a := range accounts {
			if a == want {
				found = true
				break
			}
		}
		if !found {
			s.logger.Warn().Str("configured", want).Strs("managed", accounts).
				Msg("Configured account not in managed list")
		}
		return want, nil
	}
	if len(accounts) == 0 {
		return "", apperrors.ErrNoAccountsFound
	}
	return accounts[0], nil
}

// Disconnect closes the session. Idempotent.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.transport == nil {
		s.state = StateDisconnected
		return nil
	}
	err := s.transport.Disconnect()
	s.state = StateDisconnected
	s.record(context.Background(), "disconnect", s.account)
	s.logger.Info().Msg("Session disconnected")
	return err
}

// IsAlive probes the transport. A session that was never connected is not
// alive; a live probe resets the reconnect attempt counter.
func (s *Session) IsAlive(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConnected || s.transport == nil {
		return false
	}
	if s.transport.IsConnected(ctx) {
		s.attempts = 0
		return true
	}
	return false
}

// EnsureConnected makes the session live, reconnecting if the transport has
// died. Reconnects are bounded: after the configured number of consecutive
// failed attempts the session stays disconnected and the last error is
// returned. A successful probe or connect resets the counter.
func (s *Session) EnsureConnected(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateConnected && s.transport != nil && s.transport.IsConnected(ctx) {
		s.attempts = 0
		return nil
	}

	wasConnected := s.state == StateConnected
	if wasConnected {
		s.logger.Warn().Msg("Gateway connection lost, reconnecting")
		s.state = StateReconnecting
	} else {
		s.state = StateConnecting
	}

	var lastErr error
	max := s.cfg.Session.ReconnectAttempts
	for s.attempts < max {
		s.attempts++
		attempt := s.attempts
		s.record(ctx, "reconnect_attempt", s.account)
		s.logger.Info().Int("attempt", attempt).Int("max", max).Msg("Connecting to gateway")

		if err := s.connectLocked(ctx); err != nil {
			lastErr = err
			s.logger.Warn().Int("attempt", attempt).Err(err).Msg("Connect attempt failed")
			if apperrors.Is(err, apperrors.ErrNoAccountsFound) {
				return err
			}
			if attempt < max {
				if err := s.backoff(ctx); err != nil {
					return err
				}
			}
			continue
		}
		return nil
	}

	s.state = StateDisconnected
	if lastErr == nil {
		lastErr = apperrors.ErrConnectFailed
	}
	return apperrors.Wrapf(lastErr, "gateway unreachable after %d attempts", max)
}

// backoff waits the configured interval between reconnect attempts,
// honouring context cancellation.
func (s *Session) backoff(ctx context.Context) error {
	d := s.cfg.Session.ReconnectBackoff
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// live returns the live transport or fails fast. Callers that can tolerate
// a reconnect should run EnsureConnected first.
func (s *Session) live() (gateway.Transport, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConnected || s.transport == nil {
		return nil, "", apperrors.ErrNotConnected
	}
	return s.transport, s.account, nil
}

// Transport exposes the live transport for the market data layer.
func (s *Session) Transport() (gateway.Transport, error) {
	t, _, err := s.live()
	return t, err
}

// Account returns the resolved working account, empty when disconnected.
func (s *Session) Account() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.account
}

// State returns the session state.
func (s *Session) CurrentState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Status echoes the session state and gateway configuration.
func (s *Session) Status(ctx context.Context) models.ConnectionStatus {
	alive := s.IsAlive(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.ConnectionStatus{
		Connected:       s.state == StateConnected,
		ConnectionAlive: alive,
		Account:         s.account,
		Host:            s.cfg.Gateway.Host,
		Port:            s.cfg.Gateway.Port,
		ClientID:        s.cfg.Gateway.ClientID,
		Paper:           s.cfg.Gateway.Paper,
		Timestamp:       time.Now(),
	}
}
